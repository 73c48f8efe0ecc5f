/* Copyright 2026 Inkvault Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/inkvault/inkvault/pkg/server/buildinfo"
	"github.com/inkvault/inkvault/pkg/server/config"
	"github.com/inkvault/inkvault/pkg/server/controllers"
	"github.com/inkvault/inkvault/pkg/server/log"
	"github.com/inkvault/inkvault/pkg/server/notify"
	"github.com/pkg/errors"
)

const shutdownTimeout = 10 * time.Second

func startCmd(args []string) {
	fs := setupFlagSet("start", "inkvault-server start")

	port := fs.String("port", "", "Server port (env: PORT, default: 3001)")
	db := addDBFlags(fs)
	disableRegistration := fs.Bool("disableRegistration", false, "Disable user registration (env: DISABLE_REGISTRATION, default: false)")
	logLevel := fs.String("logLevel", "", "Log level: debug, info, warn, or error (env: LOG_LEVEL, default: info)")
	logFile := fs.String("logFile", "", "Also write logs to this file, rotated by size (env: LOG_FILE)")
	quotaBytes := fs.Int64("quotaBytes", 0, "Per-account storage quota in bytes (env: QUOTA_BYTES, default: 104857600)")
	sessionTTL := fs.Duration("sessionTTL", 0, "Session lifetime (env: SESSION_TTL, default: 720h)")

	fs.Parse(args)

	cfg, err := config.New(config.Params{
		Port:                *port,
		DBDriver:            *db.driver,
		DBDSN:               *db.dsn,
		DisableRegistration: *disableRegistration,
		LogLevel:            *logLevel,
		LogFile:             *logFile,
		QuotaBytes:          *quotaBytes,
		SessionTTL:          *sessionTTL,
	})
	if err != nil {
		fmt.Printf("Error: %s\n\n", err)
		fs.Usage()
		os.Exit(1)
	}

	log.Init(log.Options{
		File:       cfg.LogFile,
		MaxSizeMB:  100,
		MaxBackups: 5,
	})
	log.SetLevel(cfg.LogLevel)
	defer log.Sync()

	hub := notify.NewHub()
	app := initApp(cfg, hub)
	defer closeDB(app.DB)

	scheduler, err := startJobs(&app)
	if err != nil {
		log.ErrorWrap(err, "starting jobs")
		os.Exit(1)
	}
	defer scheduler.Stop()

	ctl := controllers.New(&app, hub)
	rc := controllers.RouteConfig{
		APIRoutes:   controllers.NewAPIRoutes(&app, ctl),
		Controllers: ctl,
	}

	r, err := controllers.NewRouter(&app, rc)
	if err != nil {
		panic(errors.Wrap(err, "initializing router"))
	}

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Port),
		Handler: r,
	}

	log.WithFields(log.Fields{
		"version":  buildinfo.Version,
		"port":     cfg.Port,
		"dbDriver": cfg.DBDriver,
	}).Info("Inkvault server starting")

	if err := serve(srv); err != nil {
		log.ErrorWrap(err, "server failed")
		os.Exit(1)
	}
}

// serve runs the server until it fails or the process is interrupted. On
// interrupt, in-flight requests are given shutdownTimeout to finish.
func serve(srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sig)

	select {
	case err := <-errCh:
		return err
	case s := <-sig:
		log.WithFields(log.Fields{
			"signal": s.String(),
		}).Info("shutting down")
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		return errors.Wrap(err, "shutting down")
	}

	return nil
}
