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
	"github.com/inkvault/inkvault/pkg/server/app"
	"github.com/inkvault/inkvault/pkg/server/database"
	"github.com/inkvault/inkvault/pkg/server/log"
	"github.com/inkvault/inkvault/pkg/server/middleware"
	"github.com/pkg/errors"
	"github.com/robfig/cron"
)

// job is a maintenance task run periodically while the server is up
type job struct {
	name string
	spec string
	run  func(a *app.App) error
}

var jobs = []job{
	{name: "purge expired sessions", spec: "@every 1h", run: purgeSessions},
	{name: "checkpoint wal", spec: "@every 5m", run: checkpoint},
	{name: "sweep rate limiters", spec: "@every 10m", run: sweepLimiters},
}

func purgeSessions(a *app.App) error {
	n, err := a.DeleteExpiredSessions()
	if err != nil {
		return err
	}

	if n > 0 {
		log.WithFields(log.Fields{
			"count": n,
		}).Info("purged expired sessions")
	}

	return nil
}

func checkpoint(a *app.App) error {
	return database.Checkpoint(a.DB)
}

func sweepLimiters(a *app.App) error {
	n := middleware.SweepDefault()
	log.WithFields(log.Fields{
		"count": n,
	}).Debug("swept idle rate limiters")

	return nil
}

// startJobs schedules the maintenance jobs and starts the scheduler. The
// caller stops it on shutdown.
func startJobs(a *app.App) (*cron.Cron, error) {
	c := cron.New()

	for _, j := range jobs {
		j := j
		err := c.AddFunc(j.spec, func() {
			if err := j.run(a); err != nil {
				log.WithFields(log.Fields{
					"job": j.name,
				}).ErrorWrap(err, "running job")
			}
		})
		if err != nil {
			return nil, errors.Wrapf(err, "scheduling '%s'", j.name)
		}
	}

	c.Start()

	return c, nil
}
