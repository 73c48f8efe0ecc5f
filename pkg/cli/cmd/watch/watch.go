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

package watch

import (
	stdcontext "context"
	"os"
	"os/signal"
	"path/filepath"
	"regexp"
	"syscall"
	"time"

	"github.com/inkvault/inkvault/pkg/cli/client"
	synccmd "github.com/inkvault/inkvault/pkg/cli/cmd/sync"
	"github.com/inkvault/inkvault/pkg/cli/context"
	"github.com/inkvault/inkvault/pkg/cli/infra"
	"github.com/inkvault/inkvault/pkg/cli/log"
	"github.com/inkvault/inkvault/pkg/cli/syncer"
	"github.com/inkvault/inkvault/pkg/record"
	"github.com/pkg/errors"
	"github.com/radovskyb/watcher"
	"github.com/robfig/cron"
	"github.com/spf13/cobra"
)

const (
	// eventsTimeout is how long a single events request waits on the server
	eventsTimeout = 60 * time.Second
	// eventsRetryInterval is the pause after a failed events request
	eventsRetryInterval = 5 * time.Second
	// filePollInterval is how often the database file is checked for writes
	filePollInterval = time.Second
)

var example = `
  * Keep this device in sync until interrupted
  inkvault watch`

// NewCmd returns a new watch command
func NewCmd(ctx context.InkvaultCtx) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "watch",
		Short:   "Sync continuously in the foreground",
		Example: example,
		Args:    cobra.NoArgs,
		RunE:    newRun(ctx),
	}

	return cmd
}

type trigger interface {
	Trigger(reason syncer.Reason)
}

type eventSource interface {
	WaitEvents(ctx stdcontext.Context, timeout time.Duration) ([]string, error)
}

// watchChanges triggers a sync whenever this process writes a dirty record
func watchChanges(c stdcontext.Context, changes <-chan struct{}, t trigger) {
	for {
		select {
		case <-c.Done():
			return
		case <-changes:
			t.Trigger(syncer.ReasonDirty)
		}
	}
}

// watchEvents long-polls the server and triggers a sync whenever another
// device commits a change
func watchEvents(c stdcontext.Context, src eventSource, t trigger, retry time.Duration) {
	for {
		changed, err := src.WaitEvents(c, eventsTimeout)
		if c.Err() != nil {
			return
		}

		if err != nil {
			if client.IsUnauthorized(err) {
				log.Errorf("stopped listening for changes: %s\n", err.Error())
				return
			}

			log.Debug("waiting for events: %s\n", err.Error())

			select {
			case <-c.Done():
				return
			case <-time.After(retry):
			}
			continue
		}

		if len(changed) > 0 {
			log.Debug("%d records changed on the server\n", len(changed))
			t.Trigger(syncer.ReasonPush)
		}
	}
}

// watchFile calls onWrite whenever the database file is written, which
// happens when another process such as `inkvault add` saves a record.
// It blocks until c is done.
func watchFile(c stdcontext.Context, path string, interval time.Duration, onWrite func()) error {
	w := watcher.New()
	w.SetMaxEvents(1)
	w.FilterOps(watcher.Write, watcher.Create)

	name := regexp.QuoteMeta(filepath.Base(path))
	w.AddFilterHook(watcher.RegexFilterHook(regexp.MustCompile("^"+name+"(-wal)?$"), false))

	if err := w.Add(filepath.Dir(path)); err != nil {
		return errors.Wrap(err, "watching the database directory")
	}

	go func() {
		for {
			select {
			case <-w.Event:
				onWrite()
			case err := <-w.Error:
				log.Debug("watching the database: %s\n", err.Error())
			case <-w.Closed:
				return
			}
		}
	}()

	go func() {
		// Close is a no-op until Start is running
		w.Wait()
		<-c.Done()
		w.Close()
	}()

	if err := w.Start(interval); err != nil {
		return errors.Wrap(err, "starting the watcher")
	}

	return nil
}

// schedule triggers a sync on the cron spec
func schedule(spec string, t trigger) (*cron.Cron, error) {
	c := cron.New()

	err := c.AddFunc(spec, func() {
		t.Trigger(syncer.ReasonSchedule)
	})
	if err != nil {
		return nil, errors.Wrapf(err, "scheduling '%s'", spec)
	}

	c.Start()

	return c, nil
}

func hasDirty(ctx context.InkvaultCtx) bool {
	rs, err := ctx.Store.Query(syncer.Filter{State: record.StateDirty, IncludeDeleted: true})
	if err != nil {
		log.Debug("querying dirty records: %s\n", err.Error())
		return false
	}

	return len(rs) > 0
}

func report(reason syncer.Reason, res syncer.Result, err error) {
	if err != nil {
		log.Errorf("sync (%s) failed: %s\n", reason, synccmd.Describe(err).Error())
		return
	}

	if res.Pushed == 0 && res.Pulled == 0 && res.Merged == 0 && len(res.Conflicts) == 0 {
		log.Debug("sync (%s): nothing to do\n", reason)
		return
	}

	log.Infof("sync (%s): pushed %d, pulled %d, merged %d\n", reason, res.Pushed, res.Pulled, res.Merged)
	if len(res.Conflicts) > 0 {
		log.Warnf("%d conflicts need your decision. Run `inkvault conflicts` to review them\n", len(res.Conflicts))
	}
}

// Run keeps the store in sync until c is done
func Run(c stdcontext.Context, ctx context.InkvaultCtx) error {
	creds, err := ctx.Store.Credentials()
	if err != nil {
		return errors.Wrap(err, "getting credentials")
	}
	if !creds.LoggedIn {
		return synccmd.Describe(syncer.ErrNotLoggedIn)
	}

	o := ctx.Orchestrator(report)

	sched, err := schedule(ctx.SyncSchedule, o)
	if err != nil {
		return err
	}
	defer sched.Stop()

	go watchChanges(c, ctx.Store.Changes(), o)
	go watchEvents(c, ctx.Client(), o, eventsRetryInterval)
	go func() {
		err := watchFile(c, ctx.DBPath, filePollInterval, func() {
			if hasDirty(ctx) {
				o.Trigger(syncer.ReasonDirty)
			}
		})
		if err != nil {
			log.Errorf("%s\n", err.Error())
		}
	}()

	o.Trigger(syncer.ReasonFocus)

	<-c.Done()

	log.Infof("syncing before exit\n")
	o.Trigger(syncer.ReasonBackground)
	o.Wait()

	return nil
}

func newRun(ctx context.InkvaultCtx) infra.RunEFunc {
	return func(cmd *cobra.Command, args []string) error {
		c, stop := signal.NotifyContext(stdcontext.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		log.Infof("watching for changes. Press Ctrl+C to stop\n")

		return Run(c, ctx)
	}
}
