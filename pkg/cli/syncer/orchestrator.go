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

// Package syncer keeps the local record store of a device in agreement with
// the server
package syncer

import (
	"context"
	"sync"
	"time"

	"github.com/inkvault/inkvault/pkg/cli/log"
	"github.com/inkvault/inkvault/pkg/clock"
	"github.com/inkvault/inkvault/pkg/wire"
)

// DefaultTimeout is the default timeout of the sync request
const DefaultTimeout = 30 * time.Second

// Transport sends sync requests to the server
type Transport interface {
	Sync(ctx context.Context, req wire.SyncRequest) (wire.SyncResponse, error)
}

// Reason is what caused a sync to be scheduled
type Reason string

const (
	// ReasonFocus is the application gaining focus
	ReasonFocus Reason = "focus"
	// ReasonBackground is the application going to the background
	ReasonBackground Reason = "background"
	// ReasonDirty is a dirty record appearing in the local store
	ReasonDirty Reason = "dirty"
	// ReasonPush is a change notification from the server
	ReasonPush Reason = "push"
	// ReasonSchedule is the periodic schedule
	ReasonSchedule Reason = "schedule"
	// ReasonManual is an explicit request of the user
	ReasonManual Reason = "manual"
	// ReasonRerun is a run queued while another was in flight
	ReasonRerun Reason = "rerun"
)

// Result is the outcome of one sync round
type Result struct {
	// Pushed is the number of local changes the server accepted
	Pushed int
	// Pulled is the number of server changes applied locally
	Pulled int
	// Merged is the number of conflicts merged automatically
	Merged int
	// Conflicts are the ids of records that need manual resolution
	Conflicts []string
	// Failed are the ids of local records that could not be encrypted
	Failed []string
	// Unreadable are the ids of server records that could not be decrypted.
	// The cursor moves past them, so only a full sync fetches them again.
	Unreadable []string
	// Remaining is the number of dirty records left for the next round
	Remaining int
	SyncedTo  int64
}

// Options configure an Orchestrator
type Options struct {
	// Timeout bounds the sync request. Defaults to DefaultTimeout.
	Timeout time.Duration
	Clock   clock.Clock
	// OnResult is called after every round
	OnResult func(reason Reason, res Result, err error)
	// MaxRequestBytes bounds the encoded size of a request. Defaults to
	// wire.MaxRequestBytes.
	MaxRequestBytes int
}

// run is a sync round. done is closed when result and err are set.
type run struct {
	reason Reason
	done   chan struct{}
	result Result
	err    error
}

// Orchestrator runs sync rounds one at a time. Requests arriving while a
// round is in flight are folded into at most one queued round.
type Orchestrator struct {
	store     Store
	transport Transport
	clock     clock.Clock
	timeout   time.Duration
	onResult  func(Reason, Result, error)
	maxBytes  int

	mu          sync.Mutex
	current     *run
	rerun       bool
	rerunReason Reason
}

// New returns an orchestrator syncing the store through the transport
func New(store Store, transport Transport, opts Options) *Orchestrator {
	ret := &Orchestrator{
		store:     store,
		transport: transport,
		clock:     opts.Clock,
		timeout:   opts.Timeout,
		onResult:  opts.OnResult,
		maxBytes:  opts.MaxRequestBytes,
	}

	if ret.clock == nil {
		ret.clock = clock.New()
	}
	if ret.timeout <= 0 {
		ret.timeout = DefaultTimeout
	}
	if ret.maxBytes <= 0 {
		ret.maxBytes = wire.MaxRequestBytes
	}

	return ret
}

// startLocked starts a round. The caller holds o.mu.
func (o *Orchestrator) startLocked(reason Reason) *run {
	r := &run{
		reason: reason,
		done:   make(chan struct{}),
	}
	o.current = r

	go o.execute(r)

	return r
}

func (o *Orchestrator) execute(r *run) {
	log.Debug("sync started (%s)\n", r.reason)

	res, err := o.syncOnce(context.Background())

	o.mu.Lock()
	r.result, r.err = res, err
	close(r.done)
	o.current = nil

	if err == nil && res.Remaining > 0 && !o.rerun {
		o.rerun = true
		o.rerunReason = ReasonRerun
	}
	if o.rerun {
		reason := o.rerunReason
		o.rerun = false
		o.rerunReason = ""
		o.startLocked(reason)
	}
	o.mu.Unlock()

	if o.onResult != nil {
		o.onResult(r.reason, res, err)
	}
}

// SyncNotes runs a sync round and returns its result. If a round is already
// in flight, it waits for that round instead of starting another.
func (o *Orchestrator) SyncNotes(ctx context.Context) (Result, error) {
	o.mu.Lock()
	r := o.current
	if r == nil {
		r = o.startLocked(ReasonManual)
	}
	o.mu.Unlock()

	select {
	case <-r.done:
		return r.result, r.err
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}
}

// Trigger schedules a round without waiting for it. If a round is in flight,
// one more is queued to run after it; further triggers are absorbed.
func (o *Orchestrator) Trigger(reason Reason) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.current != nil {
		if !o.rerun {
			o.rerun = true
			o.rerunReason = reason
		}
		return
	}

	o.startLocked(reason)
}

// Wait blocks until no round is in flight or queued
func (o *Orchestrator) Wait() {
	for {
		o.mu.Lock()
		r := o.current
		o.mu.Unlock()

		if r == nil {
			return
		}
		<-r.done
	}
}
