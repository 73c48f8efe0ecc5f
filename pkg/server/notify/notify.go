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

// Package notify carries best-effort change signals between the sessions of
// an account
package notify

import (
	"sync"
)

// Notifier publishes record changes committed by a session
type Notifier interface {
	Notify(userID int, excludingSessionID int, changedIDs []string)
}

// Event tells a session that records of its account changed
type Event struct {
	Changed []string
}

// Subscription receives the events of one session
type Subscription struct {
	userID    int
	sessionID int
	ch        chan Event
	hub       *Hub
	once      sync.Once
}

// C returns the channel on which events are delivered
func (s *Subscription) C() <-chan Event {
	return s.ch
}

// Close detaches the subscription from the hub
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.hub.remove(s)
	})
}

// Hub is an in-process event bus. Publishing never blocks: a subscriber
// that has not consumed its previous event gets the new ids merged into
// the pending one.
type Hub struct {
	mu   sync.Mutex
	subs map[int]map[*Subscription]struct{}
}

// NewHub returns an empty hub
func NewHub() *Hub {
	return &Hub{
		subs: map[int]map[*Subscription]struct{}{},
	}
}

// Subscribe registers a session of the given user
func (h *Hub) Subscribe(userID, sessionID int) *Subscription {
	s := &Subscription{
		userID:    userID,
		sessionID: sessionID,
		ch:        make(chan Event, 1),
		hub:       h,
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.subs[userID] == nil {
		h.subs[userID] = map[*Subscription]struct{}{}
	}
	h.subs[userID][s] = struct{}{}

	return s
}

func (h *Hub) remove(s *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()

	set := h.subs[s.userID]
	delete(set, s)
	if len(set) == 0 {
		delete(h.subs, s.userID)
	}
}

// Subscribers returns the number of live subscriptions of the user
func (h *Hub) Subscribers(userID int) int {
	h.mu.Lock()
	defer h.mu.Unlock()

	return len(h.subs[userID])
}

// Notify implements Notifier
func (h *Hub) Notify(userID int, excludingSessionID int, changedIDs []string) {
	if len(changedIDs) == 0 {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	for s := range h.subs[userID] {
		if s.sessionID == excludingSessionID {
			continue
		}

		ids := append([]string(nil), changedIDs...)
		select {
		case pending := <-s.ch:
			ids = append(pending.Changed, ids...)
		default:
		}

		// the hub lock is held and the buffer was drained above
		s.ch <- Event{Changed: ids}
	}
}
