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

package syncer

import (
	"github.com/inkvault/inkvault/pkg/clock"
	"github.com/inkvault/inkvault/pkg/merge"
	"github.com/inkvault/inkvault/pkg/record"
	"github.com/pkg/errors"
)

// Resolve settles a pending conflict with the side picked by the user. The
// chosen copy becomes dirty above both versions and is sent on the next round.
func (o *Orchestrator) Resolve(id string, choice merge.Choice) (record.Record, error) {
	var ret record.Record

	if !choice.Valid() {
		return ret, ErrInvalidChoice
	}

	err := o.store.Update(func(tx Tx) error {
		c, err := tx.GetConflict(id)
		if err != nil {
			return errors.Wrap(err, "finding the conflict")
		}
		if c == nil {
			return ErrNoConflict
		}

		local := c.Local
		current, err := tx.Get(id)
		if err != nil {
			return errors.Wrap(err, "finding the local copy")
		}
		if current != nil {
			local = *current
		}

		ret = merge.Resolve(choice, local, c.Remote, clock.Millis(o.clock))

		if err := tx.Put(ret); err != nil {
			return err
		}
		if !c.Remote.IsDeleted() {
			if err := tx.PutBase(c.Remote.Synced()); err != nil {
				return err
			}
		}

		return tx.DeleteConflict(id)
	})
	if err != nil {
		return ret, err
	}

	return ret, nil
}
