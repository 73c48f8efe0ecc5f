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
	"github.com/inkvault/inkvault/pkg/merge"
	"github.com/inkvault/inkvault/pkg/record"
	"github.com/pkg/errors"
)

func unchanged(a, b record.Record) bool {
	return a.Version == b.Version && a.UpdatedAt == b.UpdatedAt && a.State == b.State
}

// SaveEdit stores a local edit made on the copy read before the edit began.
// If the stored copy moved on in the meantime, for instance because a sync
// pulled a newer version, the edit is merged into it with the read copy as
// the common ancestor. An edit that cannot be merged is not saved.
func SaveEdit(store Store, read, edited record.Record, now int64) (record.Record, error) {
	ret := edited

	err := store.Update(func(tx Tx) error {
		current, err := tx.Get(read.ID)
		if err != nil {
			return errors.Wrap(err, "getting the record")
		}
		if current == nil {
			return ErrChangedWhileEditing
		}

		if !unchanged(*current, read) {
			res := merge.Merge(&read, edited, *current, now)
			if res.Escalated {
				return errors.Wrap(ErrChangedWhileEditing, res.Reason)
			}

			ret = res.Record
		}

		return tx.Put(ret)
	})
	if err != nil {
		return record.Record{}, err
	}

	return ret, nil
}
