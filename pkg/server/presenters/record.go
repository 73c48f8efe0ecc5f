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

package presenters

import (
	"github.com/inkvault/inkvault/pkg/server/database"
	"github.com/inkvault/inkvault/pkg/wire"
)

// PresentRecord presents a stored record as a put
func PresentRecord(r database.Record) wire.Put {
	ret := wire.Put{
		ID:        r.UUID,
		Type:      r.Type,
		CreatedAt: r.AddedOn,
		UpdatedAt: r.EditedOn,
		Version:   r.Version,
	}

	if r.IsDeleted() {
		deletedAt := r.DeletedOn
		ret.DeletedAt = &deletedAt
		return ret
	}

	if r.CipherText != nil {
		c := *r.CipherText
		ret.CipherText = &c
	}
	if r.IV != nil {
		iv := *r.IV
		ret.IV = &iv
	}

	return ret
}

// PresentRecords presents records
func PresentRecords(records []database.Record) []wire.Put {
	ret := []wire.Put{}

	for _, r := range records {
		ret = append(ret, PresentRecord(r))
	}

	return ret
}
