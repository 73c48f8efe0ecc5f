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

package app

import (
	"database/sql"
	"errors"

	"github.com/inkvault/inkvault/pkg/server/log"
	"github.com/lib/pq"
	"github.com/matryer/try"
	"github.com/mattn/go-sqlite3"
	pkgErrors "github.com/pkg/errors"
	"gorm.io/gorm"
)

// maxTxAttempts is the number of times a transaction is tried before a
// serialization failure is returned to the caller
const maxTxAttempts = 5

// pqSerializationFailure is the SQLSTATE of a serialization failure
const pqSerializationFailure = "40001"

// isSerializationFailure returns true if err means that the transaction
// lost a race against a concurrent one and can be retried as a whole
func isSerializationFailure(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == pqSerializationFailure
	}

	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code == sqlite3.ErrBusy || sqliteErr.Code == sqlite3.ErrLocked
	}

	return false
}

// runSerializable runs fn in a serializable transaction. The transaction is
// committed if fn returns nil and rolled back otherwise. fn must not have
// side effects outside of tx since it is retried on serialization failures.
func (a *App) runSerializable(fn func(tx *gorm.DB) error) error {
	return try.Do(func(attempt int) (bool, error) {
		err := a.serializableOnce(fn)
		if err != nil && isSerializationFailure(err) {
			log.WithFields(log.Fields{
				"attempt": attempt,
			}).Warn("Retrying transaction after serialization failure.")

			return attempt < maxTxAttempts, err
		}

		return false, err
	})
}

func (a *App) serializableOnce(fn func(tx *gorm.DB) error) error {
	tx := a.DB.Begin(&sql.TxOptions{Isolation: sql.LevelSerializable})
	if err := tx.Error; err != nil {
		return pkgErrors.Wrap(err, "beginning transaction")
	}

	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}

	if err := tx.Commit().Error; err != nil {
		return pkgErrors.Wrap(err, "committing transaction")
	}

	return nil
}
