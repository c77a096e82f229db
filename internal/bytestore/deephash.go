/*
SPDX-License-Identifier: GPL-3.0-or-later

Copyright (C) 2025 Aaron Mathis aaron.mathis@gmail.com

This file is part of GoSight.

GoSight is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

GoSight is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with GoSight. If not, see https://www.gnu.org/licenses/.
*/

package bytestore

import (
	"github.com/dgraph-io/badger/v2"

	"github.com/ao-su/storage/internal/store/errs"
)

// SaveDeepHash records processID/deepHash as present. The value carries
// processID, matching the original key layout's intent of self-describing
// entries.
func (b *ByteStore) SaveDeepHash(processID, deepHash string) error {
	db, err := b.handle()
	if err != nil {
		return err
	}
	key := deepHashKey(processID, deepHash)
	err = db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, []byte(processID))
	})
	if err != nil {
		return errs.ByteStore("save deep hash", err)
	}
	return nil
}

// DeleteDeepHash removes the processID/deepHash membership entry.
func (b *ByteStore) DeleteDeepHash(processID, deepHash string) error {
	db, err := b.handle()
	if err != nil {
		return err
	}
	key := deepHashKey(processID, deepHash)
	err = db.Update(func(txn *badger.Txn) error {
		return txn.Delete(key)
	})
	if err != nil {
		return errs.ByteStore("delete deep hash", err)
	}
	return nil
}

// DeepHashExists reports whether processID/deepHash is present. Like
// Exists, it never surfaces an error.
func (b *ByteStore) DeepHashExists(processID, deepHash string) bool {
	db, err := b.handle()
	if err != nil {
		return false
	}
	key := deepHashKey(processID, deepHash)
	found := false
	_ = db.View(func(txn *badger.Txn) error {
		_, err := txn.Get(key)
		found = err == nil
		return nil
	})
	return found
}

// SaveDeepHashVersion stores the deep-hash version string for processID.
func (b *ByteStore) SaveDeepHashVersion(processID, version string) error {
	db, err := b.handle()
	if err != nil {
		return err
	}
	key := deepHashVersionKey(processID)
	err = db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, []byte(version))
	})
	if err != nil {
		return errs.ByteStore("save deep hash version", err)
	}
	return nil
}

// GetDeepHashVersion returns the stored version for processID. It fails
// with ErrNotFound when no version has been recorded; per spec §9's open
// question, callers should treat that as an empty/"v0" version rather than
// a fatal condition.
func (b *ByteStore) GetDeepHashVersion(processID string) (string, error) {
	db, err := b.handle()
	if err != nil {
		return "", err
	}
	key := deepHashVersionKey(processID)
	var version string
	err = db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err == badger.ErrKeyNotFound {
			return errs.ErrNotFound
		}
		if err != nil {
			return err
		}
		val, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		version = string(val)
		return nil
	})
	if err == errs.ErrNotFound {
		return "", errs.ErrNotFound
	}
	if err != nil {
		return "", errs.ByteStore("get deep hash version", err)
	}
	return version, nil
}
