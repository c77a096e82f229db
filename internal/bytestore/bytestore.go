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

// Package bytestore implements the embedded key-value engine (C1) backing
// bulk message payloads and the deep-hash index. It wraps badger/v2,
// configured for blob-style large-value storage, behind a reader-preferring
// lock over an optional handle so the service can start before the
// directory is connectable.
package bytestore

import (
	"fmt"
	"sync"

	"github.com/dgraph-io/badger/v2"

	sulog "github.com/ao-su/storage/internal/log"
	"github.com/ao-su/storage/internal/store/errs"
)

const (
	// minBlobValueSize is the minimum value size badger routes to a
	// separate value log file rather than inlining in the LSM tree.
	minBlobValueSize = 1024
	// maxBlobFileSize caps a single value log file just under 2 GiB;
	// badger v2 only accepts value log file sizes between 1 MiB and 2 GiB.
	maxBlobFileSize = 2<<30 - 1
)

// badgerLogAdapter routes badger's internal logging through the storage
// layer's zerolog sink instead of badger's own stderr logger.
type badgerLogAdapter struct{}

func (badgerLogAdapter) Errorf(format string, args ...interface{}) {
	log := sulog.WithComponent("bytestore")
	log.Error().Msgf(format, args...)
}

func (badgerLogAdapter) Warningf(format string, args ...interface{}) {
	log := sulog.WithComponent("bytestore")
	log.Warn().Msgf(format, args...)
}

func (badgerLogAdapter) Infof(format string, args ...interface{}) {
	log := sulog.WithComponent("bytestore")
	log.Info().Msgf(format, args...)
}

func (badgerLogAdapter) Debugf(format string, args ...interface{}) {
	log := sulog.WithComponent("bytestore")
	log.Debug().Msgf(format, args...)
}

// ByteStore is the embedded KV engine. The zero value is usable; callers
// must call TryConnect (or TryReadInstanceConnect) before any other method
// will succeed.
type ByteStore struct {
	mu        sync.RWMutex
	db        *badger.DB
	dataDir   string
	maxReadMB int64
}

// New constructs an unconnected ByteStore rooted at dataDir. maxReadMemory
// bounds the cumulative payload size a single ReadBinaries call may
// accumulate before failing.
func New(dataDir string, maxReadMemory int64) *ByteStore {
	return &ByteStore{dataDir: dataDir, maxReadMB: maxReadMemory}
}

// TryConnect opens the database read-write, creating the directory if
// missing. It is idempotent: calling it again while already connected is a
// no-op. Fails if another process holds the directory lock.
func (b *ByteStore) TryConnect() error {
	b.mu.RLock()
	if b.db != nil {
		b.mu.RUnlock()
		return nil
	}
	b.mu.RUnlock()

	opts := badger.DefaultOptions(b.dataDir).
		WithValueThreshold(minBlobValueSize).
		WithValueLogFileSize(maxBlobFileSize).
		WithLogger(badgerLogAdapter{})

	db, err := badger.Open(opts)
	if err != nil {
		return errs.ByteStore("open bytestore", err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.db != nil {
		// another goroutine connected first; keep its handle
		_ = db.Close()
		return nil
	}
	b.db = db
	return nil
}

// TryReadInstanceConnect opens the database read-only, for auxiliary tools
// that run alongside a live writer.
func (b *ByteStore) TryReadInstanceConnect() error {
	b.mu.RLock()
	if b.db != nil {
		b.mu.RUnlock()
		return nil
	}
	b.mu.RUnlock()

	opts := badger.DefaultOptions(b.dataDir).
		WithValueThreshold(minBlobValueSize).
		WithReadOnly(true).
		WithLogger(badgerLogAdapter{})

	db, err := badger.Open(opts)
	if err != nil {
		return errs.ByteStore("open bytestore read-only", err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.db != nil {
		_ = db.Close()
		return nil
	}
	b.db = db
	return nil
}

// IsReady reports whether TryConnect (or TryReadInstanceConnect) has
// succeeded.
func (b *ByteStore) IsReady() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.db != nil
}

// Close releases the underlying handle, if any.
func (b *ByteStore) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.db == nil {
		return nil
	}
	err := b.db.Close()
	b.db = nil
	return err
}

func (b *ByteStore) handle() (*badger.DB, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.db == nil {
		return nil, errs.ErrNotReady
	}
	return b.db, nil
}

// SaveBinary stores binary under id's key.
func (b *ByteStore) SaveBinary(id BinaryID, binary []byte) error {
	db, err := b.handle()
	if err != nil {
		return err
	}
	key := messageKey(id)
	err = db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, binary)
	})
	if err != nil {
		return errs.ByteStore("save binary", err)
	}
	return nil
}

// DeleteBinary removes the entry for id, if present.
func (b *ByteStore) DeleteBinary(id BinaryID) error {
	db, err := b.handle()
	if err != nil {
		return err
	}
	key := messageKey(id)
	err = db.Update(func(txn *badger.Txn) error {
		return txn.Delete(key)
	})
	if err != nil {
		return errs.ByteStore("delete binary", err)
	}
	return nil
}

// Exists reports whether a binary is stored under id's key. It never
// returns an error; an unready store or a missing key both report false.
func (b *ByteStore) Exists(id BinaryID) bool {
	db, err := b.handle()
	if err != nil {
		return false
	}
	key := messageKey(id)
	found := false
	_ = db.View(func(txn *badger.Txn) error {
		_, err := txn.Get(key)
		found = err == nil
		return nil
	})
	return found
}

// ReadBinaries bulk-reads the binaries addressed by ids, in input order.
// Missing keys are omitted from the result, not reported as errors. If the
// cumulative size of matched values exceeds the configured memory cap, the
// call fails and discards the partial result (spec §4.1 memory guard).
func (b *ByteStore) ReadBinaries(ids []BinaryID) (map[BinaryID][]byte, error) {
	db, err := b.handle()
	if err != nil {
		return nil, err
	}

	out := make(map[BinaryID][]byte, len(ids))
	var total int64
	err = db.View(func(txn *badger.Txn) error {
		for _, id := range ids {
			item, err := txn.Get(messageKey(id))
			if err == badger.ErrKeyNotFound {
				continue
			}
			if err != nil {
				return err
			}
			val, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			total += int64(len(val))
			if b.maxReadMB > 0 && total > b.maxReadMB {
				return errs.ErrMemoryLimit
			}
			out[id] = val
		}
		return nil
	})
	if err != nil {
		if err == errs.ErrMemoryLimit {
			return nil, fmt.Errorf("%w: %d bytes", errs.ErrMemoryLimit, b.maxReadMB)
		}
		return nil, errs.ByteStore("read binaries", err)
	}
	return out, nil
}
