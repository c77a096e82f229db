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

// Package errs defines the sentinel error taxonomy surfaced by the storage
// façade. Callers check against these with errors.Is/errors.As; the façade
// never panics and never retries.
package errs

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a unique-key lookup matches no row.
	ErrNotFound = errors.New("not found")

	// ErrMessageExists is returned when a would-be duplicate content item
	// is detected, either as an existing message row carrying a payload or
	// as a present deep-hash key.
	ErrMessageExists = errors.New("message already exists")

	// ErrDatabase wraps any relational-layer failure: connection,
	// migration, query, or a zero-row insert that should have matched.
	ErrDatabase = errors.New("database error")

	// ErrJSON wraps a JSON (de)serialization failure of message_data or
	// process_data.
	ErrJSON = errors.New("json error")

	// ErrEnvVar is returned when configuration environment resolution
	// fails.
	ErrEnvVar = errors.New("environment variable error")

	// ErrInt is returned when a pagination bound fails integer parsing.
	ErrInt = errors.New("integer parse error")

	// ErrByteStore wraps a bytestore I/O failure. The façade lifts it to
	// ErrDatabase at its own boundary; internal bytestore callers may
	// check for it directly.
	ErrByteStore = errors.New("bytestore error")

	// ErrNotReady is returned by bytestore operations attempted before
	// try_connect has succeeded.
	ErrNotReady = errors.New("bytestore not initialized")

	// ErrMemoryLimit is returned by ReadBinaries when the accumulated
	// payload size of a batch read exceeds the configured cap.
	ErrMemoryLimit = errors.New("read exceeds memory limit")
)

// Database wraps err as a DatabaseError with msg context.
func Database(msg string, err error) error {
	return fmt.Errorf("%s: %w: %w", msg, ErrDatabase, err)
}

// JSON wraps err as a JsonError with msg context.
func JSON(msg string, err error) error {
	return fmt.Errorf("%s: %w: %w", msg, ErrJSON, err)
}

// Int wraps err as an IntError with msg context.
func Int(msg string, err error) error {
	return fmt.Errorf("%s: %w: %w", msg, ErrInt, err)
}

// EnvVar wraps err as an EnvVarError with msg context.
func EnvVar(msg string, err error) error {
	return fmt.Errorf("%s: %w: %w", msg, ErrEnvVar, err)
}

// ByteStore wraps err as a ByteStoreError with msg context.
func ByteStore(msg string, err error) error {
	return fmt.Errorf("%s: %w: %w", msg, ErrByteStore, err)
}
