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

package su

import (
	"context"

	"github.com/ao-su/storage/internal/bytestore"
	"github.com/ao-su/storage/internal/model"
)

// relDB is the slice of *relstore.Pool the façade needs. Declaring it here
// (rather than depending on the concrete type) lets Store be tested
// against a fake relational layer without a live Postgres.
type relDB interface {
	SaveProcess(ctx context.Context, enableAssignment bool, p *model.Process) error
	GetProcess(ctx context.Context, processID string) (*model.Process, error)

	SaveMessage(ctx context.Context, m *model.Message) error
	GetMessage(ctx context.Context, txID string) (*model.Message, error)
	GetMessageFallback(ctx context.Context, messageID string, assignmentID *string) (*model.Message, error)
	GetLatestMessage(ctx context.Context, processID string) (*model.Message, error)
	GetMessagesKeysOnly(ctx context.Context, processID string, q model.MessagesQuery, fetchLimit int) ([]*model.Message, error)
	GetMessagesFull(ctx context.Context, processID string, q model.MessagesQuery, fetchLimit int) ([]*model.Message, error)

	SaveScheduler(ctx context.Context, s *model.Scheduler) error
	UpdateScheduler(ctx context.Context, s *model.Scheduler) error
	GetScheduler(ctx context.Context, rowID int64) (*model.Scheduler, error)
	GetSchedulerByURL(ctx context.Context, url string) (*model.Scheduler, error)
	GetAllSchedulers(ctx context.Context) ([]*model.Scheduler, error)
	SaveProcessScheduler(ctx context.Context, ps *model.ProcessScheduler) error
	GetProcessScheduler(ctx context.Context, processID string) (*model.ProcessScheduler, error)
}

// byteDB is the slice of *bytestore.ByteStore the façade needs.
type byteDB interface {
	IsReady() bool
	SaveBinary(id bytestore.BinaryID, binary []byte) error
	DeleteBinary(id bytestore.BinaryID) error
	Exists(id bytestore.BinaryID) bool
	ReadBinaries(ids []bytestore.BinaryID) (map[bytestore.BinaryID][]byte, error)
	SaveDeepHash(processID, deepHash string) error
	DeleteDeepHash(processID, deepHash string) error
	DeepHashExists(processID, deepHash string) bool
	SaveDeepHashVersion(processID, version string) error
	GetDeepHashVersion(processID string) (string, error)
}

// cacheDB is the slice of *processcache.Cache the façade needs.
type cacheDB interface {
	Get(processID string) (*model.Process, bool)
	Insert(processID string, p *model.Process)
}

// Store implements DataStore and RouterDataStore by orchestrating the
// three component stores behind a single instance, as spec §5 requires.
type Store struct {
	rel                 relDB
	bytes               byteDB
	cache               cacheDB
	enableProcessAssign bool
}

var (
	_ DataStore       = (*Store)(nil)
	_ RouterDataStore = (*Store)(nil)
)

// New constructs the façade over already-opened components.
func New(rel relDB, bytes byteDB, cache cacheDB, enableProcessAssign bool) *Store {
	return &Store{rel: rel, bytes: bytes, cache: cache, enableProcessAssign: enableProcessAssign}
}
