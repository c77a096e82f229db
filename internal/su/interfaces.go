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

// Package su is the storage façade (C4): it implements DataStore and
// RouterDataStore by orchestrating the bytestore (C1), process cache (C2)
// and relational store (C3). Upper HTTP/RPC layers are expected to consume
// only these two interfaces.
package su

import (
	"context"

	"github.com/ao-su/storage/internal/model"
)

// DataStore is the process and message half of the façade.
type DataStore interface {
	SaveProcess(ctx context.Context, p *model.Process) (string, error)
	GetProcess(ctx context.Context, processID string) (*model.Process, error)

	SaveMessage(ctx context.Context, m *model.Message, deepHash *string) (string, error)
	CheckExistingMessage(ctx context.Context, messageID string) error
	CheckExistingDeepHash(ctx context.Context, processID, deepHash string) error
	SaveDeepHashVersion(ctx context.Context, processID, version string) error
	GetDeepHashVersion(ctx context.Context, processID string) (string, error)

	GetMessage(ctx context.Context, txID string) (*model.Message, error)
	GetLatestMessage(ctx context.Context, processID string) (*model.Message, error)
	GetMessages(ctx context.Context, process *model.Process, q model.MessagesQuery) (*model.PaginatedMessages, error)
	GetMessageBundles(ctx context.Context, process *model.Process, from *int64, limit int) ([]model.BundleEntry, bool, error)
}

// RouterDataStore is the scheduler-routing half of the façade.
type RouterDataStore interface {
	SaveProcessScheduler(ctx context.Context, ps *model.ProcessScheduler) (string, error)
	GetProcessScheduler(ctx context.Context, processID string) (*model.ProcessScheduler, error)
	SaveScheduler(ctx context.Context, s *model.Scheduler) (string, error)
	UpdateScheduler(ctx context.Context, s *model.Scheduler) (string, error)
	GetScheduler(ctx context.Context, rowID int64) (*model.Scheduler, error)
	GetSchedulerByURL(ctx context.Context, url string) (*model.Scheduler, error)
	GetAllSchedulers(ctx context.Context) ([]*model.Scheduler, error)
}
