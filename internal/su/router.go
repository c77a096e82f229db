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

	"github.com/ao-su/storage/internal/model"
)

// SaveProcessScheduler binds a process to a scheduler, once per process_id.
func (s *Store) SaveProcessScheduler(ctx context.Context, ps *model.ProcessScheduler) (string, error) {
	if err := s.rel.SaveProcessScheduler(ctx, ps); err != nil {
		return "", err
	}
	return "saved", nil
}

// GetProcessScheduler looks up the scheduler binding for processID.
func (s *Store) GetProcessScheduler(ctx context.Context, processID string) (*model.ProcessScheduler, error) {
	return s.rel.GetProcessScheduler(ctx, processID)
}

// SaveScheduler upserts a scheduler by url.
func (s *Store) SaveScheduler(ctx context.Context, sc *model.Scheduler) (string, error) {
	if err := s.rel.SaveScheduler(ctx, sc); err != nil {
		return "", err
	}
	return "saved", nil
}

// UpdateScheduler replaces the full row identified by sc.RowID.
func (s *Store) UpdateScheduler(ctx context.Context, sc *model.Scheduler) (string, error) {
	if err := s.rel.UpdateScheduler(ctx, sc); err != nil {
		return "", err
	}
	return "updated", nil
}

// GetScheduler looks up a scheduler by row id.
func (s *Store) GetScheduler(ctx context.Context, rowID int64) (*model.Scheduler, error) {
	return s.rel.GetScheduler(ctx, rowID)
}

// GetSchedulerByURL looks up a scheduler by its unique url.
func (s *Store) GetSchedulerByURL(ctx context.Context, url string) (*model.Scheduler, error) {
	return s.rel.GetSchedulerByURL(ctx, url)
}

// GetAllSchedulers returns every scheduler ordered by row_id ascending.
func (s *Store) GetAllSchedulers(ctx context.Context) ([]*model.Scheduler, error) {
	return s.rel.GetAllSchedulers(ctx)
}
