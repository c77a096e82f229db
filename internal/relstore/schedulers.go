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

package relstore

import (
	"context"
	"database/sql"

	"github.com/ao-su/storage/internal/model"
	"github.com/ao-su/storage/internal/store/errs"
)

// SaveScheduler upserts by url, ignoring conflicts on the unique key.
func (p *Pool) SaveScheduler(ctx context.Context, s *model.Scheduler) error {
	_, err := p.Write.ExecContext(ctx, `
		INSERT INTO schedulers (url, process_count, no_route, wallets_to_route, wallets_only)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (url) DO NOTHING
	`, s.URL, s.ProcessCount, s.NoRoute, s.WalletsToRoute, s.WalletsOnly)
	if err != nil {
		return errs.Database("insert scheduler", err)
	}
	return nil
}

// UpdateScheduler replaces the full row identified by s.RowID.
func (p *Pool) UpdateScheduler(ctx context.Context, s *model.Scheduler) error {
	_, err := p.Write.ExecContext(ctx, `
		UPDATE schedulers
		SET url = $2, process_count = $3, no_route = $4, wallets_to_route = $5, wallets_only = $6
		WHERE row_id = $1
	`, s.RowID, s.URL, s.ProcessCount, s.NoRoute, s.WalletsToRoute, s.WalletsOnly)
	if err != nil {
		return errs.Database("update scheduler", err)
	}
	return nil
}

func scanScheduler(row *sql.Row) (*model.Scheduler, error) {
	var s model.Scheduler
	err := row.Scan(&s.RowID, &s.URL, &s.ProcessCount, &s.NoRoute, &s.WalletsToRoute, &s.WalletsOnly)
	if err == sql.ErrNoRows {
		return nil, errs.ErrNotFound
	}
	if err != nil {
		return nil, errs.Database("select scheduler", err)
	}
	return &s, nil
}

const schedulerColumns = `row_id, url, process_count, no_route, wallets_to_route, wallets_only`

// GetScheduler looks up a scheduler by row id.
func (p *Pool) GetScheduler(ctx context.Context, rowID int64) (*model.Scheduler, error) {
	row := p.Read.QueryRowContext(ctx, `SELECT `+schedulerColumns+` FROM schedulers WHERE row_id = $1`, rowID)
	return scanScheduler(row)
}

// GetSchedulerByURL looks up a scheduler by its unique url.
func (p *Pool) GetSchedulerByURL(ctx context.Context, url string) (*model.Scheduler, error) {
	row := p.Read.QueryRowContext(ctx, `SELECT `+schedulerColumns+` FROM schedulers WHERE url = $1`, url)
	return scanScheduler(row)
}

// GetAllSchedulers returns every scheduler ordered by row_id ascending.
func (p *Pool) GetAllSchedulers(ctx context.Context) ([]*model.Scheduler, error) {
	rows, err := p.Read.QueryContext(ctx, `SELECT `+schedulerColumns+` FROM schedulers ORDER BY row_id ASC`)
	if err != nil {
		return nil, errs.Database("select schedulers", err)
	}
	defer rows.Close()

	var out []*model.Scheduler
	for rows.Next() {
		var s model.Scheduler
		if err := rows.Scan(&s.RowID, &s.URL, &s.ProcessCount, &s.NoRoute, &s.WalletsToRoute, &s.WalletsOnly); err != nil {
			return nil, errs.Database("scan scheduler row", err)
		}
		out = append(out, &s)
	}
	if err := rows.Err(); err != nil {
		return nil, errs.Database("iterate scheduler rows", err)
	}
	return out, nil
}

// SaveProcessScheduler inserts the binding, ignoring conflicts on
// process_id (insert-once per process).
func (p *Pool) SaveProcessScheduler(ctx context.Context, ps *model.ProcessScheduler) error {
	_, err := p.Write.ExecContext(ctx, `
		INSERT INTO process_schedulers (process_id, scheduler_row_id)
		VALUES ($1, $2)
		ON CONFLICT (process_id) DO NOTHING
	`, ps.ProcessID, ps.SchedulerRowID)
	if err != nil {
		return errs.Database("insert process scheduler", err)
	}
	return nil
}

// GetProcessScheduler looks up the scheduler binding for processID.
func (p *Pool) GetProcessScheduler(ctx context.Context, processID string) (*model.ProcessScheduler, error) {
	row := p.Read.QueryRowContext(ctx, `
		SELECT row_id, process_id, scheduler_row_id FROM process_schedulers WHERE process_id = $1
	`, processID)

	var ps model.ProcessScheduler
	err := row.Scan(&ps.RowID, &ps.ProcessID, &ps.SchedulerRowID)
	if err == sql.ErrNoRows {
		return nil, errs.ErrNotFound
	}
	if err != nil {
		return nil, errs.Database("select process scheduler", err)
	}
	return &ps, nil
}
