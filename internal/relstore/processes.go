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

// SaveProcess inserts p, nulling the four ordering fields when
// enableAssignment is false. A duplicate process_id is a silent no-op
// (spec §4.4.1).
func (p *Pool) SaveProcess(ctx context.Context, enableAssignment bool, proc *model.Process) error {
	epoch, nonce, timestamp, hashChain := proc.Epoch, proc.Nonce, proc.Timestamp, proc.HashChain
	if !enableAssignment {
		epoch, nonce, timestamp, hashChain = nil, nil, nil, nil
	}

	_, err := p.Write.ExecContext(ctx, `
		INSERT INTO processes (process_id, process_data, bundle, epoch, nonce, "timestamp", hash_chain)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (process_id) DO NOTHING
	`, proc.ProcessID, []byte(proc.ProcessData), proc.Bundle, epoch, nonce, timestamp, hashChain)
	if err != nil {
		return errs.Database("insert process", err)
	}
	return nil
}

// GetProcess reads a process by id from the read pool. Callers that want
// cache-then-database semantics should consult processcache.Cache first;
// this function always hits the database.
func (p *Pool) GetProcess(ctx context.Context, processID string) (*model.Process, error) {
	row := p.Read.QueryRowContext(ctx, `
		SELECT process_id, process_data, bundle, epoch, nonce, "timestamp", hash_chain
		FROM processes WHERE process_id = $1
	`, processID)

	var proc model.Process
	var data []byte
	var epoch, nonce sql.NullInt32
	var timestamp sql.NullInt64
	var hashChain sql.NullString

	err := row.Scan(&proc.ProcessID, &data, &proc.Bundle, &epoch, &nonce, &timestamp, &hashChain)
	if err == sql.ErrNoRows {
		return nil, errs.ErrNotFound
	}
	if err != nil {
		return nil, errs.Database("select process", err)
	}
	proc.ProcessData = data
	if epoch.Valid {
		v := epoch.Int32
		proc.Epoch = &v
	}
	if nonce.Valid {
		v := nonce.Int32
		proc.Nonce = &v
	}
	if timestamp.Valid {
		v := timestamp.Int64
		proc.Timestamp = &v
	}
	if hashChain.Valid {
		v := hashChain.String
		proc.HashChain = &v
	}
	return &proc, nil
}

// ProcessCount returns the total number of rows in processes.
func (p *Pool) ProcessCount(ctx context.Context) (int64, error) {
	var count int64
	err := p.Read.QueryRowContext(ctx, `SELECT COUNT(*) FROM processes`).Scan(&count)
	if err != nil {
		return 0, errs.Database("count processes", err)
	}
	return count, nil
}

// ListProcessIDs returns every process_id, ordered by insertion (row_id).
// Used by the offline migration tool to walk the full relational log one
// process at a time.
func (p *Pool) ListProcessIDs(ctx context.Context) ([]string, error) {
	rows, err := p.Read.QueryContext(ctx, `SELECT process_id FROM processes ORDER BY row_id ASC`)
	if err != nil {
		return nil, errs.Database("list process ids", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, errs.Database("scan process id", err)
		}
		out = append(out, id)
	}
	if err := rows.Err(); err != nil {
		return nil, errs.Database("iterate process ids", err)
	}
	return out, nil
}
