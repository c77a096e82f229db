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
	"fmt"

	"github.com/ao-su/storage/internal/model"
	"github.com/ao-su/storage/internal/store/errs"
)

// SaveMessage inserts m as a plain row. A duplicate (message_id,
// assignment_id) violates the unique constraint and is surfaced to the
// caller as a DatabaseError (spec §4.3's conflict policy).
func (p *Pool) SaveMessage(ctx context.Context, m *model.Message) error {
	_, err := p.Write.ExecContext(ctx, `
		INSERT INTO messages (process_id, message_id, assignment_id, message_data, epoch, nonce, "timestamp", bundle, hash_chain)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, m.ProcessID, m.MessageID, m.AssignmentID, []byte(m.MessageData), m.Epoch, m.Nonce, m.Timestamp, m.Bundle, m.HashChain)
	if err != nil {
		return errs.Database("insert message", err)
	}
	return nil
}

// MessageCount returns the total row count in messages, used by the sync
// loop (C5) to bound its reverse offset scan.
func (p *Pool) MessageCount(ctx context.Context) (int64, error) {
	var count int64
	err := p.Read.QueryRowContext(ctx, `SELECT COUNT(*) FROM messages`).Scan(&count)
	if err != nil {
		return 0, errs.Database("count messages", err)
	}
	return count, nil
}

const messageColumns = `row_id, process_id, message_id, assignment_id, message_data, epoch, nonce, "timestamp", bundle, hash_chain`

func scanMessage(row *sql.Row) (*model.Message, error) {
	var m model.Message
	var data []byte
	err := row.Scan(&m.RowID, &m.ProcessID, &m.MessageID, &m.AssignmentID, &data, &m.Epoch, &m.Nonce, &m.Timestamp, &m.Bundle, &m.HashChain)
	if err == sql.ErrNoRows {
		return nil, errs.ErrNotFound
	}
	if err != nil {
		return nil, errs.Database("select message", err)
	}
	m.MessageData = data
	return &m, nil
}

// GetMessage looks up the earliest row whose message_id or assignment_id
// equals txID, via the read pool.
func (p *Pool) GetMessage(ctx context.Context, txID string) (*model.Message, error) {
	row := p.Read.QueryRowContext(ctx, `
		SELECT `+messageColumns+`
		FROM messages WHERE message_id = $1 OR assignment_id = $1
		ORDER BY "timestamp" ASC LIMIT 1
	`, txID)
	return scanMessage(row)
}

// GetMessageFallback resolves the full row for (messageID, assignmentID),
// or for messageID alone when assignmentID is nil, taking the earliest
// timestamp match. Used when a bytestore-ready page read misses a payload.
func (p *Pool) GetMessageFallback(ctx context.Context, messageID string, assignmentID *string) (*model.Message, error) {
	var row *sql.Row
	if assignmentID != nil {
		row = p.Read.QueryRowContext(ctx, `
			SELECT `+messageColumns+`
			FROM messages WHERE message_id = $1 AND assignment_id = $2
			ORDER BY "timestamp" ASC LIMIT 1
		`, messageID, *assignmentID)
	} else {
		row = p.Read.QueryRowContext(ctx, `
			SELECT `+messageColumns+`
			FROM messages WHERE message_id = $1
			ORDER BY "timestamp" ASC LIMIT 1
		`, messageID)
	}
	return scanMessage(row)
}

// GetLatestMessage reads the write pool (not the reader) so scheduling
// decisions never see replica lag. Returns (nil, nil) when the process has
// no messages yet.
func (p *Pool) GetLatestMessage(ctx context.Context, processID string) (*model.Message, error) {
	row := p.Write.QueryRowContext(ctx, `
		SELECT `+messageColumns+`
		FROM messages WHERE process_id = $1
		ORDER BY "timestamp" DESC LIMIT 1
	`, processID)
	m, err := scanMessage(row)
	if err == errs.ErrNotFound {
		return nil, nil
	}
	return m, err
}

// MessageByOffsetFromEnd returns the row at the given offset when messages
// are ordered newest-first. Used by the sync loop's reverse scan. Returns
// (nil, nil) past the end of the table.
func (p *Pool) MessageByOffsetFromEnd(ctx context.Context, offset int64) (*model.Message, error) {
	row := p.Read.QueryRowContext(ctx, `
		SELECT `+messageColumns+`
		FROM messages ORDER BY "timestamp" DESC OFFSET $1 LIMIT 1
	`, offset)
	m, err := scanMessage(row)
	if err == errs.ErrNotFound {
		return nil, nil
	}
	return m, err
}

// boundsSQL renders the cumulative WHERE fragment for q's sequencing mode,
// starting placeholders at $2 (process_id occupies $1). Returns the
// fragment and its bind args, in timestamp-then-nonce spec order.
func boundsSQL(q model.MessagesQuery) (string, []interface{}) {
	clause := ""
	var args []interface{}
	next := 2

	if !q.UsesNonceMode() {
		if q.From != nil {
			clause += fmt.Sprintf(` AND "timestamp" > $%d`, next)
			args = append(args, *q.From)
			next++
		}
		if q.To != nil {
			clause += fmt.Sprintf(` AND "timestamp" <= $%d`, next)
			args = append(args, *q.To)
			next++
		}
		return clause, args
	}

	if q.FromNonce != nil {
		clause += fmt.Sprintf(` AND nonce > $%d`, next)
		args = append(args, *q.FromNonce)
		next++
	}
	if q.ToNonce != nil {
		clause += fmt.Sprintf(` AND nonce <= $%d`, next)
		args = append(args, *q.ToNonce)
		next++
	}
	return clause, args
}

func scanMessageRows(rows *sql.Rows, full bool) ([]*model.Message, error) {
	defer rows.Close()
	var out []*model.Message
	for rows.Next() {
		var m model.Message
		var data []byte
		var err error
		if full {
			err = rows.Scan(&m.RowID, &m.ProcessID, &m.MessageID, &m.AssignmentID, &data, &m.Epoch, &m.Nonce, &m.Timestamp, &m.Bundle, &m.HashChain)
		} else {
			err = rows.Scan(&m.RowID, &m.ProcessID, &m.MessageID, &m.AssignmentID, &m.Epoch, &m.Nonce, &m.Timestamp, &m.HashChain)
		}
		if err != nil {
			return nil, errs.Database("scan message row", err)
		}
		if full {
			m.MessageData = data
		}
		out = append(out, &m)
	}
	if err := rows.Err(); err != nil {
		return nil, errs.Database("iterate message rows", err)
	}
	return out, nil
}

// GetMessagesKeysOnly selects only the key columns for processID's page,
// used when the bytestore is ready and payloads come from ReadBinaries.
// fetchLimit should be the adjusted limit + 1 (spec §4.4.2).
func (p *Pool) GetMessagesKeysOnly(ctx context.Context, processID string, q model.MessagesQuery, fetchLimit int) ([]*model.Message, error) {
	clause, args := boundsSQL(q)
	limitPlaceholder := len(args) + 2 // $1 = processID, bound args follow, limit is last
	query := fmt.Sprintf(`SELECT row_id, process_id, message_id, assignment_id, epoch, nonce, "timestamp", hash_chain
		FROM messages WHERE process_id = $1%s ORDER BY "timestamp" ASC LIMIT $%d`, clause, limitPlaceholder)

	args = append([]interface{}{processID}, args...)
	args = append(args, fetchLimit)
	rows, err := p.Read.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errs.Database("select message keys", err)
	}
	return scanMessageRows(rows, false)
}

// GetMessagesFull selects complete rows directly, used when the bytestore
// is not ready. fetchLimit should be the adjusted limit + 1.
func (p *Pool) GetMessagesFull(ctx context.Context, processID string, q model.MessagesQuery, fetchLimit int) ([]*model.Message, error) {
	clause, args := boundsSQL(q)
	limitPlaceholder := len(args) + 2
	query := fmt.Sprintf(`SELECT `+messageColumns+`
		FROM messages WHERE process_id = $1%s ORDER BY "timestamp" ASC LIMIT $%d`, clause, limitPlaceholder)

	args = append([]interface{}{processID}, args...)
	args = append(args, fetchLimit)
	rows, err := p.Read.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errs.Database("select messages", err)
	}
	return scanMessageRows(rows, true)
}

// MessagesBundlePage selects full rows for the offline migration tool:
// processID's log after an optional timestamp
// cursor, ordered ascending, fetchLimit = limit + 1.
func (p *Pool) MessagesBundlePage(ctx context.Context, processID string, from *int64, fetchLimit int) ([]*model.Message, error) {
	q := model.MessagesQuery{From: from}
	return p.GetMessagesFull(ctx, processID, q, fetchLimit)
}
