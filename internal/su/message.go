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
	"errors"

	"github.com/ao-su/storage/internal/bytestore"
	"github.com/ao-su/storage/internal/model"
	"github.com/ao-su/storage/internal/store/errs"
)

// liftByteStoreErr converts a bytestore-originated failure into a
// DatabaseError at the façade boundary, the one place callers of DataStore
// are expected to look, while leaving the relational taxonomy untouched.
func liftByteStoreErr(msg string, err error) error {
	if err == nil {
		return nil
	}
	return errs.Database(msg, err)
}

func binaryID(m *model.Message) bytestore.BinaryID {
	return bytestore.BinaryID{
		MessageID:    m.MessageID,
		AssignmentID: m.AssignmentID,
		ProcessID:    m.ProcessID,
		Timestamp:    m.Timestamp,
	}
}

// SaveMessage writes the bytestore entry first and only attempts the
// relational insert once it succeeds. If the relational insert then fails,
// the bytestore write (and any deep-hash entry) is rolled back; a failure
// during that rollback is joined with the original error rather than
// swallowed (spec §4.4.2, testable property 4).
func (s *Store) SaveMessage(ctx context.Context, m *model.Message, deepHash *string) (string, error) {
	id := binaryID(m)

	if s.bytes.IsReady() {
		if err := s.bytes.SaveBinary(id, m.Bundle); err != nil {
			return "", liftByteStoreErr("save message binary", err)
		}
		if deepHash != nil {
			if err := s.bytes.SaveDeepHash(m.ProcessID, *deepHash); err != nil {
				_ = s.bytes.DeleteBinary(id)
				return "", liftByteStoreErr("save message deep hash", err)
			}
		}
	}

	if err := s.rel.SaveMessage(ctx, m); err != nil {
		if s.bytes.IsReady() {
			var compErrs []error
			if compErr := s.bytes.DeleteBinary(id); compErr != nil {
				compErrs = append(compErrs, liftByteStoreErr("compensating delete binary", compErr))
			}
			if deepHash != nil {
				if compErr := s.bytes.DeleteDeepHash(m.ProcessID, *deepHash); compErr != nil {
					compErrs = append(compErrs, liftByteStoreErr("compensating delete deep hash", compErr))
				}
			}
			if len(compErrs) > 0 {
				return "", errors.Join(append([]error{err}, compErrs...)...)
			}
		}
		return "", err
	}

	return "saved", nil
}

// CheckExistingMessage reports ErrMessageExists when messageID already
// names a stored row that carries an actual message payload. A row that is
// only an assignment record doesn't block: re-assignments write no new
// payload, so there is nothing to duplicate.
func (s *Store) CheckExistingMessage(ctx context.Context, messageID string) error {
	m, err := s.rel.GetMessage(ctx, messageID)
	if errors.Is(err, errs.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	has, err := m.HasMessage()
	if err != nil {
		return errs.JSON("parse existing message data", err)
	}
	if has {
		return errs.ErrMessageExists
	}
	return nil
}

// CheckExistingDeepHash reports ErrMessageExists when processID/deepHash is
// already present in the bytestore's deep-hash index. When the bytestore
// isn't ready, duplicate detection degrades to a no-op rather than a fatal
// error, matching the bytestore's general best-effort posture before
// try_connect has succeeded.
func (s *Store) CheckExistingDeepHash(ctx context.Context, processID, deepHash string) error {
	if !s.bytes.IsReady() {
		return nil
	}
	if s.bytes.DeepHashExists(processID, deepHash) {
		return errs.ErrMessageExists
	}
	return nil
}

// SaveDeepHashVersion records the deep-hash algorithm version used for
// processID.
func (s *Store) SaveDeepHashVersion(ctx context.Context, processID, version string) error {
	if !s.bytes.IsReady() {
		return errs.Database("save deep hash version", errs.ErrNotReady)
	}
	return liftByteStoreErr("save deep hash version", s.bytes.SaveDeepHashVersion(processID, version))
}

// GetDeepHashVersion returns the recorded deep-hash version for processID.
func (s *Store) GetDeepHashVersion(ctx context.Context, processID string) (string, error) {
	if !s.bytes.IsReady() {
		return "", errs.Database("get deep hash version", errs.ErrNotReady)
	}
	v, err := s.bytes.GetDeepHashVersion(processID)
	if errors.Is(err, errs.ErrNotFound) {
		return "", errs.ErrNotFound
	}
	if err != nil {
		return "", liftByteStoreErr("get deep hash version", err)
	}
	return v, nil
}

// GetMessage looks up a single message by message_id or assignment_id.
func (s *Store) GetMessage(ctx context.Context, txID string) (*model.Message, error) {
	return s.rel.GetMessage(ctx, txID)
}

// GetLatestMessage returns the most recent message for processID, or
// (nil, nil) if the process has none yet.
func (s *Store) GetLatestMessage(ctx context.Context, processID string) (*model.Message, error) {
	return s.rel.GetLatestMessage(ctx, processID)
}

// fillFromBytestore substitutes a key-only row's payload with the bytestore
// hit, or falls back to a full relational read of that exact row when the
// bytestore is missing it. Recovering message_data from a raw bundle is
// bundle-parsing business logic that this layer doesn't perform; a
// bytestore hit leaves MessageData as scanned by the key-only query (unset).
func (s *Store) fillFromBytestore(ctx context.Context, row *model.Message, binaries map[bytestore.BinaryID][]byte) (*model.Message, error) {
	id := binaryID(row)
	if payload, ok := binaries[id]; ok {
		row.Bundle = payload
		return row, nil
	}
	return s.rel.GetMessageFallback(ctx, row.MessageID, row.AssignmentID)
}

// GetMessages returns a page of processID's message log under q's
// sequencing mode. When process.Assignment is set and q addresses the
// first page, the process itself is spliced in as the synthetic first
// entry (spec §4.4.2).
func (s *Store) GetMessages(ctx context.Context, process *model.Process, q model.MessagesQuery) (*model.PaginatedMessages, error) {
	mode := model.SequenceByTimestamp
	if q.UsesNonceMode() {
		mode = model.SequenceByNonce
	}

	limit := q.EffectiveLimit()
	spliceProcess := process.Assignment != nil && q.IsFirstPage()
	adjustedLimit := limit
	if spliceProcess {
		adjustedLimit = limit - 1
	}
	fetchLimit := adjustedLimit + 1

	var messages []*model.Message
	if spliceProcess {
		messages = append(messages, model.FromProcess(process))
	}

	var hasNext bool
	if s.bytes.IsReady() {
		rows, err := s.rel.GetMessagesKeysOnly(ctx, process.ProcessID, q, fetchLimit)
		if err != nil {
			return nil, err
		}
		hasNext = len(rows) > adjustedLimit
		if hasNext {
			rows = rows[:adjustedLimit]
		}

		ids := make([]bytestore.BinaryID, len(rows))
		for i, r := range rows {
			ids[i] = binaryID(r)
		}
		binaries, err := s.bytes.ReadBinaries(ids)
		if err != nil {
			return nil, liftByteStoreErr("read message binaries", err)
		}

		for _, r := range rows {
			full, err := s.fillFromBytestore(ctx, r, binaries)
			if err != nil {
				return nil, err
			}
			messages = append(messages, full)
		}
	} else {
		rows, err := s.rel.GetMessagesFull(ctx, process.ProcessID, q, fetchLimit)
		if err != nil {
			return nil, err
		}
		hasNext = len(rows) > adjustedLimit
		if hasNext {
			rows = rows[:adjustedLimit]
		}
		messages = append(messages, rows...)
	}

	return &model.PaginatedMessages{Messages: messages, HasNextPage: hasNext, Mode: mode}, nil
}

// GetMessageBundles returns a page of raw bundle bytes for processID,
// keyed by message_id on a bytestore hit or by assignment_id on a
// relational fallback. Rows with neither a bytestore hit nor an assignment
// are skipped: there is no stable id to key them by. Requires the
// bytestore to be ready, since bundles are its reason for existing.
func (s *Store) GetMessageBundles(ctx context.Context, process *model.Process, from *int64, limit int) ([]model.BundleEntry, bool, error) {
	if !s.bytes.IsReady() {
		return nil, false, errs.Database("get message bundles", errs.ErrNotReady)
	}
	if limit <= 0 {
		limit = 100
	}
	fetchLimit := limit + 1

	q := model.MessagesQuery{From: from}
	rows, err := s.rel.GetMessagesKeysOnly(ctx, process.ProcessID, q, fetchLimit)
	if err != nil {
		return nil, false, err
	}
	hasNext := len(rows) > limit
	if hasNext {
		rows = rows[:limit]
	}

	ids := make([]bytestore.BinaryID, len(rows))
	for i, r := range rows {
		ids[i] = binaryID(r)
	}
	binaries, err := s.bytes.ReadBinaries(ids)
	if err != nil {
		return nil, false, liftByteStoreErr("read bundle binaries", err)
	}

	var out []model.BundleEntry
	for _, r := range rows {
		id := binaryID(r)
		if payload, ok := binaries[id]; ok {
			out = append(out, model.BundleEntry{ID: r.MessageID, Bundle: payload})
			continue
		}
		if r.AssignmentID == nil {
			continue
		}
		full, err := s.rel.GetMessageFallback(ctx, r.MessageID, r.AssignmentID)
		if err != nil {
			return nil, false, err
		}
		out = append(out, model.BundleEntry{ID: *r.AssignmentID, Bundle: full.Bundle})
	}

	return out, hasNext, nil
}
