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

// Package model holds the domain types read and written by the storage
// layer: processes, messages, schedulers and the router's binding between
// them.
package model

import "encoding/json"

// Assignment binds a process to its scheduler-issued ordering record. A
// process with a non-nil Assignment is eligible to be spliced as the
// synthetic first entry ("process-as-message") of its own message log.
type Assignment struct {
	AssignmentID string `json:"assignment_id"`
	Epoch        int32  `json:"epoch"`
	Nonce        int32  `json:"nonce"`
	Timestamp    int64  `json:"timestamp"`
	HashChain    string `json:"hash_chain"`
}

// Process is inserted once per ProcessID and never updated or deleted.
// Ordering fields are only populated when process assignment is enabled;
// when it is not, they are nil and stored as SQL NULL.
type Process struct {
	ProcessID   string
	Bundle      []byte
	ProcessData json.RawMessage

	Epoch     *int32
	Nonce     *int32
	Timestamp *int64
	HashChain *string

	// Assignment is not a stored column; callers that want the splice
	// behavior populate it from the caller-side scheduling state before
	// passing the process into GetMessages.
	Assignment *Assignment
}

// Message is identified by the pair (MessageID, AssignmentID). The same
// MessageID may recur under different AssignmentIDs; the row with the
// lowest Timestamp is the canonical original.
type Message struct {
	RowID        int64
	ProcessID    string
	MessageID    string
	AssignmentID *string
	MessageData  json.RawMessage
	Epoch        int32
	Nonce        int32
	Timestamp    int64
	Bundle       []byte
	HashChain    string
}

// FromProcess renders a process as the synthetic first entry of its own
// message log. It is only meaningful when p.Assignment is non-nil; the
// caller is responsible for that check (see su.GetMessages).
func FromProcess(p *Process) *Message {
	a := p.Assignment
	return &Message{
		ProcessID:    p.ProcessID,
		MessageID:    p.ProcessID,
		AssignmentID: &a.AssignmentID,
		MessageData:  p.ProcessData,
		Epoch:        a.Epoch,
		Nonce:        a.Nonce,
		Timestamp:    a.Timestamp,
		Bundle:       p.Bundle,
		HashChain:    a.HashChain,
	}
}

// HasMessage reports whether m's message_data carries an actual message
// payload, as opposed to being a bare assignment record. Re-assignments of
// an existing message store no new payload, so only rows where this is true
// block a duplicate write.
func (m *Message) HasMessage() (bool, error) {
	if len(m.MessageData) == 0 {
		return false, nil
	}
	var envelope struct {
		Message json.RawMessage `json:"message"`
	}
	if err := json.Unmarshal(m.MessageData, &envelope); err != nil {
		return false, err
	}
	if len(envelope.Message) == 0 || string(envelope.Message) == "null" {
		return false, nil
	}
	return true, nil
}

// SequencingMode tags a paginated result with which bound kind selected it.
type SequencingMode string

const (
	SequenceByTimestamp SequencingMode = "timestamp"
	SequenceByNonce     SequencingMode = "nonce"
)

// PaginatedMessages is the result of GetMessages.
type PaginatedMessages struct {
	Messages    []*Message
	HasNextPage bool
	Mode        SequencingMode
}

// BundleEntry is one row of a get_message_bundles page: either the
// message_id keyed payload (bytestore hit) or the assignment_id keyed
// bundle (relational fallback). Rows with neither an assignment nor a
// bytestore hit are skipped by the caller.
type BundleEntry struct {
	ID     string
	Bundle []byte
}

// Scheduler is upserted by URL and mutated in place via UpdateScheduler.
type Scheduler struct {
	RowID          int64
	URL            string
	ProcessCount   int32
	NoRoute        *bool
	WalletsToRoute *string
	WalletsOnly    *bool
}

// ProcessScheduler binds a process to the scheduler authoritative for it.
// Inserted once per ProcessID.
type ProcessScheduler struct {
	RowID          int64
	ProcessID      string
	SchedulerRowID int64
}

// MessagesQuery carries the optional pagination bounds for GetMessages.
// Nonce mode is selected when either FromNonce or ToNonce is non-nil;
// otherwise timestamp mode applies. Limit defaults to 100 when zero.
type MessagesQuery struct {
	From      *int64
	To        *int64
	FromNonce *int32
	ToNonce   *int32
	Limit     int
}

// UsesNonceMode reports whether either nonce bound is set.
func (q MessagesQuery) UsesNonceMode() bool {
	return q.FromNonce != nil || q.ToNonce != nil
}

// IsFirstPage reports whether this query addresses the first page under
// its own sequencing mode, the condition under which the process-as-message
// splice applies.
func (q MessagesQuery) IsFirstPage() bool {
	if q.UsesNonceMode() {
		return q.FromNonce == nil || *q.FromNonce == -1
	}
	return q.From == nil
}

// EffectiveLimit returns the configured limit or the default of 100.
func (q MessagesQuery) EffectiveLimit() int {
	if q.Limit <= 0 {
		return 100
	}
	return q.Limit
}
