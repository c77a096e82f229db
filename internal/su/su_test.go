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
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ao-su/storage/internal/bytestore"
	"github.com/ao-su/storage/internal/model"
	"github.com/ao-su/storage/internal/store/errs"
)

// fakeRel is a hand-written in-memory stand-in for *relstore.Pool.
type fakeRel struct {
	processes  map[string]*model.Process
	messages   []*model.Message // insertion order, ascending timestamp by construction
	schedulers map[int64]*model.Scheduler
	procSched  map[string]*model.ProcessScheduler

	failSaveMessage error
}

func newFakeRel() *fakeRel {
	return &fakeRel{
		processes:  map[string]*model.Process{},
		schedulers: map[int64]*model.Scheduler{},
		procSched:  map[string]*model.ProcessScheduler{},
	}
}

func (f *fakeRel) SaveProcess(ctx context.Context, enableAssignment bool, p *model.Process) error {
	if _, ok := f.processes[p.ProcessID]; ok {
		return nil
	}
	cp := *p
	if !enableAssignment {
		cp.Epoch, cp.Nonce, cp.Timestamp, cp.HashChain = nil, nil, nil, nil
	}
	f.processes[p.ProcessID] = &cp
	return nil
}

func (f *fakeRel) GetProcess(ctx context.Context, processID string) (*model.Process, error) {
	p, ok := f.processes[processID]
	if !ok {
		return nil, errs.ErrNotFound
	}
	return p, nil
}

func (f *fakeRel) SaveMessage(ctx context.Context, m *model.Message) error {
	if f.failSaveMessage != nil {
		return f.failSaveMessage
	}
	for _, existing := range f.messages {
		if existing.MessageID == m.MessageID && equalStrPtr(existing.AssignmentID, m.AssignmentID) {
			return errs.Database("insert message", errors.New("duplicate key"))
		}
	}
	cp := *m
	f.messages = append(f.messages, &cp)
	return nil
}

func equalStrPtr(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func (f *fakeRel) GetMessage(ctx context.Context, txID string) (*model.Message, error) {
	var best *model.Message
	for _, m := range f.messages {
		if m.MessageID == txID || (m.AssignmentID != nil && *m.AssignmentID == txID) {
			if best == nil || m.Timestamp < best.Timestamp {
				best = m
			}
		}
	}
	if best == nil {
		return nil, errs.ErrNotFound
	}
	return best, nil
}

func (f *fakeRel) GetMessageFallback(ctx context.Context, messageID string, assignmentID *string) (*model.Message, error) {
	var best *model.Message
	for _, m := range f.messages {
		if m.MessageID != messageID {
			continue
		}
		if assignmentID != nil && !equalStrPtr(m.AssignmentID, assignmentID) {
			continue
		}
		if best == nil || m.Timestamp < best.Timestamp {
			best = m
		}
	}
	if best == nil {
		return nil, errs.ErrNotFound
	}
	return best, nil
}

func (f *fakeRel) GetLatestMessage(ctx context.Context, processID string) (*model.Message, error) {
	var best *model.Message
	for _, m := range f.messages {
		if m.ProcessID != processID {
			continue
		}
		if best == nil || m.Timestamp > best.Timestamp {
			best = m
		}
	}
	return best, nil
}

func (f *fakeRel) filtered(processID string, q model.MessagesQuery) []*model.Message {
	var rows []*model.Message
	for _, m := range f.messages {
		if m.ProcessID != processID {
			continue
		}
		if q.UsesNonceMode() {
			if q.FromNonce != nil && !(m.Nonce > *q.FromNonce) {
				continue
			}
			if q.ToNonce != nil && !(m.Nonce <= *q.ToNonce) {
				continue
			}
		} else {
			if q.From != nil && !(m.Timestamp > *q.From) {
				continue
			}
			if q.To != nil && !(m.Timestamp <= *q.To) {
				continue
			}
		}
		rows = append(rows, m)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Timestamp < rows[j].Timestamp })
	return rows
}

func (f *fakeRel) GetMessagesKeysOnly(ctx context.Context, processID string, q model.MessagesQuery, fetchLimit int) ([]*model.Message, error) {
	rows := f.filtered(processID, q)
	if len(rows) > fetchLimit {
		rows = rows[:fetchLimit]
	}
	out := make([]*model.Message, len(rows))
	for i, r := range rows {
		out[i] = &model.Message{
			RowID: r.RowID, ProcessID: r.ProcessID, MessageID: r.MessageID, AssignmentID: r.AssignmentID,
			Epoch: r.Epoch, Nonce: r.Nonce, Timestamp: r.Timestamp, HashChain: r.HashChain,
		}
	}
	return out, nil
}

func (f *fakeRel) GetMessagesFull(ctx context.Context, processID string, q model.MessagesQuery, fetchLimit int) ([]*model.Message, error) {
	rows := f.filtered(processID, q)
	if len(rows) > fetchLimit {
		rows = rows[:fetchLimit]
	}
	return rows, nil
}

func (f *fakeRel) SaveScheduler(ctx context.Context, s *model.Scheduler) error {
	f.schedulers[s.RowID] = s
	return nil
}
func (f *fakeRel) UpdateScheduler(ctx context.Context, s *model.Scheduler) error {
	f.schedulers[s.RowID] = s
	return nil
}
func (f *fakeRel) GetScheduler(ctx context.Context, rowID int64) (*model.Scheduler, error) {
	s, ok := f.schedulers[rowID]
	if !ok {
		return nil, errs.ErrNotFound
	}
	return s, nil
}
func (f *fakeRel) GetSchedulerByURL(ctx context.Context, url string) (*model.Scheduler, error) {
	for _, s := range f.schedulers {
		if s.URL == url {
			return s, nil
		}
	}
	return nil, errs.ErrNotFound
}
func (f *fakeRel) GetAllSchedulers(ctx context.Context) ([]*model.Scheduler, error) {
	var out []*model.Scheduler
	for _, s := range f.schedulers {
		out = append(out, s)
	}
	return out, nil
}
func (f *fakeRel) SaveProcessScheduler(ctx context.Context, ps *model.ProcessScheduler) error {
	f.procSched[ps.ProcessID] = ps
	return nil
}
func (f *fakeRel) GetProcessScheduler(ctx context.Context, processID string) (*model.ProcessScheduler, error) {
	ps, ok := f.procSched[processID]
	if !ok {
		return nil, errs.ErrNotFound
	}
	return ps, nil
}

// fakeBytes is an in-memory stand-in for *bytestore.ByteStore.
type fakeBytes struct {
	ready    bool
	binaries map[bytestore.BinaryID][]byte
	deepHash map[string]bool
	versions map[string]string

	failSaveBinary   error
	failReadBinaries error
}

func newFakeBytes() *fakeBytes {
	return &fakeBytes{
		ready:    true,
		binaries: map[bytestore.BinaryID][]byte{},
		deepHash: map[string]bool{},
		versions: map[string]string{},
	}
}

func (f *fakeBytes) IsReady() bool { return f.ready }

func (f *fakeBytes) SaveBinary(id bytestore.BinaryID, binary []byte) error {
	if f.failSaveBinary != nil {
		return f.failSaveBinary
	}
	f.binaries[id] = binary
	return nil
}

func (f *fakeBytes) DeleteBinary(id bytestore.BinaryID) error {
	delete(f.binaries, id)
	return nil
}

func (f *fakeBytes) Exists(id bytestore.BinaryID) bool {
	_, ok := f.binaries[id]
	return ok
}

func (f *fakeBytes) ReadBinaries(ids []bytestore.BinaryID) (map[bytestore.BinaryID][]byte, error) {
	if f.failReadBinaries != nil {
		return nil, f.failReadBinaries
	}
	out := map[bytestore.BinaryID][]byte{}
	for _, id := range ids {
		if v, ok := f.binaries[id]; ok {
			out[id] = v
		}
	}
	return out, nil
}

func (f *fakeBytes) SaveDeepHash(processID, deepHash string) error {
	f.deepHash[processID+"/"+deepHash] = true
	return nil
}
func (f *fakeBytes) DeleteDeepHash(processID, deepHash string) error {
	delete(f.deepHash, processID+"/"+deepHash)
	return nil
}
func (f *fakeBytes) DeepHashExists(processID, deepHash string) bool {
	return f.deepHash[processID+"/"+deepHash]
}
func (f *fakeBytes) SaveDeepHashVersion(processID, version string) error {
	f.versions[processID] = version
	return nil
}
func (f *fakeBytes) GetDeepHashVersion(processID string) (string, error) {
	v, ok := f.versions[processID]
	if !ok {
		return "", errs.ErrNotFound
	}
	return v, nil
}

// fakeCache is an in-memory stand-in for *processcache.Cache.
type fakeCache struct {
	entries map[string]*model.Process
}

func newFakeCache() *fakeCache { return &fakeCache{entries: map[string]*model.Process{}} }

func (c *fakeCache) Get(processID string) (*model.Process, bool) {
	p, ok := c.entries[processID]
	return p, ok
}
func (c *fakeCache) Insert(processID string, p *model.Process) { c.entries[processID] = p }

func newTestStore() (*Store, *fakeRel, *fakeBytes, *fakeCache) {
	rel := newFakeRel()
	bs := newFakeBytes()
	cache := newFakeCache()
	return New(rel, bs, cache, true), rel, bs, cache
}

func TestSaveAndGetProcess_CachePopulated(t *testing.T) {
	store, _, _, cache := newTestStore()
	ctx := context.Background()

	p := &model.Process{ProcessID: "proc-1", ProcessData: []byte(`{}`)}
	status, err := store.SaveProcess(ctx, p)
	require.NoError(t, err)
	assert.Equal(t, "saved", status)

	_, ok := cache.Get("proc-1")
	assert.False(t, ok, "cache is populated lazily on read, not on write")

	got, err := store.GetProcess(ctx, "proc-1")
	require.NoError(t, err)
	assert.Equal(t, "proc-1", got.ProcessID)

	_, ok = cache.Get("proc-1")
	assert.True(t, ok)
}

func TestSaveMessage_BytestoreThenRelational(t *testing.T) {
	store, rel, bs, _ := newTestStore()
	ctx := context.Background()

	m := &model.Message{ProcessID: "proc-1", MessageID: "msg-1", Timestamp: 10, Bundle: []byte("payload")}
	dh := "deephash-1"
	status, err := store.SaveMessage(ctx, m, &dh)
	require.NoError(t, err)
	assert.Equal(t, "saved", status)

	assert.True(t, bs.Exists(binaryID(m)))
	assert.True(t, bs.DeepHashExists("proc-1", dh))
	require.Len(t, rel.messages, 1)
	assert.Equal(t, "payload", string(rel.messages[0].Bundle))
}

func TestSaveMessage_RelationalFailureCompensatesBytestore(t *testing.T) {
	store, rel, bs, _ := newTestStore()
	ctx := context.Background()
	rel.failSaveMessage = errs.Database("insert message", errors.New("constraint violation"))

	m := &model.Message{ProcessID: "proc-1", MessageID: "msg-1", Timestamp: 10, Bundle: []byte("payload")}
	dh := "deephash-1"
	_, err := store.SaveMessage(ctx, m, &dh)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errs.ErrDatabase))

	assert.False(t, bs.Exists(binaryID(m)), "bytestore write must be rolled back on relational failure")
	assert.False(t, bs.DeepHashExists("proc-1", dh), "deep hash entry must be rolled back on relational failure")
}

func TestSaveMessage_BytestoreFailureAbortsBeforeRelational(t *testing.T) {
	store, rel, bs, _ := newTestStore()
	ctx := context.Background()
	bs.failSaveBinary = errs.ByteStore("save binary", errors.New("disk full"))

	m := &model.Message{ProcessID: "proc-1", MessageID: "msg-1", Timestamp: 10, Bundle: []byte("payload")}
	_, err := store.SaveMessage(ctx, m, nil)
	require.Error(t, err)
	assert.Empty(t, rel.messages, "no relational insert should be attempted when the bytestore write fails")
}

func TestCheckExistingMessage_BlocksOnlyRowsWithPayload(t *testing.T) {
	store, _, _, _ := newTestStore()
	ctx := context.Background()

	require.NoError(t, store.CheckExistingMessage(ctx, "msg-1"), "unknown id is writable")

	withPayload := &model.Message{
		ProcessID: "proc-1", MessageID: "msg-1", Timestamp: 1,
		MessageData: []byte(`{"message":{"id":"msg-1"},"assignment":{"id":"asg-1"}}`),
		Bundle:      []byte("v"),
	}
	_, err := store.SaveMessage(ctx, withPayload, nil)
	require.NoError(t, err)

	assignmentOnly := &model.Message{
		ProcessID: "proc-1", MessageID: "msg-2", Timestamp: 2,
		MessageData: []byte(`{"message":null,"assignment":{"id":"asg-2"}}`),
		Bundle:      []byte("v"),
	}
	_, err = store.SaveMessage(ctx, assignmentOnly, nil)
	require.NoError(t, err)

	assert.ErrorIs(t, store.CheckExistingMessage(ctx, "msg-1"), errs.ErrMessageExists)
	assert.NoError(t, store.CheckExistingMessage(ctx, "msg-2"), "a bare assignment doesn't block a payload write")
}

func TestCheckExistingDeepHash(t *testing.T) {
	store, _, bs, _ := newTestStore()
	ctx := context.Background()

	err := store.CheckExistingDeepHash(ctx, "proc-1", "dh-1")
	require.NoError(t, err)

	require.NoError(t, bs.SaveDeepHash("proc-1", "dh-1"))
	err = store.CheckExistingDeepHash(ctx, "proc-1", "dh-1")
	assert.ErrorIs(t, err, errs.ErrMessageExists)
}

func TestGetMessages_BytestoreReadyUsesPayloadFromBytestore(t *testing.T) {
	store, rel, _, _ := newTestStore()
	ctx := context.Background()

	ids := []string{"msg-1", "msg-2", "msg-3"}
	for i, id := range ids {
		m := &model.Message{ProcessID: "proc-1", MessageID: id, Timestamp: int64(i + 1), Nonce: int32(i + 1), Bundle: []byte("v")}
		status, err := store.SaveMessage(ctx, m, nil)
		require.NoError(t, err)
		assert.Equal(t, "saved", status)
	}
	require.Len(t, rel.messages, 3)

	page, err := store.GetMessages(ctx, &model.Process{ProcessID: "proc-1"}, model.MessagesQuery{Limit: 2})
	require.NoError(t, err)
	assert.True(t, page.HasNextPage)
	require.Len(t, page.Messages, 2)
	assert.Equal(t, "msg-1", page.Messages[0].MessageID)
	assert.Equal(t, []byte("v"), page.Messages[0].Bundle)
}

func TestGetMessages_SplicesProcessOnFirstPageWithAssignment(t *testing.T) {
	store, _, _, _ := newTestStore()
	ctx := context.Background()

	proc := &model.Process{
		ProcessID:   "proc-1",
		ProcessData: []byte(`{"p":1}`),
		Assignment:  &model.Assignment{AssignmentID: "asg-0", Epoch: 0, Nonce: 0, Timestamp: 1, HashChain: "h0"},
	}

	m := &model.Message{ProcessID: "proc-1", MessageID: "msg-1", Timestamp: 5, Nonce: 1, Bundle: []byte("v")}
	_, err := store.SaveMessage(ctx, m, nil)
	require.NoError(t, err)

	page, err := store.GetMessages(ctx, proc, model.MessagesQuery{Limit: 2})
	require.NoError(t, err)
	require.Len(t, page.Messages, 2)
	assert.Equal(t, "proc-1", page.Messages[0].MessageID)
	assert.Equal(t, "msg-1", page.Messages[1].MessageID)
}

func TestGetMessages_NonceModeSelectedByBound(t *testing.T) {
	store, _, _, _ := newTestStore()
	ctx := context.Background()

	from := int32(0)
	page, err := store.GetMessages(ctx, &model.Process{ProcessID: "proc-1"}, model.MessagesQuery{FromNonce: &from})
	require.NoError(t, err)
	assert.Equal(t, model.SequenceByNonce, page.Mode)
}

func TestGetMessages_NonceFirstPageSpliceAndPageSize(t *testing.T) {
	store, _, _, _ := newTestStore()
	ctx := context.Background()

	proc := &model.Process{
		ProcessID:   "proc-1",
		ProcessData: []byte(`{"p":1}`),
		Assignment:  &model.Assignment{AssignmentID: "asg-0", Timestamp: 1},
	}
	for i := int32(0); i < 3; i++ {
		m := &model.Message{ProcessID: "proc-1", MessageID: "msg-" + string(rune('a'+i)), Nonce: i, Timestamp: int64(i + 2), Bundle: []byte("v")}
		_, err := store.SaveMessage(ctx, m, nil)
		require.NoError(t, err)
	}

	firstPage := int32(-1)
	page, err := store.GetMessages(ctx, proc, model.MessagesQuery{FromNonce: &firstPage, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, model.SequenceByNonce, page.Mode)
	assert.True(t, page.HasNextPage)
	require.Len(t, page.Messages, 2, "the splice must count against the page size")
	assert.Equal(t, "proc-1", page.Messages[0].MessageID)
	assert.Equal(t, int32(0), page.Messages[1].Nonce)

	midPage := int32(0)
	page, err = store.GetMessages(ctx, proc, model.MessagesQuery{FromNonce: &midPage, Limit: 2})
	require.NoError(t, err)
	assert.False(t, page.HasNextPage)
	require.Len(t, page.Messages, 2)
	assert.Equal(t, int32(1), page.Messages[0].Nonce, "no splice past the first page")
}

func TestGetMessages_FallsBackToRelationalOnBytestoreMiss(t *testing.T) {
	store, rel, bs, _ := newTestStore()
	ctx := context.Background()

	m := &model.Message{ProcessID: "proc-1", MessageID: "msg-1", Timestamp: 1, Bundle: []byte("v")}
	require.NoError(t, rel.SaveMessage(ctx, m)) // bypass façade: bytestore never sees this row
	_ = bs

	page, err := store.GetMessages(ctx, &model.Process{ProcessID: "proc-1"}, model.MessagesQuery{})
	require.NoError(t, err)
	require.Len(t, page.Messages, 1)
	assert.Equal(t, []byte("v"), page.Messages[0].Bundle)
}

func TestGetMessageBundles_KeyedByMessageIDOrAssignmentID(t *testing.T) {
	store, rel, _, _ := newTestStore()
	ctx := context.Background()

	asg := "asg-1"
	withAssignment := &model.Message{ProcessID: "proc-1", MessageID: "msg-1", AssignmentID: &asg, Timestamp: 1, Bundle: []byte("v1")}
	_, err := store.SaveMessage(ctx, withAssignment, nil)
	require.NoError(t, err)

	withoutAssignment := &model.Message{ProcessID: "proc-1", MessageID: "msg-2", Timestamp: 2, Bundle: []byte("v2")}
	require.NoError(t, rel.SaveMessage(ctx, withoutAssignment)) // bytestore miss, no assignment: must be skipped

	entries, hasNext, err := store.GetMessageBundles(ctx, &model.Process{ProcessID: "proc-1"}, nil, 10)
	require.NoError(t, err)
	assert.False(t, hasNext)
	require.Len(t, entries, 1)
	assert.Equal(t, "msg-1", entries[0].ID)
	assert.Equal(t, []byte("v1"), entries[0].Bundle)
}

func TestGetMessageBundles_RequiresBytestoreReady(t *testing.T) {
	store, _, bs, _ := newTestStore()
	bs.ready = false

	_, _, err := store.GetMessageBundles(context.Background(), &model.Process{ProcessID: "proc-1"}, nil, 10)
	assert.ErrorIs(t, err, errs.ErrDatabase)
}
