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

package model

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/ao-su/storage/internal/store/errs"
)

func TestMessagesQuery_UsesNonceMode(t *testing.T) {
	nonce := int32(1)
	assert.False(t, MessagesQuery{}.UsesNonceMode())
	assert.True(t, MessagesQuery{FromNonce: &nonce}.UsesNonceMode())
	assert.True(t, MessagesQuery{ToNonce: &nonce}.UsesNonceMode())
}

func TestMessagesQuery_IsFirstPage(t *testing.T) {
	ts := int64(100)
	assert.True(t, MessagesQuery{}.IsFirstPage(), "no bound at all is the first page")
	assert.False(t, MessagesQuery{From: &ts}.IsFirstPage())

	firstPageNonce := int32(-1)
	midPageNonce := int32(4)
	assert.True(t, MessagesQuery{FromNonce: &firstPageNonce}.IsFirstPage())
	assert.False(t, MessagesQuery{FromNonce: &midPageNonce}.IsFirstPage())
}

func TestMessagesQuery_EffectiveLimit(t *testing.T) {
	assert.Equal(t, 100, MessagesQuery{}.EffectiveLimit())
	assert.Equal(t, 100, MessagesQuery{Limit: -5}.EffectiveLimit())
	assert.Equal(t, 25, MessagesQuery{Limit: 25}.EffectiveLimit())
}

func strp(s string) *string { return &s }

func TestParseMessagesQuery(t *testing.T) {
	q, err := ParseMessagesQuery(strp("1500"), nil, nil, nil, strp("10"))
	assert.NoError(t, err)
	assert.Equal(t, int64(1500), *q.From)
	assert.Nil(t, q.To)
	assert.Equal(t, 10, q.Limit)
	assert.False(t, q.UsesNonceMode())

	q, err = ParseMessagesQuery(nil, nil, strp("-1"), nil, nil)
	assert.NoError(t, err)
	assert.Equal(t, int32(-1), *q.FromNonce)
	assert.True(t, q.UsesNonceMode())
	assert.True(t, q.IsFirstPage())
}

func TestParseMessagesQuery_NonIntegerBound(t *testing.T) {
	_, err := ParseMessagesQuery(strp("not-a-number"), nil, nil, nil, nil)
	assert.ErrorIs(t, err, errs.ErrInt)

	_, err = ParseMessagesQuery(nil, nil, strp("1.5"), nil, nil)
	assert.ErrorIs(t, err, errs.ErrInt)
}

func TestMessageHasMessage(t *testing.T) {
	withPayload := &Message{MessageData: []byte(`{"message":{"id":"m1"}}`)}
	has, err := withPayload.HasMessage()
	assert.NoError(t, err)
	assert.True(t, has)

	assignmentOnly := &Message{MessageData: []byte(`{"message":null,"assignment":{"id":"a1"}}`)}
	has, err = assignmentOnly.HasMessage()
	assert.NoError(t, err)
	assert.False(t, has)

	empty := &Message{}
	has, err = empty.HasMessage()
	assert.NoError(t, err)
	assert.False(t, has)

	malformed := &Message{MessageData: []byte(`{`)}
	_, err = malformed.HasMessage()
	assert.Error(t, err)
}

func TestFromProcess_SplicesAssignmentFields(t *testing.T) {
	assignmentID := uuid.NewString()
	p := &Process{
		ProcessID:   uuid.NewString(),
		ProcessData: []byte(`{"owner":"abc"}`),
		Bundle:      []byte("raw-bundle"),
		Assignment: &Assignment{
			AssignmentID: assignmentID,
			Epoch:        0,
			Nonce:        0,
			Timestamp:    123,
			HashChain:    "genesis",
		},
	}

	m := FromProcess(p)
	assert.Equal(t, p.ProcessID, m.ProcessID)
	assert.Equal(t, p.ProcessID, m.MessageID, "the process itself is spliced in keyed by its own id")
	assert.Equal(t, assignmentID, *m.AssignmentID)
	assert.Equal(t, p.ProcessData, m.MessageData)
	assert.Equal(t, p.Bundle, m.Bundle)
	assert.Equal(t, "genesis", m.HashChain)
}
