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

// Package syncloop implements the startup backfill (C5) that copies the
// tail of the relational log into the bytestore directory it sits beside:
// every message newer than the newest one the bytestore already holds gets
// its binary copied across. Gaps older than that message are not filled;
// an empty bytestore receives the whole log.
package syncloop

import (
	"context"
	"time"

	"github.com/ao-su/storage/internal/bytestore"
	sulog "github.com/ao-su/storage/internal/log"
	"github.com/ao-su/storage/internal/model"
)

// relSource is the slice of *relstore.Pool the sync loop needs.
type relSource interface {
	MessageCount(ctx context.Context) (int64, error)
	MessageByOffsetFromEnd(ctx context.Context, offset int64) (*model.Message, error)
}

// byteTarget is the slice of *bytestore.ByteStore the sync loop needs.
type byteTarget interface {
	TryConnect() error
	Exists(id bytestore.BinaryID) bool
	SaveBinary(id bytestore.BinaryID, binary []byte) error
}

func binaryIDOf(m *model.Message) bytestore.BinaryID {
	return bytestore.BinaryID{MessageID: m.MessageID, AssignmentID: m.AssignmentID, ProcessID: m.ProcessID, Timestamp: m.Timestamp}
}

// connectRetryInterval is how long Run waits between TryConnect attempts
// while the bytestore directory isn't yet reachable (e.g. another process
// still holds its lock file on startup).
const connectRetryInterval = 5 * time.Second

// Run connects bs (retrying until ctx is cancelled) and then walks rel's
// message log from newest to oldest, copying any binary bs doesn't already
// have. It stops walking as soon as it finds a message bs already holds,
// since everything older than that point was covered by a prior run. Run
// blocks until the backfill completes or ctx is cancelled.
func Run(ctx context.Context, rel relSource, bs byteTarget) error {
	log := sulog.WithComponent("syncloop")

	for {
		if err := bs.TryConnect(); err == nil {
			break
		} else {
			log.Warn().Err(err).Msg("bytestore not ready, retrying")
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(connectRetryInterval):
		}
	}

	total, err := rel.MessageCount(ctx)
	if err != nil {
		return err
	}

	start := time.Now()
	var synced int64
	for offset := int64(0); offset < total; offset++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		m, err := rel.MessageByOffsetFromEnd(ctx, offset)
		if err != nil {
			return err
		}
		if m == nil {
			break
		}

		id := binaryIDOf(m)
		if bs.Exists(id) {
			log.Info().Int64("synced", synced).Msg("reached already-synced message, stopping backfill")
			break
		}

		if err := bs.SaveBinary(id, m.Bundle); err != nil {
			return err
		}
		synced++
	}

	log.Info().Int64("messages_synced", synced).Dur("elapsed", time.Since(start)).Msg("bytestore backfill complete")
	return nil
}
