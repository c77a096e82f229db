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

// Command su-migrate is the one-shot offline tool that backfills a
// bytestore directory from an existing relational log, process by process,
// in batches of config.Config.MigrationBatchSize. It is a peripheral tool,
// separate from the live service: run it once against a stopped or
// freshly-restored database before pointing su-store at the same
// su_data_dir.
package main

import (
	"context"

	"github.com/google/uuid"

	"github.com/ao-su/storage/internal/bootstrap"
	"github.com/ao-su/storage/internal/bytestore"
	sulog "github.com/ao-su/storage/internal/log"
	"github.com/ao-su/storage/internal/model"
	"github.com/ao-su/storage/internal/relstore"
)

func main() {
	runID := uuid.NewString()
	cfg := bootstrap.LoadStorageConfig()
	bootstrap.SetupLogging(cfg)
	log := sulog.WithComponent("su-migrate").With().Str("run_id", runID).Logger()

	pool, err := relstore.Open(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("open relational pool")
	}
	defer pool.Close()

	bs := bytestore.New(cfg.SUDataDir, cfg.MaxReadMemory)
	if err := bs.TryConnect(); err != nil {
		log.Fatal().Err(err).Msg("open bytestore")
	}
	defer bs.Close()

	ctx := context.Background()
	batchSize := int(cfg.MigrationBatchSize)
	if batchSize <= 0 {
		batchSize = 1000
	}

	processIDs, err := pool.ListProcessIDs(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("list process ids")
	}
	log.Info().Int("processes", len(processIDs)).Msg("starting backfill")

	var totalWritten int64
	for _, processID := range processIDs {
		written, err := backfillProcess(ctx, pool, bs, processID, batchSize)
		if err != nil {
			log.Fatal().Err(err).Str("process_id", processID).Msg("backfill failed")
		}
		totalWritten += written
	}

	log.Info().Int64("messages_written", totalWritten).Msg("backfill complete")
}

// backfillProcess pages through processID's message log ascending, in
// batches of batchSize, writing every bundle to the bytestore. It does not
// skip bytestore hits: a re-run is idempotent (SaveBinary overwrites) but
// not incremental, matching a one-shot restore tool rather than the
// continuously-running sync loop.
func backfillProcess(ctx context.Context, pool *relstore.Pool, bs *bytestore.ByteStore, processID string, batchSize int) (int64, error) {
	var written int64
	var cursor *int64

	for {
		rows, err := pool.MessagesBundlePage(ctx, processID, cursor, batchSize+1)
		if err != nil {
			return written, err
		}
		if len(rows) == 0 {
			return written, nil
		}

		hasNext := len(rows) > batchSize
		if hasNext {
			rows = rows[:batchSize]
		}

		for _, m := range rows {
			if err := bs.SaveBinary(binaryIDFor(m), m.Bundle); err != nil {
				return written, err
			}
			written++
		}

		last := rows[len(rows)-1].Timestamp
		cursor = &last
		if !hasNext {
			return written, nil
		}
	}
}

func binaryIDFor(m *model.Message) bytestore.BinaryID {
	return bytestore.BinaryID{MessageID: m.MessageID, AssignmentID: m.AssignmentID, ProcessID: m.ProcessID, Timestamp: m.Timestamp}
}
