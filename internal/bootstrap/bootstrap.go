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

// Package bootstrap wires the storage layer's components together from a
// loaded config.Config: the relational pool and its migrations, the
// bytestore, the process cache, and finally the su façade over all three.
package bootstrap

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/ao-su/storage/internal/bytestore"
	"github.com/ao-su/storage/internal/config"
	sulog "github.com/ao-su/storage/internal/log"
	"github.com/ao-su/storage/internal/processcache"
	"github.com/ao-su/storage/internal/relstore"
	"github.com/ao-su/storage/internal/su"
)

// SetupLogging initializes the global logger from cfg's log fields. When
// cfg.LogFile is set, output is appended to that file instead of stdout;
// failure to open it is fatal, since logging is otherwise silently lost.
func SetupLogging(cfg *config.Config) {
	level := sulog.InfoLevel
	switch cfg.LogLevel {
	case "debug":
		level = sulog.DebugLevel
	case "warn":
		level = sulog.WarnLevel
	case "error":
		level = sulog.ErrorLevel
	}

	var output io.Writer
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			log.Fatalf("open log file %q: %v", cfg.LogFile, err)
		}
		output = f
	}

	sulog.Init(sulog.Config{
		Level:      level,
		JSONOutput: cfg.LogFormat == "json",
		Output:     output,
	})
}

// Components bundles every wired piece main needs to run the service or
// hand off to the sync loop.
type Components struct {
	Config *config.Config
	Pool   *relstore.Pool
	Bytes  *bytestore.ByteStore
	Cache  *processcache.Cache
	Store  *su.Store
}

// Init opens the relational pool, runs its migrations, builds the
// (unconnected) bytestore and the process cache, and returns the assembled
// façade. It does not call bs.TryConnect: the bytestore's directory lock
// may be held by another process at startup, and establishing it is the
// background sync loop's job (spec §4.5), not a precondition of Init
// succeeding. Callers that set cfg.UseDisk are expected to launch
// syncloop.Run against the returned Bytes handle.
func Init(cfg *config.Config) (*Components, error) {
	pool, err := relstore.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("open relational pool: %w", err)
	}

	summary, err := pool.RunMigrations()
	if err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	sulog.Info(summary)

	// The bytestore is deliberately left unconnected here: its directory
	// lock may be held by another process, and spec §4.5 makes connecting
	// it the sync loop's job, retried in the background, not a precondition
	// of startup. Callers that set cfg.UseDisk launch syncloop.Run, whose
	// retry loop owns TryConnect.
	bs := bytestore.New(cfg.SUDataDir, cfg.MaxReadMemory)

	cache, err := processcache.New(cfg.ProcessCacheSize)
	if err != nil {
		return nil, fmt.Errorf("build process cache: %w", err)
	}

	store := su.New(pool, bs, cache, cfg.EnableProcessAssign)

	return &Components{Config: cfg, Pool: pool, Bytes: bs, Cache: cache, Store: store}, nil
}

// Close releases the relational pool and bytestore handle.
func (c *Components) Close() error {
	if err := c.Bytes.Close(); err != nil {
		return err
	}
	return c.Pool.Close()
}
