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

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ao-su/storage/internal/store/errs"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `database_url: "postgres://w"
database_read_url: "postgres://r"
db_write_connections: 4
db_read_connections: 8
su_data_dir: "/var/su"
use_disk: true
process_cache_size: 50
enable_process_assignment: true
max_read_memory: 1048576
migration_batch_size: 500
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "postgres://w", cfg.DatabaseURL)
	assert.Equal(t, "postgres://r", cfg.DatabaseReadURL)
	assert.Equal(t, 4, cfg.DBWriteConnections)
	assert.Equal(t, 8, cfg.DBReadConnections)
	assert.True(t, cfg.UseDisk)
	assert.Equal(t, int64(1048576), cfg.MaxReadMemory)
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("SU_DATABASE_URL", "postgres://override")
	t.Setenv("USE_DISK", "false")
	t.Setenv("SU_PROCESS_CACHE_SIZE", "77")

	cfg := &Config{DatabaseURL: "postgres://file", UseDisk: true, ProcessCacheSize: 10}
	require.NoError(t, ApplyEnvOverrides(cfg))
	assert.Equal(t, "postgres://override", cfg.DatabaseURL)
	assert.False(t, cfg.UseDisk)
	assert.Equal(t, 77, cfg.ProcessCacheSize)
}

func TestApplyEnvOverrides_BadNumericValue(t *testing.T) {
	t.Setenv("SU_MAX_READ_MEMORY", "lots")

	cfg := &Config{MaxReadMemory: 100}
	err := ApplyEnvOverrides(cfg)
	assert.ErrorIs(t, err, errs.ErrEnvVar)
	assert.Equal(t, int64(100), cfg.MaxReadMemory, "a failed override must not clobber the configured value")
}

func TestEnsureDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	require.NoError(t, EnsureDefault(path))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.NotEmpty(t, cfg.DatabaseURL)

	// never overwritten once present
	require.NoError(t, os.WriteFile(path, []byte(`database_url: "keep"`), 0644))
	require.NoError(t, EnsureDefault(path))
	cfg, err = LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "keep", cfg.DatabaseURL)
}
