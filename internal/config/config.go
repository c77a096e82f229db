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

// Package config provides configuration loading and management for the
// scheduler unit's storage layer. It supports loading configuration from a
// YAML file with environment variable overrides.
package config

import (
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/ao-su/storage/internal/store/errs"
)

// Config is the record consumed at façade construction (spec §6).
type Config struct {
	DatabaseURL         string `yaml:"database_url"`
	DatabaseReadURL     string `yaml:"database_read_url"`
	DBWriteConnections  int    `yaml:"db_write_connections"`
	DBReadConnections   int    `yaml:"db_read_connections"`
	SUDataDir           string `yaml:"su_data_dir"`
	UseDisk             bool   `yaml:"use_disk"`
	ProcessCacheSize    int    `yaml:"process_cache_size"`
	EnableProcessAssign bool   `yaml:"enable_process_assignment"`
	MaxReadMemory       int64  `yaml:"max_read_memory"`
	MigrationBatchSize  int64  `yaml:"migration_batch_size"`

	LogLevel  string `yaml:"log_level"`
	LogFile   string `yaml:"log_file"`
	LogFormat string `yaml:"log_format"`
}

// LoadConfig reads and parses the YAML config file at path.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ApplyEnvOverrides overrides cfg fields from environment variables, taking
// priority over the YAML file. USE_DISK sets UseDisk, which su-store checks
// when deciding whether to run the sync loop. A set-but-unparsable
// numeric variable fails with an EnvVarError rather than being silently
// ignored.
func ApplyEnvOverrides(cfg *Config) error {
	if val := os.Getenv("SU_DATABASE_URL"); val != "" {
		cfg.DatabaseURL = val
	}
	if val := os.Getenv("SU_DATABASE_READ_URL"); val != "" {
		cfg.DatabaseReadURL = val
	}
	if val := os.Getenv("SU_DATA_DIR"); val != "" {
		cfg.SUDataDir = val
	}
	if val := os.Getenv("USE_DISK"); val != "" {
		cfg.UseDisk = val == "true"
	}
	if val := os.Getenv("SU_LOG_LEVEL"); val != "" {
		cfg.LogLevel = val
	}
	if val := os.Getenv("SU_LOG_FILE"); val != "" {
		cfg.LogFile = val
	}

	if err := overrideInt("SU_DB_WRITE_CONNECTIONS", &cfg.DBWriteConnections); err != nil {
		return err
	}
	if err := overrideInt("SU_DB_READ_CONNECTIONS", &cfg.DBReadConnections); err != nil {
		return err
	}
	if err := overrideInt("SU_PROCESS_CACHE_SIZE", &cfg.ProcessCacheSize); err != nil {
		return err
	}
	if err := overrideInt64("SU_MAX_READ_MEMORY", &cfg.MaxReadMemory); err != nil {
		return err
	}
	if err := overrideInt64("SU_MIGRATION_BATCH_SIZE", &cfg.MigrationBatchSize); err != nil {
		return err
	}
	return nil
}

func overrideInt(name string, dst *int) error {
	val := os.Getenv(name)
	if val == "" {
		return nil
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return errs.EnvVar("parse "+name, err)
	}
	*dst = n
	return nil
}

func overrideInt64(name string, dst *int64) error {
	val := os.Getenv(name)
	if val == "" {
		return nil
	}
	n, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return errs.EnvVar("parse "+name, err)
	}
	*dst = n
	return nil
}
