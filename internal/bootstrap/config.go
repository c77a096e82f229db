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

package bootstrap

import (
	"flag"
	"log"
	"os"
	"path/filepath"

	"github.com/ao-su/storage/internal/config"
)

// LoadStorageConfig resolves configuration in flag -> env -> file priority
// order: a config file is loaded first, environment variables override it,
// then any explicitly-set CLI flags take final priority.
func LoadStorageConfig() *config.Config {
	configFlag := flag.String("config", "", "Path to config file")
	logLevel := flag.String("log-level", "", "Override log level (debug, info, warn, error)")
	logFile := flag.String("log-file", "", "Override log file path")
	flag.Parse()

	configPath := resolvePath(*configFlag, "SU_CONFIG", "config.yaml")

	if err := config.EnsureDefault(configPath); err != nil {
		log.Fatalf("could not create default config: %v", err)
	}

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	if err := config.ApplyEnvOverrides(cfg); err != nil {
		log.Fatalf("failed to apply environment overrides: %v", err)
	}

	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}
	if *logFile != "" {
		cfg.LogFile = *logFile
	}
	return cfg
}

func resolvePath(flagVal, envVar, fallback string) string {
	if flagVal != "" {
		return absPath(flagVal)
	}
	if val := os.Getenv(envVar); val != "" {
		return absPath(val)
	}
	return absPath(fallback)
}

func absPath(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		log.Fatalf("failed to resolve path: %v", err)
	}
	return abs
}
