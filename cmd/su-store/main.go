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

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/ao-su/storage/internal/bootstrap"
	sulog "github.com/ao-su/storage/internal/log"
	"github.com/ao-su/storage/internal/syncloop"
)

func main() {
	cfg := bootstrap.LoadStorageConfig()
	bootstrap.SetupLogging(cfg)

	comps, err := bootstrap.Init(cfg)
	if err != nil {
		sulog.Errorf("bootstrap failed: %v", err)
		os.Exit(1)
	}
	defer comps.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if cfg.UseDisk {
		go func() {
			if err := syncloop.Run(ctx, comps.Pool, comps.Bytes); err != nil && err != context.Canceled {
				sulog.Errorf("bytestore sync loop exited: %v", err)
			}
		}()
	}

	sulog.Info("storage layer ready")
	<-ctx.Done()
	sulog.Info("shutting down")
}
