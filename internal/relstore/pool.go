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

// Package relstore is the connection-pooled relational store of record
// (C3): processes, messages, schedulers and process_schedulers, plus the
// embedded schema migrations that create them (C6).
package relstore

import (
	"database/sql"
	"time"

	_ "github.com/lib/pq"

	"github.com/ao-su/storage/internal/config"
	"github.com/ao-su/storage/internal/store/errs"
)

// Pool holds the two connection pools spec §4.3 requires: a write pool
// bound to database_url and a read pool bound to database_read_url (which
// may be the same endpoint). Both validate their connection on checkout via
// database/sql's built-in liveness probing; ConnMaxLifetime bounds how long
// a pooled connection is reused before it is closed and replaced.
type Pool struct {
	Write *sql.DB
	Read  *sql.DB
}

// Open opens both pools and pings each to fail fast on a bad endpoint.
func Open(cfg *config.Config) (*Pool, error) {
	write, err := openPool(cfg.DatabaseURL, cfg.DBWriteConnections)
	if err != nil {
		return nil, errs.Database("open write pool", err)
	}

	read, err := openPool(cfg.DatabaseReadURL, cfg.DBReadConnections)
	if err != nil {
		_ = write.Close()
		return nil, errs.Database("open read pool", err)
	}

	return &Pool{Write: write, Read: read}, nil
}

func openPool(dsn string, size int) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	if size <= 0 {
		size = 1
	}
	db.SetMaxOpenConns(size)
	db.SetMaxIdleConns(size)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// Close closes both pools, returning the first error encountered.
func (p *Pool) Close() error {
	errW := p.Write.Close()
	errR := p.Read.Close()
	if errW != nil {
		return errW
	}
	return errR
}
