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

package relstore

import (
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"github.com/ao-su/storage/internal/relstore/migrations"
	"github.com/ao-su/storage/internal/store/errs"
)

// RunMigrations applies the embedded additive schema through the write
// pool. It returns a human-readable summary on success; failure is fatal
// to startup, per spec §4.6.
func (p *Pool) RunMigrations() (string, error) {
	src, err := iofs.New(migrations.FS, ".")
	if err != nil {
		return "", errs.Database("load embedded migrations", err)
	}

	driver, err := postgres.WithInstance(p.Write, &postgres.Config{})
	if err != nil {
		return "", errs.Database("init migration driver", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, "postgres", driver)
	if err != nil {
		return "", errs.Database("init migrator", err)
	}

	before, _, _ := m.Version()
	err = m.Up()
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return "", errs.Database("apply migrations", err)
	}
	after, dirty, verr := m.Version()
	if verr != nil && !errors.Is(verr, migrate.ErrNilVersion) {
		return "", errs.Database("read migration version", verr)
	}

	return fmt.Sprintf("migrations applied: %d -> %d (dirty=%v)", before, after, dirty), nil
}
