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

package su

import (
	"context"

	"github.com/ao-su/storage/internal/model"
)

// SaveProcess persists p, nulling ordering fields when process assignment
// is disabled. Duplicate process_id is a silent no-op; both cases return
// "saved" (spec §4.4.1).
func (s *Store) SaveProcess(ctx context.Context, p *model.Process) (string, error) {
	if err := s.rel.SaveProcess(ctx, s.enableProcessAssign, p); err != nil {
		return "", err
	}
	return "saved", nil
}

// GetProcess consults the cache first, falling back to the relational
// store on a miss and populating the cache before returning.
func (s *Store) GetProcess(ctx context.Context, processID string) (*model.Process, error) {
	if p, ok := s.cache.Get(processID); ok {
		return p, nil
	}

	p, err := s.rel.GetProcess(ctx, processID)
	if err != nil {
		return nil, err
	}
	s.cache.Insert(processID, p)
	return p, nil
}
