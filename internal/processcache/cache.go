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

// Package processcache is the bounded, advisory process-id to Process map
// (C2). Processes are immutable once inserted, so the cache needs no
// invalidation path: a miss is always recoverable from the relational
// store.
package processcache

import (
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/ao-su/storage/internal/model"
)

// Cache is a bounded LRU of process_id -> *model.Process. Access is
// serialized by an internal mutex; the cache is not on any hot write path,
// so brief contention among concurrent readers is acceptable.
type Cache struct {
	mu  sync.Mutex
	lru *lru.Cache[string, *model.Process]
}

// New constructs a Cache with the given capacity. A non-positive size is
// not rejected; it is raised to a capacity of 1.
func New(size int) (*Cache, error) {
	if size <= 0 {
		size = 1
	}
	l, err := lru.New[string, *model.Process](size)
	if err != nil {
		return nil, err
	}
	return &Cache{lru: l}, nil
}

// Get returns the cached process for id, recording the access for LRU
// purposes on a hit.
func (c *Cache) Get(processID string) (*model.Process, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Get(processID)
}

// Insert stores p under processID, evicting the least-recently-used entry
// if the cache is at capacity.
func (c *Cache) Insert(processID string, p *model.Process) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lru.Add(processID, p)
}

// Len reports the current number of cached entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Len()
}
