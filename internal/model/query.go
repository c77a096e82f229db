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

package model

import (
	"strconv"

	"github.com/ao-su/storage/internal/store/errs"
)

// ParseMessagesQuery builds a MessagesQuery from the raw string bounds an
// upper HTTP layer receives. Nil or empty strings leave the corresponding
// bound unset; a non-integer value fails with an IntError naming the bad
// field.
func ParseMessagesQuery(from, to, fromNonce, toNonce, limit *string) (MessagesQuery, error) {
	var q MessagesQuery

	v64, err := parseInt64("from", from)
	if err != nil {
		return q, err
	}
	q.From = v64

	v64, err = parseInt64("to", to)
	if err != nil {
		return q, err
	}
	q.To = v64

	v32, err := parseInt32("from_nonce", fromNonce)
	if err != nil {
		return q, err
	}
	q.FromNonce = v32

	v32, err = parseInt32("to_nonce", toNonce)
	if err != nil {
		return q, err
	}
	q.ToNonce = v32

	if limit != nil && *limit != "" {
		n, err := strconv.Atoi(*limit)
		if err != nil {
			return q, errs.Int("parse limit", err)
		}
		q.Limit = n
	}
	return q, nil
}

func parseInt64(field string, raw *string) (*int64, error) {
	if raw == nil || *raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseInt(*raw, 10, 64)
	if err != nil {
		return nil, errs.Int("parse "+field, err)
	}
	return &v, nil
}

func parseInt32(field string, raw *string) (*int32, error) {
	if raw == nil || *raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseInt(*raw, 10, 32)
	if err != nil {
		return nil, errs.Int("parse "+field, err)
	}
	n := int32(v)
	return &n, nil
}
