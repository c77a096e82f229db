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

package bytestore

import (
	"fmt"
	"strconv"
)

// BinaryID addresses a single message payload in the bytestore. AssignmentID
// is nil when the message carries no assignment yet.
type BinaryID struct {
	MessageID    string
	AssignmentID *string
	ProcessID    string
	Timestamp    int64
}

// messageKey renders the bit-exact key layout from spec §4.1: the assigned
// form carries the assignment id as a fifth segment, the unassigned form
// omits it.
func messageKey(id BinaryID) []byte {
	if id.AssignmentID != nil {
		return []byte(fmt.Sprintf("message___%s___%s___%s___%s",
			id.ProcessID, strconv.FormatInt(id.Timestamp, 10), id.MessageID, *id.AssignmentID))
	}
	return []byte(fmt.Sprintf("message___%s___%s___%s",
		id.ProcessID, strconv.FormatInt(id.Timestamp, 10), id.MessageID))
}

func deepHashKey(processID, deepHash string) []byte {
	return []byte(fmt.Sprintf("deephash___%s___%s", processID, deepHash))
}

func deepHashVersionKey(processID string) []byte {
	return []byte(fmt.Sprintf("deephashversion___%s", processID))
}
