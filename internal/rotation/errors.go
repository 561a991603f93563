// Marquee - Media Server Collection Rotation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package rotation

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidMonthDay is returned for a malformed or out-of-range MM-DD value.
	ErrInvalidMonthDay = errors.New("invalid month-day")

	// ErrInvalidGroup is returned for a group whose quota bounds are inconsistent.
	ErrInvalidGroup = errors.New("invalid collection group")
)

// WindowError reports a malformed date window bound on a specific group.
type WindowError struct {
	Group string
	Field string
	Value string
	Err   error
}

func (e *WindowError) Error() string {
	return fmt.Sprintf("group %q: date_range.%s %q: %v", e.Group, e.Field, e.Value, e.Err)
}

func (e *WindowError) Unwrap() error {
	return e.Err
}
