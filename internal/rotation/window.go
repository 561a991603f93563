// Marquee - Media Server Collection Rotation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package rotation

import (
	"fmt"
	"strconv"
	"strings"
)

// MonthDay is a (month, day) pair compared lexicographically.
// Day is only range-checked, so Feb 30 is a valid bound that never matches.
type MonthDay struct {
	Month int
	Day   int
}

// ParseMonthDay parses an "MM-DD" string with month in [1,12] and day in [1,31].
func ParseMonthDay(s string) (MonthDay, error) {
	parts := strings.Split(strings.TrimSpace(s), "-")
	if len(parts) != 2 {
		return MonthDay{}, fmt.Errorf("%w: %q must be MM-DD", ErrInvalidMonthDay, s)
	}
	month, err := strconv.Atoi(parts[0])
	if err != nil {
		return MonthDay{}, fmt.Errorf("%w: %q has non-numeric month", ErrInvalidMonthDay, s)
	}
	day, err := strconv.Atoi(parts[1])
	if err != nil {
		return MonthDay{}, fmt.Errorf("%w: %q has non-numeric day", ErrInvalidMonthDay, s)
	}
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return MonthDay{}, fmt.Errorf("%w: %q out of range", ErrInvalidMonthDay, s)
	}
	return MonthDay{Month: month, Day: day}, nil
}

// Before reports whether m sorts strictly before o.
func (m MonthDay) Before(o MonthDay) bool {
	if m.Month != o.Month {
		return m.Month < o.Month
	}
	return m.Day < o.Day
}

// String formats the value as MM-DD.
func (m MonthDay) String() string {
	return fmt.Sprintf("%02d-%02d", m.Month, m.Day)
}

// Contains reports whether today falls in the inclusive window [start, end].
// When start is after end the window wraps across the year boundary.
func Contains(start, end, today MonthDay) bool {
	if !end.Before(start) {
		return !today.Before(start) && !end.Before(today)
	}
	return !today.Before(start) || !end.Before(today)
}

// ParseWindow parses both bounds of the group's date window.
// ok is false when the group has no window.
func ParseWindow(g CollectionGroup) (start, end MonthDay, ok bool, err error) {
	if g.DateRange == nil {
		return MonthDay{}, MonthDay{}, false, nil
	}
	start, err = ParseMonthDay(g.DateRange.Start)
	if err != nil {
		return MonthDay{}, MonthDay{}, false, &WindowError{Group: g.Name, Field: "start", Value: g.DateRange.Start, Err: err}
	}
	end, err = ParseMonthDay(g.DateRange.End)
	if err != nil {
		return MonthDay{}, MonthDay{}, false, &WindowError{Group: g.Name, Field: "end", Value: g.DateRange.End, Err: err}
	}
	return start, end, true, nil
}

// IsActive reports whether the group is active on the given day.
// A disabled group is never active; an enabled group with no window always is.
func IsActive(g CollectionGroup, today Date) (bool, error) {
	if !g.Enabled {
		return false, nil
	}
	start, end, ok, err := ParseWindow(g)
	if err != nil {
		return false, err
	}
	if !ok {
		return true, nil
	}
	return Contains(start, end, today.MonthDay()), nil
}
