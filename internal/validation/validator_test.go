// Marquee - Media Server Collection Rotation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package validation

import (
	"strings"
	"testing"

	"github.com/tomtom215/marquee/internal/rotation"
)

type groupsFile struct {
	Groups []rotation.CollectionGroup `koanf:"groups" validate:"dive"`
}

func TestValidateStruct_ValidGroup(t *testing.T) {
	f := groupsFile{Groups: []rotation.CollectionGroup{{
		Name:        "Holidays",
		Enabled:     true,
		MinPicks:    1,
		MaxPicks:    2,
		DateRange:   &rotation.DateWindow{Start: "12-01", End: "01-15"},
		Collections: []string{"Christmas Classics"},
	}}}
	if err := ValidateStruct(&f); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateStruct_GroupErrors(t *testing.T) {
	f := groupsFile{Groups: []rotation.CollectionGroup{{
		Name:        "",
		MinPicks:    3,
		MaxPicks:    1,
		DateRange:   &rotation.DateWindow{Start: "13-01", End: "01-15"},
		Collections: nil,
	}}}

	err := ValidateStruct(&f)
	if err == nil {
		t.Fatal("expected validation error")
	}

	tags := map[string]string{}
	for _, fe := range err.Fields {
		tags[fe.Field] = fe.Tag
	}
	want := map[string]string{
		"groups[0].name":             "required",
		"groups[0].max_picks":        "gtefield",
		"groups[0].date_range.start": "monthday",
		"groups[0].collections":      "required",
	}
	for field, tag := range want {
		if tags[field] != tag {
			t.Errorf("field %s tag = %q, want %q (all: %v)", field, tags[field], tag, tags)
		}
	}
	if !strings.Contains(err.Error(), "MM-DD") {
		t.Errorf("message should explain the monthday format: %s", err.Error())
	}
}

func TestGetValidator_Singleton(t *testing.T) {
	if GetValidator() != GetValidator() {
		t.Error("GetValidator should return the same instance")
	}
}
