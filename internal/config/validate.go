// Marquee - Media Server Collection Rotation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/tomtom215/marquee/internal/rotation"
	"github.com/tomtom215/marquee/internal/validation"
)

const (
	minRotationInterval = time.Hour
	minJWTSecretLength  = 32
)

// Validate checks struct tags first, then rules that span fields.
func (c *Config) Validate() error {
	if verr := validation.ValidateStruct(c); verr != nil {
		return verr
	}

	var errs []error
	if c.Rotation.Interval < minRotationInterval {
		errs = append(errs, fmt.Errorf("rotation.interval must be at least %s, got %s", minRotationInterval, c.Rotation.Interval))
	}
	if err := rotation.ValidateGroups(c.Groups); err != nil {
		errs = append(errs, err)
	}
	seen := make(map[string]struct{}, len(c.Groups))
	for _, g := range c.Groups {
		if _, dup := seen[g.Name]; dup {
			errs = append(errs, fmt.Errorf("duplicate group name %q", g.Name))
		}
		seen[g.Name] = struct{}{}
	}
	if !c.Plex.Mock {
		if c.Plex.URL == "" {
			errs = append(errs, errors.New("plex.url is required unless plex.mock is enabled"))
		}
		if c.Plex.Token == "" {
			errs = append(errs, errors.New("plex.token is required unless plex.mock is enabled"))
		}
	}
	if c.Ledger.Backend == "badger" && c.Ledger.Path == "" {
		errs = append(errs, errors.New("ledger.path is required for the badger backend"))
	}
	if c.Security.AuthMode == "jwt" {
		if len(c.Security.JWTSecret) < minJWTSecretLength {
			errs = append(errs, fmt.Errorf("security.jwt_secret must be at least %d characters", minJWTSecretLength))
		}
		if c.Security.AdminPassword == "" {
			errs = append(errs, errors.New("security.admin_password is required when auth_mode is jwt"))
		}
		if c.Security.SessionTimeout <= 0 {
			errs = append(errs, errors.New("security.session_timeout must be positive"))
		}
	}
	return errors.Join(errs...)
}
