// Marquee - Media Server Collection Rotation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

/*
Package auth protects the HTTP API with a single admin account.

Modes (security.auth_mode):
  - none: every request is treated as the "anonymous" admin
  - jwt: POST /api/v1/auth/login exchanges the admin credentials for an
    HS256 token, accepted as "Authorization: Bearer <token>" or a "token"
    cookie

The configured admin password may be plaintext or a bcrypt hash ($2a$/$2b$
prefix). Plaintext passwords are compared in constant time.
*/
package auth
