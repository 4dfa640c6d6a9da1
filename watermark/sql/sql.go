// Copyright (c) 2025 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package sql implements [watermark.Store].  Supports at least SQLite and
// PostgreSQL.  The driver must be registered by the program.
package sql

import (
	"database/sql"
	"strings"
)

type Config struct {
	Driver string
	DSN    string
}

func (c *Config) Enabled() bool {
	return c.Driver != "" && c.DSN != ""
}

type Endpoint struct {
	db     *sql.DB
	driver string
}

func Open(config Config) (*Endpoint, error) {
	db, err := sql.Open(config.Driver, config.DSN)
	if err != nil {
		return nil, err
	}
	return &Endpoint{db, config.Driver}, nil
}

func (x *Endpoint) Close() error {
	return x.db.Close()
}

func (x *Endpoint) adjustSchema(s string) string {
	switch x.driver {
	case "sqlite", "sqlite3":
		s = strings.ReplaceAll(s, " BIGINT", " INTEGER")

	default:
		s = strings.ReplaceAll(s, " WITHOUT ROWID, STRICT;", ";")
		s = strings.ReplaceAll(s, " BLOB", " BYTEA")
	}

	return s
}
