// Copyright (c) 2025 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sql

import (
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"import.name/stackpaint/watermark"

	. "import.name/type/context"
)

const Schema = `
CREATE TABLE IF NOT EXISTS watermark (
	id BLOB NOT NULL,
	device TEXT NOT NULL,
	time BIGINT NOT NULL,
	size BIGINT NOT NULL,
	in_use BIGINT NOT NULL,
	high_water BIGINT NOT NULL,
	method TEXT NOT NULL,

	PRIMARY KEY (id)
) WITHOUT ROWID, STRICT;

CREATE INDEX IF NOT EXISTS watermark_device_time ON watermark (device, time);
`

const columns = "id, device, time, size, in_use, high_water, method"

var _ watermark.Store = (*Endpoint)(nil)

func (x *Endpoint) Init(ctx Context) error {
	_, err := x.db.ExecContext(ctx, x.adjustSchema(Schema))
	return err
}

func (x *Endpoint) Insert(ctx Context, r *watermark.Record) error {
	q := "INSERT INTO watermark (" + columns + ") VALUES ($1, $2, $3, $4, $5, $6, $7)"
	_, err := x.db.ExecContext(ctx, q, r.ID[:], r.Device, r.Time.UnixNano(), int64(r.Size), int64(r.InUse), int64(r.HighWater), string(r.Method))
	return err
}

func (x *Endpoint) List(ctx Context, device string, limit int) ([]*watermark.Record, error) {
	q := "SELECT " + columns + " FROM watermark WHERE device = $1 ORDER BY time DESC"
	args := []any{device}
	if limit > 0 {
		q += " LIMIT $2"
		args = append(args, limit)
	}

	rows, err := x.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []*watermark.Record

	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, r)
	}

	return list, rows.Err()
}

func (x *Endpoint) Worst(ctx Context, device string) (*watermark.Record, error) {
	q := "SELECT " + columns + " FROM watermark WHERE device = $1 ORDER BY high_water DESC, time ASC LIMIT 1"

	r, err := scanRecord(x.db.QueryRowContext(ctx, q, device))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, watermark.ErrNotFound
	}
	return r, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (*watermark.Record, error) {
	var (
		id        []byte
		r         watermark.Record
		t         int64
		size      int64
		inUse     int64
		highWater int64
		method    string
	)

	if err := row.Scan(&id, &r.Device, &t, &size, &inUse, &highWater, &method); err != nil {
		return nil, err
	}

	var err error
	if r.ID, err = uuid.FromBytes(id); err != nil {
		return nil, err
	}
	r.Time = time.Unix(0, t).UTC()
	r.Size = uint32(size)
	r.InUse = uint32(inUse)
	r.HighWater = uint32(highWater)
	r.Method = watermark.Method(method)
	return &r, nil
}
