// Copyright (c) 2025 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sql

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"import.name/stackpaint/watermark"

	. "import.name/testing/mustr"
	_ "modernc.org/sqlite"
)

func newTestEndpoint(t *testing.T) *Endpoint {
	t.Helper()

	x := Must(t, R(Open(Config{
		Driver: "sqlite",
		DSN:    filepath.Join(t.TempDir(), "watermark.db"),
	})))
	t.Cleanup(func() { x.Close() })

	assert.NoError(t, x.Init(context.Background()))
	return x
}

func TestEndpoint(t *testing.T) {
	ctx := context.Background()
	x := newTestEndpoint(t)

	// Idempotent schema.
	assert.NoError(t, x.Init(ctx))

	_, err := x.Worst(ctx, "dev")
	assert.ErrorIs(t, err, watermark.ErrNotFound)

	var inserted []*watermark.Record
	for i, hw := range []uint32{0x100, 0x400, 0x200} {
		r := watermark.NewRecord("dev", watermark.Measurement{
			Size:    0x1000,
			InUse:   0x10,
			Painted: 0x1000 - hw,
			Method:  watermark.Linear,
		})
		r.Time = time.Unix(1700000000+int64(i), 0).UTC()
		assert.NoError(t, x.Insert(ctx, r))
		inserted = append(inserted, r)
	}
	assert.NoError(t, x.Insert(ctx, watermark.NewRecord("other", watermark.Measurement{Size: 0x1000})))

	list := Must(t, R(x.List(ctx, "dev", 0)))
	if assert.Len(t, list, 3) {
		assert.Equal(t, inserted[2], list[0])
		assert.Equal(t, inserted[0], list[2])
	}

	list = Must(t, R(x.List(ctx, "dev", 1)))
	assert.Len(t, list, 1)

	worst := Must(t, R(x.Worst(ctx, "dev")))
	assert.Equal(t, inserted[1], worst)
}

func TestConfig(t *testing.T) {
	assert.False(t, (&Config{Driver: "sqlite"}).Enabled())
	assert.True(t, (&Config{Driver: "sqlite", DSN: "x.db"}).Enabled())
}

func TestAdjustSchema(t *testing.T) {
	lite := &Endpoint{driver: "sqlite"}
	assert.Contains(t, lite.adjustSchema(Schema), " INTEGER NOT NULL")
	assert.Contains(t, lite.adjustSchema(Schema), "STRICT;")

	pg := &Endpoint{driver: "postgres"}
	assert.NotContains(t, pg.adjustSchema(Schema), "STRICT")
	assert.Contains(t, pg.adjustSchema(Schema), "id BYTEA NOT NULL")
}
