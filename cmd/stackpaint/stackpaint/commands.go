// Copyright (c) 2025 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package stackpaint

import (
	"errors"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"import.name/stackpaint/internal/error/badinput"
	"import.name/stackpaint/stack"
	"import.name/stackpaint/watermark"
	"import.name/stackpaint/watermark/sql"
)

func info(e *env) {
	e.parse(e.flags("info"))

	img := e.openDump()
	defer img.Close()

	s := stack.New(img)
	r := s.Bounds()

	w := tabwriter.NewWriter(e.stdout, 0, 8, 2, ' ', 0)
	fmt.Fprintf(w, "bottom\t0x%08x\n", r.Bottom)
	fmt.Fprintf(w, "top\t0x%08x\n", r.Top)
	fmt.Fprintf(w, "size\t%d\n", s.Size())
	fmt.Fprintf(w, "sp\t0x%08x\n", s.SP())
	fmt.Fprintf(w, "in-use\t%d\n", s.InUse())
	fmt.Fprintf(w, "free\t%d\n", s.Free())
	fmt.Fprintf(w, "fraction\t%.6f\n", s.FractionInUse())
	z.Check(w.Flush())
}

func scan(e *env) {
	fs := e.flags("scan")
	binary := fs.Bool("binary", false, "also use the unsafe binary search")
	e.parse(fs)

	img := e.openDump()
	defer img.Close()

	s := stack.New(img)
	m := watermark.Measure(s, watermark.Linear)

	w := tabwriter.NewWriter(e.stdout, 0, 8, 2, ' ', 0)
	fmt.Fprintf(w, "painted\t%d\n", m.Painted)
	fmt.Fprintf(w, "high-water\t%d\n", m.HighWater())

	if *binary {
		b := watermark.Measure(s, watermark.Binary)
		fmt.Fprintf(w, "painted-binary\t%d\n", b.Painted)

		if b.Painted != m.Painted {
			e.log.Warn("binary scan disagrees with linear scan: stack was written out of order", "linear", m.Painted, "binary", b.Painted)
		}
	}

	z.Check(w.Flush())
}

func paint(e *env) {
	fs := e.flags("paint")
	out := fs.String("out", "", "output filename")
	e.parse(fs)

	if *out == "" {
		z.Check(badinput.Error("paint: -out not specified"))
	}

	img := e.openDump()
	defer img.Close()

	s := stack.New(img)
	s.Paint()

	f := must(os.Create(*out))
	defer f.Close()

	must(img.WriteTo(f))
	z.Check(f.Close())

	e.log.Info("painted", "file", *out, "bytes", s.Free())
}

func (e *env) store() (*sql.Endpoint, func()) {
	if !e.c.Database.Enabled() {
		z.Check(badinput.Error("database.driver and database.dsn not configured"))
	}

	x := must(sql.Open(e.c.Database))
	if err := x.Init(e.ctx); err != nil {
		x.Close()
		z.Check(err)
	}

	return x, func() {
		if err := x.Close(); err != nil {
			e.log.Error("database close failed", "error", err)
		}
	}
}

func record(e *env) {
	fs := e.flags("record")
	binary := fs.Bool("binary", false, "use the unsafe binary search")
	e.parse(fs)

	method := watermark.Linear
	if *binary {
		method = watermark.Binary
	}

	img := e.openDump()
	defer img.Close()

	m := watermark.Measure(stack.New(img), method)
	r := watermark.NewRecord(e.c.Device, m)

	x, done := e.store()
	defer done()

	z.Check(x.Insert(e.ctx, r))

	e.log.Info("recorded", "id", r.ID, "device", r.Device, "high_water", r.HighWater)
	fmt.Fprintf(e.stdout, "%s %d\n", r.ID, r.HighWater)
}

func history(e *env) {
	fs := e.flags("history")
	limit := fs.Int("n", 20, "maximum number of records")
	e.parse(fs)

	x, done := e.store()
	defer done()

	list := must(x.List(e.ctx, e.c.Device, *limit))

	w := tabwriter.NewWriter(e.stdout, 0, 8, 2, ' ', 0)
	fmt.Fprintf(w, "TIME\tSIZE\tIN-USE\tHIGH-WATER\tMETHOD\tID\n")
	for _, r := range list {
		fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%s\t%s\n", r.Time.Format(time.RFC3339), r.Size, r.InUse, r.HighWater, r.Method, r.ID)
	}

	worst, err := x.Worst(e.ctx, e.c.Device)
	switch {
	case err == nil:
		fmt.Fprintf(w, "\nworst\t%d\t(%s)\n", worst.HighWater, worst.ID)
	case errors.Is(err, watermark.ErrNotFound):
	default:
		z.Check(err)
	}

	z.Check(w.Flush())
}
