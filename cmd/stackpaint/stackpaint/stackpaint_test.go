// Copyright (c) 2025 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package stackpaint

import (
	"bytes"
	"context"
	"encoding/binary"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"import.name/stackpaint/internal/error/badinput"
	"import.name/stackpaint/stack"

	. "import.name/testing/mustr"
	_ "modernc.org/sqlite"
)

var testLog = slog.New(slog.NewTextHandler(io.Discard, nil))

// newTestConfig with a dump which has been painted and then used down to
// 0x20000C00, with the stack pointer at 0x20000FF0.
func newTestConfig(t *testing.T) *Config {
	t.Helper()

	dir := t.TempDir()

	b := make([]byte, 0x1000)
	for off := 0; off < len(b); off += 4 {
		w := stack.Sentinel
		if off >= 0xC00 {
			w = 0
		}
		binary.LittleEndian.PutUint32(b[off:], w)
	}
	filename := filepath.Join(dir, "stack.bin")
	assert.NoError(t, os.WriteFile(filename, b, 0o644))

	c := DefaultConfig
	c.Dump.File = filename
	c.Dump.SP = "0x20000FF0"
	c.Database.Driver = "sqlite"
	c.Database.DSN = filepath.Join(dir, "watermark.db")
	return &c
}

func run(t *testing.T, c *Config, stdin string, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	err := Run(context.Background(), c, args, strings.NewReader(stdin), &out, testLog)
	return out.String(), err
}

func TestInfo(t *testing.T) {
	out := Must(t, R(run(t, newTestConfig(t), "", "info")))
	assert.Contains(t, out, "size      4096\n")
	assert.Contains(t, out, "in-use    16\n")
	assert.Contains(t, out, "free      4080\n")
	assert.Contains(t, out, "sp        0x20000ff0\n")
}

func TestScan(t *testing.T) {
	out := Must(t, R(run(t, newTestConfig(t), "", "scan", "-binary")))
	assert.Contains(t, out, "painted         3072\n")
	assert.Contains(t, out, "high-water      1024\n")
	assert.Contains(t, out, "painted-binary  3072\n")
}

func TestPaint(t *testing.T) {
	c := newTestConfig(t)
	painted := filepath.Join(t.TempDir(), "painted.bin")

	Must(t, R(run(t, c, "", "paint", "-out", painted)))

	c.Dump.File = painted
	out := Must(t, R(run(t, c, "", "scan")))
	assert.Contains(t, out, "painted     4080\n")

	_, err := run(t, c, "", "paint")
	assert.True(t, badinput.Is(err))
}

func TestRecordHistory(t *testing.T) {
	c := newTestConfig(t)
	c.Device = "board-1"

	out := Must(t, R(run(t, c, "", "record")))
	assert.True(t, strings.HasSuffix(out, " 1024\n"), out)

	Must(t, R(run(t, c, "", "record", "-binary")))

	out = Must(t, R(run(t, c, "", "history", "-n", "10")))
	assert.Equal(t, 1, strings.Count(out, " linear "))
	assert.Equal(t, 1, strings.Count(out, " binary "))
	assert.Contains(t, out, "worst")
}

func TestShell(t *testing.T) {
	c := DefaultConfig

	script := `
sp 0x20000ff0     # S1
usage
paint
scan
push 4 0xdeadbeef
pop 4
scan
binary
critical paint
scan
sp 0x20000000
usage
quit
usage
`
	out := Must(t, R(run(t, &c, script, "shell")))
	assert.Equal(t, `0x20000ff0
size 4096 in-use 16 free 4080 fraction 0.003906
4080
0x20000fe0
0x20000ff0
4064
4064
4080
0x20000000
size 4096 in-use 4096 free 0 fraction 1.000000
`, out)
}

func TestShellHistory(t *testing.T) {
	c := DefaultConfig

	script := `
history
sp 0x20000ff0
paint
push 4
pop 4
record
push 8
pop 8
record binary
history
history 1
record bogus
`
	out, err := run(t, &c, script, "shell")
	assert.True(t, badinput.Is(err))
	assert.Equal(t, `0x20000ff0
0x20000fe0
0x20000ff0
32
0x20000fd0
0x20000ff0
48
48 binary
32 linear
worst 48
48 binary
worst 48
`, out)
}

func TestShellDump(t *testing.T) {
	out := Must(t, R(run(t, newTestConfig(t), "sp\nscan\npeek 0x20000c00 2\n", "shell")))
	assert.Equal(t, "0x20000ff0\n3072\n0x20000c00: 0x00000000\n0x20000c04: 0x00000000\n", out)
}

func TestShellErrors(t *testing.T) {
	c := DefaultConfig

	for _, script := range []string{
		"bogus",
		"poke 0x10000000 1",
		"peek 0x20001000",
		"push x",
		"isr 1",
	} {
		_, err := run(t, &c, script, "shell")
		assert.True(t, badinput.Is(err), script)
	}
}

func TestErrors(t *testing.T) {
	c := newTestConfig(t)

	_, err := run(t, c, "")
	assert.True(t, badinput.Is(err))

	_, err = run(t, c, "", "bogus")
	assert.True(t, badinput.Is(err))

	_, err = run(t, c, "", "info", "extra")
	assert.True(t, badinput.Is(err))

	c.Dump.SP = "nowhere"
	_, err = run(t, c, "", "info")
	assert.True(t, badinput.Is(err))

	c = newTestConfig(t)
	c.Link.Top = "0x20002000"
	_, err = run(t, c, "", "info")
	assert.True(t, badinput.Is(err))

	c = newTestConfig(t)
	c.Database.DSN = ""
	_, err = run(t, c, "", "history")
	assert.True(t, badinput.Is(err))
}
