// Copyright (c) 2025 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package dump

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"import.name/stackpaint/internal/error/badinput"
	"import.name/stackpaint/stack"

	. "import.name/testing/mustr"
)

var testRegion = stack.Region{Bottom: 0x20000000, Top: 0x20001000}

// testData is painted up to 0x20000800 and written above it.
func testData() []byte {
	b := make([]byte, testRegion.Size())
	for off := 0; off < len(b); off += 4 {
		w := stack.Sentinel
		if off >= 0x800 {
			w = uint32(off)
		}
		binary.LittleEndian.PutUint32(b[off:], w)
	}
	return b
}

func TestImage(t *testing.T) {
	img := Must(t, R(New(testData(), testRegion, 0x20000F00)))
	s := stack.New(img)

	assert.Equal(t, uint32(0x100), s.InUse())
	assert.Equal(t, uint32(0x800), s.ScanLinear())
	assert.Equal(t, uint32(0x800), s.UnsafeScanBinary())
	assert.Equal(t, uint32(0), img.LoadWord(0x20001000))
}

func TestPaint(t *testing.T) {
	data := testData()
	img := Must(t, R(New(data, testRegion, 0x20000F00)))
	s := stack.New(img)

	s.Paint()
	assert.Equal(t, uint32(0xF00), s.ScanLinear())
	assert.Equal(t, uint32(0xF00), binary.LittleEndian.Uint32(data[0xF00:]))

	var buf bytes.Buffer
	assert.Equal(t, int64(0x1000), Must(t, R(img.WriteTo(&buf))))
	assert.Equal(t, data, buf.Bytes())
}

func TestInvalid(t *testing.T) {
	for _, c := range []struct {
		size   int
		region stack.Region
		sp     uintptr
	}{
		{0x1000, testRegion, 0x20001004},
		{0x1000, testRegion, 0x20000F02},
		{0x0ffc, testRegion, 0x20000F00},
		{0x1000, stack.Region{Bottom: 0x20001000, Top: 0x20000000}, 0x20000000},
		{0x1000, stack.Region{Bottom: 0x20000002, Top: 0x20001002}, 0x20000F00},
	} {
		_, err := New(make([]byte, c.size), c.region, c.sp)
		assert.True(t, badinput.Is(err), "%v", err)
	}
}

func TestOpen(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "stack.bin")
	data := testData()
	assert.NoError(t, os.WriteFile(filename, data, 0o644))

	img := Must(t, R(Open(filename, testRegion, 0x20000F00)))
	s := stack.New(img)
	assert.Equal(t, uint32(0x800), s.ScanLinear())

	s.Paint()
	assert.Equal(t, uint32(0xF00), s.ScanLinear())
	assert.NoError(t, img.Close())

	// File is unchanged.
	assert.Equal(t, data, Must(t, R(os.ReadFile(filename))))

	_, err := Open(filename, stack.Region{Bottom: 0x20000000, Top: 0x20002000}, 0x20000F00)
	assert.True(t, badinput.Is(err))
}
