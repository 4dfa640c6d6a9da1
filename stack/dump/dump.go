// Copyright (c) 2025 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package dump implements a stack backend over a RAM image of the stack
// region, captured from a device together with its stack pointer.
package dump

import (
	"encoding/binary"
	"io"

	"import.name/stackpaint/internal/error/badinput"
	"import.name/stackpaint/stack"
)

// Image of a stack region.  Words are little-endian.  The stack pointer is
// the value captured with the image and doesn't change.
type Image struct {
	region stack.Region
	sp     uintptr
	data   []byte
	unmap  func([]byte) error
}

// New image backed by data, which is not copied.  Its length must equal the
// region size.
func New(data []byte, region stack.Region, sp uintptr) (*Image, error) {
	if err := validate(len(data), region, sp); err != nil {
		return nil, err
	}

	return &Image{
		region: region,
		sp:     sp,
		data:   data,
	}, nil
}

func validate(size int, region stack.Region, sp uintptr) error {
	if region.Top < region.Bottom {
		return badinput.Errorf("stack top 0x%x is below bottom 0x%x", region.Top, region.Bottom)
	}
	if !region.Aligned() {
		return badinput.Errorf("stack region 0x%x-0x%x is not word-aligned", region.Bottom, region.Top)
	}
	if sp%stack.WordSize != 0 {
		return badinput.Errorf("stack pointer 0x%x is not word-aligned", sp)
	}
	if sp > region.Top {
		return badinput.Errorf("stack pointer 0x%x is above stack top 0x%x", sp, region.Top)
	}
	if size != int(region.Size()) {
		return badinput.Errorf("image size %d does not match stack size %d", size, region.Size())
	}
	return nil
}

// Close releases the file mapping, if any.
func (img *Image) Close() (err error) {
	if img.unmap != nil && img.data != nil {
		err = img.unmap(img.data)
	}
	img.data = nil
	img.unmap = nil
	return
}

// Bytes of the image.  Valid until Close.
func (img *Image) Bytes() []byte {
	return img.data
}

// WriteTo writes the possibly painted image.
func (img *Image) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(img.data)
	return int64(n), err
}

func (img *Image) Bounds() stack.Region { return img.region }
func (img *Image) ReadSP() uintptr       { return img.sp }

// PaintRegion implements stack.Backend.  It doesn't write beyond the image.
func (img *Image) PaintRegion(addr uintptr) {
	for ; addr < img.sp; addr += stack.WordSize {
		if off, ok := img.offset(addr); ok {
			binary.LittleEndian.PutUint32(img.data[off:], stack.Sentinel)
		}
	}
}

// ScanRegion implements stack.Backend.
func (img *Image) ScanRegion(addr uintptr) uintptr {
	for addr < img.sp && img.LoadWord(addr) == stack.Sentinel {
		addr += stack.WordSize
	}
	return addr
}

// LoadWord implements stack.Backend.  Addresses outside the image read as
// zero.
func (img *Image) LoadWord(addr uintptr) uint32 {
	off, ok := img.offset(addr)
	if !ok {
		return 0
	}
	return binary.LittleEndian.Uint32(img.data[off:])
}

func (img *Image) offset(addr uintptr) (int, bool) {
	if addr%stack.WordSize != 0 || !img.region.Contains(addr) {
		return 0, false
	}
	return int(addr - img.region.Bottom), true
}
