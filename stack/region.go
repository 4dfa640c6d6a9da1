// Copyright (c) 2025 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package stack

import "iter"

// Region is the address range [Bottom, Top) reserved for the stack.  Top is
// the initial stack pointer at reset; the stack grows down towards Bottom.
// Both addresses are word-aligned and Top >= Bottom.
type Region struct {
	Bottom uintptr
	Top    uintptr
}

// Size in bytes.  Zero if the region is empty or malformed.
func (r Region) Size() uint32 {
	if r.Top <= r.Bottom {
		return 0
	}
	return uint32(r.Top - r.Bottom)
}

// NumWords is the number of 32-bit words in the region.
func (r Region) NumWords() int {
	return int(r.Size() / WordSize)
}

// Contains reports whether a word at addr lies inside the region.
func (r Region) Contains(addr uintptr) bool {
	return addr >= r.Bottom && addr+WordSize <= r.Top
}

// Aligned reports whether both bounds are word-aligned.
func (r Region) Aligned() bool {
	return r.Bottom%WordSize == 0 && r.Top%WordSize == 0
}

// Words iterates over word addresses from Bottom upwards.
func (r Region) Words() iter.Seq[uintptr] {
	return func(yield func(uintptr) bool) {
		for addr := r.Bottom; addr < r.Top; addr += WordSize {
			if !yield(addr) {
				return
			}
		}
	}
}
