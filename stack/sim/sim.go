// Copyright (c) 2025 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package sim implements a simulated stack machine for hosted testing.  The
// stack pointer can be set freely, words can be written anywhere in the
// region, and an interrupt handler can be made to run in the middle of the
// paint and scan loops.
package sim

import (
	"encoding/binary"
	"fmt"

	"import.name/stackpaint/stack"
)

// Stats counts memory accesses made through the machine.
type Stats struct {
	Loads  int
	Stores int
	Faults int // Accesses outside the region or misaligned.
}

// Machine is a single-threaded simulation of a descending full stack.  It
// implements stack.Backend.
type Machine struct {
	region stack.Region
	mem    []uint32
	sp     uintptr
	stats  Stats

	isr      func(*Machine)
	isrEvery int
	isrTicks int
	inISR    bool
	masked   bool
}

// New machine with zeroed memory and the stack pointer at the top of the
// region.  The region must be word-aligned.
func New(region stack.Region) *Machine {
	if !region.Aligned() || region.Top < region.Bottom {
		panic(fmt.Sprintf("invalid stack region 0x%x-0x%x", region.Bottom, region.Top))
	}

	return &Machine{
		region: region,
		mem:    make([]uint32, region.NumWords()),
		sp:     region.Top,
	}
}

func (m *Machine) Bounds() stack.Region { return m.region }
func (m *Machine) ReadSP() uintptr       { return m.sp }
func (m *Machine) Stats() Stats          { return m.stats }
func (m *Machine) ResetStats()           { m.stats = Stats{} }

// SetSP may be set outside the region to simulate overflow or underflow.
func (m *Machine) SetSP(sp uintptr) {
	m.sp = sp
}

// Push words like a descending full stack: the stack pointer is decremented
// before each store.
func (m *Machine) Push(words ...uint32) {
	for _, w := range words {
		m.sp -= stack.WordSize
		m.Store(m.sp, w)
	}
}

// Pop n words.  The memory keeps its contents.
func (m *Machine) Pop(n int) {
	m.sp += uintptr(n) * stack.WordSize
}

// Store a word.  Accesses outside the region are counted as faults and
// ignored.
func (m *Machine) Store(addr uintptr, value uint32) {
	i, ok := m.index(addr)
	if !ok {
		return
	}
	m.stats.Stores++
	m.mem[i] = value
}

// Load a word.  Accesses outside the region are counted as faults and return
// zero.
func (m *Machine) Load(addr uintptr) uint32 {
	i, ok := m.index(addr)
	if !ok {
		return 0
	}
	m.stats.Loads++
	return m.mem[i]
}

// Fill the whole region with a value without counting the stores.
func (m *Machine) Fill(value uint32) {
	for i := range m.mem {
		m.mem[i] = value
	}
}

// LoadImage replaces memory contents with a little-endian image of the
// region.
func (m *Machine) LoadImage(data []byte) error {
	if len(data) != len(m.mem)*stack.WordSize {
		return fmt.Errorf("image size %d does not match stack size %d", len(data), m.region.Size())
	}
	for i := range m.mem {
		m.mem[i] = binary.LittleEndian.Uint32(data[i*stack.WordSize:])
	}
	return nil
}

// Image returns a little-endian copy of the memory contents.
func (m *Machine) Image() []byte {
	b := make([]byte, len(m.mem)*stack.WordSize)
	for i, w := range m.mem {
		binary.LittleEndian.PutUint32(b[i*stack.WordSize:], w)
	}
	return b
}

// Snapshot returns a copy of the memory contents.
func (m *Machine) Snapshot() []uint32 {
	return append([]uint32(nil), m.mem...)
}

func (m *Machine) index(addr uintptr) (int, bool) {
	if addr%stack.WordSize != 0 || !m.region.Contains(addr) {
		m.stats.Faults++
		return 0, false
	}
	return int((addr - m.region.Bottom) / stack.WordSize), true
}

// PaintRegion implements stack.Backend.
func (m *Machine) PaintRegion(addr uintptr) {
	for ; addr < m.sp; addr += stack.WordSize {
		m.Store(addr, stack.Sentinel)
		m.tick()
	}
}

// ScanRegion implements stack.Backend.
func (m *Machine) ScanRegion(addr uintptr) uintptr {
	for addr < m.sp && m.Load(addr) == stack.Sentinel {
		addr += stack.WordSize
		m.tick()
	}
	return addr
}

// LoadWord implements stack.Backend.
func (m *Machine) LoadWord(addr uintptr) uint32 {
	return m.Load(addr)
}
