// Copyright (c) 2025 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package stack measures the single descending call stack of a bare-metal
// program: its size, current usage, and the deepest usage since the free part
// was last painted with Sentinel.
//
// The machine-dependent parts are behind the Backend interface.  When built
// with TinyGo for a Cortex-M target, package-level functions operate on the
// running program's own stack.
//
// Paint and the scans are not atomic with respect to interrupt handlers which
// share the stack.  Callers who need an accurate measurement run Paint with
// interrupts masked.  Nothing here masks interrupts, allocates, locks or
// returns errors; stack overflow shows up as saturated counts.
package stack

// Sentinel is the word painted over the unused part of the stack.
const Sentinel uint32 = 0xCCCCCCCC

// WordSize of the target in bytes.  All addresses and counts are multiples of
// it.
const WordSize = 4

// Backend provides stack bounds, the stack pointer and the memory loops.
//
// PaintRegion and ScanRegion compare against the live stack pointer on every
// iteration, never a sampled copy.
type Backend interface {
	Bounds() Region

	// ReadSP samples the stack pointer register.
	ReadSP() uintptr

	// PaintRegion stores Sentinel at every word from addr up to, but not
	// including, the stack pointer.  Nothing is written if addr is not below
	// the stack pointer.
	PaintRegion(addr uintptr)

	// ScanRegion returns the address of the first word at or above addr which
	// doesn't hold Sentinel, or the stack pointer if that is reached first.
	ScanRegion(addr uintptr) uintptr

	// LoadWord reads a word which may be below the stack pointer.
	LoadWord(addr uintptr) uint32
}

// Stack is the portable front end.  The zero value is not usable.
type Stack struct {
	b Backend
}

func New(b Backend) Stack {
	return Stack{b}
}

// Bounds of the stack region.  Doesn't access memory.
func (s Stack) Bounds() Region {
	return s.b.Bounds()
}

// Size of the stack region in bytes.
func (s Stack) Size() uint32 {
	return s.b.Bounds().Size()
}

// SP samples the stack pointer.
func (s Stack) SP() uintptr {
	return s.b.ReadSP()
}

// InUse is the number of bytes between the top of the stack and the stack
// pointer.  It saturates at Size if the stack has overflowed.
func (s Stack) InUse() uint32 {
	return inUse(s.b.Bounds(), s.b.ReadSP())
}

// Free is the number of bytes between the bottom of the stack and the stack
// pointer.  It is zero if the stack has overflowed.
func (s Stack) Free() uint32 {
	return free(s.b.Bounds(), s.b.ReadSP())
}

// FractionInUse is InUse divided by Size.  A zero-sized stack reports zero.
func (s Stack) FractionInUse() float32 {
	return fraction(s.b.Bounds(), s.b.ReadSP())
}

// Paint fills the free part of the stack with Sentinel.  Words at and above
// the stack pointer are not touched.  Every word is rewritten, including ones
// which already hold Sentinel.
//
// Runs in O(n) where n is the free stack size.  An interrupt handler which
// runs during the paint may leave unpainted words behind.
func (s Stack) Paint() {
	s.b.PaintRegion(s.b.Bounds().Bottom)
}

// ScanLinear returns the number of bytes of unbroken Sentinel words starting
// from the bottom of the stack, up to the stack pointer.  After Paint, it is
// the worst-case free stack observed since then.
//
// Runs in O(n) where n is the stack size.
func (s Stack) ScanLinear() uint32 {
	bottom := s.b.Bounds().Bottom
	end := s.b.ScanRegion(bottom)
	if end <= bottom {
		return 0
	}
	return uint32(end - bottom)
}

// UnsafeScanBinary is like ScanLinear, but uses binary search to find the
// boundary between the painted and written parts of the stack.  It assumes
// that the stack has been written contiguously downwards; a write below an
// unbroken Sentinel word is not detected, and the result may then be
// arbitrarily wrong.  A Sentinel value held by a live stack variable may also
// be crossed.
//
// The search reads memory below the stack pointer which is not owned by any
// active frame, and an interrupt handler may write it concurrently.
//
// Runs in O(log n) where n is the stack size.
func (s Stack) UnsafeScanBinary() uint32 {
	r := s.b.Bounds()

	// Partition point over [Bottom, SP): the first word which is not Sentinel.
	i, j := uint32(0), free(r, s.b.ReadSP())/WordSize
	for i < j {
		h := i + (j-i)/2
		if s.b.LoadWord(r.Bottom+uintptr(h)*WordSize) == Sentinel {
			i = h + 1
		} else {
			j = h
		}
	}
	return i * WordSize
}

func inUse(r Region, sp uintptr) uint32 {
	switch {
	case sp >= r.Top:
		return 0
	case sp <= r.Bottom:
		return r.Size()
	default:
		return uint32(r.Top - sp)
	}
}

func free(r Region, sp uintptr) uint32 {
	return r.Size() - inUse(r, sp)
}

func fraction(r Region, sp uintptr) float32 {
	size := r.Size()
	if size == 0 {
		return 0
	}
	return float32(inUse(r, sp)) / float32(size)
}
