// Copyright (c) 2025 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

//go:build tinygo && cortexm

package stack

import (
	"device/arm"
	"runtime/volatile"
	"unsafe"
)

// Symbols defined by TinyGo's Cortex-M linker script.  The address of
// _stack_size is the size of the stack.

//go:extern _stack_top
var stackTopSymbol [0]byte

//go:extern _stack_size
var stackSizeSymbol [0]byte

// Target is the stack of the running program.
var Target = New(cortexM{})

type cortexM struct{}

func (cortexM) Bounds() Region {
	top := uintptr(unsafe.Pointer(&stackTopSymbol))
	return Region{
		Bottom: top - uintptr(unsafe.Pointer(&stackSizeSymbol)),
		Top:    top,
	}
}

// ReadSP is inlined so that it samples the caller's stack pointer.
//
//go:inline
func (cortexM) ReadSP() uintptr {
	return arm.AsmFull("mov {}, sp", nil)
}

// PaintRegion uses the result register as the cursor; the inputs are not
// modified.  The function has no locals, so it doesn't push anything into the
// region being painted.
//
//go:noinline
func (cortexM) PaintRegion(addr uintptr) {
	arm.AsmFull(`
		mov {}, {addr}
	1:
		cmp sp, {}
		bls 2f
		str {paint}, [{}], #4
		b 1b
	2:
	`, map[string]interface{}{
		"addr":  addr,
		"paint": Sentinel,
	})
}

// ScanRegion compares against a fresh stack pointer sample on every
// iteration.  The loads are volatile so they are neither elided nor moved
// across the paint.
//
//go:noinline
func (b cortexM) ScanRegion(addr uintptr) uintptr {
	for addr < b.ReadSP() && volatile.LoadUint32((*uint32)(unsafe.Pointer(addr))) == Sentinel {
		addr += WordSize
	}
	return addr
}

func (cortexM) LoadWord(addr uintptr) uint32 {
	return volatile.LoadUint32((*uint32)(unsafe.Pointer(addr)))
}

// Bounds of the running program's stack.
func Bounds() Region { return Target.Bounds() }

// Size of the running program's stack.
func Size() uint32 { return Target.Size() }

// SP returns the caller's stack pointer.
//
//go:inline
func SP() uintptr { return arm.AsmFull("mov {}, sp", nil) }

// InUse of the running program's stack.
func InUse() uint32 { return inUse(Bounds(), SP()) }

// Free part of the running program's stack.
func Free() uint32 { return free(Bounds(), SP()) }

// FractionInUse of the running program's stack.
func FractionInUse() float32 { return fraction(Bounds(), SP()) }

// Paint the free part of the running program's stack.  See Stack.Paint.
func Paint() { Target.Paint() }

// ScanLinear the running program's stack.  See Stack.ScanLinear.
func ScanLinear() uint32 { return Target.ScanLinear() }

// UnsafeScanBinary the running program's stack.  See Stack.UnsafeScanBinary.
func UnsafeScanBinary() uint32 { return Target.UnsafeScanBinary() }
