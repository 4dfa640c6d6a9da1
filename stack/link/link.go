// Copyright (c) 2025 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package link resolves the stack region from the symbols of a linked
// firmware image.
//
// Two naming conventions are recognized: cortex-m-rt style _stack_start (top)
// and _stack_end (bottom), and TinyGo style _stack_top and _stack_size (whose
// address is the size).
package link

import (
	"debug/elf"
	"math"

	"import.name/stackpaint/internal/error/badinput"
	"import.name/stackpaint/stack"
)

const (
	SymbolStackStart = "_stack_start"
	SymbolStackEnd   = "_stack_end"
	SymbolStackTop   = "_stack_top"
	SymbolStackSize  = "_stack_size"
)

// Open an ELF file and resolve its stack region.
func Open(filename string) (stack.Region, error) {
	f, err := elf.Open(filename)
	if err != nil {
		return stack.Region{}, err
	}
	defer f.Close()

	return Resolve(f)
}

// Resolve the stack region of a 32-bit ARM executable.
func Resolve(f *elf.File) (stack.Region, error) {
	if f.Class != elf.ELFCLASS32 {
		return stack.Region{}, badinput.Errorf("ELF class %v is not 32-bit", f.Class)
	}
	if f.Machine != elf.EM_ARM {
		return stack.Region{}, badinput.Errorf("ELF machine %v is not ARM", f.Machine)
	}

	syms, err := f.Symbols()
	if err != nil {
		return stack.Region{}, badinput.Errorf("ELF symbol table: %v", err)
	}

	return FromSymbols(syms)
}

// FromSymbols resolves the stack region from a symbol table.
func FromSymbols(syms []elf.Symbol) (stack.Region, error) {
	values := make(map[string]uint64)
	for _, s := range syms {
		switch s.Name {
		case SymbolStackStart, SymbolStackEnd, SymbolStackTop, SymbolStackSize:
			values[s.Name] = s.Value
		}
	}

	var top, bottom uint64

	if start, ok := values[SymbolStackStart]; ok {
		end, ok := values[SymbolStackEnd]
		if !ok {
			return stack.Region{}, badinput.Errorf("symbol %s without %s", SymbolStackStart, SymbolStackEnd)
		}
		top, bottom = start, end
	} else if t, ok := values[SymbolStackTop]; ok {
		size, ok := values[SymbolStackSize]
		if !ok {
			return stack.Region{}, badinput.Errorf("symbol %s without %s", SymbolStackTop, SymbolStackSize)
		}
		if size > t {
			return stack.Region{}, badinput.Errorf("stack size 0x%x exceeds stack top 0x%x", size, t)
		}
		top, bottom = t, t-size
	} else {
		return stack.Region{}, badinput.Error("stack symbols not found")
	}

	return Region(bottom, top)
}

// Region checks and converts explicit stack bounds.
func Region(bottom, top uint64) (stack.Region, error) {
	if top > math.MaxUint32 {
		return stack.Region{}, badinput.Errorf("stack top 0x%x is not a 32-bit address", top)
	}
	if top < bottom {
		return stack.Region{}, badinput.Errorf("stack top 0x%x is below bottom 0x%x", top, bottom)
	}

	r := stack.Region{
		Bottom: uintptr(bottom),
		Top:    uintptr(top),
	}
	if !r.Aligned() {
		return stack.Region{}, badinput.Errorf("stack region 0x%x-0x%x is not word-aligned", bottom, top)
	}
	return r, nil
}
