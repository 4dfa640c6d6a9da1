// Copyright (c) 2025 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package watermark keeps a history of stack high-water measurements per
// device.
package watermark

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"import.name/stackpaint/stack"

	. "import.name/type/context"
)

var ErrNotFound = errors.New("no watermark records")

// Method of scanning the painted region.
type Method string

const (
	Linear Method = "linear"
	Binary Method = "binary"
)

// Measurement of a painted stack.
type Measurement struct {
	Size    uint32 // Stack size in bytes.
	InUse   uint32 // Bytes in use when measured.
	Painted uint32 // Unbroken painted bytes at the bottom of the stack.
	Method  Method
}

// HighWater is the deepest stack usage since the paint, in bytes.
func (m Measurement) HighWater() uint32 {
	if m.Painted > m.Size {
		return 0
	}
	return m.Size - m.Painted
}

// Measure a stack which has been painted.  The binary method is subject to
// the caveats of stack.Stack.UnsafeScanBinary.
func Measure(s stack.Stack, method Method) Measurement {
	m := Measurement{
		Size:   s.Size(),
		InUse:  s.InUse(),
		Method: method,
	}

	if method == Binary {
		m.Painted = s.UnsafeScanBinary()
	} else {
		m.Method = Linear
		m.Painted = s.ScanLinear()
	}
	return m
}

type Record struct {
	ID        uuid.UUID
	Device    string
	Time      time.Time
	Size      uint32
	InUse     uint32
	HighWater uint32
	Method    Method
}

// NewRecord with a random ID and the current time.
func NewRecord(device string, m Measurement) *Record {
	return &Record{
		ID:        uuid.New(),
		Device:    device,
		Time:      time.Now().UTC(),
		Size:      m.Size,
		InUse:     m.InUse,
		HighWater: m.HighWater(),
		Method:    m.Method,
	}
}

// Store of records.  List returns the most recent records first.  Worst
// returns the record with the largest high-water mark, or ErrNotFound.
type Store interface {
	Insert(ctx Context, r *Record) error
	List(ctx Context, device string, limit int) ([]*Record, error)
	Worst(ctx Context, device string) (*Record, error)
}
