// Copyright (c) 2025 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sim

// SetInterrupt arranges for handler to be called after every n iterations of
// the paint and scan loops, unless interrupts are masked.  A nil handler or
// non-positive n disables it.  Handlers don't nest.
func (m *Machine) SetInterrupt(n int, handler func(*Machine)) {
	if n <= 0 {
		handler = nil
	}
	m.isr = handler
	m.isrEvery = n
	m.isrTicks = 0
}

// Critical runs f with interrupts masked.  Critical sections may nest.
func (m *Machine) Critical(f func()) {
	saved := m.masked
	m.masked = true
	defer func() { m.masked = saved }()

	f()
}

// Masked reports whether interrupts are currently masked.
func (m *Machine) Masked() bool {
	return m.masked
}

func (m *Machine) tick() {
	if m.isr == nil || m.masked || m.inISR {
		return
	}

	m.isrTicks++
	if m.isrTicks < m.isrEvery {
		return
	}
	m.isrTicks = 0

	m.inISR = true
	defer func() { m.inISR = false }()

	m.isr(m)
}

// Frame returns an interrupt handler which pushes an exception frame of n
// words holding value and pops it before returning, like a Cortex-M exception
// entry and return.
func Frame(n int, value uint32) func(*Machine) {
	return func(m *Machine) {
		for i := 0; i < n; i++ {
			m.Push(value)
		}
		m.Pop(n)
	}
}
