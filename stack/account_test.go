// Copyright (c) 2025 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package stack

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// The package-level functions of the target back end are built on these
// helpers, each taking a single SP sample.
func TestAccountingHelpers(t *testing.T) {
	r := Region{Bottom: 0x20000000, Top: 0x20001000}

	for _, x := range []struct {
		sp       uintptr
		inUse    uint32
		free     uint32
		fraction float32
	}{
		{0x20001000, 0, 4096, 0},
		{0x20000ff0, 16, 4080, 16.0 / 4096},
		{0x20000800, 2048, 2048, 0.5},
		{0x20000000, 4096, 0, 1},
		{0x1fff0000, 4096, 0, 1},
		{0x20002000, 0, 4096, 0},
	} {
		assert.Equal(t, x.inUse, inUse(r, x.sp))
		assert.Equal(t, x.free, free(r, x.sp))
		assert.Equal(t, x.fraction, fraction(r, x.sp))
	}

	empty := Region{Bottom: 0x20000000, Top: 0x20000000}
	assert.Equal(t, float32(0), fraction(empty, 0x20000000))
	assert.Equal(t, uint32(0), free(empty, 0x1fff0000))
}
