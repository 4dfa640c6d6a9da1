// Copyright (c) 2025 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

//go:build unix

package dump

import (
	"io"
	"os"

	"golang.org/x/sys/unix"
)

// mapFile maps the file privately, so that writes stay in memory.
func mapFile(f *os.File, size int) ([]byte, func([]byte) error, error) {
	if size == 0 {
		return []byte{}, nil, nil
	}

	b, err := unix.Mmap(int(f.Fd()), 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_PRIVATE)
	if err != nil {
		return readFile(f, size)
	}
	return b, unix.Munmap, nil
}

func readFile(f *os.File, size int) ([]byte, func([]byte) error, error) {
	b := make([]byte, size)
	if _, err := io.ReadFull(f, b); err != nil {
		return nil, nil, err
	}
	return b, nil, nil
}
