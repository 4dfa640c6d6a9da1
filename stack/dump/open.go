// Copyright (c) 2025 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package dump

import (
	"os"

	"import.name/stackpaint/internal/error/badinput"
	"import.name/stackpaint/stack"
)

// Open a RAM image file of the stack region.  The file contents are not
// modified by Paint.
func Open(filename string, region stack.Region, sp uintptr) (*Image, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}
	if !info.Mode().IsRegular() {
		return nil, badinput.Errorf("%s is not a regular file", filename)
	}

	if err := validate(int(info.Size()), region, sp); err != nil {
		return nil, err
	}

	data, unmap, err := mapFile(f, int(info.Size()))
	if err != nil {
		return nil, err
	}

	return &Image{
		region: region,
		sp:     sp,
		data:   data,
		unmap:  unmap,
	}, nil
}
