// Copyright (c) 2025 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

/*
Package stackpaint contains general documentation for its subpackages.

The stack package measures the call stack of a bare-metal Cortex-M program by
painting its unused part with a known word and later scanning for the first
overwritten word.  It runs on the device when built with TinyGo.  The
stack/sim and stack/dump packages provide the same measurements on a host,
for a simulated stack and for a RAM image captured from a device.

The stackpaint command (cmd/stackpaint) inspects RAM images, keeps a history
of high-water marks (watermark package), and has an interactive shell for
experimenting with the simulated stack.

# Errors

Errors caused by malformed input, such as a RAM image which doesn't match the
stack region, implement this interface:

	interface {
		PublicError() string
	}

The stack package itself doesn't return errors.  Stack overflow is reported as
saturated counts.
*/
package stackpaint
