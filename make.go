// Copyright (c) 2022 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

//go:build generate
// +build generate

package main

import (
	. "import.name/make"
)

func main() { Main(targets, "make.go", "go.mod") }

func targets() (targets Tasks) {
	var (
		GO     = Getvar("GO", "go")
		TINYGO = Getvar("TINYGO", "tinygo")
		TARGET = Getvar("TARGET", "cortex-m-qemu")
	)

	targets.Add(Target("check", check(GO)))
	targets.Add(Target("tinygo", firmware(TINYGO, TARGET)))
	targets.Add(Target("clean", Removal("lib")))
	return
}

func check(GO string) Task {
	return Group(
		Command(GO, "build", "-o", "/dev/null", "./..."),
		Command(GO, "vet", "./..."),
		Command(GO, "build", "-o", "lib/", "./cmd/stackpaint"),
		Command(GO, "test", "./..."),
	)
}

func firmware(TINYGO, TARGET string) Task {
	return Command(TINYGO, "build", "-target="+TARGET, "-o", "lib/cortexm.elf", "./examples/cortexm")
}
