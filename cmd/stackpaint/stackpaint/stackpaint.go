// Copyright (c) 2025 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package stackpaint implements a command for inspecting stack images
// captured from devices, and for trying out painting and scanning on a
// simulated stack.
package stackpaint

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strconv"
	"strings"

	"import.name/confi"
	"import.name/stackpaint/internal/error/badinput"
	"import.name/stackpaint/internal/logging"
	"import.name/stackpaint/stack"
	"import.name/stackpaint/stack/dump"
	"import.name/stackpaint/stack/link"
	"import.name/stackpaint/watermark/sql"

	. "import.name/type/context"
)

type Config struct {
	Device string

	Link struct {
		ELF    string // Stack symbols are read from it if set.
		Bottom string
		Top    string
	}

	Dump struct {
		File string
		SP   string
	}

	Database sql.Config

	Log logging.Config

	REPL struct {
		HistoryFile  string
		HistoryLimit int
	}
}

var DefaultConfig = func() (x Config) {
	x.Device = "default"
	x.Link.Bottom = "0x20000000"
	x.Link.Top = "0x20001000"
	x.REPL.HistoryLimit = 1000
	return
}()

var c = new(Config)

func Main() {
	*c = DefaultConfig

	flag.Var(confi.FileReader(c), "f", "read a configuration file")
	flag.Var(confi.Assigner(c), "o", "set a configuration option (path.to.key=value)")
	usage := confi.FlagUsage(nil, c)
	flag.Usage = func() {
		usage()
		fmt.Fprintf(flag.CommandLine.Output(), "\nCommands:\n")
		for _, name := range commandNames() {
			fmt.Fprintf(flag.CommandLine.Output(), "  %-8s  %s\n", name, commands[name].help)
		}
	}
	flag.Parse()

	log, err := logging.Init(c.Log, os.Stderr)
	if err != nil {
		log.Error("logging initialization failed", "error", err)
		os.Exit(1)
	}

	if err := Run(context.Background(), c, flag.Args(), os.Stdin, os.Stdout, log); err != nil {
		log.Error("command failed", "error", err)
		if badinput.Is(err) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

type env struct {
	ctx    Context
	c      *Config
	args   []string
	stdin  io.Reader
	stdout io.Writer
	log    *slog.Logger
}

type command struct {
	help string
	run  func(*env)
}

var commands map[string]command

func init() {
	commands = map[string]command{
		"info":    {"show stack bounds and usage of a dump", info},
		"scan":    {"measure the painted part of a dump", scan},
		"paint":   {"paint the free part of a dump and write it out", paint},
		"record":  {"measure a dump and store the result", record},
		"history": {"list stored measurements", history},
		"shell":   {"interactive simulated stack", shell},
	}
}

func commandNames() []string {
	var names []string
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Run a command.  Errors caused by configuration or input data satisfy
// badinput.Is.
func Run(ctx Context, c *Config, args []string, stdin io.Reader, stdout io.Writer, log *slog.Logger) error {
	if len(args) == 0 {
		return badinput.Errorf("command not specified (%s)", strings.Join(commandNames(), ", "))
	}

	cmd, found := commands[args[0]]
	if !found {
		return badinput.Errorf("unknown command: %s", args[0])
	}

	return z.Recover(func() {
		cmd.run(&env{
			ctx:    ctx,
			c:      c,
			args:   args[1:],
			stdin:  stdin,
			stdout: stdout,
			log:    log.With("command", args[0]),
		})
	})
}

func (e *env) flags(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

func (e *env) parse(fs *flag.FlagSet) {
	if err := fs.Parse(e.args); err != nil {
		z.Check(badinput.Errorf("%s: %v", fs.Name(), err))
	}
	if fs.NArg() > 0 {
		z.Check(badinput.Errorf("%s: unexpected argument: %s", fs.Name(), fs.Arg(0)))
	}
}

func (e *env) region() stack.Region {
	if e.c.Link.ELF != "" {
		r := must(link.Open(e.c.Link.ELF))
		e.log.Debug("stack symbols resolved", "elf", e.c.Link.ELF, "bottom", r.Bottom, "top", r.Top)
		return r
	}

	bottom := mustParseAddr("link.bottom", e.c.Link.Bottom)
	top := mustParseAddr("link.top", e.c.Link.Top)
	return must(link.Region(bottom, top))
}

func (e *env) sp() (uintptr, bool) {
	if e.c.Dump.SP == "" {
		return 0, false
	}
	return uintptr(mustParseAddr("dump.sp", e.c.Dump.SP)), true
}

func (e *env) openDump() *dump.Image {
	if e.c.Dump.File == "" {
		z.Check(badinput.Error("dump.file not configured"))
	}
	sp, ok := e.sp()
	if !ok {
		z.Check(badinput.Error("dump.sp not configured"))
	}

	img := must(dump.Open(e.c.Dump.File, e.region(), sp))
	e.log.Debug("dump opened", "file", e.c.Dump.File, "sp", sp)
	return img
}

func mustParseAddr(key, s string) uint64 {
	s = strings.ReplaceAll(strings.TrimSpace(s), "_", "")
	x, err := strconv.ParseUint(s, 0, 32)
	if err != nil {
		z.Check(badinput.Errorf("%s: invalid address: %q", key, s))
	}
	return x
}
