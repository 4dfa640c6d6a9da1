// Copyright (c) 2025 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package stackpaint

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/chzyer/readline"
	"golang.org/x/term"
	"import.name/stackpaint/internal/error/badinput"
	"import.name/stackpaint/stack"
	"import.name/stackpaint/stack/sim"
	"import.name/stackpaint/watermark"

	. "import.name/type/context"
)

const isrValue = 0xDEADBEEF

const shellHelp = `bounds             show stack region
sp [addr]          show or set stack pointer
push n [value]     push n words
pop n              pop n words
poke addr value    store word
peek addr [n]      load words
usage              show size, in-use, free and fraction
paint              paint free stack
critical paint     paint with interrupts masked
scan               linear scan
binary             unsafe binary scan
isr n words        run an interrupt handler using words of stack every n loop iterations
isr off            disable interrupt handler
stats              show memory access counts
record [binary]    measure and remember the high-water mark
history [n]        list remembered measurements and the worst one
quit               exit
`

type session struct {
	ctx    Context
	device string
	m      *sim.Machine
	s      stack.Stack
	store  watermark.Store
	out    io.Writer
}

func shell(e *env) {
	e.parse(e.flags("shell"))

	m := sim.New(e.region())

	if e.c.Dump.File != "" {
		img := e.openDump()
		err := m.LoadImage(img.Bytes())
		img.Close()
		z.Check(err)
		m.SetSP(img.ReadSP())
	} else if sp, ok := e.sp(); ok {
		m.SetSP(sp)
	}

	ses := &session{
		ctx:    e.ctx,
		device: e.c.Device,
		m:      m,
		s:      stack.New(m),
		store:  new(watermark.MemoryStore),
		out:    e.stdout,
	}

	if f, ok := e.stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		ses.interactive(e)
	} else {
		ses.batch(e)
	}
}

func (ses *session) interactive(e *env) {
	rl := must(readline.NewEx(&readline.Config{
		Prompt:       "stack> ",
		HistoryFile:  e.c.REPL.HistoryFile,
		HistoryLimit: e.c.REPL.HistoryLimit,
		Stdout:       e.stdout,
	}))
	defer rl.Close()

	for {
		line, err := rl.Readline()
		if err != nil {
			if errors.Is(err, readline.ErrInterrupt) {
				continue
			}
			if errors.Is(err, io.EOF) {
				return
			}
			z.Check(err)
		}

		quit, err := ses.exec(line)
		if err != nil {
			fmt.Fprintln(ses.out, "error:", err)
		}
		if quit {
			return
		}
	}
}

// batch stops at the first failing command.
func (ses *session) batch(e *env) {
	s := bufio.NewScanner(e.stdin)
	for s.Scan() {
		quit, err := ses.exec(s.Text())
		z.Check(err)
		if quit {
			return
		}
	}
	z.Check(s.Err())
}

func (ses *session) exec(line string) (quit bool, err error) {
	if i := strings.IndexByte(line, '#'); i >= 0 {
		line = line[:i]
	}
	args := strings.Fields(line)
	if len(args) == 0 {
		return
	}

	m, s := ses.m, ses.s

	switch cmd, args := args[0], args[1:]; cmd {
	case "help":
		fmt.Fprint(ses.out, shellHelp)

	case "quit", "exit":
		quit = true

	case "bounds":
		r := s.Bounds()
		fmt.Fprintf(ses.out, "0x%08x-0x%08x %d\n", r.Bottom, r.Top, s.Size())

	case "sp":
		if len(args) > 0 {
			var sp uint32
			if sp, err = parseWord(args[0]); err != nil {
				return
			}
			m.SetSP(uintptr(sp))
		}
		fmt.Fprintf(ses.out, "0x%08x\n", s.SP())

	case "push":
		var n, value uint32
		if n, value, err = countAndValue(args); err != nil {
			return
		}
		for i := uint32(0); i < n; i++ {
			m.Push(value)
		}
		fmt.Fprintf(ses.out, "0x%08x\n", s.SP())

	case "pop":
		var n uint32
		if n, _, err = countAndValue(args); err != nil {
			return
		}
		m.Pop(int(n))
		fmt.Fprintf(ses.out, "0x%08x\n", s.SP())

	case "poke":
		if len(args) != 2 {
			return false, badinput.Error("usage: poke addr value")
		}
		var addr, value uint32
		if addr, err = parseWord(args[0]); err != nil {
			return
		}
		if value, err = parseWord(args[1]); err != nil {
			return
		}
		if !m.Bounds().Contains(uintptr(addr)) || addr%stack.WordSize != 0 {
			return false, badinput.Errorf("address 0x%x is outside of stack", addr)
		}
		m.Store(uintptr(addr), value)

	case "peek":
		if len(args) < 1 || len(args) > 2 {
			return false, badinput.Error("usage: peek addr [n]")
		}
		var addr, n uint32 = 0, 1
		if addr, err = parseWord(args[0]); err != nil {
			return
		}
		if len(args) > 1 {
			if n, err = parseWord(args[1]); err != nil {
				return
			}
		}
		for i := uint32(0); i < n; i++ {
			a := uintptr(addr) + uintptr(i)*stack.WordSize
			if !m.Bounds().Contains(a) || a%stack.WordSize != 0 {
				return false, badinput.Errorf("address 0x%x is outside of stack", a)
			}
			fmt.Fprintf(ses.out, "0x%08x: 0x%08x\n", a, m.Load(a))
		}

	case "usage":
		fmt.Fprintf(ses.out, "size %d in-use %d free %d fraction %.6f\n", s.Size(), s.InUse(), s.Free(), s.FractionInUse())

	case "paint":
		s.Paint()

	case "critical":
		if len(args) != 1 || args[0] != "paint" {
			return false, badinput.Error("usage: critical paint")
		}
		m.Critical(s.Paint)

	case "scan":
		fmt.Fprintln(ses.out, s.ScanLinear())

	case "binary":
		fmt.Fprintln(ses.out, s.UnsafeScanBinary())

	case "isr":
		switch {
		case len(args) == 1 && args[0] == "off":
			m.SetInterrupt(0, nil)

		case len(args) == 2:
			var n, words uint32
			if n, err = parseWord(args[0]); err != nil {
				return
			}
			if words, err = parseWord(args[1]); err != nil {
				return
			}
			m.SetInterrupt(int(n), sim.Frame(int(words), isrValue))

		default:
			return false, badinput.Error("usage: isr n words | isr off")
		}

	case "record":
		method := watermark.Linear
		switch {
		case len(args) == 1 && args[0] == "binary":
			method = watermark.Binary
		case len(args) != 0:
			return false, badinput.Error("usage: record [binary]")
		}
		r := watermark.NewRecord(ses.device, watermark.Measure(s, method))
		if err = ses.store.Insert(ses.ctx, r); err != nil {
			return
		}
		fmt.Fprintln(ses.out, r.HighWater)

	case "history":
		var n uint32
		switch len(args) {
		case 0:
		case 1:
			if n, err = parseWord(args[0]); err != nil {
				return
			}
		default:
			return false, badinput.Error("usage: history [n]")
		}
		var list []*watermark.Record
		if list, err = ses.store.List(ses.ctx, ses.device, int(n)); err != nil {
			return
		}
		for _, r := range list {
			fmt.Fprintf(ses.out, "%d %s\n", r.HighWater, r.Method)
		}
		var worst *watermark.Record
		switch worst, err = ses.store.Worst(ses.ctx, ses.device); {
		case err == nil:
			fmt.Fprintf(ses.out, "worst %d\n", worst.HighWater)
		case errors.Is(err, watermark.ErrNotFound):
			err = nil
		default:
			return
		}

	case "stats":
		st := m.Stats()
		fmt.Fprintf(ses.out, "loads %d stores %d faults %d\n", st.Loads, st.Stores, st.Faults)
		m.ResetStats()

	default:
		return false, badinput.Errorf("unknown command: %s", cmd)
	}

	return
}

func countAndValue(args []string) (n, value uint32, err error) {
	if len(args) < 1 || len(args) > 2 {
		err = badinput.Error("usage: push|pop n [value]")
		return
	}
	if n, err = parseWord(args[0]); err != nil {
		return
	}
	if len(args) > 1 {
		value, err = parseWord(args[1])
	}
	return
}

func parseWord(s string) (uint32, error) {
	x, err := strconv.ParseUint(strings.ReplaceAll(s, "_", ""), 0, 32)
	if err != nil {
		return 0, badinput.Errorf("invalid number: %q", s)
	}
	return uint32(x), nil
}
