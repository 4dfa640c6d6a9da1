// Copyright (c) 2024 Timo Savola. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package logging

import (
	"context"
	"io"
	"log/slog"
	"time"

	"import.name/sjournal"
)

type Config struct {
	Journal bool
	Level   string // debug, info, warn or error.
}

// Init returns some kind of logger on error.  Output goes to w unless the
// journal is enabled.
func Init(c Config, w io.Writer) (*slog.Logger, error) {
	var level slog.Level
	if c.Level != "" {
		if err := level.UnmarshalText([]byte(c.Level)); err != nil {
			return slog.New(slog.NewTextHandler(w, nil)), err
		}
	}

	if !c.Journal {
		log := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
		slog.SetDefault(log)
		return log, nil
	}

	opts := &sjournal.HandlerOptions{
		Delimiter:  sjournal.ColonDelimiter,
		TimeFormat: time.RFC3339Nano,
	}

	h, err := sjournal.NewHandler(opts)
	if err != nil {
		return slog.New(slog.NewTextHandler(w, nil)), err
	}

	log := slog.New(filter(h, level))
	slog.SetDefault(log)
	return log, nil
}

type levelHandler struct {
	slog.Handler
	level slog.Leveler
}

// filter records below level before they reach h.
func filter(h slog.Handler, level slog.Leveler) slog.Handler {
	return levelHandler{h, level}
}

func (h levelHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return level >= h.level.Level() && h.Handler.Enabled(ctx, level)
}

func (h levelHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return levelHandler{h.Handler.WithAttrs(attrs), h.level}
}

func (h levelHandler) WithGroup(name string) slog.Handler {
	return levelHandler{h.Handler.WithGroup(name), h.level}
}
