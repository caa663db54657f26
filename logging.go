package main

import (
	"context"
	"io"
	"strings"
	"sync"

	"golang.org/x/exp/slog"
)

// Plain text handler: "time level message key=value ...", one line per
// record.
type LogHandler struct {
	h   slog.Handler
	mu  *sync.Mutex
	out io.Writer
}

func NewLogHandler(o io.Writer, opts *slog.HandlerOptions) *LogHandler {
	if opts == nil {
		opts = &slog.HandlerOptions{}
	}
	return &LogHandler{
		out: o,
		h: slog.NewTextHandler(o, &slog.HandlerOptions{
			Level:     opts.Level,
			AddSource: opts.AddSource,
		}),
		mu: &sync.Mutex{},
	}
}

func (self *LogHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return self.h.Enabled(ctx, level)
}

func (self *LogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &LogHandler{h: self.h.WithAttrs(attrs), out: self.out, mu: self.mu}
}

func (self *LogHandler) WithGroup(name string) slog.Handler {
	return &LogHandler{h: self.h.WithGroup(name), out: self.out, mu: self.mu}
}

func (self *LogHandler) Handle(ctx context.Context, r slog.Record) error {
	builder := strings.Builder{}
	builder.WriteString(r.Time.Format("2006/01/02 15:04:05"))
	builder.WriteString(" ")
	builder.WriteString(r.Level.String())
	builder.WriteString(" ")
	builder.WriteString(r.Message)
	if r.NumAttrs() != 0 {
		r.Attrs(func(a slog.Attr) bool {
			builder.WriteString(" ")
			builder.WriteString(a.Key)
			builder.WriteString("=")
			builder.WriteString(a.Value.String())
			return true
		})
	}
	builder.WriteString("\n")

	self.mu.Lock()
	defer self.mu.Unlock()

	_, err := self.out.Write([]byte(builder.String()))
	return err
}
