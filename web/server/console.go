package server

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// ConsoleMessage represents a console message with timestamp
type ConsoleMessage struct {
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
	Level     string    `json:"level"` // "debug", "info", "warning", "error"
}

// ConsoleHandler is a slog.Handler that forwards records to a web console channel.
// Sends never block: messages are dropped while the channel is full.
type ConsoleHandler struct {
	consoleChan chan<- ConsoleMessage
	level       slog.Leveler
	attrs       []slog.Attr
	group       string
}

// NewConsoleHandler creates a handler that sends records at or above level to consoleChan
func NewConsoleHandler(consoleChan chan<- ConsoleMessage, level slog.Leveler) *ConsoleHandler {
	if level == nil {
		level = slog.LevelInfo
	}
	return &ConsoleHandler{consoleChan: consoleChan, level: level}
}

// Enabled implements slog.Handler
func (h *ConsoleHandler) Enabled(_ context.Context, level slog.Level) bool {
	return h.consoleChan != nil && level >= h.level.Level()
}

// Handle implements slog.Handler
func (h *ConsoleHandler) Handle(_ context.Context, record slog.Record) error {
	if h.consoleChan == nil {
		return nil
	}

	var b strings.Builder
	b.WriteString(record.Message)
	for _, attr := range h.attrs {
		writeAttr(&b, h.group, attr)
	}
	record.Attrs(func(attr slog.Attr) bool {
		writeAttr(&b, h.group, attr)
		return true
	})

	select {
	case h.consoleChan <- ConsoleMessage{
		Message:   b.String(),
		Timestamp: record.Time,
		Level:     consoleLevel(record.Level),
	}:
	default:
		// Channel full, skip (don't block)
	}
	return nil
}

// WithAttrs implements slog.Handler
func (h *ConsoleHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	clone.attrs = append(append([]slog.Attr{}, h.attrs...), attrs...)
	return &clone
}

// WithGroup implements slog.Handler
func (h *ConsoleHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	clone := *h
	if clone.group != "" {
		clone.group += "."
	}
	clone.group += name
	return &clone
}

func writeAttr(b *strings.Builder, group string, attr slog.Attr) {
	if attr.Equal(slog.Attr{}) {
		return
	}
	key := attr.Key
	if group != "" {
		key = group + "." + key
	}
	fmt.Fprintf(b, " %s=%v", key, attr.Value.Resolve())
}

func consoleLevel(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return "error"
	case level >= slog.LevelWarn:
		return "warning"
	case level >= slog.LevelInfo:
		return "info"
	default:
		return "debug"
	}
}
