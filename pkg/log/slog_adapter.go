package log

import (
	"context"
	"log/slog"
)

// SlogAdapter writes trace events to an slog.Logger.
type SlogAdapter struct {
	logger *slog.Logger
}

// NewSlogAdapter creates a new SlogAdapter that writes to the given slog.Logger.
func NewSlogAdapter(logger *slog.Logger) *SlogAdapter {
	return &SlogAdapter{logger: logger}
}

// Log writes the event at Debug level, errors at Warn level.
func (a *SlogAdapter) Log(event Event) {
	attrs := []slog.Attr{
		slog.String("run_id", event.RunID),
		slog.String("stage", event.Stage.String()),
		slog.String("category", event.Category.String()),
	}
	if event.Block != "" {
		attrs = append(attrs, slog.String("block", event.Block))
	}
	if event.Source != "" {
		attrs = append(attrs, slog.String("source", event.Source))
	}
	if event.Duration > 0 {
		attrs = append(attrs, slog.Duration("duration", event.Duration))
	}

	level := slog.LevelDebug
	switch {
	case event.Summary != nil:
		s := event.Summary
		if s.Blocks > 0 {
			attrs = append(attrs, slog.Int("blocks", s.Blocks))
		}
		attrs = append(attrs,
			slog.Int("fields", s.Fields),
			slog.Int("violations", s.Violations),
			slog.Int("accessors", s.Accessors),
		)
	case event.Violation != nil:
		v := event.Violation
		attrs = append(attrs,
			slog.String("rule", v.Rule),
			slog.String("field_a", v.A.Name),
			slog.String("field_b", v.B.Name),
		)
		if v.B.Pos != "" {
			attrs = append(attrs, slog.String("pos", v.B.Pos))
		}
	case event.Emit != nil:
		attrs = append(attrs,
			slog.String("file", event.Emit.FileName),
			slog.String("fingerprint", event.Emit.Fingerprint),
			slog.Int("size", event.Emit.Size),
			slog.Bool("unchanged", event.Emit.Unchanged),
		)
	case event.Error != nil:
		level = slog.LevelWarn
		attrs = append(attrs, slog.String("error", event.Error.Message))
		if event.Error.Kind != "" {
			attrs = append(attrs, slog.String("error_kind", event.Error.Kind))
		}
	}

	a.logger.LogAttrs(context.Background(), level, "trace", attrs...)
}

// Compile-time interface satisfaction check.
var _ Logger = (*SlogAdapter)(nil)
