// Package audit provides the default audit sink, which writes entries to a
// dedicated structured logger.
package audit

import (
	"context"
	"log/slog"

	"github.com/ticketcore/promoengine/pkg/audit"
)

// SlogSink records audit entries as structured log lines.
type SlogSink struct {
	logger *slog.Logger
}

// NewSlogSink creates a sink writing to logger.
func NewSlogSink(logger *slog.Logger) *SlogSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlogSink{logger: logger.With("component", "audit")}
}

// Record implements audit.Sink.
func (s *SlogSink) Record(ctx context.Context, e audit.Entry) error {
	attrs := []slog.Attr{
		slog.String("actor_id", e.ActorID.String()),
		slog.String("action", e.Action),
		slog.String("target", e.Target),
		slog.String("target_id", e.TargetID),
		slog.Time("at", e.At),
	}
	if e.IPAddress != "" {
		attrs = append(attrs, slog.String("ip_address", e.IPAddress))
	}
	if e.UserAgent != "" {
		attrs = append(attrs, slog.String("user_agent", e.UserAgent))
	}
	if len(e.Metadata) > 0 {
		attrs = append(attrs, slog.Any("metadata", e.Metadata))
	}
	s.logger.LogAttrs(ctx, slog.LevelInfo, "audit", attrs...)
	return nil
}
