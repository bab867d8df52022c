// Package audit defines the append-only audit trail collaborator.
package audit

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Action names recorded by the engine.
const (
	ActionCurrencyConfigUpdated = "currency_config.updated"
	ActionExchangeRateAdded     = "exchange_rate.added"
	ActionPromotionCreated      = "promotion.created"
	ActionPromotionUpdated      = "promotion.updated"
	ActionPromotionDeleted      = "promotion.deleted"
	ActionPromoCodeCreated      = "promo_code.created"
	ActionPromoCodeUpdated      = "promo_code.updated"
	ActionPromoCodeDeleted      = "promo_code.deleted"
	ActionPromoCodeRedeemed     = "promo_code.redeemed"
)

// Entry is one structured audit record.
type Entry struct {
	ActorID   uuid.UUID      `json:"actorId"`
	Action    string         `json:"action"`
	Target    string         `json:"target"`
	TargetID  string         `json:"targetId"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	IPAddress string         `json:"ipAddress,omitempty"`
	UserAgent string         `json:"userAgent,omitempty"`
	At        time.Time      `json:"at"`
}

// Sink accepts audit entries. Implementations must not block on slow I/O for
// longer than the request allows.
type Sink interface {
	Record(ctx context.Context, entry Entry) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, entry Entry) error

// Record implements Sink.
func (f SinkFunc) Record(ctx context.Context, entry Entry) error {
	return f(ctx, entry)
}

// Discard drops every entry.
var Discard Sink = SinkFunc(func(context.Context, Entry) error { return nil })

// Emit records entry on sink and logs, rather than returns, any failure. The
// audited change has already been committed when Emit runs.
func Emit(ctx context.Context, sink Sink, logger *slog.Logger, entry Entry) {
	if sink == nil {
		return
	}
	if entry.At.IsZero() {
		entry.At = time.Now().UTC()
	}
	if err := sink.Record(ctx, entry); err != nil {
		logger.Error("Failed to record audit entry", "action", entry.Action, "target_id", entry.TargetID, "error", err)
	}
}
