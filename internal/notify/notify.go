// Package notify delivers alert notifications to external observers. The
// engine treats delivery as best-effort: a failed publish never fails the
// scan that raised the alert.
package notify

import (
	"context"

	"github.com/aryankumarrai/pharmakrypt/internal/model"
)

// Notifier pushes newly created alerts to a change feed.
type Notifier interface {
	// PublishAlert announces one alert. Implementations must not block
	// beyond ctx.
	PublishAlert(ctx context.Context, a model.Alert) error
}

// Nop is a Notifier that discards everything.
type Nop struct{}

// PublishAlert implements Notifier.
func (Nop) PublishAlert(context.Context, model.Alert) error { return nil }
