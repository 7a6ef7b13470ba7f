package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"duit/internal/amqp"
)

// Notifier delivers one transaction event to a user-facing channel.
// Delivery itself (email, chat, push) lives outside this repo; the worker
// only drives the interface.
type Notifier interface {
	Notify(ctx context.Context, msg *amqp.TransactionEventMessage) error
}

// NotifyWorker turns consumed transaction events into notifications with
// bounded retry.
type NotifyWorker struct {
	notifier    Notifier
	maxAttempts int
	backoff     time.Duration
}

func NewNotifyWorker(notifier Notifier, maxAttempts int, backoff time.Duration) *NotifyWorker {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &NotifyWorker{
		notifier:    notifier,
		maxAttempts: maxAttempts,
		backoff:     backoff,
	}
}

// HandleEvent processes a single transaction event. It retries transient
// notifier failures up to maxAttempts before giving the message back to
// the broker.
func (w *NotifyWorker) HandleEvent(ctx context.Context, msg *amqp.TransactionEventMessage) error {
	var lastErr error
	for attempt := 1; attempt <= w.maxAttempts; attempt++ {
		if err := w.notifier.Notify(ctx, msg); err == nil {
			if attempt > 1 {
				slog.InfoContext(ctx, "Notification delivered after retry",
					"event", msg.Event,
					"transaction_id", msg.TransactionID,
					"attempt", attempt)
			}
			return nil
		} else {
			lastErr = err
		}

		if attempt == w.maxAttempts {
			break
		}

		slog.WarnContext(ctx, "Notification attempt failed, retrying",
			"event", msg.Event,
			"transaction_id", msg.TransactionID,
			"attempt", attempt,
			"error", lastErr)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(w.backoff):
		}
	}

	return fmt.Errorf("notify after %d attempts: %w", w.maxAttempts, lastErr)
}

// LogNotifier writes notifications to the structured log. It is the
// default notifier when no delivery channel is configured.
type LogNotifier struct{}

func (LogNotifier) Notify(ctx context.Context, msg *amqp.TransactionEventMessage) error {
	slog.InfoContext(ctx, "Transaction notification",
		"event", msg.Event,
		"transaction_id", msg.TransactionID,
		"user_id", msg.UserID,
		"name", msg.Name,
		"amount", msg.Amount.String(),
		"currency", msg.Currency,
		"category", msg.Category,
		"datetime", msg.Datetime)
	return nil
}
