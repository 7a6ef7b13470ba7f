package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"duit/internal/amqp"
)

type flakyNotifier struct {
	failures int
	calls    int
}

func (n *flakyNotifier) Notify(context.Context, *amqp.TransactionEventMessage) error {
	n.calls++
	if n.calls <= n.failures {
		return errors.New("smtp unreachable")
	}
	return nil
}

func testMessage() *amqp.TransactionEventMessage {
	return &amqp.TransactionEventMessage{
		Event:         amqp.EventTransactionCreated,
		TransactionID: "tx-1",
		UserID:        "user-1",
		Amount:        decimal.NewFromInt(50000),
		Currency:      "IDR",
		Category:      "Food",
	}
}

func TestHandleEvent_SucceedsFirstTry(t *testing.T) {
	n := &flakyNotifier{}
	w := NewNotifyWorker(n, 3, time.Millisecond)

	if err := w.HandleEvent(context.Background(), testMessage()); err != nil {
		t.Fatalf("HandleEvent: %v", err)
	}
	if n.calls != 1 {
		t.Errorf("notifier called %d times, want 1", n.calls)
	}
}

func TestHandleEvent_RetriesTransientFailures(t *testing.T) {
	n := &flakyNotifier{failures: 2}
	w := NewNotifyWorker(n, 3, time.Millisecond)

	if err := w.HandleEvent(context.Background(), testMessage()); err != nil {
		t.Fatalf("HandleEvent should succeed on the third attempt: %v", err)
	}
	if n.calls != 3 {
		t.Errorf("notifier called %d times, want 3", n.calls)
	}
}

func TestHandleEvent_GivesUpAfterMaxAttempts(t *testing.T) {
	n := &flakyNotifier{failures: 10}
	w := NewNotifyWorker(n, 3, time.Millisecond)

	err := w.HandleEvent(context.Background(), testMessage())
	if err == nil {
		t.Fatal("HandleEvent should fail when every attempt fails")
	}
	if n.calls != 3 {
		t.Errorf("notifier called %d times, want 3", n.calls)
	}
}

func TestHandleEvent_StopsOnCancel(t *testing.T) {
	n := &flakyNotifier{failures: 10}
	w := NewNotifyWorker(n, 5, time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := w.HandleEvent(ctx, testMessage())
	if !errors.Is(err, context.Canceled) {
		t.Errorf("HandleEvent = %v, want context.Canceled", err)
	}
	if n.calls != 1 {
		t.Errorf("notifier called %d times before cancel, want 1", n.calls)
	}
}

func TestLogNotifier(t *testing.T) {
	if err := (LogNotifier{}).Notify(context.Background(), testMessage()); err != nil {
		t.Errorf("LogNotifier.Notify: %v", err)
	}
}
