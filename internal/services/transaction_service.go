package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"duit/internal/core"
)

// TransactionService reconciles extracted drafts into stored transactions
// and keeps the event stream informed.
type TransactionService struct {
	store      TransactionStore
	categories *CategoryService
	publisher  Publisher
}

func NewTransactionService(store TransactionStore, categories *CategoryService, publisher Publisher) *TransactionService {
	return &TransactionService{
		store:      store,
		categories: categories,
		publisher:  publisher,
	}
}

// Commit persists a draft for the given user. The draft's category name is
// resolved get-or-create before the insert. A created event is published
// after the save; publish failures are logged and never fail the request.
func (s *TransactionService) Commit(ctx context.Context, userID string, draft *core.Draft) (core.Transaction, error) {
	cat, err := s.categories.Resolve(ctx, draft.Category)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("resolve category: %w", err)
	}

	tx, err := s.store.CreateTransaction(ctx, core.Transaction{
		UserID:           userID,
		Name:             draft.Name,
		Amount:           draft.Amount,
		Currency:         draft.Currency,
		OriginalAmount:   draft.OriginalAmount,
		OriginalCurrency: draft.OriginalCurrency,
		CategoryID:       cat.ID,
		Datetime:         draft.Datetime,
	})
	if err != nil {
		return core.Transaction{}, fmt.Errorf("save transaction: %w", err)
	}
	tx.CategoryName = cat.Name

	if s.publisher != nil {
		if err := s.publisher.PublishTransactionCreated(ctx, tx); err != nil {
			slog.ErrorContext(ctx, "Failed to publish created event",
				"transaction_id", tx.ID, "error", err)
			// The transaction is saved; the event stream catches up later.
		}
	}

	return tx, nil
}

// Get returns one of the user's transactions. A transaction owned by
// someone else surfaces as not found.
func (s *TransactionService) Get(ctx context.Context, userID, id string) (core.Transaction, error) {
	return s.owned(ctx, userID, id)
}

// List returns the user's transactions, newest first.
func (s *TransactionService) List(ctx context.Context, userID string) ([]core.Transaction, error) {
	return s.store.ListTransactions(ctx, userID)
}

// UpdateTransactionInput carries the fields an update may change. Nil
// fields keep their stored value.
type UpdateTransactionInput struct {
	Name     *string
	Amount   *decimal.Decimal
	Category *string
	Datetime *time.Time
}

// Update applies a partial update to one of the user's transactions. A
// category change re-resolves by name.
func (s *TransactionService) Update(ctx context.Context, userID, id string, in UpdateTransactionInput) (core.Transaction, error) {
	tx, err := s.owned(ctx, userID, id)
	if err != nil {
		return core.Transaction{}, err
	}

	if in.Name != nil {
		tx.Name = *in.Name
	}
	if in.Amount != nil {
		tx.Amount = *in.Amount
	}
	if in.Datetime != nil {
		tx.Datetime = (*in.Datetime).UTC()
	}
	if in.Category != nil {
		cat, err := s.categories.Resolve(ctx, *in.Category)
		if err != nil {
			return core.Transaction{}, fmt.Errorf("resolve category: %w", err)
		}
		tx.CategoryID = cat.ID
		tx.CategoryName = cat.Name
	}

	if err := s.store.UpdateTransaction(ctx, tx); err != nil {
		return core.Transaction{}, fmt.Errorf("update transaction: %w", err)
	}
	return s.store.GetTransaction(ctx, id)
}

// Delete removes one of the user's transactions and publishes a deleted
// event, best effort.
func (s *TransactionService) Delete(ctx context.Context, userID, id string) error {
	tx, err := s.owned(ctx, userID, id)
	if err != nil {
		return err
	}

	if err := s.store.DeleteTransaction(ctx, id); err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}

	if s.publisher != nil {
		if err := s.publisher.PublishTransactionDeleted(ctx, tx); err != nil {
			slog.ErrorContext(ctx, "Failed to publish deleted event",
				"transaction_id", tx.ID, "error", err)
		}
	}

	return nil
}

// owned fetches a transaction and verifies the caller owns it. The
// forbidden case keeps the not-found message so callers cannot probe for
// other users' records.
func (s *TransactionService) owned(ctx context.Context, userID, id string) (core.Transaction, error) {
	tx, err := s.store.GetTransaction(ctx, id)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return core.Transaction{}, core.ErrNotFound
		}
		return core.Transaction{}, fmt.Errorf("get transaction: %w", err)
	}
	if tx.UserID != userID {
		return core.Transaction{}, core.ErrForbidden
	}
	return tx, nil
}
