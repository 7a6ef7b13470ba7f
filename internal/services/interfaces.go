package services

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"duit/internal/core"
)

// CategoryStore is the slice of storage the category resolver needs.
type CategoryStore interface {
	CreateCategory(ctx context.Context, name string) (core.Category, error)
	FindCategoryByName(ctx context.Context, name string) (core.Category, error)
	ListCategories(ctx context.Context) ([]core.Category, error)
}

// TransactionStore is the slice of storage the reconciler needs.
type TransactionStore interface {
	CategoryStore
	CreateTransaction(ctx context.Context, tx core.Transaction) (core.Transaction, error)
	GetTransaction(ctx context.Context, id string) (core.Transaction, error)
	ListTransactions(ctx context.Context, userID string) ([]core.Transaction, error)
	UpdateTransaction(ctx context.Context, tx core.Transaction) error
	DeleteTransaction(ctx context.Context, id string) error
}

// BudgetStore is the slice of storage the budget service needs.
type BudgetStore interface {
	CategoryStore
	CreateBudget(ctx context.Context, b core.Budget) (core.Budget, error)
	GetBudget(ctx context.Context, id string) (core.Budget, error)
	ListBudgets(ctx context.Context, userID string) ([]core.Budget, error)
	UpdateBudget(ctx context.Context, b core.Budget) error
	DeleteBudget(ctx context.Context, id string) error
	SumTransactions(ctx context.Context, userID, categoryID string, from, to time.Time) (decimal.Decimal, error)
}

// Publisher emits transaction lifecycle events. Publishing is best effort:
// services log failures and never fail the request over them.
type Publisher interface {
	PublishTransactionCreated(ctx context.Context, tx core.Transaction) error
	PublishTransactionDeleted(ctx context.Context, tx core.Transaction) error
}
