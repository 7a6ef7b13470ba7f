package services

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"duit/internal/core"
)

// fakeStore is an in-memory stand-in for the SQLite repository. It enforces
// the same uniqueness rules so the services see the same error surface.
type fakeStore struct {
	mu           sync.Mutex
	categories   map[string]core.Category // by name
	transactions map[string]core.Transaction
	budgets      map[string]core.Budget
	nextID       int

	createCalls int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		categories:   make(map[string]core.Category),
		transactions: make(map[string]core.Transaction),
		budgets:      make(map[string]core.Budget),
	}
}

func (f *fakeStore) id() string {
	f.nextID++
	return fmt.Sprintf("id-%d", f.nextID)
}

func (f *fakeStore) CreateCategory(_ context.Context, name string) (core.Category, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createCalls++
	if _, ok := f.categories[name]; ok {
		return core.Category{}, core.ErrCategoryConflict
	}
	cat := core.Category{ID: f.id(), Name: name, IsActive: true}
	f.categories[name] = cat
	return cat, nil
}

func (f *fakeStore) FindCategoryByName(_ context.Context, name string) (core.Category, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cat, ok := f.categories[name]
	if !ok {
		return core.Category{}, core.ErrNotFound
	}
	return cat, nil
}

func (f *fakeStore) ListCategories(_ context.Context) ([]core.Category, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []core.Category
	for _, cat := range f.categories {
		out = append(out, cat)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (f *fakeStore) categoryName(id string) string {
	for _, cat := range f.categories {
		if cat.ID == id {
			return cat.Name
		}
	}
	return ""
}

func (f *fakeStore) CreateTransaction(_ context.Context, tx core.Transaction) (core.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	tx.ID = f.id()
	tx.CategoryName = f.categoryName(tx.CategoryID)
	now := time.Now().UTC()
	tx.CreatedAt = now
	tx.UpdatedAt = now
	f.transactions[tx.ID] = tx
	return tx, nil
}

func (f *fakeStore) GetTransaction(_ context.Context, id string) (core.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	tx, ok := f.transactions[id]
	if !ok {
		return core.Transaction{}, core.ErrNotFound
	}
	return tx, nil
}

func (f *fakeStore) ListTransactions(_ context.Context, userID string) ([]core.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []core.Transaction
	for _, tx := range f.transactions {
		if tx.UserID == userID {
			out = append(out, tx)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Datetime.After(out[j].Datetime) })
	return out, nil
}

func (f *fakeStore) UpdateTransaction(_ context.Context, tx core.Transaction) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.transactions[tx.ID]
	if !ok {
		return core.ErrNotFound
	}
	tx.CreatedAt = stored.CreatedAt
	tx.UpdatedAt = time.Now().UTC()
	tx.CategoryName = f.categoryName(tx.CategoryID)
	f.transactions[tx.ID] = tx
	return nil
}

func (f *fakeStore) DeleteTransaction(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.transactions[id]; !ok {
		return core.ErrNotFound
	}
	delete(f.transactions, id)
	return nil
}

func (f *fakeStore) SumTransactions(_ context.Context, userID, categoryID string, from, to time.Time) (decimal.Decimal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	sum := decimal.Zero
	for _, tx := range f.transactions {
		if tx.UserID != userID || tx.CategoryID != categoryID {
			continue
		}
		if tx.Datetime.Before(from) || tx.Datetime.After(to) {
			continue
		}
		sum = sum.Add(tx.Amount)
	}
	return sum, nil
}

func (f *fakeStore) CreateBudget(_ context.Context, b core.Budget) (core.Budget, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.budgets {
		if existing.UserID == b.UserID && existing.CategoryID == b.CategoryID && existing.StartDate.Equal(b.StartDate) {
			return core.Budget{}, core.ErrDuplicateBudget
		}
	}
	b.ID = f.id()
	b.CategoryName = f.categoryName(b.CategoryID)
	now := time.Now().UTC()
	b.CreatedAt = now
	b.UpdatedAt = now
	f.budgets[b.ID] = b
	return b, nil
}

func (f *fakeStore) GetBudget(_ context.Context, id string) (core.Budget, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.budgets[id]
	if !ok {
		return core.Budget{}, core.ErrNotFound
	}
	return b, nil
}

func (f *fakeStore) ListBudgets(_ context.Context, userID string) ([]core.Budget, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []core.Budget
	for _, b := range f.budgets {
		if b.UserID == userID {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartDate.Before(out[j].StartDate) })
	return out, nil
}

func (f *fakeStore) UpdateBudget(_ context.Context, b core.Budget) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.budgets[b.ID]
	if !ok {
		return core.ErrNotFound
	}
	for id, existing := range f.budgets {
		if id == b.ID {
			continue
		}
		if existing.UserID == b.UserID && existing.CategoryID == b.CategoryID && existing.StartDate.Equal(b.StartDate) {
			return core.ErrDuplicateBudget
		}
	}
	b.CreatedAt = stored.CreatedAt
	b.UpdatedAt = time.Now().UTC()
	b.CategoryName = f.categoryName(b.CategoryID)
	f.budgets[b.ID] = b
	return nil
}

func (f *fakeStore) DeleteBudget(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.budgets[id]; !ok {
		return core.ErrNotFound
	}
	delete(f.budgets, id)
	return nil
}

// fakePublisher records published events and optionally fails.
type fakePublisher struct {
	mu      sync.Mutex
	created []core.Transaction
	deleted []core.Transaction
	err     error
}

func (p *fakePublisher) PublishTransactionCreated(_ context.Context, tx core.Transaction) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.created = append(p.created, tx)
	return nil
}

func (p *fakePublisher) PublishTransactionDeleted(_ context.Context, tx core.Transaction) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.deleted = append(p.deleted, tx)
	return nil
}
