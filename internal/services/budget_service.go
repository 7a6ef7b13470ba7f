package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"duit/internal/core"
)

// maxConcurrentSums bounds the fan-out when a summary aggregates spent
// figures across many budgets at once.
const maxConcurrentSums = 8

// BudgetService manages per-category monthly allocations. Spent is never
// stored: every read aggregates the matching transactions, so edits and
// deletes are reflected immediately.
type BudgetService struct {
	store      BudgetStore
	categories *CategoryService
}

func NewBudgetService(store BudgetStore, categories *CategoryService) *BudgetService {
	return &BudgetService{store: store, categories: categories}
}

// CreateBudgetInput is the caller-facing shape of a new budget.
type CreateBudgetInput struct {
	Category string
	Amount   decimal.Decimal
	Period   string // "Month Year", e.g. "September 2025"
}

// BudgetStatus is a budget joined with its on-demand spent figure.
type BudgetStatus struct {
	core.Budget
	Spent     decimal.Decimal
	Remaining decimal.Decimal
}

// Summary aggregates a set of budgets for one user.
type Summary struct {
	Budgets        []BudgetStatus
	TotalBudget    decimal.Decimal
	TotalSpent     decimal.Decimal
	TotalRemaining decimal.Decimal
}

// SummaryOptions filter a summary by the month or year a budget window
// starts in. Month wins when both are set. Zero values mean no filter.
type SummaryOptions struct {
	Month string // "YYYY-MM"
	Year  int
}

// Create stores a budget for (user, category, period). The period label is
// parsed into an inclusive UTC window; a second budget for the same window
// and category is rejected.
func (s *BudgetService) Create(ctx context.Context, userID string, in CreateBudgetInput) (core.Budget, error) {
	start, end, err := core.ParsePeriod(in.Period)
	if err != nil {
		return core.Budget{}, err
	}

	cat, err := s.categories.Resolve(ctx, in.Category)
	if err != nil {
		return core.Budget{}, fmt.Errorf("resolve category: %w", err)
	}

	b, err := s.store.CreateBudget(ctx, core.Budget{
		UserID:     userID,
		CategoryID: cat.ID,
		Amount:     in.Amount,
		Period:     in.Period,
		StartDate:  start,
		EndDate:    end,
	})
	if err != nil {
		if errors.Is(err, core.ErrDuplicateBudget) {
			return core.Budget{}, fmt.Errorf("%w: %s in %s", core.ErrDuplicateBudget, cat.Name, in.Period)
		}
		return core.Budget{}, fmt.Errorf("save budget: %w", err)
	}
	b.CategoryName = cat.Name
	return b, nil
}

// Get returns one of the user's budgets with its current spent figure.
func (s *BudgetService) Get(ctx context.Context, userID, id string) (BudgetStatus, error) {
	b, err := s.owned(ctx, userID, id)
	if err != nil {
		return BudgetStatus{}, err
	}
	return s.status(ctx, b)
}

// List returns the user's budgets, optionally filtered to windows starting
// in the given year. Pass 0 for no filter.
func (s *BudgetService) List(ctx context.Context, userID string, year int) ([]core.Budget, error) {
	budgets, err := s.store.ListBudgets(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	if year == 0 {
		return budgets, nil
	}

	filtered := budgets[:0]
	for _, b := range budgets {
		if b.StartsInYear(year) {
			filtered = append(filtered, b)
		}
	}
	return filtered, nil
}

// UpdateBudgetInput carries the fields an update may change. Nil fields
// keep their stored value. Changing the period moves the window.
type UpdateBudgetInput struct {
	Amount   *decimal.Decimal
	Period   *string
	Category *string
}

// Update applies a partial update to one of the user's budgets. Moving a
// budget onto a window another budget already covers is rejected the same
// way creation is.
func (s *BudgetService) Update(ctx context.Context, userID, id string, in UpdateBudgetInput) (core.Budget, error) {
	b, err := s.owned(ctx, userID, id)
	if err != nil {
		return core.Budget{}, err
	}

	if in.Amount != nil {
		b.Amount = *in.Amount
	}
	if in.Period != nil {
		start, end, err := core.ParsePeriod(*in.Period)
		if err != nil {
			return core.Budget{}, err
		}
		b.Period = *in.Period
		b.StartDate = start
		b.EndDate = end
	}
	if in.Category != nil {
		cat, err := s.categories.Resolve(ctx, *in.Category)
		if err != nil {
			return core.Budget{}, fmt.Errorf("resolve category: %w", err)
		}
		b.CategoryID = cat.ID
		b.CategoryName = cat.Name
	}

	if err := s.store.UpdateBudget(ctx, b); err != nil {
		if errors.Is(err, core.ErrDuplicateBudget) {
			return core.Budget{}, fmt.Errorf("%w: %s in %s", core.ErrDuplicateBudget, b.CategoryName, b.Period)
		}
		return core.Budget{}, fmt.Errorf("update budget: %w", err)
	}
	return s.store.GetBudget(ctx, id)
}

// Delete removes one of the user's budgets. Transactions are untouched.
func (s *BudgetService) Delete(ctx context.Context, userID, id string) error {
	if _, err := s.owned(ctx, userID, id); err != nil {
		return err
	}
	if err := s.store.DeleteBudget(ctx, id); err != nil {
		return fmt.Errorf("delete budget: %w", err)
	}
	return nil
}

// Summarize computes spent and remaining for every budget matching the
// filter, aggregating each budget's transactions concurrently. An empty
// selection yields zero totals.
func (s *BudgetService) Summarize(ctx context.Context, userID string, opts SummaryOptions) (Summary, error) {
	budgets, err := s.store.ListBudgets(ctx, userID)
	if err != nil {
		return Summary{}, fmt.Errorf("list budgets: %w", err)
	}

	selected := budgets[:0]
	switch {
	case opts.Month != "":
		year, month, err := core.ParseMonthSelector(opts.Month)
		if err != nil {
			return Summary{}, err
		}
		for _, b := range budgets {
			if b.StartsInMonth(year, month) {
				selected = append(selected, b)
			}
		}
	case opts.Year != 0:
		for _, b := range budgets {
			if b.StartsInYear(opts.Year) {
				selected = append(selected, b)
			}
		}
	default:
		selected = budgets
	}

	statuses := make([]BudgetStatus, len(selected))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentSums)
	for i, b := range selected {
		g.Go(func() error {
			st, err := s.status(gctx, b)
			if err != nil {
				return err
			}
			statuses[i] = st
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Summary{}, err
	}

	summary := Summary{Budgets: statuses}
	for _, st := range statuses {
		summary.TotalBudget = summary.TotalBudget.Add(st.Amount)
		summary.TotalSpent = summary.TotalSpent.Add(st.Spent)
	}
	summary.TotalRemaining = summary.TotalBudget.Sub(summary.TotalSpent)
	return summary, nil
}

func (s *BudgetService) status(ctx context.Context, b core.Budget) (BudgetStatus, error) {
	spent, err := s.store.SumTransactions(ctx, b.UserID, b.CategoryID, b.StartDate, b.EndDate)
	if err != nil {
		return BudgetStatus{}, fmt.Errorf("sum transactions for budget %s: %w", b.ID, err)
	}
	return BudgetStatus{Budget: b, Spent: spent, Remaining: b.Remaining(spent)}, nil
}

func (s *BudgetService) owned(ctx context.Context, userID, id string) (core.Budget, error) {
	b, err := s.store.GetBudget(ctx, id)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return core.Budget{}, core.ErrNotFound
		}
		return core.Budget{}, fmt.Errorf("get budget: %w", err)
	}
	if b.UserID != userID {
		return core.Budget{}, core.ErrForbidden
	}
	return b, nil
}
