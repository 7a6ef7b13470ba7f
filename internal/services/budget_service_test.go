package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"duit/internal/core"
)

func newBudgetFixture() (*BudgetService, *TransactionService, *fakeStore) {
	store := newFakeStore()
	categories := NewCategoryService(store)
	return NewBudgetService(store, categories), NewTransactionService(store, categories, nil), store
}

func commitSpend(t *testing.T, txs *TransactionService, user, category string, amount int64, at time.Time) core.Transaction {
	t.Helper()
	tx, err := txs.Commit(context.Background(), user, &core.Draft{
		Name:     "spend",
		Amount:   decimal.NewFromInt(amount),
		Currency: "IDR",
		Category: category,
		Datetime: at,
	})
	if err != nil {
		t.Fatalf("Commit: %v", err)
	}
	return tx
}

func TestCreateBudget_ParsesWindow(t *testing.T) {
	budgets, _, _ := newBudgetFixture()

	b, err := budgets.Create(context.Background(), "user-1", CreateBudgetInput{
		Category: "Food",
		Amount:   decimal.NewFromInt(500000),
		Period:   "September 2025",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	wantStart := time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC)
	wantEnd := time.Date(2025, 9, 30, 23, 59, 59, 999999999, time.UTC)
	if !b.StartDate.Equal(wantStart) || !b.EndDate.Equal(wantEnd) {
		t.Errorf("window = [%v, %v], want [%v, %v]", b.StartDate, b.EndDate, wantStart, wantEnd)
	}
	if b.CategoryName != "Food" {
		t.Errorf("category = %q, want Food", b.CategoryName)
	}
}

func TestCreateBudget_DuplicateNamesCategoryAndPeriod(t *testing.T) {
	budgets, _, _ := newBudgetFixture()
	ctx := context.Background()

	in := CreateBudgetInput{Category: "Food", Amount: decimal.NewFromInt(500000), Period: "September 2025"}
	if _, err := budgets.Create(ctx, "user-1", in); err != nil {
		t.Fatalf("first Create: %v", err)
	}

	_, err := budgets.Create(ctx, "user-1", in)
	if !errors.Is(err, core.ErrDuplicateBudget) {
		t.Fatalf("duplicate error = %v, want core.ErrDuplicateBudget", err)
	}
	if !strings.Contains(err.Error(), "Food") || !strings.Contains(err.Error(), "September 2025") {
		t.Errorf("duplicate error %q should name category and period", err)
	}

	// Same category, different month: allowed.
	in.Period = "October 2025"
	if _, err := budgets.Create(ctx, "user-1", in); err != nil {
		t.Errorf("different period should succeed: %v", err)
	}
}

func TestCreateBudget_RejectsBadPeriod(t *testing.T) {
	budgets, _, _ := newBudgetFixture()

	_, err := budgets.Create(context.Background(), "user-1", CreateBudgetInput{
		Category: "Food",
		Amount:   decimal.NewFromInt(1000),
		Period:   "2025-09",
	})
	if err == nil {
		t.Fatal("YYYY-MM is not a period label; want an error")
	}
}

func TestGetBudget_SpentIsOnDemand(t *testing.T) {
	budgets, txs, _ := newBudgetFixture()
	ctx := context.Background()

	b, err := budgets.Create(ctx, "user-1", CreateBudgetInput{
		Category: "Food",
		Amount:   decimal.NewFromInt(500000),
		Period:   "September 2025",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	spend := commitSpend(t, txs, "user-1", "Food", 50000, time.Date(2025, 9, 5, 12, 0, 0, 0, time.UTC))
	commitSpend(t, txs, "user-1", "Food", 20000, time.Date(2025, 10, 1, 0, 0, 0, 0, time.UTC)) // outside window
	commitSpend(t, txs, "user-2", "Food", 99000, time.Date(2025, 9, 6, 12, 0, 0, 0, time.UTC)) // other user

	status, err := budgets.Get(ctx, "user-1", b.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !status.Spent.Equal(decimal.NewFromInt(50000)) {
		t.Errorf("spent = %s, want 50000", status.Spent)
	}
	if !status.Remaining.Equal(decimal.NewFromInt(450000)) {
		t.Errorf("remaining = %s, want 450000", status.Remaining)
	}

	// Editing the transaction changes the next read.
	amount := decimal.NewFromInt(80000)
	if _, err := txs.Update(ctx, "user-1", spend.ID, UpdateTransactionInput{Amount: &amount}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	status, err = budgets.Get(ctx, "user-1", b.ID)
	if err != nil {
		t.Fatalf("Get after edit: %v", err)
	}
	if !status.Spent.Equal(amount) {
		t.Errorf("spent after edit = %s, want 80000", status.Spent)
	}

	// So does deleting it.
	if err := txs.Delete(ctx, "user-1", spend.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	status, err = budgets.Get(ctx, "user-1", b.ID)
	if err != nil {
		t.Fatalf("Get after delete: %v", err)
	}
	if !status.Spent.IsZero() {
		t.Errorf("spent after delete = %s, want 0", status.Spent)
	}
}

func TestBudgetOwnership_LooksAbsent(t *testing.T) {
	budgets, _, _ := newBudgetFixture()
	ctx := context.Background()

	b, err := budgets.Create(ctx, "user-1", CreateBudgetInput{
		Category: "Food",
		Amount:   decimal.NewFromInt(500000),
		Period:   "September 2025",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if _, err := budgets.Get(ctx, "user-2", b.ID); !errors.Is(err, core.ErrForbidden) {
		t.Errorf("foreign get = %v, want core.ErrForbidden", err)
	}
	if err := budgets.Delete(ctx, "user-2", b.ID); !errors.Is(err, core.ErrForbidden) {
		t.Errorf("foreign delete = %v, want core.ErrForbidden", err)
	}
	if _, err := budgets.Get(ctx, "user-1", "missing"); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("missing get = %v, want core.ErrNotFound", err)
	}
}

func TestUpdateBudget_MoveOntoTakenWindowRejected(t *testing.T) {
	budgets, _, _ := newBudgetFixture()
	ctx := context.Background()

	if _, err := budgets.Create(ctx, "user-1", CreateBudgetInput{
		Category: "Food", Amount: decimal.NewFromInt(1000), Period: "September 2025",
	}); err != nil {
		t.Fatalf("Create september: %v", err)
	}
	oct, err := budgets.Create(ctx, "user-1", CreateBudgetInput{
		Category: "Food", Amount: decimal.NewFromInt(2000), Period: "October 2025",
	})
	if err != nil {
		t.Fatalf("Create october: %v", err)
	}

	period := "September 2025"
	if _, err := budgets.Update(ctx, "user-1", oct.ID, UpdateBudgetInput{Period: &period}); !errors.Is(err, core.ErrDuplicateBudget) {
		t.Errorf("move onto taken window = %v, want core.ErrDuplicateBudget", err)
	}

	amount := decimal.NewFromInt(3000)
	updated, err := budgets.Update(ctx, "user-1", oct.ID, UpdateBudgetInput{Amount: &amount})
	if err != nil {
		t.Fatalf("amount-only update: %v", err)
	}
	if !updated.Amount.Equal(amount) {
		t.Errorf("amount = %s, want 3000", updated.Amount)
	}
}

func TestList_YearFilter(t *testing.T) {
	budgets, _, _ := newBudgetFixture()
	ctx := context.Background()

	for _, period := range []string{"December 2024", "January 2025", "February 2025"} {
		if _, err := budgets.Create(ctx, "user-1", CreateBudgetInput{
			Category: "Food", Amount: decimal.NewFromInt(1000), Period: period,
		}); err != nil {
			t.Fatalf("Create %s: %v", period, err)
		}
	}

	all, err := budgets.List(ctx, "user-1", 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("unfiltered list has %d budgets, want 3", len(all))
	}

	only2025, err := budgets.List(ctx, "user-1", 2025)
	if err != nil {
		t.Fatalf("List 2025: %v", err)
	}
	if len(only2025) != 2 {
		t.Errorf("2025 list has %d budgets, want 2", len(only2025))
	}
}

func TestSummarize(t *testing.T) {
	budgets, txs, _ := newBudgetFixture()
	ctx := context.Background()

	mustCreate := func(category, period string, amount int64) {
		t.Helper()
		if _, err := budgets.Create(ctx, "user-1", CreateBudgetInput{
			Category: category, Amount: decimal.NewFromInt(amount), Period: period,
		}); err != nil {
			t.Fatalf("Create %s %s: %v", category, period, err)
		}
	}
	mustCreate("Food", "September 2025", 500000)
	mustCreate("Travel", "September 2025", 300000)
	mustCreate("Food", "October 2025", 400000)

	commitSpend(t, txs, "user-1", "Food", 120000, time.Date(2025, 9, 10, 9, 0, 0, 0, time.UTC))
	commitSpend(t, txs, "user-1", "Travel", 50000, time.Date(2025, 9, 12, 9, 0, 0, 0, time.UTC))
	commitSpend(t, txs, "user-1", "Food", 90000, time.Date(2025, 10, 2, 9, 0, 0, 0, time.UTC))

	t.Run("month filter", func(t *testing.T) {
		sum, err := budgets.Summarize(ctx, "user-1", SummaryOptions{Month: "2025-09"})
		if err != nil {
			t.Fatalf("Summarize: %v", err)
		}
		if len(sum.Budgets) != 2 {
			t.Fatalf("selected %d budgets, want 2", len(sum.Budgets))
		}
		if !sum.TotalBudget.Equal(decimal.NewFromInt(800000)) {
			t.Errorf("total budget = %s, want 800000", sum.TotalBudget)
		}
		if !sum.TotalSpent.Equal(decimal.NewFromInt(170000)) {
			t.Errorf("total spent = %s, want 170000", sum.TotalSpent)
		}
		if !sum.TotalRemaining.Equal(decimal.NewFromInt(630000)) {
			t.Errorf("total remaining = %s, want 630000", sum.TotalRemaining)
		}
	})

	t.Run("year filter", func(t *testing.T) {
		sum, err := budgets.Summarize(ctx, "user-1", SummaryOptions{Year: 2025})
		if err != nil {
			t.Fatalf("Summarize: %v", err)
		}
		if len(sum.Budgets) != 3 {
			t.Errorf("selected %d budgets, want 3", len(sum.Budgets))
		}
		if !sum.TotalSpent.Equal(decimal.NewFromInt(260000)) {
			t.Errorf("total spent = %s, want 260000", sum.TotalSpent)
		}
	})

	t.Run("empty selection", func(t *testing.T) {
		sum, err := budgets.Summarize(ctx, "user-1", SummaryOptions{Month: "2030-01"})
		if err != nil {
			t.Fatalf("Summarize: %v", err)
		}
		if len(sum.Budgets) != 0 {
			t.Errorf("selected %d budgets, want 0", len(sum.Budgets))
		}
		if !sum.TotalBudget.IsZero() || !sum.TotalSpent.IsZero() || !sum.TotalRemaining.IsZero() {
			t.Errorf("totals = %s/%s/%s, want zeros", sum.TotalBudget, sum.TotalSpent, sum.TotalRemaining)
		}
	})

	t.Run("bad month selector", func(t *testing.T) {
		if _, err := budgets.Summarize(ctx, "user-1", SummaryOptions{Month: "September"}); err == nil {
			t.Error("want an error for a non YYYY-MM selector")
		}
	})
}
