package services

import (
	"context"
	"errors"
	"fmt"

	"duit/internal/core"
)

// CategoryService turns category names into stored categories. Identity is
// the exact name; lookups never fold case.
type CategoryService struct {
	store CategoryStore
}

func NewCategoryService(store CategoryStore) *CategoryService {
	return &CategoryService{store: store}
}

// Resolve returns the category with the given name, creating it when absent.
// Two concurrent resolves of the same name may race on the insert; the loser
// hits the unique constraint and re-fetches the winner's row.
func (s *CategoryService) Resolve(ctx context.Context, name string) (core.Category, error) {
	cat, err := s.store.FindCategoryByName(ctx, name)
	if err == nil {
		return cat, nil
	}
	if !errors.Is(err, core.ErrNotFound) {
		return core.Category{}, fmt.Errorf("find category %q: %w", name, err)
	}

	cat, err = s.store.CreateCategory(ctx, name)
	if err == nil {
		return cat, nil
	}
	if !errors.Is(err, core.ErrCategoryConflict) {
		return core.Category{}, fmt.Errorf("create category %q: %w", name, err)
	}

	cat, err = s.store.FindCategoryByName(ctx, name)
	if err != nil {
		return core.Category{}, fmt.Errorf("refetch category %q after conflict: %w", name, err)
	}
	return cat, nil
}

// List returns every stored category, sorted by name.
func (s *CategoryService) List(ctx context.Context) ([]core.Category, error) {
	return s.store.ListCategories(ctx)
}
