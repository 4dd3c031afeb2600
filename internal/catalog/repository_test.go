package catalog

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/ankushm/storefront-backend/pkg/db/models"
	"github.com/ankushm/storefront-backend/pkg/pagination"
)

func mustCreateProduct(t *testing.T, repo *Repository, name, category string, price string, stock int, active bool, createdAt time.Time) *models.Product {
	t.Helper()
	product := &models.Product{
		Name:      name,
		Price:     decimal.RequireFromString(price),
		Category:  category,
		Stock:     stock,
		IsActive:  active,
		CreatedAt: createdAt,
	}
	created, err := repo.Create(context.Background(), product)
	if err != nil {
		t.Fatalf("create product %s: %v", name, err)
	}
	return created
}

func TestRepositoryListFiltersInactiveByDefault(t *testing.T) {
	repo := NewRepository(openTestDB(t))
	now := time.Now().UTC()

	mustCreateProduct(t, repo, "Widget", "tools", "10.00", 5, true, now)
	mustCreateProduct(t, repo, "Relic", "tools", "8.00", 2, false, now.Add(-time.Minute))

	rows, err := repo.List(context.Background(), ListFilters{}, nil, 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(rows) != 1 || rows[0].Name != "Widget" {
		t.Fatalf("expected only the active product, got %+v", rows)
	}

	rows, err = repo.List(context.Background(), ListFilters{IncludeInactive: true}, nil, 10)
	if err != nil {
		t.Fatalf("list with inactive: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected both products, got %d", len(rows))
	}
}

func TestRepositoryListCategoryAndQueryFilters(t *testing.T) {
	repo := NewRepository(openTestDB(t))
	now := time.Now().UTC()

	mustCreateProduct(t, repo, "Ceramic Mug", "kitchen", "12.50", 10, true, now)
	mustCreateProduct(t, repo, "Steel Pan", "kitchen", "40.00", 3, true, now.Add(-time.Minute))
	mustCreateProduct(t, repo, "Desk Lamp", "office", "25.00", 7, true, now.Add(-2*time.Minute))

	rows, err := repo.List(context.Background(), ListFilters{Category: "kitchen"}, nil, 10)
	if err != nil {
		t.Fatalf("list by category: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 kitchen products, got %d", len(rows))
	}

	rows, err = repo.List(context.Background(), ListFilters{Query: "mug"}, nil, 10)
	if err != nil {
		t.Fatalf("list by query: %v", err)
	}
	if len(rows) != 1 || rows[0].Name != "Ceramic Mug" {
		t.Fatalf("expected mug match, got %+v", rows)
	}
}

func TestRepositoryListCursorPagination(t *testing.T) {
	repo := NewRepository(openTestDB(t))
	base := time.Date(2025, 4, 1, 9, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		mustCreateProduct(t, repo, "Item", "misc", "1.00", 1, true, base.Add(time.Duration(i)*time.Minute))
	}

	first, err := repo.List(context.Background(), ListFilters{}, nil, 3)
	if err != nil {
		t.Fatalf("first page: %v", err)
	}
	if len(first) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(first))
	}

	last := first[len(first)-1]
	second, err := repo.List(context.Background(), ListFilters{}, &pagination.Cursor{
		CreatedAt: last.CreatedAt,
		ID:        last.ID,
	}, 3)
	if err != nil {
		t.Fatalf("second page: %v", err)
	}
	if len(second) != 2 {
		t.Fatalf("expected 2 remaining rows, got %d", len(second))
	}
	for _, row := range second {
		if !row.CreatedAt.Before(last.CreatedAt) {
			t.Fatalf("second page row %d not older than cursor", row.ID)
		}
	}
}

func TestRepositoryUpdateAppliesOnlyProvidedFields(t *testing.T) {
	repo := NewRepository(openTestDB(t))
	created := mustCreateProduct(t, repo, "Widget", "tools", "10.00", 5, true, time.Now().UTC())

	newPrice := decimal.RequireFromString("12.75")
	updated, err := repo.Update(context.Background(), created.ID, UpdateInput{Price: &newPrice})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if !updated.Price.Equal(newPrice) {
		t.Fatalf("expected price %s, got %s", newPrice, updated.Price)
	}
	if updated.Name != "Widget" || updated.Stock != 5 {
		t.Fatalf("untouched fields changed: %+v", updated)
	}
}

func TestRepositoryUpdateMissingProduct(t *testing.T) {
	repo := NewRepository(openTestDB(t))
	name := "Ghost"
	_, err := repo.Update(context.Background(), 9999, UpdateInput{Name: &name})
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("expected record not found, got %v", err)
	}
}

func TestRepositorySoftDelete(t *testing.T) {
	repo := NewRepository(openTestDB(t))
	created := mustCreateProduct(t, repo, "Widget", "tools", "10.00", 5, true, time.Now().UTC())

	if err := repo.SoftDelete(context.Background(), created.ID); err != nil {
		t.Fatalf("soft delete: %v", err)
	}

	if _, err := repo.FindActiveByID(context.Background(), created.ID); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("expected active lookup to miss, got %v", err)
	}

	row, err := repo.FindByID(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("find by id: %v", err)
	}
	if row.IsActive {
		t.Fatal("expected product to be inactive")
	}

	if err := repo.SoftDelete(context.Background(), created.ID); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("expected second delete to report not found, got %v", err)
	}
}
