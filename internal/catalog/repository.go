package catalog

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/ankushm/storefront-backend/pkg/db/models"
	"github.com/ankushm/storefront-backend/pkg/pagination"
)

// Repository wires together catalog persistence helpers.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// Create inserts a new product listing.
func (r *Repository) Create(ctx context.Context, product *models.Product) (*models.Product, error) {
	if err := r.db.WithContext(ctx).Create(product).Error; err != nil {
		return nil, err
	}
	return product, nil
}

// FindByID loads the product regardless of its active state.
func (r *Repository) FindByID(ctx context.Context, id int64) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).First(&product, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// FindActiveByID loads the product only when it is still listed.
func (r *Repository) FindActiveByID(ctx context.Context, id int64) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).
		First(&product, "id = ? AND is_active = ?", id, true).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// List returns one page of products ordered newest first. The caller passes
// limit+1 via pagination to detect the next page.
func (r *Repository) List(ctx context.Context, filters ListFilters, cursor *pagination.Cursor, limit int) ([]models.Product, error) {
	query := r.db.WithContext(ctx).Model(&models.Product{})

	if !filters.IncludeInactive {
		query = query.Where("is_active = ?", true)
	}
	if filters.Category != "" {
		query = query.Where("category = ?", filters.Category)
	}
	if filters.PriceMin != nil {
		query = query.Where("price >= ?", *filters.PriceMin)
	}
	if filters.PriceMax != nil {
		query = query.Where("price <= ?", *filters.PriceMax)
	}
	if q := strings.TrimSpace(filters.Query); q != "" {
		pattern := "%" + strings.ToLower(q) + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(description) LIKE ?", pattern, pattern)
	}
	if cursor != nil {
		query = query.Where(
			"created_at < ? OR (created_at = ? AND id < ?)",
			cursor.CreatedAt, cursor.CreatedAt, cursor.ID,
		)
	}

	var rows []models.Product
	if err := query.
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// Update applies the non-nil fields of input to the product row and returns
// the updated record. The column set is a fixed allowlist.
func (r *Repository) Update(ctx context.Context, id int64, input UpdateInput) (*models.Product, error) {
	changes := map[string]any{}
	if input.Name != nil {
		changes["name"] = *input.Name
	}
	if input.Description != nil {
		changes["description"] = *input.Description
	}
	if input.Price != nil {
		changes["price"] = *input.Price
	}
	if input.Category != nil {
		changes["category"] = *input.Category
	}
	if input.Stock != nil {
		changes["stock"] = *input.Stock
	}
	if input.ImageKey != nil {
		changes["image_key"] = *input.ImageKey
	}
	if input.IsActive != nil {
		changes["is_active"] = *input.IsActive
	}

	if len(changes) > 0 {
		result := r.db.WithContext(ctx).
			Model(&models.Product{}).
			Where("id = ?", id).
			Updates(changes)
		if result.Error != nil {
			return nil, result.Error
		}
		if result.RowsAffected == 0 {
			return nil, gorm.ErrRecordNotFound
		}
	}

	return r.FindByID(ctx, id)
}

// SoftDelete marks the product inactive while keeping the row for order history.
func (r *Repository) SoftDelete(ctx context.Context, id int64) error {
	result := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ? AND is_active = ?", id, true).
		Update("is_active", false)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
