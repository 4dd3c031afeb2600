package catalog

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/ankushm/storefront-backend/pkg/db/models"
	"github.com/ankushm/storefront-backend/pkg/pagination"
)

// ProductDTO is the read model served to storefront clients.
type ProductDTO struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Category    string          `json:"category"`
	Stock       int             `json:"stock"`
	ImageURL    *string         `json:"image_url,omitempty"`
	IsActive    bool            `json:"is_active"`
	CreatedAt   time.Time       `json:"created_at"`
}

// ListFilters describe the supported filter knobs for the browse endpoint.
type ListFilters struct {
	Category        string
	PriceMin        *decimal.Decimal
	PriceMax        *decimal.Decimal
	Query           string
	IncludeInactive bool
}

// ListInput captures the inputs needed to paginate/filter the catalog.
type ListInput struct {
	Filters    ListFilters
	Pagination pagination.Params
}

// ListResult: one page of products plus the cursor for the next page.
type ListResult struct {
	Products   []ProductDTO `json:"products"`
	NextCursor string       `json:"next_cursor,omitempty"`
}

// CreateInput holds the validated payload to create a product.
type CreateInput struct {
	Name        string
	Description string
	Price       decimal.Decimal
	Category    string
	Stock       int
	ImageKey    *string
}

// UpdateInput holds optional mutation values for a product. Nil fields are
// left untouched.
type UpdateInput struct {
	Name        *string
	Description *string
	Price       *decimal.Decimal
	Category    *string
	Stock       *int
	ImageKey    *string
	IsActive    *bool
}

// IsEmpty reports whether the update carries no changes.
func (u UpdateInput) IsEmpty() bool {
	return u.Name == nil && u.Description == nil && u.Price == nil &&
		u.Category == nil && u.Stock == nil && u.ImageKey == nil && u.IsActive == nil
}

func toDTO(p *models.Product, imageURL func(key string) string) ProductDTO {
	dto := ProductDTO{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
		Category:    p.Category,
		Stock:       p.Stock,
		IsActive:    p.IsActive,
		CreatedAt:   p.CreatedAt,
	}
	if p.ImageKey != nil && *p.ImageKey != "" {
		url := *p.ImageKey
		if imageURL != nil {
			url = imageURL(*p.ImageKey)
		}
		dto.ImageURL = &url
	}
	return dto
}
