package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/ankushm/storefront-backend/pkg/db/models"
	pkgerrors "github.com/ankushm/storefront-backend/pkg/errors"
)

// Service exposes cart management for authenticated shoppers.
type Service interface {
	GetCart(ctx context.Context, userID uuid.UUID) (*CartDTO, error)
	AddToCart(ctx context.Context, userID uuid.UUID, productID int64, qty int) (*CartDTO, error)
	UpdateLine(ctx context.Context, userID uuid.UUID, lineID int64, qty int) (*CartDTO, error)
	RemoveLine(ctx context.Context, userID uuid.UUID, lineID int64) (*CartDTO, error)
	ClearForUser(ctx context.Context, userID uuid.UUID) error
}

type cartRepository interface {
	ListForUser(ctx context.Context, userID uuid.UUID) ([]models.CartItem, error)
	FindLine(ctx context.Context, userID uuid.UUID, lineID int64) (*models.CartItem, error)
	FindLineByProduct(ctx context.Context, userID uuid.UUID, productID int64) (*models.CartItem, error)
	Create(ctx context.Context, item *models.CartItem) (*models.CartItem, error)
	UpdateQuantity(ctx context.Context, userID uuid.UUID, lineID int64, qty int) error
	DeleteLine(ctx context.Context, userID uuid.UUID, lineID int64) error
	ClearForUser(ctx context.Context, userID uuid.UUID) error
}

type productLoader interface {
	FindActiveByID(ctx context.Context, id int64) (*models.Product, error)
}

type service struct {
	repo     cartRepository
	products productLoader
}

// NewService builds the cart service.
func NewService(repo cartRepository, products productLoader) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if products == nil {
		return nil, fmt.Errorf("product loader required")
	}
	return &service{repo: repo, products: products}, nil
}

func (s *service) GetCart(ctx context.Context, userID uuid.UUID) (*CartDTO, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	return s.buildCart(ctx, userID)
}

func (s *service) AddToCart(ctx context.Context, userID uuid.UUID, productID int64, qty int) (*CartDTO, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	if qty <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}

	product, err := s.products.FindActiveByID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}

	existing, err := s.repo.FindLineByProduct(ctx, userID, productID)
	switch {
	case err == nil:
		// The stock guard here is advisory; checkout re-checks under the
		// order transaction.
		newQty := existing.Quantity + qty
		if newQty > product.Stock {
			return nil, insufficientStock(product, newQty)
		}
		if err := s.repo.UpdateQuantity(ctx, userID, existing.ID, newQty); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update cart line")
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		if qty > product.Stock {
			return nil, insufficientStock(product, qty)
		}
		item := &models.CartItem{
			UserID:    userID,
			ProductID: productID,
			Quantity:  qty,
		}
		if _, err := s.repo.Create(ctx, item); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create cart line")
		}
	default:
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart line")
	}

	return s.buildCart(ctx, userID)
}

func (s *service) UpdateLine(ctx context.Context, userID uuid.UUID, lineID int64, qty int) (*CartDTO, error) {
	if qty < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}

	line, err := s.repo.FindLine(ctx, userID, lineID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart line")
	}
	if line.Product != nil && qty > line.Product.Stock {
		return nil, insufficientStock(line.Product, qty)
	}

	if err := s.repo.UpdateQuantity(ctx, userID, lineID, qty); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update cart line")
	}
	return s.buildCart(ctx, userID)
}

func (s *service) RemoveLine(ctx context.Context, userID uuid.UUID, lineID int64) (*CartDTO, error) {
	if err := s.repo.DeleteLine(ctx, userID, lineID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete cart line")
	}
	return s.buildCart(ctx, userID)
}

func (s *service) ClearForUser(ctx context.Context, userID uuid.UUID) error {
	if err := s.repo.ClearForUser(ctx, userID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart")
	}
	return nil
}

func (s *service) buildCart(ctx context.Context, userID uuid.UUID) (*CartDTO, error) {
	rows, err := s.repo.ListForUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list cart lines")
	}

	dto := &CartDTO{Items: make([]LineDTO, 0, len(rows)), Total: decimal.Zero}
	for i := range rows {
		if rows[i].Product == nil || !rows[i].Product.IsActive {
			continue
		}
		line := lineFromModel(&rows[i])
		dto.Items = append(dto.Items, line)
		dto.Total = dto.Total.Add(line.Subtotal)
	}
	return dto, nil
}

func insufficientStock(product *models.Product, requested int) error {
	return pkgerrors.New(pkgerrors.CodeConflict, "insufficient stock").WithDetails(map[string]any{
		"product_id": product.ID,
		"product":    product.Name,
		"requested":  requested,
		"available":  product.Stock,
	})
}
