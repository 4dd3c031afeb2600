package cart

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ankushm/storefront-backend/pkg/db/models"
)

// CartRepository defines the persistence surface shared with checkout.
type CartRepository interface {
	WithTx(tx *gorm.DB) CartRepository
	ListForUser(ctx context.Context, userID uuid.UUID) ([]models.CartItem, error)
	FindLine(ctx context.Context, userID uuid.UUID, lineID int64) (*models.CartItem, error)
	FindLineByProduct(ctx context.Context, userID uuid.UUID, productID int64) (*models.CartItem, error)
	Create(ctx context.Context, item *models.CartItem) (*models.CartItem, error)
	UpdateQuantity(ctx context.Context, userID uuid.UUID, lineID int64, qty int) error
	DeleteLine(ctx context.Context, userID uuid.UUID, lineID int64) error
	ClearForUser(ctx context.Context, userID uuid.UUID) error
}
