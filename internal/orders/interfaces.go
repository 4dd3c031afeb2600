package orders

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ankushm/storefront-backend/pkg/db/models"
)

// Store defines the persistence surface required by the orders service.
type Store interface {
	WithTx(tx *gorm.DB) Store
	CreateOrder(ctx context.Context, order *models.Order) (*models.Order, error)
	CreateOrderItems(ctx context.Context, items []models.OrderItem) error
	DecrementStock(ctx context.Context, productID int64, qty int) (bool, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Order, error)
	FindByIDAndUser(ctx context.Context, orderID int64, userID uuid.UUID) (*models.Order, error)
}
