package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/ankushm/storefront-backend/internal/cart"
	"github.com/ankushm/storefront-backend/pkg/db/models"
	"github.com/ankushm/storefront-backend/pkg/enums"
	pkgerrors "github.com/ankushm/storefront-backend/pkg/errors"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type urlResolver interface {
	ObjectURL(key string) string
}

// Service executes checkout and serves order history.
type Service interface {
	PlaceOrder(ctx context.Context, userID uuid.UUID, input PlaceOrderInput) (*PlaceOrderResult, error)
	ListOrders(ctx context.Context, userID uuid.UUID) ([]OrderDTO, error)
	GetOrder(ctx context.Context, userID uuid.UUID, orderID int64) (*OrderDTO, error)
}

type service struct {
	tx       txRunner
	store    Store
	cartRepo cart.CartRepository
	resolver urlResolver
}

// NewService builds the orders service. The resolver is optional.
func NewService(tx txRunner, store Store, cartRepo cart.CartRepository, resolver urlResolver) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if store == nil {
		return nil, fmt.Errorf("orders store required")
	}
	if cartRepo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	return &service{tx: tx, store: store, cartRepo: cartRepo, resolver: resolver}, nil
}

// PlaceOrder converts the user's cart into an order inside one transaction.
// Stock is re-checked per line with a conditional decrement so concurrent
// checkouts can never oversell, whatever the earlier advisory checks said.
func (s *service) PlaceOrder(ctx context.Context, userID uuid.UUID, input PlaceOrderInput) (*PlaceOrderResult, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}

	var result *PlaceOrderResult
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		store := s.store.WithTx(tx)
		cartRepo := s.cartRepo.WithTx(tx)

		rows, err := cartRepo.ListForUser(ctx, userID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
		}

		lines := make([]models.CartItem, 0, len(rows))
		for _, row := range rows {
			if row.Product == nil {
				return wrapProductUnavailable(row.ProductID)
			}
			if !row.Product.IsActive {
				continue
			}
			lines = append(lines, row)
		}
		if len(lines) == 0 {
			return pkgerrors.Wrap(pkgerrors.CodeValidation, ErrEmptyCart, "cart is empty")
		}

		// All-or-nothing pre-check before any write.
		total := decimal.Zero
		for _, line := range lines {
			if line.Quantity > line.Product.Stock {
				return wrapInsufficientStock(line.Product, line.Quantity)
			}
			total = total.Add(line.Product.Price.Mul(decimal.NewFromInt(int64(line.Quantity))))
		}
		total = total.Round(2)

		order, err := store.CreateOrder(ctx, &models.Order{
			UserID:          userID,
			TotalAmount:     total,
			Status:          enums.OrderStatusPending,
			ShippingAddress: strings.TrimSpace(input.ShippingAddress),
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
		}

		items := make([]models.OrderItem, 0, len(lines))
		for _, line := range lines {
			items = append(items, models.OrderItem{
				OrderID:   order.ID,
				ProductID: line.ProductID,
				Quantity:  line.Quantity,
				Price:     line.Product.Price,
			})
		}
		if err := store.CreateOrderItems(ctx, items); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order items")
		}

		for _, line := range lines {
			ok, err := store.DecrementStock(ctx, line.ProductID, line.Quantity)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decrement stock")
			}
			if !ok {
				return wrapInsufficientStock(line.Product, line.Quantity)
			}
		}

		if err := cartRepo.ClearForUser(ctx, userID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart")
		}

		result = &PlaceOrderResult{OrderID: order.ID, Total: total}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *service) ListOrders(ctx context.Context, userID uuid.UUID) ([]OrderDTO, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	rows, err := s.store.ListByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	dtos := make([]OrderDTO, 0, len(rows))
	for i := range rows {
		dtos = append(dtos, orderToDTO(&rows[i], s.imageURL))
	}
	return dtos, nil
}

func (s *service) GetOrder(ctx context.Context, userID uuid.UUID, orderID int64) (*OrderDTO, error) {
	order, err := s.store.FindByIDAndUser(ctx, orderID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	dto := orderToDTO(order, s.imageURL)
	return &dto, nil
}

func (s *service) imageURL(key string) string {
	if s.resolver == nil {
		return key
	}
	return s.resolver.ObjectURL(key)
}

func wrapInsufficientStock(product *models.Product, requested int) error {
	cause := &InsufficientStockError{
		ProductID:   product.ID,
		ProductName: product.Name,
		Requested:   requested,
		Available:   product.Stock,
	}
	return pkgerrors.Wrap(pkgerrors.CodeConflict, cause, "insufficient stock").WithDetails(map[string]any{
		"product_id": cause.ProductID,
		"product":    cause.ProductName,
		"requested":  cause.Requested,
		"available":  cause.Available,
	})
}

func wrapProductUnavailable(productID int64) error {
	return pkgerrors.Wrap(pkgerrors.CodeConflict, &ProductUnavailableError{ProductID: productID}, "product no longer available")
}
