package orders

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/ankushm/storefront-backend/pkg/db/models"
	"github.com/ankushm/storefront-backend/pkg/enums"
)

// PlaceOrderInput carries the checkout payload.
type PlaceOrderInput struct {
	ShippingAddress string
}

// PlaceOrderResult is returned after a committed checkout.
type PlaceOrderResult struct {
	OrderID int64           `json:"order_id"`
	Total   decimal.Decimal `json:"total"`
}

// ItemDTO is one order line with the product snapshot taken at checkout.
type ItemDTO struct {
	ID        int64           `json:"id"`
	ProductID int64           `json:"product_id"`
	Name      string          `json:"name,omitempty"`
	ImageURL  *string         `json:"image_url,omitempty"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

// OrderDTO is the order read model.
type OrderDTO struct {
	ID              int64             `json:"id"`
	Total           decimal.Decimal   `json:"total"`
	Status          enums.OrderStatus `json:"status"`
	ShippingAddress string            `json:"shipping_address,omitempty"`
	CreatedAt       time.Time         `json:"created_at"`
	Items           []ItemDTO         `json:"items,omitempty"`
}

func orderToDTO(order *models.Order, imageURL func(key string) string) OrderDTO {
	dto := OrderDTO{
		ID:              order.ID,
		Total:           order.TotalAmount,
		Status:          order.Status,
		ShippingAddress: order.ShippingAddress,
		CreatedAt:       order.CreatedAt,
	}
	for i := range order.Items {
		item := &order.Items[i]
		line := ItemDTO{
			ID:        item.ID,
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Price:     item.Price,
			Subtotal:  item.Price.Mul(decimal.NewFromInt(int64(item.Quantity))),
		}
		if item.Product != nil {
			line.Name = item.Product.Name
			if item.Product.ImageKey != nil && *item.Product.ImageKey != "" {
				url := *item.Product.ImageKey
				if imageURL != nil {
					url = imageURL(*item.Product.ImageKey)
				}
				line.ImageURL = &url
			}
		}
		dto.Items = append(dto.Items, line)
	}
	return dto
}
