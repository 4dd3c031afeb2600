package cart

import (
	"github.com/shopspring/decimal"

	"github.com/ankushm/storefront-backend/pkg/db/models"
)

// LineDTO is one cart row joined with live product data.
type LineDTO struct {
	ID        int64           `json:"id"`
	ProductID int64           `json:"product_id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
	Subtotal  decimal.Decimal `json:"subtotal"`
	Stock     int             `json:"stock"`
}

// CartDTO is the full cart view returned to clients.
type CartDTO struct {
	Items []LineDTO       `json:"items"`
	Total decimal.Decimal `json:"total"`
}

func lineFromModel(item *models.CartItem) LineDTO {
	line := LineDTO{
		ID:        item.ID,
		ProductID: item.ProductID,
		Quantity:  item.Quantity,
	}
	if item.Product != nil {
		line.Name = item.Product.Name
		line.Price = item.Product.Price
		line.Stock = item.Product.Stock
		line.Subtotal = item.Product.Price.Mul(decimal.NewFromInt(int64(item.Quantity)))
	}
	return line
}
