package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ankushm/storefront-backend/pkg/enums"
)

type Order struct {
	ID              int64             `gorm:"column:id;primaryKey;autoIncrement"`
	UserID          uuid.UUID         `gorm:"column:user_id;type:uuid;not null;index"`
	TotalAmount     decimal.Decimal   `gorm:"column:total_amount;type:numeric(10,2);not null"`
	Status          enums.OrderStatus `gorm:"column:status;not null;default:pending"`
	ShippingAddress string            `gorm:"column:shipping_address"`
	CreatedAt       time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time         `gorm:"column:updated_at;autoUpdateTime"`

	Items []OrderItem `gorm:"foreignKey:OrderID;references:ID"`
}
