package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is the canonical catalog listing. Rows are soft-deleted via IsActive
// so historical order lines keep a valid reference.
type Product struct {
	ID          int64           `gorm:"column:id;primaryKey;autoIncrement"`
	Name        string          `gorm:"column:name;not null"`
	Description string          `gorm:"column:description"`
	Price       decimal.Decimal `gorm:"column:price;type:numeric(10,2);not null"`
	Category    string          `gorm:"column:category"`
	Stock       int             `gorm:"column:stock;not null;default:0;check:stock >= 0"`
	ImageKey    *string         `gorm:"column:image_key"`
	IsActive    bool            `gorm:"column:is_active;not null;default:true"`
	CreatedAt   time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
