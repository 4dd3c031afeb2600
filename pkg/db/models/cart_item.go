package models

import (
	"time"

	"github.com/google/uuid"
)

// CartItem holds one line of a user's cart. The composite unique index keeps
// a single row per (user, product); adding the same product again bumps the
// quantity instead of inserting a duplicate.
type CartItem struct {
	ID        int64     `gorm:"column:id;primaryKey;autoIncrement"`
	UserID    uuid.UUID `gorm:"column:user_id;type:uuid;not null;uniqueIndex:uq_cart_user_product"`
	ProductID int64     `gorm:"column:product_id;not null;uniqueIndex:uq_cart_user_product"`
	Quantity  int       `gorm:"column:quantity;not null;check:quantity > 0"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`

	Product *Product `gorm:"foreignKey:ProductID;references:ID"`
}
