package orders

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/ankushm/storefront-backend/internal/cart"
	"github.com/ankushm/storefront-backend/pkg/db"
	"github.com/ankushm/storefront-backend/pkg/db/models"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		SkipDefaultTransaction: true,
	})
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	if err := conn.AutoMigrate(
		&models.User{},
		&models.Product{},
		&models.CartItem{},
		&models.Order{},
		&models.OrderItem{},
	); err != nil {
		t.Fatalf("failed to migrate test db: %v", err)
	}
	return conn
}

type testEnv struct {
	conn     *gorm.DB
	client   *db.Client
	cartRepo *cart.Repository
	store    *Repository
	svc      Service
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	conn := openTestDB(t)
	client := db.NewWithConn(conn)
	cartRepo := cart.NewRepository(conn)
	store := NewRepository(conn)

	svc, err := NewService(client, store, cartRepo, nil)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return &testEnv{conn: conn, client: client, cartRepo: cartRepo, store: store, svc: svc}
}

func (e *testEnv) mustCreateUser(t *testing.T) uuid.UUID {
	t.Helper()
	user := &models.User{
		ID:           uuid.New(),
		Name:         "Shopper",
		Email:        fmt.Sprintf("shopper_%s@example.com", uuid.NewString()),
		PasswordHash: "hash",
	}
	if err := e.conn.Create(user).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	return user.ID
}

func (e *testEnv) mustCreateProduct(t *testing.T, name, price string, stock int) *models.Product {
	t.Helper()
	product := &models.Product{
		Name:     name,
		Price:    decimal.RequireFromString(price),
		Stock:    stock,
		IsActive: true,
	}
	if err := e.conn.Create(product).Error; err != nil {
		t.Fatalf("create product %s: %v", name, err)
	}
	return product
}

func (e *testEnv) mustAddToCart(t *testing.T, userID uuid.UUID, productID int64, qty int) {
	t.Helper()
	item := &models.CartItem{UserID: userID, ProductID: productID, Quantity: qty}
	if err := e.conn.Create(item).Error; err != nil {
		t.Fatalf("add cart line: %v", err)
	}
}

func (e *testEnv) productStock(t *testing.T, id int64) int {
	t.Helper()
	var product models.Product
	if err := e.conn.First(&product, "id = ?", id).Error; err != nil {
		t.Fatalf("load product: %v", err)
	}
	return product.Stock
}

func (e *testEnv) countOrders(t *testing.T) int64 {
	t.Helper()
	var count int64
	if err := e.conn.Model(&models.Order{}).Count(&count).Error; err != nil {
		t.Fatalf("count orders: %v", err)
	}
	return count
}

func (e *testEnv) countCartLines(t *testing.T, userID uuid.UUID) int64 {
	t.Helper()
	var count int64
	if err := e.conn.Model(&models.CartItem{}).Where("user_id = ?", userID).Count(&count).Error; err != nil {
		t.Fatalf("count cart lines: %v", err)
	}
	return count
}

var testCtx = context.Background()
