package cart

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/ankushm/storefront-backend/pkg/db/models"
	pkgerrors "github.com/ankushm/storefront-backend/pkg/errors"
)

type stubCartRepo struct {
	lines  map[int64]*models.CartItem
	nextID int64
}

func newStubCartRepo() *stubCartRepo {
	return &stubCartRepo{lines: make(map[int64]*models.CartItem), nextID: 1}
}

func (s *stubCartRepo) ListForUser(ctx context.Context, userID uuid.UUID) ([]models.CartItem, error) {
	var rows []models.CartItem
	for i := int64(1); i < s.nextID; i++ {
		if item, ok := s.lines[i]; ok && item.UserID == userID {
			rows = append(rows, *item)
		}
	}
	return rows, nil
}

func (s *stubCartRepo) FindLine(ctx context.Context, userID uuid.UUID, lineID int64) (*models.CartItem, error) {
	if item, ok := s.lines[lineID]; ok && item.UserID == userID {
		clone := *item
		return &clone, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubCartRepo) FindLineByProduct(ctx context.Context, userID uuid.UUID, productID int64) (*models.CartItem, error) {
	for _, item := range s.lines {
		if item.UserID == userID && item.ProductID == productID {
			clone := *item
			return &clone, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubCartRepo) Create(ctx context.Context, item *models.CartItem) (*models.CartItem, error) {
	item.ID = s.nextID
	s.nextID++
	s.lines[item.ID] = item
	return item, nil
}

func (s *stubCartRepo) UpdateQuantity(ctx context.Context, userID uuid.UUID, lineID int64, qty int) error {
	item, ok := s.lines[lineID]
	if !ok || item.UserID != userID {
		return gorm.ErrRecordNotFound
	}
	item.Quantity = qty
	return nil
}

func (s *stubCartRepo) DeleteLine(ctx context.Context, userID uuid.UUID, lineID int64) error {
	item, ok := s.lines[lineID]
	if !ok || item.UserID != userID {
		return gorm.ErrRecordNotFound
	}
	delete(s.lines, lineID)
	return nil
}

func (s *stubCartRepo) ClearForUser(ctx context.Context, userID uuid.UUID) error {
	for id, item := range s.lines {
		if item.UserID == userID {
			delete(s.lines, id)
		}
	}
	return nil
}

type stubProducts struct {
	products map[int64]*models.Product
}

func (s *stubProducts) FindActiveByID(ctx context.Context, id int64) (*models.Product, error) {
	if p, ok := s.products[id]; ok && p.IsActive {
		return p, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func widget(id int64, price string, stock int) *models.Product {
	return &models.Product{
		ID:       id,
		Name:     "Widget",
		Price:    decimal.RequireFromString(price),
		Stock:    stock,
		IsActive: true,
	}
}

func newTestService(t *testing.T, products ...*models.Product) (Service, *stubCartRepo) {
	t.Helper()
	repo := newStubCartRepo()
	loader := &stubProducts{products: make(map[int64]*models.Product)}
	for _, p := range products {
		loader.products[p.ID] = p
	}
	svc, err := NewService(repo, loader)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc, repo
}

func attachProducts(repo *stubCartRepo, products ...*models.Product) {
	byID := make(map[int64]*models.Product)
	for _, p := range products {
		byID[p.ID] = p
	}
	for _, line := range repo.lines {
		line.Product = byID[line.ProductID]
	}
}

func expectCode(t *testing.T, err error, code pkgerrors.Code) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", code)
	}
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != code {
		t.Fatalf("expected %s error, got %v", code, err)
	}
}

func TestAddToCartCreatesLineAndTotals(t *testing.T) {
	product := widget(1, "10.00", 5)
	svc, repo := newTestService(t, product)
	userID := uuid.New()

	_, err := svc.AddToCart(context.Background(), userID, 1, 2)
	if err != nil {
		t.Fatalf("add to cart: %v", err)
	}
	attachProducts(repo, product)

	dto, err := svc.GetCart(context.Background(), userID)
	if err != nil {
		t.Fatalf("get cart: %v", err)
	}
	if len(dto.Items) != 1 {
		t.Fatalf("expected one line, got %d", len(dto.Items))
	}
	if dto.Items[0].Quantity != 2 {
		t.Fatalf("expected quantity 2, got %d", dto.Items[0].Quantity)
	}
	if !dto.Total.Equal(decimal.RequireFromString("20.00")) {
		t.Fatalf("expected total 20.00, got %s", dto.Total)
	}
}

func TestAddToCartMergesDuplicateProduct(t *testing.T) {
	product := widget(1, "10.00", 5)
	svc, repo := newTestService(t, product)
	userID := uuid.New()

	if _, err := svc.AddToCart(context.Background(), userID, 1, 2); err != nil {
		t.Fatalf("first add: %v", err)
	}
	if _, err := svc.AddToCart(context.Background(), userID, 1, 3); err != nil {
		t.Fatalf("second add: %v", err)
	}

	if len(repo.lines) != 1 {
		t.Fatalf("expected one merged line, got %d", len(repo.lines))
	}
	for _, line := range repo.lines {
		if line.Quantity != 5 {
			t.Fatalf("expected merged quantity 5, got %d", line.Quantity)
		}
	}
}

func TestAddToCartValidation(t *testing.T) {
	svc, _ := newTestService(t, widget(1, "10.00", 5))
	userID := uuid.New()

	_, err := svc.AddToCart(context.Background(), userID, 1, 0)
	expectCode(t, err, pkgerrors.CodeValidation)

	_, err = svc.AddToCart(context.Background(), userID, 42, 1)
	expectCode(t, err, pkgerrors.CodeNotFound)

	_, err = svc.AddToCart(context.Background(), userID, 1, 6)
	expectCode(t, err, pkgerrors.CodeConflict)
}

func TestAddToCartRejectsMergedQuantityOverStock(t *testing.T) {
	svc, _ := newTestService(t, widget(1, "10.00", 5))
	userID := uuid.New()

	if _, err := svc.AddToCart(context.Background(), userID, 1, 4); err != nil {
		t.Fatalf("first add: %v", err)
	}
	_, err := svc.AddToCart(context.Background(), userID, 1, 2)
	expectCode(t, err, pkgerrors.CodeConflict)
}

func TestUpdateLineQuantity(t *testing.T) {
	product := widget(1, "10.00", 5)
	svc, repo := newTestService(t, product)
	userID := uuid.New()

	if _, err := svc.AddToCart(context.Background(), userID, 1, 2); err != nil {
		t.Fatalf("add: %v", err)
	}
	attachProducts(repo, product)

	if _, err := svc.UpdateLine(context.Background(), userID, 1, 4); err != nil {
		t.Fatalf("update line: %v", err)
	}
	if repo.lines[1].Quantity != 4 {
		t.Fatalf("expected quantity 4, got %d", repo.lines[1].Quantity)
	}

	_, err := svc.UpdateLine(context.Background(), userID, 1, 0)
	expectCode(t, err, pkgerrors.CodeValidation)

	_, err = svc.UpdateLine(context.Background(), userID, 1, 9)
	expectCode(t, err, pkgerrors.CodeConflict)

	_, err = svc.UpdateLine(context.Background(), userID, 404, 2)
	expectCode(t, err, pkgerrors.CodeNotFound)
}

func TestUpdateLineOwnershipEnforced(t *testing.T) {
	product := widget(1, "10.00", 5)
	svc, repo := newTestService(t, product)
	owner := uuid.New()

	if _, err := svc.AddToCart(context.Background(), owner, 1, 2); err != nil {
		t.Fatalf("add: %v", err)
	}
	attachProducts(repo, product)

	_, err := svc.UpdateLine(context.Background(), uuid.New(), 1, 3)
	expectCode(t, err, pkgerrors.CodeNotFound)
}

func TestRemoveLine(t *testing.T) {
	product := widget(1, "10.00", 5)
	svc, repo := newTestService(t, product)
	userID := uuid.New()

	if _, err := svc.AddToCart(context.Background(), userID, 1, 2); err != nil {
		t.Fatalf("add: %v", err)
	}
	attachProducts(repo, product)

	dto, err := svc.RemoveLine(context.Background(), userID, 1)
	if err != nil {
		t.Fatalf("remove line: %v", err)
	}
	if len(dto.Items) != 0 {
		t.Fatalf("expected empty cart, got %d items", len(dto.Items))
	}

	_, err = svc.RemoveLine(context.Background(), userID, 1)
	expectCode(t, err, pkgerrors.CodeNotFound)
}

func TestGetCartSkipsUnlistedProducts(t *testing.T) {
	active := widget(1, "10.00", 5)
	retired := widget(2, "4.00", 5)
	retired.IsActive = false

	svc, repo := newTestService(t, active, retired)
	userID := uuid.New()

	if _, err := svc.AddToCart(context.Background(), userID, 1, 1); err != nil {
		t.Fatalf("add: %v", err)
	}
	// Simulate the product being unlisted after it was added.
	repo.Create(context.Background(), &models.CartItem{UserID: userID, ProductID: 2, Quantity: 1})
	attachProducts(repo, active, retired)

	dto, err := svc.GetCart(context.Background(), userID)
	if err != nil {
		t.Fatalf("get cart: %v", err)
	}
	if len(dto.Items) != 1 || dto.Items[0].ProductID != 1 {
		t.Fatalf("expected only the active product line, got %+v", dto.Items)
	}
}
