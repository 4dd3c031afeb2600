package routes

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	authsvc "github.com/ankushm/storefront-backend/internal/auth"
	cartsvc "github.com/ankushm/storefront-backend/internal/cart"
	"github.com/ankushm/storefront-backend/internal/catalog"
	ordersvc "github.com/ankushm/storefront-backend/internal/orders"
	pkgAuth "github.com/ankushm/storefront-backend/pkg/auth"
	"github.com/ankushm/storefront-backend/pkg/config"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error { return nil }

type stubCatalogService struct{}

func (stubCatalogService) List(context.Context, catalog.ListInput) (*catalog.ListResult, error) {
	return &catalog.ListResult{}, nil
}
func (stubCatalogService) Get(context.Context, int64) (*catalog.ProductDTO, error) {
	return &catalog.ProductDTO{ID: 1}, nil
}
func (stubCatalogService) Create(context.Context, catalog.CreateInput) (*catalog.ProductDTO, error) {
	return &catalog.ProductDTO{ID: 1}, nil
}
func (stubCatalogService) Update(context.Context, int64, catalog.UpdateInput) (*catalog.ProductDTO, error) {
	return &catalog.ProductDTO{ID: 1}, nil
}
func (stubCatalogService) Delete(context.Context, int64) error { return nil }

type stubCartService struct{}

func (stubCartService) GetCart(context.Context, uuid.UUID) (*cartsvc.CartDTO, error) {
	return &cartsvc.CartDTO{}, nil
}
func (stubCartService) AddToCart(context.Context, uuid.UUID, int64, int) (*cartsvc.CartDTO, error) {
	return &cartsvc.CartDTO{}, nil
}
func (stubCartService) UpdateLine(context.Context, uuid.UUID, int64, int) (*cartsvc.CartDTO, error) {
	return &cartsvc.CartDTO{}, nil
}
func (stubCartService) RemoveLine(context.Context, uuid.UUID, int64) (*cartsvc.CartDTO, error) {
	return &cartsvc.CartDTO{}, nil
}
func (stubCartService) ClearForUser(context.Context, uuid.UUID) error { return nil }

type stubOrdersService struct{}

func (stubOrdersService) PlaceOrder(context.Context, uuid.UUID, ordersvc.PlaceOrderInput) (*ordersvc.PlaceOrderResult, error) {
	return &ordersvc.PlaceOrderResult{OrderID: 1}, nil
}
func (stubOrdersService) ListOrders(context.Context, uuid.UUID) ([]ordersvc.OrderDTO, error) {
	return nil, nil
}
func (stubOrdersService) GetOrder(context.Context, uuid.UUID, int64) (*ordersvc.OrderDTO, error) {
	return &ordersvc.OrderDTO{ID: 1}, nil
}

type stubAuthService struct{}

func (stubAuthService) Register(context.Context, authsvc.RegisterRequest) (*authsvc.AuthResponse, error) {
	return &authsvc.AuthResponse{AccessToken: "token"}, nil
}
func (stubAuthService) Login(context.Context, authsvc.LoginRequest) (*authsvc.AuthResponse, error) {
	return &authsvc.AuthResponse{AccessToken: "token"}, nil
}
func (stubAuthService) VerifyToken(context.Context, string) (*pkgAuth.AccessTokenClaims, error) {
	return &pkgAuth.AccessTokenClaims{}, nil
}
func (stubAuthService) Logout(context.Context, string) error { return nil }

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test", Port: "8080"},
		JWT: config.JWTConfig{Secret: "secret", Issuer: "storefront", ExpirationHours: 1},
	}
}

func newTestRouter() http.Handler {
	return NewRouter(Deps{
		Config:         testConfig(),
		DBPinger:       stubPinger{},
		RedisPinger:    stubPinger{},
		AuthService:    stubAuthService{},
		CatalogService: stubCatalogService{},
		CartService:    stubCartService{},
		OrdersService:  stubOrdersService{},
	})
}

func mintToken(t *testing.T, isAdmin bool) string {
	t.Helper()
	token, err := pkgAuth.MintAccessToken(testConfig().JWT, time.Now().UTC(), pkgAuth.AccessTokenPayload{
		UserID:  uuid.New(),
		Email:   "user@example.com",
		Name:    "User",
		IsAdmin: isAdmin,
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

func TestRouterPublicEndpoints(t *testing.T) {
	router := newTestRouter()

	cases := []struct {
		method string
		path   string
		want   int
	}{
		{http.MethodGet, "/health/live", http.StatusOK},
		{http.MethodGet, "/health/ready", http.StatusOK},
		{http.MethodGet, "/api/products", http.StatusOK},
		{http.MethodGet, "/api/products/1", http.StatusOK},
	}
	for _, tc := range cases {
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, httptest.NewRequest(tc.method, tc.path, nil))
		if resp.Code != tc.want {
			t.Fatalf("%s %s: expected %d got %d", tc.method, tc.path, tc.want, resp.Code)
		}
	}
}

func TestRouterProtectedEndpointsRequireAuth(t *testing.T) {
	router := newTestRouter()

	paths := []string{"/api/cart", "/api/orders", "/api/admin/products"}
	for _, path := range paths {
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, path, nil))
		if resp.Code != http.StatusUnauthorized {
			t.Fatalf("GET %s: expected 401 got %d", path, resp.Code)
		}
	}
}

func TestRouterAuthenticatedAccess(t *testing.T) {
	router := newTestRouter()
	token := mintToken(t, false)

	req := httptest.NewRequest(http.MethodGet, "/api/cart", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
}

func TestRouterAdminGuard(t *testing.T) {
	router := newTestRouter()

	req := httptest.NewRequest(http.MethodGet, "/api/admin/products", nil)
	req.Header.Set("Authorization", "Bearer "+mintToken(t, false))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for non-admin got %d", resp.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/admin/products", nil)
	req.Header.Set("Authorization", "Bearer "+mintToken(t, true))
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for admin got %d", resp.Code)
	}
}
