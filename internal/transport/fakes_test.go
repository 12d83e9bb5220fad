package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"ryven-shop/internal/domain"
	"ryven-shop/internal/inflight"
	"ryven-shop/internal/middleware"
	"ryven-shop/internal/repository"
	"ryven-shop/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testSecret = "transport-secret"

type fakeOrders struct {
	mu        sync.Mutex
	orders    []*domain.Order
	listErr   error
	statusErr error
	deleteErr error
	createErr error
}

func (f *fakeOrders) List(ctx context.Context) ([]*domain.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]*domain.Order, len(f.orders))
	for i, o := range f.orders {
		out[i] = o.Clone()
	}
	return out, nil
}

func (f *fakeOrders) SetStatus(ctx context.Context, orderID string, status domain.OrderStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.statusErr != nil {
		return f.statusErr
	}
	for _, o := range f.orders {
		if o.OrderID == orderID {
			o.Status = status
		}
	}
	return nil
}

func (f *fakeOrders) Delete(ctx context.Context, orderID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return f.deleteErr
	}
	kept := f.orders[:0]
	for _, o := range f.orders {
		if o.OrderID != orderID {
			kept = append(kept, o)
		}
	}
	f.orders = kept
	return nil
}

func (f *fakeOrders) Create(ctx context.Context, order *domain.Order) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	f.orders = append(f.orders, order.Clone())
	return nil
}

type fakeProducts struct {
	mu       sync.Mutex
	products []*domain.Product
	nextID   int64
	uploads  map[string][]byte
	listErr  error
	saveErr  error
}

func (f *fakeProducts) List(ctx context.Context) ([]*domain.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]*domain.Product, len(f.products))
	for i, p := range f.products {
		c := *p
		out[i] = &c
	}
	return out, nil
}

func (f *fakeProducts) FindByID(ctx context.Context, id int64) (*domain.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.products {
		if p.ID == id {
			c := *p
			return &c, nil
		}
	}
	return nil, repository.ErrProductNotFound
}

func (f *fakeProducts) Create(ctx context.Context, product *domain.Product) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return f.saveErr
	}
	f.nextID++
	c := *product
	c.ID = f.nextID
	f.products = append(f.products, &c)
	return nil
}

func (f *fakeProducts) Update(ctx context.Context, product *domain.Product) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return f.saveErr
	}
	for i, p := range f.products {
		if p.ID == product.ID {
			c := *product
			f.products[i] = &c
			return nil
		}
	}
	return repository.ErrProductNotFound
}

func (f *fakeProducts) Delete(ctx context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	kept := f.products[:0]
	for _, p := range f.products {
		if p.ID != id {
			kept = append(kept, p)
		}
	}
	f.products = kept
	return nil
}

func (f *fakeProducts) UploadImage(ctx context.Context, filename string, data []byte) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.uploads == nil {
		f.uploads = make(map[string][]byte)
	}
	f.uploads[filename] = data
	return "https://cdn.example/storage/v1/object/public/product-images/" + filename, nil
}

func product(id int64, name, price string) *domain.Product {
	return &domain.Product{
		ID:          id,
		Name:        name,
		Description: "Line one\nLine two\nLine three",
		Price:       decimal.RequireFromString(price),
		Category:    "Software",
		IconName:    "Brain",
	}
}

func order(orderID, status string) *domain.Order {
	return &domain.Order{
		OrderID:         orderID,
		ProductName:     "Productivity Software X",
		Price:           decimal.RequireFromString("49.99"),
		DiscordUsername: "user_" + orderID,
		Email:           orderID + "@example.com",
		Status:          domain.OrderStatus(status),
	}
}

// adminAPI wires the admin handlers behind the real auth middleware
type adminAPI struct {
	t        *testing.T
	router   chi.Router
	registry *service.Registry
	token    string
}

func newAdminAPI(t *testing.T, orders *fakeOrders, products *fakeProducts) *adminAPI {
	t.Helper()
	logger := zap.NewNop()
	registry := service.NewRegistry(service.SessionDeps{
		Orders:   orders,
		Products: products,
		Guard:    inflight.NewLocal(),
		Catalog:  service.CatalogOptions{MaxImageBytes: 1024},
		Logger:   logger,
	}, time.Hour)

	tokens := service.NewTokens(testSecret)
	token, err := tokens.Issue("operator-1", service.RoleAdmin, time.Hour)
	require.NoError(t, err)

	r := chi.NewRouter()
	r.Route("/api/admin", func(r chi.Router) {
		r.Use(middleware.AuthMiddleware(tokens, logger))
		r.Use(middleware.RequireAdmin(logger))
		NewOrderHandler(registry, logger).RegisterRoutes(r)
		NewProductHandler(registry, 1024, logger).RegisterRoutes(r)
	})

	return &adminAPI{t: t, router: r, registry: registry, token: token}
}

func (a *adminAPI) do(method, path string, body interface{}) *httptest.ResponseRecorder {
	a.t.Helper()
	var rdr io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(a.t, err)
		rdr = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, rdr)
	req.Header.Set("Content-Type", "application/json")
	return a.send(req)
}

func (a *adminAPI) send(req *http.Request) *httptest.ResponseRecorder {
	req.Header.Set("Authorization", "Bearer "+a.token)
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

type errorBody struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
		Details struct {
			ValidationErrors []middleware.ValidationError `json:"validation_errors"`
		} `json:"details"`
	} `json:"error"`
}
