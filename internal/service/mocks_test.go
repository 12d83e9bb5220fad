package service

import (
	"context"
	"sync"

	"ryven-shop/internal/domain"
	"ryven-shop/internal/repository"
)

type mockOrderRepository struct {
	mu        sync.Mutex
	orders    []*domain.Order
	listErr   error
	statusErr error
	deleteErr error
	createErr []error
	calls     int
	created   []*domain.Order
	// entered and block, when set, pause SetStatus mid-call
	entered chan struct{}
	block   chan struct{}
}

func (m *mockOrderRepository) List(ctx context.Context) ([]*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.listErr != nil {
		return nil, m.listErr
	}
	return cloneOrders(m.orders), nil
}

func (m *mockOrderRepository) SetStatus(ctx context.Context, orderID string, status domain.OrderStatus) error {
	if m.entered != nil {
		m.entered <- struct{}{}
	}
	if m.block != nil {
		<-m.block
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.statusErr != nil {
		return m.statusErr
	}
	for _, o := range m.orders {
		if o.OrderID == orderID {
			o.Status = status
		}
	}
	return nil
}

func (m *mockOrderRepository) Delete(ctx context.Context, orderID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.deleteErr != nil {
		return m.deleteErr
	}
	kept := m.orders[:0]
	for _, o := range m.orders {
		if o.OrderID != orderID {
			kept = append(kept, o)
		}
	}
	m.orders = kept
	return nil
}

func (m *mockOrderRepository) Create(ctx context.Context, order *domain.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if len(m.createErr) > 0 {
		err := m.createErr[0]
		m.createErr = m.createErr[1:]
		if err != nil {
			return err
		}
	}
	m.created = append(m.created, order.Clone())
	return nil
}

func (m *mockOrderRepository) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

type mockProductRepository struct {
	mu        sync.Mutex
	products  []*domain.Product
	nextID    int64
	listErr   error
	saveErr   error
	uploadErr error
	deleteErr error
	calls     map[string]int
	uploads   []string
}

func newMockProductRepository(products ...*domain.Product) *mockProductRepository {
	m := &mockProductRepository{calls: map[string]int{}}
	for _, p := range products {
		m.products = append(m.products, p)
		if p.ID > m.nextID {
			m.nextID = p.ID
		}
	}
	return m
}

func (m *mockProductRepository) record(op string) {
	m.calls[op]++
}

func (m *mockProductRepository) total() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.calls {
		n += c
	}
	return n
}

func (m *mockProductRepository) List(ctx context.Context) ([]*domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("list")
	if m.listErr != nil {
		return nil, m.listErr
	}
	out := make([]*domain.Product, len(m.products))
	for i, p := range m.products {
		c := *p
		out[i] = &c
	}
	return out, nil
}

func (m *mockProductRepository) FindByID(ctx context.Context, id int64) (*domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("find")
	for _, p := range m.products {
		if p.ID == id {
			c := *p
			return &c, nil
		}
	}
	return nil, repository.ErrProductNotFound
}

func (m *mockProductRepository) Create(ctx context.Context, product *domain.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("create")
	if m.saveErr != nil {
		return m.saveErr
	}
	m.nextID++
	c := *product
	c.ID = m.nextID
	m.products = append(m.products, &c)
	return nil
}

func (m *mockProductRepository) Update(ctx context.Context, product *domain.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("update")
	if m.saveErr != nil {
		return m.saveErr
	}
	for i, p := range m.products {
		if p.ID == product.ID {
			c := *product
			m.products[i] = &c
			return nil
		}
	}
	return repository.ErrProductNotFound
}

func (m *mockProductRepository) Delete(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("delete")
	if m.deleteErr != nil {
		return m.deleteErr
	}
	kept := m.products[:0]
	for _, p := range m.products {
		if p.ID != id {
			kept = append(kept, p)
		}
	}
	m.products = kept
	return nil
}

func (m *mockProductRepository) UploadImage(ctx context.Context, filename string, data []byte) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("upload")
	if m.uploadErr != nil {
		return "", m.uploadErr
	}
	m.uploads = append(m.uploads, filename)
	return "https://cdn.test/storage/v1/object/public/product-images/" + filename, nil
}
