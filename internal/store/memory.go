package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"authgate.org/internal/ids"
)

// MemoryUsers is an in-memory Users repository guarded by a RW mutex.
type MemoryUsers struct {
	mu    sync.RWMutex
	users map[string]User
}

// NewMemoryUsers constructs the repository, optionally preloaded.
func NewMemoryUsers(seed ...User) *MemoryUsers {
	m := &MemoryUsers{users: make(map[string]User, len(seed))}
	for _, u := range seed {
		if u.ID == "" {
			u.ID = ids.New()
		}
		if u.CreatedAt.IsZero() {
			u.CreatedAt = time.Now().UTC()
		}
		m.users[u.ID] = u
	}
	return m
}

func (m *MemoryUsers) List(ctx context.Context) ([]User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]User, 0, len(m.users))
	for _, u := range m.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MemoryUsers) Get(ctx context.Context, id string) (User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[id]
	if !ok {
		return User{}, ErrNotFound
	}
	return u, nil
}

func (m *MemoryUsers) Create(ctx context.Context, input NewUser) (User, error) {
	if strings.TrimSpace(input.Name) == "" || strings.TrimSpace(input.Email) == "" {
		return User{}, ErrInvalidInput
	}
	u := User{
		ID:        ids.New(),
		Name:      strings.TrimSpace(input.Name),
		Email:     strings.TrimSpace(strings.ToLower(input.Email)),
		Role:      strings.TrimSpace(input.Role),
		CreatedAt: time.Now().UTC(),
	}
	m.mu.Lock()
	m.users[u.ID] = u
	m.mu.Unlock()
	return u, nil
}

func (m *MemoryUsers) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[id]; !ok {
		return ErrNotFound
	}
	delete(m.users, id)
	return nil
}

// MemoryProducts is an in-memory Products repository guarded by a RW mutex.
type MemoryProducts struct {
	mu       sync.RWMutex
	products map[string]Product
}

// NewMemoryProducts constructs the repository, optionally preloaded.
func NewMemoryProducts(seed ...Product) *MemoryProducts {
	m := &MemoryProducts{products: make(map[string]Product, len(seed))}
	for _, p := range seed {
		if p.ID == "" {
			p.ID = ids.New()
		}
		if p.CreatedAt.IsZero() {
			p.CreatedAt = time.Now().UTC()
		}
		m.products[p.ID] = p
	}
	return m
}

func (m *MemoryProducts) List(ctx context.Context) ([]Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Product, 0, len(m.products))
	for _, p := range m.products {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MemoryProducts) Get(ctx context.Context, id string) (Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.products[id]
	if !ok {
		return Product{}, ErrNotFound
	}
	return p, nil
}

func (m *MemoryProducts) Create(ctx context.Context, input NewProduct) (Product, error) {
	if strings.TrimSpace(input.Name) == "" || input.Price < 0 {
		return Product{}, ErrInvalidInput
	}
	p := Product{
		ID:        ids.New(),
		Name:      strings.TrimSpace(input.Name),
		Price:     input.Price,
		Category:  strings.TrimSpace(input.Category),
		CreatedAt: time.Now().UTC(),
	}
	m.mu.Lock()
	m.products[p.ID] = p
	m.mu.Unlock()
	return p, nil
}

func (m *MemoryProducts) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.products[id]; !ok {
		return ErrNotFound
	}
	delete(m.products, id)
	return nil
}

// DemoUsers returns the simulated directory the service ships with.
func DemoUsers() []User {
	return []User{
		{Name: "Juan Carlos", Email: "juan.carlos@example.com", Role: "user"},
		{Name: "María García", Email: "maria.garcia@example.com", Role: "user"},
		{Name: "Ana Martínez", Email: "ana.martinez@example.com", Role: "admin"},
	}
}

// DemoProducts returns the simulated catalog the service ships with.
func DemoProducts() []Product {
	return []Product{
		{Name: "Laptop Pro 15", Price: 2499.99, Category: "electronics"},
		{Name: "Wireless Mouse", Price: 49.90, Category: "electronics"},
		{Name: "Standing Desk", Price: 399.00, Category: "furniture"},
	}
}
