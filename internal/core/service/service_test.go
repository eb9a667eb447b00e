package service_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/stretchr/testify/require"
)

const owner = "shopper-1"

func ptr[T any](v T) *T { return &v }

func testProducts() []domain.Product {
	return []domain.Product{
		{
			ID: "p1", Name: "Silk Dress", Price: 50,
			Images: []string{"https://img.test/p1.jpg"}, Category: "Dresses",
			Tags: []string{"new", "evening"}, Sizes: []string{"S", "M"},
			Colors: []string{"Red", "Black"}, Description: "Bias cut silk slip dress.",
			AverageRating: 4.5, ReviewCount: 4,
			Reviews: []domain.Review{
				{ID: "r1", Author: "Ann", Rating: 5, Body: "Lovely"},
				{ID: "r2", Author: "Bo", Rating: 4, Body: "Nice"},
				{ID: "r3", Author: "Cy", Rating: 4, Body: "Good"},
				{ID: "r4", Author: "Di", Rating: 5, Body: "Great"},
			},
		},
		{
			ID: "p2", Name: "Linen Shirt", Price: 20, OriginalPrice: ptr(35.0),
			Images: []string{"https://img.test/p2.jpg"}, Category: "Tops",
			Tags: []string{"sale", "summer"}, Sizes: []string{"M", "L"},
			Colors: []string{"White"}, Description: "Relaxed linen shirt.",
		},
		{
			ID: "p3", Name: "Wool Coat", Price: 30,
			Images: []string{"https://img.test/p3.jpg"}, Category: "Outerwear",
			Tags: []string{"winter"}, Sizes: []string{"M"},
			Colors: []string{"Camel"}, Description: "Double-breasted coat.",
		},
		{
			ID: "p4", Name: "Cotton Tee", Price: 20,
			Images: []string{"https://img.test/p4.jpg"}, Category: "Tops",
			Tags: []string{"new", "basics"}, Sizes: []string{"S", "M", "L"},
			Colors: []string{"White", "Black"}, Description: "Everyday crew neck tee.",
		},
	}
}

func testCatalog(t *testing.T) domain.Catalog {
	t.Helper()
	c, err := domain.NewCatalog(testProducts())
	require.NoError(t, err)
	return c
}

// memRecords is an in-memory RecordStorage with switchable failures.
type memRecords struct {
	mu        sync.Mutex
	data      map[string][]byte
	saveErr   error
	loadErr   error
	saveCalls int
}

func newMemRecords() *memRecords {
	return &memRecords{data: make(map[string][]byte)}
}

func (m *memRecords) LoadRecord(_ context.Context, owner, name string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	v, ok := m.data[owner+"/"+name]
	if !ok {
		return nil, domain.ErrRecordNotFound
	}
	return v, nil
}

func (m *memRecords) SaveRecord(_ context.Context, owner, name string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saveCalls++
	if m.saveErr != nil {
		return m.saveErr
	}
	m.data[owner+"/"+name] = value
	return nil
}

func (m *memRecords) DeleteRecords(_ context.Context, owner string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k := range m.data {
		if strings.HasPrefix(k, owner+"/") {
			delete(m.data, k)
		}
	}
	return nil
}

func (m *memRecords) put(owner, name, value string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[owner+"/"+name] = []byte(value)
}

func (m *memRecords) get(owner, name string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[owner+"/"+name]
	return v, ok
}

var errStorage = errors.New("storage is down")

func productByID(t *testing.T, c domain.Catalog, id string) domain.Product {
	t.Helper()
	p, ok := c.Product(id)
	require.True(t, ok)
	return p
}

func ids(ps []domain.Product) []string {
	out := make([]string, len(ps))
	for i, p := range ps {
		out[i] = p.ID
	}
	return out
}
