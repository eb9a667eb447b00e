package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/niksmo/storefront/internal/core/port"
	"github.com/niksmo/storefront/pkg/debounce"
)

var _ port.CatalogBrowser = (*Catalog)(nil)

// Catalog serves read-only catalog queries.
type Catalog struct {
	catalog  domain.Catalog
	debounce *debounce.Debouncer[string]
}

func NewCatalog(c domain.Catalog, searchDebounce time.Duration) *Catalog {
	return &Catalog{
		catalog:  c,
		debounce: debounce.New[string](searchDebounce),
	}
}

func (c *Catalog) Product(id string) (domain.Product, error) {
	const op = "Catalog.Product"

	p, ok := c.catalog.Product(id)
	if !ok {
		return domain.Product{}, fmt.Errorf("%s: %w", op, domain.ErrProductNotFound)
	}
	return p, nil
}

func (c *Catalog) Related(id string) []domain.Product {
	return c.catalog.Related(id)
}

func (c *Catalog) Browse(
	criteria domain.Criteria, key domain.SortKey,
) ([]domain.Product, error) {
	const op = "Catalog.Browse"

	if err := criteria.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return FilterAndSort(c.catalog.All(), criteria, key), nil
}

func (c *Catalog) Search(query string) []domain.Product {
	return Search(c.catalog.All(), query)
}

// SearchAsYouType evaluates the query once the session has been quiet for the
// debounce window. Calls superseded by a newer query of the same session
// return [debounce.ErrSuperseded].
func (c *Catalog) SearchAsYouType(
	ctx context.Context, session, query string,
) ([]domain.Product, error) {
	const op = "Catalog.SearchAsYouType"

	if err := c.debounce.Wait(ctx, session); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return c.Search(query), nil
}

func (c *Catalog) Categories() []domain.Category {
	return c.catalog.Categories()
}

func (c *Catalog) FilterOptions() domain.FilterOptions {
	return c.catalog.FilterOptions()
}

// ResolveCategory matches a URL category value against catalog categories
// ignoring case and returns the catalog spelling.
func (c *Catalog) ResolveCategory(param string) (string, bool) {
	for _, cat := range c.catalog.Categories() {
		if strings.EqualFold(cat.Name, strings.TrimSpace(param)) {
			return cat.Name, true
		}
	}
	return "", false
}
