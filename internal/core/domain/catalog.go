package domain

import (
	"fmt"
	"math"
	"slices"
)

const relatedLimit = 4

type (
	Category struct {
		Name         string
		ProductCount int
	}

	FilterOptions struct {
		Categories []string
		Sizes      []string
		Colors     []string
		MaxPrice   float64
	}
)

// A Catalog is the read-only product list loaded once at startup.
//
// Catalog order is significant: it is the "featured" order. Products are
// copied in and handed out as copies, so callers can not change the catalog.
type Catalog struct {
	products []Product
	index    map[string]int
}

func NewCatalog(products []Product) (Catalog, error) {
	index := make(map[string]int, len(products))
	owned := make([]Product, 0, len(products))
	for i, p := range products {
		if err := p.validate(); err != nil {
			return Catalog{}, err
		}
		if _, ok := index[p.ID]; ok {
			return Catalog{}, fmt.Errorf(
				"%w: duplicate product id %q", ErrInvalidCatalog, p.ID,
			)
		}
		index[p.ID] = i
		owned = append(owned, p.Clone())
	}
	return Catalog{products: owned, index: index}, nil
}

// All returns copies of the products in catalog order.
func (c Catalog) All() []Product {
	all := make([]Product, 0, len(c.products))
	for _, p := range c.products {
		all = append(all, p.Clone())
	}
	return all
}

func (c Catalog) Len() int {
	return len(c.products)
}

func (c Catalog) Product(id string) (Product, bool) {
	i, ok := c.index[id]
	if !ok {
		return Product{}, false
	}
	return c.products[i].Clone(), true
}

// Related returns up to four other products of the same category.
func (c Catalog) Related(id string) []Product {
	p, ok := c.Product(id)
	if !ok {
		return nil
	}
	var related []Product
	for _, other := range c.products {
		if len(related) == relatedLimit {
			break
		}
		if other.Category == p.Category && other.ID != p.ID {
			related = append(related, other.Clone())
		}
	}
	return related
}

func (c Catalog) Categories() []Category {
	var categories []Category
	pos := make(map[string]int)
	for _, p := range c.products {
		i, ok := pos[p.Category]
		if !ok {
			pos[p.Category] = len(categories)
			categories = append(categories, Category{Name: p.Category, ProductCount: 1})
			continue
		}
		categories[i].ProductCount++
	}
	return categories
}

func (c Catalog) FilterOptions() FilterOptions {
	var (
		categories, sizes, colors []string
		maxPrice                  float64
	)
	for _, p := range c.products {
		categories = append(categories, p.Category)
		sizes = append(sizes, p.Sizes...)
		colors = append(colors, p.Colors...)
		maxPrice = max(maxPrice, p.Price)
	}
	return FilterOptions{
		Categories: sortedUnique(categories),
		Sizes:      sortedUnique(sizes),
		Colors:     sortedUnique(colors),
		MaxPrice:   math.Ceil(maxPrice/10) * 10,
	}
}

func sortedUnique(vs []string) []string {
	slices.Sort(vs)
	return slices.Compact(vs)
}
