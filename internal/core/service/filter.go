package service

import (
	"cmp"
	"slices"
	"strings"

	"github.com/niksmo/storefront/internal/core/domain"
)

// FilterAndSort returns the products matching the criteria ordered by the
// sort key. The input slice is not modified and the sort is stable, so
// products that compare equal keep their input order.
func FilterAndSort(
	products []domain.Product, c domain.Criteria, key domain.SortKey,
) []domain.Product {
	result := make([]domain.Product, 0, len(products))
	for _, p := range products {
		if matches(p, c) {
			result = append(result, p)
		}
	}

	switch key {
	case domain.SortNewest:
		slices.SortStableFunc(result, func(a, b domain.Product) int {
			return strings.Compare(b.ID, a.ID)
		})
	case domain.SortPriceAsc:
		slices.SortStableFunc(result, func(a, b domain.Product) int {
			return cmp.Compare(a.Price, b.Price)
		})
	case domain.SortPriceDesc:
		slices.SortStableFunc(result, func(a, b domain.Product) int {
			return cmp.Compare(b.Price, a.Price)
		})
	}
	return result
}

func matches(p domain.Product, c domain.Criteria) bool {
	if c.SpecialTag != "" && !p.HasTag(c.SpecialTag) {
		return false
	}
	if len(c.Categories) > 0 && !slices.Contains(c.Categories, p.Category) {
		return false
	}
	if len(c.Sizes) > 0 && !slices.ContainsFunc(c.Sizes, p.HasSize) {
		return false
	}
	if len(c.Colors) > 0 && !slices.ContainsFunc(c.Colors, p.HasColor) {
		return false
	}
	if c.MaxPrice != nil && p.Price > *c.MaxPrice {
		return false
	}
	return true
}
