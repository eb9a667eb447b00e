package service

import (
	"strings"

	"github.com/niksmo/storefront/internal/core/domain"
)

// Search returns the products whose name, category, description or any tag
// contains the query, ignoring case. A blank query matches nothing.
func Search(products []domain.Product, query string) []domain.Product {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil
	}

	var found []domain.Product
	for _, p := range products {
		if searchHit(p, q) {
			found = append(found, p)
		}
	}
	return found
}

func searchHit(p domain.Product, q string) bool {
	if strings.Contains(strings.ToLower(p.Name), q) ||
		strings.Contains(strings.ToLower(p.Category), q) ||
		strings.Contains(strings.ToLower(p.Description), q) {
		return true
	}
	for _, tag := range p.Tags {
		if strings.Contains(strings.ToLower(tag), q) {
			return true
		}
	}
	return false
}
