package domain

import (
	"fmt"
	"math"
	"slices"
	"strings"
)

type (
	Product struct {
		ID            string
		Name          string
		Price         float64
		OriginalPrice *float64
		Images        []string
		Category      string
		Tags          []string
		Sizes         []string
		Colors        []string
		Description   string
		Details       []string
		AverageRating float64
		ReviewCount   int
		Reviews       []Review
	}

	Review struct {
		ID     string
		Author string
		Rating int
		Title  string
		Body   string
		Date   string
	}
)

// OnSale reports whether the product carries a reduced price.
func (p Product) OnSale() bool {
	return p.OriginalPrice != nil && *p.OriginalPrice > p.Price
}

func (p Product) HasTag(tag string) bool {
	return slices.Contains(p.Tags, tag)
}

func (p Product) HasSize(size string) bool {
	return slices.Contains(p.Sizes, size)
}

func (p Product) HasColor(color string) bool {
	return slices.Contains(p.Colors, color)
}

// Clone returns a deep copy of the product.
func (p Product) Clone() Product {
	if p.OriginalPrice != nil {
		originalPrice := *p.OriginalPrice
		p.OriginalPrice = &originalPrice
	}
	p.Images = slices.Clone(p.Images)
	p.Tags = slices.Clone(p.Tags)
	p.Sizes = slices.Clone(p.Sizes)
	p.Colors = slices.Clone(p.Colors)
	p.Details = slices.Clone(p.Details)
	p.Reviews = slices.Clone(p.Reviews)
	return p
}

func (p Product) validate() error {
	switch {
	case strings.TrimSpace(p.ID) == "":
		return fmt.Errorf("%w: product id is empty", ErrInvalidCatalog)
	case p.Price < 0 || math.IsNaN(p.Price):
		return fmt.Errorf("%w: product %q: negative price", ErrInvalidCatalog, p.ID)
	case p.OriginalPrice != nil && *p.OriginalPrice < p.Price:
		return fmt.Errorf(
			"%w: product %q: original price below price", ErrInvalidCatalog, p.ID,
		)
	case len(p.Images) == 0:
		return fmt.Errorf("%w: product %q: no images", ErrInvalidCatalog, p.ID)
	case p.AverageRating < 0 || p.AverageRating > 5:
		return fmt.Errorf("%w: product %q: rating out of range", ErrInvalidCatalog, p.ID)
	case p.ReviewCount < 0:
		return fmt.Errorf("%w: product %q: negative review count", ErrInvalidCatalog, p.ID)
	}
	return nil
}
