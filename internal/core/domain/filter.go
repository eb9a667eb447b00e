package domain

import (
	"fmt"
	"math"
)

type SortKey string

const (
	SortFeatured  SortKey = "featured"
	SortNewest    SortKey = "newest"
	SortPriceAsc  SortKey = "price-asc"
	SortPriceDesc SortKey = "price-desc"
)

// Special tags are seeded from the category URL parameter and are not
// part of the user-selected category set.
const (
	TagNew  = "new"
	TagSale = "sale"
)

func ParseSortKey(s string) (SortKey, error) {
	switch k := SortKey(s); k {
	case "":
		return SortFeatured, nil
	case SortFeatured, SortNewest, SortPriceAsc, SortPriceDesc:
		return k, nil
	default:
		return "", fmt.Errorf("%w: unknown sort key %q", ErrInvalidCriteria, s)
	}
}

// IsSpecialTag reports whether v selects a special tag filter.
func IsSpecialTag(v string) bool {
	return v == TagNew || v == TagSale
}

// Criteria holds the filter selections of a browsing view.
//
// Every selection set is an OR across its values, the sets are ANDed.
// Empty sets and a nil MaxPrice do not constrain the result.
type Criteria struct {
	SpecialTag string
	Categories []string
	Sizes      []string
	Colors     []string
	MaxPrice   *float64
}

func (c Criteria) Validate() error {
	if c.MaxPrice != nil {
		v := *c.MaxPrice
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: max price must be a finite number", ErrInvalidCriteria)
		}
		if v < 0 {
			return fmt.Errorf("%w: negative max price", ErrInvalidCriteria)
		}
	}
	if c.SpecialTag != "" && !IsSpecialTag(c.SpecialTag) {
		return fmt.Errorf("%w: unknown special tag %q", ErrInvalidCriteria, c.SpecialTag)
	}
	return nil
}
