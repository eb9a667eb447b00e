package service

import (
	"encoding/json"

	"github.com/niksmo/storefront/internal/core/domain"
)

const (
	cartRecord     = "cart"
	wishlistRecord = "wishlist"
	reviewsRecord  = "reviews"
)

type (
	productRecord struct {
		ID            string         `json:"id"`
		Name          string         `json:"name"`
		Price         float64        `json:"price"`
		OriginalPrice *float64       `json:"originalPrice,omitempty"`
		Images        []string       `json:"images"`
		Category      string         `json:"category"`
		Tags          []string       `json:"tags"`
		Sizes         []string       `json:"sizes"`
		Colors        []string       `json:"colors"`
		Description   string         `json:"description"`
		Details       []string       `json:"details"`
		Rating        float64        `json:"rating"`
		ReviewCount   int            `json:"reviewCount"`
		Reviews       []reviewRecord `json:"reviews"`
	}

	reviewRecord struct {
		ID     string `json:"id"`
		Author string `json:"author"`
		Rating int    `json:"rating"`
		Title  string `json:"title"`
		Body   string `json:"content"`
		Date   string `json:"date"`
	}

	cartLineRecord struct {
		productRecord
		CartItemID    string `json:"cartItemId,omitempty"`
		Quantity      int    `json:"quantity"`
		SelectedSize  string `json:"selectedSize"`
		SelectedColor string `json:"selectedColor"`
	}

	submittedReviewRecord struct {
		reviewRecord
		ProductID string `json:"productId"`
	}
)

func newProductRecord(p domain.Product) productRecord {
	reviews := make([]reviewRecord, len(p.Reviews))
	for i, r := range p.Reviews {
		reviews[i] = newReviewRecord(r)
	}
	return productRecord{
		ID:            p.ID,
		Name:          p.Name,
		Price:         p.Price,
		OriginalPrice: p.OriginalPrice,
		Images:        p.Images,
		Category:      p.Category,
		Tags:          p.Tags,
		Sizes:         p.Sizes,
		Colors:        p.Colors,
		Description:   p.Description,
		Details:       p.Details,
		Rating:        p.AverageRating,
		ReviewCount:   p.ReviewCount,
		Reviews:       reviews,
	}
}

func (r productRecord) product() domain.Product {
	var reviews []domain.Review
	for _, rr := range r.Reviews {
		reviews = append(reviews, rr.review())
	}
	return domain.Product{
		ID:            r.ID,
		Name:          r.Name,
		Price:         r.Price,
		OriginalPrice: r.OriginalPrice,
		Images:        r.Images,
		Category:      r.Category,
		Tags:          r.Tags,
		Sizes:         r.Sizes,
		Colors:        r.Colors,
		Description:   r.Description,
		Details:       r.Details,
		AverageRating: r.Rating,
		ReviewCount:   r.ReviewCount,
		Reviews:       reviews,
	}
}

func newReviewRecord(r domain.Review) reviewRecord {
	return reviewRecord{
		ID:     r.ID,
		Author: r.Author,
		Rating: r.Rating,
		Title:  r.Title,
		Body:   r.Body,
		Date:   r.Date,
	}
}

func (r reviewRecord) review() domain.Review {
	return domain.Review{
		ID:     r.ID,
		Author: r.Author,
		Rating: r.Rating,
		Title:  r.Title,
		Body:   r.Body,
		Date:   r.Date,
	}
}

func encodeCartSnapshot(lines []domain.CartLine) ([]byte, error) {
	records := make([]cartLineRecord, len(lines))
	for i, l := range lines {
		records[i] = cartLineRecord{
			productRecord: newProductRecord(l.Product),
			CartItemID:    l.ID,
			Quantity:      l.Quantity,
			SelectedSize:  l.Size,
			SelectedColor: l.Color,
		}
	}
	return json.Marshal(records)
}

// decodeCartSnapshot is the single compatibility point for stored carts.
//
// Records written before line ids existed get the id synthesized from
// product, size and color. Quantities below one are clamped to one, and
// lines that end up with the same id are merged.
func decodeCartSnapshot(data []byte) ([]domain.CartLine, error) {
	var records []cartLineRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, err
	}

	var lines []domain.CartLine
	pos := make(map[string]int, len(records))
	for _, r := range records {
		id := r.CartItemID
		if id == "" {
			id = domain.LineID(r.ID, r.SelectedSize, r.SelectedColor)
		}
		quantity := max(1, r.Quantity)

		if i, ok := pos[id]; ok {
			lines[i].Quantity += quantity
			continue
		}
		pos[id] = len(lines)
		lines = append(lines, domain.CartLine{
			ID:       id,
			Product:  r.product(),
			Size:     r.SelectedSize,
			Color:    r.SelectedColor,
			Quantity: quantity,
		})
	}
	return lines, nil
}

func encodeWishlistSnapshot(products []domain.Product) ([]byte, error) {
	records := make([]productRecord, len(products))
	for i, p := range products {
		records[i] = newProductRecord(p)
	}
	return json.Marshal(records)
}

func decodeWishlistSnapshot(data []byte) ([]domain.Product, error) {
	var records []productRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, err
	}

	var products []domain.Product
	seen := make(map[string]struct{}, len(records))
	for _, r := range records {
		if _, ok := seen[r.ID]; ok {
			continue
		}
		seen[r.ID] = struct{}{}
		products = append(products, r.product())
	}
	return products, nil
}
