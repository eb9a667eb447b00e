package httphandler

import (
	"encoding/base64"

	"github.com/niksmo/storefront/internal/core/domain"
)

type (
	Product struct {
		ID            string   `json:"id"`
		Name          string   `json:"name"`
		Price         float64  `json:"price"`
		OriginalPrice *float64 `json:"original_price,omitempty"`
		OnSale        bool     `json:"on_sale"`
		Images        []string `json:"images,omitempty"`
		Category      string   `json:"category"`
		Tags          []string `json:"tags,omitempty"`
		Sizes         []string `json:"sizes,omitempty"`
		Colors        []string `json:"colors,omitempty"`
		Description   string   `json:"description"`
		Details       []string `json:"details,omitempty"`
		Rating        float64  `json:"rating"`
		ReviewCount   int      `json:"review_count"`
	}

	Review struct {
		ID     string `json:"id"`
		Author string `json:"author"`
		Rating int    `json:"rating"`
		Title  string `json:"title,omitempty"`
		Body   string `json:"body"`
		Date   string `json:"date"`
	}

	ProductPage struct {
		Product      Product   `json:"product"`
		Reviews      []Review  `json:"reviews,omitempty"`
		ReviewsTotal int       `json:"reviews_total"`
		Related      []Product `json:"related,omitempty"`
	}

	ProductList struct {
		Products []Product `json:"products,omitempty"`
		Count    int       `json:"count"`
	}

	ReviewList struct {
		Reviews []Review `json:"reviews,omitempty"`
		Total   int      `json:"total"`
	}

	Category struct {
		Name         string `json:"name"`
		ProductCount int    `json:"product_count"`
	}

	FilterOptions struct {
		Categories []string `json:"categories,omitempty"`
		Sizes      []string `json:"sizes,omitempty"`
		Colors     []string `json:"colors,omitempty"`
		MaxPrice   float64  `json:"max_price"`
	}
)

type (
	CartLine struct {
		ID       string  `json:"id"`
		Product  Product `json:"product"`
		Size     string  `json:"size"`
		Color    string  `json:"color"`
		Quantity int     `json:"quantity"`
	}

	Cart struct {
		Lines      []CartLine `json:"lines,omitempty"`
		CartCount  int        `json:"cart_count"`
		TotalPrice float64    `json:"total_price"`
	}

	CartLineResult struct {
		Line   CartLine `json:"line"`
		Notice string   `json:"notice,omitempty"`
	}

	Wishlist struct {
		Products []Product `json:"products,omitempty"`
		Count    int       `json:"count"`
	}

	WishlistToggle struct {
		ProductID string `json:"product_id"`
		Saved     bool   `json:"saved"`
		Notice    string `json:"notice"`
	}

	WishlistMembership struct {
		ProductID string `json:"product_id"`
		Saved     bool   `json:"saved"`
	}
)

type (
	Recommendation struct {
		Message  string    `json:"message"`
		Products []Product `json:"products,omitempty"`
		Fallback bool      `json:"fallback"`
	}

	Look struct {
		Product   Product   `json:"product"`
		Rationale string    `json:"rationale"`
		Products  []Product `json:"products,omitempty"`
		Fallback  bool      `json:"fallback"`
	}

	TryOn struct {
		Image    *Image `json:"image,omitempty"`
		Message  string `json:"message"`
		Fallback bool   `json:"fallback"`
	}

	// Image data is base64 encoded.
	Image struct {
		Data     string `json:"data"`
		MIMEType string `json:"mime_type"`
	}
)

type (
	addLineRequest struct {
		ProductID string `json:"product_id"`
		Size      string `json:"size"`
		Color     string `json:"color"`
	}

	quantityRequest struct {
		Quantity *int `json:"quantity"`
	}

	productRequest struct {
		ProductID string `json:"product_id"`
	}

	reviewRequest struct {
		Author string `json:"author"`
		Rating int    `json:"rating"`
		Title  string `json:"title"`
		Body   string `json:"body"`
	}

	chatRequest struct {
		Message string `json:"message"`
	}

	imageRequest struct {
		Image Image `json:"image"`
	}

	lookCartRequest struct {
		ProductIDs []string `json:"product_ids"`
	}

	tryOnRequest struct {
		ProductID string `json:"product_id"`
		Image     Image  `json:"image"`
	}
)

func toProduct(p domain.Product) Product {
	return Product{
		ID:            p.ID,
		Name:          p.Name,
		Price:         p.Price,
		OriginalPrice: p.OriginalPrice,
		OnSale:        p.OnSale(),
		Images:        p.Images,
		Category:      p.Category,
		Tags:          p.Tags,
		Sizes:         p.Sizes,
		Colors:        p.Colors,
		Description:   p.Description,
		Details:       p.Details,
		Rating:        p.AverageRating,
		ReviewCount:   p.ReviewCount,
	}
}

func toProducts(ps []domain.Product) []Product {
	if len(ps) == 0 {
		return nil
	}
	out := make([]Product, len(ps))
	for i, p := range ps {
		out[i] = toProduct(p)
	}
	return out
}

func toProductList(ps []domain.Product) ProductList {
	return ProductList{Products: toProducts(ps), Count: len(ps)}
}

func toReview(r domain.Review) Review {
	return Review(r)
}

func toReviews(rs []domain.Review) []Review {
	if len(rs) == 0 {
		return nil
	}
	out := make([]Review, len(rs))
	for i, r := range rs {
		out[i] = toReview(r)
	}
	return out
}

func toCartLine(l domain.CartLine) CartLine {
	return CartLine{
		ID:       l.ID,
		Product:  toProduct(l.Product),
		Size:     l.Size,
		Color:    l.Color,
		Quantity: l.Quantity,
	}
}

func toCart(s domain.CartSnapshot) Cart {
	var lines []CartLine
	for _, l := range s.Lines {
		lines = append(lines, toCartLine(l))
	}
	return Cart{Lines: lines, CartCount: s.Count, TotalPrice: s.TotalPrice}
}

func toWishlist(s domain.WishlistSnapshot) Wishlist {
	return Wishlist{Products: toProducts(s.Products), Count: s.Count}
}

func toRecommendation(r domain.Recommendation) Recommendation {
	return Recommendation{
		Message:  r.Message,
		Products: toProducts(r.Products),
		Fallback: r.Fallback,
	}
}

func toLook(l domain.Look) Look {
	return Look{
		Product:   toProduct(l.Main),
		Rationale: l.Rationale,
		Products:  toProducts(l.Products),
		Fallback:  l.Fallback,
	}
}

func toTryOn(r domain.TryOnResult) TryOn {
	res := TryOn{Message: r.Message, Fallback: r.Fallback}
	if r.Image != nil {
		res.Image = &Image{
			Data:     base64.StdEncoding.EncodeToString(r.Image.Data),
			MIMEType: r.Image.MIMEType,
		}
	}
	return res
}

// domain decodes and validates the uploaded image.
func (img Image) domain() (domain.Image, error) {
	data, err := base64.StdEncoding.DecodeString(img.Data)
	if err != nil {
		return domain.Image{}, badRequest("image data is not valid base64")
	}
	res := domain.Image{Data: data, MIMEType: img.MIMEType}
	if err := res.Validate(); err != nil {
		return domain.Image{}, err
	}
	return res, nil
}

func addedNotice(p domain.Product) string {
	return p.Name + " added to bag"
}

func wishlistNotice(p domain.Product, saved bool) string {
	if saved {
		return p.Name + " saved to wishlist"
	}
	return p.Name + " removed from wishlist"
}
