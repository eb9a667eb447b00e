package domain

import "time"

type (
	// A CartLine is unique per (product, size, color).
	CartLine struct {
		ID       string
		Product  Product
		Size     string
		Color    string
		Quantity int
	}

	CartSnapshot struct {
		Lines      []CartLine
		Count      int
		TotalPrice float64
	}

	WishlistSnapshot struct {
		Products []Product
		Count    int
	}
)

// LineID returns the identity key of a cart line.
func LineID(productID, size, color string) string {
	return productID + "-" + size + "-" + color
}

type (
	ChangeKind   string
	ChangeAction string
)

const (
	KindCart     ChangeKind = "cart"
	KindWishlist ChangeKind = "wishlist"

	ActionAdd      ChangeAction = "add"
	ActionRemove   ChangeAction = "remove"
	ActionQuantity ChangeAction = "quantity"
)

// A Change describes a single store mutation delivered to subscribers.
type Change struct {
	Owner      string
	Kind       ChangeKind
	Action     ChangeAction
	ProductID  string
	LineID     string
	Count      int
	TotalPrice float64
	OccurredAt time.Time
}
