package port

import (
	"context"

	"github.com/niksmo/storefront/internal/core/domain"
)

// RecordStorage is the durable key-value storage of shopper state.
//
// LoadRecord returns [domain.ErrRecordNotFound] for a missing record.
type RecordStorage interface {
	LoadRecord(ctx context.Context, owner, name string) ([]byte, error)
	SaveRecord(ctx context.Context, owner, name string, value []byte) error
	DeleteRecords(ctx context.Context, owner string) error
}

type GenerativeModel interface {
	GenerateJSON(context.Context, domain.Prompt) ([]byte, error)
	GenerateImage(context.Context, domain.Prompt) (domain.Image, error)
}

type ImageFetcher interface {
	FetchImage(ctx context.Context, url string) (domain.Image, error)
}

type ActivityPublisher interface {
	PublishActivity(context.Context, domain.Change) error
}

type CartManager interface {
	Cart(ctx context.Context, owner string) domain.CartSnapshot
	AddToCart(ctx context.Context, owner, productID, size, color string) (domain.CartLine, error)
	RemoveFromCart(ctx context.Context, owner, lineID string) error
	UpdateQuantity(ctx context.Context, owner, lineID string, quantity int) (domain.CartLine, error)
}

type WishlistManager interface {
	Wishlist(ctx context.Context, owner string) domain.WishlistSnapshot
	ToggleWishlist(ctx context.Context, owner, productID string) (added bool, p domain.Product, err error)
	IsInWishlist(ctx context.Context, owner, productID string) bool
}

type CatalogBrowser interface {
	Product(id string) (domain.Product, error)
	Related(id string) []domain.Product
	Browse(domain.Criteria, domain.SortKey) ([]domain.Product, error)
	Search(query string) []domain.Product
	SearchAsYouType(ctx context.Context, session, query string) ([]domain.Product, error)
	Categories() []domain.Category
	FilterOptions() domain.FilterOptions
	ResolveCategory(param string) (string, bool)
}

type ReviewManager interface {
	ReviewPage(ctx context.Context, owner, productID string, all bool) ([]domain.Review, int, error)
	SubmitReview(ctx context.Context, owner, productID string, d domain.ReviewDraft) (domain.Review, error)
}

type StyleAssistant interface {
	StyleChat(ctx context.Context, message string) (domain.Recommendation, error)
	VisualSearch(ctx context.Context, img domain.Image) (domain.Recommendation, error)
	CompleteTheLook(ctx context.Context, productID string) (domain.Look, error)
	AddLookToCart(ctx context.Context, owner string, productIDs []string) (domain.CartSnapshot, error)
	TryOn(ctx context.Context, productID string, person domain.Image) (domain.TryOnResult, error)
}

type ShopperCleaner interface {
	ClearShopper(ctx context.Context, owner string) error
}
