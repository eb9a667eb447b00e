package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/niksmo/storefront/internal/core/port"
)

// WishlistStore owns the saved products of one shopper, persisted under the
// "wishlist" record.
type WishlistStore struct {
	owner   string
	records port.RecordStorage

	mu          sync.Mutex
	products    []domain.Product
	subscribers []Subscriber
}

func NewWishlistStore(
	ctx context.Context, records port.RecordStorage, owner string,
) *WishlistStore {
	const op = "NewWishlistStore"
	log := slog.With("op", op, "owner", owner)

	s := &WishlistStore{owner: owner, records: records}

	data, err := records.LoadRecord(ctx, owner, wishlistRecord)
	if err != nil {
		if !errors.Is(err, domain.ErrRecordNotFound) {
			log.Warn("failed to load wishlist, starting empty", "err", err)
		}
		return s
	}

	products, err := decodeWishlistSnapshot(data)
	if err != nil {
		log.Warn("failed to parse wishlist, starting empty", "err", err)
		return s
	}
	s.products = products
	return s
}

func (s *WishlistStore) Subscribe(fn Subscriber) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subscribers = append(s.subscribers, fn)
}

// Toggle removes a saved product or saves an absent one. It reports whether
// the product is saved afterwards.
func (s *WishlistStore) Toggle(ctx context.Context, p domain.Product) bool {
	const op = "WishlistStore.Toggle"

	s.mu.Lock()
	action := domain.ActionAdd
	if i := s.indexLocked(p.ID); i != -1 {
		s.products = slices.Delete(s.products, i, i+1)
		action = domain.ActionRemove
	} else {
		s.products = append(s.products, p)
	}

	data, err := encodeWishlistSnapshot(s.products)
	if err == nil {
		err = s.records.SaveRecord(
			context.WithoutCancel(ctx), s.owner, wishlistRecord, data,
		)
	}
	if err != nil {
		slog.With("op", op, "owner", s.owner).Error("failed to persist wishlist", "err", err)
	}

	change := domain.Change{
		Owner:      s.owner,
		Kind:       domain.KindWishlist,
		Action:     action,
		ProductID:  p.ID,
		Count:      len(s.products),
		OccurredAt: time.Now(),
	}
	subscribers := slices.Clone(s.subscribers)
	s.mu.Unlock()

	for _, fn := range subscribers {
		fn(ctx, change)
	}
	return action == domain.ActionAdd
}

func (s *WishlistStore) Contains(productID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.indexLocked(productID) != -1
}

func (s *WishlistStore) Snapshot() domain.WishlistSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return domain.WishlistSnapshot{
		Products: slices.Clone(s.products),
		Count:    len(s.products),
	}
}

func (s *WishlistStore) indexLocked(productID string) int {
	return slices.IndexFunc(s.products, func(p domain.Product) bool {
		return p.ID == productID
	})
}

var _ port.WishlistManager = (*Wishlists)(nil)

// Wishlists hands out one WishlistStore per shopper.
type Wishlists struct {
	catalog     domain.Catalog
	records     port.RecordStorage
	subscribers []Subscriber

	mu     sync.Mutex
	stores map[string]*WishlistStore
}

func NewWishlists(
	catalog domain.Catalog, records port.RecordStorage, subscribers ...Subscriber,
) *Wishlists {
	return &Wishlists{
		catalog:     catalog,
		records:     records,
		subscribers: subscribers,
		stores:      make(map[string]*WishlistStore),
	}
}

func (w *Wishlists) Store(ctx context.Context, owner string) *WishlistStore {
	w.mu.Lock()
	s, ok := w.stores[owner]
	w.mu.Unlock()
	if ok {
		return s
	}

	restored := NewWishlistStore(context.WithoutCancel(ctx), w.records, owner)
	for _, fn := range w.subscribers {
		restored.Subscribe(fn)
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if s, ok := w.stores[owner]; ok {
		return s
	}
	w.stores[owner] = restored
	return restored
}

func (w *Wishlists) Wishlist(ctx context.Context, owner string) domain.WishlistSnapshot {
	return w.Store(ctx, owner).Snapshot()
}

func (w *Wishlists) ToggleWishlist(
	ctx context.Context, owner, productID string,
) (bool, domain.Product, error) {
	const op = "Wishlists.ToggleWishlist"

	p, ok := w.catalog.Product(productID)
	if !ok {
		return false, domain.Product{}, fmt.Errorf("%s: %w", op, domain.ErrProductNotFound)
	}
	return w.Store(ctx, owner).Toggle(ctx, p), p, nil
}

func (w *Wishlists) IsInWishlist(ctx context.Context, owner, productID string) bool {
	return w.Store(ctx, owner).Contains(productID)
}
