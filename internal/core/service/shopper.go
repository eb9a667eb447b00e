package service

import (
	"context"
	"fmt"

	"github.com/niksmo/storefront/internal/core/port"
)

var _ port.ShopperCleaner = (*Shoppers)(nil)

type Shoppers struct {
	records   port.RecordStorage
	carts     *Carts
	wishlists *Wishlists
}

func NewShoppers(
	records port.RecordStorage, carts *Carts, wishlists *Wishlists,
) *Shoppers {
	return &Shoppers{records, carts, wishlists}
}

// ClearShopper deletes every stored record of the shopper and empties the
// cached stores in place.
//
// Both stores stay locked until the records are deleted, so a mutation
// through a store obtained before the clear can not write pre-clear state
// back to storage.
func (s *Shoppers) ClearShopper(ctx context.Context, owner string) error {
	const op = "Shoppers.ClearShopper"

	cart := s.carts.Store(ctx, owner)
	wishlist := s.wishlists.Store(ctx, owner)

	cart.mu.Lock()
	defer cart.mu.Unlock()
	wishlist.mu.Lock()
	defer wishlist.mu.Unlock()

	if err := s.records.DeleteRecords(ctx, owner); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	cart.lines = nil
	wishlist.products = nil
	return nil
}
