package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/niksmo/storefront/internal/core/port"
	"github.com/shopspring/decimal"
)

// Subscriber receives store changes after they are persisted.
type Subscriber func(context.Context, domain.Change)

// CartStore owns the cart lines of one shopper.
//
// Every mutation persists the whole snapshot under the "cart" record and
// then notifies subscribers. Storage failures are logged and do not roll
// back the in-memory state.
type CartStore struct {
	owner   string
	records port.RecordStorage

	mu          sync.Mutex
	lines       []domain.CartLine
	subscribers []Subscriber
}

// NewCartStore restores the shopper cart from the records storage.
// A missing or unreadable record yields an empty cart.
func NewCartStore(
	ctx context.Context, records port.RecordStorage, owner string,
) *CartStore {
	const op = "NewCartStore"
	log := slog.With("op", op, "owner", owner)

	s := &CartStore{owner: owner, records: records}

	data, err := records.LoadRecord(ctx, owner, cartRecord)
	if err != nil {
		if !errors.Is(err, domain.ErrRecordNotFound) {
			log.Warn("failed to load cart, starting empty", "err", err)
		}
		return s
	}

	lines, err := decodeCartSnapshot(data)
	if err != nil {
		log.Warn("failed to parse cart, starting empty", "err", err)
		return s
	}
	s.lines = lines
	return s
}

func (s *CartStore) Subscribe(fn Subscriber) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subscribers = append(s.subscribers, fn)
}

// Add adds one item of the product in the given size and color. A line with
// the same product, size and color gets its quantity incremented.
func (s *CartStore) Add(
	ctx context.Context, p domain.Product, size, color string,
) (domain.CartLine, error) {
	const op = "CartStore.Add"

	if strings.TrimSpace(size) == "" || strings.TrimSpace(color) == "" {
		return domain.CartLine{}, fmt.Errorf(
			"%s: %w: Please select a size and color", op, domain.ErrSelectionRequired,
		)
	}
	if !p.HasSize(size) || !p.HasColor(color) {
		return domain.CartLine{}, fmt.Errorf(
			"%s: %w: %q is not available in %s/%s",
			op, domain.ErrSelectionRequired, p.Name, size, color,
		)
	}

	s.mu.Lock()
	id := domain.LineID(p.ID, size, color)
	i := s.indexLocked(id)
	if i == -1 {
		s.lines = append(s.lines, domain.CartLine{
			ID: id, Product: p, Size: size, Color: color,
		})
		i = len(s.lines) - 1
	}
	s.lines[i].Quantity++
	line := s.lines[i]
	change := s.commitLocked(ctx, domain.ActionAdd, p.ID, id)
	s.mu.Unlock()

	s.notify(ctx, change)
	return line, nil
}

func (s *CartStore) Remove(ctx context.Context, lineID string) error {
	const op = "CartStore.Remove"

	s.mu.Lock()
	i := s.indexLocked(lineID)
	if i == -1 {
		s.mu.Unlock()
		return fmt.Errorf("%s: %w", op, domain.ErrLineNotFound)
	}
	productID := s.lines[i].Product.ID
	s.lines = slices.Delete(s.lines, i, i+1)
	change := s.commitLocked(ctx, domain.ActionRemove, productID, lineID)
	s.mu.Unlock()

	s.notify(ctx, change)
	return nil
}

// UpdateQuantity sets the line quantity to max(1, quantity). Lines are
// never removed here.
func (s *CartStore) UpdateQuantity(
	ctx context.Context, lineID string, quantity int,
) (domain.CartLine, error) {
	const op = "CartStore.UpdateQuantity"

	s.mu.Lock()
	i := s.indexLocked(lineID)
	if i == -1 {
		s.mu.Unlock()
		return domain.CartLine{}, fmt.Errorf("%s: %w", op, domain.ErrLineNotFound)
	}
	s.lines[i].Quantity = max(1, quantity)
	line := s.lines[i]
	change := s.commitLocked(ctx, domain.ActionQuantity, line.Product.ID, lineID)
	s.mu.Unlock()

	s.notify(ctx, change)
	return line, nil
}

func (s *CartStore) Snapshot() domain.CartSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *CartStore) snapshotLocked() domain.CartSnapshot {
	count, total := cartTotals(s.lines)
	return domain.CartSnapshot{
		Lines:      slices.Clone(s.lines),
		Count:      count,
		TotalPrice: total,
	}
}

func (s *CartStore) indexLocked(lineID string) int {
	return slices.IndexFunc(s.lines, func(l domain.CartLine) bool {
		return l.ID == lineID
	})
}

func (s *CartStore) commitLocked(
	ctx context.Context, action domain.ChangeAction, productID, lineID string,
) domain.Change {
	const op = "CartStore.commit"

	data, err := encodeCartSnapshot(s.lines)
	if err == nil {
		err = s.records.SaveRecord(
			context.WithoutCancel(ctx), s.owner, cartRecord, data,
		)
	}
	if err != nil {
		slog.With("op", op, "owner", s.owner).Error("failed to persist cart", "err", err)
	}

	count, total := cartTotals(s.lines)
	return domain.Change{
		Owner:      s.owner,
		Kind:       domain.KindCart,
		Action:     action,
		ProductID:  productID,
		LineID:     lineID,
		Count:      count,
		TotalPrice: total,
		OccurredAt: time.Now(),
	}
}

func (s *CartStore) notify(ctx context.Context, change domain.Change) {
	s.mu.Lock()
	subscribers := slices.Clone(s.subscribers)
	s.mu.Unlock()
	for _, fn := range subscribers {
		fn(ctx, change)
	}
}

// cartTotals returns the item count and the total price rounded to cents.
func cartTotals(lines []domain.CartLine) (int, float64) {
	var (
		count int
		total decimal.Decimal
	)
	for _, l := range lines {
		count += l.Quantity
		total = total.Add(
			decimal.NewFromFloat(l.Product.Price).Mul(decimal.NewFromInt(int64(l.Quantity))),
		)
	}
	return count, total.Round(2).InexactFloat64()
}

var _ port.CartManager = (*Carts)(nil)

// Carts hands out one CartStore per shopper, restoring it on first use.
type Carts struct {
	catalog     domain.Catalog
	records     port.RecordStorage
	subscribers []Subscriber

	mu     sync.Mutex
	stores map[string]*CartStore
}

func NewCarts(
	catalog domain.Catalog, records port.RecordStorage, subscribers ...Subscriber,
) *Carts {
	return &Carts{
		catalog:     catalog,
		records:     records,
		subscribers: subscribers,
		stores:      make(map[string]*CartStore),
	}
}

// Store returns the cart store of the owner. The store is restored outside
// the registry lock and the first restored store wins. Stores are never
// evicted, so every mutation of an owner's cart goes through one mutex.
func (c *Carts) Store(ctx context.Context, owner string) *CartStore {
	c.mu.Lock()
	s, ok := c.stores[owner]
	c.mu.Unlock()
	if ok {
		return s
	}

	restored := NewCartStore(context.WithoutCancel(ctx), c.records, owner)
	for _, fn := range c.subscribers {
		restored.Subscribe(fn)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if s, ok := c.stores[owner]; ok {
		return s
	}
	c.stores[owner] = restored
	return restored
}

func (c *Carts) Cart(ctx context.Context, owner string) domain.CartSnapshot {
	return c.Store(ctx, owner).Snapshot()
}

func (c *Carts) AddToCart(
	ctx context.Context, owner, productID, size, color string,
) (domain.CartLine, error) {
	const op = "Carts.AddToCart"

	p, ok := c.catalog.Product(productID)
	if !ok {
		return domain.CartLine{}, fmt.Errorf("%s: %w", op, domain.ErrProductNotFound)
	}

	line, err := c.Store(ctx, owner).Add(ctx, p, size, color)
	if err != nil {
		return domain.CartLine{}, fmt.Errorf("%s: %w", op, err)
	}
	return line, nil
}

func (c *Carts) RemoveFromCart(ctx context.Context, owner, lineID string) error {
	const op = "Carts.RemoveFromCart"

	if err := c.Store(ctx, owner).Remove(ctx, lineID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (c *Carts) UpdateQuantity(
	ctx context.Context, owner, lineID string, quantity int,
) (domain.CartLine, error) {
	const op = "Carts.UpdateQuantity"

	line, err := c.Store(ctx, owner).UpdateQuantity(ctx, lineID, quantity)
	if err != nil {
		return domain.CartLine{}, fmt.Errorf("%s: %w", op, err)
	}
	return line, nil
}
