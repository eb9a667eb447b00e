package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/niksmo/storefront/internal/core/port"
)

const (
	reviewPageSize  = 3
	anonymousAuthor = "Anonymous"
)

var _ port.ReviewManager = (*Reviews)(nil)

type Reviews struct {
	catalog domain.Catalog
	records port.RecordStorage
	now     func() time.Time

	mu sync.Mutex
}

func NewReviews(catalog domain.Catalog, records port.RecordStorage) *Reviews {
	return &Reviews{catalog: catalog, records: records, now: time.Now}
}

// ReviewPage returns the first three reviews of the product, or all of them,
// and the total number of reviews. Reviews the owner submitted come first,
// newest first, followed by the catalog reviews.
func (r *Reviews) ReviewPage(
	ctx context.Context, owner, productID string, all bool,
) ([]domain.Review, int, error) {
	const op = "Reviews.ReviewPage"

	p, ok := r.catalog.Product(productID)
	if !ok {
		return nil, 0, fmt.Errorf("%s: %w", op, domain.ErrProductNotFound)
	}

	reviews := r.submitted(ctx, owner, productID)
	reviews = append(reviews, p.Reviews...)
	if all || len(reviews) <= reviewPageSize {
		return reviews, len(reviews), nil
	}
	return reviews[:reviewPageSize], len(reviews), nil
}

// submitted returns the owner's reviews of the product, newest first.
// Storage failures leave the catalog reviews alone on the page.
func (r *Reviews) submitted(
	ctx context.Context, owner, productID string,
) []domain.Review {
	const op = "Reviews.submitted"

	if owner == "" {
		return nil
	}

	r.mu.Lock()
	records, err := r.loadLocked(ctx, owner)
	r.mu.Unlock()
	if err != nil {
		slog.With("op", op, "owner", owner).Warn(
			"failed to load submitted reviews", "err", err,
		)
		return nil
	}

	var reviews []domain.Review
	for _, rec := range slices.Backward(records) {
		if rec.ProductID == productID {
			reviews = append(reviews, rec.review())
		}
	}
	return reviews
}

// SubmitReview stores the review under the shopper's "reviews" record.
// The catalog itself is not changed; the review shows up on the owner's
// review pages.
func (r *Reviews) SubmitReview(
	ctx context.Context, owner, productID string, d domain.ReviewDraft,
) (domain.Review, error) {
	const op = "Reviews.SubmitReview"

	if _, ok := r.catalog.Product(productID); !ok {
		return domain.Review{}, fmt.Errorf("%s: %w", op, domain.ErrProductNotFound)
	}
	if err := d.Validate(); err != nil {
		return domain.Review{}, fmt.Errorf("%s: %w", op, err)
	}

	review := domain.Review{
		ID:     uuid.NewString(),
		Author: strings.TrimSpace(d.Author),
		Rating: d.Rating,
		Title:  strings.TrimSpace(d.Title),
		Body:   strings.TrimSpace(d.Body),
		Date:   r.now().UTC().Format(time.DateOnly),
	}
	if review.Author == "" {
		review.Author = anonymousAuthor
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	submitted, err := r.loadLocked(ctx, owner)
	if err != nil {
		return domain.Review{}, fmt.Errorf("%s: %w", op, err)
	}
	submitted = append(submitted, submittedReviewRecord{
		reviewRecord: newReviewRecord(review),
		ProductID:    productID,
	})

	data, err := json.Marshal(submitted)
	if err != nil {
		return domain.Review{}, fmt.Errorf("%s: %w", op, err)
	}
	if err := r.records.SaveRecord(ctx, owner, reviewsRecord, data); err != nil {
		return domain.Review{}, fmt.Errorf("%s: %w", op, err)
	}
	return review, nil
}

func (r *Reviews) loadLocked(
	ctx context.Context, owner string,
) ([]submittedReviewRecord, error) {
	data, err := r.records.LoadRecord(ctx, owner, reviewsRecord)
	if errors.Is(err, domain.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var submitted []submittedReviewRecord
	if err := json.Unmarshal(data, &submitted); err != nil {
		slog.With("op", "Reviews.load", "owner", owner).Warn(
			"failed to parse submitted reviews, starting over", "err", err,
		)
		return nil, nil
	}
	return submitted, nil
}
