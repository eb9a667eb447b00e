package domain_test

import (
	"math"
	"testing"

	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func product(id, category string, price float64) domain.Product {
	return domain.Product{
		ID:       id,
		Name:     "Product " + id,
		Price:    price,
		Images:   []string{id + ".jpg"},
		Category: category,
	}
}

func TestNewCatalog(t *testing.T) {
	t.Run("DuplicateID", func(t *testing.T) {
		_, err := domain.NewCatalog([]domain.Product{
			product("p1", "Tops", 10), product("p1", "Tops", 20),
		})
		assert.ErrorIs(t, err, domain.ErrInvalidCatalog)
	})

	original := 5.0
	invalid := map[string]func(*domain.Product){
		"EmptyID":            func(p *domain.Product) { p.ID = " " },
		"NegativePrice":      func(p *domain.Product) { p.Price = -1 },
		"OriginalBelowPrice": func(p *domain.Product) { p.OriginalPrice = &original },
		"NoImages":           func(p *domain.Product) { p.Images = nil },
		"RatingAboveFive":    func(p *domain.Product) { p.AverageRating = 5.1 },
		"NegativeReviews":    func(p *domain.Product) { p.ReviewCount = -1 },
	}
	for name, mutate := range invalid {
		t.Run(name, func(t *testing.T) {
			p := product("p1", "Tops", 10)
			mutate(&p)
			_, err := domain.NewCatalog([]domain.Product{p})
			assert.ErrorIs(t, err, domain.ErrInvalidCatalog)
		})
	}
}

func TestCatalogQueries(t *testing.T) {
	c, err := domain.NewCatalog([]domain.Product{
		product("p1", "Dresses", 49.5),
		product("p2", "Tops", 20),
		product("p3", "Dresses", 120),
		product("p4", "Dresses", 60),
		product("p5", "Dresses", 70),
		product("p6", "Dresses", 80),
		product("p7", "Dresses", 90),
	})
	require.NoError(t, err)

	t.Run("Product", func(t *testing.T) {
		p, ok := c.Product("p2")
		require.True(t, ok)
		assert.Equal(t, "Tops", p.Category)
		_, ok = c.Product("nope")
		assert.False(t, ok)
	})

	t.Run("CallersCanNotModifyCatalog", func(t *testing.T) {
		p, ok := c.Product("p1")
		require.True(t, ok)
		p.Images[0] = "changed.jpg"
		p.Tags = append(p.Tags, "changed")

		all := c.All()
		all[0].Name = "changed"
		all[1].Images[0] = "changed.jpg"

		p, ok = c.Product("p1")
		require.True(t, ok)
		assert.Equal(t, []string{"p1.jpg"}, p.Images)
		assert.Empty(t, p.Tags)
		assert.Equal(t, "Product p1", c.All()[0].Name)
		assert.Equal(t, []string{"p2.jpg"}, c.All()[1].Images)
	})

	t.Run("RelatedLimitedToFour", func(t *testing.T) {
		related := c.Related("p1")
		require.Len(t, related, 4)
		for _, p := range related {
			assert.Equal(t, "Dresses", p.Category)
			assert.NotEqual(t, "p1", p.ID)
		}
		assert.Equal(t, "p3", related[0].ID)
		assert.Empty(t, c.Related("p2"))
		assert.Nil(t, c.Related("nope"))
	})

	t.Run("Categories", func(t *testing.T) {
		assert.Equal(t, []domain.Category{
			{Name: "Dresses", ProductCount: 6},
			{Name: "Tops", ProductCount: 1},
		}, c.Categories())
	})

	t.Run("FilterOptionsMaxPriceRoundsUp", func(t *testing.T) {
		opts := c.FilterOptions()
		assert.Equal(t, 120.0, opts.MaxPrice)
		assert.Equal(t, []string{"Dresses", "Tops"}, opts.Categories)

		single, err := domain.NewCatalog([]domain.Product{product("x", "Tops", 121)})
		require.NoError(t, err)
		assert.Equal(t, 130.0, single.FilterOptions().MaxPrice)
	})
}

func TestParseSortKey(t *testing.T) {
	k, err := domain.ParseSortKey("")
	require.NoError(t, err)
	assert.Equal(t, domain.SortFeatured, k)

	k, err = domain.ParseSortKey("price-desc")
	require.NoError(t, err)
	assert.Equal(t, domain.SortPriceDesc, k)

	_, err = domain.ParseSortKey("cheapest")
	assert.ErrorIs(t, err, domain.ErrInvalidCriteria)
}

func TestCriteriaValidate(t *testing.T) {
	for _, v := range []float64{-1, math.NaN(), math.Inf(1), math.Inf(-1)} {
		assert.ErrorIs(t, domain.Criteria{MaxPrice: &v}.Validate(), domain.ErrInvalidCriteria)
	}
	zero := 0.0
	assert.NoError(t, domain.Criteria{MaxPrice: &zero}.Validate())
	assert.ErrorIs(t, domain.Criteria{SpecialTag: "clearance"}.Validate(), domain.ErrInvalidCriteria)
	assert.NoError(t, domain.Criteria{SpecialTag: domain.TagSale}.Validate())
}
