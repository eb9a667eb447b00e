// Package catalogfile loads the product catalog from YAML.
package catalogfile

import (
	"bytes"
	_ "embed"
	"fmt"
	"log/slog"
	"os"

	"github.com/niksmo/storefront/internal/core/domain"
	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var defaultCatalog []byte

type (
	productDoc struct {
		ID            string      `yaml:"id"`
		Name          string      `yaml:"name"`
		Price         float64     `yaml:"price"`
		OriginalPrice *float64    `yaml:"original_price"`
		Images        []string    `yaml:"images"`
		Category      string      `yaml:"category"`
		Tags          []string    `yaml:"tags"`
		Sizes         []string    `yaml:"sizes"`
		Colors        []string    `yaml:"colors"`
		Description   string      `yaml:"description"`
		Details       []string    `yaml:"details"`
		Rating        float64     `yaml:"rating"`
		ReviewCount   int         `yaml:"review_count"`
		Reviews       []reviewDoc `yaml:"reviews"`
	}

	reviewDoc struct {
		ID     string `yaml:"id"`
		Author string `yaml:"author"`
		Rating int    `yaml:"rating"`
		Title  string `yaml:"title"`
		Body   string `yaml:"body"`
		Date   string `yaml:"date"`
	}

	catalogDoc struct {
		Products []productDoc `yaml:"products"`
	}
)

// Load reads the catalog file at path, or the embedded catalog when path is
// empty.
func Load(path string) (domain.Catalog, error) {
	const op = "catalogfile.Load"
	log := slog.With("op", op)

	if path == "" {
		c, err := Decode(defaultCatalog)
		if err != nil {
			return domain.Catalog{}, fmt.Errorf("%s: %w", op, err)
		}
		log.Info("embedded catalog is loaded", "products", c.Len())
		return c, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return domain.Catalog{}, fmt.Errorf("%s: %w", op, err)
	}

	c, err := Decode(data)
	if err != nil {
		return domain.Catalog{}, fmt.Errorf("%s: %s: %w", op, path, err)
	}
	log.Info("catalog is loaded", "path", path, "products", c.Len())
	return c, nil
}

// Decode parses and validates a YAML catalog. Unknown fields are rejected.
func Decode(data []byte) (domain.Catalog, error) {
	var doc catalogDoc
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return domain.Catalog{}, fmt.Errorf("%w: %w", domain.ErrInvalidCatalog, err)
	}

	products := make([]domain.Product, len(doc.Products))
	for i, p := range doc.Products {
		products[i] = p.product()
	}
	return domain.NewCatalog(products)
}

func (d productDoc) product() domain.Product {
	reviews := make([]domain.Review, len(d.Reviews))
	for i, r := range d.Reviews {
		reviews[i] = domain.Review{
			ID:     r.ID,
			Author: r.Author,
			Rating: r.Rating,
			Title:  r.Title,
			Body:   r.Body,
			Date:   r.Date,
		}
	}
	return domain.Product{
		ID:            d.ID,
		Name:          d.Name,
		Price:         d.Price,
		OriginalPrice: d.OriginalPrice,
		Images:        d.Images,
		Category:      d.Category,
		Tags:          d.Tags,
		Sizes:         d.Sizes,
		Colors:        d.Colors,
		Description:   d.Description,
		Details:       d.Details,
		AverageRating: d.Rating,
		ReviewCount:   d.ReviewCount,
		Reviews:       reviews,
	}
}
