package httphandler

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/niksmo/storefront/internal/core/port"
	"github.com/niksmo/storefront/pkg/debounce"
)

type CatalogHandler struct {
	catalog port.CatalogBrowser
	reviews port.ReviewManager
}

func RegisterCatalog(
	mux *http.ServeMux, catalog port.CatalogBrowser, reviews port.ReviewManager,
) {
	h := CatalogHandler{catalog, reviews}
	mux.HandleFunc("GET /v1/products", h.ListProducts)
	mux.HandleFunc("GET /v1/products/{id}", h.GetProduct)
	mux.HandleFunc("GET /v1/products/{id}/reviews", h.ListReviews)
	mux.HandleFunc("POST /v1/products/{id}/reviews", h.PostReview)
	mux.HandleFunc("GET /v1/filters", h.GetFilters)
	mux.HandleFunc("GET /v1/categories", h.ListCategories)
	mux.HandleFunc("GET /v1/search", h.Search)
}

// ParseCriteria reads the browsing selections from query parameters.
//
// The repeatable "category" parameter selects catalog categories case
// insensitively, "new" and "sale" select the special tag instead, unknown
// categories are ignored.
func ParseCriteria(
	q url.Values, catalog port.CatalogBrowser,
) (domain.Criteria, domain.SortKey, error) {
	var c domain.Criteria
	for _, v := range q["category"] {
		v = strings.TrimSpace(v)
		if tag := strings.ToLower(v); domain.IsSpecialTag(tag) {
			c.SpecialTag = tag
			continue
		}
		if name, ok := catalog.ResolveCategory(v); ok {
			c.Categories = append(c.Categories, name)
		}
	}
	c.Sizes = nonEmpty(q["size"])
	c.Colors = nonEmpty(q["color"])

	if v := q.Get("max_price"); v != "" {
		maxPrice, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return domain.Criteria{}, "", fmt.Errorf(
				"%w: max_price must be a number", domain.ErrInvalidCriteria,
			)
		}
		c.MaxPrice = &maxPrice
	}

	key, err := domain.ParseSortKey(q.Get("sort"))
	if err != nil {
		return domain.Criteria{}, "", err
	}
	return c, key, nil
}

func nonEmpty(vs []string) []string {
	var out []string
	for _, v := range vs {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func (h CatalogHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	criteria, key, err := ParseCriteria(r.URL.Query(), h.catalog)
	if err != nil {
		writeError(w, r, err)
		return
	}

	ps, err := h.catalog.Browse(criteria, key)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toProductList(ps))
}

func (h CatalogHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	p, err := h.catalog.Product(id)
	if err != nil {
		writeError(w, r, err)
		return
	}

	reviews, total, err := h.reviews.ReviewPage(
		r.Context(), SessionFrom(r.Context()), id, false,
	)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, ProductPage{
		Product:      toProduct(p),
		Reviews:      toReviews(reviews),
		ReviewsTotal: total,
		Related:      toProducts(h.catalog.Related(id)),
	})
}

func (h CatalogHandler) ListReviews(w http.ResponseWriter, r *http.Request) {
	all, _ := strconv.ParseBool(r.URL.Query().Get("all"))
	reviews, total, err := h.reviews.ReviewPage(
		r.Context(), SessionFrom(r.Context()), r.PathValue("id"), all,
	)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ReviewList{Reviews: toReviews(reviews), Total: total})
}

func (h CatalogHandler) PostReview(w http.ResponseWriter, r *http.Request) {
	var req reviewRequest
	if err := decodeJSON(w, r, maxBodySize, &req); err != nil {
		writeError(w, r, err)
		return
	}

	review, err := h.reviews.SubmitReview(
		r.Context(), SessionFrom(r.Context()), r.PathValue("id"),
		domain.ReviewDraft{
			Author: req.Author,
			Rating: req.Rating,
			Title:  req.Title,
			Body:   req.Body,
		},
	)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, struct {
		Review Review `json:"review"`
		Notice string `json:"notice"`
	}{toReview(review), "Thank you for your review!"})
}

func (h CatalogHandler) GetFilters(w http.ResponseWriter, r *http.Request) {
	opts := h.catalog.FilterOptions()
	writeJSON(w, http.StatusOK, FilterOptions(opts))
}

func (h CatalogHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	var categories []Category
	for _, c := range h.catalog.Categories() {
		categories = append(categories, Category(c))
	}
	writeJSON(w, http.StatusOK, struct {
		Categories []Category `json:"categories"`
	}{categories})
}

// Search answers search-as-you-type queries. A request superseded by a newer
// query of the same session gets 204 No Content.
func (h CatalogHandler) Search(w http.ResponseWriter, r *http.Request) {
	ps, err := h.catalog.SearchAsYouType(
		r.Context(), SessionFrom(r.Context()), r.URL.Query().Get("q"),
	)
	if errors.Is(err, debounce.ErrSuperseded) {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toProductList(ps))
}
