package httphandler_test

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/niksmo/storefront/internal/adapter/httphandler"
	"github.com/niksmo/storefront/internal/adapter/storage"
	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/niksmo/storefront/internal/core/service"
)

const session = "5f0c6a62-8a3f-4a52-9b07-0c1c0f6d8a11"

func testCatalog(t *testing.T) domain.Catalog {
	t.Helper()
	orig := 35.0
	reviews := []domain.Review{
		{ID: "r1", Author: "Ann", Rating: 5, Body: "Lovely"},
		{ID: "r2", Author: "Bea", Rating: 4, Body: "Nice"},
		{ID: "r3", Author: "Cid", Rating: 3, Body: "Fine"},
		{ID: "r4", Author: "Dee", Rating: 5, Body: "Great"},
	}
	c, err := domain.NewCatalog([]domain.Product{
		{
			ID: "1", Name: "Silk Dress", Price: 50, Category: "Dresses",
			Images: []string{"https://img/1.jpg"}, Tags: []string{"new"},
			Sizes: []string{"S", "M"}, Colors: []string{"Red", "Black"},
			AverageRating: 4.3, ReviewCount: 4, Reviews: reviews,
		},
		{
			ID: "2", Name: "Linen Shirt", Price: 20, OriginalPrice: &orig,
			Category: "Tops", Images: []string{"https://img/2.jpg"},
			Tags: []string{"sale"}, Sizes: []string{"M", "L"},
			Colors: []string{"White"},
		},
		{
			ID: "3", Name: "Wool Coat", Price: 30, Category: "Outerwear",
			Images: []string{"https://img/3.jpg"}, Sizes: []string{"M"},
			Colors: []string{"Camel"},
		},
	})
	require.NoError(t, err)
	return c
}

type MockAssistant struct {
	mock.Mock
}

func (m *MockAssistant) StyleChat(
	ctx context.Context, message string,
) (domain.Recommendation, error) {
	args := m.Called(ctx, message)
	return args.Get(0).(domain.Recommendation), args.Error(1)
}

func (m *MockAssistant) VisualSearch(
	ctx context.Context, img domain.Image,
) (domain.Recommendation, error) {
	args := m.Called(ctx, img)
	return args.Get(0).(domain.Recommendation), args.Error(1)
}

func (m *MockAssistant) CompleteTheLook(
	ctx context.Context, productID string,
) (domain.Look, error) {
	args := m.Called(ctx, productID)
	return args.Get(0).(domain.Look), args.Error(1)
}

func (m *MockAssistant) AddLookToCart(
	ctx context.Context, owner string, productIDs []string,
) (domain.CartSnapshot, error) {
	args := m.Called(ctx, owner, productIDs)
	return args.Get(0).(domain.CartSnapshot), args.Error(1)
}

func (m *MockAssistant) TryOn(
	ctx context.Context, productID string, person domain.Image,
) (domain.TryOnResult, error) {
	args := m.Called(ctx, productID, person)
	return args.Get(0).(domain.TryOnResult), args.Error(1)
}

type testServer struct {
	handler   http.Handler
	records   *storage.MemRecords
	assistant *MockAssistant
}

func newTestServer(t *testing.T) testServer {
	t.Helper()
	c := testCatalog(t)
	records := storage.NewMemRecords()
	catalog := service.NewCatalog(c, 10*time.Millisecond)
	reviews := service.NewReviews(c, records)
	carts := service.NewCarts(c, records)
	wishlists := service.NewWishlists(c, records)
	shoppers := service.NewShoppers(records, carts, wishlists)
	assistant := new(MockAssistant)

	mux := http.NewServeMux()
	httphandler.RegisterHealth(mux)
	httphandler.RegisterCatalog(mux, catalog, reviews)
	httphandler.RegisterShopper(mux, catalog, carts, wishlists, shoppers)
	httphandler.RegisterAssistant(mux, assistant)

	h := httphandler.Chain(mux,
		httphandler.Recovery,
		httphandler.Session,
		httphandler.AllowJSON,
	)
	return testServer{h, records, assistant}
}

func (s testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	r := httptest.NewRequest(method, path, &buf)
	if body != nil {
		r.Header.Set("Content-Type", "application/json")
	}
	r.Header.Set(httphandler.SessionHeader, session)
	w := httptest.NewRecorder()
	s.handler.ServeHTTP(w, r)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(w.Body).Decode(&v))
	return v
}

type errorBody struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func productIDs(ps []httphandler.Product) []string {
	var ids []string
	for _, p := range ps {
		ids = append(ids, p.ID)
	}
	return ids
}

func TestSession(t *testing.T) {
	s := newTestServer(t)

	t.Run("Issued", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/healthz", nil)
		w := httptest.NewRecorder()
		s.handler.ServeHTTP(w, r)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.NotEmpty(t, w.Header().Get(httphandler.SessionHeader))
	})

	t.Run("Echoed", func(t *testing.T) {
		w := s.do(t, http.MethodGet, "/healthz", nil)
		assert.Equal(t, session, w.Header().Get(httphandler.SessionHeader))
	})
}

func TestAllowJSON(t *testing.T) {
	s := newTestServer(t)
	r := httptest.NewRequest(
		http.MethodPost, "/v1/cart/lines", bytes.NewBufferString("product_id=1"),
	)
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	s.handler.ServeHTTP(w, r)
	assert.Equal(t, http.StatusUnsupportedMediaType, w.Code)
}

func TestListProducts(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name   string
		query  string
		status int
		ids    []string
	}{
		{"Featured", "", http.StatusOK, []string{"1", "2", "3"}},
		{"CategoryCaseInsensitive", "?category=tops", http.StatusOK, []string{"2"}},
		{"SpecialTag", "?category=sale", http.StatusOK, []string{"2"}},
		{"UnknownCategoryIgnored", "?category=hats", http.StatusOK, []string{"1", "2", "3"}},
		{"SizeAndPrice", "?size=M&max_price=30", http.StatusOK, []string{"2", "3"}},
		{"PriceDesc", "?sort=price-desc", http.StatusOK, []string{"1", "3", "2"}},
		{"UnknownSort", "?sort=random", http.StatusBadRequest, nil},
		{"BadMaxPrice", "?max_price=cheap", http.StatusBadRequest, nil},
		{"NegativeMaxPrice", "?max_price=-1", http.StatusBadRequest, nil},
		{"NaNMaxPrice", "?max_price=NaN", http.StatusBadRequest, nil},
		{"InfMaxPrice", "?max_price=Inf", http.StatusBadRequest, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.do(t, http.MethodGet, "/v1/products"+tt.query, nil)
			require.Equal(t, tt.status, w.Code)
			if tt.status != http.StatusOK {
				assert.Equal(t, "INVALID_CRITERIA", decode[errorBody](t, w).Error.Code)
				return
			}
			list := decode[httphandler.ProductList](t, w)
			assert.Equal(t, tt.ids, productIDs(list.Products))
			assert.Equal(t, len(tt.ids), list.Count)
		})
	}
}

func TestGetProduct(t *testing.T) {
	s := newTestServer(t)

	t.Run("Found", func(t *testing.T) {
		w := s.do(t, http.MethodGet, "/v1/products/1", nil)
		require.Equal(t, http.StatusOK, w.Code)
		page := decode[httphandler.ProductPage](t, w)
		assert.Equal(t, "Silk Dress", page.Product.Name)
		assert.Len(t, page.Reviews, 3)
		assert.Equal(t, 4, page.ReviewsTotal)
		assert.Empty(t, page.Related)
	})

	t.Run("OnSale", func(t *testing.T) {
		w := s.do(t, http.MethodGet, "/v1/products/2", nil)
		require.Equal(t, http.StatusOK, w.Code)
		page := decode[httphandler.ProductPage](t, w)
		assert.True(t, page.Product.OnSale)
		require.NotNil(t, page.Product.OriginalPrice)
		assert.Equal(t, 35.0, *page.Product.OriginalPrice)
	})

	t.Run("NotFound", func(t *testing.T) {
		w := s.do(t, http.MethodGet, "/v1/products/404", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "PRODUCT_NOT_FOUND", decode[errorBody](t, w).Error.Code)
	})

	t.Run("AllReviews", func(t *testing.T) {
		w := s.do(t, http.MethodGet, "/v1/products/1/reviews?all=true", nil)
		require.Equal(t, http.StatusOK, w.Code)
		list := decode[httphandler.ReviewList](t, w)
		assert.Len(t, list.Reviews, 4)
		assert.Equal(t, 4, list.Total)
	})
}

func TestPostReview(t *testing.T) {
	s := newTestServer(t)

	t.Run("MissingRating", func(t *testing.T) {
		w := s.do(t, http.MethodPost, "/v1/products/1/reviews",
			map[string]any{"body": "Nice fabric"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "Please select a rating", decode[errorBody](t, w).Error.Message)
	})

	t.Run("Created", func(t *testing.T) {
		w := s.do(t, http.MethodPost, "/v1/products/1/reviews",
			map[string]any{"rating": 5, "body": "Nice fabric"})
		require.Equal(t, http.StatusCreated, w.Code)
		res := decode[struct {
			Review httphandler.Review `json:"review"`
			Notice string             `json:"notice"`
		}](t, w)
		assert.Equal(t, "Anonymous", res.Review.Author)
		assert.NotEmpty(t, res.Notice)

		_, err := s.records.LoadRecord(context.Background(), session, "reviews")
		assert.NoError(t, err)

		w = s.do(t, http.MethodGet, "/v1/products/1/reviews?all=true", nil)
		require.Equal(t, http.StatusOK, w.Code)
		list := decode[httphandler.ReviewList](t, w)
		assert.Equal(t, 5, list.Total)
		require.Len(t, list.Reviews, 5)
		assert.Equal(t, res.Review.ID, list.Reviews[0].ID)
	})
}

func TestFiltersAndCategories(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodGet, "/v1/filters", nil)
	require.Equal(t, http.StatusOK, w.Code)
	opts := decode[httphandler.FilterOptions](t, w)
	assert.Equal(t, []string{"Dresses", "Outerwear", "Tops"}, opts.Categories)
	assert.Equal(t, []string{"L", "M", "S"}, opts.Sizes)
	assert.Equal(t, 50.0, opts.MaxPrice)

	w = s.do(t, http.MethodGet, "/v1/categories", nil)
	require.Equal(t, http.StatusOK, w.Code)
	res := decode[struct {
		Categories []httphandler.Category `json:"categories"`
	}](t, w)
	assert.Len(t, res.Categories, 3)
	assert.Equal(t, httphandler.Category{Name: "Dresses", ProductCount: 1}, res.Categories[0])
}

func TestSearch(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodGet, "/v1/search?q=linen", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"2"}, productIDs(decode[httphandler.ProductList](t, w).Products))
}

func TestCart(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/v1/cart/lines",
		map[string]string{"product_id": "1"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Please select a size and color", decode[errorBody](t, w).Error.Message)

	w = s.do(t, http.MethodPost, "/v1/cart/lines",
		map[string]string{"product_id": "1", "size": "M", "color": "Red"})
	require.Equal(t, http.StatusOK, w.Code)
	added := decode[httphandler.CartLineResult](t, w)
	assert.Equal(t, "1-M-Red", added.Line.ID)
	assert.Equal(t, "Silk Dress added to bag", added.Notice)

	w = s.do(t, http.MethodPatch, "/v1/cart/lines/1-M-Red",
		map[string]int{"quantity": 3})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 3, decode[httphandler.CartLineResult](t, w).Line.Quantity)

	w = s.do(t, http.MethodPatch, "/v1/cart/lines/1-M-Red", map[string]int{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	apiErr := decode[errorBody](t, w).Error
	assert.Equal(t, "INVALID_QUANTITY", apiErr.Code)
	assert.Equal(t, "quantity is required", apiErr.Message)

	w = s.do(t, http.MethodGet, "/v1/cart", nil)
	require.Equal(t, http.StatusOK, w.Code)
	cart := decode[httphandler.Cart](t, w)
	assert.Equal(t, 3, cart.CartCount)
	assert.Equal(t, 150.0, cart.TotalPrice)

	w = s.do(t, http.MethodDelete, "/v1/cart/lines/unknown", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(t, http.MethodDelete, "/v1/cart/lines/1-M-Red", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Zero(t, decode[httphandler.Cart](t, w).CartCount)
}

func TestWishlist(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/v1/wishlist/toggle",
		map[string]string{"product_id": "3"})
	require.Equal(t, http.StatusOK, w.Code)
	toggled := decode[httphandler.WishlistToggle](t, w)
	assert.True(t, toggled.Saved)
	assert.Equal(t, "Wool Coat saved to wishlist", toggled.Notice)

	w = s.do(t, http.MethodGet, "/v1/wishlist/3", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, decode[httphandler.WishlistMembership](t, w).Saved)

	w = s.do(t, http.MethodGet, "/v1/wishlist", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, decode[httphandler.Wishlist](t, w).Count)

	w = s.do(t, http.MethodPost, "/v1/wishlist/toggle",
		map[string]string{"product_id": "3"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.False(t, decode[httphandler.WishlistToggle](t, w).Saved)

	w = s.do(t, http.MethodPost, "/v1/wishlist/toggle",
		map[string]string{"product_id": "404"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestClearShopper(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/v1/cart/lines",
		map[string]string{"product_id": "2", "size": "L", "color": "White"})
	require.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, http.MethodDelete, "/v1/shopper", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	_, err := s.records.LoadRecord(context.Background(), session, "cart")
	assert.ErrorIs(t, err, domain.ErrRecordNotFound)

	w = s.do(t, http.MethodGet, "/v1/cart", nil)
	assert.Zero(t, decode[httphandler.Cart](t, w).CartCount)
}

func TestAssistant(t *testing.T) {
	t.Run("Chat", func(t *testing.T) {
		s := newTestServer(t)
		s.assistant.On("StyleChat", mock.Anything, "summer outfit").
			Return(domain.Recommendation{Message: "Try linen", Products: []domain.Product{{ID: "2"}}}, nil)

		w := s.do(t, http.MethodPost, "/v1/assistant/chat",
			map[string]string{"message": "summer outfit"})
		require.Equal(t, http.StatusOK, w.Code)
		rec := decode[httphandler.Recommendation](t, w)
		assert.Equal(t, "Try linen", rec.Message)
		assert.Equal(t, []string{"2"}, productIDs(rec.Products))
		s.assistant.AssertExpectations(t)
	})

	t.Run("ChatEmpty", func(t *testing.T) {
		s := newTestServer(t)
		s.assistant.On("StyleChat", mock.Anything, "").
			Return(domain.Recommendation{}, domain.ErrInvalidQuery)

		w := s.do(t, http.MethodPost, "/v1/assistant/chat", map[string]string{})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("VisualSearchInvalidImage", func(t *testing.T) {
		s := newTestServer(t)
		w := s.do(t, http.MethodPost, "/v1/assistant/visual-search", map[string]any{
			"image": map[string]string{
				"data":      base64.StdEncoding.EncodeToString([]byte("%PDF")),
				"mime_type": "application/pdf",
			},
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t,
			"Please upload a valid image file (JPEG, PNG, WEBP).",
			decode[errorBody](t, w).Error.Message,
		)
		s.assistant.AssertNotCalled(t, "VisualSearch", mock.Anything, mock.Anything)
	})

	t.Run("VisualSearchBadBase64", func(t *testing.T) {
		s := newTestServer(t)
		w := s.do(t, http.MethodPost, "/v1/assistant/visual-search", map[string]any{
			"image": map[string]string{"data": "***", "mime_type": "image/png"},
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("TryOn", func(t *testing.T) {
		s := newTestServer(t)
		person := domain.Image{Data: []byte{0x89, 'P', 'N', 'G'}, MIMEType: "image/png"}
		s.assistant.On("TryOn", mock.Anything, "1", person).Return(domain.TryOnResult{
			Image:   &domain.Image{Data: []byte("out"), MIMEType: "image/png"},
			Message: "Here's how it could look on you.",
		}, nil)

		w := s.do(t, http.MethodPost, "/v1/assistant/try-on", map[string]any{
			"product_id": "1",
			"image": map[string]string{
				"data":      base64.StdEncoding.EncodeToString(person.Data),
				"mime_type": person.MIMEType,
			},
		})
		require.Equal(t, http.StatusOK, w.Code)
		res := decode[httphandler.TryOn](t, w)
		require.NotNil(t, res.Image)
		assert.Equal(t, base64.StdEncoding.EncodeToString([]byte("out")), res.Image.Data)
		assert.False(t, res.Fallback)
	})

	t.Run("CompleteLookNotFound", func(t *testing.T) {
		s := newTestServer(t)
		s.assistant.On("CompleteTheLook", mock.Anything, "404").
			Return(domain.Look{}, domain.ErrProductNotFound)

		w := s.do(t, http.MethodPost, "/v1/assistant/complete-look",
			map[string]string{"product_id": "404"})
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("AddLookToCart", func(t *testing.T) {
		s := newTestServer(t)
		s.assistant.On("AddLookToCart", mock.Anything, session, []string{"2", "3"}).
			Return(domain.CartSnapshot{Count: 2, TotalPrice: 50}, nil)

		w := s.do(t, http.MethodPost, "/v1/assistant/complete-look/cart",
			map[string]any{"product_ids": []string{"2", "3"}})
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, 2, decode[httphandler.Cart](t, w).CartCount)
	})
}

func TestRecovery(t *testing.T) {
	h := httphandler.Recovery(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
