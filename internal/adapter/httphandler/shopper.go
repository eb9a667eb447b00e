package httphandler

import (
	"fmt"
	"net/http"

	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/niksmo/storefront/internal/core/port"
)

// ShopperHandler serves the cart and wishlist of the request session.
type ShopperHandler struct {
	catalog   port.CatalogBrowser
	carts     port.CartManager
	wishlists port.WishlistManager
	cleaner   port.ShopperCleaner
}

func RegisterShopper(
	mux *http.ServeMux,
	catalog port.CatalogBrowser,
	carts port.CartManager,
	wishlists port.WishlistManager,
	cleaner port.ShopperCleaner,
) {
	h := ShopperHandler{catalog, carts, wishlists, cleaner}
	mux.HandleFunc("GET /v1/cart", h.GetCart)
	mux.HandleFunc("POST /v1/cart/lines", h.AddLine)
	mux.HandleFunc("PATCH /v1/cart/lines/{lineID}", h.UpdateLine)
	mux.HandleFunc("DELETE /v1/cart/lines/{lineID}", h.RemoveLine)
	mux.HandleFunc("GET /v1/wishlist", h.GetWishlist)
	mux.HandleFunc("POST /v1/wishlist/toggle", h.ToggleWishlist)
	mux.HandleFunc("GET /v1/wishlist/{productID}", h.InWishlist)
	mux.HandleFunc("DELETE /v1/shopper", h.Clear)
}

func (h ShopperHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	writeJSON(w, http.StatusOK, toCart(h.carts.Cart(ctx, SessionFrom(ctx))))
}

func (h ShopperHandler) AddLine(w http.ResponseWriter, r *http.Request) {
	var req addLineRequest
	if err := decodeJSON(w, r, maxBodySize, &req); err != nil {
		writeError(w, r, err)
		return
	}

	ctx := r.Context()
	line, err := h.carts.AddToCart(
		ctx, SessionFrom(ctx), req.ProductID, req.Size, req.Color,
	)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, CartLineResult{
		Line:   toCartLine(line),
		Notice: addedNotice(line.Product),
	})
}

func (h ShopperHandler) UpdateLine(w http.ResponseWriter, r *http.Request) {
	var req quantityRequest
	if err := decodeJSON(w, r, maxBodySize, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.Quantity == nil {
		writeError(w, r, fmt.Errorf("%w: quantity is required", domain.ErrInvalidQuantity))
		return
	}

	ctx := r.Context()
	line, err := h.carts.UpdateQuantity(
		ctx, SessionFrom(ctx), r.PathValue("lineID"), *req.Quantity,
	)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, CartLineResult{Line: toCartLine(line)})
}

func (h ShopperHandler) RemoveLine(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	err := h.carts.RemoveFromCart(ctx, SessionFrom(ctx), r.PathValue("lineID"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toCart(h.carts.Cart(ctx, SessionFrom(ctx))))
}

func (h ShopperHandler) GetWishlist(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	writeJSON(w, http.StatusOK, toWishlist(h.wishlists.Wishlist(ctx, SessionFrom(ctx))))
}

func (h ShopperHandler) ToggleWishlist(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if err := decodeJSON(w, r, maxBodySize, &req); err != nil {
		writeError(w, r, err)
		return
	}

	ctx := r.Context()
	saved, p, err := h.wishlists.ToggleWishlist(ctx, SessionFrom(ctx), req.ProductID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, WishlistToggle{
		ProductID: p.ID,
		Saved:     saved,
		Notice:    wishlistNotice(p, saved),
	})
}

func (h ShopperHandler) InWishlist(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("productID")
	if _, err := h.catalog.Product(id); err != nil {
		writeError(w, r, err)
		return
	}

	ctx := r.Context()
	writeJSON(w, http.StatusOK, WishlistMembership{
		ProductID: id,
		Saved:     h.wishlists.IsInWishlist(ctx, SessionFrom(ctx), id),
	})
}

func (h ShopperHandler) Clear(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.cleaner.ClearShopper(ctx, SessionFrom(ctx)); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
