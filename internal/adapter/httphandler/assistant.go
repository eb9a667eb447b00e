package httphandler

import (
	"net/http"

	"github.com/niksmo/storefront/internal/core/port"
)

type AssistantHandler struct {
	assistant port.StyleAssistant
}

func RegisterAssistant(mux *http.ServeMux, assistant port.StyleAssistant) {
	h := AssistantHandler{assistant}
	mux.HandleFunc("POST /v1/assistant/chat", h.Chat)
	mux.HandleFunc("POST /v1/assistant/visual-search", h.VisualSearch)
	mux.HandleFunc("POST /v1/assistant/complete-look", h.CompleteLook)
	mux.HandleFunc("POST /v1/assistant/complete-look/cart", h.AddLookToCart)
	mux.HandleFunc("POST /v1/assistant/try-on", h.TryOn)
}

func (h AssistantHandler) Chat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := decodeJSON(w, r, maxBodySize, &req); err != nil {
		writeError(w, r, err)
		return
	}

	rec, err := h.assistant.StyleChat(r.Context(), req.Message)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toRecommendation(rec))
}

func (h AssistantHandler) VisualSearch(w http.ResponseWriter, r *http.Request) {
	var req imageRequest
	if err := decodeJSON(w, r, maxImageBodySize, &req); err != nil {
		writeError(w, r, err)
		return
	}
	img, err := req.Image.domain()
	if err != nil {
		writeError(w, r, err)
		return
	}

	rec, err := h.assistant.VisualSearch(r.Context(), img)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toRecommendation(rec))
}

func (h AssistantHandler) CompleteLook(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if err := decodeJSON(w, r, maxBodySize, &req); err != nil {
		writeError(w, r, err)
		return
	}

	look, err := h.assistant.CompleteTheLook(r.Context(), req.ProductID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toLook(look))
}

func (h AssistantHandler) AddLookToCart(w http.ResponseWriter, r *http.Request) {
	var req lookCartRequest
	if err := decodeJSON(w, r, maxBodySize, &req); err != nil {
		writeError(w, r, err)
		return
	}

	ctx := r.Context()
	cart, err := h.assistant.AddLookToCart(ctx, SessionFrom(ctx), req.ProductIDs)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toCart(cart))
}

func (h AssistantHandler) TryOn(w http.ResponseWriter, r *http.Request) {
	var req tryOnRequest
	if err := decodeJSON(w, r, maxImageBodySize, &req); err != nil {
		writeError(w, r, err)
		return
	}
	img, err := req.Image.domain()
	if err != nil {
		writeError(w, r, err)
		return
	}

	res, err := h.assistant.TryOn(r.Context(), req.ProductID, img)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toTryOn(res))
}

func RegisterHealth(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
}
