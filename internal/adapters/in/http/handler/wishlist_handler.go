// internal/adapters/in/http/handler/wishlist_handler.go
package handler

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"atelier/internal/application/collection"
	wishdom "atelier/internal/domain/wishlist"
)

// WishlistHandler is a thin binding over the wishlist engine.
type WishlistHandler struct {
	Wishlist *collection.WishlistEngine
}

func NewWishlistHandler(wl *collection.WishlistEngine) *WishlistHandler {
	return &WishlistHandler{Wishlist: wl}
}

type wishlistDTO struct {
	Items []wishdom.Item `json:"items"`
	State string         `json:"state"`
	UID   string         `json:"uid,omitempty"`
}

func (h *WishlistHandler) dto() wishlistDTO {
	snap := h.Wishlist.Snapshot()
	items := snap.Items
	if items == nil {
		items = []wishdom.Item{}
	}
	return wishlistDTO{Items: items, State: string(snap.State), UID: snap.UID}
}

func (h *WishlistHandler) Get(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.dto())
}

// AddItem saves a product; saving an already-saved product is a no-op.
func (h *WishlistHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	var item wishdom.Item
	if !decodeJSON(w, r, &item) {
		return
	}
	if err := h.Wishlist.Add(r.Context(), item); err != nil {
		writeErr(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, h.dto())
}

type toggleResponse struct {
	Saved bool `json:"saved"`
	wishlistDTO
}

// Toggle adds when absent, removes when present.
func (h *WishlistHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	var item wishdom.Item
	if !decodeJSON(w, r, &item) {
		return
	}
	saved, err := h.Wishlist.Toggle(r.Context(), item)
	if err != nil {
		writeErr(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, toggleResponse{Saved: saved, wishlistDTO: h.dto()})
}

// RemoveItem unsaves a product by id.
func (h *WishlistHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(chi.URLParam(r, "productId"))
	if id == "" {
		writeErr(w, http.StatusBadRequest, "productId is required")
		return
	}
	h.Wishlist.Remove(r.Context(), id)
	writeJSON(w, http.StatusOK, h.dto())
}
