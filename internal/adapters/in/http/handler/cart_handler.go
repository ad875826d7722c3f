// internal/adapters/in/http/handler/cart_handler.go
package handler

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"atelier/internal/application/collection"
	cartdom "atelier/internal/domain/cart"
)

// CartHandler is a thin binding over the cart engine. Guests hit these
// endpoints too: mutations then live in the local cache only.
type CartHandler struct {
	Cart *collection.CartEngine
}

func NewCartHandler(cart *collection.CartEngine) *CartHandler {
	return &CartHandler{Cart: cart}
}

type cartDTO struct {
	Items []cartdom.Item `json:"items"`
	State string         `json:"state"`
	UID   string         `json:"uid,omitempty"`
	// JustAdded carries the line key of the most recent add while the
	// transient feedback window is open, "" otherwise.
	JustAdded     string `json:"justAdded,omitempty"`
	DistinctCount int    `json:"distinctCount"`
	Total         int64  `json:"total"`
}

func (h *CartHandler) dto() cartDTO {
	snap := h.Cart.Snapshot()
	items := snap.Items
	if items == nil {
		items = []cartdom.Item{}
	}
	return cartDTO{
		Items:         items,
		State:         string(snap.State),
		UID:           snap.UID,
		JustAdded:     snap.JustAdded,
		DistinctCount: cartdom.DistinctCount(items),
		Total:         cartdom.Total(items),
	}
}

// Get returns the cart snapshot with its derived counts.
func (h *CartHandler) Get(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.dto())
}

// AddItem adds a line; an add matching an existing line key increments it.
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	var item cartdom.Item
	if !decodeJSON(w, r, &item) {
		return
	}
	if err := h.Cart.Add(r.Context(), item); err != nil {
		writeErr(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, h.dto())
}

type setQtyRequest struct {
	Qty int `json:"qty"`
}

// SetQuantity sets a line's quantity; qty < 1 removes the line.
func (h *CartHandler) SetQuantity(w http.ResponseWriter, r *http.Request) {
	key := strings.TrimSpace(chi.URLParam(r, "key"))
	if key == "" {
		writeErr(w, http.StatusBadRequest, "item key is required")
		return
	}
	var req setQtyRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if ok := h.Cart.SetQuantity(r.Context(), key, req.Qty); !ok && req.Qty >= 1 {
		writeErr(w, http.StatusNotFound, "cart line not found: "+key)
		return
	}
	writeJSON(w, http.StatusOK, h.dto())
}

// UpdateFields patches non-identity fields of a line.
func (h *CartHandler) UpdateFields(w http.ResponseWriter, r *http.Request) {
	key := strings.TrimSpace(chi.URLParam(r, "key"))
	if key == "" {
		writeErr(w, http.StatusBadRequest, "item key is required")
		return
	}
	var patch cartdom.Patch
	if !decodeJSON(w, r, &patch) {
		return
	}
	if ok := h.Cart.UpdateFields(r.Context(), key, patch); !ok {
		writeErr(w, http.StatusNotFound, "cart line not found: "+key)
		return
	}
	writeJSON(w, http.StatusOK, h.dto())
}

// RemoveItem deletes a line by key; removing a missing line is a no-op.
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	key := strings.TrimSpace(chi.URLParam(r, "key"))
	if key == "" {
		writeErr(w, http.StatusBadRequest, "item key is required")
		return
	}
	h.Cart.Remove(r.Context(), key)
	writeJSON(w, http.StatusOK, h.dto())
}

// Clear empties the cart locally and remotely.
func (h *CartHandler) Clear(w http.ResponseWriter, r *http.Request) {
	h.Cart.Clear(r.Context())
	writeJSON(w, http.StatusOK, h.dto())
}
