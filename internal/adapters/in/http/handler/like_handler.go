// internal/adapters/in/http/handler/like_handler.go
package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"atelier/internal/application/likes"
)

// LikeHandler binds the optimistic like toggle.
type LikeHandler struct {
	Likes *likes.Engine
}

func NewLikeHandler(e *likes.Engine) *LikeHandler {
	return &LikeHandler{Likes: e}
}

type likeDTO struct {
	ItemID  string `json:"itemId"`
	Count   int    `json:"count"`
	Liked   bool   `json:"liked"`
	Pending bool   `json:"pending"`
}

func (h *LikeHandler) dto(itemID string) likeDTO {
	return likeDTO{
		ItemID:  itemID,
		Count:   h.Likes.Count(itemID),
		Liked:   h.Likes.Liked(itemID),
		Pending: h.Likes.Pending(itemID),
	}
}

// Get returns the displayed count and liked flag, seeding the base count
// from the remote on first sight of the item.
func (h *LikeHandler) Get(w http.ResponseWriter, r *http.Request) {
	itemID := strings.TrimSpace(chi.URLParam(r, "itemId"))
	if itemID == "" {
		writeErr(w, http.StatusBadRequest, "itemId is required")
		return
	}
	h.Likes.EnsureLoaded(r.Context(), itemID)
	writeJSON(w, http.StatusOK, h.dto(itemID))
}

// Toggle flips the like. The response reflects the state after the remote
// outcome: confirmed on success, rolled back on failure.
func (h *LikeHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	itemID := strings.TrimSpace(chi.URLParam(r, "itemId"))
	if itemID == "" {
		writeErr(w, http.StatusBadRequest, "itemId is required")
		return
	}

	if err := h.Likes.Toggle(r.Context(), itemID); err != nil {
		if errors.Is(err, likes.ErrUnauthenticated) {
			writeErr(w, http.StatusUnauthorized, err.Error())
			return
		}
		writeJSON(w, http.StatusBadGateway, map[string]any{
			"error": err.Error(),
			"state": h.dto(itemID),
		})
		return
	}
	writeJSON(w, http.StatusOK, h.dto(itemID))
}
