// internal/adapters/in/http/handler/checkout_handler.go
package handler

import (
	"errors"
	"net/http"

	"atelier/internal/application/checkout"
)

// CheckoutHandler binds the checkout usecase.
type CheckoutHandler struct {
	Checkout *checkout.Usecase
}

func NewCheckoutHandler(u *checkout.Usecase) *CheckoutHandler {
	return &CheckoutHandler{Checkout: u}
}

// Post charges the cart total. On gateway failure the cart is untouched and
// the client may retry.
func (h *CheckoutHandler) Post(w http.ResponseWriter, r *http.Request) {
	res, err := h.Checkout.Checkout(r.Context())
	if err != nil {
		if errors.Is(err, checkout.ErrEmptyCart) {
			writeErr(w, http.StatusConflict, err.Error())
			return
		}
		writeErr(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, res)
}
