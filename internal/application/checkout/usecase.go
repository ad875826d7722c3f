// internal/application/checkout/usecase.go
package checkout

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	cartdom "atelier/internal/domain/cart"
)

var (
	ErrEmptyCart = errors.New("checkout: cart is empty")
)

// Gateway is the opaque payment service: an amount in, a payment reference
// out, or an error (failure/cancel). The gateway protocol is not our
// concern; only the binary outcome is consumed.
type Gateway interface {
	Charge(ctx context.Context, amount int64, idempotencyKey string) (reference string, err error)
}

// Cart is the slice of the cart engine checkout needs.
type Cart interface {
	Items() []cartdom.Item
	Total() int64
	Clear(ctx context.Context)
}

// Result is returned to the caller on a confirmed payment.
type Result struct {
	OrderID    string         `json:"orderId"`
	PaymentRef string         `json:"paymentRef"`
	Amount     int64          `json:"amount"`
	Items      []cartdom.Item `json:"items"`
}

type Usecase struct {
	gateway Gateway
	cart    Cart
	log     *slog.Logger
}

func New(gateway Gateway, cart Cart, logger *slog.Logger) *Usecase {
	if logger == nil {
		logger = slog.Default()
	}
	return &Usecase{gateway: gateway, cart: cart, log: logger.With("component", "checkout")}
}

// Checkout charges the cart total and, only on confirmed success, consumes
// the cart. A gateway failure leaves the cart untouched so the user can
// retry.
func (u *Usecase) Checkout(ctx context.Context) (Result, error) {
	items := u.cart.Items()
	if len(items) == 0 {
		return Result{}, ErrEmptyCart
	}
	amount := u.cart.Total()

	key := uuid.NewString()
	ref, err := u.gateway.Charge(ctx, amount, key)
	if err != nil {
		u.log.Warn("charge failed", "amount", amount, "err", err)
		return Result{}, err
	}

	u.cart.Clear(ctx)
	res := Result{
		OrderID:    uuid.NewString(),
		PaymentRef: ref,
		Amount:     amount,
		Items:      items,
	}
	u.log.Info("payment confirmed", "orderId", res.OrderID, "amount", amount)
	return res, nil
}
