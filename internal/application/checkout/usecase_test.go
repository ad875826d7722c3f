package checkout

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cartdom "atelier/internal/domain/cart"
)

type fakeGateway struct {
	err     error
	charges int
	amount  int64
}

func (g *fakeGateway) Charge(ctx context.Context, amount int64, idempotencyKey string) (string, error) {
	g.charges++
	g.amount = amount
	if g.err != nil {
		return "", g.err
	}
	return "pay_123", nil
}

type fakeCart struct {
	items   []cartdom.Item
	cleared int
}

func (c *fakeCart) Items() []cartdom.Item { return c.items }
func (c *fakeCart) Total() int64          { return cartdom.Total(c.items) }
func (c *fakeCart) Clear(ctx context.Context) {
	c.cleared++
	c.items = nil
}

func TestCheckoutChargesTotalAndConsumesCart(t *testing.T) {
	cart := &fakeCart{items: []cartdom.Item{
		{ProductID: "p1", UnitPrice: 500, Qty: 2},
		{ProductID: "p2", UnitPrice: 300, Qty: 1},
	}}
	gw := &fakeGateway{}
	u := New(gw, cart, nil)

	res, err := u.Checkout(context.Background())

	require.NoError(t, err)
	assert.Equal(t, int64(1300), gw.amount)
	assert.Equal(t, "pay_123", res.PaymentRef)
	assert.NotEmpty(t, res.OrderID)
	assert.Len(t, res.Items, 2)
	assert.Equal(t, 1, cart.cleared)
}

func TestCheckoutFailureLeavesCartUntouched(t *testing.T) {
	cart := &fakeCart{items: []cartdom.Item{{ProductID: "p1", UnitPrice: 500, Qty: 1}}}
	gw := &fakeGateway{err: assert.AnError}
	u := New(gw, cart, nil)

	_, err := u.Checkout(context.Background())

	require.Error(t, err)
	assert.Zero(t, cart.cleared)
	assert.Len(t, cart.Items(), 1)
}

func TestCheckoutEmptyCartRejected(t *testing.T) {
	u := New(&fakeGateway{}, &fakeCart{}, nil)
	_, err := u.Checkout(context.Background())
	assert.ErrorIs(t, err, ErrEmptyCart)
}
