package services

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stylefit/models"
)

type fakeGateway struct {
	result PaymentResult
	err    error
	reqs   []PaymentRequest
}

func (g *fakeGateway) RequestPay(_ context.Context, req PaymentRequest) (PaymentResult, error) {
	g.reqs = append(g.reqs, req)
	return g.result, g.err
}

type fakeNotifier struct {
	mu       sync.Mutex
	statuses []models.OrderStatus
}

func (n *fakeNotifier) OrderUpdated(_ context.Context, o *models.PremiumOrder) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.statuses = append(n.statuses, o.Status)
	return nil
}

func TestCheckout_Success(t *testing.T) {
	gw := &fakeGateway{result: PaymentResult{Success: true}}
	notifier := &fakeNotifier{}
	svc, events := newTestService(t, func(c *SessionServiceConfig) {
		c.Payments = gw
		c.Orders = notifier
	})
	ctx := context.Background()
	id := toResults(t, svc)

	st, err := svc.Checkout(ctx, id, models.Buyer{Name: "Kim"})
	require.NoError(t, err)
	assert.True(t, st.Unlocked)
	assert.False(t, st.SkipOffered)
	require.NotNil(t, st.Order)
	assert.Equal(t, models.OrderPaid, st.Order.Status)
	assert.Contains(t, string(st.Content), "Standard build")

	require.Len(t, gw.reqs, 1)
	req := gw.reqs[0]
	assert.Equal(t, "card", req.PayMethod)
	assert.Equal(t, 9900, req.Amount)
	assert.Equal(t, "StyleFit Premium Report", req.Name)
	assert.Equal(t, "Kim", req.BuyerName)
	assert.Equal(t, "test@example.com", req.BuyerEmail)
	assert.Regexp(t, `^ORD-\d+$`, req.MerchantUID)

	assert.Equal(t, []models.OrderStatus{models.OrderPaid}, notifier.statuses)
	assert.Contains(t, events.kinds(id), "premium.unlocked")

	// already unlocked: no second charge
	_, err = svc.Checkout(ctx, id, models.Buyer{})
	require.NoError(t, err)
	assert.Len(t, gw.reqs, 1)
}

func TestCheckout_DeclinedThenSkip(t *testing.T) {
	gw := &fakeGateway{result: PaymentResult{Success: false, ErrorMsg: "card rejected"}}
	svc, _ := newTestService(t, func(c *SessionServiceConfig) { c.Payments = gw })
	ctx := context.Background()
	id := toResults(t, svc)

	_, err := svc.Skip(ctx, id)
	assert.ErrorIs(t, err, models.ErrSkipNotOffered)

	_, err = svc.Checkout(ctx, id, models.Buyer{})
	assert.ErrorIs(t, err, models.ErrPaymentDeclined)
	assert.EqualError(t, err, "payment failed: card rejected")

	st, err := svc.Premium(ctx, id)
	require.NoError(t, err)
	assert.False(t, st.Unlocked)
	assert.True(t, st.SkipOffered)
	assert.Equal(t, models.OrderDeclined, st.Order.Status)

	_, err = svc.PremiumBlock(ctx, id)
	assert.ErrorIs(t, err, models.ErrPremiumLocked)

	st, err = svc.Skip(ctx, id)
	require.NoError(t, err)
	assert.True(t, st.Unlocked)
	assert.False(t, st.SkipOffered)
	assert.Equal(t, models.OrderSkipped, st.Order.Status)

	html, err := svc.PremiumBlock(ctx, id)
	require.NoError(t, err)
	assert.Contains(t, string(html), "Premium unlocked")
}

func TestCheckout_GatewayUnavailable(t *testing.T) {
	gw := &fakeGateway{err: fmt.Errorf("%w: dial tcp: refused", models.ErrServiceUnavailable)}
	svc, _ := newTestService(t, func(c *SessionServiceConfig) { c.Payments = gw })
	ctx := context.Background()
	id := toResults(t, svc)

	_, err := svc.Checkout(ctx, id, models.Buyer{})
	assert.ErrorIs(t, err, models.ErrServiceUnavailable)

	st, err := svc.Premium(ctx, id)
	require.NoError(t, err)
	assert.False(t, st.Unlocked)
	assert.False(t, st.SkipOffered, "skip is only offered after a reported decline")
	require.NotNil(t, st.Order)
	assert.Equal(t, models.OrderFailed, st.Order.Status, "an unreachable gateway is not a decline")
}

func TestCheckout_NoGatewayConfigured(t *testing.T) {
	svc, _ := newTestService(t, nil)
	id := toResults(t, svc)
	_, err := svc.Checkout(context.Background(), id, models.Buyer{})
	assert.ErrorIs(t, err, models.ErrServiceUnavailable)
}

func TestCheckout_BeforeResults(t *testing.T) {
	svc, _ := newTestService(t, func(c *SessionServiceConfig) { c.Payments = &fakeGateway{} })
	id := toMeasurements(t, svc)
	_, err := svc.Checkout(context.Background(), id, models.Buyer{})
	assert.ErrorIs(t, err, models.ErrResultsNotReady)
}
