package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"

	"go.uber.org/zap"

	"stylefit/metrics"
	"stylefit/models"
)

// PremiumConfig describes the single premium product.
type PremiumConfig struct {
	PG           string
	PayMethod    string
	ItemName     string
	Amount       int
	DefaultBuyer models.Buyer
}

func (c PremiumConfig) withDefaults() PremiumConfig {
	if c.PG == "" {
		c.PG = "html5_inicis"
	}
	if c.PayMethod == "" {
		c.PayMethod = "card"
	}
	if c.ItemName == "" {
		c.ItemName = "StyleFit Premium Report"
	}
	if c.Amount == 0 {
		c.Amount = 9900
	}
	if c.DefaultBuyer.Email == "" {
		c.DefaultBuyer.Email = "test@example.com"
	}
	if c.DefaultBuyer.Name == "" {
		c.DefaultBuyer.Name = "Tester"
	}
	if c.DefaultBuyer.Tel == "" {
		c.DefaultBuyer.Tel = "010-1234-5678"
	}
	return c
}

// PaymentDeclinedError carries the gateway's message for a refused payment.
type PaymentDeclinedError struct {
	OrderID string
	Message string
}

func (e *PaymentDeclinedError) Error() string {
	return "payment failed: " + e.Message
}

func (e *PaymentDeclinedError) Unwrap() error { return models.ErrPaymentDeclined }

// PremiumStatus is what the client needs to render the premium banner.
type PremiumStatus struct {
	Unlocked    bool                 `json:"unlocked"`
	SkipOffered bool                 `json:"skip_offered"`
	Order       *models.PremiumOrder `json:"order,omitempty"`
	Content     template.HTML        `json:"content,omitempty"`
}

var premiumBlock = template.Must(template.New("premium").Parse(
	`<div class="premium-unlocked"><h3>🎉 Premium unlocked</h3>` +
		`<p>Full styling guide for your {{.}}:</p>` +
		`<ul><li>Seasonal outfit plans</li><li>Brand picks by budget</li><li>Fit checklist for tailoring</li></ul></div>`))

// Checkout requests payment for the premium report. A decline leaves the
// banner locked and offers the skip path.
func (svc *SessionService) Checkout(ctx context.Context, id string, buyer models.Buyer) (*PremiumStatus, error) {
	if svc.payments == nil {
		return nil, fmt.Errorf("%w: payment module not loaded", models.ErrServiceUnavailable)
	}

	unlock := svc.locks.Lock(id)
	defer unlock()

	s, err := svc.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if s.CurrentStep != models.StepResults {
		return nil, models.ErrResultsNotReady
	}
	if s.PremiumUnlocked {
		return svc.premiumStatus(ctx, s)
	}

	buyer = svc.buyerOrDefault(buyer)
	order := &models.PremiumOrder{
		OrderID:    fmt.Sprintf("ORD-%d", svc.now().UnixMilli()),
		SessionID:  s.ID,
		Method:     svc.premium.PayMethod,
		ItemName:   svc.premium.ItemName,
		Amount:     svc.premium.Amount,
		BuyerEmail: buyer.Email,
		BuyerName:  buyer.Name,
		BuyerTel:   buyer.Tel,
		Status:     models.OrderPending,
	}
	if err := svc.store.CreateOrder(ctx, order); err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	res, err := svc.payments.RequestPay(ctx, PaymentRequest{
		PG:          svc.premium.PG,
		PayMethod:   order.Method,
		MerchantUID: order.OrderID,
		Name:        order.ItemName,
		Amount:      order.Amount,
		BuyerEmail:  order.BuyerEmail,
		BuyerName:   order.BuyerName,
		BuyerTel:    order.BuyerTel,
	})
	if err != nil {
		order.Status = models.OrderFailed
		order.ErrorMessage = err.Error()
		svc.saveOrder(ctx, order)
		if !errors.Is(err, models.ErrServiceUnavailable) {
			err = fmt.Errorf("%w: %v", models.ErrServiceUnavailable, err)
		}
		return nil, err
	}

	if !res.Success {
		order.Status = models.OrderDeclined
		order.ErrorMessage = res.ErrorMsg
		svc.saveOrder(ctx, order)

		s.SkipOffered = true
		if err := svc.store.Save(ctx, s); err != nil {
			return nil, fmt.Errorf("save session: %w", err)
		}
		svc.logger.Info("payment declined", zap.String("session_id", id), zap.String("order_id", order.OrderID))
		return nil, &PaymentDeclinedError{OrderID: order.OrderID, Message: res.ErrorMsg}
	}

	order.Status = models.OrderPaid
	svc.saveOrder(ctx, order)
	if err := svc.unlockPremium(ctx, s, "paid"); err != nil {
		return nil, err
	}
	return svc.premiumStatus(ctx, s)
}

// Skip unlocks premium without payment. Only offered after a declined payment.
func (svc *SessionService) Skip(ctx context.Context, id string) (*PremiumStatus, error) {
	unlock := svc.locks.Lock(id)
	defer unlock()

	s, err := svc.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if s.PremiumUnlocked {
		return svc.premiumStatus(ctx, s)
	}
	if !s.SkipOffered {
		return nil, models.ErrSkipNotOffered
	}

	if order, err := svc.store.LatestOrder(ctx, id); err == nil && order != nil {
		order.Status = models.OrderSkipped
		svc.saveOrder(ctx, order)
	}
	if err := svc.unlockPremium(ctx, s, "skipped"); err != nil {
		return nil, err
	}
	return svc.premiumStatus(ctx, s)
}

// Premium reports the banner state, with the unlocked block when available.
func (svc *SessionService) Premium(ctx context.Context, id string) (*PremiumStatus, error) {
	s, err := svc.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return svc.premiumStatus(ctx, s)
}

// PremiumBlock renders the unlocked premium content for the session.
func (svc *SessionService) PremiumBlock(ctx context.Context, id string) (template.HTML, error) {
	s, err := svc.store.Get(ctx, id)
	if err != nil {
		return "", err
	}
	return svc.renderPremium(s)
}

func (svc *SessionService) renderPremium(s *models.Session) (template.HTML, error) {
	if !s.PremiumUnlocked {
		return "", models.ErrPremiumLocked
	}
	label := "body type"
	if s.BodyType != nil {
		label = svc.catalog.BodyType(*s.BodyType).Label
	}
	var buf bytes.Buffer
	if err := premiumBlock.Execute(&buf, label); err != nil {
		return "", err
	}
	return template.HTML(buf.String()), nil
}

func (svc *SessionService) premiumStatus(ctx context.Context, s *models.Session) (*PremiumStatus, error) {
	st := &PremiumStatus{Unlocked: s.PremiumUnlocked, SkipOffered: s.SkipOffered}
	order, err := svc.store.LatestOrder(ctx, s.ID)
	if err != nil {
		return nil, err
	}
	st.Order = order
	if s.PremiumUnlocked {
		html, err := svc.renderPremium(s)
		if err != nil {
			return nil, err
		}
		st.Content = html
	}
	return st, nil
}

func (svc *SessionService) unlockPremium(ctx context.Context, s *models.Session, via string) error {
	s.PremiumUnlocked = true
	s.SkipOffered = false
	if err := svc.store.Save(ctx, s); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	metrics.ObserveUnlock(via)
	svc.events.Broadcast(s.ID, map[string]any{"kind": "premium.unlocked", "via": via})
	svc.logger.Info("premium unlocked", zap.String("session_id", s.ID), zap.String("via", via))
	return nil
}

// saveOrder persists the order and notifies downstream; failures are only logged.
func (svc *SessionService) saveOrder(ctx context.Context, o *models.PremiumOrder) {
	if err := svc.store.SaveOrder(ctx, o); err != nil {
		svc.logger.Warn("save order failed", zap.String("order_id", o.OrderID), zap.Error(err))
		return
	}
	if svc.orders == nil {
		return
	}
	if err := svc.orders.OrderUpdated(ctx, o); err != nil {
		svc.logger.Warn("order notification failed", zap.String("order_id", o.OrderID), zap.Error(err))
	}
}

func (svc *SessionService) buyerOrDefault(b models.Buyer) models.Buyer {
	d := svc.premium.DefaultBuyer
	if b.Email == "" {
		b.Email = d.Email
	}
	if b.Name == "" {
		b.Name = d.Name
	}
	if b.Tel == "" {
		b.Tel = d.Tel
	}
	return b
}
