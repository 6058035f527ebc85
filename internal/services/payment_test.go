package services

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"palsanalytix/internal/apperrors"
	"palsanalytix/internal/models"
	"palsanalytix/internal/utils"
)

// fakeGateway отвечает заранее заданным платежом и записывает возвраты.
type fakeGateway struct {
	payment *Payment
	refunds []string
	err     error
}

func (g *fakeGateway) CreateOrder(_ context.Context, amountPaise int64, currency, receipt string, notes map[string]string) (*Order, error) {
	if g.err != nil {
		return nil, g.err
	}
	return &Order{ID: "order_1", Amount: amountPaise, Currency: currency, Receipt: receipt, Status: "created", Notes: notes}, nil
}

func (g *fakeGateway) FetchPayment(_ context.Context, paymentID string) (*Payment, error) {
	if g.err != nil {
		return nil, g.err
	}
	p := *g.payment
	p.ID = paymentID
	return &p, nil
}

func (g *fakeGateway) CapturePayment(_ context.Context, paymentID string, amountPaise int64, currency string) (*Payment, error) {
	return &Payment{ID: paymentID, Amount: amountPaise, Currency: currency, Status: "captured"}, nil
}

func (g *fakeGateway) CreateRefund(_ context.Context, paymentID string, amountPaise int64, notes map[string]string) (*Refund, error) {
	g.refunds = append(g.refunds, paymentID)
	return &Refund{ID: "rfnd_1", PaymentID: paymentID, Amount: amountPaise, Status: "processed", Notes: notes}, nil
}

const (
	testKeySecret     = "key_secret"
	testWebhookSecret = "webhook_secret"
)

func newPaymentServiceForTest(gw *fakeGateway) (*PaymentService, *mockSubscriptionStore) {
	store := newMockSubscriptionStore(7)
	subSvc := NewSubscriptionService(store, store)
	return NewPaymentService(gw, subSvc, testKeySecret, testWebhookSecret), store
}

func TestVerifyPayment_Success(t *testing.T) {
	gw := &fakeGateway{payment: &Payment{Status: "captured", Amount: 99900, Notes: map[string]string{"plan": models.PlanPremium}}}
	svc, store := newPaymentServiceForTest(gw)

	signature := utils.SignHMAC("order_1|pay_1", testKeySecret)
	summary, err := svc.VerifyPayment(context.Background(), "order_1", "pay_1", signature, 7, "")

	assert.NoError(t, err)
	assert.True(t, summary.IsActive)
	assert.Equal(t, models.PlanPremium, summary.Plan)
	assert.Len(t, store.entries, 1)
	assert.Equal(t, "pay_1", store.entries[0].PaymentID)
}

func TestVerifyPayment_BadSignature(t *testing.T) {
	gw := &fakeGateway{payment: &Payment{Status: "captured", Amount: 99900}}
	svc, store := newPaymentServiceForTest(gw)

	signature := utils.SignHMAC("order_1|pay_other", testKeySecret)
	_, err := svc.VerifyPayment(context.Background(), "order_1", "pay_1", signature, 7, "")

	assert.ErrorIs(t, err, apperrors.ErrSignatureMismatch)
	assert.Empty(t, store.entries)
}

func TestVerifyPayment_WrongSecret(t *testing.T) {
	gw := &fakeGateway{payment: &Payment{Status: "captured", Amount: 99900}}
	svc, store := newPaymentServiceForTest(gw)

	signature := utils.SignHMAC("order_1|pay_1", "another_secret")
	_, err := svc.VerifyPayment(context.Background(), "order_1", "pay_1", signature, 7, "")

	assert.ErrorIs(t, err, apperrors.ErrSignatureMismatch)
	assert.Empty(t, store.entries)
}

func TestVerifyPayment_NotConfirmedByGateway(t *testing.T) {
	gw := &fakeGateway{payment: &Payment{Status: "failed", Amount: 99900}}
	svc, store := newPaymentServiceForTest(gw)

	signature := utils.SignHMAC("order_1|pay_1", testKeySecret)
	_, err := svc.VerifyPayment(context.Background(), "order_1", "pay_1", signature, 7, "")

	assert.ErrorIs(t, err, apperrors.ErrPaymentNotConfirmed)
	assert.Empty(t, store.entries)
}

func TestRefund_CancelsSubscription(t *testing.T) {
	gw := &fakeGateway{payment: &Payment{Status: "captured", Amount: 49900}}
	svc, store := newPaymentServiceForTest(gw)

	signature := utils.SignHMAC("order_1|pay_r", testKeySecret)
	_, err := svc.VerifyPayment(context.Background(), "order_1", "pay_r", signature, 7, models.PlanBasic)
	assert.NoError(t, err)

	refund, err := svc.Refund(context.Background(), 7, "pay_r", 49900, "")
	assert.NoError(t, err)
	assert.Equal(t, "pay_r", refund.PaymentID)
	assert.Equal(t, []string{"pay_r"}, gw.refunds)
	assert.Equal(t, models.SubStatusCancelled, store.entries[0].Status)
	assert.Equal(t, models.PlanFree, store.user.CurrentPlan)
}

func webhookBody(t *testing.T, event string, payment *Payment, refund *Refund) []byte {
	t.Helper()
	body := map[string]any{"event": event, "payload": map[string]any{}}
	payload := body["payload"].(map[string]any)
	if payment != nil {
		payload["payment"] = map[string]any{"entity": payment}
	}
	if refund != nil {
		payload["refund"] = map[string]any{"entity": refund}
	}
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal webhook body: %v", err)
	}
	return data
}

func TestHandleWebhook_BadSignatureRejected(t *testing.T) {
	gw := &fakeGateway{}
	svc, store := newPaymentServiceForTest(gw)

	body := webhookBody(t, "payment.captured",
		&Payment{ID: "pay_w", Amount: 99900, Status: "captured", Notes: map[string]string{"user_id": "7"}}, nil)

	err := svc.HandleWebhook(context.Background(), body, "deadbeef")
	assert.ErrorIs(t, err, apperrors.ErrSignatureMismatch)
	assert.Empty(t, store.entries)

	// Подпись от изменённого тела тоже не подходит.
	signature := utils.SignHMAC(string(body)+" ", testWebhookSecret)
	err = svc.HandleWebhook(context.Background(), body, signature)
	assert.ErrorIs(t, err, apperrors.ErrSignatureMismatch)
}

func TestHandleWebhook_CapturedActivatesSubscription(t *testing.T) {
	gw := &fakeGateway{}
	svc, store := newPaymentServiceForTest(gw)

	body := webhookBody(t, "payment.captured",
		&Payment{ID: "pay_w1", Amount: 99900, Status: "captured", Notes: map[string]string{"user_id": "7"}}, nil)
	signature := utils.SignHMAC(string(body), testWebhookSecret)

	err := svc.HandleWebhook(context.Background(), body, signature)
	assert.NoError(t, err)
	assert.Len(t, store.entries, 1)
	assert.Equal(t, models.PlanPremium, store.entries[0].PlanName)
	assert.True(t, store.user.IsSubscriptionActive())
}

func TestHandleWebhook_DuplicateDeliveryIdempotent(t *testing.T) {
	gw := &fakeGateway{}
	svc, store := newPaymentServiceForTest(gw)

	body := webhookBody(t, "payment.captured",
		&Payment{ID: "pay_w2", Amount: 49900, Status: "captured", Notes: map[string]string{"user_id": "7"}}, nil)
	signature := utils.SignHMAC(string(body), testWebhookSecret)

	assert.NoError(t, svc.HandleWebhook(context.Background(), body, signature))
	assert.NoError(t, svc.HandleWebhook(context.Background(), body, signature))
	assert.Len(t, store.entries, 1)
}

func TestHandleWebhook_GuestPaymentSkipped(t *testing.T) {
	gw := &fakeGateway{}
	svc, store := newPaymentServiceForTest(gw)

	body := webhookBody(t, "payment.captured",
		&Payment{ID: "pay_w3", Amount: 49900, Status: "captured", Notes: map[string]string{"user_id": "guest"}}, nil)
	signature := utils.SignHMAC(string(body), testWebhookSecret)

	assert.NoError(t, svc.HandleWebhook(context.Background(), body, signature))
	assert.Empty(t, store.entries)
}

func TestHandleWebhook_RefundCancels(t *testing.T) {
	gw := &fakeGateway{payment: &Payment{Status: "captured", Amount: 49900}}
	svc, store := newPaymentServiceForTest(gw)

	signature := utils.SignHMAC("order_1|pay_w4", testKeySecret)
	_, err := svc.VerifyPayment(context.Background(), "order_1", "pay_w4", signature, 7, models.PlanBasic)
	assert.NoError(t, err)

	body := webhookBody(t, "refund.created", nil, &Refund{ID: "rfnd_w", PaymentID: "pay_w4", Amount: 49900})
	whSignature := utils.SignHMAC(string(body), testWebhookSecret)

	assert.NoError(t, svc.HandleWebhook(context.Background(), body, whSignature))
	assert.Equal(t, models.SubStatusCancelled, store.entries[0].Status)
	assert.Equal(t, models.PlanFree, store.user.CurrentPlan)
}

func TestHandleWebhook_UnhandledEventIgnored(t *testing.T) {
	gw := &fakeGateway{}
	svc, store := newPaymentServiceForTest(gw)

	body := webhookBody(t, "order.paid",
		&Payment{ID: "pay_w5", Amount: 49900, Status: "captured", Notes: map[string]string{"user_id": "7"}}, nil)
	signature := utils.SignHMAC(string(body), testWebhookSecret)

	assert.NoError(t, svc.HandleWebhook(context.Background(), body, signature))
	assert.Empty(t, store.entries)
}

func TestCreateOrder_NotesCarryUserAndPlan(t *testing.T) {
	gw := &fakeGateway{}
	svc, _ := newPaymentServiceForTest(gw)

	order, err := svc.CreateOrder(context.Background(), 7, 99900, "", "")
	assert.NoError(t, err)
	assert.Equal(t, "INR", order.Currency)
	assert.Equal(t, "7", order.Notes["user_id"])
	assert.Equal(t, models.PlanPremium, order.Notes["plan"])
}

func TestCreateOrder_InvalidAmount(t *testing.T) {
	gw := &fakeGateway{}
	svc, _ := newPaymentServiceForTest(gw)

	_, err := svc.CreateOrder(context.Background(), 7, 0, "INR", models.PlanBasic)
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	_, err = svc.CreateOrder(context.Background(), 7, 12345, "INR", "")
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

// Время активации из webhook близко к моменту обработки.
func TestHandleWebhook_ActivationTimestamps(t *testing.T) {
	gw := &fakeGateway{}
	svc, store := newPaymentServiceForTest(gw)

	body := webhookBody(t, "payment.captured",
		&Payment{ID: "pay_w6", Amount: 99900, Status: "captured", Notes: map[string]string{"user_id": "7"}}, nil)
	signature := utils.SignHMAC(string(body), testWebhookSecret)

	before := time.Now()
	assert.NoError(t, svc.HandleWebhook(context.Background(), body, signature))

	entry := store.entries[0]
	assert.WithinDuration(t, before, entry.PurchasedAt, 5*time.Second)
	assert.WithinDuration(t, before.AddDate(1, 0, 0), entry.ExpiresAt, 5*time.Second)
}
