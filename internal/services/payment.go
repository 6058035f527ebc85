package services

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"palsanalytix/internal/apperrors"
	"palsanalytix/internal/logger"
	"palsanalytix/internal/models"
	"palsanalytix/internal/utils"
)

type PaymentGateway interface {
	CreateOrder(ctx context.Context, amountPaise int64, currency, receipt string, notes map[string]string) (*Order, error)
	FetchPayment(ctx context.Context, paymentID string) (*Payment, error)
	CapturePayment(ctx context.Context, paymentID string, amountPaise int64, currency string) (*Payment, error)
	CreateRefund(ctx context.Context, paymentID string, amountPaise int64, notes map[string]string) (*Refund, error)
}

// PaymentService — мост между платёжным шлюзом и автоматом подписки:
// заказы, проверка подписи платежа, capture, возвраты и webhook-события.
type PaymentService struct {
	gateway       PaymentGateway
	subscriptions *SubscriptionService
	keySecret     string
	webhookSecret string
}

func NewPaymentService(gateway PaymentGateway, subscriptions *SubscriptionService, keySecret, webhookSecret string) *PaymentService {
	return &PaymentService{
		gateway:       gateway,
		subscriptions: subscriptions,
		keySecret:     keySecret,
		webhookSecret: webhookSecret,
	}
}

// CreateOrder создаёт заказ в шлюзе, пряча в notes пользователя и план —
// webhook-и возвращают их обратно.
func (s *PaymentService) CreateOrder(ctx context.Context, userID int, amountPaise int64, currency, plan string) (*Order, error) {
	if amountPaise <= 0 {
		return nil, apperrors.ErrValidation
	}
	if plan == "" {
		inferred, err := PlanForAmount(amountPaise)
		if err != nil {
			return nil, err
		}
		plan = inferred
	}
	if !IsPaidPlan(plan) {
		return nil, apperrors.ErrValidation
	}
	if currency == "" {
		currency = "INR"
	}

	receipt := "rcpt_" + uuid.New().String()
	notes := map[string]string{
		"user_id": strconv.Itoa(userID),
		"plan":    plan,
	}

	order, err := s.gateway.CreateOrder(ctx, amountPaise, currency, receipt, notes)
	if err != nil {
		logger.Log.Error("Ошибка создания заказа в шлюзе (service)", zap.Error(err))
		return nil, err
	}

	logger.Log.Info("Заказ создан (service)",
		zap.String("order_id", order.ID),
		zap.Int("user_id", userID),
		zap.String("plan", plan),
	)
	return order, nil
}

// VerifyPayment сверяет подпись HMAC-SHA256("order_id|payment_id") в константное
// время, затем требует от шлюза статус authorized или captured и только после
// этого активирует подписку.
func (s *PaymentService) VerifyPayment(ctx context.Context, orderID, paymentID, signature string, userID int, plan string) (*models.SubscriptionSummary, error) {
	if orderID == "" || paymentID == "" || signature == "" {
		return nil, apperrors.ErrValidation
	}
	if userID <= 0 {
		return nil, apperrors.ErrValidation
	}

	if !utils.VerifyHMAC(orderID+"|"+paymentID, s.keySecret, signature) {
		logger.Log.Warn("Неверная подпись платежа (service)",
			zap.String("order_id", orderID), zap.String("payment_id", paymentID))
		return nil, apperrors.ErrSignatureMismatch
	}

	payment, err := s.gateway.FetchPayment(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if payment.Status != "authorized" && payment.Status != "captured" {
		logger.Log.Warn("Платёж не подтверждён шлюзом (service)",
			zap.String("payment_id", paymentID), zap.String("status", payment.Status))
		return nil, apperrors.ErrPaymentNotConfirmed
	}

	if plan == "" {
		plan = payment.Notes["plan"]
	}
	return s.subscriptions.Activate(ctx, userID, plan, payment.Amount, paymentID, time.Now())
}

// Capture — явный захват авторизованного платежа, чистый passthrough.
func (s *PaymentService) Capture(ctx context.Context, paymentID string, amountPaise int64, currency string) (*Payment, error) {
	if paymentID == "" || amountPaise <= 0 {
		return nil, apperrors.ErrValidation
	}
	if currency == "" {
		currency = "INR"
	}
	return s.gateway.CapturePayment(ctx, paymentID, amountPaise, currency)
}

// Refund инициирует возврат и отменяет соответствующую запись истории.
func (s *PaymentService) Refund(ctx context.Context, userID int, paymentID string, amountPaise int64, reason string) (*Refund, error) {
	if paymentID == "" || userID <= 0 {
		return nil, apperrors.ErrValidation
	}
	notes := map[string]string{"reason": reason}
	if reason == "" {
		notes["reason"] = "customer_request"
	}

	refund, err := s.gateway.CreateRefund(ctx, paymentID, amountPaise, notes)
	if err != nil {
		logger.Log.Error("Ошибка создания возврата (service)", zap.Error(err))
		return nil, err
	}

	if err := s.subscriptions.CancelByPayment(ctx, userID, paymentID); err != nil {
		logger.Log.Error("Возврат создан, но отмена подписки не удалась (service)",
			zap.Int("user_id", userID), zap.String("payment_id", paymentID), zap.Error(err))
		return nil, err
	}
	return refund, nil
}

// FetchPayment — запрос деталей платежа из шлюза.
func (s *PaymentService) FetchPayment(ctx context.Context, paymentID string) (*Payment, error) {
	if paymentID == "" {
		return nil, apperrors.ErrValidation
	}
	return s.gateway.FetchPayment(ctx, paymentID)
}

type webhookEvent struct {
	Event   string `json:"event"`
	Payload struct {
		Payment struct {
			Entity Payment `json:"entity"`
		} `json:"payment"`
		Refund struct {
			Entity Refund `json:"entity"`
		} `json:"refund"`
	} `json:"payload"`
}

// HandleWebhook проверяет подпись сырого тела (отдельным webhook-секретом)
// и разбирает событие. Неверная подпись — единственная ошибка, которую видит
// шлюз; сбои обработки только логируются, чтобы не провоцировать повторные
// доставки.
func (s *PaymentService) HandleWebhook(ctx context.Context, body []byte, signature string) error {
	if signature == "" || !utils.VerifyHMAC(string(body), s.webhookSecret, signature) {
		logger.Log.Warn("Неверная подпись webhook")
		return apperrors.ErrSignatureMismatch
	}

	var event webhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		logger.Log.Error("Ошибка разбора webhook", zap.Error(err))
		return nil
	}

	switch event.Event {
	case "payment.captured":
		s.processCapturedWebhook(ctx, &event.Payload.Payment.Entity)
	case "refund.created":
		s.processRefundWebhook(ctx, &event.Payload.Refund.Entity)
	case "payment.authorized", "payment.failed":
		logger.Log.Info("Webhook получен, обработка не требуется", zap.String("event", event.Event))
	default:
		logger.Log.Info("Необрабатываемое событие webhook", zap.String("event", event.Event))
	}
	return nil
}

func (s *PaymentService) processCapturedWebhook(ctx context.Context, payment *Payment) {
	rawUserID := payment.Notes["user_id"]
	if rawUserID == "" || rawUserID == "guest" {
		logger.Log.Info("Webhook payment.captured без пользователя, пропуск",
			zap.String("payment_id", payment.ID))
		return
	}
	userID, err := strconv.Atoi(rawUserID)
	if err != nil {
		logger.Log.Error("Некорректный user_id в notes платежа",
			zap.String("raw_user_id", rawUserID), zap.Error(err))
		return
	}

	_, err = s.subscriptions.Activate(ctx, userID, payment.Notes["plan"], payment.Amount, payment.ID, time.Now())
	if errors.Is(err, apperrors.ErrDuplicatePayment) {
		logger.Log.Info("Повторная доставка webhook, платёж уже учтён",
			zap.String("payment_id", payment.ID))
		return
	}
	if err != nil {
		logger.Log.Error("Ошибка активации подписки из webhook",
			zap.Int("user_id", userID), zap.String("payment_id", payment.ID), zap.Error(err))
	}
}

func (s *PaymentService) processRefundWebhook(ctx context.Context, refund *Refund) {
	err := s.subscriptions.CancelByPaymentLookup(ctx, refund.PaymentID)
	if errors.Is(err, apperrors.ErrNotFound) {
		logger.Log.Warn("Возврат по неизвестному платежу",
			zap.String("payment_id", refund.PaymentID))
		return
	}
	if err != nil {
		logger.Log.Error("Ошибка обработки возврата из webhook",
			zap.String("payment_id", refund.PaymentID), zap.Error(err))
	}
}
