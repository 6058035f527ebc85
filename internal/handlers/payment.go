package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-playground/validator"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"palsanalytix/internal/logger"
	"palsanalytix/internal/middleware"
	"palsanalytix/internal/services"
	helpers "palsanalytix/internal/utils/helpres"
)

type PaymentHandler struct {
	payments      *services.PaymentService
	subscriptions *services.SubscriptionService
	validate      *validator.Validate
}

func NewPaymentHandler(payments *services.PaymentService, subscriptions *services.SubscriptionService) *PaymentHandler {
	return &PaymentHandler{
		payments:      payments,
		subscriptions: subscriptions,
		validate:      validator.New(),
	}
}

type createOrderRequest struct {
	Amount   int64  `json:"amount" validate:"required,gt=0"` // в пайсах
	Currency string `json:"currency"`
	Plan     string `json:"plan"`
}

type verifyPaymentRequest struct {
	OrderID   string `json:"razorpay_order_id" validate:"required"`
	PaymentID string `json:"razorpay_payment_id" validate:"required"`
	Signature string `json:"razorpay_signature" validate:"required"`
	Plan      string `json:"plan"`
}

type captureRequest struct {
	Amount   int64  `json:"amount" validate:"required,gt=0"`
	Currency string `json:"currency"`
}

type refundRequest struct {
	UserID    int    `json:"user_id" validate:"required,gt=0"`
	PaymentID string `json:"payment_id" validate:"required"`
	Amount    int64  `json:"amount"`
	Reason    string `json:"reason"`
}

// CreateOrder godoc
// @Summary Создать заказ на оплату подписки
// @Tags payments
// @Security ApiKeyAuth
// @Accept json
// @Produce json
// @Param input body createOrderRequest true "Сумма в пайсах и план"
// @Success 200 {object} services.Order
// @Failure 400 {string} string "Ошибка валидации"
// @Router /api/payments/order [post]
func (h *PaymentHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value(middleware.ContextUserID).(int)
	if !ok {
		helpers.Error(w, http.StatusUnauthorized, "Нет доступа")
		return
	}

	var req createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Log.Warn("Ошибка декодирования JSON в CreateOrder", zap.Error(err))
		helpers.Error(w, http.StatusBadRequest, "Невалидный JSON")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		helpers.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	order, err := h.payments.CreateOrder(context.Background(), userID, req.Amount, req.Currency, req.Plan)
	if err != nil {
		writeError(w, err)
		return
	}
	helpers.JSON(w, http.StatusOK, order)
}

// VerifyPayment godoc
// @Summary Подтвердить оплату подписью Razorpay и активировать подписку
// @Tags payments
// @Security ApiKeyAuth
// @Accept json
// @Produce json
// @Param input body verifyPaymentRequest true "Идентификаторы заказа, платежа и подпись"
// @Success 200 {object} models.SubscriptionSummary
// @Failure 400 {string} string "Неверная подпись платежа"
// @Failure 409 {string} string "Платёж уже учтён"
// @Router /api/payments/verify [post]
func (h *PaymentHandler) VerifyPayment(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value(middleware.ContextUserID).(int)
	if !ok {
		helpers.Error(w, http.StatusUnauthorized, "Нет доступа")
		return
	}

	var req verifyPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Log.Warn("Ошибка декодирования JSON в VerifyPayment", zap.Error(err))
		helpers.Error(w, http.StatusBadRequest, "Невалидный JSON")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		helpers.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	summary, err := h.payments.VerifyPayment(context.Background(), req.OrderID, req.PaymentID, req.Signature, userID, req.Plan)
	if err != nil {
		logger.Log.Warn("Оплата не подтверждена",
			zap.Int("user_id", userID), zap.String("payment_id", req.PaymentID), zap.Error(err))
		writeError(w, err)
		return
	}
	helpers.JSON(w, http.StatusOK, summary)
}

// Capture godoc
// @Summary Захватить авторизованный платёж (только админ)
// @Tags admin
// @Security ApiKeyAuth
// @Accept json
// @Produce json
// @Param paymentId path string true "ID платежа"
// @Param input body captureRequest true "Сумма захвата в пайсах"
// @Success 200 {object} services.Payment
// @Failure 400 {string} string "Ошибка валидации"
// @Router /api/admin/payments/{paymentId}/capture [post]
func (h *PaymentHandler) Capture(w http.ResponseWriter, r *http.Request) {
	paymentID := mux.Vars(r)["paymentId"]

	var req captureRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		helpers.Error(w, http.StatusBadRequest, "Невалидный JSON")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		helpers.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	payment, err := h.payments.Capture(context.Background(), paymentID, req.Amount, req.Currency)
	if err != nil {
		writeError(w, err)
		return
	}
	helpers.JSON(w, http.StatusOK, payment)
}

// Refund godoc
// @Summary Вернуть платёж и отменить подписку (только админ)
// @Tags admin
// @Security ApiKeyAuth
// @Accept json
// @Produce json
// @Param input body refundRequest true "Платёж и причина возврата"
// @Success 200 {object} services.Refund
// @Failure 400 {string} string "Ошибка валидации"
// @Router /api/admin/payments/refund [post]
func (h *PaymentHandler) Refund(w http.ResponseWriter, r *http.Request) {
	var req refundRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		helpers.Error(w, http.StatusBadRequest, "Невалидный JSON")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		helpers.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	refund, err := h.payments.Refund(context.Background(), req.UserID, req.PaymentID, req.Amount, req.Reason)
	if err != nil {
		writeError(w, err)
		return
	}
	helpers.JSON(w, http.StatusOK, refund)
}

// GetPayment godoc
// @Summary Детали платежа из шлюза (только админ)
// @Tags admin
// @Security ApiKeyAuth
// @Produce json
// @Param paymentId path string true "ID платежа"
// @Success 200 {object} services.Payment
// @Failure 404 {string} string "Платёж не найден"
// @Router /api/admin/payments/{paymentId} [get]
func (h *PaymentHandler) GetPayment(w http.ResponseWriter, r *http.Request) {
	paymentID := mux.Vars(r)["paymentId"]

	payment, err := h.payments.FetchPayment(context.Background(), paymentID)
	if err != nil {
		writeError(w, err)
		return
	}
	helpers.JSON(w, http.StatusOK, payment)
}

// GetSubscription godoc
// @Summary Текущая подписка пользователя
// @Tags subscription
// @Security ApiKeyAuth
// @Produce json
// @Param history query bool false "Включить историю покупок"
// @Success 200 {object} models.SubscriptionSummary
// @Failure 401 {string} string "Нет доступа"
// @Router /api/subscription [get]
func (h *PaymentHandler) GetSubscription(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value(middleware.ContextUserID).(int)
	if !ok {
		helpers.Error(w, http.StatusUnauthorized, "Нет доступа")
		return
	}

	withHistory := r.URL.Query().Get("history") == "true"
	summary, err := h.subscriptions.Summary(context.Background(), userID, withHistory)
	if err != nil {
		writeError(w, err)
		return
	}
	helpers.JSON(w, http.StatusOK, summary)
}

// GetSubscriptionStatus godoc
// @Summary Активна ли подписка прямо сейчас
// @Tags subscription
// @Security ApiKeyAuth
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 401 {string} string "Нет доступа"
// @Router /api/subscription/status [get]
func (h *PaymentHandler) GetSubscriptionStatus(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value(middleware.ContextUserID).(int)
	if !ok {
		helpers.Error(w, http.StatusUnauthorized, "Нет доступа")
		return
	}

	summary, err := h.subscriptions.Summary(context.Background(), userID, false)
	if err != nil {
		writeError(w, err)
		return
	}
	helpers.JSON(w, http.StatusOK, map[string]interface{}{
		"is_active":   summary.IsActive,
		"plan":        summary.Plan,
		"expiry_date": summary.ExpiresAt,
	})
}
