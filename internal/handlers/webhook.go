package handlers

import (
	"errors"
	"io"
	"net/http"

	"go.uber.org/zap"

	"palsanalytix/internal/apperrors"
	"palsanalytix/internal/logger"
	"palsanalytix/internal/services"
)

type WebhookHandler struct {
	payments *services.PaymentService
}

func NewWebhookHandler(payments *services.PaymentService) *WebhookHandler {
	return &WebhookHandler{payments: payments}
}

// HandleRazorpay godoc
// @Summary Обработка webhook от Razorpay
// @Tags payments
// @Accept json
// @Produce json
// @Param X-Razorpay-Signature header string true "Подпись тела запроса"
// @Success 200 {string} string "OK"
// @Failure 400 {string} string "Неверная подпись"
// @Router /webhooks/razorpay [post]
func (h *WebhookHandler) HandleRazorpay(w http.ResponseWriter, r *http.Request) {
	// Подпись считается от сырого тела, поэтому читаем его до разбора JSON.
	body, err := io.ReadAll(r.Body)
	if err != nil {
		logger.Log.Error("Ошибка чтения тела webhook", zap.Error(err))
		http.Error(w, "cannot read body", http.StatusBadRequest)
		return
	}

	signature := r.Header.Get("X-Razorpay-Signature")

	err = h.payments.HandleWebhook(r.Context(), body, signature)
	if errors.Is(err, apperrors.ErrSignatureMismatch) {
		http.Error(w, "invalid signature", http.StatusBadRequest)
		return
	}
	// Любой другой исход — 200: шлюзу незачем доставлять событие повторно.
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}
