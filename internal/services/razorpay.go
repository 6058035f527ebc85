package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"palsanalytix/internal/apperrors"
)

// RazorpayService — REST-клиент платёжного шлюза: заказы, платежи,
// capture и возвраты. Авторизация — basic auth ключами магазина.
type RazorpayService struct {
	KeyID      string
	KeySecret  string
	BaseURL    string
	HTTPClient *http.Client
}

func NewRazorpayService(keyID, keySecret string) *RazorpayService {
	return &RazorpayService{
		KeyID:      keyID,
		KeySecret:  keySecret,
		BaseURL:    "https://api.razorpay.com/v1",
		HTTPClient: &http.Client{},
	}
}

type Order struct {
	ID       string            `json:"id"`
	Amount   int64             `json:"amount"` // в пайсах
	Currency string            `json:"currency"`
	Receipt  string            `json:"receipt"`
	Status   string            `json:"status"`
	Notes    map[string]string `json:"notes"`
}

type Payment struct {
	ID       string            `json:"id"`
	OrderID  string            `json:"order_id"`
	Amount   int64             `json:"amount"` // в пайсах
	Currency string            `json:"currency"`
	Status   string            `json:"status"` // created|authorized|captured|refunded|failed
	Notes    map[string]string `json:"notes"`
}

type Refund struct {
	ID        string            `json:"id"`
	PaymentID string            `json:"payment_id"`
	Amount    int64             `json:"amount"`
	Status    string            `json:"status"`
	Notes     map[string]string `json:"notes"`
}

type createOrderRequest struct {
	Amount         int64             `json:"amount"`
	Currency       string            `json:"currency"`
	Receipt        string            `json:"receipt"`
	Notes          map[string]string `json:"notes"`
	PaymentCapture int               `json:"payment_capture"`
}

func (s *RazorpayService) do(ctx context.Context, method, path string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.BaseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(s.KeyID, s.KeySecret)

	resp, err := s.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("%w: шлюз вернул %d: %s", apperrors.ErrUpstream, resp.StatusCode, string(raw))
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("%w: %v", apperrors.ErrUpstream, err)
		}
	}
	return nil
}

// CreateOrder создаёт заказ в шлюзе; notes уходят к платежу как есть и
// возвращаются в webhook-ах.
func (s *RazorpayService) CreateOrder(ctx context.Context, amountPaise int64, currency, receipt string, notes map[string]string) (*Order, error) {
	var order Order
	err := s.do(ctx, http.MethodPost, "/orders", createOrderRequest{
		Amount:         amountPaise,
		Currency:       currency,
		Receipt:        receipt,
		Notes:          notes,
		PaymentCapture: 1,
	}, &order)
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// FetchPayment запрашивает авторитетное состояние платежа.
func (s *RazorpayService) FetchPayment(ctx context.Context, paymentID string) (*Payment, error) {
	var payment Payment
	if err := s.do(ctx, http.MethodGet, "/payments/"+paymentID, nil, &payment); err != nil {
		return nil, err
	}
	return &payment, nil
}

// CapturePayment вручную захватывает авторизованный платёж.
func (s *RazorpayService) CapturePayment(ctx context.Context, paymentID string, amountPaise int64, currency string) (*Payment, error) {
	var payment Payment
	body := map[string]any{"amount": amountPaise, "currency": currency}
	if err := s.do(ctx, http.MethodPost, "/payments/"+paymentID+"/capture", body, &payment); err != nil {
		return nil, err
	}
	return &payment, nil
}

// CreateRefund инициирует возврат платежа (полный, если amountPaise == 0).
func (s *RazorpayService) CreateRefund(ctx context.Context, paymentID string, amountPaise int64, notes map[string]string) (*Refund, error) {
	body := map[string]any{"notes": notes}
	if amountPaise > 0 {
		body["amount"] = amountPaise
	}
	var refund Refund
	if err := s.do(ctx, http.MethodPost, "/payments/"+paymentID+"/refund", body, &refund); err != nil {
		return nil, err
	}
	return &refund, nil
}
