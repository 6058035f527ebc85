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

// SMSService — клиент SMS-шлюза для доставки кодов подтверждения.
// Квитанций о доставке шлюз не отдаёт: успех или ошибка, третьего нет.
type SMSService struct {
	GatewayURL string
	APIKey     string
	SenderID   string
	HTTPClient *http.Client
}

func NewSMSService(gatewayURL, apiKey, senderID string) *SMSService {
	return &SMSService{
		GatewayURL: gatewayURL,
		APIKey:     apiKey,
		SenderID:   senderID,
		HTTPClient: &http.Client{},
	}
}

type smsRequest struct {
	To      string `json:"to"`
	Message string `json:"message"`
	Sender  string `json:"sender"`
}

func (s *SMSService) Send(ctx context.Context, phone, message string) error {
	data, err := json.Marshal(smsRequest{To: phone, Message: message, Sender: s.SenderID})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.GatewayURL, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.APIKey)

	resp, err := s.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("%w: SMS-шлюз вернул %d: %s", apperrors.ErrUpstream, resp.StatusCode, string(raw))
	}
	return nil
}
