package utils

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// SignHMAC считает HMAC-SHA256 от payload и возвращает hex-строку.
// Razorpay подписывает подтверждение платежа как "order_id|payment_id",
// а webhook — сырым телом запроса, каждое своим секретом.
func SignHMAC(payload, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(payload))
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifyHMAC сравнивает подпись в константное время.
func VerifyHMAC(payload, secret, signature string) bool {
	expected := SignHMAC(payload, secret)
	return hmac.Equal([]byte(expected), []byte(signature))
}
