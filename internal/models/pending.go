package models

import "time"

// PendingSignup — незавершённая регистрация, ждущая подтверждения кодом.
// Хранится во временном TTL-хранилище, а не в базе.
type PendingSignup struct {
	Identifier   string    `json:"identifier"` // телефон или email
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	Phone        string    `json:"phone"`
	PasswordHash string    `json:"password_hash"`
	Code         string    `json:"code"`
	CreatedAt    time.Time `json:"created_at"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// Expired — истёк ли срок подтверждения.
func (p *PendingSignup) Expired(now time.Time) bool {
	return now.After(p.ExpiresAt)
}
