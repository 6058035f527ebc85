package models

import "time"

// Планы подписки.
const (
	PlanFree       = "FREE"
	PlanBasic      = "BASIC"
	PlanPremium    = "PREMIUM"
	PlanEnterprise = "ENTERPRISE"
)

// Статусы записей в истории подписок.
const (
	SubStatusActive    = "ACTIVE"
	SubStatusExpired   = "EXPIRED"
	SubStatusCancelled = "CANCELLED"
)

type User struct {
	ID                    int        `json:"id"`
	Username              string     `json:"username"`
	Email                 string     `json:"email"`
	Phone                 string     `json:"phone"`
	PasswordHash          string     `json:"-"`
	IsVerified            bool       `json:"is_verified"`
	IsAdmin               bool       `json:"is_admin"`
	CurrentPlan           string     `json:"current_subscription_plan"`
	SubscriptionExpiresAt *time.Time `json:"subscription_expiry_date,omitempty"`
	CurrentCourse         string     `json:"current_course,omitempty"`
	CurrentChapter        string     `json:"current_chapter,omitempty"`
	NotificationsEnabled  bool       `json:"notifications_enabled"`
	CreatedAt             time.Time  `json:"created_at"`
	UpdatedAt             time.Time  `json:"updated_at"`
}

// IsSubscriptionActive — единственное место, где определяется активность подписки:
// дата окончания выставлена и строго в будущем. Метка плана сама по себе
// ничего не значит.
func (u *User) IsSubscriptionActive() bool {
	return u.SubscriptionExpiresAt != nil && u.SubscriptionExpiresAt.After(time.Now())
}

// SubscriptionEntry — одна запись истории подписок. Записи только добавляются
// и меняют статус, удаление не предусмотрено.
type SubscriptionEntry struct {
	ID          int       `json:"id"`
	UserID      int       `json:"user_id"`
	PlanName    string    `json:"plan_name"`
	PurchasedAt time.Time `json:"date_of_purchase"`
	ExpiresAt   time.Time `json:"expiry_date"`
	AmountPaid  int64     `json:"amount_paid"` // в пайсах
	PaymentID   string    `json:"payment_id"`
	Status      string    `json:"status"`
}

type SubscriptionSummary struct {
	Plan      string              `json:"plan"`
	ExpiresAt *time.Time          `json:"expiry_date,omitempty"`
	IsActive  bool                `json:"is_active"`
	History   []SubscriptionEntry `json:"history,omitempty"`
}

type UpdatePreferencesRequest struct {
	Course               *string `json:"course,omitempty"`
	Chapter              *string `json:"chapter,omitempty"`
	NotificationsEnabled *bool   `json:"notifications_enabled,omitempty"`
}
