package models

import (
	"testing"
	"time"
)

func TestIsSubscriptionActive(t *testing.T) {
	future := time.Now().Add(time.Hour)
	past := time.Now().Add(-time.Hour)

	cases := []struct {
		name   string
		expiry *time.Time
		want   bool
	}{
		{"без даты окончания", nil, false},
		{"дата в будущем", &future, true},
		{"дата в прошлом", &past, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			u := &User{CurrentPlan: PlanPremium, SubscriptionExpiresAt: tc.expiry}
			if got := u.IsSubscriptionActive(); got != tc.want {
				t.Fatalf("IsSubscriptionActive() = %v, ожидалось %v", got, tc.want)
			}
		})
	}
}

func TestPendingSignupExpired(t *testing.T) {
	now := time.Now()
	p := &PendingSignup{ExpiresAt: now.Add(10 * time.Minute)}

	if p.Expired(now) {
		t.Fatal("запись просрочена раньше времени")
	}
	if !p.Expired(now.Add(11 * time.Minute)) {
		t.Fatal("запись не просрочилась после срока")
	}
}
