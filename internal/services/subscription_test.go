package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"palsanalytix/internal/apperrors"
	"palsanalytix/internal/models"
)

// mockSubscriptionStore изображает репозитории подписок и пользователей
// поверх одной структуры в памяти.
type mockSubscriptionStore struct {
	entries []models.SubscriptionEntry
	user    *models.User
}

func newMockSubscriptionStore(userID int) *mockSubscriptionStore {
	return &mockSubscriptionStore{
		user: &models.User{ID: userID, CurrentPlan: models.PlanFree},
	}
}

func (m *mockSubscriptionStore) Activate(_ context.Context, entry *models.SubscriptionEntry) error {
	for _, e := range m.entries {
		if e.PaymentID == entry.PaymentID {
			return apperrors.ErrDuplicatePayment
		}
	}
	e := *entry
	e.ID = len(m.entries) + 1
	e.Status = models.SubStatusActive
	m.entries = append(m.entries, e)

	expiry := entry.ExpiresAt
	m.user.CurrentPlan = entry.PlanName
	m.user.SubscriptionExpiresAt = &expiry
	return nil
}

func (m *mockSubscriptionStore) CancelByPayment(_ context.Context, userID int, paymentID string) error {
	for i, e := range m.entries {
		if e.UserID == userID && e.PaymentID == paymentID {
			m.entries[i].Status = models.SubStatusCancelled
			if m.user.SubscriptionExpiresAt != nil && m.user.SubscriptionExpiresAt.Equal(e.ExpiresAt) {
				m.user.CurrentPlan = models.PlanFree
				m.user.SubscriptionExpiresAt = nil
			}
			return nil
		}
	}
	return apperrors.ErrNotFound
}

func (m *mockSubscriptionStore) FindUserByPaymentID(_ context.Context, paymentID string) (int, error) {
	for _, e := range m.entries {
		if e.PaymentID == paymentID {
			return e.UserID, nil
		}
	}
	return 0, apperrors.ErrNotFound
}

func (m *mockSubscriptionStore) GetHistory(_ context.Context, userID int) ([]models.SubscriptionEntry, error) {
	var out []models.SubscriptionEntry
	for _, e := range m.entries {
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *mockSubscriptionStore) GetUserByID(_ context.Context, id int) (*models.User, error) {
	if m.user == nil || m.user.ID != id {
		return nil, apperrors.ErrNotFound
	}
	return m.user, nil
}

func TestActivate_ExpiryIsOneYearFromConfirmation(t *testing.T) {
	store := newMockSubscriptionStore(7)
	svc := NewSubscriptionService(store, store)

	confirmedAt := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	summary, err := svc.Activate(context.Background(), 7, models.PlanPremium, 99900, "pay_1", confirmedAt)

	assert.NoError(t, err)
	assert.True(t, summary.IsActive)
	assert.Equal(t, models.PlanPremium, summary.Plan)
	assert.Equal(t, confirmedAt.AddDate(1, 0, 0), *summary.ExpiresAt)

	assert.Len(t, store.entries, 1)
	assert.Equal(t, models.SubStatusActive, store.entries[0].Status)
	assert.Equal(t, int64(99900), store.entries[0].AmountPaid)
}

func TestActivate_DuplicatePaymentRejected(t *testing.T) {
	store := newMockSubscriptionStore(7)
	svc := NewSubscriptionService(store, store)

	_, err := svc.Activate(context.Background(), 7, models.PlanBasic, 49900, "pay_dup", time.Now())
	assert.NoError(t, err)

	_, err = svc.Activate(context.Background(), 7, models.PlanBasic, 49900, "pay_dup", time.Now())
	assert.ErrorIs(t, err, apperrors.ErrDuplicatePayment)
	assert.Len(t, store.entries, 1)
}

func TestActivate_PlanInferredFromAmount(t *testing.T) {
	store := newMockSubscriptionStore(7)
	svc := NewSubscriptionService(store, store)

	summary, err := svc.Activate(context.Background(), 7, "", 199900, "pay_2", time.Now())
	assert.NoError(t, err)
	assert.Equal(t, models.PlanEnterprise, summary.Plan)
}

func TestActivate_UnknownAmountRejected(t *testing.T) {
	store := newMockSubscriptionStore(7)
	svc := NewSubscriptionService(store, store)

	_, err := svc.Activate(context.Background(), 7, "", 12345, "pay_3", time.Now())
	assert.ErrorIs(t, err, apperrors.ErrValidation)
	assert.Empty(t, store.entries)
}

func TestActivate_FreePlanNotPurchasable(t *testing.T) {
	store := newMockSubscriptionStore(7)
	svc := NewSubscriptionService(store, store)

	_, err := svc.Activate(context.Background(), 7, models.PlanFree, 49900, "pay_4", time.Now())
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestCancelByPayment_CurrentSubscriptionDowngrades(t *testing.T) {
	store := newMockSubscriptionStore(7)
	svc := NewSubscriptionService(store, store)

	_, err := svc.Activate(context.Background(), 7, models.PlanPremium, 99900, "pay_cur", time.Now())
	assert.NoError(t, err)

	err = svc.CancelByPayment(context.Background(), 7, "pay_cur")
	assert.NoError(t, err)

	assert.Equal(t, models.SubStatusCancelled, store.entries[0].Status)
	assert.Equal(t, models.PlanFree, store.user.CurrentPlan)
	assert.Nil(t, store.user.SubscriptionExpiresAt)
}

func TestCancelByPayment_PastEntryKeepsCurrentPlan(t *testing.T) {
	store := newMockSubscriptionStore(7)
	svc := NewSubscriptionService(store, store)

	// Старая покупка, затем новая: отмена старой не должна трогать текущий план.
	_, err := svc.Activate(context.Background(), 7, models.PlanBasic, 49900, "pay_old", time.Now().AddDate(-1, 0, 0))
	assert.NoError(t, err)
	_, err = svc.Activate(context.Background(), 7, models.PlanPremium, 99900, "pay_new", time.Now())
	assert.NoError(t, err)

	err = svc.CancelByPayment(context.Background(), 7, "pay_old")
	assert.NoError(t, err)

	assert.Equal(t, models.PlanPremium, store.user.CurrentPlan)
	assert.NotNil(t, store.user.SubscriptionExpiresAt)
}

func TestSummary_WithHistory(t *testing.T) {
	store := newMockSubscriptionStore(7)
	svc := NewSubscriptionService(store, store)

	_, err := svc.Activate(context.Background(), 7, models.PlanBasic, 49900, "pay_h1", time.Now())
	assert.NoError(t, err)

	summary, err := svc.Summary(context.Background(), 7, true)
	assert.NoError(t, err)
	assert.True(t, summary.IsActive)
	assert.Len(t, summary.History, 1)

	summary, err = svc.Summary(context.Background(), 7, false)
	assert.NoError(t, err)
	assert.Empty(t, summary.History)
}

func TestPlanForAmount(t *testing.T) {
	plan, err := PlanForAmount(49900)
	assert.NoError(t, err)
	assert.Equal(t, models.PlanBasic, plan)

	_, err = PlanForAmount(1)
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}
