package services

import (
	"context"
	"time"

	"go.uber.org/zap"

	"palsanalytix/internal/apperrors"
	"palsanalytix/internal/logger"
	"palsanalytix/internal/models"
)

// PlanPrices — явная таблица цена→план в пайсах. Вывод плана из суммы
// делается только по ней; незнакомая сумма — ошибка валидации, а не
// молчаливый PREMIUM.
var PlanPrices = map[string]int64{
	models.PlanBasic:      49900,
	models.PlanPremium:    99900,
	models.PlanEnterprise: 199900,
}

// PlanForAmount возвращает план по точному совпадению суммы в пайсах.
func PlanForAmount(amountPaise int64) (string, error) {
	for plan, price := range PlanPrices {
		if price == amountPaise {
			return plan, nil
		}
	}
	return "", apperrors.ErrValidation
}

// IsPaidPlan проверяет, что имя плана — один из платных тарифов.
func IsPaidPlan(plan string) bool {
	_, ok := PlanPrices[plan]
	return ok
}

type SubscriptionRepo interface {
	Activate(ctx context.Context, entry *models.SubscriptionEntry) error
	CancelByPayment(ctx context.Context, userID int, paymentID string) error
	FindUserByPaymentID(ctx context.Context, paymentID string) (int, error)
	GetHistory(ctx context.Context, userID int) ([]models.SubscriptionEntry, error)
}

type SubscriptionUserRepo interface {
	GetUserByID(ctx context.Context, id int) (*models.User, error)
}

// SubscriptionService — конечный автомат подписки: активация по подтверждённому
// платежу, отмена по возврату, запрос текущего состояния.
type SubscriptionService struct {
	repo     SubscriptionRepo
	userRepo SubscriptionUserRepo
}

func NewSubscriptionService(repo SubscriptionRepo, userRepo SubscriptionUserRepo) *SubscriptionService {
	return &SubscriptionService{repo: repo, userRepo: userRepo}
}

// Activate переводит пользователя на оплаченный план: срок — ровно год от
// момента подтверждения, в историю добавляется одна запись ACTIVE. Пустое имя
// плана выводится из суммы по таблице цен. Повторный платёж с тем же payment_id
// отклоняется (apperrors.ErrDuplicatePayment).
func (s *SubscriptionService) Activate(ctx context.Context, userID int, plan string, amountPaise int64, paymentID string, confirmedAt time.Time) (*models.SubscriptionSummary, error) {
	if paymentID == "" {
		return nil, apperrors.ErrValidation
	}
	if plan == "" {
		inferred, err := PlanForAmount(amountPaise)
		if err != nil {
			logger.Log.Warn("Сумма платежа не соответствует ни одному тарифу",
				zap.Int64("amount_paise", amountPaise), zap.String("payment_id", paymentID))
			return nil, err
		}
		plan = inferred
	}
	if !IsPaidPlan(plan) {
		return nil, apperrors.ErrValidation
	}

	expiresAt := confirmedAt.AddDate(1, 0, 0)
	entry := &models.SubscriptionEntry{
		UserID:      userID,
		PlanName:    plan,
		PurchasedAt: confirmedAt,
		ExpiresAt:   expiresAt,
		AmountPaid:  amountPaise,
		PaymentID:   paymentID,
	}

	if err := s.repo.Activate(ctx, entry); err != nil {
		logger.Log.Error("Ошибка активации подписки (service)",
			zap.Int("user_id", userID), zap.Error(err))
		return nil, err
	}

	logger.Log.Info("Подписка активирована (service)",
		zap.Int("user_id", userID),
		zap.String("plan", plan),
		zap.Time("expires_at", expiresAt),
	)
	return &models.SubscriptionSummary{Plan: plan, ExpiresAt: &expiresAt, IsActive: true}, nil
}

// CancelByPayment отменяет запись истории по платежу. Текущий план меняется
// только если отменили действующую подписку.
func (s *SubscriptionService) CancelByPayment(ctx context.Context, userID int, paymentID string) error {
	if err := s.repo.CancelByPayment(ctx, userID, paymentID); err != nil {
		logger.Log.Error("Ошибка отмены подписки (service)",
			zap.Int("user_id", userID), zap.String("payment_id", paymentID), zap.Error(err))
		return err
	}
	logger.Log.Info("Подписка отменена по возврату (service)",
		zap.Int("user_id", userID), zap.String("payment_id", paymentID))
	return nil
}

// CancelByPaymentLookup находит владельца платежа по истории и отменяет запись.
// Используется webhook-ом refund.created, который user_id не несёт.
func (s *SubscriptionService) CancelByPaymentLookup(ctx context.Context, paymentID string) error {
	userID, err := s.repo.FindUserByPaymentID(ctx, paymentID)
	if err != nil {
		return err
	}
	return s.CancelByPayment(ctx, userID, paymentID)
}

// Summary возвращает состояние подписки пользователя; активность считается
// единственным предикатом models.User.IsSubscriptionActive.
func (s *SubscriptionService) Summary(ctx context.Context, userID int, withHistory bool) (*models.SubscriptionSummary, error) {
	user, err := s.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	summary := &models.SubscriptionSummary{
		Plan:      user.CurrentPlan,
		ExpiresAt: user.SubscriptionExpiresAt,
		IsActive:  user.IsSubscriptionActive(),
	}
	if withHistory {
		history, err := s.repo.GetHistory(ctx, userID)
		if err != nil {
			return nil, err
		}
		summary.History = history
	}
	return summary, nil
}
