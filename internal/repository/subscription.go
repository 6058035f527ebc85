package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"palsanalytix/internal/apperrors"
	"palsanalytix/internal/logger"
	"palsanalytix/internal/models"
)

type SubscriptionRepository struct {
	db *pgxpool.Pool
}

func NewSubscriptionRepository(db *pgxpool.Pool) *SubscriptionRepository {
	return &SubscriptionRepository{db: db}
}

// Activate в одной транзакции добавляет запись истории и переводит пользователя
// на оплаченный план. Платёж, уже присутствующий в истории, отклоняется —
// повторная доставка webhook не должна продлевать подписку второй раз.
func (r *SubscriptionRepository) Activate(ctx context.Context, entry *models.SubscriptionEntry) error {
	logger.Log.Info("Активация подписки (repo)",
		zap.Int("user_id", entry.UserID),
		zap.String("plan", entry.PlanName),
		zap.String("payment_id", entry.PaymentID),
	)

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var exists bool
	err = tx.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM subscription_history WHERE payment_id = $1)`,
		entry.PaymentID,
	).Scan(&exists)
	if err != nil {
		return err
	}
	if exists {
		return apperrors.ErrDuplicatePayment
	}

	err = tx.QueryRow(ctx, `
		INSERT INTO subscription_history (user_id, plan_name, purchased_at, expires_at, amount_paid, payment_id, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`,
		entry.UserID,
		entry.PlanName,
		entry.PurchasedAt,
		entry.ExpiresAt,
		entry.AmountPaid,
		entry.PaymentID,
		models.SubStatusActive,
	).Scan(&entry.ID)
	if err != nil {
		return err
	}

	tag, err := tx.Exec(ctx, `
		UPDATE users
		SET current_plan = $1, subscription_expires_at = $2, updated_at = now()
		WHERE id = $3`,
		entry.PlanName, entry.ExpiresAt, entry.UserID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}

	return tx.Commit(ctx)
}

// CancelByPayment помечает запись истории CANCELLED. Если отменённая запись
// была текущей (её expiry совпадает с датой на пользователе), пользователь
// опускается на FREE, дата окончания обнуляется. Прошлые записи текущий план
// не трогают.
func (r *SubscriptionRepository) CancelByPayment(ctx context.Context, userID int, paymentID string) error {
	logger.Log.Info("Отмена подписки по платежу (repo)",
		zap.Int("user_id", userID),
		zap.String("payment_id", paymentID),
	)

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var entryExpiry time.Time
	err = tx.QueryRow(ctx, `
		UPDATE subscription_history
		SET status = $1
		WHERE user_id = $2 AND payment_id = $3
		RETURNING expires_at`,
		models.SubStatusCancelled, userID, paymentID,
	).Scan(&entryExpiry)
	if errors.Is(err, pgx.ErrNoRows) {
		return apperrors.ErrNotFound
	}
	if err != nil {
		return err
	}

	var userExpiry *time.Time
	err = tx.QueryRow(ctx, `SELECT subscription_expires_at FROM users WHERE id = $1`, userID).Scan(&userExpiry)
	if err != nil {
		return err
	}

	if userExpiry != nil && userExpiry.Equal(entryExpiry) {
		_, err = tx.Exec(ctx, `
			UPDATE users
			SET current_plan = $1, subscription_expires_at = NULL, updated_at = now()
			WHERE id = $2`,
			models.PlanFree, userID,
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

// FindUserByPaymentID ищет владельца платежа по истории подписок
// (webhook refund.created не несёт user_id).
func (r *SubscriptionRepository) FindUserByPaymentID(ctx context.Context, paymentID string) (int, error) {
	var userID int
	err := r.db.QueryRow(ctx,
		`SELECT user_id FROM subscription_history WHERE payment_id = $1`,
		paymentID,
	).Scan(&userID)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, apperrors.ErrNotFound
	}
	return userID, err
}

// ExpireSubscriptions помечает просроченные записи истории EXPIRED.
// Текущий план пользователя не трогаем: активность всегда считается по дате.
func (r *SubscriptionRepository) ExpireSubscriptions(ctx context.Context) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE subscription_history
		SET status = $1
		WHERE status = $2 AND expires_at <= now()`,
		models.SubStatusExpired, models.SubStatusActive,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() > 0 {
		logger.Log.Info("Просроченные подписки помечены (repo)",
			zap.Int64("count", tag.RowsAffected()))
	}
	return nil
}

// GetHistory возвращает историю подписок пользователя в порядке добавления.
func (r *SubscriptionRepository) GetHistory(ctx context.Context, userID int) ([]models.SubscriptionEntry, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, user_id, plan_name, purchased_at, expires_at, amount_paid, payment_id, status
		FROM subscription_history
		WHERE user_id = $1
		ORDER BY id`,
		userID,
	)
	if err != nil {
		logger.Log.Error("Ошибка получения истории подписок (repo)", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var history []models.SubscriptionEntry
	for rows.Next() {
		var e models.SubscriptionEntry
		if err := rows.Scan(&e.ID, &e.UserID, &e.PlanName, &e.PurchasedAt, &e.ExpiresAt, &e.AmountPaid, &e.PaymentID, &e.Status); err != nil {
			return nil, err
		}
		history = append(history, e)
	}
	return history, rows.Err()
}
