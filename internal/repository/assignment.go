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

type AssignmentRepository struct {
	db *pgxpool.Pool
}

func NewAssignmentRepository(db *pgxpool.Pool) *AssignmentRepository {
	return &AssignmentRepository{db: db}
}

// AppendAssignments добавляет пользователю пачку выданных вопросов одной
// транзакцией. Каждый вопрос замораживается снапшотом; попытка по умолчанию
// не начата. Уже выданные записи не затрагиваются.
func (r *AssignmentRepository) AppendAssignments(ctx context.Context, userID int, questions []*models.Question, isSample bool, assignedAt time.Time) error {
	if len(questions) == 0 {
		return nil
	}
	logger.Log.Info("Выдача вопросов пользователю (repo)",
		zap.Int("user_id", userID),
		zap.Int("count", len(questions)),
		zap.Bool("is_sample", isSample),
	)

	batch := &pgx.Batch{}
	for _, q := range questions {
		batch.Queue(`
			INSERT INTO user_questions (user_id, question_id, snapshot, assigned_at, is_sample)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (user_id, question_id) DO NOTHING`,
			userID, q.ID, q, assignedAt, isSample,
		)
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	br := tx.SendBatch(ctx, batch)
	for range questions {
		if _, err := br.Exec(); err != nil {
			br.Close()
			return err
		}
	}
	if err := br.Close(); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// GetAssignments возвращает выданные вопросы пользователя в порядке выдачи.
func (r *AssignmentRepository) GetAssignments(ctx context.Context, userID int) ([]models.AssignedQuestion, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, user_id, question_id, snapshot, assigned_at, is_sample,
			attempted, attempted_option, is_correct, attempted_at, time_spent_sec
		FROM user_questions
		WHERE user_id = $1
		ORDER BY id`,
		userID,
	)
	if err != nil {
		logger.Log.Error("Ошибка получения выданных вопросов (repo)", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var assignments []models.AssignedQuestion
	for rows.Next() {
		var a models.AssignedQuestion
		err := rows.Scan(
			&a.ID, &a.UserID, &a.QuestionID, &a.Snapshot, &a.AssignedAt, &a.IsSample,
			&a.Attempted, &a.AttemptedOption, &a.IsCorrect, &a.AttemptedAt, &a.TimeSpentSec,
		)
		if err != nil {
			return nil, err
		}
		assignments = append(assignments, a)
	}
	return assignments, rows.Err()
}

// RecordAttempt фиксирует ответ пользователя на выданный вопрос. Правильность
// судится по снапшоту, а не по мастер-записи: правка вопроса после выдачи
// не меняет вердикт.
func (r *AssignmentRepository) RecordAttempt(ctx context.Context, userID, assignmentID int, option string, timeSpentSec int) (bool, error) {
	logger.Log.Info("Фиксация попытки (repo)",
		zap.Int("user_id", userID),
		zap.Int("assignment_id", assignmentID),
	)
	var isCorrect bool
	err := r.db.QueryRow(ctx, `
		UPDATE user_questions
		SET attempted = TRUE,
			attempted_option = $1,
			is_correct = (snapshot->>'rightAnswer' = $1),
			attempted_at = now(),
			time_spent_sec = $2
		WHERE id = $3 AND user_id = $4
		RETURNING is_correct`,
		option, timeSpentSec, assignmentID, userID,
	).Scan(&isCorrect)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, apperrors.ErrNotFound
	}
	return isCorrect, err
}
