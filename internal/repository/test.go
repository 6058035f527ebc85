package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"palsanalytix/internal/apperrors"
	"palsanalytix/internal/logger"
	"palsanalytix/internal/models"
)

type TestRepository struct {
	db *pgxpool.Pool
}

func NewTestRepository(db *pgxpool.Pool) *TestRepository {
	return &TestRepository{db: db}
}

const testColumns = `id, name, questions_count, marks, time_minutes, free,
	users_attempted, average_score, question_ids, tags, created_at, updated_at`

func scanTest(row pgx.Row) (*models.Test, error) {
	var t models.Test
	err := row.Scan(
		&t.ID, &t.Name, &t.QuestionsCount, &t.Marks, &t.TimeMinutes, &t.Free,
		&t.UsersAttempted, &t.AverageScore, &t.QuestionIDs, &t.Tags, &t.CreatedAt, &t.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *TestRepository) CreateTest(ctx context.Context, t *models.Test) error {
	logger.Log.Info("Создание теста (repo)", zap.String("name", t.Name))
	query := `
	INSERT INTO tests (name, questions_count, marks, time_minutes, free, question_ids, tags)
	VALUES ($1, $2, $3, $4, $5, $6, $7)
	RETURNING id, created_at, updated_at`
	return r.db.QueryRow(ctx, query,
		t.Name, t.QuestionsCount, t.Marks, t.TimeMinutes, t.Free, t.QuestionIDs, t.Tags,
	).Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt)
}

func (r *TestRepository) GetTestByID(ctx context.Context, id int) (*models.Test, error) {
	query := fmt.Sprintf(`SELECT %s FROM tests WHERE id = $1`, testColumns)
	return scanTest(r.db.QueryRow(ctx, query, id))
}

func (r *TestRepository) GetAllTests(ctx context.Context) ([]*models.Test, error) {
	query := fmt.Sprintf(`SELECT %s FROM tests ORDER BY id`, testColumns)
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		logger.Log.Error("Ошибка получения тестов (repo)", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var tests []*models.Test
	for rows.Next() {
		t, err := scanTest(rows)
		if err != nil {
			return nil, err
		}
		tests = append(tests, t)
	}
	return tests, rows.Err()
}

func (r *TestRepository) UpdateTest(ctx context.Context, id int, input *models.UpdateTestRequest) error {
	logger.Log.Info("Обновление теста (repo)", zap.Int("test_id", id))
	query := `UPDATE tests SET`
	var args []interface{}
	argNum := 1

	if input.Name != nil {
		query += fmt.Sprintf(" name = $%d,", argNum)
		args = append(args, *input.Name)
		argNum++
	}
	if input.Marks != nil {
		query += fmt.Sprintf(" marks = $%d,", argNum)
		args = append(args, *input.Marks)
		argNum++
	}
	if input.TimeMinutes != nil {
		query += fmt.Sprintf(" time_minutes = $%d,", argNum)
		args = append(args, *input.TimeMinutes)
		argNum++
	}
	if input.Free != nil {
		query += fmt.Sprintf(" free = $%d,", argNum)
		args = append(args, *input.Free)
		argNum++
	}
	if input.QuestionIDs != nil {
		query += fmt.Sprintf(" question_ids = $%d, questions_count = $%d,", argNum, argNum+1)
		args = append(args, input.QuestionIDs, len(input.QuestionIDs))
		argNum += 2
	}
	if input.Tags != nil {
		query += fmt.Sprintf(" tags = $%d,", argNum)
		args = append(args, input.Tags)
		argNum++
	}

	if len(args) == 0 {
		return apperrors.ErrValidation
	}

	query += fmt.Sprintf(" updated_at = now() WHERE id = $%d", argNum)
	args = append(args, id)

	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *TestRepository) DeleteTest(ctx context.Context, id int) error {
	logger.Log.Info("Удаление теста (repo)", zap.Int("test_id", id))
	tag, err := r.db.Exec(ctx, `DELETE FROM tests WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}
