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

type QuestionRepository struct {
	db *pgxpool.Pool
}

func NewQuestionRepository(db *pgxpool.Pool) *QuestionRepository {
	return &QuestionRepository{db: db}
}

const questionColumns = `id, courses, chapter_name, statement, statement_image,
	option_a, option_a_image, option_b, option_b_image,
	option_c, option_c_image, option_d, option_d_image,
	right_answer, explanation, explanation_image, difficulty, tags`

func scanQuestion(row pgx.Row) (*models.Question, error) {
	var q models.Question
	err := row.Scan(
		&q.ID,
		&q.Courses,
		&q.ChapterName,
		&q.Statement,
		&q.StatementImage,
		&q.Options.OptionA,
		&q.Options.OptionAImage,
		&q.Options.OptionB,
		&q.Options.OptionBImage,
		&q.Options.OptionC,
		&q.Options.OptionCImage,
		&q.Options.OptionD,
		&q.Options.OptionDImage,
		&q.RightAnswer,
		&q.Explanation,
		&q.ExplanationImage,
		&q.Difficulty,
		&q.Tags,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &q, nil
}

func (r *QuestionRepository) collect(rows pgx.Rows) ([]*models.Question, error) {
	defer rows.Close()
	var questions []*models.Question
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			logger.Log.Error("Ошибка сканирования вопроса (repo)", zap.Error(err))
			return nil, err
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

func (r *QuestionRepository) CreateQuestion(ctx context.Context, q *models.Question) error {
	logger.Log.Info("Создание вопроса (repo)", zap.String("chapter", q.ChapterName))
	query := `
	INSERT INTO questions (courses, chapter_name, statement, statement_image,
		option_a, option_a_image, option_b, option_b_image,
		option_c, option_c_image, option_d, option_d_image,
		right_answer, explanation, explanation_image, difficulty, tags)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
	RETURNING id`
	return r.db.QueryRow(ctx, query,
		q.Courses, q.ChapterName, q.Statement, q.StatementImage,
		q.Options.OptionA, q.Options.OptionAImage,
		q.Options.OptionB, q.Options.OptionBImage,
		q.Options.OptionC, q.Options.OptionCImage,
		q.Options.OptionD, q.Options.OptionDImage,
		q.RightAnswer, q.Explanation, q.ExplanationImage, q.Difficulty, q.Tags,
	).Scan(&q.ID)
}

func (r *QuestionRepository) GetQuestionByID(ctx context.Context, id int) (*models.Question, error) {
	query := fmt.Sprintf(`SELECT %s FROM questions WHERE id = $1`, questionColumns)
	return scanQuestion(r.db.QueryRow(ctx, query, id))
}

func (r *QuestionRepository) GetQuestionsByIDs(ctx context.Context, ids []int) ([]*models.Question, error) {
	query := fmt.Sprintf(`SELECT %s FROM questions WHERE id = ANY($1) ORDER BY id`, questionColumns)
	rows, err := r.db.Query(ctx, query, ids)
	if err != nil {
		return nil, err
	}
	return r.collect(rows)
}

// ListQuestions возвращает вопросы с необязательной фильтрацией по курсу и главе.
func (r *QuestionRepository) ListQuestions(ctx context.Context, course, chapter string) ([]*models.Question, error) {
	query := fmt.Sprintf(`SELECT %s FROM questions WHERE 1=1`, questionColumns)
	var args []interface{}
	argNum := 1

	if course != "" {
		query += fmt.Sprintf(" AND $%d = ANY(courses)", argNum)
		args = append(args, course)
		argNum++
	}
	if chapter != "" {
		query += fmt.Sprintf(" AND chapter_name = $%d", argNum)
		args = append(args, chapter)
		argNum++
	}
	query += " ORDER BY id"

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return r.collect(rows)
}

func (r *QuestionRepository) UpdateQuestion(ctx context.Context, q *models.Question) error {
	logger.Log.Info("Обновление вопроса (repo)", zap.Int("question_id", q.ID))
	query := `
	UPDATE questions SET
		courses = $1, chapter_name = $2, statement = $3, statement_image = $4,
		option_a = $5, option_a_image = $6, option_b = $7, option_b_image = $8,
		option_c = $9, option_c_image = $10, option_d = $11, option_d_image = $12,
		right_answer = $13, explanation = $14, explanation_image = $15,
		difficulty = $16, tags = $17
	WHERE id = $18`
	tag, err := r.db.Exec(ctx, query,
		q.Courses, q.ChapterName, q.Statement, q.StatementImage,
		q.Options.OptionA, q.Options.OptionAImage,
		q.Options.OptionB, q.Options.OptionBImage,
		q.Options.OptionC, q.Options.OptionCImage,
		q.Options.OptionD, q.Options.OptionDImage,
		q.RightAnswer, q.Explanation, q.ExplanationImage, q.Difficulty, q.Tags,
		q.ID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *QuestionRepository) DeleteQuestion(ctx context.Context, id int) error {
	logger.Log.Info("Удаление вопроса (repo)", zap.Int("question_id", id))
	tag, err := r.db.Exec(ctx, `DELETE FROM questions WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// SampleQuestions — вопросы с тегом sample, ими засеивается новый аккаунт.
func (r *QuestionRepository) SampleQuestions(ctx context.Context) ([]*models.Question, error) {
	query := fmt.Sprintf(`SELECT %s FROM questions WHERE $1 = ANY(tags) ORDER BY id`, questionColumns)
	rows, err := r.db.Query(ctx, query, models.TagSample)
	if err != nil {
		return nil, err
	}
	return r.collect(rows)
}

// RandomUnseen выбирает случайные вопросы, которых пользователь ещё не получал.
// Пустые course/chapter означают выборку без фильтра (FREE-план).
// "Уже получено" вычисляется запросом на момент вызова, без кэша: два запуска
// подряд отдадут непересекающиеся пачки.
func (r *QuestionRepository) RandomUnseen(ctx context.Context, userID int, course, chapter string, limit int) ([]*models.Question, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM questions
		WHERE id NOT IN (SELECT question_id FROM user_questions WHERE user_id = $1)`, questionColumns)
	args := []interface{}{userID}
	argNum := 2

	if course != "" {
		query += fmt.Sprintf(" AND $%d = ANY(courses)", argNum)
		args = append(args, course)
		argNum++
	}
	if chapter != "" {
		query += fmt.Sprintf(" AND chapter_name = $%d", argNum)
		args = append(args, chapter)
		argNum++
	}
	query += fmt.Sprintf(" ORDER BY random() LIMIT $%d", argNum)
	args = append(args, limit)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return r.collect(rows)
}
