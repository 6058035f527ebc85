package services

import (
	"context"
	"time"

	"go.uber.org/zap"

	"palsanalytix/internal/apperrors"
	"palsanalytix/internal/logger"
	"palsanalytix/internal/models"
)

type QuestionRepo interface {
	CreateQuestion(ctx context.Context, q *models.Question) error
	GetQuestionByID(ctx context.Context, id int) (*models.Question, error)
	GetQuestionsByIDs(ctx context.Context, ids []int) ([]*models.Question, error)
	ListQuestions(ctx context.Context, course, chapter string) ([]*models.Question, error)
	UpdateQuestion(ctx context.Context, q *models.Question) error
	DeleteQuestion(ctx context.Context, id int) error
}

type AssignmentRepo interface {
	GetAssignments(ctx context.Context, userID int) ([]models.AssignedQuestion, error)
	RecordAttempt(ctx context.Context, userID, assignmentID int, option string, timeSpentSec int) (bool, error)
}

// QuestionService — банк вопросов: CRUD для админов, выданные вопросы и
// фиксация попыток для пользователей.
type QuestionService struct {
	repo        QuestionRepo
	assignments AssignmentRepo
	storage     *StorageService
}

func NewQuestionService(repo QuestionRepo, assignments AssignmentRepo, storage *StorageService) *QuestionService {
	return &QuestionService{repo: repo, assignments: assignments, storage: storage}
}

func (s *QuestionService) CreateQuestion(ctx context.Context, q *models.Question) error {
	if q.Statement == "" || q.RightAnswer == "" || len(q.Courses) == 0 {
		return apperrors.ErrValidation
	}
	return s.repo.CreateQuestion(ctx, q)
}

func (s *QuestionService) GetQuestion(ctx context.Context, id int) (*models.Question, error) {
	return s.repo.GetQuestionByID(ctx, id)
}

func (s *QuestionService) GetQuestionsByIDs(ctx context.Context, ids []int) ([]*models.Question, error) {
	if len(ids) == 0 {
		return nil, apperrors.ErrValidation
	}
	return s.repo.GetQuestionsByIDs(ctx, ids)
}

func (s *QuestionService) ListQuestions(ctx context.Context, course, chapter string) ([]*models.Question, error) {
	return s.repo.ListQuestions(ctx, course, chapter)
}

func (s *QuestionService) UpdateQuestion(ctx context.Context, q *models.Question) error {
	if q.ID <= 0 {
		return apperrors.ErrValidation
	}
	return s.repo.UpdateQuestion(ctx, q)
}

func (s *QuestionService) DeleteQuestion(ctx context.Context, id int) error {
	return s.repo.DeleteQuestion(ctx, id)
}

// UploadImage кладёт картинку в хранилище и возвращает её постоянный URL.
func (s *QuestionService) UploadImage(ctx context.Context, field string, data []byte, contentType string) (string, error) {
	if s.storage == nil {
		return "", apperrors.ErrUpstream
	}
	if len(data) == 0 {
		return "", apperrors.ErrValidation
	}
	return s.storage.UploadImage(ctx, field, data, contentType)
}

// Assigned возвращает вопросы, выданные пользователю, вместе с состоянием попыток.
func (s *QuestionService) Assigned(ctx context.Context, userID int) ([]models.AssignedQuestion, error) {
	return s.assignments.GetAssignments(ctx, userID)
}

// Attempt записывает ответ пользователя и возвращает вердикт.
func (s *QuestionService) Attempt(ctx context.Context, userID int, req *models.AttemptRequest) (bool, error) {
	if req.AssignmentID <= 0 || req.Option == "" {
		return false, apperrors.ErrValidation
	}
	isCorrect, err := s.assignments.RecordAttempt(ctx, userID, req.AssignmentID, req.Option, req.TimeSpentSec)
	if err != nil {
		logger.Log.Warn("Ошибка фиксации попытки (service)",
			zap.Int("user_id", userID), zap.Int("assignment_id", req.AssignmentID), zap.Error(err))
		return false, err
	}
	logger.Log.Info("Попытка записана (service)",
		zap.Int("user_id", userID),
		zap.Int("assignment_id", req.AssignmentID),
		zap.Bool("is_correct", isCorrect),
		zap.Duration("time_spent", time.Duration(req.TimeSpentSec)*time.Second),
	)
	return isCorrect, nil
}
