package services

import (
	"context"

	"palsanalytix/internal/apperrors"
	"palsanalytix/internal/models"
)

type TestRepo interface {
	CreateTest(ctx context.Context, t *models.Test) error
	GetTestByID(ctx context.Context, id int) (*models.Test, error)
	GetAllTests(ctx context.Context) ([]*models.Test, error)
	UpdateTest(ctx context.Context, id int, input *models.UpdateTestRequest) error
	DeleteTest(ctx context.Context, id int) error
}

// TestService — пробные тесты, собранные из вопросов банка.
type TestService struct {
	repo TestRepo
}

func NewTestService(repo TestRepo) *TestService {
	return &TestService{repo: repo}
}

func (s *TestService) CreateTest(ctx context.Context, t *models.Test) error {
	if t.Name == "" || len(t.QuestionIDs) == 0 {
		return apperrors.ErrValidation
	}
	// Количество вопросов всегда следует за списком, руками не задаётся.
	t.QuestionsCount = len(t.QuestionIDs)
	return s.repo.CreateTest(ctx, t)
}

func (s *TestService) GetTest(ctx context.Context, id int) (*models.Test, error) {
	return s.repo.GetTestByID(ctx, id)
}

func (s *TestService) GetAllTests(ctx context.Context) ([]*models.Test, error) {
	return s.repo.GetAllTests(ctx)
}

func (s *TestService) UpdateTest(ctx context.Context, id int, input *models.UpdateTestRequest) error {
	return s.repo.UpdateTest(ctx, id, input)
}

func (s *TestService) DeleteTest(ctx context.Context, id int) error {
	return s.repo.DeleteTest(ctx, id)
}
