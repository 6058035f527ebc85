package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"palsanalytix/internal/logger"
	"palsanalytix/internal/models"
	"palsanalytix/internal/utils"
)

type AuthService struct {
	repo UserRepo
}

func NewAuthService(repo UserRepo) *AuthService {
	return &AuthService{repo: repo}
}

type UserRepo interface {
	GetUserByID(ctx context.Context, id int) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByPhone(ctx context.Context, phone string) (*models.User, error)
	GetAllUsers(ctx context.Context) ([]*models.User, error)
	UpdatePreferences(ctx context.Context, id int, input *models.UpdatePreferencesRequest) error
}

// findUserByIdentifier: email, если есть '@', иначе телефон.
func (s *AuthService) findUserByIdentifier(ctx context.Context, identifier string) (*models.User, error) {
	id := strings.TrimSpace(identifier)
	if id == "" {
		return nil, errors.New("пустой логин")
	}
	if strings.Contains(id, "@") {
		return s.repo.GetUserByEmail(ctx, id)
	}
	return s.repo.GetUserByPhone(ctx, id)
}

// LoginUser проверяет пароль и выдаёт токен сессии (24 часа по умолчанию).
func (s *AuthService) LoginUser(ctx context.Context, identifier, password, jwtSecret string, tokenTTL time.Duration) (string, *models.User, error) {
	logger.Log.Info("Попытка входа (service)", zap.String("identifier", identifier))
	user, err := s.findUserByIdentifier(ctx, identifier)
	if err != nil {
		logger.Log.Warn("Пользователь не найден (service)", zap.String("identifier", identifier), zap.Error(err))
		return "", nil, errors.New("пользователь не найден")
	}

	if !utils.CheckPasswordHash(password, user.PasswordHash) {
		logger.Log.Warn("Неверный пароль (service)", zap.Int("user_id", user.ID))
		return "", nil, errors.New("неверный пароль")
	}

	token, err := utils.GenerateToken(jwtSecret, user.ID, user.IsAdmin, tokenTTL)
	if err != nil {
		logger.Log.Error("Ошибка генерации токена (service)", zap.Error(err))
		return "", nil, err
	}

	logger.Log.Info("Вход выполнен (service)", zap.Int("user_id", user.ID))
	return token, user, nil
}

func (s *AuthService) GetUserByID(ctx context.Context, id int) (*models.User, error) {
	user, err := s.repo.GetUserByID(ctx, id)
	if err != nil {
		logger.Log.Warn("Пользователь не найден по ID (service)", zap.Int("user_id", id), zap.Error(err))
	}
	return user, err
}

func (s *AuthService) GetAllUsers(ctx context.Context) ([]*models.User, error) {
	return s.repo.GetAllUsers(ctx)
}

// UpdatePreferences меняет курс/главу для ежедневной раздачи и флаг уведомлений.
func (s *AuthService) UpdatePreferences(ctx context.Context, id int, input *models.UpdatePreferencesRequest) error {
	logger.Log.Info("Обновление предпочтений (service)", zap.Int("user_id", id))
	if err := s.repo.UpdatePreferences(ctx, id, input); err != nil {
		logger.Log.Error("Ошибка обновления предпочтений (service)", zap.Error(err), zap.Int("user_id", id))
		return err
	}
	return nil
}
