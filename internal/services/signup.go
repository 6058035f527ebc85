package services

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"

	"go.uber.org/zap"

	"palsanalytix/internal/apperrors"
	"palsanalytix/internal/cache"
	"palsanalytix/internal/logger"
	"palsanalytix/internal/models"
	"palsanalytix/internal/utils"
)

type SignupUserRepo interface {
	IsEmailTaken(ctx context.Context, email string) (bool, error)
	IsPhoneTaken(ctx context.Context, phone string) (bool, error)
	CreateUser(ctx context.Context, user *models.User) error
}

type SignupQuestionRepo interface {
	SampleQuestions(ctx context.Context) ([]*models.Question, error)
}

type SignupAssignmentRepo interface {
	AppendAssignments(ctx context.Context, userID int, questions []*models.Question, isSample bool, assignedAt time.Time) error
}

// OTPChannel — внешний канал доставки кода (SMS-шлюз реализует его напрямую).
type OTPChannel interface {
	Send(ctx context.Context, to, message string) error
}

// SignupService — регистрация через одноразовый код: аккаунт создаётся
// только после подтверждения владения телефоном или почтой.
type SignupService struct {
	pending     cache.PendingStore
	users       SignupUserRepo
	questions   SignupQuestionRepo
	assignments SignupAssignmentRepo
	sms         OTPChannel
	email       *EmailService
	ttl         time.Duration
	jwtSecret   string
	tokenTTL    time.Duration
}

func NewSignupService(
	pending cache.PendingStore,
	users SignupUserRepo,
	questions SignupQuestionRepo,
	assignments SignupAssignmentRepo,
	sms OTPChannel,
	email *EmailService,
	ttl time.Duration,
	jwtSecret string,
	tokenTTL time.Duration,
) *SignupService {
	return &SignupService{
		pending:     pending,
		users:       users,
		questions:   questions,
		assignments: assignments,
		sms:         sms,
		email:       email,
		ttl:         ttl,
		jwtSecret:   jwtSecret,
		tokenTTL:    tokenTTL,
	}
}

// generateCode выдаёт 6-значный числовой код.
func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

// identifierOf выбирает ключ pending-записи: телефон, если указан, иначе email.
func identifierOf(email, phone string) string {
	if phone != "" {
		return phone
	}
	return email
}

// Initiate начинает регистрацию: проверяет уникальность контактов, кладёт
// pending-запись с кодом и отправляет код по внешнему каналу. Повторный вызов
// для того же идентификатора перекрывает старую запись. Если доставка не
// удалась, pending-запись откатывается — подтвердить код, который никуда
// не ушёл, нельзя.
func (s *SignupService) Initiate(ctx context.Context, username, email, phone, password string) error {
	if username == "" || password == "" || (email == "" && phone == "") {
		return apperrors.ErrValidation
	}

	if email != "" {
		if taken, err := s.users.IsEmailTaken(ctx, email); err != nil {
			return err
		} else if taken {
			return apperrors.ErrDuplicateUser
		}
	}
	if phone != "" {
		if taken, err := s.users.IsPhoneTaken(ctx, phone); err != nil {
			return err
		} else if taken {
			return apperrors.ErrDuplicateUser
		}
	}

	code, err := generateCode()
	if err != nil {
		return err
	}
	hash, err := utils.HashPassword(password)
	if err != nil {
		logger.Log.Error("Ошибка хеширования пароля (service)", zap.Error(err))
		return err
	}

	identifier := identifierOf(email, phone)
	now := time.Now()
	record := &models.PendingSignup{
		Identifier:   identifier,
		Username:     username,
		Email:        email,
		Phone:        phone,
		PasswordHash: hash,
		Code:         code,
		CreatedAt:    now,
		ExpiresAt:    now.Add(s.ttl),
	}
	if err := s.pending.Put(ctx, identifier, record, s.ttl); err != nil {
		return err
	}

	if err := s.dispatch(ctx, record); err != nil {
		logger.Log.Error("Не удалось отправить код подтверждения (service)",
			zap.String("identifier", identifier), zap.Error(err))
		_ = s.pending.Delete(ctx, identifier)
		return fmt.Errorf("%w: %v", apperrors.ErrDelivery, err)
	}

	logger.Log.Info("Регистрация начата, код отправлен (service)", zap.String("identifier", identifier))
	return nil
}

func (s *SignupService) dispatch(ctx context.Context, record *models.PendingSignup) error {
	message := fmt.Sprintf("Ваш код подтверждения: %s. Действителен %d минут.",
		record.Code, int(s.ttl.Minutes()))

	if record.Phone != "" && !strings.Contains(record.Identifier, "@") {
		return s.sms.Send(ctx, record.Phone, message)
	}
	return s.email.Send([]string{record.Email}, "Код подтверждения", message)
}

// Verify завершает регистрацию: сверяет код, создаёт подтверждённого
// пользователя, засеивает sample-вопросы и выдаёт токен сессии.
// Срок кода проверяется лениво здесь, даже если TTL-хранилище ещё
// не успело убрать запись.
func (s *SignupService) Verify(ctx context.Context, identifier, code string) (string, *models.User, error) {
	if identifier == "" || code == "" {
		return "", nil, apperrors.ErrValidation
	}

	record, ok, err := s.pending.Get(ctx, identifier)
	if err != nil {
		return "", nil, err
	}
	if !ok {
		return "", nil, apperrors.ErrNoPendingSignup
	}
	if record.Expired(time.Now()) {
		_ = s.pending.Delete(ctx, identifier)
		return "", nil, apperrors.ErrCodeExpired
	}
	if record.Code != code {
		return "", nil, apperrors.ErrCodeMismatch
	}

	user := &models.User{
		Username:     record.Username,
		Email:        record.Email,
		Phone:        record.Phone,
		PasswordHash: record.PasswordHash,
		IsVerified:   true,
		CurrentPlan:  models.PlanFree,
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		logger.Log.Error("Ошибка создания пользователя (service)", zap.Error(err))
		return "", nil, err
	}

	s.seedSampleQuestions(ctx, user.ID)

	_ = s.pending.Delete(ctx, identifier)

	token, err := utils.GenerateToken(s.jwtSecret, user.ID, user.IsAdmin, s.tokenTTL)
	if err != nil {
		logger.Log.Error("Ошибка генерации токена (service)", zap.Error(err))
		return "", nil, err
	}

	logger.Log.Info("Пользователь зарегистрирован (service)",
		zap.Int("user_id", user.ID), zap.String("identifier", identifier))
	return token, user, nil
}

// seedSampleQuestions выдаёт новому аккаунту вопросы с тегом sample.
// Аккаунт уже создан, поэтому сбой здесь не фатален.
func (s *SignupService) seedSampleQuestions(ctx context.Context, userID int) {
	samples, err := s.questions.SampleQuestions(ctx)
	if err != nil {
		logger.Log.Warn("Не удалось получить sample-вопросы (service)", zap.Error(err))
		return
	}
	if len(samples) == 0 {
		return
	}
	if err := s.assignments.AppendAssignments(ctx, userID, samples, true, time.Now()); err != nil {
		logger.Log.Warn("Не удалось выдать sample-вопросы (service)",
			zap.Int("user_id", userID), zap.Error(err))
	}
}
