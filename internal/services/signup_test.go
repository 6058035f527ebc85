package services

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"palsanalytix/internal/apperrors"
	"palsanalytix/internal/cache"
	"palsanalytix/internal/models"
)

// Мок-репозитории для потока регистрации.
type mockSignupUsers struct {
	takenEmails map[string]bool
	takenPhones map[string]bool
	created     []*models.User
}

func (m *mockSignupUsers) IsEmailTaken(_ context.Context, email string) (bool, error) {
	return m.takenEmails[email], nil
}

func (m *mockSignupUsers) IsPhoneTaken(_ context.Context, phone string) (bool, error) {
	return m.takenPhones[phone], nil
}

func (m *mockSignupUsers) CreateUser(_ context.Context, user *models.User) error {
	user.ID = len(m.created) + 1
	m.created = append(m.created, user)
	return nil
}

type mockSampleQuestions struct {
	samples []*models.Question
}

func (m *mockSampleQuestions) SampleQuestions(_ context.Context) ([]*models.Question, error) {
	return m.samples, nil
}

type mockSeedAssignments struct {
	assigned map[int]int // userID -> количество
	sample   bool
}

func (m *mockSeedAssignments) AppendAssignments(_ context.Context, userID int, questions []*models.Question, isSample bool, _ time.Time) error {
	if m.assigned == nil {
		m.assigned = make(map[int]int)
	}
	m.assigned[userID] += len(questions)
	m.sample = isSample
	return nil
}

type mockSMSChannel struct {
	sent []string
	to   []string
	fail bool
}

func (m *mockSMSChannel) Send(_ context.Context, to, message string) error {
	if m.fail {
		return errors.New("шлюз недоступен")
	}
	m.to = append(m.to, to)
	m.sent = append(m.sent, message)
	return nil
}

func newSignupServiceForTest(users *mockSignupUsers, sms *mockSMSChannel) (*SignupService, cache.PendingStore) {
	pending := cache.NewMemoryStore()
	samples := &mockSampleQuestions{samples: []*models.Question{
		{ID: 1, Tags: []string{models.TagSample}},
		{ID: 2, Tags: []string{models.TagSample}},
	}}
	svc := NewSignupService(pending, users, samples, &mockSeedAssignments{}, sms, &EmailService{},
		10*time.Minute, "testsecret", time.Hour)
	return svc, pending
}

var codeRe = regexp.MustCompile(`\d{6}`)

func TestInitiate_SendsSixDigitCode(t *testing.T) {
	users := &mockSignupUsers{takenEmails: map[string]bool{}, takenPhones: map[string]bool{}}
	sms := &mockSMSChannel{}
	svc, pending := newSignupServiceForTest(users, sms)

	err := svc.Initiate(context.Background(), "arjun", "", "+919876543210", "secret123")
	if err != nil {
		t.Fatalf("ошибка начала регистрации: %v", err)
	}

	if len(sms.sent) != 1 || sms.to[0] != "+919876543210" {
		t.Fatalf("SMS не отправлено: %v", sms.sent)
	}

	record, ok, _ := pending.Get(context.Background(), "+919876543210")
	if !ok {
		t.Fatal("pending-запись не сохранена")
	}
	if !codeRe.MatchString(record.Code) || len(record.Code) != 6 {
		t.Fatalf("ожидался 6-значный код, получен %q", record.Code)
	}
	if record.PasswordHash == "secret123" || record.PasswordHash == "" {
		t.Fatal("пароль не захеширован")
	}
	// Аккаунт ещё не создан.
	if len(users.created) != 0 {
		t.Fatal("пользователь создан до подтверждения кода")
	}
}

func TestInitiate_DuplicatePhoneRejected(t *testing.T) {
	users := &mockSignupUsers{takenEmails: map[string]bool{}, takenPhones: map[string]bool{"+911": true}}
	svc, _ := newSignupServiceForTest(users, &mockSMSChannel{})

	err := svc.Initiate(context.Background(), "arjun", "", "+911", "secret123")
	if !errors.Is(err, apperrors.ErrDuplicateUser) {
		t.Fatalf("ожидался ErrDuplicateUser, получено %v", err)
	}
}

func TestInitiate_DeliveryFailureRollsBack(t *testing.T) {
	users := &mockSignupUsers{takenEmails: map[string]bool{}, takenPhones: map[string]bool{}}
	sms := &mockSMSChannel{fail: true}
	svc, pending := newSignupServiceForTest(users, sms)

	err := svc.Initiate(context.Background(), "arjun", "", "+912", "secret123")
	if !errors.Is(err, apperrors.ErrDelivery) {
		t.Fatalf("ожидался ErrDelivery, получено %v", err)
	}
	if apperrors.Action(err) != apperrors.ActionRetrySignup {
		t.Fatalf("ожидалась подсказка RETRY_SIGNUP, получено %q", apperrors.Action(err))
	}

	// Недоставленный код нельзя подтвердить.
	if _, ok, _ := pending.Get(context.Background(), "+912"); ok {
		t.Fatal("pending-запись не откатилась после сбоя доставки")
	}
}

func TestVerify_CreatesUserAndSeedsSamples(t *testing.T) {
	users := &mockSignupUsers{takenEmails: map[string]bool{}, takenPhones: map[string]bool{}}
	sms := &mockSMSChannel{}
	pending := cache.NewMemoryStore()
	seeds := &mockSeedAssignments{}
	samples := &mockSampleQuestions{samples: []*models.Question{{ID: 1}, {ID: 2}, {ID: 3}}}
	svc := NewSignupService(pending, users, samples, seeds, sms, &EmailService{},
		10*time.Minute, "testsecret", time.Hour)

	if err := svc.Initiate(context.Background(), "arjun", "", "+913", "secret123"); err != nil {
		t.Fatalf("ошибка начала регистрации: %v", err)
	}
	record, _, _ := pending.Get(context.Background(), "+913")

	token, user, err := svc.Verify(context.Background(), "+913", record.Code)
	if err != nil {
		t.Fatalf("ошибка подтверждения: %v", err)
	}
	if token == "" {
		t.Fatal("токен не выдан")
	}
	if !user.IsVerified || user.CurrentPlan != models.PlanFree {
		t.Fatalf("пользователь создан с неверным состоянием: %+v", user)
	}
	if seeds.assigned[user.ID] != 3 || !seeds.sample {
		t.Fatalf("sample-вопросы не выданы: %+v", seeds.assigned)
	}

	// Pending удалён: повторное подтверждение невозможно.
	if _, _, err := svc.Verify(context.Background(), "+913", record.Code); !errors.Is(err, apperrors.ErrNoPendingSignup) {
		t.Fatalf("ожидался ErrNoPendingSignup, получено %v", err)
	}
}

func TestVerify_WrongCode(t *testing.T) {
	users := &mockSignupUsers{takenEmails: map[string]bool{}, takenPhones: map[string]bool{}}
	svc, pending := newSignupServiceForTest(users, &mockSMSChannel{})

	if err := svc.Initiate(context.Background(), "arjun", "", "+914", "secret123"); err != nil {
		t.Fatalf("ошибка начала регистрации: %v", err)
	}
	record, _, _ := pending.Get(context.Background(), "+914")

	wrong := "000000"
	if record.Code == wrong {
		wrong = "000001"
	}
	_, _, err := svc.Verify(context.Background(), "+914", wrong)
	if !errors.Is(err, apperrors.ErrCodeMismatch) {
		t.Fatalf("ожидался ErrCodeMismatch, получено %v", err)
	}
	if apperrors.Action(err) != apperrors.ActionRetryOTP {
		t.Fatalf("ожидалась подсказка RETRY_OTP, получено %q", apperrors.Action(err))
	}
	if len(users.created) != 0 {
		t.Fatal("пользователь создан по неверному коду")
	}

	// Запись осталась, правильный код всё ещё работает.
	if _, _, err := svc.Verify(context.Background(), "+914", record.Code); err != nil {
		t.Fatalf("верный код после неверного не сработал: %v", err)
	}
}

func TestVerify_ExpiredCode(t *testing.T) {
	users := &mockSignupUsers{takenEmails: map[string]bool{}, takenPhones: map[string]bool{}}
	svc, pending := newSignupServiceForTest(users, &mockSMSChannel{})

	// Запись с уже истёкшим сроком, но ещё не убранная TTL-хранилищем.
	now := time.Now()
	_ = pending.Put(context.Background(), "+915", &models.PendingSignup{
		Identifier:   "+915",
		Username:     "arjun",
		Phone:        "+915",
		PasswordHash: "hash",
		Code:         "123456",
		CreatedAt:    now.Add(-20 * time.Minute),
		ExpiresAt:    now.Add(-10 * time.Minute),
	}, time.Hour)

	_, _, err := svc.Verify(context.Background(), "+915", "123456")
	if !errors.Is(err, apperrors.ErrCodeExpired) {
		t.Fatalf("ожидался ErrCodeExpired, получено %v", err)
	}

	// Просроченная запись удалена.
	if _, ok, _ := pending.Get(context.Background(), "+915"); ok {
		t.Fatal("просроченная запись не удалена")
	}
}

func TestVerify_NoPending(t *testing.T) {
	users := &mockSignupUsers{takenEmails: map[string]bool{}, takenPhones: map[string]bool{}}
	svc, _ := newSignupServiceForTest(users, &mockSMSChannel{})

	_, _, err := svc.Verify(context.Background(), "+916", "123456")
	if !errors.Is(err, apperrors.ErrNoPendingSignup) {
		t.Fatalf("ожидался ErrNoPendingSignup, получено %v", err)
	}
}
