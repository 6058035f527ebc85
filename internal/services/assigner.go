package services

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"palsanalytix/internal/logger"
	"palsanalytix/internal/models"
)

// Дневные квоты: бесплатный план получает случайные вопросы без фильтра,
// активный платный — вопросы своего курса и главы.
const (
	FreeDailyQuota = 3
	PaidDailyQuota = 10
)

var (
	assignedQuestionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "daily_assigned_questions_total",
		Help: "Сколько вопросов выдано ежедневной раздачей.",
	})
	assignFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "daily_assign_failures_total",
		Help: "Сколько пользователей не удалось обработать при раздаче.",
	})
	assignRunsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "daily_assign_runs_total",
		Help: "Сколько раз запускалась ежедневная раздача.",
	})
)

type AssignerUserRepo interface {
	GetAllUsers(ctx context.Context) ([]*models.User, error)
}

type AssignerQuestionRepo interface {
	RandomUnseen(ctx context.Context, userID int, course, chapter string, limit int) ([]*models.Question, error)
}

type AssignerAssignmentRepo interface {
	AppendAssignments(ctx context.Context, userID int, questions []*models.Question, isSample bool, assignedAt time.Time) error
}

// UserAssignResult — итог обработки одного пользователя в пакетном запуске.
type UserAssignResult struct {
	UserID   int    `json:"user_id"`
	Assigned int    `json:"assigned"`
	Skipped  bool   `json:"skipped,omitempty"`
	Reason   string `json:"reason,omitempty"`
	Error    string `json:"error,omitempty"`
}

// AssignReport — отчёт запуска: по записи на каждого пользователя,
// сбой одного не прерывает остальных.
type AssignReport struct {
	StartedAt  time.Time          `json:"started_at"`
	FinishedAt time.Time          `json:"finished_at"`
	Users      int                `json:"users"`
	Assigned   int                `json:"assigned"`
	Skipped    int                `json:"skipped"`
	Failed     int                `json:"failed"`
	Results    []UserAssignResult `json:"results"`
}

// AssignerService — ежедневная раздача вопросов. Запускается по расписанию
// и по требованию через админский эндпоинт; путь кода один и тот же.
type AssignerService struct {
	users       AssignerUserRepo
	questions   AssignerQuestionRepo
	assignments AssignerAssignmentRepo
}

func NewAssignerService(users AssignerUserRepo, questions AssignerQuestionRepo, assignments AssignerAssignmentRepo) *AssignerService {
	return &AssignerService{users: users, questions: questions, assignments: assignments}
}

// Run обходит всех пользователей и выдаёт каждому подходящему свежую пачку
// вопросов. Пул исключает уже полученные вопросы и вычисляется на момент
// запуска, поэтому два запуска подряд выдают непересекающиеся пачки.
func (s *AssignerService) Run(ctx context.Context) (*AssignReport, error) {
	assignRunsTotal.Inc()
	report := &AssignReport{StartedAt: time.Now()}

	users, err := s.users.GetAllUsers(ctx)
	if err != nil {
		logger.Log.Error("Раздача: не удалось получить пользователей", zap.Error(err))
		return nil, err
	}
	report.Users = len(users)

	for _, u := range users {
		res := s.assignToUser(ctx, u)
		report.Results = append(report.Results, res)
		switch {
		case res.Error != "":
			report.Failed++
		case res.Skipped:
			report.Skipped++
		default:
			report.Assigned += res.Assigned
		}
	}

	report.FinishedAt = time.Now()
	logger.Log.Info("Раздача вопросов завершена",
		zap.Int("users", report.Users),
		zap.Int("assigned", report.Assigned),
		zap.Int("skipped", report.Skipped),
		zap.Int("failed", report.Failed),
	)
	return report, nil
}

func (s *AssignerService) assignToUser(ctx context.Context, u *models.User) UserAssignResult {
	res := UserAssignResult{UserID: u.ID}

	quota := FreeDailyQuota
	course, chapter := "", ""

	if u.CurrentPlan != models.PlanFree {
		if !u.IsSubscriptionActive() {
			res.Skipped, res.Reason = true, "подписка истекла"
			return res
		}
		if u.CurrentCourse == "" || u.CurrentChapter == "" {
			res.Skipped, res.Reason = true, "курс или глава не выбраны"
			return res
		}
		quota = PaidDailyQuota
		course, chapter = u.CurrentCourse, u.CurrentChapter
	}

	questions, err := s.questions.RandomUnseen(ctx, u.ID, course, chapter, quota)
	if err != nil {
		logger.Log.Error("Раздача: ошибка выборки вопросов",
			zap.Int("user_id", u.ID), zap.Error(err))
		assignFailuresTotal.Inc()
		res.Error = err.Error()
		return res
	}
	if len(questions) == 0 {
		res.Skipped, res.Reason = true, "новых вопросов нет"
		return res
	}

	if err := s.assignments.AppendAssignments(ctx, u.ID, questions, false, time.Now()); err != nil {
		logger.Log.Error("Раздача: ошибка записи выдачи",
			zap.Int("user_id", u.ID), zap.Error(err))
		assignFailuresTotal.Inc()
		res.Error = err.Error()
		return res
	}

	res.Assigned = len(questions)
	assignedQuestionsTotal.Add(float64(res.Assigned))
	return res
}

// StartDailyAssigner запускает раздачу каждый день в заданный час.
func StartDailyAssigner(svc *AssignerService, hour int) {
	go func() {
		for {
			now := time.Now()
			next := time.Date(now.Year(), now.Month(), now.Day(), hour, 0, 0, 0, now.Location())
			if !next.After(now) {
				next = next.Add(24 * time.Hour)
			}
			time.Sleep(time.Until(next))

			if _, err := svc.Run(context.Background()); err != nil {
				logger.Log.Error("Плановая раздача вопросов завершилась ошибкой", zap.Error(err))
			}
		}
	}()
}
