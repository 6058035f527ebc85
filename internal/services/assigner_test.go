package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"palsanalytix/internal/models"
)

type assignCall struct {
	userID  int
	course  string
	chapter string
	limit   int
}

// assignerStore — пользователи, пул вопросов и выданные записи в памяти.
type assignerStore struct {
	users   []*models.User
	pool    []*models.Question
	seen    map[int]map[int]bool
	calls   []assignCall
	failFor int
}

func newAssignerStore(users []*models.User, pool []*models.Question) *assignerStore {
	return &assignerStore{users: users, pool: pool, seen: make(map[int]map[int]bool)}
}

func (s *assignerStore) GetAllUsers(_ context.Context) ([]*models.User, error) {
	return s.users, nil
}

func (s *assignerStore) RandomUnseen(_ context.Context, userID int, course, chapter string, limit int) ([]*models.Question, error) {
	s.calls = append(s.calls, assignCall{userID: userID, course: course, chapter: chapter, limit: limit})
	if s.failFor == userID {
		return nil, errors.New("db error")
	}

	var out []*models.Question
	for _, q := range s.pool {
		if len(out) == limit {
			break
		}
		if s.seen[userID][q.ID] {
			continue
		}
		if course != "" && !containsStr(q.Courses, course) {
			continue
		}
		if chapter != "" && q.ChapterName != chapter {
			continue
		}
		out = append(out, q)
	}
	return out, nil
}

func (s *assignerStore) AppendAssignments(_ context.Context, userID int, questions []*models.Question, _ bool, _ time.Time) error {
	if s.seen[userID] == nil {
		s.seen[userID] = make(map[int]bool)
	}
	for _, q := range questions {
		s.seen[userID][q.ID] = true
	}
	return nil
}

func containsStr(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

func makePool(n int, course, chapter string) []*models.Question {
	pool := make([]*models.Question, 0, n)
	for i := 1; i <= n; i++ {
		pool = append(pool, &models.Question{
			ID:          i,
			Courses:     []string{course},
			ChapterName: chapter,
			Statement:   "вопрос",
			RightAnswer: "optionA",
		})
	}
	return pool
}

func futureExpiry() *time.Time {
	t := time.Now().AddDate(0, 1, 0)
	return &t
}

func pastExpiry() *time.Time {
	t := time.Now().AddDate(0, -1, 0)
	return &t
}

func TestRun_FreeUserGetsThreeWithoutFilter(t *testing.T) {
	store := newAssignerStore(
		[]*models.User{{ID: 1, CurrentPlan: models.PlanFree}},
		makePool(20, "CFA", "Ethics"),
	)
	svc := NewAssignerService(store, store, store)

	report, err := svc.Run(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, FreeDailyQuota, report.Assigned)
	assert.Len(t, store.seen[1], FreeDailyQuota)

	// FREE-план получает вопросы без фильтра по курсу и главе.
	assert.Equal(t, assignCall{userID: 1, course: "", chapter: "", limit: FreeDailyQuota}, store.calls[0])
}

func TestRun_PaidUserGetsTenWithFilter(t *testing.T) {
	store := newAssignerStore(
		[]*models.User{{
			ID:                    2,
			CurrentPlan:           models.PlanPremium,
			SubscriptionExpiresAt: futureExpiry(),
			CurrentCourse:         "FRM",
			CurrentChapter:        "Market Risk",
		}},
		makePool(20, "FRM", "Market Risk"),
	)
	svc := NewAssignerService(store, store, store)

	report, err := svc.Run(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, PaidDailyQuota, report.Assigned)
	assert.Equal(t, assignCall{userID: 2, course: "FRM", chapter: "Market Risk", limit: PaidDailyQuota}, store.calls[0])
}

func TestRun_ExpiredPaidUserSkipped(t *testing.T) {
	store := newAssignerStore(
		[]*models.User{{
			ID:                    3,
			CurrentPlan:           models.PlanBasic,
			SubscriptionExpiresAt: pastExpiry(),
			CurrentCourse:         "CFA",
			CurrentChapter:        "Ethics",
		}},
		makePool(20, "CFA", "Ethics"),
	)
	svc := NewAssignerService(store, store, store)

	report, err := svc.Run(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, 1, report.Skipped)
	assert.Equal(t, 0, report.Assigned)
	assert.Empty(t, store.calls)
}

func TestRun_PaidUserWithoutPreferencesSkipped(t *testing.T) {
	store := newAssignerStore(
		[]*models.User{{
			ID:                    4,
			CurrentPlan:           models.PlanPremium,
			SubscriptionExpiresAt: futureExpiry(),
		}},
		makePool(20, "CFA", "Ethics"),
	)
	svc := NewAssignerService(store, store, store)

	report, err := svc.Run(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, 1, report.Skipped)
	assert.Empty(t, store.calls)
}

func TestRun_ConsecutiveRunsAreDisjoint(t *testing.T) {
	store := newAssignerStore(
		[]*models.User{{ID: 5, CurrentPlan: models.PlanFree}},
		makePool(5, "CFA", "Ethics"),
	)
	svc := NewAssignerService(store, store, store)

	report1, err := svc.Run(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, 3, report1.Assigned)

	report2, err := svc.Run(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, 2, report2.Assigned)
	assert.Len(t, store.seen[5], 5)

	// Пул исчерпан, третий запуск ничего не выдаёт.
	report3, err := svc.Run(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, 0, report3.Assigned)
	assert.Equal(t, 1, report3.Skipped)
}

func TestRun_OneUserFailureDoesNotStopOthers(t *testing.T) {
	store := newAssignerStore(
		[]*models.User{
			{ID: 6, CurrentPlan: models.PlanFree},
			{ID: 7, CurrentPlan: models.PlanFree},
		},
		makePool(20, "CFA", "Ethics"),
	)
	store.failFor = 6
	svc := NewAssignerService(store, store, store)

	report, err := svc.Run(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, 1, report.Failed)
	assert.Equal(t, FreeDailyQuota, report.Assigned)
	assert.Len(t, store.seen[7], FreeDailyQuota)
	assert.Empty(t, store.seen[6])
}
