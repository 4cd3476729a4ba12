package service

import (
	"context"
	"sort"
	"sync"

	"github.com/jackc/pgx/v5"

	"github.com/darsni/backend/internal/domain"
	"github.com/darsni/backend/internal/repository"
)

type fakeCourseRepo struct {
	mu      sync.Mutex
	courses map[string]domain.Course
}

func newFakeCourseRepo(courses ...domain.Course) *fakeCourseRepo {
	r := &fakeCourseRepo{courses: map[string]domain.Course{}}
	for _, c := range courses {
		r.courses[c.ID] = c
	}
	return r
}

func (r *fakeCourseRepo) Create(_ context.Context, c *domain.Course) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.courses[c.ID] = *c
	return nil
}

func (r *fakeCourseRepo) Update(_ context.Context, c *domain.Course) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.courses[c.ID]; !ok {
		return pgx.ErrNoRows
	}
	r.courses[c.ID] = *c
	return nil
}

func (r *fakeCourseRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.courses[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.courses, id)
	return nil
}

func (r *fakeCourseRepo) GetByID(_ context.Context, id string) (*domain.Course, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.courses[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &c, nil
}

func (r *fakeCourseRepo) List(_ context.Context, f repository.CourseFilter) ([]domain.Course, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Course
	for _, c := range r.courses {
		visible := c.Published || f.IncludeDrafts || (f.DraftOwnerID != nil && *f.DraftOwnerID == c.TeacherID)
		if !visible {
			continue
		}
		if f.TeacherID != nil && *f.TeacherID != c.TeacherID {
			continue
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type progressKey struct {
	user, course string
	unit         int
}

type fakeProgressRepo struct {
	mu        sync.Mutex
	rows      map[progressKey]domain.UnitProgress
	completed map[[2]string]bool
}

func newFakeProgressRepo() *fakeProgressRepo {
	return &fakeProgressRepo{
		rows:      map[progressKey]domain.UnitProgress{},
		completed: map[[2]string]bool{},
	}
}

func (r *fakeProgressRepo) MarkCourseComplete(_ context.Context, userID, courseID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := [2]string{userID, courseID}
	if r.completed[key] {
		return false, nil
	}
	r.completed[key] = true
	return true, nil
}

func (r *fakeProgressRepo) MarkUnitComplete(_ context.Context, p *domain.UnitProgress) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := progressKey{p.UserID, p.CourseID, p.Unit}
	if _, ok := r.rows[key]; ok {
		return false, nil
	}
	r.rows[key] = *p
	return true, nil
}

func (r *fakeProgressRepo) ListCompleted(_ context.Context, userID, courseID string) ([]domain.UnitProgress, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.UnitProgress
	for k, v := range r.rows {
		if k.user == userID && k.course == courseID {
			out = append(out, v)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Unit < out[j].Unit })
	return out, nil
}

type fakeLeaderboard struct {
	mu     sync.Mutex
	scores map[string]int64
	err    error
}

func newFakeLeaderboard() *fakeLeaderboard {
	return &fakeLeaderboard{scores: map[string]int64{}}
}

func (l *fakeLeaderboard) AddXP(_ context.Context, userID string, points int64) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return 0, l.err
	}
	l.scores[userID] += points
	return l.scores[userID], nil
}

func (l *fakeLeaderboard) ranked() []domain.LeaderboardEntry {
	entries := make([]domain.LeaderboardEntry, 0, len(l.scores))
	for id, xp := range l.scores {
		entries = append(entries, domain.LeaderboardEntry{UserID: id, XP: xp})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].XP == entries[j].XP {
			return entries[i].UserID > entries[j].UserID
		}
		return entries[i].XP > entries[j].XP
	})
	for i := range entries {
		entries[i].Rank = int64(i) + 1
	}
	return entries
}

func (l *fakeLeaderboard) Top(_ context.Context, n int64) ([]domain.LeaderboardEntry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	entries := l.ranked()
	if int64(len(entries)) > n {
		entries = entries[:n]
	}
	return entries, nil
}

func (l *fakeLeaderboard) Standing(_ context.Context, userID string) (*domain.LeaderboardEntry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return nil, l.err
	}
	for _, e := range l.ranked() {
		if e.UserID == userID {
			entry := e
			return &entry, nil
		}
	}
	return nil, nil
}
