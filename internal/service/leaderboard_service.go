package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/darsni/backend/internal/config"
	"github.com/darsni/backend/internal/domain"
	"github.com/darsni/backend/internal/events"
	"github.com/darsni/backend/internal/observability"
	"github.com/darsni/backend/internal/repository"
)

const maxLeaderboardSize = 100

// Leaderboard is the public top list plus the caller's own standing when known.
type Leaderboard struct {
	Entries []domain.LeaderboardEntry
	Me      *domain.LeaderboardEntry
}

// LeaderboardService reads and awards XP.
type LeaderboardService struct {
	store   repository.LeaderboardStore
	cfg     config.LeaderboardConfig
	metrics *observability.Metrics
	logger  *zap.Logger
}

// NewLeaderboardService builds the service.
func NewLeaderboardService(store repository.LeaderboardStore, cfg config.LeaderboardConfig, metrics *observability.Metrics, logger *zap.Logger) *LeaderboardService {
	return &LeaderboardService{store: store, cfg: cfg, metrics: metrics, logger: logger}
}

// Top returns the best n standings. viewer may be nil for anonymous callers.
func (s *LeaderboardService) Top(ctx context.Context, n int64, viewer *domain.Identity) (*Leaderboard, error) {
	if n <= 0 || n > maxLeaderboardSize {
		n = 10
	}
	entries, err := s.store.Top(ctx, n)
	if err != nil {
		return nil, err
	}

	board := &Leaderboard{Entries: entries}
	if viewer == nil {
		return board, nil
	}
	me, err := s.store.Standing(ctx, viewer.ID)
	if err != nil {
		// The top list is still useful without the personal row.
		s.logger.Warn("leaderboard standing lookup failed", zap.String("user_id", viewer.ID), zap.Error(err))
		return board, nil
	}
	board.Me = me
	return board, nil
}

// UnitXP returns the points for completing a unit with an optional quiz score.
func (s *LeaderboardService) UnitXP(quizScore *int) int64 {
	points := int64(s.cfg.XPPerUnit)
	if quizScore != nil && s.cfg.QuizBonusStep > 0 {
		points += int64(*quizScore / s.cfg.QuizBonusStep)
	}
	return points
}

// CourseXP returns the completion bonus for finishing every unit of a course.
func (s *LeaderboardService) CourseXP(units int) int64 {
	return int64(s.cfg.XPPerUnit) * int64(units) / 2
}

// HandleUnitCompleted awards unit XP. Only students collect XP.
func (s *LeaderboardService) HandleUnitCompleted(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.UnitCompletedPayload)
	if !ok {
		return fmt.Errorf("unexpected payload %T for %s", event.Payload, event.Type)
	}
	return s.award(ctx, event, s.UnitXP(payload.QuizScore))
}

// HandleCourseCompleted awards the course completion bonus.
func (s *LeaderboardService) HandleCourseCompleted(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.CourseCompletedPayload)
	if !ok {
		return fmt.Errorf("unexpected payload %T for %s", event.Payload, event.Type)
	}
	return s.award(ctx, event, s.CourseXP(payload.Units))
}

func (s *LeaderboardService) award(ctx context.Context, event events.Event, points int64) error {
	if event.Role != domain.RoleStudent || points <= 0 {
		return nil
	}
	total, err := s.store.AddXP(ctx, event.UserID, points)
	if err != nil {
		return fmt.Errorf("award xp to %s: %w", event.UserID, err)
	}
	s.metrics.RecordXP(points)
	s.logger.Info("xp awarded",
		zap.String("user_id", event.UserID),
		zap.String("event_type", string(event.Type)),
		zap.Int64("points", points),
		zap.Int64("total", total))
	return nil
}
