package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/darsni/backend/internal/domain"
	"github.com/darsni/backend/internal/events"
	"github.com/darsni/backend/internal/repository"
	apperrors "github.com/darsni/backend/pkg/util/errorutil"
)

// CourseService coordinates course authoring and student progress.
type CourseService struct {
	courses    repository.CourseRepository
	progress   repository.ProgressRepository
	dispatcher events.Dispatcher
	logger     *zap.Logger
	now        func() time.Time
}

// CourseDependencies bundles repositories for course service.
type CourseDependencies struct {
	CourseRepo   repository.CourseRepository
	ProgressRepo repository.ProgressRepository
	Dispatcher   events.Dispatcher
	Logger       *zap.Logger
}

// CourseInput describes course creation and update payloads.
type CourseInput struct {
	Title       string
	Description string
	Level       domain.CourseLevel
	UnitCount   int
	Published   bool
}

// CourseListFilter describes listing parameters.
type CourseListFilter struct {
	TeacherID *string
	Limit     int
	Offset    int
}

// ProgressSummary reports how far a student got through a course.
type ProgressSummary struct {
	CourseID       string
	CompletedUnits []int
	TotalUnits     int
	Percent        int
	NewlyCompleted bool
}

// NewCourseService builds the service.
func NewCourseService(deps CourseDependencies) *CourseService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CourseService{
		courses:    deps.CourseRepo,
		progress:   deps.ProgressRepo,
		dispatcher: deps.Dispatcher,
		logger:     logger,
		now:        time.Now,
	}
}

// List returns published courses. Admins also see every draft; teachers see their own drafts.
func (s *CourseService) List(ctx context.Context, viewer *domain.Identity, filter CourseListFilter) ([]domain.Course, error) {
	repoFilter := repository.CourseFilter{
		TeacherID: filter.TeacherID,
		Limit:     filter.Limit,
		Offset:    filter.Offset,
	}
	switch {
	case viewer.HasRole(domain.RoleAdmin):
		repoFilter.IncludeDrafts = true
	case viewer.HasRole(domain.RoleTeacher):
		id := viewer.ID
		repoFilter.DraftOwnerID = &id
	}
	return s.courses.List(ctx, repoFilter)
}

// Get returns a course; drafts are only visible to their teacher and admins.
func (s *CourseService) Get(ctx context.Context, viewer *domain.Identity, id string) (*domain.Course, error) {
	course, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !course.Published && !canEdit(viewer, course) {
		return nil, apperrors.NewNotFound("course", map[string]any{"id": id})
	}
	return course, nil
}

// Create stores a new course owned by the acting teacher.
func (s *CourseService) Create(ctx context.Context, actor *domain.Identity, input CourseInput) (*domain.Course, error) {
	if err := validateCourseInput(input); err != nil {
		return nil, err
	}
	course := &domain.Course{
		ID:          uuid.NewString(),
		Title:       strings.TrimSpace(input.Title),
		Description: strings.TrimSpace(input.Description),
		Level:       levelOrDefault(input.Level),
		TeacherID:   actor.ID,
		UnitCount:   input.UnitCount,
		Published:   input.Published,
	}
	if err := s.courses.Create(ctx, course); err != nil {
		return nil, err
	}
	s.logger.Info("course created", zap.String("course_id", course.ID), zap.String("teacher_id", actor.ID))
	return course, nil
}

// Update replaces the editable fields. Teachers may only edit their own courses.
func (s *CourseService) Update(ctx context.Context, actor *domain.Identity, id string, input CourseInput) (*domain.Course, error) {
	if err := validateCourseInput(input); err != nil {
		return nil, err
	}
	course, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canEdit(actor, course) {
		return nil, apperrors.NewForbidden("only the course teacher or an admin can edit this course")
	}

	course.Title = strings.TrimSpace(input.Title)
	course.Description = strings.TrimSpace(input.Description)
	course.Level = levelOrDefault(input.Level)
	course.UnitCount = input.UnitCount
	course.Published = input.Published
	if err := s.courses.Update(ctx, course); err != nil {
		return nil, err
	}
	return course, nil
}

// Delete removes a course and its progress rows.
func (s *CourseService) Delete(ctx context.Context, actor *domain.Identity, id string) error {
	if err := s.courses.Delete(ctx, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("course", map[string]any{"id": id})
		}
		return err
	}
	s.logger.Info("course deleted", zap.String("course_id", id), zap.String("actor_id", actor.ID))
	return nil
}

// RecordProgress marks a unit as completed for the student. Repeated completions
// are accepted but emit no events, so XP is awarded once per unit.
func (s *CourseService) RecordProgress(ctx context.Context, student *domain.Identity, courseID string, unit int, quizScore *int) (*ProgressSummary, error) {
	course, err := s.load(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if !course.Published {
		return nil, apperrors.NewNotFound("course", map[string]any{"id": courseID})
	}
	if !course.HasUnit(unit) {
		return nil, apperrors.NewValidationError("unit out of range", map[string]any{"unit": unit, "units": course.UnitCount})
	}
	if quizScore != nil && (*quizScore < 0 || *quizScore > 100) {
		return nil, apperrors.NewValidationError("quiz score must be between 0 and 100", nil)
	}

	created, err := s.progress.MarkUnitComplete(ctx, &domain.UnitProgress{
		UserID:    student.ID,
		CourseID:  courseID,
		Unit:      unit,
		QuizScore: quizScore,
	})
	if err != nil {
		return nil, err
	}

	summary, err := s.Progress(ctx, student, courseID)
	if err != nil {
		return nil, err
	}
	summary.NewlyCompleted = created
	if !created {
		return summary, nil
	}

	s.publish(ctx, student, events.EventUnitCompleted, events.UnitCompletedPayload{
		CourseID:  courseID,
		Unit:      unit,
		QuizScore: quizScore,
	})
	if len(summary.CompletedUnits) < course.UnitCount {
		return summary, nil
	}
	// Concurrent requests may both observe the full count; the marker admits one.
	first, err := s.progress.MarkCourseComplete(ctx, student.ID, courseID)
	if err != nil {
		s.logger.Error("course completion marker failed",
			zap.String("course_id", courseID),
			zap.String("user_id", student.ID),
			zap.Error(err))
		return summary, nil
	}
	if first {
		s.publish(ctx, student, events.EventCourseCompleted, events.CourseCompletedPayload{
			CourseID: courseID,
			Units:    course.UnitCount,
		})
	}
	return summary, nil
}

// Progress summarizes the student's completed units in a course.
func (s *CourseService) Progress(ctx context.Context, student *domain.Identity, courseID string) (*ProgressSummary, error) {
	course, err := s.load(ctx, courseID)
	if err != nil {
		return nil, err
	}
	rows, err := s.progress.ListCompleted(ctx, student.ID, courseID)
	if err != nil {
		return nil, err
	}

	units := make([]int, 0, len(rows))
	for _, row := range rows {
		units = append(units, row.Unit)
	}
	percent := 0
	if course.UnitCount > 0 {
		percent = len(units) * 100 / course.UnitCount
	}
	return &ProgressSummary{
		CourseID:       courseID,
		CompletedUnits: units,
		TotalUnits:     course.UnitCount,
		Percent:        percent,
	}, nil
}

func (s *CourseService) load(ctx context.Context, id string) (*domain.Course, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, apperrors.NewNotFound("course", map[string]any{"id": id})
	}
	course, err := s.courses.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("course", map[string]any{"id": id})
		}
		return nil, err
	}
	return course, nil
}

func (s *CourseService) publish(ctx context.Context, actor *domain.Identity, eventType events.EventType, payload interface{}) {
	if s.dispatcher == nil {
		return
	}
	event := events.Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		UserID:    actor.ID,
		Role:      actor.Role,
		Timestamp: s.now(),
		Payload:   payload,
	}
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Error("event handler failed",
			zap.String("event_type", string(eventType)),
			zap.String("user_id", actor.ID),
			zap.Error(err))
	}
}

func canEdit(actor *domain.Identity, course *domain.Course) bool {
	if actor.HasRole(domain.RoleAdmin) {
		return true
	}
	return actor.HasRole(domain.RoleTeacher) && actor.ID == course.TeacherID
}

func validateCourseInput(input CourseInput) error {
	details := map[string]any{}
	if strings.TrimSpace(input.Title) == "" {
		details["title"] = "required"
	}
	if input.UnitCount < 1 {
		details["unitCount"] = "must be at least 1"
	}
	switch input.Level {
	case "", domain.CourseLevelBeginner, domain.CourseLevelIntermediate, domain.CourseLevelAdvanced:
	default:
		details["level"] = "must be beginner, intermediate or advanced"
	}
	if len(details) > 0 {
		return apperrors.NewValidationError("invalid course", details)
	}
	return nil
}

func levelOrDefault(level domain.CourseLevel) domain.CourseLevel {
	if level == "" {
		return domain.CourseLevelBeginner
	}
	return level
}
