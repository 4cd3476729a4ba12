package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/darsni/backend/internal/api/dto"
	"github.com/darsni/backend/internal/auth"
	"github.com/darsni/backend/internal/domain"
	"github.com/darsni/backend/internal/service"
	apperrors "github.com/darsni/backend/pkg/util/errorutil"
)

// CoursesHandler exposes course catalog and progress endpoints.
type CoursesHandler struct {
	courses *service.CourseService
}

// NewCoursesHandler constructs handler.
func NewCoursesHandler(courses *service.CourseService) *CoursesHandler {
	return &CoursesHandler{courses: courses}
}

// List handles GET /api/courses. Drafts are included for their teacher and admins.
func (h *CoursesHandler) List(c *fiber.Ctx) error {
	viewer, _ := auth.IdentityFromContext(c)
	filter := service.CourseListFilter{
		Limit:  c.QueryInt("limit", 50),
		Offset: c.QueryInt("offset", 0),
	}
	if teacherID := c.Query("teacherId"); teacherID != "" {
		filter.TeacherID = &teacherID
	}

	courses, err := h.courses.List(c.UserContext(), viewer, filter)
	if err != nil {
		return err
	}
	out := make([]dto.CourseResponse, 0, len(courses))
	for i := range courses {
		out = append(out, courseResponse(&courses[i]))
	}
	return ok(c, http.StatusOK, fiber.Map{"courses": out})
}

// Get handles GET /api/courses/:id.
func (h *CoursesHandler) Get(c *fiber.Ctx) error {
	viewer, _ := auth.IdentityFromContext(c)
	course, err := h.courses.Get(c.UserContext(), viewer, c.Params("id"))
	if err != nil {
		return err
	}
	return ok(c, http.StatusOK, fiber.Map{"course": courseResponse(course)})
}

// Create handles POST /api/courses.
func (h *CoursesHandler) Create(c *fiber.Ctx) error {
	actor, err := requireIdentity(c)
	if err != nil {
		return err
	}
	var req dto.CourseRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}

	course, err := h.courses.Create(c.UserContext(), actor, courseInput(req))
	if err != nil {
		return err
	}
	return ok(c, http.StatusCreated, fiber.Map{"course": courseResponse(course)})
}

// Update handles PUT /api/courses/:id.
func (h *CoursesHandler) Update(c *fiber.Ctx) error {
	actor, err := requireIdentity(c)
	if err != nil {
		return err
	}
	var req dto.CourseRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}

	course, err := h.courses.Update(c.UserContext(), actor, c.Params("id"), courseInput(req))
	if err != nil {
		return err
	}
	return ok(c, http.StatusOK, fiber.Map{"course": courseResponse(course)})
}

// Delete handles DELETE /api/courses/:id.
func (h *CoursesHandler) Delete(c *fiber.Ctx) error {
	actor, err := requireIdentity(c)
	if err != nil {
		return err
	}
	if err := h.courses.Delete(c.UserContext(), actor, c.Params("id")); err != nil {
		return err
	}
	return ok(c, http.StatusOK, fiber.Map{"deleted": c.Params("id")})
}

// RecordProgress handles POST /api/courses/:id/progress.
func (h *CoursesHandler) RecordProgress(c *fiber.Ctx) error {
	student, err := requireIdentity(c)
	if err != nil {
		return err
	}
	var req dto.ProgressRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}

	summary, err := h.courses.RecordProgress(c.UserContext(), student, c.Params("id"), req.Unit, req.QuizScore)
	if err != nil {
		return err
	}
	return ok(c, http.StatusOK, fiber.Map{"progress": progressResponse(summary)})
}

// Progress handles GET /api/courses/:id/progress.
func (h *CoursesHandler) Progress(c *fiber.Ctx) error {
	student, err := requireIdentity(c)
	if err != nil {
		return err
	}
	summary, err := h.courses.Progress(c.UserContext(), student, c.Params("id"))
	if err != nil {
		return err
	}
	return ok(c, http.StatusOK, fiber.Map{"progress": progressResponse(summary)})
}

func requireIdentity(c *fiber.Ctx) (*domain.Identity, error) {
	identity, found := auth.IdentityFromContext(c)
	if !found {
		return nil, apperrors.NewAuthenticationRequired()
	}
	return identity, nil
}

func courseInput(req dto.CourseRequest) service.CourseInput {
	return service.CourseInput{
		Title:       req.Title,
		Description: req.Description,
		Level:       domain.CourseLevel(req.Level),
		UnitCount:   req.UnitCount,
		Published:   req.Published,
	}
}

func courseResponse(c *domain.Course) dto.CourseResponse {
	return dto.CourseResponse{
		ID:          c.ID,
		Title:       c.Title,
		Description: c.Description,
		Level:       string(c.Level),
		TeacherID:   c.TeacherID,
		UnitCount:   c.UnitCount,
		Published:   c.Published,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
}

func progressResponse(s *service.ProgressSummary) dto.ProgressResponse {
	return dto.ProgressResponse{
		CourseID:       s.CourseID,
		CompletedUnits: s.CompletedUnits,
		TotalUnits:     s.TotalUnits,
		Percent:        s.Percent,
		NewlyCompleted: s.NewlyCompleted,
	}
}
