package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	nethttp "net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/darsni/backend/internal/api/http/handlers"
	"github.com/darsni/backend/internal/auth"
	"github.com/darsni/backend/internal/config"
	"github.com/darsni/backend/internal/domain"
	"github.com/darsni/backend/internal/events"
	"github.com/darsni/backend/internal/observability"
	"github.com/darsni/backend/internal/repository"
	"github.com/darsni/backend/internal/service"
	"github.com/darsni/backend/internal/worker"
	apperrors "github.com/darsni/backend/pkg/util/errorutil"
)

const (
	publishedCourseID = "11111111-1111-1111-1111-111111111111"
	draftCourseID     = "22222222-2222-2222-2222-222222222222"
)

type stubProvider struct {
	mu     sync.Mutex
	tokens map[string]*domain.ProviderIdentity
}

func (p *stubProvider) register(token, uid, role string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.tokens[token] = &domain.ProviderIdentity{
		PrincipalID:      uid,
		Email:            uid + "@darsni.test",
		EmailVerified:    true,
		CustomAttributes: map[string]any{domain.RoleAttribute: role},
	}
}

func (p *stubProvider) VerifyIdentityToken(_ context.Context, token string) (*domain.ProviderIdentity, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	record, ok := p.tokens[token]
	if !ok {
		return nil, errors.New("id token rejected")
	}
	return record, nil
}

type memUsers struct {
	mu       sync.Mutex
	profiles map[string]domain.UserProfile
}

func (r *memUsers) Upsert(_ context.Context, u *domain.UserProfile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u.LastSeenAt = time.Now()
	r.profiles[u.ID] = *u
	return nil
}

func (r *memUsers) GetByID(_ context.Context, id string) (*domain.UserProfile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.profiles[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &u, nil
}

func (r *memUsers) List(_ context.Context, f repository.UserFilter) ([]domain.UserProfile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.UserProfile
	for _, u := range r.profiles {
		if f.Role != nil && u.Role != *f.Role {
			continue
		}
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type memCourses struct {
	mu      sync.Mutex
	courses map[string]domain.Course
}

func (r *memCourses) Create(_ context.Context, c *domain.Course) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.courses[c.ID] = *c
	return nil
}

func (r *memCourses) Update(_ context.Context, c *domain.Course) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.courses[c.ID] = *c
	return nil
}

func (r *memCourses) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.courses[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.courses, id)
	return nil
}

func (r *memCourses) GetByID(_ context.Context, id string) (*domain.Course, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.courses[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &c, nil
}

func (r *memCourses) List(_ context.Context, f repository.CourseFilter) ([]domain.Course, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Course
	for _, c := range r.courses {
		if c.Published || f.IncludeDrafts || (f.DraftOwnerID != nil && *f.DraftOwnerID == c.TeacherID) {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type memProgress struct {
	mu        sync.Mutex
	rows      []domain.UnitProgress
	completed map[string]bool
}

func (r *memProgress) MarkCourseComplete(_ context.Context, userID, courseID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.completed == nil {
		r.completed = map[string]bool{}
	}
	key := userID + "/" + courseID
	if r.completed[key] {
		return false, nil
	}
	r.completed[key] = true
	return true, nil
}

func (r *memProgress) MarkUnitComplete(_ context.Context, p *domain.UnitProgress) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, row := range r.rows {
		if row.UserID == p.UserID && row.CourseID == p.CourseID && row.Unit == p.Unit {
			return false, nil
		}
	}
	r.rows = append(r.rows, *p)
	return true, nil
}

func (r *memProgress) ListCompleted(_ context.Context, userID, courseID string) ([]domain.UnitProgress, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.UnitProgress
	for _, row := range r.rows {
		if row.UserID == userID && row.CourseID == courseID {
			out = append(out, row)
		}
	}
	return out, nil
}

type noQuotes struct{}

func (noQuotes) Random(context.Context) (*domain.Quote, error) { return nil, pgx.ErrNoRows }
func (noQuotes) Create(context.Context, *domain.Quote) error  { return nil }

type memBoard struct {
	mu     sync.Mutex
	scores map[string]int64
}

func (b *memBoard) AddXP(_ context.Context, userID string, points int64) (int64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.scores[userID] += points
	return b.scores[userID], nil
}

func (b *memBoard) Top(_ context.Context, n int64) ([]domain.LeaderboardEntry, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []domain.LeaderboardEntry
	for id, xp := range b.scores {
		out = append(out, domain.LeaderboardEntry{UserID: id, XP: xp})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].XP > out[j].XP })
	for i := range out {
		out[i].Rank = int64(i) + 1
	}
	if int64(len(out)) > n {
		out = out[:n]
	}
	return out, nil
}

func (b *memBoard) Standing(ctx context.Context, userID string) (*domain.LeaderboardEntry, error) {
	all, _ := b.Top(ctx, 1000)
	for _, e := range all {
		if e.UserID == userID {
			entry := e
			return &entry, nil
		}
	}
	return nil, nil
}

type failingPinger struct{}

func (failingPinger) Ping(context.Context) error { return errors.New("connection refused") }

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   struct {
		Code    string         `json:"code"`
		Message string         `json:"message"`
		Details map[string]any `json:"details"`
	} `json:"error"`
}

type testServer struct {
	app      *fiber.App
	provider *stubProvider
	board    *memBoard
	users    *memUsers
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	logger := zap.NewNop()
	metrics := observability.NewMetrics(prometheus.NewRegistry())

	provider := &stubProvider{tokens: map[string]*domain.ProviderIdentity{}}
	provider.register("student-token", "student-1", "student")
	provider.register("teacher-token", "teacher-1", "teacher")
	provider.register("admin-token", "admin-1", "admin")

	issuer := auth.NewSessionIssuer("router-test-secret", time.Hour, 24*time.Hour)
	users := &memUsers{profiles: map[string]domain.UserProfile{}}
	courses := &memCourses{courses: map[string]domain.Course{
		publishedCourseID: {ID: publishedCourseID, Title: "Algebra", Level: domain.CourseLevelBeginner, TeacherID: "teacher-1", UnitCount: 2, Published: true},
		draftCourseID:     {ID: draftCourseID, Title: "Geometry", Level: domain.CourseLevelBeginner, TeacherID: "teacher-1", UnitCount: 3},
	}}
	board := &memBoard{scores: map[string]int64{}}

	dispatcher := events.NewInMemoryDispatcher()
	leaderboard := service.NewLeaderboardService(board, config.LeaderboardConfig{XPPerUnit: 50, QuizBonusStep: 10}, metrics, logger)
	worker.StartXPWorker(dispatcher, leaderboard)

	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler(logger, metrics)})
	RegisterMiddlewares(app, logger, metrics, time.Second)
	RegisterRoutes(app, RouteConfig{
		Health:   handlers.NewHealthHandler("darsni-api", "test", map[string]handlers.Pinger{"postgres": failingPinger{}}),
		Sessions: handlers.NewSessionHandler(service.NewSessionService(issuer, logger)),
		Users:    handlers.NewUsersHandler(service.NewUserService(users)),
		Courses: handlers.NewCoursesHandler(service.NewCourseService(service.CourseDependencies{
			CourseRepo:   courses,
			ProgressRepo: &memProgress{},
			Dispatcher:   dispatcher,
			Logger:       logger,
		})),
		Leaderboard:     handlers.NewLeaderboardHandler(leaderboard, service.NewQuoteService(noQuotes{})),
		Metrics:         metrics,
		ProviderGuard:   auth.NewGuard("provider", auth.NewProviderResolver(provider), logger, metrics),
		CrossCheckGuard: auth.NewGuard("cross_check", auth.NewCrossCheckResolver(issuer, provider), logger, metrics),
	})

	return &testServer{app: app, provider: provider, board: board, users: users}
}

func (s *testServer) do(t *testing.T, method, path, token, body string) (int, envelope) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env envelope
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 && strings.HasPrefix(resp.Header.Get(fiber.HeaderContentType), fiber.MIMEApplicationJSON) {
		require.NoError(t, json.Unmarshal(raw, &env))
	}
	return resp.StatusCode, env
}

func decodeData(t *testing.T, env envelope, dst any) {
	t.Helper()
	require.True(t, env.Success)
	require.NoError(t, json.Unmarshal(env.Data, dst))
}

type sessionData struct {
	User map[string]any `json:"user"`
	Auth struct {
		AccessToken  string `json:"accessToken"`
		RefreshToken string `json:"refreshToken"`
	} `json:"auth"`
}

func TestProtectedRoutesRejectMissingCredential(t *testing.T) {
	s := newTestServer(t)

	for _, tc := range []struct{ method, path string }{
		{nethttp.MethodGet, "/api/users/me"},
		{nethttp.MethodPost, "/api/auth/session"},
		{nethttp.MethodGet, "/api/auth/verify"},
		{nethttp.MethodPost, "/api/courses"},
	} {
		status, env := s.do(t, tc.method, tc.path, "", "")
		assert.Equal(t, nethttp.StatusUnauthorized, status, tc.path)
		assert.False(t, env.Success, tc.path)
		assert.Equal(t, apperrors.CodeTokenRequired, env.Error.Code, tc.path)
	}
}

func TestProviderRejectionIsAuthenticationFailed(t *testing.T) {
	s := newTestServer(t)

	status, env := s.do(t, nethttp.MethodGet, "/api/users/me", "forged", "")
	assert.Equal(t, nethttp.StatusUnauthorized, status)
	assert.Equal(t, apperrors.CodeAuthenticationFailed, env.Error.Code)
}

func TestUsersMeSyncsProfile(t *testing.T) {
	s := newTestServer(t)

	status, env := s.do(t, nethttp.MethodGet, "/api/users/me", "teacher-token", "")
	require.Equal(t, nethttp.StatusOK, status)

	var data struct {
		User    map[string]any `json:"user"`
		Profile struct {
			ID   string `json:"id"`
			Role string `json:"role"`
		} `json:"profile"`
	}
	decodeData(t, env, &data)
	assert.Equal(t, "teacher-1", data.User["id"])
	assert.Equal(t, "teacher", data.User["role"])
	assert.Equal(t, true, data.User["emailVerified"])
	assert.Equal(t, "teacher", data.Profile.Role)

	stored, err := s.users.GetByID(context.Background(), "teacher-1")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleTeacher, stored.Role)
}

func TestListUsersRequiresAdmin(t *testing.T) {
	s := newTestServer(t)

	status, env := s.do(t, nethttp.MethodGet, "/api/users", "student-token", "")
	assert.Equal(t, nethttp.StatusForbidden, status)
	assert.Equal(t, apperrors.CodeInsufficientPermissions, env.Error.Code)

	status, _ = s.do(t, nethttp.MethodGet, "/api/users", "admin-token", "")
	assert.Equal(t, nethttp.StatusOK, status)

	status, env = s.do(t, nethttp.MethodGet, "/api/users?role=owner", "admin-token", "")
	assert.Equal(t, nethttp.StatusBadRequest, status)
	assert.Equal(t, apperrors.CodeValidationFailed, env.Error.Code)
}

func TestSessionLifecycle(t *testing.T) {
	s := newTestServer(t)

	status, env := s.do(t, nethttp.MethodPost, "/api/auth/session", "student-token", "")
	require.Equal(t, nethttp.StatusCreated, status)
	var session sessionData
	decodeData(t, env, &session)
	require.NotEmpty(t, session.Auth.AccessToken)
	require.NotEmpty(t, session.Auth.RefreshToken)
	assert.Equal(t, "student", session.User["role"])

	t.Run("refresh mints a new access credential", func(t *testing.T) {
		status, env := s.do(t, nethttp.MethodPost, "/api/auth/refresh", "", `{"refreshToken":"`+session.Auth.RefreshToken+`"}`)
		require.Equal(t, nethttp.StatusOK, status)
		var refreshed sessionData
		decodeData(t, env, &refreshed)
		assert.NotEmpty(t, refreshed.Auth.AccessToken)
		assert.Empty(t, refreshed.Auth.RefreshToken)
	})

	t.Run("access credential is not a refresh credential", func(t *testing.T) {
		status, env := s.do(t, nethttp.MethodPost, "/api/auth/refresh", "", `{"refreshToken":"`+session.Auth.AccessToken+`"}`)
		assert.Equal(t, nethttp.StatusUnauthorized, status)
		assert.Equal(t, apperrors.CodeInvalidRefreshToken, env.Error.Code)
	})

	t.Run("missing refresh token fails validation", func(t *testing.T) {
		status, env := s.do(t, nethttp.MethodPost, "/api/auth/refresh", "", `{}`)
		assert.Equal(t, nethttp.StatusBadRequest, status)
		assert.Equal(t, apperrors.CodeValidationFailed, env.Error.Code)
		assert.Equal(t, "required", env.Error.Details["refreshToken"])
	})

	t.Run("cross-check accepts a credential the provider vouches for", func(t *testing.T) {
		s.provider.register(session.Auth.AccessToken, "student-1", "admin")

		status, env := s.do(t, nethttp.MethodGet, "/api/auth/verify", session.Auth.AccessToken, "")
		require.Equal(t, nethttp.StatusOK, status)
		var data sessionData
		decodeData(t, env, &data)
		assert.Equal(t, "student-1", data.User["id"])
		// Role comes from the local credential, not the provider claims.
		assert.Equal(t, "student", data.User["role"])
	})

	t.Run("cross-check rejects a different principal", func(t *testing.T) {
		s.provider.register(session.Auth.AccessToken, "someone-else", "student")

		status, env := s.do(t, nethttp.MethodGet, "/api/auth/verify", session.Auth.AccessToken, "")
		assert.Equal(t, nethttp.StatusUnauthorized, status)
		assert.Equal(t, apperrors.CodeTokenMismatch, env.Error.Code)
	})

	t.Run("cross-check rejects a refresh credential", func(t *testing.T) {
		status, env := s.do(t, nethttp.MethodGet, "/api/auth/verify", session.Auth.RefreshToken, "")
		assert.Equal(t, nethttp.StatusUnauthorized, status)
		assert.Equal(t, apperrors.CodeInvalidToken, env.Error.Code)
	})
}

func TestCourseVisibility(t *testing.T) {
	s := newTestServer(t)

	list := func(token string) []string {
		status, env := s.do(t, nethttp.MethodGet, "/api/courses", token, "")
		require.Equal(t, nethttp.StatusOK, status)
		var data struct {
			Courses []struct {
				ID string `json:"id"`
			} `json:"courses"`
		}
		decodeData(t, env, &data)
		ids := make([]string, 0, len(data.Courses))
		for _, c := range data.Courses {
			ids = append(ids, c.ID)
		}
		return ids
	}

	assert.Equal(t, []string{publishedCourseID}, list(""))
	assert.Equal(t, []string{publishedCourseID}, list("forged"), "unusable credential proceeds as anonymous")
	assert.Equal(t, []string{publishedCourseID}, list("student-token"))
	assert.Equal(t, []string{publishedCourseID, draftCourseID}, list("teacher-token"))
	assert.Equal(t, []string{publishedCourseID, draftCourseID}, list("admin-token"))

	status, env := s.do(t, nethttp.MethodGet, "/api/courses/"+draftCourseID, "", "")
	assert.Equal(t, nethttp.StatusNotFound, status)
	assert.Equal(t, apperrors.CodeNotFound, env.Error.Code)
}

func TestCourseAuthoringRoles(t *testing.T) {
	s := newTestServer(t)
	body := `{"title":"Chemistry","unitCount":4,"published":true}`

	status, env := s.do(t, nethttp.MethodPost, "/api/courses", "student-token", body)
	assert.Equal(t, nethttp.StatusForbidden, status)
	assert.Equal(t, apperrors.CodeInsufficientPermissions, env.Error.Code)

	status, env = s.do(t, nethttp.MethodPost, "/api/courses", "teacher-token", `{"unitCount":0}`)
	assert.Equal(t, nethttp.StatusBadRequest, status)
	assert.Equal(t, apperrors.CodeValidationFailed, env.Error.Code)

	status, env = s.do(t, nethttp.MethodPost, "/api/courses", "teacher-token", body)
	require.Equal(t, nethttp.StatusCreated, status)
	var created struct {
		Course struct {
			ID        string `json:"id"`
			TeacherID string `json:"teacherId"`
			Level     string `json:"level"`
		} `json:"course"`
	}
	decodeData(t, env, &created)
	assert.Equal(t, "teacher-1", created.Course.TeacherID)
	assert.Equal(t, "beginner", created.Course.Level)

	status, env = s.do(t, nethttp.MethodDelete, "/api/courses/"+created.Course.ID, "teacher-token", "")
	assert.Equal(t, nethttp.StatusForbidden, status)
	assert.Equal(t, apperrors.CodeInsufficientPermissions, env.Error.Code)

	status, _ = s.do(t, nethttp.MethodDelete, "/api/courses/"+created.Course.ID, "admin-token", "")
	assert.Equal(t, nethttp.StatusOK, status)
}

func TestProgressAwardsXPOnce(t *testing.T) {
	s := newTestServer(t)
	path := "/api/courses/" + publishedCourseID + "/progress"

	status, env := s.do(t, nethttp.MethodPost, path, "teacher-token", `{"unit":1}`)
	assert.Equal(t, nethttp.StatusForbidden, status)
	assert.Equal(t, apperrors.CodeInsufficientPermissions, env.Error.Code)

	for i := 0; i < 2; i++ {
		status, env = s.do(t, nethttp.MethodPost, path, "student-token", `{"unit":1,"quizScore":80}`)
		require.Equal(t, nethttp.StatusOK, status)
	}
	var progress struct {
		Progress struct {
			CompletedUnits []int `json:"completedUnits"`
			Percent        int   `json:"percent"`
			NewlyCompleted bool  `json:"newlyCompleted"`
		} `json:"progress"`
	}
	decodeData(t, env, &progress)
	assert.Equal(t, []int{1}, progress.Progress.CompletedUnits)
	assert.Equal(t, 50, progress.Progress.Percent)
	assert.False(t, progress.Progress.NewlyCompleted)

	status, env = s.do(t, nethttp.MethodGet, "/api/leaderboard", "student-token", "")
	require.Equal(t, nethttp.StatusOK, status)
	var board struct {
		Entries []struct {
			UserID string `json:"userId"`
			XP     int64  `json:"xp"`
		} `json:"entries"`
		Me *struct {
			XP   int64 `json:"xp"`
			Rank int64 `json:"rank"`
		} `json:"me"`
	}
	decodeData(t, env, &board)
	require.NotNil(t, board.Me)
	assert.Equal(t, int64(58), board.Me.XP)
	assert.Equal(t, int64(1), board.Me.Rank)

	status, env = s.do(t, nethttp.MethodGet, "/api/leaderboard", "", "")
	require.Equal(t, nethttp.StatusOK, status)
	board.Me = nil
	decodeData(t, env, &board)
	assert.Nil(t, board.Me)
	require.Len(t, board.Entries, 1)
	assert.Equal(t, "student-1", board.Entries[0].UserID)
}

func TestPublicRoutes(t *testing.T) {
	s := newTestServer(t)

	status, env := s.do(t, nethttp.MethodGet, "/api/quotes/random", "", "")
	require.Equal(t, nethttp.StatusOK, status)
	var quote struct {
		Quote struct {
			Author string `json:"author"`
		} `json:"quote"`
	}
	decodeData(t, env, &quote)
	assert.Equal(t, "Nelson Mandela", quote.Quote.Author)

	status, _ = s.do(t, nethttp.MethodGet, "/health/live", "", "")
	assert.Equal(t, nethttp.StatusOK, status)

	status, env = s.do(t, nethttp.MethodGet, "/health/ready", "", "")
	assert.Equal(t, nethttp.StatusServiceUnavailable, status)
	assert.Equal(t, "DEPENDENCY_UNAVAILABLE", env.Error.Code)

	status, env = s.do(t, nethttp.MethodGet, "/api/nope", "", "")
	assert.Equal(t, nethttp.StatusNotFound, status)
	assert.Equal(t, apperrors.CodeNotFound, env.Error.Code)
}

func TestMetricsEndpointExposesCounters(t *testing.T) {
	s := newTestServer(t)
	s.do(t, nethttp.MethodGet, "/api/users/me", "", "")

	resp, err := s.app.Test(httptest.NewRequest(nethttp.MethodGet, "/metrics", nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, nethttp.StatusOK, resp.StatusCode)
	assert.Contains(t, string(raw), "darsni_http_requests_total")
	assert.Contains(t, string(raw), `darsni_auth_outcomes_total{guard="provider",outcome="TOKEN_REQUIRED"} 1`)
}
