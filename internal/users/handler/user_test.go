package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"rentacar/internal/auth"
	"rentacar/pkg/config"
	apperrors "rentacar/pkg/errors"
	"rentacar/pkg/logger"
	"rentacar/pkg/model"
	"strings"
	"testing"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Mock service for testing
type mockUserService struct {
	authenticateFunc func(ctx context.Context, input *model.Login) (*model.User, error)
	getByIDFunc      func(ctx context.Context, id string) (*model.User, error)
	listFunc         func(ctx context.Context, page, limit int) ([]*model.User, int64, error)
	changeRoleFunc   func(ctx context.Context, actorID string, input *model.RoleChange) (*model.User, error)
	roleFunc         func(ctx context.Context, id string) (string, error)
}

func (m *mockUserService) Signup(ctx context.Context, input *model.Signup) (*model.User, error) {
	return &model.User{ID: "new", Email: input.Email}, nil
}

func (m *mockUserService) Authenticate(ctx context.Context, input *model.Login) (*model.User, error) {
	if m.authenticateFunc != nil {
		return m.authenticateFunc(ctx, input)
	}
	return nil, apperrors.Unauthorized("Invalid email or password")
}

func (m *mockUserService) GetByID(ctx context.Context, id string) (*model.User, error) {
	if m.getByIDFunc != nil {
		return m.getByIDFunc(ctx, id)
	}
	return &model.User{ID: id, Email: "ahmed@example.com", Role: "user"}, nil
}

func (m *mockUserService) Update(ctx context.Context, selfID, pathID string, input *model.UserUpdate) (*model.User, error) {
	return &model.User{ID: selfID}, nil
}

func (m *mockUserService) Delete(ctx context.Context, selfID, pathID string) error {
	return nil
}

func (m *mockUserService) ChangePassword(ctx context.Context, selfID string, input *model.PasswordChange) error {
	return nil
}

func (m *mockUserService) List(ctx context.Context, page, limit int) ([]*model.User, int64, error) {
	if m.listFunc != nil {
		return m.listFunc(ctx, page, limit)
	}
	return []*model.User{}, 0, nil
}

func (m *mockUserService) ChangeRole(ctx context.Context, actorID string, input *model.RoleChange) (*model.User, error) {
	if m.changeRoleFunc != nil {
		return m.changeRoleFunc(ctx, actorID, input)
	}
	return &model.User{ID: input.UserID, Role: input.Role}, nil
}

func (m *mockUserService) AdminDelete(ctx context.Context, actorID, pathID string, input *model.UserDelete) error {
	return nil
}

func (m *mockUserService) AdminCreate(ctx context.Context, input *model.AdminUserCreate) (*model.User, error) {
	return &model.User{ID: "new", Role: input.Role}, nil
}

func (m *mockUserService) Role(ctx context.Context, id string) (string, error) {
	if m.roleFunc != nil {
		return m.roleFunc(ctx, id)
	}
	return "user", nil
}

type testServer struct {
	router  *httprouter.Router
	manager *auth.Manager
}

func newTestServer(t *testing.T, svc *mockUserService) *testServer {
	t.Helper()
	cfg := &config.Config{
		Log:           logger.Discard(),
		SessionTTL:    2 * time.Hour,
		RememberMeTTL: 7 * 24 * time.Hour,
	}
	manager, err := auth.NewManager("jwt-secret-0123456789", "cookie-secret-0123456789", false)
	require.NoError(t, err)

	guard := auth.NewGuard(manager, svc, cfg.Log)
	router := httprouter.New()
	noLimit := func(h httprouter.Handle) httprouter.Handle { return h }
	RegisterRoutes(router, NewUserHandler(svc, manager, cfg), NewAdminHandler(svc, cfg.Log), guard, noLimit)

	return &testServer{router: router, manager: manager}
}

// do sends a request as userID (anonymous when empty) with a valid CSRF pair.
func (s *testServer) do(t *testing.T, method, path, body, userID string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		rec := httptest.NewRecorder()
		require.NoError(t, s.manager.Start(rec, userID, time.Hour))
		for _, c := range rec.Result().Cookies() {
			req.AddCookie(c)
			if c.Name == auth.CSRFCookieName {
				req.Header.Set(auth.CSRFHeader, c.Value)
			}
		}
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func cookieNamed(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func TestLogin(t *testing.T) {
	svc := &mockUserService{
		authenticateFunc: func(ctx context.Context, input *model.Login) (*model.User, error) {
			if input.Password != "Secret1!" {
				return nil, apperrors.Unauthorized("Invalid email or password")
			}
			return &model.User{ID: "u1", Email: input.Email, Password: "hash", Role: "admin"}, nil
		},
	}
	srv := newTestServer(t, svc)

	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantMaxAge int
	}{
		{"session login", `{"email":"a@b.co","password":"Secret1!"}`, http.StatusOK, int((2 * time.Hour).Seconds())},
		{"remember me", `{"email":"a@b.co","password":"Secret1!","remember_me":true}`, http.StatusOK, int((7 * 24 * time.Hour).Seconds())},
		{"wrong password", `{"email":"a@b.co","password":"nope"}`, http.StatusUnauthorized, 0},
		{"malformed body", `{"email":`, http.StatusBadRequest, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := srv.do(t, http.MethodPost, "/user/login", tt.body, "")
			assert.Equal(t, tt.wantStatus, rec.Code)

			session := cookieNamed(rec, auth.SessionCookieName)
			if tt.wantStatus != http.StatusOK {
				assert.Nil(t, session)
				return
			}

			require.NotNil(t, session)
			assert.Equal(t, tt.wantMaxAge, session.MaxAge)
			require.NotNil(t, cookieNamed(rec, auth.CSRFCookieName))

			body := decode(t, rec)
			assert.Equal(t, "Login successful", body["message"])
			user := body["user"].(map[string]any)
			assert.Equal(t, "u1", user["id"])
			assert.NotContains(t, user, "password")
			assert.NotContains(t, user, "role")
		})
	}
}

func TestMe_RequiresSession(t *testing.T) {
	srv := newTestServer(t, &mockUserService{})

	rec := srv.do(t, http.MethodGet, "/", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "No active session", decode(t, rec)["error"])

	rec = srv.do(t, http.MethodGet, "/", "", "u1")
	assert.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "Authenticated", body["message"])
	assert.Equal(t, "u1", body["user"].(map[string]any)["id"])
}

func TestLogout_ClearsCookies(t *testing.T) {
	srv := newTestServer(t, &mockUserService{})

	rec := srv.do(t, http.MethodPost, "/user/logout", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Logged out successfully", decode(t, rec)["message"])

	for _, name := range []string{auth.SessionCookieName, auth.CSRFCookieName} {
		c := cookieNamed(rec, name)
		require.NotNil(t, c, name)
		assert.Negative(t, c.MaxAge)
	}
}

func TestUpdate_RequiresCSRF(t *testing.T) {
	srv := newTestServer(t, &mockUserService{})

	req := httptest.NewRequest(http.MethodPut, "/user/u1", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	srv.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "CSRF token missing", decode(t, rec)["error"])

	rec = srv.do(t, http.MethodPut, "/user/u1", `{"id":"u1","email":"a@b.co"}`, "u1")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "User updated successfully", decode(t, rec)["message"])
}

func TestAdminRoutes_RequireAdmin(t *testing.T) {
	svc := &mockUserService{
		roleFunc: func(ctx context.Context, id string) (string, error) {
			if id == "admin1" {
				return "admin", nil
			}
			return "user", nil
		},
	}
	srv := newTestServer(t, svc)

	routes := []struct {
		method string
		path   string
		body   string
	}{
		{http.MethodGet, "/admin/users", ""},
		{http.MethodPost, "/admin/users/add", `{}`},
		{http.MethodPut, "/admin/users/role", `{"userId":"65f1c0ffee0000000000bbbb","role":"admin"}`},
		{http.MethodDelete, "/admin/users/u2", `{"id":"u2"}`},
	}

	for _, rt := range routes {
		t.Run(rt.method+" "+rt.path, func(t *testing.T) {
			rec := srv.do(t, rt.method, rt.path, rt.body, "u1")
			assert.Equal(t, http.StatusForbidden, rec.Code)
			assert.Equal(t, "Forbidden", decode(t, rec)["error"])
		})
	}

	rec := srv.do(t, http.MethodPut, "/admin/users/role", `{"userId":"65f1c0ffee0000000000bbbb","role":"admin"}`, "admin1")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "User role updated successfully", decode(t, rec)["message"])
}

func TestListUsers(t *testing.T) {
	svc := &mockUserService{
		roleFunc: func(context.Context, string) (string, error) { return "admin", nil },
		listFunc: func(ctx context.Context, page, limit int) ([]*model.User, int64, error) {
			return []*model.User{{ID: "u1", Email: "a@b.co", Password: "hash", Role: "banned"}}, 11, nil
		},
	}
	srv := newTestServer(t, svc)

	rec := srv.do(t, http.MethodGet, "/admin/users?page=2&limit=10", "", "admin1")
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode(t, rec)
	assert.EqualValues(t, 2, body["page"])
	assert.EqualValues(t, 10, body["limit"])
	assert.EqualValues(t, 11, body["totalUsers"])
	assert.EqualValues(t, 2, body["totalPages"])
	users := body["users"].([]any)
	require.Len(t, users, 1)
	first := users[0].(map[string]any)
	assert.Equal(t, "banned", first["role"])
	assert.NotContains(t, first, "password")

	rec = srv.do(t, http.MethodGet, "/admin/users?page=3&limit=10", "", "admin1")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Page not found", decode(t, rec)["error"])
}

func TestListUsers_HugePage(t *testing.T) {
	var skip int64 = -1
	svc := &mockUserService{
		roleFunc: func(context.Context, string) (string, error) { return "admin", nil },
		listFunc: func(ctx context.Context, page, limit int) ([]*model.User, int64, error) {
			skip = config.Skip(page, limit)
			return []*model.User{}, 5, nil
		},
	}
	srv := newTestServer(t, svc)

	rec := srv.do(t, http.MethodGet, "/admin/users?page=9223372036854775807&limit=100", "", "admin1")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Page not found", decode(t, rec)["error"])
	assert.GreaterOrEqual(t, skip, int64(0))
}
