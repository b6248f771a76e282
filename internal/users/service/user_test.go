package service

import (
	"context"
	"errors"
	"net/http"
	"rentacar/internal/auth"
	userserrors "rentacar/internal/users/errors"
	"rentacar/internal/users/validator"
	"rentacar/pkg/config"
	apperrors "rentacar/pkg/errors"
	"rentacar/pkg/events"
	"rentacar/pkg/logger"
	"rentacar/pkg/model"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ────────────────────────────────────────────────
// Mocks
// ────────────────────────────────────────────────

type mockUserRepository struct {
	createFunc      func(ctx context.Context, user *model.User) error
	findByIDFunc    func(ctx context.Context, id string) (*model.User, error)
	findByEmailFunc func(ctx context.Context, email string) (*model.User, error)
	findAllFunc     func(ctx context.Context, limit int, skip int64) ([]*model.User, error)
	countFunc       func(ctx context.Context) (int64, error)
	updateFunc      func(ctx context.Context, id string, user *model.User) error
	updateRoleFunc  func(ctx context.Context, id string, role string) (*model.User, error)
	deleteFunc      func(ctx context.Context, id string) error
}

func (m *mockUserRepository) Create(ctx context.Context, user *model.User) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, user)
	}
	user.ID = "65f1c0ffee0000000000aaaa"
	return nil
}

func (m *mockUserRepository) FindByID(ctx context.Context, id string) (*model.User, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id)
	}
	return nil, userserrors.ErrNotFound
}

func (m *mockUserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	if m.findByEmailFunc != nil {
		return m.findByEmailFunc(ctx, email)
	}
	return nil, userserrors.ErrNotFound
}

func (m *mockUserRepository) FindAll(ctx context.Context, limit int, skip int64) ([]*model.User, error) {
	if m.findAllFunc != nil {
		return m.findAllFunc(ctx, limit, skip)
	}
	return []*model.User{}, nil
}

func (m *mockUserRepository) Count(ctx context.Context) (int64, error) {
	if m.countFunc != nil {
		return m.countFunc(ctx)
	}
	return 0, nil
}

func (m *mockUserRepository) Update(ctx context.Context, id string, user *model.User) error {
	if m.updateFunc != nil {
		return m.updateFunc(ctx, id, user)
	}
	return nil
}

func (m *mockUserRepository) UpdateRole(ctx context.Context, id string, role string) (*model.User, error) {
	if m.updateRoleFunc != nil {
		return m.updateRoleFunc(ctx, id, role)
	}
	return &model.User{ID: id, Role: role}, nil
}

func (m *mockUserRepository) Delete(ctx context.Context, id string) error {
	if m.deleteFunc != nil {
		return m.deleteFunc(ctx, id)
	}
	return nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, event events.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	var types []string
	for _, e := range p.events {
		types = append(types, e.Type)
	}
	return types
}

func newTestService(repo *mockUserRepository) (UserService, *recordingPublisher) {
	log := logger.Discard()
	pub := &recordingPublisher{}
	return NewUserService(repo, validator.NewUserValidator(log), pub, &config.Config{Log: log}), pub
}

func validSignup() *model.Signup {
	return &model.Signup{
		FirstName:       "  Ahmed ",
		LastName:        "Hassan",
		Email:           " Ahmed@Example.COM ",
		Password:        "Secret1!",
		ConfirmPassword: "Secret1!",
		Phone:           "+201012345678",
	}
}

func assertAppError(t *testing.T, err error, status int, message string) {
	t.Helper()
	require.Error(t, err)
	appErr := apperrors.AsAppError(err)
	assert.Equal(t, status, appErr.StatusCode())
	if message != "" {
		assert.Equal(t, message, appErr.Message)
	}
}

func strPtr(s string) *string { return &s }

// ────────────────────────────────────────────────
// Signup / Authenticate
// ────────────────────────────────────────────────

func TestSignup_Success(t *testing.T) {
	var stored *model.User
	repo := &mockUserRepository{
		createFunc: func(ctx context.Context, user *model.User) error {
			user.ID = "65f1c0ffee0000000000aaaa"
			stored = user
			return nil
		},
	}
	svc, pub := newTestService(repo)

	user, err := svc.Signup(context.Background(), validSignup())
	require.NoError(t, err)

	assert.Equal(t, "65f1c0ffee0000000000aaaa", user.ID)
	assert.Equal(t, "ahmed@example.com", stored.Email)
	assert.Equal(t, "Ahmed", stored.FirstName)
	assert.Equal(t, "01012345678", stored.Phone)
	assert.Equal(t, config.RoleUser, stored.Role)
	assert.NotEqual(t, "Secret1!", stored.Password)
	assert.True(t, auth.ComparePassword(stored.Password, "Secret1!"))
	assert.Equal(t, []string{events.UserRegistered}, pub.types())
}

func TestSignup_Rejections(t *testing.T) {
	tests := []struct {
		name       string
		mutate     func(*model.Signup)
		repo       *mockUserRepository
		wantStatus int
		wantMsg    string
	}{
		{
			name:       "passwords differ",
			mutate:     func(s *model.Signup) { s.ConfirmPassword = "Secret2!" },
			repo:       &mockUserRepository{},
			wantStatus: http.StatusBadRequest,
			wantMsg:    "Passwords do not match",
		},
		{
			name:       "weak password",
			mutate:     func(s *model.Signup) { s.Password, s.ConfirmPassword = "password1", "password1" },
			repo:       &mockUserRepository{},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "bad phone",
			mutate:     func(s *model.Signup) { s.Phone = "0123" },
			repo:       &mockUserRepository{},
			wantStatus: http.StatusBadRequest,
			wantMsg:    "Invalid phone number",
		},
		{
			name:   "email taken",
			mutate: func(*model.Signup) {},
			repo: &mockUserRepository{
				findByEmailFunc: func(ctx context.Context, email string) (*model.User, error) {
					return &model.User{ID: "other", Email: email}, nil
				},
			},
			wantStatus: http.StatusConflict,
			wantMsg:    "Email already in use",
		},
		{
			name:   "unique index race",
			mutate: func(*model.Signup) {},
			repo: &mockUserRepository{
				createFunc: func(context.Context, *model.User) error { return userserrors.ErrDuplicateEmail },
			},
			wantStatus: http.StatusConflict,
			wantMsg:    "Email already in use",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, pub := newTestService(tt.repo)
			input := validSignup()
			tt.mutate(input)

			_, err := svc.Signup(context.Background(), input)
			assertAppError(t, err, tt.wantStatus, tt.wantMsg)
			assert.Empty(t, pub.types())
		})
	}
}

func TestAuthenticate(t *testing.T) {
	hash, err := auth.HashPassword("Secret1!")
	require.NoError(t, err)

	repo := &mockUserRepository{
		findByEmailFunc: func(ctx context.Context, email string) (*model.User, error) {
			if email == "ahmed@example.com" {
				return &model.User{ID: "u1", Email: email, Password: hash}, nil
			}
			return nil, userserrors.ErrNotFound
		},
	}
	svc, _ := newTestService(repo)

	user, err := svc.Authenticate(context.Background(), &model.Login{Email: "AHMED@example.com", Password: "Secret1!"})
	require.NoError(t, err)
	assert.Equal(t, "u1", user.ID)

	_, err = svc.Authenticate(context.Background(), &model.Login{Email: "ahmed@example.com", Password: "Wrong1!x"})
	assertAppError(t, err, http.StatusUnauthorized, "Invalid email or password")

	_, err = svc.Authenticate(context.Background(), &model.Login{Email: "nobody@example.com", Password: "Secret1!"})
	assertAppError(t, err, http.StatusUnauthorized, "Invalid email or password")

	_, err = svc.Authenticate(context.Background(), &model.Login{Email: "not-an-email", Password: "x"})
	assertAppError(t, err, http.StatusBadRequest, "Invalid email format")
}

// ────────────────────────────────────────────────
// Self service
// ────────────────────────────────────────────────

func existingUser() *model.User {
	return &model.User{
		ID:        "u1",
		FirstName: "Ahmed",
		LastName:  "Hassan",
		Email:     "ahmed@example.com",
		Password:  "old-hash",
		Phone:     "01012345678",
		Role:      config.RoleUser,
	}
}

func TestUpdate(t *testing.T) {
	t.Run("updates own profile", func(t *testing.T) {
		var saved *model.User
		repo := &mockUserRepository{
			findByIDFunc: func(context.Context, string) (*model.User, error) { return existingUser(), nil },
			updateFunc: func(ctx context.Context, id string, user *model.User) error {
				saved = user
				return nil
			},
		}
		svc, pub := newTestService(repo)

		user, err := svc.Update(context.Background(), "u1", "u1", &model.UserUpdate{
			ID:              "u1",
			Email:           "ahmed@example.com",
			FirstName:       strPtr("Mahmoud"),
			Password:        strPtr("Newpass1!"),
			ConfirmPassword: strPtr("Newpass1!"),
		})
		require.NoError(t, err)
		assert.Equal(t, "Mahmoud", user.FirstName)
		assert.Equal(t, "Hassan", saved.LastName)
		assert.True(t, auth.ComparePassword(saved.Password, "Newpass1!"))
		assert.Equal(t, []string{events.UserUpdated}, pub.types())
	})

	tests := []struct {
		name       string
		pathID     string
		input      *model.UserUpdate
		repo       *mockUserRepository
		wantStatus int
		wantMsg    string
	}{
		{
			name:       "path id of another user",
			pathID:     "u2",
			input:      &model.UserUpdate{ID: "u1", Email: "ahmed@example.com"},
			wantStatus: http.StatusForbidden,
			wantMsg:    "Forbidden",
		},
		{
			name:       "body id of another user",
			pathID:     "u1",
			input:      &model.UserUpdate{ID: "u2", Email: "ahmed@example.com"},
			wantStatus: http.StatusForbidden,
			wantMsg:    "Forbidden",
		},
		{
			name:       "email missing",
			pathID:     "u1",
			input:      &model.UserUpdate{ID: "u1"},
			wantStatus: http.StatusBadRequest,
			wantMsg:    "email is required",
		},
		{
			name:       "password without confirmation",
			pathID:     "u1",
			input:      &model.UserUpdate{ID: "u1", Email: "ahmed@example.com", Password: strPtr("Newpass1!")},
			wantStatus: http.StatusBadRequest,
			wantMsg:    "confirm_password is required",
		},
		{
			name:   "passwords differ",
			pathID: "u1",
			input: &model.UserUpdate{
				ID: "u1", Email: "ahmed@example.com",
				Password: strPtr("Newpass1!"), ConfirmPassword: strPtr("Newpass2!"),
			},
			wantStatus: http.StatusBadRequest,
			wantMsg:    "Passwords do not match",
		},
		{
			name:   "email owned by someone else",
			pathID: "u1",
			input:  &model.UserUpdate{ID: "u1", Email: "taken@example.com"},
			repo: &mockUserRepository{
				findByIDFunc: func(context.Context, string) (*model.User, error) { return existingUser(), nil },
				findByEmailFunc: func(ctx context.Context, email string) (*model.User, error) {
					return &model.User{ID: "u9", Email: email}, nil
				},
			},
			wantStatus: http.StatusConflict,
			wantMsg:    "Email already in use",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := tt.repo
			if repo == nil {
				repo = &mockUserRepository{
					findByIDFunc: func(context.Context, string) (*model.User, error) { return existingUser(), nil },
				}
			}
			svc, pub := newTestService(repo)

			_, err := svc.Update(context.Background(), "u1", tt.pathID, tt.input)
			assertAppError(t, err, tt.wantStatus, tt.wantMsg)
			assert.Empty(t, pub.types())
		})
	}
}

func TestDelete_OnlySelf(t *testing.T) {
	var deleted []string
	repo := &mockUserRepository{
		deleteFunc: func(ctx context.Context, id string) error {
			deleted = append(deleted, id)
			return nil
		},
	}
	svc, pub := newTestService(repo)

	err := svc.Delete(context.Background(), "u1", "u2")
	assertAppError(t, err, http.StatusForbidden, "Forbidden")

	require.NoError(t, svc.Delete(context.Background(), "u1", "u1"))
	assert.Equal(t, []string{"u1"}, deleted)
	assert.Equal(t, []string{events.UserDeleted}, pub.types())
}

func TestChangePassword(t *testing.T) {
	hash, err := auth.HashPassword("Secret1!")
	require.NoError(t, err)

	var saved string
	repo := &mockUserRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.User, error) {
			u := existingUser()
			u.Password = hash
			return u, nil
		},
		updateFunc: func(ctx context.Context, id string, user *model.User) error {
			saved = user.Password
			return nil
		},
	}
	svc, _ := newTestService(repo)

	err = svc.ChangePassword(context.Background(), "u1", &model.PasswordChange{
		CurrentPassword: "Wrong1!x", NewPassword: "Newpass1!", ConfirmPassword: "Newpass1!",
	})
	assertAppError(t, err, http.StatusBadRequest, "Current password is incorrect")

	err = svc.ChangePassword(context.Background(), "u1", &model.PasswordChange{
		CurrentPassword: "Secret1!", NewPassword: "Newpass1!", ConfirmPassword: "Newpass1!",
	})
	require.NoError(t, err)
	assert.True(t, auth.ComparePassword(saved, "Newpass1!"))
}

// ────────────────────────────────────────────────
// Admin
// ────────────────────────────────────────────────

func TestChangeRole(t *testing.T) {
	const target = "65f1c0ffee0000000000bbbb"
	svc, pub := newTestService(&mockUserRepository{})

	_, err := svc.ChangeRole(context.Background(), target, &model.RoleChange{UserID: target, Role: "user"})
	assertAppError(t, err, http.StatusBadRequest, "Cannot change own role")

	_, err = svc.ChangeRole(context.Background(), "admin1", &model.RoleChange{UserID: target, Role: "owner"})
	assertAppError(t, err, http.StatusBadRequest, "")

	user, err := svc.ChangeRole(context.Background(), "admin1", &model.RoleChange{UserID: target, Role: "banned"})
	require.NoError(t, err)
	assert.Equal(t, "banned", user.Role)
	assert.Equal(t, []string{events.UserRoleChanged}, pub.types())
}

func TestChangeRole_UnknownUser(t *testing.T) {
	svc, _ := newTestService(&mockUserRepository{
		updateRoleFunc: func(context.Context, string, string) (*model.User, error) {
			return nil, userserrors.ErrNotFound
		},
	})

	_, err := svc.ChangeRole(context.Background(), "admin1", &model.RoleChange{UserID: "65f1c0ffee0000000000bbbb", Role: "admin"})
	assertAppError(t, err, http.StatusNotFound, "User not found")
}

func TestAdminDelete(t *testing.T) {
	svc, _ := newTestService(&mockUserRepository{})

	err := svc.AdminDelete(context.Background(), "admin1", "admin1", &model.UserDelete{ID: "admin1"})
	assertAppError(t, err, http.StatusBadRequest, "Cannot delete own account")

	err = svc.AdminDelete(context.Background(), "admin1", "u2", &model.UserDelete{ID: "u3"})
	assertAppError(t, err, http.StatusBadRequest, "User ID mismatch")

	assert.NoError(t, svc.AdminDelete(context.Background(), "admin1", "u2", &model.UserDelete{ID: "u2"}))
}

func TestAdminCreate_DefaultsRole(t *testing.T) {
	var stored *model.User
	svc, _ := newTestService(&mockUserRepository{
		createFunc: func(ctx context.Context, user *model.User) error {
			stored = user
			return nil
		},
	})

	_, err := svc.AdminCreate(context.Background(), &model.AdminUserCreate{Signup: *validSignup()})
	require.NoError(t, err)
	assert.Equal(t, config.RoleUser, stored.Role)

	_, err = svc.AdminCreate(context.Background(), &model.AdminUserCreate{Signup: *validSignup(), Role: "admin"})
	require.NoError(t, err)
	assert.Equal(t, config.RoleAdmin, stored.Role)
}

func TestList_PaginationAndErrors(t *testing.T) {
	var gotLimit int
	var gotSkip int64
	svc, _ := newTestService(&mockUserRepository{
		countFunc: func(context.Context) (int64, error) { return 25, nil },
		findAllFunc: func(ctx context.Context, limit int, skip int64) ([]*model.User, error) {
			gotLimit, gotSkip = limit, skip
			return []*model.User{existingUser()}, nil
		},
	})

	users, total, err := svc.List(context.Background(), 3, 10)
	require.NoError(t, err)
	assert.Len(t, users, 1)
	assert.Equal(t, int64(25), total)
	assert.Equal(t, 10, gotLimit)
	assert.Equal(t, int64(20), gotSkip)

	failing, _ := newTestService(&mockUserRepository{
		countFunc: func(context.Context) (int64, error) { return 0, errors.New("connection reset") },
	})
	_, _, err = failing.List(context.Background(), 1, 10)
	assertAppError(t, err, http.StatusInternalServerError, "Failed to count users")
}

func TestRole(t *testing.T) {
	svc, _ := newTestService(&mockUserRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.User, error) {
			if id == "admin1" {
				return &model.User{ID: id, Role: config.RoleAdmin}, nil
			}
			return nil, userserrors.ErrNotFound
		},
	})

	role, err := svc.Role(context.Background(), "admin1")
	require.NoError(t, err)
	assert.Equal(t, config.RoleAdmin, role)

	_, err = svc.Role(context.Background(), "ghost")
	assertAppError(t, err, http.StatusNotFound, "User not found")
}
