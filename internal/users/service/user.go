package service

import (
	"context"
	"errors"
	"rentacar/internal/auth"
	userserrors "rentacar/internal/users/errors"
	"rentacar/internal/users/repository"
	"rentacar/internal/users/validator"
	"rentacar/pkg/config"
	apperrors "rentacar/pkg/errors"
	"rentacar/pkg/events"
	"rentacar/pkg/model"
	"rentacar/pkg/sanitizer"
	"rentacar/pkg/validation"
	"sync"
)

const invalidCredentials = "Invalid email or password"

type UserService interface {
	Signup(ctx context.Context, input *model.Signup) (*model.User, error)
	Authenticate(ctx context.Context, input *model.Login) (*model.User, error)
	GetByID(ctx context.Context, id string) (*model.User, error)
	Update(ctx context.Context, selfID, pathID string, input *model.UserUpdate) (*model.User, error)
	Delete(ctx context.Context, selfID, pathID string) error
	ChangePassword(ctx context.Context, selfID string, input *model.PasswordChange) error
	List(ctx context.Context, page, limit int) ([]*model.User, int64, error)
	ChangeRole(ctx context.Context, actorID string, input *model.RoleChange) (*model.User, error)
	AdminDelete(ctx context.Context, actorID, pathID string, input *model.UserDelete) error
	AdminCreate(ctx context.Context, input *model.AdminUserCreate) (*model.User, error)
	Role(ctx context.Context, id string) (string, error)
}

type userService struct {
	repo      repository.UserRepository
	validator *validator.UserValidator
	publisher events.Publisher
	cfg       *config.Config
}

func NewUserService(
	repo repository.UserRepository,
	validator *validator.UserValidator,
	publisher events.Publisher,
	cfg *config.Config,
) UserService {
	return &userService{
		repo:      repo,
		validator: validator,
		publisher: publisher,
		cfg:       cfg,
	}
}

func (s *userService) Signup(ctx context.Context, input *model.Signup) (*model.User, error) {
	s.sanitizeSignup(input)
	if err := s.validator.ValidateSignup(input); err != nil {
		s.cfg.Log.Warn("Signup validation failed", "email", input.Email, "error", err)
		return nil, validation.ToAppError(err)
	}

	user, err := s.create(ctx, input, config.RoleUser)
	if err != nil {
		return nil, err
	}

	s.publisher.Publish(ctx, events.Event{Type: events.UserRegistered, Key: user.ID, Payload: user.View()})
	s.cfg.Log.Info("User signed up", "id", user.ID)
	return user, nil
}

func (s *userService) AdminCreate(ctx context.Context, input *model.AdminUserCreate) (*model.User, error) {
	s.sanitizeSignup(&input.Signup)
	if err := s.validator.ValidateAdminCreate(input); err != nil {
		s.cfg.Log.Warn("Admin user creation validation failed", "email", input.Email, "error", err)
		return nil, validation.ToAppError(err)
	}

	role := input.Role
	if role == "" {
		role = config.RoleUser
	}
	user, err := s.create(ctx, &input.Signup, role)
	if err != nil {
		return nil, err
	}

	s.publisher.Publish(ctx, events.Event{Type: events.UserRegistered, Key: user.ID, Payload: user.AdminView()})
	s.cfg.Log.Info("User created by admin", "id", user.ID, "role", role)
	return user, nil
}

func (s *userService) create(ctx context.Context, input *model.Signup, role string) (*model.User, error) {
	if err := s.ensureEmailFree(ctx, input.Email, ""); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(input.Password)
	if err != nil {
		return nil, apperrors.Internal("Failed to hash password", err)
	}

	user := &model.User{
		FirstName: input.FirstName,
		LastName:  input.LastName,
		Email:     input.Email,
		Password:  hash,
		Phone:     input.Phone,
		Role:      role,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		if errors.Is(err, userserrors.ErrDuplicateEmail) {
			return nil, apperrors.Conflict("Email already in use")
		}
		s.cfg.Log.Error("Failed to create user", "email", input.Email, "error", err)
		return nil, apperrors.Internal("Failed to create user", err)
	}
	return user, nil
}

// Authenticate answers the same way for an unknown email and a wrong
// password.
func (s *userService) Authenticate(ctx context.Context, input *model.Login) (*model.User, error) {
	input.Email = sanitizer.NormalizeEmail(input.Email)
	if err := s.validator.ValidateLogin(input); err != nil {
		return nil, validation.ToAppError(err)
	}

	user, err := s.repo.FindByEmail(ctx, input.Email)
	if err != nil {
		if errors.Is(err, userserrors.ErrNotFound) {
			return nil, apperrors.Unauthorized(invalidCredentials)
		}
		return nil, apperrors.Internal("Failed to retrieve user", err)
	}

	if !auth.ComparePassword(user.Password, input.Password) {
		s.cfg.Log.Warn("Login failed", "id", user.ID)
		return nil, apperrors.Unauthorized(invalidCredentials)
	}
	return user, nil
}

func (s *userService) GetByID(ctx context.Context, id string) (*model.User, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("User ID cannot be empty")
	}

	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.translate(err, id, "Failed to retrieve user")
	}
	return user, nil
}

func (s *userService) Role(ctx context.Context, id string) (string, error) {
	user, err := s.GetByID(ctx, id)
	if err != nil {
		return "", err
	}
	return user.Role, nil
}

func (s *userService) Update(ctx context.Context, selfID, pathID string, input *model.UserUpdate) (*model.User, error) {
	s.sanitizeUpdate(input)
	if err := s.validator.ValidateUpdate(input); err != nil {
		s.cfg.Log.Warn("User update validation failed", "id", selfID, "error", err)
		return nil, validation.ToAppError(err)
	}
	if pathID != selfID || input.ID != selfID {
		s.cfg.Log.Warn("User update rejected", "session_id", selfID, "path_id", pathID, "body_id", input.ID)
		return nil, apperrors.Forbidden("Forbidden")
	}

	user, err := s.GetByID(ctx, selfID)
	if err != nil {
		return nil, err
	}
	if input.Email != user.Email {
		if err := s.ensureEmailFree(ctx, input.Email, user.ID); err != nil {
			return nil, err
		}
	}

	user.Email = input.Email
	if input.FirstName != nil {
		user.FirstName = *input.FirstName
	}
	if input.LastName != nil {
		user.LastName = *input.LastName
	}
	if input.Phone != nil {
		user.Phone = *input.Phone
	}
	if input.Password != nil {
		hash, err := auth.HashPassword(*input.Password)
		if err != nil {
			return nil, apperrors.Internal("Failed to hash password", err)
		}
		user.Password = hash
	}

	if err := s.repo.Update(ctx, selfID, user); err != nil {
		return nil, s.translate(err, selfID, "Failed to update user")
	}

	s.publisher.Publish(ctx, events.Event{Type: events.UserUpdated, Key: user.ID, Payload: user.View()})
	s.cfg.Log.Info("User updated", "id", user.ID)
	return user, nil
}

func (s *userService) Delete(ctx context.Context, selfID, pathID string) error {
	if pathID != selfID {
		s.cfg.Log.Warn("User delete rejected", "session_id", selfID, "path_id", pathID)
		return apperrors.Forbidden("Forbidden")
	}
	return s.delete(ctx, selfID)
}

func (s *userService) AdminDelete(ctx context.Context, actorID, pathID string, input *model.UserDelete) error {
	if input.ID == actorID {
		return apperrors.BadRequest("Cannot delete own account")
	}
	if input.ID != pathID {
		return apperrors.BadRequest("User ID mismatch")
	}
	return s.delete(ctx, pathID)
}

func (s *userService) delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return s.translate(err, id, "Failed to delete user")
	}

	s.publisher.Publish(ctx, events.Event{Type: events.UserDeleted, Key: id, Payload: map[string]string{"id": id}})
	s.cfg.Log.Info("User deleted", "id", id)
	return nil
}

func (s *userService) ChangePassword(ctx context.Context, selfID string, input *model.PasswordChange) error {
	if err := s.validator.ValidatePasswordChange(input); err != nil {
		return validation.ToAppError(err)
	}

	user, err := s.GetByID(ctx, selfID)
	if err != nil {
		return err
	}
	if !auth.ComparePassword(user.Password, input.CurrentPassword) {
		return apperrors.BadRequest("Current password is incorrect")
	}

	hash, err := auth.HashPassword(input.NewPassword)
	if err != nil {
		return apperrors.Internal("Failed to hash password", err)
	}
	user.Password = hash

	if err := s.repo.Update(ctx, selfID, user); err != nil {
		return s.translate(err, selfID, "Failed to update password")
	}

	s.cfg.Log.Info("Password changed", "id", selfID)
	return nil
}

func (s *userService) List(ctx context.Context, page, limit int) ([]*model.User, int64, error) {
	page = config.NormalizePage(page)
	limit = config.NormalizePaginationLimit(limit)

	var count int64
	var users []*model.User
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		count, errCount = s.repo.Count(ctx)
		if errCount != nil {
			s.cfg.Log.Error("Failed to count users", "error", errCount)
			errCount = apperrors.Internal("Failed to count users", errCount)
		}
	}()

	go func() {
		defer wg.Done()
		users, errFind = s.repo.FindAll(ctx, limit, config.Skip(page, limit))
		if errFind != nil {
			s.cfg.Log.Error("Failed to list users", "error", errFind)
			errFind = apperrors.Internal("Failed to retrieve users", errFind)
		}
	}()

	wg.Wait()
	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}

	return users, count, nil
}

func (s *userService) ChangeRole(ctx context.Context, actorID string, input *model.RoleChange) (*model.User, error) {
	if err := s.validator.ValidateRoleChange(input); err != nil {
		return nil, validation.ToAppError(err)
	}
	if input.UserID == actorID {
		return nil, apperrors.BadRequest("Cannot change own role")
	}

	user, err := s.repo.UpdateRole(ctx, input.UserID, input.Role)
	if err != nil {
		return nil, s.translate(err, input.UserID, "Failed to update user role")
	}

	s.publisher.Publish(ctx, events.Event{
		Type:    events.UserRoleChanged,
		Key:     user.ID,
		Payload: map[string]string{"id": user.ID, "role": user.Role, "changed_by": actorID},
	})
	s.cfg.Log.Info("User role changed", "id", user.ID, "role", user.Role, "actor_id", actorID)
	return user, nil
}

// --- Helpers ---

func (s *userService) ensureEmailFree(ctx context.Context, email, ownerID string) error {
	existing, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, userserrors.ErrNotFound) {
			return nil
		}
		return apperrors.Internal("Failed to check email", err)
	}
	if existing.ID != ownerID {
		return apperrors.Conflict("Email already in use")
	}
	return nil
}

func (s *userService) translate(err error, id, msg string) error {
	switch {
	case errors.Is(err, userserrors.ErrNotFound):
		return apperrors.NotFound("User")
	case errors.Is(err, userserrors.ErrInvalidID):
		return apperrors.InvalidInput("Invalid user ID format")
	case errors.Is(err, userserrors.ErrDuplicateEmail):
		return apperrors.Conflict("Email already in use")
	}
	s.cfg.Log.Error(msg, "id", id, "error", err)
	return apperrors.Internal(msg, err)
}

func (s *userService) sanitizeSignup(input *model.Signup) {
	input.FirstName = sanitizer.NormalizeName(input.FirstName)
	input.LastName = sanitizer.NormalizeName(input.LastName)
	input.Email = sanitizer.NormalizeEmail(input.Email)
	input.Phone = sanitizer.NormalizePhone(input.Phone)
}

func (s *userService) sanitizeUpdate(input *model.UserUpdate) {
	input.Email = sanitizer.NormalizeEmail(input.Email)
	if input.FirstName != nil {
		name := sanitizer.NormalizeName(*input.FirstName)
		input.FirstName = &name
	}
	if input.LastName != nil {
		name := sanitizer.NormalizeName(*input.LastName)
		input.LastName = &name
	}
	if input.Phone != nil {
		phone := sanitizer.NormalizePhone(*input.Phone)
		input.Phone = &phone
	}
}
