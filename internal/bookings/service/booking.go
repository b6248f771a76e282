package service

import (
	"context"
	"errors"
	"fmt"
	bookingserrors "rentacar/internal/bookings/errors"
	"rentacar/internal/bookings/repository"
	"rentacar/internal/bookings/validator"
	carserrors "rentacar/internal/cars/errors"
	userserrors "rentacar/internal/users/errors"
	"rentacar/pkg/config"
	apperrors "rentacar/pkg/errors"
	"rentacar/pkg/events"
	"rentacar/pkg/model"
	"rentacar/pkg/validation"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/mongo"
)

const lockTTL = 10 * time.Second

type UserReader interface {
	FindByID(ctx context.Context, id string) (*model.User, error)
}

type CarReader interface {
	FindByID(ctx context.Context, id string) (*model.Car, error)
}

type BookingService interface {
	Create(ctx context.Context, input *model.BookingInput) (*model.Booking, error)
	GetByID(ctx context.Context, requesterID, id string) (*model.BookingDetails, error)
	List(ctx context.Context, page, limit int) ([]*model.BookingDetails, int64, error)
	ListMine(ctx context.Context, userID string, page, limit int) ([]*model.BookingDetails, int64, error)
	Update(ctx context.Context, id string, updates *model.BookingUpdate) (*model.Booking, error)
}

type bookingService struct {
	repo      repository.BookingRepository
	lockRepo  repository.BookingLockRepository
	users     UserReader
	cars      CarReader
	validator *validator.BookingValidator
	publisher events.Publisher
	cfg       *config.Config
}

func NewBookingService(
	repo repository.BookingRepository,
	lockRepo repository.BookingLockRepository,
	users UserReader,
	cars CarReader,
	validator *validator.BookingValidator,
	publisher events.Publisher,
	cfg *config.Config,
) BookingService {
	return &bookingService{
		repo:      repo,
		lockRepo:  lockRepo,
		users:     users,
		cars:      cars,
		validator: validator,
		publisher: publisher,
		cfg:       cfg,
	}
}

func (s *bookingService) Create(ctx context.Context, input *model.BookingInput) (*model.Booking, error) {
	if input.Status == "" {
		input.Status = config.Pending
	}
	if err := s.validator.ValidateInput(input); err != nil {
		s.cfg.Log.Warn("Booking validation failed", "error", err)
		return nil, validation.ToAppError(err)
	}

	user, err := s.users.FindByID(ctx, input.UserID)
	if err != nil {
		return nil, s.translateUser(err, input.UserID)
	}
	if user.IsBanned() {
		return nil, apperrors.Forbidden("This user is not allowed to book")
	}

	car, err := s.bookableCar(ctx, input.CarID)
	if err != nil {
		return nil, err
	}

	booking := &model.Booking{
		UserID:    input.UserID,
		CarID:     input.CarID,
		StartDate: input.StartDate,
		EndDate:   input.EndDate,
		Status:    input.Status,
	}
	if input.TotalPrice != nil {
		booking.TotalPrice = *input.TotalPrice
	} else {
		booking.TotalPrice = model.TotalPrice(car.PricePerDay, booking.StartDate, booking.EndDate)
	}

	release, err := s.acquireCarLock(ctx, booking.CarID)
	if err != nil {
		return nil, err
	}
	defer release()

	err = s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		if err := s.verifyAvailability(sessCtx, booking, ""); err != nil {
			return err
		}
		if err := s.repo.Create(sessCtx, booking); err != nil {
			return apperrors.Internal("Failed to create booking", err)
		}
		return nil
	})
	if err != nil {
		s.cfg.Log.Error("Failed to create booking", "car_id", booking.CarID, "error", err)
		return nil, s.translate(err, "", "Failed to create booking")
	}

	s.publisher.Publish(ctx, events.Event{Type: events.BookingCreated, Key: booking.ID, Payload: booking})
	s.cfg.Log.Info("Booking created successfully",
		"id", booking.ID,
		"car_id", booking.CarID,
		"user_id", booking.UserID,
		"start_date", booking.StartDate,
		"end_date", booking.EndDate,
	)
	return booking, nil
}

// GetByID returns a booking to its owner or to an administrator.
func (s *bookingService) GetByID(ctx context.Context, requesterID, id string) (*model.BookingDetails, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Booking ID cannot be empty")
	}

	booking, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.translate(err, id, "Failed to retrieve booking")
	}

	if booking.UserID != requesterID {
		requester, err := s.users.FindByID(ctx, requesterID)
		if err != nil {
			return nil, s.translateUser(err, requesterID)
		}
		if !requester.IsAdmin() {
			return nil, apperrors.Forbidden("Forbidden")
		}
	}

	details, err := s.populate(ctx, []*model.Booking{booking})
	if err != nil {
		return nil, err
	}
	return details[0], nil
}

func (s *bookingService) List(ctx context.Context, page, limit int) ([]*model.BookingDetails, int64, error) {
	return s.list(ctx, page, limit,
		s.repo.Count,
		func(ctx context.Context, limit int, skip int64) ([]*model.Booking, error) {
			return s.repo.FindAll(ctx, limit, skip)
		},
	)
}

func (s *bookingService) ListMine(ctx context.Context, userID string, page, limit int) ([]*model.BookingDetails, int64, error) {
	return s.list(ctx, page, limit,
		func(ctx context.Context) (int64, error) {
			return s.repo.CountByUser(ctx, userID)
		},
		func(ctx context.Context, limit int, skip int64) ([]*model.Booking, error) {
			return s.repo.FindByUser(ctx, userID, limit, skip)
		},
	)
}

func (s *bookingService) list(
	ctx context.Context,
	page, limit int,
	countFn func(ctx context.Context) (int64, error),
	findFn func(ctx context.Context, limit int, skip int64) ([]*model.Booking, error),
) ([]*model.BookingDetails, int64, error) {
	page = config.NormalizePage(page)
	limit = config.NormalizePaginationLimit(limit)

	var count int64
	var bookings []*model.Booking
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		count, errCount = countFn(ctx)
		if errCount != nil {
			s.cfg.Log.Error("Failed to count bookings", "error", errCount)
			errCount = apperrors.Internal("Failed to count bookings", errCount)
		}
	}()

	go func() {
		defer wg.Done()
		bookings, errFind = findFn(ctx, limit, config.Skip(page, limit))
		if errFind != nil {
			s.cfg.Log.Error("Failed to list bookings", "error", errFind)
			errFind = apperrors.Internal("Failed to retrieve bookings", errFind)
		}
	}()

	wg.Wait()
	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}

	details, err := s.populate(ctx, bookings)
	if err != nil {
		return nil, 0, err
	}
	return details, count, nil
}

// Update merges updates into the stored booking and, when the result is
// still active, re-checks it against every other active booking of its car.
func (s *bookingService) Update(ctx context.Context, id string, updates *model.BookingUpdate) (*model.Booking, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Booking ID cannot be empty")
	}
	if err := s.validator.ValidateUpdate(updates); err != nil {
		s.cfg.Log.Warn("Booking update validation failed", "id", id, "error", err)
		return nil, validation.ToAppError(err)
	}

	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.translate(err, id, "Failed to check booking existence")
	}

	merged := *existing
	updates.Apply(&merged)
	if err := s.validator.Validate(&merged); err != nil {
		s.cfg.Log.Warn("Booking validation failed", "id", id, "error", err)
		return nil, validation.ToAppError(err)
	}

	rangeChanged := merged.CarID != existing.CarID ||
		!merged.StartDate.Equal(existing.StartDate) ||
		!merged.EndDate.Equal(existing.EndDate)

	reactivated := merged.IsActive() && !existing.IsActive()

	if merged.CarID != existing.CarID || reactivated || (rangeChanged && updates.TotalPrice == nil) {
		car, err := s.bookableCar(ctx, merged.CarID)
		if err != nil {
			return nil, err
		}
		if updates.TotalPrice == nil && (rangeChanged || merged.CarID != existing.CarID) {
			merged.TotalPrice = model.TotalPrice(car.PricePerDay, merged.StartDate, merged.EndDate)
		}
	}

	release, err := s.acquireCarLock(ctx, merged.CarID)
	if err != nil {
		return nil, err
	}
	defer release()

	err = s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		if err := s.verifyAvailability(sessCtx, &merged, id); err != nil {
			return err
		}
		if err := s.repo.Update(sessCtx, id, &merged); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		s.cfg.Log.Error("Failed to update booking", "id", id, "error", err)
		return nil, s.translate(err, id, "Failed to update booking")
	}

	s.publisher.Publish(ctx, events.Event{Type: events.BookingUpdated, Key: id, Payload: &merged})
	s.cfg.Log.Info("Booking updated successfully", "id", id, "status", merged.Status)
	return &merged, nil
}

// --- Helpers ---

func (s *bookingService) bookableCar(ctx context.Context, carID string) (*model.Car, error) {
	car, err := s.cars.FindByID(ctx, carID)
	if err != nil {
		switch {
		case errors.Is(err, carserrors.ErrNotFound):
			return nil, apperrors.NotFound("Car")
		case errors.Is(err, carserrors.ErrInvalidID):
			return nil, apperrors.InvalidInput("Invalid car ID format")
		}
		return nil, apperrors.Internal("Failed to retrieve car", err)
	}
	if car.UnderMaintenance() {
		return nil, apperrors.BadRequest("Car is under maintenance and cannot be booked")
	}
	return car, nil
}

// verifyAvailability refuses an active booking whose range intersects another
// active booking of the same car. Inactive bookings never conflict.
func (s *bookingService) verifyAvailability(ctx context.Context, booking *model.Booking, excludeID string) error {
	if !booking.IsActive() {
		return nil
	}

	existing, err := s.repo.FindOverlapping(ctx, booking.CarID, booking.StartDate, booking.EndDate, excludeID)
	if err != nil {
		return apperrors.Internal("Failed to check existing bookings", err)
	}

	for _, b := range existing {
		if b.ID == excludeID || !b.IsActive() {
			continue
		}
		if b.Overlaps(booking.StartDate, booking.EndDate) {
			return fmt.Errorf("%w: %s", bookingserrors.ErrOverlap, b.ID)
		}
	}
	return nil
}

// acquireCarLock takes the advisory lock of a car. The returned func
// releases it.
func (s *bookingService) acquireCarLock(ctx context.Context, carID string) (func(), error) {
	lockID := fmt.Sprintf("booking_lock_%s", carID)
	lock := &model.BookingLock{
		ID:        lockID,
		Owner:     uuid.NewString(),
		CarID:     carID,
		ExpiresAt: time.Now().UTC().Add(lockTTL),
	}

	if err := s.lockRepo.Create(ctx, lock); err != nil {
		if errors.Is(err, bookingserrors.ErrLockHeld) {
			return nil, apperrors.Conflict("This car is currently being booked by another request. Please try again.")
		}
		return nil, apperrors.Internal("Failed to acquire booking lock", err)
	}

	return func() {
		if err := s.lockRepo.Delete(context.WithoutCancel(ctx), lockID, lock.Owner); err != nil {
			s.cfg.Log.Warn("Failed to release booking lock", "lock_id", lockID, "owner", lock.Owner, "error", err)
		}
	}, nil
}

// populate resolves user and car of each booking. A user or car that no
// longer exists is left nil.
func (s *bookingService) populate(ctx context.Context, bookings []*model.Booking) ([]*model.BookingDetails, error) {
	users := map[string]*model.AdminUserView{}
	cars := map[string]*model.Car{}

	details := make([]*model.BookingDetails, 0, len(bookings))
	for _, b := range bookings {
		user, seen := users[b.UserID]
		if !seen {
			u, err := s.users.FindByID(ctx, b.UserID)
			switch {
			case err == nil:
				view := u.AdminView()
				user = &view
			case !errors.Is(err, userserrors.ErrNotFound) && !errors.Is(err, userserrors.ErrInvalidID):
				return nil, apperrors.Internal("Failed to retrieve booking user", err)
			}
			users[b.UserID] = user
		}

		car, seen := cars[b.CarID]
		if !seen {
			c, err := s.cars.FindByID(ctx, b.CarID)
			switch {
			case err == nil:
				car = c
			case !errors.Is(err, carserrors.ErrNotFound) && !errors.Is(err, carserrors.ErrInvalidID):
				return nil, apperrors.Internal("Failed to retrieve booking car", err)
			}
			cars[b.CarID] = car
		}

		details = append(details, &model.BookingDetails{
			ID:         b.ID,
			User:       user,
			Car:        car,
			StartDate:  b.StartDate,
			EndDate:    b.EndDate,
			TotalPrice: b.TotalPrice,
			Status:     b.Status,
		})
	}
	return details, nil
}

func (s *bookingService) translateUser(err error, id string) error {
	switch {
	case errors.Is(err, userserrors.ErrNotFound):
		return apperrors.NotFound("User")
	case errors.Is(err, userserrors.ErrInvalidID):
		return apperrors.InvalidInput("Invalid user ID format")
	}
	s.cfg.Log.Error("Failed to retrieve user", "id", id, "error", err)
	return apperrors.Internal("Failed to retrieve user", err)
}

func (s *bookingService) translate(err error, id, msg string) error {
	switch {
	case apperrors.IsAppError(err):
		return err
	case errors.Is(err, bookingserrors.ErrOverlap):
		return apperrors.Conflict("Car is already booked for these dates")
	case errors.Is(err, bookingserrors.ErrNotFound):
		return apperrors.NotFoundWithID("Booking", id)
	case errors.Is(err, bookingserrors.ErrInvalidID):
		return apperrors.InvalidInput("Invalid booking ID format")
	}
	return apperrors.Internal(msg, err)
}
