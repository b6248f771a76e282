package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	carserrors "rentacar/internal/cars/errors"
	"rentacar/internal/cars/repository"
	"rentacar/internal/cars/validator"
	"rentacar/pkg/config"
	apperrors "rentacar/pkg/errors"
	"rentacar/pkg/model"
	"rentacar/pkg/sanitizer"
	"rentacar/pkg/storage"
	"rentacar/pkg/validation"
	"sync"
	"time"

	"github.com/google/uuid"
)

const imageURLExpiry = time.Hour

var imageExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

// ActiveBookings reports how many pending or confirmed bookings hold a car.
type ActiveBookings interface {
	CountActiveByCar(ctx context.Context, carID string) (int64, error)
}

type CarService interface {
	Create(ctx context.Context, car *model.Car) error
	GetByID(ctx context.Context, id string) (*model.Car, error)
	List(ctx context.Context, status string, page, limit int) ([]*model.Car, int64, error)
	Update(ctx context.Context, id string, updates *model.CarUpdate) (*model.Car, error)
	Delete(ctx context.Context, id string) error
	UploadImage(ctx context.Context, id string, r io.Reader, size int64) (*model.Car, error)
}

type carService struct {
	repo      repository.CarRepository
	bookings  ActiveBookings
	images    storage.Store
	validator *validator.CarValidator
	cfg       *config.Config
}

func NewCarService(
	repo repository.CarRepository,
	bookings ActiveBookings,
	images storage.Store,
	validator *validator.CarValidator,
	cfg *config.Config,
) CarService {
	return &carService{
		repo:      repo,
		bookings:  bookings,
		images:    images,
		validator: validator,
		cfg:       cfg,
	}
}

func (s *carService) Create(ctx context.Context, car *model.Car) error {
	car.ID = ""
	car.ImageKey = ""
	if car.Status == "" {
		car.Status = config.CarAvailable
	}
	s.sanitize(car)
	if err := s.validator.Validate(car); err != nil {
		s.cfg.Log.Warn("Car validation failed", "error", err)
		return validation.ToAppError(err)
	}

	if err := s.repo.Create(ctx, car); err != nil {
		return s.translate(err, "", "Failed to create car")
	}

	s.cfg.Log.Info("Car created", "id", car.ID, "plate_number", car.PlateNumber)
	return nil
}

func (s *carService) GetByID(ctx context.Context, id string) (*model.Car, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Car ID cannot be empty")
	}

	car, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.translate(err, id, "Failed to retrieve car")
	}
	s.attachImageURL(ctx, car)
	return car, nil
}

func (s *carService) List(ctx context.Context, status string, page, limit int) ([]*model.Car, int64, error) {
	if status != "" && status != config.CarAvailable && status != config.CarRented && status != config.CarMaintenance {
		return nil, 0, apperrors.InvalidInput(fmt.Sprintf("Invalid status filter: %s", status))
	}
	page = config.NormalizePage(page)
	limit = config.NormalizePaginationLimit(limit)

	var count int64
	var cars []*model.Car
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		count, errCount = s.repo.Count(ctx, status)
		if errCount != nil {
			s.cfg.Log.Error("Failed to count cars", "error", errCount)
			errCount = apperrors.Internal("Failed to count cars", errCount)
		}
	}()

	go func() {
		defer wg.Done()
		cars, errFind = s.repo.FindAll(ctx, status, limit, config.Skip(page, limit))
		if errFind != nil {
			s.cfg.Log.Error("Failed to list cars", "error", errFind)
			errFind = apperrors.Internal("Failed to retrieve cars", errFind)
		}
	}()

	wg.Wait()
	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}

	for _, car := range cars {
		s.attachImageURL(ctx, car)
	}
	return cars, count, nil
}

func (s *carService) Update(ctx context.Context, id string, updates *model.CarUpdate) (*model.Car, error) {
	if err := s.validator.ValidateUpdate(updates); err != nil {
		s.cfg.Log.Warn("Car update validation failed", "id", id, "error", err)
		return nil, validation.ToAppError(err)
	}

	car, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.translate(err, id, "Failed to check car existence")
	}

	updates.Apply(car)
	s.sanitize(car)
	if err := s.validator.Validate(car); err != nil {
		return nil, validation.ToAppError(err)
	}

	if err := s.repo.Update(ctx, id, car); err != nil {
		return nil, s.translate(err, id, "Failed to update car")
	}

	s.cfg.Log.Info("Car updated", "id", id)
	return car, nil
}

// Delete refuses to remove a car that still has pending or confirmed
// bookings.
func (s *carService) Delete(ctx context.Context, id string) error {
	car, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return s.translate(err, id, "Failed to check car existence")
	}

	active, err := s.bookings.CountActiveByCar(ctx, id)
	if err != nil {
		s.cfg.Log.Error("Failed to count active bookings", "car_id", id, "error", err)
		return apperrors.Internal("Failed to check car bookings", err)
	}
	if active > 0 {
		return apperrors.Conflict("Car has active bookings")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return s.translate(err, id, "Failed to delete car")
	}

	if car.ImageKey != "" {
		s.removeImage(ctx, car.ImageKey)
	}
	s.cfg.Log.Info("Car deleted", "id", id)
	return nil
}

func (s *carService) UploadImage(ctx context.Context, id string, r io.Reader, size int64) (*model.Car, error) {
	car, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.translate(err, id, "Failed to check car existence")
	}

	head := make([]byte, 512)
	n, err := io.ReadFull(r, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) {
		return nil, apperrors.InvalidInput("Image file is empty")
	}
	contentType := http.DetectContentType(head[:n])
	ext, ok := imageExtensions[contentType]
	if !ok {
		return nil, apperrors.InvalidInput("Image must be a JPEG, PNG or WebP file")
	}

	key := fmt.Sprintf("cars/%s/%s%s", id, uuid.NewString(), ext)
	_, err = s.images.Put(ctx, key, io.MultiReader(bytes.NewReader(head[:n]), r), storage.PutOptions{
		Size:        size,
		ContentType: contentType,
		Metadata:    map[string]string{"car-id": id},
	})
	if err != nil {
		if errors.Is(err, storage.ErrDisabled) {
			return nil, apperrors.Unavailable("Image storage")
		}
		s.cfg.Log.Error("Failed to store car image", "id", id, "key", key, "error", err)
		return nil, apperrors.Internal("Failed to store image", err)
	}

	if err := s.repo.SetImage(ctx, id, key); err != nil {
		s.removeImage(ctx, key)
		return nil, s.translate(err, id, "Failed to save car image")
	}

	if car.ImageKey != "" {
		s.removeImage(ctx, car.ImageKey)
	}
	car.ImageKey = key
	s.attachImageURL(ctx, car)

	s.cfg.Log.Info("Car image uploaded", "id", id, "key", key, "size", size)
	return car, nil
}

// --- Helpers ---

func (s *carService) attachImageURL(ctx context.Context, car *model.Car) {
	if car.ImageKey == "" {
		return
	}
	url, err := s.images.PresignGet(ctx, car.ImageKey, imageURLExpiry)
	if err != nil {
		if !errors.Is(err, storage.ErrDisabled) {
			s.cfg.Log.Warn("Failed to presign car image", "id", car.ID, "key", car.ImageKey, "error", err)
		}
		return
	}
	car.ImageURL = url
}

func (s *carService) removeImage(ctx context.Context, key string) {
	if err := s.images.Delete(ctx, key); err != nil && !errors.Is(err, storage.ErrDisabled) {
		s.cfg.Log.Warn("Failed to delete car image", "key", key, "error", err)
	}
}

func (s *carService) sanitize(car *model.Car) {
	car.Brand = sanitizer.NormalizeName(car.Brand)
	car.Model = sanitizer.NormalizeName(car.Model)
	car.PlateNumber = sanitizer.NormalizePlate(car.PlateNumber)
}

func (s *carService) translate(err error, id, msg string) error {
	switch {
	case errors.Is(err, carserrors.ErrNotFound):
		return apperrors.NotFound("Car")
	case errors.Is(err, carserrors.ErrInvalidID):
		return apperrors.InvalidInput("Invalid car ID format")
	case errors.Is(err, carserrors.ErrDuplicatePlate):
		return apperrors.Conflict("Plate number already registered")
	}
	s.cfg.Log.Error(msg, "id", id, "error", err)
	return apperrors.Internal(msg, err)
}
