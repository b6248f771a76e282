package model

import (
	"encoding/json"
	"math"
	"time"
)

type Booking struct {
	ID         string    `json:"id,omitempty" bson:"_id,omitempty"`
	UserID     string    `json:"user" bson:"user_id" validate:"required,mongodb"`
	CarID      string    `json:"car" bson:"car_id" validate:"required,mongodb"`
	StartDate  time.Time `json:"startDate" bson:"start_date" validate:"required"`
	EndDate    time.Time `json:"endDate" bson:"end_date" validate:"required,gtefield=StartDate"`
	TotalPrice float64   `json:"totalPrice" bson:"total_price" validate:"gte=0"`
	Status     string    `json:"status" bson:"status" validate:"required,oneof=pending confirmed cancelled completed"`
	CreatedAt  time.Time `json:"created_at" bson:"created_at"`
}

// BookingInput is the create payload. A nil TotalPrice is derived from the
// car's daily price.
type BookingInput struct {
	UserID     string    `json:"user" validate:"required,mongodb"`
	CarID      string    `json:"car" validate:"required,mongodb"`
	StartDate  time.Time `json:"startDate" validate:"required"`
	EndDate    time.Time `json:"endDate" validate:"required"`
	TotalPrice *float64  `json:"totalPrice,omitempty" validate:"omitempty,gte=0"`
	Status     string    `json:"status,omitempty" validate:"omitempty,oneof=pending confirmed cancelled completed"`
}

type BookingUpdate struct {
	CarID      *string    `json:"car,omitempty" validate:"omitempty,mongodb"`
	StartDate  *time.Time `json:"startDate,omitempty"`
	EndDate    *time.Time `json:"endDate,omitempty"`
	TotalPrice *float64   `json:"totalPrice,omitempty" validate:"omitempty,gte=0"`
	Status     *string    `json:"status,omitempty" validate:"omitempty,oneof=pending confirmed cancelled completed"`
}

// Apply merges the non-nil fields of u into b.
func (u *BookingUpdate) Apply(b *Booking) {
	if u.CarID != nil {
		b.CarID = *u.CarID
	}
	if u.StartDate != nil {
		b.StartDate = *u.StartDate
	}
	if u.EndDate != nil {
		b.EndDate = *u.EndDate
	}
	if u.TotalPrice != nil {
		b.TotalPrice = *u.TotalPrice
	}
	if u.Status != nil {
		b.Status = *u.Status
	}
}

// ParseDate reads a calendar date (2006-01-02, taken as UTC midnight) or an
// RFC 3339 timestamp.
func ParseDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339Nano, s)
}

type jsonDate time.Time

func (d *jsonDate) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	t, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = jsonDate(t)
	return nil
}

func (in *BookingInput) UnmarshalJSON(data []byte) error {
	type plain BookingInput
	aux := struct {
		*plain
		StartDate *jsonDate `json:"startDate"`
		EndDate   *jsonDate `json:"endDate"`
	}{plain: (*plain)(in)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if aux.StartDate != nil {
		in.StartDate = time.Time(*aux.StartDate)
	}
	if aux.EndDate != nil {
		in.EndDate = time.Time(*aux.EndDate)
	}
	return nil
}

func (u *BookingUpdate) UnmarshalJSON(data []byte) error {
	type plain BookingUpdate
	aux := struct {
		*plain
		StartDate *jsonDate `json:"startDate,omitempty"`
		EndDate   *jsonDate `json:"endDate,omitempty"`
	}{plain: (*plain)(u)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if aux.StartDate != nil {
		t := time.Time(*aux.StartDate)
		u.StartDate = &t
	}
	if aux.EndDate != nil {
		t := time.Time(*aux.EndDate)
		u.EndDate = &t
	}
	return nil
}

// BookingDetails is a booking with its user and car resolved.
type BookingDetails struct {
	ID         string         `json:"id"`
	User       *AdminUserView `json:"user"`
	Car        *Car           `json:"car"`
	StartDate  time.Time      `json:"startDate"`
	EndDate    time.Time      `json:"endDate"`
	TotalPrice float64        `json:"totalPrice"`
	Status     string         `json:"status"`
}

// IsActive reports whether the booking holds its car for its date range.
func (b *Booking) IsActive() bool {
	return IsActiveStatus(b.Status)
}

func IsActiveStatus(status string) bool {
	return status == "pending" || status == "confirmed"
}

// Overlaps reports whether [aStart, aEnd] and [bStart, bEnd] intersect.
// Ranges are closed: a booking ending on the day another starts conflicts.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return !aStart.After(bEnd) && !aEnd.Before(bStart)
}

func (b *Booking) Overlaps(start, end time.Time) bool {
	return Overlaps(b.StartDate, b.EndDate, start, end)
}

// RentalDays counts started 24h periods between start and end, at least one.
func RentalDays(start, end time.Time) int {
	days := int(math.Ceil(end.Sub(start).Hours() / 24))
	return max(days, 1)
}

func TotalPrice(pricePerDay float64, start, end time.Time) float64 {
	return math.Round(pricePerDay*float64(RentalDays(start, end))*100) / 100
}
