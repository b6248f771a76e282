package model

import "time"

type Car struct {
	ID          string    `json:"id,omitempty" bson:"_id,omitempty"`
	Brand       string    `json:"brand" bson:"brand" validate:"required,min=2,max=50"`
	Model       string    `json:"model" bson:"model" validate:"required,min=1,max=50"`
	Year        int       `json:"year" bson:"year" validate:"required,min=1990,max=2100"`
	PlateNumber string    `json:"plate_number" bson:"plate_number" validate:"required,min=2,max=20"`
	PricePerDay float64   `json:"price_per_day" bson:"price_per_day" validate:"required,gt=0"`
	Status      string    `json:"status" bson:"status" validate:"required,oneof=available rented maintenance"`
	ImageKey    string    `json:"image_key,omitempty" bson:"image_key,omitempty"`
	ImageURL    string    `json:"image_url,omitempty" bson:"-"`
	CreatedAt   time.Time `json:"created_at" bson:"created_at"`
}

func (c *Car) UnderMaintenance() bool {
	return c.Status == "maintenance"
}

type CarUpdate struct {
	Brand       *string  `json:"brand,omitempty" validate:"omitempty,min=2,max=50"`
	Model       *string  `json:"model,omitempty" validate:"omitempty,min=1,max=50"`
	Year        *int     `json:"year,omitempty" validate:"omitempty,min=1990,max=2100"`
	PlateNumber *string  `json:"plate_number,omitempty" validate:"omitempty,min=2,max=20"`
	PricePerDay *float64 `json:"price_per_day,omitempty" validate:"omitempty,gt=0"`
	Status      *string  `json:"status,omitempty" validate:"omitempty,oneof=available rented maintenance"`
}

// Apply merges the non-nil fields of u into c.
func (u *CarUpdate) Apply(c *Car) {
	if u.Brand != nil {
		c.Brand = *u.Brand
	}
	if u.Model != nil {
		c.Model = *u.Model
	}
	if u.Year != nil {
		c.Year = *u.Year
	}
	if u.PlateNumber != nil {
		c.PlateNumber = *u.PlateNumber
	}
	if u.PricePerDay != nil {
		c.PricePerDay = *u.PricePerDay
	}
	if u.Status != nil {
		c.Status = *u.Status
	}
}
