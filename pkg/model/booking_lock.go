package model

import "time"

// BookingLock is an advisory lock on a car held while its overlap check and
// insert run. Expired locks are reaped by a TTL index on expires_at. Owner is
// a per-acquisition token; only its holder may release the lock.
type BookingLock struct {
	ID        string    `bson:"_id" json:"id"`
	Owner     string    `bson:"owner" json:"owner"`
	CarID     string    `bson:"car_id" json:"car_id"`
	ExpiresAt time.Time `bson:"expires_at" json:"expires_at"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}
