package config

import "time"

const (
	DefaultMongoURI          = "mongodb://localhost:27017"
	DefaultMongoDatabaseName = "rentacar"
	DefaultMongoConnTimeout  = 10 * time.Second

	DefaultPort     = "5000"
	DefaultLogLevel = "info"
	DefaultAppEnv   = "development"

	DefaultSessionTTL    = 2 * time.Hour
	DefaultRememberMeTTL = 7 * 24 * time.Hour
	DefaultFrontendURL   = "http://localhost:5173"

	DefaultLoginRateLimitRequests = 10
	DefaultLoginRateLimitWindow   = 5 * time.Minute

	DefaultRequestTimeout = 30 * time.Second
	DefaultIdempotencyTTL = 24 * time.Hour
	DefaultMaxRequestSize = 5 * 1024 * 1024 // 5MB, car images included

	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 15 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 30 * time.Second

	DefaultKafkaTopic  = "rentacar.events"
	DefaultMinioBucket = "car-images"

	DefaultPage            = 1
	DefaultPaginationLimit = 10
	MaxPaginationLimit     = 100
	// MaxPage keeps Skip well inside int64 for any accepted limit.
	MaxPage = 1_000_000

	MinSecretLength = 16
)

const (
	EnvProduction = "production"
)

const (
	RoleUser   = "user"
	RoleAdmin  = "admin"
	RoleBanned = "banned"
)

const (
	Pending   = "pending"
	Confirmed = "confirmed"
	Cancelled = "cancelled"
	Completed = "completed"
)

const (
	CarAvailable   = "available"
	CarRented      = "rented"
	CarMaintenance = "maintenance"
)

// ActiveBookingStatuses are the statuses that reserve a car for their date range.
var ActiveBookingStatuses = []string{Pending, Confirmed}
