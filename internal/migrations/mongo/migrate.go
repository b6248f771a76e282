package mongo

import (
	"context"
	"fmt"
	"rentacar/internal/migrations/mongo/validators"
	"rentacar/pkg/logger"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	UsersCollection        = "Users"
	CarsCollection         = "Cars"
	BookingsCollection     = "Bookings"
	BookingLocksCollection = "Booking_locks"
)

// Definition is the validator and index set of one collection.
type Definition struct {
	Name      string
	Validator bson.M
	Indexes   []mongo.IndexModel
}

func Definitions() []Definition {
	return []Definition{
		{
			Name:      UsersCollection,
			Validator: validators.UserValidator,
			Indexes: []mongo.IndexModel{
				{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true).SetName("email_unique")},
				{Keys: bson.D{{Key: "role", Value: 1}}},
			},
		},
		{
			Name:      CarsCollection,
			Validator: validators.CarValidator,
			Indexes: []mongo.IndexModel{
				{Keys: bson.D{{Key: "plate_number", Value: 1}}, Options: options.Index().SetUnique(true).SetName("plate_number_unique")},
				{Keys: bson.D{{Key: "status", Value: 1}, {Key: "created_at", Value: -1}}},
			},
		},
		{
			Name:      BookingsCollection,
			Validator: validators.BookingValidator,
			Indexes: []mongo.IndexModel{
				// Serves the overlap query.
				{Keys: bson.D{
					{Key: "car_id", Value: 1},
					{Key: "start_date", Value: 1},
					{Key: "end_date", Value: 1},
					{Key: "status", Value: 1},
				}},
				{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "start_date", Value: -1}}},
			},
		},
		{
			Name:      BookingLocksCollection,
			Validator: validators.BookingLockValidator,
			Indexes: []mongo.IndexModel{
				{Keys: bson.D{{Key: "expires_at", Value: 1}}, Options: options.Index().SetExpireAfterSeconds(0).SetName("expires_at_ttl")},
			},
		},
	}
}

// RunMigration creates every collection with its validator, or updates the
// validator of an existing one, and ensures its indexes.
func RunMigration(ctx context.Context, db *mongo.Database, log *logger.Logger) error {
	log.Info("Running Mongo migrations", "database", db.Name())

	for _, def := range Definitions() {
		if err := ensureCollection(ctx, db, def.Name, def.Validator, log); err != nil {
			return fmt.Errorf("failed to ensure collection %s: %w", def.Name, err)
		}
		if err := ensureIndexes(ctx, db, def.Name, def.Indexes); err != nil {
			return fmt.Errorf("failed to ensure indexes for %s: %w", def.Name, err)
		}
		log.Info("Collection migrated", "collection", def.Name, "indexes", len(def.Indexes))
	}

	log.Info("All migrations applied successfully")
	return nil
}

func ensureCollection(ctx context.Context, db *mongo.Database, name string, validator bson.M, log *logger.Logger) error {
	existing, err := db.ListCollectionNames(ctx, bson.D{{Key: "name", Value: name}})
	if err != nil {
		return err
	}

	if len(existing) == 0 {
		log.Info("Creating collection", "collection", name)
		opts := options.CreateCollection().SetValidator(validator)
		if err := db.CreateCollection(ctx, name, opts); err != nil {
			return fmt.Errorf("failed creating %s: %w", name, err)
		}
		return nil
	}

	command := bson.D{
		{Key: "collMod", Value: name},
		{Key: "validator", Value: validator},
	}
	if err := db.RunCommand(ctx, command).Err(); err != nil {
		log.Warn("Failed updating validator", "collection", name, "error", err)
	}
	return nil
}

func ensureIndexes(ctx context.Context, db *mongo.Database, name string, models []mongo.IndexModel) error {
	if len(models) == 0 {
		return nil
	}
	_, err := db.Collection(name).Indexes().CreateMany(ctx, models)
	return err
}
