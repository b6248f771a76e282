package main

import (
	"context"
	mongoMigration "rentacar/internal/migrations/mongo"
	"rentacar/pkg/config"
	"time"

	_ "github.com/joho/godotenv/autoload"
)

const JobName = "mongo-migration"

func main() {
	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
	defer cancel()

	// The job only talks to Mongo, so session secrets are not required.
	cfg := config.FromEnv(JobName)
	cfg.SetMongo()
	defer cfg.GracefulShutdown()

	cfg.Log.Info("Starting Mongo migration job")
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	if err := mongoMigration.RunMigration(ctx, db, cfg.Log); err != nil {
		cfg.Log.Fatal("Migration failed", "error", err)
	}
	cfg.Log.Info("Migration completed successfully")
}
