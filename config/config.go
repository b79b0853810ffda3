package config

import (
	"context"
	"fmt"
	"os"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

type Config struct {
	Port      string
	GinMode   string
	JWTSecret []byte
	MongoURI  string
	MongoDB   string
	UploadDir string
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// Load reads configuration from the environment with local-dev defaults.
func Load() Config {
	return Config{
		Port:      getEnv("PORT", "5000"),
		GinMode:   getEnv("GIN_MODE", ""),
		JWTSecret: []byte(getEnv("JWT_SECRET", "mealconnect_super_secret_2024")),
		MongoURI:  getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDB:   getEnv("MONGO_DB", "mealconnect"),
		UploadDir: getEnv("UPLOAD_DIR", "uploads"),
	}
}

// NewLogger builds the process logger. Release mode gets the production
// encoder; everything else the development one.
func NewLogger(cfg Config) (*zap.Logger, error) {
	if cfg.GinMode == "release" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

// ConnectMongo dials the document store and verifies the connection.
func ConnectMongo(ctx context.Context, cfg Config) (*mongo.Database, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	return client.Database(cfg.MongoDB), nil
}
