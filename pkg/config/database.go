package config

import (
	"context"
	"fmt"
	"time"

	"github.com/anonto42/three-good-things/backend/internal/repositories"
	sqlite "github.com/glebarez/sqlite"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// DB holds the database connections
type DB struct {
	Relational *gorm.DB
	Mongo      *mongo.Client
	Journal    *mongo.Database
	logger     *zap.Logger
}

// InitDB opens the relational store and MongoDB described by cfg
func InitDB(ctx context.Context, cfg *Config, logger *zap.Logger) (*DB, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	relational, err := openRelational(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", cfg.DBDriver, err)
	}

	mongoClient, err := initMongo(ctx, cfg.MongoURI, logger)
	if err != nil {
		closeRelational(relational, logger)
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	return &DB{
		Relational: relational,
		Mongo:      mongoClient,
		Journal:    mongoClient.Database(cfg.MongoDatabase),
		logger:     logger,
	}, nil
}

func openRelational(cfg *Config, logger *zap.Logger) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.DBDriver {
	case DriverSQLite:
		dialector = sqlite.Open(cfg.SQLitePath)
	default:
		dialector = postgres.Open(cfg.PostgresConnStr)
	}

	db, err := gorm.Open(dialector, &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, err
	}

	// Ping the database to verify connection
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if err = sqlDB.Ping(); err != nil {
		return nil, err
	}

	logger.Info("Successfully connected to relational database", zap.String("driver", cfg.DBDriver))
	return db, nil
}

func initMongo(ctx context.Context, uri string, logger *zap.Logger) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}

	// Ping the primary to verify connection
	if err = client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}

	logger.Info("Successfully connected to MongoDB!")
	return client, nil
}

// Migrate creates the relational tables and the entry collection indexes.
func (db *DB) Migrate(ctx context.Context) error {
	if err := repositories.AutoMigrate(db.Relational); err != nil {
		return fmt.Errorf("failed to migrate relational schema: %w", err)
	}
	if err := repositories.NewMongoEntryRepository(db.Journal).EnsureIndexes(ctx); err != nil {
		return fmt.Errorf("failed to create entry indexes: %w", err)
	}
	db.logger.Info("database schema is up to date")
	return nil
}

// CloseDB closes the database connections
func (db *DB) CloseDB() {
	closeRelational(db.Relational, db.logger)

	if db.Mongo != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := db.Mongo.Disconnect(ctx); err != nil {
			db.logger.Error("Error closing MongoDB connection", zap.Error(err))
		} else {
			db.logger.Info("MongoDB connection closed.")
		}
	}
}

func closeRelational(db *gorm.DB, logger *zap.Logger) {
	if db == nil {
		return
	}
	sqlDB, err := db.DB()
	if err != nil {
		logger.Error("Error getting SQL DB from GORM", zap.Error(err))
		return
	}
	if err := sqlDB.Close(); err != nil {
		logger.Error("Error closing relational connection", zap.Error(err))
		return
	}
	logger.Info("Relational connection closed.")
}
