package database

import (
	"time"

	"github.com/ggorockee/dollcatch/internal/config"
	"github.com/ggorockee/dollcatch/internal/logger"
	"github.com/ggorockee/dollcatch/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type DB struct {
	*gorm.DB
}

// Open wraps gorm.Open with the settings shared by the server and tests.
// TranslateError makes unique violations surface as gorm.ErrDuplicatedKey.
func Open(dialector gorm.Dialector, logLevel gormlogger.LogLevel) (*DB, error) {
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:                                   gormlogger.Default.LogMode(logLevel),
		DisableForeignKeyConstraintWhenMigrating: true,
		TranslateError:                           true,
	})
	if err != nil {
		return nil, err
	}
	return &DB{db}, nil
}

func Connect(cfg *config.Config) (*DB, error) {
	log := logger.GetLogger("database")

	logLevel := gormlogger.Silent
	if cfg.ServerEnv == "development" {
		logLevel = gormlogger.Info
	}

	db, err := Open(postgres.Open(cfg.DatabaseURL), logLevel)
	if err != nil {
		return nil, err
	}

	// Register metrics plugin for Prometheus
	if err := db.Use(&MetricsPlugin{}); err != nil {
		log.Warnf("Failed to register metrics plugin: %v", err)
	} else {
		log.Info("Database metrics plugin registered")
	}

	sqlDB, err := db.DB.DB()
	if err == nil {
		sqlDB.SetMaxOpenConns(25)
		sqlDB.SetMaxIdleConns(5)
		sqlDB.SetConnMaxLifetime(5 * time.Minute)
		log.Info("Database connection pool configured")
	}

	return db, nil
}

// Migrate runs AutoMigrate for all models
func Migrate(db *DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Shop{},
		&models.Review{},
		&models.File{},
		&models.Post{},
		&models.Comment{},
	)
}

// Ping checks the underlying connection, used by the readiness probe
func (db *DB) Ping() error {
	sqlDB, err := db.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}
