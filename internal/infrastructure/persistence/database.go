// Package persistence stores audit records of matched regulatory cases through gorm.
package persistence

import (
	"fmt"
	"time"

	"github.com/allerscan/backend/config"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Open connects to the configured database and migrates the audit schema
func Open(cfg config.DatabaseConfig, logger *zap.Logger) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case "postgres":
		dialector = postgres.Open(cfg.DSN)
	case "sqlite", "":
		dialector = sqlite.Open(cfg.DSN)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", cfg.Driver, err)
	}

	if sqlDB, err := db.DB(); err == nil {
		// sqlite allows a single writer and gives every connection its own :memory: database
		if db.Dialector.Name() == "sqlite" {
			sqlDB.SetMaxOpenConns(1)
		} else {
			sqlDB.SetMaxOpenConns(10)
		}
		sqlDB.SetConnMaxLifetime(5 * time.Minute)
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}

	logger.Info("[Database] Connected", zap.String("driver", db.Dialector.Name()))
	return db, nil
}

// Migrate creates or updates the audit tables
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&nonconformingCaseModel{}); err != nil {
		return fmt.Errorf("failed to migrate audit schema: %w", err)
	}
	return nil
}

// Close releases the underlying connection pool
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
