package database

import (
	"fmt"
	"log"
	"strings"
	"time"

	"fortmix-erp/internal/config"
	"fortmix-erp/internal/models"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	connectAttempts = 5
	connectBackoff  = 2 * time.Second

	sqliteParams = "_foreign_keys=1&_busy_timeout=5000&_txlock=immediate"
)

// Open connects to the configured backend and syncs the schema.
func Open(cfg config.Database) (*gorm.DB, error) {
	dialector, err := dialectorFor(cfg)
	if err != nil {
		return nil, err
	}

	logLevel := logger.Warn
	if cfg.Debug {
		logLevel = logger.Info
	}
	gormCfg := &gorm.Config{
		Logger:         logger.Default.LogMode(logLevel),
		TranslateError: true,
		NowFunc:        func() time.Time { return time.Now().UTC() },
	}

	// Hosted databases may still be starting, the embedded one never is.
	attempts := connectAttempts
	if cfg.Driver == "sqlite" {
		attempts = 1
	}

	var db *gorm.DB
	for i := 0; i < attempts; i++ {
		db, err = gorm.Open(dialector, gormCfg)
		if err == nil {
			break
		}
		log.Printf("Failed to connect to database. Retrying in %s... (%d/%d)", connectBackoff, i+1, attempts)
		time.Sleep(connectBackoff)
	}
	if err != nil {
		return nil, fmt.Errorf("connect to %s: %w", cfg.Driver, err)
	}

	if cfg.Driver == "sqlite" {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		// SQLite has a single writer; one connection keeps transactions queued
		// instead of failing with SQLITE_BUSY.
		sqlDB.SetMaxOpenConns(1)
	}

	log.Printf("✅ Successfully connected to %s!", cfg.Driver)

	if err := Migrate(db); err != nil {
		return nil, err
	}
	log.Println("✅ Database Schema Synced!")

	return db, nil
}

// Migrate creates or updates every table the store uses.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.User{},
		&models.Product{},
		&models.Sale{},
		&models.SaleItem{},
		&models.StockMovement{},
		&models.AuditLog{},
	); err != nil {
		return fmt.Errorf("migrate schema: %w", err)
	}
	return nil
}

func dialectorFor(cfg config.Database) (gorm.Dialector, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("empty DSN for driver %s", cfg.Driver)
	}

	switch cfg.Driver {
	case "sqlite":
		return sqlite.Open(sqliteDSN(cfg.DSN)), nil
	case "postgres":
		return postgres.Open(cfg.DSN), nil
	case "mysql":
		return mysql.Open(cfg.DSN), nil
	default:
		return nil, fmt.Errorf("unsupported driver %q", cfg.Driver)
	}
}

func sqliteDSN(dsn string) string {
	if strings.Contains(dsn, "?") {
		return dsn
	}
	if !strings.HasPrefix(dsn, "file:") {
		dsn = "file:" + dsn
	}
	return dsn + "?" + sqliteParams
}
