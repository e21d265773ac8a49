package utils

import (
	"context"
	"errors"
	"fmt"
	"time"

	"alerta_social/model"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

// CustomLogger only reports slow queries and real errors.
type CustomLogger struct {
	SlowThreshold time.Duration
}

func (l *CustomLogger) LogMode(level logger.LogLevel) logger.Interface {
	return l
}

func (l *CustomLogger) Info(ctx context.Context, msg string, data ...interface{}) {}

func (l *CustomLogger) Warn(ctx context.Context, msg string, data ...interface{}) {}

func (l *CustomLogger) Error(ctx context.Context, msg string, data ...interface{}) {
	if msg != "record not found" {
		WithModule("gorm").Error(fmt.Sprintf(msg, data...))
	}
}

func (l *CustomLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	elapsed := time.Since(begin)
	sql, rows := fc()

	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		WithModule("gorm").Error("query failed",
			zap.Error(err), zap.Duration("elapsed", elapsed), zap.Int64("rows", rows), zap.String("sql", sql))
	} else if elapsed >= l.SlowThreshold {
		WithModule("gorm").Warn("slow query",
			zap.Duration("elapsed", elapsed), zap.Int64("rows", rows), zap.String("sql", sql))
	}
}

// OpenDB opens a gorm connection for the given driver ("postgres" or "sqlite").
func OpenDB(driver, databaseURL string) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case "postgres", "":
		dialector = postgres.Open(databaseURL)
	case "sqlite":
		if databaseURL == "" {
			databaseURL = "file::memory:?cache=shared"
		}
		dialector = sqlite.Open(databaseURL)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: &CustomLogger{SlowThreshold: 100 * time.Millisecond},
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	if driver == "sqlite" {
		// sqlite serialises writers; one connection avoids "database is locked"
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxOpenConns(100)
		sqlDB.SetMaxIdleConns(20)
	}

	return db, nil
}

// InitDB opens the database, migrates the schema and stores the global handle.
func InitDB(driver, databaseURL string) error {
	db, err := OpenDB(driver, databaseURL)
	if err != nil {
		return err
	}
	if err := Migrate(db); err != nil {
		return err
	}

	DB = db
	WithModule("db").Info("database connected", zap.String("driver", driver))
	return nil
}

// Migrate creates or updates the tables owned by this service.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&model.User{},
		&model.Post{},
		&model.Like{},
		&model.Comment{},
		&model.Friendship{},
		&model.Notification{},
		&model.NotificationTemplate{},
	); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}

// GetDB returns the global database handle.
func GetDB() *gorm.DB {
	return DB
}

// CloseDB closes the global database handle.
func CloseDB() error {
	if DB == nil {
		return nil
	}
	sqlDB, err := DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
