package database

import (
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"explore-backend/config"
	"explore-backend/models"
)

var DB *gorm.DB

// InitDB opens the configured database, migrates it and stores it in DB
//
//nolint:gocritic // zerolog.Logger is passed by value
func InitDB(cfg *config.Config, log zerolog.Logger) error {
	db, err := Open(cfg.Database, log)
	if err != nil {
		return err
	}
	DB = db
	return nil
}

// Open connects to sqlite and migrates the schema. SQL logging goes through log.
//
//nolint:gocritic // zerolog.Logger is passed by value
func Open(cfg config.DatabaseConfig, log zerolog.Logger) (*gorm.DB, error) {
	gormConfig := &gorm.Config{
		Logger: logger.New(gormWriter{log: log.With().Str("component", "gorm").Logger()}, logger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  parseLogLevel(cfg.LogLevel),
			IgnoreRecordNotFoundError: true,
		}),
		NowFunc: func() time.Time { return time.Now().UTC() },
	}

	db, err := gorm.Open(sqlite.Open(cfg.Path), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// sqlite has a single writer
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to access connection pool: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := Migrate(db); err != nil {
		return nil, err
	}

	log.Info().Str("path", cfg.Path).Msg("database initialized")
	return db, nil
}

// Migrate creates or updates every table the engine uses
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.Genre{},
		&models.Tag{},
		&models.Book{},
		&models.BookView{},
		&models.Rating{},
	)
	if err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}

// gormWriter feeds gorm's logger into zerolog; gorm already filters by level
type gormWriter struct {
	log zerolog.Logger
}

func (w gormWriter) Printf(format string, args ...interface{}) {
	w.log.WithLevel(gormLevel(format, args)).Msg(strings.TrimSpace(fmt.Sprintf(format, args...)))
}

// gormLevel recovers the level of a gorm log line from its format. Slow and
// failed queries share a format and differ in their second argument.
func gormLevel(format string, args []interface{}) zerolog.Level {
	switch {
	case strings.Contains(format, "[error]"):
		return zerolog.ErrorLevel
	case strings.Contains(format, "[warn]"):
		return zerolog.WarnLevel
	case strings.Contains(format, "[info]"):
		return zerolog.InfoLevel
	case strings.HasPrefix(format, "%s %s"):
		if len(args) > 1 {
			if _, ok := args[1].(error); ok {
				return zerolog.ErrorLevel
			}
		}
		return zerolog.WarnLevel
	default:
		return zerolog.DebugLevel
	}
}

func parseLogLevel(level string) logger.LogLevel {
	switch strings.ToLower(level) {
	case "silent":
		return logger.Silent
	case "error":
		return logger.Error
	case "info":
		return logger.Info
	default:
		return logger.Warn
	}
}

// GetDB returns the database instance
func GetDB() *gorm.DB {
	return DB
}
