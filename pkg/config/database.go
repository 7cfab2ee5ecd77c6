package config

import (
	"fmt"
	stdlog "log"
	"os"
	"time"

	"github.com/anonto42/foodgram/backend/pkg/logger"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// DB holds the database connection
type DB struct {
	Gorm *gorm.DB
	log  *logger.Logger
}

// InitDB opens the database selected by cfg.DatabaseDriver.
func InitDB(cfg *Config, log *logger.Logger) (*DB, error) {
	var (
		db  *gorm.DB
		err error
	)
	switch cfg.DatabaseDriver {
	case "postgres":
		db, err = initPostgres(cfg.PostgresUrl)
	case "sqlite":
		db, err = OpenSQLite(cfg.SQLitePath)
	default:
		return nil, fmt.Errorf("unsupported DATABASE_DRIVER %q", cfg.DatabaseDriver)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", cfg.DatabaseDriver, err)
	}

	log.Info("Database connected", "driver", cfg.DatabaseDriver)
	return &DB{Gorm: db, log: log}, nil
}

func gormConfig() *gorm.Config {
	return &gorm.Config{
		// Unique-index violations surface as gorm.ErrDuplicatedKey.
		TranslateError: true,
		Logger: gormlogger.New(stdlog.New(os.Stdout, "\r\n", stdlog.LstdFlags), gormlogger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
		}),
	}
}

// initPostgres initializes the PostgreSQL database connection using GORM
func initPostgres(connStr string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(connStr), gormConfig())
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetConnMaxIdleTime(5 * time.Minute)
	if err = sqlDB.Ping(); err != nil {
		return nil, err
	}
	return db, nil
}

// OpenSQLite opens a SQLite database with foreign keys enforced.
// path may be ":memory:" for a private in-memory database.
func OpenSQLite(path string) (*gorm.DB, error) {
	dsn := fmt.Sprintf("file:%s?_foreign_keys=on&_busy_timeout=5000", path)
	db, err := gorm.Open(sqlite.Open(dsn), gormConfig())
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	// One connection: SQLite has a single writer and :memory: is per-connection.
	sqlDB.SetMaxOpenConns(1)
	return db, nil
}

// CloseDB closes the database connection
func (db *DB) CloseDB() {
	if db.Gorm == nil {
		return
	}
	sqlDB, err := db.Gorm.DB()
	if err != nil {
		db.log.Error("Error getting SQL DB from GORM", "error", err)
		return
	}
	if err := sqlDB.Close(); err != nil {
		db.log.Error("Error closing database connection", "error", err)
		return
	}
	db.log.Info("Database connection closed")
}
