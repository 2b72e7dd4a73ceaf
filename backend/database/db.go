package database

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	_ "modernc.org/sqlite"
)

// DefaultPath is used when no DSN is configured
const DefaultPath = "./data/reframe-ide.db"

// DB wraps the database connection
type DB struct {
	conn *gorm.DB
}

// New opens the database and migrates the schema. DSNs ending in .db (or starting
// with file:) open a SQLite file through the pure-Go driver; anything else is a MySQL DSN.
func New(dsn string) (*DB, error) {
	if dsn == "" {
		dsn = DefaultPath
	}

	var dialector gorm.Dialector
	if isSQLite(dsn) {
		if dir := filepath.Dir(strings.TrimPrefix(dsn, "file:")); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("failed to create database directory: %w", err)
			}
		}
		dialector = sqlite.New(sqlite.Config{DriverName: "sqlite", DSN: dsn})
	} else {
		dialector = mysql.Open(dsn)
	}

	conn, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	sqlDB, err := conn.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database handle: %w", err)
	}
	if isSQLite(dsn) {
		// SQLite allows a single writer
		sqlDB.SetMaxOpenConns(1)
	}

	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.initSchema(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return db, nil
}

func isSQLite(dsn string) bool {
	return strings.HasSuffix(dsn, ".db") || strings.HasPrefix(dsn, "file:") || dsn == ":memory:"
}

// Close closes the database connection
func (db *DB) Close() error {
	sqlDB, err := db.conn.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// initSchema creates all necessary tables
func (db *DB) initSchema() error {
	return db.conn.AutoMigrate(&RecentPackageModel{})
}
