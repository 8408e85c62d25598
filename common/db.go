package common

import (
	"log"
	"strings"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"folio/config"
)

// ConnectDb opens the application database. It returns nil when the
// database cannot be opened; callers treat that as fatal.
func ConnectDb(cfg *config.Config) *gorm.DB {
	log.Println("attemptConnectDb: sqlite_db:", cfg.SQLiteDB)
	if cfg.SQLiteDB == "" {
		log.Println("SQLITE_DB not set")
		return nil
	}

	db, err := OpenSQLite(cfg.SQLiteDB, LogLevel(cfg.DBLogLevel))
	if err != nil {
		log.Println("Error opening sqlite db: " + err.Error())
		return nil
	}
	log.Println("opened sqlite db at:", cfg.SQLiteDB)
	return db
}

// OpenSQLite opens path with foreign keys enforced on every pooled
// connection. Cascades on posts and comments depend on it.
func OpenSQLite(path string, level logger.LogLevel) (*gorm.DB, error) {
	return gorm.Open(sqlite.Open(DSN(path)), &gorm.Config{
		Logger:         logger.Default.LogMode(level),
		TranslateError: true,
	})
}

// DSN appends the pragmas the schema relies on to a sqlite file path.
func DSN(path string) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_foreign_keys=on&_busy_timeout=5000"
}

func LogLevel(name string) logger.LogLevel {
	switch strings.ToLower(name) {
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
