package infra

import (
	"errors"
	"fmt"
	"strings"
	"time"

	infrarepo "github.com/amirasaad/crowdpledge/infra/repository"
	"github.com/amirasaad/crowdpledge/pkg/config"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDBConnection opens the database named by cnf.Url. A "sqlite:" or
// "file:" URL selects SQLite, anything else is handed to Postgres.
func NewDBConnection(
	cnf *config.DB,
	appEnv string,
) (*gorm.DB, error) {
	if cnf == nil || cnf.Url == "" {
		return nil, errors.New("DATABASE_URL is not set")
	}

	var logMode logger.LogLevel
	if appEnv == "development" {
		logMode = logger.Info
	} else {
		logMode = logger.Silent
	}

	connection, err := gorm.Open(dialector(cnf.Url), &gorm.Config{
		Logger:                 logger.Default.LogMode(logMode),
		SkipDefaultTransaction: true,
		TranslateError:         true,
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := connection.DB()
	if err != nil {
		return nil, err
	}
	if isSQLite(cnf.Url) {
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxOpenConns(25)
		sqlDB.SetMaxIdleConns(25)
		sqlDB.SetConnMaxLifetime(1 * time.Hour)
	}

	if cnf.AutoMigrate {
		if err := Migrate(connection); err != nil {
			return nil, err
		}
	}
	return connection, nil
}

// Migrate creates or updates the pledge tables.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(infrarepo.Models()...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}

func isSQLite(url string) bool {
	return strings.HasPrefix(url, "sqlite:") || strings.HasPrefix(url, "file:")
}

func dialector(url string) gorm.Dialector {
	if isSQLite(url) {
		return sqlite.Open(strings.TrimPrefix(url, "sqlite:"))
	}
	return postgres.Open(url)
}
