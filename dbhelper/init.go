package dbhelper

import (
	"archifigureapi/models"
	"fmt"
	"os"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DSN builds a postgres connection string from DATABASE_URL or the DB_* parts.
func DSN() string {
	if url := os.Getenv("DATABASE_URL"); url != "" {
		return url
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s",
		os.Getenv("DB_USERNAME"),
		os.Getenv("DB_PASSWORD"),
		os.Getenv("DB_HOST"),
		os.Getenv("DB_PORT"),
		os.Getenv("DB_NAME"),
	)
}

// ConnectDB opens the pool and migrates the project tables.
func ConnectDB(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Minute * 5)
	db.Logger = db.Logger.LogMode(logger.Warn)

	if err := Migrate(db, &models.Project{}); err != nil {
		return nil, err
	}
	if err := Migrate(db, &models.ProjectModel{}); err != nil {
		return nil, err
	}
	return db, nil
}

func SetupDB() *gorm.DB {
	db, err := ConnectDB(DSN())
	if err != nil {
		panic(err)
	}
	return db
}

// SetupTestDB connects to the local test database used by package tests.
func SetupTestDB() (*gorm.DB, error) {
	if url := os.Getenv("TEST_DATABASE_URL"); url != "" {
		return ConnectDB(url)
	}
	setDefaultEnv("DB_USERNAME", "archifigure")
	setDefaultEnv("DB_PASSWORD", "archifigure")
	setDefaultEnv("DB_HOST", "localhost")
	setDefaultEnv("DB_NAME", "archifigure_test")
	setDefaultEnv("DB_PORT", "5432")
	return ConnectDB(fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s",
		os.Getenv("DB_USERNAME"),
		os.Getenv("DB_PASSWORD"),
		os.Getenv("DB_HOST"),
		os.Getenv("DB_PORT"),
		os.Getenv("DB_NAME"),
	))
}

func setDefaultEnv(key, value string) {
	if os.Getenv(key) == "" {
		os.Setenv(key, value)
	}
}
