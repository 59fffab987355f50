package database

import (
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"fillReconciler/internal/domain/entity"
)

func NewDBConnection(config *Config) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch config.Driver {
	case "", DriverPostgres:
		dialector = postgres.Open(config.PostgresDSN())
	case DriverSQLite:
		dialector = openSQLite(config.DSN)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", config.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		return nil, fmt.Errorf("error connecting to database: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("database connection could not be obtained: %w", err)
	}

	maxOpen, maxIdle, lifetime := config.MaxOpenConns, config.MaxIdleConns, 5*time.Minute
	if maxOpen <= 0 {
		maxOpen = 10
	}
	if maxIdle <= 0 {
		maxIdle = 5
	}
	if config.Driver == DriverSQLite {
		// a second connection to ":memory:" would be a different database
		maxOpen, maxIdle, lifetime = 1, 1, 0
	}
	sqlDB.SetMaxOpenConns(maxOpen)
	sqlDB.SetMaxIdleConns(maxIdle)
	sqlDB.SetConnMaxLifetime(lifetime)

	return db, nil
}

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&entity.Order{}, &entity.OrderMatch{}); err != nil {
		return fmt.Errorf("failed to migrate: %w", err)
	}
	return nil
}

func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
