package db

import (
	"fmt"
	"time"

	"loan-escrow/internal/domain/custody"
	"loan-escrow/internal/domain/event"
	"loan-escrow/internal/domain/loan"

	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Dialector picks the gorm driver for the configured backend.
func Dialector(driver, dsn string) (gorm.Dialector, error) {
	switch driver {
	case DriverMySQL:
		return mysql.Open(dsn), nil
	case DriverPostgres:
		return postgres.Open(dsn), nil
	case DriverSQLite:
		return sqlite.Open(dsn), nil
	}
	return nil, fmt.Errorf("db: unsupported driver %q", driver)
}

func OpenGorm(driver, dsn string, level logger.LogLevel, log *zap.Logger) (*gorm.DB, error) {
	dial, err := Dialector(driver, dsn)
	if err != nil {
		return nil, err
	}
	db, err := OpenGormWithDialector(dial, level)
	if err != nil {
		return nil, err
	}
	if driver == DriverSQLite {
		// one writer at a time; also keeps :memory: databases on a single connection
		sqlDB, _ := db.DB()
		sqlDB.SetMaxOpenConns(1)
	}
	log.Info("gorm: connected", zap.String("driver", driver))
	return db, nil
}

// OpenGormWithDialector opens the pool, applies pool limits and pings once.
func OpenGormWithDialector(dial gorm.Dialector, level ...logger.LogLevel) (*gorm.DB, error) {
	lvl := logger.Warn
	if len(level) > 0 {
		lvl = level[0]
	}
	cfg := &gorm.Config{
		Logger: logger.Default.LogMode(lvl),
		// pinged explicitly below, after pool limits are set
		DisableAutomaticPing: true,
	}
	db, err := gorm.Open(dial, cfg)
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(30)
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)
	sqlDB.SetConnMaxIdleTime(10 * time.Minute)

	if err := sqlDB.Ping(); err != nil {
		return nil, err
	}
	return db, nil
}

// Migrate creates or updates the escrow tables.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&loan.Loan{}, &event.Event{}, &custody.Account{}, &custody.Transfer{})
}
