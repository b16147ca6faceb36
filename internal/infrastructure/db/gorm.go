package db

import (
	"log/slog"
	"time"

	"credit-ledger/internal/domain/credit"
	"credit-ledger/internal/domain/party"
	"credit-ledger/internal/domain/proposal"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func OpenGorm(dsn string) (*gorm.DB, error) {
	return OpenGormWithDialector(mysql.Open(dsn))
}

// OpenGormWithDialector opens and pings a pool on any dialector; tests pass sqlmock or sqlite here.
func OpenGormWithDialector(dial gorm.Dialector) (*gorm.DB, error) {
	cfg := &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Warn),
		TranslateError: true,
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
	slog.Info("gorm: connected", "dialect", dial.Name())
	return db, nil
}

// Models lists every table the service owns, in creation order.
func Models() []any {
	return []any{&party.Account{}, &proposal.Proposal{}, &credit.Credit{}}
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(Models()...)
}
