package db

import (
	"fmt"
	"log/slog"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"exppro-backend/internal/config"
	"exppro-backend/internal/model"
)

// Open connects to the database described by cfg.
func Open(cfg config.DBConfig) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case "postgres":
		dialector = postgres.Open(postgresDSN(cfg))
	case "sqlite":
		dialector = sqlite.Open(SQLiteDSN(cfg.File))
	default:
		return nil, fmt.Errorf("unsupported DB driver %q", cfg.Driver)
	}

	gdb, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Warn),
		NowFunc:        func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", cfg.Driver, err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql.DB: %w", err)
	}
	if cfg.Pool.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.Pool.MaxOpenConns)
	}
	if cfg.Pool.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.Pool.MaxIdleConns)
	}
	if cfg.Pool.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(time.Duration(cfg.Pool.ConnMaxLifetime) * time.Second)
	}
	return gdb, nil
}

// InitDBFromConfig opens the configured database.
func InitDBFromConfig(cfg *config.APIConfig) (*gorm.DB, error) {
	gdb, err := Open(cfg.DB)
	if err != nil {
		return nil, err
	}
	slog.Info("database connected", "driver", cfg.DB.Driver, "server", cfg.DB.Server)
	return gdb, nil
}

// Migrate creates or updates every table.
func Migrate(gdb *gorm.DB) error {
	if err := gdb.AutoMigrate(model.All()...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}

// SQLiteDSN enables foreign keys so deletes cascade like they do on postgres.
func SQLiteDSN(file string) string {
	return fmt.Sprintf("file:%s?_foreign_keys=on&_busy_timeout=5000", file)
}

func postgresDSN(cfg config.DBConfig) string {
	sslMode := cfg.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.Username, cfg.Password, cfg.Names.EXPPRO, sslMode)
}
