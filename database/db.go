package database

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"github.com/ByLCY/papyrus-billing/config"
	"github.com/ByLCY/papyrus-billing/models"
)

// Dialector picks the gorm driver for the configured DB_DRIVER.
func Dialector(cfg config.Config) (gorm.Dialector, error) {
	switch cfg.DBDriver {
	case "postgres":
		return postgres.Open(cfg.DSN()), nil
	case "sqlite", "":
		return sqlite.Open(cfg.DSN()), nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.DBDriver)
	}
}

// Connect opens the database and applies migrations.
func Connect(cfg config.Config, log *zap.Logger) (*gorm.DB, error) {
	dialector, err := Dialector(cfg)
	if err != nil {
		return nil, err
	}
	level := gormlogger.Warn
	if cfg.Development() {
		level = gormlogger.Info
	}
	db, err := Open(dialector, level)
	if err != nil {
		return nil, err
	}
	if err := AutoMigrate(db); err != nil {
		return nil, err
	}
	log.Info("database ready", zap.String("driver", cfg.DBDriver))
	return db, nil
}

// Open connects without migrating.
func Open(dialector gorm.Dialector, level gormlogger.LogLevel) (*gorm.DB, error) {
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:  gormlogger.Default.LogMode(level),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, fmt.Errorf("could not connect to database: %w", err)
	}
	return db, nil
}

// AutoMigrate creates the tables and seeds the invoice_seq row.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(models.All()...); err != nil {
		return fmt.Errorf("automigrate failed: %w", err)
	}
	seed := models.InvoiceSeq{ID: 1}
	if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&seed).Error; err != nil {
		return fmt.Errorf("seed invoice_seq failed: %w", err)
	}
	return nil
}

// Conn prefers the per-request transaction opened by middlewares.Tx and
// falls back to db.
func Conn(c *fiber.Ctx, db *gorm.DB) *gorm.DB {
	if v := c.Locals("tx"); v != nil {
		if tx, ok := v.(*gorm.DB); ok && tx != nil {
			return tx
		}
	}
	return db.WithContext(c.UserContext())
}
