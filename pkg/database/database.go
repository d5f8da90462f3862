package database

import (
	"fmt"
	"istas_backend/internal/config"
	"istas_backend/internal/model"
	"istas_backend/internal/scoring"

	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func dialector(cfg *config.DatabaseConfig) (gorm.Dialector, error) {
	switch cfg.Driver {
	case "sqlite":
		return sqlite.Open(cfg.Path), nil
	case "mysql", "":
		dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=%s&parseTime=%t&loc=Local",
			cfg.User,
			cfg.Password,
			cfg.Host,
			cfg.Port,
			cfg.DBName,
			cfg.Charset,
			cfg.ParseTime,
		)
		return mysql.Open(dsn), nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

// Open connects without migrating.
func Open(cfg *config.DatabaseConfig, logLevel gormlogger.LogLevel) (*gorm.DB, error) {
	d, err := dialector(cfg)
	if err != nil {
		return nil, err
	}
	db, err := gorm.Open(d, &gorm.Config{
		Logger: gormlogger.Default.LogMode(logLevel),
	})
	if err != nil {
		return nil, err
	}
	if cfg.Driver == "sqlite" {
		// sqlite ignores foreign keys unless asked
		db.Exec("PRAGMA foreign_keys = ON")
	}
	return db, nil
}

func InitDB(cfg *config.DatabaseConfig, log *zap.Logger) (*gorm.DB, error) {
	db, err := Open(cfg, gormlogger.Warn)
	if err != nil {
		return nil, err
	}
	log.Info("Database connection established", zap.String("driver", cfg.Driver))

	if err := Migrate(db); err != nil {
		return nil, err
	}
	log.Info("Database migration completed")
	return db, nil
}

func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&model.User{},
		&model.Company{},
		&model.Employee{},
		&model.Severity{},
		&model.Risk{},
		&model.Form{},
		&model.Section{},
		&model.Question{},
		&model.Evaluation{},
		&model.EvaluationAnswer{},
	)
	if err != nil {
		return err
	}
	return SeedSeverities(db)
}

// SeedSeverities inserts the three fixed severity tiers when missing.
func SeedSeverities(db *gorm.DB) error {
	for _, tier := range []scoring.Severity{scoring.SeverityLight, scoring.SeverityMedium, scoring.SeverityHigh} {
		row := model.Severity{Tier: string(tier), Name: tier.Label(), Color: tier.Color()}
		if err := db.Where(model.Severity{Tier: row.Tier}).FirstOrCreate(&row).Error; err != nil {
			return err
		}
	}
	return nil
}
