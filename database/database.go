package database

import (
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"coursehub/config"
	"coursehub/logger"
	courseModels "coursehub/models/course"
)

// DbInstance struct holds the database connection instance
type DbInstance struct {
	Db *gorm.DB
}

// Database is the global database instance
var Database DbInstance

// ConnectDb establishes a connection to PostgreSQL, migrates and stores the
// handle in Database.
func ConnectDb(cfg *config.Config, log *logger.Logger) error {
	dsn := fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		cfg.DBHost,
		cfg.DBUser,
		cfg.DBPassword,
		cfg.DBName,
		cfg.DBPort,
	)

	gormLog := gormlogger.Default.LogMode(gormlogger.Warn)
	if cfg.LogMode == "debug" {
		gormLog = gormlogger.Default.LogMode(gormlogger.Info)
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: gormLog})
	if err != nil {
		return fmt.Errorf("connect to postgres: %w", err)
	}

	// Set up connection pooling
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("get database instance: %w", err)
	}
	sqlDB.SetMaxOpenConns(cfg.DBMaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.DBMaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := runMigrations(db, log); err != nil {
		return err
	}

	Database = DbInstance{Db: db}
	return nil
}

func runMigrations(db *gorm.DB, log *logger.Logger) error {
	log.Info("running migrations")
	if err := db.AutoMigrate(courseModels.All()...); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	log.Info("migrations completed")
	return nil
}
