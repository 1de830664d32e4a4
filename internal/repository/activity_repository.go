// Package repository persists sessions, cached forms and the activity journal
package repository

import (
	"context"
	"fmt"

	"github.com/Koyo-os/form-studio/internal/entity"
	"github.com/Koyo-os/form-studio/pkg/config"
	"github.com/Koyo-os/form-studio/pkg/logger"
	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Repository handles journal operations using GORM
type Repository struct {
	db     *gorm.DB
	logger *logger.Logger
}

// Open connects to the configured database and migrates the journal table
func Open(driver, dsn string) (*gorm.DB, error) {
	var dialector gorm.Dialector

	switch driver {
	case config.DriverSqlite:
		dialector = sqlite.Open(dsn)
	case config.DriverMysql:
		dialector = mysql.Open(dsn)
	default:
		return nil, fmt.Errorf("unknown database driver %q", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}

	if err = db.AutoMigrate(&entity.Activity{}); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return db, nil
}

func Init(db *gorm.DB, logger *logger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// Record persists one journal entry
func (repo *Repository) Record(ctx context.Context, activity *entity.Activity) error {
	res := repo.db.WithContext(ctx).Create(activity)

	if err := res.Error; err != nil {
		repo.logger.Error("error create activity",
			zap.String("form_id", activity.FormID),
			zap.String("type", string(activity.Type)),
			zap.Error(err))
		return err
	}

	return nil
}

// ListByForm returns the newest entries for a form first. A limit of zero
// returns all of them.
func (repo *Repository) ListByForm(ctx context.Context, formID entity.FormID, limit int) ([]entity.Activity, error) {
	var activities []entity.Activity

	query := repo.db.WithContext(ctx).
		Where("form_id = ?", formID.String()).
		Order("created_at desc")
	if limit > 0 {
		query = query.Limit(limit)
	}

	if err := query.Find(&activities).Error; err != nil {
		repo.logger.Error("error list activities",
			zap.String("form_id", formID.String()),
			zap.Error(err))
		return nil, err
	}

	return activities, nil
}

// ListBySession returns a session's entries in the order they happened
func (repo *Repository) ListBySession(ctx context.Context, sessionID string) ([]entity.Activity, error) {
	var activities []entity.Activity

	res := repo.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("created_at asc").
		Find(&activities)
	if err := res.Error; err != nil {
		repo.logger.Error("error list session activities",
			zap.String("session_id", sessionID),
			zap.Error(err))
		return nil, err
	}

	return activities, nil
}

func (repo *Repository) IsHealthy() bool {
	sqlDB, err := repo.db.DB()
	if err != nil {
		return false
	}
	return sqlDB.Ping() == nil
}

func (repo *Repository) Close() error {
	sqlDB, err := repo.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
