package offsets

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

// Repository stores plan history
type Repository interface {
	Save(ctx context.Context, run *PlanRun) error
	List(ctx context.Context, filter HistoryFilter) ([]PlanRun, error)
}

type gormRepository struct {
	db *gorm.DB
}

// NewGormRepository creates a history repository on gorm
func NewGormRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

// AutoMigrate creates or updates the history table
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&PlanRun{}); err != nil {
		return fmt.Errorf("failed to migrate plan history: %w", err)
	}
	return nil
}

func (r *gormRepository) Save(ctx context.Context, run *PlanRun) error {
	if err := r.db.WithContext(ctx).Create(run).Error; err != nil {
		return fmt.Errorf("failed to save plan run: %w", err)
	}
	return nil
}

func (r *gormRepository) List(ctx context.Context, filter HistoryFilter) ([]PlanRun, error) {
	query := r.db.WithContext(ctx).Model(&PlanRun{}).Order("created_at DESC")
	if filter.Site != "" {
		query = query.Where("site_name = ?", filter.Site)
	}
	if filter.Kind != "" {
		query = query.Where("kind = ?", filter.Kind)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}

	var runs []PlanRun
	if err := query.Find(&runs).Error; err != nil {
		return nil, fmt.Errorf("failed to list plan runs: %w", err)
	}
	return runs, nil
}
