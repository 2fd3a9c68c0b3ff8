package activity

import (
	"context"

	"gorm.io/gorm"

	"github.com/nourhachem/backoffice-backend/pkg/db/models"
)

type Repository interface {
	Create(ctx context.Context, entry *models.ActivityEntry) error
	Recent(ctx context.Context, limit int) ([]models.ActivityEntry, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, entry *models.ActivityEntry) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *repository) Recent(ctx context.Context, limit int) ([]models.ActivityEntry, error) {
	var entries []models.ActivityEntry
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}
