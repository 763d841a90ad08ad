package store

import (
	"context"

	"tribalbot/bot/models"

	"gorm.io/gorm"
)

type categoryRepository struct {
	db *gorm.DB
}

func (r *categoryRepository) Create(ctx context.Context, category *models.TribeCategory) error {
	return r.db.WithContext(ctx).Create(category).Error
}

func (r *categoryRepository) Get(ctx context.Context, id uint) (*models.TribeCategory, error) {
	var category models.TribeCategory
	if err := r.db.WithContext(ctx).Take(&category, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &category, nil
}

func (r *categoryRepository) GetByName(ctx context.Context, guildID, name string) (*models.TribeCategory, error) {
	var category models.TribeCategory

	err := r.db.WithContext(ctx).
		Where("guild_id = ? AND LOWER(name) = LOWER(?)", guildID, name).
		Take(&category).Error
	if err != nil {
		return nil, notFound(err)
	}

	return &category, nil
}

func (r *categoryRepository) List(ctx context.Context, guildID string) ([]models.TribeCategory, error) {
	var categories []models.TribeCategory
	err := r.db.WithContext(ctx).Where("guild_id = ?", guildID).Order("name").Find(&categories).Error
	return categories, err
}
