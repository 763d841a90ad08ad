package store

import (
	"context"

	"tribalbot/bot/models"

	"gorm.io/gorm"
)

type applicationRepository struct {
	db *gorm.DB
}

func (r *applicationRepository) Create(ctx context.Context, application *models.TribeJoinApplication) error {
	return r.db.WithContext(ctx).Create(application).Error
}

func (r *applicationRepository) Get(ctx context.Context, id uint) (*models.TribeJoinApplication, error) {
	var application models.TribeJoinApplication
	if err := r.db.WithContext(ctx).Take(&application, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &application, nil
}

func (r *applicationRepository) GetFor(ctx context.Context, tribeID uint, applicantID string) (*models.TribeJoinApplication, error) {
	var application models.TribeJoinApplication

	err := r.db.WithContext(ctx).
		Where("tribe_id = ? AND applicant_id = ?", tribeID, applicantID).
		Order("id").
		First(&application).Error
	if err != nil {
		return nil, notFound(err)
	}

	return &application, nil
}

func (r *applicationRepository) ListByTribe(ctx context.Context, tribeID uint) ([]models.TribeJoinApplication, error) {
	var applications []models.TribeJoinApplication
	err := r.db.WithContext(ctx).
		Where("tribe_id = ?", tribeID).
		Order("created_at, id").
		Find(&applications).Error
	return applications, err
}

func (r *applicationRepository) Delete(ctx context.Context, id uint) (bool, error) {
	result := r.db.WithContext(ctx).Delete(&models.TribeJoinApplication{}, id)
	return result.RowsAffected > 0, result.Error
}
