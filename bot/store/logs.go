package store

import (
	"context"

	"tribalbot/bot/models"

	"gorm.io/gorm"
)

type logRepository struct {
	db *gorm.DB
}

func (r *logRepository) Append(ctx context.Context, tribeID uint, text string) error {
	return r.db.WithContext(ctx).Create(&models.LogEntry{TribeID: tribeID, Text: text}).Error
}

func (r *logRepository) ListByTribe(ctx context.Context, tribeID uint, limit int) ([]models.LogEntry, error) {
	var entries []models.LogEntry
	err := r.db.WithContext(ctx).
		Where("tribe_id = ?", tribeID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&entries).Error
	return entries, err
}
