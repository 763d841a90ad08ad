package store

import (
	"context"

	"tribalbot/bot/models"

	"gorm.io/gorm"
)

type memberRepository struct {
	db *gorm.DB
}

func (r *memberRepository) Create(ctx context.Context, member *models.TribeMember) error {
	return r.db.WithContext(ctx).Create(member).Error
}

func (r *memberRepository) ListByTribe(ctx context.Context, tribeID uint) ([]models.TribeMember, error) {
	var members []models.TribeMember
	err := r.db.WithContext(ctx).Where("tribe_id = ?", tribeID).Order("id").Find(&members).Error
	return members, err
}

func (r *memberRepository) TribesOf(ctx context.Context, guildID, userID string) ([]models.Tribe, error) {
	var tribes []models.Tribe

	db := r.db.WithContext(ctx)
	memberships := db.Model(&models.TribeMember{}).Select("tribe_id").Where("member_id = ?", userID)

	err := db.Preload("Category").
		Where("guild_id = ? AND id IN (?)", guildID, memberships).
		Find(&tribes).Error

	return tribes, err
}

func (r *memberRepository) Delete(ctx context.Context, tribeID uint, userID string) (bool, error) {
	result := r.db.WithContext(ctx).
		Where("tribe_id = ? AND member_id = ?", tribeID, userID).
		Delete(&models.TribeMember{})

	return result.RowsAffected > 0, result.Error
}
