package store

import (
	"context"

	"tribalbot/bot/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type tribeRepository struct {
	db *gorm.DB
}

func (r *tribeRepository) query(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Preload("Category")
}

func (r *tribeRepository) Create(ctx context.Context, tribe *models.Tribe) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(tribe).Error
}

func (r *tribeRepository) Get(ctx context.Context, id uint) (*models.Tribe, error) {
	var tribe models.Tribe
	if err := r.query(ctx).Take(&tribe, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &tribe, nil
}

func (r *tribeRepository) GetByName(ctx context.Context, guildID, name string) (*models.Tribe, error) {
	var tribe models.Tribe

	err := r.query(ctx).Where("guild_id = ? AND name = ?", guildID, name).Order("id").First(&tribe).Error
	if err != nil {
		return nil, notFound(err)
	}

	return &tribe, nil
}

func (r *tribeRepository) ListByGuild(ctx context.Context, guildID string) ([]models.Tribe, error) {
	var tribes []models.Tribe
	err := r.query(ctx).Where("guild_id = ?", guildID).Order("name").Find(&tribes).Error
	return tribes, err
}

func (r *tribeRepository) ListByLeader(ctx context.Context, guildID, userID string) ([]models.Tribe, error) {
	var tribes []models.Tribe
	err := r.query(ctx).Where("guild_id = ? AND leader_id = ?", guildID, userID).Find(&tribes).Error
	return tribes, err
}

func (r *tribeRepository) ListByStaff(ctx context.Context, guildID, userID string) ([]models.Tribe, error) {
	var tribes []models.Tribe

	err := r.query(ctx).
		Where("guild_id = ? AND (leader_id = ? OR manager_id = ?)", guildID, userID, userID).
		Order("name").
		Find(&tribes).Error

	return tribes, err
}

func (r *tribeRepository) Save(ctx context.Context, tribe *models.Tribe) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(tribe).Error
}

func (r *tribeRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		children := []interface{}{
			&models.TribeMember{},
			&models.TribeJoinApplication{},
			&models.LogEntry{},
		}
		for _, child := range children {
			if err := tx.Where("tribe_id = ?", id).Delete(child).Error; err != nil {
				return err
			}
		}

		return tx.Delete(&models.Tribe{}, id).Error
	})
}
