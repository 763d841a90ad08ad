package store

import (
	"context"

	"tribalbot/bot/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type guildConfigRepository struct {
	db *gorm.DB
}

func (r *guildConfigRepository) Get(ctx context.Context, guildID string) (*models.GuildConfig, error) {
	config := models.GuildConfig{GuildID: guildID}

	result := r.db.WithContext(ctx).Where(&models.GuildConfig{GuildID: guildID}).FirstOrCreate(&config)
	if result.Error != nil {
		return nil, result.Error
	}

	return &config, nil
}

func (r *guildConfigRepository) Save(ctx context.Context, config *models.GuildConfig) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(config).Error
}

func (r *guildConfigRepository) Delete(ctx context.Context, guildID string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		tribeIDs := tx.Model(&models.Tribe{}).Select("id").Where("guild_id = ?", guildID)

		children := []interface{}{
			&models.TribeMember{},
			&models.TribeJoinApplication{},
			&models.LogEntry{},
		}
		for _, child := range children {
			if err := tx.Where("tribe_id IN (?)", tribeIDs).Delete(child).Error; err != nil {
				return err
			}
		}

		if err := tx.Where("guild_id = ?", guildID).Delete(&models.Tribe{}).Error; err != nil {
			return err
		}
		if err := tx.Where("guild_id = ?", guildID).Delete(&models.TribeCategory{}).Error; err != nil {
			return err
		}

		return tx.Where("guild_id = ?", guildID).Delete(&models.GuildConfig{}).Error
	})
}

func (r *guildConfigRepository) All(ctx context.Context) ([]models.GuildConfig, error) {
	var configs []models.GuildConfig
	err := r.db.WithContext(ctx).Order("guild_id").Find(&configs).Error
	return configs, err
}
