package controllers

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"tribalbot/bot/models"
	"tribalbot/bot/store"
)

func (c *Controller) GuildConfig(ctx context.Context, guildID string) (*models.GuildConfig, error) {
	config, err := c.store.Guilds.Get(ctx, guildID)
	if err != nil {
		return nil, fmt.Errorf("loading guild config %s: %w", guildID, err)
	}
	return config, nil
}

func (c *Controller) SetLeadersRole(ctx context.Context, guildID, roleID string) error {
	config, err := c.GuildConfig(ctx, guildID)
	if err != nil {
		return err
	}

	config.LeadersRoleID = roleID

	return c.store.Guilds.Save(ctx, config)
}

func (c *Controller) SetBannerURLs(ctx context.Context, guildID string, allowed bool) error {
	config, err := c.GuildConfig(ctx, guildID)
	if err != nil {
		return err
	}

	config.BannerURLs = &allowed

	return c.store.Guilds.Save(ctx, config)
}

// CreateCategory adds a tribe category. Names are unique per guild regardless of case.
func (c *Controller) CreateCategory(ctx context.Context, guildID, name string) (*models.TribeCategory, error) {
	name = strings.TrimSpace(name)

	if _, err := c.GuildConfig(ctx, guildID); err != nil {
		return nil, err
	}

	_, err := c.store.Categories.GetByName(ctx, guildID, name)
	switch {
	case err == nil:
		return nil, fmt.Errorf("%w: %q", ErrCategoryExists, name)
	case !errors.Is(err, store.ErrNotFound):
		return nil, err
	}

	category := &models.TribeCategory{GuildID: guildID, Name: name}
	if err := c.store.Categories.Create(ctx, category); err != nil {
		return nil, fmt.Errorf("creating category %q: %w", name, err)
	}

	return category, nil
}

func (c *Controller) Category(ctx context.Context, guildID, name string) (*models.TribeCategory, error) {
	category, err := c.store.Categories.GetByName(ctx, guildID, strings.TrimSpace(name))
	switch {
	case errors.Is(err, store.ErrNotFound):
		return nil, fmt.Errorf("%w: %q", ErrCategoryNotFound, name)
	case err != nil:
		return nil, err
	}
	return category, nil
}

func (c *Controller) Categories(ctx context.Context, guildID string) ([]models.TribeCategory, error) {
	return c.store.Categories.List(ctx, guildID)
}

// RemoveGuild drops everything the bot stored for the guild.
func (c *Controller) RemoveGuild(ctx context.Context, guildID string) error {
	if err := c.store.Guilds.Delete(ctx, guildID); err != nil {
		return fmt.Errorf("removing guild %s: %w", guildID, err)
	}
	return nil
}
