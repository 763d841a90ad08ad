package controllers

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"tribalbot/bot/models"
	"tribalbot/bot/store"
)

type NewTribe struct {
	GuildID  string
	Name     string
	Color    int
	LeaderID string
	// AuthorID defaults to LeaderID.
	AuthorID string
	// Category is an optional category name.
	Category string
}

// CreateTribe stores a tribe and the log line naming its creator. Names are not checked
// for uniqueness here.
func (c *Controller) CreateTribe(ctx context.Context, params NewTribe) (*models.Tribe, error) {
	authorID := params.AuthorID
	if authorID == "" {
		authorID = params.LeaderID
	}

	var category *models.TribeCategory
	if params.Category != "" {
		var err error
		if category, err = c.Category(ctx, params.GuildID, params.Category); err != nil {
			return nil, err
		}
	}

	tribe := &models.Tribe{
		GuildID:  params.GuildID,
		Name:     strings.TrimSpace(params.Name),
		LeaderID: params.LeaderID,
		Color:    params.Color,
	}
	if category != nil {
		tribe.CategoryID = &category.ID
	}

	err := c.store.Transaction(ctx, func(tx *store.Store) error {
		if _, err := tx.Guilds.Get(ctx, tribe.GuildID); err != nil {
			return err
		}
		if err := tx.Tribes.Create(ctx, tribe); err != nil {
			return err
		}
		return tx.Logs.Append(ctx, tribe.ID, fmt.Sprintf("Tribe %q was created with id %d by <@%s>", tribe.Name, tribe.ID, authorID))
	})
	if err != nil {
		return nil, fmt.Errorf("creating tribe %q: %w", params.Name, err)
	}

	tribe.Category = category

	return tribe, nil
}

func (c *Controller) GuildTribes(ctx context.Context, guildID string) ([]models.Tribe, error) {
	return c.store.Tribes.ListByGuild(ctx, guildID)
}

func (c *Controller) TribeByName(ctx context.Context, guildID, name string) (*models.Tribe, error) {
	tribe, err := c.store.Tribes.GetByName(ctx, guildID, strings.TrimSpace(name))
	switch {
	case errors.Is(err, store.ErrNotFound):
		return nil, fmt.Errorf("%w: %q", ErrTribeNotFound, name)
	case err != nil:
		return nil, err
	}
	return tribe, nil
}

// MemberTribes returns the guild tribes the user leads or belongs to.
func (c *Controller) MemberTribes(ctx context.Context, guildID, userID string) ([]models.Tribe, error) {
	return c.store.MemberTribes(ctx, guildID, userID)
}

func (c *Controller) LeaderTribes(ctx context.Context, guildID, userID string) ([]models.Tribe, error) {
	return c.store.Tribes.ListByLeader(ctx, guildID, userID)
}

// StaffTribes returns the guild tribes the user leads or manages.
func (c *Controller) StaffTribes(ctx context.Context, guildID, userID string) ([]models.Tribe, error) {
	return c.store.Tribes.ListByStaff(ctx, guildID, userID)
}

// MemberCategories returns the category keys of every tribe the user leads or belongs to.
func (c *Controller) MemberCategories(ctx context.Context, guildID, userID string) (map[uint]bool, error) {
	return memberCategories(ctx, c.store, guildID, userID)
}

// InCategory reports whether the user already leads or belongs to a tribe of the category.
func (c *Controller) InCategory(ctx context.Context, guildID, userID string, categoryKey uint) (bool, error) {
	categories, err := memberCategories(ctx, c.store, guildID, userID)
	if err != nil {
		return false, err
	}
	return categories[categoryKey], nil
}

func memberCategories(ctx context.Context, s *store.Store, guildID, userID string) (map[uint]bool, error) {
	tribes, err := s.MemberTribes(ctx, guildID, userID)
	if err != nil {
		return nil, err
	}

	categories := make(map[uint]bool, len(tribes))
	for _, tribe := range tribes {
		categories[tribe.CategoryKey()] = true
	}

	return categories, nil
}

func (c *Controller) TribeMembers(ctx context.Context, tribeID uint) (*MemberCollection, error) {
	members, err := c.store.Members.ListByTribe(ctx, tribeID)
	if err != nil {
		return nil, err
	}
	return NewMemberCollection(members), nil
}

func (c *Controller) TribeLog(ctx context.Context, tribeID uint, limit int) ([]models.LogEntry, error) {
	return c.store.Logs.ListByTribe(ctx, tribeID, limit)
}

// BannerUpdate lists the banner fields to change. Nil fields are left alone.
type BannerUpdate struct {
	Color       *int
	Description *string
	Image       *string
}

func (c *Controller) UpdateBanner(ctx context.Context, tribe *models.Tribe, update BannerUpdate, authorID string) error {
	return c.updateTribe(ctx, tribe, nil, func(tx *store.Store, tribe *models.Tribe, _ *MemberCollection) error {
		if update.Color != nil {
			tribe.Color = *update.Color
		}
		if update.Description != nil {
			tribe.Banner.Description = *update.Description
		}
		if update.Image != nil {
			tribe.Banner.Image = *update.Image
		}

		if err := tx.Tribes.Save(ctx, tribe); err != nil {
			return err
		}
		return tx.Logs.Append(ctx, tribe.ID, fmt.Sprintf("Banner was updated by <@%s>", authorID))
	})
}

// ForceDisband deletes the tribe with all of its members, applications and log.
func (c *Controller) ForceDisband(ctx context.Context, tribe *models.Tribe) error {
	if err := c.store.Tribes.Delete(ctx, tribe.ID); err != nil {
		return fmt.Errorf("disbanding tribe %d: %w", tribe.ID, err)
	}
	return nil
}

// KickMember removes a membership row. The leader has none and cannot be kicked.
func (c *Controller) KickMember(ctx context.Context, tribe *models.Tribe, userID, authorID string) error {
	return c.updateTribe(ctx, tribe, nil, func(tx *store.Store, tribe *models.Tribe, _ *MemberCollection) error {
		removed, err := tx.Members.Delete(ctx, tribe.ID, userID)
		if err != nil {
			return err
		}
		if !removed {
			return fmt.Errorf("%w: %s", ErrNotMember, userID)
		}

		if tribe.ManagerID == userID {
			tribe.ManagerID = ""
			if err := tx.Tribes.Save(ctx, tribe); err != nil {
				return err
			}
		}

		return tx.Logs.Append(ctx, tribe.ID, fmt.Sprintf("<@%s> was kicked by <@%s>", userID, authorID))
	})
}

// ExitTribe makes the user leave the tribe. A leaving leader triggers succession, the
// returned bool is false when the tribe was deleted as a result.
func (c *Controller) ExitTribe(ctx context.Context, tribe *models.Tribe, userID string) (bool, error) {
	if userID == tribe.LeaderID {
		return c.HandleLeaderLeave(ctx, tribe, nil, "")
	}

	err := c.updateTribe(ctx, tribe, nil, func(tx *store.Store, tribe *models.Tribe, _ *MemberCollection) error {
		removed, err := tx.Members.Delete(ctx, tribe.ID, userID)
		if err != nil {
			return err
		}

		wasManager := tribe.ManagerID == userID
		if !removed && !wasManager {
			return fmt.Errorf("%w: %s", ErrNotMember, userID)
		}

		if wasManager {
			tribe.ManagerID = ""
			if err := tx.Tribes.Save(ctx, tribe); err != nil {
				return err
			}
		}

		return tx.Logs.Append(ctx, tribe.ID, fmt.Sprintf("<@%s> left the tribe", userID))
	})

	return true, err
}

// SetManager promotes a member of the tribe to manager, replacing the current one.
func (c *Controller) SetManager(ctx context.Context, tribe *models.Tribe, userID, authorID string) error {
	switch userID {
	case tribe.LeaderID:
		return ErrSelfTarget
	case tribe.ManagerID:
		return ErrAlreadyManager
	}

	members, err := c.TribeMembers(ctx, tribe.ID)
	if err != nil {
		return err
	}
	if !members.Contains(userID) {
		return fmt.Errorf("%w: %s", ErrNotMember, userID)
	}

	return c.updateTribe(ctx, tribe, nil, func(tx *store.Store, tribe *models.Tribe, _ *MemberCollection) error {
		tribe.ManagerID = userID
		if err := tx.Tribes.Save(ctx, tribe); err != nil {
			return err
		}
		return tx.Logs.Append(ctx, tribe.ID, fmt.Sprintf("<@%s> was made manager by <@%s>", userID, authorID))
	})
}

// TransferLeadership hands the tribe to one of its members or its manager. The former
// leader stays on as a member.
func (c *Controller) TransferLeadership(ctx context.Context, tribe *models.Tribe, newLeaderID string) error {
	if newLeaderID == tribe.LeaderID {
		return ErrSelfTarget
	}

	members, err := c.TribeMembers(ctx, tribe.ID)
	if err != nil {
		return err
	}
	if !members.Contains(newLeaderID) && tribe.ManagerID != newLeaderID {
		return fmt.Errorf("%w: %s", ErrNotMember, newLeaderID)
	}

	formerLeaderID := tribe.LeaderID

	var outcome string
	err = c.updateTribe(ctx, tribe, members, func(tx *store.Store, tribe *models.Tribe, members *MemberCollection) (err error) {
		if outcome, err = c.handleLeaderLeave(ctx, tx, tribe, members, newLeaderID); err != nil {
			return err
		}
		return tx.Members.Create(ctx, &models.TribeMember{TribeID: tribe.ID, MemberID: formerLeaderID})
	})
	if err != nil {
		return fmt.Errorf("transferring tribe %d: %w", tribe.ID, err)
	}

	countSuccession(outcome)

	return nil
}
