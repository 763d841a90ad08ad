package controllers

import (
	"context"
	"fmt"
	"log"

	"tribalbot/bot/models"
	"tribalbot/bot/store"
)

// GuildDirectory answers what the bot currently knows about its guilds.
type GuildDirectory interface {
	// HasGuild reports whether the bot still has access to the guild.
	HasGuild(guildID string) bool
	// HasMember reports whether the user is still part of the guild. Implementations
	// should answer true when unsure.
	HasMember(guildID, userID string) bool
}

// Departure describes what happened to a tribe after some of its people left the guild.
type Departure struct {
	Tribe   *models.Tribe
	Removed []string
	// Succeeded is set when the leader was replaced.
	Succeeded bool
	// Disbanded is set when the tribe was deleted for lack of a successor.
	Disbanded bool
}

// PruneTribe removes members that are no longer part of the guild. A missing leader is
// replaced as HandleLeaderLeave does.
func (c *Controller) PruneTribe(ctx context.Context, tribe *models.Tribe, guilds GuildDirectory) (*Departure, error) {
	members, err := c.TribeMembers(ctx, tribe.ID)
	if err != nil {
		return nil, err
	}

	departure := &Departure{Tribe: tribe}

	err = c.updateTribe(ctx, tribe, members, func(tx *store.Store, tribe *models.Tribe, members *MemberCollection) error {
		var removed []string
		for _, userID := range members.IDs() {
			if guilds.HasMember(tribe.GuildID, userID) {
				continue
			}
			if err := members.Remove(ctx, tx.Members, userID); err != nil {
				return err
			}
			removed = append(removed, userID)
		}
		departure.Removed = removed

		if tribe.HasManager() && !guilds.HasMember(tribe.GuildID, tribe.ManagerID) {
			tribe.ManagerID = ""
			if err := tx.Tribes.Save(ctx, tribe); err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("pruning tribe %d: %w", tribe.ID, err)
	}

	if !guilds.HasMember(tribe.GuildID, tribe.LeaderID) {
		exists, err := c.HandleLeaderLeave(ctx, tribe, members, "")
		if err != nil {
			return departure, err
		}
		departure.Succeeded = exists
		departure.Disbanded = !exists
	}

	return departure, nil
}

// RemoveMemberFromTribes drops the user from every tribe of the guild after they left it.
func (c *Controller) RemoveMemberFromTribes(ctx context.Context, guildID, userID string) ([]*Departure, error) {
	joined, err := c.MemberTribes(ctx, guildID, userID)
	if err != nil {
		return nil, err
	}
	managed, err := c.StaffTribes(ctx, guildID, userID)
	if err != nil {
		return nil, err
	}

	var departures []*Departure
	seen := make(map[uint]bool)

	for _, tribe := range append(joined, managed...) {
		if seen[tribe.ID] {
			continue
		}
		seen[tribe.ID] = true

		tribe := tribe
		wasLeader := userID == tribe.LeaderID

		exists, err := c.ExitTribe(ctx, &tribe, userID)
		if err != nil {
			return departures, err
		}

		departure := &Departure{
			Tribe:     &tribe,
			Removed:   []string{userID},
			Succeeded: wasLeader && exists,
			Disbanded: !exists,
		}

		departures = append(departures, departure)
	}

	return departures, nil
}

// MonitorGuilds walks every stored guild. Guilds the bot lost are removed, tribes of the
// others are pruned. Errors on one guild do not stop the walk.
func (c *Controller) MonitorGuilds(ctx context.Context, guilds GuildDirectory) ([]*Departure, error) {
	configs, err := c.store.Guilds.All(ctx)
	if err != nil {
		return nil, err
	}

	var departures []*Departure

	for _, config := range configs {
		if ctx.Err() != nil {
			return departures, ctx.Err()
		}

		if !guilds.HasGuild(config.GuildID) {
			if err := c.RemoveGuild(ctx, config.GuildID); err != nil {
				log.Printf("Could not remove guild %v: %v", config.GuildID, err)
			}
			continue
		}

		tribes, err := c.GuildTribes(ctx, config.GuildID)
		if err != nil {
			log.Printf("Could not load tribes of guild %v: %v", config.GuildID, err)
			continue
		}

		for i := range tribes {
			departure, err := c.PruneTribe(ctx, &tribes[i], guilds)
			if err != nil {
				log.Printf("Could not prune tribe %v: %v", tribes[i].ID, err)
				continue
			}
			if len(departure.Removed) > 0 || departure.Succeeded || departure.Disbanded {
				departures = append(departures, departure)
			}
		}
	}

	return departures, nil
}
