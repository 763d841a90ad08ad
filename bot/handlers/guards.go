package handlers

import (
	"context"
	"errors"
	"fmt"

	"tribalbot/bot/controllers"
	"tribalbot/bot/models"
	"tribalbot/discordutils"
	"tribalbot/utils"
)

const (
	leadersRoleMissingText = "The command failed because the leaders role is not configured, talk to your server admins"
	leadersRoleAboveText   = "The bot's top role is below the (or is) leaders role. Talk to your server admins"
)

// requireLeadersRole refuses to run tribe commands until the guild has a leaders role
// the bot is able to hand out.
func (h *handler) requireLeadersRole(next commandFunc) commandFunc {
	return func(ctx context.Context, it *interaction) {
		config, err := h.ctrl.GuildConfig(ctx, it.guildID())
		if err != nil {
			it.fail(err)
			return
		}

		if config.LeadersRoleID == "" {
			it.reject(leadersRoleMissingText)
			return
		}

		role := discordutils.GuildRole(it.s, it.guildID(), config.LeadersRoleID)
		if role == nil {
			it.reject(leadersRoleMissingText)
			return
		}
		if !discordutils.BotCanAssign(it.s, it.guildID(), role) {
			it.reject(leadersRoleAboveText)
			return
		}

		it.config = config
		next(ctx, it)
	}
}

func (h *handler) requirePermission(permission int64, next commandFunc) commandFunc {
	return func(ctx context.Context, it *interaction) {
		if !utils.MemberHasPermission(it.i.Member, permission) {
			it.reject("You don't have permission to use this command")
			return
		}

		next(ctx, it)
	}
}

// tribe loads the tribe named by the "name" option.
func (h *handler) tribe(ctx context.Context, it *interaction) (*models.Tribe, bool) {
	name, _ := it.options().string("name")

	tribe, err := h.ctrl.TribeByName(ctx, it.guildID(), name)
	switch {
	case errors.Is(err, controllers.ErrTribeNotFound):
		it.reject(fmt.Sprintf("There's no tribe with the name \"%s\"", name))
		return nil, false
	case err != nil:
		it.fail(err)
		return nil, false
	}

	return tribe, true
}

// staffTribe is tribe restricted to its leader and manager.
func (h *handler) staffTribe(ctx context.Context, it *interaction) (*models.Tribe, bool) {
	tribe, ok := h.tribe(ctx, it)
	if !ok {
		return nil, false
	}

	if !tribe.IsStaff(it.userID()) {
		it.reject("You cannot manage this tribe")
		return nil, false
	}

	return tribe, true
}

// ledTribe is tribe restricted to its leader.
func (h *handler) ledTribe(ctx context.Context, it *interaction) (*models.Tribe, bool) {
	tribe, ok := h.tribe(ctx, it)
	if !ok {
		return nil, false
	}

	if tribe.LeaderID != it.userID() {
		it.reject("You are not the leader of this tribe")
		return nil, false
	}

	return tribe, true
}
