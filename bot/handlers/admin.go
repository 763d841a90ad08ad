package handlers

import (
	"context"
	"errors"
	"fmt"

	"tribalbot/bot/controllers"
	"tribalbot/bot/responses"
	"tribalbot/discordutils"
	"tribalbot/utils"

	"github.com/bwmarrin/discordgo"
)

func (h *handler) tribeForceDisband(ctx context.Context, it *interaction) {
	tribe, ok := h.tribe(ctx, it)
	if !ok {
		return
	}

	config, err := h.ctrl.GuildConfig(ctx, it.guildID())
	if err != nil {
		it.fail(err)
		return
	}

	if err := h.ctrl.ForceDisband(ctx, tribe); err != nil {
		it.fail(err)
		return
	}

	h.cache.InvalidateGuild(ctx, it.guildID())
	h.cache.InvalidateUsers(ctx, it.guildID(), tribe.LeaderID, tribe.ManagerID)

	releaseLeadersRole(ctx, it.s, h.ctrl, it.guildID(), config.LeadersRoleID, tribe.LeaderID)
	discordutils.NotifyUsers(it.s, disbandedEmbed(discordutils.GuildName(it.s, it.guildID()), tribe.Name), tribe.LeaderID, tribe.ManagerID)

	it.reply(fmt.Sprintf("Done! the tribe \"**%s**\" has been deleted.", tribe.Name))
}

// config dispatches the subcommands and subcommand groups of /config.
func (h *handler) config(ctx context.Context, it *interaction) {
	options := it.i.ApplicationCommandData().Options
	if len(options) == 0 {
		return
	}

	subCommand := options[0]
	name := subCommand.Name
	if subCommand.Type == discordgo.ApplicationCommandOptionSubCommandGroup && len(subCommand.Options) > 0 {
		subCommand = subCommand.Options[0]
		name += " " + subCommand.Name
	}
	opts := newOptionMap(subCommand.Options)

	switch name {
	case "list":
		h.configList(ctx, it)
	case "set leaders_role":
		roleID, _ := opts.roleID("role")
		if err := h.ctrl.SetLeadersRole(ctx, it.guildID(), roleID); err != nil {
			it.fail(err)
			return
		}
		it.reply(fmt.Sprintf("Done! The new Leaders role is %s", utils.RoleMention(roleID)))
	case "set banner_urls":
		allowed, _ := opts.bool("allowed")
		if err := h.ctrl.SetBannerURLs(ctx, it.guildID(), allowed); err != nil {
			it.fail(err)
			return
		}
		if allowed {
			it.reply("Done! Banner descriptions may contain links")
		} else {
			it.reply("Done! Links in banner descriptions will be hidden")
		}
	case "category create":
		categoryName, _ := opts.string("name")
		category, err := h.ctrl.CreateCategory(ctx, it.guildID(), categoryName)
		switch {
		case errors.Is(err, controllers.ErrCategoryExists):
			it.reject(fmt.Sprintf("The category \"%s\" already exists", categoryName))
			return
		case err != nil:
			it.fail(err)
			return
		}
		h.cache.InvalidateGuild(ctx, it.guildID())
		it.reply(fmt.Sprintf("The category \"%s\" was successfully created with id %d", category.Name, category.ID))
	}
}

func (h *handler) configList(ctx context.Context, it *interaction) {
	config, err := h.ctrl.GuildConfig(ctx, it.guildID())
	if err != nil {
		it.fail(err)
		return
	}

	categories, err := h.ctrl.Categories(ctx, it.guildID())
	if err != nil {
		it.fail(err)
		return
	}

	it.send(responses.Embeds(true, configEmbed(config, categories)))
}
