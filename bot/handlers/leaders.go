package handlers

import (
	"context"
	"log"

	"tribalbot/bot/controllers"
	"tribalbot/bot/models"
	"tribalbot/discordutils"

	"github.com/bwmarrin/discordgo"
)

// AnnounceSuccession runs after a tribe changed hands. When it succeeded the new leader
// receives the leaders role and a DM. The former leader keeps the role only while they
// still lead some tribe of the guild, an empty formerLeaderID leaves roles untouched.
func AnnounceSuccession(ctx context.Context, s *discordgo.Session, ctrl *controllers.Controller, tribe *models.Tribe, formerLeaderID string, succeeded bool) {
	config, err := ctrl.GuildConfig(ctx, tribe.GuildID)
	if err != nil {
		log.Printf("Could not load config of %v: %v", tribe.GuildID, err)
		return
	}

	if succeeded {
		discordutils.AddRole(s, tribe.GuildID, tribe.LeaderID, config.LeadersRoleID)
		discordutils.NotifyUsers(s, newLeaderEmbed(discordutils.GuildName(s, tribe.GuildID), tribe.Name), tribe.LeaderID)
	}

	releaseLeadersRole(ctx, s, ctrl, tribe.GuildID, config.LeadersRoleID, formerLeaderID)
}

func releaseLeadersRole(ctx context.Context, s *discordgo.Session, ctrl *controllers.Controller, guildID, roleID, userID string) {
	if userID == "" || roleID == "" {
		return
	}

	led, err := ctrl.LeaderTribes(ctx, guildID, userID)
	if err != nil {
		log.Printf("Could not list tribes led by %v: %v", userID, err)
		return
	}

	if len(led) == 0 {
		discordutils.RemoveRole(s, guildID, userID, roleID)
	}
}
