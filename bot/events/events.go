package events

import (
	"context"
	"log"
	"time"

	"tribalbot/bot/cache"
	"tribalbot/bot/controllers"
	"tribalbot/bot/handlers"

	"github.com/bwmarrin/discordgo"
)

const eventTimeout = time.Minute

// GuildMemberRemoveHandler takes a departed user out of every tribe of the guild and
// hands over the tribes they led.
func GuildMemberRemoveHandler(ctrl *controllers.Controller, c *cache.Cache) func(s *discordgo.Session, e *discordgo.GuildMemberRemove) {
	return func(s *discordgo.Session, e *discordgo.GuildMemberRemove) {
		if e.Member == nil || e.User == nil {
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), eventTimeout)
		defer cancel()

		departures, err := ctrl.RemoveMemberFromTribes(ctx, e.GuildID, e.User.ID)
		if err != nil {
			log.Printf("Failed to remove %v from the tribes of %v: %v", e.User.ID, e.GuildID, err)
		}
		if len(departures) == 0 {
			return
		}

		log.Printf("%v left %v, removed from %d tribes", e.User.ID, e.GuildID, len(departures))

		handleDepartures(ctx, s, ctrl, c, departures)
		c.InvalidateUsers(ctx, e.GuildID, e.User.ID)
	}
}

// handleDepartures announces the successions the departures caused. Departed users
// cannot be stripped of roles, so only new leaders are touched.
func handleDepartures(ctx context.Context, s *discordgo.Session, ctrl *controllers.Controller, c *cache.Cache, departures []*controllers.Departure) {
	for _, departure := range departures {
		tribe := departure.Tribe

		c.InvalidateUsers(ctx, tribe.GuildID, tribe.LeaderID, tribe.ManagerID)
		c.InvalidateUsers(ctx, tribe.GuildID, departure.Removed...)

		switch {
		case departure.Succeeded:
			handlers.AnnounceSuccession(ctx, s, ctrl, tribe, "", true)
		case departure.Disbanded:
			log.Printf("Tribe %v of %v was disbanded, nobody was left to lead it", tribe.Name, tribe.GuildID)
			c.InvalidateGuild(ctx, tribe.GuildID)
		}
	}
}

// GuildDeleteHandler drops the guild data once the bot is removed. Outages also emit
// the event with Unavailable set and are ignored.
func GuildDeleteHandler(ctrl *controllers.Controller, c *cache.Cache) func(s *discordgo.Session, e *discordgo.GuildDelete) {
	return func(s *discordgo.Session, e *discordgo.GuildDelete) {
		if e.Guild == nil || e.Unavailable {
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), eventTimeout)
		defer cancel()

		if err := ctrl.RemoveGuild(ctx, e.ID); err != nil {
			log.Printf("Failed to remove configuration of %v: %v", e.ID, err)
			return
		}

		c.InvalidateGuild(ctx, e.ID)
		log.Printf("Removed configuration of %v", e.ID)
	}
}

// MonitorDepartures is the Departure hook of the periodic tribe monitor.
func MonitorDepartures(ctrl *controllers.Controller, c *cache.Cache) func(s *discordgo.Session, departures []*controllers.Departure) {
	return func(s *discordgo.Session, departures []*controllers.Departure) {
		ctx, cancel := context.WithTimeout(context.Background(), eventTimeout)
		defer cancel()

		handleDepartures(ctx, s, ctrl, c, departures)
	}
}
