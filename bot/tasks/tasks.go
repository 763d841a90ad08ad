package tasks

import (
	"context"
	"log"
	"time"

	"tribalbot/bot/cache"
	"tribalbot/bot/controllers"
	"tribalbot/config"
	"tribalbot/discordutils"

	"github.com/bwmarrin/discordgo"
	"github.com/go-co-op/gocron"
)

// sessionDirectory answers guild questions from the session state, falling back to the API.
type sessionDirectory struct {
	s *discordgo.Session
}

func (d sessionDirectory) HasGuild(guildID string) bool {
	if _, err := d.s.State.Guild(guildID); err == nil {
		return true
	}

	_, err := d.s.Guild(guildID)
	if err == nil {
		return true
	}

	var unknown bool
	if restErr, ok := err.(*discordgo.RESTError); ok && restErr.Message != nil {
		unknown = restErr.Message.Code == discordgo.ErrCodeUnknownGuild || restErr.Message.Code == discordgo.ErrCodeMissingAccess
	}
	if !unknown {
		log.Printf("Could not check access to %v: %v", guildID, err)
	}

	return !unknown
}

func (d sessionDirectory) HasMember(guildID, userID string) bool {
	return discordutils.HasMember(d.s, guildID, userID)
}

// TribeMonitor prunes tribes of members who left and removes guilds the bot lost.
// onDepartures runs with whatever the sweep changed.
func TribeMonitor(ctrl *controllers.Controller, s *discordgo.Session, timeout time.Duration, onDepartures func(s *discordgo.Session, departures []*controllers.Departure)) func() {
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		departures, err := ctrl.MonitorGuilds(ctx, sessionDirectory{s: s})
		if err != nil {
			log.Printf("An error occurred while monitoring tribes: %v", err)
		}

		if len(departures) > 0 {
			log.Printf("Tribe monitor changed %d tribes", len(departures))
			onDepartures(s, departures)
		}
	}
}

func CacheSweep(c *cache.Cache) func() {
	return func() {
		removed, err := c.Sweep(context.Background())
		if err != nil {
			log.Printf("An error occurred while sweeping the autocomplete cache: %v", err)
			return
		}

		if removed > 0 {
			log.Printf("Swept %d autocomplete entries", removed)
		}
	}
}

// NewScheduler registers the periodic jobs. The caller starts and stops it.
func NewScheduler(cfg *config.Config, ctrl *controllers.Controller, s *discordgo.Session, c *cache.Cache, onDepartures func(s *discordgo.Session, departures []*controllers.Departure)) (*gocron.Scheduler, error) {
	scheduler := gocron.NewScheduler(time.UTC)
	scheduler.SingletonModeAll()

	if _, err := scheduler.Every(cfg.MonitorInterval).Do(TribeMonitor(ctrl, s, cfg.MonitorInterval, onDepartures)); err != nil {
		return nil, err
	}

	if _, err := scheduler.Every(cfg.CacheSweepInterval).Do(CacheSweep(c)); err != nil {
		return nil, err
	}

	return scheduler, nil
}
