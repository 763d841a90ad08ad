package handlers

import (
	"context"
	"log"

	"tribalbot/bot/cache"
	"tribalbot/bot/models"
	"tribalbot/bot/responses"

	"github.com/bwmarrin/discordgo"
)

// autocompleteSource is where the choices of an option come from.
type autocompleteSource struct {
	bucket string
	// perUser sources are keyed by guild and user, the rest by guild.
	perUser bool
	fetch   func(ctx context.Context, guildID, userID string) ([]string, error)
}

func (src autocompleteSource) key(guildID, userID string) string {
	if src.perUser {
		return cache.GuildUserKey(guildID, userID)
	}
	return guildID
}

func tribeNames(tribes []models.Tribe) []string {
	names := make([]string, len(tribes))
	for i, tribe := range tribes {
		names[i] = tribe.Name
	}
	return names
}

func tribeSource(bucket string, perUser bool, list func(ctx context.Context, guildID, userID string) ([]models.Tribe, error)) autocompleteSource {
	return autocompleteSource{
		bucket:  bucket,
		perUser: perUser,
		fetch: func(ctx context.Context, guildID, userID string) ([]string, error) {
			tribes, err := list(ctx, guildID, userID)
			if err != nil {
				return nil, err
			}
			return tribeNames(tribes), nil
		},
	}
}

func (h *handler) categorySource() autocompleteSource {
	return autocompleteSource{
		bucket: cache.BucketCategories,
		fetch: func(ctx context.Context, guildID, _ string) ([]string, error) {
			categories, err := h.ctrl.Categories(ctx, guildID)
			if err != nil {
				return nil, err
			}

			names := make([]string, len(categories))
			for i, category := range categories {
				names[i] = category.Name
			}
			return names, nil
		},
	}
}

// autocompleteSources maps each command to the tribes its "name" option offers.
func (h *handler) autocompleteSources() map[string]autocompleteSource {
	guildTribes := tribeSource(cache.BucketGuildTribes, false, func(ctx context.Context, guildID, _ string) ([]models.Tribe, error) {
		return h.ctrl.GuildTribes(ctx, guildID)
	})
	staffTribes := tribeSource(cache.BucketStaffTribes, true, h.ctrl.StaffTribes)
	memberTribes := tribeSource(cache.BucketMemberTribes, true, h.ctrl.MemberTribes)
	leaderTribes := tribeSource(cache.BucketLeaderTribes, true, h.ctrl.LeaderTribes)

	return map[string]autocompleteSource{
		"tribe-join":                guildTribes,
		"banner":                    guildTribes,
		"tribe-tree":                guildTribes,
		"tribe-force-disband":       guildTribes,
		"tribe-applications":        staffTribes,
		"tribe-accept":              staffTribes,
		"tribe-deny":                staffTribes,
		"set-banner":                staffTribes,
		"tribe-kick":                staffTribes,
		"tribe-log":                 staffTribes,
		"tribe-exit":                memberTribes,
		"tribe-set-manager":         leaderTribes,
		"tribe-transfer-leadership": leaderTribes,
	}
}

func (h *handler) autocomplete(s *discordgo.Session, i *discordgo.InteractionCreate, sources map[string]autocompleteSource) {
	data := i.ApplicationCommandData()

	opt := focused(data.Options)
	if opt == nil {
		return
	}

	var source autocompleteSource
	var ok bool
	switch opt.Name {
	case "category":
		source, ok = h.categorySource(), true
	case "name":
		source, ok = sources[data.Name]
	}
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	it := &interaction{s: s, i: i}
	guildID, userID := it.guildID(), it.userID()

	choices, err := h.cache.Lookup(ctx, source.bucket, source.key(guildID, userID), opt.StringValue(), func(ctx context.Context) ([]string, error) {
		return source.fetch(ctx, guildID, userID)
	})
	if err != nil {
		log.Printf("Could not autocomplete %v for %v: %v", data.Name, userID, err)
	}

	if err := s.InteractionRespond(i.Interaction, responses.Choices(choices)); err != nil {
		log.Printf("Could not respond to autocomplete: %v", err)
	}
}
