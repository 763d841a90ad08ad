package handlers

import (
	"context"
	"log"
	"time"

	"tribalbot/bot/cache"
	"tribalbot/bot/controllers"
	"tribalbot/bot/metrics"
	"tribalbot/bot/models"
	"tribalbot/bot/responses"

	"github.com/bwmarrin/discordgo"
)

// commandTimeout bounds the storage work of a single interaction.
const commandTimeout = 30 * time.Second

type CommandHandler = func(s *discordgo.Session, i *discordgo.InteractionCreate)

type handler struct {
	ctrl  *controllers.Controller
	cache *cache.Cache
}

func InteractionCreateHandler(ctrl *controllers.Controller, cache *cache.Cache) func(s *discordgo.Session, i *discordgo.InteractionCreate) {
	h := &handler{ctrl: ctrl, cache: cache}

	commandHandlers := h.commandHandlers()
	autocompleteHandlers := h.autocompleteSources()

	return func(s *discordgo.Session, i *discordgo.InteractionCreate) {
		switch i.Type {
		case discordgo.InteractionApplicationCommand:
			// If command handler exists
			if commandHandler, ok := commandHandlers[i.ApplicationCommandData().Name]; ok {
				commandHandler(s, i)
			}
		case discordgo.InteractionApplicationCommandAutocomplete:
			h.autocomplete(s, i, autocompleteHandlers)
		}
	}
}

func (h *handler) commandHandlers() map[string]CommandHandler {
	return map[string]CommandHandler{
		"tribe-list":                h.command("tribe-list", h.requireLeadersRole(h.tribeList)),
		"tribe-create":              h.command("tribe-create", h.requireLeadersRole(h.tribeCreate)),
		"tribe-join":                h.command("tribe-join", h.requireLeadersRole(h.tribeJoin)),
		"tribe-applications":        h.command("tribe-applications", h.requireLeadersRole(h.tribeApplications)),
		"tribe-accept":              h.command("tribe-accept", h.requireLeadersRole(h.tribeAccept)),
		"tribe-deny":                h.command("tribe-deny", h.requireLeadersRole(h.tribeDeny)),
		"my-tribes":                 h.command("my-tribes", h.requireLeadersRole(h.myTribes)),
		"set-banner":                h.command("set-banner", h.requireLeadersRole(h.setBanner)),
		"banner":                    h.command("banner", h.requireLeadersRole(h.banner)),
		"tribe-kick":                h.command("tribe-kick", h.requireLeadersRole(h.tribeKick)),
		"tribe-exit":                h.command("tribe-exit", h.requireLeadersRole(h.tribeExit)),
		"tribe-set-manager":         h.command("tribe-set-manager", h.requireLeadersRole(h.tribeSetManager)),
		"tribe-transfer-leadership": h.command("tribe-transfer-leadership", h.requireLeadersRole(h.tribeTransferLeadership)),
		"tribe-tree":                h.command("tribe-tree", h.requireLeadersRole(h.tribeTree)),
		"tribe-log":                 h.command("tribe-log", h.requireLeadersRole(h.tribeLog)),
		"tribe-force-disband":       h.command("tribe-force-disband", h.requirePermission(discordgo.PermissionManageServer, h.tribeForceDisband)),
		"config":                    h.command("config", h.requirePermission(discordgo.PermissionManageServer, h.config)),
	}
}

// interaction carries one command invocation and remembers whether it was acknowledged,
// so the first reply goes out as the response and the rest as followups.
type interaction struct {
	s            *discordgo.Session
	i            *discordgo.InteractionCreate
	acknowledged bool
	outcome      string
	// config is loaded by the leaders role guard.
	config *models.GuildConfig
}

type commandFunc func(ctx context.Context, it *interaction)

func (h *handler) command(name string, fn commandFunc) CommandHandler {
	return func(s *discordgo.Session, i *discordgo.InteractionCreate) {
		ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
		defer cancel()

		it := &interaction{s: s, i: i, outcome: metrics.OutcomeOK}
		fn(ctx, it)

		metrics.InteractionsTotal.WithLabelValues(name, it.outcome).Inc()
	}
}

func (it *interaction) guildID() string {
	return it.i.GuildID
}

func (it *interaction) userID() string {
	if it.i.Member != nil && it.i.Member.User != nil {
		return it.i.Member.User.ID
	}
	if it.i.User != nil {
		return it.i.User.ID
	}
	return ""
}

func (it *interaction) options() optionMap {
	return newOptionMap(it.i.ApplicationCommandData().Options)
}

// deferReply acknowledges the interaction before slow work.
func (it *interaction) deferReply() {
	if err := it.s.InteractionRespond(it.i.Interaction, responses.DeferredEphemeralResponse); err != nil {
		log.Printf("Could not defer interaction: %v", err)
		return
	}
	it.acknowledged = true
}

func (it *interaction) send(resp *discordgo.InteractionResponse) {
	var err error

	if it.acknowledged {
		_, err = it.s.FollowupMessageCreate(it.i.Interaction, true, &discordgo.WebhookParams{
			Content: resp.Data.Content,
			Embeds:  resp.Data.Embeds,
			Files:   resp.Data.Files,
			Flags:   resp.Data.Flags,
		})
	} else if err = it.s.InteractionRespond(it.i.Interaction, resp); err == nil {
		it.acknowledged = true
	}

	if err != nil {
		log.Printf("Could not respond to interaction: %v", err)
	}
}

// sendEmbeds splits the embeds over as many ephemeral messages as needed.
func (it *interaction) sendEmbeds(embeds []*discordgo.MessageEmbed) {
	for _, message := range embedMessages(embeds) {
		it.send(responses.Embeds(true, message...))
	}
}

func (it *interaction) reply(content string) {
	it.send(responses.Ephemeral(content))
}

// reject answers a request that failed validation.
func (it *interaction) reject(content string) {
	it.outcome = metrics.OutcomeRejected
	it.send(responses.Ephemeral(content))
}

// fail logs an unexpected error and answers with the generic error message.
func (it *interaction) fail(err error) {
	log.Printf("Command %v failed in %v: %v", it.i.ApplicationCommandData().Name, it.guildID(), err)
	it.outcome = metrics.OutcomeError
	it.send(responses.GenericErrorResponse)
}
