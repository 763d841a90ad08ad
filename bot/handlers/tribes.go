package handlers

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"tribalbot/bot/controllers"
	"tribalbot/bot/models"
	"tribalbot/bot/responses"
	"tribalbot/discordutils"
	"tribalbot/packages/trees"
	"tribalbot/utils"

	"github.com/bwmarrin/discordgo"
)

const (
	defaultLogLimit  = 10
	invalidImageText = "Your image url is invalid, please corroborate it. Also make sure that the url directs to an actual image and not a website that contains an image like imgur or tenor"
)

func (h *handler) memberCounts(ctx context.Context, tribes []models.Tribe) (map[uint]int, error) {
	counts := make(map[uint]int, len(tribes))
	for _, tribe := range tribes {
		members, err := h.ctrl.TribeMembers(ctx, tribe.ID)
		if err != nil {
			return nil, err
		}
		counts[tribe.ID] = members.Len()
	}
	return counts, nil
}

// category resolves the optional "category" option. A nil category means the default one.
func (h *handler) category(ctx context.Context, it *interaction) (*models.TribeCategory, bool) {
	name, _ := it.options().string("category")
	if name == "" {
		return nil, true
	}

	category, err := h.ctrl.Category(ctx, it.guildID(), name)
	switch {
	case errors.Is(err, controllers.ErrCategoryNotFound):
		it.reject(fmt.Sprintf("There's no category with name \"%s\", try a different category", name))
		return nil, false
	case err != nil:
		it.fail(err)
		return nil, false
	}

	return category, true
}

func (h *handler) tribeList(ctx context.Context, it *interaction) {
	category, ok := h.category(ctx, it)
	if !ok {
		return
	}

	tribes, err := h.ctrl.GuildTribes(ctx, it.guildID())
	if err != nil {
		it.fail(err)
		return
	}

	title := "Tribes"
	if category != nil {
		title = fmt.Sprintf("Tribes of %s", category.Name)

		filtered := tribes[:0]
		for _, tribe := range tribes {
			if tribe.CategoryKey() == category.ID {
				filtered = append(filtered, tribe)
			}
		}
		tribes = filtered
	}

	it.deferReply()

	counts, err := h.memberCounts(ctx, tribes)
	if err != nil {
		it.fail(err)
		return
	}

	it.sendEmbeds(tribeListEmbeds(title, tribes, counts))
}

func (h *handler) tribeCreate(ctx context.Context, it *interaction) {
	opts := it.options()
	guildID, userID := it.guildID(), it.userID()
	name, _ := opts.string("name")

	color := models.DefaultTribeColor
	if raw, ok := opts.string("color"); ok {
		parsed, err := utils.ParseColor(raw)
		if err != nil {
			it.reject("Invalid color, use the hex format like #5865F2")
			return
		}
		color = parsed
	}

	category, ok := h.category(ctx, it)
	if !ok {
		return
	}

	var categoryKey uint
	categoryName := ""
	if category != nil {
		categoryKey = category.ID
		categoryName = category.Name
	}

	conflict, err := h.ctrl.InCategory(ctx, guildID, userID, categoryKey)
	if err != nil {
		it.fail(err)
		return
	}
	if conflict {
		it.reject("You're already a member of a tribe in the selected category (or the default category)")
		return
	}

	_, err = h.ctrl.TribeByName(ctx, guildID, name)
	switch {
	case err == nil:
		it.reject(fmt.Sprintf("There's already a tribe with the name \"%s\"", name))
		return
	case !errors.Is(err, controllers.ErrTribeNotFound):
		it.fail(err)
		return
	}

	tribe, err := h.ctrl.CreateTribe(ctx, controllers.NewTribe{
		GuildID:  guildID,
		Name:     name,
		Color:    color,
		LeaderID: userID,
		Category: categoryName,
	})
	if err != nil {
		it.fail(err)
		return
	}

	discordutils.AddRole(it.s, guildID, userID, it.config.LeadersRoleID)
	h.cache.InvalidateGuild(ctx, guildID)
	h.cache.InvalidateUsers(ctx, guildID, userID)

	it.reply(fmt.Sprintf("Success! You've founded tribe %s with id: %d", tribe.Name, tribe.ID))
}

func (h *handler) myTribes(ctx context.Context, it *interaction) {
	tribes, err := h.ctrl.MemberTribes(ctx, it.guildID(), it.userID())
	if err != nil {
		it.fail(err)
		return
	}

	if len(tribes) == 0 {
		it.reply("You are not a part of any tribe yet, find one with /tribe-list")
		return
	}

	it.deferReply()

	embeds := make([]*discordgo.MessageEmbed, 0, len(tribes))
	for _, tribe := range tribes {
		members, err := h.ctrl.TribeMembers(ctx, tribe.ID)
		if err != nil {
			it.fail(err)
			return
		}
		embeds = append(embeds, tribeEmbed(tribe, members.IDs()))
	}

	it.sendEmbeds(embeds)
}

func (h *handler) setBanner(ctx context.Context, it *interaction) {
	tribe, ok := h.staffTribe(ctx, it)
	if !ok {
		return
	}

	opts := it.options()
	var update controllers.BannerUpdate

	if raw, ok := opts.string("color"); ok {
		color, err := utils.ParseColor(raw)
		if err != nil {
			it.reject("Invalid color, use the hex format like #5865F2")
			return
		}
		update.Color = &color
	}

	if description, ok := opts.string("description"); ok {
		if !it.config.AllowsBannerURLs() && utils.ContainsURL(description) {
			it.reject("This server does not allow links in banner descriptions")
			return
		}
		update.Description = &description
	}

	if raw, ok := opts.string("image"); ok {
		image, err := utils.ParseImageURL(raw)
		if err != nil {
			it.reject(invalidImageText)
			return
		}
		update.Image = &image
	} else if image, ok := opts.attachmentURL("image-file", it.i.ApplicationCommandData().Resolved); ok {
		update.Image = &image
	}

	if update.Color == nil && update.Description == nil && update.Image == nil {
		it.reject("You must select any of \"color\", \"description\" or \"image\"")
		return
	}

	if err := h.ctrl.UpdateBanner(ctx, tribe, update, it.userID()); err != nil {
		it.fail(err)
		return
	}

	members, err := h.ctrl.TribeMembers(ctx, tribe.ID)
	if err != nil {
		it.fail(err)
		return
	}

	resp := responses.Embeds(true, bannerEmbed(*tribe, it.config, members.Len()))
	resp.Data.Content = "Done! Your banner now looks like this"
	it.send(resp)
}

func (h *handler) banner(ctx context.Context, it *interaction) {
	tribe, ok := h.tribe(ctx, it)
	if !ok {
		return
	}

	members, err := h.ctrl.TribeMembers(ctx, tribe.ID)
	if err != nil {
		it.fail(err)
		return
	}

	it.send(responses.Embeds(false, bannerEmbed(*tribe, it.config, members.Len())))
}

func (h *handler) tribeKick(ctx context.Context, it *interaction) {
	tribe, ok := h.staffTribe(ctx, it)
	if !ok {
		return
	}

	memberID, _ := it.options().userID("member")
	switch memberID {
	case it.userID():
		it.reject("Don't kick yourself out, just exit the tribe...")
		return
	case tribe.LeaderID:
		it.reject("You cannot kick the leader of the tribe")
		return
	}

	err := h.ctrl.KickMember(ctx, tribe, memberID, it.userID())
	switch {
	case errors.Is(err, controllers.ErrNotMember):
		it.reject(fmt.Sprintf("%s is not a part of this tribe", utils.UserMention(memberID)))
		return
	case err != nil:
		it.fail(err)
		return
	}

	h.cache.InvalidateUsers(ctx, it.guildID(), memberID)

	it.reply(fmt.Sprintf("Done! %s has been kicked out the tribe", utils.UserMention(memberID)))
}

func (h *handler) tribeExit(ctx context.Context, it *interaction) {
	tribe, ok := h.tribe(ctx, it)
	if !ok {
		return
	}

	userID := it.userID()
	wasLeader := tribe.LeaderID == userID

	succeeded, err := h.ctrl.ExitTribe(ctx, tribe, userID)
	switch {
	case errors.Is(err, controllers.ErrNotMember):
		it.reject(fmt.Sprintf("You are not a part of **%s**", tribe.Name))
		return
	case err != nil:
		it.fail(err)
		return
	}

	h.cache.InvalidateUsers(ctx, it.guildID(), userID, tribe.LeaderID)
	if wasLeader {
		AnnounceSuccession(ctx, it.s, h.ctrl, tribe, userID, succeeded)
		if !succeeded {
			h.cache.InvalidateGuild(ctx, it.guildID())
		}
	}

	it.reply(fmt.Sprintf("Done! You are no longer a part of **%s**", tribe.Name))
}

func (h *handler) tribeSetManager(ctx context.Context, it *interaction) {
	tribe, ok := h.ledTribe(ctx, it)
	if !ok {
		return
	}

	managerID, _ := it.options().userID("new-manager")
	formerManagerID := tribe.ManagerID

	err := h.ctrl.SetManager(ctx, tribe, managerID, it.userID())
	switch {
	case errors.Is(err, controllers.ErrSelfTarget):
		it.reject("You cannot be the leader and the tribe's manager, appoint someone else")
		return
	case errors.Is(err, controllers.ErrAlreadyManager):
		it.reject(fmt.Sprintf("%s is already the manager of the tribe", utils.UserMention(managerID)))
		return
	case errors.Is(err, controllers.ErrNotMember):
		it.reject(fmt.Sprintf("%s is not a part of this tribe", utils.UserMention(managerID)))
		return
	case err != nil:
		it.fail(err)
		return
	}

	h.cache.InvalidateUsers(ctx, it.guildID(), managerID, formerManagerID)

	it.reply(fmt.Sprintf("Done! %s is now the tribe's manager", utils.UserMention(managerID)))
}

func (h *handler) tribeTransferLeadership(ctx context.Context, it *interaction) {
	tribe, ok := h.ledTribe(ctx, it)
	if !ok {
		return
	}

	leaderID, _ := it.options().userID("new-leader")
	formerLeaderID := tribe.LeaderID

	err := h.ctrl.TransferLeadership(ctx, tribe, leaderID)
	switch {
	case errors.Is(err, controllers.ErrSelfTarget):
		it.reject("You cannot target yourself with this command")
		return
	case errors.Is(err, controllers.ErrNotMember):
		it.reject(fmt.Sprintf("Error: %s is not a part of the tribe", utils.UserMention(leaderID)))
		return
	case err != nil:
		it.fail(err)
		return
	}

	it.deferReply()

	h.cache.InvalidateUsers(ctx, it.guildID(), formerLeaderID, leaderID)
	AnnounceSuccession(ctx, it.s, h.ctrl, tribe, formerLeaderID, true)

	it.reply(fmt.Sprintf("Done! you are no longer the leader of **%s** and %s is.", tribe.Name, utils.UserMention(leaderID)))
}

func (h *handler) tribeTree(ctx context.Context, it *interaction) {
	tribe, ok := h.tribe(ctx, it)
	if !ok {
		return
	}

	members, err := h.ctrl.TribeMembers(ctx, tribe.ID)
	if err != nil {
		it.fail(err)
		return
	}

	it.deferReply()

	guildID := it.guildID()
	names := make([]string, 0, members.Len())
	for _, memberID := range members.IDs() {
		if memberID == tribe.ManagerID {
			continue
		}
		// folded members only count, their names are never drawn
		if len(names) >= trees.MaxMembers {
			names = append(names, memberID)
			continue
		}
		names = append(names, discordutils.DisplayName(it.s, guildID, memberID))
	}

	manager := ""
	if tribe.HasManager() {
		manager = discordutils.DisplayName(it.s, guildID, tribe.ManagerID)
	}

	var buf bytes.Buffer
	tree := trees.TribeTree(discordutils.DisplayName(it.s, guildID, tribe.LeaderID), manager, names)
	if err := trees.DrawTree(&buf, tree, trees.DefaultLayout); err != nil {
		it.fail(err)
		return
	}

	resp := responses.Embeds(true)
	resp.Data.Content = fmt.Sprintf("Hierarchy of **%s**", tribe.Name)
	resp.Data.Files = []*discordgo.File{{
		Name:        "tree.png",
		ContentType: "image/png",
		Reader:      &buf,
	}}
	it.send(resp)
}

func (h *handler) tribeLog(ctx context.Context, it *interaction) {
	tribe, ok := h.staffTribe(ctx, it)
	if !ok {
		return
	}

	limit := defaultLogLimit
	if value, ok := it.options().int("limit"); ok {
		limit = int(value)
	}

	entries, err := h.ctrl.TribeLog(ctx, tribe.ID, limit)
	if err != nil {
		it.fail(err)
		return
	}

	it.send(responses.Embeds(true, logEmbed(*tribe, entries)))
}
