package handlers

import (
	"context"
	"errors"
	"fmt"

	"tribalbot/bot/controllers"
	"tribalbot/bot/models"
	"tribalbot/bot/responses"
	"tribalbot/bot/store"
	"tribalbot/discordutils"
	"tribalbot/utils"

	"github.com/bwmarrin/discordgo"
)

func (h *handler) tribeJoin(ctx context.Context, it *interaction) {
	tribe, ok := h.tribe(ctx, it)
	if !ok {
		return
	}

	userID := it.userID()

	tribes, err := h.ctrl.MemberTribes(ctx, it.guildID(), userID)
	if err != nil {
		it.fail(err)
		return
	}
	for _, joined := range tribes {
		if joined.ID == tribe.ID {
			it.reject("You are already part of this tribe")
			return
		}
	}

	existing, err := h.ctrl.ApplicationFor(ctx, tribe.ID, userID)
	if err != nil {
		it.fail(err)
		return
	}
	if existing != nil {
		it.reject("You already have an application to enter this tribe, wait for the tribe staff to accept or deny it")
		return
	}

	application, err := h.ctrl.CreateJoinApplication(ctx, tribe, userID)
	if err != nil {
		it.fail(err)
		return
	}
	if application == nil {
		it.reject(fmt.Sprintf("Application error: You are already a member of a tribe in this tribe's category (%s)", categoryName(*tribe)))
		return
	}

	embed := newApplicationEmbed(discordutils.GuildName(it.s, it.guildID()), *tribe, application)
	discordutils.NotifyUsers(it.s, embed, tribe.LeaderID, tribe.ManagerID)

	it.reply(fmt.Sprintf("Done! you've created an application to enter \"%s\", the tribe has been notified.", tribe.Name))
}

func (h *handler) tribeApplications(ctx context.Context, it *interaction) {
	tribe, ok := h.staffTribe(ctx, it)
	if !ok {
		return
	}

	applications, err := h.ctrl.TribeApplications(ctx, tribe.ID)
	if err != nil {
		it.fail(err)
		return
	}

	it.send(responses.Embeds(true, applicationsEmbed(*tribe, applications)))
}

// application loads the pending application of the "member" option to a tribe the
// invoking user manages.
func (h *handler) application(ctx context.Context, it *interaction) (*models.Tribe, *models.TribeJoinApplication, bool) {
	tribe, ok := h.staffTribe(ctx, it)
	if !ok {
		return nil, nil, false
	}

	applicantID, _ := it.options().userID("member")

	application, err := h.ctrl.ApplicationFor(ctx, tribe.ID, applicantID)
	if err != nil {
		it.fail(err)
		return nil, nil, false
	}
	if application == nil {
		it.reject(fmt.Sprintf("%s has no pending application to **%s**", utils.UserMention(applicantID), tribe.Name))
		return nil, nil, false
	}

	return tribe, application, true
}

func (h *handler) tribeAccept(ctx context.Context, it *interaction) {
	tribe, application, ok := h.application(ctx, it)
	if !ok {
		return
	}

	applicant := utils.UserMention(application.ApplicantID)

	err := h.ctrl.AcceptApplication(ctx, application, it.userID())
	switch {
	case errors.Is(err, controllers.ErrBadTribeCategory):
		it.reject(fmt.Sprintf("%s already belongs to a tribe in this tribe's category (%s), the application stays pending", applicant, categoryName(*tribe)))
		return
	case errors.Is(err, store.ErrNotFound), errors.Is(err, controllers.ErrTribeNotFound):
		it.reject("This application was already handled")
		return
	case err != nil:
		it.fail(err)
		return
	}

	h.cache.InvalidateUsers(ctx, it.guildID(), application.ApplicantID)

	discordutils.NotifyUsers(it.s, &discordgo.MessageEmbed{
		Description: fmt.Sprintf("You have been accepted into **%s** in the server **%s**", tribe.Name, discordutils.GuildName(it.s, it.guildID())),
		Color:       tribe.Color,
	}, application.ApplicantID)

	it.reply(fmt.Sprintf("Done! %s is now a member of **%s**", applicant, tribe.Name))
}

func (h *handler) tribeDeny(ctx context.Context, it *interaction) {
	tribe, application, ok := h.application(ctx, it)
	if !ok {
		return
	}

	if err := h.ctrl.DenyApplication(ctx, application, it.userID()); err != nil {
		it.fail(err)
		return
	}

	it.reply(fmt.Sprintf("Done! the application of %s to **%s** was denied", utils.UserMention(application.ApplicantID), tribe.Name))
}
