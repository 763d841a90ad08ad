package handlers

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"tribalbot/bot/models"
	"tribalbot/utils"

	"github.com/bwmarrin/discordgo"
	"github.com/dustin/go-humanize"
)

// Discord refuses messages past these limits, counted in characters.
const (
	maxEmbeds        = 10
	maxFieldValue    = 1024
	maxDescription   = 4096
	maxMessageLength = 6000
)

const (
	tribesPerEmbed    = 15
	noDescription     = "description empty"
	disallowedURLText = "Guild Settings disallow urls which the banner description contains. Talk to the server admins."
)

const (
	colorGold  = 0xF1C40F
	colorBlack = 0x000000
)

func categoryName(tribe models.Tribe) string {
	if tribe.Category == nil {
		return "Default"
	}
	return tribe.Category.Name
}

// fold joins items with sep, replacing the tail that does not fit in limit with "+N more".
func fold(items []string, sep string, limit int) string {
	joined := strings.Join(items, sep)
	if utf8.RuneCountInString(joined) <= limit {
		return joined
	}

	length := 0
	for i, item := range items {
		next := length + utf8.RuneCountInString(item)
		if i > 0 {
			next += utf8.RuneCountInString(sep)
		}

		tail := fmt.Sprintf("%s+%d more", sep, len(items)-i-1)
		if next+utf8.RuneCountInString(tail) > limit {
			more := fmt.Sprintf("+%d more", len(items)-i)
			if i == 0 {
				return more
			}
			return strings.Join(items[:i], sep) + sep + more
		}

		length = next
	}

	return joined
}

func embedLength(embed *discordgo.MessageEmbed) int {
	n := utf8.RuneCountInString(embed.Title) + utf8.RuneCountInString(embed.Description)
	if embed.Footer != nil {
		n += utf8.RuneCountInString(embed.Footer.Text)
	}
	if embed.Author != nil {
		n += utf8.RuneCountInString(embed.Author.Name)
	}
	for _, field := range embed.Fields {
		n += utf8.RuneCountInString(field.Name) + utf8.RuneCountInString(field.Value)
	}
	return n
}

// embedMessages groups embeds into messages Discord accepts.
func embedMessages(embeds []*discordgo.MessageEmbed) [][]*discordgo.MessageEmbed {
	var messages [][]*discordgo.MessageEmbed
	var current []*discordgo.MessageEmbed
	length := 0

	for _, embed := range embeds {
		n := embedLength(embed)
		if len(current) == maxEmbeds || (len(current) > 0 && length+n > maxMessageLength) {
			messages = append(messages, current)
			current, length = nil, 0
		}
		current = append(current, embed)
		length += n
	}
	if len(current) > 0 {
		messages = append(messages, current)
	}

	return messages
}

func memberList(members []string) string {
	if len(members) == 0 {
		return "None yet"
	}

	mentions := make([]string, len(members))
	for i, member := range members {
		mentions[i] = utils.UserMention(member)
	}

	return fold(mentions, "\n", maxFieldValue)
}

func tribeEmbed(tribe models.Tribe, members []string) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title: tribe.Name,
		Color: tribe.Color,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Leader", Value: utils.UserMention(tribe.LeaderID), Inline: true},
			{Name: "Category", Value: categoryName(tribe), Inline: true},
		},
		Footer: &discordgo.MessageEmbedFooter{
			Text: fmt.Sprintf("id: %d, founded %s", tribe.ID, humanize.Time(tribe.CreatedAt)),
		},
	}

	if tribe.HasManager() {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{Name: "Manager", Value: utils.UserMention(tribe.ManagerID)})
	}
	embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{Name: "Members", Value: memberList(members)})

	if tribe.Banner.Image != "" {
		embed.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: tribe.Banner.Image}
	}

	return embed
}

// bannerEmbed hides descriptions with links when the guild forbids them.
func bannerEmbed(tribe models.Tribe, config *models.GuildConfig, memberCount int) *discordgo.MessageEmbed {
	description := tribe.Banner.Description
	switch {
	case description == "":
		description = noDescription
	case !config.AllowsBannerURLs() && utils.ContainsURL(description):
		description = disallowedURLText
	}

	embed := &discordgo.MessageEmbed{
		Title:       tribe.Name,
		Color:       tribe.Color,
		Description: description,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Leader", Value: utils.UserMention(tribe.LeaderID), Inline: true},
			// the leader counts as a member
			{Name: "Members", Value: humanize.Comma(int64(memberCount + 1)), Inline: true},
		},
	}

	if tribe.Banner.Image != "" {
		embed.Image = &discordgo.MessageEmbedImage{URL: tribe.Banner.Image}
	}

	return embed
}

// tribeListEmbeds pages the tribes, starting a new embed every tribesPerEmbed lines or
// when the description would grow too long.
func tribeListEmbeds(title string, tribes []models.Tribe, memberCounts map[uint]int) []*discordgo.MessageEmbed {
	if len(tribes) == 0 {
		return []*discordgo.MessageEmbed{{Title: title, Description: "No tribes yet"}}
	}

	var pages [][]string
	var lines []string
	length := 0

	for _, tribe := range tribes {
		line := fmt.Sprintf("**%s** (%s) led by %s, %s members",
			tribe.Name, categoryName(tribe), utils.UserMention(tribe.LeaderID), humanize.Comma(int64(memberCounts[tribe.ID]+1)))
		n := utf8.RuneCountInString(line) + 1

		if len(lines) == tribesPerEmbed || (len(lines) > 0 && length+n > maxDescription) {
			pages = append(pages, lines)
			lines, length = nil, 0
		}
		lines = append(lines, line)
		length += n
	}
	pages = append(pages, lines)

	embeds := make([]*discordgo.MessageEmbed, len(pages))
	for i, page := range pages {
		embeds[i] = &discordgo.MessageEmbed{
			Title:       title,
			Description: strings.Join(page, "\n"),
			Footer:      &discordgo.MessageEmbedFooter{Text: fmt.Sprintf("Page %d of %d", i+1, len(pages))},
		}
	}

	return embeds
}

func applicationsEmbed(tribe models.Tribe, applications []models.TribeJoinApplication) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title: fmt.Sprintf("Join applications for %s", tribe.Name),
		Color: tribe.Color,
	}

	if len(applications) == 0 {
		embed.Description = "There are no pending applications"
		return embed
	}

	lines := make([]string, len(applications))
	for i, application := range applications {
		lines[i] = fmt.Sprintf("%s applied %s", utils.UserMention(application.ApplicantID), humanize.Time(application.CreatedAt))
	}
	embed.Description = fold(lines, "\n", maxDescription)
	embed.Footer = &discordgo.MessageEmbedFooter{Text: "Review them with /tribe-accept and /tribe-deny"}

	return embed
}

func logEmbed(tribe models.Tribe, entries []models.LogEntry) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title: fmt.Sprintf("Latest events of %s", tribe.Name),
		Color: tribe.Color,
	}

	if len(entries) == 0 {
		embed.Description = "Nothing happened yet"
		return embed
	}

	lines := make([]string, len(entries))
	for i, entry := range entries {
		lines[i] = fmt.Sprintf("%s: %s", humanize.Time(entry.CreatedAt), entry.Text)
	}
	embed.Description = fold(lines, "\n", maxDescription)

	return embed
}

func newApplicationEmbed(guildName string, tribe models.Tribe, application *models.TribeJoinApplication) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title: "New Tribe Join Application",
		Color: tribe.Color,
		Description: fmt.Sprintf("**Server:** %s\n**Tribe:** %s\n**Applicant:** %s\n**Date:** %s",
			guildName, tribe.Name, utils.UserMention(application.ApplicantID), humanize.Time(application.CreatedAt)),
		Footer: &discordgo.MessageEmbedFooter{Text: "Review applications from the server using /tribe-applications"},
	}
}

func newLeaderEmbed(guildName, tribeName string) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Description: fmt.Sprintf("You have been appointed as the leader of **%s** in the server **%s**", tribeName, guildName),
		Color:       colorGold,
	}
}

func disbandedEmbed(guildName, tribeName string) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       "Tribe Deleted by an Admin",
		Description: "Your tribe has been deleted by an admin. Details below.",
		Color:       colorBlack,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Tribe", Value: tribeName, Inline: true},
			{Name: "Server", Value: guildName, Inline: true},
		},
	}
}

func configEmbed(config *models.GuildConfig, categories []models.TribeCategory) *discordgo.MessageEmbed {
	leadersRole := "Not set"
	if config.LeadersRoleID != "" {
		leadersRole = utils.RoleMention(config.LeadersRoleID)
	}

	names := make([]string, len(categories))
	for i, category := range categories {
		names[i] = category.Name
	}
	categoryList := "None"
	if len(names) > 0 {
		categoryList = fold(names, ", ", maxFieldValue)
	}

	return &discordgo.MessageEmbed{
		Title: "Configuration",
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Leaders role", Value: leadersRole},
			{Name: "Links in banners", Value: fmt.Sprintf("%t", config.AllowsBannerURLs())},
			{Name: "Categories", Value: categoryList},
		},
	}
}
