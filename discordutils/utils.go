package discordutils

import (
	"errors"
	"log"
	"net/http"

	"github.com/bwmarrin/discordgo"
)

// GuildName returns the guild name, or its id when the guild cannot be fetched.
func GuildName(s *discordgo.Session, guildID string) string {
	if guild, err := s.State.Guild(guildID); err == nil {
		return guild.Name
	}
	if guild, err := s.Guild(guildID); err == nil {
		return guild.Name
	}
	return guildID
}

// GuildRole looks the role up in the state first and asks the API otherwise.
func GuildRole(s *discordgo.Session, guildID, roleID string) *discordgo.Role {
	if role, err := s.State.Role(guildID, roleID); err == nil {
		return role
	}

	roles, err := s.GuildRoles(guildID)
	if err != nil {
		log.Printf("Could not fetch roles of %v: %v", guildID, err)
		return nil
	}

	for _, role := range roles {
		if role.ID == roleID {
			return role
		}
	}

	return nil
}

func guildMember(s *discordgo.Session, guildID, userID string) (*discordgo.Member, error) {
	if member, err := s.State.Member(guildID, userID); err == nil {
		return member, nil
	}
	return s.GuildMember(guildID, userID)
}

// BotCanAssign reports whether the bot's top role sits above role. When the bot's
// roles cannot be resolved the answer is true and Discord has the last word.
func BotCanAssign(s *discordgo.Session, guildID string, role *discordgo.Role) bool {
	if s.State.User == nil {
		return true
	}

	bot, err := guildMember(s, guildID, s.State.User.ID)
	if err != nil {
		return true
	}

	top := -1
	for _, roleID := range bot.Roles {
		if botRole := GuildRole(s, guildID, roleID); botRole != nil && botRole.Position > top {
			top = botRole.Position
		}
	}

	return top > role.Position
}

// DisplayName prefers the guild nickname, then the username, then the id.
func DisplayName(s *discordgo.Session, guildID, userID string) string {
	member, err := guildMember(s, guildID, userID)
	switch {
	case err != nil || member.User == nil:
		return userID
	case member.Nick != "":
		return member.Nick
	default:
		return member.User.Username
	}
}

// IsUnknownMember reports whether err is Discord saying the user is not in the guild.
func IsUnknownMember(err error) bool {
	var restErr *discordgo.RESTError
	if !errors.As(err, &restErr) {
		return false
	}
	if restErr.Message != nil && restErr.Message.Code == discordgo.ErrCodeUnknownMember {
		return true
	}
	return restErr.Response != nil && restErr.Response.StatusCode == http.StatusNotFound
}

// HasMember answers true unless Discord confirms the user left the guild.
func HasMember(s *discordgo.Session, guildID, userID string) bool {
	if _, err := s.State.Member(guildID, userID); err == nil {
		return true
	}

	_, err := s.GuildMember(guildID, userID)
	if err != nil && IsUnknownMember(err) {
		return false
	}
	if err != nil {
		log.Printf("Could not check membership of %v in %v: %v", userID, guildID, err)
	}

	return true
}

// SendDM sends an embed to the user's direct messages.
func SendDM(s *discordgo.Session, userID string, embed *discordgo.MessageEmbed) error {
	ch, err := s.UserChannelCreate(userID)
	if err != nil {
		return err
	}

	_, err = s.ChannelMessageSendEmbed(ch.ID, embed)

	return err
}

// NotifyUsers sends the embed to every user. Users that refuse DMs are skipped.
func NotifyUsers(s *discordgo.Session, embed *discordgo.MessageEmbed, userIDs ...string) {
	for _, userID := range userIDs {
		if userID == "" {
			continue
		}
		if err := SendDM(s, userID, embed); err != nil {
			log.Printf("Could not initiate DMs with %v: %v", userID, err)
		}
	}
}

// AddRole gives the role to the user.
func AddRole(s *discordgo.Session, guildID, userID, roleID string) {
	if roleID == "" {
		return
	}

	if err := s.GuildMemberRoleAdd(guildID, userID, roleID); err != nil {
		log.Printf("Failed to add %v role to %v in %v: %v", roleID, userID, guildID, err)
	} else {
		log.Printf("Added %v role to %v in %v", roleID, userID, guildID)
	}
}

// RemoveRole takes the role away from the user.
func RemoveRole(s *discordgo.Session, guildID, userID, roleID string) {
	if roleID == "" {
		return
	}

	if err := s.GuildMemberRoleRemove(guildID, userID, roleID); err != nil {
		log.Printf("Failed to remove %v role from %v in %v: %v", roleID, userID, guildID, err)
	} else {
		log.Printf("Removed %v role from %v in %v", roleID, userID, guildID)
	}
}
