package utils

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/bwmarrin/discordgo"
	"mvdan.cc/xurls/v2"
)

var ErrInvalidImageURL = errors.New("invalid image url")

func UserMention(userID string) string {
	return fmt.Sprintf("<@%s>", userID)
}

func RoleMention(roleID string) string {
	return fmt.Sprintf("<@&%s>", roleID)
}

// MemberHasPermission checks the permissions Discord computed for the interaction member.
func MemberHasPermission(member *discordgo.Member, permission int64) bool {
	if member == nil {
		return false
	}
	return member.Permissions&discordgo.PermissionAdministrator > 0 || member.Permissions&permission > 0
}

func MemberHasRole(member *discordgo.Member, roleID string) bool {
	if member == nil {
		return false
	}
	for _, id := range member.Roles {
		if id == roleID {
			return true
		}
	}
	return false
}

// ParseImageURL validates an absolute http(s) url.
func ParseImageURL(raw string) (string, error) {
	validURL, err := url.ParseRequestURI(strings.TrimSpace(raw))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidImageURL, err)
	}
	if (validURL.Scheme != "http" && validURL.Scheme != "https") || validURL.Host == "" {
		return "", ErrInvalidImageURL
	}
	return validURL.String(), nil
}

// ContainsURL reports whether text holds something that looks like a link, with or
// without a scheme.
func ContainsURL(text string) bool {
	return xurls.Relaxed().MatchString(text)
}

// ParseColor accepts "#5865F2", "0x5865F2" or "5865F2".
func ParseColor(raw string) (int, error) {
	hex := strings.TrimSpace(raw)
	hex = strings.TrimPrefix(hex, "#")
	hex = strings.TrimPrefix(strings.ToLower(hex), "0x")

	if len(hex) != 6 {
		return 0, fmt.Errorf("invalid color %q", raw)
	}

	color, err := strconv.ParseInt(hex, 16, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid color %q", raw)
	}

	return int(color), nil
}

func FormatColor(color int) string {
	return fmt.Sprintf("#%06X", color)
}

// FilterPrefix keeps the values starting with prefix, ignoring case, up to limit of them.
func FilterPrefix(values []string, prefix string, limit int) []string {
	prefix = strings.ToLower(prefix)

	filtered := make([]string, 0, len(values))
	for _, value := range values {
		if len(filtered) == limit {
			break
		}
		if strings.HasPrefix(strings.ToLower(value), prefix) {
			filtered = append(filtered, value)
		}
	}

	return filtered
}
