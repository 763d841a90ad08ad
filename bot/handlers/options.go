package handlers

import "github.com/bwmarrin/discordgo"

type optionMap map[string]*discordgo.ApplicationCommandInteractionDataOption

func newOptionMap(options []*discordgo.ApplicationCommandInteractionDataOption) optionMap {
	m := make(optionMap, len(options))
	for _, opt := range options {
		m[opt.Name] = opt
	}
	return m
}

func (m optionMap) string(name string) (string, bool) {
	if option, ok := m[name]; ok {
		return option.StringValue(), true
	}
	return "", false
}

func (m optionMap) int(name string) (int64, bool) {
	if option, ok := m[name]; ok {
		return option.IntValue(), true
	}
	return 0, false
}

func (m optionMap) bool(name string) (bool, bool) {
	if option, ok := m[name]; ok {
		return option.BoolValue(), true
	}
	return false, false
}

// userID reads a user option without resolving the user through the session.
func (m optionMap) userID(name string) (string, bool) {
	if option, ok := m[name]; ok {
		return option.UserValue(nil).ID, true
	}
	return "", false
}

func (m optionMap) roleID(name string) (string, bool) {
	if option, ok := m[name]; ok {
		return option.RoleValue(nil, "").ID, true
	}
	return "", false
}

// attachmentURL resolves an attachment option to the uploaded file url.
func (m optionMap) attachmentURL(name string, resolved *discordgo.ApplicationCommandInteractionDataResolved) (string, bool) {
	option, ok := m[name]
	if !ok || resolved == nil {
		return "", false
	}

	id, _ := option.Value.(string)
	attachment, ok := resolved.Attachments[id]
	if !ok {
		return "", false
	}

	return attachment.URL, true
}

// focused returns the option the user is typing into during autocomplete.
func focused(options []*discordgo.ApplicationCommandInteractionDataOption) *discordgo.ApplicationCommandInteractionDataOption {
	for _, opt := range options {
		if opt.Focused {
			return opt
		}
		if found := focused(opt.Options); found != nil {
			return found
		}
	}
	return nil
}
