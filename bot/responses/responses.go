package responses

import "github.com/bwmarrin/discordgo"

var GenericErrorResponse = &discordgo.InteractionResponse{
	Type: discordgo.InteractionResponseChannelMessageWithSource,
	Data: &discordgo.InteractionResponseData{
		Content: "An unknown error occurred, please try again.",
		Flags:   discordgo.MessageFlagsEphemeral,
	},
}

// DeferredEphemeralResponse acknowledges an interaction that answers later with a followup.
var DeferredEphemeralResponse = &discordgo.InteractionResponse{
	Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
	Data: &discordgo.InteractionResponseData{
		Flags: discordgo.MessageFlagsEphemeral,
	},
}

func Message(content string) *discordgo.InteractionResponse {
	return &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
		},
	}
}

// Ephemeral is a message only the invoking user sees.
func Ephemeral(content string) *discordgo.InteractionResponse {
	return &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	}
}

func Embeds(ephemeral bool, embeds ...*discordgo.MessageEmbed) *discordgo.InteractionResponse {
	data := &discordgo.InteractionResponseData{Embeds: embeds}
	if ephemeral {
		data.Flags = discordgo.MessageFlagsEphemeral
	}

	return &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: data,
	}
}

// Choices answers an autocomplete request. Choice names double as values.
func Choices(names []string) *discordgo.InteractionResponse {
	choices := make([]*discordgo.ApplicationCommandOptionChoice, len(names))
	for i, name := range names {
		choices[i] = &discordgo.ApplicationCommandOptionChoice{Name: name, Value: name}
	}

	return &discordgo.InteractionResponse{
		Type: discordgo.InteractionApplicationCommandAutocompleteResult,
		Data: &discordgo.InteractionResponseData{
			Choices: choices,
		},
	}
}
