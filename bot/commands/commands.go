package commands

import "github.com/bwmarrin/discordgo"

var noDM = false
var configPermission int64 = discordgo.PermissionManageServer
var Commands = []*discordgo.ApplicationCommand{
	&tribeListCommand,
	&tribeCreateCommand,
	&tribeJoinCommand,
	&tribeApplicationsCommand,
	&tribeAcceptCommand,
	&tribeDenyCommand,
	&myTribesCommand,
	&setBannerCommand,
	&bannerCommand,
	&tribeKickCommand,
	&tribeExitCommand,
	&tribeSetManagerCommand,
	&tribeTransferLeadershipCommand,
	&tribeTreeCommand,
	&tribeLogCommand,
	&tribeForceDisbandCommand,
	&configCommand,
}

var (
	tribeNameMinLength = 5
	tribeNameMaxLength = 30
	logMinLimit        = 1.0
)

func tribeNameOption(description string) *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Type:         discordgo.ApplicationCommandOptionString,
		Name:         "name",
		Description:  description,
		Required:     true,
		Autocomplete: true,
	}
}

func memberOption(name, description string) *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionUser,
		Name:        name,
		Description: description,
		Required:    true,
	}
}

func categoryOption(description string) *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Type:         discordgo.ApplicationCommandOptionString,
		Name:         "category",
		Description:  description,
		Autocomplete: true,
	}
}

var tribeListCommand = discordgo.ApplicationCommand{
	Name:         "tribe-list",
	Description:  "Returns a list of the server's tribes",
	DMPermission: &noDM,
	Options: []*discordgo.ApplicationCommandOption{
		categoryOption("Only list the tribes of this category"),
	},
}

var tribeCreateCommand = discordgo.ApplicationCommand{
	Name:         "tribe-create",
	Description:  "Creates a new tribe with you as the leader",
	DMPermission: &noDM,
	Options: []*discordgo.ApplicationCommandOption{
		{
			Type:        discordgo.ApplicationCommandOptionString,
			Name:        "name",
			Description: "The name of your tribe",
			Required:    true,
			MinLength:   &tribeNameMinLength,
			MaxLength:   tribeNameMaxLength,
		},
		{
			Type:        discordgo.ApplicationCommandOptionString,
			Name:        "color",
			Description: "The color of your tribe, like #5865F2",
		},
		categoryOption("The category of the tribe"),
	},
}

var tribeJoinCommand = discordgo.ApplicationCommand{
	Name:         "tribe-join",
	Description:  "Creates a join application for the target tribe",
	DMPermission: &noDM,
	Options: []*discordgo.ApplicationCommandOption{
		tribeNameOption("The name of the tribe you want to join"),
	},
}

var tribeApplicationsCommand = discordgo.ApplicationCommand{
	Name:         "tribe-applications",
	Description:  "Lists the pending join applications of a tribe you lead or manage",
	DMPermission: &noDM,
	Options: []*discordgo.ApplicationCommandOption{
		tribeNameOption("The name of the tribe"),
	},
}

var tribeAcceptCommand = discordgo.ApplicationCommand{
	Name:         "tribe-accept",
	Description:  "Accepts a join application",
	DMPermission: &noDM,
	Options: []*discordgo.ApplicationCommandOption{
		tribeNameOption("The name of the tribe"),
		memberOption("member", "The applicant to accept"),
	},
}

var tribeDenyCommand = discordgo.ApplicationCommand{
	Name:         "tribe-deny",
	Description:  "Denies a join application",
	DMPermission: &noDM,
	Options: []*discordgo.ApplicationCommandOption{
		tribeNameOption("The name of the tribe"),
		memberOption("member", "The applicant to deny"),
	},
}

var myTribesCommand = discordgo.ApplicationCommand{
	Name:         "my-tribes",
	Description:  "Shows you the tribes you are a part of",
	DMPermission: &noDM,
}

var setBannerCommand = discordgo.ApplicationCommand{
	Name:         "set-banner",
	Description:  "Sets your tribe's banner",
	DMPermission: &noDM,
	Options: []*discordgo.ApplicationCommandOption{
		tribeNameOption("The name of the target tribe"),
		{
			Type:        discordgo.ApplicationCommandOptionString,
			Name:        "color",
			Description: "The new color, like #5865F2",
		},
		{
			Type:        discordgo.ApplicationCommandOptionString,
			Name:        "description",
			Description: "The new description",
			MaxLength:   2000,
		},
		{
			Type:        discordgo.ApplicationCommandOptionString,
			Name:        "image",
			Description: "A direct link to the banner image",
		},
		{
			Type:        discordgo.ApplicationCommandOptionAttachment,
			Name:        "image-file",
			Description: "An image to use as banner instead of a link",
		},
	},
}

var bannerCommand = discordgo.ApplicationCommand{
	Name:         "banner",
	Description:  "Displays a tribe banner",
	DMPermission: &noDM,
	Options: []*discordgo.ApplicationCommandOption{
		tribeNameOption("The name of the target tribe"),
	},
}

var tribeKickCommand = discordgo.ApplicationCommand{
	Name:         "tribe-kick",
	Description:  "Kicks a member out of the tribe",
	DMPermission: &noDM,
	Options: []*discordgo.ApplicationCommandOption{
		tribeNameOption("The name of the target tribe"),
		memberOption("member", "The member to kick"),
	},
}

var tribeExitCommand = discordgo.ApplicationCommand{
	Name:         "tribe-exit",
	Description:  "Exits the target tribe",
	DMPermission: &noDM,
	Options: []*discordgo.ApplicationCommandOption{
		tribeNameOption("The name of the tribe"),
	},
}

var tribeSetManagerCommand = discordgo.ApplicationCommand{
	Name:         "tribe-set-manager",
	Description:  "Appoints the manager of the tribe. You must be the leader to use this",
	DMPermission: &noDM,
	Options: []*discordgo.ApplicationCommandOption{
		tribeNameOption("The name of a tribe you lead"),
		memberOption("new-manager", "The manager to appoint"),
	},
}

var tribeTransferLeadershipCommand = discordgo.ApplicationCommand{
	Name:         "tribe-transfer-leadership",
	Description:  "Transfers the leadership of the tribe to a member",
	DMPermission: &noDM,
	Options: []*discordgo.ApplicationCommandOption{
		tribeNameOption("The name of a tribe you lead"),
		memberOption("new-leader", "The new leader of the tribe"),
	},
}

var tribeTreeCommand = discordgo.ApplicationCommand{
	Name:         "tribe-tree",
	Description:  "Draws the hierarchy of a tribe",
	DMPermission: &noDM,
	Options: []*discordgo.ApplicationCommandOption{
		tribeNameOption("The name of the tribe"),
	},
}

var tribeLogCommand = discordgo.ApplicationCommand{
	Name:         "tribe-log",
	Description:  "Shows the latest events of a tribe you lead or manage",
	DMPermission: &noDM,
	Options: []*discordgo.ApplicationCommandOption{
		tribeNameOption("The name of the tribe"),
		{
			Type:        discordgo.ApplicationCommandOptionInteger,
			Name:        "limit",
			Description: "How many entries to show",
			MinValue:    &logMinLimit,
			MaxValue:    25,
		},
	},
}

var tribeForceDisbandCommand = discordgo.ApplicationCommand{
	Name:                     "tribe-force-disband",
	Description:              "Dissolves the target tribe",
	DMPermission:             &noDM,
	DefaultMemberPermissions: &configPermission,
	Options: []*discordgo.ApplicationCommandOption{
		tribeNameOption("The name of the tribe"),
	},
}

var configCommand = discordgo.ApplicationCommand{
	Name:                     "config",
	Description:              "Various commands related to configuration",
	DMPermission:             &noDM,
	DefaultMemberPermissions: &configPermission,
	Options: []*discordgo.ApplicationCommandOption{
		{
			Type:        discordgo.ApplicationCommandOptionSubCommand,
			Name:        "list",
			Description: "Lists available config options with their current values",
		},
		{
			Type:        discordgo.ApplicationCommandOptionSubCommandGroup,
			Name:        "set",
			Description: "Updates config with provided values",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "leaders_role",
					Description: "Set the role given to every tribe leader",
					Options: []*discordgo.ApplicationCommandOption{
						{
							Type:        discordgo.ApplicationCommandOptionRole,
							Name:        "role",
							Description: "New leaders role",
							Required:    true,
						},
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "banner_urls",
					Description: "Allow or forbid links in tribe banner descriptions",
					Options: []*discordgo.ApplicationCommandOption{
						{
							Type:        discordgo.ApplicationCommandOptionBoolean,
							Name:        "allowed",
							Description: "Whether links are allowed",
							Required:    true,
						},
					},
				},
			},
		},
		{
			Type:        discordgo.ApplicationCommandOptionSubCommandGroup,
			Name:        "category",
			Description: "Manages tribe categories",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "create",
					Description: "Creates a new tribe category",
					Options: []*discordgo.ApplicationCommandOption{
						{
							Type:        discordgo.ApplicationCommandOptionString,
							Name:        "name",
							Description: "The name of the category",
							Required:    true,
							MinLength:   &tribeNameMinLength,
							MaxLength:   tribeNameMaxLength,
						},
					},
				},
			},
		},
	},
}
