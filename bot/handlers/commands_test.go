package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"tribalbot/bot/controllers"
	"tribalbot/bot/responses"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testGuildID     = "g1"
	leadersRoleID   = "leaders"
	botRoleID       = "bot-role"
	applicationText = "Done! you've created an application to enter \"Wolves\", the tribe has been notified."
)

// sentMessage is a reply the bot sent back to the invoking user.
type sentMessage struct {
	content string
	embeds  int
}

// fakeDiscord answers the REST calls the command handlers make.
type fakeDiscord struct {
	mu      sync.Mutex
	replies []sentMessage
	dms     int
}

func (f *fakeDiscord) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)

	switch path := r.URL.Path; {
	case strings.HasSuffix(path, "/callback"):
		var resp discordgo.InteractionResponse
		if err := json.Unmarshal(body, &resp); err == nil && resp.Type == discordgo.InteractionResponseChannelMessageWithSource {
			f.record(sentMessage{content: resp.Data.Content, embeds: len(resp.Data.Embeds)})
		}
		w.WriteHeader(http.StatusNoContent)
	case strings.Contains(path, "/webhooks/"):
		var params discordgo.WebhookParams
		if err := json.Unmarshal(body, &params); err == nil {
			f.record(sentMessage{content: params.Content, embeds: len(params.Embeds)})
		}
		fmt.Fprint(w, `{"id":"m1"}`)
	case strings.HasSuffix(path, "/users/@me/channels"):
		fmt.Fprint(w, `{"id":"dm1","type":1}`)
	case strings.HasSuffix(path, "/channels/dm1/messages"):
		f.mu.Lock()
		f.dms++
		f.mu.Unlock()
		fmt.Fprint(w, `{"id":"m2","channel_id":"dm1"}`)
	default:
		http.NotFound(w, r)
	}
}

func (f *fakeDiscord) record(msg sentMessage) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.replies = append(f.replies, msg)
}

func (f *fakeDiscord) sent() []sentMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]sentMessage(nil), f.replies...)
}

func (f *fakeDiscord) dmCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.dms
}

func (f *fakeDiscord) lastReply() string {
	sent := f.sent()
	if len(sent) == 0 {
		return ""
	}
	return sent[len(sent)-1].content
}

// rewriteTransport sends every request to the test server.
type rewriteTransport struct {
	target *url.URL
}

func (rt rewriteTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.URL.Scheme = rt.target.Scheme
	req.URL.Host = rt.target.Host
	return http.DefaultTransport.RoundTrip(req)
}

type commandTest struct {
	*handler
	s        *discordgo.Session
	discord  *fakeDiscord
	commands map[string]CommandHandler
}

// setupCommands wires the handlers to a session whose REST calls land on a fake Discord.
// The guild has a leaders role below the bot's role.
func setupCommands(t *testing.T, withLeadersRole bool) *commandTest {
	t.Helper()

	discord := &fakeDiscord{}
	server := httptest.NewServer(discord)
	t.Cleanup(server.Close)

	target, err := url.Parse(server.URL)
	require.NoError(t, err)

	s, err := discordgo.New("Bot test")
	require.NoError(t, err)
	s.Client = &http.Client{Transport: rewriteTransport{target: target}}
	s.State.User = &discordgo.User{ID: "bot"}

	require.NoError(t, s.State.GuildAdd(&discordgo.Guild{
		ID:   testGuildID,
		Name: "Test Guild",
		Roles: []*discordgo.Role{
			{ID: leadersRoleID, Position: 1},
			{ID: botRoleID, Position: 5},
		},
		Members: []*discordgo.Member{
			{GuildID: testGuildID, User: &discordgo.User{ID: "bot"}, Roles: []string{botRoleID}},
		},
	}))

	h := setupHandler(t)
	if withLeadersRole {
		require.NoError(t, h.ctrl.SetLeadersRole(context.Background(), testGuildID, leadersRoleID))
	}

	return &commandTest{handler: h, s: s, discord: discord, commands: h.commandHandlers()}
}

func stringOption(name, value string) *discordgo.ApplicationCommandInteractionDataOption {
	return &discordgo.ApplicationCommandInteractionDataOption{Name: name, Type: discordgo.ApplicationCommandOptionString, Value: value}
}

func userOption(name, userID string) *discordgo.ApplicationCommandInteractionDataOption {
	return &discordgo.ApplicationCommandInteractionDataOption{Name: name, Type: discordgo.ApplicationCommandOptionUser, Value: userID}
}

// run invokes the command as userID and returns the last reply.
func (c *commandTest) run(userID, name string, options ...*discordgo.ApplicationCommandInteractionDataOption) string {
	c.commands[name](c.s, &discordgo.InteractionCreate{Interaction: &discordgo.Interaction{
		ID:      "i1",
		AppID:   "app",
		Token:   "token",
		Type:    discordgo.InteractionApplicationCommand,
		GuildID: testGuildID,
		Member:  &discordgo.Member{User: &discordgo.User{ID: userID}},
		Data:    discordgo.ApplicationCommandInteractionData{Name: name, Options: options},
	}})

	return c.discord.lastReply()
}

func (c *commandTest) createTribe(t *testing.T, name, leaderID string) {
	t.Helper()

	_, err := c.ctrl.CreateTribe(context.Background(), controllers.NewTribe{GuildID: testGuildID, Name: name, LeaderID: leaderID})
	require.NoError(t, err)
}

func (c *commandTest) assertNoGenericError(t *testing.T) {
	t.Helper()

	for _, msg := range c.discord.sent() {
		assert.NotEqual(t, responses.GenericErrorResponse.Data.Content, msg.content)
	}
}

func TestLeadersRoleGuard(t *testing.T) {
	c := setupCommands(t, false)

	assert.Equal(t, leadersRoleMissingText, c.run("u1", "tribe-list"))

	require.NoError(t, c.ctrl.SetLeadersRole(context.Background(), testGuildID, botRoleID))
	assert.Equal(t, leadersRoleAboveText, c.run("u1", "tribe-list"))
}

func TestTribeJoinTwiceKeepsOneApplication(t *testing.T) {
	ctx := context.Background()
	c := setupCommands(t, true)
	c.createTribe(t, "Wolves", "u1")

	assert.Equal(t, applicationText, c.run("u2", "tribe-join", stringOption("name", "Wolves")))
	assert.Equal(t, 1, c.discord.dmCount())

	reply := c.run("u2", "tribe-join", stringOption("name", "Wolves"))
	assert.Contains(t, reply, "You already have an application to enter this tribe")

	tribe, err := c.ctrl.TribeByName(ctx, testGuildID, "Wolves")
	require.NoError(t, err)
	applications, err := c.ctrl.TribeApplications(ctx, tribe.ID)
	require.NoError(t, err)
	assert.Len(t, applications, 1)
	assert.Equal(t, 1, c.discord.dmCount())

	c.assertNoGenericError(t)
}

func TestTribeAcceptCategoryConflictStaysPending(t *testing.T) {
	ctx := context.Background()
	c := setupCommands(t, true)
	c.createTribe(t, "Wolves", "u1")
	c.createTribe(t, "Bears", "u3")

	assert.Equal(t, applicationText, c.run("u2", "tribe-join", stringOption("name", "Wolves")))
	c.run("u2", "tribe-join", stringOption("name", "Bears"))

	// Bears takes u2 first, Wolves shares the default category
	assert.Equal(t, "Done! <@u2> is now a member of **Bears**",
		c.run("u3", "tribe-accept", stringOption("name", "Bears"), userOption("member", "u2")))

	reply := c.run("u1", "tribe-accept", stringOption("name", "Wolves"), userOption("member", "u2"))
	assert.Contains(t, reply, "the application stays pending")

	wolves, err := c.ctrl.TribeByName(ctx, testGuildID, "Wolves")
	require.NoError(t, err)
	pending, err := c.ctrl.ApplicationFor(ctx, wolves.ID, "u2")
	require.NoError(t, err)
	assert.NotNil(t, pending)

	members, err := c.ctrl.TribeMembers(ctx, wolves.ID)
	require.NoError(t, err)
	assert.Zero(t, members.Len())

	c.assertNoGenericError(t)
}

func TestTribeDenyTwice(t *testing.T) {
	c := setupCommands(t, true)
	c.createTribe(t, "Wolves", "u1")

	c.run("u2", "tribe-join", stringOption("name", "Wolves"))

	assert.Equal(t, "Done! the application of <@u2> to **Wolves** was denied",
		c.run("u1", "tribe-deny", stringOption("name", "Wolves"), userOption("member", "u2")))
	assert.Equal(t, "<@u2> has no pending application to **Wolves**",
		c.run("u1", "tribe-deny", stringOption("name", "Wolves"), userOption("member", "u2")))

	// only the staff may review applications
	assert.Equal(t, "You cannot manage this tribe",
		c.run("u2", "tribe-deny", stringOption("name", "Wolves"), userOption("member", "u2")))

	c.assertNoGenericError(t)
}

func TestTribeListSplitsIntoFollowups(t *testing.T) {
	c := setupCommands(t, true)
	for i := 0; i < 200; i++ {
		c.createTribe(t, fmt.Sprintf("Tribe %03d %s", i, strings.Repeat("x", 60)), snowflake(i))
	}

	c.run("u1", "tribe-list")

	sent := c.discord.sent()
	require.Greater(t, len(sent), 1)

	total := 0
	for _, msg := range sent {
		assert.LessOrEqual(t, msg.embeds, maxEmbeds)
		total += msg.embeds
	}
	assert.Equal(t, (200+tribesPerEmbed-1)/tribesPerEmbed, total)

	c.assertNoGenericError(t)
}
