package controllers

import (
	"context"
	"errors"
	"testing"

	"tribalbot/bot/database"
	"tribalbot/bot/metrics"
	"tribalbot/bot/models"
	"tribalbot/bot/store"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const guildID = "g1"

func setupController(t *testing.T) *Controller {
	t.Helper()

	db, err := database.Open(database.DriverSQLite, "file::memory:")
	require.NoError(t, err)

	return New(store.New(db))
}

type tribeFixture struct {
	name     string
	leader   string
	manager  string
	category string
	members  []string
}

func createTribe(t *testing.T, c *Controller, fixture tribeFixture) *models.Tribe {
	t.Helper()

	ctx := context.Background()

	tribe, err := c.CreateTribe(ctx, NewTribe{
		GuildID:  guildID,
		Name:     fixture.name,
		Color:    models.DefaultTribeColor,
		LeaderID: fixture.leader,
		Category: fixture.category,
	})
	require.NoError(t, err)

	for _, member := range fixture.members {
		require.NoError(t, c.store.Members.Create(ctx, &models.TribeMember{TribeID: tribe.ID, MemberID: member}))
	}

	if fixture.manager != "" {
		tribe.ManagerID = fixture.manager
		require.NoError(t, c.store.Tribes.Save(ctx, tribe))
	}

	return tribe
}

func memberIDs(t *testing.T, c *Controller, tribeID uint) []string {
	t.Helper()

	members, err := c.TribeMembers(context.Background(), tribeID)
	require.NoError(t, err)

	return members.IDs()
}

func reload(t *testing.T, c *Controller, tribeID uint) *models.Tribe {
	t.Helper()

	tribe, err := c.store.Tribes.Get(context.Background(), tribeID)
	require.NoError(t, err)

	return tribe
}

func TestCreateTribeWritesLog(t *testing.T) {
	c := setupController(t)
	ctx := context.Background()

	_, err := c.CreateCategory(ctx, guildID, "Raiders")
	require.NoError(t, err)

	tribe, err := c.CreateTribe(ctx, NewTribe{
		GuildID:  guildID,
		Name:     " Alpha ",
		Color:    0xff0000,
		LeaderID: "u1",
		AuthorID: "admin",
		Category: "raiders",
	})
	require.NoError(t, err)
	assert.Equal(t, "Alpha", tribe.Name)
	require.NotNil(t, tribe.Category)
	assert.Equal(t, "Raiders", tribe.Category.Name)

	entries, err := c.TribeLog(ctx, tribe.ID, 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Contains(t, entries[0].Text, "Alpha")
	assert.Contains(t, entries[0].Text, "<@admin>")
}

func TestCreateTribeUnknownCategory(t *testing.T) {
	c := setupController(t)

	_, err := c.CreateTribe(context.Background(), NewTribe{GuildID: guildID, Name: "Alpha", LeaderID: "u1", Category: "nope"})
	assert.ErrorIs(t, err, ErrCategoryNotFound)

	tribes, err := c.GuildTribes(context.Background(), guildID)
	require.NoError(t, err)
	assert.Empty(t, tribes)
}

func TestCreateCategoryRejectsDuplicateIgnoringCase(t *testing.T) {
	c := setupController(t)
	ctx := context.Background()

	_, err := c.CreateCategory(ctx, guildID, "Raiders")
	require.NoError(t, err)

	_, err = c.CreateCategory(ctx, guildID, "RAIDERS")
	assert.ErrorIs(t, err, ErrCategoryExists)

	_, err = c.CreateCategory(ctx, "g2", "Raiders")
	assert.NoError(t, err)

	categories, err := c.Categories(ctx, guildID)
	require.NoError(t, err)
	assert.Len(t, categories, 1)
}

func TestGuildSettings(t *testing.T) {
	c := setupController(t)
	ctx := context.Background()

	require.NoError(t, c.SetLeadersRole(ctx, guildID, "role"))
	require.NoError(t, c.SetBannerURLs(ctx, guildID, false))

	config, err := c.GuildConfig(ctx, guildID)
	require.NoError(t, err)
	assert.Equal(t, "role", config.LeadersRoleID)
	assert.False(t, config.AllowsBannerURLs())
}

func TestHandleLeaderLeavePromotesManager(t *testing.T) {
	c := setupController(t)
	tribe := createTribe(t, c, tribeFixture{name: "Alpha", leader: "u1", manager: "u2", members: []string{"u2", "u3"}})

	exists, err := c.HandleLeaderLeave(context.Background(), tribe, nil, "")
	require.NoError(t, err)
	assert.True(t, exists)

	stored := reload(t, c, tribe.ID)
	assert.Equal(t, "u2", stored.LeaderID)
	assert.False(t, stored.HasManager())
	assert.Equal(t, []string{"u3"}, memberIDs(t, c, tribe.ID))
}

func TestHandleLeaderLeavePicksRandomMember(t *testing.T) {
	c := setupController(t)
	tribe := createTribe(t, c, tribeFixture{name: "Alpha", leader: "u1", members: []string{"u2", "u3", "u4"}})

	c.pick = func(n int) int {
		assert.Equal(t, 3, n)
		return 1
	}

	members, err := c.TribeMembers(context.Background(), tribe.ID)
	require.NoError(t, err)
	before := members.IDs()

	exists, err := c.HandleLeaderLeave(context.Background(), tribe, members, "")
	require.NoError(t, err)
	assert.True(t, exists)

	stored := reload(t, c, tribe.ID)
	assert.Contains(t, before, stored.LeaderID)
	assert.Equal(t, "u3", stored.LeaderID)
	assert.NotContains(t, memberIDs(t, c, tribe.ID), stored.LeaderID)
	assert.False(t, members.Contains("u3"))
}

func TestHandleLeaderLeaveDisbandsEmptyTribe(t *testing.T) {
	c := setupController(t)
	tribe := createTribe(t, c, tribeFixture{name: "Alpha", leader: "u1"})

	disbanded := metrics.SuccessionsTotal.WithLabelValues(metrics.SuccessionDisbanded)
	before := testutil.ToFloat64(disbanded)

	exists, err := c.HandleLeaderLeave(context.Background(), tribe, nil, "")
	require.NoError(t, err)
	assert.False(t, exists)

	_, err = c.store.Tribes.Get(context.Background(), tribe.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.Equal(t, before+1, testutil.ToFloat64(disbanded))
}

func TestHandleLeaderLeaveExplicitSuccessor(t *testing.T) {
	c := setupController(t)
	tribe := createTribe(t, c, tribeFixture{name: "Alpha", leader: "u1", manager: "u2", members: []string{"u2", "u3"}})

	exists, err := c.HandleLeaderLeave(context.Background(), tribe, nil, "u2")
	require.NoError(t, err)
	assert.True(t, exists)

	stored := reload(t, c, tribe.ID)
	assert.Equal(t, "u2", stored.LeaderID)
	assert.Empty(t, stored.ManagerID)
	assert.Equal(t, []string{"u3"}, memberIDs(t, c, tribe.ID))

	entries, err := c.TribeLog(context.Background(), tribe.ID, 1)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "Leadership passed from <@u1> to <@u2>", entries[0].Text)
}

func TestSuccessionChain(t *testing.T) {
	c := setupController(t)
	ctx := context.Background()
	tribe := createTribe(t, c, tribeFixture{name: "Alpha", leader: "u1", manager: "u2", members: []string{"u3"}})

	exists, err := c.HandleLeaderLeave(ctx, tribe, nil, "")
	require.NoError(t, err)
	require.True(t, exists)

	stored := reload(t, c, tribe.ID)
	assert.Equal(t, "u2", stored.LeaderID)
	assert.False(t, stored.HasManager())
	assert.Equal(t, []string{"u3"}, memberIDs(t, c, tribe.ID))

	exists, err = c.HandleLeaderLeave(ctx, stored, nil, "")
	require.NoError(t, err)
	require.True(t, exists)

	stored = reload(t, c, tribe.ID)
	assert.Equal(t, "u3", stored.LeaderID)
	assert.Empty(t, memberIDs(t, c, tribe.ID))
}

func TestCreateJoinApplicationSkipsCategoryConflict(t *testing.T) {
	c := setupController(t)
	ctx := context.Background()

	alpha := createTribe(t, c, tribeFixture{name: "Alpha", leader: "u1"})
	createTribe(t, c, tribeFixture{name: "Beta", leader: "u2", members: []string{"u4"}})

	application, err := c.CreateJoinApplication(ctx, alpha, "u4")
	require.NoError(t, err)
	assert.Nil(t, application)

	applications, err := c.TribeApplications(ctx, alpha.ID)
	require.NoError(t, err)
	assert.Empty(t, applications)
}

func TestCreateJoinApplicationAcrossCategories(t *testing.T) {
	c := setupController(t)
	ctx := context.Background()

	_, err := c.CreateCategory(ctx, guildID, "Raiders")
	require.NoError(t, err)

	alpha := createTribe(t, c, tribeFixture{name: "Alpha", leader: "u1", category: "Raiders"})
	createTribe(t, c, tribeFixture{name: "Beta", leader: "u2", members: []string{"u4"}})

	application, err := c.CreateJoinApplication(ctx, alpha, "u4")
	require.NoError(t, err)
	require.NotNil(t, application)

	found, err := c.ApplicationFor(ctx, alpha.ID, "u4")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, application.ID, found.ID)

	missing, err := c.ApplicationFor(ctx, alpha.ID, "u5")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestAcceptApplicationAddsMember(t *testing.T) {
	c := setupController(t)
	ctx := context.Background()
	alpha := createTribe(t, c, tribeFixture{name: "Alpha", leader: "u1"})

	application, err := c.CreateJoinApplication(ctx, alpha, "u2")
	require.NoError(t, err)
	require.NotNil(t, application)

	require.NoError(t, c.AcceptApplication(ctx, application, "u1"))

	assert.Equal(t, []string{"u2"}, memberIDs(t, c, alpha.ID))
	pending, err := c.ApplicationFor(ctx, alpha.ID, "u2")
	require.NoError(t, err)
	assert.Nil(t, pending)

	// a second accept of the same application must not add the member twice
	assert.ErrorIs(t, c.AcceptApplication(ctx, application, "u1"), ErrBadTribeCategory)
	assert.Equal(t, []string{"u2"}, memberIDs(t, c, alpha.ID))
}

func TestAcceptApplicationRejectsCategoryConflict(t *testing.T) {
	c := setupController(t)
	ctx := context.Background()
	alpha := createTribe(t, c, tribeFixture{name: "Alpha", leader: "u1"})
	beta := createTribe(t, c, tribeFixture{name: "Beta", leader: "u2"})

	application, err := c.CreateJoinApplication(ctx, alpha, "u4")
	require.NoError(t, err)
	require.NotNil(t, application)

	// u4 joins another uncategorised tribe while the application is pending
	require.NoError(t, c.store.Members.Create(ctx, &models.TribeMember{TribeID: beta.ID, MemberID: "u4"}))

	err = c.AcceptApplication(ctx, application, "u1")
	assert.ErrorIs(t, err, ErrBadTribeCategory)

	pending, err := c.ApplicationFor(ctx, alpha.ID, "u4")
	require.NoError(t, err)
	assert.NotNil(t, pending)
	assert.Empty(t, memberIDs(t, c, alpha.ID))
}

func TestDenyApplicationTwice(t *testing.T) {
	c := setupController(t)
	ctx := context.Background()
	alpha := createTribe(t, c, tribeFixture{name: "Alpha", leader: "u1"})

	application, err := c.CreateJoinApplication(ctx, alpha, "u2")
	require.NoError(t, err)
	require.NotNil(t, application)

	require.NoError(t, c.DenyApplication(ctx, application, "u1"))
	require.NoError(t, c.DenyApplication(ctx, application, "u1"))

	applications, err := c.TribeApplications(ctx, alpha.ID)
	require.NoError(t, err)
	assert.Empty(t, applications)

	entries, err := c.TribeLog(ctx, alpha.ID, 10)
	require.NoError(t, err)
	// creation plus a single denial
	assert.Len(t, entries, 2)
}

func TestKickMember(t *testing.T) {
	c := setupController(t)
	ctx := context.Background()
	tribe := createTribe(t, c, tribeFixture{name: "Alpha", leader: "u1", manager: "u2", members: []string{"u2", "u3"}})

	require.NoError(t, c.KickMember(ctx, tribe, "u2", "u1"))
	assert.Equal(t, []string{"u3"}, memberIDs(t, c, tribe.ID))
	assert.False(t, reload(t, c, tribe.ID).HasManager())

	assert.ErrorIs(t, c.KickMember(ctx, tribe, "u1", "u1"), ErrNotMember)
	assert.ErrorIs(t, c.KickMember(ctx, tribe, "u9", "u1"), ErrNotMember)
}

func TestExitTribe(t *testing.T) {
	c := setupController(t)
	ctx := context.Background()
	tribe := createTribe(t, c, tribeFixture{name: "Alpha", leader: "u1", members: []string{"u2"}})

	exists, err := c.ExitTribe(ctx, tribe, "u2")
	require.NoError(t, err)
	assert.True(t, exists)
	assert.Empty(t, memberIDs(t, c, tribe.ID))

	_, err = c.ExitTribe(ctx, tribe, "u2")
	assert.ErrorIs(t, err, ErrNotMember)

	exists, err = c.ExitTribe(ctx, tribe, "u1")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestSetManager(t *testing.T) {
	c := setupController(t)
	ctx := context.Background()
	tribe := createTribe(t, c, tribeFixture{name: "Alpha", leader: "u1", members: []string{"u2"}})

	assert.ErrorIs(t, c.SetManager(ctx, tribe, "u1", "u1"), ErrSelfTarget)
	assert.ErrorIs(t, c.SetManager(ctx, tribe, "u9", "u1"), ErrNotMember)

	require.NoError(t, c.SetManager(ctx, tribe, "u2", "u1"))
	assert.Equal(t, "u2", reload(t, c, tribe.ID).ManagerID)

	assert.ErrorIs(t, c.SetManager(ctx, tribe, "u2", "u1"), ErrAlreadyManager)
}

func TestTransferLeadershipKeepsFormerLeader(t *testing.T) {
	c := setupController(t)
	ctx := context.Background()
	tribe := createTribe(t, c, tribeFixture{name: "Alpha", leader: "u1", members: []string{"u2", "u3"}})

	assert.ErrorIs(t, c.TransferLeadership(ctx, tribe, "u1"), ErrSelfTarget)
	assert.ErrorIs(t, c.TransferLeadership(ctx, tribe, "u9"), ErrNotMember)

	require.NoError(t, c.TransferLeadership(ctx, tribe, "u3"))

	stored := reload(t, c, tribe.ID)
	assert.Equal(t, "u3", stored.LeaderID)
	assert.ElementsMatch(t, []string{"u1", "u2"}, memberIDs(t, c, tribe.ID))
}

func TestUpdateBanner(t *testing.T) {
	c := setupController(t)
	ctx := context.Background()
	tribe := createTribe(t, c, tribeFixture{name: "Alpha", leader: "u1"})

	color := 0x00ff00
	description := "we raid"
	require.NoError(t, c.UpdateBanner(ctx, tribe, BannerUpdate{Color: &color, Description: &description}, "u1"))

	stored := reload(t, c, tribe.ID)
	assert.Equal(t, color, stored.Color)
	assert.Equal(t, "we raid", stored.Banner.Description)
	assert.Empty(t, stored.Banner.Image)
}

func TestForceDisband(t *testing.T) {
	c := setupController(t)
	ctx := context.Background()
	tribe := createTribe(t, c, tribeFixture{name: "Alpha", leader: "u1", members: []string{"u2"}})

	require.NoError(t, c.ForceDisband(ctx, tribe))

	_, err := c.TribeByName(ctx, guildID, "Alpha")
	assert.ErrorIs(t, err, ErrTribeNotFound)

	tribes, err := c.MemberTribes(ctx, guildID, "u2")
	require.NoError(t, err)
	assert.Empty(t, tribes)
}

func TestMemberCategories(t *testing.T) {
	c := setupController(t)
	ctx := context.Background()

	raiders, err := c.CreateCategory(ctx, guildID, "Raiders")
	require.NoError(t, err)

	createTribe(t, c, tribeFixture{name: "Alpha", leader: "u1", category: "Raiders"})
	createTribe(t, c, tribeFixture{name: "Beta", leader: "u2", members: []string{"u1"}})

	categories, err := c.MemberCategories(ctx, guildID, "u1")
	require.NoError(t, err)
	assert.Equal(t, map[uint]bool{raiders.ID: true, 0: true}, categories)

	in, err := c.InCategory(ctx, guildID, "u2", raiders.ID)
	require.NoError(t, err)
	assert.False(t, in)
}

func TestMemberCollectionRemove(t *testing.T) {
	c := setupController(t)
	ctx := context.Background()
	tribe := createTribe(t, c, tribeFixture{name: "Alpha", leader: "u1", members: []string{"u2", "u3"}})

	members, err := c.TribeMembers(ctx, tribe.ID)
	require.NoError(t, err)
	require.Equal(t, 2, members.Len())

	require.NoError(t, members.Remove(ctx, c.store.Members, "u2"))
	assert.Equal(t, []string{"u3"}, members.IDs())
	assert.Equal(t, []string{"u3"}, memberIDs(t, c, tribe.ID))

	assert.ErrorIs(t, members.Remove(ctx, c.store.Members, "u2"), ErrNotMember)
}

// setupBrokenLog returns a controller whose log table is gone, so every change that
// writes a log line fails on its last statement.
func setupBrokenLog(t *testing.T, fixture tribeFixture) (*Controller, *models.Tribe) {
	t.Helper()

	db, err := database.Open(database.DriverSQLite, "file::memory:")
	require.NoError(t, err)

	c := New(store.New(db))
	tribe := createTribe(t, c, fixture)
	require.NoError(t, db.Migrator().DropTable(&models.LogEntry{}))

	return c, tribe
}

func TestHandleLeaderLeaveRollbackKeepsCallerState(t *testing.T) {
	ctx := context.Background()
	c, tribe := setupBrokenLog(t, tribeFixture{name: "Alpha", leader: "u1", manager: "u2", members: []string{"u2", "u3"}})

	members, err := c.TribeMembers(ctx, tribe.ID)
	require.NoError(t, err)

	_, err = c.HandleLeaderLeave(ctx, tribe, members, "")
	require.Error(t, err)

	assert.Equal(t, "u1", tribe.LeaderID)
	assert.Equal(t, "u2", tribe.ManagerID)
	assert.Equal(t, []string{"u2", "u3"}, members.IDs())

	stored := reload(t, c, tribe.ID)
	assert.Equal(t, "u1", stored.LeaderID)
	assert.Equal(t, "u2", stored.ManagerID)
	assert.ElementsMatch(t, []string{"u2", "u3"}, memberIDs(t, c, tribe.ID))
}

func TestTransferLeadershipRollbackKeepsCallerState(t *testing.T) {
	ctx := context.Background()
	c, tribe := setupBrokenLog(t, tribeFixture{name: "Alpha", leader: "u1", manager: "u2", members: []string{"u2", "u3"}})

	require.Error(t, c.TransferLeadership(ctx, tribe, "u2"))

	assert.Equal(t, "u1", tribe.LeaderID)
	assert.Equal(t, "u2", tribe.ManagerID)
	assert.ElementsMatch(t, []string{"u2", "u3"}, memberIDs(t, c, tribe.ID))
}

func TestFailedUpdatesLeaveTribeUntouched(t *testing.T) {
	ctx := context.Background()
	c, tribe := setupBrokenLog(t, tribeFixture{name: "Alpha", leader: "u1", manager: "u2", members: []string{"u2", "u3"}})

	require.Error(t, c.KickMember(ctx, tribe, "u2", "u1"))
	assert.Equal(t, "u2", tribe.ManagerID)

	_, err := c.ExitTribe(ctx, tribe, "u2")
	require.Error(t, err)
	assert.Equal(t, "u2", tribe.ManagerID)

	require.Error(t, c.SetManager(ctx, tribe, "u3", "u1"))
	assert.Equal(t, "u2", tribe.ManagerID)

	color := 0x00ff00
	require.Error(t, c.UpdateBanner(ctx, tribe, BannerUpdate{Color: &color}, "u1"))
	assert.Equal(t, models.DefaultTribeColor, tribe.Color)

	assert.Equal(t, "u2", reload(t, c, tribe.ID).ManagerID)
	assert.ElementsMatch(t, []string{"u2", "u3"}, memberIDs(t, c, tribe.ID))
}

func TestAcceptApplicationsRaceOnCategory(t *testing.T) {
	c := setupController(t)
	ctx := context.Background()
	alpha := createTribe(t, c, tribeFixture{name: "Alpha", leader: "u1"})
	beta := createTribe(t, c, tribeFixture{name: "Beta", leader: "u2"})

	first, err := c.CreateJoinApplication(ctx, alpha, "u4")
	require.NoError(t, err)
	second, err := c.CreateJoinApplication(ctx, beta, "u4")
	require.NoError(t, err)
	require.NotNil(t, first)
	require.NotNil(t, second)

	errs := make(chan error, 2)
	go func() { errs <- c.AcceptApplication(ctx, first, "u1") }()
	go func() { errs <- c.AcceptApplication(ctx, second, "u2") }()

	var accepted, rejected int
	for i := 0; i < 2; i++ {
		switch err := <-errs; {
		case err == nil:
			accepted++
		case errors.Is(err, ErrBadTribeCategory):
			rejected++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, accepted)
	assert.Equal(t, 1, rejected)

	tribes, err := c.MemberTribes(ctx, guildID, "u4")
	require.NoError(t, err)
	// u4 leads nothing, so the single tribe is the one it joined
	require.Len(t, tribes, 1)

	loser := alpha
	if tribes[0].ID == alpha.ID {
		loser = beta
	}
	pending, err := c.ApplicationFor(ctx, loser.ID, "u4")
	require.NoError(t, err)
	assert.NotNil(t, pending)
}
