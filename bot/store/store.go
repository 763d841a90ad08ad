// Package store is the persistence layer of the bot: one narrow repository per
// record type, backed by gorm.
package store

import (
	"context"
	"errors"
	"sort"

	"tribalbot/bot/models"

	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

// ErrNotFound is returned by single record lookups that matched nothing.
var ErrNotFound = errors.New("record not found")

type GuildConfigRepository interface {
	// Get returns the guild configuration, creating it on first access.
	Get(ctx context.Context, guildID string) (*models.GuildConfig, error)
	Save(ctx context.Context, config *models.GuildConfig) error
	// Delete removes the configuration along with every category and tribe of the guild.
	Delete(ctx context.Context, guildID string) error
	All(ctx context.Context) ([]models.GuildConfig, error)
}

type CategoryRepository interface {
	Create(ctx context.Context, category *models.TribeCategory) error
	Get(ctx context.Context, id uint) (*models.TribeCategory, error)
	// GetByName matches the name case-insensitively.
	GetByName(ctx context.Context, guildID, name string) (*models.TribeCategory, error)
	List(ctx context.Context, guildID string) ([]models.TribeCategory, error)
}

type TribeRepository interface {
	Create(ctx context.Context, tribe *models.Tribe) error
	Get(ctx context.Context, id uint) (*models.Tribe, error)
	GetByName(ctx context.Context, guildID, name string) (*models.Tribe, error)
	ListByGuild(ctx context.Context, guildID string) ([]models.Tribe, error)
	ListByLeader(ctx context.Context, guildID, userID string) ([]models.Tribe, error)
	// ListByStaff returns the tribes the user leads or manages.
	ListByStaff(ctx context.Context, guildID, userID string) ([]models.Tribe, error)
	Save(ctx context.Context, tribe *models.Tribe) error
	// Delete removes the tribe and its members, applications and log entries.
	Delete(ctx context.Context, id uint) error
}

type MemberRepository interface {
	Create(ctx context.Context, member *models.TribeMember) error
	ListByTribe(ctx context.Context, tribeID uint) ([]models.TribeMember, error)
	// TribesOf returns the guild tribes where the user has a membership row.
	TribesOf(ctx context.Context, guildID, userID string) ([]models.Tribe, error)
	// Delete reports whether a membership row was removed.
	Delete(ctx context.Context, tribeID uint, userID string) (bool, error)
}

type ApplicationRepository interface {
	Create(ctx context.Context, application *models.TribeJoinApplication) error
	Get(ctx context.Context, id uint) (*models.TribeJoinApplication, error)
	GetFor(ctx context.Context, tribeID uint, applicantID string) (*models.TribeJoinApplication, error)
	ListByTribe(ctx context.Context, tribeID uint) ([]models.TribeJoinApplication, error)
	// Delete reports whether an application was removed.
	Delete(ctx context.Context, id uint) (bool, error)
}

type LogRepository interface {
	Append(ctx context.Context, tribeID uint, text string) error
	// ListByTribe returns up to limit entries, newest first.
	ListByTribe(ctx context.Context, tribeID uint, limit int) ([]models.LogEntry, error)
}

// Store groups the repositories sharing one connection or transaction.
type Store struct {
	db   *gorm.DB
	inTx bool

	Guilds       GuildConfigRepository
	Categories   CategoryRepository
	Tribes       TribeRepository
	Members      MemberRepository
	Applications ApplicationRepository
	Logs         LogRepository
}

func New(db *gorm.DB) *Store {
	return newStore(db, false)
}

func newStore(db *gorm.DB, inTx bool) *Store {
	return &Store{
		db:           db,
		inTx:         inTx,
		Guilds:       &guildConfigRepository{db: db},
		Categories:   &categoryRepository{db: db},
		Tribes:       &tribeRepository{db: db},
		Members:      &memberRepository{db: db},
		Applications: &applicationRepository{db: db},
		Logs:         &logRepository{db: db},
	}
}

// Transaction runs fn with a store bound to a single database transaction.
// fn's error rolls the transaction back.
func (s *Store) Transaction(ctx context.Context, fn func(tx *Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(newStore(tx, true))
	})
}

// MemberTribes returns the guild tribes the user leads or is a member of.
// Both lookups run concurrently outside of transactions. The result is deduplicated
// by tribe id; its order carries no meaning.
func (s *Store) MemberTribes(ctx context.Context, guildID, userID string) ([]models.Tribe, error) {
	var led, joined []models.Tribe

	lookupLed := func(ctx context.Context) (err error) {
		led, err = s.Tribes.ListByLeader(ctx, guildID, userID)
		return err
	}
	lookupJoined := func(ctx context.Context) (err error) {
		joined, err = s.Members.TribesOf(ctx, guildID, userID)
		return err
	}

	if s.inTx {
		// a transaction owns a single connection
		if err := lookupLed(ctx); err != nil {
			return nil, err
		}
		if err := lookupJoined(ctx); err != nil {
			return nil, err
		}
	} else {
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error { return lookupLed(gctx) })
		g.Go(func() error { return lookupJoined(gctx) })
		if err := g.Wait(); err != nil {
			return nil, err
		}
	}

	return unionTribes(led, joined), nil
}

func unionTribes(sets ...[]models.Tribe) []models.Tribe {
	seen := make(map[uint]models.Tribe)
	for _, set := range sets {
		for _, tribe := range set {
			seen[tribe.ID] = tribe
		}
	}

	tribes := make([]models.Tribe, 0, len(seen))
	for _, tribe := range seen {
		tribes = append(tribes, tribe)
	}
	sort.Slice(tribes, func(i, j int) bool { return tribes[i].ID < tribes[j].ID })

	return tribes
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
