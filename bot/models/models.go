package models

import "time"

// DefaultTribeColor is used when a tribe is created without a color.
const DefaultTribeColor = 0x5865F2

// GuildConfig holds the per guild settings. One row per guild, created on first access.
type GuildConfig struct {
	GuildID       string `gorm:"primaryKey"`
	LeadersRoleID string
	// nil means the admins never chose, which allows urls
	BannerURLs *bool
	Categories []TribeCategory `gorm:"foreignKey:GuildID;references:GuildID;constraint:OnDelete:CASCADE"`
	Tribes     []Tribe         `gorm:"foreignKey:GuildID;references:GuildID;constraint:OnDelete:CASCADE"`
}

// AllowsBannerURLs reports whether tribe banners may contain urls in their description.
func (c GuildConfig) AllowsBannerURLs() bool {
	return c.BannerURLs == nil || *c.BannerURLs
}

// TribeCategory groups tribes. A user may belong to a single tribe per category.
type TribeCategory struct {
	ID      uint   `gorm:"primaryKey"`
	GuildID string `gorm:"not null;index"`
	Name    string `gorm:"size:30;not null"`
}

// Banner is the free-form presentation of a tribe.
type Banner struct {
	Description string `json:"description"`
	Image       string `json:"image"`
}

type Tribe struct {
	ID               uint           `gorm:"primaryKey"`
	GuildID          string         `gorm:"not null;index"`
	Name             string         `gorm:"size:30;not null;index"`
	LeaderID         string         `gorm:"not null;index"`
	ManagerID        string         `gorm:"index"`
	CategoryID       *uint          `gorm:"index"`
	Category         *TribeCategory `gorm:"constraint:OnDelete:CASCADE"`
	Color            int
	Banner           Banner `gorm:"serializer:json"`
	CreatedAt        time.Time
	Members          []TribeMember          `gorm:"constraint:OnDelete:CASCADE"`
	JoinApplications []TribeJoinApplication `gorm:"constraint:OnDelete:CASCADE"`
	LogEntries       []LogEntry             `gorm:"constraint:OnDelete:CASCADE"`
}

func (t Tribe) HasManager() bool {
	return t.ManagerID != ""
}

// IsStaff reports whether userID is the leader or the manager of the tribe.
func (t Tribe) IsStaff(userID string) bool {
	return userID == t.LeaderID || (t.HasManager() && userID == t.ManagerID)
}

// CategoryKey returns the category id, 0 being the default "no category" bucket.
func (t Tribe) CategoryKey() uint {
	if t.CategoryID == nil {
		return 0
	}
	return *t.CategoryID
}

// TribeMember is a rank-and-file membership row. Leader and manager do not need one.
type TribeMember struct {
	ID       uint   `gorm:"primaryKey"`
	TribeID  uint   `gorm:"not null;index"`
	MemberID string `gorm:"not null;index"`
}

type TribeJoinApplication struct {
	ID          uint   `gorm:"primaryKey"`
	TribeID     uint   `gorm:"not null;index"`
	ApplicantID string `gorm:"not null;index"`
	CreatedAt   time.Time
}

// LogEntry is an append-only audit line attached to a tribe.
type LogEntry struct {
	ID        uint   `gorm:"primaryKey"`
	TribeID   uint   `gorm:"not null;index"`
	Text      string `gorm:"type:text;not null"`
	CreatedAt time.Time
}

// All lists the models in migration order.
func All() []interface{} {
	return []interface{}{
		&GuildConfig{},
		&TribeCategory{},
		&Tribe{},
		&TribeMember{},
		&TribeJoinApplication{},
		&LogEntry{},
	}
}
