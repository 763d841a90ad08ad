package cache

import (
	"context"
	"log"
)

// Buckets of autocomplete results. Guild buckets are keyed by guild id, the
// others by GuildUserKey.
const (
	BucketCategories   = "categories"
	BucketGuildTribes  = "guild-tribes"
	BucketMemberTribes = "member-tribes"
	BucketLeaderTribes = "leader-tribes"
	BucketStaffTribes  = "staff-tribes"
)

var userBuckets = []string{BucketMemberTribes, BucketLeaderTribes, BucketStaffTribes}

func GuildUserKey(guildID, userID string) string {
	return guildID + ":" + userID
}

// InvalidateGuild drops the guild wide tribe and category lists.
func (c *Cache) InvalidateGuild(ctx context.Context, guildID string) {
	for _, bucket := range []string{BucketCategories, BucketGuildTribes} {
		if err := c.Invalidate(ctx, bucket, guildID); err != nil {
			log.Printf("Could not invalidate %v for %v: %v", bucket, guildID, err)
		}
	}
}

// InvalidateUsers drops the per user tribe lists of every given user.
func (c *Cache) InvalidateUsers(ctx context.Context, guildID string, userIDs ...string) {
	for _, userID := range userIDs {
		if userID == "" {
			continue
		}
		for _, bucket := range userBuckets {
			if err := c.Invalidate(ctx, bucket, GuildUserKey(guildID, userID)); err != nil {
				log.Printf("Could not invalidate %v for %v: %v", bucket, userID, err)
			}
		}
	}
}
