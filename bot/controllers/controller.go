// Package controllers holds the tribe lifecycle rules. Handlers validate who is asking,
// controllers decide what happens to the records.
package controllers

import (
	"context"
	"math/rand"

	"tribalbot/bot/models"
	"tribalbot/bot/store"
)

type Controller struct {
	store *store.Store

	// pick returns a uniformly random index in [0, n).
	pick func(n int) int
}

func New(s *store.Store) *Controller {
	return &Controller{
		store: s,
		pick:  rand.Intn,
	}
}

// updateTribe runs fn in a transaction over working copies of tribe and members.
// The copies replace the caller's values only once the transaction committed, so a
// rollback leaves them as they were. members may be nil.
func (c *Controller) updateTribe(ctx context.Context, tribe *models.Tribe, members *MemberCollection, fn func(tx *store.Store, tribe *models.Tribe, members *MemberCollection) error) error {
	working := *tribe
	var workingMembers *MemberCollection
	if members != nil {
		workingMembers = members.clone()
	}

	err := c.store.Transaction(ctx, func(tx *store.Store) error {
		return fn(tx, &working, workingMembers)
	})
	if err != nil {
		return err
	}

	*tribe = working
	if members != nil {
		members.members = workingMembers.members
	}

	return nil
}
