package controllers

import (
	"context"
	"fmt"

	"tribalbot/bot/metrics"
	"tribalbot/bot/models"
	"tribalbot/bot/store"
)

// HandleLeaderLeave replaces the leader of tribe. The successor is, in order: newLeaderID
// when given, the manager, a random member. Without any of them the tribe is deleted
// and false is returned. members may be nil, in which case the membership is loaded.
//
// tribe and members are updated in place once the change is committed.
func (c *Controller) HandleLeaderLeave(ctx context.Context, tribe *models.Tribe, members *MemberCollection, newLeaderID string) (bool, error) {
	var outcome string

	err := c.updateTribe(ctx, tribe, members, func(tx *store.Store, tribe *models.Tribe, members *MemberCollection) (err error) {
		outcome, err = c.handleLeaderLeave(ctx, tx, tribe, members, newLeaderID)
		return err
	})
	if err != nil {
		return false, fmt.Errorf("replacing leader of tribe %d: %w", tribe.ID, err)
	}

	countSuccession(outcome)

	return outcome != metrics.SuccessionDisbanded, nil
}

func countSuccession(outcome string) {
	metrics.SuccessionsTotal.WithLabelValues(outcome).Inc()
}

func (c *Controller) handleLeaderLeave(ctx context.Context, tx *store.Store, tribe *models.Tribe, members *MemberCollection, newLeaderID string) (string, error) {
	if members == nil {
		rows, err := tx.Members.ListByTribe(ctx, tribe.ID)
		if err != nil {
			return "", err
		}
		members = NewMemberCollection(rows)
	}

	var outcome string

	switch {
	case newLeaderID != "":
		outcome = metrics.SuccessionExplicit
	case tribe.HasManager():
		outcome = metrics.SuccessionManager
		newLeaderID = tribe.ManagerID
	case members.Len() > 0:
		outcome = metrics.SuccessionRandomMember
		newLeaderID = members.IDs()[c.pick(members.Len())]
	default:
		if err := tx.Tribes.Delete(ctx, tribe.ID); err != nil {
			return "", err
		}
		return metrics.SuccessionDisbanded, nil
	}

	if members.Contains(newLeaderID) {
		if err := members.Remove(ctx, tx.Members, newLeaderID); err != nil {
			return "", err
		}
	}
	if tribe.ManagerID == newLeaderID {
		tribe.ManagerID = ""
	}

	previous := tribe.LeaderID
	tribe.LeaderID = newLeaderID

	if err := tx.Tribes.Save(ctx, tribe); err != nil {
		return "", err
	}
	if err := tx.Logs.Append(ctx, tribe.ID, fmt.Sprintf("Leadership passed from <@%s> to <@%s>", previous, newLeaderID)); err != nil {
		return "", err
	}

	return outcome, nil
}
