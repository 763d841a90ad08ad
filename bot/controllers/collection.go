package controllers

import (
	"context"
	"fmt"

	"tribalbot/bot/models"
	"tribalbot/bot/store"
)

// MemberCollection is the loaded membership of one tribe. Removing through it keeps
// the collection and the stored rows in step.
type MemberCollection struct {
	members []models.TribeMember
}

func NewMemberCollection(members []models.TribeMember) *MemberCollection {
	return &MemberCollection{members: members}
}

func (m *MemberCollection) Len() int {
	return len(m.members)
}

func (m *MemberCollection) IDs() []string {
	ids := make([]string, len(m.members))
	for i, member := range m.members {
		ids[i] = member.MemberID
	}
	return ids
}

func (m *MemberCollection) Contains(userID string) bool {
	return m.index(userID) >= 0
}

// Remove deletes the membership row of userID and drops it from the collection.
func (m *MemberCollection) Remove(ctx context.Context, repo store.MemberRepository, userID string) error {
	i := m.index(userID)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrNotMember, userID)
	}

	if _, err := repo.Delete(ctx, m.members[i].TribeID, userID); err != nil {
		return fmt.Errorf("removing member %s: %w", userID, err)
	}

	m.members = append(m.members[:i], m.members[i+1:]...)

	return nil
}

func (m *MemberCollection) clone() *MemberCollection {
	members := make([]models.TribeMember, len(m.members))
	copy(members, m.members)
	return &MemberCollection{members: members}
}

func (m *MemberCollection) index(userID string) int {
	for i, member := range m.members {
		if member.MemberID == userID {
			return i
		}
	}
	return -1
}
