package controllers

import (
	"context"
	"errors"
	"fmt"

	"tribalbot/bot/models"
	"tribalbot/bot/store"
)

// CreateJoinApplication files an application to tribe. When the applicant already leads
// or belongs to a tribe of the same category nothing is stored and nil is returned.
func (c *Controller) CreateJoinApplication(ctx context.Context, tribe *models.Tribe, applicantID string) (*models.TribeJoinApplication, error) {
	conflict, err := c.InCategory(ctx, tribe.GuildID, applicantID, tribe.CategoryKey())
	if err != nil {
		return nil, err
	}
	if conflict {
		return nil, nil
	}

	application := &models.TribeJoinApplication{TribeID: tribe.ID, ApplicantID: applicantID}
	if err := c.store.Applications.Create(ctx, application); err != nil {
		return nil, fmt.Errorf("creating application to tribe %d: %w", tribe.ID, err)
	}

	return application, nil
}

func (c *Controller) TribeApplications(ctx context.Context, tribeID uint) ([]models.TribeJoinApplication, error) {
	return c.store.Applications.ListByTribe(ctx, tribeID)
}

// ApplicationFor returns the pending application of the applicant, or nil when there is none.
func (c *Controller) ApplicationFor(ctx context.Context, tribeID uint, applicantID string) (*models.TribeJoinApplication, error) {
	application, err := c.store.Applications.GetFor(ctx, tribeID, applicantID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	return application, err
}

// AcceptApplication turns the applicant into a member. The category rule is checked
// again since the applicant may have joined another tribe meanwhile, in which case
// ErrBadTribeCategory is returned and the application stays pending.
func (c *Controller) AcceptApplication(ctx context.Context, application *models.TribeJoinApplication, authorID string) error {
	tribe, err := c.store.Tribes.Get(ctx, application.TribeID)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return ErrTribeNotFound
	case err != nil:
		return err
	}

	return c.store.Transaction(ctx, func(tx *store.Store) error {
		categories, err := memberCategories(ctx, tx, tribe.GuildID, application.ApplicantID)
		if err != nil {
			return err
		}
		if categories[tribe.CategoryKey()] {
			return ErrBadTribeCategory
		}

		removed, err := tx.Applications.Delete(ctx, application.ID)
		if err != nil {
			return err
		}
		if !removed {
			// handled concurrently by another staff member
			return store.ErrNotFound
		}

		if err := tx.Members.Create(ctx, &models.TribeMember{TribeID: tribe.ID, MemberID: application.ApplicantID}); err != nil {
			return err
		}

		return tx.Logs.Append(ctx, tribe.ID, fmt.Sprintf("<@%s> was accepted by <@%s>", application.ApplicantID, authorID))
	})
}

// DenyApplication deletes the application. Denying an application that is already gone
// does nothing.
func (c *Controller) DenyApplication(ctx context.Context, application *models.TribeJoinApplication, authorID string) error {
	removed, err := c.store.Applications.Delete(ctx, application.ID)
	if err != nil {
		return fmt.Errorf("denying application %d: %w", application.ID, err)
	}
	if !removed {
		return nil
	}

	return c.store.Logs.Append(ctx, application.TribeID, fmt.Sprintf("<@%s> was denied by <@%s>", application.ApplicantID, authorID))
}
