package dragdrop

import (
	"context"

	"github.com/nhle/reminders/internal/model"
	"github.com/nhle/reminders/internal/repository"
)

type repoCommitter struct {
	repos *repository.Repositories
}

// NewCommitter returns a Committer backed by the repositories.
func NewCommitter(repos *repository.Repositories) Committer {
	return repoCommitter{repos: repos}
}

func (r repoCommitter) MoveReminder(ctx context.Context, id string, dest model.ReminderScope, at int) error {
	_, err := r.repos.Reminders.Move(ctx, id, dest.ListID, dest.SubHeadingID, at)
	return err
}

func (r repoCommitter) ReorderReminders(ctx context.Context, scope model.ReminderScope, ids []string) error {
	return r.repos.Reminders.Reorder(ctx, scope, ids)
}

func (r repoCommitter) MoveList(ctx context.Context, id string, at int) error {
	return r.repos.Lists.Move(ctx, id, at)
}

func (r repoCommitter) ReorderLists(ctx context.Context, ids []string) error {
	return r.repos.Lists.Reorder(ctx, ids)
}

func (r repoCommitter) MoveSubHeading(ctx context.Context, id string, at int) error {
	return r.repos.SubHeadings.Move(ctx, id, at)
}

func (r repoCommitter) ReorderSubHeadings(ctx context.Context, listID string, ids []string) error {
	return r.repos.SubHeadings.Reorder(ctx, listID, ids)
}
