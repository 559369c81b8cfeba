package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/taskhub/taskhub/internal/models"
	"github.com/taskhub/taskhub/internal/store"
)

// Synchronizer restores the bidirectional invariant between a task's
// assignedUser field and the pendingTasks lists of users. The store offers
// no cross-record transaction, so every reciprocal write is an
// independent, idempotent step: a failure in one does not roll back the
// primary write or the other steps. The joined error it returns is a
// repair report for the caller to log, not a request failure.
type Synchronizer struct {
	store store.Store
	log   *slog.Logger
}

func NewSynchronizer(st store.Store, log *slog.Logger) *Synchronizer {
	if log == nil {
		log = slog.Default()
	}
	return &Synchronizer{store: st, log: log}
}

// SyncTaskChange applies the reciprocal user updates after a task's
// assignedUser or completed field changed. prevAssignedUserID is the
// assignee before the change, or empty on creation. The task is detached
// from the previous owner before it is attached to the new one, so a
// reassigned task never appears in two pendingTasks lists at once.
//
// The task itself may be mutated: assignedUserName is recomputed, and a
// dangling assignedUser is repaired to the empty string. The caller is
// responsible for persisting the task afterwards.
func (s *Synchronizer) SyncTaskChange(ctx context.Context, task *models.Task, prevAssignedUserID string) error {
	var errs []error

	if prevAssignedUserID != "" && prevAssignedUserID != task.AssignedUser {
		if err := s.detachFromUser(ctx, prevAssignedUserID, task.ID); err != nil {
			errs = append(errs, err)
		}
	}

	isPending := !task.Completed

	if task.AssignedUser == "" {
		task.AssignedUserName = models.Unassigned
		return errors.Join(errs...)
	}

	user, err := s.store.GetUser(ctx, task.AssignedUser)
	if errors.Is(err, store.ErrNotFound) {
		// Dangling reference: repair rather than leave it pointing
		// at a user that no longer exists.
		s.log.Warn("repairing dangling assignee reference",
			"task", task.ID, "user", task.AssignedUser)
		task.AssignedUser = ""
		task.AssignedUserName = models.Unassigned
		return errors.Join(errs...)
	}
	if err != nil {
		errs = append(errs, fmt.Errorf("fetch assignee %s: %w", task.AssignedUser, err))
		return errors.Join(errs...)
	}

	changed := false
	if isPending {
		changed = user.AddPendingTask(task.ID)
	} else {
		changed = user.RemovePendingTask(task.ID)
	}
	if changed {
		if err := s.store.SaveUser(ctx, user); err != nil {
			errs = append(errs, fmt.Errorf("save assignee %s: %w", user.ID, err))
		}
	}
	task.AssignedUserName = user.Name

	return errors.Join(errs...)
}

// SyncUserChange applies the reciprocal task updates after a user's
// pendingTasks set changed. Removals run before additions so a task moved
// between lists is never left attached to the wrong former owner.
func (s *Synchronizer) SyncUserChange(ctx context.Context, user *models.User, added, removed []string) error {
	var errs []error

	for _, taskID := range removed {
		task, err := s.store.GetTask(ctx, taskID)
		if errors.Is(err, store.ErrNotFound) {
			s.log.Warn("removed pending task no longer exists",
				"user", user.ID, "task", taskID)
			continue
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("fetch removed task %s: %w", taskID, err))
			continue
		}
		// Only unassign if the task still points at this user; a
		// concurrent reassignment wins.
		if task.AssignedUser != user.ID {
			continue
		}
		task.AssignedUser = ""
		task.AssignedUserName = models.Unassigned
		if err := s.store.SaveTask(ctx, task); err != nil {
			errs = append(errs, fmt.Errorf("save removed task %s: %w", taskID, err))
		}
	}

	for _, taskID := range added {
		task, err := s.store.GetTask(ctx, taskID)
		if errors.Is(err, store.ErrNotFound) {
			s.log.Warn("added pending task no longer exists",
				"user", user.ID, "task", taskID)
			continue
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("fetch added task %s: %w", taskID, err))
			continue
		}
		if prev := task.AssignedUser; prev != "" && prev != user.ID {
			// The task is changing owners; pull it out of the former
			// owner's list so it never sits in two lists.
			if err := s.detachFromUser(ctx, prev, task.ID); err != nil {
				errs = append(errs, err)
			}
		}
		task.AssignedUser = user.ID
		task.AssignedUserName = user.Name
		if err := s.store.SaveTask(ctx, task); err != nil {
			errs = append(errs, fmt.Errorf("save added task %s: %w", taskID, err))
		}
	}

	return errors.Join(errs...)
}

// detachFromUser drops taskID from userID's pendingTasks if present. A
// missing user needs no repair.
func (s *Synchronizer) detachFromUser(ctx context.Context, userID, taskID string) error {
	user, err := s.store.GetUser(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("fetch previous assignee %s: %w", userID, err)
	}
	if !user.RemovePendingTask(taskID) {
		return nil
	}
	if err := s.store.SaveUser(ctx, user); err != nil {
		return fmt.Errorf("save previous assignee %s: %w", userID, err)
	}
	return nil
}
