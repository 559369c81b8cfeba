package service

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/taskhub/taskhub/internal/models"
	"github.com/taskhub/taskhub/internal/store"
	"github.com/taskhub/taskhub/pkg/apperr"
)

// validID reports whether id is a well-formed store identifier. The store
// assigns UUIDs, so this is the well-formedness check run before any
// lookup.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

func requireTaskFields(in *TaskInput) error {
	if in.Name == "" || in.Deadline == nil {
		return apperr.Validation("Task name and deadline are required")
	}
	return nil
}

func requireUserFields(in *UserInput) error {
	if in.Name == "" || in.Email == "" {
		return apperr.Validation("Name and email are required")
	}
	return nil
}

// resolveAssignee checks that userID is well-formed and resolves to an
// existing user, and that an explicitly supplied display name agrees with
// the resolved user's name.
func resolveAssignee(ctx context.Context, st store.Store, userID string, explicitName *string) (*models.User, error) {
	if !validID(userID) {
		return nil, apperr.BadReference("Invalid user ID")
	}
	user, err := st.GetUser(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperr.Reference("Assigned user does not exist")
	}
	if err != nil {
		return nil, apperr.Store("Failed to resolve assigned user", err)
	}
	if explicitName != nil && *explicitName != user.Name {
		return nil, apperr.Validation("Assigned user name does not match the user")
	}
	return user, nil
}

// validatePendingTasks checks that every id resolves to an existing task
// and that none of them is completed. Returns the resolved tasks.
func validatePendingTasks(ctx context.Context, st store.Store, ids []string) ([]*models.Task, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	for _, id := range ids {
		if !validID(id) {
			return nil, apperr.BadReference("One or more task IDs do not exist")
		}
	}
	tasks, err := st.TasksByID(ctx, ids)
	if err != nil {
		return nil, apperr.Store("Failed to resolve pending tasks", err)
	}
	if len(tasks) != len(ids) {
		return nil, apperr.BadReference("One or more task IDs do not exist")
	}
	for _, t := range tasks {
		if t.Completed {
			return nil, apperr.State("Cannot add completed tasks to pending tasks")
		}
	}
	return tasks, nil
}

// checkEmailAvailable enforces global email uniqueness. selfID is the id
// of the user being updated, so a user keeps their own address freely.
func checkEmailAvailable(ctx context.Context, st store.Store, email, selfID string) error {
	existing, err := st.GetUserByEmail(ctx, email)
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	if err != nil {
		return apperr.Store("Failed to check email uniqueness", err)
	}
	if existing.ID != selfID {
		return apperr.Conflict("Email already exists")
	}
	return nil
}

// dedupe preserves first-occurrence order while dropping repeated ids.
func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

// setDiff returns the elements of next missing from prev.
func setDiff(next, prev []string) []string {
	in := make(map[string]bool, len(prev))
	for _, id := range prev {
		in[id] = true
	}
	var out []string
	for _, id := range next {
		if !in[id] {
			out = append(out, id)
		}
	}
	return out
}
