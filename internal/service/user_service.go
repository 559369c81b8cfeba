package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/taskhub/taskhub/internal/models"
	"github.com/taskhub/taskhub/internal/store"
	"github.com/taskhub/taskhub/pkg/apperr"
)

// UserInput is the parsed request body for user create and update. An
// omitted pendingTasks means the empty set: updates replace the whole
// list, as the original API's PUT semantics do.
type UserInput struct {
	Name         string   `json:"name"`
	Email        string   `json:"email"`
	PendingTasks []string `json:"pendingTasks"`
}

type UserService struct {
	store store.Store
	sync  *Synchronizer
	log   *slog.Logger
}

func NewUserService(st store.Store, log *slog.Logger) *UserService {
	if log == nil {
		log = slog.Default()
	}
	return &UserService{
		store: st,
		sync:  NewSynchronizer(st, log),
		log:   log,
	}
}

// Create validates the input, writes the user, then assigns every initial
// pending task to the new user via the synchronizer.
func (s *UserService) Create(ctx context.Context, in *UserInput) (*models.User, error) {
	if err := requireUserFields(in); err != nil {
		return nil, err
	}
	if err := checkEmailAvailable(ctx, s.store, in.Email, ""); err != nil {
		return nil, err
	}

	pending := dedupe(in.PendingTasks)
	if _, err := validatePendingTasks(ctx, s.store, pending); err != nil {
		return nil, err
	}

	user := &models.User{
		ID:           uuid.NewString(),
		Name:         in.Name,
		Email:        in.Email,
		PendingTasks: pending,
		DateCreated:  time.Now().UTC(),
	}

	if err := s.store.CreateUser(ctx, user); err != nil {
		return nil, apperr.Store("Failed to create user", err)
	}

	if warn := s.sync.SyncUserChange(ctx, user, pending, nil); warn != nil {
		s.log.Warn("reciprocal write incomplete", "user", user.ID, "error", warn)
	}
	return user, nil
}

// Get fetches one user by id.
func (s *UserService) Get(ctx context.Context, id string) (*models.User, error) {
	if !validID(id) {
		return nil, apperr.NotFound("User not found")
	}
	user, err := s.store.GetUser(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperr.NotFound("User not found")
	}
	if err != nil {
		return nil, apperr.Store("Failed to fetch user", err)
	}
	return user, nil
}

// List runs a filtered collection scan.
func (s *UserService) List(ctx context.Context, q store.Query) ([]*models.User, error) {
	users, err := s.store.FindUsers(ctx, q)
	if err != nil {
		return nil, apperr.Store("Failed to fetch users", err)
	}
	return users, nil
}

// Count returns the number of users matching the filter.
func (s *UserService) Count(ctx context.Context, where map[string]any) (int64, error) {
	n, err := s.store.CountUsers(ctx, where)
	if err != nil {
		return 0, apperr.Store("Failed to count users", err)
	}
	return n, nil
}

// Update replaces the user's fields and reconciles the pendingTasks set
// difference: removals detach tasks still assigned to this user,
// additions claim tasks for it.
func (s *UserService) Update(ctx context.Context, id string, in *UserInput) (*models.User, error) {
	if !validID(id) {
		return nil, apperr.NotFound("User not found")
	}
	if err := requireUserFields(in); err != nil {
		return nil, err
	}

	user, err := s.store.GetUser(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperr.NotFound("User not found")
	}
	if err != nil {
		return nil, apperr.Store("Failed to fetch user", err)
	}

	if in.Email != user.Email {
		if err := checkEmailAvailable(ctx, s.store, in.Email, user.ID); err != nil {
			return nil, err
		}
	}

	next := dedupe(in.PendingTasks)
	if _, err := validatePendingTasks(ctx, s.store, next); err != nil {
		return nil, err
	}

	added := setDiff(next, user.PendingTasks)
	removed := setDiff(user.PendingTasks, next)

	user.Name = in.Name
	user.Email = in.Email
	user.PendingTasks = next

	if err := s.store.SaveUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperr.NotFound("User not found")
		}
		return nil, apperr.Store("Failed to update user", err)
	}

	if warn := s.sync.SyncUserChange(ctx, user, added, removed); warn != nil {
		s.log.Warn("reciprocal write incomplete", "user", user.ID, "error", warn)
	}
	return user, nil
}

// Delete removes the user after releasing every task in its pendingTasks
// list; each is treated as removed from the set.
func (s *UserService) Delete(ctx context.Context, id string) error {
	if !validID(id) {
		return apperr.NotFound("User not found")
	}
	user, err := s.store.GetUser(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return apperr.NotFound("User not found")
	}
	if err != nil {
		return apperr.Store("Failed to fetch user", err)
	}

	if warn := s.sync.SyncUserChange(ctx, user, nil, user.PendingTasks); warn != nil {
		s.log.Warn("reciprocal write incomplete on user delete",
			"user", user.ID, "error", warn)
	}

	if err := s.store.DeleteUser(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return apperr.NotFound("User not found")
		}
		return apperr.Store("Failed to delete user", err)
	}
	return nil
}
