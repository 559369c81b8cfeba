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

// TaskInput is the parsed request body for task create and update.
// Pointer fields distinguish "omitted" from zero: on update, an omitted
// assignedUser or completed keeps the task's current value, while an
// omitted description resets to empty.
type TaskInput struct {
	Name             string     `json:"name"`
	Description      string     `json:"description"`
	Deadline         *time.Time `json:"deadline"`
	Completed        *bool      `json:"completed"`
	AssignedUser     *string    `json:"assignedUser"`
	AssignedUserName *string    `json:"assignedUserName"`
}

type TaskService struct {
	store store.Store
	sync  *Synchronizer
	log   *slog.Logger
}

func NewTaskService(st store.Store, log *slog.Logger) *TaskService {
	if log == nil {
		log = slog.Default()
	}
	return &TaskService{
		store: st,
		sync:  NewSynchronizer(st, log),
		log:   log,
	}
}

// Create validates the input, writes the task, then runs the reciprocal
// user update. A reciprocal failure is logged, not returned: the task
// exists once the primary write commits.
func (s *TaskService) Create(ctx context.Context, in *TaskInput) (*models.Task, error) {
	if err := requireTaskFields(in); err != nil {
		return nil, err
	}

	assignedUser := ""
	if in.AssignedUser != nil {
		assignedUser = *in.AssignedUser
	}
	assignedUserName := models.Unassigned
	if assignedUser != "" {
		user, err := resolveAssignee(ctx, s.store, assignedUser, in.AssignedUserName)
		if err != nil {
			return nil, err
		}
		assignedUserName = user.Name
	}

	task := &models.Task{
		ID:               uuid.NewString(),
		Name:             in.Name,
		Description:      in.Description,
		Deadline:         *in.Deadline,
		Completed:        in.Completed != nil && *in.Completed,
		AssignedUser:     assignedUser,
		AssignedUserName: assignedUserName,
		DateCreated:      time.Now().UTC(),
	}

	if err := s.store.CreateTask(ctx, task); err != nil {
		return nil, apperr.Store("Failed to create task", err)
	}

	s.reconcile(ctx, task, "")
	return task, nil
}

// Get fetches one task by id.
func (s *TaskService) Get(ctx context.Context, id string) (*models.Task, error) {
	if !validID(id) {
		return nil, apperr.BadReference("Task Invalid")
	}
	task, err := s.store.GetTask(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperr.NotFound("Task not found")
	}
	if err != nil {
		return nil, apperr.Store("Failed to fetch task", err)
	}
	return task, nil
}

// List runs a filtered collection scan.
func (s *TaskService) List(ctx context.Context, q store.Query) ([]*models.Task, error) {
	tasks, err := s.store.FindTasks(ctx, q)
	if err != nil {
		return nil, apperr.Store("Failed to fetch tasks", err)
	}
	return tasks, nil
}

// Count returns the number of tasks matching the filter.
func (s *TaskService) Count(ctx context.Context, where map[string]any) (int64, error) {
	n, err := s.store.CountTasks(ctx, where)
	if err != nil {
		return 0, apperr.Store("Failed to count tasks", err)
	}
	return n, nil
}

// Update replaces a task's fields. Completed tasks are immutable via
// update; deletion remains allowed.
func (s *TaskService) Update(ctx context.Context, id string, in *TaskInput) (*models.Task, error) {
	if !validID(id) {
		return nil, apperr.BadReference("Task Invalid")
	}
	if err := requireTaskFields(in); err != nil {
		return nil, err
	}

	task, err := s.store.GetTask(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperr.NotFound("Task not found")
	}
	if err != nil {
		return nil, apperr.Store("Failed to fetch task", err)
	}
	if task.Completed {
		return nil, apperr.State("Cannot modify a completed task")
	}

	assignedUser := task.AssignedUser
	if in.AssignedUser != nil {
		assignedUser = *in.AssignedUser
	}
	assignedUserName := models.Unassigned
	if assignedUser != "" {
		user, err := resolveAssignee(ctx, s.store, assignedUser, in.AssignedUserName)
		if err != nil {
			return nil, err
		}
		assignedUserName = user.Name
	}

	prevAssigned := task.AssignedUser

	task.Name = in.Name
	task.Description = in.Description
	task.Deadline = *in.Deadline
	if in.Completed != nil {
		task.Completed = *in.Completed
	}
	task.AssignedUser = assignedUser
	task.AssignedUserName = assignedUserName

	if err := s.store.SaveTask(ctx, task); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperr.NotFound("Task not found")
		}
		return nil, apperr.Store("Failed to update task", err)
	}

	s.reconcile(ctx, task, prevAssigned)
	return task, nil
}

// Delete removes the task, detaching it from its assignee first; deletion
// is a transition to "no assignment" as far as the invariant goes.
func (s *TaskService) Delete(ctx context.Context, id string) error {
	if !validID(id) {
		return apperr.BadReference("Task Invalid")
	}
	task, err := s.store.GetTask(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return apperr.NotFound("Task not found")
	}
	if err != nil {
		return apperr.Store("Failed to fetch task", err)
	}

	if prev := task.AssignedUser; prev != "" {
		detached := *task
		detached.AssignedUser = ""
		if warn := s.sync.SyncTaskChange(ctx, &detached, prev); warn != nil {
			s.log.Warn("reciprocal write incomplete on task delete",
				"task", task.ID, "error", warn)
		}
	}

	if err := s.store.DeleteTask(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return apperr.NotFound("Task not found")
		}
		return apperr.Store("Failed to delete task", err)
	}
	return nil
}

// reconcile runs the synchronizer for a task mutation and persists any
// repairs it made to the task itself. Failures here are non-fatal: the
// invariant is re-derived on the next mutation touching the same pair.
func (s *TaskService) reconcile(ctx context.Context, task *models.Task, prevAssigned string) {
	before := *task
	warn := s.sync.SyncTaskChange(ctx, task, prevAssigned)
	if warn != nil {
		s.log.Warn("reciprocal write incomplete",
			"task", task.ID, "error", warn)
	}
	if task.AssignedUser != before.AssignedUser || task.AssignedUserName != before.AssignedUserName {
		if err := s.store.SaveTask(ctx, task); err != nil {
			s.log.Warn("failed to persist task repair",
				"task", task.ID, "error", err)
		}
	}
}
