package service

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/taskhub/taskhub/internal/models"
	"github.com/taskhub/taskhub/internal/store"
)

// TestHelpers provides common fixtures for the service tests, backed by
// the in-memory store.
type TestHelpers struct {
	t     *testing.T
	store *store.Memory
}

func NewTestHelpers(t *testing.T) *TestHelpers {
	return &TestHelpers{t: t, store: store.NewMemory()}
}

func (h *TestHelpers) Store() *store.Memory { return h.store }

func (h *TestHelpers) Logger() *slog.Logger {
	return slog.New(slog.NewTextHandler(testWriter{h.t}, nil))
}

type testWriter struct{ t *testing.T }

func (w testWriter) Write(p []byte) (int, error) {
	w.t.Log(string(p))
	return len(p), nil
}

// CreateTestUser seeds a user with no pending tasks.
func (h *TestHelpers) CreateTestUser(name, email string) *models.User {
	u := &models.User{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        email,
		PendingTasks: []string{},
		DateCreated:  time.Now().UTC(),
	}
	require.NoError(h.t, h.store.CreateUser(context.Background(), u))
	return u
}

// CreateTestTask seeds a task. When assignee is non-nil the task is
// attached to it, including the reciprocal pendingTasks entry when the
// task is not completed.
func (h *TestHelpers) CreateTestTask(name string, assignee *models.User, completed bool) *models.Task {
	t := &models.Task{
		ID:               uuid.NewString(),
		Name:             name,
		Deadline:         time.Now().UTC().Add(24 * time.Hour),
		Completed:        completed,
		AssignedUser:     "",
		AssignedUserName: models.Unassigned,
		DateCreated:      time.Now().UTC(),
	}
	if assignee != nil {
		t.AssignedUser = assignee.ID
		t.AssignedUserName = assignee.Name
	}
	require.NoError(h.t, h.store.CreateTask(context.Background(), t))

	if assignee != nil && !completed {
		u, err := h.store.GetUser(context.Background(), assignee.ID)
		require.NoError(h.t, err)
		u.AddPendingTask(t.ID)
		require.NoError(h.t, h.store.SaveUser(context.Background(), u))
	}
	return t
}

// PendingTasksOf re-reads a user's pendingTasks from the store.
func (h *TestHelpers) PendingTasksOf(userID string) []string {
	u, err := h.store.GetUser(context.Background(), userID)
	require.NoError(h.t, err)
	return u.PendingTasks
}

// ReloadTask re-reads a task from the store.
func (h *TestHelpers) ReloadTask(taskID string) *models.Task {
	t, err := h.store.GetTask(context.Background(), taskID)
	require.NoError(h.t, err)
	return t
}

// AssertUnassigned verifies the task carries no assignment.
func (h *TestHelpers) AssertUnassigned(taskID string) {
	t := h.ReloadTask(taskID)
	require.Equal(h.t, "", t.AssignedUser)
	require.Equal(h.t, models.Unassigned, t.AssignedUserName)
}

func deadline() *time.Time {
	d := time.Now().UTC().Add(48 * time.Hour)
	return &d
}

func strPtr(s string) *string { return &s }
func boolPtr(b bool) *bool    { return &b }
