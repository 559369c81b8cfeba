package store

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskhub/taskhub/internal/models"
)

func newTask(name string, completed bool) *models.Task {
	return &models.Task{
		ID:               uuid.NewString(),
		Name:             name,
		Deadline:         time.Now().UTC().Add(time.Hour),
		Completed:        completed,
		AssignedUserName: models.Unassigned,
		DateCreated:      time.Now().UTC(),
	}
}

func TestMemory_TaskCRUD(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	task := newTask("write tests", false)
	require.NoError(t, m.CreateTask(ctx, task))

	got, err := m.GetTask(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, task.Name, got.Name)

	// Mutating the returned copy must not leak into the store.
	got.Name = "mutated"
	again, err := m.GetTask(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, "write tests", again.Name)

	task.Name = "renamed"
	require.NoError(t, m.SaveTask(ctx, task))
	saved, err := m.GetTask(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, "renamed", saved.Name)

	require.NoError(t, m.DeleteTask(ctx, task.ID))
	_, err = m.GetTask(ctx, task.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, m.DeleteTask(ctx, task.ID), ErrNotFound)
	assert.ErrorIs(t, m.SaveTask(ctx, task), ErrNotFound)
}

func TestMemory_LastWriteWins(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	task := newTask("contended", false)
	require.NoError(t, m.CreateTask(ctx, task))

	first := *task
	first.Description = "writer one"
	second := *task
	second.Description = "writer two"

	require.NoError(t, m.SaveTask(ctx, &first))
	require.NoError(t, m.SaveTask(ctx, &second))

	got, err := m.GetTask(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, "writer two", got.Description)
}

func TestMemory_FindTasks(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	done := newTask("a done", true)
	open1 := newTask("b open", false)
	open2 := newTask("c open", false)
	for _, task := range []*models.Task{done, open1, open2} {
		require.NoError(t, m.CreateTask(ctx, task))
	}

	open, err := m.FindTasks(ctx, Query{Where: map[string]any{"completed": false}})
	require.NoError(t, err)
	require.Len(t, open, 2)

	byID, err := m.FindTasks(ctx, Query{Where: map[string]any{"_id": done.ID}})
	require.NoError(t, err)
	require.Len(t, byID, 1)
	assert.Equal(t, done.ID, byID[0].ID)

	sorted, err := m.FindTasks(ctx, Query{Sort: []SortField{{Field: "name", Desc: true}}})
	require.NoError(t, err)
	require.Len(t, sorted, 3)
	assert.Equal(t, "c open", sorted[0].Name)

	paged, err := m.FindTasks(ctx, Query{
		Sort:  []SortField{{Field: "name"}},
		Skip:  1,
		Limit: 1,
	})
	require.NoError(t, err)
	require.Len(t, paged, 1)
	assert.Equal(t, "b open", paged[0].Name)

	n, err := m.CountTasks(ctx, map[string]any{"completed": false})
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)
}

func TestMemory_TasksByID(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	a := newTask("a", false)
	b := newTask("b", false)
	require.NoError(t, m.CreateTask(ctx, a))
	require.NoError(t, m.CreateTask(ctx, b))

	got, err := m.TasksByID(ctx, []string{a.ID, "ffffffff-ffff-ffff-ffff-ffffffffffff", b.ID})
	require.NoError(t, err)
	require.Len(t, got, 2)
}

func TestMemory_Users(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	u := &models.User{
		ID:           uuid.NewString(),
		Name:         "Ada",
		Email:        "ada@example.com",
		PendingTasks: []string{},
		DateCreated:  time.Now().UTC(),
	}
	require.NoError(t, m.CreateUser(ctx, u))

	byEmail, err := m.GetUserByEmail(ctx, "ada@example.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, byEmail.ID)

	_, err = m.GetUserByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, ErrNotFound)

	// Pending list copies are independent of stored state.
	byEmail.PendingTasks = append(byEmail.PendingTasks, "x")
	stored, err := m.GetUser(ctx, u.ID)
	require.NoError(t, err)
	assert.Empty(t, stored.PendingTasks)

	n, err := m.CountUsers(ctx, nil)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	require.NoError(t, m.DeleteUser(ctx, u.ID))
	_, err = m.GetUser(ctx, u.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}
