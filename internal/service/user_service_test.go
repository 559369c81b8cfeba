package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskhub/taskhub/pkg/apperr"
)

func TestUserService_Create_Validation(t *testing.T) {
	tests := []struct {
		name     string
		input    *UserInput
		wantKind apperr.Kind
	}{
		{
			name:     "missing name",
			input:    &UserInput{Email: "x@example.com"},
			wantKind: apperr.KindValidation,
		},
		{
			name:     "missing email",
			input:    &UserInput{Name: "Nameless"},
			wantKind: apperr.KindValidation,
		},
		{
			name: "unknown pending task",
			input: &UserInput{
				Name:         "Ada",
				Email:        "ada@example.com",
				PendingTasks: []string{"0c6c7ff6-0cbb-4b0b-8f3f-2a2f6b2c7a10"},
			},
			wantKind: apperr.KindReference,
		},
		{
			name: "malformed pending task id",
			input: &UserInput{
				Name:         "Ada",
				Email:        "ada@example.com",
				PendingTasks: []string{"nope"},
			},
			wantKind: apperr.KindReference,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewTestHelpers(t)
			svc := NewUserService(h.Store(), h.Logger())

			_, err := svc.Create(context.Background(), tt.input)
			require.Error(t, err)
			assert.Equal(t, tt.wantKind, apperr.KindOf(err))

			n, cerr := h.Store().CountUsers(context.Background(), nil)
			require.NoError(t, cerr)
			assert.Zero(t, n)
		})
	}
}

func TestUserService_Create_CompletedPendingTaskRejected(t *testing.T) {
	h := NewTestHelpers(t)
	svc := NewUserService(h.Store(), h.Logger())
	done := h.CreateTestTask("already done", nil, true)

	_, err := svc.Create(context.Background(), &UserInput{
		Name:         "Ada",
		Email:        "ada@example.com",
		PendingTasks: []string{done.ID},
	})
	require.Error(t, err)
	assert.Equal(t, apperr.KindState, apperr.KindOf(err))

	// No user record may exist after the rejection.
	n, cerr := h.Store().CountUsers(context.Background(), nil)
	require.NoError(t, cerr)
	assert.Zero(t, n)
}

func TestUserService_Create_ClaimsInitialPendingTasks(t *testing.T) {
	h := NewTestHelpers(t)
	svc := NewUserService(h.Store(), h.Logger())

	a := h.CreateTestTask("task a", nil, false)
	b := h.CreateTestTask("task b", nil, false)

	user, err := svc.Create(context.Background(), &UserInput{
		Name:         "Ada",
		Email:        "ada@example.com",
		PendingTasks: []string{a.ID, b.ID, a.ID}, // duplicate dropped
	})
	require.NoError(t, err)

	assert.Equal(t, []string{a.ID, b.ID}, user.PendingTasks)
	for _, id := range []string{a.ID, b.ID} {
		task := h.ReloadTask(id)
		assert.Equal(t, user.ID, task.AssignedUser)
		assert.Equal(t, "Ada", task.AssignedUserName)
	}
}

func TestUserService_Create_DuplicateEmail(t *testing.T) {
	h := NewTestHelpers(t)
	svc := NewUserService(h.Store(), h.Logger())
	h.CreateTestUser("Ada", "ada@example.com")

	_, err := svc.Create(context.Background(), &UserInput{
		Name:  "Impostor",
		Email: "ada@example.com",
	})
	require.Error(t, err)
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
}

func TestUserService_Get(t *testing.T) {
	h := NewTestHelpers(t)
	svc := NewUserService(h.Store(), h.Logger())
	user := h.CreateTestUser("Ada", "ada@example.com")

	got, err := svc.Get(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, user.Email, got.Email)

	_, err = svc.Get(context.Background(), "not-a-uuid")
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))

	_, err = svc.Get(context.Background(), "0c6c7ff6-0cbb-4b0b-8f3f-2a2f6b2c7a10")
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestUserService_Update_PendingSetDifference(t *testing.T) {
	h := NewTestHelpers(t)
	svc := NewUserService(h.Store(), h.Logger())

	user := h.CreateTestUser("Ada", "ada@example.com")
	kept := h.CreateTestTask("kept", user, false)
	dropped := h.CreateTestTask("dropped", user, false)
	gained := h.CreateTestTask("gained", nil, false)

	got, err := svc.Update(context.Background(), user.ID, &UserInput{
		Name:         "Ada",
		Email:        "ada@example.com",
		PendingTasks: []string{kept.ID, gained.ID},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{kept.ID, gained.ID}, got.PendingTasks)

	h.AssertUnassigned(dropped.ID)
	gainedTask := h.ReloadTask(gained.ID)
	assert.Equal(t, user.ID, gainedTask.AssignedUser)
	assert.Equal(t, "Ada", gainedTask.AssignedUserName)
	keptTask := h.ReloadTask(kept.ID)
	assert.Equal(t, user.ID, keptTask.AssignedUser)
}

func TestUserService_Update_StealsTaskFromOtherUser(t *testing.T) {
	h := NewTestHelpers(t)
	svc := NewUserService(h.Store(), h.Logger())

	u1 := h.CreateTestUser("Ada", "ada@example.com")
	u2 := h.CreateTestUser("Bob", "bob@example.com")
	task := h.CreateTestTask("shared burden", u1, false)

	_, err := svc.Update(context.Background(), u2.ID, &UserInput{
		Name:         "Bob",
		Email:        "bob@example.com",
		PendingTasks: []string{task.ID},
	})
	require.NoError(t, err)

	got := h.ReloadTask(task.ID)
	assert.Equal(t, u2.ID, got.AssignedUser)
	assert.Equal(t, "Bob", got.AssignedUserName)
	// The task never lingers in the former owner's list.
	assert.Empty(t, h.PendingTasksOf(u1.ID))
	assert.Equal(t, []string{task.ID}, h.PendingTasksOf(u2.ID))
}

func TestUserService_Update_EmailConflict(t *testing.T) {
	h := NewTestHelpers(t)
	svc := NewUserService(h.Store(), h.Logger())

	user := h.CreateTestUser("Ada", "ada@example.com")
	h.CreateTestUser("Bob", "bob@example.com")

	// Keeping your own email is fine.
	_, err := svc.Update(context.Background(), user.ID, &UserInput{
		Name:  "Ada Lovelace",
		Email: "ada@example.com",
	})
	require.NoError(t, err)

	// Taking someone else's is not.
	_, err = svc.Update(context.Background(), user.ID, &UserInput{
		Name:  "Ada",
		Email: "bob@example.com",
	})
	require.Error(t, err)
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
}

func TestUserService_Update_CompletedPendingTaskRejected(t *testing.T) {
	h := NewTestHelpers(t)
	svc := NewUserService(h.Store(), h.Logger())

	user := h.CreateTestUser("Ada", "ada@example.com")
	done := h.CreateTestTask("finished", nil, true)

	_, err := svc.Update(context.Background(), user.ID, &UserInput{
		Name:         "Ada",
		Email:        "ada@example.com",
		PendingTasks: []string{done.ID},
	})
	require.Error(t, err)
	assert.Equal(t, apperr.KindState, apperr.KindOf(err))

	// The rejected update must not have touched the user.
	assert.Empty(t, h.PendingTasksOf(user.ID))
}

func TestUserService_Delete_ReleasesTasks(t *testing.T) {
	h := NewTestHelpers(t)
	svc := NewUserService(h.Store(), h.Logger())

	user := h.CreateTestUser("Ada", "ada@example.com")
	a := h.CreateTestTask("task a", user, false)
	b := h.CreateTestTask("task b", user, false)

	require.NoError(t, svc.Delete(context.Background(), user.ID))

	h.AssertUnassigned(a.ID)
	h.AssertUnassigned(b.ID)

	_, err := svc.Get(context.Background(), user.ID)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestUserService_Delete_NotFound(t *testing.T) {
	h := NewTestHelpers(t)
	svc := NewUserService(h.Store(), h.Logger())

	err := svc.Delete(context.Background(), "0c6c7ff6-0cbb-4b0b-8f3f-2a2f6b2c7a10")
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}
