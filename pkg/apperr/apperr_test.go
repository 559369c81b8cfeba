package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultStatuses(t *testing.T) {
	tests := []struct {
		err    *Error
		status int
	}{
		{Validation("bad field"), http.StatusBadRequest},
		{State("wrong state"), http.StatusBadRequest},
		{Query("bad json"), http.StatusBadRequest},
		{Reference("missing ref"), http.StatusNotFound},
		{BadReference("missing ref in body"), http.StatusBadRequest},
		{NotFound("gone"), http.StatusNotFound},
		{Conflict("taken"), http.StatusConflict},
		{Store("db down", errors.New("conn refused")), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.err.Kind.String(), func(t *testing.T) {
			assert.Equal(t, tt.status, tt.err.HTTPStatus())
			assert.Equal(t, tt.status, StatusOf(tt.err))
		})
	}
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindConflict, KindOf(Conflict("dup")))
	assert.Equal(t, KindStore, KindOf(errors.New("plain")))

	wrapped := fmt.Errorf("context: %w", NotFound("gone"))
	assert.Equal(t, KindNotFound, KindOf(wrapped))
	assert.Equal(t, http.StatusNotFound, StatusOf(wrapped))
}

func TestErrorMessage(t *testing.T) {
	e := Store("save failed", errors.New("disk full"))
	assert.Equal(t, "save failed: disk full", e.Error())
	assert.Equal(t, "disk full", e.Unwrap().Error())

	assert.Equal(t, "gone", NotFound("gone").Error())
}

func TestStatusOfUnknownError(t *testing.T) {
	assert.Equal(t, http.StatusInternalServerError, StatusOf(errors.New("boom")))
}
