package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/taskhub/taskhub/pkg/apperr"
)

// envelope is the uniform response body: a human message plus the payload
// (a record, a list, a count, or null).
type envelope struct {
	Message string `json:"message"`
	Data    any    `json:"data"`
}

func respond(c *gin.Context, status int, message string, data any) {
	c.JSON(status, envelope{Message: message, Data: data})
}

// respondError maps a service failure to its status class. Anything that
// is not a tagged apperr surfaces as a server error without leaking the
// underlying cause.
func respondError(c *gin.Context, err error) {
	var e *apperr.Error
	if errors.As(err, &e) {
		respond(c, e.HTTPStatus(), e.Message, nil)
		return
	}
	respond(c, http.StatusInternalServerError, "Internal server error", nil)
}
