package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/taskhub/taskhub/internal/query"
	"github.com/taskhub/taskhub/internal/service"
	"github.com/taskhub/taskhub/pkg/apperr"
)

type UserHandler struct {
	svc *service.UserService
}

func NewUserHandler(svc *service.UserService) *UserHandler {
	return &UserHandler{svc: svc}
}

func (h *UserHandler) Register(r *gin.RouterGroup) {
	g := r.Group("/users")
	g.GET("", h.list)
	g.POST("", h.create)
	g.GET("/:id", h.get)
	g.PUT("/:id", h.update)
	g.DELETE("/:id", h.delete)
}

func (h *UserHandler) list(c *gin.Context) {
	params, err := query.ParseList(c.Request.URL.Query())
	if err != nil {
		respondError(c, err)
		return
	}

	if params.Count {
		n, err := h.svc.Count(c.Request.Context(), params.Where)
		if err != nil {
			respondError(c, err)
			return
		}
		respond(c, http.StatusOK, "Count", n)
		return
	}

	users, err := h.svc.List(c.Request.Context(), params.StoreQuery())
	if err != nil {
		respondError(c, err)
		return
	}

	if params.Projection == nil {
		respond(c, http.StatusOK, "OK", users)
		return
	}
	records := make([]any, len(users))
	for i, u := range users {
		records[i] = u
	}
	docs, err := params.Projection.ApplyAll(records)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "OK", docs)
}

func (h *UserHandler) get(c *gin.Context) {
	proj, err := query.ParseProjection(c.Query("select"))
	if err != nil {
		respondError(c, err)
		return
	}

	user, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	if proj == nil {
		respond(c, http.StatusOK, "OK", user)
		return
	}
	doc, err := proj.Apply(user)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "OK", doc)
}

func (h *UserHandler) create(c *gin.Context) {
	var in service.UserInput
	if err := c.ShouldBindJSON(&in); err != nil {
		respondError(c, apperr.Query("Invalid JSON body"))
		return
	}

	user, err := h.svc.Create(c.Request.Context(), &in)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusCreated, "Created", user)
}

func (h *UserHandler) update(c *gin.Context) {
	var in service.UserInput
	if err := c.ShouldBindJSON(&in); err != nil {
		respondError(c, apperr.Query("Invalid JSON body"))
		return
	}

	user, err := h.svc.Update(c.Request.Context(), c.Param("id"), &in)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "OK", user)
}

func (h *UserHandler) delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "Deleted", nil)
}
