package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/taskhub/taskhub/internal/query"
	"github.com/taskhub/taskhub/internal/service"
	"github.com/taskhub/taskhub/pkg/apperr"
)

type TaskHandler struct {
	svc *service.TaskService
}

func NewTaskHandler(svc *service.TaskService) *TaskHandler {
	return &TaskHandler{svc: svc}
}

func (h *TaskHandler) Register(r *gin.RouterGroup) {
	g := r.Group("/tasks")
	g.GET("", h.list)
	g.POST("", h.create)
	g.GET("/:id", h.get)
	g.PUT("/:id", h.update)
	g.DELETE("/:id", h.delete)
}

func (h *TaskHandler) list(c *gin.Context) {
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

	tasks, err := h.svc.List(c.Request.Context(), params.StoreQuery())
	if err != nil {
		respondError(c, err)
		return
	}

	if params.Projection == nil {
		respond(c, http.StatusOK, "OK", tasks)
		return
	}
	records := make([]any, len(tasks))
	for i, t := range tasks {
		records[i] = t
	}
	docs, err := params.Projection.ApplyAll(records)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "OK", docs)
}

func (h *TaskHandler) get(c *gin.Context) {
	proj, err := query.ParseProjection(c.Query("select"))
	if err != nil {
		respondError(c, err)
		return
	}

	task, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	if proj == nil {
		respond(c, http.StatusOK, "OK", task)
		return
	}
	doc, err := proj.Apply(task)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "OK", doc)
}

func (h *TaskHandler) create(c *gin.Context) {
	var in service.TaskInput
	if err := c.ShouldBindJSON(&in); err != nil {
		respondError(c, apperr.Query("Invalid JSON body"))
		return
	}

	task, err := h.svc.Create(c.Request.Context(), &in)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusCreated, "Created", task)
}

func (h *TaskHandler) update(c *gin.Context) {
	var in service.TaskInput
	if err := c.ShouldBindJSON(&in); err != nil {
		respondError(c, apperr.Query("Invalid JSON body"))
		return
	}

	task, err := h.svc.Update(c.Request.Context(), c.Param("id"), &in)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "OK", task)
}

func (h *TaskHandler) delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "Deleted", nil)
}
