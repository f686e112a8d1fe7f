package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"tasktracker/internal/model"
	"tasktracker/internal/repository"
	"tasktracker/internal/service/task"
)

type TaskHandler struct {
	svc    *task.Service
	logger *zap.Logger
}

func NewTaskHandler(svc *task.Service, logger *zap.Logger) *TaskHandler {
	return &TaskHandler{svc: svc, logger: logger}
}

type taskRequest struct {
	Number      int            `json:"number"`
	Type        model.TaskType `json:"type" binding:"required"`
	Priority    model.Priority `json:"priority" binding:"required"`
	Title       string         `json:"title" binding:"required"`
	Description string         `json:"description"`
	AssigneeID  int            `json:"assignee_id"`
}

// CreateTask handles POST /tasks/create_task.
func (h *TaskHandler) CreateTask(c *gin.Context) {
	var req taskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	t, err := h.svc.Create(c.Request.Context(), c.GetInt("user_id"), task.CreateInput{
		Number:      req.Number,
		Type:        req.Type,
		Priority:    req.Priority,
		Title:       req.Title,
		Description: req.Description,
		AssigneeID:  req.AssigneeID,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	h.logger.Info("Task created", zap.Int("task_id", t.ID), zap.Int("number", t.Number))
	c.JSON(http.StatusCreated, t)
}

// CreateChildTask handles POST /tasks/create_child_task/:id, where :id
// is the parent task.
func (h *TaskHandler) CreateChildTask(c *gin.Context) {
	parentID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid parent id"})
		return
	}

	var req taskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	t, err := h.svc.Create(c.Request.Context(), c.GetInt("user_id"), task.CreateInput{
		Number:      req.Number,
		Type:        req.Type,
		Priority:    req.Priority,
		Title:       req.Title,
		Description: req.Description,
		AssigneeID:  req.AssigneeID,
		ParentID:    parentID,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	h.logger.Info("Child task created", zap.Int("task_id", t.ID), zap.Int("parent_id", parentID))
	c.JSON(http.StatusCreated, t)
}

// GetTask handles GET /tasks/get_task/:id.
func (h *TaskHandler) GetTask(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid task id"})
		return
	}

	t, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

// GetTasks handles GET /tasks/get_tasks?filter_type=...
func (h *TaskHandler) GetTasks(c *gin.Context) {
	filterType := c.Query("filter_type")
	tasks, err := h.svc.List(c.Request.Context(), filterType)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tasks": tasks})
}

// UpdateTask handles PUT /tasks/update_task/:id.
func (h *TaskHandler) UpdateTask(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid task id"})
		return
	}

	var req struct {
		Number      int            `json:"number"`
		Type        model.TaskType `json:"type" binding:"required"`
		Priority    model.Priority `json:"priority" binding:"required"`
		Status      model.Status   `json:"status" binding:"required"`
		Title       string         `json:"title" binding:"required"`
		Description string         `json:"description"`
		AssigneeID  int            `json:"assignee_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	t, err := h.svc.Update(c.Request.Context(), c.GetInt("user_id"), id, task.UpdateInput{
		Number:      req.Number,
		Type:        req.Type,
		Priority:    req.Priority,
		Status:      req.Status,
		Title:       req.Title,
		Description: req.Description,
		AssigneeID:  req.AssigneeID,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	h.logger.Info("Task updated", zap.Int("task_id", id), zap.String("status", string(t.Status)))
	c.JSON(http.StatusOK, t)
}

// NextStatus handles PATCH /tasks/next_status/:id?assignee_id=...
func (h *TaskHandler) NextStatus(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid task id"})
		return
	}

	assigneeID := 0
	if raw := c.Query("assignee_id"); raw != "" {
		assigneeID, err = strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid assignee_id"})
			return
		}
	}

	t, err := h.svc.Advance(c.Request.Context(), id, assigneeID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	h.logger.Info("Task advanced", zap.Int("task_id", id), zap.String("status", string(t.Status)))
	c.JSON(http.StatusOK, t)
}

// DeleteTask handles DELETE /tasks/delete_task/:id. Managers only.
func (h *TaskHandler) DeleteTask(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid task id"})
		return
	}

	if err := h.svc.Delete(c.Request.Context(), c.GetInt("user_id"), id); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// SearchTask handles GET /tasks/search_task.
func (h *TaskHandler) SearchTask(c *gin.Context) {
	filter := repository.SearchFilter{
		Text:     c.Query("text"),
		Creator:  c.Query("creator"),
		Assignee: c.Query("assignee"),
	}
	if raw := c.Query("id"); raw != "" {
		id, err := strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
			return
		}
		filter.ID = id
	}

	tasks, err := h.svc.Search(c.Request.Context(), filter)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tasks": tasks})
}

// TaskHistory handles GET /tasks/task_history/:id.
func (h *TaskHandler) TaskHistory(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid task id"})
		return
	}

	entries, err := h.svc.History(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"history": entries})
}

func (h *TaskHandler) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, task.ErrTaskNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, task.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, task.ErrParentNotFound),
		errors.Is(err, task.ErrInvalidTask),
		errors.Is(err, task.ErrInvalidStatus),
		errors.Is(err, task.ErrInvalidTransition),
		errors.Is(err, task.ErrInvalidAssignee),
		errors.Is(err, repository.ErrUnknownFilter):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		h.logger.Error("Task operation failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
