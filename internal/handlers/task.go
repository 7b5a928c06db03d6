package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"productivity-backend/internal/dto"
	apierrors "productivity-backend/internal/errors"
	"productivity-backend/internal/middleware"
	"productivity-backend/internal/services"
	"productivity-backend/internal/utils"
)

type TaskHandler struct {
	taskService *services.TaskService
}

func NewTaskHandler(taskService *services.TaskService) *TaskHandler {
	return &TaskHandler{
		taskService: taskService,
	}
}

// ListTasks returns every task owned by the current user
func (h *TaskHandler) ListTasks(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "")
		return
	}

	tasks, err := h.taskService.ListAll(c.Request.Context(), userID)
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"tasks": dto.ToTaskDTOs(tasks),
	})
}

// QueryTasks returns a filtered, sorted, paginated page of the current
// user's tasks together with pagination arithmetic
func (h *TaskHandler) QueryTasks(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "")
		return
	}

	params := utils.GetPaginationParams(c)
	input := services.QueryTasksInput{
		Status:   c.Query("status"),
		Priority: c.Query("priority"),
		Search:   c.Query("search"),
		SortBy:   c.Query("sortBy"),
		Order:    c.Query("order"),
		Page:     params.Page,
		Limit:    params.Limit,
	}

	tasks, total, err := h.taskService.Query(c.Request.Context(), userID, input)
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskQueryResponse(tasks, input.Page, input.Limit, total))
}

// GetTask returns a specific task by ID
func (h *TaskHandler) GetTask(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "")
		return
	}

	taskID, ok := parseTaskID(c)
	if !ok {
		return
	}

	task, err := h.taskService.Get(c.Request.Context(), userID, taskID)
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskDTO(*task))
}

// CreateTask creates a new task owned by the current user
func (h *TaskHandler) CreateTask(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "")
		return
	}

	type CreateTaskRequest struct {
		Title        string      `json:"title"`
		Description  string      `json:"description"`
		Priority     string      `json:"priority"`
		Deadline     *time.Time  `json:"deadline"`
		Duration     *int        `json:"duration"`
		Reminders    []time.Time `json:"reminders"`
		Attachments  []string    `json:"attachments"`
		LinkedNoteID *uint64     `json:"linked_note_id"`
	}

	var req CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	task, err := h.taskService.Create(c.Request.Context(), userID, services.CreateTaskInput{
		Title:        req.Title,
		Description:  req.Description,
		Priority:     req.Priority,
		Deadline:     req.Deadline,
		Duration:     req.Duration,
		Reminders:    req.Reminders,
		Attachments:  req.Attachments,
		LinkedNoteID: req.LinkedNoteID,
	})
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToTaskDTO(*task))
}

// UpdateTask applies a partial update to a task. Only fields present in the
// request body are touched; an explicit null clears nullable fields.
func (h *TaskHandler) UpdateTask(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "")
		return
	}

	taskID, ok := parseTaskID(c)
	if !ok {
		return
	}

	type UpdateTaskRequest struct {
		Title        *string      `json:"title"`
		Description  *string      `json:"description"`
		Priority     *string      `json:"priority"`
		Status       *string      `json:"status"`
		Deadline     *time.Time   `json:"deadline"`
		Duration     *int         `json:"duration"`
		Reminders    *[]time.Time `json:"reminders"`
		Attachments  *[]string    `json:"attachments"`
		LinkedNoteID *uint64      `json:"linked_note_id"`
	}

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	var req UpdateTaskRequest
	if err := json.Unmarshal(body, &req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	// Field presence decides between "leave untouched" and "clear": a key
	// that decoded to nil but is present in the body is an explicit null.
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}
	present := func(key string) bool {
		_, ok := raw[key]
		return ok
	}

	input := services.UpdateTaskInput{
		Title:       req.Title,
		Description: req.Description,
		Priority:    req.Priority,
		Status:      req.Status,
	}
	if req.Deadline != nil {
		input.Deadline = req.Deadline
	} else if present("deadline") {
		input.ClearDeadline = true
	}
	if req.Duration != nil {
		input.Duration = req.Duration
	} else if present("duration") {
		input.ClearDuration = true
	}
	if req.LinkedNoteID != nil {
		input.LinkedNoteID = req.LinkedNoteID
	} else if present("linked_note_id") {
		input.ClearLinkedNote = true
	}
	if present("reminders") {
		input.RemindersSet = true
		if req.Reminders != nil {
			input.Reminders = *req.Reminders
		}
	}
	if present("attachments") {
		input.AttachmentsSet = true
		if req.Attachments != nil {
			input.Attachments = *req.Attachments
		}
	}

	task, err := h.taskService.Update(c.Request.Context(), userID, taskID, input)
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskDTO(*task))
}

// DeleteTask permanently deletes a task
func (h *TaskHandler) DeleteTask(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "")
		return
	}

	taskID, ok := parseTaskID(c)
	if !ok {
		return
	}

	if err := h.taskService.Delete(c.Request.Context(), userID, taskID); err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Task deleted successfully",
	})
}

// UpdateTaskStatus moves a task to a new status
func (h *TaskHandler) UpdateTaskStatus(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "")
		return
	}

	taskID, ok := parseTaskID(c)
	if !ok {
		return
	}

	type UpdateStatusRequest struct {
		Status string `json:"status" binding:"required"`
	}

	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	task, err := h.taskService.SetStatus(c.Request.Context(), userID, taskID, req.Status)
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Task marked as " + string(task.Status),
		"task":    dto.ToTaskDTO(*task),
	})
}

// GetTaskStats returns aggregate statistics over the current user's tasks
func (h *TaskHandler) GetTaskStats(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "")
		return
	}

	stats, err := h.taskService.Stats(c.Request.Context(), userID)
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

// SuggestTasks generates task suggestions from free text using AI
func (h *TaskHandler) SuggestTasks(c *gin.Context) {
	if _, exists := middleware.GetUserID(c); !exists {
		apierrors.Unauthorized(c, "")
		return
	}

	type SuggestTasksRequest struct {
		Text string `json:"text" binding:"required"`
	}

	var req SuggestTasksRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	suggestions, err := h.taskService.SuggestTasks(c.Request.Context(), req.Text)
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"tasks": suggestions,
	})
}

// parseTaskID extracts the task id path parameter, responding with 404 on a
// malformed id so unparseable ids look the same as missing ones.
func parseTaskID(c *gin.Context) (uint64, bool) {
	taskID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		apierrors.NotFound(c, "Task not found")
		return 0, false
	}
	return taskID, true
}

// respondTaskError maps domain errors to the fixed API error shapes.
func respondTaskError(c *gin.Context, err error) {
	var vErr *services.ValidationError
	switch {
	case errors.As(err, &vErr):
		apierrors.BadRequestWithDetails(c, "Invalid input", gin.H{
			"field":  vErr.Field,
			"reason": vErr.Reason,
		})
	case errors.Is(err, services.ErrTaskNotFound):
		apierrors.NotFound(c, "Task not found")
	case errors.Is(err, services.ErrStoreUnavailable):
		apierrors.StoreUnavailable(c, "")
	case errors.Is(err, services.ErrAIServiceNotConfigured):
		apierrors.ServiceUnavailable(c, "AI suggestions are not configured")
	case errors.Is(err, services.ErrAINoTasksSuggested),
		errors.Is(err, services.ErrAINoValidTasks):
		apierrors.BadRequest(c, "No tasks could be suggested from the text")
	default:
		apierrors.InternalError(c, "")
	}
}
