package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"gorm.io/gorm"

	"productivity-backend/internal/constants"
	"productivity-backend/internal/models"
	"productivity-backend/internal/repository"
)

var (
	ErrTaskNotFound     = errors.New("task not found")
	ErrStoreUnavailable = errors.New("storage unavailable")

	ErrAIServiceNotConfigured = errors.New("AI service is not configured")
	ErrAINoTasksSuggested     = errors.New("AI did not suggest any tasks")
	ErrAINoValidTasks         = errors.New("no valid tasks could be built from AI output")
)

// ValidationError reports a malformed or out-of-range input field. It is
// raised before any store call is made.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Field + " " + e.Reason
}

// storeErr wraps a persistence failure so callers can map it to a single
// response shape without seeing the underlying driver error.
func storeErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrStoreUnavailable, op, err)
}

// sortColumns maps request-level sort keys to task table columns. Only keys
// present here may reach the store.
var sortColumns = map[string]string{
	"createdAt": "created_at",
	"updatedAt": "updated_at",
	"deadline":  "deadline",
	"priority":  "priority",
	"title":     "title",
	"status":    "status",
}

var taskRelations = []string{"Reminders", "Attachments"}

// TaskService owns the task lifecycle: creation, partial updates, status
// transitions, deletion, filtered queries, and statistics. Every operation
// takes the owner's user ID explicitly and never reaches tasks of other
// owners.
type TaskService struct {
	taskRepo  repository.TaskRepository
	aiService *AIService
}

// NewTaskService creates a new TaskService
func NewTaskService(taskRepo repository.TaskRepository, aiService *AIService) *TaskService {
	return &TaskService{
		taskRepo:  taskRepo,
		aiService: aiService,
	}
}

// CreateTaskInput represents input for creating a task. Status is not an
// input; new tasks always start pending.
type CreateTaskInput struct {
	Title        string
	Description  string
	Priority     string
	Deadline     *time.Time
	Duration     *int
	Reminders    []time.Time
	Attachments  []string
	LinkedNoteID *uint64
}

// UpdateTaskInput represents a partial update. Nil pointers leave the field
// untouched; the Clear* and *Set flags distinguish "set to null" from
// "field absent".
type UpdateTaskInput struct {
	Title           *string
	Description     *string
	Priority        *string
	Status          *string
	Deadline        *time.Time
	ClearDeadline   bool
	Duration        *int
	ClearDuration   bool
	LinkedNoteID    *uint64
	ClearLinkedNote bool
	Reminders       []time.Time
	RemindersSet    bool
	Attachments     []string
	AttachmentsSet  bool
}

// QueryTasksInput carries raw filter parameters. Enum and range validation
// happens here, before a repository filter is constructed.
type QueryTasksInput struct {
	Status   string
	Priority string
	Search   string
	SortBy   string
	Order    string
	Page     int
	Limit    int
}

// StatsSummary is the aggregate view over one user's task set.
type StatsSummary struct {
	TotalTasks        int64                         `json:"totalTasks"`
	CompletedTasks    int64                         `json:"completedTasks"`
	CompletionRate    int                           `json:"completionRate"`
	StatusBreakdown   map[models.TaskStatus]int64   `json:"statusBreakdown"`
	PriorityBreakdown map[models.TaskPriority]int64 `json:"priorityBreakdown"`
}

// Create validates the input and persists a new pending task for the owner.
func (s *TaskService) Create(ctx context.Context, ownerID uint64, input CreateTaskInput) (*models.Task, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, &ValidationError{Field: "title", Reason: "is required"}
	}

	priority := models.TaskPriorityMedium
	if input.Priority != "" {
		priority = models.TaskPriority(input.Priority)
		if !priority.Valid() {
			return nil, &ValidationError{Field: "priority", Reason: "must be one of low, medium, high"}
		}
	}

	if input.Duration != nil && *input.Duration < 0 {
		return nil, &ValidationError{Field: "duration", Reason: "must be zero or positive"}
	}

	task := &models.Task{
		OwnerID:      ownerID,
		Title:        title,
		Description:  input.Description,
		Priority:     priority,
		Status:       models.TaskStatusPending,
		Deadline:     input.Deadline,
		Duration:     input.Duration,
		LinkedNoteID: input.LinkedNoteID,
		Reminders:    toReminderRows(input.Reminders),
		Attachments:  toAttachmentRows(input.Attachments),
	}

	if err := s.taskRepo.Create(ctx, task); err != nil {
		return nil, storeErr("create task", err)
	}

	return s.findTask(ctx, ownerID, task.ID, taskRelations...)
}

// Get returns one of the owner's tasks with its reminders and attachments.
func (s *TaskService) Get(ctx context.Context, ownerID, taskID uint64) (*models.Task, error) {
	return s.findTask(ctx, ownerID, taskID, taskRelations...)
}

// ListAll returns every task owned by the user, newest first.
func (s *TaskService) ListAll(ctx context.Context, ownerID uint64) ([]models.Task, error) {
	tasks, err := s.taskRepo.ListAll(ctx, ownerID)
	if err != nil {
		return nil, storeErr("list tasks", err)
	}
	return tasks, nil
}

// Update applies a partial update to one of the owner's tasks. Fields not
// present in the input are left untouched; the owner can never change. A
// status carried in the update goes through the same completion side effect
// as SetStatus, so completed_at stays consistent on every mutation path.
// Concurrent updates race with last-writer-wins semantics.
func (s *TaskService) Update(ctx context.Context, ownerID, taskID uint64, input UpdateTaskInput) (*models.Task, error) {
	task, err := s.findTask(ctx, ownerID, taskID)
	if err != nil {
		return nil, err
	}

	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title == "" {
			return nil, &ValidationError{Field: "title", Reason: "cannot be empty"}
		}
		task.Title = title
	}
	if input.Description != nil {
		task.Description = *input.Description
	}
	if input.Priority != nil {
		priority := models.TaskPriority(*input.Priority)
		if !priority.Valid() {
			return nil, &ValidationError{Field: "priority", Reason: "must be one of low, medium, high"}
		}
		task.Priority = priority
	}
	if input.Status != nil {
		status := models.TaskStatus(*input.Status)
		if !status.Valid() {
			return nil, &ValidationError{Field: "status", Reason: "must be one of pending, in-progress, completed"}
		}
		applyStatus(task, status, time.Now())
	}
	if input.ClearDeadline {
		task.Deadline = nil
	} else if input.Deadline != nil {
		task.Deadline = input.Deadline
	}
	if input.ClearDuration {
		task.Duration = nil
	} else if input.Duration != nil {
		if *input.Duration < 0 {
			return nil, &ValidationError{Field: "duration", Reason: "must be zero or positive"}
		}
		task.Duration = input.Duration
	}
	if input.ClearLinkedNote {
		task.LinkedNoteID = nil
	} else if input.LinkedNoteID != nil {
		task.LinkedNoteID = input.LinkedNoteID
	}

	var reminders *[]models.TaskReminder
	if input.RemindersSet {
		rows := toReminderRows(input.Reminders)
		reminders = &rows
	}
	var attachments *[]models.TaskAttachment
	if input.AttachmentsSet {
		rows := toAttachmentRows(input.Attachments)
		attachments = &rows
	}

	if err := s.taskRepo.UpdateWithRelations(ctx, task, reminders, attachments); err != nil {
		return nil, storeErr("update task", err)
	}

	return s.findTask(ctx, ownerID, task.ID, taskRelations...)
}

// SetStatus moves one of the owner's tasks to the given status. The
// transition graph is deliberately unrestricted: any status may move to any
// other. Completing a task stamps completed_at with the current time;
// leaving the completed status clears it.
func (s *TaskService) SetStatus(ctx context.Context, ownerID, taskID uint64, status string) (*models.Task, error) {
	newStatus := models.TaskStatus(status)
	if !newStatus.Valid() {
		return nil, &ValidationError{Field: "status", Reason: "must be one of pending, in-progress, completed"}
	}

	task, err := s.findTask(ctx, ownerID, taskID, taskRelations...)
	if err != nil {
		return nil, err
	}

	applyStatus(task, newStatus, time.Now())

	if err := s.taskRepo.Update(ctx, task); err != nil {
		return nil, storeErr("update task status", err)
	}

	return task, nil
}

// Delete permanently removes one of the owner's tasks. No soft delete.
func (s *TaskService) Delete(ctx context.Context, ownerID, taskID uint64) error {
	if _, err := s.findTask(ctx, ownerID, taskID); err != nil {
		return err
	}

	if err := s.taskRepo.Delete(ctx, ownerID, taskID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrTaskNotFound
		}
		return storeErr("delete task", err)
	}

	return nil
}

// Query validates the filter parameters, composes the filter plan, and
// returns the matching page of tasks plus the total match count.
func (s *TaskService) Query(ctx context.Context, ownerID uint64, input QueryTasksInput) ([]models.Task, int64, error) {
	filter := repository.TaskFilter{Search: input.Search}

	if input.Status != "" {
		status := models.TaskStatus(input.Status)
		if !status.Valid() {
			return nil, 0, &ValidationError{Field: "status", Reason: "must be one of pending, in-progress, completed"}
		}
		filter.Status = &status
	}
	if input.Priority != "" {
		priority := models.TaskPriority(input.Priority)
		if !priority.Valid() {
			return nil, 0, &ValidationError{Field: "priority", Reason: "must be one of low, medium, high"}
		}
		filter.Priority = &priority
	}

	sortBy := input.SortBy
	if sortBy == "" {
		sortBy = "createdAt"
	}
	column, ok := sortColumns[sortBy]
	if !ok {
		return nil, 0, &ValidationError{Field: "sortBy", Reason: "is not a sortable field"}
	}
	filter.SortColumn = column

	switch input.Order {
	case "", "desc":
		filter.SortDesc = true
	case "asc":
		filter.SortDesc = false
	default:
		return nil, 0, &ValidationError{Field: "order", Reason: "must be asc or desc"}
	}

	if input.Page < 1 {
		return nil, 0, &ValidationError{Field: "page", Reason: "must be a positive integer"}
	}
	if input.Limit < 1 {
		return nil, 0, &ValidationError{Field: "limit", Reason: "must be a positive integer"}
	}
	if input.Limit > constants.MaxPageSize {
		return nil, 0, &ValidationError{Field: "limit", Reason: fmt.Sprintf("must be at most %d", constants.MaxPageSize)}
	}
	filter.Page = input.Page
	filter.PageSize = input.Limit

	tasks, total, err := s.taskRepo.List(ctx, ownerID, filter)
	if err != nil {
		return nil, 0, storeErr("query tasks", err)
	}

	return tasks, total, nil
}

// Stats aggregates the owner's tasks into totals, a completion rate, and
// per-status / per-priority breakdowns. The breakdowns only contain values
// actually present in the task set.
func (s *TaskService) Stats(ctx context.Context, ownerID uint64) (*StatsSummary, error) {
	raw, err := s.taskRepo.Stats(ctx, ownerID)
	if err != nil {
		return nil, storeErr("aggregate task stats", err)
	}

	var total int64
	for _, count := range raw.ByStatus {
		total += count
	}
	completed := raw.ByStatus[models.TaskStatusCompleted]

	rate := 0
	if total > 0 {
		rate = int(math.Round(float64(completed) / float64(total) * 100))
	}

	return &StatsSummary{
		TotalTasks:        total,
		CompletedTasks:    completed,
		CompletionRate:    rate,
		StatusBreakdown:   raw.ByStatus,
		PriorityBreakdown: raw.ByPriority,
	}, nil
}

// SuggestTasks turns free text into task suggestions via the AI service.
// Suggestions are not persisted; the client decides what to create.
func (s *TaskService) SuggestTasks(ctx context.Context, text string) ([]TaskSuggestion, error) {
	if s.aiService == nil {
		return nil, ErrAIServiceNotConfigured
	}
	if strings.TrimSpace(text) == "" {
		return nil, &ValidationError{Field: "text", Reason: "is required"}
	}

	suggestions, err := s.aiService.SuggestTasksFromText(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("failed to suggest tasks: %w", err)
	}

	if len(suggestions) == 0 {
		return nil, ErrAINoTasksSuggested
	}
	if len(suggestions) > constants.MaxSuggestedTasks {
		return nil, fmt.Errorf("AI suggested too many tasks (max %d)", constants.MaxSuggestedTasks)
	}

	valid := make([]TaskSuggestion, 0, len(suggestions))
	cutoff := time.Now().Add(-24 * time.Hour)
	for _, suggestion := range suggestions {
		if strings.TrimSpace(suggestion.Title) == "" {
			continue
		}
		if !models.TaskPriority(suggestion.Priority).Valid() {
			suggestion.Priority = string(models.TaskPriorityMedium)
		}
		if suggestion.Deadline != nil && suggestion.Deadline.Before(cutoff) {
			suggestion.Deadline = nil
		}
		valid = append(valid, suggestion)
	}

	if len(valid) == 0 {
		return nil, ErrAINoValidTasks
	}

	return valid, nil
}

// findTask fetches a task within the owner's scope and maps missing rows
// (including rows owned by someone else) to ErrTaskNotFound.
func (s *TaskService) findTask(ctx context.Context, ownerID, taskID uint64, preload ...string) (*models.Task, error) {
	task, err := s.taskRepo.FindByID(ctx, ownerID, taskID, preload...)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, storeErr("find task", err)
	}
	return task, nil
}

// applyStatus performs the status transition side effect: completed_at is
// non-nil exactly when the task is completed.
func applyStatus(task *models.Task, status models.TaskStatus, now time.Time) {
	task.Status = status
	if status == models.TaskStatusCompleted {
		task.CompletedAt = &now
	} else {
		task.CompletedAt = nil
	}
}

func toReminderRows(remindAt []time.Time) []models.TaskReminder {
	rows := make([]models.TaskReminder, 0, len(remindAt))
	for _, t := range remindAt {
		rows = append(rows, models.TaskReminder{RemindAt: t})
	}
	return rows
}

func toAttachmentRows(refs []string) []models.TaskAttachment {
	rows := make([]models.TaskAttachment, 0, len(refs))
	for _, ref := range refs {
		rows = append(rows, models.TaskAttachment{Ref: ref})
	}
	return rows
}
