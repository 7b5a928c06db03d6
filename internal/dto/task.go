package dto

import (
	"time"

	"productivity-backend/internal/models"
)

// UserDTO represents a user in API responses
type UserDTO struct {
	ID    uint64 `json:"id"`
	Email string `json:"email"`
}

// TaskDTO represents a task in API responses. Reminder and attachment rows
// are flattened into plain sequences.
type TaskDTO struct {
	ID           uint64              `json:"id"`
	OwnerID      uint64              `json:"owner_id"`
	Title        string              `json:"title"`
	Description  string              `json:"description"`
	Priority     models.TaskPriority `json:"priority"`
	Status       models.TaskStatus   `json:"status"`
	Deadline     *time.Time          `json:"deadline"`
	Duration     *int                `json:"duration"`
	Reminders    []time.Time         `json:"reminders"`
	Attachments  []string            `json:"attachments"`
	LinkedNoteID *uint64             `json:"linked_note_id"`
	CompletedAt  *time.Time          `json:"completed_at"`
	CreatedAt    time.Time           `json:"created_at"`
	UpdatedAt    time.Time           `json:"updated_at"`
}

// PaginationDTO carries page arithmetic for a filtered task query.
type PaginationDTO struct {
	CurrentPage int   `json:"currentPage"`
	TotalPages  int   `json:"totalPages"`
	TotalTasks  int64 `json:"totalTasks"`
	HasNext     bool  `json:"hasNext"`
	HasPrev     bool  `json:"hasPrev"`
}

// TaskQueryResponse represents a paginated, filtered list of tasks
type TaskQueryResponse struct {
	Tasks      []TaskDTO     `json:"tasks"`
	Pagination PaginationDTO `json:"pagination"`
}

// ToUserDTO converts a User model to UserDTO
func ToUserDTO(user models.User) UserDTO {
	return UserDTO{
		ID:    user.ID,
		Email: user.Email,
	}
}

// ToTaskDTO converts a Task model to TaskDTO
func ToTaskDTO(task models.Task) TaskDTO {
	reminders := make([]time.Time, len(task.Reminders))
	for i, r := range task.Reminders {
		reminders[i] = r.RemindAt
	}

	attachments := make([]string, len(task.Attachments))
	for i, a := range task.Attachments {
		attachments[i] = a.Ref
	}

	return TaskDTO{
		ID:           task.ID,
		OwnerID:      task.OwnerID,
		Title:        task.Title,
		Description:  task.Description,
		Priority:     task.Priority,
		Status:       task.Status,
		Deadline:     task.Deadline,
		Duration:     task.Duration,
		Reminders:    reminders,
		Attachments:  attachments,
		LinkedNoteID: task.LinkedNoteID,
		CompletedAt:  task.CompletedAt,
		CreatedAt:    task.CreatedAt,
		UpdatedAt:    task.UpdatedAt,
	}
}

// ToTaskDTOs converts a slice of tasks
func ToTaskDTOs(tasks []models.Task) []TaskDTO {
	items := make([]TaskDTO, len(tasks))
	for i, task := range tasks {
		items[i] = ToTaskDTO(task)
	}
	return items
}

// NewPaginationDTO computes page arithmetic from the total match count.
func NewPaginationDTO(page, limit int, total int64) PaginationDTO {
	totalPages := int(total) / limit
	if int(total)%limit > 0 {
		totalPages++
	}

	return PaginationDTO{
		CurrentPage: page,
		TotalPages:  totalPages,
		TotalTasks:  total,
		HasNext:     int64(page*limit) < total,
		HasPrev:     page > 1,
	}
}

// ToTaskQueryResponse assembles the filtered-list payload
func ToTaskQueryResponse(tasks []models.Task, page, limit int, total int64) TaskQueryResponse {
	return TaskQueryResponse{
		Tasks:      ToTaskDTOs(tasks),
		Pagination: NewPaginationDTO(page, limit, total),
	}
}
