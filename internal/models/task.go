package models

import (
	"time"
)

type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusInProgress TaskStatus = "in-progress"
	TaskStatusCompleted  TaskStatus = "completed"
)

// Valid reports whether the status is one of the three known values.
func (s TaskStatus) Valid() bool {
	switch s {
	case TaskStatusPending, TaskStatusInProgress, TaskStatusCompleted:
		return true
	}
	return false
}

type TaskPriority string

const (
	TaskPriorityLow    TaskPriority = "low"
	TaskPriorityMedium TaskPriority = "medium"
	TaskPriorityHigh   TaskPriority = "high"
)

// Valid reports whether the priority is one of the three known values.
func (p TaskPriority) Valid() bool {
	switch p {
	case TaskPriorityLow, TaskPriorityMedium, TaskPriorityHigh:
		return true
	}
	return false
}

// Task is owned by exactly one user. Deletes are hard deletes; there is no
// archive state.
type Task struct {
	ID           uint64       `gorm:"primarykey" json:"id"`
	OwnerID      uint64       `gorm:"not null;index" json:"owner_id"`
	Title        string       `gorm:"not null" json:"title"`
	Description  string       `gorm:"type:text" json:"description"`
	Priority     TaskPriority `gorm:"type:varchar(10);not null;default:'medium'" json:"priority"`
	Status       TaskStatus   `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`
	Deadline     *time.Time   `json:"deadline"`
	Duration     *int         `json:"duration"` // minutes
	LinkedNoteID *uint64      `json:"linked_note_id"`
	// CompletedAt is set when status becomes completed and cleared otherwise.
	CompletedAt *time.Time `json:"completed_at"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`

	// Relations
	Reminders   []TaskReminder   `gorm:"foreignKey:TaskID" json:"reminders,omitempty"`
	Attachments []TaskAttachment `gorm:"foreignKey:TaskID" json:"attachments,omitempty"`
}

// TaskReminder is a single reminder timestamp attached to a task. Insertion
// order is preserved through the autoincrement key.
type TaskReminder struct {
	ID       uint64    `gorm:"primarykey" json:"id"`
	TaskID   uint64    `gorm:"not null;index" json:"task_id"`
	RemindAt time.Time `gorm:"not null" json:"remind_at"`
}

// TaskAttachment holds an opaque reference string (URL or file path). The
// backend does not interpret or dereference it.
type TaskAttachment struct {
	ID     uint64 `gorm:"primarykey" json:"id"`
	TaskID uint64 `gorm:"not null;index" json:"task_id"`
	Ref    string `gorm:"type:varchar(1024);not null" json:"ref"`
}
