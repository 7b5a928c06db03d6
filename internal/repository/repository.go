package repository

import (
	"context"

	"productivity-backend/internal/models"
)

// TaskRepository defines the interface for task data access. Every method
// that touches existing rows takes the owner's user ID and conjoins it with
// the rest of the query; rows belonging to other owners are unreachable
// through this interface.
type TaskRepository interface {
	// Create persists a new task together with its reminder and
	// attachment rows.
	Create(ctx context.Context, task *models.Task) error

	// FindByID finds a task by ID within the owner's scope, with optional
	// preloading.
	FindByID(ctx context.Context, ownerID, id uint64, preload ...string) (*models.Task, error)

	// ListAll retrieves every task owned by the user, newest first.
	ListAll(ctx context.Context, ownerID uint64) ([]models.Task, error)

	// List retrieves tasks matching the filter plan plus the total count
	// of matching rows before pagination.
	List(ctx context.Context, ownerID uint64, filter TaskFilter) ([]models.Task, int64, error)

	// Update persists changed task columns, leaving child rows untouched.
	Update(ctx context.Context, task *models.Task) error

	// UpdateWithRelations persists changed task columns and, for each
	// non-nil child set, swaps the task's child rows for the given set.
	// The whole write runs in one transaction: on error nothing is
	// persisted, the task row included.
	UpdateWithRelations(ctx context.Context, task *models.Task, reminders *[]models.TaskReminder, attachments *[]models.TaskAttachment) error

	// Delete removes a task and its child rows permanently.
	Delete(ctx context.Context, ownerID, id uint64) error

	// Stats aggregates per-status and per-priority counts for the owner's
	// tasks.
	Stats(ctx context.Context, ownerID uint64) (*TaskStats, error)
}

// TaskFilter is the validated filter plan for listing tasks. Nil pointer /
// zero-value fields mean the filter is not applied. SortColumn must be a
// known column name; validation happens in the service layer before a
// filter is ever constructed.
type TaskFilter struct {
	Status     *models.TaskStatus
	Priority   *models.TaskPriority
	Search     string
	SortColumn string
	SortDesc   bool
	Page       int
	PageSize   int
}

// TaskStats holds raw aggregation results for one owner's task set.
type TaskStats struct {
	ByStatus   map[models.TaskStatus]int64
	ByPriority map[models.TaskPriority]int64
}

// UserRepository defines the interface for user data access
type UserRepository interface {
	// Create creates a new user
	Create(user *models.User) error

	// FindByID finds a user by ID
	FindByID(id uint64) (*models.User, error)

	// FindByEmail finds a user by email
	FindByEmail(email string) (*models.User, error)
}
