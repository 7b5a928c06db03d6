package repository

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"productivity-backend/internal/database"
	"productivity-backend/internal/models"
)

// GormTaskRepository is a GORM implementation of TaskRepository
type GormTaskRepository struct {
	db *gorm.DB
}

// NewTaskRepository creates a new TaskRepository
func NewTaskRepository(db *gorm.DB) TaskRepository {
	return &GormTaskRepository{db: db}
}

// Create persists a new task. Reminder and attachment rows attached to the
// struct are inserted in the same statement batch.
func (r *GormTaskRepository) Create(ctx context.Context, task *models.Task) error {
	return r.db.WithContext(ctx).Create(task).Error
}

// FindByID finds a task by ID within the owner's scope, with optional preloading
func (r *GormTaskRepository) FindByID(ctx context.Context, ownerID, id uint64, preload ...string) (*models.Task, error) {
	var task models.Task
	query := r.db.WithContext(ctx).Scopes(database.OwnedBy(ownerID))

	for _, p := range preload {
		query = query.Preload(p)
	}

	if err := query.First(&task, id).Error; err != nil {
		return nil, err
	}

	return &task, nil
}

// ListAll retrieves every task owned by the user, newest first
func (r *GormTaskRepository) ListAll(ctx context.Context, ownerID uint64) ([]models.Task, error) {
	var tasks []models.Task
	err := r.db.WithContext(ctx).
		Scopes(database.OwnedBy(ownerID)).
		Order("tasks.created_at DESC").
		Preload("Reminders").
		Preload("Attachments").
		Find(&tasks).Error
	if err != nil {
		return nil, err
	}
	return tasks, nil
}

// List retrieves tasks matching the filter plan and the total count of
// matching rows. Ties under the single sort column fall back to
// store-native order, so row order across equal keys is not guaranteed.
func (r *GormTaskRepository) List(ctx context.Context, ownerID uint64, filter TaskFilter) ([]models.Task, int64, error) {
	var tasks []models.Task

	query := r.db.WithContext(ctx).Model(&models.Task{}).Scopes(database.OwnedBy(ownerID))

	if filter.Status != nil {
		query = query.Where("tasks.status = ?", *filter.Status)
	}
	if filter.Priority != nil {
		query = query.Where("tasks.priority = ?", *filter.Priority)
	}
	if filter.Search != "" {
		pattern := "%" + escapeLike(strings.ToLower(filter.Search)) + "%"
		query = query.Where(
			"LOWER(tasks.title) LIKE ? ESCAPE '!' OR LOWER(tasks.description) LIKE ? ESCAPE '!'",
			pattern, pattern,
		)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	direction := "ASC"
	if filter.SortDesc {
		direction = "DESC"
	}
	listQuery := query.Order("tasks." + filter.SortColumn + " " + direction)

	if filter.Page > 0 && filter.PageSize > 0 {
		listQuery = listQuery.Scopes(database.Paginate(filter.Page, filter.PageSize))
	}

	if err := listQuery.Preload("Reminders").Preload("Attachments").Find(&tasks).Error; err != nil {
		return nil, 0, err
	}

	return tasks, total, nil
}

// Update persists changed task columns, leaving child rows untouched
func (r *GormTaskRepository) Update(ctx context.Context, task *models.Task) error {
	return r.db.WithContext(ctx).Omit("Reminders", "Attachments").Save(task).Error
}

// UpdateWithRelations persists changed task columns and swaps child rows in
// one transaction, so a failed child write also rolls back the column update
func (r *GormTaskRepository) UpdateWithRelations(ctx context.Context, task *models.Task, reminders *[]models.TaskReminder, attachments *[]models.TaskAttachment) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Reminders", "Attachments").Save(task).Error; err != nil {
			return err
		}
		if reminders != nil {
			if err := replaceReminderRows(tx, task.ID, *reminders); err != nil {
				return err
			}
		}
		if attachments != nil {
			if err := replaceAttachmentRows(tx, task.ID, *attachments); err != nil {
				return err
			}
		}
		return nil
	})
}

func replaceReminderRows(tx *gorm.DB, taskID uint64, reminders []models.TaskReminder) error {
	if err := tx.Where("task_id = ?", taskID).Delete(&models.TaskReminder{}).Error; err != nil {
		return err
	}
	if len(reminders) == 0 {
		return nil
	}
	for i := range reminders {
		reminders[i].TaskID = taskID
	}
	return tx.Create(&reminders).Error
}

func replaceAttachmentRows(tx *gorm.DB, taskID uint64, attachments []models.TaskAttachment) error {
	if err := tx.Where("task_id = ?", taskID).Delete(&models.TaskAttachment{}).Error; err != nil {
		return err
	}
	if len(attachments) == 0 {
		return nil
	}
	for i := range attachments {
		attachments[i].TaskID = taskID
	}
	return tx.Create(&attachments).Error
}

// Delete removes a task and its child rows permanently
func (r *GormTaskRepository) Delete(ctx context.Context, ownerID, id uint64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("task_id = ?", id).Delete(&models.TaskReminder{}).Error; err != nil {
			return err
		}
		if err := tx.Where("task_id = ?", id).Delete(&models.TaskAttachment{}).Error; err != nil {
			return err
		}

		res := tx.Scopes(database.OwnedBy(ownerID)).Delete(&models.Task{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

// Stats aggregates per-status and per-priority counts for the owner's tasks.
// Totals are derived from the status breakdown, so the summary numbers and
// the status counts always agree with each other.
func (r *GormTaskRepository) Stats(ctx context.Context, ownerID uint64) (*TaskStats, error) {
	type statusRow struct {
		Status models.TaskStatus
		Count  int64
	}
	type priorityRow struct {
		Priority models.TaskPriority
		Count    int64
	}

	var statusRows []statusRow
	err := r.db.WithContext(ctx).
		Model(&models.Task{}).
		Scopes(database.OwnedBy(ownerID)).
		Select("tasks.status AS status, COUNT(*) AS count").
		Group("tasks.status").
		Scan(&statusRows).Error
	if err != nil {
		return nil, err
	}

	var priorityRows []priorityRow
	err = r.db.WithContext(ctx).
		Model(&models.Task{}).
		Scopes(database.OwnedBy(ownerID)).
		Select("tasks.priority AS priority, COUNT(*) AS count").
		Group("tasks.priority").
		Scan(&priorityRows).Error
	if err != nil {
		return nil, err
	}

	stats := &TaskStats{
		ByStatus:   make(map[models.TaskStatus]int64, len(statusRows)),
		ByPriority: make(map[models.TaskPriority]int64, len(priorityRows)),
	}
	for _, row := range statusRows {
		stats.ByStatus[row.Status] = row.Count
	}
	for _, row := range priorityRows {
		stats.ByPriority[row.Priority] = row.Count
	}

	return stats, nil
}

// escapeLike makes %, _ and the escape character itself literal inside a
// LIKE pattern. '!' is used as the escape character because it behaves the
// same across mysql, postgres and sqlite.
func escapeLike(s string) string {
	s = strings.ReplaceAll(s, "!", "!!")
	s = strings.ReplaceAll(s, "%", "!%")
	s = strings.ReplaceAll(s, "_", "!_")
	return s
}
