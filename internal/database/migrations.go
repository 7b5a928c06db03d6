package database

import (
	"fmt"

	"gorm.io/gorm"
)

// AddIndexes adds performance-critical indexes to the database.
// The pg_indexes lookup ties this to the postgres driver; under mysql the
// indexes declared through model tags are sufficient.
func AddIndexes(db *gorm.DB) error {
	indexes := []struct {
		table   string
		name    string
		columns string
	}{
		// Task indexes for owner scoping, filtering, and sorting
		{"tasks", "idx_tasks_owner_id", "owner_id"},
		{"tasks", "idx_tasks_owner_status", "owner_id, status"},
		{"tasks", "idx_tasks_owner_priority", "owner_id, priority"},
		{"tasks", "idx_tasks_deadline", "deadline"},
		{"tasks", "idx_tasks_created_at", "created_at"},

		// Child-row lookups
		{"task_reminders", "idx_task_reminders_task_id", "task_id"},
		{"task_attachments", "idx_task_attachments_task_id", "task_id"},
	}

	for _, idx := range indexes {
		var count int64
		err := db.Raw(`
			SELECT COUNT(*)
			FROM pg_indexes
			WHERE tablename = ? AND indexname = ?
		`, idx.table, idx.name).Count(&count).Error

		if err != nil {
			return fmt.Errorf("failed to check index %s: %w", idx.name, err)
		}

		if count > 0 {
			fmt.Printf("Index %s already exists, skipping\n", idx.name)
			continue
		}

		sql := fmt.Sprintf("CREATE INDEX %s ON %s (%s)", idx.name, idx.table, idx.columns)
		if err := db.Exec(sql).Error; err != nil {
			return fmt.Errorf("failed to create index %s: %w", idx.name, err)
		}

		fmt.Printf("Created index %s on %s(%s)\n", idx.name, idx.table, idx.columns)
	}

	return nil
}
