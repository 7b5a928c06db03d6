package constants

// Session / context keys
const (
	ContextKeyUserID  = "user_id"
	SessionCookieName = "task_session"
)

// Validation limits
const (
	MinPasswordLength = 8
	MaxSuggestedTasks = 20
)

// Pagination defaults and bounds
const (
	DefaultPage     = 1
	DefaultPageSize = 10
	MaxPageSize     = 100
)
