package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"productivity-backend/internal/constants"
	"productivity-backend/internal/models"
	"productivity-backend/internal/repository"
	"productivity-backend/internal/services"
)

// TaskHandlerTestSuite defines the test suite for TaskHandler
type TaskHandlerTestSuite struct {
	suite.Suite
	db      *gorm.DB
	handler *TaskHandler
}

// SetupTest runs before each test
func (suite *TaskHandlerTestSuite) SetupTest() {
	var err error

	// Create in-memory SQLite database
	suite.db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	suite.Require().NoError(err)

	// Run migrations
	err = suite.db.AutoMigrate(
		&models.User{},
		&models.Task{},
		&models.TaskReminder{},
		&models.TaskAttachment{},
	)
	suite.Require().NoError(err)

	taskRepo := repository.NewTaskRepository(suite.db)
	taskService := services.NewTaskService(taskRepo, nil)
	suite.handler = NewTaskHandler(taskService)

	// Set Gin to test mode
	gin.SetMode(gin.TestMode)
}

// TearDownTest runs after each test
func (suite *TaskHandlerTestSuite) TearDownTest() {
	sqlDB, err := suite.db.DB()
	suite.Require().NoError(err)
	sqlDB.Close()
}

// Helper function to create test data
func (suite *TaskHandlerTestSuite) createTestUser(email string) *models.User {
	user := &models.User{
		Email:        email,
		PasswordHash: "hashedpassword",
	}
	suite.db.Create(user)
	return user
}

func (suite *TaskHandlerTestSuite) createTestTask(title string, ownerID uint64) *models.Task {
	task := &models.Task{
		Title:       title,
		Description: "Test Description",
		OwnerID:     ownerID,
		Priority:    models.TaskPriorityMedium,
		Status:      models.TaskStatusPending,
	}
	suite.db.Create(task)
	return task
}

// Helper function to create authenticated context
func (suite *TaskHandlerTestSuite) createAuthContext(method, url string, body []byte, userID uint64) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, url, bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, url, nil)
	}

	c, _ := gin.CreateTestContext(w)
	c.Request = req
	c.Set(constants.ContextKeyUserID, userID)

	return c, w
}

func setTaskIDParam(c *gin.Context, id uint64) {
	c.Params = gin.Params{{Key: "id", Value: strconv.FormatUint(id, 10)}}
}

func (suite *TaskHandlerTestSuite) TestCreateTask_Defaults() {
	user := suite.createTestUser("test@example.com")

	requestBody := map[string]interface{}{
		"title":    "Write report",
		"priority": "high",
	}
	body, _ := json.Marshal(requestBody)

	c, w := suite.createAuthContext("POST", "/api/tasks", body, user.ID)

	suite.handler.CreateTask(c)

	assert.Equal(suite.T(), http.StatusCreated, w.Code)

	var response map[string]interface{}
	err := json.Unmarshal(w.Body.Bytes(), &response)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), "Write report", response["title"])
	assert.Equal(suite.T(), "high", response["priority"])
	assert.Equal(suite.T(), "pending", response["status"])
	assert.Nil(suite.T(), response["completed_at"])
	assert.Equal(suite.T(), float64(user.ID), response["owner_id"])
}

func (suite *TaskHandlerTestSuite) TestCreateTask_MissingTitle() {
	user := suite.createTestUser("test@example.com")

	requestBody := map[string]interface{}{
		"description": "no title here",
	}
	body, _ := json.Marshal(requestBody)

	c, w := suite.createAuthContext("POST", "/api/tasks", body, user.ID)

	suite.handler.CreateTask(c)

	assert.Equal(suite.T(), http.StatusBadRequest, w.Code)

	var count int64
	suite.db.Model(&models.Task{}).Count(&count)
	assert.Equal(suite.T(), int64(0), count)
}

func (suite *TaskHandlerTestSuite) TestCreateTask_InvalidPriority() {
	user := suite.createTestUser("test@example.com")

	requestBody := map[string]interface{}{
		"title":    "Bad priority",
		"priority": "urgent",
	}
	body, _ := json.Marshal(requestBody)

	c, w := suite.createAuthContext("POST", "/api/tasks", body, user.ID)

	suite.handler.CreateTask(c)

	assert.Equal(suite.T(), http.StatusBadRequest, w.Code)
}

func (suite *TaskHandlerTestSuite) TestCreateTask_NegativeDuration() {
	user := suite.createTestUser("test@example.com")

	requestBody := map[string]interface{}{
		"title":    "Bad duration",
		"duration": -5,
	}
	body, _ := json.Marshal(requestBody)

	c, w := suite.createAuthContext("POST", "/api/tasks", body, user.ID)

	suite.handler.CreateTask(c)

	assert.Equal(suite.T(), http.StatusBadRequest, w.Code)
}

func (suite *TaskHandlerTestSuite) TestCreateTask_WithRemindersAndAttachments() {
	user := suite.createTestUser("test@example.com")

	remindAt := time.Now().Add(time.Hour).UTC().Truncate(time.Second)
	requestBody := map[string]interface{}{
		"title":       "With extras",
		"reminders":   []string{remindAt.Format(time.RFC3339)},
		"attachments": []string{"s3://bucket/doc.pdf", "/files/notes.txt"},
	}
	body, _ := json.Marshal(requestBody)

	c, w := suite.createAuthContext("POST", "/api/tasks", body, user.ID)

	suite.handler.CreateTask(c)

	assert.Equal(suite.T(), http.StatusCreated, w.Code)

	var response map[string]interface{}
	err := json.Unmarshal(w.Body.Bytes(), &response)
	assert.NoError(suite.T(), err)
	assert.Len(suite.T(), response["reminders"], 1)
	assert.Len(suite.T(), response["attachments"], 2)
}

func (suite *TaskHandlerTestSuite) TestGetTask_Success() {
	user := suite.createTestUser("test@example.com")
	task := suite.createTestTask("Test Task", user.ID)

	c, w := suite.createAuthContext("GET", "/api/tasks/1", nil, user.ID)
	setTaskIDParam(c, task.ID)

	suite.handler.GetTask(c)

	assert.Equal(suite.T(), http.StatusOK, w.Code)

	var response map[string]interface{}
	err := json.Unmarshal(w.Body.Bytes(), &response)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), task.Title, response["title"])
}

func (suite *TaskHandlerTestSuite) TestGetTask_OtherOwner() {
	owner := suite.createTestUser("owner@example.com")
	other := suite.createTestUser("other@example.com")
	task := suite.createTestTask("Private Task", owner.ID)

	c, w := suite.createAuthContext("GET", "/api/tasks/1", nil, other.ID)
	setTaskIDParam(c, task.ID)

	suite.handler.GetTask(c)

	assert.Equal(suite.T(), http.StatusNotFound, w.Code)
}

func (suite *TaskHandlerTestSuite) TestListTasks_OwnershipIsolation() {
	userA := suite.createTestUser("a@example.com")
	userB := suite.createTestUser("b@example.com")
	suite.createTestTask("A task", userA.ID)
	suite.createTestTask("Another A task", userA.ID)
	suite.createTestTask("B task", userB.ID)

	c, w := suite.createAuthContext("GET", "/api/tasks", nil, userB.ID)

	suite.handler.ListTasks(c)

	assert.Equal(suite.T(), http.StatusOK, w.Code)

	var response map[string]interface{}
	err := json.Unmarshal(w.Body.Bytes(), &response)
	assert.NoError(suite.T(), err)

	tasks := response["tasks"].([]interface{})
	assert.Len(suite.T(), tasks, 1)
	first := tasks[0].(map[string]interface{})
	assert.Equal(suite.T(), "B task", first["title"])
}

func (suite *TaskHandlerTestSuite) TestUpdateTask_PartialFields() {
	user := suite.createTestUser("test@example.com")
	deadline := time.Now().Add(48 * time.Hour)
	task := &models.Task{
		Title:    "Original",
		OwnerID:  user.ID,
		Priority: models.TaskPriorityLow,
		Status:   models.TaskStatusPending,
		Deadline: &deadline,
	}
	suite.db.Create(task)

	requestBody := map[string]interface{}{
		"description": "now with details",
	}
	body, _ := json.Marshal(requestBody)

	c, w := suite.createAuthContext("PATCH", "/api/tasks/1", body, user.ID)
	setTaskIDParam(c, task.ID)

	suite.handler.UpdateTask(c)

	assert.Equal(suite.T(), http.StatusOK, w.Code)

	var response map[string]interface{}
	err := json.Unmarshal(w.Body.Bytes(), &response)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), "Original", response["title"])
	assert.Equal(suite.T(), "now with details", response["description"])
	assert.NotNil(suite.T(), response["deadline"])
}

func (suite *TaskHandlerTestSuite) TestUpdateTask_ExplicitNullClearsDeadline() {
	user := suite.createTestUser("test@example.com")
	deadline := time.Now().Add(48 * time.Hour)
	task := &models.Task{
		Title:    "Has deadline",
		OwnerID:  user.ID,
		Priority: models.TaskPriorityMedium,
		Status:   models.TaskStatusPending,
		Deadline: &deadline,
	}
	suite.db.Create(task)

	body := []byte(`{"deadline": null}`)

	c, w := suite.createAuthContext("PATCH", "/api/tasks/1", body, user.ID)
	setTaskIDParam(c, task.ID)

	suite.handler.UpdateTask(c)

	assert.Equal(suite.T(), http.StatusOK, w.Code)

	var response map[string]interface{}
	err := json.Unmarshal(w.Body.Bytes(), &response)
	assert.NoError(suite.T(), err)
	assert.Nil(suite.T(), response["deadline"])
}

func (suite *TaskHandlerTestSuite) TestUpdateTask_OtherOwner() {
	owner := suite.createTestUser("owner@example.com")
	other := suite.createTestUser("other@example.com")
	task := suite.createTestTask("Private Task", owner.ID)

	body := []byte(`{"title": "hijacked"}`)

	c, w := suite.createAuthContext("PATCH", "/api/tasks/1", body, other.ID)
	setTaskIDParam(c, task.ID)

	suite.handler.UpdateTask(c)

	assert.Equal(suite.T(), http.StatusNotFound, w.Code)

	var stored models.Task
	suite.db.First(&stored, task.ID)
	assert.Equal(suite.T(), "Private Task", stored.Title)
}

func (suite *TaskHandlerTestSuite) TestUpdateTaskStatus_CompleteThenReopen() {
	user := suite.createTestUser("test@example.com")
	task := suite.createTestTask("Write report", user.ID)

	body := []byte(`{"status": "completed"}`)
	c, w := suite.createAuthContext("PATCH", "/api/tasks/1/status", body, user.ID)
	setTaskIDParam(c, task.ID)

	suite.handler.UpdateTaskStatus(c)

	assert.Equal(suite.T(), http.StatusOK, w.Code)

	var response map[string]interface{}
	err := json.Unmarshal(w.Body.Bytes(), &response)
	assert.NoError(suite.T(), err)
	completed := response["task"].(map[string]interface{})
	assert.Equal(suite.T(), "completed", completed["status"])
	assert.NotNil(suite.T(), completed["completed_at"])

	body = []byte(`{"status": "pending"}`)
	c, w = suite.createAuthContext("PATCH", "/api/tasks/1/status", body, user.ID)
	setTaskIDParam(c, task.ID)

	suite.handler.UpdateTaskStatus(c)

	assert.Equal(suite.T(), http.StatusOK, w.Code)

	err = json.Unmarshal(w.Body.Bytes(), &response)
	assert.NoError(suite.T(), err)
	reopened := response["task"].(map[string]interface{})
	assert.Equal(suite.T(), "pending", reopened["status"])
	assert.Nil(suite.T(), reopened["completed_at"])
}

func (suite *TaskHandlerTestSuite) TestUpdateTaskStatus_InvalidStatus() {
	user := suite.createTestUser("test@example.com")
	task := suite.createTestTask("Test Task", user.ID)

	body := []byte(`{"status": "archived"}`)
	c, w := suite.createAuthContext("PATCH", "/api/tasks/1/status", body, user.ID)
	setTaskIDParam(c, task.ID)

	suite.handler.UpdateTaskStatus(c)

	assert.Equal(suite.T(), http.StatusBadRequest, w.Code)

	var stored models.Task
	suite.db.First(&stored, task.ID)
	assert.Equal(suite.T(), models.TaskStatusPending, stored.Status)
}

func (suite *TaskHandlerTestSuite) TestDeleteTask_Success() {
	user := suite.createTestUser("test@example.com")
	task := suite.createTestTask("Doomed Task", user.ID)

	c, w := suite.createAuthContext("DELETE", "/api/tasks/1", nil, user.ID)
	setTaskIDParam(c, task.ID)

	suite.handler.DeleteTask(c)

	assert.Equal(suite.T(), http.StatusOK, w.Code)

	var count int64
	suite.db.Model(&models.Task{}).Count(&count)
	assert.Equal(suite.T(), int64(0), count)
}

func (suite *TaskHandlerTestSuite) TestDeleteTask_OtherOwner() {
	owner := suite.createTestUser("owner@example.com")
	other := suite.createTestUser("other@example.com")
	task := suite.createTestTask("Private Task", owner.ID)

	c, w := suite.createAuthContext("DELETE", "/api/tasks/1", nil, other.ID)
	setTaskIDParam(c, task.ID)

	suite.handler.DeleteTask(c)

	assert.Equal(suite.T(), http.StatusNotFound, w.Code)

	var count int64
	suite.db.Model(&models.Task{}).Count(&count)
	assert.Equal(suite.T(), int64(1), count)
}

func (suite *TaskHandlerTestSuite) TestQueryTasks_Pagination() {
	user := suite.createTestUser("test@example.com")
	for i := 0; i < 12; i++ {
		suite.createTestTask("Task "+strconv.Itoa(i), user.ID)
	}

	c, w := suite.createAuthContext("GET", "/api/tasks/filter", nil, user.ID)
	c.Request.URL.RawQuery = "limit=10&page=2"

	suite.handler.QueryTasks(c)

	assert.Equal(suite.T(), http.StatusOK, w.Code)

	var response map[string]interface{}
	err := json.Unmarshal(w.Body.Bytes(), &response)
	assert.NoError(suite.T(), err)

	tasks := response["tasks"].([]interface{})
	assert.Len(suite.T(), tasks, 2)

	pagination := response["pagination"].(map[string]interface{})
	assert.Equal(suite.T(), float64(2), pagination["currentPage"])
	assert.Equal(suite.T(), float64(2), pagination["totalPages"])
	assert.Equal(suite.T(), float64(12), pagination["totalTasks"])
	assert.Equal(suite.T(), false, pagination["hasNext"])
	assert.Equal(suite.T(), true, pagination["hasPrev"])
}

func (suite *TaskHandlerTestSuite) TestQueryTasks_InvalidStatus() {
	user := suite.createTestUser("test@example.com")

	c, w := suite.createAuthContext("GET", "/api/tasks/filter", nil, user.ID)
	c.Request.URL.RawQuery = "status=archived"

	suite.handler.QueryTasks(c)

	assert.Equal(suite.T(), http.StatusBadRequest, w.Code)
}

func (suite *TaskHandlerTestSuite) TestQueryTasks_OversizedLimit() {
	user := suite.createTestUser("test@example.com")

	c, w := suite.createAuthContext("GET", "/api/tasks/filter", nil, user.ID)
	c.Request.URL.RawQuery = "limit=200"

	suite.handler.QueryTasks(c)

	assert.Equal(suite.T(), http.StatusBadRequest, w.Code)
}

func (suite *TaskHandlerTestSuite) TestQueryTasks_SearchAndStatusFilter() {
	user := suite.createTestUser("test@example.com")

	groceries := suite.createTestTask("Buy groceries", user.ID)
	suite.createTestTask("Write report", user.ID)
	done := suite.createTestTask("Grocery list cleanup", user.ID)
	suite.db.Model(done).Updates(map[string]interface{}{"status": "completed"})
	_ = groceries

	c, w := suite.createAuthContext("GET", "/api/tasks/filter", nil, user.ID)
	c.Request.URL.RawQuery = "search=grocer&status=pending"

	suite.handler.QueryTasks(c)

	assert.Equal(suite.T(), http.StatusOK, w.Code)

	var response map[string]interface{}
	err := json.Unmarshal(w.Body.Bytes(), &response)
	assert.NoError(suite.T(), err)

	tasks := response["tasks"].([]interface{})
	assert.Len(suite.T(), tasks, 1)
	first := tasks[0].(map[string]interface{})
	assert.Equal(suite.T(), "Buy groceries", first["title"])
}

func (suite *TaskHandlerTestSuite) TestQueryTasks_OwnershipIsolation() {
	userA := suite.createTestUser("a@example.com")
	userB := suite.createTestUser("b@example.com")
	suite.createTestTask("A only", userA.ID)

	c, w := suite.createAuthContext("GET", "/api/tasks/filter", nil, userB.ID)

	suite.handler.QueryTasks(c)

	assert.Equal(suite.T(), http.StatusOK, w.Code)

	var response map[string]interface{}
	err := json.Unmarshal(w.Body.Bytes(), &response)
	assert.NoError(suite.T(), err)

	tasks := response["tasks"].([]interface{})
	assert.Len(suite.T(), tasks, 0)

	pagination := response["pagination"].(map[string]interface{})
	assert.Equal(suite.T(), float64(0), pagination["totalTasks"])
}

func (suite *TaskHandlerTestSuite) TestGetTaskStats() {
	user := suite.createTestUser("test@example.com")
	other := suite.createTestUser("other@example.com")

	for i := 0; i < 3; i++ {
		suite.createTestTask("Pending "+strconv.Itoa(i), user.ID)
	}
	for i := 0; i < 2; i++ {
		task := suite.createTestTask("Done "+strconv.Itoa(i), user.ID)
		now := time.Now()
		suite.db.Model(task).Updates(map[string]interface{}{
			"status":       "completed",
			"completed_at": &now,
		})
	}
	// Another user's tasks must not leak into the stats
	suite.createTestTask("Foreign", other.ID)

	c, w := suite.createAuthContext("GET", "/api/tasks/stats", nil, user.ID)

	suite.handler.GetTaskStats(c)

	assert.Equal(suite.T(), http.StatusOK, w.Code)

	var response map[string]interface{}
	err := json.Unmarshal(w.Body.Bytes(), &response)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), float64(5), response["totalTasks"])
	assert.Equal(suite.T(), float64(2), response["completedTasks"])
	assert.Equal(suite.T(), float64(40), response["completionRate"])

	statusBreakdown := response["statusBreakdown"].(map[string]interface{})
	assert.Equal(suite.T(), float64(3), statusBreakdown["pending"])
	assert.Equal(suite.T(), float64(2), statusBreakdown["completed"])

	priorityBreakdown := response["priorityBreakdown"].(map[string]interface{})
	assert.Equal(suite.T(), float64(5), priorityBreakdown["medium"])
}

func (suite *TaskHandlerTestSuite) TestGetTaskStats_Empty() {
	user := suite.createTestUser("test@example.com")

	c, w := suite.createAuthContext("GET", "/api/tasks/stats", nil, user.ID)

	suite.handler.GetTaskStats(c)

	assert.Equal(suite.T(), http.StatusOK, w.Code)

	var response map[string]interface{}
	err := json.Unmarshal(w.Body.Bytes(), &response)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), float64(0), response["totalTasks"])
	assert.Equal(suite.T(), float64(0), response["completionRate"])
}

func (suite *TaskHandlerTestSuite) TestListTasks_Unauthorized() {
	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/tasks", nil)
	c, _ := gin.CreateTestContext(w)
	c.Request = req

	suite.handler.ListTasks(c)

	assert.Equal(suite.T(), http.StatusUnauthorized, w.Code)
}

func TestTaskHandlerTestSuite(t *testing.T) {
	suite.Run(t, new(TaskHandlerTestSuite))
}
