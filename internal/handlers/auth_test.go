package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/suite"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"productivity-backend/internal/constants"
	"productivity-backend/internal/middleware"
	"productivity-backend/internal/models"
	"productivity-backend/internal/repository"
	"productivity-backend/internal/services"
)

type AuthHandlerTestSuite struct {
	suite.Suite
	db     *gorm.DB
	router *gin.Engine
}

func (s *AuthHandlerTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	s.Require().NoError(err)
	s.Require().NoError(db.AutoMigrate(&models.User{}))
	s.db = db

	authService := services.NewAuthService(repository.NewUserRepository(db))
	authHandler := NewAuthHandler(authService)

	r := gin.New()
	store := cookie.NewStore([]byte("test-secret"))
	r.Use(sessions.Sessions(constants.SessionCookieName, store))

	auth := r.Group("/api/auth")
	{
		auth.POST("/register", authHandler.Register)
		auth.POST("/login", authHandler.Login)
		auth.POST("/logout", authHandler.Logout)
		auth.GET("/me", middleware.RequireAuth(), authHandler.GetCurrentUser)
	}
	s.router = r
}

func (s *AuthHandlerTestSuite) TearDownTest() {
	sqlDB, err := s.db.DB()
	s.Require().NoError(err)
	sqlDB.Close()
}

func (s *AuthHandlerTestSuite) postJSON(path string, body any, cookies []*http.Cookie) *httptest.ResponseRecorder {
	payload, err := json.Marshal(body)
	s.Require().NoError(err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	for _, c := range cookies {
		req.AddCookie(c)
	}

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *AuthHandlerTestSuite) register(email, password string) *httptest.ResponseRecorder {
	return s.postJSON("/api/auth/register", gin.H{"email": email, "password": password}, nil)
}

func (s *AuthHandlerTestSuite) login(email, password string) *httptest.ResponseRecorder {
	return s.postJSON("/api/auth/login", gin.H{"email": email, "password": password}, nil)
}

func (s *AuthHandlerTestSuite) TestRegister_Success() {
	w := s.register("Alice@Example.com", "correct horse battery")
	s.Equal(http.StatusCreated, w.Code)

	var body map[string]any
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &body))
	s.Equal("alice@example.com", body["email"])
	s.NotContains(body, "passwordHash")

	var user models.User
	s.Require().NoError(s.db.First(&user).Error)
	s.Equal("alice@example.com", user.Email)
	s.NotEqual("correct horse battery", user.PasswordHash)
}

func (s *AuthHandlerTestSuite) TestRegister_DuplicateEmail() {
	s.Require().Equal(http.StatusCreated, s.register("alice@example.com", "correct horse battery").Code)

	w := s.register("alice@example.com", "another password")
	s.Equal(http.StatusConflict, w.Code)
}

func (s *AuthHandlerTestSuite) TestRegister_ShortPassword() {
	w := s.register("alice@example.com", "short")
	s.Equal(http.StatusBadRequest, w.Code)

	var count int64
	s.db.Model(&models.User{}).Count(&count)
	s.Equal(int64(0), count)
}

func (s *AuthHandlerTestSuite) TestRegister_InvalidEmail() {
	w := s.register("not-an-email", "correct horse battery")
	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *AuthHandlerTestSuite) TestLogin_SetsSession() {
	s.Require().Equal(http.StatusCreated, s.register("alice@example.com", "correct horse battery").Code)

	w := s.login("alice@example.com", "correct horse battery")
	s.Require().Equal(http.StatusOK, w.Code)
	cookies := w.Result().Cookies()
	s.Require().NotEmpty(cookies)

	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	me := httptest.NewRecorder()
	s.router.ServeHTTP(me, req)

	s.Equal(http.StatusOK, me.Code)
	var body map[string]any
	s.Require().NoError(json.Unmarshal(me.Body.Bytes(), &body))
	s.Equal("alice@example.com", body["email"])
}

func (s *AuthHandlerTestSuite) TestLogin_WrongPassword() {
	s.Require().Equal(http.StatusCreated, s.register("alice@example.com", "correct horse battery").Code)

	w := s.login("alice@example.com", "wrong password!")
	s.Equal(http.StatusUnauthorized, w.Code)
}

func (s *AuthHandlerTestSuite) TestLogin_UnknownEmail() {
	w := s.login("nobody@example.com", "whatever password")
	s.Equal(http.StatusUnauthorized, w.Code)
}

func (s *AuthHandlerTestSuite) TestMe_RequiresSession() {
	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	s.Equal(http.StatusUnauthorized, w.Code)
}

func (s *AuthHandlerTestSuite) TestLogout_ClearsSession() {
	s.Require().Equal(http.StatusCreated, s.register("alice@example.com", "correct horse battery").Code)
	login := s.login("alice@example.com", "correct horse battery")
	s.Require().Equal(http.StatusOK, login.Code)

	logout := s.postJSON("/api/auth/logout", gin.H{}, login.Result().Cookies())
	s.Require().Equal(http.StatusOK, logout.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	for _, c := range logout.Result().Cookies() {
		req.AddCookie(c)
	}
	me := httptest.NewRecorder()
	s.router.ServeHTTP(me, req)

	s.Equal(http.StatusUnauthorized, me.Code)
}

func TestAuthHandlerTestSuite(t *testing.T) {
	suite.Run(t, new(AuthHandlerTestSuite))
}
