package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/comitanigiacomo/kanso-goals/internal/adapters/handler/http/middleware"
	"github.com/comitanigiacomo/kanso-goals/internal/core/domain"
	"github.com/comitanigiacomo/kanso-goals/internal/core/services"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) Update(ctx context.Context, user *domain.User) error {
	return m.Called(ctx, user).Error(0)
}

func setupHandler() (*gin.Engine, *MockUserRepository, *services.TokenService) {
	gin.SetMode(gin.TestMode)

	mockRepo := new(MockUserRepository)
	tokens := services.NewTokenService("handler-secret", "kanso-test", time.Hour, 24*time.Hour, mockRepo)
	authService := services.NewAuthService(mockRepo, tokens)
	authHandler := NewAuthHandler(authService)

	router := gin.New()
	authHandler.RegisterRoutes(router.Group(""))

	protected := router.Group("")
	protected.Use(middleware.AuthMiddleware(tokens))
	authHandler.RegisterProtectedRoutes(protected)

	return router, mockRepo, tokens
}

func postJSON(router *gin.Engine, path string, payload any) *httptest.ResponseRecorder {
	body, _ := json.Marshal(payload)
	req, _ := http.NewRequest(http.MethodPost, path, bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func existingUser(t *testing.T) *domain.User {
	t.Helper()
	user, err := domain.NewUser("user-1", "api_test@kanso.app", "Api")
	require.NoError(t, err)
	require.NoError(t, user.SetPassword("PasswordSuperSegreta1!"))
	return user
}

func TestAuthHandler_Register(t *testing.T) {
	t.Run("Success: Should return 201 and created user (No Password)", func(t *testing.T) {
		router, mockRepo, _ := setupHandler()

		payload := map[string]string{
			"email":        "api_test@kanso.app",
			"password":     "PasswordSuperSegreta1!",
			"display_name": "Api Tester",
		}

		mockRepo.On("Create", mock.Anything, mock.AnythingOfType("*domain.User")).Return(nil)

		w := postJSON(router, "/auth/register", payload)

		assert.Equal(t, http.StatusCreated, w.Code)

		var response userResponse
		err := json.Unmarshal(w.Body.Bytes(), &response)
		assert.NoError(t, err)
		assert.Equal(t, payload["email"], response.Email)
		assert.Equal(t, "Api Tester", response.DisplayName)
		assert.NotEmpty(t, response.ID)
		assert.NotContains(t, w.Body.String(), "password")
	})

	t.Run("Fail: Should return 409 if email exists", func(t *testing.T) {
		router, mockRepo, _ := setupHandler()

		mockRepo.On("Create", mock.Anything, mock.Anything).Return(domain.ErrEmailAlreadyExists)

		w := postJSON(router, "/auth/register", map[string]string{
			"email":    "dup@kanso.app",
			"password": "PasswordSuperSegreta1!",
		})

		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Contains(t, w.Body.String(), "email already exists")
	})

	t.Run("Fail: Should return 400 on invalid payload", func(t *testing.T) {
		router, _, _ := setupHandler()

		cases := []map[string]string{
			{"email": "not-an-email", "password": "PasswordSuperSegreta1!"},
			{"email": "short@kanso.app", "password": "123"},
			{"password": "PasswordSuperSegreta1!"},
		}
		for _, payload := range cases {
			w := postJSON(router, "/auth/register", payload)
			assert.Equal(t, http.StatusBadRequest, w.Code, payload)
			assert.Contains(t, w.Body.String(), "invalid request body")
		}
	})
}

func TestAuthHandler_Login(t *testing.T) {
	t.Run("Success: returns a token pair", func(t *testing.T) {
		router, mockRepo, tokens := setupHandler()
		user := existingUser(t)
		mockRepo.On("GetByEmail", mock.Anything, user.Email).Return(user, nil)

		w := postJSON(router, "/auth/login", map[string]string{
			"email":    user.Email,
			"password": "PasswordSuperSegreta1!",
		})
		require.Equal(t, http.StatusOK, w.Code)

		var pair services.TokenPair
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &pair))
		assert.NotEmpty(t, pair.AccessToken)
		assert.NotEmpty(t, pair.RefreshToken)

		mockRepo.On("GetByID", mock.Anything, user.ID).Return(user, nil)
		userID, err := tokens.ValidateToken(pair.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, user.ID, userID)
	})

	t.Run("Fail: wrong password and unknown email look the same", func(t *testing.T) {
		router, mockRepo, _ := setupHandler()
		user := existingUser(t)
		mockRepo.On("GetByEmail", mock.Anything, user.Email).Return(user, nil)
		mockRepo.On("GetByEmail", mock.Anything, "ghost@kanso.app").Return(nil, domain.ErrUserNotFound)

		wrong := postJSON(router, "/auth/login", map[string]string{"email": user.Email, "password": "WrongPassword1!"})
		ghost := postJSON(router, "/auth/login", map[string]string{"email": "ghost@kanso.app", "password": "WhateverPass1!"})

		assert.Equal(t, http.StatusUnauthorized, wrong.Code)
		assert.Equal(t, http.StatusUnauthorized, ghost.Code)
		assert.Equal(t, wrong.Body.String(), ghost.Body.String())
	})
}

func TestAuthHandler_Refresh(t *testing.T) {
	router, mockRepo, tokens := setupHandler()
	user := existingUser(t)
	mockRepo.On("GetByID", mock.Anything, user.ID).Return(user, nil)

	pair, err := tokens.IssuePair(user.ID)
	require.NoError(t, err)

	t.Run("Success: refresh token yields a new pair", func(t *testing.T) {
		w := postJSON(router, "/auth/refresh", map[string]string{"refresh_token": pair.RefreshToken})
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "access_token")
	})

	t.Run("Fail: access token is not a refresh token", func(t *testing.T) {
		w := postJSON(router, "/auth/refresh", map[string]string{"refresh_token": pair.AccessToken})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestAuthHandler_Me(t *testing.T) {
	router, mockRepo, tokens := setupHandler()
	user := existingUser(t)
	mockRepo.On("GetByID", mock.Anything, user.ID).Return(user, nil)
	mockRepo.On("Update", mock.Anything, mock.AnythingOfType("*domain.User")).Return(nil)

	token, err := tokens.GenerateToken(user.ID)
	require.NoError(t, err)

	t.Run("GET /auth/me", func(t *testing.T) {
		req, _ := http.NewRequest(http.MethodGet, "/auth/me", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), user.Email)
	})

	t.Run("PATCH /auth/me", func(t *testing.T) {
		req, _ := http.NewRequest(http.MethodPatch, "/auth/me", bytes.NewBufferString(`{"display_name":"Renamed"}`))
		req.Header.Set("Authorization", "Bearer "+token)
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"display_name":"Renamed"`)
	})

	t.Run("Without token", func(t *testing.T) {
		req, _ := http.NewRequest(http.MethodGet, "/auth/me", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}
