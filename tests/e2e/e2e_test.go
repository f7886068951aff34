package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"videotube/internal/database"
	"videotube/internal/domain"
	"videotube/internal/middleware"
	"videotube/internal/modules/auth"
	"videotube/internal/modules/channel"
	jwtsvc "videotube/internal/pkg/jwt"
	"videotube/internal/repository"
)

type E2ETestSuite struct {
	router     *gin.Engine
	db         *gorm.DB
	jwtService *jwtsvc.Service
}

type TestResponse struct {
	Success bool                   `json:"success"`
	Data    map[string]interface{} `json:"data,omitempty"`
	Error   *ErrorDetail           `json:"error,omitempty"`
}

type ErrorDetail struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// stubUploader stands in for the media host; uploads always succeed and
// return a deterministic URL.
type stubUploader struct{}

func (stubUploader) UploadFile(_ context.Context, localPath string) (string, error) {
	return "http://media.test/" + fmt.Sprintf("%d", time.Now().UnixNano()), nil
}

func setupTestSuite(t *testing.T) *E2ETestSuite {
	db, err := database.Connect(":memory:")
	require.NoError(t, err, "Failed to connect to test database")

	models := []interface{}{
		&domain.User{},
		&domain.Video{},
		&domain.Subscription{},
		&domain.WatchHistoryEntry{},
	}
	for _, model := range models {
		require.NoError(t, db.AutoMigrate(model), fmt.Sprintf("Failed to migrate %T", model))
	}

	userRepo := repository.NewUserRepository(db)
	subscriptionRepo := repository.NewSubscriptionRepository(db)
	videoRepo := repository.NewVideoRepository(db)

	jwtService := jwtsvc.New(
		"test_access_secret_32_chars_min__",
		"test_refresh_secret_32_chars_min_",
		15*time.Minute,
		7*24*time.Hour,
	)

	authService := auth.NewService(userRepo, jwtService, stubUploader{})
	authHandler := auth.NewHandler(authService, 7*24*time.Hour, false, "Lax", "/api/v1/users")

	channelService := channel.NewService(userRepo, subscriptionRepo, videoRepo)
	channelHandler := channel.NewHandler(channelService)

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(gin.Recovery())

	v1 := r.Group("/api/v1")

	authHandler.RegisterPublicRoutes(v1)

	protected := v1.Group("")
	protected.Use(middleware.JWTAuth(jwtService))
	{
		authHandler.RegisterProtectedRoutes(protected)
		channelHandler.RegisterProtectedRoutes(protected)
	}

	return &E2ETestSuite{
		router:     r,
		db:         db,
		jwtService: jwtService,
	}
}

func (s *E2ETestSuite) makeRequest(method, path string, body interface{}, token string) (*httptest.ResponseRecorder, error) {
	var bodyBytes []byte
	var err error

	if body != nil {
		bodyBytes, err = json.Marshal(body)
		if err != nil {
			return nil, err
		}
	}

	req := httptest.NewRequest(method, path, bytes.NewBuffer(bodyBytes))
	req.Header.Set("Content-Type", "application/json")

	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	return w, nil
}

// registerUser drives the multipart register endpoint with an avatar file.
func (s *E2ETestSuite) registerUser(t *testing.T, username, email, fullName, password string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	fields := map[string]string{
		"username":  username,
		"email":     email,
		"full_name": fullName,
		"password":  password,
	}
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}

	part, err := mw.CreateFormFile("avatar", "avatar.png")
	require.NoError(t, err)
	_, err = io.WriteString(part, "fake avatar bytes")
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest("POST", "/api/v1/users/register", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *E2ETestSuite) login(t *testing.T, identifier, password string) (accessToken, refreshToken string) {
	t.Helper()

	w, err := s.makeRequest("POST", "/api/v1/users/login", map[string]interface{}{
		"username": identifier,
		"password": password,
	}, "")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, w.Code, "login failed: %s", w.Body.String())

	resp, err := parseResponse(w)
	require.NoError(t, err)
	require.True(t, resp.Success)

	return resp.Data["access_token"].(string), resp.Data["refresh_token"].(string)
}

func parseResponse(w *httptest.ResponseRecorder) (*TestResponse, error) {
	var resp TestResponse
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	return &resp, err
}

func TestFlow1_RegistrationAndAuth(t *testing.T) {
	suite := setupTestSuite(t)

	t.Run("POST /users/register", func(t *testing.T) {
		w := suite.registerUser(t, "alice", "alice@test.com", "Alice A", "Password123")

		assert.Equal(t, http.StatusCreated, w.Code, "Expected 201 Created: %s", w.Body.String())

		resp, err := parseResponse(w)
		require.NoError(t, err)
		require.True(t, resp.Success)

		user := resp.Data["user"].(map[string]interface{})
		assert.Equal(t, "alice", user["username"])
		assert.NotEmpty(t, user["avatar_url"])

		// Secret material never leaves the server.
		assert.NotContains(t, user, "password_hash")
		assert.NotContains(t, user, "refresh_token")
	})

	t.Run("POST /users/register duplicate", func(t *testing.T) {
		w := suite.registerUser(t, "alice", "other@test.com", "Alice Clone", "Password123")

		assert.Equal(t, http.StatusConflict, w.Code)

		resp, err := parseResponse(w)
		require.NoError(t, err)
		assert.Equal(t, "USER_EXISTS", resp.Error.Code)
	})

	t.Run("POST /users/login", func(t *testing.T) {
		access, refresh := suite.login(t, "alice", "Password123")

		assert.NotEmpty(t, access)
		assert.NotEmpty(t, refresh)
		assert.NotEqual(t, access, refresh)
	})

	t.Run("POST /users/login by email", func(t *testing.T) {
		w, err := suite.makeRequest("POST", "/api/v1/users/login", map[string]interface{}{
			"email":    "alice@test.com",
			"password": "Password123",
		}, "")
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("POST /users/login wrong password", func(t *testing.T) {
		w, err := suite.makeRequest("POST", "/api/v1/users/login", map[string]interface{}{
			"username": "alice",
			"password": "wrong-password",
		}, "")
		require.NoError(t, err)

		assert.Equal(t, http.StatusUnauthorized, w.Code)

		resp, err := parseResponse(w)
		require.NoError(t, err)
		assert.Equal(t, "INVALID_CREDENTIALS", resp.Error.Code)
	})

	t.Run("GET /users/current-user", func(t *testing.T) {
		access, _ := suite.login(t, "alice", "Password123")

		w, err := suite.makeRequest("GET", "/api/v1/users/current-user", nil, access)
		require.NoError(t, err)

		assert.Equal(t, http.StatusOK, w.Code)

		resp, err := parseResponse(w)
		require.NoError(t, err)
		user := resp.Data["user"].(map[string]interface{})
		assert.Equal(t, "alice@test.com", user["email"])
	})

	t.Run("GET /users/current-user without token", func(t *testing.T) {
		w, err := suite.makeRequest("GET", "/api/v1/users/current-user", nil, "")
		require.NoError(t, err)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestFlow2_RefreshRotation(t *testing.T) {
	suite := setupTestSuite(t)

	w := suite.registerUser(t, "bob", "bob@test.com", "Bob B", "Password123")
	require.Equal(t, http.StatusCreated, w.Code)

	_, firstRefresh := suite.login(t, "bob", "Password123")

	var secondRefresh string
	t.Run("POST /users/refresh-token rotates", func(t *testing.T) {
		w, err := suite.makeRequest("POST", "/api/v1/users/refresh-token", map[string]interface{}{
			"refresh_token": firstRefresh,
		}, "")
		require.NoError(t, err)

		assert.Equal(t, http.StatusOK, w.Code, "refresh failed: %s", w.Body.String())

		resp, err := parseResponse(w)
		require.NoError(t, err)
		require.True(t, resp.Success)

		secondRefresh = resp.Data["refresh_token"].(string)
		assert.NotEmpty(t, resp.Data["access_token"])
		assert.NotEqual(t, firstRefresh, secondRefresh)
	})

	t.Run("replay of rotated token is rejected", func(t *testing.T) {
		w, err := suite.makeRequest("POST", "/api/v1/users/refresh-token", map[string]interface{}{
			"refresh_token": firstRefresh,
		}, "")
		require.NoError(t, err)

		assert.Equal(t, http.StatusUnauthorized, w.Code)

		resp, err := parseResponse(w)
		require.NoError(t, err)
		assert.Equal(t, "REFRESH_TOKEN_USED", resp.Error.Code)
	})

	t.Run("latest token still refreshes", func(t *testing.T) {
		w, err := suite.makeRequest("POST", "/api/v1/users/refresh-token", map[string]interface{}{
			"refresh_token": secondRefresh,
		}, "")
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("garbage token is rejected", func(t *testing.T) {
		w, err := suite.makeRequest("POST", "/api/v1/users/refresh-token", map[string]interface{}{
			"refresh_token": "not.a.jwt",
		}, "")
		require.NoError(t, err)

		assert.Equal(t, http.StatusUnauthorized, w.Code)

		resp, err := parseResponse(w)
		require.NoError(t, err)
		assert.Equal(t, "INVALID_REFRESH_TOKEN", resp.Error.Code)
	})

	t.Run("refresh token via cookie", func(t *testing.T) {
		// Re-login to get a fresh pair, then present it as a cookie.
		_, refresh := suite.login(t, "bob", "Password123")

		req := httptest.NewRequest("POST", "/api/v1/users/refresh-token", nil)
		req.AddCookie(&http.Cookie{Name: "refresh_token", Value: refresh})

		rec := httptest.NewRecorder()
		suite.router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code, "cookie refresh failed: %s", rec.Body.String())
	})
}

func TestFlow3_SingleActiveSession(t *testing.T) {
	suite := setupTestSuite(t)

	w := suite.registerUser(t, "carol", "carol@test.com", "Carol C", "Password123")
	require.Equal(t, http.StatusCreated, w.Code)

	_, firstRefresh := suite.login(t, "carol", "Password123")
	_, secondRefresh := suite.login(t, "carol", "Password123")

	t.Run("second login invalidates the first session", func(t *testing.T) {
		w, err := suite.makeRequest("POST", "/api/v1/users/refresh-token", map[string]interface{}{
			"refresh_token": firstRefresh,
		}, "")
		require.NoError(t, err)

		assert.Equal(t, http.StatusUnauthorized, w.Code)

		resp, err := parseResponse(w)
		require.NoError(t, err)
		assert.Equal(t, "REFRESH_TOKEN_USED", resp.Error.Code)
	})

	t.Run("only the latest session refreshes", func(t *testing.T) {
		w, err := suite.makeRequest("POST", "/api/v1/users/refresh-token", map[string]interface{}{
			"refresh_token": secondRefresh,
		}, "")
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestFlow4_Logout(t *testing.T) {
	suite := setupTestSuite(t)

	w := suite.registerUser(t, "dave", "dave@test.com", "Dave D", "Password123")
	require.Equal(t, http.StatusCreated, w.Code)

	access, refresh := suite.login(t, "dave", "Password123")

	t.Run("POST /users/logout", func(t *testing.T) {
		w, err := suite.makeRequest("POST", "/api/v1/users/logout", nil, access)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("refresh after logout is rejected", func(t *testing.T) {
		w, err := suite.makeRequest("POST", "/api/v1/users/refresh-token", map[string]interface{}{
			"refresh_token": refresh,
		}, "")
		require.NoError(t, err)

		assert.Equal(t, http.StatusUnauthorized, w.Code)

		resp, err := parseResponse(w)
		require.NoError(t, err)
		assert.Equal(t, "REFRESH_TOKEN_USED", resp.Error.Code)
	})

	t.Run("access token survives logout until expiry", func(t *testing.T) {
		// Access tokens are stateless; the gate never consults the store.
		w, err := suite.makeRequest("GET", "/api/v1/users/current-user", nil, access)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("logout is idempotent", func(t *testing.T) {
		w, err := suite.makeRequest("POST", "/api/v1/users/logout", nil, access)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestFlow5_ChangePassword(t *testing.T) {
	suite := setupTestSuite(t)

	w := suite.registerUser(t, "erin", "erin@test.com", "Erin E", "OldPassword1")
	require.Equal(t, http.StatusCreated, w.Code)

	access, refresh := suite.login(t, "erin", "OldPassword1")

	t.Run("wrong old password is rejected", func(t *testing.T) {
		w, err := suite.makeRequest("POST", "/api/v1/users/change-password", map[string]interface{}{
			"old_password": "not-the-password",
			"new_password": "NewPassword1",
		}, access)
		require.NoError(t, err)

		assert.Equal(t, http.StatusUnauthorized, w.Code)

		resp, err := parseResponse(w)
		require.NoError(t, err)
		assert.Equal(t, "INVALID_CREDENTIALS", resp.Error.Code)
	})

	t.Run("POST /users/change-password", func(t *testing.T) {
		w, err := suite.makeRequest("POST", "/api/v1/users/change-password", map[string]interface{}{
			"old_password": "OldPassword1",
			"new_password": "NewPassword1",
		}, access)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, w.Code, "change-password failed: %s", w.Body.String())
	})

	t.Run("session survives the password change", func(t *testing.T) {
		w, err := suite.makeRequest("POST", "/api/v1/users/refresh-token", map[string]interface{}{
			"refresh_token": refresh,
		}, "")
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("old password no longer logs in", func(t *testing.T) {
		w, err := suite.makeRequest("POST", "/api/v1/users/login", map[string]interface{}{
			"username": "erin",
			"password": "OldPassword1",
		}, "")
		require.NoError(t, err)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("new password logs in", func(t *testing.T) {
		access, _ := suite.login(t, "erin", "NewPassword1")
		assert.NotEmpty(t, access)
	})
}

func TestFlow6_ChannelsAndWatchHistory(t *testing.T) {
	suite := setupTestSuite(t)

	w := suite.registerUser(t, "frank", "frank@test.com", "Frank F", "Password123")
	require.Equal(t, http.StatusCreated, w.Code)
	w = suite.registerUser(t, "grace", "grace@test.com", "Grace G", "Password123")
	require.Equal(t, http.StatusCreated, w.Code)

	frankAccess, _ := suite.login(t, "frank", "Password123")

	t.Run("POST /users/c/:username/subscribe", func(t *testing.T) {
		w, err := suite.makeRequest("POST", "/api/v1/users/c/grace/subscribe", nil, frankAccess)
		require.NoError(t, err)
		assert.Equal(t, http.StatusCreated, w.Code, "subscribe failed: %s", w.Body.String())
	})

	t.Run("duplicate subscribe is rejected", func(t *testing.T) {
		w, err := suite.makeRequest("POST", "/api/v1/users/c/grace/subscribe", nil, frankAccess)
		require.NoError(t, err)
		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("GET /users/c/:username", func(t *testing.T) {
		w, err := suite.makeRequest("GET", "/api/v1/users/c/grace", nil, frankAccess)
		require.NoError(t, err)

		assert.Equal(t, http.StatusOK, w.Code)

		resp, err := parseResponse(w)
		require.NoError(t, err)
		profile := resp.Data["channel"].(map[string]interface{})
		assert.Equal(t, "grace", profile["username"])
		assert.Equal(t, float64(1), profile["subscriber_count"])
		assert.Equal(t, true, profile["is_subscribed"])
	})

	t.Run("watch history round trip", func(t *testing.T) {
		// Seed a video owned by grace directly; uploads are out of band here.
		var grace domain.User
		require.NoError(t, suite.db.Where("username = ?", "grace").First(&grace).Error)

		video := &domain.Video{
			OwnerID:     grace.ID,
			Title:       "first video",
			Description: "hello",
			FileURL:     "http://media.test/v1.mp4",
			Duration:    120,
		}
		require.NoError(t, suite.db.Create(video).Error)

		w, err := suite.makeRequest("POST", fmt.Sprintf("/api/v1/users/watch-history/%d", video.ID), nil, frankAccess)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, w.Code, "add watch history failed: %s", w.Body.String())

		w, err = suite.makeRequest("GET", "/api/v1/users/watch-history", nil, frankAccess)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, w.Code)

		resp, err := parseResponse(w)
		require.NoError(t, err)
		history := resp.Data["watch_history"].([]interface{})
		require.Len(t, history, 1)

		entry := history[0].(map[string]interface{})
		videoData := entry["video"].(map[string]interface{})
		assert.Equal(t, "first video", videoData["title"])
	})

	t.Run("DELETE /users/c/:username/subscribe", func(t *testing.T) {
		w, err := suite.makeRequest("DELETE", "/api/v1/users/c/grace/subscribe", nil, frankAccess)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}
