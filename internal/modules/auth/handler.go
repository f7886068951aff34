package auth

import (
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"videotube/internal/pkg/response"
	"videotube/internal/pkg/validator"

	"github.com/gin-gonic/gin"
)

const refreshCookieName = "refresh_token"

// Handler manages all HTTP interactions for the session lifecycle.
type Handler struct {
	service        *Service
	refreshTTL     time.Duration
	cookieSecure   bool
	cookieSameSite string
	cookiePath     string
	tmpDir         string
}

func NewHandler(service *Service, refreshTTL time.Duration, cookieSecure bool, cookieSameSite, cookiePath string) *Handler {
	return &Handler{
		service:        service,
		refreshTTL:     refreshTTL,
		cookieSecure:   cookieSecure,
		cookieSameSite: cookieSameSite,
		cookiePath:     cookiePath,
		tmpDir:         filepath.Join(os.TempDir(), "videotube-uploads"),
	}
}

func (h *Handler) RegisterPublicRoutes(v1 *gin.RouterGroup) {
	users := v1.Group("/users")
	{
		users.POST("/register", h.Register)
		users.POST("/login", h.Login)
		users.POST("/refresh-token", h.RefreshSession)
	}
}

func (h *Handler) RegisterProtectedRoutes(protected *gin.RouterGroup) {
	users := protected.Group("/users")
	{
		users.POST("/logout", h.Logout)
		users.POST("/change-password", h.ChangePassword)
		users.GET("/current-user", h.GetCurrentUser)
		users.PATCH("/update-account", h.UpdateAccount)
		users.PATCH("/update-avatar", h.UpdateAvatar)
		users.PATCH("/update-cover-image", h.UpdateCoverImage)
	}
}

// Register creates an account from a multipart form: text fields plus a
// mandatory "avatar" file and an optional "coverImage" file.
func (h *Handler) Register(c *gin.Context) {
	req := RegisterRequest{
		Username: c.PostForm("username"),
		Email:    c.PostForm("email"),
		FullName: c.PostForm("full_name"),
		Password: c.PostForm("password"),
	}
	if fields := validator.Validate(req); fields != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "All fields are required", fields)
		return
	}

	avatarPath, err := h.saveTempUpload(c, "avatar")
	if err != nil {
		response.Error(c, http.StatusBadRequest, "AVATAR_REQUIRED", "Avatar image is required")
		return
	}
	// Optional; an absent cover image is not an error.
	coverPath, _ := h.saveTempUpload(c, "coverImage")

	user, err := h.service.Register(c.Request.Context(), req, avatarPath, coverPath)
	if err != nil {
		h.respondError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"user": user})
}

func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	result, err := h.service.Login(c.Request.Context(), req)
	if err != nil {
		h.respondError(c, err)
		return
	}

	h.setRefreshCookie(c, result.RefreshToken)
	response.Success(c, http.StatusOK, gin.H{
		"user":          result.User,
		"access_token":  result.AccessToken,
		"refresh_token": result.RefreshToken,
	})
}

// RefreshSession accepts the refresh token from the secure cookie or, when
// no cookie is present, from the JSON body.
func (h *Handler) RefreshSession(c *gin.Context) {
	presented, err := c.Cookie(refreshCookieName)
	if err != nil || presented == "" {
		var req RefreshRequest
		if err := c.ShouldBindJSON(&req); err == nil {
			presented = req.RefreshToken
		}
	}
	if presented == "" {
		response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "Refresh token required")
		return
	}

	pair, err := h.service.RefreshSession(c.Request.Context(), presented)
	if err != nil {
		h.clearRefreshCookie(c)
		h.respondError(c, err)
		return
	}

	h.setRefreshCookie(c, pair.RefreshToken)
	response.Success(c, http.StatusOK, gin.H{
		"access_token":  pair.AccessToken,
		"refresh_token": pair.RefreshToken,
	})
}

func (h *Handler) Logout(c *gin.Context) {
	userID := c.GetInt64("user_id")

	if err := h.service.Logout(c.Request.Context(), userID); err != nil {
		h.respondError(c, err)
		return
	}

	h.clearRefreshCookie(c)
	response.Success(c, http.StatusOK, gin.H{"message": "Logged out successfully"})
}

func (h *Handler) ChangePassword(c *gin.Context) {
	userID := c.GetInt64("user_id")

	var req ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	if err := h.service.ChangePassword(c.Request.Context(), userID, req.OldPassword, req.NewPassword); err != nil {
		h.respondError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"message": "Password changed successfully"})
}

func (h *Handler) GetCurrentUser(c *gin.Context) {
	userID := c.GetInt64("user_id")

	user, err := h.service.GetCurrentUser(c.Request.Context(), userID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"user": user})
}

func (h *Handler) UpdateAccount(c *gin.Context) {
	userID := c.GetInt64("user_id")

	var req UpdateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	user, err := h.service.UpdateAccountDetails(c.Request.Context(), userID, req)
	if err != nil {
		h.respondError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"user": user})
}

func (h *Handler) UpdateAvatar(c *gin.Context) {
	userID := c.GetInt64("user_id")

	localPath, err := h.saveTempUpload(c, "avatar")
	if err != nil {
		response.Error(c, http.StatusBadRequest, "AVATAR_REQUIRED", "Avatar image is required")
		return
	}

	user, err := h.service.UpdateAvatar(c.Request.Context(), userID, localPath)
	if err != nil {
		h.respondError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"user": user})
}

func (h *Handler) UpdateCoverImage(c *gin.Context) {
	userID := c.GetInt64("user_id")

	localPath, err := h.saveTempUpload(c, "coverImage")
	if err != nil {
		response.Error(c, http.StatusBadRequest, "COVER_IMAGE_REQUIRED", "Cover image is required")
		return
	}

	user, err := h.service.UpdateCoverImage(c.Request.Context(), userID, localPath)
	if err != nil {
		h.respondError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"user": user})
}

// saveTempUpload writes the named multipart file to the handler's temp dir
// and returns its path. The service removes the file after the media-host
// upload attempt.
func (h *Handler) saveTempUpload(c *gin.Context, field string) (string, error) {
	file, err := c.FormFile(field)
	if err != nil {
		return "", err
	}
	return h.saveToTemp(c, file)
}

func (h *Handler) saveToTemp(c *gin.Context, file *multipart.FileHeader) (string, error) {
	if err := os.MkdirAll(h.tmpDir, 0o755); err != nil {
		return "", err
	}
	filename := fmt.Sprintf("%d_%s", time.Now().UnixNano(), filepath.Base(file.Filename))
	path := filepath.Join(h.tmpDir, filename)
	if err := c.SaveUploadedFile(file, path); err != nil {
		return "", err
	}
	return path, nil
}

func (h *Handler) setRefreshCookie(c *gin.Context, token string) {
	c.SetSameSite(parseSameSite(h.cookieSameSite))
	c.SetCookie(refreshCookieName, token, int(h.refreshTTL.Seconds()), h.cookiePath, "", h.cookieSecure, true)
}

func (h *Handler) clearRefreshCookie(c *gin.Context) {
	c.SetSameSite(parseSameSite(h.cookieSameSite))
	c.SetCookie(refreshCookieName, "", -1, h.cookiePath, "", h.cookieSecure, true)
}

func parseSameSite(v string) http.SameSite {
	switch v {
	case "None", "none":
		return http.SameSiteNoneMode
	case "Strict", "strict":
		return http.SameSiteStrictMode
	default:
		return http.SameSiteLaxMode
	}
}

// respondError maps lifecycle errors onto the wire taxonomy.
func (h *Handler) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrAllFieldsRequired):
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", ErrAllFieldsRequired.Error())
	case errors.Is(err, ErrAvatarRequired):
		response.Error(c, http.StatusBadRequest, "AVATAR_REQUIRED", ErrAvatarRequired.Error())
	case errors.Is(err, ErrUploadFailed):
		response.Error(c, http.StatusBadRequest, "UPLOAD_FAILED", ErrUploadFailed.Error())
	case errors.Is(err, ErrUserExists):
		response.Error(c, http.StatusConflict, "USER_EXISTS", ErrUserExists.Error())
	case errors.Is(err, ErrUserNotFound):
		response.Error(c, http.StatusNotFound, "USER_NOT_FOUND", ErrUserNotFound.Error())
	case errors.Is(err, ErrInvalidCredentials):
		response.Error(c, http.StatusUnauthorized, "INVALID_CREDENTIALS", ErrInvalidCredentials.Error())
	case errors.Is(err, ErrInvalidRefreshToken):
		response.Error(c, http.StatusUnauthorized, "INVALID_REFRESH_TOKEN", ErrInvalidRefreshToken.Error())
	case errors.Is(err, ErrRefreshTokenUsed):
		response.Error(c, http.StatusUnauthorized, "REFRESH_TOKEN_USED", ErrRefreshTokenUsed.Error())
	case errors.Is(err, ErrUnauthorized):
		response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", ErrUnauthorized.Error())
	case errors.Is(err, ErrRegistrationFailed):
		response.Error(c, http.StatusInternalServerError, "REGISTRATION_FAILED", ErrRegistrationFailed.Error())
	default:
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Something went wrong")
	}
}
