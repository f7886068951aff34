package channel

import (
	"errors"
	"net/http"
	"strconv"

	"videotube/internal/pkg/response"
	"videotube/internal/repository"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// All channel routes sit behind the authorization gate: the counts and the
// is-subscribed flag are computed relative to the caller identity.
func (h *Handler) RegisterProtectedRoutes(protected *gin.RouterGroup) {
	users := protected.Group("/users")
	{
		users.GET("/c/:username", h.GetChannelProfile)
		users.POST("/c/:username/subscribe", h.Subscribe)
		users.DELETE("/c/:username/subscribe", h.Unsubscribe)
		users.GET("/watch-history", h.GetWatchHistory)
		users.POST("/watch-history/:videoId", h.AddWatchHistory)
	}
}

func (h *Handler) GetChannelProfile(c *gin.Context) {
	viewerID := c.GetInt64("user_id")
	username := c.Param("username")

	profile, err := h.service.GetChannelProfile(c.Request.Context(), username, viewerID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"channel": profile})
}

func (h *Handler) Subscribe(c *gin.Context) {
	viewerID := c.GetInt64("user_id")
	username := c.Param("username")

	if err := h.service.Subscribe(c.Request.Context(), viewerID, username); err != nil {
		h.respondError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"message": "Subscribed"})
}

func (h *Handler) Unsubscribe(c *gin.Context) {
	viewerID := c.GetInt64("user_id")
	username := c.Param("username")

	if err := h.service.Unsubscribe(c.Request.Context(), viewerID, username); err != nil {
		h.respondError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"message": "Unsubscribed"})
}

func (h *Handler) GetWatchHistory(c *gin.Context) {
	userID := c.GetInt64("user_id")

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil {
			limit = parsed
		}
	}

	history, err := h.service.GetWatchHistory(c.Request.Context(), userID, limit)
	if err != nil {
		h.respondError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"watch_history": history})
}

func (h *Handler) AddWatchHistory(c *gin.Context) {
	userID := c.GetInt64("user_id")

	videoID, err := strconv.ParseInt(c.Param("videoId"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid video ID")
		return
	}

	if err := h.service.AddWatchHistory(c.Request.Context(), userID, videoID); err != nil {
		h.respondError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"message": "Added to watch history"})
}

func (h *Handler) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrChannelNotFound):
		response.Error(c, http.StatusNotFound, "CHANNEL_NOT_FOUND", ErrChannelNotFound.Error())
	case errors.Is(err, ErrVideoNotFound):
		response.Error(c, http.StatusNotFound, "VIDEO_NOT_FOUND", ErrVideoNotFound.Error())
	case errors.Is(err, repository.ErrCannotSubscribeSelf):
		response.Error(c, http.StatusBadRequest, "CANNOT_SUBSCRIBE_SELF", repository.ErrCannotSubscribeSelf.Error())
	case errors.Is(err, repository.ErrAlreadySubscribed):
		response.Error(c, http.StatusConflict, "ALREADY_SUBSCRIBED", repository.ErrAlreadySubscribed.Error())
	case errors.Is(err, repository.ErrNotSubscribed):
		response.Error(c, http.StatusNotFound, "NOT_SUBSCRIBED", repository.ErrNotSubscribed.Error())
	default:
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Something went wrong")
	}
}
