package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/messywasayzafar/nursify-sub001/internal/middleware"
	"github.com/messywasayzafar/nursify-sub001/internal/repository"
	"go.uber.org/zap"
)

// UserHandler handles staff-account operations.
type UserHandler struct {
	repo        repository.UserRepository
	connections repository.ConnectionRepository
	logger      *zap.Logger
}

func NewUserHandler(repo repository.UserRepository, connections repository.ConnectionRepository, logger *zap.Logger) *UserHandler {
	return &UserHandler{repo: repo, connections: connections, logger: logger}
}

// GetMe handles GET /v1/users/me — the authenticated user's own profile.
func (h *UserHandler) GetMe(c *gin.Context) {
	userID := middleware.GetUserID(c)
	agencyID := middleware.GetAgencyID(c)

	user, err := h.repo.GetByID(c.Request.Context(), agencyID, userID)
	if err != nil {
		h.logger.Error("failed to get user", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get user"})
		return
	}

	if user == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}

	c.JSON(http.StatusOK, user)
}

// GetMyConnections handles GET /v1/users/me/connections — the user's
// live sessions across devices and tabs.
func (h *UserHandler) GetMyConnections(c *gin.Context) {
	userID := middleware.GetUserID(c)

	conns, err := h.connections.ListByUser(c.Request.Context(), userID)
	if err != nil {
		h.logger.Error("failed to list connections", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list connections"})
		return
	}

	c.JSON(http.StatusOK, conns)
}
