package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/messywasayzafar/nursify-sub001/internal/middleware"
	"github.com/messywasayzafar/nursify-sub001/internal/repository"
	"go.uber.org/zap"
)

// MembershipHandler handles group membership operations.
type MembershipHandler struct {
	repo   repository.MembershipRepository
	logger *zap.Logger
}

func NewMembershipHandler(repo repository.MembershipRepository, logger *zap.Logger) *MembershipHandler {
	return &MembershipHandler{repo: repo, logger: logger}
}

// joinGroupRequest carries an optional role; defaults to "member".
type joinGroupRequest struct {
	Role string `json:"role"`
}

// Join handles POST /v1/groups/:id/join
func (h *MembershipHandler) Join(c *gin.Context) {
	groupID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid group id"})
		return
	}

	userID := middleware.GetUserID(c)

	// Body is optional.
	var req joinGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		req.Role = "member"
	}
	if req.Role == "" {
		req.Role = "member"
	}

	err = h.repo.AddMember(c.Request.Context(), groupID, userID, req.Role)
	if err != nil {
		h.logger.Error("failed to join group", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to join group"})
		return
	}

	c.Status(http.StatusNoContent)
}

// Leave handles POST /v1/groups/:id/leave
func (h *MembershipHandler) Leave(c *gin.Context) {
	groupID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid group id"})
		return
	}

	userID := middleware.GetUserID(c)

	err = h.repo.RemoveMember(c.Request.Context(), groupID, userID)
	if err != nil {
		h.logger.Error("failed to leave group", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to leave group"})
		return
	}

	c.Status(http.StatusNoContent)
}

// ListMembers handles GET /v1/groups/:id/members
func (h *MembershipHandler) ListMembers(c *gin.Context) {
	groupID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid group id"})
		return
	}

	members, err := h.repo.ListMembers(c.Request.Context(), groupID)
	if err != nil {
		h.logger.Error("failed to list members", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list members"})
		return
	}

	c.JSON(http.StatusOK, members)
}
