package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/messywasayzafar/nursify-sub001/internal/middleware"
	"github.com/messywasayzafar/nursify-sub001/internal/repository"
	"go.uber.org/zap"
)

// GroupHandler handles care-group management. Handlers depend on the
// repository interface, never the concrete Postgres store.
type GroupHandler struct {
	repo       repository.GroupRepository
	membership repository.MembershipRepository
	logger     *zap.Logger
}

func NewGroupHandler(repo repository.GroupRepository, membership repository.MembershipRepository, logger *zap.Logger) *GroupHandler {
	return &GroupHandler{repo: repo, membership: membership, logger: logger}
}

type createGroupRequest struct {
	Name string `json:"name" binding:"required"`
}

// Create handles POST /v1/groups
//
// The creator is added as the group's first member with the admin role.
func (h *GroupHandler) Create(c *gin.Context) {
	var req createGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	agencyID := middleware.GetAgencyID(c)

	group, err := h.repo.Create(c.Request.Context(), agencyID, req.Name)
	if err != nil {
		h.logger.Error("failed to create group", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create group"})
		return
	}

	// Two single-row writes, not a transaction: if this insert fails the
	// group row survives with no admin and the client sees 500. The
	// creator can retry via POST /v1/groups/:id/join once the store
	// recovers.
	userID := middleware.GetUserID(c)
	if err := h.membership.AddMember(c.Request.Context(), group.ID, userID, "admin"); err != nil {
		h.logger.Error("failed to add group creator", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create group"})
		return
	}

	c.JSON(http.StatusCreated, group)
}

// List handles GET /v1/groups
func (h *GroupHandler) List(c *gin.Context) {
	agencyID := middleware.GetAgencyID(c)

	groups, err := h.repo.ListByAgency(c.Request.Context(), agencyID)
	if err != nil {
		h.logger.Error("failed to list groups", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list groups"})
		return
	}

	c.JSON(http.StatusOK, groups)
}

// GetByID handles GET /v1/groups/:id
func (h *GroupHandler) GetByID(c *gin.Context) {
	agencyID := middleware.GetAgencyID(c)

	groupID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid group id"})
		return
	}

	group, err := h.repo.GetByID(c.Request.Context(), agencyID, groupID)
	if err != nil {
		h.logger.Error("failed to get group", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get group"})
		return
	}
	if group == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "group not found"})
		return
	}

	c.JSON(http.StatusOK, group)
}
