package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/messywasayzafar/nursify-sub001/internal/chat"
	"github.com/messywasayzafar/nursify-sub001/internal/middleware"
	"github.com/messywasayzafar/nursify-sub001/internal/models"
	"github.com/messywasayzafar/nursify-sub001/internal/repository"
	"go.uber.org/zap"
)

// MessageSender is what the REST route needs from the fan-out dispatcher.
type MessageSender interface {
	Send(ctx context.Context, req chat.SendRequest) (*models.Message, error)
}

type MessageHandler struct {
	sender     MessageSender
	repo       repository.MessageRepository
	membership repository.MembershipRepository
	logger     *zap.Logger
}

func NewMessageHandler(
	sender MessageSender,
	repo repository.MessageRepository,
	membership repository.MembershipRepository,
	logger *zap.Logger,
) *MessageHandler {
	return &MessageHandler{
		sender:     sender,
		repo:       repo,
		membership: membership,
		logger:     logger,
	}
}

// sendMessageRequest requires message text or a file reference; the
// dispatcher rejects a request carrying neither.
type sendMessageRequest struct {
	Message  string `json:"message"`
	FileURL  string `json:"fileUrl"`
	FileName string `json:"fileName"`
}

// Send handles POST /v1/groups/:id/messages
func (h *MessageHandler) Send(c *gin.Context) {
	groupID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid group id"})
		return
	}

	var req sendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID := middleware.GetUserID(c)
	if ok := h.requireMember(c, groupID, userID); !ok {
		return
	}

	msg, err := h.sender.Send(c.Request.Context(), chat.SendRequest{
		GroupID:    groupID,
		SenderID:   userID,
		SenderName: middleware.GetDisplayName(c),
		Body:       req.Message,
		FileURL:    req.FileURL,
		FileName:   req.FileName,
	})
	if err != nil {
		if errors.Is(err, chat.ErrInvalidMessage) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		h.logger.Error("failed to send message", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to send message"})
		return
	}

	c.JSON(http.StatusCreated, msg)
}

// List handles GET /v1/groups/:id/messages?limit=50
//
// Returns the most recent window of messages in chronological order —
// the backfill a client performs after (re)connecting its socket.
func (h *MessageHandler) List(c *gin.Context) {
	groupID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid group id"})
		return
	}

	limit := 50
	if l := c.Query("limit"); l != "" {
		limit, err = strconv.Atoi(l)
		if err != nil || limit < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid 'limit' parameter"})
			return
		}
		if limit > 200 {
			limit = 200
		}
	}

	if ok := h.requireMember(c, groupID, middleware.GetUserID(c)); !ok {
		return
	}

	messages, err := h.repo.ListByGroup(c.Request.Context(), groupID, limit)
	if err != nil {
		h.logger.Error("failed to list messages", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list messages"})
		return
	}

	c.JSON(http.StatusOK, messages)
}

// Delete handles DELETE /v1/messages/:id
//
// Maintenance path, idempotent: deleting an already-deleted message
// returns the same 204.
func (h *MessageHandler) Delete(c *gin.Context) {
	messageID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid message id"})
		return
	}

	if err := h.repo.DeleteByID(c.Request.Context(), messageID); err != nil {
		h.logger.Error("failed to delete message", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete message"})
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *MessageHandler) requireMember(c *gin.Context, groupID, userID uuid.UUID) bool {
	isMember, err := h.membership.IsMember(c.Request.Context(), groupID, userID)
	if err != nil {
		h.logger.Error("membership check failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to check membership"})
		return false
	}
	if !isMember {
		c.JSON(http.StatusForbidden, gin.H{"error": "not a member of this group"})
		return false
	}
	return true
}
