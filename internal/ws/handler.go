package ws

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/messywasayzafar/nursify-sub001/internal/auth"
	"github.com/messywasayzafar/nursify-sub001/internal/chat"
	"github.com/messywasayzafar/nursify-sub001/internal/models"
	"github.com/messywasayzafar/nursify-sub001/internal/repository"
	"go.uber.org/zap"
)

// Handler owns the websocket handshake: authenticate, check membership,
// upgrade, and register the new connection both locally (hub) and
// durably (connection registry).
type Handler struct {
	hub        *Hub
	registry   repository.ConnectionRepository
	membership repository.MembershipRepository
	dispatcher *chat.Dispatcher

	jwtSecret string
	nodeID    string
	logger    *zap.Logger
	upgrader  websocket.Upgrader
}

func NewHandler(
	hub *Hub,
	registry repository.ConnectionRepository,
	membership repository.MembershipRepository,
	dispatcher *chat.Dispatcher,
	jwtSecret string,
	nodeID string,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		hub:        hub,
		registry:   registry,
		membership: membership,
		dispatcher: dispatcher,
		jwtSecret:  jwtSecret,
		nodeID:     nodeID,
		logger:     logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// Browsers enforce same-origin on cookies, not sockets;
			// auth here is the JWT, so any origin may connect.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Serve handles GET /v1/ws?token=...&group_id=...
//
// Browsers cannot set headers on websocket handshakes, so the JWT rides
// in a query parameter. A handshake missing the token or the group is
// rejected before upgrade and leaves no Connection record.
func (h *Handler) Serve(c *gin.Context) {
	claims, err := auth.ParseToken(c.Query("token"), h.jwtSecret)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
		return
	}

	groupID, err := uuid.Parse(c.Query("group_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing or invalid group_id"})
		return
	}

	isMember, err := h.membership.IsMember(c.Request.Context(), groupID, claims.UserID)
	if err != nil {
		h.logger.Error("membership check failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to check membership"})
		return
	}
	if !isMember {
		c.JSON(http.StatusForbidden, gin.H{"error": "not a member of this group"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error response.
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	cl := &client{
		id:         uuid.NewString(),
		userID:     claims.UserID,
		groupID:    groupID,
		senderName: claims.DisplayName,
		h:          h,
		conn:       conn,
		send:       make(chan []byte, sendBuffer),
		done:       make(chan struct{}),
	}

	// Durable registration first: if the registry write fails the
	// connect fails, so the registry never lags behind the hub.
	err = h.registry.Register(c.Request.Context(), models.Connection{
		ID:      cl.id,
		UserID:  cl.userID,
		GroupID: cl.groupID,
		NodeID:  h.nodeID,
	})
	if err != nil {
		h.logger.Error("register connection failed",
			zap.String("connection_id", cl.id),
			zap.Error(err),
		)
		conn.Close()
		return
	}

	h.hub.add(cl)
	h.logger.Info("connection opened",
		zap.String("connection_id", cl.id),
		zap.String("user_id", cl.userID.String()),
		zap.String("group_id", cl.groupID.String()),
	)

	go cl.writePump()
	go cl.readPump()
}
