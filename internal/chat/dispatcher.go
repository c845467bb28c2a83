package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/messywasayzafar/nursify-sub001/internal/models"
	"github.com/messywasayzafar/nursify-sub001/internal/repository"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

// ErrGone is returned by a Pusher when the target connection no longer
// exists on the transport. It is the only delivery failure the dispatcher
// acts on: the registry entry gets reaped.
var ErrGone = errors.New("connection gone")

// ErrInvalidMessage is returned for send requests missing a group, a
// sender, or any content (neither body nor file reference).
var ErrInvalidMessage = errors.New("invalid message")

// Pusher delivers a payload to one connection held by this process.
type Pusher interface {
	Push(ctx context.Context, connectionID string, payload []byte) error
}

// Forwarder hands a payload to another node for connections whose sockets
// live there.
type Forwarder interface {
	Forward(ctx context.Context, nodeID string, connectionIDs []string, payload []byte) error
}

// SendRequest is one inbound send-message event, whether it arrived over
// REST or a websocket frame.
type SendRequest struct {
	GroupID    uuid.UUID
	SenderID   uuid.UUID
	SenderName string
	Body       string
	FileURL    string
	FileName   string
}

func (r SendRequest) validate() error {
	if r.GroupID == uuid.Nil {
		return fmt.Errorf("%w: missing group", ErrInvalidMessage)
	}
	if r.SenderID == uuid.Nil {
		return fmt.Errorf("%w: missing sender", ErrInvalidMessage)
	}
	if r.Body == "" && r.FileURL == "" {
		return fmt.Errorf("%w: empty body and no file", ErrInvalidMessage)
	}
	return nil
}

// Dispatcher persists each message exactly once and then fans it out,
// best effort, to every live connection in the target group. Persistence
// failure fails the whole send; delivery failures never do — a client
// that misses a push backfills from message history on reconnect.
type Dispatcher struct {
	messages  repository.MessageRepository
	registry  repository.ConnectionRepository
	pusher    Pusher
	forwarder Forwarder

	nodeID      string
	pushTimeout time.Duration
	logger      *zap.Logger
}

func NewDispatcher(
	messages repository.MessageRepository,
	registry repository.ConnectionRepository,
	pusher Pusher,
	forwarder Forwarder,
	nodeID string,
	pushTimeout time.Duration,
	logger *zap.Logger,
) *Dispatcher {
	if pushTimeout <= 0 {
		pushTimeout = 5 * time.Second
	}
	return &Dispatcher{
		messages:    messages,
		registry:    registry,
		pusher:      pusher,
		forwarder:   forwarder,
		nodeID:      nodeID,
		pushTimeout: pushTimeout,
		logger:      logger,
	}
}

// Send validates, persists, and fans out one message. It returns the
// persisted record; once the append has succeeded the send is reported
// successful no matter how many deliveries fail.
func (d *Dispatcher) Send(ctx context.Context, req SendRequest) (*models.Message, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	msg, err := d.messages.Append(ctx, models.Message{
		GroupID:    req.GroupID,
		SenderID:   req.SenderID,
		SenderName: req.SenderName,
		Body:       req.Body,
		FileURL:    req.FileURL,
		FileName:   req.FileName,
	})
	if err != nil {
		return nil, fmt.Errorf("persist message: %w", err)
	}

	// From here on the send has succeeded. Target resolution and
	// delivery problems are logged, never surfaced.
	conns, err := d.registry.ListByGroup(ctx, req.GroupID)
	if err != nil {
		d.logger.Warn("resolve fan-out targets failed",
			zap.String("group_id", req.GroupID.String()),
			zap.Error(err),
		)
		return msg, nil
	}
	if len(conns) == 0 {
		return msg, nil
	}

	payload, err := json.Marshal(NewEnvelope(msg))
	if err != nil {
		d.logger.Error("marshal envelope failed", zap.Error(err))
		return msg, nil
	}

	d.fanout(ctx, conns, payload)
	return msg, nil
}

// fanout delivers the payload to every connection: local sockets get a
// concurrent push each, remote sockets get one forward per owning node.
// It waits for every attempt to finish — success or failure — with no
// short-circuiting.
func (d *Dispatcher) fanout(ctx context.Context, conns []models.Connection, payload []byte) {
	byNode := lo.GroupBy(conns, func(c models.Connection) string { return c.NodeID })

	var wg sync.WaitGroup
	for nodeID, nodeConns := range byNode {
		if nodeID == d.nodeID {
			for _, conn := range nodeConns {
				wg.Add(1)
				go func(conn models.Connection) {
					defer wg.Done()
					d.deliver(ctx, conn, payload)
				}(conn)
			}
			continue
		}

		wg.Add(1)
		go func(nodeID string, nodeConns []models.Connection) {
			defer wg.Done()
			d.forward(ctx, nodeID, nodeConns, payload)
		}(nodeID, nodeConns)
	}
	wg.Wait()
}

func (d *Dispatcher) deliver(ctx context.Context, conn models.Connection, payload []byte) {
	pushCtx, cancel := context.WithTimeout(ctx, d.pushTimeout)
	defer cancel()

	err := d.pusher.Push(pushCtx, conn.ID, payload)
	switch {
	case err == nil:
	case errors.Is(err, ErrGone):
		d.reap(ctx, conn.ID)
	default:
		d.logger.Warn("push failed",
			zap.String("connection_id", conn.ID),
			zap.Error(err),
		)
	}
}

func (d *Dispatcher) forward(ctx context.Context, nodeID string, conns []models.Connection, payload []byte) {
	if d.forwarder == nil {
		d.logger.Warn("no forwarder configured, dropping remote deliveries",
			zap.String("node_id", nodeID),
			zap.Int("connections", len(conns)),
		)
		return
	}

	ids := lo.Map(conns, func(c models.Connection, _ int) string { return c.ID })
	if err := d.forwarder.Forward(ctx, nodeID, ids, payload); err != nil {
		d.logger.Warn("forward to node failed",
			zap.String("node_id", nodeID),
			zap.Error(err),
		)
	}
}

func (d *Dispatcher) reap(ctx context.Context, connectionID string) {
	if err := d.registry.Unregister(ctx, connectionID); err != nil {
		d.logger.Warn("reap stale connection failed",
			zap.String("connection_id", connectionID),
			zap.Error(err),
		)
		return
	}
	d.logger.Info("reaped stale connection", zap.String("connection_id", connectionID))
}
