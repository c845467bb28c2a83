// Package bridge forwards push payloads between server nodes over Redis
// pub/sub. Each node subscribes to its own channel; the dispatcher
// publishes there for connections whose sockets live on that node.
package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/messywasayzafar/nursify-sub001/internal/chat"
	"github.com/messywasayzafar/nursify-sub001/internal/repository"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const channelPrefix = "nursify:node:"

type Bridge struct {
	rdb      *redis.Client
	pusher   chat.Pusher
	registry repository.ConnectionRepository

	nodeID      string
	pushTimeout time.Duration
	logger      *zap.Logger
}

// frame is the wire format between nodes: the already-marshalled push
// envelope plus the connection IDs it should reach on the target node.
type frame struct {
	ConnectionIDs []string        `json:"connectionIds"`
	Payload       json.RawMessage `json:"payload"`
}

func New(
	rdb *redis.Client,
	pusher chat.Pusher,
	registry repository.ConnectionRepository,
	nodeID string,
	pushTimeout time.Duration,
	logger *zap.Logger,
) *Bridge {
	if pushTimeout <= 0 {
		pushTimeout = 5 * time.Second
	}
	return &Bridge{
		rdb:         rdb,
		pusher:      pusher,
		registry:    registry,
		nodeID:      nodeID,
		pushTimeout: pushTimeout,
		logger:      logger,
	}
}

// Forward publishes a payload for connections owned by another node.
// Publishing is fire-and-forget: Redis does not tell us whether anyone
// was subscribed, and delivery stays best-effort either way.
func (b *Bridge) Forward(ctx context.Context, nodeID string, connectionIDs []string, payload []byte) error {
	buf, err := json.Marshal(frame{
		ConnectionIDs: connectionIDs,
		Payload:       payload,
	})
	if err != nil {
		return fmt.Errorf("marshal bridge frame: %w", err)
	}

	if err := b.rdb.Publish(ctx, channelPrefix+nodeID, buf).Err(); err != nil {
		return fmt.Errorf("publish to node %s: %w", nodeID, err)
	}
	return nil
}

// Run subscribes to this node's channel and delivers forwarded payloads
// to the local hub until the context is cancelled.
func (b *Bridge) Run(ctx context.Context) error {
	sub := b.rdb.Subscribe(ctx, channelPrefix+b.nodeID)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe to %s%s: %w", channelPrefix, b.nodeID, err)
	}
	b.logger.Info("bridge subscribed", zap.String("node_id", b.nodeID))

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			b.handle(ctx, []byte(msg.Payload))
		}
	}
}

func (b *Bridge) handle(ctx context.Context, raw []byte) {
	var f frame
	if err := json.Unmarshal(raw, &f); err != nil {
		b.logger.Warn("unparseable bridge frame", zap.Error(err))
		return
	}

	for _, connID := range f.ConnectionIDs {
		pushCtx, cancel := context.WithTimeout(ctx, b.pushTimeout)
		err := b.pusher.Push(pushCtx, connID, f.Payload)
		cancel()

		switch {
		case err == nil:
		case errors.Is(err, chat.ErrGone):
			// The registry said this node owns the socket but it is
			// already gone — reap, same as a local delivery failure.
			unregCtx, cancel := context.WithTimeout(ctx, b.pushTimeout)
			if uerr := b.registry.Unregister(unregCtx, connID); uerr != nil {
				b.logger.Warn("reap forwarded connection failed",
					zap.String("connection_id", connID),
					zap.Error(uerr),
				)
			} else {
				b.logger.Info("reaped stale connection",
					zap.String("connection_id", connID),
				)
			}
			cancel()
		default:
			b.logger.Warn("forwarded push failed",
				zap.String("connection_id", connID),
				zap.Error(err),
			)
		}
	}
}
