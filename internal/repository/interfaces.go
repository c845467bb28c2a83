package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/messywasayzafar/nursify-sub001/internal/models"
)

// Every method takes a context so request cancellation and deadlines reach
// the database, and every lookup that crosses an agency boundary takes the
// agency ID so queries stay tenant-scoped.

// AgencyRepository handles agency (workspace) data.
type AgencyRepository interface {
	Create(ctx context.Context, name string) (*models.Agency, error)
}

// UserRepository handles staff accounts.
type UserRepository interface {
	Create(ctx context.Context, agencyID uuid.UUID, email, displayName, passwordHash string) (*models.User, error)

	// GetByID returns a user scoped to the agency. Returns nil, nil if not found.
	GetByID(ctx context.Context, agencyID uuid.UUID, userID uuid.UUID) (*models.User, error)

	// GetByEmail is a global lookup used for login. Returns nil, nil if not found.
	GetByEmail(ctx context.Context, email string) (*models.User, error)
}

// GroupRepository defines the contract for care-group data operations.
type GroupRepository interface {
	Create(ctx context.Context, agencyID uuid.UUID, name string) (*models.Group, error)

	// GetByID returns a single group. Returns nil, nil if not found.
	GetByID(ctx context.Context, agencyID uuid.UUID, groupID uuid.UUID) (*models.Group, error)

	// ListByAgency returns all groups in an agency, newest first.
	// Returns empty slice (not nil) so JSON serializes to [] not null.
	ListByAgency(ctx context.Context, agencyID uuid.UUID) ([]models.Group, error)
}

// MembershipRepository handles who belongs to which group.
type MembershipRepository interface {
	// AddMember is idempotent: joining a group twice is a no-op.
	AddMember(ctx context.Context, groupID uuid.UUID, userID uuid.UUID, role string) error

	// RemoveMember removes a user from a group. No-op if not a member.
	RemoveMember(ctx context.Context, groupID uuid.UUID, userID uuid.UUID) error

	ListMembers(ctx context.Context, groupID uuid.UUID) ([]models.GroupMember, error)

	// IsMember is the hot-path check before message sends and socket
	// subscriptions.
	IsMember(ctx context.Context, groupID uuid.UUID, userID uuid.UUID) (bool, error)
}

// MessageRepository is the append-only message log per group.
type MessageRepository interface {
	// Append persists a message and returns it with ID and CreatedAt
	// populated. Body may be empty when a file reference is present;
	// callers validate before appending.
	Append(ctx context.Context, msg models.Message) (*models.Message, error)

	// ListByGroup returns up to limit of the most recent messages in
	// chronological (oldest first) order.
	ListByGroup(ctx context.Context, groupID uuid.UUID, limit int) ([]models.Message, error)

	// DeleteByID removes a message. Idempotent: deleting an absent
	// message is not an error.
	DeleteByID(ctx context.Context, messageID uuid.UUID) error
}

// ConnectionRepository is the durable registry of live websocket sessions.
// It is the shared source of truth across server nodes; the in-process hub
// only knows about its own sockets.
type ConnectionRepository interface {
	// Register records a connection, overwriting any previous record
	// with the same ID (connection IDs are unique per session, so an
	// overwrite only happens on a racing re-register).
	Register(ctx context.Context, conn models.Connection) error

	// Unregister deletes the record if present; idempotent.
	Unregister(ctx context.Context, connectionID string) error

	// ListByGroup returns the live connections subscribed to a group.
	ListByGroup(ctx context.Context, groupID uuid.UUID) ([]models.Connection, error)

	// ListByUser returns all of a user's live connections (one per
	// device/tab).
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Connection, error)
}
