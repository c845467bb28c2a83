package chat

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/messywasayzafar/nursify-sub001/internal/models"
	"github.com/messywasayzafar/nursify-sub001/internal/repository"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testNode = "node-a"

type fakeMessages struct {
	mu         sync.Mutex
	appended   []models.Message
	failAppend bool
}

var _ repository.MessageRepository = (*fakeMessages)(nil)

func (f *fakeMessages) Append(ctx context.Context, msg models.Message) (*models.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAppend {
		return nil, errors.New("store unavailable")
	}
	msg.ID = uuid.New()
	msg.CreatedAt = time.Now().UTC()
	f.appended = append(f.appended, msg)
	return &msg, nil
}

func (f *fakeMessages) ListByGroup(ctx context.Context, groupID uuid.UUID, limit int) ([]models.Message, error) {
	return nil, nil
}

func (f *fakeMessages) DeleteByID(ctx context.Context, messageID uuid.UUID) error {
	return nil
}

type fakeRegistry struct {
	mu    sync.Mutex
	conns map[string]models.Connection
}

var _ repository.ConnectionRepository = (*fakeRegistry)(nil)

func newFakeRegistry(conns ...models.Connection) *fakeRegistry {
	r := &fakeRegistry{conns: make(map[string]models.Connection)}
	for _, c := range conns {
		r.conns[c.ID] = c
	}
	return r
}

func (f *fakeRegistry) Register(ctx context.Context, conn models.Connection) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.conns[conn.ID] = conn
	return nil
}

func (f *fakeRegistry) Unregister(ctx context.Context, connectionID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.conns, connectionID)
	return nil
}

func (f *fakeRegistry) ListByGroup(ctx context.Context, groupID uuid.UUID) ([]models.Connection, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.Connection, 0)
	for _, c := range f.conns {
		if c.GroupID == groupID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeRegistry) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Connection, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.Connection, 0)
	for _, c := range f.conns {
		if c.UserID == userID {
			out = append(out, c)
		}
	}
	return out, nil
}

type fakePusher struct {
	mu     sync.Mutex
	pushed map[string][][]byte
	gone   map[string]bool
}

func newFakePusher() *fakePusher {
	return &fakePusher{
		pushed: make(map[string][][]byte),
		gone:   make(map[string]bool),
	}
}

func (f *fakePusher) Push(ctx context.Context, connectionID string, payload []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.gone[connectionID] {
		return ErrGone
	}
	f.pushed[connectionID] = append(f.pushed[connectionID], payload)
	return nil
}

func (f *fakePusher) pushCount(connectionID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.pushed[connectionID])
}

type forwardCall struct {
	nodeID        string
	connectionIDs []string
	payload       []byte
}

type fakeForwarder struct {
	mu    sync.Mutex
	calls []forwardCall
}

func (f *fakeForwarder) Forward(ctx context.Context, nodeID string, connectionIDs []string, payload []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, forwardCall{nodeID, connectionIDs, payload})
	return nil
}

func localConn(id string, userID, groupID uuid.UUID) models.Connection {
	return models.Connection{ID: id, UserID: userID, GroupID: groupID, NodeID: testNode}
}

func newTestDispatcher(messages *fakeMessages, registry *fakeRegistry, pusher *fakePusher, forwarder Forwarder) *Dispatcher {
	return NewDispatcher(messages, registry, pusher, forwarder, testNode, time.Second, zap.NewNop())
}

func Test_Send_Fans_Out_To_All_Group_Connections(t *testing.T) {
	req := require.New(t)
	groupID := uuid.New()
	alice, bob := uuid.New(), uuid.New()

	messages := &fakeMessages{}
	registry := newFakeRegistry(
		localConn("c1", alice, groupID),
		localConn("c2", bob, groupID),
	)
	pusher := newFakePusher()
	d := newTestDispatcher(messages, registry, pusher, nil)

	msg, err := d.Send(context.Background(), SendRequest{
		GroupID:    groupID,
		SenderID:   alice,
		SenderName: "Alice",
		Body:       "hello",
	})
	req.NoError(err)
	req.NotNil(msg)
	req.NotEqual(uuid.Nil, msg.ID)
	req.Equal("hello", msg.Body)

	req.Len(messages.appended, 1)
	req.Equal(1, pusher.pushCount("c1"))
	req.Equal(1, pusher.pushCount("c2"))

	var env Envelope
	req.NoError(json.Unmarshal(pusher.pushed["c1"][0], &env))
	req.Equal(ActionMessage, env.Action)
	req.Equal(msg.ID, env.MessageID)
	req.Equal(groupID, env.GroupID)
	req.Equal("Alice", env.SenderName)
	req.Equal("hello", env.Message)
}

func Test_Send_Reaps_Gone_Connections_And_Still_Succeeds(t *testing.T) {
	req := require.New(t)
	groupID := uuid.New()
	alice, bob := uuid.New(), uuid.New()

	messages := &fakeMessages{}
	registry := newFakeRegistry(
		localConn("c1", alice, groupID),
		localConn("c2", bob, groupID),
	)
	pusher := newFakePusher()
	pusher.gone["c2"] = true
	d := newTestDispatcher(messages, registry, pusher, nil)

	_, err := d.Send(context.Background(), SendRequest{
		GroupID:    groupID,
		SenderID:   alice,
		SenderName: "Alice",
		Body:       "hello",
	})
	req.NoError(err)
	req.Len(messages.appended, 1)
	req.Equal(1, pusher.pushCount("c1"))

	remaining, err := registry.ListByGroup(context.Background(), groupID)
	req.NoError(err)
	req.Len(remaining, 1)
	req.Equal("c1", remaining[0].ID)
}

func Test_Send_Fails_When_Persistence_Fails(t *testing.T) {
	req := require.New(t)
	groupID := uuid.New()

	messages := &fakeMessages{failAppend: true}
	registry := newFakeRegistry(localConn("c1", uuid.New(), groupID))
	pusher := newFakePusher()
	d := newTestDispatcher(messages, registry, pusher, nil)

	_, err := d.Send(context.Background(), SendRequest{
		GroupID:    groupID,
		SenderID:   uuid.New(),
		SenderName: "Alice",
		Body:       "hello",
	})
	req.Error(err)
	// Durability takes precedence over delivery: nothing may be pushed.
	req.Equal(0, pusher.pushCount("c1"))
}

func Test_Send_Rejects_Request_Without_Content(t *testing.T) {
	req := require.New(t)
	messages := &fakeMessages{}
	d := newTestDispatcher(messages, newFakeRegistry(), newFakePusher(), nil)

	_, err := d.Send(context.Background(), SendRequest{
		GroupID:    uuid.New(),
		SenderID:   uuid.New(),
		SenderName: "Alice",
	})
	req.ErrorIs(err, ErrInvalidMessage)
	req.Empty(messages.appended)
}

func Test_Send_Rejects_Missing_Group_Or_Sender(t *testing.T) {
	req := require.New(t)
	d := newTestDispatcher(&fakeMessages{}, newFakeRegistry(), newFakePusher(), nil)

	_, err := d.Send(context.Background(), SendRequest{
		SenderID: uuid.New(),
		Body:     "hello",
	})
	req.ErrorIs(err, ErrInvalidMessage)

	_, err = d.Send(context.Background(), SendRequest{
		GroupID: uuid.New(),
		Body:    "hello",
	})
	req.ErrorIs(err, ErrInvalidMessage)
}

func Test_Send_Accepts_File_Only_Message(t *testing.T) {
	req := require.New(t)
	groupID := uuid.New()
	messages := &fakeMessages{}
	d := newTestDispatcher(messages, newFakeRegistry(), newFakePusher(), nil)

	msg, err := d.Send(context.Background(), SendRequest{
		GroupID:    groupID,
		SenderID:   uuid.New(),
		SenderName: "Alice",
		FileURL:    "https://files.example/report.pdf",
		FileName:   "report.pdf",
	})
	req.NoError(err)
	req.Empty(msg.Body)
	req.Equal("report.pdf", msg.FileName)
}

func Test_Send_Forwards_Remote_Connections_Per_Node(t *testing.T) {
	req := require.New(t)
	groupID := uuid.New()
	alice, bob := uuid.New(), uuid.New()

	remote1 := models.Connection{ID: "r1", UserID: bob, GroupID: groupID, NodeID: "node-b"}
	remote2 := models.Connection{ID: "r2", UserID: bob, GroupID: groupID, NodeID: "node-b"}
	registry := newFakeRegistry(localConn("c1", alice, groupID), remote1, remote2)

	pusher := newFakePusher()
	forwarder := &fakeForwarder{}
	d := newTestDispatcher(&fakeMessages{}, registry, pusher, forwarder)

	_, err := d.Send(context.Background(), SendRequest{
		GroupID:    groupID,
		SenderID:   alice,
		SenderName: "Alice",
		Body:       "hello",
	})
	req.NoError(err)

	// Local socket pushed directly; remote node gets exactly one forward
	// carrying both of its connections.
	req.Equal(1, pusher.pushCount("c1"))
	req.Equal(0, pusher.pushCount("r1"))
	req.Len(forwarder.calls, 1)
	req.Equal("node-b", forwarder.calls[0].nodeID)
	req.ElementsMatch([]string{"r1", "r2"}, forwarder.calls[0].connectionIDs)
}
