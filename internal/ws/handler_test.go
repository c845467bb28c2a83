package ws

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/messywasayzafar/nursify-sub001/internal/auth"
	"github.com/messywasayzafar/nursify-sub001/internal/models"
	"github.com/messywasayzafar/nursify-sub001/internal/repository"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const handshakeSecret = "handshake-secret"

type recordingRegistry struct {
	mu         sync.Mutex
	registered []models.Connection
}

var _ repository.ConnectionRepository = (*recordingRegistry)(nil)

func (f *recordingRegistry) Register(ctx context.Context, conn models.Connection) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.registered = append(f.registered, conn)
	return nil
}

func (f *recordingRegistry) Unregister(ctx context.Context, connectionID string) error {
	return nil
}

func (f *recordingRegistry) ListByGroup(ctx context.Context, groupID uuid.UUID) ([]models.Connection, error) {
	return nil, nil
}

func (f *recordingRegistry) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Connection, error) {
	return nil, nil
}

func (f *recordingRegistry) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.registered)
}

type staticMembership struct {
	member bool
}

var _ repository.MembershipRepository = (*staticMembership)(nil)

func (f *staticMembership) AddMember(ctx context.Context, groupID, userID uuid.UUID, role string) error {
	return nil
}

func (f *staticMembership) RemoveMember(ctx context.Context, groupID, userID uuid.UUID) error {
	return nil
}

func (f *staticMembership) ListMembers(ctx context.Context, groupID uuid.UUID) ([]models.GroupMember, error) {
	return nil, nil
}

func (f *staticMembership) IsMember(ctx context.Context, groupID, userID uuid.UUID) (bool, error) {
	return f.member, nil
}

func newHandshakeRouter(registry *recordingRegistry, membership *staticMembership) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewHandler(NewHub(zap.NewNop()), registry, membership, nil, handshakeSecret, "node-a", zap.NewNop())
	r := gin.New()
	r.GET("/v1/ws", h.Serve)
	return r
}

func handshakeToken(t *testing.T, userID uuid.UUID) string {
	t.Helper()
	token, err := auth.GenerateToken(userID, uuid.New(), "alice@example.com", "Alice", handshakeSecret, time.Hour)
	require.NoError(t, err)
	return token
}

func Test_Handshake_Without_Token_Creates_No_Connection(t *testing.T) {
	req := require.New(t)
	registry := &recordingRegistry{}
	router := newHandshakeRouter(registry, &staticMembership{member: true})

	r := httptest.NewRequest(http.MethodGet, "/v1/ws?group_id="+uuid.NewString(), nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, r)

	req.Equal(http.StatusUnauthorized, w.Code)
	req.Equal(0, registry.count())
}

func Test_Handshake_Without_Group_Creates_No_Connection(t *testing.T) {
	req := require.New(t)
	registry := &recordingRegistry{}
	router := newHandshakeRouter(registry, &staticMembership{member: true})

	r := httptest.NewRequest(http.MethodGet, "/v1/ws?token="+handshakeToken(t, uuid.New()), nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, r)

	req.Equal(http.StatusBadRequest, w.Code)
	req.Equal(0, registry.count())
}

func Test_Handshake_Rejects_Non_Members(t *testing.T) {
	req := require.New(t)
	registry := &recordingRegistry{}
	router := newHandshakeRouter(registry, &staticMembership{member: false})

	url := "/v1/ws?token=" + handshakeToken(t, uuid.New()) + "&group_id=" + uuid.NewString()
	r := httptest.NewRequest(http.MethodGet, url, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, r)

	req.Equal(http.StatusForbidden, w.Code)
	req.Equal(0, registry.count())
}
