package ws

import (
	"context"
	"testing"
	"time"

	"github.com/messywasayzafar/nursify-sub001/internal/chat"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestClient(id string, buffer int) *client {
	return &client{
		id:   id,
		send: make(chan []byte, buffer),
		done: make(chan struct{}),
	}
}

func Test_Push_To_Unknown_Connection_Reports_Gone(t *testing.T) {
	req := require.New(t)
	hub := NewHub(zap.NewNop())

	err := hub.Push(context.Background(), "nope", []byte("x"))
	req.ErrorIs(err, chat.ErrGone)
}

func Test_Push_Delivers_To_Registered_Connection(t *testing.T) {
	req := require.New(t)
	hub := NewHub(zap.NewNop())
	cl := newTestClient("c1", 1)
	hub.add(cl)
	req.Equal(1, hub.Size())

	err := hub.Push(context.Background(), "c1", []byte("payload"))
	req.NoError(err)

	select {
	case got := <-cl.send:
		req.Equal([]byte("payload"), got)
	default:
		t.Fatal("expected payload on send channel")
	}
}

func Test_Push_After_Teardown_Reports_Gone(t *testing.T) {
	req := require.New(t)
	hub := NewHub(zap.NewNop())
	cl := newTestClient("c1", 0)
	hub.add(cl)
	close(cl.done)

	err := hub.Push(context.Background(), "c1", []byte("payload"))
	req.ErrorIs(err, chat.ErrGone)

	hub.remove("c1")
	req.Equal(0, hub.Size())
	err = hub.Push(context.Background(), "c1", []byte("payload"))
	req.ErrorIs(err, chat.ErrGone)
}

func Test_Push_Honors_Context_Deadline(t *testing.T) {
	req := require.New(t)
	hub := NewHub(zap.NewNop())
	// Unbuffered channel with no reader: the push can never complete.
	cl := newTestClient("c1", 0)
	hub.add(cl)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := hub.Push(ctx, "c1", []byte("payload"))
	req.ErrorIs(err, context.DeadlineExceeded)
}
