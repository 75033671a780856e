package websocket

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"kidsgpt-be/internal/pkg/logger"
	"kidsgpt-be/pkg/chat/session"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runHub(t *testing.T) *Hub {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	hub := NewHub(nil, logger.NewNopLogger())
	go hub.Run(ctx)
	return hub
}

func attach(t *testing.T, hub *Hub, userID uuid.UUID, buffer int) *Client {
	t.Helper()
	c := &Client{Hub: hub, UserID: userID, Send: make(chan []byte, buffer)}
	hub.register <- c
	require.Eventually(t, func() bool { return hub.Connections(userID) > 0 }, time.Second, 5*time.Millisecond)
	return c
}

func readFrame(t *testing.T, c *Client) Envelope {
	t.Helper()
	select {
	case raw := <-c.Send:
		var env Envelope
		require.NoError(t, json.Unmarshal(raw, &env))
		return env
	case <-time.After(time.Second):
		t.Fatal("no frame delivered")
		return Envelope{}
	}
}

func TestHub_SendReachesEveryTabOfUser(t *testing.T) {
	hub := runHub(t)
	parent, other := uuid.New(), uuid.New()

	tab1 := attach(t, hub, parent, 4)
	tab2 := attach(t, hub, parent, 4)
	stranger := attach(t, hub, other, 4)
	assert.Equal(t, 2, hub.Connections(parent))

	hub.Send(parent, KindMisuseAlert, map[string]interface{}{"score": 90})

	for _, c := range []*Client{tab1, tab2} {
		env := readFrame(t, c)
		assert.Equal(t, KindMisuseAlert, env.Type)
		assert.EqualValues(t, 90, env.Data.(map[string]interface{})["score"])
	}
	assert.Empty(t, stranger.Send)
}

func TestHub_NotifyWrapsNotice(t *testing.T) {
	hub := runHub(t)
	child := uuid.New()
	c := attach(t, hub, child, 1)

	hub.Notify(child, session.Notice{Id: uuid.New(), Kind: session.NoticeError, Message: "Could not save"})

	env := readFrame(t, c)
	assert.Equal(t, KindNotice, env.Type)
	assert.Equal(t, "Could not save", env.Data.(map[string]interface{})["message"])
}

func TestHub_FullBufferDropsWithoutBlocking(t *testing.T) {
	hub := runHub(t)
	user := uuid.New()
	c := attach(t, hub, user, 1)

	done := make(chan struct{})
	go func() {
		hub.Send(user, KindNotice, "first")
		hub.Send(user, KindNotice, "second")
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Send blocked on a full client")
	}
	assert.Equal(t, "first", readFrame(t, c).Data)
	assert.Equal(t, 1, hub.Connections(user))
}

func TestHub_UnregisterClosesSend(t *testing.T) {
	hub := runHub(t)
	user := uuid.New()
	c := attach(t, hub, user, 1)

	hub.unregister <- c
	require.Eventually(t, func() bool { return hub.Connections(user) == 0 }, time.Second, 5*time.Millisecond)
	_, open := <-c.Send
	assert.False(t, open)

	hub.Send(user, KindNotice, "nobody listening")
}
