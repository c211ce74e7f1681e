package push

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sri11223/Advanced-ui-workflow-sub001/internal/model"
)

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	return conn
}

func TestHub_BroadcastReachesClients(t *testing.T) {
	hub := NewHub()
	srv := httptest.NewServer(http.HandlerFunc(hub.ServeWS))
	defer srv.Close()
	defer hub.Close()

	a, b := dial(t, srv), dial(t, srv)
	defer a.Close()
	defer b.Close()
	require.Eventually(t, func() bool { return hub.Count() == 2 }, time.Second, 10*time.Millisecond)

	wf := model.WireframeSpec{Title: "Login", Components: []model.Component{{Type: model.ComponentButton, Label: "Go"}}}
	hub.BroadcastWireframe(wf)

	for _, conn := range []*websocket.Conn{a, b} {
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
		var msg model.PushMessage
		require.NoError(t, conn.ReadJSON(&msg))
		assert.Equal(t, model.PushTypeWireframe, msg.Type)
		assert.Equal(t, wf, msg.Data)
	}
}

func TestHub_DisconnectUnregisters(t *testing.T) {
	hub := NewHub()
	srv := httptest.NewServer(http.HandlerFunc(hub.ServeWS))
	defer srv.Close()

	conn := dial(t, srv)
	require.Eventually(t, func() bool { return hub.Count() == 1 }, time.Second, 10*time.Millisecond)
	conn.Close()
	require.Eventually(t, func() bool { return hub.Count() == 0 }, 2*time.Second, 10*time.Millisecond)

	// 没有客户端时广播也不阻塞
	hub.BroadcastWireframe(model.WireframeSpec{Title: "x"})
}

func TestHub_CloseDisconnectsClients(t *testing.T) {
	hub := NewHub()
	srv := httptest.NewServer(http.HandlerFunc(hub.ServeWS))
	defer srv.Close()

	conn := dial(t, srv)
	defer conn.Close()
	require.Eventually(t, func() bool { return hub.Count() == 1 }, time.Second, 10*time.Millisecond)

	hub.Close()
	assert.Equal(t, 0, hub.Count())
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := conn.ReadMessage()
	assert.Error(t, err)
}

func TestHub_SlowClientDropped(t *testing.T) {
	hub := NewHub()
	slow := &client{addr: "slow", send: make(chan []byte, 1)}
	fast := &client{addr: "fast", send: make(chan []byte, 2)}
	hub.clients[slow] = struct{}{}
	hub.clients[fast] = struct{}{}
	slow.send <- []byte("backlog")

	hub.BroadcastWireframe(model.WireframeSpec{Title: "x"})

	assert.Equal(t, 1, hub.Count())
	_, stillRegistered := hub.clients[fast]
	assert.True(t, stillRegistered)
	assert.Len(t, fast.send, 1)

	<-slow.send
	_, open := <-slow.send
	assert.False(t, open, "slow client's channel is closed")
}
