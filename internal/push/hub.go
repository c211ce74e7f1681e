// Package push broadcasts finished wireframes to connected design-tool plugins.
package push

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/sri11223/Advanced-ui-workflow-sub001/internal/model"
	"github.com/sri11223/Advanced-ui-workflow-sub001/pkg/logger"
)

const (
	writeWait   = 10 * time.Second
	pongWait    = 60 * time.Second
	pingEvery   = (pongWait * 9) / 10
	sendBuffer  = 16
	maxReadSize = 4096
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(_ *http.Request) bool {
		return true
	},
}

type client struct {
	conn *websocket.Conn
	addr string
	send chan []byte
	once sync.Once
}

func (c *client) close() {
	c.once.Do(func() { close(c.send) })
}

// Hub 维护所有插件连接
type Hub struct {
	mu      sync.RWMutex
	clients map[*client]struct{}
	closed  bool
}

func NewHub() *Hub {
	return &Hub{clients: make(map[*client]struct{})}
}

// Count 当前连接数
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Broadcast 不阻塞：发送缓冲已满的客户端直接断开
func (h *Hub) Broadcast(msg model.PushMessage) {
	payload, err := json.Marshal(msg)
	if err != nil {
		logger.Errorf("Failed to encode push message: %v", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.send <- payload:
		default:
			logger.Warnf("Dropping slow push client %s", c.addr)
			delete(h.clients, c)
			c.close()
		}
	}
}

// BroadcastWireframe 推送 wireframe-json 消息
func (h *Hub) BroadcastWireframe(wf model.WireframeSpec) {
	h.Broadcast(model.PushMessage{Type: model.PushTypeWireframe, Data: wf})
}

func (h *Hub) register(c *client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.clients[c] = struct{}{}
	return true
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		c.close()
	}
}

// Close 断开所有客户端，之后的连接直接拒绝
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for c := range h.clients {
		delete(h.clients, c)
		c.close()
	}
}

// ServeWS 升级连接并阻塞到客户端断开
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warnf("Websocket upgrade failed: %v", err)
		return
	}

	c := &client{conn: conn, addr: conn.RemoteAddr().String(), send: make(chan []byte, sendBuffer)}
	if !h.register(c) {
		conn.Close()
		return
	}
	logger.Infof("Push client connected: %s", c.addr)

	writerDone := make(chan struct{})
	go h.writeLoop(c, writerDone)
	h.readLoop(c)

	h.unregister(c)
	<-writerDone
	logger.Infof("Push client disconnected: %s", c.addr)
}

// readLoop 只处理 pong 和关闭帧，插件不会向服务端发业务消息
func (h *Hub) readLoop(c *client) {
	c.conn.SetReadLimit(maxReadSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writeLoop(c *client, done chan<- struct{}) {
	ticker := time.NewTicker(pingEvery)
	defer func() {
		ticker.Stop()
		c.conn.Close()
		close(done)
	}()

	for {
		select {
		case payload, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, nil)
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
