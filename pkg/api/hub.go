package api

import (
	"context"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/kuberlab/profiled/pkg/profiler"
	"github.com/kuberlab/profiled/pkg/utils"
	"github.com/sirupsen/logrus"
)

const (
	SnapshotMessage = "snapshot"

	writeWait = 10 * time.Second
)

type Message struct {
	Type    string      `json:"type"`
	ID      string      `json:"id"`
	Content interface{} `json:"content"`
}

type WebsocketClient struct {
	lock        *sync.Mutex
	Ws          *websocket.Conn `json:"-"`
	ID          string          `json:"id"`
	IP          string          `json:"ip"`
	ConnectedAt time.Time       `json:"connected_at"`
}

func NewWebsocketClient(ws *websocket.Conn, id, ip string) *WebsocketClient {
	return &WebsocketClient{
		Ws:          ws,
		ID:          id,
		IP:          ip,
		lock:        &sync.Mutex{},
		ConnectedAt: time.Now(),
	}
}

func (c *WebsocketClient) WriteMessage(sType string, content interface{}) error {
	// Prevent concurrent socket writes.
	c.lock.Lock()
	defer c.lock.Unlock()
	c.Ws.SetWriteDeadline(time.Now().Add(writeWait))
	return c.Ws.WriteJSON(Message{Type: sType, ID: c.ID, Content: content})
}

func (c *WebsocketClient) WriteText(text string) error {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.Ws.SetWriteDeadline(time.Now().Add(writeWait))
	return c.Ws.WriteMessage(websocket.TextMessage, []byte(text))
}

// Hub fans snapshots out to every connected websocket client.
type Hub struct {
	lock        *sync.RWMutex
	connections map[*WebsocketClient]bool
	queue       chan EntryList
	done        chan struct{}
	closeOnce   sync.Once
}

func NewHub() *Hub {
	hub := &Hub{
		lock:        &sync.RWMutex{},
		connections: make(map[*WebsocketClient]bool),
		queue:       make(chan EntryList, 20),
		done:        make(chan struct{}),
	}
	go hub.eventLoop()

	return hub
}

// Register adds client to the broadcast set. Once the hub is closed the
// client's connection is closed instead and false is returned.
func (h *Hub) Register(client *WebsocketClient) bool {
	h.lock.Lock()
	defer h.lock.Unlock()
	select {
	case <-h.done:
		client.Ws.Close()
		return false
	default:
	}
	h.connections[client] = true
	return true
}

func (h *Hub) Connections() []*WebsocketClient {
	h.lock.RLock()
	defer h.lock.RUnlock()
	res := make([]*WebsocketClient, 0)
	for client := range h.connections {
		res = append(res, client)
	}
	return res
}

func (h *Hub) Drop(client *WebsocketClient) {
	h.lock.Lock()
	defer h.lock.Unlock()
	delete(h.connections, client)
}

// Push queues a snapshot for broadcast. It is a no-op once the hub is closed.
func (h *Hub) Push(list EntryList) {
	select {
	case h.queue <- list:
	case <-h.done:
	}
}

// Publish pushes a snapshot of p every interval until ctx is done or the hub
// is closed. A non-positive interval uses utils.DefaultWatch.
func (h *Hub) Publish(ctx context.Context, p *profiler.Profiler, interval time.Duration) {
	if interval <= 0 {
		interval = utils.DefaultWatch
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-h.done:
			return
		case <-ticker.C:
			if len(h.Connections()) == 0 {
				continue
			}
			h.Push(EntryList{Items: p.Snapshot()})
		}
	}
}

// Close stops the event loop and closes all client connections.
func (h *Hub) Close() {
	h.closeOnce.Do(func() {
		close(h.done)
		h.lock.Lock()
		defer h.lock.Unlock()
		for client := range h.connections {
			client.Ws.Close()
			delete(h.connections, client)
		}
	})
}

func (h *Hub) eventLoop() {
	for {
		select {
		case list := <-h.queue:
			h.pushMessage(list)
		case <-h.done:
			return
		}
	}
}

func (h *Hub) pushMessage(list EntryList) {
	// Lock using Lock instead of RLock to prevent parallel pushing.
	h.lock.Lock()
	defer h.lock.Unlock()
	for client := range h.connections {
		err := client.WriteMessage(SnapshotMessage, list)
		if err != nil {
			logrus.Error(err)
		}
	}
}
