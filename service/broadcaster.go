package service

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"FrameForge-server/config"
)

// Event is the envelope pushed to every connected websocket client.
type Event struct {
	Type      string      `json:"type"`
	Data      interface{} `json:"data"`
	Timestamp time.Time   `json:"timestamp"`
}

// EventSink is what pipeline code broadcasts through.
type EventSink interface {
	BroadcastLog(projectID, level, message string)
	BroadcastStatus(projectID, status, stage string)
}

// Broadcaster fans events out to websocket clients. Slow clients are
// dropped rather than allowed to block the pipeline. Log events are also
// persisted to the log store.
type Broadcaster struct {
	mu      sync.Mutex
	clients map[*websocket.Conn]chan []byte
	logs    *LogStore
}

func NewBroadcaster(logs *LogStore) *Broadcaster {
	return &Broadcaster{
		clients: make(map[*websocket.Conn]chan []byte),
		logs:    logs,
	}
}

// Register attaches a client and starts its writer goroutine. The returned
// function detaches the client.
func (b *Broadcaster) Register(conn *websocket.Conn) func() {
	ch := make(chan []byte, 64)
	b.mu.Lock()
	b.clients[conn] = ch
	b.mu.Unlock()

	go func() {
		for msg := range ch {
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				b.unregister(conn)
				return
			}
		}
	}()

	return func() { b.unregister(conn) }
}

func (b *Broadcaster) unregister(conn *websocket.Conn) {
	b.mu.Lock()
	ch, ok := b.clients[conn]
	if ok {
		delete(b.clients, conn)
	}
	b.mu.Unlock()
	if ok {
		close(ch)
		conn.Close()
	}
}

// ClientCount reports the number of attached clients.
func (b *Broadcaster) ClientCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.clients)
}

func (b *Broadcaster) broadcast(eventType string, data interface{}) {
	msg, err := json.Marshal(Event{Type: eventType, Data: data, Timestamp: time.Now().UTC()})
	if err != nil {
		config.Log.WithError(err).Error("broadcast encode failed")
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	for conn, ch := range b.clients {
		select {
		case ch <- msg:
		default:
			// Client is not keeping up. Drop the message, not the pipeline.
			config.Log.WithField("client", conn.RemoteAddr().String()).Warn("dropping event for slow websocket client")
		}
	}
}

func (b *Broadcaster) BroadcastLog(projectID, level, message string) {
	entry := LogEntry{Timestamp: time.Now().UTC(), ProjectID: projectID, Level: level, Message: message}
	if b.logs != nil {
		if err := b.logs.Append(entry); err != nil {
			config.Log.WithError(err).Warn("log store append failed")
		}
	}
	b.broadcast("log", entry)
}

func (b *Broadcaster) BroadcastStatus(projectID, status, stage string) {
	b.broadcast("status_update", map[string]string{
		"project_id":    projectID,
		"status":        status,
		"current_stage": stage,
	})
}
