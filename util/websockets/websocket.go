package websockets

import (
	"encoding/json"
	"log"
	"net/http"
	"runtime/debug"
	"sync"
	"time"

	"github.com/bwise1/roadwatch/internal/overlay"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	clientBuffer   = 64
	broadcastQueue = 256
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// WebSocketManager fans session events out to the connections watching
// each session
type WebSocketManager struct {
	clients    map[*websocket.Conn]*Client
	broadcast  chan sessionMessage
	register   chan *Client
	unregister chan *websocket.Conn
	done       chan struct{}
	stopOnce   sync.Once
	mu         sync.Mutex

	// OnConnect returns the events a new connection starts with.
	OnConnect func(sessionID string) []Event
	// OnMessage handles input sent over the socket.
	OnMessage func(sessionID string, msg Message)
}

// NewWebSocketManager initializes a WebSocketManager
func NewWebSocketManager() *WebSocketManager {
	return &WebSocketManager{
		clients:    make(map[*websocket.Conn]*Client),
		broadcast:  make(chan sessionMessage, broadcastQueue),
		register:   make(chan *Client),
		unregister: make(chan *websocket.Conn),
		done:       make(chan struct{}),
	}
}

// Run starts the WebSocket manager
func (manager *WebSocketManager) Run() {
	for {
		select {
		case <-manager.done:
			manager.mu.Lock()
			for conn, client := range manager.clients {
				delete(manager.clients, conn)
				close(client.send)
			}
			manager.mu.Unlock()
			return

		case client := <-manager.register:
			manager.mu.Lock()
			manager.clients[client.Conn] = client
			manager.mu.Unlock()

		case conn := <-manager.unregister:
			manager.mu.Lock()
			if client, exists := manager.clients[conn]; exists {
				delete(manager.clients, conn)
				close(client.send)
				log.Printf("Client of session %s disconnected", client.SessionID)
			}
			manager.mu.Unlock()

		case message := <-manager.broadcast:
			manager.mu.Lock()
			for conn, client := range manager.clients {
				if client.SessionID != message.sessionID {
					continue
				}
				select {
				case client.send <- message.payload:
				default:
					log.Printf("Client of session %s is too slow, dropping it", client.SessionID)
					delete(manager.clients, conn)
					close(client.send)
				}
			}
			manager.mu.Unlock()
		}
	}
}

// Stop ends Run and closes every connection
func (manager *WebSocketManager) Stop() {
	manager.stopOnce.Do(func() { close(manager.done) })
}

// ClientCount returns the connections watching sessionID
func (manager *WebSocketManager) ClientCount(sessionID string) int {
	manager.mu.Lock()
	defer manager.mu.Unlock()

	n := 0
	for _, c := range manager.clients {
		if c.SessionID == sessionID {
			n++
		}
	}
	return n
}

// Send queues an event for every client of sessionID. Events are dropped
// when the queue is full.
func (manager *WebSocketManager) Send(sessionID, eventType string, data interface{}) {
	payload, err := json.Marshal(Event{Type: eventType, SessionID: sessionID, Data: data, At: time.Now().UTC()})
	if err != nil {
		log.Println("unable to marshal event:", err)
		return
	}

	select {
	case manager.broadcast <- sessionMessage{sessionID: sessionID, payload: payload}:
	case <-manager.done:
	default:
		log.Printf("event queue full, dropping %s for session %s", eventType, sessionID)
	}
}

type sessionPublisher struct {
	manager   *WebSocketManager
	sessionID string
}

func (p sessionPublisher) Publish(event string, payload interface{}) {
	p.manager.Send(p.sessionID, event, payload)
}

// Publisher returns the overlay publisher of one session
func (manager *WebSocketManager) Publisher(sessionID string) overlay.Publisher {
	return sessionPublisher{manager: manager, sessionID: sessionID}
}

// HandleConnections upgrades HTTP requests to WebSocket connections
func (manager *WebSocketManager) HandleConnections(w http.ResponseWriter, r *http.Request, sessionID string) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Println("WebSocket Upgrade Error:", err)
		return
	}

	client := &Client{Conn: conn, SessionID: sessionID, send: make(chan []byte, clientBuffer)}

	if manager.OnConnect != nil {
		for _, ev := range manager.OnConnect(sessionID) {
			ev.SessionID = sessionID
			if ev.At.IsZero() {
				ev.At = time.Now().UTC()
			}
			if raw, err := json.Marshal(ev); err == nil {
				client.send <- raw
			}
		}
	}

	select {
	case manager.register <- client:
	case <-manager.done:
		conn.Close()
		return
	}
	go client.writePump()

	defer func() {
		select {
		case manager.unregister <- conn:
		case <-manager.done:
		}
	}()

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			break
		}

		var message Message
		if err := json.Unmarshal(msg, &message); err != nil {
			log.Println("Invalid JSON:", err)
			continue
		}

		if message.Type == MsgTypePing {
			continue
		}
		manager.dispatch(sessionID, message)
	}
}

func (manager *WebSocketManager) dispatch(sessionID string, message Message) {
	if manager.OnMessage == nil {
		return
	}
	defer func() {
		if rec := recover(); rec != nil {
			log.Printf("🔥 websocket handler panicked: %v\n%s", rec, debug.Stack())
		}
	}()
	manager.OnMessage(sessionID, message)
}

func (c *Client) writePump() {
	defer c.Conn.Close()

	for payload := range c.send {
		c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.Conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			log.Println("WebSocket write error:", err)
			return
		}
	}
	c.Conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
}
