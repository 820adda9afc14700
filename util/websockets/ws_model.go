package websockets

import (
	"time"

	"github.com/gorilla/websocket"
)

// Message types sent by clients
const (
	MsgTypeClick    = "click"
	MsgTypeKey      = "key"
	MsgTypeViewport = "viewport"
	MsgTypePing     = "ping"
)

// Client is one websocket connection watching a session
type Client struct {
	Conn      *websocket.Conn
	SessionID string
	send      chan []byte
}

// Event is pushed to every client of a session
type Event struct {
	Type      string      `json:"type"`
	SessionID string      `json:"session_id"`
	Data      interface{} `json:"data"`
	At        time.Time   `json:"at"`
}

// Message struct for incoming WebSocket messages
type Message struct {
	Type  string  `json:"type"`
	Lat   float64 `json:"lat,omitempty"`
	Lng   float64 `json:"lng,omitempty"`
	Key   string  `json:"key,omitempty"`
	Ctrl  bool    `json:"ctrl,omitempty"`
	Meta  bool    `json:"meta,omitempty"`
	Shift bool    `json:"shift,omitempty"`
}

type sessionMessage struct {
	sessionID string
	payload   []byte
}
