package rest

import (
	"errors"
	"log"
	"net/http"

	"github.com/bwise1/roadwatch/internal/model"
	"github.com/bwise1/roadwatch/internal/overlay"
	"github.com/bwise1/roadwatch/internal/session"
	"github.com/bwise1/roadwatch/util/values"
	"github.com/bwise1/roadwatch/util/websockets"
	"github.com/go-chi/chi/v5"
)

// ServeSocket streams a session's overlay and status events.
func (api *API) ServeSocket(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := api.Deps.Sessions.Get(id); err != nil {
		writeErrorResponse(w, err, values.NotFound, "session not found")
		return
	}
	api.Deps.WebSocket.HandleConnections(w, r, id)
}

func (api *API) socketSnapshot(sessionID string) []websockets.Event {
	s, err := api.Deps.Sessions.Get(sessionID)
	if err != nil {
		return nil
	}
	return []websockets.Event{
		{Type: session.EventRole, Data: map[string]interface{}{"role": s.Roles.Role()}},
		{Type: overlay.EventOverlays, Data: s.Map.Render()},
	}
}

func (api *API) socketMessage(sessionID string, msg websockets.Message) {
	s, err := api.Deps.Sessions.Get(sessionID)
	if err != nil {
		if !errors.Is(err, session.ErrNotFound) {
			log.Printf("websocket input for session %s: %v", sessionID, err)
		}
		return
	}

	switch msg.Type {
	case websockets.MsgTypeClick:
		p := model.GeoPoint{Lat: msg.Lat, Lng: msg.Lng}
		if p.Lat < -90 || p.Lat > 90 || p.Lng < -180 || p.Lng > 180 {
			log.Printf("websocket click out of range for session %s: %v", sessionID, p)
			return
		}
		s.Click(p)
	case websockets.MsgTypeKey:
		s.Key(overlay.KeyEvent{Key: msg.Key, Ctrl: msg.Ctrl, Meta: msg.Meta, Shift: msg.Shift})
	case websockets.MsgTypeViewport:
		s.Interact()
	default:
		log.Printf("unknown websocket message %q for session %s", msg.Type, sessionID)
	}
}
