package api

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/yourusername/parlay-slip/internal/service"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 30 * time.Second
)

// StreamMessage is one websocket frame. The first frame of a stream is a
// "snapshot"; each later change is an "update".
type StreamMessage struct {
	Type  string   `json:"type"`
	Event string   `json:"event,omitempty"`
	Slip  SlipView `json:"slip"`
}

// StreamSlip upgrades to a websocket and streams the session's slip
func (h *Handler) StreamSlip(w http.ResponseWriter, r *http.Request) {
	session := sessionParam(r)

	// Subscribe before reading the snapshot so no change falls in between.
	updates, cancel := h.slips.Subscribe(session)
	st, err := h.slips.Snapshot(r.Context(), session)
	if err != nil {
		cancel()
		h.fail(w, err)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		cancel()
		h.log.WithError(err).WithField("session_id", session).Warn("websocket upgrade failed")
		return
	}

	first := StreamMessage{Type: "snapshot", Slip: newSlipView(session, st)}
	go h.pump(conn, session, first, updates, cancel)
}

func (h *Handler) pump(conn *websocket.Conn, session string, first StreamMessage, updates <-chan service.Update, cancel func()) {
	defer cancel()
	defer conn.Close()

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		conn.SetReadLimit(512)
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(pongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	if err := writeJSON(conn, first); err != nil {
		return
	}

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case u, ok := <-updates:
			if !ok {
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"),
					time.Now().Add(writeWait))
				return
			}
			msg := StreamMessage{Type: "update", Event: u.Event, Slip: newSerializedView(session, u.Slip)}
			if err := writeJSON(conn, msg); err != nil {
				h.log.WithError(err).WithField("session_id", session).Debug("websocket write failed")
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-closed:
			return
		}
	}
}

func writeJSON(conn *websocket.Conn, v interface{}) error {
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(v)
}
