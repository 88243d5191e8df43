package service

import (
	"sync"

	"github.com/yourusername/parlay-slip/internal/models"
)

// subscriberBuffer is how many updates a slow subscriber may lag before
// updates to it are dropped
const subscriberBuffer = 16

// Update is a slip snapshot published after a change. Slip is nil when the
// slip became empty.
type Update struct {
	SessionID string                 `json:"sessionId"`
	Event     string                 `json:"event"`
	Slip      *models.SerializedSlip `json:"slip"`
}

type hub struct {
	mu     sync.Mutex
	nextID int
	subs   map[string]map[int]chan Update
}

func newHub() *hub {
	return &hub{subs: make(map[string]map[int]chan Update)}
}

func (h *hub) subscribe(sessionID string) (<-chan Update, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	id := h.nextID
	h.nextID++
	ch := make(chan Update, subscriberBuffer)
	if h.subs[sessionID] == nil {
		h.subs[sessionID] = make(map[int]chan Update)
	}
	h.subs[sessionID][id] = ch

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			if c, ok := h.subs[sessionID][id]; ok {
				delete(h.subs[sessionID], id)
				if len(h.subs[sessionID]) == 0 {
					delete(h.subs, sessionID)
				}
				close(c)
			}
		})
	}
	return ch, cancel
}

func (h *hub) broadcast(u Update) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, ch := range h.subs[u.SessionID] {
		select {
		case ch <- u:
		default:
		}
	}
}

func (h *hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for sessionID, subs := range h.subs {
		for _, ch := range subs {
			close(ch)
		}
		delete(h.subs, sessionID)
	}
}

func (h *hub) count(sessionID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs[sessionID])
}
