// Package notify implements the live fan-out of accepted food items to a
// room's connected participants. The hub keeps an in-process mapping from
// room code to the set of subscriber channels; the SSE handler subscribes a
// channel per connection and relays events to the client.
//
// Delivery is strictly best-effort: there is no backlog or replay for late
// joiners (clients catch up with a list fetch before subscribing), a slow
// subscriber drops events rather than stalling the writer, and every current
// subscriber — including the one belonging to the item's own creator —
// receives the event, so clients de-duplicate by item ID.
package notify

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/NamanSingh02/Restaurant-Bill-Split/internal/domain"
)

// subscriberBuffer is the per-connection event buffer. A room's write rate is
// human-scale; a subscriber that falls this far behind is effectively dead.
const subscriberBuffer = 16

var subscribersGauge = prometheus.NewGauge(
	prometheus.GaugeOpts{
		Name: "billsplit_live_subscribers",
		Help: "Number of currently connected live-update subscribers.",
	},
)

func init() {
	prometheus.MustRegister(subscribersGauge)
}

// Hub fans accepted items out to the live connections of each room.
// The zero value is not usable; call NewHub.
type Hub struct {
	mu    sync.RWMutex
	rooms map[string]map[chan *domain.FoodItem]struct{}
}

// NewHub returns an empty hub.
func NewHub() *Hub {
	return &Hub{rooms: make(map[string]map[chan *domain.FoodItem]struct{})}
}

// Subscribe registers a new subscriber channel under roomCode and returns it
// together with a cancel function. The caller must invoke cancel when the
// connection ends; cancel is idempotent and closes the channel.
//
// The hub does not verify credentials or room existence. Callers authenticate
// the connection before subscribing.
func (h *Hub) Subscribe(roomCode string) (<-chan *domain.FoodItem, func()) {
	ch := make(chan *domain.FoodItem, subscriberBuffer)

	h.mu.Lock()
	set, ok := h.rooms[roomCode]
	if !ok {
		set = make(map[chan *domain.FoodItem]struct{})
		h.rooms[roomCode] = set
	}
	set[ch] = struct{}{}
	h.mu.Unlock()
	subscribersGauge.Inc()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			if set, ok := h.rooms[roomCode]; ok {
				delete(set, ch)
				if len(set) == 0 {
					delete(h.rooms, roomCode)
				}
			}
			h.mu.Unlock()
			subscribersGauge.Dec()
			close(ch)
		})
	}
	return ch, cancel
}

// Publish delivers the item to every current subscriber of the room,
// including the creator's own connection. Sends never block: a subscriber
// with a full buffer misses the event.
func (h *Hub) Publish(roomCode string, item *domain.FoodItem) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for ch := range h.rooms[roomCode] {
		select {
		case ch <- item:
		default:
			// Subscriber is not keeping up; drop rather than block the write path.
		}
	}
}

// Subscribers reports the number of live connections for a room.
func (h *Hub) Subscribers(roomCode string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[roomCode])
}
