package server

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/vireo-trade/tradecore/internal/instrument"
	"github.com/vireo-trade/tradecore/internal/telemetry"
)

// roomKey is `{symbol}_{time_frame}` (spec §5 "Room routing").
func roomKey(symbol string, tf instrument.TimeFrame) string {
	return fmt.Sprintf("%s_%s", symbol, tf)
}

// rooms maps a room key to the set of subscribed session ids. Guarded
// by one mutex held only during short lookup/insert/remove sections;
// fan-out snapshots the recipient set and releases the lock before
// sending (spec §5 "Shared-resource policy").
type rooms struct {
	mu      sync.Mutex
	byRoom  map[string]map[uuid.UUID]struct{}
}

func newRooms() *rooms {
	return &rooms{byRoom: make(map[string]map[uuid.UUID]struct{})}
}

func (r *rooms) subscribe(room string, id uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	set, ok := r.byRoom[room]
	if !ok {
		set = make(map[uuid.UUID]struct{})
		r.byRoom[room] = set
	}
	set[id] = struct{}{}
	telemetry.ServerRoomSubscribers.WithLabelValues(room).Set(float64(len(set)))
}

func (r *rooms) unsubscribe(room string, id uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	set, ok := r.byRoom[room]
	if !ok {
		return
	}
	delete(set, id)
	telemetry.ServerRoomSubscribers.WithLabelValues(room).Set(float64(len(set)))
	if len(set) == 0 {
		delete(r.byRoom, room)
	}
}

// snapshot returns a copy of the session ids currently in room, safe
// to range over after the lock is released (spec §5 fan-out policy).
func (r *rooms) snapshot(room string) []uuid.UUID {
	r.mu.Lock()
	defer r.mu.Unlock()
	set := r.byRoom[room]
	ids := make([]uuid.UUID, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	return ids
}
