package app

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/avolkov/Tandem/internal/core"
	"github.com/avolkov/Tandem/internal/domain"
)

// Departure is the result of removing one connection from one room.
type Departure struct {
	Roster []domain.MemberInfo
	Member domain.Member
}

// RoomRegistry is the process-wide room table. Created at startup, injected
// into the orchestrator; tests get their own isolated instance. Membership
// mutations go through the registry so a room is dropped the moment it
// becomes empty.
type RoomRegistry struct {
	mu    sync.RWMutex
	rooms map[domain.RoomID]core.RoomService
}

func NewRoomRegistry() *RoomRegistry {
	return &RoomRegistry{rooms: make(map[domain.RoomID]core.RoomService)}
}

// GetOrCreate returns the room, lazily creating an empty one. Idempotent.
func (r *RoomRegistry) GetOrCreate(id domain.RoomID) core.RoomService {
	r.mu.RLock()
	room, ok := r.rooms[id]
	r.mu.RUnlock()
	if ok {
		return room
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if room, ok = r.rooms[id]; ok {
		return room
	}
	room = core.NewRoomService(id)
	r.rooms[id] = room
	log.Info().Str("module", "app.registry").Str("room", string(id)).Msg("room created")
	return room
}

// Get is the non-creating lookup used by broadcast and relay paths.
func (r *RoomRegistry) Get(id domain.RoomID) (core.RoomService, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	room, ok := r.rooms[id]
	return room, ok
}

// Join adds the connection to the room, creating the room if needed, and
// returns the room alongside the updated roster. The registry lock is held
// across the lookup and the join so a concurrent last-leave cannot drop the
// room between the two steps and strand the joiner in an orphaned room.
func (r *RoomRegistry) Join(id domain.RoomID, sid core.ConnID, m domain.Member, conn core.SignalConnection) (core.RoomService, []domain.MemberInfo) {
	r.mu.Lock()
	defer r.mu.Unlock()
	room, ok := r.rooms[id]
	if !ok {
		room = core.NewRoomService(id)
		r.rooms[id] = room
		log.Info().Str("module", "app.registry").Str("room", string(id)).Msg("room created")
	}
	return room, room.Join(sid, m, conn)
}

// Leave removes the connection from the room if present. The bool reports
// whether the roster actually changed; an absent room or member is a no-op.
// A room left empty is dropped from the registry.
func (r *RoomRegistry) Leave(id domain.RoomID, sid core.ConnID) (Departure, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	room, ok := r.rooms[id]
	if !ok {
		return Departure{}, false
	}
	roster, meta, changed := room.Leave(sid)
	if !changed {
		return Departure{}, false
	}
	if room.MemberCount() == 0 {
		delete(r.rooms, id)
		log.Info().Str("module", "app.registry").Str("room", string(room.ID())).Msg("room emptied, dropped")
	}
	return Departure{Roster: roster, Member: meta}, true
}

// LeaveAll handles connection loss: it removes the connection from every
// room it belongs to (a connection is expected to be in at most one, but
// this stays safe if it is not) and reports each changed room.
func (r *RoomRegistry) LeaveAll(sid core.ConnID) map[domain.RoomID]Departure {
	r.mu.Lock()
	defer r.mu.Unlock()
	affected := make(map[domain.RoomID]Departure)
	for id, room := range r.rooms {
		roster, meta, changed := room.Leave(sid)
		if !changed {
			continue
		}
		affected[id] = Departure{Roster: roster, Member: meta}
		if room.MemberCount() == 0 {
			delete(r.rooms, id)
			log.Info().Str("module", "app.registry").Str("room", string(room.ID())).Msg("room emptied, dropped")
		}
	}
	return affected
}

// RoomInfo is a read-only view for the rooms listing.
type RoomInfo struct {
	ID          domain.RoomID `json:"id"`
	MemberCount int           `json:"member_count"`
}

func (r *RoomRegistry) List() []RoomInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]RoomInfo, 0, len(r.rooms))
	for id, room := range r.rooms {
		out = append(out, RoomInfo{ID: id, MemberCount: room.MemberCount()})
	}
	return out
}
