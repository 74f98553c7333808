package core

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/avolkov/Tandem/internal/domain"
)

type memberEntry struct {
	sid  ConnID
	meta domain.Member
	conn SignalConnection
}

// roomImpl is a threadsafe in-memory room. Members keep insertion order;
// playback is absent until the first load event and then replaced wholesale
// on every apply (last writer wins).
type roomImpl struct {
	id domain.RoomID

	mu       sync.RWMutex
	members  []*memberEntry
	playback *domain.PlaybackState
}

func NewRoomService(id domain.RoomID) RoomService {
	return &roomImpl{id: id}
}

func (r *roomImpl) ID() domain.RoomID { return r.id }

func (r *roomImpl) MemberCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.members)
}

func (r *roomImpl) Join(sid ConnID, m domain.Member, conn SignalConnection) []domain.MemberInfo {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.members {
		if e.sid == sid {
			// Re-join by the same connection replaces name/role in place.
			e.meta = m
			e.conn = conn
			return r.snapshotLocked()
		}
	}
	r.members = append(r.members, &memberEntry{sid: sid, meta: m, conn: conn})
	log.Info().Str("module", "core.room").Str("room", string(r.id)).Str("sid", string(sid)).Msg("member added")
	return r.snapshotLocked()
}

func (r *roomImpl) Leave(sid ConnID) ([]domain.MemberInfo, domain.Member, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, e := range r.members {
		if e.sid == sid {
			r.members = append(r.members[:i], r.members[i+1:]...)
			log.Info().Str("module", "core.room").Str("room", string(r.id)).Str("sid", string(sid)).Msg("member removed")
			return r.snapshotLocked(), e.meta, true
		}
	}
	return r.snapshotLocked(), domain.Member{}, false
}

func (r *roomImpl) Member(sid ConnID) (domain.Member, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, e := range r.members {
		if e.sid == sid {
			return e.meta, true
		}
	}
	return domain.Member{}, false
}

func (r *roomImpl) MembersSnapshot() []domain.MemberInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.snapshotLocked()
}

func (r *roomImpl) snapshotLocked() []domain.MemberInfo {
	out := make([]domain.MemberInfo, 0, len(r.members))
	for _, e := range r.members {
		out = append(out, domain.MemberInfo{ID: string(e.sid), Name: e.meta.Name})
	}
	return out
}

func (r *roomImpl) Playback() (domain.PlaybackState, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.playback == nil {
		return domain.PlaybackState{}, false
	}
	return *r.playback, true
}

func (r *roomImpl) ApplyPlayback(s domain.PlaybackState) domain.PlaybackState {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.playback = &s
	return s
}

func (r *roomImpl) Broadcast(f Frame) PublishResult {
	return r.broadcast("", f)
}

func (r *roomImpl) BroadcastExcept(sid ConnID, f Frame) PublishResult {
	return r.broadcast(sid, f)
}

func (r *roomImpl) broadcast(except ConnID, f Frame) PublishResult {
	r.mu.RLock()
	defer r.mu.RUnlock()
	res := PublishResult{}
	for _, e := range r.members {
		if e.sid == except {
			continue
		}
		if err := e.conn.TrySend(f); err != nil {
			res.Dropped = append(res.Dropped, e.sid)
			continue
		}
		res.SentTo++
	}
	log.Debug().Str("module", "core.room").Str("room", string(r.id)).Int("sent_to", res.SentTo).Int("dropped", len(res.Dropped)).Msg("broadcast result")
	return res
}

func (r *roomImpl) SendTo(sid ConnID, f Frame) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, e := range r.members {
		if e.sid == sid {
			return e.conn.TrySend(f) == nil
		}
	}
	return false
}
