// Package orch routes inbound room events: it is the only writer of room
// state and decides the fan-out of every broadcast.
package orch

import (
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/avolkov/Tandem/internal/app"
	"github.com/avolkov/Tandem/internal/core"
	"github.com/avolkov/Tandem/internal/domain"
)

type Orchestrator struct {
	Rooms  *app.RoomRegistry
	Policy app.Policy
}

func encode(v any) (core.Frame, bool) {
	b, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "orch").Msg("encode outbound")
		return nil, false
	}
	return b, true
}

// Join adds the connection to the room and fans out the new roster to the
// entire room, the sender included, so the joiner's UI reflects the
// authoritative list. The joiner alone also gets the current playback
// snapshot when one exists, and everyone else gets a peer-joined delta so a
// host can start signaling toward the newcomer.
func (o *Orchestrator) Join(sid core.ConnID, conn core.SignalConnection, roomID domain.RoomID, name string, role domain.Role) {
	room, roster := o.Rooms.Join(roomID, sid, domain.Member{Name: name, Role: role}, conn)
	log.Info().Str("module", "orch").Str("sid", string(sid)).Str("room", string(roomID)).Msg("join")

	if f, ok := encode(domain.UsersUpdate{Type: domain.KindUsersUpdate, Users: roster}); ok {
		o.afterBroadcast(room, room.Broadcast(f))
	}
	if pb, ok := room.Playback(); ok {
		if f, ok := encode(domain.SyncMusic{Type: domain.KindSyncMusic, PlaybackState: pb}); ok {
			room.SendTo(sid, f)
		}
	}
	if f, ok := encode(domain.PeerEvent{Type: domain.KindPeerJoined, ID: string(sid), Role: role}); ok {
		o.afterBroadcast(room, room.BroadcastExcept(sid, f))
	}
}

// Leave removes the connection from the room and tells the remaining
// members. Leaving a room or roster the connection is not in is a no-op.
func (o *Orchestrator) Leave(sid core.ConnID, roomID domain.RoomID) {
	dep, changed := o.Rooms.Leave(roomID, sid)
	if !changed {
		return
	}
	log.Info().Str("module", "orch").Str("sid", string(sid)).Str("room", string(roomID)).Msg("leave")
	o.notifyDeparture(roomID, sid, dep)
}

// Disconnect handles connection loss: the connection is removed from every
// room it was in, with one roster broadcast per affected room.
func (o *Orchestrator) Disconnect(sid core.ConnID) {
	for roomID, dep := range o.Rooms.LeaveAll(sid) {
		o.notifyDeparture(roomID, sid, dep)
	}
}

func (o *Orchestrator) notifyDeparture(roomID domain.RoomID, sid core.ConnID, dep app.Departure) {
	room, ok := o.Rooms.Get(roomID)
	if !ok {
		// Room vanished because it emptied; nobody left to tell.
		return
	}
	if f, ok := encode(domain.UsersUpdate{Type: domain.KindUsersUpdate, Users: dep.Roster}); ok {
		room.Broadcast(f)
	}
	if f, ok := encode(domain.PeerEvent{Type: domain.KindPeerLeft, ID: string(sid), Role: dep.Member.Role}); ok {
		room.Broadcast(f)
	}
}

// afterBroadcast applies the backpressure policy to members that dropped a
// frame. Kicks go through Disconnect, whose own broadcasts skip the policy
// so a kick can never cascade.
func (o *Orchestrator) afterBroadcast(room core.RoomService, res core.PublishResult) {
	if o.Policy == nil {
		return
	}
	for _, slow := range res.Dropped {
		switch o.Policy.OnBackpressure(room, slow) {
		case app.KickMember:
			log.Warn().Str("module", "orch").Str("room", string(room.ID())).Str("sid", string(slow)).Msg("kicking slow member")
			o.Disconnect(slow)
		case app.MarkSlow, app.DropFrame, app.NoAction:
		}
	}
}
