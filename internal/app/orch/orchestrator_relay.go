package orch

import (
	"github.com/rs/zerolog/log"

	"github.com/avolkov/Tandem/internal/core"
	"github.com/avolkov/Tandem/internal/domain"
)

// Relay forwards a session-negotiation payload verbatim to the named target
// connection within the room, tagged with the sender's identity so the
// recipient knows who to answer. Signaling is best-effort: a vanished room
// or target is dropped silently and the losing party observes the peer
// connection failing to establish.
func (o *Orchestrator) Relay(sid core.ConnID, roomID domain.RoomID, p domain.SignalPayload) {
	room, ok := o.Rooms.Get(roomID)
	if !ok {
		log.Debug().Str("module", "orch").Str("room", string(roomID)).Msg("relay for unknown room dropped")
		return
	}
	f, ok := encode(domain.SignalForward{
		Type:      p.Type,
		From:      string(sid),
		SDP:       p.SDP,
		Candidate: p.Candidate,
	})
	if !ok {
		return
	}
	if !room.SendTo(core.ConnID(p.TargetID), f) {
		log.Debug().Str("module", "orch").Str("target", p.TargetID).Msg("relay target absent, dropped")
	}
}
