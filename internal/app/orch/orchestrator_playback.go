package orch

import (
	"github.com/rs/zerolog/log"

	"github.com/avolkov/Tandem/internal/core"
	"github.com/avolkov/Tandem/internal/domain"
)

// ApplyPlayback replaces the room's playback state with the submitted one
// (last writer wins, no field merging) and fans out the result.
//
// load-video may create the room and echoes the authoritative state back to
// the sender too; play/pause/seek exclude the sender, which already applied
// the change locally, and are dropped against an unknown room.
func (o *Orchestrator) ApplyPlayback(sid core.ConnID, kind string, roomID domain.RoomID, state domain.PlaybackState) {
	var room core.RoomService
	switch kind {
	case domain.KindLoadVideo:
		room = o.Rooms.GetOrCreate(roomID)
	case domain.KindPlayMusic:
		state.Playing = true
	case domain.KindPauseMusic:
		state.Playing = false
	case domain.KindSeekMusic:
		// Seek keeps whatever playing flag the caller sent.
	default:
		log.Warn().Str("module", "orch").Str("kind", kind).Msg("unknown playback kind")
		return
	}
	if room == nil {
		var ok bool
		if room, ok = o.Rooms.Get(roomID); !ok {
			log.Debug().Str("module", "orch").Str("room", string(roomID)).Str("kind", kind).Msg("playback event for unknown room dropped")
			return
		}
	}

	applied := room.ApplyPlayback(state)
	f, ok := encode(domain.SyncMusic{Type: domain.KindSyncMusic, PlaybackState: applied})
	if !ok {
		return
	}
	if kind == domain.KindLoadVideo {
		o.afterBroadcast(room, room.Broadcast(f))
		return
	}
	o.afterBroadcast(room, room.BroadcastExcept(sid, f))
}
