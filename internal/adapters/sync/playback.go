package sync

import (
	"github.com/rs/zerolog/log"

	"github.com/avolkov/Tandem/internal/core"
	"github.com/avolkov/Tandem/internal/domain"
)

func (ctl *SyncWSController) handlePlayback(sid core.ConnID, kind string, data []byte) {
	var p domain.PlaybackPayload
	if err := ctl.decode(data, &p); err != nil {
		log.Error().Err(err).Str("module", "sync").Str("kind", kind).Msg("bad playback payload")
		return
	}
	ctl.Orch.ApplyPlayback(sid, kind, domain.NormalizeRoomID(p.RoomID), domain.PlaybackState{
		URL:     p.URL,
		Time:    p.Time,
		Playing: p.Playing,
	})
}
