package sync

import (
	"github.com/rs/zerolog/log"

	"github.com/avolkov/Tandem/internal/core"
	"github.com/avolkov/Tandem/internal/domain"
)

func (ctl *SyncWSController) handleSignal(sid core.ConnID, kind string, data []byte) {
	var p domain.SignalPayload
	if err := ctl.decode(data, &p); err != nil {
		log.Error().Err(err).Str("module", "sync").Str("kind", kind).Msg("bad signal payload")
		return
	}
	p.Type = kind
	ctl.Orch.Relay(sid, domain.NormalizeRoomID(p.RoomID), p)
}
