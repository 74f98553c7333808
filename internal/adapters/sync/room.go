package sync

import (
	"github.com/rs/zerolog/log"

	"github.com/avolkov/Tandem/internal/core"
	"github.com/avolkov/Tandem/internal/domain"
)

func (ctl *SyncWSController) handleJoin(sid core.ConnID, c *wsSyncConn, data []byte) {
	var p domain.JoinRoomPayload
	if err := ctl.decode(data, &p); err != nil {
		log.Error().Err(err).Str("module", "sync").Msg("bad join payload")
		return
	}
	if !ctl.Limiter.Allow(sid) {
		log.Warn().Str("module", "sync").Str("sid", string(sid)).Msg("join rate limited")
		return
	}
	ctl.Orch.Join(sid, c, domain.NormalizeRoomID(p.RoomID), p.Name, p.Role)
}

func (ctl *SyncWSController) handleLeave(sid core.ConnID, data []byte) {
	var p domain.LeaveRoomPayload
	if err := ctl.decode(data, &p); err != nil {
		log.Error().Err(err).Str("module", "sync").Msg("bad leave payload")
		return
	}
	ctl.Orch.Leave(sid, domain.NormalizeRoomID(p.RoomID))
}
