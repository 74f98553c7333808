package sync

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/avolkov/Tandem/internal/core"
	"github.com/avolkov/Tandem/internal/domain"
)

func (ctl *SyncWSController) writePump(ctx context.Context, c *wsSyncConn) {
	ticker := time.NewTicker(ctl.Cfg.PingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Info().Str("module", "sync").Msg("writePump ctx done")
			return
		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(5 * time.Second)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Error().Err(err).Str("module", "sync").Msg("writePump ping error")
				return
			}
		case data, ok := <-c.send:
			if !ok {
				log.Warn().Str("module", "sync").Msg("writePump channel closed")
				return
			}
			if err := c.conn.SetWriteDeadline(time.Now().Add(5 * time.Second)); err != nil {
				log.Error().Err(err).Str("module", "sync").Msg("writePump set deadline")
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Error().Err(err).Str("module", "sync").Msg("writePump write error")
				return
			}
		}
	}
}

func (ctl *SyncWSController) readPump(ctx context.Context, sid core.ConnID, c *wsSyncConn) {
	defer func() {
		log.Info().Str("module", "sync").Str("sid", string(sid)).Msg("readPump closing")
		ctl.Orch.Disconnect(sid)
		ctl.Limiter.Forget(sid)
		c.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			log.Info().Str("module", "sync").Str("sid", string(sid)).Msg("readPump ctx done")
			return
		default:
			_, data, err := c.conn.ReadMessage()
			if err != nil {
				log.Info().Err(err).Str("module", "sync").Str("sid", string(sid)).Msg("readPump read error")
				return
			}
			ctl.handleMessage(sid, c, data)
		}
	}
}

func (ctl *SyncWSController) handleMessage(sid core.ConnID, c *wsSyncConn, data []byte) {
	var env struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		log.Error().Err(err).Str("module", "sync").Msg("bad json")
		return
	}

	switch env.Type {
	case domain.KindJoinRoom:
		ctl.handleJoin(sid, c, data)
	case domain.KindLeaveRoom:
		ctl.handleLeave(sid, data)
	case domain.KindLoadVideo, domain.KindPlayMusic, domain.KindPauseMusic, domain.KindSeekMusic:
		ctl.handlePlayback(sid, env.Type, data)
	case domain.KindSignalOffer, domain.KindSignalAnswer, domain.KindSignalCandidate:
		ctl.handleSignal(sid, env.Type, data)
	case domain.KindPing:
		ctl.handlePing(c)
	default:
		log.Warn().Str("module", "sync").Str("type", env.Type).Msg("unknown message kind")
	}
}

// decode unmarshals and validates an inbound payload. Malformed payloads are
// dropped before any state is touched; there is no error reply because the
// protocol has no acknowledgment channel.
func (ctl *SyncWSController) decode(data []byte, dst any) error {
	if err := json.Unmarshal(data, dst); err != nil {
		return err
	}
	return ctl.validate.Struct(dst)
}

func (ctl *SyncWSController) sendJSON(c *wsSyncConn, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "sync").Msg("sendJSON marshal")
		return
	}
	_ = c.TrySend(b)
}
