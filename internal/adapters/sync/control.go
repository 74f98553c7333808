package sync

import "github.com/avolkov/Tandem/internal/domain"

func (ctl *SyncWSController) handlePing(c *wsSyncConn) {
	resp := struct {
		Type string `json:"type"`
	}{
		Type: domain.KindPong,
	}
	ctl.sendJSON(c, resp)
}
