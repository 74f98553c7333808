// Package sync is the websocket boundary of the room synchronization core:
// it upgrades connections, decodes and validates inbound events and hands
// them to the orchestrator.
package sync

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/avolkov/Tandem/internal/app/orch"
	"github.com/avolkov/Tandem/internal/config"
	"github.com/avolkov/Tandem/internal/core"
)

var ErrBackpressure = errors.New("backpressure")

type SyncWSController struct {
	Orch     *orch.Orchestrator
	Cfg      *config.Config
	Limiter  *JoinRateLimiter
	validate *validator.Validate
}

func NewSyncWSController(o *orch.Orchestrator, cfg *config.Config) *SyncWSController {
	return &SyncWSController{
		Orch:     o,
		Cfg:      cfg,
		Limiter:  NewJoinRateLimiter(cfg.JoinLimit, cfg.JoinInterval),
		validate: validator.New(),
	}
}

type wsSyncConn struct {
	conn *websocket.Conn
	send chan core.Frame

	mu     sync.RWMutex
	closed bool
}

func (c *wsSyncConn) TrySend(f core.Frame) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return errors.New("connection closed")
	}
	select {
	case c.send <- f:
	default:
		return ErrBackpressure
	}
	return nil
}

func (c *wsSyncConn) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	_ = c.conn.Close()
	c.mu.Unlock()
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// HandleSync upgrades the request and runs the read/write pumps. Every
// websocket gets a fresh connection identity; losing the socket is the
// implicit connection-lost event.
func (ctl *SyncWSController) HandleSync(ctx context.Context, c *gin.Context) {
	sid := core.ConnID(uuid.NewString())
	log.Info().Str("module", "sync").Str("sid", string(sid)).Msg("new WS connection")

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "sync").Msg("ws upgrade")
		return
	}
	ws.SetReadLimit(ctl.Cfg.ReadLimit)

	// The read deadline outlives one ping period; pongs push it forward, so
	// a peer that stops answering pings gets its reads failed and the
	// connection torn down.
	pongWait := ctl.Cfg.PingPeriod * 10 / 9
	_ = ws.SetReadDeadline(time.Now().Add(pongWait))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	conn := &wsSyncConn{
		conn: ws,
		send: make(chan core.Frame, 32),
	}

	ctx, cancel := context.WithCancel(ctx)
	go ctl.writePump(ctx, conn)
	go func() {
		defer cancel()
		ctl.readPump(ctx, sid, conn)
	}()
}
