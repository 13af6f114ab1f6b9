package server

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"marketeye/internal/session"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin:     func(*http.Request) bool { return true },
}

func (s *Server) handleEyeStream(c *gin.Context) {
	s.serveStream(c, session.ModeEye)
}

func (s *Server) handleMarketStream(c *gin.Context) {
	s.serveStream(c, session.ModeTicker)
}

// serveStream upgrades the subscriber connection and runs one streaming
// session over it. A read loop on the subscriber side turns a disconnect
// into context cancellation, which tears the session down.
func (s *Server) serveStream(c *gin.Context, mode session.Mode) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.log.WithComponent("server").WithError(err).Warn("websocket upgrade failed")
		return
	}

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	go func() {
		for {
			if _, _, err := conn.NextReader(); err != nil {
				cancel()
				return
			}
		}
	}()

	sess := session.New(s.cfg, conn, s.store.Symbols(), s.store.LastPrices(), mode)
	if err := sess.Run(ctx); err != nil {
		s.log.WithComponent("server").WithError(err).WithField("session_id", sess.ID).Debug("stream session ended")
	}
}
