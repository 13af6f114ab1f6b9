package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"marketeye/config"
	"marketeye/internal/alpaca"
	"marketeye/internal/metrics"
	"marketeye/internal/store"
	"marketeye/logger"
)

// Server hosts the REST surface, the Prometheus scrape endpoint and the two
// streaming websocket endpoints.
type Server struct {
	cfg        *config.Config
	store      *store.Store
	client     *alpaca.Client
	log        *logger.Log
	httpServer *http.Server
}

func NewServer(cfg *config.Config, st *store.Store, client *alpaca.Client) *Server {
	return &Server{
		cfg:    cfg,
		store:  st,
		client: client,
		log:    logger.GetLogger(),
	}
}

// Run starts the HTTP server and blocks until the provided context is
// cancelled or the underlying HTTP server exits with an error.
func (s *Server) Run(ctx context.Context) error {
	router := s.buildRouter()

	s.httpServer = &http.Server{
		Addr:         s.cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
	}

	s.log.WithComponent("server").WithField("address", s.cfg.Server.Address).Info("http server starting")

	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		<-errCh
		return nil
	case err := <-errCh:
		return err
	}
}

func (s *Server) buildRouter() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(corsMiddleware())

	api := router.Group("/api")
	{
		api.GET("/health", s.handleHealth)
		api.GET("/clock", s.handleClock)
		api.GET("/account", s.handleAccount)
		api.GET("/connectivity", s.handleConnectivity)
		api.GET("/market", s.handleMarket)
		api.GET("/positions", s.handlePositions)
		api.GET("/strategies", s.handleStrategies)
		api.GET("/logs", s.handleLogs)
		api.GET("/portfolio/history", s.handlePortfolioHistory)
		api.GET("/bars", s.handleBars)
		api.GET("/assets/:symbol", s.handleAsset)
		api.POST("/orders", s.handleCreateOrder)
	}

	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	router.GET("/ws/eye", s.handleEyeStream)
	router.GET("/ws/market", s.handleMarketStream)

	return router
}

// corsMiddleware allows the terminal frontend to be served from anywhere.
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "*")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
