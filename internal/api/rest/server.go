package rest

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/KevinKickass/OpenDimmer/internal/api/websocket"
	"github.com/KevinKickass/OpenDimmer/internal/config"
	"github.com/KevinKickass/OpenDimmer/internal/interfaces"
	"github.com/KevinKickass/OpenDimmer/internal/ui"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Server struct {
	router    *gin.Engine
	lm        interfaces.LifecycleManager
	logger    *zap.Logger
	server    *http.Server
	wsHub     *websocket.Hub
	renderer  *ui.Renderer
	validator *ConfigValidator
}

func NewServer(cfg *config.Config, lm interfaces.LifecycleManager, logger *zap.Logger, wsHub *websocket.Hub) (*Server, error) {
	gin.SetMode(gin.ReleaseMode)

	renderer, err := ui.NewRenderer()
	if err != nil {
		return nil, err
	}

	validator, err := NewConfigValidator()
	if err != nil {
		return nil, err
	}

	s := &Server{
		router:    gin.New(),
		lm:        lm,
		logger:    logger,
		wsHub:     wsHub,
		renderer:  renderer,
		validator: validator,
	}

	s.setupRoutes()

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.HTTPPort),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s, nil
}

// Start binds the listener synchronously so a busy port is reported to the
// caller, then serves in the background.
func (s *Server) Start() error {
	lis, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.server.Addr, err)
	}

	s.logger.Info("Starting REST API server", zap.String("address", lis.Addr().String()))
	go func() {
		if err := s.server.Serve(lis); err != nil && err != http.ErrServerClosed {
			s.logger.Error("REST server failed", zap.Error(err))
		}
	}()
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down REST API server")
	return s.server.Shutdown(ctx)
}

// Handler exposes the router, mainly for httptest.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) setupRoutes() {
	// Middleware
	s.router.Use(gin.Recovery())
	s.router.Use(LoggerMiddleware(s.logger))
	s.router.Use(CORSMiddleware())

	s.router.GET("/health", s.healthCheck)

	// ==================== CONTROL PAGE & FORM ENDPOINTS ====================
	s.router.GET("/", s.index)
	s.router.GET("/save", s.saveForm)
	s.router.POST("/save", s.saveForm)
	s.router.GET("/set", s.setLegacyBrightness)

	// API v1
	v1 := s.router.Group("/api/v1")
	{
		// ==================== DIMMER ====================
		dimmer := v1.Group("/dimmer")
		{
			dimmer.GET("/status", s.getDimmerStatus)
			dimmer.POST("/brightness", s.setBrightness)
			dimmer.GET("/config", s.getConfig)
			dimmer.PATCH("/config", s.patchConfig)
			dimmer.PUT("/sensor", s.setSimulatedSensor)
		}

		// ==================== SYSTEM ====================
		system := v1.Group("/system")
		{
			system.GET("/status", s.getSystemStatus)
		}

		// ==================== WEBSOCKET ====================
		ws := v1.Group("/ws")
		{
			ws.GET("/live", s.wsLiveConnection)
			ws.GET("/status", s.wsStatus)
		}
	}
}

// WebSocket handlers
func (s *Server) wsLiveConnection(c *gin.Context) {
	websocket.ServeWs(s.wsHub, c.Writer, c.Request)
}

func (s *Server) wsStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"connected_clients": s.wsHub.GetClientCount(),
	})
}

// Health check
func (s *Server) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"timestamp": time.Now().Unix(),
	})
}
