package relay

import (
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/popgate/popgate/internal/api/middleware"
	"github.com/popgate/popgate/internal/infrastructure/config"
	"github.com/popgate/popgate/internal/infrastructure/logging"
	"github.com/popgate/popgate/internal/infrastructure/monitoring"
	"github.com/popgate/popgate/internal/shared/id"
	"github.com/popgate/popgate/internal/shared/wire"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Clients connect from arbitrary pages
	},
}

// Server hosts the relay's websocket and HTTP surface.
type Server struct {
	router  *gin.Engine
	hub     *Hub
	logger  *logging.Logger
	metrics *monitoring.Metrics
	config  *config.Config
}

// NewServer creates a relay server instance.
func NewServer(cfg *config.Config) (*Server, error) {
	var logger *logging.Logger
	if cfg.Logging.Development {
		logger = logging.NewDevelopment()
	} else {
		logger = logging.NewDefault()
	}

	logger.Info("Initializing relay server",
		zap.String("host", cfg.Relay.Host),
		zap.String("port", cfg.Relay.Port),
	)

	metrics := monitoring.New()
	hub := NewHub(logger, metrics)

	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(monitoring.Middleware(metrics))
	router.Use(middleware.CORS(middleware.DefaultCORSConfig()))
	if cfg.RateLimit.Enabled {
		logger.Info("Rate limiting enabled",
			zap.Int("rps", cfg.RateLimit.RequestsPerSecond),
			zap.Int("burst", cfg.RateLimit.Burst),
		)
		router.Use(middleware.RateLimit(middleware.RateLimitConfig{
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			Burst:             cfg.RateLimit.Burst,
		}))
	}

	s := &Server{
		router:  router,
		hub:     hub,
		logger:  logger,
		metrics: metrics,
		config:  cfg,
	}

	router.GET("/health", s.health)
	router.GET("/ws", s.handleWS)
	router.POST("/open", s.handleOpen)
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(metrics.Registry(), promhttp.HandlerOpts{})))

	logger.Info("Relay server initialized")
	return s, nil
}

// Router exposes the gin engine for tests.
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Hub exposes the client hub for tests.
func (s *Server) Hub() *Hub {
	return s.hub
}

// Run starts the HTTP server.
func (s *Server) Run() error {
	addr := s.config.Relay.Host + ":" + s.config.Relay.Port
	s.logger.Info("Starting relay server", zap.String("addr", addr))
	return s.router.Run(addr)
}

// Close flushes the logger.
func (s *Server) Close() error {
	s.logger.Info("Shutting down relay server")
	s.logger.Sync()
	return nil
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"clients": s.hub.Len(),
	})
}

// handleWS upgrades the connection and pumps frames until the client goes
// away. Every received frame is broadcast to all clients, sender included.
func (s *Server) handleWS(c *gin.Context) {
	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	client := s.hub.Add(ws)
	client.ServeReads()
}

// openRequest is the operator-facing body of POST /open.
type openRequest struct {
	URL string `json:"url" binding:"required"`
	By  string `json:"by"`
}

// handleOpen validates an operator request and broadcasts a well-formed
// open-command to every client.
func (s *Server) handleOpen(c *gin.Context) {
	var req openRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	parsed, err := url.Parse(req.URL)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "url must be absolute http(s)"})
		return
	}

	payload, err := json.Marshal(wire.OpenCommand{
		Type: wire.TypeOpen,
		URL:  req.URL,
		By:   req.By,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to encode command"})
		return
	}

	msgID := id.NewMessageID()
	s.logger.Info("broadcasting open command",
		zap.String("url", req.URL),
		zap.String("by", req.By),
		zap.String("message", msgID.String()),
	)
	s.hub.Broadcast(payload)

	c.JSON(http.StatusOK, gin.H{
		"message_id": msgID.String(),
		"clients":    s.hub.Len(),
	})
}
