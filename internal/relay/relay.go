// internal/relay/relay.go
package relay

import (
	"net/http"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const defaultSettleDelay = 2 * time.Second

// Server relays posted form data to a fixed set of recipients by email.
// It is a standalone subsystem, not part of the sweep core.
type Server struct {
	engine      *gin.Engine
	mailer      Mailer
	recipients  []string
	viewsDir    string
	logger      *zap.Logger
	settleDelay time.Duration
}

// NewServer creates the relay HTTP server.
func NewServer(mailer Mailer, recipients []string, viewsDir string, logger *zap.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)

	s := &Server{
		engine:      gin.New(),
		mailer:      mailer,
		recipients:  recipients,
		viewsDir:    viewsDir,
		logger:      logger.Named("relay"),
		settleDelay: defaultSettleDelay,
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.engine.Use(gin.Recovery())

	s.engine.StaticFile("/", filepath.Join(s.viewsDir, "index.html"))
	s.engine.StaticFile("/connect/manually", filepath.Join(s.viewsDir, "connect.html"))
	s.engine.StaticFile("/connect/pending/success", filepath.Join(s.viewsDir, "success.html"))

	s.engine.POST("/submit", s.handleSubmit)
}

// handleSubmit forwards the posted category/data pair to every recipient in
// turn. A failed send is logged and does not roll back or stop earlier or
// later sends.
func (s *Server) handleSubmit(c *gin.Context) {
	category := c.PostForm("category")
	data := c.PostForm("data")

	if err := s.mailer.Verify(c.Request.Context()); err != nil {
		s.logger.Error("mail transport not ready", zap.Error(err))
		c.String(http.StatusServiceUnavailable, "mail transport unavailable")
		return
	}
	s.logger.Info("mail transport ready")

	for _, recipient := range s.recipients {
		if err := s.mailer.Send(c.Request.Context(), recipient, category, data); err != nil {
			s.logger.Error("failed to relay to recipient",
				zap.String("recipient", recipient),
				zap.Error(err))
			continue
		}
	}

	time.Sleep(s.settleDelay)
	c.Redirect(http.StatusSeeOther, "/connect/pending/success")
}

// Run starts the HTTP server on the given address.
func (s *Server) Run(addr string) error {
	s.logger.Info("relay server starting", zap.String("addr", addr))
	return s.engine.Run(addr)
}

// Handler exposes the underlying handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}
