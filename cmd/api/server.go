package main

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/PaulBabatuyi/portfolio-api/internal/auth"
	"github.com/PaulBabatuyi/portfolio-api/internal/chat"
	"github.com/PaulBabatuyi/portfolio-api/internal/config"
	"github.com/PaulBabatuyi/portfolio-api/internal/data"
	"github.com/PaulBabatuyi/portfolio-api/internal/metrics"
	"github.com/PaulBabatuyi/portfolio-api/internal/middleware"
	"github.com/PaulBabatuyi/portfolio-api/internal/notify"
	"github.com/PaulBabatuyi/portfolio-api/internal/portfolio"
	"github.com/PaulBabatuyi/portfolio-api/internal/posts"
)

// ownerSessions is the subset of auth.Sessions used by the HTTP layer.
type ownerSessions interface {
	Issue(ctx context.Context) (*auth.IssuedSession, error)
	Resolve(ctx context.Context, token string) (*data.OwnerSession, error)
	Revoke(ctx context.Context, tokenHash string) error
}

type contactStore interface {
	Insert(ctx context.Context, c *data.Contact) error
	Latest(ctx context.Context, limit int64) ([]*data.Contact, error)
}

type analyticsStore interface {
	Insert(ctx context.Context, ev *data.AnalyticsEvent) error
}

// serverDeps groups what newServer wires into the routes.
type serverDeps struct {
	Passkey   *auth.PasskeyVerifier
	Sessions  ownerSessions
	Posts     *posts.Service
	Chat      *chat.Relay
	Contacts  contactStore
	Analytics analyticsStore
	Notifier  notify.Notifier
	Portfolio *portfolio.Source
	Metrics   *metrics.Metrics
}

// Server holds the HTTP handlers and everything they reach.
type Server struct {
	cfg *config.Config
	log *zap.Logger

	passkey   *auth.PasskeyVerifier
	sessions  ownerSessions
	posts     *posts.Service
	chat      *chat.Relay
	contacts  contactStore
	analytics analyticsStore
	notifier  notify.Notifier
	portfolio *portfolio.Source
	metrics   *metrics.Metrics

	globalLimiter *middleware.LimiterStore
	loginLimiter  *middleware.LimiterStore
	chatLimiter   *middleware.LimiterStore

	// background contact notifications
	notifications sync.WaitGroup
	started       time.Time
}

// newServer returns a ready-to-use Server. Close must be called to stop the
// rate limiter janitors.
func newServer(cfg *config.Config, log *zap.Logger, deps serverDeps) *Server {
	if deps.Metrics == nil {
		deps.Metrics = metrics.New()
	}
	if deps.Notifier == nil {
		deps.Notifier = notify.Disabled{}
	}
	rl := cfg.RateLimit
	return &Server{
		cfg:           cfg,
		log:           log,
		passkey:       deps.Passkey,
		sessions:      deps.Sessions,
		posts:         deps.Posts,
		chat:          deps.Chat,
		contacts:      deps.Contacts,
		analytics:     deps.Analytics,
		notifier:      deps.Notifier,
		portfolio:     deps.Portfolio,
		metrics:       deps.Metrics,
		globalLimiter: middleware.NewLimiterStore(rl.GlobalPerMinute, rl.GlobalBurst, time.Minute),
		loginLimiter:  middleware.NewLimiterStore(rl.LoginPerMinute, 3, time.Minute),
		chatLimiter:   middleware.NewLimiterStore(rl.ChatPerMinute, rl.ChatPerMinute, time.Minute),
		started:       time.Now(),
	}
}

// Close stops the limiter janitors and waits for pending notifications.
func (s *Server) Close() {
	s.globalLimiter.Stop()
	s.loginLimiter.Stop()
	s.chatLimiter.Stop()
	s.notifications.Wait()
}

// routes builds the echo instance serving the whole API.
func (s *Server) routes() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = s.handleError

	e.Use(echomw.RequestIDWithConfig(echomw.RequestIDConfig{Generator: uuid.NewString}))
	e.Use(middleware.RequestLogger(s.log))
	e.Use(echomw.Recover())
	e.Use(s.metrics.Middleware())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:     s.cfg.Server.AllowedOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
		AllowCredentials: true,
	}))
	e.Use(echomw.BodyLimit(s.cfg.Server.BodyLimit))

	e.GET("/metrics", echo.WrapHandler(s.metrics.Handler()))

	api := e.Group("/api", middleware.RateLimit(s.globalLimiter, middleware.ByIP,
		"Too many requests from this IP, please try again later."))
	api.GET("/health", s.handleHealth)

	owner := api.Group("/owner")
	owner.POST("/login", s.handleOwnerLogin, middleware.RateLimit(s.loginLimiter, middleware.ByIP,
		"Too many login attempts, please try again later."))
	owner.GET("/me", s.handleOwnerMe, s.requireOwner)
	owner.POST("/logout", s.handleOwnerLogout, s.requireOwner)

	p := api.Group("/posts")
	p.GET("", s.handleListPosts)
	p.POST("", s.handleCreatePost, s.requireOwner)
	p.PATCH("/:id", s.handleUpdatePost, s.requireOwner)
	p.DELETE("/:id", s.handleDeletePost, s.requireOwner)
	p.POST("/:id/like", s.handleLikePost)
	p.POST("/:id/comments", s.handleAddComment)

	c := api.Group("/chat", middleware.RateLimit(s.chatLimiter, middleware.ByIP,
		"Too many chat messages, please slow down."))
	c.POST("", s.handleChat)
	c.POST("/stream", s.handleChatStream)
	c.GET("/history/:sessionId", s.handleChatHistory)

	api.POST("/contact", s.handleContact)
	api.GET("/contact", s.handleListContacts, s.requireOwner)
	api.POST("/analytics", s.handleAnalytics)

	api.GET("/portfolio", s.handlePortfolio)
	api.GET("/portfolio/skills", s.handlePortfolioSection("skills"))
	api.GET("/portfolio/experience", s.handlePortfolioSection("experience"))

	return e
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, envelope{
		"status":    "OK",
		"timestamp": time.Now().UTC(),
		"uptime":    time.Since(s.started).Seconds(),
	})
}
