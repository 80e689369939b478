package api

import (
	"context"
	"errors"
	"log/slog"

	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cache"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	jwtware "github.com/gofiber/jwt/v3"
	"github.com/golang-jwt/jwt/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/illegalcall/glow-up/internal/config"
	"github.com/illegalcall/glow-up/internal/datastore"
	"github.com/illegalcall/glow-up/internal/jobs"
	"github.com/illegalcall/glow-up/internal/models"
	"github.com/illegalcall/glow-up/internal/profile"
	"github.com/illegalcall/glow-up/internal/service"
)

// Authenticator checks passwords against the hosted auth service.
type Authenticator interface {
	ValidateCredentials(email, password string) (bool, error)
	SignUp(email, password string) error
}

// Deps are the collaborators behind the routes. Auth and Jobs are nil when
// the auth service or Kafka is not configured.
type Deps struct {
	Service    *service.Service
	Profiles   *profile.Registry
	Jobs       *jobs.Queue
	Auth       Authenticator
	UploadsDir string
}

type Server struct {
	app    *fiber.App
	cfg    *config.Config
	deps   Deps
	logger *slog.Logger
}

func NewServer(cfg *config.Config, deps Deps, log *slog.Logger) *Server {
	fiberCfg := fiber.Config{AppName: "glow-up"}
	if cfg.Storage.MaxImageSize > 0 {
		// base64 grows the image by a third, plus room for the other fields
		fiberCfg.BodyLimit = int(cfg.Storage.MaxImageSize)*4/3 + 64*1024
	}
	app := fiber.New(fiberCfg)

	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${ip} ${method} ${path} ${status}\n",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.Server.AllowedOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))
	app.Use(limiter.New(limiter.Config{
		Max:        cfg.Server.MaxRequests,
		Expiration: cfg.Server.RequestTimeout,
	}))

	server := &Server{
		app:    app,
		cfg:    cfg,
		deps:   deps,
		logger: log,
	}
	server.setupRoutes()
	return server
}

func (s *Server) setupRoutes() {
	s.app.Get("/health", s.handleHealth)
	s.app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))
	if s.deps.UploadsDir != "" {
		s.app.Static("/uploads", s.deps.UploadsDir)
	}

	api := s.app.Group("/api")

	// Public routes
	api.Post("/register", s.handleRegister)
	api.Post("/login", s.handleLogin)

	// Protected routes
	protected := api.Use(jwtware.New(jwtware.Config{
		SigningKey: []byte(s.cfg.JWT.Secret),
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Missing or invalid token",
			})
		},
	}))

	protected.Get("/profile", s.handleGetProfile)
	protected.Put("/profile", s.handleUpdateProfile)
	protected.Delete("/profile", s.handleDeleteProfile)
	protected.Post("/profile/stats", s.handleUpdateStats)
	protected.Post("/onboarding/selfie", s.handleSelfie)

	protected.Get("/skincare/today", s.handleSkincareToday)
	protected.Get("/skincare/routines", s.handleSkincareRoutines)
	protected.Post("/skincare/check-in", s.handleSkinCheckIn)

	protected.Get("/hair/tips", cache.New(cache.Config{
		Expiration:   s.cfg.Server.CacheExpiration,
		CacheControl: true,
		KeyGenerator: s.faceShapeCacheKey,
	}), s.handleHaircutTips)
	protected.Post("/hair/check-in", s.handleHairCheckIn)
	protected.Get("/hair/check-ins", s.handleHairCheckIns)
	protected.Get("/hair/recommendations", s.handleHaircutRecommendations)

	protected.Get("/closet", s.handleListCloset)
	protected.Post("/closet", s.handleAddClosetItem)
	protected.Post("/closet/analyze", s.handleAnalyzeClosetItem)
	protected.Delete("/closet/:id", s.handleDeleteClosetItem)

	protected.Post("/outfits/generate", s.handleGenerateOutfit)
	protected.Get("/outfits", s.handleListOutfits)
	protected.Patch("/outfits/:id/favorite", s.handleFavoriteOutfit)
	protected.Delete("/outfits/:id", s.handleDeleteOutfit)

	protected.Get("/reminders", s.handleListReminders)
	protected.Post("/reminders", s.handleCreateReminder)
	protected.Patch("/reminders/:id", s.handleToggleReminder)
	protected.Delete("/reminders/:id", s.handleDeleteReminder)

	protected.Get("/planner", s.handleGetPlanner)
	protected.Put("/planner", s.handleSetPlanner)
	protected.Delete("/planner/:date", s.handleDeletePlanner)

	protected.Post("/jobs/analysis", s.handleCreateAnalysisJob)
	protected.Get("/jobs/:id", s.handleGetJob)
}

func (s *Server) Start() error {
	return s.app.Listen(s.cfg.Server.Port)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

func (s *Server) handleHealth(c *fiber.Ctx) error {
	ai := "model"
	if s.deps.Service.AI().DemoMode() {
		ai = "simulated"
	}
	return c.JSON(fiber.Map{
		"status":    "ok",
		"demo_mode": s.cfg.DemoMode(),
		"ai":        ai,
		"jobs":      s.deps.Jobs != nil,
	})
}

// claimEmail returns the email the token was issued for.
func (s *Server) claimEmail(c *fiber.Ctx) (string, error) {
	token, ok := c.Locals("user").(*jwt.Token)
	if !ok {
		return "", fiber.ErrUnauthorized
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", fiber.ErrUnauthorized
	}
	email, _ := claims["email"].(string)
	if email == "" {
		return "", fiber.ErrUnauthorized
	}
	return email, nil
}

// session returns the profile store of the authenticated user.
func (s *Server) session(c *fiber.Ctx) (*profile.Store, error) {
	email, err := s.claimEmail(c)
	if err != nil {
		return nil, err
	}
	return s.deps.Profiles.Get(c.UserContext(), email), nil
}

// faceShapeCacheKey keys responses that only depend on the user's face
// shape, so a new selfie analysis is never answered from the cache.
func (s *Server) faceShapeCacheKey(c *fiber.Ctx) string {
	email, err := s.claimEmail(c)
	if err != nil {
		return c.Path()
	}
	var shape models.FaceShape
	if store, err := s.session(c); err == nil {
		if p := store.Profile(); p != nil {
			shape = p.FaceShape
		}
	}
	return c.Path() + "|" + profile.NormalizeEmail(email) + "|" + string(shape)
}

// respondError maps error kinds to status codes.
func (s *Server) respondError(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	var fiberErr *fiber.Error
	switch {
	case errors.As(err, &fiberErr):
		status = fiberErr.Code
	case errors.Is(err, profile.ErrValidation), errors.Is(err, jobs.ErrUnknownType):
		status = fiber.StatusBadRequest
	case errors.Is(err, datastore.ErrNotFound), errors.Is(err, profile.ErrNoProfile):
		status = fiber.StatusNotFound
	case errors.Is(err, service.ErrClosetEmpty), errors.Is(err, profile.ErrLocalOnly),
		errors.Is(err, datastore.ErrConflict):
		status = fiber.StatusConflict
	case errors.Is(err, datastore.ErrRemote):
		status = fiber.StatusServiceUnavailable
	}

	message := err.Error()
	if status >= fiber.StatusInternalServerError {
		s.logger.Error("Request failed", "method", c.Method(), "path", c.Path(), "error", err)
		if s.cfg.Server.Environment == "production" {
			message = "The service is temporarily unavailable, please retry"
		}
	}
	return c.Status(status).JSON(fiber.Map{"error": message})
}

// respondList sends a list even when the data service failed; the list is
// then empty and the response says it is degraded.
func (s *Server) respondList(c *fiber.Ctx, key string, items interface{}, err error) error {
	if err == nil {
		return c.JSON(fiber.Map{key: items})
	}
	if errors.Is(err, datastore.ErrRemote) {
		s.logger.Warn("Serving degraded list", "path", c.Path(), "error", err)
		return c.JSON(fiber.Map{key: items, "degraded": true})
	}
	return s.respondError(c, err)
}

func badRequest(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": message})
}

func limitQuery(c *fiber.Ctx) int {
	return c.QueryInt("limit", 0)
}
