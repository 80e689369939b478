package api

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"

	"github.com/illegalcall/glow-up/internal/datastore"
	"github.com/illegalcall/glow-up/internal/models"
	"github.com/illegalcall/glow-up/internal/profile"
)

func (s *Server) issueToken(email string) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"email": email,
		"exp":   now.Add(s.cfg.JWT.Expiration).Unix(),
		"iat":   now.Unix(),
	})
	return token.SignedString([]byte(s.cfg.JWT.Secret))
}

func (s *Server) respondWithToken(c *fiber.Ctx, status int, outcome profile.Outcome) error {
	tokenString, err := s.issueToken(outcome.Profile.Email)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to generate token",
		})
	}
	return c.Status(status).JSON(models.LoginResponse{
		Token:   tokenString,
		Profile: outcome.Profile,
		Synced:  outcome.Synced,
	})
}

func (s *Server) handleRegister(c *fiber.Ctx) error {
	var req models.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.Email) == "" {
		return badRequest(c, "Name and email are required")
	}

	if s.deps.Auth != nil {
		if req.Password == "" {
			return badRequest(c, "Name, email and password are required")
		}
		if err := s.deps.Auth.SignUp(profile.NormalizeEmail(req.Email), req.Password); err != nil {
			s.logger.Warn("Auth sign up failed", "email", req.Email, "error", err)
			errorMessage := "Could not create account"
			if s.cfg.Server.Environment != "production" {
				errorMessage = fmt.Sprintf("Could not create account: %v", err)
			}
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error": errorMessage,
			})
		}
	}

	store := s.deps.Profiles.Get(c.UserContext(), req.Email)
	outcome, err := store.Create(c.UserContext(), models.Profile{Name: req.Name, Email: req.Email})
	if err != nil {
		return s.respondError(c, err)
	}

	s.logger.Info("Profile registered", "email", outcome.Profile.Email, "synced", outcome.Synced)
	return s.respondWithToken(c, fiber.StatusCreated, outcome)
}

func (s *Server) handleLogin(c *fiber.Ctx) error {
	var req models.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if strings.TrimSpace(req.Email) == "" {
		return badRequest(c, "Email is required")
	}

	s.logger.Info("Authentication attempt", "email", req.Email)

	if s.deps.Auth != nil {
		if req.Password == "" {
			return badRequest(c, "Email and password are required")
		}
		valid, err := s.deps.Auth.ValidateCredentials(profile.NormalizeEmail(req.Email), req.Password)
		if err != nil {
			s.logger.Error("Authentication error", "error", err)
			errorMessage := "Authentication service error"
			if s.cfg.Server.Environment != "production" {
				errorMessage = fmt.Sprintf("Authentication error: %v", err)
			}
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": errorMessage,
			})
		}
		if !valid {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid credentials",
			})
		}
	}

	store := s.deps.Profiles.Get(c.UserContext(), req.Email)
	outcome, err := store.Load(c.UserContext(), req.Email)
	if errors.Is(err, datastore.ErrNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "No profile for this email, please register first",
		})
	}
	if err != nil {
		return s.respondError(c, err)
	}

	s.logger.Info("User successfully authenticated", "email", outcome.Profile.Email, "synced", outcome.Synced)
	return s.respondWithToken(c, fiber.StatusOK, outcome)
}
