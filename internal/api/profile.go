package api

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/illegalcall/glow-up/internal/jobs"
	"github.com/illegalcall/glow-up/internal/models"
	"github.com/illegalcall/glow-up/internal/profile"
)

func (s *Server) handleGetProfile(c *fiber.Ctx) error {
	store, err := s.session(c)
	if err != nil {
		return s.respondError(c, err)
	}
	state := store.Snapshot()
	if state.Profile == nil {
		return s.respondError(c, profile.ErrNoProfile)
	}
	return c.JSON(fiber.Map{
		"profile": state.Profile,
		"loading": state.Loading,
		"synced":  state.Profile.ID != "",
	})
}

func (s *Server) handleUpdateProfile(c *fiber.Ctx) error {
	var req models.ProfileUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	store, err := s.session(c)
	if err != nil {
		return s.respondError(c, err)
	}

	outcome, err := store.Update(c.UserContext(), profile.Changes{
		Name:      req.Name,
		FaceShape: req.FaceShape,
		SkinTone:  req.SkinTone,
		PhotoURL:  req.PhotoURL,
	})
	if err != nil {
		return s.respondError(c, err)
	}
	return respondOutcome(c, outcome)
}

// handleDeleteProfile signs the session out. The remote profile is kept.
func (s *Server) handleDeleteProfile(c *fiber.Ctx) error {
	email, err := s.claimEmail(c)
	if err != nil {
		return s.respondError(c, err)
	}
	if err := s.deps.Profiles.Forget(c.UserContext(), email); err != nil {
		return s.respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) handleUpdateStats(c *fiber.Ctx) error {
	var req models.StatsRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	store, err := s.session(c)
	if err != nil {
		return s.respondError(c, err)
	}

	outcome, err := store.UpdateStats(c.UserContext(), profile.Stats{
		GlowDays:     req.GlowDays,
		CheckIns:     req.CheckIns,
		LooksCreated: req.LooksCreated,
	})
	if err != nil {
		return s.respondError(c, err)
	}
	return respondOutcome(c, outcome)
}

func respondOutcome(c *fiber.Ctx, outcome profile.Outcome) error {
	body := fiber.Map{
		"profile": outcome.Profile,
		"synced":  outcome.Synced,
	}
	if outcome.Err != nil && !errors.Is(outcome.Err, profile.ErrLocalOnly) {
		body["warning"] = "Saved on this device only, the data service is unavailable"
	}
	return c.JSON(body)
}

// handleSelfie runs the onboarding analysis inline, or queues it when the
// request asks for it and jobs are available.
func (s *Server) handleSelfie(c *fiber.Ctx) error {
	var req models.ImageRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	selfie, err := decodeImage(req, s.cfg.Storage.MaxImageSize)
	if err != nil {
		return s.respondError(c, err)
	}
	store, err := s.session(c)
	if err != nil {
		return s.respondError(c, err)
	}

	if req.Async && s.deps.Jobs != nil {
		return s.enqueue(c, store, models.JobTypeFaceAnalysis, jobs.Payload{Image: selfie.Data, MIMEType: selfie.MIMEType})
	}

	result, err := s.deps.Service.CompleteOnboarding(c.UserContext(), store, selfie)
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(result)
}
