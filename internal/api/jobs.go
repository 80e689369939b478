package api

import (
	"github.com/gofiber/fiber/v2"

	"github.com/illegalcall/glow-up/internal/jobs"
	"github.com/illegalcall/glow-up/internal/models"
	"github.com/illegalcall/glow-up/internal/profile"
)

type analysisJobRequest struct {
	models.ClosetItemRequest
	Type models.JobType `json:"type"`
}

func (s *Server) handleCreateAnalysisJob(c *fiber.Ctx) error {
	if s.deps.Jobs == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "Background analysis is not configured",
		})
	}

	var req analysisJobRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	image, err := decodeImage(req.ImageRequest, s.cfg.Storage.MaxImageSize)
	if err != nil {
		return s.respondError(c, err)
	}
	store, err := s.session(c)
	if err != nil {
		return s.respondError(c, err)
	}

	return s.enqueue(c, store, req.Type, jobs.Payload{
		Image:       image.Data,
		MIMEType:    image.MIMEType,
		Category:    string(req.Category),
		Color:       req.Color,
		Description: req.Description,
	})
}

func (s *Server) enqueue(c *fiber.Ctx, store *profile.Store, jobType models.JobType, payload jobs.Payload) error {
	p := store.Profile()
	if p == nil {
		return s.respondError(c, profile.ErrNoProfile)
	}
	if p.ID == "" {
		return s.respondError(c, profile.ErrLocalOnly)
	}

	job, err := s.deps.Jobs.Enqueue(c.UserContext(), p.ID, p.Email, jobType, payload)
	if err != nil {
		return s.respondError(c, err)
	}
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"job": job})
}

// handleGetJob reports a job. A finished face analysis changed the profile
// on the worker, so the session reloads it.
func (s *Server) handleGetJob(c *fiber.Ctx) error {
	if s.deps.Jobs == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "Background analysis is not configured",
		})
	}
	jobID, err := c.ParamsInt("id")
	if err != nil {
		return badRequest(c, "Invalid job ID")
	}
	store, err := s.session(c)
	if err != nil {
		return s.respondError(c, err)
	}
	p := store.Profile()
	if p == nil || p.ID == "" {
		return s.respondError(c, profile.ErrNoProfile)
	}

	status, err := s.deps.Jobs.Status(c.UserContext(), p.ID, jobID)
	if err != nil {
		return s.respondError(c, err)
	}

	if status.Job.Type == models.JobTypeFaceAnalysis && status.Job.Status == models.StatusCompleted {
		if _, err := store.Load(c.UserContext(), p.Email); err != nil {
			s.logger.Warn("Failed to reload profile after analysis", "jobID", jobID, "error", err)
		}
	}
	return c.JSON(status)
}
