package api

import (
	"github.com/gofiber/fiber/v2"

	"github.com/illegalcall/glow-up/internal/jobs"
	"github.com/illegalcall/glow-up/internal/models"
	"github.com/illegalcall/glow-up/internal/service"
)

func (s *Server) handleListCloset(c *fiber.Ctx) error {
	store, err := s.session(c)
	if err != nil {
		return s.respondError(c, err)
	}
	items, err := s.deps.Service.ClosetItems(c.UserContext(), store)
	return s.respondList(c, "items", items, err)
}

// handleAddClosetItem adds a garment picked from the predefined subtypes.
func (s *Server) handleAddClosetItem(c *fiber.Ctx) error {
	var req models.ClosetItemRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	store, err := s.session(c)
	if err != nil {
		return s.respondError(c, err)
	}

	in := service.ClosetItemInput{
		Category:    req.Category,
		Color:       req.Color,
		Description: req.Description,
	}
	if req.Image != "" {
		photo, err := decodeImage(req.ImageRequest, s.cfg.Storage.MaxImageSize)
		if err != nil {
			return s.respondError(c, err)
		}
		in.Photo = &photo
	}

	result, err := s.deps.Service.AddClosetItem(c.UserContext(), store, in)
	if err != nil {
		return s.respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(result)
}

// handleAnalyzeClosetItem adds a garment from a photo.
func (s *Server) handleAnalyzeClosetItem(c *fiber.Ctx) error {
	var req models.ClosetItemRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	photo, err := decodeImage(req.ImageRequest, s.cfg.Storage.MaxImageSize)
	if err != nil {
		return s.respondError(c, err)
	}
	store, err := s.session(c)
	if err != nil {
		return s.respondError(c, err)
	}

	if req.Async && s.deps.Jobs != nil {
		return s.enqueue(c, store, models.JobTypeClosetItem, jobs.Payload{
			Image:       photo.Data,
			MIMEType:    photo.MIMEType,
			Category:    string(req.Category),
			Color:       req.Color,
			Description: req.Description,
		})
	}

	result, err := s.deps.Service.AddClosetItem(c.UserContext(), store, service.ClosetItemInput{
		Category:    req.Category,
		Color:       req.Color,
		Description: req.Description,
		Photo:       &photo,
	})
	if err != nil {
		return s.respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(result)
}

func (s *Server) handleDeleteClosetItem(c *fiber.Ctx) error {
	store, err := s.session(c)
	if err != nil {
		return s.respondError(c, err)
	}
	if err := s.deps.Service.DeleteClosetItem(c.UserContext(), store, c.Params("id")); err != nil {
		return s.respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) handleGenerateOutfit(c *fiber.Ctx) error {
	var req models.OutfitRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	store, err := s.session(c)
	if err != nil {
		return s.respondError(c, err)
	}
	result, err := s.deps.Service.GenerateOutfit(c.UserContext(), store, req.Occasion)
	if err != nil {
		return s.respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(result)
}

func (s *Server) handleListOutfits(c *fiber.Ctx) error {
	store, err := s.session(c)
	if err != nil {
		return s.respondError(c, err)
	}
	outfits, err := s.deps.Service.Outfits(c.UserContext(), store, limitQuery(c))
	return s.respondList(c, "outfits", outfits, err)
}

func (s *Server) handleFavoriteOutfit(c *fiber.Ctx) error {
	var req models.FavoriteRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	store, err := s.session(c)
	if err != nil {
		return s.respondError(c, err)
	}
	outfit, err := s.deps.Service.SetOutfitFavorite(c.UserContext(), store, c.Params("id"), req.IsFavorite)
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(fiber.Map{"outfit": outfit})
}

func (s *Server) handleDeleteOutfit(c *fiber.Ctx) error {
	store, err := s.session(c)
	if err != nil {
		return s.respondError(c, err)
	}
	if err := s.deps.Service.DeleteOutfit(c.UserContext(), store, c.Params("id")); err != nil {
		return s.respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) handleGetPlanner(c *fiber.Ctx) error {
	store, err := s.session(c)
	if err != nil {
		return s.respondError(c, err)
	}
	entries, err := s.deps.Service.WeekPlan(c.UserContext(), store, c.Query("from"))
	return s.respondList(c, "entries", entries, err)
}

func (s *Server) handleSetPlanner(c *fiber.Ctx) error {
	var req models.PlanRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	store, err := s.session(c)
	if err != nil {
		return s.respondError(c, err)
	}
	entry, err := s.deps.Service.PlanOutfit(c.UserContext(), store, req.OutfitID, req.PlanDate)
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(fiber.Map{"entry": entry})
}

func (s *Server) handleDeletePlanner(c *fiber.Ctx) error {
	store, err := s.session(c)
	if err != nil {
		return s.respondError(c, err)
	}
	if err := s.deps.Service.UnplanDate(c.UserContext(), store, c.Params("date")); err != nil {
		return s.respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
