package api

import (
	"github.com/gofiber/fiber/v2"

	"github.com/illegalcall/glow-up/internal/models"
	"github.com/illegalcall/glow-up/internal/service"
)

func (s *Server) handleSkincareToday(c *fiber.Ctx) error {
	store, err := s.session(c)
	if err != nil {
		return s.respondError(c, err)
	}
	routine, err := s.deps.Service.SkincareToday(c.UserContext(), store)
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(fiber.Map{"routine": routine})
}

func (s *Server) handleSkincareRoutines(c *fiber.Ctx) error {
	store, err := s.session(c)
	if err != nil {
		return s.respondError(c, err)
	}
	routines, err := s.deps.Service.SkincareHistory(c.UserContext(), store, limitQuery(c))
	return s.respondList(c, "routines", routines, err)
}

func (s *Server) handleSkinCheckIn(c *fiber.Ctx) error {
	var req service.SkinCheckIn
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	store, err := s.session(c)
	if err != nil {
		return s.respondError(c, err)
	}
	result, err := s.deps.Service.SkinCheckIn(c.UserContext(), store, req)
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(result)
}

func (s *Server) handleHaircutTips(c *fiber.Ctx) error {
	store, err := s.session(c)
	if err != nil {
		return s.respondError(c, err)
	}
	guide, err := s.deps.Service.HaircutTips(c.UserContext(), store)
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(guide)
}

func (s *Server) handleHairCheckIn(c *fiber.Ctx) error {
	var req models.HairCheckInRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	store, err := s.session(c)
	if err != nil {
		return s.respondError(c, err)
	}
	result, err := s.deps.Service.HairCheckIn(c.UserContext(), store, req.HairCondition, req.Concerns)
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(result)
}

func (s *Server) handleHairCheckIns(c *fiber.Ctx) error {
	store, err := s.session(c)
	if err != nil {
		return s.respondError(c, err)
	}
	checkIns, err := s.deps.Service.HairHistory(c.UserContext(), store, limitQuery(c))
	return s.respondList(c, "check_ins", checkIns, err)
}

func (s *Server) handleHaircutRecommendations(c *fiber.Ctx) error {
	store, err := s.session(c)
	if err != nil {
		return s.respondError(c, err)
	}
	recs, err := s.deps.Service.HaircutHistory(c.UserContext(), store)
	return s.respondList(c, "recommendations", recs, err)
}
