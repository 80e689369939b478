package api

import (
	"github.com/gofiber/fiber/v2"

	"github.com/illegalcall/glow-up/internal/models"
	"github.com/illegalcall/glow-up/internal/service"
)

func (s *Server) handleListReminders(c *fiber.Ctx) error {
	store, err := s.session(c)
	if err != nil {
		return s.respondError(c, err)
	}
	reminders, err := s.deps.Service.Reminders(c.UserContext(), store)
	return s.respondList(c, "reminders", reminders, err)
}

func (s *Server) handleCreateReminder(c *fiber.Ctx) error {
	var req models.ReminderRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	store, err := s.session(c)
	if err != nil {
		return s.respondError(c, err)
	}
	reminder, err := s.deps.Service.CreateReminder(c.UserContext(), store, service.ReminderInput{
		Type:          req.Type,
		Title:         req.Title,
		Message:       req.Message,
		ScheduledTime: req.ScheduledTime,
	})
	if err != nil {
		return s.respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"reminder": reminder})
}

func (s *Server) handleToggleReminder(c *fiber.Ctx) error {
	var req models.ReminderToggleRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	store, err := s.session(c)
	if err != nil {
		return s.respondError(c, err)
	}
	reminder, err := s.deps.Service.SetReminderActive(c.UserContext(), store, c.Params("id"), req.IsActive)
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(fiber.Map{"reminder": reminder})
}

func (s *Server) handleDeleteReminder(c *fiber.Ctx) error {
	store, err := s.session(c)
	if err != nil {
		return s.respondError(c, err)
	}
	if err := s.deps.Service.DeleteReminder(c.UserContext(), store, c.Params("id")); err != nil {
		return s.respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
