package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/realtydesk/realty-service/internal/repository"
	"github.com/realtydesk/realty-service/internal/service"
)

// StatsHandler exposes aggregated reporting endpoints for agents.
type StatsHandler struct {
	service *service.StatsService
}

// NewStatsHandler constructs handler.
func NewStatsHandler(statsService *service.StatsService) *StatsHandler {
	return &StatsHandler{service: statsService}
}

// TicketReport GET /agent/stats/tickets.
func (h *StatsHandler) TicketReport(c *fiber.Ctx) error {
	filter := repository.TicketFilter{}
	if projectID := c.Query("project_id"); projectID != "" {
		filter.ProjectID = &projectID
	}
	filter.CreatedFrom = parseTime(c.Query("created_from"))
	filter.CreatedTo = parseTime(c.Query("created_to"))

	report, err := h.service.TicketReport(c.UserContext(), filter)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": report})
}

// PaymentReport GET /agent/stats/payments.
func (h *StatsHandler) PaymentReport(c *fiber.Ctx) error {
	filter := repository.PaymentFilter{}
	if projectID := c.Query("project_id"); projectID != "" {
		filter.ProjectID = &projectID
	}
	filter.CreatedFrom = parseTime(c.Query("created_from"))
	filter.CreatedTo = parseTime(c.Query("created_to"))

	report, err := h.service.PaymentReport(c.UserContext(), filter)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": report})
}

// EMIDefaulters GET /agent/stats/defaulters.
func (h *StatsHandler) EMIDefaulters(c *fiber.Ctx) error {
	defaulters, err := h.service.EMIDefaulters(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": defaulters})
}
