package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/realtydesk/realty-service/internal/api/dto"
	"github.com/realtydesk/realty-service/internal/domain"
	"github.com/realtydesk/realty-service/internal/repository"
	"github.com/realtydesk/realty-service/internal/service"
	apperrors "github.com/realtydesk/realty-service/pkg/util"
)

// AgentsHandler manages operator login and administration routes.
type AgentsHandler struct {
	authService *service.AuthService
	agents      repository.AgentRepository
}

// NewAgentsHandler constructs handler.
func NewAgentsHandler(authService *service.AuthService, agents repository.AgentRepository) *AgentsHandler {
	return &AgentsHandler{authService: authService, agents: agents}
}

// Login POST /auth/agents/login.
func (h *AgentsHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	result, err := h.authService.LoginAgent(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": loginResponse(result)})
}

// Register POST /admin/agents. Admin only.
func (h *AgentsHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterAgentRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	agent, err := h.authService.RegisterAgent(c.UserContext(), service.AgentRegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Role:     req.Role,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": agentResponse(agent)})
}

// List GET /admin/agents.
func (h *AgentsHandler) List(c *fiber.Ctx) error {
	page := parseInt(c.Query("page"), 1)
	pageSize := parseInt(c.Query("page_size"), 20)
	agents, err := h.agents.ListActive(c.UserContext(), pageSize, (page-1)*pageSize)
	if err != nil {
		return apperrors.MapError(err)
	}
	items := make([]dto.AgentResponse, 0, len(agents))
	for i := range agents {
		items = append(items, agentResponse(&agents[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

func agentResponse(agent *domain.Agent) dto.AgentResponse {
	return dto.AgentResponse{
		ID:        agent.ID,
		Name:      agent.Name,
		Email:     agent.Email,
		Role:      agent.Role,
		Active:    agent.Active,
		CreatedAt: agent.CreatedAt,
	}
}
