package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/realtydesk/realty-service/internal/api/dto"
	"github.com/realtydesk/realty-service/internal/auth"
	"github.com/realtydesk/realty-service/internal/domain"
	"github.com/realtydesk/realty-service/internal/repository"
	"github.com/realtydesk/realty-service/internal/service"
	apperrors "github.com/realtydesk/realty-service/pkg/util"
)

// CatalogHandler manages project catalog and enquiry endpoints.
type CatalogHandler struct {
	service *service.CatalogService
}

// NewCatalogHandler constructs handler.
func NewCatalogHandler(catalogService *service.CatalogService) *CatalogHandler {
	return &CatalogHandler{service: catalogService}
}

// ListProjects GET /projects.
func (h *CatalogHandler) ListProjects(c *fiber.Ctx) error {
	filter := repository.ProjectFilter{}
	if city := c.Query("city"); city != "" {
		filter.City = &city
	}
	if status := c.Query("status"); status != "" {
		filter.Statuses = append(filter.Statuses, domain.ProjectStatus(status))
	}
	active := true
	filter.Active = &active
	page := parseInt(c.Query("page"), 1)
	pageSize := parseInt(c.Query("page_size"), 20)
	filter.Offset = (page - 1) * pageSize
	filter.Limit = pageSize

	projects, err := h.service.ListProjects(c.UserContext(), filter)
	if err != nil {
		return err
	}
	items := make([]dto.ProjectResponse, 0, len(projects))
	for i := range projects {
		items = append(items, projectResponse(&projects[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// GetProject GET /projects/:id.
func (h *CatalogHandler) GetProject(c *fiber.Ctx) error {
	project, err := h.service.GetProject(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": projectResponse(project)})
}

// CreateProject POST /admin/projects. Admin only.
func (h *CatalogHandler) CreateProject(c *fiber.Ctx) error {
	var req dto.ProjectRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	project, err := h.service.CreateProject(c.UserContext(), projectInput(req))
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": projectResponse(project)})
}

// UpdateProject PUT /admin/projects/:id. Admin only.
func (h *CatalogHandler) UpdateProject(c *fiber.Ctx) error {
	var req dto.ProjectRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	project, err := h.service.UpdateProject(c.UserContext(), c.Params("id"), projectInput(req))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": projectResponse(project)})
}

// DeleteProject DELETE /admin/projects/:id. Admin only.
func (h *CatalogHandler) DeleteProject(c *fiber.Ctx) error {
	if err := h.service.DeleteProject(c.UserContext(), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// CreateEnquiry POST /enquiries.
func (h *CatalogHandler) CreateEnquiry(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Customer == nil {
		return apperrors.NewUnauthorized("customer required")
	}
	var req dto.CreateEnquiryRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	enquiry, err := h.service.CreateEnquiry(c.UserContext(), principal.Customer.ID, service.EnquiryCreateInput{
		ProjectID: req.ProjectID,
		Message:   req.Message,
		Source:    req.Source,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": enquiryResponse(enquiry)})
}

// ListMyEnquiries GET /enquiries.
func (h *CatalogHandler) ListMyEnquiries(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Customer == nil {
		return apperrors.NewUnauthorized("customer required")
	}
	filter := parseEnquiryQuery(c)
	enquiries, err := h.service.ListCustomerEnquiries(c.UserContext(), principal.Customer.ID, filter)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": enquiryResponses(enquiries)})
}

// ListEnquiries GET /agent/enquiries.
func (h *CatalogHandler) ListEnquiries(c *fiber.Ctx) error {
	filter := parseEnquiryQuery(c)
	if customerID := c.Query("customer_id"); customerID != "" {
		filter.CustomerID = &customerID
	}
	if agentID := c.Query("agent_id"); agentID != "" {
		filter.AgentID = &agentID
	}
	enquiries, err := h.service.ListEnquiries(c.UserContext(), filter)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": enquiryResponses(enquiries)})
}

// UpdateEnquiry POST /agent/enquiries/:id.
func (h *CatalogHandler) UpdateEnquiry(c *fiber.Ctx) error {
	var req dto.UpdateEnquiryRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	enquiry, err := h.service.UpdateEnquiryStatus(c.UserContext(), c.Params("id"), req.Status, req.AgentID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": enquiryResponse(enquiry)})
}

func parseEnquiryQuery(c *fiber.Ctx) repository.EnquiryFilter {
	filter := repository.EnquiryFilter{}
	if status := c.Query("status"); status != "" {
		filter.Statuses = append(filter.Statuses, domain.EnquiryStatus(status))
	}
	if projectID := c.Query("project_id"); projectID != "" {
		filter.ProjectID = &projectID
	}
	page := parseInt(c.Query("page"), 1)
	pageSize := parseInt(c.Query("page_size"), 20)
	filter.Offset = (page - 1) * pageSize
	filter.Limit = pageSize
	return filter
}

func projectInput(req dto.ProjectRequest) service.ProjectInput {
	return service.ProjectInput{
		Name:        req.Name,
		City:        req.City,
		Location:    req.Location,
		Description: req.Description,
		PriceMin:    req.PriceMin,
		PriceMax:    req.PriceMax,
		Status:      req.Status,
		Active:      req.Active,
	}
}

func projectResponse(project *domain.Project) dto.ProjectResponse {
	return dto.ProjectResponse{
		ID:          project.ID,
		Name:        project.Name,
		City:        project.City,
		Location:    project.Location,
		Description: project.Description,
		PriceMin:    project.PriceMin,
		PriceMax:    project.PriceMax,
		Status:      project.Status,
		Active:      project.Active,
		CreatedAt:   project.CreatedAt,
		UpdatedAt:   project.UpdatedAt,
	}
}

func enquiryResponse(enquiry *domain.Enquiry) dto.EnquiryResponse {
	return dto.EnquiryResponse{
		ID:         enquiry.ID,
		CustomerID: enquiry.CustomerID,
		ProjectID:  enquiry.ProjectID,
		Message:    enquiry.Message,
		Source:     enquiry.Source,
		Status:     enquiry.Status,
		AgentID:    enquiry.AgentID,
		CreatedAt:  enquiry.CreatedAt,
		UpdatedAt:  enquiry.UpdatedAt,
	}
}

func enquiryResponses(enquiries []domain.Enquiry) []dto.EnquiryResponse {
	items := make([]dto.EnquiryResponse, 0, len(enquiries))
	for i := range enquiries {
		items = append(items, enquiryResponse(&enquiries[i]))
	}
	return items
}
