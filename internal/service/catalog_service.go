package service

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/realtydesk/realty-service/internal/domain"
	"github.com/realtydesk/realty-service/internal/repository"
	apperrors "github.com/realtydesk/realty-service/pkg/util"
)

// CatalogService manages the project catalog and customer enquiries.
type CatalogService struct {
	projects  repository.ProjectRepository
	enquiries repository.EnquiryRepository
	customers repository.CustomerRepository
	agents    repository.AgentRepository
	logger    *zap.Logger
}

// CatalogDependencies bundles repositories for catalog service.
type CatalogDependencies struct {
	ProjectRepo  repository.ProjectRepository
	EnquiryRepo  repository.EnquiryRepository
	CustomerRepo repository.CustomerRepository
	AgentRepo    repository.AgentRepository
	Logger       *zap.Logger
}

// ProjectInput is a create/update payload for a catalog project.
type ProjectInput struct {
	Name        string
	City        string
	Location    string
	Description string
	PriceMin    int64
	PriceMax    int64
	Status      domain.ProjectStatus
	Active      *bool
}

// EnquiryCreateInput is a customer's expression of interest.
type EnquiryCreateInput struct {
	ProjectID string
	Message   string
	Source    string
}

// NewCatalogService constructs the service.
func NewCatalogService(deps CatalogDependencies) *CatalogService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CatalogService{
		projects:  deps.ProjectRepo,
		enquiries: deps.EnquiryRepo,
		customers: deps.CustomerRepo,
		agents:    deps.AgentRepo,
		logger:    logger,
	}
}

// CreateProject adds a new project to the catalog.
func (s *CatalogService) CreateProject(ctx context.Context, input ProjectInput) (*domain.Project, error) {
	if err := validateProjectInput(input); err != nil {
		return nil, err
	}
	project := &domain.Project{
		Name:        strings.TrimSpace(input.Name),
		City:        strings.TrimSpace(input.City),
		Location:    strings.TrimSpace(input.Location),
		Description: input.Description,
		PriceMin:    input.PriceMin,
		PriceMax:    input.PriceMax,
		Status:      input.Status,
		Active:      true,
	}
	if project.Status == "" {
		project.Status = domain.ProjectStatusPlanned
	}
	if input.Active != nil {
		project.Active = *input.Active
	}
	if err := s.projects.Create(ctx, project); err != nil {
		return nil, apperrors.MapError(err)
	}
	return project, nil
}

// UpdateProject applies changes to an existing project.
func (s *CatalogService) UpdateProject(ctx context.Context, projectID string, input ProjectInput) (*domain.Project, error) {
	if err := validateProjectInput(input); err != nil {
		return nil, err
	}
	project, err := s.GetProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	project.Name = strings.TrimSpace(input.Name)
	project.City = strings.TrimSpace(input.City)
	project.Location = strings.TrimSpace(input.Location)
	project.Description = input.Description
	project.PriceMin = input.PriceMin
	project.PriceMax = input.PriceMax
	if input.Status != "" {
		project.Status = input.Status
	}
	if input.Active != nil {
		project.Active = *input.Active
	}
	if err := s.projects.Update(ctx, project); err != nil {
		return nil, apperrors.MapError(err)
	}
	return project, nil
}

// DeleteProject removes a project from the catalog.
func (s *CatalogService) DeleteProject(ctx context.Context, projectID string) error {
	if err := s.projects.Delete(ctx, projectID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("project", map[string]any{"project_id": projectID})
		}
		return apperrors.MapError(err)
	}
	return nil
}

// GetProject fetches a single project.
func (s *CatalogService) GetProject(ctx context.Context, projectID string) (*domain.Project, error) {
	project, err := s.projects.GetByID(ctx, projectID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("project", map[string]any{"project_id": projectID})
		}
		return nil, apperrors.MapError(err)
	}
	return project, nil
}

// ListProjects searches the catalog.
func (s *CatalogService) ListProjects(ctx context.Context, filter repository.ProjectFilter) ([]domain.Project, error) {
	projects, err := s.projects.ListWithFilter(ctx, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return projects, nil
}

// CreateEnquiry records an enquiry and bumps the customer into the
// ENQUIRY funnel stage. The stage bump is a side effect and never
// fails the enquiry itself.
func (s *CatalogService) CreateEnquiry(ctx context.Context, customerID string, input EnquiryCreateInput) (*domain.Enquiry, error) {
	if strings.TrimSpace(input.Message) == "" {
		return nil, apperrors.NewValidationError("message is required", nil)
	}
	project, err := s.GetProject(ctx, input.ProjectID)
	if err != nil {
		return nil, err
	}
	if !project.Active {
		return nil, apperrors.NewConflict("project inactive", map[string]any{"project_id": project.ID})
	}

	enquiry := &domain.Enquiry{
		CustomerID: customerID,
		ProjectID:  project.ID,
		Message:    strings.TrimSpace(input.Message),
		Source:     strings.TrimSpace(input.Source),
		Status:     domain.EnquiryStatusNew,
	}
	if err := s.enquiries.Create(ctx, enquiry); err != nil {
		return nil, apperrors.MapError(err)
	}

	if err := advanceCustomerStage(ctx, s.customers, customerID, domain.FunnelStageEnquiry); err != nil {
		s.logger.Warn("funnel stage advance failed", zap.String("customer_id", customerID), zap.Error(err))
	}
	return enquiry, nil
}

// UpdateEnquiryStatus moves an enquiry through follow-up states and
// optionally assigns the handling agent.
func (s *CatalogService) UpdateEnquiryStatus(ctx context.Context, enquiryID string, status domain.EnquiryStatus, agentID *string) (*domain.Enquiry, error) {
	switch status {
	case domain.EnquiryStatusNew, domain.EnquiryStatusContacted, domain.EnquiryStatusSiteVisit, domain.EnquiryStatusClosed:
	default:
		return nil, apperrors.NewValidationError("unknown enquiry status", map[string]any{"status": status})
	}

	enquiry, err := s.getEnquiry(ctx, enquiryID)
	if err != nil {
		return nil, err
	}
	if agentID != nil {
		agent, err := s.agents.GetByID(ctx, *agentID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, apperrors.NewNotFound("agent", map[string]any{"agent_id": *agentID})
			}
			return nil, apperrors.MapError(err)
		}
		if !agent.Active {
			return nil, apperrors.NewConflict("agent inactive", map[string]any{"agent_id": agent.ID})
		}
		enquiry.AgentID = &agent.ID
	}
	enquiry.Status = status
	if err := s.enquiries.Update(ctx, enquiry); err != nil {
		return nil, apperrors.MapError(err)
	}

	// Negotiation starts when sales books a site visit.
	if status == domain.EnquiryStatusSiteVisit {
		if err := advanceCustomerStage(ctx, s.customers, enquiry.CustomerID, domain.FunnelStageNegotiation); err != nil {
			s.logger.Warn("funnel stage advance failed", zap.String("customer_id", enquiry.CustomerID), zap.Error(err))
		}
	}
	return enquiry, nil
}

// ListEnquiries searches enquiries for back-office views.
func (s *CatalogService) ListEnquiries(ctx context.Context, filter repository.EnquiryFilter) ([]domain.Enquiry, error) {
	enquiries, err := s.enquiries.ListWithFilter(ctx, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return enquiries, nil
}

// ListCustomerEnquiries restricts the listing to an owner.
func (s *CatalogService) ListCustomerEnquiries(ctx context.Context, customerID string, filter repository.EnquiryFilter) ([]domain.Enquiry, error) {
	filter.CustomerID = &customerID
	return s.ListEnquiries(ctx, filter)
}

func (s *CatalogService) getEnquiry(ctx context.Context, enquiryID string) (*domain.Enquiry, error) {
	enquiry, err := s.enquiries.GetByID(ctx, enquiryID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("enquiry", map[string]any{"enquiry_id": enquiryID})
		}
		return nil, apperrors.MapError(err)
	}
	return enquiry, nil
}

func validateProjectInput(input ProjectInput) error {
	if strings.TrimSpace(input.Name) == "" {
		return apperrors.NewValidationError("name is required", nil)
	}
	if input.PriceMin < 0 || input.PriceMax < 0 {
		return apperrors.NewValidationError("prices must be non-negative", nil)
	}
	if input.PriceMax > 0 && input.PriceMin > input.PriceMax {
		return apperrors.NewValidationError("price_min exceeds price_max", nil)
	}
	return nil
}
