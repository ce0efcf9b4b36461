package service

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/realtydesk/realty-service/internal/domain"
	"github.com/realtydesk/realty-service/internal/repository"
	apperrors "github.com/realtydesk/realty-service/pkg/util"
)

// CustomerService exposes customer profile and funnel stage operations.
type CustomerService struct {
	customers repository.CustomerRepository
}

// NewCustomerService constructs the service.
func NewCustomerService(customers repository.CustomerRepository) *CustomerService {
	return &CustomerService{customers: customers}
}

// CustomerUpdateInput carries profile fields an owner may change.
type CustomerUpdateInput struct {
	Name  *string
	Phone *string
}

// GetCustomer fetches a customer by id.
func (s *CustomerService) GetCustomer(ctx context.Context, customerID string) (*domain.Customer, error) {
	customer, err := s.customers.GetByID(ctx, customerID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("customer", map[string]any{"customer_id": customerID})
		}
		return nil, apperrors.MapError(err)
	}
	return customer, nil
}

// UpdateProfile applies partial profile changes.
func (s *CustomerService) UpdateProfile(ctx context.Context, customerID string, input CustomerUpdateInput) (*domain.Customer, error) {
	customer, err := s.GetCustomer(ctx, customerID)
	if err != nil {
		return nil, err
	}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, apperrors.NewValidationError("name must not be empty", nil)
		}
		customer.Name = name
	}
	if input.Phone != nil {
		customer.Phone = strings.TrimSpace(*input.Phone)
	}
	if err := s.customers.Update(ctx, customer); err != nil {
		return nil, apperrors.MapError(err)
	}
	return customer, nil
}

// AdvanceStage moves a customer forward in the funnel. Backward or
// sideways transitions are rejected; an equal stage is a no-op.
func (s *CustomerService) AdvanceStage(ctx context.Context, customerID string, stage domain.FunnelStage) (*domain.Customer, error) {
	if domain.FunnelRank(stage) < 0 {
		return nil, apperrors.NewValidationError("unknown funnel stage", map[string]any{"stage": stage})
	}
	customer, err := s.GetCustomer(ctx, customerID)
	if err != nil {
		return nil, err
	}
	current := domain.FunnelRank(customer.Stage)
	next := domain.FunnelRank(stage)
	if next < current {
		return nil, apperrors.NewDomainRule("funnel stage cannot move backward", map[string]any{
			"from": customer.Stage,
			"to":   stage,
		})
	}
	if next == current {
		return customer, nil
	}
	customer.Stage = stage
	if err := s.customers.Update(ctx, customer); err != nil {
		return nil, apperrors.MapError(err)
	}
	return customer, nil
}

// advanceCustomerStage is the forward-only stage bump used as a side
// effect by payment and enquiry flows. Equal or lower stages are left
// untouched.
func advanceCustomerStage(ctx context.Context, customers repository.CustomerRepository, customerID string, stage domain.FunnelStage) error {
	customer, err := customers.GetByID(ctx, customerID)
	if err != nil {
		return err
	}
	if domain.FunnelRank(stage) <= domain.FunnelRank(customer.Stage) {
		return nil
	}
	customer.Stage = stage
	return customers.Update(ctx, customer)
}
