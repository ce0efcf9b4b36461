package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/realtydesk/realty-service/internal/api/dto"
	"github.com/realtydesk/realty-service/internal/auth"
	"github.com/realtydesk/realty-service/internal/domain"
	"github.com/realtydesk/realty-service/internal/service"
	apperrors "github.com/realtydesk/realty-service/pkg/util"
)

// CustomersHandler manages customer signup, login and profile routes.
type CustomersHandler struct {
	authService     *service.AuthService
	customerService *service.CustomerService
}

// NewCustomersHandler constructs handler.
func NewCustomersHandler(authService *service.AuthService, customerService *service.CustomerService) *CustomersHandler {
	return &CustomersHandler{authService: authService, customerService: customerService}
}

// Register POST /auth/customers/register.
func (h *CustomersHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterCustomerRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	customer, err := h.authService.RegisterCustomer(c.UserContext(), service.CustomerRegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Phone:    req.Phone,
		Password: req.Password,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": customerResponse(customer)})
}

// Login POST /auth/customers/login.
func (h *CustomersHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	result, err := h.authService.LoginCustomer(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": loginResponse(result)})
}

// Me GET /customers/me.
func (h *CustomersHandler) Me(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Customer == nil {
		return apperrors.NewUnauthorized("customer required")
	}
	return c.JSON(fiber.Map{"data": customerResponse(principal.Customer)})
}

// UpdateProfile PATCH /customers/me.
func (h *CustomersHandler) UpdateProfile(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Customer == nil {
		return apperrors.NewUnauthorized("customer required")
	}
	var req dto.UpdateCustomerRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	customer, err := h.customerService.UpdateProfile(c.UserContext(), principal.Customer.ID, service.CustomerUpdateInput{
		Name:  req.Name,
		Phone: req.Phone,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": customerResponse(customer)})
}

// AdvanceStage POST /agent/customers/:id/stage.
func (h *CustomersHandler) AdvanceStage(c *fiber.Ctx) error {
	var req dto.AdvanceStageRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	customer, err := h.customerService.AdvanceStage(c.UserContext(), c.Params("id"), req.Stage)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": customerResponse(customer)})
}

// RequestPasswordReset POST /auth/password/reset/request.
func (h *CustomersHandler) RequestPasswordReset(c *fiber.Ctx) error {
	var req dto.PasswordResetRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	subject := req.Subject
	if subject == "" {
		subject = domain.SubjectTypeCustomer
	}
	token, err := h.authService.RequestPasswordReset(c.UserContext(), subject, req.Email)
	if err != nil {
		return err
	}
	// Token would normally be delivered out-of-band; returning it keeps
	// the loop closed while notification delivery is a stub.
	response := fiber.Map{"status": "accepted"}
	if token != "" {
		response["reset_token"] = token
	}
	return c.JSON(fiber.Map{"data": response})
}

// ConfirmPasswordReset POST /auth/password/reset/confirm.
func (h *CustomersHandler) ConfirmPasswordReset(c *fiber.Ctx) error {
	var req dto.PasswordResetConfirmRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := h.authService.ConfirmPasswordReset(c.UserContext(), req.Token, req.NewPassword); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"status": "password_updated"}})
}

// ChangePassword POST /auth/password/change.
func (h *CustomersHandler) ChangePassword(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.ChangePasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	subjectID := ""
	switch {
	case principal.Customer != nil:
		subjectID = principal.Customer.ID
	case principal.Agent != nil:
		subjectID = principal.Agent.ID
	default:
		return apperrors.NewUnauthorized("authentication required")
	}
	if err := h.authService.ChangePassword(c.UserContext(), principal.SubjectType, subjectID, req.CurrentPassword, req.NewPassword); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"status": "password_updated"}})
}

func customerResponse(customer *domain.Customer) dto.CustomerResponse {
	return dto.CustomerResponse{
		ID:        customer.ID,
		Name:      customer.Name,
		Email:     customer.Email,
		Phone:     customer.Phone,
		Status:    customer.Status,
		Stage:     customer.Stage,
		CreatedAt: customer.CreatedAt,
	}
}

func loginResponse(result *service.LoginResult) dto.LoginResponse {
	return dto.LoginResponse{
		Token:     result.Token,
		ExpiresAt: result.ExpiresAt,
		SubjectID: result.SubjectID,
		Subject:   result.Subject,
		Role:      result.Role,
	}
}
