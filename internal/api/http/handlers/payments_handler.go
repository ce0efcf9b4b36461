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

// PaymentsHandler manages payment lifecycle endpoints.
type PaymentsHandler struct {
	service *service.PaymentService
}

// NewPaymentsHandler constructs handler.
func NewPaymentsHandler(paymentService *service.PaymentService) *PaymentsHandler {
	return &PaymentsHandler{service: paymentService}
}

// Initiate POST /payments.
func (h *PaymentsHandler) Initiate(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Customer == nil {
		return apperrors.NewUnauthorized("customer required")
	}
	var req dto.InitiatePaymentRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	payment, err := h.service.Initiate(c.UserContext(), principal.Customer.ID, service.PaymentCreateInput{
		ProjectID: req.ProjectID,
		Amount:    req.Amount,
		Type:      req.Type,
		Method:    req.Method,
		Metadata: domain.PaymentMetadata{
			NextDueDate:   req.NextDueDate,
			InstallmentNo: req.InstallmentNo,
			Notes:         req.Notes,
		},
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": paymentResponse(payment)})
}

// ListPayments GET /payments.
func (h *PaymentsHandler) ListPayments(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Customer == nil {
		return apperrors.NewUnauthorized("customer required")
	}
	filter := parsePaymentQuery(c)
	payments, err := h.service.ListCustomerPayments(c.UserContext(), principal.Customer.ID, filter)
	if err != nil {
		return err
	}
	items := make([]dto.PaymentResponse, 0, len(payments))
	for i := range payments {
		items = append(items, paymentResponse(&payments[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// GetPayment GET /payments/:id.
func (h *PaymentsHandler) GetPayment(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Customer == nil {
		return apperrors.NewUnauthorized("customer required")
	}
	payment, err := h.service.GetPaymentForCustomer(c.UserContext(), principal.Customer.ID, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": paymentResponse(payment)})
}

// Refund POST /payments/:id/refund.
func (h *PaymentsHandler) Refund(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Customer == nil {
		return apperrors.NewUnauthorized("customer required")
	}
	var req dto.RefundRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	payment, err := h.service.InitiateRefund(c.UserContext(), principal.Customer.ID, c.Params("id"), req.Amount, req.Reason)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": paymentResponse(payment)})
}

// MarkProcessing POST /agent/payments/:id/processing.
func (h *PaymentsHandler) MarkProcessing(c *fiber.Ctx) error {
	payment, err := h.service.MarkProcessing(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": paymentResponse(payment)})
}

// Confirm POST /agent/payments/:id/confirm. Stands in for the gateway
// success webhook.
func (h *PaymentsHandler) Confirm(c *fiber.Ctx) error {
	var req dto.ConfirmPaymentRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	payment, err := h.service.MarkSuccess(c.UserContext(), c.Params("id"), service.GatewayConfirmation{
		GatewayPaymentID: req.GatewayPaymentID,
		Signature:        req.Signature,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": paymentResponse(payment)})
}

// Fail POST /agent/payments/:id/fail.
func (h *PaymentsHandler) Fail(c *fiber.Ctx) error {
	var req dto.FailPaymentRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	payment, err := h.service.MarkFailed(c.UserContext(), c.Params("id"), req.Reason)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": paymentResponse(payment)})
}

// CompleteRefund POST /admin/payments/:id/refund/complete.
func (h *PaymentsHandler) CompleteRefund(c *fiber.Ctx) error {
	payment, err := h.service.CompleteRefund(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": paymentResponse(payment)})
}

func parsePaymentQuery(c *fiber.Ctx) repository.PaymentFilter {
	filter := repository.PaymentFilter{}
	if statusStr := c.Query("status"); statusStr != "" {
		filter.Statuses = append(filter.Statuses, domain.PaymentStatus(statusStr))
	}
	if typeStr := c.Query("type"); typeStr != "" {
		filter.Types = append(filter.Types, domain.PaymentType(typeStr))
	}
	if projectID := c.Query("project_id"); projectID != "" {
		filter.ProjectID = &projectID
	}
	filter.CreatedFrom = parseTime(c.Query("created_from"))
	filter.CreatedTo = parseTime(c.Query("created_to"))
	page := parseInt(c.Query("page"), 1)
	pageSize := parseInt(c.Query("page_size"), 20)
	filter.Offset = (page - 1) * pageSize
	filter.Limit = pageSize
	return filter
}

func paymentResponse(payment *domain.Payment) dto.PaymentResponse {
	resp := dto.PaymentResponse{
		ID:            payment.ID,
		CustomerID:    payment.CustomerID,
		ProjectID:     payment.ProjectID,
		Amount:        payment.Amount,
		Currency:      payment.Currency,
		Type:          payment.Type,
		Method:        payment.Method,
		Status:        payment.Status,
		GatewayOrder:  payment.Gateway.OrderID,
		ReceiptNumber: payment.ReceiptNumber,
		FailureReason: payment.FailureReason,
		Attempts:      payment.Attempts,
		PaidAt:        payment.PaidAt,
		CreatedAt:     payment.CreatedAt,
		UpdatedAt:     payment.UpdatedAt,
	}
	if payment.Refund != nil {
		resp.Refund = &dto.RefundResponse{
			Amount:      payment.Refund.Amount,
			Reason:      payment.Refund.Reason,
			Status:      payment.Refund.Status,
			RequestedAt: payment.Refund.RequestedAt,
		}
	}
	return resp
}
