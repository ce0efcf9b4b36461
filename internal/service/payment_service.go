package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/realtydesk/realty-service/internal/config"
	"github.com/realtydesk/realty-service/internal/domain"
	"github.com/realtydesk/realty-service/internal/events"
	"github.com/realtydesk/realty-service/internal/invoice"
	"github.com/realtydesk/realty-service/internal/repository"
	apperrors "github.com/realtydesk/realty-service/pkg/util"
)

// PaymentService coordinates the payment lifecycle state machine.
type PaymentService struct {
	payments   repository.PaymentRepository
	customers  repository.CustomerRepository
	projects   repository.ProjectRepository
	sequences  repository.SequenceRepository
	invoices   invoice.Renderer
	dispatcher events.Dispatcher
	logger     *zap.Logger
	cfg        config.PaymentsConfig
	now        func() time.Time
}

// PaymentDependencies bundles repositories for payment service.
type PaymentDependencies struct {
	PaymentRepo  repository.PaymentRepository
	CustomerRepo repository.CustomerRepository
	ProjectRepo  repository.ProjectRepository
	SequenceRepo repository.SequenceRepository
	Invoices     invoice.Renderer
	Dispatcher   events.Dispatcher
	Logger       *zap.Logger
	Config       config.PaymentsConfig
	Now          func() time.Time
}

// PaymentCreateInput describes payment initiation payload.
type PaymentCreateInput struct {
	ProjectID string
	Amount    int64
	Type      domain.PaymentType
	Method    domain.PaymentMethod
	Metadata  domain.PaymentMetadata
}

// GatewayConfirmation carries the provider's success details.
type GatewayConfirmation struct {
	GatewayPaymentID string
	Signature        string
}

// NewPaymentService constructs the service.
func NewPaymentService(deps PaymentDependencies) *PaymentService {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PaymentService{
		payments:   deps.PaymentRepo,
		customers:  deps.CustomerRepo,
		projects:   deps.ProjectRepo,
		sequences:  deps.SequenceRepo,
		invoices:   deps.Invoices,
		dispatcher: deps.Dispatcher,
		logger:     logger,
		cfg:        deps.Config,
		now:        now,
	}
}

// Initiate creates a new pending payment attempt. Retrying a failed
// payment goes through here again: failed attempts stay as they are.
func (s *PaymentService) Initiate(ctx context.Context, customerID string, input PaymentCreateInput) (*domain.Payment, error) {
	if input.Amount <= 0 {
		return nil, apperrors.NewValidationError("amount must be positive", map[string]any{"amount": input.Amount})
	}
	project, err := s.projects.GetByID(ctx, input.ProjectID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("project", map[string]any{"project_id": input.ProjectID})
		}
		return nil, apperrors.MapError(err)
	}
	if !project.Active {
		return nil, apperrors.NewConflict("project inactive", map[string]any{"project_id": project.ID})
	}

	payment := &domain.Payment{
		CustomerID: customerID,
		ProjectID:  project.ID,
		Amount:     input.Amount,
		Currency:   s.cfg.Currency,
		Type:       input.Type,
		Method:     input.Method,
		Status:     domain.PaymentStatusPending,
		Metadata:   input.Metadata,
	}
	if payment.Type == "" {
		payment.Type = domain.PaymentTypeOther
	}
	if payment.Currency == "" {
		payment.Currency = "INR"
	}
	if payment.Method.IsOnline() {
		payment.Gateway = domain.GatewayDetails{
			Provider: s.cfg.GatewayProvider,
			OrderID:  "order_" + uuid.NewString(),
		}
	}

	if err := s.payments.Create(ctx, payment); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.publishPaymentEvent(ctx, events.EventPaymentInitiated, customerActor(customerID), payment)
	return payment, nil
}

// MarkProcessing moves a pending payment into the gateway checkout.
func (s *PaymentService) MarkProcessing(ctx context.Context, paymentID string) (*domain.Payment, error) {
	payment, err := s.getPayment(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if payment.Status != domain.PaymentStatusPending {
		return nil, apperrors.NewDomainRule("only pending payments can enter processing", map[string]any{
			"status": payment.Status,
		})
	}
	payment.Status = domain.PaymentStatusProcessing
	if err := s.payments.Update(ctx, payment); err != nil {
		return nil, apperrors.MapError(err)
	}
	return payment, nil
}

// MarkSuccess completes a payment after gateway verification. The
// receipt number is assigned exactly once, on the first transition to
// success, and never reassigned. Invoice rendering runs afterwards and
// is best-effort: its failure never rolls the transition back.
func (s *PaymentService) MarkSuccess(ctx context.Context, paymentID string, details GatewayConfirmation) (*domain.Payment, error) {
	payment, err := s.getPayment(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if isTerminalPaymentStatus(payment.Status) {
		return nil, apperrors.NewDomainRule("payment already settled", map[string]any{"status": payment.Status})
	}

	now := s.now()
	payment.Status = domain.PaymentStatusSuccess
	payment.PaidAt = &now
	payment.Gateway.PaymentID = details.GatewayPaymentID
	payment.Gateway.Signature = details.Signature

	if payment.ReceiptNumber == nil {
		seq, err := s.sequences.Next(ctx, repository.SequenceReceipt)
		if err != nil {
			return nil, apperrors.MapError(err)
		}
		receipt := repository.FormatNumber("RCP", now, seq)
		payment.ReceiptNumber = &receipt
	}

	if err := s.payments.Update(ctx, payment); err != nil {
		return nil, apperrors.MapError(err)
	}

	s.renderInvoice(ctx, payment)
	s.advanceFunnel(ctx, payment.CustomerID, domain.FunnelStageBuyer)
	s.publishPaymentEvent(ctx, events.EventPaymentSucceeded, customerActor(payment.CustomerID), payment)
	return payment, nil
}

// MarkFailed records a failed attempt. The attempt stays terminal;
// a retry is a fresh Initiate.
func (s *PaymentService) MarkFailed(ctx context.Context, paymentID, reason string) (*domain.Payment, error) {
	payment, err := s.getPayment(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if isTerminalPaymentStatus(payment.Status) {
		return nil, apperrors.NewDomainRule("payment already settled", map[string]any{"status": payment.Status})
	}

	payment.Status = domain.PaymentStatusFailed
	trimmed := strings.TrimSpace(reason)
	payment.FailureReason = &trimmed
	payment.Attempts++

	if err := s.payments.Update(ctx, payment); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.publishPaymentEvent(ctx, events.EventPaymentFailed, customerActor(payment.CustomerID), payment)
	return payment, nil
}

// InitiateRefund starts a refund against a successful payment. Owner
// only; amounts above the original payment are rejected.
func (s *PaymentService) InitiateRefund(ctx context.Context, customerID, paymentID string, amount int64, reason string) (*domain.Payment, error) {
	payment, err := s.getPayment(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if payment.CustomerID != customerID {
		return nil, apperrors.NewForbidden("access denied")
	}
	if payment.Status != domain.PaymentStatusSuccess {
		return nil, apperrors.NewDomainRule("only successful payments can be refunded", map[string]any{
			"status": payment.Status,
		})
	}
	if amount <= 0 {
		return nil, apperrors.NewValidationError("refund amount must be positive", map[string]any{"amount": amount})
	}
	if amount > payment.Amount {
		return nil, apperrors.NewDomainRule("refund exceeds amount", map[string]any{
			"amount":   amount,
			"original": payment.Amount,
		})
	}

	payment.Refund = &domain.RefundDetails{
		Amount:      amount,
		Reason:      strings.TrimSpace(reason),
		Status:      domain.RefundStatusInitiated,
		RequestedAt: s.now(),
	}
	if err := s.payments.Update(ctx, payment); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.publishEvent(ctx, events.Event{
		Type:     events.EventRefundInitiated,
		EntityID: payment.ID,
		Actor:    customerActor(customerID),
		Payload: events.RefundInitiatedPayload{
			Amount: amount,
			Reason: payment.Refund.Reason,
		},
	})
	return payment, nil
}

// CompleteRefund settles an initiated refund and moves the payment to
// its refunded terminal state.
func (s *PaymentService) CompleteRefund(ctx context.Context, paymentID string) (*domain.Payment, error) {
	payment, err := s.getPayment(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if payment.Refund == nil || payment.Refund.Status != domain.RefundStatusInitiated {
		return nil, apperrors.NewDomainRule("no refund in progress", nil)
	}
	payment.Refund.Status = domain.RefundStatusCompleted
	payment.Status = domain.PaymentStatusRefunded
	if err := s.payments.Update(ctx, payment); err != nil {
		return nil, apperrors.MapError(err)
	}
	return payment, nil
}

// ListCustomerPayments returns paginated payments for an owner.
func (s *PaymentService) ListCustomerPayments(ctx context.Context, customerID string, filter repository.PaymentFilter) ([]domain.Payment, error) {
	filter.CustomerID = &customerID
	payments, err := s.payments.ListWithFilter(ctx, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return payments, nil
}

// GetPaymentForCustomer fetches a payment ensuring ownership.
func (s *PaymentService) GetPaymentForCustomer(ctx context.Context, customerID, paymentID string) (*domain.Payment, error) {
	payment, err := s.getPayment(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if payment.CustomerID != customerID {
		return nil, apperrors.NewForbidden("access denied")
	}
	return payment, nil
}

func (s *PaymentService) getPayment(ctx context.Context, paymentID string) (*domain.Payment, error) {
	payment, err := s.payments.GetByID(ctx, paymentID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("payment", map[string]any{"payment_id": paymentID})
		}
		return nil, apperrors.MapError(err)
	}
	return payment, nil
}

func isTerminalPaymentStatus(status domain.PaymentStatus) bool {
	switch status {
	case domain.PaymentStatusSuccess, domain.PaymentStatusFailed, domain.PaymentStatusRefunded:
		return true
	}
	return false
}

// renderInvoice is a best-effort side effect of success; failures are
// logged and swallowed.
func (s *PaymentService) renderInvoice(ctx context.Context, payment *domain.Payment) {
	if s.invoices == nil {
		return
	}
	customer, err := s.customers.GetByID(ctx, payment.CustomerID)
	if err != nil {
		s.logger.Warn("invoice skipped: customer lookup failed", zap.String("payment_id", payment.ID), zap.Error(err))
		return
	}
	project, err := s.projects.GetByID(ctx, payment.ProjectID)
	if err != nil {
		s.logger.Warn("invoice skipped: project lookup failed", zap.String("payment_id", payment.ID), zap.Error(err))
		return
	}
	if _, err := s.invoices.Render(invoice.Data{
		Payment:  payment,
		Customer: customer,
		Project:  project,
		IssuedAt: s.now(),
	}); err != nil {
		s.logger.Warn("invoice render failed", zap.String("payment_id", payment.ID), zap.Error(err))
	}
}

// advanceFunnel is the explicit cross-entity stage transition. It only
// ever moves the stage forward and never fails the payment flow.
func (s *PaymentService) advanceFunnel(ctx context.Context, customerID string, stage domain.FunnelStage) {
	if err := advanceCustomerStage(ctx, s.customers, customerID, stage); err != nil {
		s.logger.Warn("funnel stage advance failed", zap.String("customer_id", customerID), zap.Error(err))
	}
}

func (s *PaymentService) publishPaymentEvent(ctx context.Context, eventType events.EventType, actor events.Actor, payment *domain.Payment) {
	s.publishEvent(ctx, events.Event{
		Type:     eventType,
		EntityID: payment.ID,
		Actor:    actor,
		Payload: events.PaymentStatusPayload{
			Status:        payment.Status,
			Amount:        payment.Amount,
			Type:          payment.Type,
			ReceiptNumber: payment.ReceiptNumber,
			FailureReason: payment.FailureReason,
		},
	})
}

func (s *PaymentService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = s.now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}
