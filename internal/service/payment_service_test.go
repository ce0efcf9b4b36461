package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/realtydesk/realty-service/internal/config"
	"github.com/realtydesk/realty-service/internal/domain"
	"github.com/realtydesk/realty-service/internal/events"
)

type paymentFixture struct {
	service    *PaymentService
	payments   *fakePaymentRepo
	customers  *fakeCustomerRepo
	projects   *fakeProjectRepo
	dispatcher *recordingDispatcher
	clock      *fakeClock
	customer   *domain.Customer
	project    *domain.Project
}

func newPaymentFixture(t *testing.T) *paymentFixture {
	t.Helper()
	clock := &fakeClock{now: time.Date(2025, 3, 15, 12, 0, 0, 0, time.UTC)}
	payments := newFakePaymentRepo()
	customers := newFakeCustomerRepo()
	projects := newFakeProjectRepo()
	dispatcher := &recordingDispatcher{}

	customer := &domain.Customer{Name: "Ravi", Email: "ravi@example.com", Status: domain.CustomerStatusActive, Stage: domain.FunnelStageNegotiation}
	require.NoError(t, customers.Create(context.Background(), customer))
	project := &domain.Project{Name: "Lakeview Heights", City: "Pune", Status: domain.ProjectStatusReady, Active: true}
	require.NoError(t, projects.Create(context.Background(), project))

	svc := NewPaymentService(PaymentDependencies{
		PaymentRepo:  payments,
		CustomerRepo: customers,
		ProjectRepo:  projects,
		SequenceRepo: newFakeSequenceRepo(),
		Dispatcher:   dispatcher,
		Logger:       zap.NewNop(),
		Config: config.PaymentsConfig{
			GatewayProvider: "razorpay",
			Currency:        "INR",
			EMIGraceDays:    7,
		},
		Now: clock.Now,
	})
	return &paymentFixture{
		service:    svc,
		payments:   payments,
		customers:  customers,
		projects:   projects,
		dispatcher: dispatcher,
		clock:      clock,
		customer:   customer,
		project:    project,
	}
}

func (f *paymentFixture) initiate(t *testing.T, method domain.PaymentMethod, amount int64) *domain.Payment {
	t.Helper()
	payment, err := f.service.Initiate(context.Background(), f.customer.ID, PaymentCreateInput{
		ProjectID: f.project.ID,
		Amount:    amount,
		Type:      domain.PaymentTypeBooking,
		Method:    method,
	})
	require.NoError(t, err)
	return payment
}

func TestInitiatePayment(t *testing.T) {
	t.Run("online methods get a gateway order", func(t *testing.T) {
		f := newPaymentFixture(t)
		payment := f.initiate(t, domain.PaymentMethodCard, 100000)

		assert.Equal(t, domain.PaymentStatusPending, payment.Status)
		assert.Equal(t, "INR", payment.Currency)
		assert.Equal(t, "razorpay", payment.Gateway.Provider)
		assert.NotEmpty(t, payment.Gateway.OrderID)
		assert.Nil(t, payment.ReceiptNumber)
		assert.Len(t, f.dispatcher.byType(events.EventPaymentInitiated), 1)
	})

	t.Run("offline methods skip the gateway", func(t *testing.T) {
		f := newPaymentFixture(t)
		payment := f.initiate(t, domain.PaymentMethodCheque, 250000)
		assert.Empty(t, payment.Gateway.OrderID)
	})

	t.Run("rejects non-positive amounts", func(t *testing.T) {
		f := newPaymentFixture(t)
		_, err := f.service.Initiate(context.Background(), f.customer.ID, PaymentCreateInput{
			ProjectID: f.project.ID,
			Amount:    0,
			Method:    domain.PaymentMethodUPI,
		})
		assertDomainCode(t, err, "VALIDATION_FAILED")
	})

	t.Run("rejects inactive project", func(t *testing.T) {
		f := newPaymentFixture(t)
		f.project.Active = false
		require.NoError(t, f.projects.Update(context.Background(), f.project))

		_, err := f.service.Initiate(context.Background(), f.customer.ID, PaymentCreateInput{
			ProjectID: f.project.ID,
			Amount:    1000,
			Method:    domain.PaymentMethodUPI,
		})
		assertDomainCode(t, err, "CONFLICT")
	})
}

func TestMarkSuccess(t *testing.T) {
	t.Run("assigns a receipt exactly once and advances the funnel", func(t *testing.T) {
		f := newPaymentFixture(t)
		payment := f.initiate(t, domain.PaymentMethodUPI, 500000)

		settled, err := f.service.MarkSuccess(context.Background(), payment.ID, GatewayConfirmation{
			GatewayPaymentID: "pay_abc",
			Signature:        "sig_abc",
		})
		require.NoError(t, err)

		assert.Equal(t, domain.PaymentStatusSuccess, settled.Status)
		require.NotNil(t, settled.ReceiptNumber)
		assert.Equal(t, "RCP-202503-000001", *settled.ReceiptNumber)
		require.NotNil(t, settled.PaidAt)
		assert.Equal(t, "pay_abc", settled.Gateway.PaymentID)

		customer, err := f.customers.GetByID(context.Background(), f.customer.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.FunnelStageBuyer, customer.Stage)

		assert.Len(t, f.dispatcher.byType(events.EventPaymentSucceeded), 1)
	})

	t.Run("settled payments cannot succeed again", func(t *testing.T) {
		f := newPaymentFixture(t)
		payment := f.initiate(t, domain.PaymentMethodUPI, 500000)
		_, err := f.service.MarkSuccess(context.Background(), payment.ID, GatewayConfirmation{})
		require.NoError(t, err)

		_, err = f.service.MarkSuccess(context.Background(), payment.ID, GatewayConfirmation{})
		assertDomainCode(t, err, "DOMAIN_RULE_VIOLATION")
	})

	t.Run("invoice failure does not roll back success", func(t *testing.T) {
		f := newPaymentFixture(t)
		f.service.invoices = failingRenderer{}
		payment := f.initiate(t, domain.PaymentMethodCard, 75000)

		settled, err := f.service.MarkSuccess(context.Background(), payment.ID, GatewayConfirmation{})
		require.NoError(t, err)
		assert.Equal(t, domain.PaymentStatusSuccess, settled.Status)
		require.NotNil(t, settled.ReceiptNumber)
	})
}

func TestMarkFailed(t *testing.T) {
	f := newPaymentFixture(t)
	payment := f.initiate(t, domain.PaymentMethodNetBanking, 30000)

	failed, err := f.service.MarkFailed(context.Background(), payment.ID, "insufficient funds")
	require.NoError(t, err)

	assert.Equal(t, domain.PaymentStatusFailed, failed.Status)
	require.NotNil(t, failed.FailureReason)
	assert.Equal(t, "insufficient funds", *failed.FailureReason)
	assert.Equal(t, 1, failed.Attempts)
	assert.Nil(t, failed.ReceiptNumber)

	// A failed attempt stays terminal; the retry is a new document.
	_, err = f.service.MarkSuccess(context.Background(), payment.ID, GatewayConfirmation{})
	assertDomainCode(t, err, "DOMAIN_RULE_VIOLATION")

	retry := f.initiate(t, domain.PaymentMethodNetBanking, 30000)
	assert.NotEqual(t, payment.ID, retry.ID)
	assert.Equal(t, domain.PaymentStatusPending, retry.Status)
}

func TestRefunds(t *testing.T) {
	t.Run("refund over the paid amount is rejected", func(t *testing.T) {
		f := newPaymentFixture(t)
		payment := f.initiate(t, domain.PaymentMethodUPI, 100000)
		_, err := f.service.MarkSuccess(context.Background(), payment.ID, GatewayConfirmation{})
		require.NoError(t, err)

		_, err = f.service.InitiateRefund(context.Background(), f.customer.ID, payment.ID, 150000, "overcharged")
		assertDomainCode(t, err, "DOMAIN_RULE_VIOLATION")
	})

	t.Run("partial refund goes through the full flow", func(t *testing.T) {
		f := newPaymentFixture(t)
		payment := f.initiate(t, domain.PaymentMethodUPI, 100000)
		settled, err := f.service.MarkSuccess(context.Background(), payment.ID, GatewayConfirmation{})
		require.NoError(t, err)
		require.NotNil(t, settled.ReceiptNumber)
		receipt := *settled.ReceiptNumber

		refunding, err := f.service.InitiateRefund(context.Background(), f.customer.ID, payment.ID, 50000, "partial cancellation")
		require.NoError(t, err)
		require.NotNil(t, refunding.Refund)
		assert.Equal(t, domain.RefundStatusInitiated, refunding.Refund.Status)
		assert.Equal(t, int64(50000), refunding.Refund.Amount)
		assert.Equal(t, domain.PaymentStatusSuccess, refunding.Status)
		assert.Len(t, f.dispatcher.byType(events.EventRefundInitiated), 1)

		completed, err := f.service.CompleteRefund(context.Background(), payment.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.PaymentStatusRefunded, completed.Status)
		assert.Equal(t, domain.RefundStatusCompleted, completed.Refund.Status)

		// The receipt assigned at settlement survives every later save.
		stored, err := f.payments.GetByID(context.Background(), payment.ID)
		require.NoError(t, err)
		require.NotNil(t, stored.ReceiptNumber)
		assert.Equal(t, receipt, *stored.ReceiptNumber)
	})

	t.Run("pending payments cannot be refunded", func(t *testing.T) {
		f := newPaymentFixture(t)
		payment := f.initiate(t, domain.PaymentMethodUPI, 100000)
		_, err := f.service.InitiateRefund(context.Background(), f.customer.ID, payment.ID, 1000, "changed my mind")
		assertDomainCode(t, err, "DOMAIN_RULE_VIOLATION")
	})

	t.Run("only the owner can request a refund", func(t *testing.T) {
		f := newPaymentFixture(t)
		payment := f.initiate(t, domain.PaymentMethodUPI, 100000)
		_, err := f.service.MarkSuccess(context.Background(), payment.ID, GatewayConfirmation{})
		require.NoError(t, err)

		_, err = f.service.InitiateRefund(context.Background(), "someone-else", payment.ID, 1000, "")
		assertDomainCode(t, err, "FORBIDDEN")
	})
}

func TestOwnershipReads(t *testing.T) {
	f := newPaymentFixture(t)
	payment := f.initiate(t, domain.PaymentMethodCash, 5000)

	got, err := f.service.GetPaymentForCustomer(context.Background(), f.customer.ID, payment.ID)
	require.NoError(t, err)
	assert.Equal(t, payment.ID, got.ID)

	_, err = f.service.GetPaymentForCustomer(context.Background(), "intruder", payment.ID)
	assertDomainCode(t, err, "FORBIDDEN")
}
