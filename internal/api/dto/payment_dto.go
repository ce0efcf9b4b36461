package dto

import (
	"time"

	"github.com/realtydesk/realty-service/internal/domain"
)

// InitiatePaymentRequest payload.
type InitiatePaymentRequest struct {
	ProjectID     string               `json:"project_id"`
	Amount        int64                `json:"amount"`
	Type          domain.PaymentType   `json:"type"`
	Method        domain.PaymentMethod `json:"method"`
	NextDueDate   *time.Time           `json:"next_due_date,omitempty"`
	InstallmentNo int                  `json:"installment_no,omitempty"`
	Notes         string               `json:"notes,omitempty"`
}

// ConfirmPaymentRequest carries the gateway callback details.
type ConfirmPaymentRequest struct {
	GatewayPaymentID string `json:"gateway_payment_id"`
	Signature        string `json:"signature"`
}

// FailPaymentRequest payload.
type FailPaymentRequest struct {
	Reason string `json:"reason"`
}

// RefundRequest payload.
type RefundRequest struct {
	Amount int64  `json:"amount"`
	Reason string `json:"reason"`
}

// PaymentResponse is the external payment representation.
type PaymentResponse struct {
	ID            string               `json:"id"`
	CustomerID    string               `json:"customer_id"`
	ProjectID     string               `json:"project_id"`
	Amount        int64                `json:"amount"`
	Currency      string               `json:"currency"`
	Type          domain.PaymentType   `json:"type"`
	Method        domain.PaymentMethod `json:"method"`
	Status        domain.PaymentStatus `json:"status"`
	GatewayOrder  string               `json:"gateway_order_id,omitempty"`
	ReceiptNumber *string              `json:"receipt_number,omitempty"`
	Refund        *RefundResponse      `json:"refund,omitempty"`
	FailureReason *string              `json:"failure_reason,omitempty"`
	Attempts      int                  `json:"attempts"`
	PaidAt        *time.Time           `json:"paid_at,omitempty"`
	CreatedAt     time.Time            `json:"created_at"`
	UpdatedAt     time.Time            `json:"updated_at"`
}

// RefundResponse conveys refund progress.
type RefundResponse struct {
	Amount      int64               `json:"amount"`
	Reason      string              `json:"reason,omitempty"`
	Status      domain.RefundStatus `json:"status"`
	RequestedAt time.Time           `json:"requested_at"`
}
