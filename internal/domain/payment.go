package domain

import "time"

// PaymentStatus enumerates lifecycle states for payments.
type PaymentStatus string

const (
	PaymentStatusPending    PaymentStatus = "PENDING"
	PaymentStatusProcessing PaymentStatus = "PROCESSING"
	PaymentStatusSuccess    PaymentStatus = "SUCCESS"
	PaymentStatusFailed     PaymentStatus = "FAILED"
	PaymentStatusRefunded   PaymentStatus = "REFUNDED"
)

// PaymentType classifies what the payment is for.
type PaymentType string

const (
	PaymentTypeBooking     PaymentType = "BOOKING"
	PaymentTypeDownPayment PaymentType = "DOWN_PAYMENT"
	PaymentTypeEMI         PaymentType = "EMI"
	PaymentTypeFullPayment PaymentType = "FULL_PAYMENT"
	PaymentTypeOther       PaymentType = "OTHER"
)

// PaymentMethod identifies the instrument used.
type PaymentMethod string

const (
	PaymentMethodCard         PaymentMethod = "CARD"
	PaymentMethodUPI          PaymentMethod = "UPI"
	PaymentMethodNetBanking   PaymentMethod = "NET_BANKING"
	PaymentMethodBankTransfer PaymentMethod = "BANK_TRANSFER"
	PaymentMethodCash         PaymentMethod = "CASH"
	PaymentMethodCheque       PaymentMethod = "CHEQUE"
)

// IsOnline reports whether the method settles through a gateway.
func (m PaymentMethod) IsOnline() bool {
	switch m {
	case PaymentMethodCard, PaymentMethodUPI, PaymentMethodNetBanking:
		return true
	}
	return false
}

// GatewayDetails links a payment to its provider transaction.
type GatewayDetails struct {
	Provider  string `json:"provider,omitempty"`
	OrderID   string `json:"order_id,omitempty"`
	PaymentID string `json:"payment_id,omitempty"`
	Signature string `json:"signature,omitempty"`
}

// RefundStatus tracks progress of an initiated refund.
type RefundStatus string

const (
	RefundStatusInitiated RefundStatus = "INITIATED"
	RefundStatusCompleted RefundStatus = "COMPLETED"
	RefundStatusFailed    RefundStatus = "FAILED"
)

// RefundDetails records a refund against a successful payment.
type RefundDetails struct {
	Amount      int64        `json:"amount"`
	Reason      string       `json:"reason"`
	Status      RefundStatus `json:"status"`
	RequestedAt time.Time    `json:"requested_at"`
}

// PaymentMetadata carries schedule metadata for installment payments.
type PaymentMetadata struct {
	NextDueDate   *time.Time `json:"next_due_date,omitempty"`
	InstallmentNo int        `json:"installment_no,omitempty"`
	Notes         string     `json:"notes,omitempty"`
}

// Payment is one payment attempt. Failed attempts are terminal;
// retries create fresh Payment documents.
type Payment struct {
	ID            string
	CustomerID    string
	ProjectID     string
	Amount        int64
	Currency      string
	Type          PaymentType
	Method        PaymentMethod
	Status        PaymentStatus
	Gateway       GatewayDetails
	ReceiptNumber *string
	Metadata      PaymentMetadata
	Refund        *RefundDetails
	FailureReason *string
	Attempts      int
	PaidAt        *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
