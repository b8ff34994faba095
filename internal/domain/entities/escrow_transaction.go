package entities

import "time"

// EscrowStatus represents funds held in trust for one offer.
//
// pending → {paid, failed}; paid → {released, disputed, refunded};
// disputed → {refunded, paid}; released, refunded and failed are terminal.

type EscrowStatus string

const (
	EscrowStatusPending  EscrowStatus = "pending"
	EscrowStatusPaid     EscrowStatus = "paid"
	EscrowStatusFailed   EscrowStatus = "failed"
	EscrowStatusReleased EscrowStatus = "released"
	EscrowStatusDisputed EscrowStatus = "disputed"
	EscrowStatusRefunded EscrowStatus = "refunded"
)

// EscrowTransaction holds one payment in trust pending work completion.
//
// Storage model (DynamoDB):
//   - PK: id
//   - GSI1 (offer_id-index): offer_id
//
// Amounts are integer minor currency units. The invariant
// GrossAmount == PlatformFee + PayoutAmount holds from commission computation
// onward; CommissionRateBP is the basis-point rate snapshotted at creation.

type EscrowTransaction struct {
	ID               string       `json:"id"`
	OfferID          string       `json:"offer_id"`
	GrossAmount      int64        `json:"gross_amount"`
	CommissionRateBP int64        `json:"commission_rate_bp"`
	PlatformFee      int64        `json:"platform_fee"`
	PayoutAmount     int64        `json:"payout_amount"`
	Status           EscrowStatus `json:"status"`
	GatewayRef       string       `json:"gateway_ref,omitempty"`
	RefundRef        string       `json:"refund_ref,omitempty"`
	DisputeReason    string       `json:"dispute_reason,omitempty"`
	CreatedAt        time.Time    `json:"created_at"`
	UpdatedAt        time.Time    `json:"updated_at"`
	PaidAt           *time.Time   `json:"paid_at,omitempty"`
	DisputedAt       *time.Time   `json:"disputed_at,omitempty"`
	ReleasedAt       *time.Time   `json:"released_at,omitempty"`
	RefundedAt       *time.Time   `json:"refunded_at,omitempty"`
}
