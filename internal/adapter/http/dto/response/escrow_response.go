package response

import (
	"time"

	"mojster_trust/internal/domain/entities"
)

// EscrowTransactionResponse mirrors the stored transaction; all amounts are
// integer minor currency units.
type EscrowTransactionResponse struct {
	ID               string     `json:"id"`
	OfferID          string     `json:"offer_id"`
	GrossAmount      int64      `json:"gross_amount"`
	CommissionRateBP int64      `json:"commission_rate_bp"`
	PlatformFee      int64      `json:"platform_fee"`
	PayoutAmount     int64      `json:"payout_amount"`
	Status           string     `json:"status"`
	GatewayRef       string     `json:"gateway_ref,omitempty"`
	RefundRef        string     `json:"refund_ref,omitempty"`
	DisputeReason    string     `json:"dispute_reason,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
	PaidAt           *time.Time `json:"paid_at,omitempty"`
	DisputedAt       *time.Time `json:"disputed_at,omitempty"`
	ReleasedAt       *time.Time `json:"released_at,omitempty"`
	RefundedAt       *time.Time `json:"refunded_at,omitempty"`
}

func FromEscrowTransaction(tx entities.EscrowTransaction) EscrowTransactionResponse {
	return EscrowTransactionResponse{
		ID:               tx.ID,
		OfferID:          tx.OfferID,
		GrossAmount:      tx.GrossAmount,
		CommissionRateBP: tx.CommissionRateBP,
		PlatformFee:      tx.PlatformFee,
		PayoutAmount:     tx.PayoutAmount,
		Status:           string(tx.Status),
		GatewayRef:       tx.GatewayRef,
		RefundRef:        tx.RefundRef,
		DisputeReason:    tx.DisputeReason,
		CreatedAt:        tx.CreatedAt,
		UpdatedAt:        tx.UpdatedAt,
		PaidAt:           tx.PaidAt,
		DisputedAt:       tx.DisputedAt,
		ReleasedAt:       tx.ReleasedAt,
		RefundedAt:       tx.RefundedAt,
	}
}
