package request

import "strings"

// AuthorizeEscrowRequest starts an escrow hold for an accepted offer.
// GrossAmount is in integer minor currency units.
type AuthorizeEscrowRequest struct {
	OfferID     string `json:"offer_id" binding:"required"`
	GrossAmount int64  `json:"gross_amount" binding:"required"`
}

func (r AuthorizeEscrowRequest) ResolveOfferID() string {
	return strings.TrimSpace(r.OfferID)
}

// RefundEscrowRequest asks for a full refund when Amount is zero, otherwise
// a partial refund of Amount minor units.
type RefundEscrowRequest struct {
	Reason string `json:"reason"`
	Amount int64  `json:"amount"`
}

type DisputeEscrowRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// ResolveDisputeRequest carries the admin verdict: "release" or "refund".
type ResolveDisputeRequest struct {
	Outcome string `json:"outcome" binding:"required"`
}

func (r ResolveDisputeRequest) ResolveOutcome() string {
	return strings.ToLower(strings.TrimSpace(r.Outcome))
}
