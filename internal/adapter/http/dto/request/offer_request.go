package request

import "strings"

// CreateOfferRequest is a craftworker's priced bid against an inquiry.
// PriceEstimate is in integer minor currency units.
type CreateOfferRequest struct {
	InquiryID     string `json:"inquiry_id" binding:"required"`
	PriceEstimate int64  `json:"price_estimate" binding:"required"`
}

func (r CreateOfferRequest) ResolveInquiryID() string {
	return strings.TrimSpace(r.InquiryID)
}
