package request

import "strings"

// CreateInquiryRequest opens a customer inquiry for craftworker service.
type CreateInquiryRequest struct {
	Category string `json:"category" binding:"required"`
	Location string `json:"location"`
}

func (r CreateInquiryRequest) ResolveCategory() string {
	return strings.TrimSpace(r.Category)
}
