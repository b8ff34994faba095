package entities

import "time"

// InquiryStatus represents the lifecycle of a customer inquiry.
//
// Transitions are monotonic and enforced by the state machine validator;
// once completed or closed the inquiry is immutable.

type InquiryStatus string

const (
	InquiryStatusPending       InquiryStatus = "pending"
	InquiryStatusOfferReceived InquiryStatus = "offer_received"
	InquiryStatusAccepted      InquiryStatus = "accepted"
	InquiryStatusCompleted     InquiryStatus = "completed"
	InquiryStatusClosed        InquiryStatus = "closed"
)

// Inquiry is a customer's request for craftworker service.
//
// Storage model (DynamoDB):
//   - PK: id
//
// Inquiries are never physically deleted; closing is a status transition.

type Inquiry struct {
	ID        string        `json:"id"`
	OwnerID   string        `json:"owner_id"`
	Category  string        `json:"category"`
	Location  string        `json:"location"`
	Status    InquiryStatus `json:"status"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}
