package entities

import "time"

// OfferStatus keeps the original marketplace wording: poslana (sent),
// sprejeta (accepted), zavrnjena (rejected).

type OfferStatus string

const (
	OfferStatusPoslana   OfferStatus = "poslana"
	OfferStatusSprejeta  OfferStatus = "sprejeta"
	OfferStatusZavrnjena OfferStatus = "zavrnjena"
)

// Offer is a craftworker's priced bid against exactly one inquiry.
//
// Storage model (DynamoDB):
//   - PK: id
//   - GSI1 (inquiry_id-index): inquiry_id
//
// Tier is the craftworker's subscription tier snapshotted at creation so a
// later tier change never alters the commission of in-flight work.

type Offer struct {
	ID            string      `json:"id"`
	InquiryID     string      `json:"inquiry_id"`
	CraftworkerID string      `json:"craftworker_id"`
	PriceEstimate int64       `json:"price_estimate"`
	Tier          string      `json:"tier"`
	Status        OfferStatus `json:"status"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
}
