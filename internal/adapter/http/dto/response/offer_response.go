package response

import (
	"time"

	"mojster_trust/internal/domain/entities"
)

type OfferResponse struct {
	ID            string    `json:"id"`
	InquiryID     string    `json:"inquiry_id"`
	CraftworkerID string    `json:"craftworker_id"`
	PriceEstimate int64     `json:"price_estimate"`
	Tier          string    `json:"tier"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func FromOffer(o entities.Offer) OfferResponse {
	return OfferResponse{
		ID:            o.ID,
		InquiryID:     o.InquiryID,
		CraftworkerID: o.CraftworkerID,
		PriceEstimate: o.PriceEstimate,
		Tier:          o.Tier,
		Status:        string(o.Status),
		CreatedAt:     o.CreatedAt,
		UpdatedAt:     o.UpdatedAt,
	}
}
