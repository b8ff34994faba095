package response

import (
	"time"

	"mojster_trust/internal/domain/entities"
)

type InquiryResponse struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"owner_id"`
	Category  string    `json:"category"`
	Location  string    `json:"location,omitempty"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func FromInquiry(i entities.Inquiry) InquiryResponse {
	return InquiryResponse{
		ID:        i.ID,
		OwnerID:   i.OwnerID,
		Category:  i.Category,
		Location:  i.Location,
		Status:    string(i.Status),
		CreatedAt: i.CreatedAt,
		UpdatedAt: i.UpdatedAt,
	}
}
