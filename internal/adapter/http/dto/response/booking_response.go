package response

type BookingResponse struct {
	CraftworkerID string `json:"craftworker_id"`
	Date          string `json:"date"`
	Time          string `json:"time"`
	Accepted      bool   `json:"accepted"`
}
