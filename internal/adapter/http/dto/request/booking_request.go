package request

// BookingRequest reserves one slot in a craftworker's calendar. Date uses
// YYYY-MM-DD and Time uses HH:MM; InquiryID optionally links the booking to
// an inquiry so acceptance can advance it.
type BookingRequest struct {
	CraftworkerID string `json:"craftworker_id" binding:"required"`
	Date          string `json:"date" binding:"required"`
	Time          string `json:"time" binding:"required"`
	InquiryID     string `json:"inquiry_id"`
}
