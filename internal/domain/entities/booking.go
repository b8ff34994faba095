package entities

// BookingSlot is a (craftworker, date, time) key with a bounded count of
// concurrent reservations. Reserved never exceeds the configured cap; the
// repository enforces the cap with a single conditional update.

type BookingSlot struct {
	CraftworkerID string `json:"craftworker_id"`
	Date          string `json:"date"`
	Time          string `json:"time"`
	Reserved      int    `json:"reserved"`
}

// DefaultSlotCap is the observed policy: at most three concurrent
// reservations per slot.
const DefaultSlotCap = 3
