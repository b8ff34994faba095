package entities

// Actor identifies who is performing an operation. It comes from the external
// identity provider; the core trusts the claims but performs its own
// authorization checks (refunds require RoleAdmin).

type Actor struct {
	ID   string `json:"id"`
	Role string `json:"role"`
	Tier string `json:"tier,omitempty"`
}

const (
	RoleNarocnik = "narocnik"
	RoleObrtnik  = "obrtnik"
	RoleAdmin    = "admin"
)

func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}
