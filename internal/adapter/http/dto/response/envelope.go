package response

// Envelope is the wire shape of a successful request. Failures use
// pkg.AppError.ToHTTPError, which carries success=false and an error body.
type Envelope struct {
	Success bool `json:"success"`
	Data    any  `json:"data"`
}

func OK(data any) Envelope {
	return Envelope{Success: true, Data: data}
}
