package pkg

import "fmt"

// AppError is the application-level error carried from the usecase boundary
// to the HTTP adapter. Code is a stable machine-readable identifier; Message
// is safe to show to API clients; Err keeps the underlying cause for logs.

type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	Err        error  `json:"-"`
	HTTPStatus int    `json:"-"`

	// RetryAfterSeconds is set only for rate-limited responses.
	RetryAfterSeconds int `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NewDomainError(code, message string, err error, httpStatus int) *AppError {
	return &AppError{Code: code, Message: message, Err: err, HTTPStatus: httpStatus}
}

func NewDomainErrorSimple(code, message string, httpStatus int) *AppError {
	return &AppError{Code: code, Message: message, HTTPStatus: httpStatus}
}

func NewRateLimitError(code, message string, httpStatus, retryAfterSeconds int) *AppError {
	return &AppError{Code: code, Message: message, HTTPStatus: httpStatus, RetryAfterSeconds: retryAfterSeconds}
}

// HTTPError is the wire shape of a failed request.
type HTTPError struct {
	Success bool         `json:"success"`
	Error   HTTPErrorBody `json:"error"`
}

type HTTPErrorBody struct {
	Code              string `json:"code"`
	Message           string `json:"message"`
	RetryAfterSeconds int    `json:"retry_after_seconds,omitempty"`
}

func (e *AppError) ToHTTPError() HTTPError {
	return HTTPError{
		Success: false,
		Error: HTTPErrorBody{
			Code:              e.Code,
			Message:           e.Message,
			RetryAfterSeconds: e.RetryAfterSeconds,
		},
	}
}
