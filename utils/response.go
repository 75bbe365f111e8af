package utils

import "time"

type SuccessResponse struct {
	Success bool      `json:"success"`
	Data    any       `json:"data"`
	Time    time.Time `json:"time"`
}

type ErrorResponse struct {
	Success bool     `json:"success"`
	Error   APIError `json:"error"`
}

// APIError carries a machine-readable code next to the human message.
// Details holds the underlying cause for validation failures.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

func CreateErrorResponse(code, message string) ErrorResponse {
	return ErrorResponse{
		Success: false,
		Error: APIError{
			Code:    code,
			Message: message,
		},
	}
}

// CreateValidationError wraps a request binding failure.
func CreateValidationError(err error) ErrorResponse {
	return ErrorResponse{
		Success: false,
		Error: APIError{
			Code:    "INVALID_REQUEST",
			Message: "request validation failed",
			Details: err.Error(),
		},
	}
}

func CreateSuccessResponse(data any) SuccessResponse {
	return SuccessResponse{
		Success: true,
		Data:    data,
		Time:    time.Now().UTC(),
	}
}
