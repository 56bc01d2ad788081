package dto

import "time"

// ErrorResponse is the JSON body of every non-2xx response.
type ErrorResponse struct {
	Message      string    `json:"message" example:"invalid request"`
	ErrorDetails string    `json:"error,omitempty" example:"from: expected YYYY-MM-DD"`
	Timestamp    time.Time `json:"timestamp" example:"2025-11-03T14:30:00Z"`
}

// NewErrorResponse builds an ErrorResponse stamped with the current UTC time.
// err may be nil.
func NewErrorResponse(message string, err error) ErrorResponse {
	resp := ErrorResponse{Message: message, Timestamp: time.Now().UTC()}
	if err != nil {
		resp.ErrorDetails = err.Error()
	}
	return resp
}

func (e ErrorResponse) Error() string {
	if e.ErrorDetails == "" {
		return e.Message
	}
	return e.Message + ": " + e.ErrorDetails
}
