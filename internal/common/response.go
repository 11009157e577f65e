package common

import (
	"encoding/json"
	"net/http"
)

// ErrorBody is the error payload returned by the API.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// JSON writes v as a JSON response with the given status. A value that cannot be encoded is
// reported as a 500 instead of an empty body under the original status.
func JSON(w http.ResponseWriter, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		status = http.StatusInternalServerError
		body, _ = json.Marshal(map[string]any{
			"error": ErrorBody{Code: "INTERNAL", Message: "response could not be encoded"},
		})
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(append(body, '\n'))
}

// JSONError renders an error response using the canonical error shape.
func JSONError(w http.ResponseWriter, status int, code, message string, details any) {
	JSON(w, status, map[string]any{
		"error": ErrorBody{
			Code:    code,
			Message: message,
			Details: details,
		},
	})
}

// WriteError renders err, using its AppError code and status when present.
func WriteError(w http.ResponseWriter, err error) {
	appErr := AsAppError(err)
	JSONError(w, appErr.HTTPStatus, appErr.Code, appErr.Message, appErr.Details)
}
