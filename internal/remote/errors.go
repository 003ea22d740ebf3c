package remote

import (
	"encoding/json"
	"errors"
	"strings"
)

type errorBody struct {
	Error string `json:"error"`
}

// errorMessage extracts the {"error": "..."} message the API answers with, falling back to the raw body.
func errorMessage(body []byte) string {
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err == nil && eb.Error != "" {
		return eb.Error
	}
	msg := strings.TrimSpace(string(body))
	if len(msg) > 200 {
		msg = msg[:200]
	}
	return msg
}

// IsConflict reports whether err is a 409 answer from the API.
func IsConflict(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Code == 409
}

// IsNotFound reports whether err is a 404 answer from the API.
func IsNotFound(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Code == 404
}
