// Package bridge exposes a core.Backend over HTTP and provides a client
// that is itself a core.Backend. It lets a process without storage access
// share another process's store.
package bridge

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
)

const (
	routeGet    = "/store/get"
	routeSet    = "/store/set"
	routeHealth = "/health"
)

type GetRequest struct {
	Key string `json:"key" validate:"required,max=256"`
}

// Values travel as base64 strings so that stored bytes reach the other side
// unchanged, whether or not they are valid JSON.

type GetResponse struct {
	Found bool   `json:"found"`
	Value []byte `json:"value,omitempty"`
}

type SetRequest struct {
	Key   string `json:"key" validate:"required,max=256"`
	Value []byte `json:"value" validate:"required"`
}

type ErrorResponse struct {
	Message  string              `json:"message"`
	Problems map[string][]string `json:"problems,omitempty"`
}

var malformedBody = ErrorResponse{Message: "Malformed request body"}

// validationProblems maps validator errors to per-field messages, or nil
// if err is not a validation error.
func validationProblems(err error) *ErrorResponse {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return nil
	}

	problems := map[string][]string{}
	for _, fe := range ve {
		field := strings.ToLower(fe.Field())

		switch fe.Tag() {
		case "required":
			problems[field] = append(problems[field], "This field is required")
		case "max":
			problems[field] = append(problems[field], "Value is too long, max: "+fe.Param())
		default:
			problems[field] = append(problems[field], "Invalid value provided")
		}
	}

	return &ErrorResponse{Message: "Invalid request", Problems: problems}
}
