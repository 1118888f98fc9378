package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/huongkhe/schoolsite/internal/auth"
	"github.com/huongkhe/schoolsite/internal/content"
	"github.com/huongkhe/schoolsite/internal/docstore"
	"github.com/huongkhe/schoolsite/internal/media"
	"github.com/huongkhe/schoolsite/internal/validation"
)

// Error codes reported in the envelope.
const (
	CodeNoToken            = "NO_TOKEN"
	CodeTokenExpired       = "TOKEN_EXPIRED"
	CodeInvalidToken       = "INVALID_TOKEN"
	CodeForbidden          = "FORBIDDEN"
	CodeInvalidCredentials = "INVALID_CREDENTIALS"
	CodeInvalidPassword    = "INVALID_PASSWORD"
	CodeWeakPassword       = "WEAK_PASSWORD"
	CodeValidation         = "VALIDATION_ERROR"
	CodeNotFound           = "NOT_FOUND"
	CodeBadRequest         = "BAD_REQUEST"
	CodeUnavailable        = "SERVICE_UNAVAILABLE"
	CodeInternal           = "INTERNAL_ERROR"
)

// Problem is an error with its HTTP status and envelope fields.
// Handlers return it, or any error that toProblem can classify.
type Problem struct {
	Status  int
	Code    string
	Message string

	// Details is extra information for the client. It is sent in every
	// environment when Expose is set, otherwise only in development.
	Details any
	Expose  bool

	// Err is the underlying cause. It is logged, never sent outside
	// development.
	Err error

	// Stack overrides the reported stack, used for recovered panics.
	Stack string
}

func (p *Problem) Error() string {
	if p.Err != nil {
		return fmt.Sprintf("%s: %s: %v", p.Code, p.Message, p.Err)
	}
	return p.Code + ": " + p.Message
}

func (p *Problem) Unwrap() error {
	return p.Err
}

// errorBody is the "error" member of the envelope.
type errorBody struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
	Details   any    `json:"details,omitempty"`
	Stack     string `json:"stack,omitempty"`
}

type errorEnvelope struct {
	Success bool      `json:"success"`
	Error   errorBody `json:"error"`
}

func notFound(message string) *Problem {
	return &Problem{Status: http.StatusNotFound, Code: CodeNotFound, Message: message}
}

func badRequest(message string, err error) *Problem {
	return &Problem{Status: http.StatusBadRequest, Code: CodeBadRequest, Message: message, Err: err}
}

// toProblem classifies err. Anything unrecognised is a 500.
func toProblem(err error) *Problem {
	var (
		p        *Problem
		verrs    validation.Errors
		weak     *auth.WeakPasswordError
		rejected *docstore.RejectedError
		maxErr   *http.MaxBytesError
	)

	switch {
	case errors.As(err, &p):
		return p
	case errors.As(err, &verrs):
		return &Problem{
			Status:  http.StatusBadRequest,
			Code:    CodeValidation,
			Message: "Validation failed",
			Details: verrs,
			Expose:  true,
			Err:     err,
		}
	case errors.As(err, &maxErr):
		return &Problem{
			Status:  http.StatusRequestEntityTooLarge,
			Code:    CodeBadRequest,
			Message: fmt.Sprintf("Request body exceeds %d bytes", maxErr.Limit),
			Err:     err,
		}
	case errors.Is(err, content.ErrNotFound):
		return notFound("Resource not found")
	case errors.As(err, &rejected):
		return badRequest(rejected.Reason, err)
	case errors.Is(err, docstore.ErrRejected):
		return badRequest("Request rejected by the store", err)

	case errors.Is(err, auth.ErrNoToken):
		return &Problem{Status: http.StatusUnauthorized, Code: CodeNoToken, Message: "No token provided", Err: err}
	case errors.Is(err, auth.ErrTokenExpired):
		return &Problem{Status: http.StatusUnauthorized, Code: CodeTokenExpired, Message: "Token expired", Err: err}
	case errors.Is(err, auth.ErrTokenInvalid):
		return &Problem{Status: http.StatusUnauthorized, Code: CodeInvalidToken, Message: "Invalid token", Err: err}
	case errors.Is(err, auth.ErrForbidden):
		return &Problem{Status: http.StatusForbidden, Code: CodeForbidden, Message: "Access denied", Err: err}
	case errors.Is(err, auth.ErrInvalidCredentials):
		return &Problem{Status: http.StatusUnauthorized, Code: CodeInvalidCredentials, Message: "Invalid username or password", Err: err}
	case errors.Is(err, auth.ErrInvalidPassword):
		return &Problem{Status: http.StatusUnauthorized, Code: CodeInvalidPassword, Message: "Old password is incorrect", Err: err}
	case errors.As(err, &weak):
		return &Problem{
			Status:  http.StatusBadRequest,
			Code:    CodeWeakPassword,
			Message: "Password does not meet security requirements",
			Details: weak.Unmet,
			Expose:  true,
			Err:     err,
		}

	case errors.Is(err, media.ErrEmpty), errors.Is(err, media.ErrUnsupportedType):
		return badRequest(strings.TrimPrefix(err.Error(), "media: "), err)
	case errors.Is(err, media.ErrTooLarge):
		return &Problem{
			Status:  http.StatusRequestEntityTooLarge,
			Code:    CodeBadRequest,
			Message: strings.TrimPrefix(err.Error(), "media: "),
			Err:     err,
		}
	}

	return &Problem{Status: http.StatusInternalServerError, Code: CodeInternal, Message: "Internal server error", Err: err}
}

// errorChain lists err and every error it wraps, outermost first.
func errorChain(err error) string {
	var lines []string
	queue := []error{err}
	for len(queue) > 0 {
		e := queue[0]
		queue = queue[1:]
		if e == nil {
			continue
		}
		lines = append(lines, fmt.Sprintf("%T: %v", e, e))
		switch u := e.(type) {
		case interface{ Unwrap() error }:
			queue = append(queue, u.Unwrap())
		case interface{ Unwrap() []error }:
			queue = append(queue, u.Unwrap()...)
		}
	}
	return strings.Join(lines, "\n")
}

// writeJSON writes a JSON response with the given status code and payload.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		//nolint:errcheck // Best-effort write to response; connection may be closed
		json.NewEncoder(w).Encode(v)
	}
}

// writeProblem writes the error envelope for p.
func writeProblem(w http.ResponseWriter, p *Problem, dev bool) {
	body := errorBody{
		Code:      p.Code,
		Message:   p.Message,
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
	}
	if p.Expose || dev {
		body.Details = p.Details
	}
	if dev {
		body.Stack = p.Stack
		if body.Stack == "" && p.Err != nil {
			body.Stack = errorChain(p.Err)
		}
	}
	writeJSON(w, p.Status, errorEnvelope{Success: false, Error: body})
}
