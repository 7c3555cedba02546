package errors

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"

	"github.com/go-chi/render"
)

// Problem types following RFC 7807
const (
	TypeNotFound     = "/errors/not-found"
	TypeInvalidInput = "/errors/invalid-input"
	TypeUnavailable  = "/errors/service-unavailable"
	TypeTimeout      = "/errors/timeout"
	TypeInternal     = "/errors/internal"
	TypeMethod       = "/errors/method-not-allowed"
)

// ProblemDetails is an RFC 7807 error body
type ProblemDetails struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Detail   string `json:"detail,omitempty"`
	Instance string `json:"instance,omitempty"`

	Extensions map[string]interface{} `json:"-"`
}

// NewProblemDetails creates a new RFC 7807 compliant error
func NewProblemDetails(status int, problemType, title, detail, instance string) *ProblemDetails {
	return &ProblemDetails{
		Type:       problemType,
		Title:      title,
		Status:     status,
		Detail:     detail,
		Instance:   instance,
		Extensions: make(map[string]interface{}),
	}
}

// WithExtension adds an extension member to the problem
func (pd *ProblemDetails) WithExtension(key string, value interface{}) *ProblemDetails {
	if pd.Extensions == nil {
		pd.Extensions = make(map[string]interface{})
	}
	pd.Extensions[key] = value
	return pd
}

// Render implements render.Renderer
func (pd *ProblemDetails) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, pd.Status)
	return nil
}

// MarshalJSON flattens extensions into the top-level object
func (pd *ProblemDetails) MarshalJSON() ([]byte, error) {
	data := map[string]interface{}{
		"type":   pd.Type,
		"title":  pd.Title,
		"status": pd.Status,
	}
	if pd.Detail != "" {
		data["detail"] = pd.Detail
	}
	if pd.Instance != "" {
		data["instance"] = pd.Instance
	}
	for k, v := range pd.Extensions {
		data[k] = v
	}
	return json.Marshal(data)
}

// ProblemFor maps err onto a problem, using the AppError type when present
func ProblemFor(err error, instance string) *ProblemDetails {
	if stderrors.Is(err, context.DeadlineExceeded) || stderrors.Is(err, context.Canceled) {
		return NewProblemDetails(http.StatusGatewayTimeout, TypeTimeout, "Request Timeout", err.Error(), instance)
	}

	switch TypeOf(err) {
	case ErrTypeNotFound:
		return NewProblemDetails(http.StatusNotFound, TypeNotFound, "Not Found", err.Error(), instance)
	case ErrTypeInvalidInput, ErrTypeParsing:
		return NewProblemDetails(http.StatusUnprocessableEntity, TypeInvalidInput, "Invalid Input", err.Error(), instance)
	case ErrTypeTransientIO:
		return NewProblemDetails(http.StatusServiceUnavailable, TypeUnavailable, "Service Unavailable", err.Error(), instance)
	default:
		// internal details stay in the logs
		return NewProblemDetails(http.StatusInternalServerError, TypeInternal, "Internal Server Error",
			"An unexpected error occurred", instance)
	}
}

// WriteProblem writes pd as application/problem+json
func WriteProblem(w http.ResponseWriter, pd *ProblemDetails) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(pd.Status)
	_ = json.NewEncoder(w).Encode(pd)
}

// NotFound answers 404 with a problem body
func NotFound(w http.ResponseWriter, r *http.Request) {
	WriteProblem(w, NewProblemDetails(http.StatusNotFound, TypeNotFound, "Not Found",
		"The requested resource was not found", r.URL.Path))
}

// MethodNotAllowed answers 405 with a problem body
func MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	WriteProblem(w, NewProblemDetails(http.StatusMethodNotAllowed, TypeMethod, "Method Not Allowed",
		fmt.Sprintf("Method %s is not allowed for this endpoint", r.Method), r.URL.Path))
}
