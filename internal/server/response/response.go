// Package response provides standardized HTTP response structures and helpers
// for the parcelscope API server. All API responses follow a consistent format
// with a data field for successful responses and an error field for failures.
package response

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/parcelscope/parcelscope/pkg/errors"
)

// Response represents the standardized API response structure.
// All endpoints return this format for consistency.
type Response struct {
	Data  any    `json:"data"`
	Error *Error `json:"error"`
}

// Error represents an API error with code, message, and optional details.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// Success creates a successful response with data.
func Success(data any) Response {
	return Response{
		Data:  data,
		Error: nil,
	}
}

// Fail creates an error response.
func Fail(code, message, details string) Response {
	return Response{
		Data: nil,
		Error: &Error{
			Code:    code,
			Message: message,
			Details: details,
		},
	}
}

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, resp Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// Encoding errors are ignored as headers are already sent (best effort)
	_ = json.NewEncoder(w).Encode(resp)
}

// OK writes a successful response with 200 status.
func OK(w http.ResponseWriter, data any) {
	JSON(w, http.StatusOK, Success(data))
}

// BadRequest writes a 400 error response.
func BadRequest(w http.ResponseWriter, message, details string) {
	JSON(w, http.StatusBadRequest, Fail("BAD_REQUEST", message, details))
}

// NotFound writes a 404 error response.
func NotFound(w http.ResponseWriter, message, details string) {
	JSON(w, http.StatusNotFound, Fail("NOT_FOUND", message, details))
}

// MethodNotAllowed writes a 405 error response.
func MethodNotAllowed(w http.ResponseWriter, method string) {
	JSON(w, http.StatusMethodNotAllowed, Fail(
		"METHOD_NOT_ALLOWED",
		"Method not allowed",
		"Method "+method+" is not supported for this endpoint",
	))
}

// RateLimited writes a 429 error response.
func RateLimited(w http.ResponseWriter, message string) {
	JSON(w, http.StatusTooManyRequests, Fail(
		"RATE_LIMITED",
		"Rate limit exceeded",
		message,
	))
}

// InternalError writes a 500 error response.
func InternalError(w http.ResponseWriter, _ error) {
	// Log the actual error but don't expose details to client
	JSON(w, http.StatusInternalServerError, Fail(
		"INTERNAL_ERROR",
		"Internal server error",
		"An unexpected error occurred",
	))
}

// BadGateway writes a 502 error response for upstream provider failures.
func BadGateway(w http.ResponseWriter, message, details string) {
	JSON(w, http.StatusBadGateway, Fail("PROVIDER_ERROR", message, details))
}

// GatewayTimeout writes a 504 error response for upstream provider timeouts.
func GatewayTimeout(w http.ResponseWriter, message string) {
	JSON(w, http.StatusGatewayTimeout, Fail(
		"PROVIDER_TIMEOUT",
		"Upstream provider timed out",
		message,
	))
}

// ServiceUnavailable writes a 503 error response.
func ServiceUnavailable(w http.ResponseWriter, message string) {
	JSON(w, http.StatusServiceUnavailable, Fail(
		"SERVICE_UNAVAILABLE",
		"Service unavailable",
		message,
	))
}

// ErrorFromType maps typed errors to appropriate HTTP responses. Provider
// failures surface as gateway errors so clients can distinguish engine bugs
// from upstream trouble.
func ErrorFromType(w http.ResponseWriter, err error) {
	switch e := err.(type) {
	case *errors.NotFoundError:
		NotFound(w, e.Error(), "")
	case *errors.ValidationError:
		BadRequest(w, e.Error(), "")
	case *errors.AuthenticationError:
		BadGateway(w, "Provider authentication failed", e.Provider)
	case *errors.TimeoutError:
		GatewayTimeout(w, e.Error())
	case *errors.ResolutionError:
		resolutionError(w, e)
	case *errors.APIError:
		apiError(w, e)
	default:
		if errors.IsRateLimited(err) {
			RateLimited(w, "Upstream provider rate limit exceeded")
			return
		}
		if errors.IsTimeout(err) {
			GatewayTimeout(w, "Upstream provider timed out")
			return
		}
		InternalError(w, err)
	}
}

// resolutionError unwraps a pipeline failure to its cause and reports which
// stages had already completed.
func resolutionError(w http.ResponseWriter, e *errors.ResolutionError) {
	details := ""
	if len(e.Partial) > 0 {
		details = "completed: " + strings.Join(e.Partial, ", ")
	}
	switch {
	case errors.IsValidationError(e.Err):
		BadRequest(w, e.Error(), details)
	case errors.IsTimeout(e.Err):
		GatewayTimeout(w, e.Error())
	case errors.IsRateLimited(e.Err):
		RateLimited(w, e.Error())
	default:
		BadGateway(w, e.Error(), details)
	}
}

func apiError(w http.ResponseWriter, e *errors.APIError) {
	switch {
	case e.StatusCode == http.StatusTooManyRequests:
		RateLimited(w, e.Error())
	case e.StatusCode >= 500:
		BadGateway(w, e.Error(), "")
	default:
		BadRequest(w, e.Error(), "")
	}
}
