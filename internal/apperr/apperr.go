// Package apperr defines the typed errors returned by the dashboard services and
// their mapping from backend failures.
package apperr

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/sirupsen/logrus"
	"github.com/ukydev/logistics-dashboard/internal/db"
)

// Kind is the closed set of error categories.
type Kind int

const (
	KindAPI Kind = iota
	KindDatabase
	KindValidation
	KindNotFound
	KindAuthentication
	KindAuthorization
)

func (k Kind) String() string {
	switch k {
	case KindDatabase:
		return "database"
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindAuthentication:
		return "authentication"
	case KindAuthorization:
		return "authorization"
	default:
		return "api"
	}
}

// Error codes reported to callers.
const (
	CodeDatabase       = "DATABASE_ERROR"
	CodeValidation     = "VALIDATION_ERROR"
	CodeNotFound       = "NOT_FOUND"
	CodeAuthentication = "AUTHENTICATION_ERROR"
	CodeAuthorization  = "AUTHORIZATION_ERROR"
	CodeInternal       = "INTERNAL_ERROR"
	CodeUnknown        = "UNKNOWN_ERROR"
)

const unexpectedMessage = "An unexpected error occurred"

// Details carries structured context such as the offending field or constraint.
type Details map[string]interface{}

// Error is a classified failure with an HTTP status and a stable code.
type Error struct {
	Kind       Kind
	Code       string
	StatusCode int
	Message    string
	Details    Details
	cause      error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// Database reports a backend fault.
func Database(message string, details Details, cause error) *Error {
	return &Error{Kind: KindDatabase, Code: CodeDatabase, StatusCode: http.StatusInternalServerError, Message: message, Details: details, cause: cause}
}

// Validation reports invalid caller input or a violated constraint.
func Validation(message string, details Details) *Error {
	return &Error{Kind: KindValidation, Code: CodeValidation, StatusCode: http.StatusBadRequest, Message: message, Details: details}
}

// NotFound reports a missing resource.
func NotFound(message string, details Details) *Error {
	return &Error{Kind: KindNotFound, Code: CodeNotFound, StatusCode: http.StatusNotFound, Message: message, Details: details}
}

// Authentication reports missing or invalid credentials.
func Authentication(message string, details Details) *Error {
	return &Error{Kind: KindAuthentication, Code: CodeAuthentication, StatusCode: http.StatusUnauthorized, Message: message, Details: details}
}

// Authorization reports insufficient permissions.
func Authorization(message string, details Details) *Error {
	return &Error{Kind: KindAuthorization, Code: CodeAuthorization, StatusCode: http.StatusForbidden, Message: message, Details: details}
}

// FromBackend maps a store failure onto the taxonomy. Errors that are not
// backend errors pass through unchanged.
func FromBackend(err error) error {
	if err == nil {
		return nil
	}
	var ae *Error
	if errors.As(err, &ae) {
		return ae
	}
	var be *db.BackendError
	if !errors.As(err, &be) {
		return err
	}

	var mapped *Error
	switch be.Code {
	case db.CodeNoRows:
		mapped = NotFound("Resource not found", Details{"details": be.Details})
	case db.CodeInsufficientPrivilege:
		mapped = Authorization("Insufficient permissions", nil)
	case db.CodeInvalidPassword, db.CodeInvalidJWT:
		mapped = Authentication("Invalid authentication credentials", nil)
	case db.CodeUniqueViolation:
		mapped = Validation("Duplicate entry", Details{"field": be.Details})
	case db.CodeCheckViolation:
		mapped = Validation("Invalid data", Details{"constraint": be.Details})
	case db.CodeForeignKeyViolation:
		mapped = Validation("Referenced resource does not exist", Details{"constraint": be.Details})
	default:
		mapped = Database("Database operation failed", Details{
			"code":    be.Code,
			"message": be.Message,
			"details": be.Details,
			"hint":    be.Hint,
		}, nil)
	}
	mapped.cause = be
	return mapped
}

// Handle is the second mapping stage: typed errors pass unchanged and anything
// else becomes a generic internal error.
func Handle(err error) error {
	if err == nil {
		return nil
	}
	var ae *Error
	if errors.As(err, &ae) {
		return ae
	}
	return &Error{
		Kind:       KindAPI,
		Code:       CodeInternal,
		StatusCode: http.StatusInternalServerError,
		Message:    err.Error(),
		Details:    Details{"original_error": err.Error()},
		cause:      err,
	}
}

// FromPanic classifies a recovered panic value.
func FromPanic(v interface{}) *Error {
	if err, ok := v.(error); ok {
		return Handle(err).(*Error)
	}
	return &Error{
		Kind:       KindAPI,
		Code:       CodeUnknown,
		StatusCode: http.StatusInternalServerError,
		Message:    unexpectedMessage,
		Details:    Details{"error": fmt.Sprint(v)},
	}
}

// Message returns a human-readable message for any error.
func Message(err error) string {
	var ae *Error
	switch {
	case err == nil:
		return unexpectedMessage
	case errors.As(err, &ae):
		return ae.Message
	default:
		return err.Error()
	}
}

// Summary describes an error as reported to callers.
type Summary struct {
	Code       string  `json:"code"`
	StatusCode int     `json:"status_code"`
	Details    Details `json:"details,omitempty"`
}

// DetailsOf returns the code, status and details of any error. Unclassified
// errors report UNKNOWN_ERROR.
func DetailsOf(err error) Summary {
	var ae *Error
	if errors.As(err, &ae) {
		return Summary{Code: ae.Code, StatusCode: ae.StatusCode, Details: ae.Details}
	}
	s := Summary{Code: CodeUnknown, StatusCode: http.StatusInternalServerError}
	if err != nil {
		s.Details = Details{"error": err.Error()}
	}
	return s
}

// KindOf returns the kind of err, or KindAPI when it is not classified.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindAPI
}

// Is reports whether err is classified with kind k.
func Is(err error, k Kind) bool {
	var ae *Error
	return errors.As(err, &ae) && ae.Kind == k
}

type body struct {
	Error payload `json:"error"`
}

type payload struct {
	Code    string  `json:"code"`
	Message string  `json:"message"`
	Details Details `json:"details,omitempty"`
}

// WriteJSON renders err as {"error": {...}} with the status of its kind.
// Internal errors are logged; their details stay server side.
func WriteJSON(w http.ResponseWriter, err error) {
	var ae *Error
	if !errors.As(Handle(err), &ae) {
		return
	}
	p := payload{Code: ae.Code, Message: ae.Message, Details: ae.Details}
	if ae.StatusCode >= http.StatusInternalServerError {
		logrus.WithFields(logrus.Fields{"code": ae.Code, "kind": ae.Kind.String()}).WithError(err).Error("request failed")
		p.Details = nil
		if ae.Kind == KindAPI {
			p.Message = unexpectedMessage
		}
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(ae.StatusCode)
	if encErr := json.NewEncoder(w).Encode(body{Error: p}); encErr != nil {
		logrus.WithError(encErr).Error("encode error response")
	}
}
