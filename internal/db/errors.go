package db

import "fmt"

// Backend error codes. They follow the SQLSTATE and PostgREST codes of the managed
// backend so that every Store adapter speaks the same vocabulary.
const (
	CodeUniqueViolation       = "23505"
	CodeForeignKeyViolation   = "23503"
	CodeCheckViolation        = "23514"
	CodeInsufficientPrivilege = "42501"
	CodeInvalidPassword       = "28P01"
	CodeInvalidJWT            = "PGRST301"
	CodeNoRows                = "PGRST116"
	CodeInvalidQuery          = "PGRST100"
	CodeInternal              = "XX000"
)

// BackendError is a failure reported by a Store.
type BackendError struct {
	Code    string
	Message string
	Details string
	Hint    string
	Err     error
}

func (e *BackendError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s (%s): %s", e.Message, e.Code, e.Details)
	}
	return fmt.Sprintf("%s (%s)", e.Message, e.Code)
}

func (e *BackendError) Unwrap() error { return e.Err }

func noRows(table, id string) *BackendError {
	return &BackendError{
		Code:    CodeNoRows,
		Message: "no rows returned",
		Details: fmt.Sprintf("%s with id %s", table, id),
	}
}

func uniqueViolation(table string, fields []string) *BackendError {
	return &BackendError{
		Code:    CodeUniqueViolation,
		Message: "duplicate key value violates unique constraint",
		Details: fmt.Sprintf("%s%v already exists", table, fields),
	}
}

func foreignKeyViolation(fk ForeignKey, value interface{}) *BackendError {
	return &BackendError{
		Code:    CodeForeignKeyViolation,
		Message: "insert or update violates foreign key constraint",
		Details: fmt.Sprintf("%s.%s=%v is not present in table %q", fk.Table, fk.Field, value, fk.References),
	}
}

func referencedViolation(fk ForeignKey, id string) *BackendError {
	return &BackendError{
		Code:    CodeForeignKeyViolation,
		Message: "update or delete violates foreign key constraint",
		Details: fmt.Sprintf("%s %s is still referenced from table %q", fk.References, id, fk.Table),
	}
}
