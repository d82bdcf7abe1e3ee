// Package validation wraps the external credential-validation oracle.
// The oracle enforces password rules and per-role account limits inside
// the database; this package only carries its structured verdict back
// to the caller.  The validator is passed to services explicitly, no
// process-wide registry.
package validation

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
)

// Operation tells the oracle which rule set applies.
type Operation string

const (
	OpInsert Operation = "INSERT"
	OpUpdate Operation = "UPDATE"
)

// FieldError associates one validation message with the field it
// concerns.  Fields come back as stable identifiers ("email",
// "password", "limit"), so callers route messages without sniffing
// their text.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Result is the oracle's verdict: accepted, or rejected with an
// ordered list of field errors.
type Result struct {
	Accepted bool
	Errors   []FieldError
}

// CredentialValidator is the collaborator boundary used by the user
// registration and edit paths.  Implementations must treat the checked
// rules as their own business; callers only consume the verdict.
type CredentialValidator interface {
	Validate(ctx context.Context, password, email, role string, op Operation) (Result, error)
}

// StoredFunctionValidator calls the database-side validation function
// and decodes its JSON result.  The function signature mirrors the
// deployed procedure:
//
//	fn_validate_credentials(password, email, role, operation) -> JSON
//	{"status": "OK" | "REJECTED", "errors": [{"field": "...", "message": "..."}]}
type StoredFunctionValidator struct {
	DB *sql.DB
}

// NewStoredFunctionValidator binds the validator to a database handle.
func NewStoredFunctionValidator(db *sql.DB) *StoredFunctionValidator {
	return &StoredFunctionValidator{DB: db}
}

// Validate invokes the stored function and parses its verdict.  A
// transport or decoding failure is reported as an error, distinct from
// a rejection, so callers never confuse a broken oracle with a bad
// password.
func (v *StoredFunctionValidator) Validate(ctx context.Context, password, email, role string, op Operation) (Result, error) {
	const q = `SELECT fn_validate_credentials(?, ?, ?, ?)`
	var raw []byte
	if err := v.DB.QueryRowContext(ctx, q, password, email, role, string(op)).Scan(&raw); err != nil {
		return Result{}, fmt.Errorf("validation oracle call: %w", err)
	}
	return parseVerdict(raw)
}

// oracleVerdict mirrors the JSON document produced by the stored function.
type oracleVerdict struct {
	Status string       `json:"status"`
	Errors []FieldError `json:"errors"`
}

func parseVerdict(raw []byte) (Result, error) {
	var verdict oracleVerdict
	if err := json.Unmarshal(raw, &verdict); err != nil {
		return Result{}, fmt.Errorf("validation oracle verdict: %w", err)
	}
	switch verdict.Status {
	case "OK":
		return Result{Accepted: true}, nil
	case "REJECTED":
		return Result{Accepted: false, Errors: verdict.Errors}, nil
	default:
		return Result{}, fmt.Errorf("validation oracle verdict: unknown status %q", verdict.Status)
	}
}
