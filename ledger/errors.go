/*
errors.go - Centralized error types for the ledger

PURPOSE:
  All error kinds in one place so callers can branch with errors.Is/As
  instead of matching message strings.

ERROR KINDS:
  1. ErrNotFound     - account/category/payment method/transaction absent
  2. ErrValidation   - a value rule or business precondition failed
  3. ErrDuplicate    - a service-level uniqueness rule was violated
  4. ErrPersistence  - storage returned nothing where a row must exist

USAGE:
  if errors.Is(err, ledger.ErrAccountNotFound) { ... }   // specific
  if ledger.IsNotFound(err) { ... }                       // kind

  var verr *ledger.ValidationError
  if errors.As(err, &verr) { log(verr.Field, verr.Reason) }

SEE ALSO:
  - rules.go: Produces ValidationError
  - api/handlers.go: Maps kinds to HTTP status codes
*/
package ledger

import (
	"errors"
	"fmt"
)

// =============================================================================
// KINDS - Use with errors.Is()
// =============================================================================

var (
	ErrNotFound    = errors.New("not found")
	ErrValidation  = errors.New("validation failed")
	ErrDuplicate   = errors.New("duplicate")
	ErrPersistence = errors.New("persistence failure")
)

// =============================================================================
// SENTINEL ERRORS - Each wraps exactly one kind
// =============================================================================

var (
	ErrAccountNotFound       = fmt.Errorf("account %w", ErrNotFound)
	ErrCategoryNotFound      = fmt.Errorf("category %w", ErrNotFound)
	ErrPaymentMethodNotFound = fmt.Errorf("payment method %w", ErrNotFound)
	ErrTransactionNotFound   = fmt.Errorf("transaction %w", ErrNotFound)

	ErrDuplicateCategory      = fmt.Errorf("%w category", ErrDuplicate)
	ErrDuplicatePaymentMethod = fmt.Errorf("%w payment method", ErrDuplicate)
)

// Value rules. These are paired with ErrValidation by ValidationError.
var (
	ErrInvalidAmount       = errors.New("amount must be greater than 0")
	ErrFutureDate          = errors.New("transaction date cannot be in the future")
	ErrInvertedRange       = errors.New("start date cannot be after end date")
	ErrNonPositiveDuration = errors.New("days must be greater than 0")
	ErrInvalidMonth        = errors.New("month must be between 1 and 12")
	ErrInvalidYear         = errors.New("year must be between 1900 and 2100")
	ErrEmptyName           = errors.New("name is required")
	ErrNameTooLong         = errors.New("name is too long")
	ErrInvalidType         = errors.New("invalid transaction type")
	ErrInvalidAccountType  = errors.New("invalid account type")
	ErrInvalidCurrency     = errors.New("currency must be 3 upper-case letters")
	ErrInvalidColor        = errors.New("color must be a 6-digit hex value")
	ErrIconTooLong         = errors.New("icon must be at most 50 characters")
	ErrTagsNotSequence     = errors.New("tags must be an array")
	ErrNoPaymentMethods    = errors.New("at least one payment method is required")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// ValidationError reports which field failed which rule.
type ValidationError struct {
	Field  string
	Reason string
	Rule   error
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("validation failed: %s", e.Reason)
	}
	return fmt.Sprintf("validation failed: %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() []error {
	if e.Rule == nil {
		return []error{ErrValidation}
	}
	return []error{ErrValidation, e.Rule}
}

func invalid(field string, rule error) *ValidationError {
	return &ValidationError{Field: field, Reason: rule.Error(), Rule: rule}
}

// Invalid builds a ValidationError for a field checked outside this package,
// such as a blank user_id when creating a category or an account.
func Invalid(field string, rule error) *ValidationError {
	return invalid(field, rule)
}

// NotFoundError names the missing resource and id.
type NotFoundError struct {
	Resource error // one of the Err*NotFound sentinels
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%v: %s", e.Resource, e.ID)
}

func (e *NotFoundError) Unwrap() error {
	return e.Resource
}

// DuplicateCategoryError reports a (user_id, name) collision.
type DuplicateCategoryError struct {
	UserID     string
	Name       string
	ExistingID string
}

func (e *DuplicateCategoryError) Error() string {
	return fmt.Sprintf("category %q already exists for user %s (id: %s)",
		e.Name, e.UserID, e.ExistingID)
}

func (e *DuplicateCategoryError) Unwrap() error {
	return ErrDuplicateCategory
}

// PersistenceError signals that storage did not return a row it just wrote.
type PersistenceError struct {
	Op string
	ID string
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s %s: row not readable after write", e.Op, e.ID)
}

func (e *PersistenceError) Unwrap() error {
	return ErrPersistence
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

func IsNotFound(err error) bool   { return errors.Is(err, ErrNotFound) }
func IsValidation(err error) bool { return errors.Is(err, ErrValidation) }
func IsConflict(err error) bool   { return errors.Is(err, ErrDuplicate) }

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	return IsNotFound(err) || IsValidation(err) || IsConflict(err)
}
