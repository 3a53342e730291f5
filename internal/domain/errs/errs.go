// Package errs holds the error taxonomy shared by every engine.
//
// Each concrete failure is an *Error that unwraps to exactly one category
// sentinel, so callers can match either the precise failure or its class:
//
//	errors.Is(err, errs.ErrAlreadyDecided)    // exact failure
//	errors.Is(err, errs.ErrIllegalTransition) // category
package errs

import "errors"

var (
	ErrValidation        = errors.New("validation error")
	ErrNotFound          = errors.New("not found")
	ErrForbidden         = errors.New("forbidden")
	ErrIllegalTransition = errors.New("illegal transition")
	ErrConflict          = errors.New("concurrent update conflict")
)

type Error struct {
	Kind    error
	Code    string
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Kind
}

func New(kind error, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

// Code returns the machine readable code of the first *Error in the chain.
func Code(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

var (
	ErrListingNotFound     = New(ErrNotFound, "LISTING_NOT_FOUND", "listing not found")
	ErrAccountNotFound     = New(ErrNotFound, "ACCOUNT_NOT_FOUND", "account not found")
	ErrCaseNotFound        = New(ErrNotFound, "CASE_NOT_FOUND", "moderation case not found")
	ErrReportNotFound      = New(ErrNotFound, "REPORT_NOT_FOUND", "report not found")
	ErrTransactionNotFound = New(ErrNotFound, "TRANSACTION_NOT_FOUND", "transaction not found")
	ErrAppointmentNotFound = New(ErrNotFound, "APPOINTMENT_NOT_FOUND", "appointment not found")

	ErrDuplicateCase      = New(ErrIllegalTransition, "DUPLICATE_CASE", "a moderation case is already open for this target")
	ErrAlreadyDecided     = New(ErrIllegalTransition, "ALREADY_DECIDED", "moderation case already decided")
	ErrActionNotAllowed   = New(ErrIllegalTransition, "ILLEGAL_TRANSITION", "action is not allowed from the target's current state")
	ErrSelfDealing        = New(ErrIllegalTransition, "SELF_DEALING", "not allowed on your own listing")
	ErrListingUnavailable = New(ErrIllegalTransition, "LISTING_UNAVAILABLE", "listing is not available")
	ErrListingFrozen      = New(ErrIllegalTransition, "LISTING_FROZEN", "listing is frozen by moderation")
	ErrAlreadyCompleted   = New(ErrIllegalTransition, "ALREADY_COMPLETED", "transaction already completed")
	ErrTransactionClosed  = New(ErrIllegalTransition, "TRANSACTION_CLOSED", "transaction is closed")
	ErrNotARental         = New(ErrIllegalTransition, "NOT_A_RENTAL", "transaction is not a rental")
	ErrNotCompleted       = New(ErrIllegalTransition, "NOT_COMPLETED", "transaction is not completed")
	ErrSelfReport         = New(ErrIllegalTransition, "SELF_REPORT", "you cannot report yourself")
	ErrDuplicateReport    = New(ErrIllegalTransition, "DUPLICATE_REPORT", "you already reported this target")
	ErrTargetClosed       = New(ErrIllegalTransition, "TARGET_CLOSED", "target is in a final moderation state")
	ErrAppointmentState   = New(ErrIllegalTransition, "APPOINTMENT_STATE", "appointment cannot change from its current status")
	ErrAccountInactive    = New(ErrIllegalTransition, "ACCOUNT_INACTIVE", "account is not active")

	ErrNotParty       = New(ErrForbidden, "NOT_PARTY", "not a party to this record")
	ErrNotOwner       = New(ErrForbidden, "NOT_OWNER", "not your listing")
	ErrRoleNotAllowed = New(ErrForbidden, "ROLE_NOT_ALLOWED", "role is not allowed to perform this action")

	ErrTooManyReports = New(ErrValidation, "TOO_MANY_REPORTS", "too many reports, try again later")
	ErrPriceRejected  = New(ErrValidation, "PRICE_REJECTED", "price rejected by the price advisor")

	ErrVersionConflict = New(ErrConflict, "CONFLICT", "record was modified concurrently")
)

// Invalid builds a validation failure with a caller-facing message.
func Invalid(message string) *Error {
	return New(ErrValidation, "VALIDATION_ERROR", message)
}
