package backup

import (
	"errors"
	"fmt"
)

// Kind classifies a backup or restore failure. Every failure surfaced to
// the invoker carries exactly one kind and aborts the current operation.
type Kind string

const (
	// KindBackupFailed covers export process errors, filename collisions,
	// and disk write failures during dump production
	KindBackupFailed Kind = "BACKUP_FAILED"
	// KindNoBackupFound means the backup store holds no valid snapshot
	KindNoBackupFound Kind = "NO_BACKUP_FOUND"
	// KindConfirmationRequired means the restore safety gate was not
	// satisfied; no database mutation happened
	KindConfirmationRequired Kind = "CONFIRMATION_REQUIRED"
	// KindRestoreIncomplete means the destructive schema drop ran but the
	// replay did not finish successfully
	KindRestoreIncomplete Kind = "RESTORE_INCOMPLETE"
	// KindRestoreFailed covers import process errors before any
	// destructive step took effect
	KindRestoreFailed Kind = "RESTORE_FAILED"
	// KindConfiguration covers invalid producer/executor configuration
	KindConfiguration Kind = "CONFIGURATION_ERROR"
)

// Error is the typed error returned by the producer and executor
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap returns the underlying cause error
func (e *Error) Unwrap() error {
	return e.Cause
}

// NewError creates a typed error
func NewError(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// Constructors for each kind

func NewBackupFailed(message string, cause error) *Error {
	return NewError(KindBackupFailed, message, cause)
}

func NewNoBackupFound(message string, cause error) *Error {
	return NewError(KindNoBackupFound, message, cause)
}

func NewConfirmationRequired(message string) *Error {
	return NewError(KindConfirmationRequired, message, nil)
}

func NewRestoreIncomplete(message string, cause error) *Error {
	return NewError(KindRestoreIncomplete, message, cause)
}

func NewRestoreFailed(message string, cause error) *Error {
	return NewError(KindRestoreFailed, message, cause)
}

func NewConfigurationError(message string, cause error) *Error {
	return NewError(KindConfiguration, message, cause)
}

// IsKind reports whether err carries the given kind anywhere in its chain
func IsKind(err error, kind Kind) bool {
	var be *Error
	if errors.As(err, &be) {
		return be.Kind == kind
	}
	return false
}
