package database

import (
	"errors"
	"strings"

	"gorm.io/gorm"

	apperrors "github.com/kbukum/collector/errors"
)

// IsConnectionError checks if a database error is a connection error
// that might be resolved by retrying.
func IsConnectionError(err error) bool {
	if err == nil {
		return false
	}
	return containsAny(strings.ToLower(err.Error()),
		"connection refused",
		"connection reset",
		"broken pipe",
		"i/o timeout",
		"connection closed",
		"driver: bad connection",
		"sql: database is closed",
		"unable to open database file",
	)
}

// IsRetryableError determines if a database error is transient.
func IsRetryableError(err error) bool {
	if err == nil {
		return false
	}
	if IsConnectionError(err) {
		return true
	}
	return containsAny(strings.ToLower(err.Error()),
		"database is locked",
		"database table is locked",
		"sqlite_busy",
		"deadlock",
	)
}

// IsDuplicateError checks if the error is a unique-key violation.
func IsDuplicateError(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "unique constraint failed")
}

// FromDatabase converts a database error to an AppError.
func FromDatabase(err error, resource string) *apperrors.AppError {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return apperrors.NotFound(resource, "").WithCause(err)
	case IsDuplicateError(err):
		return apperrors.Conflict(resource + " already exists").WithCause(err)
	case IsConnectionError(err):
		appErr := apperrors.DatabaseError(err)
		appErr.Message = "database is temporarily unavailable"
		return appErr
	case IsRetryableError(err):
		return apperrors.DatabaseError(err)
	default:
		appErr := apperrors.DatabaseError(err)
		appErr.Retryable = false
		return appErr
	}
}

func containsAny(s string, patterns ...string) bool {
	for _, p := range patterns {
		if strings.Contains(s, p) {
			return true
		}
	}
	return false
}
