// Package errors provides the structured error type shared by the collector
// and its backends. Every AppError carries a machine-readable code, a
// retryable flag, free-form details and an optional cause.
//
// Stage failures inside a collector pass are reported as HOOK_FAILURE and
// STORAGE_FAILURE errors; a pass joins them with errors.Join so callers can
// test for either code with Is.
package errors
