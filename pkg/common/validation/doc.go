// Package validation provides common validation utilities for configuration
// parameters across the chainflow library.
//
// Every function returns nil or a *errors.ValidationError, which unwraps to
// errors.ErrInvalidConfiguration so callers can test with errors.Is.
package validation
