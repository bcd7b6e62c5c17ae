// Package sanitizer normalizes identifiers received from payment providers
// before validation and storage.
//
// All functions are idempotent. Invalid input is never an error here: values are
// cleaned and left for the validator to reject.
package sanitizer
