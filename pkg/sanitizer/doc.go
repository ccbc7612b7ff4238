// Package sanitizer normalizes free text and expertise tags before they are
// validated or stored.
//
// Every function is idempotent and never fails: invalid input becomes an
// empty string or is dropped from a slice.
package sanitizer
