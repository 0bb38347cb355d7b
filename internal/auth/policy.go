package auth

import (
	"fmt"
	"strings"
)

// FailureMode selects the outcome when a guard cannot evaluate its input.
type FailureMode string

const (
	// FailOpen lets the request continue and logs a warning.
	FailOpen FailureMode = "open"
	// FailClosed rejects the request.
	FailClosed FailureMode = "closed"
)

// ParseFailureMode accepts "open" or "closed" (case-insensitive). Empty selects FailOpen.
func ParseFailureMode(value string) (FailureMode, error) {
	switch FailureMode(strings.ToLower(strings.TrimSpace(value))) {
	case "", FailOpen:
		return FailOpen, nil
	case FailClosed:
		return FailClosed, nil
	default:
		return "", fmt.Errorf("invalid failure mode %q (expected open or closed)", value)
	}
}
