package security

import (
	"fmt"
	"strings"
)

type WeakPasswordError struct {
	Violations []string
}

func (e *WeakPasswordError) Error() string {
	return "weak password: " + strings.Join(e.Violations, ", ")
}

// HashingError wraps a failure of the hashing primitive, never a mismatch.
type HashingError struct {
	Err error
}

func (e *HashingError) Error() string {
	return fmt.Sprintf("password hashing failed: %v", e.Err)
}

func (e *HashingError) Unwrap() error {
	return e.Err
}
