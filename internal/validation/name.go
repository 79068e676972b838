// Package validation provides input validation for hierarchy names, version
// strings, and uploaded archives. Validators run before any data is persisted
// so invalid input is rejected without touching the store.
package validation

import (
	"fmt"
	"regexp"
)

// namePattern matches a letter followed by letters and digits. Hyphens,
// underscores, and leading digits are rejected so names stay URL- and
// filename-safe without escaping.
var namePattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9]*$`)

// MinNameLength is the minimum length of an organization, module, or provider
// name.
const MinNameLength = 3

// ValidateName validates a hierarchy segment name.
func ValidateName(name string) error {
	if len(name) < MinNameLength {
		return fmt.Errorf("name must be at least %d characters", MinNameLength)
	}
	if !namePattern.MatchString(name) {
		return fmt.Errorf("name must start with a letter and contain only letters and digits")
	}
	return nil
}
