// semver.go provides semantic version validation and canonicalisation for
// version segments. Uniqueness is enforced on the canonical string form, so
// "v1.0.0" and "1.0.0" refer to the same version.
package validation

import (
	"fmt"

	"github.com/hashicorp/go-version"
)

// parseSemver parses a version string, restricted to the semver shape of at
// most three numeric segments. go-version accepts arbitrarily many segments,
// but canonicalisation would then collapse "1.0.0.0" onto "1.0.0" and break
// string-form uniqueness.
func parseSemver(versionStr string) (*version.Version, error) {
	v, err := version.NewVersion(versionStr)
	if err != nil {
		return nil, fmt.Errorf("invalid semantic version: %w", err)
	}
	if len(v.Segments()) > 3 {
		return nil, fmt.Errorf("invalid semantic version: %q has more than three segments", versionStr)
	}
	return v, nil
}

// ValidateSemver validates that a version string parses as semantic versioning
func ValidateSemver(versionStr string) error {
	_, err := parseSemver(versionStr)
	return err
}

// CanonicalVersion parses a version string and returns its canonical form.
func CanonicalVersion(versionStr string) (string, error) {
	v, err := parseSemver(versionStr)
	if err != nil {
		return "", err
	}
	return v.String(), nil
}
