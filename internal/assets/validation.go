package assets

import (
	"fmt"
	"regexp"
)

// maxNameLength bounds embedded style names.
const maxNameLength = 64

var styleName = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]*$`)

// ValidateAssetName checks that name can identify an embedded style:
// lowercase letters, digits, '-' and '_', starting with a letter or digit.
func ValidateAssetName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidAssetName)
	}
	if len(name) > maxNameLength {
		return fmt.Errorf("%w: %d characters (max %d)", ErrInvalidAssetName, len(name), maxNameLength)
	}
	if !styleName.MatchString(name) {
		return fmt.Errorf("%w: %q", ErrInvalidAssetName, name)
	}
	return nil
}
