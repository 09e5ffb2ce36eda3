package validation

import (
	"fmt"
	"regexp"
)

// MaxNameLength is the longest kernel device name (sysfs file name limit)
const MaxNameLength = 255

// deviceNamePattern matches kernel block device names as they appear under
// /sys/block and /sys/class/block. The kernel replaces '/' with '!' in them,
// e.g. cciss!c0d0.
var deviceNamePattern = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9_.:!+-]*$`)

// ValidateDeviceName validates that a name can safely be joined into a
// sysfs path:
// - Non-empty and at most 255 characters
// - Starts with alphanumeric, so it is never "." or ".."
// - No path separators
func ValidateDeviceName(name string) error {
	if name == "" {
		return fmt.Errorf("device name must not be empty")
	}

	if len(name) > MaxNameLength {
		return fmt.Errorf("device name must be at most %d characters", MaxNameLength)
	}

	if !deviceNamePattern.MatchString(name) {
		return fmt.Errorf("device name %q must start with alphanumeric and contain only alphanumeric, underscore, dot, colon, exclamation mark, plus or hyphen characters", name)
	}

	return nil
}
