package procmounts

import "strings"

// Entry represents an entry in /proc/mounts
type Entry struct {
	Device     string
	MountPoint string
	FSType     string
	// Options keeps the comma separated mount options in kernel order
	Options []string
}

// Options maps a mount option name to its value. Flag options such as "ro"
// are present with a nil value.
type Options map[string]*string

// ParseOptions parses key[=value] mount option strings. Later duplicates
// override earlier ones, matching how the kernel applies them.
func ParseOptions(opts []string) Options {
	parsed := make(Options, len(opts))
	for _, opt := range opts {
		if opt == "" {
			continue
		}
		key, value, ok := strings.Cut(opt, "=")
		if !ok {
			parsed[key] = nil
			continue
		}
		parsed[key] = &value
	}
	return parsed
}

// Has reports whether the option is set, with or without a value
func (o Options) Has(key string) bool {
	_, ok := o[key]
	return ok
}

// Value returns the value of a key=value option. It returns false when the
// option is absent or is a flag without a value.
func (o Options) Value(key string) (string, bool) {
	v, ok := o[key]
	if !ok || v == nil {
		return "", false
	}
	return *v, true
}
