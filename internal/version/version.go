package version

import (
	"fmt"
	"runtime"
)

// Set via ldflags at build time
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

// String returns the version line printed by `rootserial --version`
func String() string {
	return fmt.Sprintf("rootserial %s (commit: %s, built: %s, go: %s/%s)",
		Version, Commit, BuildTime, runtime.Version(), runtime.GOARCH)
}
