package version

import "fmt"

// overridden at build time via -ldflags
var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

var FullVersion = fmt.Sprintf("%s (%s) %s", Version, Commit, BuildDate)
