package version

import "fmt"

var (
	Version    = "dev"
	CommitHash = "unknown"
	BuildDate  = "unknown"
)

// License is printed by --version.
const License = `Copyright (c) buildwizard contributors.
License MIT: <https://opensource.org/licenses/MIT>.
This is free software: you are free to change and redistribute it.
There is NO WARRANTY, to the extent permitted by law.`

// Summary returns a human-friendly version string for CLI output.
func Summary() string {
	return fmt.Sprintf("buildwizard %s", Version)
}
