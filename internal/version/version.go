package version

import "github.com/fatih/color"

// Version information for the floc CLI.
// These variables can be overridden at build time via -ldflags.

var (
	versionMajorColor = color.New(color.FgYellow, color.Bold)
	versionMinorColor = color.New(color.FgGreen, color.Bold)
	versionPatchColor = color.New(color.FgBlue, color.Bold)

	// Major, Minor and Patch make up the semantic version of the CLI.
	Major = "0"
	Minor = "1"
	Patch = "0"

	// Suffix is the pre-release tag, empty for release builds.
	Suffix = "-dev"

	// GitCommit is an optional git commit hash.
	GitCommit = ""

	// BuildDate is an optional build date in ISO-8601.
	BuildDate = ""
)

// Number is the plain semantic version, the form stamped into emitted
// object files.
func Number() string {
	return Major + "." + Minor + "." + Patch + Suffix
}

// Colorized is the version string shown to humans on a terminal.
func Colorized() string {
	return versionMajorColor.Sprint(Major) + "." +
		versionMinorColor.Sprint(Minor) + "." +
		versionPatchColor.Sprint(Patch) + Suffix
}
