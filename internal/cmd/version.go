package cmd

// version is overridden at build time via -ldflags.
var version = "dev"

// VersionString returns the version reported by --version.
func VersionString() string {
	return version
}
