// Package version exposes the build version stamped in at link time.
package version

// version is overridden via -ldflags at build time.
var version = "dev"

// Value returns the build version string.
func Value() string {
	return version
}
