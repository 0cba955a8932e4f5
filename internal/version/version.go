// Package version carries the build identity of the stackflow CLI.
package version

import "github.com/fatih/color"

const (
	major = "0"
	minor = "1"
	patch = "0"
)

var (
	// Version is the CLI's semantic version with each part highlighted.
	Version = render()

	// GitCommit is the commit hash the binary was built from, set via
	// -ldflags when known.
	GitCommit = ""

	// BuildDate is the build timestamp in ISO-8601, set via -ldflags
	// when known.
	BuildDate = ""
)

func render() string {
	part := color.New(color.FgCyan, color.Bold)
	return part.Sprint(major) + "." + part.Sprint(minor) + "." + part.Sprint(patch)
}
