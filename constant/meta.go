// Package constant defines immutable application-level identifiers and build metadata.
package constant

const (
	// Reelix is the canonical application identifier used for filesystem paths, env prefixes and CLI branding.
	Reelix = "reelix"

	// Version is the current application semantic version string.
	Version = "0.3.1"

	// DeviceName is reported to the media server in the authorization header.
	DeviceName = "reelix-cli"

	// UserAgent is sent with every media server and manifest request.
	UserAgent = Reelix + "/" + Version
)

// Build metadata, overridden with -ldflags at release time.
var (
	BuiltAt  = "unknown"
	BuiltBy  = "unknown"
	Revision = "unknown"
)
