// SPDX-License-Identifier: MIT
//
// Package build exposes build-time metadata injected via -ldflags, for
// example:
//
//	go build -ldflags "-X musviz/pkg/build.buildVersion=0.2.0"
//
// During development the fields fall back to "dev" defaults.
package build

// Info holds the application identity baked into the binary.
type Info struct {
	Name    string
	Time    string
	Commit  string
	Version string
}

// Populated by -ldflags at compile time.
var (
	buildName    string
	buildTime    string
	buildCommit  string
	buildVersion string
)

// GetInfo returns the build metadata, substituting "dev" defaults for
// any field not set by the linker.
func GetInfo() Info {
	info := Info{
		Name:    "musviz",
		Time:    "unknown",
		Commit:  "unknown",
		Version: "dev",
	}
	if buildName != "" {
		info.Name = buildName
	}
	if buildTime != "" {
		info.Time = buildTime
	}
	if buildCommit != "" {
		info.Commit = buildCommit
	}
	if buildVersion != "" {
		info.Version = buildVersion
	}
	return info
}
