// Package version reports the voxcaption release and the commit it was
// built from.
package version

import (
	"runtime/debug"
)

// Set at link time with -ldflags "-X".
var (
	Version = "0.1.0"
	Commit  = ""
	Date    = ""
)

const shortCommit = 7

// Resolve returns the release version. Builds that are not stamped with a
// commit fall back to the VCS information embedded by the Go toolchain and
// append it as semver build metadata, e.g. 0.1.0+1a2b3c4.dirty.
func Resolve() string {
	return resolveVersion(Version, Commit, debug.ReadBuildInfo)
}

// BuildDate returns the link-time build date, or "" when unknown.
func BuildDate() string {
	return Date
}

func resolveVersion(base, commit string, buildInfo func() (*debug.BuildInfo, bool)) string {
	if base == "" {
		base = "0.0.0"
	}

	modified := false
	if commit == "" {
		commit, modified = vcsRevision(buildInfo)
	}
	if commit == "" {
		return base
	}

	if len(commit) > shortCommit {
		commit = commit[:shortCommit]
	}
	meta := commit
	if modified {
		meta += ".dirty"
	}
	return base + "+" + meta
}

func vcsRevision(buildInfo func() (*debug.BuildInfo, bool)) (string, bool) {
	if buildInfo == nil {
		return "", false
	}
	info, ok := buildInfo()
	if !ok || info == nil {
		return "", false
	}

	var revision string
	var modified bool
	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision":
			revision = setting.Value
		case "vcs.modified":
			modified = setting.Value == "true"
		}
	}
	return revision, modified
}
