// Package buildinfo holds release metadata set with -ldflags -X.
package buildinfo

// Empty in local builds; `ebb version` then falls back to the module build info.
var (
	Version = ""
	Commit  = ""
	Date    = ""
)
