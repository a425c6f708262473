package bot

import "runtime/debug"

// BuildRevision returns the VCS revision stamped by the Go toolchain, with a
// "+dirty" suffix for modified trees, or "unknown".
func BuildRevision() string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return "unknown"
	}
	var revision, modified string
	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision":
			revision = setting.Value
		case "vcs.modified":
			modified = setting.Value
		}
	}
	if revision == "" {
		return "unknown"
	}
	if modified == "true" {
		revision += "+dirty"
	}
	return revision
}
