// Package version carries the build stamp of the modcache binary.
package version

import "runtime/debug"

const unknown = "<unknown>"

// Set at link time with -ldflags "-X github.com/Sumatoshi-tech/modcache/pkg/version.Version=...".
var (
	Version = "dev"
	Commit  = unknown
	Date    = unknown
)

// InitBinaryVersion fills the stamp from the embedded build info for fields
// the linker left unset.
func InitBinaryVersion() {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return
	}

	apply(info)
}

func apply(info *debug.BuildInfo) {
	if Version == "dev" && info.Main.Version != "" && info.Main.Version != "(devel)" {
		Version = info.Main.Version
	}

	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision":
			if Commit == unknown {
				Commit = setting.Value
			}
		case "vcs.time":
			if Date == unknown {
				Date = setting.Value
			}
		}
	}
}

// String renders the stamp the way the version command prints it.
func String() string {
	return Version + " (commit: " + Commit + ", built: " + Date + ")"
}
