package version

import "testing"

func TestVersionDefaults(t *testing.T) {
	if Version == "" {
		t.Error("Version must have a default")
	}
	// Commit and date are filled by -ldflags and may be empty in dev builds.
	_ = GitCommit
	_ = BuildDate
}
