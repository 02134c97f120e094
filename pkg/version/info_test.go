package version

import (
	"runtime"
	"strings"
	"testing"
	"time"
)

func TestCurrent_Defaults(t *testing.T) {
	oldVersion, oldBuildTime := AppVersion, BuildTime
	t.Cleanup(func() {
		AppVersion = oldVersion
		BuildTime = oldBuildTime
	})

	AppVersion = ""
	BuildTime = "  "

	info := Current("")
	if info.Service != Unknown {
		t.Fatalf("expected service %q, got %q", Unknown, info.Service)
	}
	if info.Version != DevelopmentVersion {
		t.Fatalf("expected version %q, got %q", DevelopmentVersion, info.Version)
	}
	if info.BuildTime != Unknown {
		t.Fatalf("expected build_time %q, got %q", Unknown, info.BuildTime)
	}
	if info.Commit == "" {
		t.Fatal("commit should never be empty")
	}
	if info.GoVersion != runtime.Version() {
		t.Fatalf("go version = %q", info.GoVersion)
	}
}

func TestCurrent_LinkerValues(t *testing.T) {
	oldVersion, oldCommit := AppVersion, GitCommit
	t.Cleanup(func() {
		AppVersion = oldVersion
		GitCommit = oldCommit
	})
	AppVersion = "v1.4.0"
	GitCommit = "abc123"

	info := Current("tutoradmin")
	if info.Version != "v1.4.0" || info.Commit != "abc123" || info.Service != "tutoradmin" {
		t.Fatalf("info = %+v", info)
	}
	if !strings.HasPrefix(info.String(), "tutoradmin@v1.4.0 (commit=abc123") {
		t.Fatalf("String() = %s", info.String())
	}
}

func TestInfo_ParseBuildTime(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Second)

	parsed, ok := Info{BuildTime: now.Format(time.RFC3339)}.ParseBuildTime()
	if !ok || !parsed.Equal(now) {
		t.Fatalf("ParseBuildTime() = %s, %v", parsed, ok)
	}
	if _, ok := (Info{BuildTime: Unknown}).ParseBuildTime(); ok {
		t.Fatal("unknown build time should not parse")
	}
	if _, ok := (Info{BuildTime: "yesterday"}).ParseBuildTime(); ok {
		t.Fatal("malformed build time should not parse")
	}
}
