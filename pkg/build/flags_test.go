// SPDX-License-Identifier: MIT
package build

import (
	"os"
	"strings"
	"testing"
)

var (
	origName    string
	origTime    string
	origCommit  string
	origVersion string
	origInfo    Info
)

func TestMain(m *testing.M) {
	origName = buildName
	origTime = buildTime
	origCommit = buildCommit
	origVersion = buildVersion
	origInfo = *buildInfo

	exitCode := m.Run()

	buildName = origName
	buildTime = origTime
	buildCommit = origCommit
	buildVersion = origVersion
	*buildInfo = origInfo

	os.Exit(exitCode)
}

func TestInitialize(t *testing.T) {
	tests := []struct {
		name        string
		buildName   string
		buildTime   string
		buildCommit string
		buildVer    string
		wantErrMsgs []string
	}{
		{
			"Missing BuildName",
			"",
			"2026-10-15",
			"abcdef123",
			"v0.3.0",
			[]string{"BuildName is required"},
		},
		{
			"Missing BuildTime",
			"wavescope",
			"",
			"abcdef123",
			"v0.3.0",
			[]string{"BuildTime is required"},
		},
		{
			"Missing Commit And Version",
			"wavescope",
			"2026-10-15",
			"",
			"",
			[]string{"BuildCommit is required", "BuildVersion is required"},
		},
		{
			"Success Case",
			"wavescope",
			"2026-10-15",
			"abcdef123",
			"v0.3.0",
			nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buildInfo = defaultInfo()
			buildName = tt.buildName
			buildTime = tt.buildTime
			buildCommit = tt.buildCommit
			buildVersion = tt.buildVer

			err := Initialize()

			if len(tt.wantErrMsgs) > 0 {
				if err == nil {
					t.Fatal("Initialize() expected error, got nil")
				}
				for _, msg := range tt.wantErrMsgs {
					if !strings.Contains(err.Error(), msg) {
						t.Errorf("Initialize() error = %v, want it to mention %q", err, msg)
					}
				}
			} else if err != nil {
				t.Fatalf("Initialize() unexpected error: %v", err)
			}

			// Present values are applied even when others are missing.
			want := func(got, flag, fallback string) {
				t.Helper()
				if flag == "" {
					flag = fallback
				}
				if got != flag {
					t.Errorf("got %q, want %q", got, flag)
				}
			}
			want(buildInfo.Name, tt.buildName, defaultName)
			want(buildInfo.Time, tt.buildTime, unknown)
			want(buildInfo.Commit, tt.buildCommit, unknown)
			want(buildInfo.Version, tt.buildVer, unknown)
		})
	}
}

func TestGet(t *testing.T) {
	expected := Info{
		Name:    "wavescope",
		Time:    "2026-10-15",
		Commit:  "abcdef123",
		Version: "v0.3.0",
	}
	buildInfo = &expected

	if got := Get(); *got != expected {
		t.Errorf("Get() = %+v, want %+v", got, expected)
	}
	if got, want := Get().String(), "v0.3.0 (commit abcdef123, built 2026-10-15)"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestDefaultInfo(t *testing.T) {
	info := defaultInfo()
	if info.Name != "wavescope" || info.Version != unknown || info.Description == "" {
		t.Errorf("defaultInfo() = %+v", info)
	}
}
