// SPDX-License-Identifier: MIT
//
// Package build carries the metadata stamped into the binary at link time:
//
//	go build -ldflags "-X wavescope/pkg/build.buildName=wavescope \
//	  -X wavescope/pkg/build.buildVersion=0.3.0 \
//	  -X wavescope/pkg/build.buildCommit=$(git rev-parse --short HEAD) \
//	  -X wavescope/pkg/build.buildTime=$(date -u +%FT%TZ)"
//
// Development builds run without the flags and report "unknown".
package build

import (
	"errors"
	"fmt"
)

const (
	defaultName = "wavescope"
	description = "Play a WAV file and watch its waveform and spectrum live"
	unknown     = "unknown"
)

// Info describes the running binary.
type Info struct {
	Name        string
	Description string
	Time        string
	Commit      string
	Version     string
}

// String renders the line printed by --version.
func (i *Info) String() string {
	return fmt.Sprintf("%s (commit %s, built %s)", i.Version, i.Commit, i.Time)
}

// Populated by -ldflags.
var (
	buildName    string
	buildTime    string
	buildCommit  string
	buildVersion string
	buildInfo    = defaultInfo()
)

func defaultInfo() *Info {
	return &Info{
		Name:        defaultName,
		Description: description,
		Time:        unknown,
		Commit:      unknown,
		Version:     unknown,
	}
}

// Initialize copies the link-time values into Info. Every missing flag is
// reported in the returned error; the values that are present are applied
// regardless, so callers may treat the error as a warning.
func Initialize() error {
	var errs []error
	set := func(dst *string, v, flag string) {
		if v == "" {
			errs = append(errs, fmt.Errorf("%s is required", flag))
			return
		}
		*dst = v
	}
	set(&buildInfo.Name, buildName, "BuildName")
	set(&buildInfo.Time, buildTime, "BuildTime")
	set(&buildInfo.Commit, buildCommit, "BuildCommit")
	set(&buildInfo.Version, buildVersion, "BuildVersion")
	return errors.Join(errs...)
}

// Get returns the build information. Call Initialize first.
func Get() *Info {
	return buildInfo
}
