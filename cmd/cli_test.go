package cmd

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func env(vars map[string]string) func(string) string {
	return func(k string) string { return vars[k] }
}

func TestParseArgs(t *testing.T) {
	tests := []struct {
		name        string
		args        []string
		env         map[string]string
		wantCommand Command
		wantPath    string
		wantErr     bool
	}{
		{"play", []string{"song.wav"}, nil, CommandPlay, "song.wav", false},
		{"file named list", []string{"list"}, nil, CommandPlay, "list", false},
		{"list devices", nil, map[string]string{ListDevicesEnv: "1"}, CommandList, "", false},
		{"list devices off", []string{"song.wav"}, map[string]string{ListDevicesEnv: "false"}, CommandPlay, "song.wav", false},
		{"list devices with file", []string{"song.wav"}, map[string]string{ListDevicesEnv: "true"}, CommandNone, "", true},
		{"list devices not boolean", nil, map[string]string{ListDevicesEnv: "please"}, CommandNone, "", true},
		{"missing file", nil, nil, CommandNone, "", true},
		{"two files", []string{"a.wav", "b.wav"}, nil, CommandNone, "", true},
		{"unknown flag", []string{"--device", "3", "song.wav"}, nil, CommandNone, "", true},
		{"help", []string{"--help"}, nil, CommandNone, "", false},
		{"version", []string{"--version"}, nil, CommandNone, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			opts, err := ParseArgs(tt.args, env(tt.env), &stdout, &stderr)

			if tt.wantErr {
				var usage *UsageError
				if !errors.As(err, &usage) {
					t.Fatalf("ParseArgs(%v) error = %v, want *UsageError", tt.args, err)
				}
				if !strings.Contains(stderr.String(), "Error:") {
					t.Errorf("stderr should report the error, got %q", stderr.String())
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseArgs(%v) unexpected error: %v", tt.args, err)
			}
			if opts.Command != tt.wantCommand || opts.Path != tt.wantPath {
				t.Errorf("ParseArgs(%v) = %+v, want command %q path %q", tt.args, opts, tt.wantCommand, tt.wantPath)
			}
			if stderr.Len() != 0 {
				t.Errorf("unexpected stderr output %q", stderr.String())
			}
		})
	}
}

func TestParseArgsMissingFilePrintsUsage(t *testing.T) {
	var stderr bytes.Buffer
	if _, err := ParseArgs(nil, env(nil), &bytes.Buffer{}, &stderr); err == nil {
		t.Fatal("expected an error")
	}
	if !strings.Contains(stderr.String(), "Usage:") || !strings.Contains(stderr.String(), "<file.wav>") {
		t.Errorf("stderr = %q, want usage", stderr.String())
	}
}

func TestParseArgsVersionOutput(t *testing.T) {
	var stdout bytes.Buffer
	if _, err := ParseArgs([]string{"--version"}, env(nil), &stdout, &bytes.Buffer{}); err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(stdout.String(), "wavescope ") {
		t.Errorf("version output = %q", stdout.String())
	}
}
