package utils

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/spf13/pflag"
)

func clearEnv(t *testing.T) {
	for _, k := range []string{EnvThreshold, EnvPrefer, EnvWorkers, EnvMaxSide, EnvReport, EnvCache} {
		t.Setenv(k, "")
	}
}

func TestParseArguments(t *testing.T) {
	clearEnv(t)

	tests := []struct {
		name    string
		args    []string
		check   func(Options) bool
		wantErr bool
	}{
		{
			name: "defaults",
			args: []string{"photos"},
			check: func(o Options) bool {
				return o.Root == "photos" && o.Threshold == 6 && o.Prefer == "largest" &&
					o.MaxSide == 1024 && o.ReportPath == DefaultReportPath && !o.Recursive
			},
		},
		{
			name: "all flags",
			args: []string{"--threshold", "10", "--prefer=newest", "--move-dupes", "dupes", "--no-report",
				"--dry-run", "-r", "--workers", "3", "--max-side", "512", "--cache", "c.db",
				"--metrics", "m.prom", "--timeout", "30s", "--progress", "--debug", "--logfile", "run.log", "photos"},
			check: func(o Options) bool {
				return o.Threshold == 10 && o.Prefer == "newest" && o.MoveDupes == "dupes" && o.NoReport &&
					o.DryRun && o.Recursive && o.Workers == 3 && o.MaxSide == 512 && o.CachePath == "c.db" &&
					o.MetricsPath == "m.prom" && o.Timeout == 30*time.Second && o.Progress && o.Debug &&
					o.LogFile == "run.log"
			},
		},
		{name: "missing root", args: []string{"--threshold", "4"}, wantErr: true},
		{name: "two roots", args: []string{"a", "b"}, wantErr: true},
		{name: "bad policy", args: []string{"--prefer", "biggest", "a"}, wantErr: true},
		{name: "threshold too large", args: []string{"--threshold", "300", "a"}, wantErr: true},
		{name: "negative workers", args: []string{"--workers", "-1", "a"}, wantErr: true},
		{name: "zero max side", args: []string{"--max-side", "0", "a"}, wantErr: true},
		{name: "move into root", args: []string{"--move-dupes", "a/", "a"}, wantErr: true},
		{name: "unknown flag", args: []string{"--bogus", "a"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts, err := ParseArguments(tt.args)
			if tt.wantErr {
				if err == nil {
					t.Errorf("expected error, got %+v", opts)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if !tt.check(opts) {
				t.Errorf("unexpected options: %+v", opts)
			}
		})
	}
}

func TestParseArguments_Help(t *testing.T) {
	clearEnv(t)
	if _, err := ParseArguments([]string{"--help"}); !errors.Is(err, pflag.ErrHelp) {
		t.Errorf("err = %v, want pflag.ErrHelp", err)
	}
}

func TestParseArguments_EnvDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvThreshold, "9")
	t.Setenv(EnvPrefer, "oldest")
	t.Setenv(EnvWorkers, "2")
	t.Setenv(EnvCache, "env.db")

	opts, err := ParseArguments([]string{"--threshold", "3", "photos"})
	if err != nil {
		t.Fatal(err)
	}
	if opts.Threshold != 3 {
		t.Errorf("flag should win over env: threshold = %d", opts.Threshold)
	}
	if opts.Prefer != "oldest" || opts.Workers != 2 || opts.CachePath != "env.db" {
		t.Errorf("env defaults not applied: %+v", opts)
	}

	t.Setenv(EnvThreshold, "lots")
	if _, err := ParseArguments([]string{"photos"}); err == nil {
		t.Error("expected error for invalid env threshold")
	}
}

func TestParseThreshold(t *testing.T) {
	tests := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{"0", 0, false},
		{"6", 6, false},
		{"256", 256, false},
		{"257", 6, true},
		{"-1", 6, true},
		{"0.8", 6, true},
	}
	for _, tt := range tests {
		got, err := ParseThreshold(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseThreshold(%q) = %d, %v", tt.in, got, err)
		}
	}
}

func TestPrintUsage(t *testing.T) {
	var buf bytes.Buffer
	PrintUsage(&buf)
	for _, want := range []string{"--threshold", "--move-dupes", "--prefer", EnvThreshold, ".heic .jpeg .jpg"} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("usage missing %q", want)
		}
	}
}
