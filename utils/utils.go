package utils

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"visdedupe/cluster"
	"visdedupe/imageprocessor"

	"github.com/spf13/pflag"
)

// DefaultReportPath is where the report goes without --report
const DefaultReportPath = "visdedupe_report.html"

// Environment variables consulted for defaults; flags take precedence
const (
	EnvThreshold = "VISDEDUPE_THRESHOLD"
	EnvPrefer    = "VISDEDUPE_PREFER"
	EnvWorkers   = "VISDEDUPE_WORKERS"
	EnvMaxSide   = "VISDEDUPE_MAX_SIDE"
	EnvReport    = "VISDEDUPE_REPORT"
	EnvCache     = "VISDEDUPE_CACHE"
)

// Options holds everything the command line controls
type Options struct {
	Root string

	Threshold int
	Prefer    string
	MaxSide   int
	Workers   int // 0 picks a default from the CPU count
	Recursive bool

	ReportPath string
	NoReport   bool
	MoveDupes  string
	DryRun     bool

	CachePath   string
	MetricsPath string
	Timeout     time.Duration

	Progress bool
	Debug    bool
	LogFile  string
}

// DefaultOptions returns the built-in defaults
func DefaultOptions() Options {
	return Options{
		Threshold:  cluster.DefaultThreshold,
		Prefer:     string(cluster.DefaultPolicy),
		MaxSide:    imageprocessor.DefaultMaxSide,
		ReportPath: DefaultReportPath,
	}
}

// LoadEnvDefaults overrides defaults from VISDEDUPE_* variables
func LoadEnvDefaults(opts *Options) error {
	if v := os.Getenv(EnvThreshold); v != "" {
		t, err := ParseThreshold(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvThreshold, err)
		}
		opts.Threshold = t
	}
	if v := os.Getenv(EnvPrefer); v != "" {
		opts.Prefer = v
	}
	if v := os.Getenv(EnvWorkers); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: invalid worker count %q", EnvWorkers, v)
		}
		opts.Workers = n
	}
	if v := os.Getenv(EnvMaxSide); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: invalid max side %q", EnvMaxSide, v)
		}
		opts.MaxSide = n
	}
	if v := os.Getenv(EnvReport); v != "" {
		opts.ReportPath = v
	}
	if v := os.Getenv(EnvCache); v != "" {
		opts.CachePath = v
	}
	return nil
}

func newFlagSet(opts *Options) *pflag.FlagSet {
	fs := pflag.NewFlagSet("visdedupe", pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.SortFlags = false

	fs.IntVarP(&opts.Threshold, "threshold", "t", opts.Threshold, "Max Hamming distance (bits of 256) to treat as duplicates")
	fs.StringVar(&opts.MoveDupes, "move-dupes", opts.MoveDupes, "Move non-representative files into this directory")
	fs.StringVar(&opts.ReportPath, "report", opts.ReportPath, "Output HTML report")
	fs.BoolVar(&opts.NoReport, "no-report", opts.NoReport, "Do not write the HTML report")
	fs.StringVar(&opts.Prefer, "prefer", opts.Prefer, "Keep policy: largest, newest, oldest or shortest_name")
	fs.BoolVarP(&opts.DryRun, "dry-run", "n", opts.DryRun, "Log planned moves without moving anything")
	fs.BoolVarP(&opts.Recursive, "recursive", "r", opts.Recursive, "Descend into subdirectories")
	fs.IntVarP(&opts.Workers, "workers", "j", opts.Workers, "Decode/hash workers (0 = auto)")
	fs.IntVar(&opts.MaxSide, "max-side", opts.MaxSide, "Downscale images whose long edge exceeds this before hashing")
	fs.StringVar(&opts.CachePath, "cache", opts.CachePath, "SQLite fingerprint cache file")
	fs.StringVar(&opts.MetricsPath, "metrics", opts.MetricsPath, "Write Prometheus textfile metrics to this path")
	fs.DurationVar(&opts.Timeout, "timeout", opts.Timeout, "Stop fingerprinting after this long and report partial results")
	fs.BoolVar(&opts.Progress, "progress", opts.Progress, "Show progress on stderr")
	fs.BoolVar(&opts.Debug, "debug", opts.Debug, "Enable debug logging")
	fs.StringVar(&opts.LogFile, "logfile", opts.LogFile, "Also write logs to this file")
	return fs
}

// ParseArguments builds Options from defaults, the environment and args
// (without the program name). pflag.ErrHelp is returned for -h/--help.
func ParseArguments(args []string) (Options, error) {
	opts := DefaultOptions()
	if err := LoadEnvDefaults(&opts); err != nil {
		return opts, err
	}

	fs := newFlagSet(&opts)
	if err := fs.Parse(args); err != nil {
		return opts, err
	}

	switch fs.NArg() {
	case 0:
		return opts, errors.New("missing root directory")
	case 1:
		opts.Root = fs.Arg(0)
	default:
		return opts, fmt.Errorf("expected one root directory, got %d arguments", fs.NArg())
	}

	return opts, opts.Validate()
}

// Validate checks option ranges and combinations
func (o Options) Validate() error {
	if o.Root == "" {
		return errors.New("root directory is required")
	}
	if o.Threshold < 0 || o.Threshold > 256 {
		return fmt.Errorf("threshold %d out of range 0-256", o.Threshold)
	}
	if _, err := cluster.ParsePolicy(o.Prefer); err != nil {
		return err
	}
	if o.Workers < 0 {
		return fmt.Errorf("workers must be >= 0, got %d", o.Workers)
	}
	if o.MaxSide <= 0 {
		return fmt.Errorf("max-side must be positive, got %d", o.MaxSide)
	}
	if o.Timeout < 0 {
		return fmt.Errorf("timeout must not be negative")
	}
	if o.MoveDupes != "" {
		root, err := filepath.Abs(o.Root)
		if err != nil {
			return err
		}
		target, err := filepath.Abs(o.MoveDupes)
		if err != nil {
			return err
		}
		if root == target {
			return errors.New("move-dupes directory must differ from the root directory")
		}
	}
	return nil
}

// PrintUsage outputs the command-line usage instructions
func PrintUsage(w io.Writer) {
	opts := DefaultOptions()
	fs := newFlagSet(&opts)

	fmt.Fprintf(w, "Usage:\n")
	fmt.Fprintf(w, "  visdedupe <root-dir> [flags]\n")
	fmt.Fprintf(w, "\nFlags:\n")
	fmt.Fprint(w, fs.FlagUsages())
	fmt.Fprintf(w, "\nRecognized extensions:\n  %s\n", strings.Join(imageprocessor.GetSupportedExtensions(), " "))
	fmt.Fprintf(w, "\nEnvironment defaults (overridden by flags, also read from .env):\n")
	fmt.Fprintf(w, "  %s, %s, %s, %s, %s, %s\n", EnvThreshold, EnvPrefer, EnvWorkers, EnvMaxSide, EnvReport, EnvCache)
	fmt.Fprintf(w, "\nExamples:\n")
	fmt.Fprintf(w, "  visdedupe ~/Pictures/export --threshold 8 --prefer newest\n")
	fmt.Fprintf(w, "  visdedupe ./art --recursive --move-dupes ./art-dupes --dry-run\n")
}

// ParseThreshold parses and validates a Hamming distance threshold
func ParseThreshold(thresholdStr string) (int, error) {
	t, err := strconv.Atoi(thresholdStr)
	if err != nil || t < 0 || t > 256 {
		return cluster.DefaultThreshold, fmt.Errorf("invalid threshold value %q, want 0-256", thresholdStr)
	}
	return t, nil
}
