// Package engine runs the whole pipeline: list, coalesce, fingerprint,
// cluster, pick representatives, then report and relocate.
package engine

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"

	"visdedupe/actions"
	"visdedupe/cluster"
	"visdedupe/database"
	"visdedupe/imageprocessor"
	"visdedupe/logging"
	"visdedupe/metrics"
	"visdedupe/scanner"
	"visdedupe/types"

	"github.com/google/uuid"
)

// ErrNoImages is returned when the root holds no recognized image files
var ErrNoImages = errors.New("no images found")

// Config is one run's input. Paths are used as given; an empty ReportPath
// disables the report and an empty MoveDir disables relocation.
type Config struct {
	Root      string
	Recursive bool
	Threshold int
	Policy    cluster.Policy
	MaxSide   int
	Workers   int

	ReportPath string
	MoveDir    string
	DryRun     bool
	CachePath  string

	Progress bool
	RunID    string
	Metrics  *metrics.Recorder
}

// Result is the outcome of a run
type Result struct {
	RunID    string
	Items    []types.CatalogItem
	Clusters []types.Cluster
	Skipped  []types.SkipRecord

	// Partial is set when cancellation left files unprocessed
	Partial bool

	ReportWritten bool
	Plan          []types.DedupAction
	Relocation    actions.RelocateStats
}

// Representatives returns the kept path of every cluster, in cluster order
func (r *Result) Representatives() []string {
	out := make([]string, 0, len(r.Clusters))
	for _, c := range r.Clusters {
		out = append(out, r.Items[c.Representative].Path)
	}
	return out
}

// DuplicateCount returns the number of non-representative files
func (r *Result) DuplicateCount() int {
	return cluster.DuplicateCount(r.Clusters)
}

// Run executes the pipeline. Report and relocation are independent: a
// failure in one is returned after the other has completed. Relocation is
// skipped for partial runs.
func Run(ctx context.Context, cfg Config) (*Result, error) {
	if cfg.RunID == "" {
		cfg.RunID = uuid.New().String()
	}
	if cfg.Policy == "" {
		cfg.Policy = cluster.DefaultPolicy
	}
	if cfg.MaxSide <= 0 {
		cfg.MaxSide = imageprocessor.DefaultMaxSide
	}
	if cfg.Metrics == nil {
		cfg.Metrics = metrics.NewRecorder()
	}
	rec := cfg.Metrics
	res := &Result{RunID: cfg.RunID}

	files, unlisted, err := scanner.ListImages(cfg.Root, scanner.ListOptions{Recursive: cfg.Recursive, ExcludeDir: cfg.MoveDir})
	if err != nil {
		return nil, err
	}
	for _, s := range unlisted {
		res.skip(s, rec)
	}
	rec.FilesDiscovered(len(files))
	if len(files) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoImages, cfg.Root)
	}

	kept, variants := scanner.CoalesceFiles(files)
	rec.FilesCoalesced(len(variants))
	for _, s := range variants {
		res.skip(s, rec)
	}
	logging.LogInfo("Found %d images, %d after coalescing name variants", len(files), len(kept))

	res.Items = fingerprint(ctx, cfg, kept, res, rec)
	sort.SliceStable(res.Skipped, func(i, j int) bool { return res.Skipped[i].Path < res.Skipped[j].Path })

	fps := make([]types.Fingerprint, len(res.Items))
	for i, it := range res.Items {
		fps[i] = it.Fingerprint
	}
	res.Clusters = cluster.Cluster(fps, cfg.Threshold)
	cluster.AssignRepresentatives(res.Clusters, res.Items, cfg.Policy)
	rec.ClusterSummary(len(res.Clusters), res.DuplicateCount())
	logging.LogInfo("Formed %d clusters with %d duplicates at threshold %d", len(res.Clusters), res.DuplicateCount(), cfg.Threshold)

	var actionErrs []error
	if cfg.ReportPath != "" {
		err := actions.WriteReport(cfg.ReportPath, actions.ReportData{
			RunID:       cfg.RunID,
			Root:        cfg.Root,
			Threshold:   cfg.Threshold,
			Policy:      string(cfg.Policy),
			GeneratedAt: time.Now(),
			Partial:     res.Partial,
			Items:       res.Items,
			Clusters:    res.Clusters,
			Skipped:     res.Skipped,
		})
		if err != nil {
			logging.LogError("Report failed: %v", err)
			actionErrs = append(actionErrs, err)
		} else {
			res.ReportWritten = true
			logging.LogInfo("Report: %s", cfg.ReportPath)
		}
	}

	if cfg.MoveDir != "" {
		if res.Partial {
			logging.LogWarning("Run was interrupted, not moving any files")
		} else {
			res.Plan = actions.PlanRelocation(res.Items, res.Clusters, cfg.MoveDir)
			res.Relocation, err = actions.Relocate(res.Plan, cfg.DryRun)
			rec.Relocated(res.Relocation.Moved)
			if err != nil {
				actionErrs = append(actionErrs, err)
			}
			if cfg.DryRun {
				logging.LogInfo("Dry run: would move %d files to %s", len(res.Plan), cfg.MoveDir)
			} else {
				logging.LogInfo("Moved %d files to %s", res.Relocation.Moved, cfg.MoveDir)
			}
		}
	}

	return res, errors.Join(actionErrs...)
}

// skip records an excluded file
func (r *Result) skip(s types.SkipRecord, rec *metrics.Recorder) {
	r.Skipped = append(r.Skipped, s)
	rec.Skipped(s.Reason)
	logging.LogSkip(s.Path, string(s.Reason), s.Detail)
}

// fingerprint resolves every file to a catalog item, from the cache or the
// worker pool, and returns the survivors in listing order.
func fingerprint(ctx context.Context, cfg Config, files []types.SourceFile, res *Result, rec *metrics.Recorder) []types.CatalogItem {
	var db *sql.DB
	if cfg.CachePath != "" {
		var err error
		if db, err = database.InitDatabase(cfg.CachePath); err != nil {
			logging.LogWarning("Fingerprint cache disabled: %v", err)
			db = nil
		} else {
			defer db.Close()
		}
	}

	slots := make([]*types.CatalogItem, len(files))
	var jobs []scanner.Job
	hits := 0
	for i, f := range files {
		if item, ok := scanner.CheckCache(db, f, cfg.MaxSide); ok {
			slots[i] = item
			hits++
			rec.CacheHit()
			continue
		}
		jobs = append(jobs, scanner.Job{Index: i, File: f})
	}

	tracker := scanner.NewProgressTracker(jobs, hits, cfg.Progress)
	start := time.Now()

	normalizer := imageprocessor.NewNormalizer(cfg.MaxSide)
	left := scanner.ProcessFiles(ctx, jobs, scanner.ProcessOptions{
		Workers:    cfg.Workers,
		Normalizer: normalizer,
	}, func(r scanner.ProcessImageResult) {
		tracker.Record(r, files[r.Index])
		rec.ObserveFingerprint(r.Duration)
		if r.Success() {
			slots[r.Index] = r.Item
			scanner.StoreCache(db, r.Item, cfg.MaxSide)
			return
		}
		res.skip(*r.Skip, rec)
	})

	tracker.Stop()
	tracker.PrintCompletionStats(start)
	if db != nil {
		if stats, err := database.GetCacheStats(db); err != nil {
			logging.LogWarning("Cannot read cache stats: %v", err)
		} else {
			logging.LogInfo("Fingerprint cache: %d hits, %d entries, %d distinct hashes", hits, stats.Entries, stats.UniqueHashes)
		}
	}

	for _, j := range left {
		res.skip(types.SkipRecord{Path: j.File.Path, Reason: types.SkipCancelled, Detail: "not processed before cancellation"}, rec)
	}
	res.Partial = len(left) > 0

	items := make([]types.CatalogItem, 0, len(files))
	for _, it := range slots {
		if it != nil {
			items = append(items, *it)
		}
	}
	return items
}
