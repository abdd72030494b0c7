package scanner

import (
	"sync"
	"time"

	"visdedupe/imageprocessor"
	"visdedupe/types"
)

// ListOptions controls directory listing
type ListOptions struct {
	Recursive  bool
	ExcludeDir string // absolute directory not descended into, e.g. the move target
}

// Job is one file to decode and fingerprint. Index is its position in the
// caller's catalog.
type Job struct {
	Index int
	File  types.SourceFile
}

// ProcessOptions configures the worker pool
type ProcessOptions struct {
	Workers      int
	Normalizer   *imageprocessor.Normalizer
	PreviewWidth int
}

// ProcessImageResult holds the result of processing one job. Exactly one of
// Item and Skip is set.
type ProcessImageResult struct {
	Index    int
	Item     *types.CatalogItem
	Skip     *types.SkipRecord
	Duration time.Duration
}

// Success reports whether the job produced a catalog item
func (r ProcessImageResult) Success() bool {
	return r.Item != nil
}

// FileStats tracks information about files to be processed
type FileStats struct {
	totalFiles   int
	layeredFiles int
	cachedFiles  int
}

// ProgressTracker tracks progress of the fingerprinting stage
type ProgressTracker struct {
	processed        int
	errors           int
	layeredProcessed int
	layeredErrors    int
	cacheHits        int
	ticker           *time.Ticker
	done             chan bool
	mu               sync.Mutex
	totalFiles       int
	layeredFiles     int
	enabled          bool
}
