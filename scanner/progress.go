package scanner

import (
	"fmt"
	"os"
	"time"

	"visdedupe/logging"
	"visdedupe/types"
)

// NewProgressTracker initializes the progress tracker. The periodic display
// only runs when enabled; counts are kept either way.
func NewProgressTracker(jobs []Job, cached int, enabled bool) *ProgressTracker {
	stats := countFilesToProcess(jobs)
	stats.cachedFiles = cached

	tracker := &ProgressTracker{
		ticker:       time.NewTicker(500 * time.Millisecond),
		done:         make(chan bool),
		totalFiles:   stats.totalFiles,
		layeredFiles: stats.layeredFiles,
		cacheHits:    stats.cachedFiles,
		enabled:      enabled,
	}

	if enabled {
		printStartupInfo(stats)
		go tracker.displayProgress()
	}

	return tracker
}

// displayProgress shows the progress periodically
func (p *ProgressTracker) displayProgress() {
	for {
		select {
		case <-p.done:
			return
		case <-p.ticker.C:
			p.mu.Lock()
			if p.errors > 0 {
				fmt.Fprintf(os.Stderr, "\rProgress: %d/%d (Errors: %d, Layered: %d/%d)",
					p.processed, p.totalFiles, p.errors, p.layeredProcessed, p.layeredFiles)
			} else {
				fmt.Fprintf(os.Stderr, "\rProgress: %d/%d (Layered: %d/%d)",
					p.processed, p.totalFiles, p.layeredProcessed, p.layeredFiles)
			}
			p.mu.Unlock()
		}
	}
}

// Record updates the tracker state with one processing result and logs it
func (p *ProgressTracker) Record(result ProcessImageResult, file types.SourceFile) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.processed++
	layered := file.Format == types.FormatLayered
	if layered {
		p.layeredProcessed++
	}

	if !result.Success() {
		p.errors++
		if layered {
			p.layeredErrors++
		}
		if result.Skip != nil {
			logging.LogImageProcessed(file.Path, false, result.Skip.Detail)
		}
		return
	}
	logging.LogImageProcessed(file.Path, true, "")
}

// Stop ends the progress tracking
func (p *ProgressTracker) Stop() {
	p.ticker.Stop()
	if p.enabled {
		p.done <- true
	}
}

// printStartupInfo displays information about the run before starting
func printStartupInfo(stats FileStats) {
	fmt.Fprintf(os.Stderr, "Fingerprinting %d image files (%d layered, %d more from cache)\n",
		stats.totalFiles, stats.layeredFiles, stats.cachedFiles)
}

// PrintCompletionStats displays statistics after the fingerprinting stage
func (p *ProgressTracker) PrintCompletionStats(startTime time.Time) {
	p.mu.Lock()
	defer p.mu.Unlock()

	elapsed := time.Since(startTime)
	logging.DebugLog("Fingerprinting completed in %v. Processed: %d, Errors: %d, Layered files: %d, Layered errors: %d, Cache hits: %d",
		elapsed, p.processed, p.errors, p.layeredProcessed, p.layeredErrors, p.cacheHits)

	if !p.enabled {
		return
	}

	fmt.Fprintln(os.Stderr)
	fmt.Fprintf(os.Stderr, "Processed %d images in %v.\n", p.processed, elapsed.Round(time.Millisecond))
	if p.layeredProcessed > 0 {
		fmt.Fprintf(os.Stderr, "Successfully processed %d/%d layered files.\n",
			p.layeredProcessed-p.layeredErrors, p.layeredFiles)
	}
	if p.errors > 0 {
		fmt.Fprintf(os.Stderr, "Encountered %d errors during fingerprinting.\n", p.errors)
	}
}
