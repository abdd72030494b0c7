package scanner

import (
	"context"
	"errors"
	"sync"
	"time"

	"visdedupe/imageprocessor"
	"visdedupe/logging"
	"visdedupe/signalhandler"
	"visdedupe/types"
)

// ProcessFiles decodes and fingerprints jobs on a bounded worker pool.
// onResult is called from the calling goroutine only, in completion order.
// Cancelling ctx stops dispatch; jobs never handed to a worker are returned.
func ProcessFiles(ctx context.Context, jobs []Job, opts ProcessOptions, onResult func(ProcessImageResult)) []Job {
	workers := opts.Workers
	if workers < 1 {
		workers = signalhandler.GetOptimalProcs()
	}
	if opts.Normalizer == nil {
		opts.Normalizer = imageprocessor.NewNormalizer(imageprocessor.DefaultMaxSide)
	}
	if opts.PreviewWidth <= 0 {
		opts.PreviewWidth = imageprocessor.DefaultPreviewWidth
	}

	jobsChan := make(chan Job)
	resultsChan := make(chan ProcessImageResult, workers)
	var wg sync.WaitGroup

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobsChan {
				resultsChan <- processImage(job, opts)
			}
		}()
	}

	var undispatched []Job
	go func() {
		defer close(jobsChan)
		for i, job := range jobs {
			select {
			case <-ctx.Done():
				undispatched = jobs[i:]
				logging.LogWarning("Cancelled with %d files not yet processed", len(undispatched))
				return
			case jobsChan <- job:
			}
		}
	}()

	go func() {
		wg.Wait()
		close(resultsChan)
	}()

	for result := range resultsChan {
		onResult(result)
	}
	return undispatched
}

// processImage normalizes, fingerprints and previews a single file
func processImage(job Job, opts ProcessOptions) ProcessImageResult {
	start := time.Now()
	result := ProcessImageResult{Index: job.Index}
	path := job.File.Path

	img, err := opts.Normalizer.Normalize(path)
	if err != nil {
		result.Skip = skipFor(path, err)
		result.Duration = time.Since(start)
		return result
	}

	fp, err := imageprocessor.ComputeFingerprint(img)
	if err != nil {
		result.Skip = &types.SkipRecord{Path: path, Reason: types.SkipHashError, Detail: err.Error()}
		result.Duration = time.Since(start)
		return result
	}

	item := &types.CatalogItem{SourceFile: job.File, Fingerprint: fp}

	// A missing thumbnail only degrades the report
	if item.Preview, err = imageprocessor.MakePreview(img, opts.PreviewWidth); err != nil {
		logging.LogWarning("Cannot build preview for %s: %v", path, err)
	}
	if t, ok := imageprocessor.ReadCaptureTime(path); ok {
		item.CaptureTime = t
	}

	result.Item = item
	result.Duration = time.Since(start)
	logging.DebugLog("Fingerprinted %s: %s", path, fp)
	return result
}

// skipFor classifies a normalization failure
func skipFor(path string, err error) *types.SkipRecord {
	var unsupported *imageprocessor.UnsupportedFormatError
	if errors.As(err, &unsupported) {
		return &types.SkipRecord{Path: path, Reason: types.SkipUnsupportedFormat, Detail: err.Error()}
	}
	return &types.SkipRecord{Path: path, Reason: types.SkipDecodeError, Detail: err.Error()}
}
