package scanner

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"visdedupe/imageprocessor"
	"visdedupe/logging"
	"visdedupe/types"
)

// ListImages returns the recognized image files under root, sorted by path.
// Only root itself is listed unless opts.Recursive is set. Regular files
// with an unrecognized extension, and files that cannot be stat'ed, are
// returned as skip records instead.
func ListImages(root string, opts ListOptions) ([]types.SourceFile, []types.SkipRecord, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, nil, fmt.Errorf("cannot resolve %s: %w", root, err)
	}
	info, err := os.Stat(absRoot)
	if err != nil {
		return nil, nil, fmt.Errorf("cannot access %s: %w", root, err)
	}
	if !info.IsDir() {
		return nil, nil, fmt.Errorf("not a directory: %s", root)
	}

	exclude := ""
	if opts.ExcludeDir != "" {
		if exclude, err = filepath.Abs(opts.ExcludeDir); err != nil {
			return nil, nil, fmt.Errorf("cannot resolve %s: %w", opts.ExcludeDir, err)
		}
	}

	var files []types.SourceFile
	var skipped []types.SkipRecord
	err = filepath.WalkDir(absRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == absRoot {
				return err
			}
			logging.LogWarning("Error accessing path %s: %v", path, err)
			return nil
		}
		if d.IsDir() {
			if path == absRoot {
				return nil
			}
			if !opts.Recursive || path == exclude {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		if !imageprocessor.IsImageFile(path) {
			unsupported := &imageprocessor.UnsupportedFormatError{Path: path, Ext: strings.ToLower(filepath.Ext(path))}
			skipped = append(skipped, types.SkipRecord{Path: path, Reason: types.SkipUnsupportedFormat, Detail: unsupported.Error()})
			return nil
		}

		fi, err := d.Info()
		if err != nil {
			skipped = append(skipped, types.SkipRecord{Path: path, Reason: types.SkipStatError, Detail: err.Error()})
			return nil
		}
		files = append(files, types.SourceFile{
			Path:    path,
			Name:    d.Name(),
			Size:    fi.Size(),
			ModTime: fi.ModTime(),
			Format:  imageprocessor.FormatTagFor(path),
		})
		return nil
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list %s: %w", root, err)
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, skipped, nil
}

// countFilesToProcess counts and classifies files to be processed
func countFilesToProcess(jobs []Job) FileStats {
	stats := FileStats{totalFiles: len(jobs)}
	for _, j := range jobs {
		if j.File.Format == types.FormatLayered {
			stats.layeredFiles++
		}
	}
	return stats
}
