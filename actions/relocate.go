package actions

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"syscall"

	"visdedupe/logging"
	"visdedupe/types"
)

// RelocateStats summarizes a relocation pass
type RelocateStats struct {
	Moved   int
	Missing int // sources already gone, e.g. moved by an earlier run
	Failed  int
}

// candidateName returns the n-th destination name for base: base itself for
// n == 0, otherwise "stem-n.ext". The stem is always the original one.
func candidateName(base string, n int) string {
	if n == 0 {
		return base
	}
	ext := filepath.Ext(base)
	return fmt.Sprintf("%s-%d%s", strings.TrimSuffix(base, ext), n, ext)
}

// PlanRelocation plans one move for every non-representative member of every
// cluster with more than one member. Destinations never collide with files
// already in targetDir or with each other.
func PlanRelocation(items []types.CatalogItem, clusters []types.Cluster, targetDir string) []types.DedupAction {
	claimed := make(map[string]bool)
	var plan []types.DedupAction

	for ci, c := range clusters {
		if !c.IsDuplicateGroup() {
			continue
		}
		for _, m := range c.Members {
			if m == c.Representative {
				continue
			}
			src := items[m].Path
			base := filepath.Base(src)
			var dst string
			for n := 0; ; n++ {
				dst = filepath.Join(targetDir, candidateName(base, n))
				if claimed[dst] {
					continue
				}
				if _, err := os.Lstat(dst); err == nil {
					continue
				}
				break
			}
			claimed[dst] = true
			plan = append(plan, types.DedupAction{Source: src, Destination: dst, ClusterIndex: ci})
		}
	}
	return plan
}

// Relocate executes a plan. The target directory is created if needed and is
// never emptied. Sources that no longer exist are counted as missing, so a
// plan can be replayed. Existing files are never overwritten: when a planned
// destination has been taken since planning, the next free "stem-N" name is
// used. Per-file failures are returned joined; the remaining moves proceed.
func Relocate(plan []types.DedupAction, dryRun bool) (RelocateStats, error) {
	var stats RelocateStats
	if len(plan) == 0 {
		return stats, nil
	}

	if dryRun {
		for _, a := range plan {
			logging.LogInfo("Would move %s -> %s", a.Source, a.Destination)
		}
		return stats, nil
	}

	dirs := make(map[string]bool)
	var errs []error
	for _, a := range plan {
		dir := filepath.Dir(a.Destination)
		if !dirs[dir] {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return stats, &IOError{Op: "create directory", Path: dir, Err: err}
			}
			dirs[dir] = true
		}

		if _, err := os.Lstat(a.Source); errors.Is(err, fs.ErrNotExist) {
			logging.DebugLog("Source already gone: %s", a.Source)
			stats.Missing++
			continue
		}

		dst, err := moveFile(a.Source, a.Destination)
		if err != nil {
			logging.LogError("Failed to move %s: %v", a.Source, err)
			stats.Failed++
			errs = append(errs, err)
			continue
		}
		logging.DebugLog("Moved %s -> %s", a.Source, dst)
		stats.Moved++
	}
	return stats, errors.Join(errs...)
}

// claimDestination atomically creates an empty placeholder at the planned
// destination or the next free "stem-N" sibling and returns its path.
func claimDestination(planned, source string) (string, error) {
	dir := filepath.Dir(planned)
	base := filepath.Base(source)

	candidate := planned
	for n := 0; ; n++ {
		if n > 0 {
			candidate = filepath.Join(dir, candidateName(base, n))
		}
		if n > 0 && candidate == planned {
			continue
		}
		f, err := os.OpenFile(candidate, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
		if err == nil {
			f.Close()
			return candidate, nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return "", &IOError{Op: "claim destination", Path: candidate, Err: err}
		}
	}
}

// moveFile moves src onto a freshly claimed destination, copying across
// devices.
func moveFile(src, planned string) (string, error) {
	dst, err := claimDestination(planned, src)
	if err != nil {
		return "", err
	}

	err = os.Rename(src, dst)
	if err == nil {
		return dst, nil
	}
	if !errors.Is(err, syscall.EXDEV) {
		os.Remove(dst)
		return "", &IOError{Op: "move", Path: src, Err: err}
	}

	if err := copyFile(src, dst); err != nil {
		os.Remove(dst)
		return "", &IOError{Op: "copy", Path: src, Err: err}
	}
	if err := os.Remove(src); err != nil {
		return dst, &IOError{Op: "remove after copy", Path: src, Err: err}
	}
	return dst, nil
}

// copyFile copies contents, permissions and modification time into an
// existing dst.
func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return err
	}

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	os.Chmod(dst, info.Mode().Perm())
	return os.Chtimes(dst, info.ModTime(), info.ModTime())
}
