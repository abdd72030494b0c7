package scanner

import (
	"path/filepath"
	"regexp"
	"strings"

	"visdedupe/types"
)

// variantSuffix matches the " 2", " 3" and " 4" copies desktop tools make
// when a name is already taken, immediately before the extension.
var variantSuffix = regexp.MustCompile(` [234](\.[^./\\]*)?$`)

// CoalesceResult is the outcome of name coalescing
type CoalesceResult struct {
	// Chosen maps each normalized key to the retained path
	Chosen map[string]string
	// Order lists keys in first-seen input order
	Order []string
	// Dropped lists paths discarded as name variants, in input order
	Dropped []string
}

// Paths returns the retained paths in key order
func (r CoalesceResult) Paths() []string {
	out := make([]string, 0, len(r.Order))
	for _, k := range r.Order {
		out = append(out, r.Chosen[k])
	}
	return out
}

// NormalizedKey strips a trailing " 2", " 3" or " 4" marker from the base
// name and lower-cases it. The extension is kept, so "a.png" and "a.jpg"
// stay distinct. suffixed reports whether a marker was removed.
func NormalizedKey(path string) (key string, suffixed bool) {
	name := filepath.Base(path)
	if loc := variantSuffix.FindStringSubmatchIndex(name); loc != nil {
		ext := ""
		if loc[2] >= 0 {
			ext = name[loc[2]:loc[3]]
		}
		// A bare " 2.png" has no stem left to coalesce onto
		if loc[0] > 0 {
			name = name[:loc[0]] + ext
			suffixed = true
		}
	}
	return strings.ToLower(name), suffixed
}

// Coalesce keeps one path per normalized name key. An unsuffixed file beats
// its suffixed variants; otherwise the first path in input order wins.
func Coalesce(paths []string) CoalesceResult {
	res := CoalesceResult{Chosen: make(map[string]string)}
	suffixedChoice := make(map[string]bool)

	for _, p := range paths {
		key, suffixed := NormalizedKey(p)
		current, seen := res.Chosen[key]
		switch {
		case !seen:
			res.Chosen[key] = p
			suffixedChoice[key] = suffixed
			res.Order = append(res.Order, key)
		case suffixedChoice[key] && !suffixed:
			res.Dropped = append(res.Dropped, current)
			res.Chosen[key] = p
			suffixedChoice[key] = false
		default:
			res.Dropped = append(res.Dropped, p)
		}
	}
	return res
}

// CoalesceFiles coalesces source files, per parent directory when recursive
// listings span several. Retained files keep their listing order; dropped
// files are returned as skip records.
func CoalesceFiles(files []types.SourceFile) ([]types.SourceFile, []types.SkipRecord) {
	byDir := make(map[string][]string)
	var dirs []string
	for _, f := range files {
		dir := filepath.Dir(f.Path)
		if _, ok := byDir[dir]; !ok {
			dirs = append(dirs, dir)
		}
		byDir[dir] = append(byDir[dir], f.Path)
	}

	keep := make(map[string]bool, len(files))
	var skips []types.SkipRecord
	for _, dir := range dirs {
		res := Coalesce(byDir[dir])
		for _, p := range res.Paths() {
			keep[p] = true
		}
		for _, p := range res.Dropped {
			key, _ := NormalizedKey(p)
			skips = append(skips, types.SkipRecord{
				Path:   p,
				Reason: types.SkipNameVariant,
				Detail: "variant of " + res.Chosen[key],
			})
		}
	}

	kept := make([]types.SourceFile, 0, len(keep))
	for _, f := range files {
		if keep[f.Path] {
			kept = append(kept, f)
		}
	}
	return kept, skips
}
