package actions

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"strings"
	"testing"
	"time"

	"visdedupe/types"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func listDir(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	var out []string
	for _, e := range entries {
		out = append(out, e.Name())
	}
	sort.Strings(out)
	return out
}

func catalog(paths ...string) []types.CatalogItem {
	items := make([]types.CatalogItem, len(paths))
	for i, p := range paths {
		items[i] = types.CatalogItem{SourceFile: types.SourceFile{Path: p, Name: filepath.Base(p), Size: 2048}}
	}
	return items
}

func TestCandidateName(t *testing.T) {
	tests := []struct {
		base string
		n    int
		want string
	}{
		{"a.png", 0, "a.png"},
		{"a.png", 1, "a-1.png"},
		{"a.png", 2, "a-2.png"},
		{"archive.tar.gz", 1, "archive.tar-1.gz"},
		{"noext", 3, "noext-3"},
	}
	for _, tt := range tests {
		if got := candidateName(tt.base, tt.n); got != tt.want {
			t.Errorf("candidateName(%q, %d) = %q, want %q", tt.base, tt.n, got, tt.want)
		}
	}
}

func TestPlanRelocation(t *testing.T) {
	root := t.TempDir()
	target := filepath.Join(root, "dupes")
	writeFile(t, filepath.Join(target, "x.png"), "already here")

	items := catalog(
		filepath.Join(root, "one", "x.png"),
		filepath.Join(root, "two", "x.png"),
		filepath.Join(root, "three", "x.png"),
		filepath.Join(root, "y.png"),
	)
	clusters := []types.Cluster{
		{Members: []int{0, 1, 2}, Representative: 0},
		{Members: []int{3}, Representative: 3},
	}

	plan := PlanRelocation(items, clusters, target)
	want := []types.DedupAction{
		{Source: items[1].Path, Destination: filepath.Join(target, "x-1.png"), ClusterIndex: 0},
		{Source: items[2].Path, Destination: filepath.Join(target, "x-2.png"), ClusterIndex: 0},
	}
	if !reflect.DeepEqual(plan, want) {
		t.Errorf("plan = %+v\nwant %+v", plan, want)
	}
}

func TestPlanRelocation_NeverRepresentative(t *testing.T) {
	items := catalog("/r/a.png", "/r/b.png", "/r/c.png")
	clusters := []types.Cluster{{Members: []int{0, 1, 2}, Representative: 1}}
	for _, a := range PlanRelocation(items, clusters, t.TempDir()) {
		if a.Source == "/r/b.png" {
			t.Errorf("representative planned for relocation: %+v", a)
		}
	}
}

func TestRelocate_Idempotent(t *testing.T) {
	root := t.TempDir()
	target := filepath.Join(root, "dupes")
	for _, name := range []string{"a.png", "b.png", "c.png"} {
		writeFile(t, filepath.Join(root, name), name)
	}
	items := catalog(filepath.Join(root, "a.png"), filepath.Join(root, "b.png"), filepath.Join(root, "c.png"))
	clusters := []types.Cluster{{Members: []int{0, 1, 2}, Representative: 0}}
	plan := PlanRelocation(items, clusters, target)

	stats, err := Relocate(plan, false)
	if err != nil {
		t.Fatal(err)
	}
	if stats.Moved != 2 || stats.Missing != 0 || stats.Failed != 0 {
		t.Errorf("first run stats = %+v", stats)
	}

	stats, err = Relocate(plan, false)
	if err != nil {
		t.Fatal(err)
	}
	if stats.Moved != 0 || stats.Missing != 2 {
		t.Errorf("second run stats = %+v", stats)
	}

	if got := listDir(t, target); !reflect.DeepEqual(got, []string{"b.png", "c.png"}) {
		t.Errorf("target = %v", got)
	}
	if got := listDir(t, root); !reflect.DeepEqual(got, []string{"a.png", "dupes"}) {
		t.Errorf("root = %v", got)
	}
	if b, _ := os.ReadFile(filepath.Join(target, "b.png")); string(b) != "b.png" {
		t.Errorf("moved content = %q", b)
	}
}

func TestRelocate_NeverOverwrites(t *testing.T) {
	root := t.TempDir()
	target := filepath.Join(root, "dupes")
	writeFile(t, filepath.Join(root, "a.png"), "new")
	plan := []types.DedupAction{{Source: filepath.Join(root, "a.png"), Destination: filepath.Join(target, "a.png")}}

	// Appears between planning and execution
	writeFile(t, filepath.Join(target, "a.png"), "old")

	stats, err := Relocate(plan, false)
	if err != nil || stats.Moved != 1 {
		t.Fatalf("Relocate = %+v, %v", stats, err)
	}
	if b, _ := os.ReadFile(filepath.Join(target, "a.png")); string(b) != "old" {
		t.Errorf("existing file overwritten: %q", b)
	}
	if b, _ := os.ReadFile(filepath.Join(target, "a-1.png")); string(b) != "new" {
		t.Errorf("a-1.png = %q", b)
	}
}

func TestRelocate_DryRun(t *testing.T) {
	root := t.TempDir()
	src := filepath.Join(root, "a.png")
	writeFile(t, src, "x")
	target := filepath.Join(root, "dupes")

	stats, err := Relocate([]types.DedupAction{{Source: src, Destination: filepath.Join(target, "a.png")}}, true)
	if err != nil || stats.Moved != 0 {
		t.Fatalf("Relocate = %+v, %v", stats, err)
	}
	if _, err := os.Stat(src); err != nil {
		t.Error("dry run moved the source")
	}
	if _, err := os.Stat(target); !os.IsNotExist(err) {
		t.Error("dry run created the target directory")
	}
}

func TestRelocate_TargetIsFile(t *testing.T) {
	root := t.TempDir()
	blocker := filepath.Join(root, "dupes")
	writeFile(t, blocker, "not a dir")
	writeFile(t, filepath.Join(root, "a.png"), "x")

	_, err := Relocate([]types.DedupAction{{Source: filepath.Join(root, "a.png"), Destination: filepath.Join(blocker, "a.png")}}, false)
	var ioErr *IOError
	if !errors.As(err, &ioErr) {
		t.Errorf("err = %v, want IOError", err)
	}
}

func sampleReport() ReportData {
	items := []types.CatalogItem{
		{SourceFile: types.SourceFile{Path: "/r/a.png", Name: "a.png", Size: 4096}, Fingerprint: types.Fingerprint{1}, Preview: "data:image/jpeg;base64,AAAA"},
		{SourceFile: types.SourceFile{Path: "/r/b <1>.png", Name: "b <1>.png", Size: 1024}, Fingerprint: types.Fingerprint{1},
			CaptureTime: time.Date(2021, 7, 4, 10, 0, 0, 0, time.UTC)},
		{SourceFile: types.SourceFile{Path: "/r/c.png", Name: "c.png", Size: 10}},
	}
	return ReportData{
		RunID:       "run-123",
		Root:        "/r",
		Threshold:   6,
		Policy:      "largest",
		GeneratedAt: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
		Items:       items,
		Clusters: []types.Cluster{
			{Members: []int{0, 1}, Representative: 0},
			{Members: []int{2}, Representative: 2},
		},
		Skipped: []types.SkipRecord{{Path: "/r/broken.png", Reason: types.SkipDecodeError, Detail: "unexpected EOF"}},
	}
}

func TestRenderReport(t *testing.T) {
	var buf bytes.Buffer
	if err := RenderReport(&buf, sampleReport()); err != nil {
		t.Fatal(err)
	}
	out := buf.String()

	for _, want := range []string{
		"run-123",
		`src="data:image/jpeg;base64,AAAA"`,
		"b &lt;1&gt;.png",
		"4 KB",
		"2021-07-04 10:00:00",
		types.Fingerprint{1}.String(),
		"representative",
		"1 duplicate groups holding 1 duplicates",
		"/r/broken.png",
		"decode-error",
		`class="item rep"`,
		`class="item dupe"`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("report missing %q", want)
		}
	}
	if strings.Count(out, `class="cluster`) != 2 {
		t.Errorf("want 2 clusters in report")
	}
}

func TestRenderReport_AllSingletons(t *testing.T) {
	data := sampleReport()
	data.Clusters = []types.Cluster{
		{Members: []int{0}, Representative: 0},
		{Members: []int{1}, Representative: 1},
		{Members: []int{2}, Representative: 2},
	}
	data.Skipped = nil

	var buf bytes.Buffer
	if err := RenderReport(&buf, data); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if !strings.Contains(out, "0 duplicate groups holding 0 duplicates") {
		t.Error("singleton counts missing")
	}
	if strings.Contains(out, "Skipped files") {
		t.Error("empty skip table rendered")
	}
}

func TestWriteReport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "report.html")
	if err := WriteReport(path, sampleReport()); err != nil {
		t.Fatal(err)
	}
	if b, err := os.ReadFile(path); err != nil || !bytes.HasPrefix(b, []byte("<!doctype html>")) {
		t.Errorf("report file: %v", err)
	}

	err := WriteReport(t.TempDir(), sampleReport())
	var ioErr *IOError
	if !errors.As(err, &ioErr) {
		t.Errorf("writing over a directory: err = %v, want IOError", err)
	}
}
