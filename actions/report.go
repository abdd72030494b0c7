// Package actions carries out what a run decided: the HTML report and the
// relocation of non-representative files.
package actions

import (
	"bytes"
	"html/template"
	"io"
	"math"
	"os"
	"path/filepath"
	"time"

	"visdedupe/types"
)

// ReportData is everything the report renders
type ReportData struct {
	RunID       string
	Root        string
	Threshold   int
	Policy      string
	GeneratedAt time.Time
	Partial     bool

	Items    []types.CatalogItem
	Clusters []types.Cluster
	Skipped  []types.SkipRecord
}

type reportMember struct {
	Name           string
	Path           string
	SizeKB         int64
	Hash           string
	CaptureTime    string
	Thumb          template.URL
	Representative bool
}

type reportCluster struct {
	Index   int
	Members []reportMember
}

type reportView struct {
	ReportData
	Generated       string
	ClusterCount    int
	DuplicateGroups int
	DuplicateTotal  int
	Groups          []reportCluster
}

var reportTemplate = template.Must(template.New("report").Parse(`<!doctype html>
<html>
<head>
<meta charset="utf-8">
<title>visdedupe report</title>
<style>
body{font-family:ui-sans-serif,system-ui,Arial;margin:24px}
.cluster{border:1px solid #ddd;border-radius:12px;padding:12px;margin:16px 0}
.cluster.single{border-style:dashed}
.item{display:flex;gap:12px;align-items:center;padding:8px;border-radius:8px}
.item.rep{background:#eef9ee;border:1px solid #b7e3b7}
.item.dupe{background:#fff2f2;border:1px solid #f0c0c0}
.thumb img{height:120px;object-fit:cover;border-radius:8px}
.meta{font-size:14px}
.meta code{font-size:12px}
h1{margin:0 0 12px}
small{color:#666}
table.skipped{border-collapse:collapse;font-size:13px}
table.skipped td,table.skipped th{border:1px solid #ddd;padding:4px 8px;text-align:left}
</style>
</head>
<body>
<h1>visdedupe report</h1>
<p><small>Run {{.RunID}} &middot; {{.Generated}}</small></p>
<p>Root <code>{{.Root}}</code> &middot; threshold {{.Threshold}} bits &middot; keep {{.Policy}}</p>
<p>{{len .Items}} images in {{.ClusterCount}} clusters; {{.DuplicateGroups}} duplicate groups holding {{.DuplicateTotal}} duplicates; {{len .Skipped}} files skipped.</p>
{{- if .Partial}}
<p><strong>Run was interrupted; results are partial.</strong></p>
{{- end}}
{{range .Groups}}
<div class="cluster{{if eq (len .Members) 1}} single{{end}}" id="cluster-{{.Index}}">
{{- range .Members}}
<div class="item {{if .Representative}}rep{{else}}dupe{{end}}">
<div class="thumb">{{if .Thumb}}<img src="{{.Thumb}}" loading="lazy" alt="{{.Name}}">{{end}}</div>
<div class="meta">
  <div><strong>{{.Name}}</strong>{{if .Representative}} &middot; representative{{end}}</div>
  <div>{{.SizeKB}} KB{{if .CaptureTime}} &middot; taken {{.CaptureTime}}{{end}}</div>
  <div><code>{{.Path}}</code></div>
  <div><code>{{.Hash}}</code></div>
</div>
</div>
{{- end}}
</div>
{{- end}}
{{if .Skipped}}
<h2>Skipped files</h2>
<table class="skipped">
<tr><th>Path</th><th>Reason</th><th>Detail</th></tr>
{{- range .Skipped}}
<tr><td><code>{{.Path}}</code></td><td>{{.Reason}}</td><td>{{.Detail}}</td></tr>
{{- end}}
</table>
{{end}}
</body>
</html>
`))

func buildView(data ReportData) reportView {
	view := reportView{
		ReportData:   data,
		Generated:    data.GeneratedAt.Format(time.RFC3339),
		ClusterCount: len(data.Clusters),
	}

	for ci, c := range data.Clusters {
		if c.IsDuplicateGroup() {
			view.DuplicateGroups++
			view.DuplicateTotal += len(c.Members) - 1
		}
		group := reportCluster{Index: ci}
		for _, m := range c.Members {
			it := data.Items[m]
			member := reportMember{
				Name:           it.Name,
				Path:           it.Path,
				SizeKB:         int64(math.Round(float64(it.Size) / 1024)),
				Hash:           it.Fingerprint.String(),
				Thumb:          template.URL(it.Preview),
				Representative: m == c.Representative,
			}
			if member.Name == "" {
				member.Name = filepath.Base(it.Path)
			}
			if !it.CaptureTime.IsZero() {
				member.CaptureTime = it.CaptureTime.Format("2006-01-02 15:04:05")
			}
			group.Members = append(group.Members, member)
		}
		view.Groups = append(view.Groups, group)
	}
	return view
}

// RenderReport writes the HTML report to w
func RenderReport(w io.Writer, data ReportData) error {
	return reportTemplate.Execute(w, buildView(data))
}

// WriteReport renders the report and writes it to path. Thumbnails are
// embedded, so the file is self-contained.
func WriteReport(path string, data ReportData) error {
	var buf bytes.Buffer
	if err := RenderReport(&buf, data); err != nil {
		return &IOError{Op: "render report", Path: path, Err: err}
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return &IOError{Op: "create report directory", Path: dir, Err: err}
		}
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return &IOError{Op: "write report", Path: path, Err: err}
	}
	return nil
}
