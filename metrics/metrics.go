// Package metrics counts what a run did and exports it in the Prometheus
// text format for node_exporter's textfile collector.
package metrics

import (
	"time"

	"visdedupe/types"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "visdedupe"

// Recorder holds the counters of a single run on a private registry
type Recorder struct {
	reg *prometheus.Registry

	filesDiscovered prometheus.Counter
	filesCoalesced  prometheus.Counter
	filesSkipped    *prometheus.CounterVec
	cacheHits       prometheus.Counter
	hashDuration    prometheus.Histogram
	clusters        prometheus.Gauge
	duplicates      prometheus.Gauge
	relocated       prometheus.Counter
	lastRun         prometheus.Gauge
}

// NewRecorder creates a recorder with all run metrics registered
func NewRecorder() *Recorder {
	r := &Recorder{
		reg: prometheus.NewRegistry(),
		filesDiscovered: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "files_discovered_total",
			Help: "Recognized image files found under the root.",
		}),
		filesCoalesced: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "files_coalesced_total",
			Help: "Files dropped as name variants of another file.",
		}),
		filesSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "files_skipped_total",
			Help: "Files excluded from clustering, by reason.",
		}, []string{"reason"}),
		cacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "cache_hits_total",
			Help: "Fingerprints served from the cache.",
		}),
		hashDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace, Name: "fingerprint_duration_seconds",
			Help:    "Time to decode, normalize and fingerprint one file.",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 12),
		}),
		clusters: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "clusters",
			Help: "Clusters formed in the last run.",
		}),
		duplicates: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "duplicates",
			Help: "Non-representative members in the last run.",
		}),
		relocated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "files_relocated_total",
			Help: "Files moved to the duplicates directory.",
		}),
		lastRun: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "last_run_timestamp_seconds",
			Help: "Unix time the last run finished.",
		}),
	}

	r.reg.MustRegister(
		r.filesDiscovered, r.filesCoalesced, r.filesSkipped, r.cacheHits,
		r.hashDuration, r.clusters, r.duplicates, r.relocated, r.lastRun,
	)
	return r
}

// FilesDiscovered counts recognized image files found by the listing
func (r *Recorder) FilesDiscovered(n int) { r.filesDiscovered.Add(float64(n)) }

// FilesCoalesced counts files dropped as name variants
func (r *Recorder) FilesCoalesced(n int) { r.filesCoalesced.Add(float64(n)) }

// Skipped counts one excluded file under its reason
func (r *Recorder) Skipped(reason types.SkipReason) {
	r.filesSkipped.WithLabelValues(string(reason)).Inc()
}

// CacheHit counts a fingerprint served from the cache
func (r *Recorder) CacheHit() { r.cacheHits.Inc() }

// ObserveFingerprint records how long one file took to decode and hash
func (r *Recorder) ObserveFingerprint(d time.Duration) { r.hashDuration.Observe(d.Seconds()) }

// ClusterSummary records the shape of the final partition
func (r *Recorder) ClusterSummary(clusters, duplicates int) {
	r.clusters.Set(float64(clusters))
	r.duplicates.Set(float64(duplicates))
}

// Relocated counts files moved out of the root
func (r *Recorder) Relocated(n int) { r.relocated.Add(float64(n)) }

// WriteTextfile stamps the run end time and writes all metrics to path
func (r *Recorder) WriteTextfile(path string) error {
	r.lastRun.SetToCurrentTime()
	return prometheus.WriteToTextfile(path, r.reg)
}
