package models

import "time"

// SystemMetricsSnapshot is a lightweight aggregate for admin dashboards,
// cheaper than scraping the Prometheus endpoint.
type SystemMetricsSnapshot struct {
	CacheHitRatio            float64   `json:"cache_hit_ratio"`
	CacheHits                uint64    `json:"cache_hits"`
	CacheMisses              uint64    `json:"cache_misses"`
	RequestsTotal            uint64    `json:"requests_total"`
	AverageRequestDurationMs float64   `json:"average_request_duration_ms"`
	ResultsUploaded          uint64    `json:"results_uploaded"`
	RegistrationsAccepted    uint64    `json:"registrations_accepted"`
	RegistrationsSkipped     uint64    `json:"registrations_skipped"`
	SemestersFinalized       uint64    `json:"semesters_finalized"`
	Goroutines               int       `json:"goroutines"`
	GeneratedAt              time.Time `json:"generated_at"`
}
