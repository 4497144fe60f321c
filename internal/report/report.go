// Package report renders a finished model.Report to disk, as JSON and as a
// self-contained Chart.js HTML dashboard. Grounded on internal/report/report.go;
// both writers write to a temporary file in the destination directory and
// rename it into place, so a reader never observes a partially-written file.
package report

import (
	"encoding/json"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/vanguard-load/vanguard/pkg/model"
)

// WriteJSON marshals report as indented JSON and atomically writes it to path.
func WriteJSON(report model.Report, path string) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	return atomicWrite(path, data)
}

// WriteHTML renders report as a self-contained HTML dashboard and atomically
// writes it to path.
func WriteHTML(report model.Report, path string) error {
	tmpl, err := template.New("report").Parse(htmlTemplate)
	if err != nil {
		return fmt.Errorf("parse report template: %w", err)
	}

	data := buildTemplateData(report)

	tmp, err := os.CreateTemp(filepath.Dir(path), ".report-*.html.tmp")
	if err != nil {
		return fmt.Errorf("create temp report file: %w", err)
	}
	tmpName := tmp.Name()
	if err := tmpl.Execute(tmp, data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("render report: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	return os.Rename(tmpName, path)
}

func atomicWrite(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".report-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp report file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	return os.Rename(tmpName, path)
}

// StatusCodeRow is a row of the rendered status code breakdown table.
type StatusCodeRow struct {
	Code       string
	Count      int64
	Percentage float64
	IsSuccess  bool
}

// ErrorRow is a row of the rendered error distribution table.
type ErrorRow struct {
	Message string
	Count   int
}

// secondBucket accumulates one 1-second slice of the time series charts.
type secondBucket struct {
	requests int64
	success  int64
	failure  int64
	latsUs   []int64
}

// TemplateData holds everything the embedded HTML template renders.
type TemplateData struct {
	GeneratedAt       string
	TargetURL         string
	Method            string
	TestDuration      string
	Concurrency       int
	TotalRequests     int64
	SuccessCount      int64
	FailureCount      int64
	SuccessRate       float64
	RPS               float64
	P50, P90, P95, P99 string
	Max, Min          string
	AssertionFailures int64
	StatusCodesTable  []StatusCodeRow
	Errors            []ErrorRow

	TimeLabels, RPSData                       template.JS
	P50Data, P90Data, P95Data, P99Data         template.JS
	SuccessData, FailureData                   template.JS
	StatusLabels, StatusData                   template.JS
}

func buildTemplateData(r model.Report) TemplateData {
	buckets := bucketBySecond(r.Results)
	seconds := make([]int, 0, len(buckets))
	for s := range buckets {
		seconds = append(seconds, s)
	}
	sort.Ints(seconds)

	var timeLabels, rpsData, p50Data, p90Data, p95Data, p99Data, successData, failureData []string
	for _, s := range seconds {
		b := buckets[s]
		p50, p90, p95, p99 := percentilesUs(b.latsUs)
		timeLabels = append(timeLabels, fmt.Sprintf("'%ds'", s))
		rpsData = append(rpsData, fmt.Sprintf("%d", b.requests))
		p50Data = append(p50Data, fmt.Sprintf("%.2f", p50/1000))
		p90Data = append(p90Data, fmt.Sprintf("%.2f", p90/1000))
		p95Data = append(p95Data, fmt.Sprintf("%.2f", p95/1000))
		p99Data = append(p99Data, fmt.Sprintf("%.2f", p99/1000))
		successData = append(successData, fmt.Sprintf("%d", b.success))
		failureData = append(failureData, fmt.Sprintf("%d", b.failure))
	}

	var codes []int
	for code := range r.Summary.StatusCodeCounts {
		codes = append(codes, code)
	}
	sort.Ints(codes)

	var statusLabels, statusData []string
	var statusRows []StatusCodeRow
	for _, code := range codes {
		count := r.Summary.StatusCodeCounts[code]
		pct := 0.0
		if r.Summary.TotalRequests > 0 {
			pct = float64(count) / float64(r.Summary.TotalRequests) * 100
		}
		statusLabels = append(statusLabels, fmt.Sprintf("'%d'", code))
		statusData = append(statusData, fmt.Sprintf("%d", count))
		statusRows = append(statusRows, StatusCodeRow{
			Code:       fmt.Sprintf("%d", code),
			Count:      count,
			Percentage: pct,
			IsSuccess:  code >= 200 && code < 400,
		})
	}

	errCounts := map[string]int{}
	for _, o := range r.Results {
		if o.ErrorMessage != "" {
			errCounts[o.ErrorMessage]++
		}
	}
	var errorRows []ErrorRow
	for msg, count := range errCounts {
		errorRows = append(errorRows, ErrorRow{Message: msg, Count: count})
	}
	sort.Slice(errorRows, func(i, j int) bool { return errorRows[i].Count > errorRows[j].Count })

	successRate := 0.0
	if r.Summary.TotalRequests > 0 {
		successRate = float64(r.Summary.SuccessfulRequests) / float64(r.Summary.TotalRequests) * 100
	}

	return TemplateData{
		GeneratedAt:       time.Now().Format("2006-01-02 15:04:05"),
		TargetURL:         r.TargetURL,
		Method:            r.Method,
		TestDuration:      r.Duration.String(),
		Concurrency:       r.Concurrency,
		TotalRequests:     r.Summary.TotalRequests,
		SuccessCount:      r.Summary.SuccessfulRequests,
		FailureCount:      r.Summary.FailedRequests,
		SuccessRate:       successRate,
		RPS:               r.Summary.ThroughputRPS,
		P50:               formatMs(r.Summary.P50Ms),
		P90:               formatMs(r.Summary.P90Ms),
		P95:               formatMs(r.Summary.P95Ms),
		P99:               formatMs(r.Summary.P99Ms),
		Max:               formatMs(r.Summary.MaxMs),
		Min:               formatMs(r.Summary.MinMs),
		AssertionFailures: r.Summary.AssertionFailures,
		StatusCodesTable:  statusRows,
		Errors:            errorRows,
		TimeLabels:        template.JS(strings.Join(timeLabels, ",")),
		RPSData:           template.JS(strings.Join(rpsData, ",")),
		P50Data:           template.JS(strings.Join(p50Data, ",")),
		P90Data:           template.JS(strings.Join(p90Data, ",")),
		P95Data:           template.JS(strings.Join(p95Data, ",")),
		P99Data:           template.JS(strings.Join(p99Data, ",")),
		SuccessData:       template.JS(strings.Join(successData, ",")),
		FailureData:       template.JS(strings.Join(failureData, ",")),
		StatusLabels:      template.JS(strings.Join(statusLabels, ",")),
		StatusData:        template.JS(strings.Join(statusData, ",")),
	}
}

func bucketBySecond(outcomes []model.Outcome) map[int]*secondBucket {
	buckets := map[int]*secondBucket{}
	for _, o := range outcomes {
		sec := int(o.TimestampMs / 1000)
		b, ok := buckets[sec]
		if !ok {
			b = &secondBucket{}
			buckets[sec] = b
		}
		b.requests++
		if o.Success() {
			b.success++
		} else {
			b.failure++
		}
		if o.ErrorKind == model.ErrNone {
			b.latsUs = append(b.latsUs, o.Latency.Microseconds())
		}
	}
	return buckets
}

// percentilesUs computes p50/p90/p95/p99, in microseconds, over one bucket's
// latency samples via a full sort — buckets are small (one second's worth
// of one worker pool's requests), so this is cheap relative to the
// run-wide HDR histogram.
func percentilesUs(us []int64) (p50, p90, p95, p99 float64) {
	if len(us) == 0 {
		return 0, 0, 0, 0
	}
	sorted := append([]int64(nil), us...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	pick := func(p float64) float64 {
		idx := int(p * float64(len(sorted)-1))
		return float64(sorted[idx])
	}
	return pick(0.50), pick(0.90), pick(0.95), pick(0.99)
}

func formatMs(ms float64) string {
	d := time.Duration(ms * float64(time.Millisecond))
	if d < time.Millisecond {
		return fmt.Sprintf("%.0fµs", float64(d.Microseconds()))
	}
	if d < time.Second {
		return fmt.Sprintf("%.1fms", ms)
	}
	return fmt.Sprintf("%.2fs", d.Seconds())
}

