// Package circuitbreaker stops a run early once an error-rate condition
// trips, layered on top of (never substituting for) the spec's normal
// deadline-based termination. Grounded on
// internal/circuitbreaker/breaker.go, reworked onto this module's
// model.CircuitBreaker and OutcomeLog-derived counters.
package circuitbreaker

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/vanguard-load/vanguard/pkg/model"
)

// Breaker monitors aggregate error counts and trips when its configured
// condition is exceeded. A nil *Breaker is valid and never trips, so
// callers can unconditionally call Check/IsTripped on an optional breaker.
type Breaker struct {
	cfg     model.CircuitBreaker
	tripped int32
	reason  string
	mu      sync.Mutex
}

var conditionPattern = regexp.MustCompile(`(?i)(errors?|error_rate|failures?)\s*([><=]+)\s*([\d.]+)(%)?`)

// New parses cfg's StopIf condition and returns a ready Breaker. Returns
// (nil, nil) when cfg is nil, so callers can always dereference-free.
func New(cfg *model.CircuitBreaker) (*Breaker, error) {
	if cfg == nil {
		return nil, nil
	}

	parsed, err := parseCondition(*cfg)
	if err != nil {
		return nil, err
	}
	if parsed.MinSamples <= 0 {
		parsed.MinSamples = 100
	}

	return &Breaker{cfg: parsed}, nil
}

func parseCondition(cfg model.CircuitBreaker) (model.CircuitBreaker, error) {
	expr := strings.TrimSpace(cfg.StopIf)
	if expr == "" {
		return cfg, fmt.Errorf("circuit breaker: empty stop_if condition")
	}

	m := conditionPattern.FindStringSubmatch(expr)
	if m == nil {
		return cfg, fmt.Errorf("circuit breaker: invalid condition %q, expected e.g. \"errors > 10%%\" or \"error_rate > 0.1\"", expr)
	}

	threshold, err := strconv.ParseFloat(m[3], 64)
	if err != nil {
		return cfg, fmt.Errorf("circuit breaker: invalid threshold %q: %w", m[3], err)
	}

	cfg.Operator = m[2]
	cfg.Threshold = threshold
	cfg.IsPercent = m[4] == "%"

	switch strings.ToLower(m[1]) {
	case "error", "errors":
		cfg.Metric = "errors"
	case "failure", "failures":
		cfg.Metric = "failures"
	case "error_rate":
		cfg.Metric = "error_rate"
	}
	return cfg, nil
}

// Check evaluates the breaker against current aggregate counts. Returns
// true once tripped (and on every call thereafter).
func (b *Breaker) Check(totalRequests, failures int64) bool {
	if b == nil {
		return false
	}
	if atomic.LoadInt32(&b.tripped) == 1 {
		return true
	}
	if totalRequests < b.cfg.MinSamples {
		return false
	}

	var current float64
	switch b.cfg.Metric {
	case "errors", "error_rate":
		if b.cfg.IsPercent {
			current = float64(failures) / float64(totalRequests) * 100
		} else {
			current = float64(failures) / float64(totalRequests)
		}
	case "failures":
		current = float64(failures)
	default:
		return false
	}

	var trip bool
	switch b.cfg.Operator {
	case ">":
		trip = current > b.cfg.Threshold
	case ">=":
		trip = current >= b.cfg.Threshold
	case "<":
		trip = current < b.cfg.Threshold
	case "<=":
		trip = current <= b.cfg.Threshold
	}

	if trip && atomic.CompareAndSwapInt32(&b.tripped, 0, 1) {
		b.mu.Lock()
		if b.cfg.IsPercent {
			b.reason = fmt.Sprintf("circuit breaker tripped: %s (%.1f%%) exceeded threshold (%.1f%%)", b.cfg.Metric, current, b.cfg.Threshold)
		} else {
			b.reason = fmt.Sprintf("circuit breaker tripped: %s (%.3f) exceeded threshold (%.3f)", b.cfg.Metric, current, b.cfg.Threshold)
		}
		b.mu.Unlock()
	}
	return trip || atomic.LoadInt32(&b.tripped) == 1
}

// IsTripped reports whether the breaker has tripped.
func (b *Breaker) IsTripped() bool {
	if b == nil {
		return false
	}
	return atomic.LoadInt32(&b.tripped) == 1
}

// Reason returns the human-readable trip reason, empty if never tripped.
func (b *Breaker) Reason() string {
	if b == nil {
		return ""
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.reason
}
