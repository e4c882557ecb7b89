package media

import (
	"strconv"
	"strings"
	"time"

	"github.com/musicjacker/backend/internal/config"
)

// Estimator turns the transcoder's progress stream into a monotonically
// non-decreasing percentage. While no fresh progress line arrives within
// the stall window it advances gently up to a ceiling below 100, so pollers
// observe liveness without the estimator ever claiming completion.
type Estimator struct {
	totalSeconds  float64
	stallWindow   time.Duration
	heuristicCeil int
	parsedCeil    int

	current     int
	lastAdvance time.Time
}

func NewEstimator(totalSeconds float64, cfg config.ProgressConfig) *Estimator {
	return &Estimator{
		totalSeconds:  totalSeconds,
		stallWindow:   time.Duration(cfg.StallMs) * time.Millisecond,
		heuristicCeil: cfg.HeuristicCeiling,
		parsedCeil:    cfg.ParsedCeiling,
		lastAdvance:   time.Now(),
	}
}

func (e *Estimator) Value() int {
	return e.current
}

// ObserveLine consumes one line of the tool's progress stream. It reports
// the current percentage and whether the line carried usable progress.
func (e *Estimator) ObserveLine(line string) (int, bool) {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, "out_time_ms=") {
		return e.current, false
	}
	raw := strings.TrimPrefix(line, "out_time_ms=")
	micros, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return e.current, false
	}
	return e.ObserveSeconds(float64(micros) / 1e6), true
}

// ObserveSeconds records real tool progress against the known duration.
// Without a duration it still refreshes the stall clock.
func (e *Estimator) ObserveSeconds(secs float64) int {
	e.lastAdvance = time.Now()
	if e.totalSeconds <= 0 {
		return e.current
	}
	pct := int(secs / e.totalSeconds * 100)
	if pct > e.parsedCeil {
		pct = e.parsedCeil
	}
	if pct > e.current {
		e.current = pct
	}
	return e.current
}

// Tick advances the percentage by one when the stream has stalled past the
// window, capped at the heuristic ceiling.
func (e *Estimator) Tick(now time.Time) int {
	if now.Sub(e.lastAdvance) < e.stallWindow {
		return e.current
	}
	if e.current < e.heuristicCeil {
		e.current++
		e.lastAdvance = now
	}
	return e.current
}
