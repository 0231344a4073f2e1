// Package session owns the reconciled snapshot: it caches the result of
// the last probe cycle, refreshes it when it goes stale, and answers
// the derived queries (time remaining, wear, fast charge) from it.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/battlens/battlens/pkg/battery"
	"github.com/battlens/battlens/pkg/normalize"
	"github.com/battlens/battlens/pkg/probe"
	"github.com/battlens/battlens/pkg/reconcile"
)

// ErrDerivedUnavailable is returned when a derived metric's inputs are
// missing from the snapshot. Numbers are never fabricated to cover the
// gap.
var ErrDerivedUnavailable = errors.New("derived metric unavailable: required inputs missing from snapshot")

const (
	defaultRefreshInterval = 5 * time.Second

	// fastChargeThreshold is the charge rate above which charging
	// counts as fast charging.
	fastChargeThreshold = 20000 // mW

	// maxTimeRemaining caps the runtime estimate; rates near zero
	// otherwise produce absurd projections.
	maxTimeRemaining = 24 * time.Hour
)

// Session serves battery snapshots from a cache with a staleness
// threshold, so rapid repeated queries do not hammer the OS facilities.
// The cached snapshot is single-writer: at most one probe cycle runs at
// a time, and concurrent callers either reuse the previous snapshot or
// join the in-flight cycle's result.
type Session struct {
	registry *probe.Registry
	interval time.Duration
	now      func() time.Time

	mu       sync.Mutex
	cached   *battery.SystemSnapshot
	inflight *inflight
}

type inflight struct {
	done chan struct{}
	snap *battery.SystemSnapshot
}

// New creates a Session over the given registry. refreshInterval is the
// staleness threshold for the cached snapshot; non-positive means the
// default.
func New(registry *probe.Registry, refreshInterval time.Duration) *Session {
	if refreshInterval <= 0 {
		refreshInterval = defaultRefreshInterval
	}
	return &Session{
		registry: registry,
		interval: refreshInterval,
		now:      time.Now,
	}
}

// Current returns the latest snapshot, probing only if the cache is
// empty or older than the refresh interval. The snapshot carries its
// capture timestamp, so callers can always detect how stale it is.
func (s *Session) Current(ctx context.Context) *battery.SystemSnapshot {
	s.mu.Lock()

	if s.cached != nil && s.now().Sub(s.cached.CapturedAt) < s.interval {
		snap := s.cached
		s.mu.Unlock()
		return snap
	}

	if s.inflight != nil {
		// A refresh is already running. Reuse the previous snapshot if
		// there is one, otherwise wait for the in-flight result. Never
		// start a second probe cycle.
		if s.cached != nil {
			snap := s.cached
			s.mu.Unlock()
			return snap
		}
		fl := s.inflight
		s.mu.Unlock()
		<-fl.done
		return fl.snap
	}

	fl := &inflight{done: make(chan struct{})}
	s.inflight = fl
	s.mu.Unlock()

	return s.run(ctx, fl)
}

// Refresh forces an immediate probe cycle regardless of staleness. If a
// cycle is already in flight it joins that one instead of starting a
// duplicate.
func (s *Session) Refresh(ctx context.Context) *battery.SystemSnapshot {
	s.mu.Lock()

	if s.inflight != nil {
		fl := s.inflight
		s.mu.Unlock()
		<-fl.done
		return fl.snap
	}

	fl := &inflight{done: make(chan struct{})}
	s.inflight = fl
	s.mu.Unlock()

	return s.run(ctx, fl)
}

func (s *Session) run(ctx context.Context, fl *inflight) *battery.SystemSnapshot {
	snap := s.collect(ctx)

	s.mu.Lock()
	s.cached = snap
	s.inflight = nil
	s.mu.Unlock()

	fl.snap = snap
	close(fl.done)

	return snap
}

// collect runs one full probe cycle: probe every source, normalize the
// records, reconcile per battery, aggregate. Individual probe failures
// are absorbed here; a cycle always yields a snapshot, in the worst
// case one with every field unavailable.
func (s *Session) collect(ctx context.Context) *battery.SystemSnapshot {
	capturedAt := s.now()
	results := s.registry.Collect(ctx)

	statuses := make([]battery.SourceStatus, 0, len(results))
	grouped := make(map[battery.Identity][]normalize.Sample)
	var order []battery.Identity

	for _, res := range results {
		status := battery.SourceStatus{Source: res.Source, Tier: res.Tier, OK: res.Failure == nil}
		if res.Failure != nil {
			status.Failure = string(res.Failure.Reason)
		}
		statuses = append(statuses, status)

		for _, rec := range res.Records {
			if _, seen := grouped[rec.Battery]; !seen {
				order = append(order, rec.Battery)
			}
			grouped[rec.Battery] = append(grouped[rec.Battery], normalize.Record(rec, res.Tier))
		}
	}

	devices := make([]battery.Snapshot, 0, len(order))
	for _, id := range order {
		devices = append(devices, reconcile.Device(grouped[id], capturedAt))
	}

	return reconcile.System(devices, statuses, capturedAt)
}

// TimeRemaining estimates time until empty (discharging) or until full
// (charging) from the current snapshot. A full battery reports zero.
func (s *Session) TimeRemaining(ctx context.Context) (time.Duration, error) {
	snap := s.Current(ctx)
	return TimeRemaining(snap)
}

// WearPercentage reports capacity lost to age as a percentage of the
// design capacity, aggregated over all batteries.
func (s *Session) WearPercentage(ctx context.Context) (float64, error) {
	snap := s.Current(ctx)
	return WearPercentage(snap)
}

// IsFastCharge reports whether the battery is charging above the
// fast-charge threshold.
func (s *Session) IsFastCharge(ctx context.Context) (bool, error) {
	snap := s.Current(ctx)
	return IsFastCharge(snap)
}

// TimeRemaining computes the runtime estimate for a snapshot. Derived
// on demand, never stored, so it always reflects the snapshot given.
func TimeRemaining(snap *battery.SystemSnapshot) (time.Duration, error) {
	if !snap.Present || !snap.State.Valid {
		return 0, ErrDerivedUnavailable
	}

	var current, full, rate float64
	haveCapacity, haveFull, haveRate := false, false, false
	for _, d := range snap.Batteries {
		if d.CurrentCapacity.Valid {
			current += d.CurrentCapacity.Value
			haveCapacity = true
		}
		if d.FullChargeCapacity.Valid {
			full += d.FullChargeCapacity.Value
			haveFull = true
		}
		if d.ChargeRate.Valid {
			rate += d.ChargeRate.Value
			haveRate = true
		}
	}

	switch snap.State.Value {
	case battery.Full:
		return 0, nil
	case battery.Discharging:
		if !haveCapacity || !haveRate || rate >= 0 {
			return 0, ErrDerivedUnavailable
		}
		return capDuration(hours(current / -rate)), nil
	case battery.Charging:
		if !haveCapacity || !haveFull || !haveRate || rate <= 0 || full < current {
			return 0, ErrDerivedUnavailable
		}
		return capDuration(hours((full - current) / rate)), nil
	default:
		return 0, ErrDerivedUnavailable
	}
}

// WearPercentage computes wear = 1 - full/design, as a percentage.
func WearPercentage(snap *battery.SystemSnapshot) (float64, error) {
	var full, design float64
	have := false
	for _, d := range snap.Batteries {
		if d.FullChargeCapacity.Valid && d.DesignCapacity.Valid && d.DesignCapacity.Value > 0 {
			full += d.FullChargeCapacity.Value
			design += d.DesignCapacity.Value
			have = true
		}
	}
	if !have || design <= 0 {
		return 0, ErrDerivedUnavailable
	}

	wear := (1 - full/design) * 100
	if wear < 0 {
		wear = 0
	}
	return wear, nil
}

// IsFastCharge reports whether a snapshot shows fast charging.
func IsFastCharge(snap *battery.SystemSnapshot) (bool, error) {
	if !snap.State.Valid {
		return false, ErrDerivedUnavailable
	}
	if snap.State.Value != battery.Charging {
		return false, nil
	}

	var rate float64
	have := false
	for _, d := range snap.Batteries {
		if d.ChargeRate.Valid {
			rate += d.ChargeRate.Value
			have = true
		}
	}
	if !have {
		return false, ErrDerivedUnavailable
	}
	return rate > fastChargeThreshold, nil
}

func hours(h float64) time.Duration {
	return time.Duration(h * float64(time.Hour))
}

func capDuration(d time.Duration) time.Duration {
	if d > maxTimeRemaining {
		return maxTimeRemaining
	}
	return d
}
