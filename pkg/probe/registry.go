package probe

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

const defaultProbeTimeout = 10 * time.Second

// Registry holds the readers applicable to this platform, ordered by
// trust tier descending. The order of Collect results is the order the
// reconciler arbitrates conflicts in, so ties between same-tier readers
// fall back to registration order deterministically.
type Registry struct {
	readers []Reader
	timeout time.Duration
}

// NewRegistry builds a registry from the given readers, sorted by tier
// descending (stable, so same-tier readers keep registration order).
// A preferred list, when non-empty, replaces the tier ordering entirely:
// listed readers come first in the given order, unlisted readers follow
// in default order.
func NewRegistry(timeout time.Duration, preferred []string, readers ...Reader) *Registry {
	if timeout <= 0 {
		timeout = defaultProbeTimeout
	}

	ordered := make([]Reader, len(readers))
	copy(ordered, readers)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Tier() > ordered[j].Tier()
	})

	if len(preferred) > 0 {
		ordered = reorderPreferred(ordered, preferred)
	}

	return &Registry{readers: ordered, timeout: timeout}
}

// DefaultRegistry builds a registry with the readers applicable to the
// running platform.
func DefaultRegistry(timeout time.Duration, preferred []string) *Registry {
	return NewRegistry(timeout, preferred, platformReaders()...)
}

func reorderPreferred(readers []Reader, preferred []string) []Reader {
	byName := make(map[string]Reader, len(readers))
	for _, r := range readers {
		byName[r.Name()] = r
	}

	out := make([]Reader, 0, len(readers))
	taken := make(map[string]bool, len(preferred))
	for _, name := range preferred {
		r, ok := byName[name]
		if !ok {
			logrus.Warnf("preferred source %q is not available on this platform, ignoring", name)
			continue
		}
		if taken[name] {
			continue
		}
		taken[name] = true
		out = append(out, r)
	}
	for _, r := range readers {
		if !taken[r.Name()] {
			out = append(out, r)
		}
	}
	return out
}

// Sources returns the reader names in trust order.
func (r *Registry) Sources() []string {
	names := make([]string, len(r.readers))
	for i, rd := range r.readers {
		names[i] = rd.Name()
	}
	return names
}

// Collect invokes every reader and returns one Result per reader, in
// trust order. Readers run concurrently, each under its own deadline;
// one reader failing, panicking, or hanging does not prevent the others
// from being collected. Collect itself never fails: if every source
// fails, every Result carries a Failure and the reconciler produces a
// fully unavailable snapshot.
func (r *Registry) Collect(ctx context.Context) []Result {
	results := make([]Result, len(r.readers))

	var wg sync.WaitGroup
	for i, rd := range r.readers {
		wg.Add(1)
		go func(i int, rd Reader) {
			defer wg.Done()
			results[i] = r.probeOne(ctx, rd)
		}(i, rd)
	}
	wg.Wait()

	return results
}

type probeReturn struct {
	records []RawRecord
	err     error
}

// probeOne runs a single reader under the per-reader timeout. The probe
// itself runs in a child goroutine so that even a reader that ignores
// its context cannot hang the collection; on timeout the probe is
// abandoned (no cancellation beyond the context is attempted).
func (r *Registry) probeOne(ctx context.Context, rd Reader) Result {
	res := Result{Source: rd.Name(), Tier: rd.Tier()}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	done := make(chan probeReturn, 1)
	go func() {
		defer func() {
			if v := recover(); v != nil {
				done <- probeReturn{err: fmt.Errorf("reader panicked: %v", v)}
			}
		}()
		records, err := rd.Probe(ctx)
		done <- probeReturn{records: records, err: err}
	}()

	select {
	case ret := <-done:
		if ret.err != nil {
			res.Failure = failureFor(rd.Name(), ret.err)
		} else {
			res.Records = ret.records
		}
	case <-ctx.Done():
		res.Failure = failureFor(rd.Name(), ctx.Err())
	}

	if res.Failure != nil {
		logrus.WithFields(logrus.Fields{
			"source": res.Source,
			"reason": res.Failure.Reason,
		}).Debugf("probe failed: %v", res.Failure.Err)
	} else {
		logrus.WithField("source", res.Source).Debugf("probe returned %d record(s)", len(res.Records))
	}

	return res
}
