// Package probe enumerates the platform's battery data sources and
// collects one raw, possibly partial record from each of them. Readers
// never parse past their own OS facility's wire format: everything they
// emit is a RawRecord keyed by the canonical field enum, tagged with the
// unit the facility reports in. Turning those into typed values is the
// normalizer's job.
package probe

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"

	"github.com/battlens/battlens/pkg/battery"
)

// Trust tiers. Higher outranks lower during reconciliation. Structured
// management-interface queries expose more fields and are known more
// accurate than scraped CLI reports, which in turn outrank the generic
// library fallback.
const (
	TierStructured = 100
	TierReport     = 60
	TierLibrary    = 40
)

// RawValue is one field as a source reported it, before any parsing or
// unit conversion.
type RawValue struct {
	Text string
	Unit battery.Unit
}

// RawRecord is the outcome of one probe for one battery. Fields the
// source does not report are simply absent from Values.
type RawRecord struct {
	Source  string
	Battery battery.Identity
	Values  map[battery.Field]RawValue
}

// Reason classifies why a probe failed.
type Reason string

const (
	// ReasonUnavailable means the facility is not present on this
	// system (expected absence, e.g. no sysfs battery directory).
	ReasonUnavailable Reason = "unavailable"
	// ReasonMalformed means the facility exists but produced output we
	// could not parse.
	ReasonMalformed Reason = "malformed"
	// ReasonPermissionDenied means the facility refused access.
	ReasonPermissionDenied Reason = "permission_denied"
	// ReasonTimeout means the probe did not answer within the
	// per-reader deadline.
	ReasonTimeout Reason = "timeout"
)

// Failure is a per-reader probe failure. It is recoverable by design:
// the prober records it and moves on to the next source.
type Failure struct {
	Source string
	Reason Reason
	Err    error
}

func (f *Failure) Error() string {
	if f.Err != nil {
		return fmt.Sprintf("probe %s: %s: %v", f.Source, f.Reason, f.Err)
	}
	return fmt.Sprintf("probe %s: %s", f.Source, f.Reason)
}

func (f *Failure) Unwrap() error {
	return f.Err
}

// failureFor wraps an arbitrary reader error into a classified Failure.
func failureFor(source string, err error) *Failure {
	var f *Failure
	if errors.As(err, &f) {
		if f.Source == "" {
			f.Source = source
		}
		return f
	}

	reason := ReasonMalformed
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		reason = ReasonTimeout
	case errors.Is(err, os.ErrNotExist), errors.Is(err, exec.ErrNotFound):
		reason = ReasonUnavailable
	case errors.Is(err, os.ErrPermission):
		reason = ReasonPermissionDenied
	}

	return &Failure{Source: source, Reason: reason, Err: err}
}

// Reader is one platform battery data source.
//
// Probe returns one RawRecord per battery the source can see. Expected
// absence of the facility is a Failure with ReasonUnavailable, not a
// panic or a generic error. A facility that is present but sees no
// battery devices returns an empty slice and a nil error.
type Reader interface {
	Name() string
	Tier() int
	Probe(ctx context.Context) ([]RawRecord, error)
}

// Result is the outcome of invoking one reader. Exactly one of Records
// and Failure is meaningful.
type Result struct {
	Source  string
	Tier    int
	Records []RawRecord
	Failure *Failure
}
