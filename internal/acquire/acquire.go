// Package acquire drives the acquisition cascade: it walks the credential
// producer chain in order, invokes the download collaborator per attempt,
// classifies each failure, and returns either a usable media handle or a
// terminal failure with remediation guidance.
package acquire

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"framegrab/internal/classify"
	"framegrab/internal/cred"
	"framegrab/internal/download"
	"framegrab/internal/media"
)

// Attempt is one entry of a request's audit trail: which source was used
// and how it ended. Held only for the lifetime of one request.
type Attempt struct {
	Source   cred.SourceKind
	Kind     classify.Kind // meaningless when Success
	Success  bool
	Detail   string // raw failure text, verbatim, for diagnostics only
	Duration time.Duration
}

// TerminalFailure is returned when the cascade exhausts without success.
// PrimaryKind is the last classified kind — earlier failures are typically
// credential-store issues, later ones reveal the actual content gate.
// Callers must branch on PrimaryKind, never on raw attempt text.
type TerminalFailure struct {
	PrimaryKind classify.Kind
	Attempts    []Attempt
	Remediation string
}

func (e *TerminalFailure) Error() string {
	return fmt.Sprintf("acquisition failed after %d attempts: %s", len(e.Attempts), e.PrimaryKind)
}

// Event notifies an observer of cascade progress (for the progress UI).
type Event struct {
	Source  cred.SourceKind
	Retry   bool // true when this is the bounded same-producer retry
	Attempt Attempt
	Done    bool // true once per event carrying a finished attempt
}

// Orchestrator ties resolver output, the credential chain, the download
// collaborator and the classifier together. It holds no state across
// requests; the chain function is called once per acquisition.
type Orchestrator struct {
	fetcher download.Fetcher
	chain   func(media.Platform) []cred.Producer

	// AttemptTimeout bounds each collaborator call. Zero disables it.
	AttemptTimeout time.Duration

	// Observer, when set, receives an Event after every finished attempt.
	Observer func(Event)
}

// New creates an Orchestrator. chain builds the producer sequence for a
// platform; pass a closure over cred.Chain with the process config.
func New(fetcher download.Fetcher, chain func(media.Platform) []cred.Producer) *Orchestrator {
	return &Orchestrator{fetcher: fetcher, chain: chain}
}

// Acquire walks the producer chain strictly in order, one attempt in
// flight at a time. First success wins; TransientNetwork failures retry
// the same producer once with the unchanged bundle; every other kind
// advances the chain. Context cancellation aborts the in-flight attempt
// and skips the rest. On exhaustion the returned error is a
// *TerminalFailure.
func (o *Orchestrator) Acquire(ctx context.Context, ref media.VideoReference) (*media.MediaHandle, error) {
	if ref.Platform == media.Unknown {
		return nil, &TerminalFailure{
			PrimaryKind: classify.PlatformUnsupported,
			Remediation: classify.Remediation(classify.PlatformUnsupported),
		}
	}

	producers := o.chain(ref.Platform)
	var attempts []Attempt
	lastKind := classify.Unknown

	for _, producer := range producers {
		if ctx.Err() != nil {
			return nil, o.cancelled(ctx, attempts)
		}

		bundle, err := producer.Produce(ref)
		if err != nil {
			kind := classify.Classify(err)
			attempts = append(attempts, o.record(producer.Kind(), kind, err, 0, false))
			lastKind = kind
			slog.Debug("credential production failed",
				slog.String("source", producer.Kind().String()),
				slog.String("kind", kind.String()),
			)
			continue
		}

		handle, attempt := o.tryBundle(ctx, ref, producer.Kind(), bundle, false)
		attempts = append(attempts, attempt)
		if attempt.Success {
			return handle, nil
		}
		lastKind = attempt.Kind

		if attempt.Kind == classify.Cancelled {
			return nil, o.terminal(classify.Cancelled, attempts)
		}

		// Bounded retry: same producer, unchanged bundle, exactly once.
		if attempt.Kind.Retryable() {
			handle, attempt = o.tryBundle(ctx, ref, producer.Kind(), bundle, true)
			attempts = append(attempts, attempt)
			if attempt.Success {
				return handle, nil
			}
			lastKind = attempt.Kind
			if attempt.Kind == classify.Cancelled {
				return nil, o.terminal(classify.Cancelled, attempts)
			}
		}
	}

	return nil, o.terminal(lastKind, attempts)
}

// tryBundle runs one collaborator call under the per-attempt timeout.
func (o *Orchestrator) tryBundle(ctx context.Context, ref media.VideoReference, source cred.SourceKind, bundle *cred.Bundle, retry bool) (*media.MediaHandle, Attempt) {
	attemptCtx := ctx
	cancel := context.CancelFunc(func() {})
	if o.AttemptTimeout > 0 {
		attemptCtx, cancel = context.WithTimeout(ctx, o.AttemptTimeout)
	}
	defer cancel()

	start := time.Now()
	handle, err := o.fetcher.Fetch(attemptCtx, ref, bundle)
	took := time.Since(start)

	if err != nil {
		kind := classify.Classify(err)
		// The attempt timeout elapsing is transient; only the parent
		// context's cancellation aborts the cascade.
		if kind == classify.Cancelled && ctx.Err() == nil {
			kind = classify.TransientNetwork
		}
		if retry && kind.Retryable() {
			// A second transient failure advances the chain; recording it
			// as transient keeps the trail honest.
			slog.Debug("retry failed, advancing chain", slog.String("source", source.String()))
		}
		a := o.record(source, kind, err, took, retry)
		return nil, a
	}

	a := Attempt{Source: source, Success: true, Duration: took}
	o.notify(Event{Source: source, Retry: retry, Attempt: a, Done: true})
	return handle, a
}

func (o *Orchestrator) record(source cred.SourceKind, kind classify.Kind, err error, took time.Duration, retry bool) Attempt {
	a := Attempt{
		Source:   source,
		Kind:     kind,
		Detail:   err.Error(),
		Duration: took,
	}
	o.notify(Event{Source: source, Retry: retry, Attempt: a, Done: true})
	return a
}

func (o *Orchestrator) notify(ev Event) {
	if o.Observer != nil {
		o.Observer(ev)
	}
}

func (o *Orchestrator) terminal(kind classify.Kind, attempts []Attempt) *TerminalFailure {
	return &TerminalFailure{
		PrimaryKind: kind,
		Attempts:    attempts,
		Remediation: classify.Remediation(kind),
	}
}

func (o *Orchestrator) cancelled(ctx context.Context, attempts []Attempt) error {
	kind := classify.Cancelled
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		kind = classify.TransientNetwork
	}
	return o.terminal(kind, attempts)
}

// Trail renders an attempt list for diagnostics.
func Trail(attempts []Attempt) string {
	var b strings.Builder
	for i, a := range attempts {
		if i > 0 {
			b.WriteString("; ")
		}
		if a.Success {
			fmt.Fprintf(&b, "%s: ok", a.Source)
			continue
		}
		fmt.Fprintf(&b, "%s: %s", a.Source, a.Kind)
	}
	return b.String()
}
