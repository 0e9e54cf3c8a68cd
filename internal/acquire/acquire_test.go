package acquire

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"framegrab/internal/classify"
	"framegrab/internal/cred"
	"framegrab/internal/media"
)

// fakeProducer counts Produce calls and can fail production.
type fakeProducer struct {
	kind       cred.SourceKind
	produceErr error
	calls      int
}

func (p *fakeProducer) Kind() cred.SourceKind { return p.kind }

func (p *fakeProducer) Produce(ref media.VideoReference) (*cred.Bundle, error) {
	p.calls++
	if p.produceErr != nil {
		return nil, p.produceErr
	}
	return &cred.Bundle{Platform: ref.Platform, Source: p.kind, ObtainedAt: time.Now()}, nil
}

// fakeFetcher returns scripted results per source kind and counts calls.
type fakeFetcher struct {
	results map[cred.SourceKind][]error // nil entry = success; consumed in order
	calls   map[cred.SourceKind]int
	block   chan struct{} // when set, Fetch blocks until ctx is done
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{
		results: make(map[cred.SourceKind][]error),
		calls:   make(map[cred.SourceKind]int),
	}
}

func (f *fakeFetcher) on(kind cred.SourceKind, errs ...error) {
	f.results[kind] = append(f.results[kind], errs...)
}

func (f *fakeFetcher) Fetch(ctx context.Context, ref media.VideoReference, bundle *cred.Bundle) (*media.MediaHandle, error) {
	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	n := f.calls[bundle.Source]
	f.calls[bundle.Source] = n + 1
	queue := f.results[bundle.Source]
	if n < len(queue) && queue[n] != nil {
		return nil, queue[n]
	}
	return &media.MediaHandle{Path: "/tmp/video.mp4", Title: "video", Platform: ref.Platform}, nil
}

func (f *fakeFetcher) Probe(ctx context.Context, ref media.VideoReference) (*media.MediaHandle, error) {
	return &media.MediaHandle{Platform: ref.Platform}, nil
}

func chainOf(producers ...cred.Producer) func(media.Platform) []cred.Producer {
	return func(media.Platform) []cred.Producer { return producers }
}

func ytRef() media.VideoReference {
	return media.VideoReference{Platform: media.YouTube, ID: "abc123", OriginalURL: "https://www.youtube.com/watch?v=abc123"}
}

func igRef() media.VideoReference {
	return media.VideoReference{Platform: media.Instagram, ID: "Cxyz123", OriginalURL: "https://www.instagram.com/reel/Cxyz123"}
}

// Unauthenticated long-form acquisition with no gate: one attempt, zero
// retries, success.
func TestAcquireFirstAttemptSuccess(t *testing.T) {
	fetcher := newFakeFetcher()
	none := &fakeProducer{kind: cred.SourceNone}
	chrome := &fakeProducer{kind: cred.SourceChrome}

	o := New(fetcher, chainOf(none, chrome))
	handle, err := o.Acquire(context.Background(), ytRef())

	require.NoError(t, err)
	assert.Equal(t, "/tmp/video.mp4", handle.Path)
	assert.Equal(t, 1, fetcher.calls[cred.SourceNone])
	assert.Equal(t, 0, chrome.calls, "later producers must not be invoked after a success")
}

// Producer 2 succeeds: producers 3+ are never invoked.
func TestAcquireStopsAtFirstSuccess(t *testing.T) {
	fetcher := newFakeFetcher()
	fetcher.on(cred.SourceManualFile, errors.New("ERROR: Private video. Sign in"))

	manual := &fakeProducer{kind: cred.SourceManualFile}
	chrome := &fakeProducer{kind: cred.SourceChrome}
	firefox := &fakeProducer{kind: cred.SourceFirefox}
	none := &fakeProducer{kind: cred.SourceNone}

	o := New(fetcher, chainOf(manual, chrome, firefox, none))
	handle, err := o.Acquire(context.Background(), igRef())

	require.NoError(t, err)
	require.NotNil(t, handle)
	assert.Equal(t, 1, manual.calls)
	assert.Equal(t, 1, chrome.calls)
	assert.Equal(t, 0, firefox.calls, "producer after the successful one was invoked")
	assert.Equal(t, 0, none.calls)
}

// TransientNetwork retries the same producer exactly once, never twice.
func TestAcquireTransientRetryOnce(t *testing.T) {
	fetcher := newFakeFetcher()
	fetcher.on(cred.SourceNone,
		errors.New("connection timed out"),
		errors.New("connection timed out"),
	)
	fetcher.on(cred.SourceChrome, nil)

	none := &fakeProducer{kind: cred.SourceNone}
	chrome := &fakeProducer{kind: cred.SourceChrome}

	o := New(fetcher, chainOf(none, chrome))
	handle, err := o.Acquire(context.Background(), ytRef())

	require.NoError(t, err)
	require.NotNil(t, handle)
	assert.Equal(t, 2, fetcher.calls[cred.SourceNone], "transient failure retries the same producer exactly once")
	assert.Equal(t, 1, none.calls, "retry reuses the unchanged bundle, not a fresh production")
	assert.Equal(t, 1, fetcher.calls[cred.SourceChrome])
}

// Transient retry that succeeds stops the cascade.
func TestAcquireTransientRetrySucceeds(t *testing.T) {
	fetcher := newFakeFetcher()
	fetcher.on(cred.SourceNone, errors.New("connection reset by peer"), nil)
	chrome := &fakeProducer{kind: cred.SourceChrome}

	o := New(fetcher, chainOf(&fakeProducer{kind: cred.SourceNone}, chrome))
	handle, err := o.Acquire(context.Background(), ytRef())

	require.NoError(t, err)
	require.NotNil(t, handle)
	assert.Equal(t, 0, chrome.calls)
}

// Non-transient kinds advance the chain immediately, no retry.
func TestAcquireNonTransientNoRetry(t *testing.T) {
	fetcher := newFakeFetcher()
	fetcher.on(cred.SourceNone, errors.New("ERROR: Video unavailable"))
	fetcher.on(cred.SourceChrome, nil)

	o := New(fetcher, chainOf(&fakeProducer{kind: cred.SourceNone}, &fakeProducer{kind: cred.SourceChrome}))
	_, err := o.Acquire(context.Background(), ytRef())

	require.NoError(t, err)
	assert.Equal(t, 1, fetcher.calls[cred.SourceNone], "non-transient failure must not retry")
}

// Reel-platform scenario: every producer hits the age gate. PrimaryKind is
// ContentAgeRestricted, attempt count equals the applicable producer
// count, remediation points at manual cookie setup.
func TestAcquireExhaustionAgeRestricted(t *testing.T) {
	ageErr := errors.New("Restricted Video: viewers under 18 years are not permitted")
	fetcher := newFakeFetcher()
	producers := []cred.Producer{
		&fakeProducer{kind: cred.SourceManualFile},
		&fakeProducer{kind: cred.SourceChrome},
		&fakeProducer{kind: cred.SourceFirefox},
		&fakeProducer{kind: cred.SourceNone},
	}
	for _, p := range producers {
		fetcher.on(p.Kind(), ageErr)
	}

	o := New(fetcher, chainOf(producers...))
	handle, err := o.Acquire(context.Background(), igRef())

	require.Nil(t, handle)
	var tf *TerminalFailure
	require.ErrorAs(t, err, &tf)
	assert.Equal(t, classify.ContentAgeRestricted, tf.PrimaryKind)
	assert.Len(t, tf.Attempts, len(producers))
	assert.Contains(t, strings.ToLower(tf.Remediation), "cookie")
}

// A fixable credential-store failure before a genuine content gate: the
// last classified kind wins as primary.
func TestAcquirePrimaryKindIsLast(t *testing.T) {
	fetcher := newFakeFetcher()
	fetcher.on(cred.SourceNone, errors.New("ERROR: login required"))

	manual := &fakeProducer{
		kind:       cred.SourceManualFile,
		produceErr: fmt.Errorf("cookie file: %w", cred.ErrStoreAbsent),
	}
	none := &fakeProducer{kind: cred.SourceNone}

	o := New(fetcher, chainOf(manual, none))
	_, err := o.Acquire(context.Background(), igRef())

	var tf *TerminalFailure
	require.ErrorAs(t, err, &tf)
	assert.Equal(t, classify.ContentPrivateOrLoginRequired, tf.PrimaryKind)
	require.Len(t, tf.Attempts, 2)
	assert.Equal(t, classify.CredentialStoreAbsent, tf.Attempts[0].Kind)
	assert.Equal(t, classify.ContentPrivateOrLoginRequired, tf.Attempts[1].Kind)
}

// Production failures are recorded as attempts and the chain advances; the
// failed producer's bundle is never fetched.
func TestAcquireProductionFailureAdvances(t *testing.T) {
	fetcher := newFakeFetcher()
	manual := &fakeProducer{
		kind:       cred.SourceManualFile,
		produceErr: fmt.Errorf("cookie file: %w", cred.ErrStoreInaccessible),
	}
	none := &fakeProducer{kind: cred.SourceNone}

	o := New(fetcher, chainOf(manual, none))
	handle, err := o.Acquire(context.Background(), igRef())

	require.NoError(t, err)
	require.NotNil(t, handle)
	assert.Equal(t, 0, fetcher.calls[cred.SourceManualFile], "bundle fetched despite production failure")
	assert.Equal(t, 1, fetcher.calls[cred.SourceNone])
}

// Unknown failure text is preserved verbatim in the attempt trail.
func TestAcquireUnknownKeepsRawDetail(t *testing.T) {
	raw := "something entirely novel happened"
	fetcher := newFakeFetcher()
	fetcher.on(cred.SourceNone, errors.New(raw))

	o := New(fetcher, chainOf(&fakeProducer{kind: cred.SourceNone}))
	_, err := o.Acquire(context.Background(), ytRef())

	var tf *TerminalFailure
	require.ErrorAs(t, err, &tf)
	assert.Equal(t, classify.Unknown, tf.PrimaryKind)
	require.Len(t, tf.Attempts, 1)
	assert.Contains(t, tf.Attempts[0].Detail, raw)
	assert.NotEmpty(t, tf.Remediation)
}

// Cancellation aborts the in-flight attempt and skips remaining producers.
func TestAcquireCancellation(t *testing.T) {
	fetcher := newFakeFetcher()
	fetcher.block = make(chan struct{}) // never closed; Fetch waits on ctx

	none := &fakeProducer{kind: cred.SourceNone}
	chrome := &fakeProducer{kind: cred.SourceChrome}

	o := New(fetcher, chainOf(none, chrome))

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	handle, err := o.Acquire(ctx, ytRef())

	require.Nil(t, handle)
	var tf *TerminalFailure
	require.ErrorAs(t, err, &tf)
	assert.Equal(t, classify.Cancelled, tf.PrimaryKind)
	assert.Equal(t, 0, chrome.calls, "producers after cancellation must be skipped")
}

// Unresolved references shortcut to PlatformUnsupported without touching
// the chain.
func TestAcquireUnknownPlatform(t *testing.T) {
	fetcher := newFakeFetcher()
	none := &fakeProducer{kind: cred.SourceNone}

	o := New(fetcher, chainOf(none))
	_, err := o.Acquire(context.Background(), media.VideoReference{Platform: media.Unknown})

	var tf *TerminalFailure
	require.ErrorAs(t, err, &tf)
	assert.Equal(t, classify.PlatformUnsupported, tf.PrimaryKind)
	assert.Equal(t, 0, none.calls)
}

// Observer sees every finished attempt in order.
func TestAcquireObserver(t *testing.T) {
	fetcher := newFakeFetcher()
	fetcher.on(cred.SourceManualFile, errors.New("ERROR: Private video"))

	var events []Event
	o := New(fetcher, chainOf(
		&fakeProducer{kind: cred.SourceManualFile},
		&fakeProducer{kind: cred.SourceNone},
	))
	o.Observer = func(ev Event) { events = append(events, ev) }

	_, err := o.Acquire(context.Background(), igRef())
	require.NoError(t, err)

	require.Len(t, events, 2)
	assert.Equal(t, cred.SourceManualFile, events[0].Source)
	assert.False(t, events[0].Attempt.Success)
	assert.Equal(t, cred.SourceNone, events[1].Source)
	assert.True(t, events[1].Attempt.Success)
}

func TestTrail(t *testing.T) {
	attempts := []Attempt{
		{Source: cred.SourceManualFile, Kind: classify.CredentialStoreAbsent},
		{Source: cred.SourceNone, Success: true},
	}
	got := Trail(attempts)
	assert.Equal(t, "manual-file: credential-store-absent; none: ok", got)
}
