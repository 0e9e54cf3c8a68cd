// Package classify maps raw acquisition failures onto a closed set of
// error kinds. The download collaborator surfaces third-party error text;
// matching substrings of it is inherently brittle, so the pattern table
// lives here as plain data that tests exercise in isolation.
package classify

import (
	"context"
	"errors"
	"net"
	"strings"

	"framegrab/internal/cred"
)

// Kind is the classified failure category. The set is closed: new failure
// text must map onto an existing kind or the set grows by design change,
// never at runtime.
type Kind int

const (
	Unknown Kind = iota
	PlatformUnsupported
	CredentialStoreInaccessible
	CredentialStoreAbsent
	ContentAgeRestricted
	ContentPrivateOrLoginRequired
	ContentRegionBlocked
	ContentUnavailable
	RateLimited
	TransientNetwork
	Cancelled
)

func (k Kind) String() string {
	switch k {
	case PlatformUnsupported:
		return "platform-unsupported"
	case CredentialStoreInaccessible:
		return "credential-store-inaccessible"
	case CredentialStoreAbsent:
		return "credential-store-absent"
	case ContentAgeRestricted:
		return "content-age-restricted"
	case ContentPrivateOrLoginRequired:
		return "content-private-or-login-required"
	case ContentRegionBlocked:
		return "content-region-blocked"
	case ContentUnavailable:
		return "content-unavailable"
	case RateLimited:
		return "rate-limited"
	case TransientNetwork:
		return "transient-network"
	case Cancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Retryable reports whether the kind permits one same-producer retry
// before the cascade advances.
func (k Kind) Retryable() bool { return k == TransientNetwork }

// StatusError carries an HTTP-ish status code alongside the collaborator's
// message, for failures that have one.
type StatusError interface {
	error
	StatusCode() int
}

// rule is one entry of the ordered pattern table. All phrases are matched
// case-insensitively against the raw error text; statuses match a
// StatusError's code.
type rule struct {
	kind     Kind
	statuses []int
	phrases  []string
}

// rules is evaluated top to bottom; the first hit wins. Age-restriction
// phrases sit above generic private-content phrases because platform error
// text overlaps ("restricted video ... log in").
var rules = []rule{
	{CredentialStoreInaccessible, nil, []string{
		"could not copy", "database is locked", "permission denied while reading cookies", "keyring",
	}},
	{CredentialStoreAbsent, nil, []string{
		"could not find", "no such browser", "unsupported browser", "no cookies found",
	}},
	{ContentAgeRestricted, nil, []string{
		"age-restricted", "age restricted", "18 years", "confirm your age", "age gate", "inappropriate for some users",
	}},
	{ContentPrivateOrLoginRequired, []int{401, 403}, []string{
		"private video", "private account", "login required", "log in", "sign in", "logged-in",
		"only available for registered users", "followers", "restricted video", "requires authentication",
	}},
	{ContentRegionBlocked, []int{451}, []string{
		"available in your country", "region-blocked", "geo-restricted", "geographic", "blocked it in your country",
	}},
	{RateLimited, []int{429}, []string{
		"too many requests", "rate-limit", "rate limit", "throttl",
	}},
	{ContentUnavailable, []int{404, 410}, []string{
		"video unavailable", "has been removed", "does not exist", "no longer available", "not found", "unable to extract video id",
	}},
	{TransientNetwork, []int{500, 502, 503, 504}, []string{
		"timed out", "timeout", "connection reset", "connection refused", "temporary failure",
		"unexpected eof", "network is unreachable", "name resolution",
	}},
}

// Classify maps a raw failure to its Kind. Typed checks run before the
// pattern table: context cancellation, transport-level errors, and the
// credential chain's typed production failures need no text matching.
func Classify(err error) Kind {
	if err == nil {
		return Unknown
	}

	if errors.Is(err, context.Canceled) {
		return Cancelled
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return TransientNetwork
	}
	if errors.Is(err, cred.ErrStoreAbsent) {
		return CredentialStoreAbsent
	}
	if errors.Is(err, cred.ErrStoreInaccessible) {
		return CredentialStoreInaccessible
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return TransientNetwork
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return TransientNetwork
	}

	var statusErr StatusError
	status := 0
	if errors.As(err, &statusErr) {
		status = statusErr.StatusCode()
	}

	text := strings.ToLower(err.Error())
	for _, r := range rules {
		for _, s := range r.statuses {
			if status == s {
				return r.kind
			}
		}
		for _, p := range r.phrases {
			if strings.Contains(text, p) {
				return r.kind
			}
		}
	}

	return Unknown
}
