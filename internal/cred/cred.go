// Package cred implements the credential source chain: an ordered catalog
// of producers that can yield authentication material (cookie file or
// browser cookie store) for one acquisition attempt.
package cred

import (
	"errors"
	"time"

	"framegrab/internal/media"
)

// SourceKind identifies where a credential bundle came from.
type SourceKind int

const (
	SourceNone SourceKind = iota // unauthenticated attempt
	SourceManualFile
	SourceChrome
	SourceFirefox
	SourceEdge
	SourceSafari
)

func (k SourceKind) String() string {
	switch k {
	case SourceManualFile:
		return "manual-file"
	case SourceChrome:
		return "chrome"
	case SourceFirefox:
		return "firefox"
	case SourceEdge:
		return "edge"
	case SourceSafari:
		return "safari"
	default:
		return "none"
	}
}

// Typed production failures. The classifier maps these without string
// matching.
var (
	// ErrStoreAbsent means the browser/profile is not installed or the
	// cookie file does not exist.
	ErrStoreAbsent = errors.New("credential store absent")

	// ErrStoreInaccessible means the store exists but could not be read
	// (locked, permission denied, parse failure).
	ErrStoreInaccessible = errors.New("credential store inaccessible")
)

// Bundle is opaque authentication material scoped to one platform and one
// acquisition attempt. Never shared across concurrent requests and never
// persisted; the manual cookie file is read-only input.
type Bundle struct {
	Platform   media.Platform
	Source     SourceKind
	CookieFile string // set for SourceManualFile
	Browser    string // yt-dlp browser spec, set for browser sources
	ObtainedAt time.Time
}

// Producer is a strategy capable of attempting to yield a credential
// bundle. Produce failures are recorded by the orchestrator as attempts;
// they never abort the cascade.
type Producer interface {
	Kind() SourceKind
	Produce(ref media.VideoReference) (*Bundle, error)
}
