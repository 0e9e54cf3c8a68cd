package cred

import (
	"os"
	"runtime"

	"framegrab/internal/media"
)

// ChainConfig controls chain construction. Zero values fall back to the
// running process environment; tests inject GOOS and Home.
type ChainConfig struct {
	CookieFile string // manual cookie file path; "" disables the producer
	GOOS       string
	Home       string
}

func (c ChainConfig) withDefaults() ChainConfig {
	if c.GOOS == "" {
		c.GOOS = runtime.GOOS
	}
	if c.Home == "" {
		c.Home, _ = os.UserHomeDir()
	}
	return c
}

// browserOrder is the fixed catalog order for authenticated sources.
var browserOrder = []SourceKind{SourceChrome, SourceFirefox, SourceEdge, SourceSafari}

// Chain returns the ordered producer sequence for a platform. Structurally
// inapplicable producers (Safari off darwin, manual file not configured or
// not present) are excluded up front — never invoked, never counted as a
// failed attempt. The order is platform configuration, fixed at
// construction: platforms where anonymous access is the norm lead with the
// unauthenticated producer; Instagram leads with credentials since its
// content is gated far more often.
func Chain(platform media.Platform, cfg ChainConfig) []Producer {
	cfg = cfg.withDefaults()

	auth := make([]Producer, 0, len(browserOrder)+1)
	if cfg.CookieFile != "" {
		if _, err := os.Stat(cfg.CookieFile); err == nil {
			auth = append(auth, fileProducer{path: cfg.CookieFile})
		}
	}
	for _, kind := range browserOrder {
		if kind == SourceSafari && cfg.GOOS != "darwin" {
			continue
		}
		dir := storeDir(kind, cfg.GOOS, cfg.Home)
		if dir == "" {
			continue
		}
		auth = append(auth, browserProducer{kind: kind, storeDir: dir})
	}

	switch platform {
	case media.Instagram:
		return append(auth, noneProducer{})
	default:
		return append([]Producer{noneProducer{}}, auth...)
	}
}
