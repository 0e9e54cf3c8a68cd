// Package resolver maps consumer-video URLs onto platforms and canonical
// video identifiers via an ordered signature table.
package resolver

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"framegrab/internal/media"
)

// ErrUnrecognized is returned when a URL matches no platform signature.
// Callers must treat it as a terminal user error, never retried.
var ErrUnrecognized = errors.New("URL does not match any supported platform")

// signature binds one URL shape to a platform. The pattern's first capture
// group extracts the canonical video ID.
type signature struct {
	platform  media.Platform
	pattern   *regexp.Regexp
	shareLink bool // true when the captured ID is a share code, not the video ID
}

// signatures is evaluated in order; first match wins. No pattern may match
// a URL of another platform (TestSignatureUniqueness enforces this over a
// sample corpus).
var signatures = []signature{
	{media.YouTube, regexp.MustCompile(`^https?://(?:www\.|m\.)?youtube\.com/watch\?(?:.*?&)?v=([\w-]+)`), false},
	{media.YouTube, regexp.MustCompile(`^https?://(?:www\.|m\.)?youtube\.com/shorts/([\w-]+)`), false},
	{media.YouTube, regexp.MustCompile(`^https?://youtu\.be/([\w-]+)`), false},
	{media.TikTok, regexp.MustCompile(`^https?://(?:www\.)?tiktok\.com/@[\w.-]+/video/(\d+)`), false},
	{media.TikTok, regexp.MustCompile(`^https?://m\.tiktok\.com/v/(\d+)`), false},
	{media.TikTok, regexp.MustCompile(`^https?://vm\.tiktok\.com/([\w-]+)`), true},
	{media.Instagram, regexp.MustCompile(`^https?://(?:www\.)?instagram\.com/(?:p|reels?|tv)/([\w-]+)`), false},
	{media.Facebook, regexp.MustCompile(`^https?://(?:www\.|m\.)?facebook\.com/[\w.]+/videos/(\d+)`), false},
	{media.Facebook, regexp.MustCompile(`^https?://(?:www\.|m\.)?facebook\.com/watch/?\?(?:.*?&)?v=(\d+)`), false},
	{media.Facebook, regexp.MustCompile(`^https?://fb\.com/[\w.]+/videos/(\d+)`), false},
	{media.Facebook, regexp.MustCompile(`^https?://(?:www\.)?facebook\.com/share/v/([\w-]+)`), true},
	{media.Douyin, regexp.MustCompile(`^https?://(?:www\.)?douyin\.com/video/(\d+)`), false},
	{media.Douyin, regexp.MustCompile(`^https?://v\.douyin\.com/([\w-]+)`), true},
}

// suspiciousPatterns reject URLs that hide their destination or point at
// local/internal hosts.
var suspiciousPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)bit\.ly|tinyurl`),
	regexp.MustCompile(`\d+\.\d+\.\d+\.\d+`),
	regexp.MustCompile(`(?i)localhost|127\.0\.0\.1`),
}

// Resolve matches rawURL against the signature table and returns an
// immutable VideoReference. Pure function: performs no I/O. Short links
// (vm.tiktok.com, v.douyin.com) should be passed through Expand first so
// the canonical ID is stable across share-link and canonical variants.
func Resolve(rawURL string) (media.VideoReference, error) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return media.VideoReference{}, fmt.Errorf("empty URL: %w", ErrUnrecognized)
	}

	u, err := url.Parse(rawURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return media.VideoReference{}, fmt.Errorf("malformed URL %q: %w", rawURL, ErrUnrecognized)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return media.VideoReference{}, fmt.Errorf("unsupported scheme %q: %w", u.Scheme, ErrUnrecognized)
	}

	for _, p := range suspiciousPatterns {
		if p.MatchString(u.Host) {
			return media.VideoReference{}, fmt.Errorf("suspicious host %q: %w", u.Host, ErrUnrecognized)
		}
	}

	for _, sig := range signatures {
		m := sig.pattern.FindStringSubmatch(rawURL)
		if m == nil {
			continue
		}
		return media.VideoReference{
			Platform:    sig.platform,
			ID:          m[1],
			OriginalURL: rawURL,
		}, nil
	}

	return media.VideoReference{}, fmt.Errorf("%q: %w", rawURL, ErrUnrecognized)
}

// NeedsExpansion reports whether rawURL is a share link whose canonical
// video ID can only be learned by following the redirect.
func NeedsExpansion(rawURL string) bool {
	for _, sig := range signatures {
		if sig.shareLink && sig.pattern.MatchString(strings.TrimSpace(rawURL)) {
			return true
		}
	}
	return false
}
