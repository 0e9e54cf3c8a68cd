// Package media defines shared types for the framegrab application.
package media

import "time"

// Platform identifies the video platform a URL belongs to.
type Platform int

const (
	Unknown Platform = iota
	YouTube
	TikTok
	Facebook
	Instagram
	Douyin
)

func (p Platform) String() string {
	switch p {
	case YouTube:
		return "youtube"
	case TikTok:
		return "tiktok"
	case Facebook:
		return "facebook"
	case Instagram:
		return "instagram"
	case Douyin:
		return "douyin"
	default:
		return "unknown"
	}
}

// VideoReference is a resolved video URL. Immutable after resolution;
// every downstream step branches on Platform and never re-derives it.
type VideoReference struct {
	Platform    Platform
	ID          string // Canonical video identifier (e.g. "abc123")
	OriginalURL string // The URL as submitted by the caller
}

// MediaHandle points at an acquired media file on local disk.
type MediaHandle struct {
	Path     string        // Absolute path to the downloaded media
	Title    string        // Sanitized video title
	Platform Platform      // Platform the media came from
	Duration time.Duration // Zero when the extractor did not report it
}

// Frame is a single extracted image artifact.
type Frame struct {
	Timestamp time.Duration // Position in the source media
	Path      string        // Absolute path to the JPEG artifact
}

// Clip is an extracted media segment.
type Clip struct {
	Start time.Duration
	End   time.Duration
	Path  string
}
