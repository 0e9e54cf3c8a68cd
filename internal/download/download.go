// Package download wraps the external download collaborator (yt-dlp via
// go-ytdlp). It turns a resolved video reference plus a credential bundle
// into a local media file, and surfaces raw failures with their original
// text so the classifier can pattern-match them.
package download

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lrstanley/go-ytdlp"

	"framegrab/internal/cred"
	"framegrab/internal/httputil"
	"framegrab/internal/media"
)

// Fetcher is the download collaborator contract. Implementations must
// surface distinguishable error text per failure category.
type Fetcher interface {
	// Fetch downloads the referenced video using the bundle's credentials
	// and returns a handle to the local file.
	Fetch(ctx context.Context, ref media.VideoReference, bundle *cred.Bundle) (*media.MediaHandle, error)

	// Probe extracts metadata without downloading.
	Probe(ctx context.Context, ref media.VideoReference) (*media.MediaHandle, error)
}

// FetchError is a raw collaborator failure. Message keeps the original
// text verbatim; Status is zero when the collaborator reported none.
type FetchError struct {
	Status  int
	Message string
}

func (e *FetchError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("download failed (HTTP %d): %s", e.Status, e.Message)
	}
	return "download failed: " + e.Message
}

// StatusCode satisfies the classifier's StatusError.
func (e *FetchError) StatusCode() int { return e.Status }

// Ytdlp is the production Fetcher backed by go-ytdlp.
type Ytdlp struct {
	downloadDir string
	quality     string // max height, e.g. "720"
}

// NewYtdlp creates a Fetcher that downloads into downloadDir with the
// given quality ceiling.
func NewYtdlp(downloadDir, quality string) *Ytdlp {
	return &Ytdlp{downloadDir: downloadDir, quality: quality}
}

// formatFor returns the yt-dlp format selector for a platform. TikTok and
// Douyin ship fixed ladders that the generic height filter misses, and
// "best" must not be interpolated into a height filter — height<= takes
// only numbers.
func (y *Ytdlp) formatFor(platform media.Platform) string {
	switch platform {
	case media.TikTok:
		return "best/h264_540p/bytevc1_540p/download"
	case media.Douyin:
		return "best/mp4"
	case media.Instagram:
		if strings.EqualFold(y.quality, "best") {
			return "best/mp4"
		}
		return fmt.Sprintf("best[height<=%s]/mp4/best", y.quality)
	default:
		if strings.EqualFold(y.quality, "best") {
			return "best"
		}
		return fmt.Sprintf("best[height<=%s]/best", y.quality)
	}
}

// Fetch downloads the video. The bundle selects the cookie source the
// collaborator reads: a manual cookie file, a browser cookie store, or
// nothing for the unauthenticated attempt.
func (y *Ytdlp) Fetch(ctx context.Context, ref media.VideoReference, bundle *cred.Bundle) (*media.MediaHandle, error) {
	if err := os.MkdirAll(y.downloadDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating download directory: %w", err)
	}

	// Unique marker so the downloaded file is findable regardless of how
	// the collaborator renders the title.
	marker := uuid.NewString()[:8]
	outTmpl := filepath.Join(y.downloadDir, "%(title)s_"+marker+".%(ext)s")

	dl := ytdlp.New().
		NoPlaylist().
		RestrictFilenames().
		Format(y.formatFor(ref.Platform)).
		Output(outTmpl)

	if bundle != nil {
		switch {
		case bundle.CookieFile != "":
			dl = dl.Cookies(bundle.CookieFile)
		case bundle.Browser != "":
			dl = dl.CookiesFromBrowser(bundle.Browser)
		}
	}

	start := time.Now()
	result, err := dl.Run(ctx, ref.OriginalURL)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("download aborted: %w", ctx.Err())
		}
		return nil, &FetchError{Message: err.Error()}
	}

	handle := &media.MediaHandle{Platform: ref.Platform}
	if info, ierr := result.GetExtractedInfo(); ierr == nil && len(info) > 0 {
		if info[0].Title != nil {
			handle.Title = httputil.SanitizeFilename(*info[0].Title)
		}
		if info[0].Duration != nil {
			handle.Duration = time.Duration(*info[0].Duration * float64(time.Second))
		}
		if info[0].Filename != nil {
			handle.Path = *info[0].Filename
		}
	}
	if handle.Path == "" {
		path, ferr := findByMarker(y.downloadDir, marker)
		if ferr != nil {
			return nil, &FetchError{Message: ferr.Error()}
		}
		handle.Path = path
	}
	if handle.Title == "" {
		handle.Title = strings.TrimSuffix(filepath.Base(handle.Path), filepath.Ext(handle.Path))
	}

	source := cred.SourceNone
	if bundle != nil {
		source = bundle.Source
	}
	slog.Debug("download complete",
		slog.String("platform", ref.Platform.String()),
		slog.String("source", source.String()),
		slog.Duration("took", time.Since(start)),
	)
	return handle, nil
}

// Probe extracts title and duration without downloading the media.
func (y *Ytdlp) Probe(ctx context.Context, ref media.VideoReference) (*media.MediaHandle, error) {
	result, err := ytdlp.New().
		NoPlaylist().
		SkipDownload().
		PrintJSON().
		Run(ctx, ref.OriginalURL)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("probe aborted: %w", ctx.Err())
		}
		return nil, &FetchError{Message: err.Error()}
	}

	handle := &media.MediaHandle{Platform: ref.Platform}
	if info, ierr := result.GetExtractedInfo(); ierr == nil && len(info) > 0 {
		if info[0].Title != nil {
			handle.Title = httputil.SanitizeFilename(*info[0].Title)
		}
		if info[0].Duration != nil {
			handle.Duration = time.Duration(*info[0].Duration * float64(time.Second))
		}
	}
	return handle, nil
}

// findByMarker locates the downloaded file carrying the unique marker.
func findByMarker(dir, marker string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("reading download directory: %w", err)
	}
	for _, e := range entries {
		if !e.IsDir() && strings.Contains(e.Name(), marker) {
			return filepath.Join(dir, e.Name()), nil
		}
	}
	return "", fmt.Errorf("downloaded file not found in %s", dir)
}
