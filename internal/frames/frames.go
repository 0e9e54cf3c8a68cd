// Package frames extracts still frames and short clips from acquired
// media using ffmpeg. Commands are built as explicit argument slices and
// output paths are containment-checked.
package frames

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/google/uuid"

	"framegrab/internal/httputil"
	"framegrab/internal/media"
)

// Extractor writes frame and clip artifacts under OutputDir.
type Extractor struct {
	OutputDir string
}

// New creates an Extractor rooted at outputDir.
func New(outputDir string) *Extractor {
	return &Extractor{OutputDir: outputDir}
}

// ExtractFrame grabs one frame at the given timestamp as a JPEG. A
// timestamp beyond the media duration fails for that timestamp only.
func (e *Extractor) ExtractFrame(ctx context.Context, handle *media.MediaHandle, ts time.Duration) (media.Frame, error) {
	if handle.Duration > 0 && ts > handle.Duration {
		return media.Frame{}, fmt.Errorf("timestamp %s exceeds media duration %s", formatTimestamp(ts), formatTimestamp(handle.Duration))
	}

	ffmpegPath, err := exec.LookPath("ffmpeg")
	if err != nil {
		return media.Frame{}, fmt.Errorf("ffmpeg not found in PATH: %w", err)
	}

	if err := os.MkdirAll(e.OutputDir, 0o755); err != nil {
		return media.Frame{}, fmt.Errorf("creating frames directory: %w", err)
	}

	name := fmt.Sprintf("%s_%s_%s.jpg", handle.Title, strings.ReplaceAll(formatTimestamp(ts), ":", "-"), uuid.NewString()[:8])
	outputPath, err := httputil.SafeArtifactPath(e.OutputDir, name)
	if err != nil {
		return media.Frame{}, fmt.Errorf("invalid frame path: %w", err)
	}

	// Fast seek before the input, single frame out.
	args := []string{
		"-y",
		"-ss", formatTimestamp(ts),
		"-i", handle.Path,
		"-frames:v", "1",
		"-q:v", "2",
		outputPath,
	}

	if err := runFFmpeg(ctx, ffmpegPath, args); err != nil {
		return media.Frame{}, fmt.Errorf("extracting frame at %s: %w", formatTimestamp(ts), err)
	}

	if _, err := os.Stat(outputPath); err != nil {
		return media.Frame{}, fmt.Errorf("frame at %s not written (timestamp past end of media?)", formatTimestamp(ts))
	}

	slog.Debug("frame extracted", slog.String("path", outputPath), slog.Duration("timestamp", ts))
	return media.Frame{Timestamp: ts, Path: outputPath}, nil
}

// ExtractFrames grabs a batch of frames. Per-timestamp failures do not
// stop the batch; the caller gets every frame that succeeded plus every
// failure joined into one error for reporting.
func (e *Extractor) ExtractFrames(ctx context.Context, handle *media.MediaHandle, timestamps []time.Duration) ([]media.Frame, error) {
	var frames []media.Frame
	var errs []error
	for _, ts := range timestamps {
		if ctx.Err() != nil {
			return frames, ctx.Err()
		}
		f, err := e.ExtractFrame(ctx, handle, ts)
		if err != nil {
			errs = append(errs, err)
			slog.Warn("frame extraction failed", slog.Duration("timestamp", ts), slog.Any("error", err))
			continue
		}
		frames = append(frames, f)
	}
	if len(frames) == 0 && len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return frames, errors.Join(errs...)
}

// ExtractClip copies the [start, end) segment into a new file without
// re-encoding.
func (e *Extractor) ExtractClip(ctx context.Context, handle *media.MediaHandle, start, end time.Duration) (media.Clip, error) {
	if end <= start {
		return media.Clip{}, fmt.Errorf("clip end %s must be after start %s", formatTimestamp(end), formatTimestamp(start))
	}
	if handle.Duration > 0 && start > handle.Duration {
		return media.Clip{}, fmt.Errorf("clip start %s exceeds media duration %s", formatTimestamp(start), formatTimestamp(handle.Duration))
	}

	ffmpegPath, err := exec.LookPath("ffmpeg")
	if err != nil {
		return media.Clip{}, fmt.Errorf("ffmpeg not found in PATH: %w", err)
	}

	if err := os.MkdirAll(e.OutputDir, 0o755); err != nil {
		return media.Clip{}, fmt.Errorf("creating output directory: %w", err)
	}

	name := fmt.Sprintf("%s_clip_%s.mp4", handle.Title, uuid.NewString()[:8])
	outputPath, err := httputil.SafeArtifactPath(e.OutputDir, name)
	if err != nil {
		return media.Clip{}, fmt.Errorf("invalid clip path: %w", err)
	}

	args := []string{
		"-y",
		"-ss", formatTimestamp(start),
		"-to", formatTimestamp(end),
		"-i", handle.Path,
		"-c:v", "copy",
		"-c:a", "copy",
		outputPath,
	}

	if err := runFFmpeg(ctx, ffmpegPath, args); err != nil {
		return media.Clip{}, fmt.Errorf("extracting clip: %w", err)
	}

	return media.Clip{Start: start, End: end, Path: outputPath}, nil
}

// runFFmpeg executes ffmpeg, keeping stderr for the error message.
func runFFmpeg(ctx context.Context, path string, args []string) error {
	cmd := exec.CommandContext(ctx, path, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		msg := strings.TrimSpace(stderr.String())
		if len(msg) > 500 {
			msg = msg[len(msg)-500:]
		}
		return fmt.Errorf("ffmpeg: %v: %s", err, msg)
	}
	return nil
}

// CleanOlderThan removes artifacts older than maxAge from dir, returning
// the number of files removed and bytes freed.
func CleanOlderThan(dir string, maxAge time.Duration) (int, int64, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, 0, nil
		}
		return 0, 0, fmt.Errorf("reading %s: %w", dir, err)
	}

	cutoff := time.Now().Add(-maxAge)
	removed := 0
	var freed int64
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}
		path := dir + string(os.PathSeparator) + entry.Name()
		size := info.Size()
		if err := os.Remove(path); err != nil {
			slog.Warn("could not remove stale artifact", slog.String("path", path), slog.Any("error", err))
			continue
		}
		removed++
		freed += size
	}
	return removed, freed, nil
}
