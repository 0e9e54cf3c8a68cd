package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"framegrab/internal/acquire"
	"framegrab/internal/cred"
	"framegrab/internal/download"
	"framegrab/internal/frames"
	"framegrab/internal/httputil"
	"framegrab/internal/media"
	"framegrab/internal/ratelimit"
	"framegrab/internal/resolver"
	"framegrab/internal/ui"
)

// grabRun is the default command: framegrab <url>
func grabRun(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("a video URL is required")
	}
	rawURL := strings.TrimSpace(args[0])

	limiter := ratelimit.New(cfg.Budgets())
	if d := limiter.Admit(clientKey(), ratelimit.OpExtract); !d.Allowed {
		fmt.Fprint(os.Stderr, ui.RenderDenied(ratelimit.OpExtract.String(), d.RetryAfter))
		return &ratelimit.DeniedError{Op: ratelimit.OpExtract, RetryAfter: d.RetryAfter}
	}

	// Parse extraction targets up front so a bad timestamp fails before
	// any network work.
	var (
		timestamps []time.Duration
		clipStart  time.Duration
		clipEnd    time.Duration
		wantClip   bool
		err        error
	)
	if flagClip != "" {
		clipStart, clipEnd, err = parseClipRange(flagClip, cfg.MaxDuration())
		if err != nil {
			return err
		}
		wantClip = true
	}
	specs := flagTimestamps
	if len(specs) == 0 && !wantClip {
		specs = []string{"0"} // default: first frame
	}
	if len(specs) > 0 {
		timestamps, err = frames.ParseTimestamps(specs, cfg.MaxDuration())
		if err != nil {
			return err
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	ref, err := resolveURL(ctx, rawURL)
	if err != nil {
		return err
	}

	handle, err := runCascade(ctx, ref)
	if err != nil {
		var tf *acquire.TerminalFailure
		if errors.As(err, &tf) {
			if flagJSON {
				return emitFailureJSON(ref, tf)
			}
			fmt.Fprint(os.Stderr, ui.RenderFailure(tf))
		}
		return err
	}
	if !flagKeepMedia {
		defer os.Remove(handle.Path)
	}

	if handle.Duration > cfg.MaxDuration() {
		return fmt.Errorf("video runs %s, over the %s limit", handle.Duration, cfg.MaxDuration())
	}

	framesDir, err := cfg.ExpandFramesDir()
	if err != nil {
		return fmt.Errorf("resolving frames dir: %w", err)
	}
	if err := os.MkdirAll(framesDir, 0755); err != nil {
		return fmt.Errorf("creating frames dir: %w", err)
	}
	fx := frames.New(framesDir)

	// Partial batches are a result, not a failure: every frame that
	// succeeded is reported, and the per-timestamp failures ride along.
	var extracted []media.Frame
	var extractErr error
	if len(timestamps) > 0 {
		extracted, extractErr = fx.ExtractFrames(ctx, handle, timestamps)
		if extractErr != nil && len(extracted) == 0 {
			return extractErr
		}
	}

	var clip *media.Clip
	if wantClip {
		c, err := fx.ExtractClip(ctx, handle, clipStart, clipEnd)
		if err != nil {
			return err
		}
		clip = &c
	}

	if flagJSON {
		return emitResultJSON(ref, handle, extracted, clip, extractErr)
	}
	fmt.Print(ui.RenderHandle(handle, extracted, clip))
	if extractErr != nil {
		fmt.Fprintf(os.Stderr, "some frames failed:\n%v\n", extractErr)
	}
	return nil
}

// resolveURL validates the submitted URL, expands share links, and maps
// it onto a platform and canonical video ID.
func resolveURL(ctx context.Context, rawURL string) (media.VideoReference, error) {
	if err := httputil.ValidateURL(rawURL); err != nil {
		return media.VideoReference{}, err
	}

	if resolver.NeedsExpansion(rawURL) {
		expanded, err := resolver.Expand(ctx, httputil.NewClient(), rawURL)
		if err != nil {
			return media.VideoReference{}, fmt.Errorf("expanding share link: %w", err)
		}
		rawURL = expanded
	}

	ref, err := resolver.Resolve(rawURL)
	if err != nil {
		return media.VideoReference{}, err
	}
	return ref, nil
}

// runCascade assembles the orchestrator and runs the producer chain.
func runCascade(ctx context.Context, ref media.VideoReference) (*media.MediaHandle, error) {
	cookieFile, err := cfg.ExpandCookieFile()
	if err != nil {
		return nil, fmt.Errorf("resolving cookie file: %w", err)
	}

	downloadDir, err := cfg.ExpandDownloadDir()
	if err != nil {
		return nil, fmt.Errorf("resolving download dir: %w", err)
	}
	if err := os.MkdirAll(downloadDir, 0755); err != nil {
		return nil, fmt.Errorf("creating download dir: %w", err)
	}

	chainCfg := cred.ChainConfig{CookieFile: cookieFile}
	orch := acquire.New(
		download.NewYtdlp(downloadDir, cfg.Quality),
		func(p media.Platform) []cred.Producer { return cred.Chain(p, chainCfg) },
	)
	orch.AttemptTimeout = cfg.Timeout()

	if ui.Interactive() && !flagJSON {
		progress := ui.NewProgress(fmt.Sprintf("acquiring %s video %s", ref.Platform, ref.ID), os.Stderr)
		orch.Observer = progress.Observer()
		defer progress.Stop()
		return orch.Acquire(ctx, ref)
	}

	orch.Observer = ui.PlainObserver(os.Stderr)
	return orch.Acquire(ctx, ref)
}

// parseClipRange parses "start-end" into a pair of timestamps.
func parseClipRange(s string, max time.Duration) (time.Duration, time.Duration, error) {
	parts := strings.SplitN(s, "-", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid clip range %q: use start-end (e.g. 1:00-1:30)", s)
	}
	start, err := frames.ParseTimestamp(parts[0], max)
	if err != nil {
		return 0, 0, fmt.Errorf("clip start: %w", err)
	}
	end, err := frames.ParseTimestamp(parts[1], max)
	if err != nil {
		return 0, 0, fmt.Errorf("clip end: %w", err)
	}
	if end <= start {
		return 0, 0, fmt.Errorf("clip end %s must be after start %s", parts[1], parts[0])
	}
	return start, end, nil
}

type frameJSON struct {
	Timestamp float64 `json:"timestamp_seconds"`
	Path      string  `json:"path"`
}

type clipJSON struct {
	Start float64 `json:"start_seconds"`
	End   float64 `json:"end_seconds"`
	Path  string  `json:"path"`
}

type resultJSON struct {
	Platform string      `json:"platform"`
	VideoID  string      `json:"video_id"`
	Title    string      `json:"title"`
	Duration float64     `json:"duration_seconds,omitempty"`
	Frames   []frameJSON `json:"frames,omitempty"`
	Clip     *clipJSON   `json:"clip,omitempty"`
	Media    string      `json:"media,omitempty"`
	Errors   []string    `json:"errors,omitempty"`
}

func buildResult(ref media.VideoReference, h *media.MediaHandle, fs []media.Frame, clip *media.Clip, extractErr error, keepMedia bool) resultJSON {
	out := resultJSON{
		Platform: ref.Platform.String(),
		VideoID:  ref.ID,
		Title:    h.Title,
		Duration: h.Duration.Seconds(),
	}
	for _, f := range fs {
		out.Frames = append(out.Frames, frameJSON{Timestamp: f.Timestamp.Seconds(), Path: f.Path})
	}
	if clip != nil {
		out.Clip = &clipJSON{Start: clip.Start.Seconds(), End: clip.End.Seconds(), Path: clip.Path}
	}
	if keepMedia {
		out.Media = h.Path
	}
	if extractErr != nil {
		// errors.Join renders one failure per line.
		out.Errors = strings.Split(extractErr.Error(), "\n")
	}
	return out
}

func emitResultJSON(ref media.VideoReference, h *media.MediaHandle, fs []media.Frame, clip *media.Clip, extractErr error) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(buildResult(ref, h, fs, clip, extractErr, flagKeepMedia))
}

type attemptJSON struct {
	Source string `json:"source"`
	Kind   string `json:"kind"`
}

type failureJSON struct {
	Platform    string        `json:"platform"`
	VideoID     string        `json:"video_id"`
	Kind        string        `json:"kind"`
	Remediation string        `json:"remediation"`
	Attempts    []attemptJSON `json:"attempts"`
}

func emitFailureJSON(ref media.VideoReference, tf *acquire.TerminalFailure) error {
	out := failureJSON{
		Platform:    ref.Platform.String(),
		VideoID:     ref.ID,
		Kind:        tf.PrimaryKind.String(),
		Remediation: tf.Remediation,
	}
	for _, a := range tf.Attempts {
		out.Attempts = append(out.Attempts, attemptJSON{Source: a.Source.String(), Kind: a.Kind.String()})
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return err
	}
	return tf
}
