package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"

	"framegrab/internal/download"
	"framegrab/internal/ratelimit"
	"framegrab/internal/ui"
)

var flagProbe bool

var validateCmd = &cobra.Command{
	Use:   "validate <url>",
	Short: "Check that a URL maps to a supported platform",
	Long: `Validate resolves a URL to its platform and canonical video ID
without downloading anything. With --probe it also queries the platform
for the video's title and duration.`,
	Args: cobra.ExactArgs(1),
	RunE: validateRun,
}

func init() {
	validateCmd.Flags().BoolVar(&flagProbe, "probe", false, "Query the platform for title and duration")
}

func validateRun(cmd *cobra.Command, args []string) error {
	rawURL := strings.TrimSpace(args[0])

	limiter := ratelimit.New(cfg.Budgets())
	if d := limiter.Admit(clientKey(), ratelimit.OpValidate); !d.Allowed {
		fmt.Fprint(os.Stderr, ui.RenderDenied(ratelimit.OpValidate.String(), d.RetryAfter))
		return &ratelimit.DeniedError{Op: ratelimit.OpValidate, RetryAfter: d.RetryAfter}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	ref, err := resolveURL(ctx, rawURL)
	if err != nil {
		return err
	}

	out := map[string]interface{}{
		"platform": ref.Platform.String(),
		"video_id": ref.ID,
	}

	if flagProbe {
		fetcher := download.NewYtdlp(os.TempDir(), cfg.Quality)
		info, err := fetcher.Probe(ctx, ref)
		if err != nil {
			return fmt.Errorf("probing %s video %s: %w", ref.Platform, ref.ID, err)
		}
		out["title"] = info.Title
		if info.Duration > 0 {
			out["duration_seconds"] = info.Duration.Seconds()
		}
	}

	if flagJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	fmt.Printf("platform: %s\nvideo id: %s\n", ref.Platform, ref.ID)
	if title, ok := out["title"]; ok {
		fmt.Printf("title: %s\n", title)
	}
	if secs, ok := out["duration_seconds"]; ok {
		fmt.Printf("duration: %.0fs\n", secs)
	}
	return nil
}
