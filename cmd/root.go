// Package cmd implements the CLI commands using Cobra.
package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"framegrab/internal/config"
)

// Version is set at build time via ldflags.
var Version = "dev"

// Global flags
var (
	flagTimestamps []string
	flagClip       string
	flagOutput     string
	flagCookieFile string
	flagQuality    string
	flagClientKey  string
	flagJSON       bool
	flagKeepMedia  bool
	flagDebug      bool
)

// cfg holds the loaded configuration (merged: defaults < config file < flags).
var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "framegrab <url>",
	Short: "Grab frames and clips from consumer video platforms",
	Long: `Framegrab resolves a YouTube, TikTok, Instagram, Facebook or Douyin
URL, acquires the video through an escalating credential cascade, and
extracts still frames or a clip with ffmpeg.`,
	Args:              cobra.MaximumNArgs(1),
	PersistentPreRunE: loadConfig,
	RunE:              grabRun,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.Flags().StringSliceVarP(&flagTimestamps, "timestamp", "t", nil, "Timestamp to extract (30, 1:23, 1:23:45); repeatable")
	rootCmd.Flags().StringVar(&flagClip, "clip", "", "Clip range to extract, start-end (e.g. 1:00-1:30)")
	rootCmd.Flags().BoolVar(&flagKeepMedia, "keep-media", false, "Keep the downloaded media file after extraction")

	rootCmd.PersistentFlags().StringVarP(&flagOutput, "output", "o", "", "Output directory for artifacts")
	rootCmd.PersistentFlags().StringVar(&flagCookieFile, "cookie-file", "", "Netscape-format cookie file for authenticated access")
	rootCmd.PersistentFlags().StringVarP(&flagQuality, "quality", "q", "", "Video quality: 360 | 480 | 720 | 1080 | best")
	rootCmd.PersistentFlags().StringVar(&flagClientKey, "client-key", "", "Rate-limit bucket key (default: local user)")
	rootCmd.PersistentFlags().BoolVarP(&flagJSON, "json", "j", false, "Output results as JSON on stdout")
	rootCmd.PersistentFlags().BoolVarP(&flagDebug, "debug", "x", false, "Debug logging to stderr")

	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(cleanCmd)
	rootCmd.AddCommand(versionCmd)
}

// loadConfig loads and merges configuration: defaults < config file < CLI flags.
func loadConfig(cmd *cobra.Command, args []string) error {
	var err error
	cfg, err = config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// CLI flags override config file values
	if flagCookieFile != "" {
		cfg.CookieFile = flagCookieFile
	}
	if flagQuality != "" {
		cfg.Quality = flagQuality
	}
	if flagOutput != "" {
		cfg.FramesDir = flagOutput
	}
	if flagDebug {
		cfg.Debug = true
	}

	// Re-validate after flag overrides
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	level := slog.LevelWarn
	if cfg.Debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	return nil
}

// clientKey identifies the rate-limit bucket for this invocation.
func clientKey() string {
	if flagClientKey != "" {
		return flagClientKey
	}
	return "local"
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("framegrab", Version)
	},
}
