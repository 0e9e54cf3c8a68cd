package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"framegrab/internal/frames"
)

var flagCleanAll bool

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Remove stale downloaded media and extracted artifacts",
	Long: `Clean removes files in the download and frames directories that are
older than the configured cleanup age. With --all it removes them
regardless of age.`,
	Args: cobra.NoArgs,
	RunE: cleanRun,
}

func init() {
	cleanCmd.Flags().BoolVar(&flagCleanAll, "all", false, "Remove artifacts regardless of age")
}

func cleanRun(cmd *cobra.Command, args []string) error {
	maxAge := cfg.CleanupAge()
	if flagCleanAll {
		maxAge = 0
	}

	var totalRemoved int
	var totalFreed int64

	for _, expand := range []func() (string, error){cfg.ExpandDownloadDir, cfg.ExpandFramesDir} {
		dir, err := expand()
		if err != nil {
			return err
		}
		removed, freed, err := frames.CleanOlderThan(dir, maxAge)
		if err != nil {
			return fmt.Errorf("cleaning %s: %w", dir, err)
		}
		totalRemoved += removed
		totalFreed += freed
	}

	fmt.Printf("removed %d files, freed %.1f MB\n", totalRemoved, float64(totalFreed)/(1024*1024))
	return nil
}
