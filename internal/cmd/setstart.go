package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/GeorgeBronner/golfapi-scapper/internal/storage"
)

// setStartCmd re-points the crawl cursor so the next run starts at the given
// ID. It resets the consecutive-404 counter and clears the completion flag.
var setStartCmd = &cobra.Command{
	Use:   "set-start <course-id>",
	Short: "Set the course ID the next run starts from",
	Args:  cobra.ExactArgs(1),
	RunE:  runSetStart,
}

func init() {
	rootCmd.AddCommand(setStartCmd)
}

func runSetStart(cmd *cobra.Command, args []string) error {
	startID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || startID < 1 {
		return fmt.Errorf("invalid course ID %q: must be a positive integer", args[0])
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	store, err := storage.NewSQLiteStore(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("failed to open database %s: %w", cfg.DBPath, err)
	}
	defer func() { _ = store.Close() }()

	if err := store.OverrideStart(startID - 1); err != nil {
		return err
	}

	progress, err := store.GetProgress()
	if err != nil {
		return err
	}

	fmt.Printf("Updated scrape progress:\n")
	fmt.Printf("  last_id:          %d\n", progress.LastID)
	fmt.Printf("  consecutive_404s: %d\n", progress.ConsecutiveMisses)
	fmt.Printf("  total_saved:      %d\n", progress.TotalSaved)
	fmt.Printf("\nScraper will resume from course ID: %d\n", progress.LastID+1)

	return nil
}
