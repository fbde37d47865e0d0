package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"stockcrawler/pkg/checkpoint"
	"stockcrawler/pkg/logger"
)

var showLimit int

// checkpointCmd represents the checkpoint command
var checkpointCmd = &cobra.Command{
	Use:   "checkpoint",
	Short: "Inspect or reset the crawl checkpoint",
}

// checkpointShowCmd represents the checkpoint show command
var checkpointShowCmd = &cobra.Command{
	Use:   "show",
	Short: "List the tickers recorded as processed",
	RunE:  runCheckpointShow,
}

// checkpointResetCmd represents the checkpoint reset command
var checkpointResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Forget all processed tickers",
	Long: `Forget all processed tickers so the next crawl considers every symbol again.

Output files already written for today are kept and still prevent refetching.`,
	RunE: runCheckpointReset,
}

func init() {
	rootCmd.AddCommand(checkpointCmd)
	checkpointCmd.AddCommand(checkpointShowCmd)
	checkpointCmd.AddCommand(checkpointResetCmd)

	checkpointShowCmd.Flags().IntVar(&showLimit, "limit", 20, "maximum number of tickers to list (0 for all)")
	checkpointResetCmd.Flags().BoolVarP(&assumeYes, "yes", "y", false, "reset without asking for confirmation")
	for _, c := range []*cobra.Command{checkpointShowCmd, checkpointResetCmd} {
		c.Flags().StringVar(&checkpointPath, "checkpoint", "", "checkpoint location")
		c.Flags().StringVar(&checkpointBackend, "checkpoint-backend", "", "checkpoint backend (file, sqlite)")
	}
}

func openCheckpoint(cmd *cobra.Command) (checkpoint.Store, error) {
	flags := globalFlags(cmd)
	if cmd.Flags().Changed("checkpoint") {
		flags["checkpoint"] = checkpointPath
	}
	if cmd.Flags().Changed("checkpoint-backend") {
		flags["checkpoint-backend"] = checkpointBackend
	}

	cfg, err := loadConfig(flags)
	if err != nil {
		return nil, err
	}
	store, err := checkpoint.Open(cfg.Checkpoint, logger.GetLogger())
	if err != nil {
		return nil, fmt.Errorf("failed to open checkpoint: %w", err)
	}
	return store, nil
}

func runCheckpointShow(cmd *cobra.Command, args []string) error {
	store, err := openCheckpoint(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	set, err := store.Load()
	if err != nil {
		return fmt.Errorf("failed to load checkpoint: %w", err)
	}

	console := newConsole()
	console.PrintInfo("Checkpoint", store.Location())
	console.PrintInfo("Processed tickers", fmt.Sprintf("%d", set.Len()))

	symbols := set.Sorted()
	for i, s := range symbols {
		if showLimit > 0 && i == showLimit {
			fmt.Printf("  ... and %d more\n", len(symbols)-showLimit)
			break
		}
		fmt.Printf("  %s\n", s)
	}
	return nil
}

func runCheckpointReset(cmd *cobra.Command, args []string) error {
	store, err := openCheckpoint(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	console := newConsole()
	if !assumeYes {
		console.PrintWarning("This forgets every processed ticker in " + store.Location())
		if !console.Confirm() {
			fmt.Println("Cancelled.")
			return nil
		}
	}

	if err := store.Clear(); err != nil {
		return fmt.Errorf("failed to reset checkpoint: %w", err)
	}
	console.PrintSuccess("Checkpoint reset")
	return nil
}
