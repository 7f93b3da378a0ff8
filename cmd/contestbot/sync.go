package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Synchronize participant counts on published contest buttons",
	Long:  "Runs the count synchronization once for a single contest (--contest-id) or for every published contest (--all).",
	RunE:  runSync,
}

func init() {
	syncCmd.Flags().String("contest-id", "", "contest to synchronize")
	syncCmd.Flags().Bool("all", false, "synchronize every published contest")
	syncCmd.MarkFlagsMutuallyExclusive("contest-id", "all")
	syncCmd.MarkFlagsOneRequired("contest-id", "all")
}

func runSync(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.Telegram.BotToken == "" {
		return errors.New("BOT_TOKEN is not configured")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := openStorage(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.close()

	svc := newSyncService(cfg, store)
	out := cmd.OutOrStdout()

	if all, _ := cmd.Flags().GetBool("all"); all {
		summary, err := svc.SyncAll(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "contests: %d, updated: %d, skipped: %d, failed: %d\n",
			summary.Total, summary.Updated, summary.Skipped, summary.Failed)
		if summary.Failed > 0 {
			return fmt.Errorf("%d contest(s) failed to synchronize", summary.Failed)
		}
		return nil
	}

	contestID, _ := cmd.Flags().GetString("contest-id")
	result, err := svc.Sync(ctx, contestID)
	if err != nil {
		return err
	}
	if !result.Success {
		fmt.Fprintln(out, result.Message)
		return nil
	}
	fmt.Fprintf(out, "%s: %s\n", contestID, result.ButtonText)
	return nil
}
