package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/deploymenttheory/go-covid-reports/internal/downloader"
	"github.com/deploymenttheory/go-covid-reports/internal/httpclient"
	"github.com/deploymenttheory/go-covid-reports/internal/listing"
	"github.com/deploymenttheory/go-covid-reports/internal/logger"
	"github.com/deploymenttheory/go-covid-reports/internal/storage"
)

func newDownloadCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "download",
		Short: "Download every daily report CSV into a local directory",
		Args:  cobra.NoArgs,
		RunE:  runDownload,
	}

	cmd.Flags().StringP("output-dir", "o", "", "directory the reports are written to (default covid_data)")
	cmd.Flags().String("url", "", "GitHub contents API URL listing the reports")
	cmd.Flags().IntP("attempts", "a", 0, "maximum attempts per file (default 3)")
	cmd.Flags().Duration("retry-delay", 0, "delay between attempts on the same file (default 1s)")
	cmd.Flags().Duration("file-delay", 0, "delay between files (default 500ms)")
	cmd.Flags().Duration("timeout", 0, "per-request timeout (default 2m)")
	return cmd
}

func runDownload(cmd *cobra.Command, args []string) error {
	applyDownloadFlags(cmd)
	if err := cfg.Validate(); err != nil {
		return err
	}
	dc := cfg.Download

	// Interrupts cancel the run, already written files are left as they are
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	lister := listing.New(listing.Options{
		URL:       dc.ListingURL,
		UserAgent: dc.UserAgent,
		Timeout:   dc.RequestTimeout,
		Transport: httpclient.NewTransport(),
	})
	down := downloader.New(httpclient.New(dc.RequestTimeout), lister, storage.New(dc.OutputDir), downloader.Options{
		MaxAttempts: dc.MaxAttempts,
		RetryDelay:  dc.RetryDelay,
		FileDelay:   dc.FileDelay,
		UserAgent:   dc.UserAgent,
	})

	logger.Infof("Downloading reports into %s", dc.OutputDir)

	summary, err := down.DownloadAll(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Warningf("Download interrupted by user")
		}
		return err
	}

	stats := down.Stats()
	logger.Infof("Downloaded %d bytes in %d attempts, took %v", stats.BytesDownloaded, stats.Attempts, summary.Duration)
	return nil
}

func applyDownloadFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	if flags.Changed("output-dir") {
		cfg.Download.OutputDir, _ = flags.GetString("output-dir")
	}
	if flags.Changed("url") {
		cfg.Download.ListingURL, _ = flags.GetString("url")
	}
	if flags.Changed("attempts") {
		cfg.Download.MaxAttempts, _ = flags.GetInt("attempts")
	}
	if flags.Changed("retry-delay") {
		cfg.Download.RetryDelay, _ = flags.GetDuration("retry-delay")
	}
	if flags.Changed("file-delay") {
		cfg.Download.FileDelay, _ = flags.GetDuration("file-delay")
	}
	if flags.Changed("timeout") {
		cfg.Download.RequestTimeout, _ = flags.GetDuration("timeout")
	}
}
