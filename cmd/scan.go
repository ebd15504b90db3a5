package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/andresmejia3/spotter/internal/config"
	"github.com/andresmejia3/spotter/internal/inference"
	"github.com/andresmejia3/spotter/internal/metrics"
	"github.com/andresmejia3/spotter/internal/scanner"
	"github.com/andresmejia3/spotter/internal/storage"
	"github.com/andresmejia3/spotter/internal/utils"
)

// Options holds the per-invocation flags shared by scan and check.
type Options struct {
	Bucket      string
	Labels      []string
	Workers     int
	MaxObjects  int
	MetricsPort int
}

var scanOpts Options

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan every image in the bucket for the target labels",
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		return runScan(cmd.Context(), scanOpts)
	},
}

func init() {
	scanCmd.Flags().StringVarP(&scanOpts.Bucket, "bucket", "b", "", "Bucket to scan (overrides config)")
	scanCmd.Flags().StringSliceVarP(&scanOpts.Labels, "labels", "l", nil, "Target labels (overrides config)")
	scanCmd.Flags().IntVarP(&scanOpts.Workers, "workers", "w", 0, "Number of parallel pipeline workers (overrides config)")
	scanCmd.Flags().IntVarP(&scanOpts.MaxObjects, "max-objects", "m", -1, "Process at most N objects, 0 = unlimited (overrides config)")
	scanCmd.Flags().IntVar(&scanOpts.MetricsPort, "metrics-port", 0, "Expose /metrics on this port while the scan runs")
	rootCmd.AddCommand(scanCmd)
}

// applyOverrides folds flag values into the resolved configuration so that
// flags beat environment beats config file.
func applyOverrides(cfg *config.Config, opts Options) {
	if opts.Bucket != "" {
		cfg.Bucket = opts.Bucket
	}
	if len(opts.Labels) > 0 {
		cfg.Labels = opts.Labels
	}
	if opts.Workers > 0 {
		cfg.Workers = opts.Workers
	}
	if opts.MaxObjects >= 0 {
		cfg.MaxObjects = opts.MaxObjects
	}
	if opts.MetricsPort > 0 {
		cfg.MetricsPort = opts.MetricsPort
	}
}

// runScan orchestrates the batch job: storage listing, inference client,
// worker pool, progress bar, summary.
func runScan(ctx context.Context, opts Options) error {
	applyOverrides(Cfg, opts)
	if err := Cfg.Validate(); err != nil {
		utils.ShowError("Invalid configuration", err)
		return err
	}

	lister, err := storage.NewGCSLister(ctx)
	if err != nil {
		utils.ShowError("Failed to create storage client", err)
		return err
	}
	defer lister.Close()

	client := inference.NewClient(inference.Options{
		BaseURL:  Cfg.InferenceBaseURL,
		Port:     Cfg.HTTPPort,
		Path:     Cfg.InferencePath,
		Username: Cfg.Username,
		Password: Cfg.Password,
		Timeout:  Cfg.TimeoutDuration(),
	})

	if Cfg.MetricsPort > 0 {
		go metrics.Serve(ctx, Cfg.MetricsPort)
	}

	fmt.Fprintf(os.Stderr, "🔭 Scanning bucket %q for labels %v\n", Cfg.Bucket, Cfg.Labels)
	fmt.Fprintf(os.Stderr, "⚙️  Spawning %d pipeline workers...\n", Cfg.Workers)

	bar := progressbar.NewOptions(0,
		progressbar.OptionSetDescription("🔭 Spotter Scanning"),
		progressbar.OptionSetWriter(os.Stderr), // Write bar to Stderr
		progressbar.OptionShowCount(),
	)

	sc := scanner.New(lister, client, Cfg.Labels, Cfg.Workers, Cfg.MaxObjects)
	sc.OnListed = func(total int) { bar.ChangeMax(total) }
	sc.OnResult = func(scanner.Outcome) { bar.Add(1) }

	sum, err := sc.Scan(ctx, Cfg.Bucket)
	if err != nil {
		utils.ShowError("Bucket scan failed", err)
		return err
	}
	bar.Finish()

	printSummary(sum, Cfg.Labels)
	return nil
}

// printSummary writes the end-of-run report to stderr, labels in configured
// order.
func printSummary(sum *scanner.Summary, labels []string) {
	fmt.Fprintf(os.Stderr, "\n---------------------------------------------------------\n")
	fmt.Fprintf(os.Stderr, "📊 SCAN SUMMARY (run %s)\n", shortID(sum.ScanID))
	fmt.Fprintf(os.Stderr, "---------------------------------------------------------\n")

	for _, label := range labels {
		fmt.Fprintf(os.Stderr, "🏷️  %-24s found in %d object(s)\n", label, sum.PerLabel[label])
	}

	fmt.Fprintf(os.Stderr, "\nListed: %d   Processed: %d   Skipped: %d   Failed: %d\n",
		sum.Listed, sum.Processed, sum.Skipped, sum.Failed)

	if sum.Failed > 0 {
		fmt.Fprintf(os.Stderr, "⚠️  %d object(s) failed and were counted as zero detections (see logs).\n", sum.Failed)
	}
	fmt.Fprintf(os.Stderr, "---------------------------------------------------------\n")
}

// shortID trims a uuid for display, like a short git hash.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
