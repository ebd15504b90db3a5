package cmd

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/andresmejia3/spotter/internal/inference"
	"github.com/andresmejia3/spotter/internal/scanner"
	"github.com/andresmejia3/spotter/internal/utils"
)

var checkOpts Options

var checkCmd = &cobra.Command{
	Use:   "check <object_name>",
	Short: "Run the detection pipeline against a single bucket object",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		return runCheck(cmd.Context(), args[0], checkOpts)
	},
}

func init() {
	checkCmd.Flags().StringVarP(&checkOpts.Bucket, "bucket", "b", "", "Bucket holding the object (overrides config)")
	checkCmd.Flags().StringSliceVarP(&checkOpts.Labels, "labels", "l", nil, "Target labels (overrides config)")
	rootCmd.AddCommand(checkCmd)
}

func runCheck(ctx context.Context, object string, opts Options) error {
	applyOverrides(Cfg, opts)
	if err := Cfg.Validate(); err != nil {
		utils.ShowError("Invalid configuration", err)
		return err
	}

	client := inference.NewClient(inference.Options{
		BaseURL:  Cfg.InferenceBaseURL,
		Port:     Cfg.HTTPPort,
		Path:     Cfg.InferencePath,
		Username: Cfg.Username,
		Password: Cfg.Password,
		Timeout:  Cfg.TimeoutDuration(),
	})

	fmt.Fprintf(os.Stderr, "🔍 Checking gs://%s/%s...\n", Cfg.Bucket, object)

	// No listing needed for a single object, hence the nil lister.
	sc := scanner.New(nil, client, Cfg.Labels, 1, 0)
	out := sc.ProcessOne(ctx, Cfg.Bucket, object)

	if out.Err != nil {
		utils.ShowError("Detection failed; reporting zero detections", out.Err)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "LABEL\tPRESENT")
	fmt.Fprintln(w, "-----\t-------")
	for _, label := range Cfg.Labels {
		mark := "❌"
		if out.Found[label] {
			mark = "✅"
		}
		fmt.Fprintf(w, "%s\t%s\n", label, mark)
	}
	w.Flush()

	fmt.Printf("\n%d box(es) detected in %s\n", out.Boxes, out.Elapsed.Round(time.Millisecond))
	return nil
}
