package cmd

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/andresmejia3/spotter/internal/storage"
	"github.com/andresmejia3/spotter/internal/utils"
)

var lsOpts Options

var lsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List the objects of the configured bucket",
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		return runLs(cmd.Context(), lsOpts)
	},
}

func init() {
	lsCmd.Flags().StringVarP(&lsOpts.Bucket, "bucket", "b", "", "Bucket to list (overrides config)")
	rootCmd.AddCommand(lsCmd)
}

func runLs(ctx context.Context, opts Options) error {
	applyOverrides(Cfg, opts)
	if Cfg.Bucket == "" {
		err := fmt.Errorf("bucket name is required (BUCKET_NAME or --bucket)")
		utils.ShowError("Invalid configuration", err)
		return err
	}

	lister, err := storage.NewGCSLister(ctx)
	if err != nil {
		utils.ShowError("Failed to create storage client", err)
		return err
	}
	defer lister.Close()

	objects, err := lister.ListObjects(ctx, Cfg.Bucket)
	if err != nil {
		utils.ShowError("Failed to list bucket", err)
		return err
	}

	if len(objects) == 0 {
		fmt.Printf("Bucket %q is empty.\n", Cfg.Bucket)
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "#\tOBJECT")
	fmt.Fprintln(w, "-\t------")
	for i, name := range objects {
		fmt.Fprintf(w, "%d\t%s\n", i+1, name)
	}
	w.Flush()

	fmt.Printf("\n%d object(s) in %q\n", len(objects), Cfg.Bucket)
	return nil
}
