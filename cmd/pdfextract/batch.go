package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/quizgen/internal/ingest"
)

var (
	batchOut        string
	batchSkipHidden bool
)

var batchCmd = &cobra.Command{
	Use:   "batch <dir>",
	Short: "Extract every PDF under a directory",
	Long: `Walks the directory recursively and writes <name>.txt with the full text of
each PDF, next to the source or under --out. One failing file does not stop the batch.`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	batchCmd.Flags().StringVarP(&batchOut, "out", "o", "", "output directory (default: beside each PDF)")
	batchCmd.Flags().BoolVar(&batchSkipHidden, "skip-hidden", true, "skip hidden files and directories")
	rootCmd.AddCommand(batchCmd)
}

func runBatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(cmd)
	extractor, closeFn, err := buildExtractor(cfg.Extraction, logger)
	if err != nil {
		return err
	}
	defer closeFn()

	if batchOut != "" {
		if err := os.MkdirAll(batchOut, 0o755); err != nil {
			return err
		}
	}

	results, stats, err := ingest.WalkPDFs(cmd.Context(), args[0], batchSkipHidden, func(ctx context.Context, path string) error {
		res, err := extractor.Run(ctx, path)
		if err != nil {
			return err
		}
		return os.WriteFile(textPath(path, batchOut), []byte(res.FullText), 0o644)
	})
	if err != nil {
		return err
	}

	for _, r := range results {
		if r.Err != "" {
			fmt.Fprintf(cmd.ErrOrStderr(), "FAIL %s: %s\n", r.Path, r.Err)
			continue
		}
		fmt.Fprintf(cmd.OutOrStdout(), "ok   %s -> %s\n", r.Path, textPath(r.Path, batchOut))
	}
	fmt.Fprintf(cmd.OutOrStdout(), "scanned=%d matched=%d succeeded=%d failed=%d\n", stats.Scanned, stats.Matched, stats.Succeeded, stats.Failed)
	if stats.Failed > 0 {
		return fmt.Errorf("%d of %d files failed", stats.Failed, stats.Matched)
	}
	return nil
}

// textPath is where the text of the PDF at path is written.
func textPath(path, outDir string) string {
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)) + ".txt"
	if outDir == "" {
		return filepath.Join(filepath.Dir(path), name)
	}
	return filepath.Join(outDir, name)
}
