package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/quizgen/internal/pipeline"
)

var extractJSON bool

var extractCmd = &cobra.Command{
	Use:   "extract <file.pdf>",
	Short: "Extract the text of a PDF page by page",
	Long: `Extracts each page's embedded text, falling back to OCR for pages that
have none. Pages are printed in order with the method that produced them.`,
	Args: cobra.ExactArgs(1),
	RunE: runExtract,
}

func init() {
	extractCmd.Flags().BoolVar(&extractJSON, "json", false, "print the result as JSON")
	rootCmd.AddCommand(extractCmd)
}

func runExtract(cmd *cobra.Command, args []string) error {
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

	res, err := extractor.Run(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	if extractJSON {
		return writeJSON(cmd.OutOrStdout(), res)
	}
	return writeReport(cmd.OutOrStdout(), res)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// writeReport prints one block per page, headed by its number and method.
func writeReport(w io.Writer, res *pipeline.Result) error {
	for _, p := range res.Pages {
		if _, err := fmt.Fprintf(w, "--- Page %d (%s) ---\n", p.PageIndex+1, p.Method.Label()); err != nil {
			return err
		}
		if p.Text != "" {
			if _, err := fmt.Fprintln(w, p.Text); err != nil {
				return err
			}
		}
		if p.Note != "" {
			if _, err := fmt.Fprintf(w, "[note: %s]\n", p.Note); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintln(w); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(w, "%s: %d pages, %d via OCR, %d empty\n",
		res.Filename, len(res.Pages), res.OCRPages, res.EmptyPages)
	return err
}
