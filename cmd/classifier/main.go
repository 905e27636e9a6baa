// Command classifier is the operator CLI: classify a local file, seed
// the taxonomy vectors, or export a review report.
package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/asorokin/legal-doc-classifier/internal/bootstrap"
	"github.com/asorokin/legal-doc-classifier/internal/config"
	"github.com/asorokin/legal-doc-classifier/internal/infrastructure/extractor/pdftext"
	"github.com/asorokin/legal-doc-classifier/internal/observability/logging"
	"github.com/asorokin/legal-doc-classifier/internal/report"
)

func main() {
	cfg := config.Load()
	slog.SetDefault(logging.NewJSONLogger("cli", cfg.LogLevel))

	root := &cobra.Command{
		Use:          "classifier",
		Short:        "Legal document classification engine",
		SilenceUsage: true,
	}
	root.AddCommand(classifyCmd(cfg), seedCmd(cfg), reportCmd(cfg))

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func classifyCmd(cfg config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "classify <file>",
		Short: "Classify a local PDF or text file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]

			text, err := pdftext.New().Extract(cmd.Context(), path)
			if err != nil {
				return fmt.Errorf("extract text: %w", err)
			}

			app, err := bootstrap.New(cmd.Context(), cfg, nil)
			if err != nil {
				return fmt.Errorf("bootstrap: %w", err)
			}
			defer app.Close()

			result, err := app.ClassifyUC.Classify(cmd.Context(), text, filepath.Base(path))
			if err != nil {
				return err
			}

			encoder := json.NewEncoder(cmd.OutOrStdout())
			encoder.SetIndent("", "  ")
			return encoder.Encode(result)
		},
	}
}

func seedCmd(cfg config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Embed taxonomy definitions and upsert them into the vector store",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := bootstrap.New(cmd.Context(), cfg, nil)
			if err != nil {
				return fmt.Errorf("bootstrap: %w", err)
			}
			defer app.Close()

			if err := app.SeedUC.SeedTaxonomy(cmd.Context()); err != nil {
				return err
			}
			slog.Info("taxonomy_seeded",
				"categories", len(app.Registry.Categories()),
				"document_types", len(app.Registry.DocumentTypes()),
			)
			return nil
		},
	}
}

func reportCmd(cfg config.Config) *cobra.Command {
	var limit int
	var reviewOnly bool

	cmd := &cobra.Command{
		Use:   "report <out.xlsx>",
		Short: "Export recent classifications to an XLSX review sheet",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := bootstrap.New(cmd.Context(), cfg, nil)
			if err != nil {
				return fmt.Errorf("bootstrap: %w", err)
			}
			defer app.Close()

			records, err := app.Audit.ListRecent(cmd.Context(), limit, reviewOnly)
			if err != nil {
				return fmt.Errorf("list audit records: %w", err)
			}
			if err := report.WriteXLSX(records, args[0]); err != nil {
				return err
			}
			slog.Info("report_written", "path", args[0], "records", len(records))
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 200, "maximum records to export")
	cmd.Flags().BoolVar(&reviewOnly, "needs-review", false, "export only records flagged for review")
	return cmd
}
