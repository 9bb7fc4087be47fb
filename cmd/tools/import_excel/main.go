package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"it-inventory-manager/internal/config"
	logpkg "it-inventory-manager/internal/log"
	"it-inventory-manager/internal/store"
	"it-inventory-manager/pkg/importer"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	dbPath      string
	mappingPath string
	dryRun      bool
	maxErrors   int
	logLevel    string
)

var rootCmd = &cobra.Command{
	Use:   "import_excel",
	Short: "import_excel moves assets between the inventory store and .xlsx workbooks",
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		if strings.TrimSpace(dbPath) == "" {
			return errors.New("--db is required")
		}
		return nil
	},
}

var importCmd = &cobra.Command{
	Use:   "import FILE.xlsx",
	Short: "Insert or update assets from a workbook",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(cmd.Context(), func(ctx context.Context, st *store.Store, logger *logrus.Logger) error {
			file, err := os.Open(args[0])
			if err != nil {
				return errors.Wrap(err, "open Excel file")
			}
			defer file.Close()

			fmt.Printf("Importing from %s into %s (dry_run=%v)\n", args[0], dbPath, dryRun)
			fmt.Println(strings.Repeat("=", 60))

			summary, err := importer.ImportExcel(ctx, st, file, importer.ImportOptions{
				MappingPath: mappingPath,
				DryRun:      dryRun,
				MaxErrors:   maxErrors,
				Log:         logger,
			})
			printSummary(summary)
			return err
		})
	},
}

var exportCmd = &cobra.Command{
	Use:   "export FILE.xlsx",
	Short: "Write every asset to a workbook",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(cmd.Context(), func(ctx context.Context, st *store.Store, _ *logrus.Logger) error {
			file, err := os.Create(args[0])
			if err != nil {
				return errors.Wrap(err, "create Excel file")
			}
			n, err := importer.ExportExcel(ctx, st, file)
			if cerr := file.Close(); err == nil {
				err = cerr
			}
			if err != nil {
				return err
			}
			fmt.Printf("Exported %d assets to %s\n", n, args[0])
			return nil
		})
	},
}

func withStore(ctx context.Context, fn func(context.Context, *store.Store, *logrus.Logger) error) error {
	logger := logpkg.NewLogrusLogger(logLevel)
	st, err := store.Open(ctx, dbPath, store.WithLogger(logger))
	if err != nil {
		return err
	}
	defer st.Close()
	if err := st.Initialize(ctx); err != nil {
		return err
	}
	return fn(ctx, st, logger)
}

func printSummary(summary importer.ImportSummary) {
	fmt.Println("\n" + strings.Repeat("=", 60))
	fmt.Println("IMPORT SUMMARY")
	fmt.Println(strings.Repeat("=", 60))

	fmt.Printf("Run: %s\n", summary.RunID)
	fmt.Printf("Sheet: %s\n", summary.Sheet)
	fmt.Printf("Total inserted: %d\n", summary.Inserted)
	fmt.Printf("Total updated: %d\n", summary.Updated)
	fmt.Printf("Total skipped: %d\n", summary.Skipped)
	fmt.Printf("Total errors: %d\n", summary.Errors)
	fmt.Printf("Dry run: %v\n", summary.DryRun)

	if len(summary.Samples) > 0 {
		fmt.Printf("\nError samples:\n")
		for _, sample := range summary.Samples {
			fmt.Printf("  Row %d: %s\n", sample.Row, sample.Message)
		}
	}
}

func init() {
	defaultDB := "inventory.db"
	if cfg, err := config.Load(); err == nil {
		defaultDB = cfg.DBPath
		mappingPath = cfg.MappingPath
	}

	rootCmd.PersistentFlags().StringVar(&dbPath, "db", defaultDB, "inventory SQLite file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "set logging level - debug, trace")

	importCmd.Flags().StringVar(&mappingPath, "mapping", mappingPath, "column mapping YAML (default is the built-in mapping)")
	importCmd.Flags().BoolVar(&dryRun, "dry-run", false, "count changes without writing them")
	importCmd.Flags().IntVar(&maxErrors, "max-errors", 50, "stop after this many row errors")

	rootCmd.AddCommand(importCmd, exportCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
