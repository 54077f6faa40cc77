package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"storefront/internal/cache"
	"storefront/internal/config"
	"storefront/internal/db"
	"storefront/internal/importer"
	productrepo "storefront/internal/repository/product"
)

func main() {
	logger := log.New(os.Stdout, "[importer] ", log.LstdFlags|log.LUTC|log.Lshortfile)

	rootCmd := &cobra.Command{
		Use:          "importer",
		Short:        "Bulk load and export the product catalog",
		SilenceUsage: true,
	}
	rootCmd.AddCommand(importCmd(logger))
	rootCmd.AddCommand(exportCmd(logger))

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func importCmd(logger *log.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import [file]",
		Short: "Upsert products from a .csv or .xlsx file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, _ := cmd.Flags().GetString("format")
			if format == "" {
				format = strings.TrimPrefix(strings.ToLower(filepath.Ext(args[0])), ".")
			}

			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			ctx := cmd.Context()
			cfg := config.FromEnv()
			pool, err := connect(ctx, cfg)
			if err != nil {
				return err
			}
			defer pool.Close()

			imp := importer.New(productrepo.NewPostgres(pool, logger), logger)
			var report importer.Report
			switch format {
			case "csv":
				report, err = imp.ImportCSV(ctx, f)
			case "xlsx":
				info, statErr := f.Stat()
				if statErr != nil {
					return statErr
				}
				report, err = imp.ImportXLSX(ctx, f, info.Size())
			default:
				return fmt.Errorf("unsupported format %q, want csv or xlsx", format)
			}
			if err != nil {
				return err
			}

			for _, p := range report.Problems {
				logger.Printf("row %d skipped: %v", p.Row, p.Err)
			}
			logger.Printf("import done imported=%d skipped=%d", report.Imported, report.Skipped)

			if report.Imported > 0 {
				invalidateCatalog(ctx, cfg, logger)
			}
			return nil
		},
	}
	cmd.Flags().StringP("format", "f", "", "File format (csv, xlsx); defaults to the file extension")
	return cmd
}

func exportCmd(logger *log.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "export [file.xlsx]",
		Short: "Write the whole catalog to an .xlsx workbook",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			pool, err := connect(ctx, config.FromEnv())
			if err != nil {
				return err
			}
			defer pool.Close()

			products, err := productrepo.NewPostgres(pool, logger).List(ctx)
			if err != nil {
				return fmt.Errorf("list products: %w", err)
			}

			f, err := os.Create(args[0])
			if err != nil {
				return err
			}
			if err := importer.ExportXLSX(f, products); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
			logger.Printf("exported %d products to %s", len(products), args[0])
			return nil
		},
	}
}

func connect(ctx context.Context, cfg config.Config) (*pgxpool.Pool, error) {
	pool, err := db.Connect(ctx, cfg.DBConnString)
	if err != nil {
		return nil, fmt.Errorf("connect db: %w", err)
	}
	return pool, nil
}

// invalidateCatalog drops cached listings so the API serves the new rows.
// A missing or unreachable Redis only costs staleness until the TTL expires.
func invalidateCatalog(ctx context.Context, cfg config.Config, logger *log.Logger) {
	if cfg.RedisAddr == "" {
		return
	}
	rdb, err := db.ConnectRedis(ctx, cfg.RedisAddr, cfg.RedisPassword)
	if err != nil {
		logger.Printf("catalog cache not invalidated: %v", err)
		return
	}
	defer rdb.Close()
	if err := cache.NewRedisCache(rdb, cfg.CatalogCacheTTL).Invalidate(ctx); err != nil {
		logger.Printf("catalog cache not invalidated: %v", err)
	}
}
