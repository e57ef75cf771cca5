package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"caskledger/internal/config"
	"caskledger/internal/dto"
	"caskledger/internal/infra"
	"caskledger/internal/ledger"
	"caskledger/internal/repository"
	"caskledger/internal/repository/memstore"
	"caskledger/internal/seed"
	"caskledger/internal/service"

	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "caskctl",
		Short:         "Operate the cask ledger database",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.AddCommand(newSeedCmd(), newReportCmd(), newDemoCmd())
	return root
}

// openServices connects to the configured Postgres. The CLI never uses the
// stats cache.
func openServices() (*service.Services, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	db, err := infra.NewDatabase(cfg.DatabaseURL, cfg.DBMaxOpenConns)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	return service.New(repository.NewGormStores(db), nil, 0), nil
}

func newSeedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Load the sample batch, draws, runs and shipment",
		Long: `Load sample data through the ledger services.

Creates a batch of 100 barrels, two usage draws, two bottling runs and one
shipment. Running it twice creates a second, independent data set.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svcs, err := openServices()
			if err != nil {
				return err
			}
			sum, err := seed.Run(cmd.Context(), svcs)
			if err != nil {
				return err
			}
			printSummary(cmd.OutOrStdout(), sum)
			return nil
		},
	}
}

func newReportCmd() *cobra.Command {
	var month, pdfPath string
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print the monthly shipment report",
		Example: `  caskctl report --month 2025-03
  caskctl report --month 2025-03 --pdf cogs-2025-03.pdf
  caskctl report            # current month`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if month == "" {
				month = time.Now().UTC().Format(ledger.MonthLayout)
			}
			svcs, err := openServices()
			if err != nil {
				return err
			}
			report, err := svcs.Reports.MonthlyReport(cmd.Context(), month)
			if err != nil {
				return err
			}
			printReport(cmd.OutOrStdout(), report)
			if pdfPath != "" {
				return writeReportPDF(pdfPath, report)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&month, "month", "", "report month (YYYY-MM), defaults to the current month")
	cmd.Flags().StringVar(&pdfPath, "pdf", "", "also write the report as a PDF to this path")
	return cmd
}

func newDemoCmd() *cobra.Command {
	var month string
	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Seed an in-memory ledger and print its report (no database needed)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			svcs := service.New(memstore.New().Stores(), nil, 0)
			return runDemo(cmd.Context(), svcs, month, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVar(&month, "month", "2025-03", "report month (YYYY-MM)")
	return cmd
}

func runDemo(ctx context.Context, svcs *service.Services, month string, out io.Writer) error {
	sum, err := seed.Run(ctx, svcs)
	if err != nil {
		return err
	}
	printSummary(out, sum)

	stats, err := svcs.Dashboard.Stats(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "\nbarrels: %d (aging %d)  bottled inventory: %d  COGS this month: %s\n\n",
		stats.TotalBarrels, stats.AgingBarrels, stats.BottledInventory, ledger.Display(stats.MonthlyCOGS))

	report, err := svcs.Reports.MonthlyReport(ctx, month)
	if err != nil {
		return err
	}
	printReport(out, report)
	return nil
}

func writeReportPDF(path string, report *dto.MonthlyReportResponse) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := infra.WriteMonthlyReportPDF(f, report, time.Now()); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func printSummary(out io.Writer, sum *seed.Summary) {
	fmt.Fprintf(out, "batch %s: %d barrels (%s … %s)\n",
		sum.BatchID, len(sum.BarrelCodes), sum.BarrelCodes[0], sum.BarrelCodes[len(sum.BarrelCodes)-1])
	fmt.Fprintf(out, "usage logs: %d  bottling runs: %d  shipments: %d\n",
		len(sum.UsageLogIDs), len(sum.RunIDs), len(sum.ShipmentIDs))
}

func printReport(out io.Writer, report *dto.MonthlyReportResponse) {
	fmt.Fprintf(out, "Shipments for %s\n", report.Month)
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "BOTTLE TYPE\tUNITS\tCOGS")
	for _, s := range report.Shipments {
		fmt.Fprintf(tw, "%s\t%d\t%s\n", s.BottleType, s.TotalUnits, ledger.Display(s.TotalCOGS))
	}
	fmt.Fprintf(tw, "TOTAL\t\t%s\n", ledger.Display(report.TotalCOGS))
	_ = tw.Flush()
}
