package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/odyssey-erp/order-review/internal/acceptedorders"
	"github.com/odyssey-erp/order-review/internal/acceptedorders/client"
	"github.com/odyssey-erp/order-review/internal/acceptedorders/export"
	"github.com/odyssey-erp/order-review/internal/app"
	"github.com/odyssey-erp/order-review/report"
)

type globals struct {
	storeURL     string
	redisAddr    string
	gotenbergURL string
	timezone     string
	dateLayout   string
	now          func() time.Time
}

func newRootCmd(cfg *app.Config) *cobra.Command {
	g := &globals{now: time.Now}

	cmd := &cobra.Command{
		Use:           "ordersctl",
		Short:         "Review accepted orders",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.SetIn(os.Stdin)
	cmd.PersistentFlags().StringVar(&g.storeURL, "store-url", cfg.StoreBaseURL, "Accepted orders store base URL")
	cmd.PersistentFlags().StringVar(&g.redisAddr, "redis", cfg.RedisAddr, "Redis address for the job queue")
	cmd.PersistentFlags().StringVar(&g.gotenbergURL, "gotenberg-url", cfg.GotenbergURL, "Gotenberg endpoint for PDF exports")
	cmd.PersistentFlags().StringVar(&g.timezone, "timezone", cfg.ReportTimezone, "Zone used to render delivery dates")
	cmd.PersistentFlags().StringVar(&g.dateLayout, "date-layout", cfg.ReportDateLayout, "Go time layout for delivery dates")

	cmd.AddCommand(
		newListCmd(g),
		newExportCmd(g),
		newEditCmd(g),
		newDeleteCmd(g),
		newEnqueueReportCmd(g),
		newQueueCmd(g),
	)
	return cmd
}

// session opens a review session loaded from the store.
func (g *globals) session(ctx context.Context) (*acceptedorders.Session, error) {
	session := acceptedorders.NewSession(client.New(g.storeURL, nil))
	if err := session.Refresh(ctx); err != nil {
		return nil, err
	}
	return session, nil
}

func (g *globals) exporter(requireRows bool) (*export.Exporter, error) {
	loc, err := time.LoadLocation(g.timezone)
	if err != nil {
		return nil, fmt.Errorf("timezone: %w", err)
	}
	return export.New(export.Options{
		Location:    loc,
		DateLayout:  g.dateLayout,
		RequireRows: requireRows,
	}, report.NewClient(g.gotenbergURL, nil)), nil
}

// criteriaFlags binds the filter flags shared by list, export and enqueue-report.
type criteriaFlags struct {
	category string
	cutoff   string
	search   string
}

func (f *criteriaFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.category, "category", "", "Only orders in this category")
	cmd.Flags().StringVar(&f.cutoff, "cutoff", "", "Only orders due on or before this date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&f.search, "search", "", "Case-insensitive supplier name search")
}

func (f *criteriaFlags) criteria() (acceptedorders.Criteria, error) {
	cutoff, err := acceptedorders.ParseCutoff(f.cutoff)
	if err != nil {
		return acceptedorders.Criteria{}, fmt.Errorf("cutoff: %w", err)
	}
	return acceptedorders.Criteria{
		Category:       acceptedorders.Category(f.category),
		DeliveryCutoff: cutoff,
		SupplierSearch: f.search,
	}, nil
}

func out(cmd *cobra.Command) io.Writer { return cmd.OutOrStdout() }
