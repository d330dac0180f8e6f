package main

import (
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/spf13/cobra"

	"github.com/odyssey-erp/order-review/jobs"
)

func newEnqueueReportCmd(g *globals) *cobra.Command {
	var (
		filters     criteriaFlags
		payload     jobs.ReportPayload
		requireRows bool
	)
	cmd := &cobra.Command{
		Use:   "enqueue-report",
		Short: "Queue a report run for the worker",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := filters.criteria(); err != nil {
				return err
			}
			payload.Category = filters.category
			payload.DeliveryCutoff = filters.cutoff
			payload.SupplierSearch = filters.search
			if cmd.Flags().Changed("require-rows") {
				payload.RequireRows = &requireRows
			}

			client, err := jobs.NewClient(asynq.RedisClientOpt{Addr: g.redisAddr})
			if err != nil {
				return err
			}
			defer func() { _ = client.Close() }()

			info, err := client.EnqueueReport(cmd.Context(), payload)
			if err != nil {
				return err
			}
			fmt.Fprintf(out(cmd), "enqueued %s on %s\n", info.ID, info.Queue)
			return nil
		},
	}
	filters.bind(cmd)
	cmd.Flags().StringVar(&payload.Format, "format", "csv", "Report format (csv or pdf)")
	cmd.Flags().StringVar(&payload.Name, "name", "", "Report file base name")
	cmd.Flags().BoolVar(&requireRows, "require-rows", false, "Fail the run when no order matches")
	return cmd
}

func newQueueCmd(g *globals) *cobra.Command {
	var scheduled int
	cmd := &cobra.Command{
		Use:   "queue",
		Short: "Show report queue depth",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: g.redisAddr})
			defer func() { _ = inspector.Close() }()

			info, err := inspector.GetQueueInfo(jobs.QueueDefault)
			if err != nil {
				return err
			}
			fmt.Fprintf(out(cmd), "queue=%s pending=%d active=%d scheduled=%d retry=%d archived=%d\n",
				info.Queue, info.Pending, info.Active, info.Scheduled, info.Retry, info.Archived)
			if scheduled <= 0 {
				return nil
			}
			tasks, err := inspector.ListScheduledTasks(jobs.QueueDefault, asynq.PageSize(scheduled), asynq.Page(1))
			if err != nil {
				return err
			}
			for _, t := range tasks {
				fmt.Fprintf(out(cmd), "%s\t%s\t%s\n", t.ID, t.Type, t.NextProcessAt.Format("2006-01-02 15:04:05"))
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&scheduled, "scheduled", 0, "Also list up to N scheduled tasks")
	return cmd
}
