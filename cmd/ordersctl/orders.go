package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/odyssey-erp/order-review/internal/acceptedorders"
	"github.com/odyssey-erp/order-review/internal/acceptedorders/export"
)

func newListCmd(g *globals) *cobra.Command {
	var (
		filters criteriaFlags
		asJSON  bool
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Print the filtered accepted orders with derived columns",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			criteria, err := filters.criteria()
			if err != nil {
				return err
			}
			session, err := g.session(cmd.Context())
			if err != nil {
				return err
			}
			session.SetCriteria(criteria)
			now := g.now()
			view := session.View()
			if asJSON {
				enc := json.NewEncoder(out(cmd))
				enc.SetIndent("", "  ")
				return enc.Encode(acceptedorders.Derive(view, now))
			}
			exporter, err := g.exporter(false)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(out(cmd), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\t"+strings.Join(export.Header, "\t"))
			for i, line := range exporter.Table(view, now) {
				fmt.Fprintln(tw, view[i].ID+"\t"+strings.Join(line, "\t"))
			}
			return tw.Flush()
		},
	}
	filters.bind(cmd)
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print rows as JSON")
	return cmd
}

func newExportCmd(g *globals) *cobra.Command {
	var (
		filters     criteriaFlags
		format      string
		output      string
		requireRows bool
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the filtered view as a CSV or PDF report",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := export.ParseFormat(format)
			if err != nil {
				return err
			}
			criteria, err := filters.criteria()
			if err != nil {
				return err
			}
			exporter, err := g.exporter(requireRows)
			if err != nil {
				return err
			}
			session, err := g.session(cmd.Context())
			if err != nil {
				return err
			}
			session.SetCriteria(criteria)
			doc, err := exporter.Export(cmd.Context(), session.View(), g.now(), f)
			if err != nil {
				return err
			}
			path := output
			if path == "" {
				path = doc.Name
			}
			if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
				return err
			}
			if err := os.WriteFile(path, doc.Body, 0o644); err != nil {
				return err
			}
			fmt.Fprintf(out(cmd), "wrote %d rows to %s\n", doc.Rows, path)
			return nil
		},
	}
	filters.bind(cmd)
	cmd.Flags().StringVar(&format, "format", "csv", "Report format (csv or pdf)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file, defaults to the report name")
	cmd.Flags().BoolVar(&requireRows, "require-rows", false, "Fail when no order matches")
	return cmd
}

func newEditCmd(g *globals) *cobra.Command {
	var sets []string
	cmd := &cobra.Command{
		Use:   "edit ID",
		Short: "Stage field changes on one order and save them",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(sets) == 0 {
				return fmt.Errorf("at least one --set field=value is required")
			}
			session, err := g.session(cmd.Context())
			if err != nil {
				return err
			}
			if !session.BeginEdit(args[0]) {
				return fmt.Errorf("order %s: %w", args[0], acceptedorders.ErrNotFound)
			}
			for _, set := range sets {
				name, value, ok := strings.Cut(set, "=")
				if !ok {
					session.CancelEdit()
					return fmt.Errorf("--set %q: expected field=value", set)
				}
				if err := session.StageField(strings.TrimSpace(name), value); err != nil {
					session.CancelEdit()
					return err
				}
			}
			saved, err := session.CommitEdit(cmd.Context())
			if err != nil {
				return err
			}
			enc := json.NewEncoder(out(cmd))
			enc.SetIndent("", "  ")
			return enc.Encode(acceptedorders.Derive([]acceptedorders.Order{saved}, g.now())[0])
		},
	}
	cmd.Flags().StringArrayVar(&sets, "set", nil, "Field assignment, repeatable (e.g. --set amount=12)")
	return cmd
}

func newDeleteCmd(g *globals) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "delete ID",
		Short: "Delete one order after confirmation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := g.session(cmd.Context())
			if err != nil {
				return err
			}
			confirm := acceptedorders.Confirmed
			if !yes {
				confirm = promptConfirmer(cmd)
			}
			if err := session.Delete(cmd.Context(), args[0], confirm); err != nil {
				return err
			}
			fmt.Fprintf(out(cmd), "deleted %s\n", args[0])
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")
	return cmd
}

// promptConfirmer asks on the command's input. Anything but y or yes declines.
func promptConfirmer(cmd *cobra.Command) acceptedorders.Confirmer {
	return acceptedorders.ConfirmFunc(func(o acceptedorders.Order) bool {
		fmt.Fprintf(out(cmd), "Delete order %s from %s? [y/N] ", o.ID, o.SupplierName)
		line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
		if err != nil && line == "" {
			return false
		}
		switch strings.ToLower(strings.TrimSpace(line)) {
		case "y", "yes":
			return true
		}
		return false
	})
}
