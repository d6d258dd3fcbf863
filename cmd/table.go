package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/s0up4200/grister/apicall"
	"github.com/s0up4200/grister/grist"
)

var (
	tableID       string
	tableFormat   string
	tableColumnID bool
	tableWorkers  int
)

var tableCmd = &cobra.Command{
	Use:   "table",
	Short: "Manage tables inside a document",
}

var tableListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the tables of a document",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out, err := client.ListTables(cmd.Context(), scope()...)
		if err := checkCall(out, err); err != nil {
			return err
		}
		tables, err := decodeObjects(out)
		if err != nil {
			return err
		}
		t := newTable("id", "onDemand", "primaryViewId", "summarySourceTable")
		for _, tbl := range tables {
			fields, _ := tbl["fields"].(map[string]any)
			t.add(cell(tbl["id"]), cell(fields["onDemand"]), cell(fields["primaryViewId"]), cell(fields["summarySourceTable"]))
		}
		printOutput(t, out)
		return nil
	},
}

var tableNewCmd = &cobra.Command{
	Use:   "new TABLE COLUMN...",
	Short: "Create a table",
	Long: `Create a table. Each COLUMN is declared as id:type:label, e.g.

  gry table new Pets name:Text:Name age:Int:Age`,
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cols, err := parseColumns(args[1:])
		if err != nil {
			return err
		}
		out, err := client.AddTables(cmd.Context(), []grist.Table{{ID: args[0], Columns: cols}}, scope()...)
		if err := checkCall(out, err); err != nil {
			return err
		}
		id := args[0]
		if created, err := decodeObjects(out.Envelope("tables")); err == nil && len(created) == 1 {
			id = cell(created[0]["id"])
		}
		printDoneID(id, out)
		return nil
	},
}

var tableUpdateCmd = &cobra.Command{
	Use:   "update TABLE FIELD=VALUE...",
	Short: "Change table metadata",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		fields, err := parseAssignments(args[1:], "=")
		if err != nil {
			return err
		}
		return printDone(client.UpdateTables(cmd.Context(), []grist.Table{{ID: args[0], Fields: fields}}, scope()...))
	},
}

var tableDownloadCmd = &cobra.Command{
	Use:   "download PATH",
	Short: "Download a table as csv, xlsx or table schema",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := checkDownloadPath(args[0]); err != nil {
			return err
		}
		return printDone(exportTable(cmd.Context(), client, args[0], tableID))
	},
}

var tableExportCmd = &cobra.Command{
	Use:   "export DIR",
	Short: "Download every table of a document into a directory",
	Args:  cobra.ExactArgs(1),
	RunE:  runTableExport,
}

func init() {
	tableDownloadCmd.Flags().StringVarP(&tableID, "table", "b", "", "table id")
	_ = tableDownloadCmd.MarkFlagRequired("table")
	for _, c := range []*cobra.Command{tableDownloadCmd, tableExportCmd} {
		c.Flags().StringVarP(&tableFormat, "format", "f", "csv", "output format (csv, xlsx, schema)")
		c.Flags().BoolVar(&tableColumnID, "colid", false, "use column ids instead of labels as headers")
	}
	tableExportCmd.Flags().IntVar(&tableWorkers, "workers", 4, "concurrent downloads")

	for _, c := range []*cobra.Command{tableListCmd, tableNewCmd, tableUpdateCmd, tableDownloadCmd, tableExportCmd} {
		addScopeFlags(c, true, false, true)
	}
	tableCmd.AddCommand(tableListCmd, tableNewCmd, tableUpdateCmd, tableDownloadCmd, tableExportCmd)
	rootCmd.AddCommand(tableCmd)
}

func exportTable(ctx context.Context, c *grist.Client, path, table string) (apicall.Outcome, error) {
	header := grist.HeaderLabel
	if tableColumnID {
		header = grist.HeaderColumn
	}
	switch tableFormat {
	case "csv":
		return c.DownloadCSV(ctx, path, table, header, scope()...)
	case "xlsx":
		return c.DownloadExcel(ctx, path, table, header, scope()...)
	case "schema":
		return c.DownloadSchema(ctx, path, table, header, scope()...)
	}
	return apicall.Outcome{}, fmt.Errorf("unknown format %q, want csv, xlsx or schema", tableFormat)
}

// runTableExport downloads all tables concurrently. Each worker uses its own
// client clone, since a client keeps per-call diagnostics.
func runTableExport(cmd *cobra.Command, args []string) error {
	dir := args[0]
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", dir, err)
	}

	out, err := client.ListTables(cmd.Context(), scope()...)
	if err := checkCall(out, err); err != nil {
		return err
	}
	tables, err := decodeObjects(out)
	if err != nil {
		return err
	}

	ext := map[string]string{"csv": ".csv", "xlsx": ".xlsx", "schema": ".json"}[tableFormat]
	if ext == "" {
		return fmt.Errorf("unknown format %q, want csv, xlsx or schema", tableFormat)
	}

	var exported, failed, lastStatus atomic.Int32
	g, ctx := errgroup.WithContext(cmd.Context())
	g.SetLimit(max(tableWorkers, 1))

	for _, tbl := range tables {
		id := cell(tbl["id"])
		if strings.HasPrefix(id, "GristHidden_") {
			continue
		}
		g.Go(func() error {
			worker, err := client.Clone()
			if err != nil {
				return err
			}
			path := filepath.Join(dir, id+ext)
			res, err := exportTable(ctx, worker, path, id)
			if err != nil {
				return fmt.Errorf("table %s: %w", id, err)
			}
			if !res.OK && !res.DryRun() {
				failed.Add(1)
				lastStatus.Store(int32(res.Status))
				logger.Error().Str("table", id).Int("status", res.Status).Str("body", res.Body.String()).Msg("Download failed")
				return nil
			}
			exported.Add(1)
			logger.Info().Str("table", id).Str("path", path).Msg("Table downloaded")
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	if n := failed.Load(); n > 0 {
		if !quiet {
			fmt.Fprintln(stderr, errorStyle.Render("Error!"), n, "table(s) failed to download")
		}
		return &badCallError{status: int(lastStatus.Load())}
	}
	if !quiet {
		fmt.Fprintln(stdout, doneStyle.Render("Done."), exported.Load(), "table(s) exported to", dir)
	}
	return nil
}
