package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/s0up4200/grister/filter"
	"github.com/s0up4200/grister/grist"
)

var (
	recTable   string
	recFilters []string
	recWhere   string
	recStrict  bool
	recSort    string
	recLimit   int
	recHidden  bool
	recNoParse bool
)

var recCmd = &cobra.Command{
	Use:   "rec",
	Short: "Manage records inside a table",
}

var recListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the records of a table",
	Long: `List the records of a table.

--filter selects by exact value on the server and can be repeated:

  gry rec list -b Pets --filter species=cat --filter species=dog

--where is evaluated locally against each record:

  gry rec list -b Pets --where 'age > 3 && includes(name, "o")'`,
	Args: cobra.NoArgs,
	RunE: runRecList,
}

var recNewCmd = &cobra.Command{
	Use:   "new COL:VALUE...",
	Short: "Add a record",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		fields, err := parseAssignments(args, ":")
		if err != nil {
			return err
		}
		out, err := client.AddRecords(cmd.Context(), recTable, []grist.Record{{Fields: fields}}, recNoParse, scope()...)
		if err := checkCall(out, err); err != nil {
			return err
		}
		id := ""
		if created, err := decodeObjects(out.Envelope("records")); err == nil && len(created) == 1 {
			id = cell(created[0]["id"])
		}
		printDoneID(id, out)
		return nil
	},
}

var recUpdateCmd = &cobra.Command{
	Use:   "update ID COL:VALUE...",
	Short: "Change a record",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid record id %q", args[0])
		}
		fields, err := parseAssignments(args[1:], ":")
		if err != nil {
			return err
		}
		return printDone(client.UpdateRecords(cmd.Context(), recTable, []grist.Record{{ID: id, Fields: fields}}, recNoParse, scope()...))
	},
}

var recDeleteCmd = &cobra.Command{
	Use:   "delete ID...",
	Short: "Delete records",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rows := make([]int64, len(args))
		for i, a := range args {
			id, err := strconv.ParseInt(a, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid record id %q", a)
			}
			rows[i] = id
		}
		return printDone(client.DeleteRows(cmd.Context(), recTable, rows, scope()...))
	},
}

func init() {
	recListCmd.Flags().StringArrayVar(&recFilters, "filter", nil, "server side filter col=value (repeatable)")
	recListCmd.Flags().StringVar(&recWhere, "where", "", "expression evaluated locally against each record")
	recListCmd.Flags().BoolVar(&recStrict, "strict", false, "fail when --where cannot be evaluated on a record")
	recListCmd.Flags().StringVarP(&recSort, "sort", "s", "", "sort order, e.g. \"name,-age\"")
	recListCmd.Flags().IntVarP(&recLimit, "limit", "l", 0, "return at most this many records")
	recListCmd.Flags().BoolVarP(&recHidden, "hidden", "H", false, "include hidden columns")
	recNewCmd.Flags().BoolVar(&recNoParse, "noparse", false, "do not parse values according to the column type")
	recUpdateCmd.Flags().BoolVar(&recNoParse, "noparse", false, "do not parse values according to the column type")

	for _, c := range []*cobra.Command{recListCmd, recNewCmd, recUpdateCmd, recDeleteCmd} {
		c.Flags().StringVarP(&recTable, "table", "b", "", "table id")
		_ = c.MarkFlagRequired("table")
		addScopeFlags(c, true, false, true)
	}
	recCmd.AddCommand(recListCmd, recNewCmd, recUpdateCmd, recDeleteCmd)
	rootCmd.AddCommand(recCmd)
}

func runRecList(cmd *cobra.Command, args []string) error {
	query := grist.RecordQuery{Sort: recSort, Limit: recLimit, Hidden: recHidden}
	if len(recFilters) > 0 {
		query.Filter = grist.Filter{}
		for _, f := range recFilters {
			fields, err := parseAssignments([]string{f}, "=")
			if err != nil {
				return err
			}
			for col, value := range fields {
				query.Filter[col] = append(query.Filter[col], value)
			}
		}
	}

	// Compile before calling so a bad expression costs no request
	var program *filter.Program
	if recWhere != "" {
		var err error
		if program, err = filter.Compile(recWhere); err != nil {
			return err
		}
	}

	out, err := client.ListRecords(cmd.Context(), recTable, query, scope()...)
	if err := checkCall(out, err); err != nil {
		return err
	}

	var records []grist.Record
	if err := out.Body.Decode(&records); err != nil {
		return fmt.Errorf("unexpected response: %w", err)
	}

	if program != nil {
		total := len(records)
		evaluator := filter.NewEvaluator(filter.WithStrict(recStrict))
		if records, err = evaluator.Records(cmd.Context(), program, records); err != nil {
			return err
		}
		logger.Debug().Str("where", program.Expression()).Int("total", total).Int("matched", len(records)).Msg("Filtered records")
	}

	printOutput(recordTable(records, nil, true), out)
	return nil
}
