package cmd

import (
	"fmt"
	"slices"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/s0up4200/grister/apicall"
	"github.com/s0up4200/grister/grist"
)

var (
	sqlParams  []string
	sqlTimeout int
)

var sqlCmd = &cobra.Command{
	Use:   "sql STATEMENT",
	Short: "Run a SELECT query against the document",
	Long: `Run a SELECT query against the document.

Repeat --param for multiple parameters:

  gry sql "select * from Pets where age > ? and age < ?" -p 2 -p 10`,
	Args: cobra.ExactArgs(1),
	RunE: runSQL,
}

func init() {
	sqlCmd.Flags().StringArrayVarP(&sqlParams, "param", "p", nil, "query parameter (repeatable)")
	sqlCmd.Flags().IntVar(&sqlTimeout, "timeout", grist.DefaultSQLTimeout, "query timeout in milliseconds")
	addScopeFlags(sqlCmd, true, false, true)

	rootCmd.AddCommand(sqlCmd)
}

func runSQL(cmd *cobra.Command, args []string) error {
	var (
		out apicall.Outcome
		err error
	)
	if len(sqlParams) > 0 {
		params := make([]any, len(sqlParams))
		for i, p := range sqlParams {
			params[i] = p
		}
		out, err = client.RunSQLWithArgs(cmd.Context(), args[0], params, sqlTimeout, scope()...)
	} else {
		out, err = client.RunSQL(cmd.Context(), args[0], scope()...)
	}
	if err := checkCall(out, err); err != nil {
		return err
	}

	var rows []grist.Record
	if err := out.Body.Decode(&rows); err != nil {
		return err
	}
	printOutput(recordTable(rows, nil, false), out)
	return nil
}

// recordTable lays out records with one column per field. When columns is
// nil, the fields of the first record are used, sorted.
func recordTable(records []grist.Record, columns []string, withID bool) fmt.Stringer {
	if len(records) == 0 {
		return text("No records found.")
	}
	if columns == nil {
		for k := range records[0].Fields {
			columns = append(columns, k)
		}
		slices.Sort(columns)
	}

	header := columns
	if withID {
		header = append([]string{"id"}, columns...)
	}
	t := newTable(header...)
	for _, r := range records {
		row := make([]string, 0, len(header))
		if withID {
			row = append(row, strconv.FormatInt(r.ID, 10))
		}
		for _, c := range columns {
			row = append(row, cell(r.Fields[c]))
		}
		t.add(row...)
	}
	return t
}
