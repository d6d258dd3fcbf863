package cmd

import (
	"github.com/spf13/cobra"

	"github.com/s0up4200/grister/grist"
)

var (
	colTable  string
	colHidden bool
)

var colCmd = &cobra.Command{
	Use:   "col",
	Short: "Manage columns inside a table",
}

var colListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the columns of a table",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out, err := client.ListColumns(cmd.Context(), colTable, colHidden, scope()...)
		if err := checkCall(out, err); err != nil {
			return err
		}
		cols, err := decodeObjects(out)
		if err != nil {
			return err
		}
		t := newTable("id", "label", "type", "formula")
		for _, col := range cols {
			fields, _ := col["fields"].(map[string]any)
			t.add(cell(col["id"]), cell(fields["label"]), cell(fields["type"]), cell(fields["formula"]))
		}
		printOutput(t, out)
		return nil
	},
}

var colNewCmd = &cobra.Command{
	Use:   "new COLUMN...",
	Short: "Add columns to a table",
	Long: `Add columns to a table. Each COLUMN is declared as id:type:label, e.g.

  gry col new -b Pets owner:Text:Owner born:Date:Born`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cols, err := parseColumns(args)
		if err != nil {
			return err
		}
		return printDone(client.AddColumns(cmd.Context(), colTable, cols, scope()...))
	},
}

var colUpdateCmd = &cobra.Command{
	Use:   "update COLUMN FIELD=VALUE...",
	Short: "Change column properties",
	Long: `Change column properties, e.g.

  gry col update -b Pets age label=Years type=Numeric`,
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		fields, err := parseAssignments(args[1:], "=")
		if err != nil {
			return err
		}
		return printDone(client.UpdateColumns(cmd.Context(), colTable, []grist.Column{{ID: args[0], Fields: fields}}, scope()...))
	},
}

var colDeleteCmd = &cobra.Command{
	Use:   "delete COLUMN",
	Short: "Delete a column",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return printDone(client.DeleteColumn(cmd.Context(), colTable, args[0], scope()...))
	},
}

func init() {
	colListCmd.Flags().BoolVarP(&colHidden, "hidden", "H", false, "include hidden columns")
	for _, c := range []*cobra.Command{colListCmd, colNewCmd, colUpdateCmd, colDeleteCmd} {
		c.Flags().StringVarP(&colTable, "table", "b", "", "table id")
		_ = c.MarkFlagRequired("table")
		addScopeFlags(c, true, false, true)
	}
	colCmd.AddCommand(colListCmd, colNewCmd, colUpdateCmd, colDeleteCmd)
	rootCmd.AddCommand(colCmd)
}
