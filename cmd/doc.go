package cmd

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

var maxAccessLevels = []string{"owners", "editors", "viewers"}

var (
	docPinned    bool
	docMaxAccess string
	docNoHistory bool
	docTemplate  bool
)

var docCmd = &cobra.Command{
	Use:   "doc",
	Short: "Manage documents inside a workspace",
}

var docSeeCmd = &cobra.Command{
	Use:   "see",
	Short: "Describe a document",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out, err := client.GetDoc(cmd.Context(), scope()...)
		return printObject(out, err, "id", "name", "isPinned", "urlId", "createdAt", "updatedAt", "access")
	},
}

var docNewCmd = &cobra.Command{
	Use:   "new NAME",
	Short: "Create a document in a workspace",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out, err := client.AddDoc(cmd.Context(), args[0], docPinned, scope()...)
		if err := checkCall(out, err); err != nil {
			return err
		}
		id, _ := out.Body.Text()
		if id == "" {
			id = out.Body.String()
		}
		printDoneID(id, out)
		return nil
	},
}

var docUpdateCmd = &cobra.Command{
	Use:   "update NAME",
	Short: "Rename a document and set its pinned flag",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return printDone(client.UpdateDoc(cmd.Context(), args[0], docPinned, scope()...))
	},
}

var docMoveCmd = &cobra.Command{
	Use:   "move WORKSPACE",
	Short: "Move a document to another workspace",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dest, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid workspace id %q", args[0])
		}
		return printDone(client.MoveDoc(cmd.Context(), dest, scope()...))
	},
}

var docDeleteCmd = &cobra.Command{
	Use:   "delete ID",
	Short: "Delete a document",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return printDone(client.DeleteDoc(cmd.Context(), args[0], scope()...))
	},
}

var docUsersCmd = &cobra.Command{
	Use:   "users",
	Short: "List the users of a document",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return printUsers(client.ListDocUsers(cmd.Context(), scope()...))
	},
}

var docAccessCmd = &cobra.Command{
	Use:   "user-access EMAIL ACCESS",
	Short: "Change the access level of a document user",
	Long:  "Change the access level of a document user. ACCESS is one of: " + strings.Join(accessLevels, ", "),
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		users, err := accessDelta(args[0], args[1])
		if err != nil {
			return err
		}
		if !slices.Contains(maxAccessLevels, docMaxAccess) {
			return fmt.Errorf("max access must be one of: %s", strings.Join(maxAccessLevels, ", "))
		}
		return printDone(client.UpdateDocUsers(cmd.Context(), users, docMaxAccess, scope()...))
	},
}

var docDownloadCmd = &cobra.Command{
	Use:   "download PATH",
	Short: "Download the document as a SQLite file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := checkDownloadPath(args[0]); err != nil {
			return err
		}
		return printDone(client.DownloadSQLite(cmd.Context(), args[0], docNoHistory, docTemplate, scope()...))
	},
}

func init() {
	docNewCmd.Flags().BoolVarP(&docPinned, "pinned", "P", false, "pin the document")
	docUpdateCmd.Flags().BoolVarP(&docPinned, "pinned", "P", false, "pin the document")
	docAccessCmd.Flags().StringVarP(&docMaxAccess, "max-access", "A", "owners", "max inherited access level")
	docDownloadCmd.Flags().BoolVar(&docNoHistory, "nohistory", false, "leave out the document history")
	docDownloadCmd.Flags().BoolVar(&docTemplate, "template", false, "leave out the data, structure only")

	addScopeFlags(docNewCmd, true, true, false)
	addScopeFlags(docDeleteCmd, true, false, false)
	for _, c := range []*cobra.Command{docSeeCmd, docUpdateCmd, docMoveCmd, docUsersCmd, docAccessCmd, docDownloadCmd} {
		addScopeFlags(c, true, false, true)
	}
	docCmd.AddCommand(docSeeCmd, docNewCmd, docUpdateCmd, docMoveCmd, docDeleteCmd, docUsersCmd, docAccessCmd, docDownloadCmd)
	rootCmd.AddCommand(docCmd)
}
