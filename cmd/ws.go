package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

var wsCmd = &cobra.Command{
	Use:   "ws",
	Short: "Manage workspaces inside a team site",
}

var wsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the workspaces of a team site",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out, err := client.ListWorkspaces(cmd.Context(), scope()...)
		if err := checkCall(out, err); err != nil {
			return err
		}
		items, err := decodeObjects(out)
		if err != nil {
			return err
		}
		t := newTable("id", "name", "owner", "docs")
		for _, ws := range items {
			owner := ""
			if o, ok := ws["owner"].(map[string]any); ok {
				owner = cell(o["name"])
			}
			docs, _ := ws["docs"].([]any)
			names := make([]string, 0, len(docs))
			for _, d := range docs {
				if doc, ok := d.(map[string]any); ok {
					names = append(names, fmt.Sprintf("%s (%s)", cell(doc["name"]), cell(doc["id"])))
				}
			}
			t.add(cell(ws["id"]), cell(ws["name"]), owner, strings.Join(names, ", "))
		}
		printOutput(t, out)
		return nil
	},
}

var wsSeeCmd = &cobra.Command{
	Use:   "see",
	Short: "Describe a workspace",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out, err := client.GetWorkspace(cmd.Context(), scope()...)
		return printObject(out, err, "id", "name", "createdAt", "updatedAt", "access", "isSupportWorkspace")
	},
}

var wsNewCmd = &cobra.Command{
	Use:   "new NAME",
	Short: "Create a workspace",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out, err := client.AddWorkspace(cmd.Context(), args[0], scope()...)
		if err := checkCall(out, err); err != nil {
			return err
		}
		printDoneID(out.Body.String(), out)
		return nil
	},
}

var wsUpdateCmd = &cobra.Command{
	Use:   "update NAME",
	Short: "Rename a workspace",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return printDone(client.UpdateWorkspace(cmd.Context(), args[0], scope()...))
	},
}

var wsDeleteCmd = &cobra.Command{
	Use:   "delete ID",
	Short: "Delete a workspace and all its documents",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid workspace id %q", args[0])
		}
		return printDone(client.DeleteWorkspace(cmd.Context(), id, scope()...))
	},
}

var wsUsersCmd = &cobra.Command{
	Use:   "users",
	Short: "List the users of a workspace",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return printUsers(client.ListWorkspaceUsers(cmd.Context(), scope()...))
	},
}

var wsAccessCmd = &cobra.Command{
	Use:   "user-access EMAIL ACCESS",
	Short: "Change the access level of a workspace user",
	Long:  "Change the access level of a workspace user. ACCESS is one of: " + strings.Join(accessLevels, ", "),
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		users, err := accessDelta(args[0], args[1])
		if err != nil {
			return err
		}
		return printDone(client.UpdateWorkspaceUsers(cmd.Context(), users, scope()...))
	},
}

func init() {
	addScopeFlags(wsListCmd, true, false, false)
	addScopeFlags(wsNewCmd, true, false, false)
	addScopeFlags(wsDeleteCmd, true, false, false)
	for _, c := range []*cobra.Command{wsSeeCmd, wsUpdateCmd, wsUsersCmd, wsAccessCmd} {
		addScopeFlags(c, true, true, false)
	}
	wsCmd.AddCommand(wsListCmd, wsSeeCmd, wsNewCmd, wsUpdateCmd, wsDeleteCmd, wsUsersCmd, wsAccessCmd)
	rootCmd.AddCommand(wsCmd)
}
