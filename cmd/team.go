package cmd

import (
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/s0up4200/grister/apicall"
	"github.com/s0up4200/grister/grist"
)

var accessLevels = []string{"owners", "editors", "viewers", "members", "none"}

var teamCmd = &cobra.Command{
	Use:   "team",
	Short: "Manage team sites",
}

var teamListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the team sites you can access",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out, err := client.ListTeamSites(cmd.Context())
		if err := checkCall(out, err); err != nil {
			return err
		}
		items, err := decodeObjects(out)
		if err != nil {
			return err
		}
		t := newTable("id", "name", "domain", "owner")
		for _, item := range items {
			owner := ""
			if o, ok := item["owner"].(map[string]any); ok {
				owner = cell(o["name"])
			}
			t.add(cell(item["id"]), cell(item["name"]), cell(item["domain"]), owner)
		}
		printOutput(t, out)
		return nil
	},
}

var teamSeeCmd = &cobra.Command{
	Use:   "see",
	Short: "Describe a team site",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out, err := client.GetTeam(cmd.Context(), scope()...)
		return printObject(out, err, "id", "name", "domain", "createdAt", "updatedAt", "access")
	},
}

var teamUpdateCmd = &cobra.Command{
	Use:   "update NAME",
	Short: "Rename a team site",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return printDone(client.UpdateTeam(cmd.Context(), args[0], scope()...))
	},
}

var teamUsersCmd = &cobra.Command{
	Use:   "users",
	Short: "List the users of a team site",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return printUsers(client.ListTeamUsers(cmd.Context(), scope()...))
	},
}

var teamAccessCmd = &cobra.Command{
	Use:   "user-access EMAIL ACCESS",
	Short: "Change the access level of a team user",
	Long:  "Change the access level of a team user. ACCESS is one of: " + strings.Join(accessLevels, ", "),
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		users, err := accessDelta(args[0], args[1])
		if err != nil {
			return err
		}
		return printDone(client.UpdateTeamUsers(cmd.Context(), users, scope()...))
	},
}

func init() {
	for _, c := range []*cobra.Command{teamSeeCmd, teamUpdateCmd, teamUsersCmd, teamAccessCmd} {
		addScopeFlags(c, true, false, false)
	}
	teamCmd.AddCommand(teamListCmd, teamSeeCmd, teamUpdateCmd, teamUsersCmd, teamAccessCmd)
	rootCmd.AddCommand(teamCmd)
}

// accessDelta validates an access level; "none" removes the user
func accessDelta(email, access string) (grist.Access, error) {
	if !slices.Contains(accessLevels, access) {
		return nil, fmt.Errorf("access must be one of: %s", strings.Join(accessLevels, ", "))
	}
	if access == "none" {
		access = ""
	}
	return grist.Access{email: access}, nil
}

// decodeObjects decodes a JSON array of objects
func decodeObjects(out apicall.Outcome) ([]map[string]any, error) {
	var items []map[string]any
	if err := out.Body.Decode(&items); err != nil {
		return nil, fmt.Errorf("unexpected response: %w", err)
	}
	return items, nil
}

// printObject prints selected fields of a JSON object as a key/value table
func printObject(out apicall.Outcome, err error, keys ...string) error {
	if err := checkCall(out, err); err != nil {
		return err
	}
	obj, ok := out.Body.Object()
	if !ok {
		return fmt.Errorf("unexpected response: %s", out.Body)
	}
	t := newTable("key", "value")
	for _, k := range keys {
		if v, ok := obj[k]; ok {
			t.add(k, cell(v))
		}
	}
	printOutput(t, out)
	return nil
}

func printUsers(out apicall.Outcome, err error) error {
	if err := checkCall(out, err); err != nil {
		return err
	}
	users, err := decodeObjects(out)
	if err != nil {
		return err
	}
	t := newTable("id", "name", "email", "access")
	for _, u := range users {
		t.add(cell(u["id"]), cell(u["name"]), cell(u["email"]), cell(u["access"]))
	}
	printOutput(t, out)
	return nil
}
