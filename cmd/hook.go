package cmd

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/s0up4200/grister/grist"
)

var (
	hookTable  string
	hookEvents []string
	hookName   string
	hookColumn string
)

var hookCmd = &cobra.Command{
	Use:   "hook",
	Short: "Manage document webhooks",
}

var hookListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the webhooks of a document",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out, err := client.ListWebhooks(cmd.Context(), scope()...)
		if err := checkCall(out, err); err != nil {
			return err
		}
		hooks, err := decodeObjects(out)
		if err != nil {
			return err
		}
		t := newTable("id", "name", "table", "events", "enabled", "url", "status")
		for _, h := range hooks {
			fields, _ := h["fields"].(map[string]any)
			usage, _ := h["usage"].(map[string]any)
			t.add(cell(h["id"]), cell(fields["name"]), cell(fields["tableId"]), cell(fields["eventTypes"]),
				cell(fields["enabled"]), cell(fields["url"]), cell(usage["status"]))
		}
		printOutput(t, out)
		return nil
	},
}

var hookNewCmd = &cobra.Command{
	Use:   "new URL",
	Short: "Add a webhook",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		fields := map[string]any{
			"url":        args[0],
			"tableId":    hookTable,
			"eventTypes": hookEvents,
			"enabled":    true,
		}
		if hookName != "" {
			fields["name"] = hookName
		}
		if hookColumn != "" {
			fields["isReadyColumn"] = hookColumn
		}
		out, err := client.AddWebhooks(cmd.Context(), []grist.Webhook{{Fields: fields}}, scope()...)
		if err := checkCall(out, err); err != nil {
			return err
		}
		id := ""
		if created, err := decodeObjects(out.Envelope("webhooks")); err == nil && len(created) == 1 {
			id = cell(created[0]["id"])
		}
		printDoneID(id, out)
		return nil
	},
}

var hookUpdateCmd = &cobra.Command{
	Use:   "update ID FIELD=VALUE...",
	Short: "Change webhook settings",
	Long: `Change webhook settings, e.g.

  gry hook update <id> name=orders eventTypes=add,update`,
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		fields, err := parseAssignments(args[1:], "=")
		if err != nil {
			return err
		}
		if events, ok := fields["eventTypes"].(string); ok {
			fields["eventTypes"] = strings.Split(events, ",")
		}
		return printDone(client.UpdateWebhook(cmd.Context(), args[0], fields, scope()...))
	},
}

var hookEnableCmd = &cobra.Command{
	Use:   "enable ID",
	Short: "Enable a webhook",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return printDone(client.UpdateWebhook(cmd.Context(), args[0], map[string]any{"enabled": true}, scope()...))
	},
}

var hookDisableCmd = &cobra.Command{
	Use:   "disable ID",
	Short: "Disable a webhook",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return printDone(client.UpdateWebhook(cmd.Context(), args[0], map[string]any{"enabled": false}, scope()...))
	},
}

var hookDeleteCmd = &cobra.Command{
	Use:   "delete ID",
	Short: "Delete a webhook",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return printDone(client.DeleteWebhook(cmd.Context(), args[0], scope()...))
	},
}

var hookEmptyCmd = &cobra.Command{
	Use:   "empty-queue",
	Short: "Drop every pending webhook payload",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return printDone(client.EmptyWebhookQueue(cmd.Context(), scope()...))
	},
}

func init() {
	hookNewCmd.Flags().StringVarP(&hookTable, "table", "b", "", "table id")
	hookNewCmd.Flags().StringSliceVarP(&hookEvents, "events", "e", []string{"add", "update"}, "event types")
	hookNewCmd.Flags().StringVarP(&hookName, "name", "n", "", "webhook name")
	hookNewCmd.Flags().StringVar(&hookColumn, "ready-column", "", "only send rows where this column is true")
	_ = hookNewCmd.MarkFlagRequired("table")

	for _, c := range []*cobra.Command{hookListCmd, hookNewCmd, hookUpdateCmd, hookEnableCmd, hookDisableCmd, hookDeleteCmd, hookEmptyCmd} {
		addScopeFlags(c, true, false, true)
	}
	hookCmd.AddCommand(hookListCmd, hookNewCmd, hookUpdateCmd, hookEnableCmd, hookDisableCmd, hookDeleteCmd, hookEmptyCmd)
	rootCmd.AddCommand(hookCmd)
}
