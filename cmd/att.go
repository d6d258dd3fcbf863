package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/s0up4200/grister/apicall"
	"github.com/s0up4200/grister/grist"
)

var (
	attSort  string
	attLimit int
)

var attCmd = &cobra.Command{
	Use:   "att",
	Short: "Manage document attachments",
}

var attListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the attachments of a document",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out, err := client.ListAttachments(cmd.Context(), grist.AttachmentQuery{Sort: attSort, Limit: attLimit}, scope()...)
		if err := checkCall(out, err); err != nil {
			return err
		}
		var records []grist.Record
		if err := out.Body.Decode(&records); err != nil {
			return fmt.Errorf("unexpected response: %w", err)
		}
		printOutput(recordTable(records, []string{"fileName", "fileSize", "timeUploaded"}, true), out)
		return nil
	},
}

var attSeeCmd = &cobra.Command{
	Use:   "see ID",
	Short: "Describe an attachment",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		out, err := client.GetAttachment(cmd.Context(), id, scope()...)
		return printObject(out, err, "fileName", "fileSize", "timeUploaded")
	},
}

var attUploadCmd = &cobra.Command{
	Use:   "upload FILE...",
	Short: "Upload files as attachments",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, path := range args {
			if err := checkUploadPath(path); err != nil {
				return err
			}
		}

		var (
			ids  []string
			last apicall.Outcome
		)
		for _, path := range args {
			out, err := client.UploadAttachmentFile(cmd.Context(), path, scope()...)
			if err := checkCall(out, err); err != nil {
				return err
			}
			last = out
			if created, ok := out.Body.Array(); ok {
				for _, id := range created {
					ids = append(ids, cell(id))
				}
			}
			logger.Debug().Str("path", path).Msg("Attachment uploaded")
		}
		printDoneID(strings.Join(ids, ", "), last)
		return nil
	},
}

var attDownloadCmd = &cobra.Command{
	Use:   "download ID PATH",
	Short: "Download the content of an attachment",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		if err := checkDownloadPath(args[1]); err != nil {
			return err
		}
		return printDone(client.DownloadAttachment(cmd.Context(), args[1], id, scope()...))
	},
}

func init() {
	attListCmd.Flags().StringVarP(&attSort, "sort", "s", "", "sort order, e.g. \"-fileSize\"")
	attListCmd.Flags().IntVarP(&attLimit, "limit", "l", 0, "return at most this many attachments")

	for _, c := range []*cobra.Command{attListCmd, attSeeCmd, attUploadCmd, attDownloadCmd} {
		addScopeFlags(c, true, false, true)
	}
	attCmd.AddCommand(attListCmd, attSeeCmd, attUploadCmd, attDownloadCmd)
	rootCmd.AddCommand(attCmd)
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}
