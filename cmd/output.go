package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"

	"github.com/s0up4200/grister/apicall"
)

var (
	stdout io.Writer = os.Stdout
	stderr io.Writer = os.Stderr

	doneStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#50C878")).Bold(true)
	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B")).Bold(true)
	ruleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
)

// badCallError marks a call that completed with an error status. It maps to
// exit code 3; the details were already printed.
type badCallError struct {
	status int
}

func (e *badCallError) Error() string {
	return fmt.Sprintf("call failed: %s", apicall.StatusText(e.status))
}

// table is a minimal column-aligned text table
type table struct {
	header []string
	rows   [][]string
}

func newTable(header ...string) *table {
	return &table{header: header}
}

func (t *table) add(cells ...string) {
	t.rows = append(t.rows, cells)
}

func (t *table) render(w io.Writer) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	defer tw.Flush()

	fmt.Fprintln(tw, strings.Join(t.header, "\t"))
	rule := make([]string, len(t.header))
	for i, h := range t.header {
		rule[i] = strings.Repeat("-", len(h))
	}
	fmt.Fprintln(tw, strings.Join(rule, "\t"))
	for _, row := range t.rows {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
}

func (t *table) String() string {
	var buf bytes.Buffer
	t.render(&buf)
	return buf.String()
}

// showInspect prints the diagnostics of the last call when --inspect is set
func showInspect() {
	if !inspect || quiet {
		return
	}
	fmt.Fprintln(stdout, client.Inspect())
	fmt.Fprintln(stdout, ruleStyle.Render(strings.Repeat("─", 40)))
}

// checkCall stops a command when the call failed. Errors that are not call
// outcomes (bad arguments, unreadable files) are returned as they are.
func checkCall(out apicall.Outcome, err error) error {
	if err != nil {
		return err
	}
	showInspect()
	if out.OK || out.DryRun() {
		return nil
	}
	if !quiet {
		if verbose < 2 {
			fmt.Fprintln(stderr, errorStyle.Render("Error!"), "Status:", out.Status, out.Body.String())
		} else {
			fmt.Fprintln(stderr, rawResponse(out))
		}
	}
	return &badCallError{status: out.Status}
}

// printDone reports a completed write call
func printDone(out apicall.Outcome, err error) error {
	if err := checkCall(out, err); err != nil {
		return err
	}
	if quiet {
		return nil
	}
	switch verbose {
	case 0:
		fmt.Fprintln(stdout, doneStyle.Render("Done."))
	case 1:
		printJSON(out.Body)
	default:
		fmt.Fprintln(stdout, rawResponse(out))
	}
	return nil
}

// printDoneID reports a completed call that created something
func printDoneID(id string, out apicall.Outcome) {
	if quiet {
		return
	}
	switch verbose {
	case 0:
		fmt.Fprintln(stdout, doneStyle.Render("Done."), "Id:", id)
	case 1:
		printJSON(out.Body)
	default:
		fmt.Fprintln(stdout, rawResponse(out))
	}
}

// printOutput prints the formatted content, the decoded body or the raw
// response depending on the verbosity
func printOutput(content fmt.Stringer, out apicall.Outcome) {
	if quiet {
		return
	}
	switch verbose {
	case 0:
		fmt.Fprint(stdout, content.String())
	case 1:
		printJSON(out.Body)
	default:
		fmt.Fprintln(stdout, rawResponse(out))
	}
}

func printJSON(v any) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Fprintln(stdout, v)
		return
	}
	fmt.Fprintln(stdout, string(data))
}

// rawResponse is the response body as received, falling back to the decoded
// body when nothing was recorded
func rawResponse(out apicall.Outcome) string {
	diag := client.Diagnostics()
	if diag.Response == nil || diag.Response.Streamed || len(diag.Response.Body) == 0 {
		return out.Body.String()
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, diag.Response.Body, "", "  "); err != nil {
		return string(diag.Response.Body)
	}
	return buf.String()
}

// text is a plain string that satisfies fmt.Stringer
type text string

func (t text) String() string {
	return string(t) + "\n"
}

// cell formats a JSON value for a table cell
func cell(v any) string {
	switch v := v.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(data)
}
