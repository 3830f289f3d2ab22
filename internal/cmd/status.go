package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/mhutchins/flowspace/internal/engine"
	"github.com/mhutchins/flowspace/internal/style"
)

var (
	statusDetailed       bool
	statusOnlyIncomplete bool
	statusPretty         bool
	statusJSON           bool
	statusWatch          bool
	statusInterval       int
)

var statusCmd = &cobra.Command{
	Use:     "status",
	Aliases: []string{"st"},
	GroupID: GroupFlow,
	Short:   "Show the state of every operation",
	Long: `Display the scheduling state (pending, eligible, complete) of every
(job, operation) pair. Status is a pure read: nothing is executed, and
action failures never make it fail.

Use --detailed for per-job rows, --watch to refresh continuously.`,
	Args: cobra.NoArgs,
	RunE: runStatusCmd,
}

func init() {
	statusCmd.Flags().BoolVar(&statusDetailed, "detailed", false, "Show per-job operation states")
	statusCmd.Flags().BoolVar(&statusOnlyIncomplete, "only-incomplete-operations", false, "Hide operations that are complete for all jobs")
	statusCmd.Flags().BoolVar(&statusPretty, "pretty", false, "Styled table output")
	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "Output as JSON")
	statusCmd.Flags().BoolVarP(&statusWatch, "watch", "w", false, "Watch mode: refresh status continuously")
	statusCmd.Flags().IntVarP(&statusInterval, "interval", "n", 2, "Refresh interval in seconds for --watch")
	rootCmd.AddCommand(statusCmd)
}

func runStatusCmd(cmd *cobra.Command, args []string) error {
	e, err := openEngine()
	if err != nil {
		return err
	}
	if statusWatch {
		return watchStatus(e, statusInterval)
	}

	report, err := e.Status(engine.Selection{})
	if err != nil {
		return err
	}

	if statusJSON {
		return json.NewEncoder(os.Stdout).Encode(statusToJSON(report))
	}

	fmt.Print(renderStatus(report, statusDetailed, statusOnlyIncomplete, usePretty()))
	return nil
}

// usePretty enables styled output when asked for, and only on a terminal.
func usePretty() bool {
	return statusPretty && term.IsTerminal(int(os.Stdout.Fd()))
}

// renderStatus formats a status report. Shared with watch mode.
func renderStatus(report *engine.StatusReport, detailed, onlyIncomplete, pretty bool) string {
	out := fmt.Sprintf("Project: %s (%d jobs)\n\n", report.Project, report.NumJobs)

	ops := report.Ops
	if onlyIncomplete {
		filtered := ops[:0:0]
		for _, op := range ops {
			if op.Incomplete() {
				filtered = append(filtered, op)
			}
		}
		ops = filtered
	}

	if pretty {
		table := style.NewTable(
			style.Column{Name: "OPERATION", Width: 24},
			style.Column{Name: "PENDING", Width: 8, Align: style.AlignRight},
			style.Column{Name: "ELIGIBLE", Width: 8, Align: style.AlignRight, Style: style.Info},
			style.Column{Name: "COMPLETE", Width: 8, Align: style.AlignRight, Style: style.Success},
		)
		for _, op := range ops {
			table.AddRow(op.Operation,
				fmt.Sprint(op.Pending), fmt.Sprint(op.Eligible), fmt.Sprint(op.Complete))
		}
		out += table.Render()
	} else {
		for _, op := range ops {
			out += fmt.Sprintf("%-24s pending=%d eligible=%d complete=%d\n",
				op.Operation, op.Pending, op.Eligible, op.Complete)
		}
	}

	if detailed {
		out += "\n"
		for _, jd := range report.Jobs {
			out += fmt.Sprintf("%s\n", jd.JobID)
			for _, ps := range jd.Ops {
				if onlyIncomplete && ps.State == engine.Complete {
					continue
				}
				name := ps.State.String()
				if pretty {
					name = style.ForState(name).Render(name)
				}
				out += fmt.Sprintf("  %-24s %s\n", ps.Operation, name)
			}
		}
	}
	return out
}

type opStatusJSON struct {
	Operation string `json:"operation"`
	Pending   int    `json:"pending"`
	Eligible  int    `json:"eligible"`
	Complete  int    `json:"complete"`
}

type jobStatusJSON struct {
	Job    string            `json:"job"`
	States map[string]string `json:"states"`
}

type statusJSONReport struct {
	Project    string          `json:"project"`
	NumJobs    int             `json:"num_jobs"`
	Operations []opStatusJSON  `json:"operations"`
	Jobs       []jobStatusJSON `json:"jobs"`
}

func statusToJSON(report *engine.StatusReport) statusJSONReport {
	out := statusJSONReport{Project: report.Project, NumJobs: report.NumJobs}
	for _, op := range report.Ops {
		out.Operations = append(out.Operations, opStatusJSON{
			Operation: op.Operation,
			Pending:   op.Pending,
			Eligible:  op.Eligible,
			Complete:  op.Complete,
		})
	}
	for _, jd := range report.Jobs {
		states := make(map[string]string, len(jd.Ops))
		for _, ps := range jd.Ops {
			states[ps.Operation] = ps.State.String()
		}
		out.Jobs = append(out.Jobs, jobStatusJSON{Job: string(jd.JobID), States: states})
	}
	return out
}
