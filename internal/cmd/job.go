package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mhutchins/flowspace/internal/document"
	"github.com/mhutchins/flowspace/internal/style"
)

var (
	jobListJSON    bool
	jobRmWorkspace bool
)

var jobCmd = &cobra.Command{
	Use:     "job",
	GroupID: GroupSpace,
	Short:   "Manage jobs in the data space",
}

var jobAddCmd = &cobra.Command{
	Use:   "add PARAMS",
	Short: "Open and initialize a job for a JSON state point",
	Long: `Open the job identified by the given state point and materialize its
workspace directory. Opening the same parameters twice resolves to the
same job.

Example:
  fsp job add '{"v": 6, "theta": 0.4}'`,
	Args: cobra.ExactArgs(1),
	RunE: runJobAdd,
}

var jobListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List all jobs",
	Args:    cobra.NoArgs,
	RunE:    runJobList,
}

var jobFindCmd = &cobra.Command{
	Use:   "find FILTER",
	Short: "Find jobs whose state point matches a partial JSON mapping",
	Long: `List the identities of jobs whose state point is a superset of the
given filter.

Example:
  fsp job find '{"v": 6}'`,
	Args: cobra.ExactArgs(1),
	RunE: runJobFind,
}

var jobRmCmd = &cobra.Command{
	Use:     "rm ID",
	Aliases: []string{"remove"},
	Short:   "Remove a job and its workspace",
	Args:    cobra.ExactArgs(1),
	RunE:    runJobRm,
}

var jobDocCmd = &cobra.Command{
	Use:   "doc get|set ID KEY [VALUE]",
	Short: "Read or write a job document key",
	Long: `Read or write a dotted key in a job's document. Values are parsed as
JSON; unparseable values are stored as strings.

Examples:
  fsp job doc get 1a2b3c4d t_max
  fsp job doc set 1a2b3c4d stage.done true`,
	Args: cobra.RangeArgs(3, 4),
	RunE: runJobDoc,
}

func init() {
	jobListCmd.Flags().BoolVar(&jobListJSON, "json", false, "Output as JSON")
	jobRmCmd.Flags().BoolVar(&jobRmWorkspace, "workspace", true, "Also delete the workspace directory")
	jobCmd.AddCommand(jobAddCmd, jobListCmd, jobFindCmd, jobRmCmd, jobDocCmd)
	rootCmd.AddCommand(jobCmd)
}

func runJobAdd(cmd *cobra.Command, args []string) error {
	s, err := openSpace()
	if err != nil {
		return err
	}
	params, err := parseParams(args[0])
	if err != nil {
		return err
	}
	j, err := s.OpenJob(params)
	if err != nil {
		return err
	}
	existed := j.Initialized()
	if err := j.Init(); err != nil {
		return err
	}
	if existed {
		fmt.Printf("%s Job %s already exists\n", style.ArrowPrefix, j.ID())
	} else {
		fmt.Printf("%s Added job %s (%s)\n", style.SuccessPrefix, j.ID(), relPath(j.Dir()))
	}
	return nil
}

func runJobList(cmd *cobra.Command, args []string) error {
	s, err := openSpace()
	if err != nil {
		return err
	}
	jobs, err := s.Jobs()
	if err != nil {
		return err
	}

	if jobListJSON {
		type row struct {
			ID         string                 `json:"id"`
			StatePoint map[string]interface{} `json:"statepoint"`
		}
		rows := make([]row, 0, len(jobs))
		for _, j := range jobs {
			rows = append(rows, row{ID: string(j.ID()), StatePoint: j.StatePoint()})
		}
		return json.NewEncoder(os.Stdout).Encode(rows)
	}

	for _, j := range jobs {
		sp, err := json.Marshal(j.StatePoint())
		if err != nil {
			return err
		}
		fmt.Printf("%s  %s\n", j.ID(), style.Dim.Render(string(sp)))
	}
	fmt.Printf("%s\n", style.Dim.Render(fmt.Sprintf("%d job(s)", len(jobs))))
	return nil
}

func runJobFind(cmd *cobra.Command, args []string) error {
	s, err := openSpace()
	if err != nil {
		return err
	}
	filter, err := parseParams(args[0])
	if err != nil {
		return err
	}
	jobs, err := s.FindJobs(filter)
	if err != nil {
		return err
	}
	for _, j := range jobs {
		fmt.Println(j.ID())
	}
	return nil
}

func runJobRm(cmd *cobra.Command, args []string) error {
	s, err := openSpace()
	if err != nil {
		return err
	}
	j, err := s.JobByID(args[0])
	if err != nil {
		return err
	}
	if !jobRmWorkspace {
		fmt.Printf("%s Keeping workspace %s\n", style.ArrowPrefix, relPath(j.Dir()))
		return nil
	}
	if err := j.Remove(); err != nil {
		return err
	}
	fmt.Printf("%s Removed job %s\n", style.SuccessPrefix, j.ID())
	return nil
}

func runJobDoc(cmd *cobra.Command, args []string) error {
	s, err := openSpace()
	if err != nil {
		return err
	}
	verb := args[0]
	j, err := s.JobByID(args[1])
	if err != nil {
		return err
	}
	key := args[2]

	switch verb {
	case "get":
		doc, err := j.Document()
		if err != nil {
			return err
		}
		v, ok := doc.Get(key)
		if !ok {
			// Missing keys are scripting signal, not an error message.
			return exitStatus(1)
		}
		return printJSONValue(v)
	case "set":
		if len(args) != 4 {
			return fmt.Errorf("set requires a VALUE argument")
		}
		return j.MutateDoc(func(d document.Document) error {
			d.Set(key, parseValue(args[3]))
			return nil
		})
	default:
		return fmt.Errorf("unknown verb %q (want get or set)", verb)
	}
}

// parseValue interprets a CLI value argument as JSON, falling back to a
// plain string for bare words.
func parseValue(arg string) interface{} {
	var v interface{}
	dec := json.NewDecoder(bytes.NewReader([]byte(arg)))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		return arg
	}
	return v
}

func printJSONValue(v interface{}) error {
	out, err := json.Marshal(v)
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}
