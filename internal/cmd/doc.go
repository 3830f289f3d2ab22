package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mhutchins/flowspace/internal/document"
)

var docCmd = &cobra.Command{
	Use:     "doc get|set KEY [VALUE]",
	GroupID: GroupSpace,
	Short:   "Read or write a project document key",
	Long: `Read or write a dotted key in the project-level document. The project
document follows the same atomic-commit contract as job documents.

Examples:
  fsp doc get t_max_global
  fsp doc set aggregates_ready true`,
	Args: cobra.RangeArgs(2, 3),
	RunE: runDoc,
}

func init() {
	rootCmd.AddCommand(docCmd)
}

func runDoc(cmd *cobra.Command, args []string) error {
	s, err := openSpace()
	if err != nil {
		return err
	}
	verb, key := args[0], args[1]

	switch verb {
	case "get":
		doc, err := s.Doc().Read()
		if err != nil {
			return err
		}
		v, ok := doc.Get(key)
		if !ok {
			return exitStatus(1)
		}
		return printJSONValue(v)
	case "set":
		if len(args) != 3 {
			return fmt.Errorf("set requires a VALUE argument")
		}
		return s.Doc().Mutate(func(d document.Document) error {
			d.Set(key, parseValue(args[2]))
			return nil
		})
	default:
		return fmt.Errorf("unknown verb %q (want get or set)", verb)
	}
}
