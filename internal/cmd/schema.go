package cmd

import (
	"encoding/json"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mhutchins/flowspace/internal/style"
)

var schemaJSON bool

var schemaCmd = &cobra.Command{
	Use:     "schema",
	GroupID: GroupSpace,
	Short:   "Show the detected state point schema",
	Long: `Scan every job's state point and report the union of parameter keys
with their observed value domains. The schema is informational; it is
never used for scheduling decisions.`,
	Args: cobra.NoArgs,
	RunE: runSchema,
}

func init() {
	schemaCmd.Flags().BoolVar(&schemaJSON, "json", false, "Output as JSON")
	rootCmd.AddCommand(schemaCmd)
}

func runSchema(cmd *cobra.Command, args []string) error {
	s, err := openSpace()
	if err != nil {
		return err
	}
	schema, err := s.DetectSchema()
	if err != nil {
		return err
	}

	if schemaJSON {
		return json.NewEncoder(os.Stdout).Encode(schema)
	}

	table := style.NewTable(
		style.Column{Name: "KEY", Width: 24},
		style.Column{Name: "DOMAINS", Width: 32},
	)
	for _, key := range schema.Keys() {
		table.AddRow(key, strings.Join(schema[key], ", "))
	}
	cmd.Print(table.Render())
	return nil
}
