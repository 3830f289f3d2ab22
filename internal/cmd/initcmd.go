package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mhutchins/flowspace/internal/space"
	"github.com/mhutchins/flowspace/internal/style"
)

var initName string

var initCmd = &cobra.Command{
	Use:     "init",
	GroupID: GroupSpace,
	Short:   "Initialize a flowspace project in the current directory",
	Long: `Create the project marker (.flowspace/project.toml) in the current
directory. Initializing an existing project is a no-op.`,
	Args: cobra.NoArgs,
	RunE: runInit,
}

func init() {
	initCmd.Flags().StringVar(&initName, "name", "", "Project name (defaults to the directory name)")
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getting current directory: %w", err)
	}
	s, err := space.Init(cwd, initName)
	if err != nil {
		return err
	}
	fmt.Printf("%s Initialized project %s\n", style.SuccessPrefix, style.Bold.Render(s.Name()))
	return nil
}
