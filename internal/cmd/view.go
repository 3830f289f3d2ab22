package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mhutchins/flowspace/internal/style"
	"github.com/mhutchins/flowspace/internal/view"
)

var viewCmd = &cobra.Command{
	Use:     "view [DEST]",
	GroupID: GroupSpace,
	Short:   "Build a human-navigable directory view of the workspace",
	Long: `Build a nested key/value directory tree over the parameters that
actually vary between jobs, with a "job" symlink to each workspace
directory at the leaves. An existing view at DEST is replaced.

Defaults to ./view in the current directory.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runView,
}

func init() {
	rootCmd.AddCommand(viewCmd)
}

func runView(cmd *cobra.Command, args []string) error {
	s, err := openSpace()
	if err != nil {
		return err
	}
	dest := "view"
	if len(args) == 1 {
		dest = args[0]
	}
	if err := view.Generate(s, dest); err != nil {
		return err
	}
	fmt.Printf("%s View written to %s\n", style.SuccessPrefix, dest)
	return nil
}
