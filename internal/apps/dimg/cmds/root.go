package dimg

import (
	"github.com/0xa1bed0/dimg/internal/logs"
	"github.com/0xa1bed0/dimg/internal/runtime"
	"github.com/spf13/cobra"
)

var verbosity int

func Execute(rt *runtime.Runtime) error {
	rootCmd := newRootCmd()
	return rootCmd.ExecuteContext(rt.Ctx())
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "dimg",
		Short: "Versioned docker image builds",
		Long: `dimg builds a docker image from a folder, tags it with an automatically
incremented version and optionally exports, uploads and removes it.

By default, 'dimg' is equivalent to 'dimg build'.`,
		Args: cobra.NoArgs,
		// Default behavior is the same as 'build'
		RunE: buildCmdRunE,

		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logs.SetDebugVerbosity(verbosity)
			if rt := runtime.FromContext(cmd.Context()); rt != nil {
				rt.OpenRunLog()
			}
			return nil
		},
		// we will handle that
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	rootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v", "increase verbosity level")

	// Root should accept the same flags as `build`
	attachBuildCmdFlags(rootCmd)

	rootCmd.AddCommand(newBuildCmd())
	rootCmd.AddCommand(newHistoryCmd())
	rootCmd.AddCommand(newVersionsCmd())

	return rootCmd
}
