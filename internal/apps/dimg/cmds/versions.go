package dimg

import (
	"fmt"
	"os"
	"path/filepath"

	dimgconfig "github.com/0xa1bed0/dimg/internal/apps/dimg/config"
	"github.com/0xa1bed0/dimg/internal/logs"
	"github.com/0xa1bed0/dimg/internal/ui"
	"github.com/0xa1bed0/dimg/internal/versionstore"
	"github.com/spf13/cobra"
)

func newVersionsCmd() *cobra.Command {
	var versionsFile string

	cmd := &cobra.Command{
		Use:   "versions",
		Short: "List the last version of every image.",
		Long:  "List the images in the version store and the version each was last built with.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			logs.Debugf("running versions...")

			if versionsFile == "" {
				cwd, err := os.Getwd()
				if err != nil {
					return err
				}
				versionsFile = filepath.Join(cwd, dimgconfig.DefaultVersionsFile)
			}

			store := versionstore.Open(versionsFile)
			records := store.Versions()
			out := cmd.OutOrStdout()
			if len(records) == 0 {
				fmt.Fprintf(out, "No versions recorded in %s\n", store.Path())
				return nil
			}

			table := ui.NewTable(ui.Column{Header: "Image"}, ui.Column{Header: "Version"})
			table.Styled = ui.IsTerminal(out)
			for _, rec := range records {
				table.AddRow(rec.ImageName, rec.Version)
			}

			fmt.Fprintln(out, "")
			table.Render(out)
			fmt.Fprintln(out, "")
			fmt.Fprintln(out, "Use 'dimg -n [name]' to build the next version")

			return nil
		},
	}

	cmd.Flags().StringVar(&versionsFile, "versions-file", "", "Version store (default: "+dimgconfig.DefaultVersionsFile+" in the working directory)")

	return cmd
}
