package dimg

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/0xa1bed0/dimg/internal/logs"
	"github.com/0xa1bed0/dimg/internal/runtime"
	"github.com/0xa1bed0/dimg/internal/state"
	"github.com/0xa1bed0/dimg/internal/ui"
	"github.com/spf13/cobra"
)

func newHistoryCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history [REFERENCE]",
		Short: "List recorded builds.",
		Long:  "List recorded builds, newest first. If REFERENCE is given (e.g. 'registry.example.com/team/api'), only that image is listed.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logs.Debugf("running history...")

			rt := runtime.FromContextOrPanic(cmd.Context())

			reference := ""
			if len(args) == 1 {
				reference = args[0]
			}

			db, err := state.OpenDefault(rt.Ctx())
			if err != nil {
				return err
			}
			defer db.Close()

			history, err := state.NewHistory(rt.Ctx(), db)
			if err != nil {
				return err
			}

			records, err := history.List(rt.Ctx(), reference, limit)
			if err != nil {
				return err
			}

			if len(records) == 0 {
				fmt.Println("No builds recorded")
				return nil
			}

			table := ui.NewTable(
				ui.Column{Header: "#", AlignRight: true},
				ui.Column{Header: "Image", MaxWidth: 48},
				ui.Column{Header: "Version"},
				ui.Column{Header: "Result"},
				ui.Column{Header: "Embed"},
				ui.Column{Header: "Started"},
				ui.Column{Header: "Took", AlignRight: true},
			)
			table.Styled = ui.IsTerminal(os.Stdout)

			for _, rec := range records {
				embed := ""
				if rec.Embedded {
					embed = "yes"
				}
				table.AddRow(
					strconv.FormatInt(rec.ID, 10),
					rec.Reference,
					rec.Version,
					string(rec.Outcome),
					embed,
					rec.StartedAt.Local().Format(time.DateTime),
					rec.FinishedAt.Sub(rec.StartedAt).Round(time.Second).String(),
				)
			}

			fmt.Println("")
			table.Render(os.Stdout)
			fmt.Println("")

			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of builds to list (0 lists all)")

	return cmd
}
