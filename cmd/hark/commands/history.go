package commands

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/keshon/hark/internal/storage"

	"github.com/spf13/cobra"
)

func newHistoryCmd() *cobra.Command {
	var path string

	cmd := &cobra.Command{
		Use:   "history <scope>",
		Short: "Print recent commands and tracks of a server",
		Long: `Print the stored command and track history of one voice scope.
The scope is a server id, or "direct" for direct calls.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := storage.New(path)
			if err != nil {
				return err
			}
			defer store.Close()
			return printHistory(cmd.OutOrStdout(), store, args[0])
		},
	}

	cmd.Flags().StringVar(&path, "storage", "datastore.json", "history store file")
	return cmd
}

func printHistory(out io.Writer, store *storage.Storage, scope string) error {
	commands, err := store.CommandsHistory(scope)
	if err != nil {
		return err
	}
	tracks, err := store.TracksHistory(scope)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "TIME\tUSER\tCOMMAND\tARGUMENT")
	for _, c := range commands {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", c.Datetime.Format(time.DateTime), c.UserID, c.Command, c.Param)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "TIME\tREQUESTED BY\tPARSER\tTRACK")
	for _, t := range tracks {
		name := t.Title
		if name == "" {
			name = t.Input
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", t.Datetime.Format(time.DateTime), t.RequestedBy, t.Parser, name)
	}
	return w.Flush()
}
