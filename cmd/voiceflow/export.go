package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"voiceflow/internal/export"
)

func newExportCmd(root *rootFlags) *cobra.Command {
	var (
		title string
		limit int
	)

	cmd := &cobra.Command{
		Use:   "export [path]",
		Short: "Write the saved script and suggestion history as markdown",
		Long: `Write the saved script and suggestion history as markdown. Without a
path the file goes to the exports directory under the data directory.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := newServices(root, true)
			if err != nil {
				return err
			}
			defer svc.close()
			if svc.db == nil {
				return errors.New("no history database available")
			}

			records, err := svc.db.ListSuggestions(limit)
			if err != nil {
				return fmt.Errorf("read history: %w", err)
			}
			st := svc.store.Snapshot()
			s := &export.SessionExport{
				Title:       title,
				CreatedAt:   time.Now(),
				Provider:    string(st.Provider),
				Model:       st.Model,
				Mode:        st.Mode.String(),
				Style:       st.Style.String(),
				Script:      st.Script,
				WordCount:   st.WordCount,
				Suggestions: records,
			}

			path := ""
			if len(args) == 1 {
				path = args[0]
			}
			out, err := export.WriteSession(s, path, svc.dataDir)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported to %s\n", out)
			return nil
		},
	}

	cmd.Flags().StringVarP(&title, "title", "t", "", "Document title")
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Only the newest n suggestions (0 for all)")
	return cmd
}
