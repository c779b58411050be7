package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"vidpipe/internal/artifact"
	"vidpipe/internal/config"
)

func newStageCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "stage <file>",
		Short: "Copy a source video into the artifact store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := config.ExpandPath(strings.TrimSpace(args[0]))
			if err != nil {
				return fmt.Errorf("resolve path: %w", err)
			}
			return ctx.withStore(func(_ *config.Config, store *artifact.Store) error {
				a, err := store.StageFile(cmd.Context(), path)
				if err != nil {
					return err
				}
				if jsonOut {
					return writeJSON(cmd, a)
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Staged %s as %s\n", path, a.ID)
				fmt.Fprintf(out, "URL: %s\n", a.URL)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output the artifact record as JSON")
	return cmd
}
