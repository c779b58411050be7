package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"vidpipe/internal/artifact"
	"vidpipe/internal/config"
	"vidpipe/internal/fileutil"
	"vidpipe/internal/textutil"
)

const defaultPruneAge = 7 * 24 * time.Hour

func newArtifactsCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "artifacts",
		Aliases: []string{"artifact"},
		Short:   "Inspect and maintain the artifact store",
	}
	cmd.AddCommand(newArtifactsListCommand(ctx))
	cmd.AddCommand(newArtifactsShowCommand(ctx))
	cmd.AddCommand(newArtifactsExportCommand(ctx))
	cmd.AddCommand(newArtifactsPruneCommand(ctx))
	return cmd
}

func newArtifactsListCommand(ctx *commandContext) *cobra.Command {
	var kind string
	var limit int
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored artifacts, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(_ *config.Config, store *artifact.Store) error {
				items, err := store.List(cmd.Context(), artifact.ListOptions{Kind: artifact.Kind(strings.TrimSpace(kind)), Limit: limit})
				if err != nil {
					return err
				}
				if jsonOut {
					if items == nil {
						items = []artifact.Artifact{}
					}
					return writeJSON(cmd, items)
				}
				out := cmd.OutOrStdout()
				if len(items) == 0 {
					fmt.Fprintln(out, "No artifacts stored")
					return nil
				}
				rows := make([][]string, 0, len(items))
				for _, a := range items {
					rows = append(rows, []string{
						a.ID,
						string(a.Kind),
						a.FileName,
						formatBytes(a.SizeBytes),
						a.CreatedAt.Local().Format("2006-01-02 15:04:05"),
						a.ParentID,
						yesNo(a.Degraded),
					})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"ID", "Kind", "File", "Size", "Created", "Parent", "Degraded"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignLeft, alignLeft, alignLeft},
				))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&kind, "kind", "", "Only list artifacts of this kind")
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Maximum number of artifacts to list (0 for all)")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")
	return cmd
}

func newArtifactsShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Print one artifact record as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(_ *config.Config, store *artifact.Store) error {
				a, err := store.Get(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return writeJSON(cmd, a)
			})
		},
	}
}

func newArtifactsExportCommand(ctx *commandContext) *cobra.Command {
	var overwrite bool

	cmd := &cobra.Command{
		Use:   "export <id> <destination>",
		Short: "Copy an artifact out of the store",
		Long:  "Copy an artifact out of the store. When destination is a directory the stored file name is kept.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			dest, err := config.ExpandPath(strings.TrimSpace(args[1]))
			if err != nil {
				return fmt.Errorf("resolve destination: %w", err)
			}
			return ctx.withStore(func(_ *config.Config, store *artifact.Store) error {
				a, err := store.Get(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if info, err := os.Stat(dest); err == nil && info.IsDir() {
					dest = filepath.Join(dest, textutil.SanitizeFileName(a.FileName))
				}
				n, err := fileutil.ExportFile(cmd.Context(), a.Path, dest, overwrite)
				if err != nil {
					if errors.Is(err, fileutil.ErrExists) {
						return fmt.Errorf("%w (use --overwrite to replace it)", err)
					}
					return fmt.Errorf("export %s: %w", a.ID, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Exported %s to %s (%s)\n", a.ID, dest, formatBytes(n))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Replace the destination if it exists")
	return cmd
}

func newArtifactsPruneCommand(ctx *commandContext) *cobra.Command {
	var olderThan time.Duration

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete artifacts and abandoned partial files older than a cutoff",
		RunE: func(cmd *cobra.Command, args []string) error {
			if olderThan < 0 {
				return errors.New("--older-than must not be negative")
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			return ctx.withStore(func(_ *config.Config, store *artifact.Store) error {
				result, err := store.Prune(cmd.Context(), time.Now().Add(-olderThan), logger)
				if err != nil {
					if errors.Is(err, artifact.ErrStoreBusy) {
						return fmt.Errorf("%w; retry when no run is active", err)
					}
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Removed %d artifact(s) and %d stale partial entr(ies)\n", len(result.Removed), len(result.StaleRemoved))
				for _, e := range result.Errors {
					fmt.Fprintf(out, "  failed: %s: %v\n", e.Path, e.Error)
				}
				if len(result.Errors) > 0 {
					return fmt.Errorf("prune finished with %d error(s)", len(result.Errors))
				}
				return nil
			})
		},
	}
	cmd.Flags().DurationVar(&olderThan, "older-than", defaultPruneAge, "Remove entries created before now minus this duration")
	return cmd
}
