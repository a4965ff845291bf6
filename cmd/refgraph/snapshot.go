package main

import (
	"encoding/json"
	"fmt"
	"slices"

	"github.com/aretw0/refgraph/internal/presentation/graph"
	"github.com/aretw0/refgraph/internal/presentation/tui"
	"github.com/aretw0/refgraph/pkg/domain"
	"github.com/spf13/cobra"
)

func newSnapshotCmd(a *app) *cobra.Command {
	snapshotCmd := &cobra.Command{
		Use:     "snapshot",
		Aliases: []string{"snap"},
		Short:   "Manage persisted document snapshots",
	}
	addStoreFlags(snapshotCmd)

	lsCmd := &cobra.Command{
		Use:   "ls",
		Short: "List snapshot IDs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, closeStore, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer closeStore()

			ids, err := store.List(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to list snapshots: %w", err)
			}
			for _, id := range ids {
				fmt.Fprintln(cmd.OutOrStdout(), id)
			}
			return nil
		},
	}

	inspectCmd := &cobra.Command{
		Use:   "inspect <id>",
		Short: "Show the content of a snapshot",
		Long:  `Prints a summary of the objects in a snapshot, the raw JSON or a Mermaid flowchart of the references.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, _ := cmd.Flags().GetString("format")
			selected, _ := cmd.Flags().GetStringSlice("select")

			store, closeStore, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer closeStore()

			snap, err := store.Load(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			switch format {
			case "summary":
				styles := tui.NewStyles(out)
				fmt.Fprintln(out, styles.Heading("Snapshot "+snap.ID))
				fmt.Fprintf(out, "Created: %s\n", snap.CreatedAt.Format("2006-01-02 15:04:05"))
				fmt.Fprintf(out, "Root:    %s\n", snap.Root)
				for _, k := range sortedKeys(snap.Metadata) {
					fmt.Fprintf(out, "%s: %s\n", k, snap.Metadata[k])
				}

				counts := make(map[string]int)
				for _, rec := range snap.Objects {
					counts[rec.Class]++
				}
				fmt.Fprintf(out, "Objects: %d\n", len(snap.Objects))
				for _, class := range sortedKeys(counts) {
					fmt.Fprintf(out, "  %-20s %d\n", class, counts[class])
				}
			case "json":
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(snap)
			case "mermaid":
				fmt.Fprint(out, graph.GenerateMermaid(snap, &graph.GraphOverlay{Selected: selected}))
			default:
				return fmt.Errorf("unknown format %q", format)
			}
			return nil
		},
	}
	inspectCmd.Flags().StringP("format", "f", "summary", "Output format (summary, json, mermaid)")
	inspectCmd.Flags().StringSlice("select", nil, "Object IDs to highlight in the mermaid output")

	rmCmd := &cobra.Command{
		Use:   "rm <id>...",
		Short: "Delete snapshots",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, closeStore, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer closeStore()

			for _, id := range args {
				if err := store.Delete(cmd.Context(), id); err != nil {
					return fmt.Errorf("failed to delete %s: %w", id, err)
				}
				a.logger.Info("Snapshot deleted", "id", id)
			}
			return nil
		},
	}

	diffCmd := &cobra.Command{
		Use:   "diff <old-id> <new-id>",
		Short: "Show the objects added, removed or changed between two snapshots",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, closeStore, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer closeStore()

			oldSnap, err := store.Load(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			newSnap, err := store.Load(cmd.Context(), args[1])
			if err != nil {
				return err
			}

			diff := domain.Diff(oldSnap, newSnap)
			if diff == nil {
				fmt.Fprintln(cmd.OutOrStdout(), tui.NewStyles(cmd.OutOrStdout()).Success("No changes"))
				return nil
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(diff)
		},
	}

	snapshotCmd.AddCommand(lsCmd, inspectCmd, diffCmd, rmCmd)
	return snapshotCmd
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
