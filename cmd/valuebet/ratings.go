package main

import (
	"fmt"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var ratingsLimit int

func init() {
	ratingsShowCmd.Flags().IntVar(&ratingsLimit, "limit", 20, "Number of teams to show (0 for all)")
	ratingsCmd.AddCommand(ratingsRebuildCmd, ratingsShowCmd)
}

var ratingsCmd = &cobra.Command{
	Use:   "ratings",
	Short: "Maintain the Elo rating table",
}

var ratingsRebuildCmd = &cobra.Command{
	Use:   "rebuild",
	Short: "Replay every finished fixture into a fresh rating table",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := ratings.Rebuild(cmd.Context()); err != nil {
			return err
		}
		snapshot := ratings.Snapshot()
		fmt.Fprintf(cmd.OutOrStdout(), "Rebuilt ratings for %d teams (version %d)\n", len(snapshot.Ratings()), snapshot.Version())
		return nil
	},
}

var ratingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print current ratings, strongest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := ratings.Load(cmd.Context()); err != nil {
			return err
		}

		snapshot := ratings.Snapshot()
		list := snapshot.Ratings()
		sort.SliceStable(list, func(i, j int) bool {
			if list[i].Rating != list[j].Rating {
				return list[i].Rating > list[j].Rating
			}
			return list[i].TeamID < list[j].TeamID
		})
		if ratingsLimit > 0 && len(list) > ratingsLimit {
			list = list[:ratingsLimit]
		}

		out := cmd.OutOrStdout()
		if jsonOutput {
			return printJSON(out, map[string]any{"version": snapshot.Version(), "ratings": list})
		}

		fmt.Fprintf(out, "Rating table version %d\n\n", snapshot.Version())
		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "#\tTEAM\tRATING\tMATCHES\tUPDATED")
		for i, r := range list {
			fmt.Fprintf(w, "%d\t%d\t%.1f\t%d\t%s\n", i+1, r.TeamID, r.Rating, r.Matches, r.UpdatedAt.UTC().Format("2006-01-02"))
		}
		return w.Flush()
	},
}
