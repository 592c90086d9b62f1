package main

import (
	"encoding/json"
	"fmt"
	"os"
	"slices"
	"text/tabwriter"

	"github.com/CTAG07/bznames/pkg/store"
	"github.com/spf13/cobra"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List stored models",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		infos, err := app.Store.GetModelInfos(cmd.Context())
		if err != nil {
			return err
		}
		names := make([]string, 0, len(infos))
		for name := range infos {
			names = append(names, name)
		}
		slices.Sort(names)

		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tNAME\tORDER\tALPHA")
		for _, name := range names {
			info := infos[name]
			fmt.Fprintf(tw, "%d\t%s\t%d\t%g\n", info.Id, info.Name, info.Order, info.Alpha)
		}
		return tw.Flush()
	},
}

var removeCmd = &cobra.Command{
	Use:   "rm NAME",
	Short: "Remove a stored model",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		info, err := app.Store.GetModelInfo(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("model %q: %w", args[0], err)
		}
		if err := app.Store.RemoveModel(cmd.Context(), info); err != nil {
			return err
		}
		if _, err := app.Store.PruneContexts(cmd.Context()); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "removed model %q\n", info.Name)
		return nil
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print database and per-model statistics as JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		stats, err := app.Store.GetStats(cmd.Context())
		if err != nil {
			return err
		}
		encoder := json.NewEncoder(cmd.OutOrStdout())
		encoder.SetIndent("", "  ")
		return encoder.Encode(stats)
	},
}

var pruneCmd = &cobra.Command{
	Use:   "prune NAME",
	Short: "Remove rare transitions from a stored model",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		minCount, _ := cmd.Flags().GetInt64("min-count")
		info, err := app.Store.GetModelInfo(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("model %q: %w", args[0], err)
		}
		removed, err := app.Store.PruneModel(cmd.Context(), info, minCount)
		if err != nil {
			return err
		}
		if _, err := app.Store.PruneContexts(cmd.Context()); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "removed %d transitions with count <= %d from %q\n", removed, minCount, info.Name)
		return nil
	},
}

var exportCmd = &cobra.Command{
	Use:   "export NAME [FILE]",
	Short: "Export a stored model as JSON to FILE or stdout",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		info, err := app.Store.GetModelInfo(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("model %q: %w", args[0], err)
		}
		if len(args) == 1 {
			return app.Store.ExportModel(cmd.Context(), info, cmd.OutOrStdout())
		}

		f, err := os.Create(args[1])
		if err != nil {
			return err
		}
		if err := app.Store.ExportModel(cmd.Context(), info, f); err != nil {
			_ = f.Close()
			return err
		}
		return f.Close()
	},
}

var importCmd = &cobra.Command{
	Use:   "import FILE",
	Short: "Import a JSON model, merging counts into an existing model of the same name",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer func(f *os.File) {
			_ = f.Close()
		}(f)

		var info store.ModelInfo
		if info, err = app.Store.ImportModel(cmd.Context(), f); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "imported model %q (id %d, order %d)\n", info.Name, info.Id, info.Order)
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of bznames",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "bznames version %s (commit %s, built %s)\n", Version, Commit, BuildDate)
	},
}

func init() {
	rootCmd.AddCommand(modelsCmd)
	rootCmd.AddCommand(removeCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(pruneCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(versionCmd)
	pruneCmd.Flags().Int64("min-count", 1, "Remove transitions whose count is at most this value")
}
