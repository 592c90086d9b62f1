package main

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/CTAG07/bznames/pkg/ngram"
	"github.com/spf13/cobra"
)

// loadModel fetches the named model from the store and restores it.
func (a *App) loadModel(ctx context.Context, name string, opts ...ngram.Option) (*ngram.Model, error) {
	if name == "" {
		name = a.Config.Model.Name
	}
	info, err := a.Store.GetModelInfo(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("model %q: %w", name, err)
	}
	opts = append([]ngram.Option{
		ngram.WithMaxSampleLength(a.Config.Model.MaxSampleLength),
		ngram.WithLogger(a.Logger),
	}, opts...)
	return a.Store.LoadModel(ctx, info, opts...)
}

var scoreCmd = &cobra.Command{
	Use:   "score NAME...",
	Short: "Print the negative log-likelihood of names under a model",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		modelName, _ := cmd.Flags().GetString("model")
		m, err := app.loadModel(cmd.Context(), modelName)
		if err != nil {
			return err
		}

		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "NAME\tNLL\tPERPLEXITY")
		for _, name := range args {
			nll, err := m.ComputeNLL(name)
			if err != nil {
				return err
			}
			ppl, err := m.Perplexity(name)
			if err != nil {
				return err
			}
			fmt.Fprintf(tw, "%s\t%.4f\t%.4f\n", name, nll, ppl)
		}
		return tw.Flush()
	},
}

func init() {
	rootCmd.AddCommand(scoreCmd)
	scoreCmd.Flags().StringP("model", "m", "", "Model to use (default from config)")
}
