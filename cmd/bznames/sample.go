package main

import (
	"fmt"

	"github.com/CTAG07/bznames/pkg/ngram"
	"github.com/spf13/cobra"
)

var sampleCmd = &cobra.Command{
	Use:   "sample",
	Short: "Generate names from a model",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		modelName, _ := cmd.Flags().GetString("model")
		count, _ := cmd.Flags().GetInt("count")
		temperature, _ := cmd.Flags().GetFloat64("temperature")
		topK, _ := cmd.Flags().GetInt("top-k")
		prefix, _ := cmd.Flags().GetString("prefix")

		var modelOpts []ngram.Option
		if cmd.Flags().Changed("seed") {
			seed, _ := cmd.Flags().GetUint64("seed")
			modelOpts = append(modelOpts, ngram.WithSeed(seed))
		}
		m, err := app.loadModel(cmd.Context(), modelName, modelOpts...)
		if err != nil {
			return err
		}

		opts := []ngram.SampleOption{
			ngram.WithTemperature(temperature),
			ngram.WithTopK(topK),
			ngram.WithPrefix(prefix),
		}
		if cmd.Flags().Changed("max-length") {
			maxLength, _ := cmd.Flags().GetInt("max-length")
			opts = append(opts, ngram.WithMaxLength(maxLength))
		}

		names, err := m.SampleN(count, opts...)
		if err != nil {
			return err
		}
		for _, name := range names {
			fmt.Fprintln(cmd.OutOrStdout(), name)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(sampleCmd)
	sampleCmd.Flags().StringP("model", "m", "", "Model to use (default from config)")
	sampleCmd.Flags().IntP("count", "c", 10, "Number of names to generate")
	sampleCmd.Flags().Float64P("temperature", "t", 1.0, "Sampling temperature; 0 or less is greedy")
	sampleCmd.Flags().IntP("top-k", "k", 0, "Only draw from the k most probable characters; 0 disables")
	sampleCmd.Flags().Int("max-length", 0, "Maximum name length (default from config)")
	sampleCmd.Flags().String("prefix", "", "Start every name with this prefix")
	sampleCmd.Flags().Uint64("seed", 0, "Seed the random source for reproducible output")
}
