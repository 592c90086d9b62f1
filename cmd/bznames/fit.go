package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/CTAG07/bznames/pkg/corpus"
	"github.com/CTAG07/bznames/pkg/ngram"
	"github.com/spf13/cobra"
)

// corpusLoader returns a loader for the given corpus file, or the cached
// IBGE ranking when file is empty.
func (a *App) corpusLoader(file string) corpus.Loader {
	if file != "" {
		return corpus.FileLoader{Path: file}
	}
	cfg := a.Config.Corpus
	return &corpus.CachedLoader{
		Path: cfg.CachePath,
		Source: &corpus.IBGEClient{
			BaseURL:    cfg.IBGEBaseURL,
			Limit:      cfg.IBGELimit,
			HTTPClient: &http.Client{Timeout: time.Duration(cfg.TimeoutSec) * time.Second},
			Logger:     a.Logger,
		},
		Logger: a.Logger,
	}
}

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Download the IBGE name ranking into the corpus cache",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		records, err := app.corpusLoader("").Load(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%d names available in %s\n", len(records), app.Config.Corpus.CachePath)
		return nil
	},
}

var fitCmd = &cobra.Command{
	Use:   "fit",
	Short: "Fit a model on the name corpus and save it",
	Long: `Fits a character n-gram model on the cached IBGE ranking (fetching it first if needed),
or on a local JSON corpus given with --corpus, and saves it to the database under --name.
An existing model with the same name is replaced.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		name, _ := cmd.Flags().GetString("name")
		order, _ := cmd.Flags().GetInt("order")
		alpha, _ := cmd.Flags().GetFloat64("alpha")
		file, _ := cmd.Flags().GetString("corpus")
		clean, _ := cmd.Flags().GetBool("clean")
		if name == "" {
			name = app.Config.Model.Name
		}
		if order == 0 {
			order = app.Config.Model.Order
		}
		if alpha == 0 {
			alpha = app.Config.Model.Alpha
		}

		records, err := app.corpusLoader(file).Load(cmd.Context())
		if err != nil {
			return err
		}
		if clean {
			records = corpus.Clean(records)
		}

		m, err := ngram.New(order,
			ngram.WithAlpha(alpha),
			ngram.WithMaxSampleLength(app.Config.Model.MaxSampleLength),
			ngram.WithLogger(app.Logger),
		)
		if err != nil {
			return err
		}
		start := time.Now()
		if err := m.Fit(records); err != nil {
			return err
		}
		app.Logger.Debug("Fit finished", slog.Duration("elapsed", time.Since(start)))

		info, err := app.Store.SaveModel(cmd.Context(), name, m)
		if err != nil {
			return err
		}
		stats, _ := m.Stats()
		fmt.Fprintf(cmd.OutOrStdout(), "model %q (id %d): order %d, %d contexts, %d transitions, %d symbols\n",
			info.Name, info.Id, stats.Order, stats.Contexts, stats.Transitions, stats.AlphabetSize)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(fetchCmd)
	rootCmd.AddCommand(fitCmd)
	fitCmd.Flags().StringP("name", "n", "", "Name to save the model under (default from config)")
	fitCmd.Flags().IntP("order", "o", 0, "Model order n, at least 2 (default from config)")
	fitCmd.Flags().Float64P("alpha", "a", 0, "Smoothing pseudocount, positive (default from config)")
	fitCmd.Flags().String("corpus", "", "Fit on a local JSON corpus file instead of the IBGE ranking")
	fitCmd.Flags().Bool("clean", false, "Lowercase names and strip punctuation from a --corpus file")
}
