package main

import (
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/matsen/bibup/internal/bibtex"
	"github.com/matsen/bibup/internal/cache"
	"github.com/matsen/bibup/internal/config"
	"github.com/matsen/bibup/internal/doi"
)

var lookupCachePath string

var lookupCmd = &cobra.Command{
	Use:   "lookup <doi>",
	Short: "Fetch the canonical BibTeX record for a DOI",
	Long: `Fetch the canonical BibTeX record for a DOI.

Queries doi2bib.org first and falls back to the CrossRef transform
endpoint when the primary service does not know the DOI.

Examples:
  bibup lookup 10.1038/nature12373
  bibup lookup 10.1038/nature12373 --human`,
	Args: cobra.ExactArgs(1),
	RunE: runLookup,
}

func init() {
	rootCmd.AddCommand(lookupCmd)
	lookupCmd.Flags().StringVar(&lookupCachePath, "cache", "", "SQLite citation cache path (default from config)")
}

// LookupResult is the JSON output for the lookup command.
type LookupResult struct {
	DOI    string `json:"doi"`
	BibTeX string `json:"bibtex"`
	Cached bool   `json:"cached"`
}

func runLookup(cmd *cobra.Command, args []string) error {
	id := args[0]
	_ = godotenv.Load()

	cachePath := lookupCachePath
	if cachePath == "" {
		cachePath = config.GetCachePath()
	}

	var db *cache.DB
	if cachePath != "" {
		var err error
		db, err = cache.Open(config.ExpandTilde(cachePath))
		if err != nil {
			exitWithError(ExitConfigError, "opening cache: %v", err)
		}
		defer db.Close()

		if text, ok, err := db.Get(id); err == nil && ok {
			return printLookup(id, text, true)
		}
	}

	text, err := newLookupClient().FetchBibTeX(cmd.Context(), id)
	if err != nil {
		if doi.IsNotFound(err) {
			exitWithError(ExitLookupError, "no citation found for %s", id)
		}
		exitWithError(ExitLookupError, "fetching %s: %v", id, err)
	}
	text = bibtex.CleanProtectedCase(text)

	if db != nil {
		if err := db.Put(id, text); err != nil {
			exitWithError(ExitConfigError, "caching %s: %v", id, err)
		}
	}

	return printLookup(id, text, false)
}

func printLookup(id, text string, cached bool) error {
	if humanOutput {
		outputHuman("%s", text)
		return nil
	}
	return outputJSON(LookupResult{DOI: id, BibTeX: text, Cached: cached})
}
