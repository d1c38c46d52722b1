package main

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/matsen/bibup/internal/cache"
	"github.com/matsen/bibup/internal/config"
	"github.com/matsen/bibup/internal/enrich"
)

var enrichCachePath string

var enrichCmd = &cobra.Command{
	Use:   "enrich <input.bib> <output.bib>",
	Short: "Resolve every entry of a BibTeX file to a canonical citation",
	Long: `Resolve every entry of a BibTeX file to a canonical citation.

For each entry, in trust order:
  - a plain web link (no DOI, not arXiv) becomes a local @misc record
  - an arXiv abstract link is resolved to its journal DOI, then fetched
  - entries without a DOI are searched on CrossRef by title and author,
    accepting only an exact title match
  - an explicit doi field is fetched directly
  - anything unresolvable keeps its original formatting

A DOI is only ever emitted once per run; a second entry resolving to the
same DOI is reported as a skipped duplicate. The output file is written
only after every entry has been resolved.

Examples:
  bibup enrich refs.bib refs-enriched.bib
  bibup enrich refs.bib refs-enriched.bib --cache ~/.cache/bibup/citations.db
  bibup enrich refs.bib refs-enriched.bib --human`,
	Args: cobra.ExactArgs(2),
	RunE: runEnrich,
}

func init() {
	rootCmd.AddCommand(enrichCmd)
	enrichCmd.Flags().StringVar(&enrichCachePath, "cache", "", "SQLite citation cache path (default from config)")
}

// EnrichResult is the JSON output for the enrich command.
type EnrichResult struct {
	Status string       `json:"status"`
	Input  string       `json:"input"`
	Output string       `json:"output"`
	Stats  enrich.Stats `json:"stats"`
}

func runEnrich(cmd *cobra.Command, args []string) error {
	inputPath, outputPath := args[0], args[1]
	_ = godotenv.Load()

	data, err := os.ReadFile(inputPath)
	if err != nil {
		exitWithError(ExitDataError, "reading %s: %v", inputPath, err)
	}
	// Invalid bytes are dropped, not fatal.
	raw := strings.ToValidUTF8(string(data), "")

	opts := []enrich.Option{}
	cachePath := enrichCachePath
	if cachePath == "" {
		cachePath = config.GetCachePath()
	}
	if cachePath != "" {
		db, err := cache.Open(config.ExpandTilde(cachePath))
		if err != nil {
			exitWithError(ExitConfigError, "opening cache: %v", err)
		}
		defer db.Close()
		opts = append(opts, enrich.WithCache(db))
	}

	pipeline := enrich.New(newLookupClient(), opts...)
	out, err := pipeline.EnrichText(cmd.Context(), raw)
	if err != nil {
		exitWithError(ExitLookupError, "%v", err)
	}

	if err := os.WriteFile(outputPath, []byte(out), 0644); err != nil {
		exitWithError(ExitError, "writing %s: %v", outputPath, err)
	}

	if humanOutput {
		outputHuman("Finished writing enriched .bib -> %s\n", outputPath)
		outputHuman("  records: %d  fetched: %d  synthesized: %d  duplicates skipped: %d  fallbacks: %d\n",
			pipeline.Stats.Records, pipeline.Stats.Fetched, pipeline.Stats.Synthesized,
			pipeline.Stats.DuplicateSkips, pipeline.Stats.Fallbacks)
		return nil
	}

	return outputJSON(EnrichResult{
		Status: "ok",
		Input:  inputPath,
		Output: outputPath,
		Stats:  pipeline.Stats,
	})
}
