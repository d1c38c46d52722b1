// Package main provides the bibup CLI entry point.
package main

import (
	"os"

	"github.com/spf13/cobra"
)

// Version is set at build time via ldflags
var Version = "dev"

// humanOutput controls whether to use human-readable output
var humanOutput bool

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(ExitError)
	}
}

var rootCmd = &cobra.Command{
	Use:   "bibup",
	Short: "Bibliography enrichment tool",
	Long: `bibup resolves the entries of a BibTeX file to canonical, richly-populated
records using public lookup services (doi2bib.org, CrossRef, arXiv).

Each entry is replaced in place by the canonical citation for its DOI,
resolved from whatever evidence the entry carries: an explicit doi field,
an arXiv link, or title/author metadata. Entries that cannot be resolved
are passed through unchanged, and everything between entries (comments,
whitespace) is preserved byte for byte.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&humanOutput, "human", false, "Use human-readable output instead of JSON")
	rootCmd.Version = Version
}
