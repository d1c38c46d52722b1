package main

import (
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/matsen/bibup/internal/bibtex"
	"github.com/matsen/bibup/internal/pdf"
)

var pdfFetch bool

var pdfCmd = &cobra.Command{
	Use:   "pdf <file.pdf>",
	Short: "Extract a DOI from a PDF file",
	Long: `Extract a DOI from a PDF file.

Scans the first pages of the PDF for a DOI. With --fetch, also retrieves
the canonical BibTeX record for the extracted DOI.

Examples:
  bibup pdf paper.pdf
  bibup pdf paper.pdf --fetch --human`,
	Args: cobra.ExactArgs(1),
	RunE: runPDF,
}

func init() {
	rootCmd.AddCommand(pdfCmd)
	pdfCmd.Flags().BoolVar(&pdfFetch, "fetch", false, "Also fetch the BibTeX record for the extracted DOI")
}

// PDFResult is the JSON output for the pdf command.
type PDFResult struct {
	File   string `json:"file"`
	DOI    string `json:"doi"`
	BibTeX string `json:"bibtex,omitempty"`
}

func runPDF(cmd *cobra.Command, args []string) error {
	path := args[0]
	_ = godotenv.Load()

	id, err := pdf.ExtractDOI(path)
	if err != nil {
		exitWithError(ExitDataError, "reading %s: %v", path, err)
	}
	if id == "" {
		exitWithError(ExitDataError, "no DOI found in %s", path)
	}

	result := PDFResult{File: path, DOI: id}
	if pdfFetch {
		text, err := newLookupClient().FetchBibTeX(cmd.Context(), id)
		if err != nil {
			exitWithError(ExitLookupError, "fetching %s: %v", id, err)
		}
		result.BibTeX = bibtex.CleanProtectedCase(text)
	}

	if humanOutput {
		outputHuman("%s: %s\n", path, id)
		if result.BibTeX != "" {
			outputHuman("%s", result.BibTeX)
		}
		return nil
	}
	return outputJSON(result)
}
