// Package bibtex provides the minimal BibTeX handling the enricher needs:
// locating record spans in raw text, parsing a span into keyed fields,
// re-rendering fields back to source form, and splicing replacement text
// into the original buffer.
package bibtex

import (
	"regexp"
	"sort"
)

// entryMarker matches the opening of a BibTeX entry at the start of a line:
// @type{key,
var entryMarker = regexp.MustCompile(`(?m)^@(\w+)\{([^,\n]+),`)

// Record is one entry's span in the source text. The span runs from the
// entry marker up to the next marker or end of text; delimiters are not
// balanced, so a record may absorb stray braces from unbalanced input.
type Record struct {
	Start int    // byte offset of the entry marker
	End   int    // byte offset of the next marker, or len(text)
	Type  string // entry type tag (article, misc, ...)
	Key   string // citation key
}

// Span returns the raw text of the record.
func (r Record) Span(text string) string {
	return text[r.Start:r.End]
}

// ScanRecords locates every entry span in text. Text outside all spans
// (comments, blank lines before the first entry) belongs to no record.
func ScanRecords(text string) []Record {
	matches := entryMarker.FindAllStringSubmatchIndex(text, -1)
	records := make([]Record, 0, len(matches))

	for i, m := range matches {
		end := len(text)
		if i+1 < len(matches) {
			end = matches[i+1][0]
		}
		records = append(records, Record{
			Start: m[0],
			End:   end,
			Type:  text[m[2]:m[3]],
			Key:   text[m[4]:m[5]],
		})
	}

	return records
}

// Replacement substitutes text for the byte range [Start, End) of the
// original buffer.
type Replacement struct {
	Start int
	End   int
	Text  string
}

// Splice applies replacements to text. Replacements are applied in
// descending start order so that splicing one never shifts the offsets of
// a replacement that has not been applied yet.
func Splice(text string, reps []Replacement) string {
	sorted := make([]Replacement, len(reps))
	copy(sorted, reps)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Start > sorted[j].Start
	})

	out := text
	for _, r := range sorted {
		out = out[:r.Start] + r.Text + out[r.End:]
	}
	return out
}
