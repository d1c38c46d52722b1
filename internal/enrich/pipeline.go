// Package enrich implements the per-record resolution pipeline: for each
// record in a bibliography it picks the most trustworthy strategy whose
// precondition holds (plain web link, arXiv link, metadata search, explicit
// DOI, or original re-rendering), guards against emitting the same DOI
// twice, and splices the results back into the source text.
package enrich

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/matsen/bibup/internal/bibtex"
	"github.com/matsen/bibup/internal/doi"
)

// Citations is the optional on-disk citation cache consulted before any
// DOI-to-BibTeX fetch.
type Citations interface {
	Get(doi string) (string, bool, error)
	Put(doi, bibtex string) error
}

// Stats counts what a run did, for the end-of-run summary.
type Stats struct {
	Records        int `json:"records"`
	Fetched        int `json:"fetched"`
	Synthesized    int `json:"synthesized"`
	DuplicateSkips int `json:"duplicate_skips"`
	Fallbacks      int `json:"fallbacks"`
	RawBlocks      int `json:"raw_blocks"`
}

// Pipeline resolves the records of one bibliography file. Create a fresh
// Pipeline per run; the dedup guard does not persist across runs.
type Pipeline struct {
	client *doi.Client
	used   *DOISet
	cache  Citations
	logw   io.Writer
	now    func() time.Time

	Stats Stats
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithCache attaches a citation cache.
func WithCache(c Citations) Option {
	return func(p *Pipeline) {
		p.cache = c
	}
}

// WithLogWriter redirects advisory progress/warning lines (default os.Stderr).
func WithLogWriter(w io.Writer) Option {
	return func(p *Pipeline) {
		p.logw = w
	}
}

// WithClock sets the time source used for access dates (for testing).
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) {
		p.now = now
	}
}

// New creates a Pipeline around a lookup client.
func New(client *doi.Client, opts ...Option) *Pipeline {
	p := &Pipeline{
		client: client,
		used:   NewDOISet(),
		logw:   os.Stderr,
		now:    time.Now,
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// EnrichText resolves every record in raw and returns the enriched text.
// All text outside record spans is preserved byte for byte. An unrecovered
// error (an explicit-DOI fetch that fails past its retries) aborts the whole
// run; there is no partial output.
func (p *Pipeline) EnrichText(ctx context.Context, raw string) (string, error) {
	records := bibtex.ScanRecords(raw)
	replacements := make([]bibtex.Replacement, 0, len(records))

	for _, rec := range records {
		p.Stats.Records++
		span := rec.Span(raw)

		var text string
		entry, err := bibtex.ParseEntry(span)
		if err != nil {
			text = p.resolveRawBlock(ctx, span)
		} else {
			text, err = p.resolveEntry(ctx, entry)
			if err != nil {
				return "", fmt.Errorf("resolving %s: %w", rec.Key, err)
			}
		}

		replacements = append(replacements, bibtex.Replacement{
			Start: rec.Start,
			End:   rec.End,
			Text:  text,
		})
	}

	return bibtex.Splice(raw, replacements), nil
}

// resolveEntry runs the branch chain for a parsed record. The first branch
// whose precondition holds determines the replacement text.
func (p *Pipeline) resolveEntry(ctx context.Context, e *bibtex.Entry) (string, error) {
	doiVal := e.Get("doi")
	urlVal := strings.TrimSpace(e.Get("url"))

	// 1. Plain web link: nothing resolvable, synthesize an @misc locally.
	if doiVal == "" && urlVal != "" &&
		!strings.Contains(urlVal, "doi.org") && !strings.Contains(urlVal, "arxiv.org/abs") {
		p.Stats.Synthesized++
		return bibtex.CleanProtectedCase(p.synthesizeMisc(e, urlVal)), nil
	}

	// 2. arXiv link: the abstract page may carry the journal DOI.
	if doiVal == "" && strings.Contains(urlVal, "arxiv.org/abs") {
		if text, ok := p.resolveArxiv(ctx, urlVal); ok {
			return text, nil
		}
	}

	// 3. No DOI at all: metadata search with strict title matching.
	if doiVal == "" {
		if text, ok := p.resolveByMetadata(ctx, e); ok {
			return text, nil
		}
	}

	// 4. Explicit DOI. A fetch failure here propagates and aborts the run.
	if doiVal != "" {
		if p.used.Claim(doiVal) {
			text, err := p.fetchCitation(ctx, doiVal)
			if err != nil {
				return "", err
			}
			p.Stats.Fetched++
			return text, nil
		}
		p.Stats.DuplicateSkips++
		p.logf("SKIPPING duplicate DOI %s for %s", doiVal, e.Key)
	}

	// 5. Fallback: re-render the record unchanged.
	p.Stats.Fallbacks++
	return bibtex.CleanProtectedCase(e.Format()), nil
}

// resolveArxiv tries to turn an arXiv abstract URL into a fetched citation.
// Every failure (no DOI on the page, DOI already claimed, fetch error) makes
// the caller fall through to the next branch.
func (p *Pipeline) resolveArxiv(ctx context.Context, urlVal string) (string, bool) {
	id := arxivID(urlVal)

	found, err := p.client.ArxivDOI(ctx, id)
	if err != nil {
		return "", false
	}
	if !p.used.Claim(found) {
		return "", false
	}

	text, err := p.fetchCitation(ctx, found)
	if err != nil {
		return "", false
	}
	p.Stats.Fetched++
	return text, true
}

// resolveByMetadata searches CrossRef by title and author. A duplicate hit
// is logged and skipped; any failure is logged. Either way the caller falls
// through to the terminal fallback.
func (p *Pipeline) resolveByMetadata(ctx context.Context, e *bibtex.Entry) (string, bool) {
	found, err := p.client.SearchDOI(ctx, e.Get("title"), e.Get("author"))
	if err != nil {
		p.logf("metadata search failed for %s: %v", e.Key, err)
		return "", false
	}

	if !p.used.Claim(found) {
		p.Stats.DuplicateSkips++
		p.logf("SKIPPING duplicate DOI %s for %s", found, e.Key)
		return "", false
	}

	text, err := p.fetchCitation(ctx, found)
	if err != nil {
		p.logf("fetching %s for %s failed: %v", found, e.Key, err)
		return "", false
	}
	p.Stats.Fetched++
	return text, true
}

// resolveRawBlock handles spans the parser rejected: look for an explicit
// doi field or a doi.org url, fetch if one is there and unclaimed, otherwise
// pass the block through cleaned but unchanged.
func (p *Pipeline) resolveRawBlock(ctx context.Context, block string) string {
	p.Stats.RawBlocks++

	found := bibtex.ExtractDOIField(block)
	if found == "" {
		if u := bibtex.ExtractURLField(block); strings.Contains(u, "doi.org") {
			found = doi.DOIFromURL(u)
		}
	}

	if found != "" && p.used.Claim(found) {
		if text, err := p.fetchCitation(ctx, found); err == nil {
			p.Stats.Fetched++
			return text
		}
	}

	p.Stats.Fallbacks++
	return bibtex.CleanProtectedCase(block)
}

// fetchCitation returns the normalized canonical citation for a DOI,
// consulting the cache first when one is attached.
func (p *Pipeline) fetchCitation(ctx context.Context, d string) (string, error) {
	if p.cache != nil {
		if text, ok, err := p.cache.Get(d); err == nil && ok {
			return bibtex.CleanProtectedCase(text), nil
		}
	}

	text, err := p.client.FetchBibTeX(ctx, d)
	if err != nil {
		return "", err
	}
	text = bibtex.CleanProtectedCase(text)

	if p.cache != nil {
		if err := p.cache.Put(d, text); err != nil {
			p.logf("caching %s failed: %v", d, err)
		}
	}

	return text, nil
}

// synthesizeMisc builds a generic web-resource record from whatever fields
// the source entry has, with today's date as the access date.
func (p *Pipeline) synthesizeMisc(e *bibtex.Entry, urlVal string) string {
	title := strings.TrimSpace(strings.ReplaceAll(e.Get("title"), "\n", " "))
	year := e.Get("year")
	if year == "" {
		year = fmt.Sprintf("%d", p.now().Year())
	}
	today := p.now().Format("2006-01-02")

	var b strings.Builder
	fmt.Fprintf(&b, "@misc{%s,\n", e.Key)
	fmt.Fprintf(&b, "  author       = {%s},\n", e.Get("author"))
	fmt.Fprintf(&b, "  title        = {%s},\n", title)
	fmt.Fprintf(&b, "  howpublished = {\\url{%s}},\n", urlVal)
	fmt.Fprintf(&b, "  year         = {%s},\n", year)
	fmt.Fprintf(&b, "  note         = {Accessed: %s},\n", today)
	b.WriteString("}\n")
	return b.String()
}

// arxivID extracts the arXiv id from an abstract URL.
func arxivID(urlVal string) string {
	trimmed := strings.TrimRight(urlVal, "/")
	if i := strings.LastIndex(trimmed, "/"); i >= 0 {
		return trimmed[i+1:]
	}
	return trimmed
}

func (p *Pipeline) logf(format string, args ...interface{}) {
	fmt.Fprintf(p.logw, format+"\n", args...)
}
