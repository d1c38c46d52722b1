package doi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// FetchBibTeX fetches the canonical BibTeX record for a DOI from doi2bib.org.
// When the primary service reports the DOI unknown (404), it falls back to
// the CrossRef transform endpoint. Any other failure propagates.
func (c *Client) FetchBibTeX(ctx context.Context, doi string) (string, error) {
	text, err := c.get(ctx, c.doi2bibBase+"/"+doi, "")
	if err == nil {
		return text, nil
	}
	if !IsNotFound(err) {
		return "", err
	}

	fmt.Fprintf(c.logw, "doi2bib.org miss for %s, using CrossRef fallback\n", doi)
	fallback := fmt.Sprintf("%s/%s/transform/application/x-bibtex", c.crossrefBase, doi)
	return c.get(ctx, fallback, "application/x-bibtex")
}

// markupStripper removes LaTeX-ish markup from titles before querying.
var markupStripper = strings.NewReplacer(`\`, "", "{", "", "}", "")

// nonWord strips everything that is not a word character when comparing
// titles.
var nonWord = regexp.MustCompile(`\W+`)

// NormalizeTitle reduces a title to its exact-match comparison form: all
// non-word characters removed, lowercased.
func NormalizeTitle(s string) string {
	return strings.ToLower(nonWord.ReplaceAllString(s, ""))
}

// SearchDOI queries the CrossRef metadata search with a cleaned title and a
// (possibly empty) author string, requesting up to 5 candidates. A candidate
// is accepted only when its normalized title equals the normalized query
// title; the first such candidate wins. There is no fuzzy scoring: a
// wrong-but-plausible match is worse than no match.
func (c *Client) SearchDOI(ctx context.Context, title, author string) (string, error) {
	cleaned := strings.TrimSpace(markupStripper.Replace(title))

	q := url.Values{}
	q.Set("query.title", cleaned)
	q.Set("query.author", author)
	q.Set("rows", "5")

	body, err := c.get(ctx, c.crossrefBase+"?"+q.Encode(), "application/json")
	if err != nil {
		return "", err
	}

	var payload struct {
		Message struct {
			Items []struct {
				Title []string `json:"title"`
				DOI   string   `json:"DOI"`
			} `json:"items"`
		} `json:"message"`
	}
	if err := json.Unmarshal([]byte(body), &payload); err != nil {
		return "", fmt.Errorf("parsing CrossRef response: %w", err)
	}

	items := payload.Message.Items
	if len(items) == 0 {
		return "", fmt.Errorf("%w for %q", ErrNoCandidates, cleaned)
	}

	target := NormalizeTitle(cleaned)
	for _, item := range items {
		candidate := ""
		if len(item.Title) > 0 {
			candidate = item.Title[0]
		}
		if NormalizeTitle(candidate) == target {
			return item.DOI, nil
		}
	}

	return "", fmt.Errorf("%w for %q", ErrNoExactMatch, cleaned)
}

// doiAnchor matches an outbound doi.org link in rendered HTML.
var doiAnchor = regexp.MustCompile(`href="(https?://doi\.org/[^"]+)"`)

// ArxivDOI fetches the abstract page for an arXiv id and extracts the
// journal DOI from its doi.org link, when the paper has one.
func (c *Client) ArxivDOI(ctx context.Context, arxivID string) (string, error) {
	body, err := c.get(ctx, c.arxivBase+"/"+arxivID, "")
	if err != nil {
		return "", err
	}

	m := doiAnchor.FindStringSubmatch(body)
	if m == nil {
		return "", fmt.Errorf("%w %s", ErrNoDOIOnPage, arxivID)
	}

	return DOIFromURL(m[1]), nil
}

// DOIFromURL extracts the identifier suffix from a doi.org resolver URL.
// Returns "" when the URL does not point at doi.org.
func DOIFromURL(link string) string {
	idx := strings.Index(link, "doi.org/")
	if idx < 0 {
		return ""
	}
	return link[idx+len("doi.org/"):]
}
