package bibtex

import "regexp"

// Case-protection cleanup. Upstream tools sometimes emit titles like
// {{X}yz}: the whole word is brace-protected and the initial letter is
// protected again inside. The first pattern merges the doubled braces into
// {Xyz}; the second strips any remaining spurious single-letter protection.
var (
	doubleProtected = regexp.MustCompile(`(?s)(title\s*=\s*)\{\{([A-Za-z])\}(.*?)\}`)
	singleProtected = regexp.MustCompile(`\{([A-Za-z])\}`)
)

// CleanProtectedCase fixes case-protection artifacts in BibTeX text.
// It is idempotent: cleaning already-clean text is a no-op.
func CleanProtectedCase(s string) string {
	s = doubleProtected.ReplaceAllString(s, "${1}{${2}${3}}")
	return singleProtected.ReplaceAllString(s, "$1")
}

// Field extraction patterns for raw (unparseable) blocks.
var (
	doiField = regexp.MustCompile(`(?i)doi\s*=\s*\{([^}]+)\}`)
	urlField = regexp.MustCompile(`(?i)url\s*=\s*\{([^}]+)\}`)
)

// ExtractDOIField pulls a doi field value out of raw entry text without
// parsing the whole block. Returns "" when the field is absent.
func ExtractDOIField(block string) string {
	return extractWith(doiField, block)
}

// ExtractURLField pulls a url field value out of raw entry text.
func ExtractURLField(block string) string {
	return extractWith(urlField, block)
}

func extractWith(re *regexp.Regexp, block string) string {
	m := re.FindStringSubmatch(block)
	if m == nil {
		return ""
	}
	return m[1]
}
