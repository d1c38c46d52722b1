package bibtex

import (
	"fmt"
	"strings"
	"unicode"
)

// Entry is a parsed BibTeX record: type tag, citation key, and field values
// keyed by lowercased field name. Names preserves the source field order for
// faithful re-rendering.
type Entry struct {
	Type   string
	Key    string
	Fields map[string]string
	Names  []string
}

// Get returns the named field's value, or "" if absent.
func (e *Entry) Get(name string) string {
	return e.Fields[name]
}

// ParseEntry parses one record span into an Entry. It handles brace- and
// quote-delimited values plus bare tokens (numbers, macro names). A span the
// parser cannot make sense of is reported as an error; the caller treats
// such spans as raw blocks.
func ParseEntry(span string) (*Entry, error) {
	s := strings.TrimSpace(span)
	if !strings.HasPrefix(s, "@") {
		return nil, fmt.Errorf("no entry marker")
	}

	open := strings.IndexByte(s, '{')
	if open < 0 {
		return nil, fmt.Errorf("missing opening brace")
	}
	typ := strings.TrimSpace(s[1:open])
	if typ == "" {
		return nil, fmt.Errorf("missing entry type")
	}

	comma := strings.IndexByte(s[open:], ',')
	if comma < 0 {
		return nil, fmt.Errorf("missing citation key")
	}
	key := strings.TrimSpace(s[open+1 : open+comma])
	if key == "" {
		return nil, fmt.Errorf("empty citation key")
	}

	e := &Entry{
		Type:   typ,
		Key:    key,
		Fields: make(map[string]string),
	}

	rest := s[open+comma+1:]
	i := 0
	for {
		i = skipSeparators(rest, i)
		if i >= len(rest) {
			return nil, fmt.Errorf("unterminated entry")
		}
		if rest[i] == '}' {
			break
		}

		name, next, err := readFieldName(rest, i)
		if err != nil {
			return nil, err
		}
		i = skipSpace(rest, next)
		if i >= len(rest) || rest[i] != '=' {
			return nil, fmt.Errorf("field %q: missing '='", name)
		}
		i = skipSpace(rest, i+1)

		value, next, err := readFieldValue(rest, i)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", name, err)
		}
		i = next

		name = strings.ToLower(name)
		if _, dup := e.Fields[name]; !dup {
			e.Names = append(e.Names, name)
		}
		e.Fields[name] = value
	}

	return e, nil
}

// Format re-renders the entry in source form, fields in original order.
func (e *Entry) Format() string {
	var b strings.Builder
	fmt.Fprintf(&b, "@%s{%s,\n", e.Type, e.Key)
	for _, name := range e.Names {
		fmt.Fprintf(&b, "  %s = {%s},\n", name, e.Fields[name])
	}
	b.WriteString("}\n")
	return b.String()
}

func skipSpace(s string, i int) int {
	for i < len(s) && unicode.IsSpace(rune(s[i])) {
		i++
	}
	return i
}

func skipSeparators(s string, i int) int {
	for i < len(s) && (unicode.IsSpace(rune(s[i])) || s[i] == ',') {
		i++
	}
	return i
}

func readFieldName(s string, i int) (string, int, error) {
	start := i
	for i < len(s) && (isWordByte(s[i]) || s[i] == '-') {
		i++
	}
	if i == start {
		return "", i, fmt.Errorf("expected field name at offset %d", i)
	}
	return s[start:i], i, nil
}

func isWordByte(c byte) bool {
	return c == '_' || ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z') || ('0' <= c && c <= '9')
}

// readFieldValue reads a brace-delimited, quote-delimited, or bare value
// starting at i. Braces nest; quotes do not.
func readFieldValue(s string, i int) (string, int, error) {
	if i >= len(s) {
		return "", i, fmt.Errorf("missing value")
	}

	switch s[i] {
	case '{':
		depth := 0
		for j := i; j < len(s); j++ {
			switch s[j] {
			case '{':
				depth++
			case '}':
				depth--
				if depth == 0 {
					return s[i+1 : j], j + 1, nil
				}
			}
		}
		return "", i, fmt.Errorf("unbalanced braces")
	case '"':
		for j := i + 1; j < len(s); j++ {
			if s[j] == '"' {
				return s[i+1 : j], j + 1, nil
			}
		}
		return "", i, fmt.Errorf("unterminated quoted value")
	default:
		start := i
		for i < len(s) && s[i] != ',' && s[i] != '}' && !unicode.IsSpace(rune(s[i])) {
			i++
		}
		if i == start {
			return "", i, fmt.Errorf("empty value")
		}
		return s[start:i], i, nil
	}
}
