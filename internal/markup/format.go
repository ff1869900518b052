// Package markup converts the small markdown subset used in assistant replies
// (**bold**, *italic* and line breaks) into typed spans, and renders those
// spans for HTML, terminals and plain text.
package markup

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	boldDelim   = "**"
	italicDelim = "*"
)

// match is a delimited run found in a line. start and end are byte offsets of
// the delimiters; text is the trimmed inner content.
type match struct {
	start, end int
	kind       Kind
	text       string
}

// Format splits text on '\n' and converts each line into spans. It never fails:
// anything that does not form a complete delimiter pair is kept as plain text.
func Format(text string) Document {
	lines := strings.Split(text, "\n")
	doc := Document{Lines: make([]Line, len(lines))}
	for i, line := range lines {
		doc.Lines[i] = Line{
			Spans: formatLine(line),
			Last:  i == len(lines)-1,
		}
	}
	return doc
}

func formatLine(line string) []Span {
	bolds := scan(line, boldDelim, Bold, nil)
	italics := scan(line, italicDelim, Italic, bolds)
	if len(bolds)+len(italics) == 0 {
		return []Span{{Kind: Plain, Text: line}}
	}

	matches := make([]match, 0, len(bolds)+len(italics))
	matches = append(matches, bolds...)
	matches = append(matches, italics...)
	sort.SliceStable(matches, func(i, j int) bool { return matches[i].start < matches[j].start })

	spans := make([]Span, 0, 2*len(matches)+1)
	last := 0
	for _, m := range matches {
		if m.start > last {
			spans = append(spans, Span{Kind: Plain, Text: line[last:m.start]})
		}
		spans = append(spans, Span{Kind: m.kind, Text: m.text})
		last = m.end
	}
	if last < len(line) {
		spans = append(spans, Span{Kind: Plain, Text: line[last:]})
	}
	return spans
}

// scan finds the leftmost, shortest, non-overlapping delim-X-delim runs in line.
// Candidates starting inside one of the shadow ranges are skipped without
// consuming input, so a later candidate may still begin right after them.
func scan(line, delim string, kind Kind, shadow []match) []match {
	var out []match
	s := 0
	for i := 0; i < len(line); {
		for s < len(shadow) && shadow[s].end <= i {
			s++
		}
		if s < len(shadow) && shadow[s].start <= i {
			i = shadow[s].end
			continue
		}
		if strings.HasPrefix(line[i:], delim) {
			if end, ok := closing(line, i+len(delim), delim); ok {
				inner := line[i+len(delim) : end-len(delim)]
				out = append(out, match{
					start: i,
					end:   end,
					kind:  kind,
					text:  strings.TrimFunc(inner, isTrimSpace),
				})
				i = end
				continue
			}
		}
		i++
	}
	return out
}

// closing returns the offset just past the first delim that follows at least
// one character of content starting at from. Content may not cross a line
// terminator.
func closing(line string, from int, delim string) (int, bool) {
	for k := from; k < len(line); {
		if k > from && strings.HasPrefix(line[k:], delim) {
			return k + len(delim), true
		}
		r, size := utf8.DecodeRuneInString(line[k:])
		if isLineTerminator(r) {
			return 0, false
		}
		k += size
	}
	return 0, false
}

// isTrimSpace matches the whitespace set stripped from styled inner text:
// Unicode spaces and the byte order mark, but not NEL.
func isTrimSpace(r rune) bool {
	if r == '\uFEFF' {
		return true
	}
	return r != '\u0085' && unicode.IsSpace(r)
}

func isLineTerminator(r rune) bool {
	switch r {
	case '\n', '\r', '\u2028', '\u2029':
		return true
	}
	return false
}
