package docmodel

import "strings"

// SourceMap maps script fragments back to absolute line numbers in the
// owning document. Registration happens in document scan order; each
// registration of the same exact text gets its own occurrence ordinal, so two
// byte-identical fragments at different positions never alias.
type SourceMap struct {
	doc    string
	cursor int // byte offset; registrations scan forward from here

	// nextOccurrence hands out the per-distinct-text ordinal.
	nextOccurrence map[string]int
	lines          map[mapKey]int
}

type mapKey struct {
	text       string
	occurrence int
}

// NewSourceMap creates a map over one document's raw text.
func NewSourceMap(doc string) *SourceMap {
	return &SourceMap{
		doc:            doc,
		nextOccurrence: make(map[string]int),
		lines:          make(map[mapKey]int),
	}
}

// Register records one script-bearing field. text is the resolved fragment
// (delimiters stripped, concatenated pieces joined); anchor is the literal
// substring to locate in the raw document: the full delimited field value,
// or the first literal piece of a concatenated fragment. Returns the
// occurrence ordinal assigned to this registration.
//
// The internal cursor only moves forward, which is what guarantees that the
// n-th registration of identical text resolves to the n-th position in file
// order rather than all aliasing the first match.
func (m *SourceMap) Register(text, anchor string) int {
	if anchor == "" {
		anchor = text
	}
	occ := m.nextOccurrence[text]
	m.nextOccurrence[text] = occ + 1

	line := m.locate(anchor)
	m.lines[mapKey{text: text, occurrence: occ}] = line
	return occ
}

// locate finds the anchor at or after the cursor and returns the 1-based
// line of its first byte. A JSON-escaped rendering of the anchor is tried
// when the verbatim form is absent (multi-line fragments stored in escaped
// string values). Returns 0 when the anchor cannot be found at all.
func (m *SourceMap) locate(anchor string) int {
	for _, candidate := range []string{anchor, jsonEscape(anchor)} {
		if candidate == "" {
			continue
		}
		idx := strings.Index(m.doc[m.cursor:], candidate)
		if idx < 0 {
			continue
		}
		abs := m.cursor + idx
		m.cursor = abs + len(candidate)
		return 1 + strings.Count(m.doc[:abs], "\n")
	}
	return 0
}

// StartLine returns the absolute starting line of the given fragment
// occurrence (0-based ordinal in document scan order). ok is false when the
// pair was never registered or could not be located in the raw text.
func (m *SourceMap) StartLine(text string, occurrence int) (int, bool) {
	line, ok := m.lines[mapKey{text: text, occurrence: occurrence}]
	if !ok || line == 0 {
		return 0, false
	}
	return line, true
}

// jsonEscape renders the anchor the way it would appear inside a JSON string
// value, covering the escapes the lexer of the document format produces.
func jsonEscape(s string) string {
	r := strings.NewReplacer(
		`\`, `\\`,
		`"`, `\"`,
		"\n", `\n`,
		"\t", `\t`,
		"\r", `\r`,
	)
	return r.Replace(s)
}
