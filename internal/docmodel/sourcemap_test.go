package docmodel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSourceMapOccurrencesDoNotAlias(t *testing.T) {
	t.Parallel()
	doc := "line one\n<% ping(); %>\nline three\n<% ping(); %>\n"
	m := NewSourceMap(doc)

	first := m.Register(" ping(); ", "<% ping(); %>")
	second := m.Register(" ping(); ", "<% ping(); %>")
	assert.Equal(t, 0, first)
	assert.Equal(t, 1, second)

	line, ok := m.StartLine(" ping(); ", 0)
	require.True(t, ok)
	assert.Equal(t, 2, line)
	line, ok = m.StartLine(" ping(); ", 1)
	require.True(t, ok)
	assert.Equal(t, 4, line)
}

func TestSourceMapUnknownLookup(t *testing.T) {
	t.Parallel()
	m := NewSourceMap("nothing here")
	_, ok := m.StartLine("absent", 0)
	assert.False(t, ok)
}

func TestSourceMapUnlocatableAnchor(t *testing.T) {
	t.Parallel()
	m := NewSourceMap("short doc")
	occ := m.Register("ghost text", "ghost text")
	_, ok := m.StartLine("ghost text", occ)
	assert.False(t, ok)
}

func TestSourceMapEscapedAnchorFallback(t *testing.T) {
	t.Parallel()
	// The raw document stores the fragment with \n escapes; the resolved
	// text carries real newlines.
	doc := `{"onLoad": "<% a();\nb(); %>"}`
	m := NewSourceMap(doc)
	occ := m.Register(" a();\nb(); ", "<% a();\nb(); %>")
	line, ok := m.StartLine(" a();\nb(); ", occ)
	require.True(t, ok)
	assert.Equal(t, 1, line)
}
