package parser_test

import (
	"testing"

	fuzzheaders "github.com/AdaLogics/go-fuzz-headers"

	"github.com/fenwicklabs/canvaslint/internal/script/parser"
)

// FuzzParse checks the parser's core contract on arbitrary input: it never
// panics out, and it returns exactly one of tree or failure.
func FuzzParse(f *testing.F) {
	seeds := []string{
		"",
		"var a = 1;",
		"function f(a, b) { return a + b; }",
		"items.map(x => x * 2)",
		"http:get('/api', { depth: 2 })",
		"`hello ${name ?? 'world'}`",
		"for (var i = 0; i < 10; i++) { if (i % 2 === 0) continue; }",
		"switch (m) { case 1: a(); break; default: b(); }",
		"var x = 'unterminated",
		"function () {}",
		"{{{{",
		"`${`${a}`}`",
	}
	for _, s := range seeds {
		f.Add([]byte(s))
	}

	f.Fuzz(func(t *testing.T, data []byte) {
		fz := fuzzheaders.NewConsumer(data)
		src, err := fz.GetString()
		if err != nil {
			return
		}
		prog, failure := parser.Parse(src)
		if prog == nil && failure == nil {
			t.Fatalf("neither tree nor failure for %q", src)
		}
		if prog != nil && failure != nil {
			t.Fatalf("both tree and failure for %q", src)
		}
	})
}
