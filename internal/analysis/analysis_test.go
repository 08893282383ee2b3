package analysis

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/fenwicklabs/canvaslint/internal/script/ast"
	"github.com/fenwicklabs/canvaslint/internal/script/parser"
)

// mustParse builds a tree or fails the test with the parser's complaint.
func mustParse(t *testing.T, src string) *ast.Node {
	t.Helper()
	tree, fail := parser.Parse(src)
	require.Nil(t, fail, "parse failed: %v", fail)
	require.NotNil(t, tree)
	return tree
}

func TestComplexityWholeScriptWhenNoFunctions(t *testing.T) {
	t.Parallel()

	src := `let x = 1;
if (x > 0) {
  x = x - 1;
}
let y = x > 0 ? "a" : "b";`
	scores := Complexity(mustParse(t, src))

	require.Len(t, scores, 1)
	require.Equal(t, "(script)", scores[0].Unit)
	// Base 1, +1 for the if, +1 for the ternary.
	require.Equal(t, 3, scores[0].Score)
}

func TestComplexityScoresEachFunction(t *testing.T) {
	t.Parallel()

	src := `function simple(a) {
  return a;
}
function branchy(a, b) {
  if (a && b) {
    return 1;
  }
  for (let i = 0; i < 10; i = i + 1) {
    a = a + 1;
  }
  return a;
}`
	scores := Complexity(mustParse(t, src))

	byUnit := map[string]int{}
	for _, s := range scores {
		byUnit[s.Unit] = s.Score
	}
	require.Equal(t, 1, byUnit["simple"])
	// Base 1, +1 if, +1 &&, +1 for.
	require.Equal(t, 4, byUnit["branchy"])
}

func TestComplexityIgnoresTopLevelCodeWhenFunctionsExist(t *testing.T) {
	t.Parallel()

	// Top-level branches outside any function do not produce a unit once a
	// function declaration is present.
	src := `if (flag) { doThing(); }
function f() { return 1; }`
	scores := Complexity(mustParse(t, src))

	require.Len(t, scores, 1)
	require.Equal(t, "f", scores[0].Unit)
}

func TestNestingDepthReportsDeepestNode(t *testing.T) {
	t.Parallel()

	src := `function outer(items) {
  if (items) {
    for (let i = 0; i < 10; i = i + 1) {
      while (i > 0) {
        i = i - 1;
      }
    }
  }
}`
	res := NestingDepth(mustParse(t, src))

	// function -> if -> for -> while.
	require.Equal(t, 4, res.Depth)
	require.Equal(t, 4, res.Line)
}

func TestNestingDepthFlatScriptIsZero(t *testing.T) {
	t.Parallel()

	res := NestingDepth(mustParse(t, `let a = 1; let b = a + 2;`))
	require.Equal(t, 0, res.Depth)
}

func TestUnusedIdentifiers(t *testing.T) {
	t.Parallel()

	src := `function handler(evt, extra) {
  let used = evt.detail;
  let abandoned = 5;
  return used;
}`
	unused := UnusedIdentifiers(mustParse(t, src))

	names := map[string]UnusedKind{}
	for _, u := range unused {
		names[u.Name] = u.Kind
	}
	require.Len(t, unused, 2)
	require.Equal(t, UnusedParam, names["extra"])
	require.Equal(t, UnusedVar, names["abandoned"])
}

func TestUnusedRespectsVarHoisting(t *testing.T) {
	t.Parallel()

	// `var` declared in a block is visible function-wide, so the use after
	// the block counts.
	src := `function f(flag) {
  if (flag) {
    var shared = 1;
  }
  return shared;
}`
	unused := UnusedIdentifiers(mustParse(t, src))
	require.Empty(t, unused)
}

func TestUnusedLetIsBlockScoped(t *testing.T) {
	t.Parallel()

	// The inner `let tmp` shadows nothing and is never read inside its
	// block, so it is unused even though an outer tmp is read later.
	src := `function f(flag) {
  let tmp = 1;
  if (flag) {
    let tmp = 2;
  }
  return tmp;
}`
	unused := UnusedIdentifiers(mustParse(t, src))

	require.Len(t, unused, 1)
	require.Equal(t, "tmp", unused[0].Name)
	require.Equal(t, 4, unused[0].Line)
}

func TestUnusedTopLevelFunctions(t *testing.T) {
	t.Parallel()

	src := `function called() { return 1; }
function waiting() { return 2; }
called();`
	candidates := UnusedTopLevelFunctions(mustParse(t, src))

	require.Len(t, candidates, 1)
	require.Equal(t, "waiting", candidates[0].Name)
	require.Equal(t, UnusedFunc, candidates[0].Kind)
}

func TestIdentifiersCollectsReferenceSurface(t *testing.T) {
	t.Parallel()

	// Identifiers feeds the cross-fragment clearing step for top-level
	// function candidates: a sibling fragment calling `waiting` keeps it.
	ids := Identifiers(mustParse(t, `waiting(payload.id);`))
	require.True(t, ids["waiting"])
	require.True(t, ids["payload"])
	require.False(t, ids["id"])
}
