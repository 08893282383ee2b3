package astcache

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/fenwicklabs/canvaslint/internal/script/ast"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestGetOrParseSharesOneTree(t *testing.T) {
	t.Parallel()
	c := New()

	first, failure := c.GetOrParse("var a = 1;")
	require.Nil(t, failure)
	require.NotNil(t, first)

	second, failure := c.GetOrParse("var a = 1;")
	require.Nil(t, failure)
	// Purity makes sharing safe, so identity is the contract.
	assert.Same(t, first, second)

	stats := c.Stats()
	assert.Equal(t, 1, stats.Misses)
	assert.Equal(t, 1, stats.Hits)
	assert.Equal(t, 1, c.Len())
}

func TestFailuresAreCachedToo(t *testing.T) {
	t.Parallel()
	c := New()

	tree, failure := c.GetOrParse("var = ;")
	assert.Nil(t, tree)
	require.NotNil(t, failure)

	tree, again := c.GetOrParse("var = ;")
	assert.Nil(t, tree)
	assert.Same(t, failure, again)

	stats := c.Stats()
	assert.Equal(t, 1, stats.Misses)
	assert.Equal(t, 1, stats.Failures)
	assert.Equal(t, 1, stats.Hits)
}

func TestConcurrentCallersParseOnce(t *testing.T) {
	t.Parallel()
	c := New()
	const callers = 32

	var wg sync.WaitGroup
	trees := make([]*ast.Node, callers)
	start := make(chan struct{})
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			tree, failure := c.GetOrParse("function f() { return 1; }")
			assert.Nil(t, failure)
			trees[i] = tree
		}(i)
	}
	close(start)
	wg.Wait()

	for i := 1; i < callers; i++ {
		assert.Same(t, trees[0], trees[i])
	}
	assert.Equal(t, 1, c.Stats().Misses)
	assert.Equal(t, 1, c.Len())
}

func TestDistinctTextsDistinctEntries(t *testing.T) {
	t.Parallel()
	c := New()
	a, _ := c.GetOrParse("var a = 1;")
	b, _ := c.GetOrParse("var b = 2;")
	assert.NotSame(t, a, b)
	assert.Equal(t, 2, c.Len())
	assert.Equal(t, 2, c.Stats().Misses)
}
