package cascade

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cnkicrawl/internal/dom"
)

// countingScope records every locator evaluated against the wrapped scope.
type countingScope struct {
	dom.Scope
	calls []dom.Spec
}

func (c *countingScope) Find(s dom.Spec) (dom.Element, error) {
	c.calls = append(c.calls, s)
	return c.Scope.Find(s)
}

func (c *countingScope) FindAll(s dom.Spec) ([]dom.Element, error) {
	c.calls = append(c.calls, s)
	return c.Scope.FindAll(s)
}

func parse(t *testing.T, html string) *dom.Document {
	t.Helper()
	doc, err := dom.ParseString(html)
	require.NoError(t, err)
	return doc
}

const row = `<div class="row">
	<h3 class="empty"> </h3>
	<div class="title"><a href="/detail/1">  Deep Learning  </a></div>
	<h3>Fallback heading</h3>
	<span class="author"><a>张三</a><a> </a><a>李四</a></span>
	<span class="other"><a>X</a></span>
</div>`

func TestFirstShortCircuits(t *testing.T) {
	scope := &countingScope{Scope: parse(t, row)}
	specs := []dom.Spec{
		dom.CSS(".missing a"),
		dom.CSS(".title a"),
		dom.CSS("h3"),
		dom.CSS("a"),
	}

	hit, ok := First(scope, specs)

	require.True(t, ok)
	assert.Equal(t, "Deep Learning", hit.Text)
	assert.Equal(t, 1, hit.Index)
	assert.Len(t, scope.calls, 2, "specs after the first accepted match must not be evaluated")
}

func TestFirstSkipsBlankText(t *testing.T) {
	scope := &countingScope{Scope: parse(t, row)}

	hit, ok := First(scope, []dom.Spec{dom.CSS("h3.empty"), dom.CSS("div.title a")})

	require.True(t, ok)
	assert.Equal(t, "Deep Learning", hit.Text)
	assert.Len(t, scope.calls, 2)
}

func TestFirstNotFound(t *testing.T) {
	_, ok := First(parse(t, row), []dom.Spec{dom.CSS(".nope"), dom.XPath("//a")})
	assert.False(t, ok, "misses and unsupported locators both fall through")
}

func TestFirstWhere(t *testing.T) {
	accept := func(_ dom.Element, text string) bool { return text == "Fallback heading" }
	hit, ok := FirstWhere(parse(t, row), []dom.Spec{dom.CSS(".title a"), dom.CSS("div > h3:not(.empty)")}, accept)

	require.True(t, ok)
	assert.Equal(t, 1, hit.Index)
}

func TestTryContinuesUntilAccepted(t *testing.T) {
	var seen []int
	ok := Try(parse(t, row), []dom.Spec{dom.CSS(".title a"), dom.CSS(".author a"), dom.CSS(".other a")}, func(h Hit) bool {
		seen = append(seen, h.Index)
		return h.Index == 1
	})

	assert.True(t, ok)
	assert.Equal(t, []int{0, 1}, seen)
}

func TestAllUsesFirstMatchingSpec(t *testing.T) {
	scope := &countingScope{Scope: parse(t, row)}

	els, idx, ok := All(scope, []dom.Spec{dom.CSS(".none a"), dom.CSS(".author a"), dom.CSS(".other a")})

	require.True(t, ok)
	assert.Equal(t, 1, idx)
	assert.Len(t, els, 3)
	assert.Equal(t, []string{"张三", "李四"}, Texts(els))
	assert.Len(t, scope.calls, 2)
}

func TestAllNotFound(t *testing.T) {
	els, idx, ok := All(parse(t, row), []dom.Spec{dom.CSS("table tr")})
	assert.False(t, ok)
	assert.Equal(t, -1, idx)
	assert.Empty(t, els)
}
