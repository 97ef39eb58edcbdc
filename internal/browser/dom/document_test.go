package dom_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/formpilot-cli/internal/browser/dom"
	"golang.org/x/net/html"
)

const stateHTML = `<html><body>
<form>
  <input id="a" type="radio" name="r" checked>
  <input id="b" type="radio" name="r" data-fp-checked="false" checked>
  <input id="c" type="text" value="attr" data-fp-value="live">
  <input id="d" type="text" value="plain">
  <textarea id="e">some text</textarea>
  <select id="f"><option value="">Choose</option><option value="x" selected>X label</option></select>
  <select id="g"><option>One</option><option selected>Two</option></select>
  <span id="h" class="foo  isChecked bar">  Hello
     <b>world</b> </span>
</form></body></html>`

func TestStateReaders(t *testing.T) {
	doc, err := dom.ParseString(stateHTML, 4)
	require.NoError(t, err)

	byID := func(id string) *html.Node {
		nodes, err := dom.QueryString(doc.Root, "//*[@id='"+id+"']")
		require.NoError(t, err)
		require.Len(t, nodes, 1)
		return nodes[0]
	}

	assert.True(t, dom.IsChecked(byID("a")))
	assert.False(t, dom.IsChecked(byID("b")), "live mirror wins over the static attribute")
	assert.Equal(t, "live", dom.Value(byID("c")))
	assert.Equal(t, "plain", dom.Value(byID("d")))
	assert.Equal(t, "some text", dom.Value(byID("e")))
	assert.Equal(t, "x", dom.Value(byID("f")))
	assert.Equal(t, "Two", dom.Value(byID("g")))

	span := byID("h")
	assert.True(t, dom.HasClass(span, "isChecked"))
	assert.False(t, dom.HasClass(span, "isCheck"))
	assert.Equal(t, "Hello world", dom.Text(span))
	assert.Equal(t, "Hello", dom.OwnText(span))
	assert.Equal(t, "span", dom.Tag(span))
	assert.Len(t, dom.Descendants(byID("f"), "OPTION"), 2)
	assert.True(t, dom.Contains(byID("f"), dom.Descendants(byID("f"), "option")[0]))
}

func TestStampTreeAndRef(t *testing.T) {
	doc, err := dom.ParseString(`<html><body><div><p>x</p></div></body></html>`, 7)
	require.NoError(t, err)

	p, err := dom.QueryString(doc.Root, "//p")
	require.NoError(t, err)

	unstamped := doc.Ref(p[0])
	assert.Equal(t, uint64(7), unstamped.Generation)
	assert.Equal(t, "/html[1]/body[1]/div[1]/p[1]", unstamped.XPath)

	n := dom.StampTree(doc.Root, 7)
	assert.Equal(t, 5, n, "html, head, body, div, p")

	ref := doc.Ref(p[0])
	assert.Equal(t, "//*[@data-fp-ref='7-4']", ref.XPath)

	again, err := dom.QueryString(doc.Root, ref.XPath)
	require.NoError(t, err)
	require.Len(t, again, 1)
	assert.Equal(t, p[0], again[0])

	// Restamping replaces the old generation in place.
	dom.StampTree(doc.Root, 8)
	stale, err := dom.QueryString(doc.Root, ref.XPath)
	require.NoError(t, err)
	assert.Empty(t, stale)

	markup, err := doc.Render()
	require.NoError(t, err)
	assert.Contains(t, markup, `data-fp-ref="8-4"`)
	assert.True(t, doc.Ref(nil).IsZero())
}

func TestAttrHelpers(t *testing.T) {
	doc, err := dom.ParseString(`<div id="x" data-a="1"></div>`, 0)
	require.NoError(t, err)
	nodes, err := dom.QueryString(doc.Root, "//div")
	require.NoError(t, err)
	n := nodes[0]

	dom.SetAttr(n, "data-a", "2")
	dom.SetAttr(n, "data-b", "3")
	assert.Equal(t, "2", dom.Attr(n, "data-a"))
	assert.Equal(t, "3", dom.Attr(n, "data-b"))
	dom.RemoveAttr(n, "data-a")
	assert.False(t, dom.HasAttr(n, "data-a"))
	assert.Equal(t, "", dom.Attr(nil, "id"))
	assert.Equal(t, "a b", dom.NormalizeSpace("  a \n\t b "))
}
