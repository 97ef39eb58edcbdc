package dom_test

import (
	"strings"
	"testing"

	"github.com/antchfx/htmlquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/formpilot-cli/internal/browser/dom"
)

const testHTML = `
	<html>
	<body>
		<div id="header">
			<h1>Welcome</h1>
		</div>
		<div class="content">
			<p>P1</p><p>P2</p>
			<ul>
				<li>Item 1</li>
				<li>Item 2</li>
				<li id="special">Item 3</li>
			</ul>
		</div>
		<div class="content"><p>P3</p></div>
	</body>
	</html>
	`

func TestGenerateUniqueXPath(t *testing.T) {
	doc, err := htmlquery.Parse(strings.NewReader(testHTML))
	require.NoError(t, err)

	tests := []struct {
		name          string
		targetXPath   string
		expectedXPath string
	}{
		{"Body", "//body", "/html[1]/body[1]"},
		{"Element with ID", "//div[@id='header']", `//*[@id='header']`},
		{"Child of ID element", "//h1", `//*[@id='header']/h1[1]`},
		{"Specific index", "(//p)[2]", "/html[1]/body[1]/div[2]/p[2]"},
		{"Ambiguous classes", "(//div[@class='content'])[2]/p", "/html[1]/body[1]/div[3]/p[1]"},
		{"List item with ID", "//li[@id='special']", `//*[@id='special']`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			targetNode := htmlquery.FindOne(doc, tt.targetXPath)
			require.NotNil(t, targetNode)

			generated := dom.GenerateUniqueXPath(targetNode)
			assert.Equal(t, tt.expectedXPath, generated)
			assert.Equal(t, targetNode, htmlquery.FindOne(doc, generated), "generated XPath must select the original node")
		})
	}
	assert.Equal(t, "", dom.GenerateUniqueXPath(nil))
}

func TestQueryAll(t *testing.T) {
	doc, err := dom.ParseString(testHTML, 1)
	require.NoError(t, err)

	nodes, err := dom.QueryAll(doc.Root, dom.MustCompile("//div[" + dom.ClassContains("content") + "]//p"))
	require.NoError(t, err)
	assert.Len(t, nodes, 3)

	_, err = dom.Compile("//div[")
	assert.Error(t, err)

	_, err = dom.QueryString(doc.Root, "//*[")
	assert.Error(t, err)

	one, err := dom.QueryOne(doc.Root, dom.MustCompile("//li[@id='special']"))
	require.NoError(t, err)
	assert.Equal(t, "Item 3", dom.Text(one))

	none, err := dom.QueryOne(doc.Root, dom.MustCompile("//table"))
	require.NoError(t, err)
	assert.Nil(t, none)

	assert.Panics(t, func() { dom.MustCompile("//[") })
}
