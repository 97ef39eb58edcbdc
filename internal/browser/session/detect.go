package session

import (
	"net/url"
	"strings"

	"github.com/xkilldash9x/formpilot-cli/internal/browser/dom"
)

var formMarkers = dom.MustCompile(`//*[@data-params] | //*[` + dom.ClassContains("freebirdFormviewerViewFormCard") + `] | //*[` + dom.ClassContains("Qr7Oae") + `] | //form[.//input[not(@type='hidden')] or .//select or .//textarea]`)

// IsFormPage reports whether rawURL is a Google Forms response page or doc
// carries form markup.
func IsFormPage(rawURL string, doc *dom.Document) bool {
	if u, err := url.Parse(rawURL); err == nil && strings.EqualFold(u.Host, "docs.google.com") &&
		strings.HasPrefix(u.Path, "/forms/") &&
		(strings.Contains(u.Path, "/viewform") || strings.Contains(u.Path, "/formResponse")) {
		return true
	}
	if doc == nil {
		return false
	}
	n, err := dom.QueryOne(doc.Root, formMarkers)
	return err == nil && n != nil
}
