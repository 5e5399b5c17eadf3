package host

import (
	"fmt"
	"html"
	"strings"

	"github.com/GriffinCanCode/dicthub/internal/domain/model"
	"github.com/PuerkitoBio/goquery"
)

const securityWarning = `<div class="translation-failure alert alert-danger" role="alert">Insecure translation script blocked. ID: %s</div>`

// SecurityWarning is the html that replaces a blocked result.
func SecurityWarning(pluginID string) string {
	return fmt.Sprintf(securityWarning, html.EscapeString(pluginID))
}

// HasScript reports whether content carries a script element, either as raw
// text or once parsed.
func HasScript(content string) bool {
	if strings.Contains(strings.ToLower(content), "<script") {
		return true
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		return false
	}
	return doc.Find("script").Length() > 0
}

// Filter replaces a result carrying a script with the security warning and
// marks it unsuccessful. It reports whether the result was blocked.
func Filter(res model.TranslationResult) (model.TranslationResult, bool) {
	if !HasScript(res.HTMLContent) {
		return res, false
	}
	res.HTMLContent = SecurityWarning(res.PluginID)
	res.Success = false
	return res, true
}
