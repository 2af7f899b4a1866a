package testutil

import (
	"bytes"
	"testing"

	"github.com/PuerkitoBio/goquery"
)

// ParseHTML parses the provided HTML payload into a goquery document for assertions.
func ParseHTML(t testing.TB, body []byte) *goquery.Document {
	t.Helper()

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		t.Fatalf("parse html: %v", err)
	}
	return doc
}

// FrameHeight extracts the height declared in the embed container style, or "" when absent.
func FrameHeight(doc *goquery.Document) string {
	style, ok := doc.Find("div.embed-frame").First().Attr("style")
	if !ok {
		return ""
	}
	for _, decl := range bytes.Split([]byte(style), []byte(";")) {
		kv := bytes.SplitN(bytes.TrimSpace(decl), []byte(":"), 2)
		if len(kv) == 2 && string(bytes.TrimSpace(kv[0])) == "height" {
			return string(bytes.TrimSpace(kv[1]))
		}
	}
	return ""
}
