package seo

import (
	"strings"

	"github.com/mrbrightsides/sentinel/internal/page"
)

type OpenGraph struct {
	Title       string
	Description string
	Image       string
	Type        string
	URL         string
	SiteName    string
}

type Twitter struct {
	Card  string
	Image string
}

// Meta is the head metadata emitted alongside the page title.
type Meta struct {
	Title       string
	Description string
	Canonical   string
	OG          OpenGraph
	Twitter     Twitter
}

// FromPage derives head metadata from page metadata. canonical may be empty; image is the
// first sidebar image, used as the share preview.
func FromPage(md page.Metadata, canonical, image string) Meta {
	canonical = strings.TrimSpace(canonical)
	if canonical != "" && !strings.HasSuffix(canonical, "/") {
		canonical += "/"
	}
	card := "summary"
	if image != "" {
		card = "summary_large_image"
	}
	return Meta{
		Title:       md.Title,
		Description: md.Description,
		Canonical:   canonical,
		OG: OpenGraph{
			Title:       md.Title,
			Description: md.Description,
			Image:       image,
			Type:        "website",
			URL:         canonical,
			SiteName:    md.Title,
		},
		Twitter: Twitter{
			Card:  card,
			Image: image,
		},
	}
}
