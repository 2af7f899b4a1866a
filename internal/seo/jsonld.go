package seo

import (
	"encoding/json"
)

// JSON marshals v to a compact JSON string. It returns an empty string on error.
// Map keys are sorted by encoding/json, so output is stable.
func JSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}

// WebApplication returns a minimal schema.org WebApplication payload for the dashboard.
func WebApplication(name, description, url, sourceURL string) map[string]any {
	m := map[string]any{
		"@context":            "https://schema.org",
		"@type":               "WebApplication",
		"name":                name,
		"applicationCategory": "BusinessApplication",
	}
	if description != "" {
		m["description"] = description
	}
	if url != "" {
		m["url"] = url
	}
	if sourceURL != "" {
		m["isBasedOn"] = sourceURL
	}
	return m
}

// Organization returns a minimal Organization schema.
func Organization(name, url, logoURL string) map[string]any {
	m := map[string]any{
		"@context": "https://schema.org",
		"@type":    "Organization",
		"name":     name,
	}
	if url != "" {
		m["url"] = url
	}
	if logoURL != "" {
		m["logo"] = logoURL
	}
	return m
}
