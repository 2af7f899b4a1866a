package page

import (
	"fmt"
	"net/url"
	"strings"

	"golang.org/x/text/language"
)

// Layout controls whether the main content spans the full width or a centered column.
type Layout string

const (
	LayoutWide     Layout = "wide"
	LayoutCentered Layout = "centered"
)

// ParseLayout converts a configuration value into a Layout.
func ParseLayout(v string) (Layout, error) {
	switch Layout(strings.ToLower(strings.TrimSpace(v))) {
	case LayoutWide:
		return LayoutWide, nil
	case LayoutCentered:
		return LayoutCentered, nil
	default:
		return "", fmt.Errorf("page: unknown layout %q", v)
	}
}

// EmbedMode selects how much the embedded frame is trusted.
type EmbedMode string

const (
	// EmbedPermissive emits the frame with no sandbox, no fallback and no URL checks.
	EmbedPermissive EmbedMode = "permissive"
	// EmbedStrict sandboxes the frame, adds a visible fallback and requires an https URL.
	EmbedStrict EmbedMode = "strict"
)

// ParseEmbedMode converts a configuration value into an EmbedMode. Empty means permissive.
func ParseEmbedMode(v string) (EmbedMode, error) {
	switch EmbedMode(strings.ToLower(strings.TrimSpace(v))) {
	case "", EmbedPermissive:
		return EmbedPermissive, nil
	case EmbedStrict:
		return EmbedStrict, nil
	default:
		return "", fmt.Errorf("page: unknown embed mode %q", v)
	}
}

// Metadata is applied to the document head and the main content container.
type Metadata struct {
	Title       string
	Icon        string // emoji or absolute URL
	Layout      Layout
	Lang        string // BCP 47
	Description string
}

// IconIsURL reports whether the icon references a remote image rather than a glyph.
func (m Metadata) IconIsURL() bool {
	icon := strings.ToLower(strings.TrimSpace(m.Icon))
	return strings.HasPrefix(icon, "https://") || strings.HasPrefix(icon, "http://")
}

// BlockKind identifies a sidebar block.
type BlockKind string

const (
	BlockImage    BlockKind = "image"
	BlockMarkdown BlockKind = "markdown"
	BlockDivider  BlockKind = "divider"
)

// SidebarBlock is one entry of the sidebar stack. Only the fields relevant to Kind are used.
type SidebarBlock struct {
	Kind      BlockKind
	URL       string
	Alt       string
	FullWidth bool
	Source    string
}

// SidebarContent is rendered top-to-bottom in order.
type SidebarContent struct {
	Blocks []SidebarBlock
}

// EmbedSpec describes the single embedded frame.
type EmbedSpec struct {
	SourceURL string
	HeightPx  int
	Mode      EmbedMode
	Title     string
	Sandbox   []string
}

// Config is everything a render needs. It is treated as immutable once validated.
type Config struct {
	Metadata Metadata
	Sidebar  SidebarContent
	Embed    EmbedSpec
}

// Clone returns a deep copy so callers can adjust a config without sharing slices.
func (c Config) Clone() Config {
	cp := c
	if c.Sidebar.Blocks != nil {
		cp.Sidebar.Blocks = make([]SidebarBlock, len(c.Sidebar.Blocks))
		copy(cp.Sidebar.Blocks, c.Sidebar.Blocks)
	}
	if c.Embed.Sandbox != nil {
		cp.Embed.Sandbox = make([]string, len(c.Embed.Sandbox))
		copy(cp.Embed.Sandbox, c.Embed.Sandbox)
	}
	return cp
}

var sandboxTokens = map[string]struct{}{
	"allow-downloads":                         {},
	"allow-forms":                             {},
	"allow-modals":                            {},
	"allow-orientation-lock":                  {},
	"allow-pointer-lock":                      {},
	"allow-popups":                            {},
	"allow-popups-to-escape-sandbox":          {},
	"allow-presentation":                      {},
	"allow-same-origin":                       {},
	"allow-scripts":                           {},
	"allow-storage-access-by-user-activation": {},
	"allow-top-navigation-by-user-activation": {},
}

// Validate checks the config and returns a *ConfigurationError naming every invalid field.
func (c Config) Validate() error {
	var errs ConfigurationError

	if strings.TrimSpace(c.Metadata.Title) == "" {
		errs.add("Metadata.Title", "must not be empty")
	}
	if strings.TrimSpace(c.Metadata.Icon) == "" {
		errs.add("Metadata.Icon", "must not be empty")
	}
	if _, err := ParseLayout(string(c.Metadata.Layout)); err != nil {
		errs.add("Metadata.Layout", fmt.Sprintf("must be %q or %q, got %q", LayoutWide, LayoutCentered, c.Metadata.Layout))
	}
	if lang := strings.TrimSpace(c.Metadata.Lang); lang != "" {
		if _, err := language.Parse(lang); err != nil {
			errs.add("Metadata.Lang", fmt.Sprintf("invalid language tag %q", lang))
		}
	}

	for i, block := range c.Sidebar.Blocks {
		field := fmt.Sprintf("Sidebar.Blocks[%d]", i)
		switch block.Kind {
		case BlockImage:
			if strings.TrimSpace(block.URL) == "" {
				errs.add(field+".URL", "image block requires a URL")
			}
		case BlockMarkdown:
			if strings.TrimSpace(block.Source) == "" {
				errs.add(field+".Source", "markdown block requires content")
			}
		case BlockDivider:
		default:
			errs.add(field+".Kind", fmt.Sprintf("unknown block kind %q", block.Kind))
		}
	}

	mode, err := ParseEmbedMode(string(c.Embed.Mode))
	if err != nil {
		errs.add("Embed.Mode", fmt.Sprintf("must be %q or %q, got %q", EmbedPermissive, EmbedStrict, c.Embed.Mode))
	}
	if c.Embed.HeightPx <= 0 {
		errs.add("Embed.HeightPx", fmt.Sprintf("must be positive, got %d", c.Embed.HeightPx))
	}
	if strings.TrimSpace(c.Embed.SourceURL) == "" {
		errs.add("Embed.SourceURL", "must not be empty")
	} else if mode == EmbedStrict {
		if reason := strictURLProblem(c.Embed.SourceURL); reason != "" {
			errs.add("Embed.SourceURL", reason)
		}
	}
	if mode == EmbedStrict {
		for _, token := range c.Embed.Sandbox {
			if _, ok := sandboxTokens[token]; !ok {
				errs.add("Embed.Sandbox", fmt.Sprintf("unknown sandbox token %q", token))
			}
		}
	}

	if len(errs.Problems) > 0 {
		return &errs
	}
	return nil
}

// ValidateFrameURL applies the strict-mode URL rule on its own.
func ValidateFrameURL(raw string) error {
	if reason := strictURLProblem(raw); reason != "" {
		err := &ConfigurationError{}
		err.add("Embed.SourceURL", reason)
		return err
	}
	return nil
}

func strictURLProblem(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Sprintf("malformed URL %q", raw)
	}
	if !u.IsAbs() || u.Host == "" {
		return fmt.Sprintf("URL %q must be absolute", raw)
	}
	if u.Scheme != "https" {
		return fmt.Sprintf("URL %q must use https", raw)
	}
	return ""
}

// Origin returns scheme://host of the embed URL, or "" when it cannot be parsed.
func (e EmbedSpec) Origin() string {
	u, err := url.Parse(strings.TrimSpace(e.SourceURL))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return ""
	}
	return u.Scheme + "://" + u.Host
}
