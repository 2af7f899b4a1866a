package page

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

type fileConfig struct {
	Metadata fileMetadata `yaml:"metadata"`
	Sidebar  []fileBlock  `yaml:"sidebar"`
	Embed    fileEmbed    `yaml:"embed"`
}

type fileMetadata struct {
	Title       string `yaml:"title"`
	Icon        string `yaml:"icon"`
	Layout      string `yaml:"layout"`
	Lang        string `yaml:"lang"`
	Description string `yaml:"description"`
}

type fileBlock struct {
	Image     string `yaml:"image"`
	Alt       string `yaml:"alt"`
	FullWidth *bool  `yaml:"full_width"`
	Markdown  string `yaml:"markdown"`
	Divider   bool   `yaml:"divider"`
}

type fileEmbed struct {
	URL     string    `yaml:"url"`
	Height  int       `yaml:"height"`
	Mode    string    `yaml:"mode"`
	Title   string    `yaml:"title"`
	Sandbox *[]string `yaml:"sandbox"`
}

// LoadFile reads a YAML page definition and merges it over base. Keys missing from the
// file keep the base value; a sidebar list, when present, replaces the base sidebar.
// The result is not validated.
func LoadFile(path string, base Config) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("page: read %s: %w", path, err)
	}
	cfg, err := Decode(bytes.NewReader(data), base)
	if err != nil {
		return Config{}, fmt.Errorf("page: parse %s: %w", path, err)
	}
	return cfg, nil
}

// Decode parses a YAML page definition from r and merges it over base.
func Decode(r io.Reader, base Config) (Config, error) {
	var fc fileConfig
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&fc); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, err
	}

	cfg := base.Clone()
	md := &cfg.Metadata
	md.Title = pick(fc.Metadata.Title, md.Title)
	md.Icon = pick(fc.Metadata.Icon, md.Icon)
	md.Lang = pick(fc.Metadata.Lang, md.Lang)
	md.Description = pick(fc.Metadata.Description, md.Description)
	if v := strings.TrimSpace(fc.Metadata.Layout); v != "" {
		md.Layout = Layout(strings.ToLower(v))
	}

	if fc.Sidebar != nil {
		blocks, err := decodeBlocks(fc.Sidebar)
		if err != nil {
			return Config{}, err
		}
		cfg.Sidebar.Blocks = blocks
	}

	em := &cfg.Embed
	em.SourceURL = pick(fc.Embed.URL, em.SourceURL)
	em.Title = pick(fc.Embed.Title, em.Title)
	if fc.Embed.Height != 0 {
		em.HeightPx = fc.Embed.Height
	}
	if v := strings.TrimSpace(fc.Embed.Mode); v != "" {
		em.Mode = EmbedMode(strings.ToLower(v))
	}
	if fc.Embed.Sandbox != nil {
		em.Sandbox = append([]string{}, (*fc.Embed.Sandbox)...)
	}
	return cfg, nil
}

func decodeBlocks(in []fileBlock) ([]SidebarBlock, error) {
	out := make([]SidebarBlock, 0, len(in))
	var errs ConfigurationError
	for i, fb := range in {
		set := 0
		if fb.Image != "" {
			set++
		}
		if fb.Markdown != "" {
			set++
		}
		if fb.Divider {
			set++
		}
		if set != 1 {
			errs.add(fmt.Sprintf("Sidebar.Blocks[%d]", i), "exactly one of image, markdown or divider is required")
			continue
		}
		switch {
		case fb.Image != "":
			fullWidth := true
			if fb.FullWidth != nil {
				fullWidth = *fb.FullWidth
			}
			out = append(out, SidebarBlock{
				Kind:      BlockImage,
				URL:       strings.TrimSpace(fb.Image),
				Alt:       strings.TrimSpace(fb.Alt),
				FullWidth: fullWidth,
			})
		case fb.Markdown != "":
			out = append(out, SidebarBlock{Kind: BlockMarkdown, Source: fb.Markdown})
		default:
			out = append(out, SidebarBlock{Kind: BlockDivider})
		}
	}
	if len(errs.Problems) > 0 {
		return nil, &errs
	}
	return out, nil
}

func pick(v, fallback string) string {
	if s := strings.TrimSpace(v); s != "" {
		return s
	}
	return fallback
}
