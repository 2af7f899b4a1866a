// Package render assembles the Sentinel page from a page.Config.
package render

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html"
	"html/template"
	"io/fs"
	"net/url"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/mrbrightsides/sentinel/internal/markdown"
	"github.com/mrbrightsides/sentinel/internal/page"
	"github.com/mrbrightsides/sentinel/internal/seo"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var tracer = otel.Tracer("github.com/mrbrightsides/sentinel/internal/render")

// RenderedPage is the output of one render pass.
type RenderedPage struct {
	Title  string
	Icon   string
	Layout page.Layout
	HTML   []byte
}

// Renderer executes the page templates. It holds no per-render state and is safe for
// concurrent use.
type Renderer struct {
	tmpl         *template.Template
	md           *markdown.Renderer
	publicOrigin string
	logger       *zap.Logger
}

// Option customises a Renderer.
type Option func(*Renderer)

// WithPublicOrigin sets the externally visible origin used for canonical and og:url tags.
func WithPublicOrigin(origin string) Option {
	return func(r *Renderer) {
		r.publicOrigin = strings.TrimRight(strings.TrimSpace(origin), "/")
	}
}

// WithMarkdown overrides the sidebar markdown renderer.
func WithMarkdown(md *markdown.Renderer) Option {
	return func(r *Renderer) {
		if md != nil {
			r.md = md
		}
	}
}

// WithLogger sets the logger used to report embed URLs that cannot be framed.
func WithLogger(logger *zap.Logger) Option {
	return func(r *Renderer) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// New parses the embedded templates.
func New(opts ...Option) (*Renderer, error) {
	tmpl, err := parseTemplates(templateFS)
	if err != nil {
		return nil, err
	}
	r := &Renderer{tmpl: tmpl, md: markdown.New(), logger: zap.NewNop()}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

func parseTemplates(fsys fs.FS) (*template.Template, error) {
	files, err := fs.Glob(fsys, "templates/*.tmpl")
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("render: no templates found")
	}
	tmpl, err := template.New("_root").ParseFS(fsys, files...)
	if err != nil {
		return nil, fmt.Errorf("render: parse templates: %w", err)
	}
	return tmpl, nil
}

type pageView struct {
	Lang        string
	Title       string
	FaviconHref template.URL
	FaviconType string
	LayoutClass string
	Meta        seo.Meta
	JSONLD      template.JS
	Sidebar     []blockView
	Frame       template.HTML
}

type blockView struct {
	Kind      string
	URL       string
	Alt       string
	FullWidth bool
	HTML      template.HTML
}

type frameView struct {
	SourceURL template.URL
	HeightPx  int
	Strict    bool
	Title     string
	Sandbox   string
}

// Render validates cfg and produces the full HTML document. The output depends only on
// cfg and the Renderer options, so repeated calls with equal input are byte-identical.
func (r *Renderer) Render(ctx context.Context, cfg page.Config) (RenderedPage, error) {
	_, span := tracer.Start(ctx, "render.Page")
	defer span.End()

	if err := cfg.Validate(); err != nil {
		span.SetStatus(codes.Error, "invalid page configuration")
		return RenderedPage{}, err
	}
	span.SetAttributes(
		attribute.String("page.layout", string(cfg.Metadata.Layout)),
		attribute.String("embed.mode", string(cfg.Embed.Mode)),
		attribute.Int("sidebar.blocks", len(cfg.Sidebar.Blocks)),
	)

	view, err := r.buildView(cfg)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return RenderedPage{}, err
	}

	var buf bytes.Buffer
	if err := r.tmpl.ExecuteTemplate(&buf, "base", view); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return RenderedPage{}, fmt.Errorf("render: execute page: %w", err)
	}
	return RenderedPage{
		Title:  cfg.Metadata.Title,
		Icon:   cfg.Metadata.Icon,
		Layout: cfg.Metadata.Layout,
		HTML:   buf.Bytes(),
	}, nil
}

func (r *Renderer) buildView(cfg page.Config) (pageView, error) {
	md := cfg.Metadata
	lang := md.Lang
	if lang == "" {
		lang = page.DefaultLang
	}

	blocks := make([]blockView, 0, len(cfg.Sidebar.Blocks))
	var preview string
	for i, b := range cfg.Sidebar.Blocks {
		v := blockView{Kind: string(b.Kind), URL: b.URL, Alt: b.Alt, FullWidth: b.FullWidth}
		switch b.Kind {
		case page.BlockMarkdown:
			out, err := r.md.Render(b.Source)
			if err != nil {
				return pageView{}, fmt.Errorf("render: sidebar block %d: %w", i, err)
			}
			v.HTML = out
		case page.BlockImage:
			if preview == "" {
				preview = b.URL
			}
		}
		blocks = append(blocks, v)
	}

	frame, err := r.Frame(cfg.Embed)
	if err != nil {
		return pageView{}, err
	}

	canonical := ""
	if r.publicOrigin != "" {
		canonical = r.publicOrigin + "/"
	}
	meta := seo.FromPage(md, canonical, preview)
	ld := "[" + seo.JSON(seo.WebApplication(md.Title, md.Description, canonical, cfg.Embed.SourceURL)) +
		"," + seo.JSON(seo.Organization(md.Title, canonical, preview)) + "]"

	href, typ := favicon(md)
	return pageView{
		Lang:        lang,
		Title:       md.Title,
		FaviconHref: href,
		FaviconType: typ,
		LayoutClass: "layout-" + string(md.Layout),
		Meta:        meta,
		JSONLD:      template.JS(ld),
		Sidebar:     blocks,
		Frame:       frame,
	}, nil
}

// Frame renders the embed container for spec. In permissive mode the URL is written as
// given, escaped for the attribute, except that schemes able to run script in the page
// (javascript:, vbscript:, data:) leave the frame at about:blank. Strict mode requires an
// absolute https URL and adds sandboxing and a visible fallback link.
func (r *Renderer) Frame(spec page.EmbedSpec) (template.HTML, error) {
	if spec.HeightPx <= 0 {
		return "", &page.ConfigurationError{Problems: []page.FieldProblem{{
			Field:  "Embed.HeightPx",
			Reason: fmt.Sprintf("must be positive, got %d", spec.HeightPx),
		}}}
	}
	mode, err := page.ParseEmbedMode(string(spec.Mode))
	if err != nil {
		return "", &page.ConfigurationError{Problems: []page.FieldProblem{{Field: "Embed.Mode", Reason: err.Error()}}}
	}
	strict := mode == page.EmbedStrict
	if strict {
		if err := page.ValidateFrameURL(spec.SourceURL); err != nil {
			return "", err
		}
	}
	title := spec.Title
	if title == "" {
		title = page.DefaultEmbedTitle
	}
	src, blocked := frameSource(spec.SourceURL)
	if blocked != "" {
		r.logger.Warn("embed URL scheme cannot be framed; rendering blank frame",
			zap.String("scheme", blocked),
			zap.String("frame_src", string(src)),
		)
	}
	view := frameView{
		SourceURL: src,
		HeightPx:  spec.HeightPx,
		Strict:    strict,
		Title:     title,
		Sandbox:   strings.Join(spec.Sandbox, " "),
	}
	var buf bytes.Buffer
	if err := r.tmpl.ExecuteTemplate(&buf, "embed_frame", view); err != nil {
		return "", fmt.Errorf("render: execute frame: %w", err)
	}
	return template.HTML(buf.String()), nil
}

// scriptSchemes execute in the embedding document when used as a frame source.
var scriptSchemes = map[string]bool{"javascript": true, "vbscript": true, "data": true}

const blankFrame = template.URL("about:blank")

// frameSource marks raw as a trusted URL so html/template does not swap it for a
// same-document fragment. Script-capable schemes become about:blank; their scheme is
// returned so the caller can report it.
func frameSource(raw string) (template.URL, string) {
	if scheme := urlScheme(raw); scheme != "" && scriptSchemes[scheme] {
		return blankFrame, scheme
	}
	return template.URL(raw), ""
}

// urlScheme reads the scheme of raw the way browsers do: leading spaces and control
// characters are skipped and tabs or newlines anywhere are dropped. It returns "" for
// relative or malformed values.
func urlScheme(raw string) string {
	cleaned := strings.Map(func(r rune) rune {
		if r == '\t' || r == '\n' || r == '\r' {
			return -1
		}
		return r
	}, raw)
	cleaned = strings.TrimLeftFunc(cleaned, func(r rune) bool { return r <= ' ' })
	i := strings.IndexByte(cleaned, ':')
	if i <= 0 {
		return ""
	}
	scheme := cleaned[:i]
	for j, c := range scheme {
		letter := (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
		other := c >= '0' && c <= '9' || c == '+' || c == '-' || c == '.'
		if !letter && (j == 0 || !other) {
			return ""
		}
	}
	return strings.ToLower(scheme)
}

// favicon returns the icon link target. Glyph icons become an inline SVG so the page
// needs no extra request for them.
func favicon(md page.Metadata) (template.URL, string) {
	icon := strings.TrimSpace(md.Icon)
	if md.IconIsURL() {
		if u, err := url.Parse(icon); err == nil {
			return template.URL(u.String()), ""
		}
		return "", ""
	}
	svg := `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 100 100"><text y=".9em" font-size="90">` +
		html.EscapeString(icon) + `</text></svg>`
	return template.URL("data:image/svg+xml," + url.PathEscape(svg)), "image/svg+xml"
}
