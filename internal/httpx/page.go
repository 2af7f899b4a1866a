package httpx

import (
	"context"
	"net/http"
	"strconv"

	"github.com/chasefleming/elem-go"
	"github.com/chasefleming/elem-go/attrs"
	"github.com/chasefleming/elem-go/styles"
)

var errorBodyStyle = styles.Props{
	styles.Margin:          "0",
	styles.MinHeight:       "100vh",
	styles.Display:         "flex",
	styles.AlignItems:      "center",
	styles.JustifyContent:  "center",
	styles.BackgroundColor: "#0e1117",
	styles.Color:           "#fafafa",
	styles.FontFamily:      "sans-serif",
}

var errorBoxStyle = styles.Props{
	styles.MaxWidth:  "32rem",
	styles.Padding:   "2rem",
	styles.TextAlign: "center",
}

var mutedStyle = styles.Props{
	styles.Color:    "#9aa0a6",
	styles.FontSize: "0.875rem",
}

// ErrorPage builds a standalone HTML document describing err. It does not depend on the
// page templates so it can be served even when rendering is what failed.
func ErrorPage(err Error) *elem.Element {
	title := strconv.Itoa(err.Status) + " " + http.StatusText(err.Status)
	box := []elem.Node{
		elem.H1(nil, elem.Text(title)),
		elem.P(nil, elem.Text(err.Message)),
		elem.P(nil, elem.A(attrs.Props{attrs.Href: "/"}, elem.Text("Back to the dashboard"))),
	}
	if err.RequestID != "" {
		box = append(box, elem.P(attrs.Props{attrs.Style: mutedStyle.ToInline()},
			elem.Text("Request ID: "+err.RequestID)))
	}

	return elem.Html(attrs.Props{attrs.Lang: "en"},
		elem.Head(nil,
			elem.Meta(attrs.Props{attrs.Charset: "UTF-8"}),
			elem.Meta(attrs.Props{attrs.Name: "viewport", attrs.Content: "width=device-width, initial-scale=1.0"}),
			elem.Meta(attrs.Props{attrs.Name: "robots", attrs.Content: "noindex"}),
			elem.Title(nil, elem.Text(title)),
		),
		elem.Body(attrs.Props{attrs.Style: errorBodyStyle.ToInline()},
			elem.Div(attrs.Props{attrs.Class: "error", attrs.Style: errorBoxStyle.ToInline()}, box...),
		),
	)
}

// WriteHTMLError writes err as a standalone HTML page.
func WriteHTMLError(ctx context.Context, w http.ResponseWriter, err Error) {
	err = err.withContext(ctx)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(err.Status)
	_, _ = w.Write([]byte(ErrorPage(err).Render()))
}
