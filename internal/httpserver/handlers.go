package httpserver

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/mrbrightsides/sentinel/internal/httpx"
	"github.com/mrbrightsides/sentinel/internal/page"
	"github.com/mrbrightsides/sentinel/internal/probe"
	"github.com/mrbrightsides/sentinel/internal/render"
	"github.com/mrbrightsides/sentinel/internal/requestctx"
)

type handlers struct {
	renderer   *render.Renderer
	pages      *page.Store
	probe      *probe.Client
	instanceID string
	startedAt  time.Time
	now        func() time.Time
}

func (h *handlers) page(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	started := time.Now()
	out, err := h.renderer.Render(ctx, h.pages.Load())
	pageRenderDuration.Observe(time.Since(started).Seconds())
	if err != nil {
		pageRenders.WithLabelValues("error").Inc()
		requestctx.Logger(ctx).Error("render page", zap.Error(err))
		httpx.WriteError(w, r, httpx.Internal())
		return
	}
	pageRenders.WithLabelValues("ok").Inc()
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(out.HTML)
}

type healthResponse struct {
	Status    string `json:"status"`
	Instance  string `json:"instance"`
	Uptime    string `json:"uptime"`
	Timestamp string `json:"timestamp"`
}

func (h *handlers) health(w http.ResponseWriter, _ *http.Request) {
	now := h.now()
	httpx.WriteJSON(w, http.StatusOK, healthResponse{
		Status:    "ok",
		Instance:  h.instanceID,
		Uptime:    now.Sub(h.startedAt).Round(time.Second).String(),
		Timestamp: now.UTC().Format(time.RFC3339),
	})
}

func (h *handlers) embedStatus(w http.ResponseWriter, r *http.Request) {
	if h.probe == nil {
		httpx.WriteError(w, r, httpx.NotFound())
		return
	}
	ctx := r.Context()
	report := h.probe.Check(ctx, h.pages.Load().Embed.SourceURL)
	verdict := "embeddable"
	if failure, ok := report.Failure(); ok {
		verdict = "blocked"
		requestctx.Logger(ctx).Warn("embed may not display",
			zap.String("url", failure.URL),
			zap.String("reason", failure.Reason),
			zap.Int("status_code", report.StatusCode),
			zap.NamedError("cause", failure.Err),
		)
	}
	embedProbes.WithLabelValues(verdict).Inc()
	httpx.WriteJSON(w, http.StatusOK, report)
}
