package config

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/mrbrightsides/sentinel/internal/page"
)

func TestLoadWithDefaults(t *testing.T) {
	cfg, err := Load(WithEnvMap(map[string]string{}), WithoutSystemEnv(), WithEnvFile(""))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Server.Port != "8080" {
		t.Errorf("expected default port 8080, got %s", cfg.Server.Port)
	}
	if cfg.Server.Addr() != ":8080" {
		t.Errorf("unexpected addr %s", cfg.Server.Addr())
	}
	if cfg.Server.ReadTimeout != 15*time.Second || cfg.Server.WriteTimeout != 15*time.Second {
		t.Errorf("unexpected read/write timeouts: %s/%s", cfg.Server.ReadTimeout, cfg.Server.WriteTimeout)
	}
	if cfg.Server.IdleTimeout != 60*time.Second {
		t.Errorf("unexpected idle timeout: %s", cfg.Server.IdleTimeout)
	}
	if cfg.Server.ShutdownTimeout != 10*time.Second {
		t.Errorf("unexpected shutdown timeout: %s", cfg.Server.ShutdownTimeout)
	}
	if cfg.Environment != "local" {
		t.Errorf("expected local environment, got %s", cfg.Environment)
	}
	if cfg.Dev {
		t.Error("expected dev mode off by default")
	}
	if cfg.LogLevel != "info" {
		t.Errorf("expected info log level, got %s", cfg.LogLevel)
	}
	if cfg.Probe.Enabled || cfg.Probe.Timeout != 5*time.Second || cfg.Probe.CacheTTL != 5*time.Minute {
		t.Errorf("unexpected probe defaults: %+v", cfg.Probe)
	}
	if !reflect.DeepEqual(cfg.Page, page.DefaultConfig()) {
		t.Errorf("expected built-in page, got %+v", cfg.Page)
	}
	if !reflect.DeepEqual(cfg.PageBase, cfg.Page) {
		t.Error("expected page base to equal page when no file is configured")
	}
}

func TestLoadWithOverrides(t *testing.T) {
	env := map[string]string{
		"SENTINEL_SERVER_PORT":             "9090",
		"SENTINEL_SERVER_READ_TIMEOUT":     "20s",
		"SENTINEL_SERVER_SHUTDOWN_TIMEOUT": "3s",
		"SENTINEL_ENV":                     "Production",
		"SENTINEL_DEV":                     "yes",
		"SENTINEL_PAGE_TITLE":              "Sentinel Staging",
		"SENTINEL_PAGE_LAYOUT":             "CENTERED",
		"SENTINEL_EMBED_URL":               "https://staging.example.com/",
		"SENTINEL_EMBED_HEIGHT":            "500",
		"SENTINEL_EMBED_MODE":              "strict",
		"SENTINEL_PUBLIC_ORIGIN":           "https://dash.example.com/",
		"SENTINEL_PROBE_ENABLED":           "true",
		"SENTINEL_PROBE_CACHE_TTL":         "1m",
		"LOG_LEVEL":                        "DEBUG",
	}

	cfg, err := Load(WithEnvMap(env), WithoutSystemEnv(), WithEnvFile(""))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Server.Port != "9090" {
		t.Errorf("expected port 9090, got %s", cfg.Server.Port)
	}
	if cfg.Server.ReadTimeout != 20*time.Second {
		t.Errorf("unexpected read timeout: %s", cfg.Server.ReadTimeout)
	}
	if cfg.Server.ShutdownTimeout != 3*time.Second {
		t.Errorf("unexpected shutdown timeout: %s", cfg.Server.ShutdownTimeout)
	}
	if cfg.Environment != "production" || !cfg.Dev || cfg.LogLevel != "debug" {
		t.Errorf("unexpected env/dev/log level: %s %v %s", cfg.Environment, cfg.Dev, cfg.LogLevel)
	}
	if cfg.PublicOrigin != "https://dash.example.com" {
		t.Errorf("expected trimmed public origin, got %s", cfg.PublicOrigin)
	}
	if !cfg.Probe.Enabled || cfg.Probe.CacheTTL != time.Minute {
		t.Errorf("unexpected probe config: %+v", cfg.Probe)
	}
	if cfg.Page.Metadata.Title != "Sentinel Staging" || cfg.Page.Metadata.Layout != page.LayoutCentered {
		t.Errorf("unexpected metadata: %+v", cfg.Page.Metadata)
	}
	if cfg.Page.Metadata.Icon != page.DefaultIcon {
		t.Errorf("expected default icon, got %s", cfg.Page.Metadata.Icon)
	}
	if cfg.Page.Embed.SourceURL != "https://staging.example.com/" || cfg.Page.Embed.HeightPx != 500 || cfg.Page.Embed.Mode != page.EmbedStrict {
		t.Errorf("unexpected embed: %+v", cfg.Page.Embed)
	}
}

func TestLoadPortFallback(t *testing.T) {
	cfg, err := Load(WithEnvMap(map[string]string{"PORT": "7000"}), WithoutSystemEnv(), WithEnvFile(""))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Server.Port != "7000" {
		t.Errorf("expected PORT fallback, got %s", cfg.Server.Port)
	}

	cfg, err = Load(WithEnvMap(map[string]string{"PORT": "7000", "SENTINEL_SERVER_PORT": "7001"}), WithoutSystemEnv(), WithEnvFile(""))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Server.Port != "7001" {
		t.Errorf("expected SENTINEL_SERVER_PORT to win, got %s", cfg.Server.Port)
	}
}

func TestLoadInvalidValues(t *testing.T) {
	env := map[string]string{
		"SENTINEL_SERVER_PORT":   "http",
		"SENTINEL_PAGE_LAYOUT":   "sideways",
		"SENTINEL_EMBED_HEIGHT":  "tall",
		"SENTINEL_PAGE_LANG":     "not_a_tag!",
		"SENTINEL_PUBLIC_ORIGIN": "dash.example.com",
	}

	_, err := Load(WithEnvMap(env), WithoutSystemEnv(), WithEnvFile(""))
	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	want := []string{"SENTINEL_PAGE_LAYOUT", "SENTINEL_EMBED_HEIGHT", "Server.Port", "PublicOrigin", "Metadata.Lang"}
	if !reflect.DeepEqual(vErr.Fields(), want) {
		t.Errorf("unexpected fields: %v", vErr.Fields())
	}

	var cfgErr *page.ConfigurationError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected page.ConfigurationError in chain, got %v", err)
	}
	if !reflect.DeepEqual(cfgErr.Fields(), []string{"Metadata.Lang"}) {
		t.Errorf("unexpected page fields: %v", cfgErr.Fields())
	}
}

func TestLoadStrictModeRejectsInsecureEmbed(t *testing.T) {
	env := map[string]string{
		"SENTINEL_EMBED_MODE": "strict",
		"SENTINEL_EMBED_URL":  "http://insecure.example.com/",
	}
	_, err := Load(WithEnvMap(env), WithoutSystemEnv(), WithEnvFile(""))
	var cfgErr *page.ConfigurationError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected ConfigurationError, got %v", err)
	}
	if !reflect.DeepEqual(cfgErr.Fields(), []string{"Embed.SourceURL"}) {
		t.Errorf("unexpected fields: %v", cfgErr.Fields())
	}
}

func TestLoadPageFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "page.yaml")
	content := "metadata:\n  title: From File\nembed:\n  height: 640\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write page file: %v", err)
	}

	env := map[string]string{
		"SENTINEL_PAGE_FILE":    path,
		"SENTINEL_PAGE_TITLE":   "From Env",
		"SENTINEL_EMBED_HEIGHT": "500",
		"SENTINEL_PAGE_ICON":    "https://example.com/icon.png",
	}
	cfg, err := Load(WithEnvMap(env), WithoutSystemEnv(), WithEnvFile(""))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Page.Metadata.Title != "From File" || cfg.Page.Embed.HeightPx != 640 {
		t.Errorf("expected page file values to win, got %+v", cfg.Page)
	}
	if cfg.Page.Metadata.Icon != "https://example.com/icon.png" {
		t.Errorf("expected env icon for key missing from file, got %s", cfg.Page.Metadata.Icon)
	}
	if cfg.PageBase.Metadata.Title != "From Env" {
		t.Errorf("expected page base to carry env override, got %s", cfg.PageBase.Metadata.Title)
	}
}

func TestLoadPageFileErrors(t *testing.T) {
	_, err := Load(WithEnvMap(map[string]string{"SENTINEL_PAGE_FILE": filepath.Join(t.TempDir(), "missing.yaml")}), WithoutSystemEnv(), WithEnvFile(""))
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected not-exist error, got %v", err)
	}

	path := filepath.Join(t.TempDir(), "page.yaml")
	if err := os.WriteFile(path, []byte("sidebar:\n  - alt: nothing\n"), 0o600); err != nil {
		t.Fatalf("write page file: %v", err)
	}
	_, err = Load(WithEnvMap(map[string]string{"SENTINEL_PAGE_FILE": path}), WithoutSystemEnv(), WithEnvFile(""))
	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if !reflect.DeepEqual(vErr.Fields(), []string{"Sidebar.Blocks[0]"}) {
		t.Errorf("unexpected fields: %v", vErr.Fields())
	}
}

func TestLoadDotEnvPrecedence(t *testing.T) {
	dir := t.TempDir()
	envPath := filepath.Join(dir, ".env")
	content := "# local overrides\nexport SENTINEL_SERVER_PORT=7070\nSENTINEL_PAGE_TITLE=\"Dotenv Title\"\nSENTINEL_EMBED_HEIGHT='700'\n"
	if err := os.WriteFile(envPath, []byte(content), 0o600); err != nil {
		t.Fatalf("write .env: %v", err)
	}

	cfg, err := Load(WithEnvFile(envPath), WithoutSystemEnv(), WithEnvMap(map[string]string{"SENTINEL_EMBED_HEIGHT": "800"}))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Server.Port != "7070" {
		t.Errorf("expected port from .env, got %s", cfg.Server.Port)
	}
	if cfg.Page.Metadata.Title != "Dotenv Title" {
		t.Errorf("expected unquoted title, got %q", cfg.Page.Metadata.Title)
	}
	if cfg.Page.Embed.HeightPx != 800 {
		t.Errorf("expected explicit map to beat .env, got %d", cfg.Page.Embed.HeightPx)
	}
}

func TestLoadSystemEnvBeatsDotEnv(t *testing.T) {
	dir := t.TempDir()
	envPath := filepath.Join(dir, ".env")
	if err := os.WriteFile(envPath, []byte("SENTINEL_ENV=from-file\n"), 0o600); err != nil {
		t.Fatalf("write .env: %v", err)
	}
	t.Setenv("SENTINEL_ENV", "from-system")

	cfg, err := Load(WithEnvFile(envPath))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Environment != "from-system" {
		t.Errorf("expected system env to beat .env, got %s", cfg.Environment)
	}
}
