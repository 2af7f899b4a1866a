package config

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/mrbrightsides/sentinel/internal/page"
)

const (
	defaultEnvFile         = ".env"
	defaultPort            = "8080"
	defaultReadTimeout     = 15 * time.Second
	defaultWriteTimeout    = 15 * time.Second
	defaultIdleTimeout     = 60 * time.Second
	defaultShutdownTimeout = 10 * time.Second
	defaultEnvironment     = "local"
	defaultLogLevel        = "info"
	defaultProbeTimeout    = 5 * time.Second
	defaultProbeCacheTTL   = 5 * time.Minute
)

// Config captures all runtime configuration organised by concern.
type Config struct {
	Environment string
	Dev         bool
	LogLevel    string
	Server      ServerConfig
	Probe       ProbeConfig
	// PublicOrigin is the externally visible scheme://host of the page, if known.
	PublicOrigin string
	// PageFile is the optional YAML page definition.
	PageFile string
	// PageBase is the built-in page with environment overrides applied. The page file is
	// merged over it, both at startup and on every dev-mode reload.
	PageBase page.Config
	// Page is the validated page served to clients.
	Page page.Config
}

// ServerConfig configures HTTP server parameters.
type ServerConfig struct {
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// Addr returns the listen address.
func (s ServerConfig) Addr() string {
	return ":" + s.Port
}

// ProbeConfig controls the embed reachability probe.
type ProbeConfig struct {
	Enabled  bool
	Timeout  time.Duration
	CacheTTL time.Duration
}

// ValidationError is returned when configuration fields are missing or invalid. Page
// problems are carried as a *page.ConfigurationError reachable through errors.As.
type ValidationError struct {
	fields []string
	page   *page.ConfigurationError
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("config validation failed: missing or invalid fields [%s]", strings.Join(e.Fields(), ", "))
}

// Fields returns a copy of the missing/invalid field list, page fields last.
func (e *ValidationError) Fields() []string {
	out := make([]string, len(e.fields))
	copy(out, e.fields)
	if e.page != nil {
		out = append(out, e.page.Fields()...)
	}
	return out
}

// Unwrap exposes the page configuration error, if any.
func (e *ValidationError) Unwrap() error {
	if e.page == nil {
		return nil
	}
	return e.page
}

// Option customises Load behaviour.
type Option func(*loaderOptions)

type loaderOptions struct {
	envFile      string
	envMap       map[string]string
	useSystemEnv bool
}

// WithEnvFile overrides the .env file path used for local overrides.
func WithEnvFile(path string) Option {
	return func(o *loaderOptions) {
		o.envFile = path
	}
}

// WithEnvMap injects an explicit key/value map for environment lookups. Values in the map
// take precedence over system environment variables. Repeated options merge, later keys win.
func WithEnvMap(values map[string]string) Option {
	return func(o *loaderOptions) {
		if len(values) == 0 {
			return
		}
		if o.envMap == nil {
			o.envMap = make(map[string]string, len(values))
		}
		for k, v := range values {
			o.envMap[k] = v
		}
	}
}

// WithoutSystemEnv disables reading from os.Getenv, relying only on provided maps and .env files.
func WithoutSystemEnv() Option {
	return func(o *loaderOptions) {
		o.useSystemEnv = false
	}
}

// Load assembles the configuration by combining defaults, .env overrides, environment
// variables and the optional page file, then validates the resulting page.
func Load(opts ...Option) (Config, error) {
	options := loaderOptions{
		envFile:      defaultEnvFile,
		useSystemEnv: true,
	}
	for _, opt := range opts {
		opt(&options)
	}

	dotEnvValues, err := loadDotEnv(options.envFile)
	if err != nil {
		return Config{}, err
	}

	lookup := func(key string) (string, bool) {
		if options.envMap != nil {
			if value, ok := options.envMap[key]; ok {
				return value, true
			}
		}
		if options.useSystemEnv {
			if value, ok := os.LookupEnv(key); ok {
				return value, true
			}
		}
		if dotEnvValues != nil {
			if value, ok := dotEnvValues[key]; ok {
				return value, true
			}
		}
		return "", false
	}

	cfg := Config{
		Environment: strings.ToLower(stringWithDefault(lookup, "SENTINEL_ENV", defaultEnvironment)),
		Dev:         boolWithDefault(lookup, "SENTINEL_DEV", false),
		LogLevel:    strings.ToLower(stringWithDefault(lookup, "LOG_LEVEL", defaultLogLevel)),
		Server: ServerConfig{
			Port:            stringWithDefault(lookup, "SENTINEL_SERVER_PORT", stringWithDefault(lookup, "PORT", defaultPort)),
			ReadTimeout:     durationWithDefault(lookup, "SENTINEL_SERVER_READ_TIMEOUT", defaultReadTimeout),
			WriteTimeout:    durationWithDefault(lookup, "SENTINEL_SERVER_WRITE_TIMEOUT", defaultWriteTimeout),
			IdleTimeout:     durationWithDefault(lookup, "SENTINEL_SERVER_IDLE_TIMEOUT", defaultIdleTimeout),
			ShutdownTimeout: durationWithDefault(lookup, "SENTINEL_SERVER_SHUTDOWN_TIMEOUT", defaultShutdownTimeout),
		},
		Probe: ProbeConfig{
			Enabled:  boolWithDefault(lookup, "SENTINEL_PROBE_ENABLED", false),
			Timeout:  durationWithDefault(lookup, "SENTINEL_PROBE_TIMEOUT", defaultProbeTimeout),
			CacheTTL: durationWithDefault(lookup, "SENTINEL_PROBE_CACHE_TTL", defaultProbeCacheTTL),
		},
		PublicOrigin: strings.TrimRight(stringWithDefault(lookup, "SENTINEL_PUBLIC_ORIGIN", ""), "/"),
		PageFile:     stringWithDefault(lookup, "SENTINEL_PAGE_FILE", ""),
	}

	var invalid []string
	base, bad := pageOverrides(lookup, page.DefaultConfig())
	invalid = append(invalid, bad...)
	invalid = append(invalid, validateConfig(cfg)...)
	cfg.PageBase = base

	pageCfg := base.Clone()
	if cfg.PageFile != "" {
		loaded, err := page.LoadFile(cfg.PageFile, base)
		if err != nil {
			var cfgErr *page.ConfigurationError
			if errors.As(err, &cfgErr) {
				return Config{}, &ValidationError{fields: invalid, page: cfgErr}
			}
			return Config{}, fmt.Errorf("config: %w", err)
		}
		pageCfg = loaded
	}

	var pageErr *page.ConfigurationError
	if err := pageCfg.Validate(); err != nil {
		if !errors.As(err, &pageErr) {
			return Config{}, err
		}
	}
	if len(invalid) > 0 || pageErr != nil {
		return Config{}, &ValidationError{fields: invalid, page: pageErr}
	}
	cfg.Page = pageCfg
	return cfg, nil
}

// pageOverrides applies SENTINEL_PAGE_* and SENTINEL_EMBED_* to base. It returns the names
// of variables whose values could not be parsed.
func pageOverrides(lookup func(string) (string, bool), base page.Config) (page.Config, []string) {
	var invalid []string
	md := &base.Metadata
	md.Title = stringWithDefault(lookup, "SENTINEL_PAGE_TITLE", md.Title)
	md.Icon = stringWithDefault(lookup, "SENTINEL_PAGE_ICON", md.Icon)
	md.Lang = stringWithDefault(lookup, "SENTINEL_PAGE_LANG", md.Lang)
	md.Description = stringWithDefault(lookup, "SENTINEL_PAGE_DESCRIPTION", md.Description)
	if v, ok := lookup("SENTINEL_PAGE_LAYOUT"); ok && strings.TrimSpace(v) != "" {
		layout, err := page.ParseLayout(v)
		if err != nil {
			invalid = append(invalid, "SENTINEL_PAGE_LAYOUT")
		} else {
			md.Layout = layout
		}
	}

	em := &base.Embed
	em.SourceURL = stringWithDefault(lookup, "SENTINEL_EMBED_URL", em.SourceURL)
	em.Title = stringWithDefault(lookup, "SENTINEL_EMBED_TITLE", em.Title)
	if v, ok := lookup("SENTINEL_EMBED_HEIGHT"); ok && strings.TrimSpace(v) != "" {
		h, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil || h <= 0 {
			invalid = append(invalid, "SENTINEL_EMBED_HEIGHT")
		} else {
			em.HeightPx = h
		}
	}
	if v, ok := lookup("SENTINEL_EMBED_MODE"); ok && strings.TrimSpace(v) != "" {
		mode, err := page.ParseEmbedMode(v)
		if err != nil {
			invalid = append(invalid, "SENTINEL_EMBED_MODE")
		} else {
			em.Mode = mode
		}
	}
	return base, invalid
}

func validateConfig(cfg Config) []string {
	var missing []string

	if port, err := strconv.Atoi(cfg.Server.Port); err != nil || port < 0 || port > 65535 {
		missing = append(missing, "Server.Port")
	}
	if cfg.Server.ShutdownTimeout <= 0 {
		missing = append(missing, "Server.ShutdownTimeout")
	}
	if cfg.Probe.Enabled && cfg.Probe.Timeout <= 0 {
		missing = append(missing, "Probe.Timeout")
	}
	if cfg.PublicOrigin != "" && !strings.HasPrefix(cfg.PublicOrigin, "http://") && !strings.HasPrefix(cfg.PublicOrigin, "https://") {
		missing = append(missing, "PublicOrigin")
	}
	return missing
}

func loadDotEnv(path string) (map[string]string, error) {
	if path == "" {
		return nil, nil
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		absPath = path
	}

	file, err := os.Open(absPath)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("config: unable to read %s: %w", absPath, err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	values := make(map[string]string)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		line = strings.TrimSpace(strings.TrimPrefix(line, "export "))
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		values[key] = strings.Trim(strings.TrimSpace(value), "\"'")
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("config: failed parsing %s: %w", absPath, err)
	}
	return values, nil
}

func stringWithDefault(lookup func(string) (string, bool), key, fallback string) string {
	if value, ok := lookup(key); ok && strings.TrimSpace(value) != "" {
		return strings.TrimSpace(value)
	}
	return fallback
}

func durationWithDefault(lookup func(string) (string, bool), key string, fallback time.Duration) time.Duration {
	if value, ok := lookup(key); ok && value != "" {
		d, err := time.ParseDuration(value)
		if err == nil {
			return d
		}
	}
	return fallback
}

func boolWithDefault(lookup func(string) (string, bool), key string, fallback bool) bool {
	if value, ok := lookup(key); ok && value != "" {
		switch strings.ToLower(value) {
		case "true", "1", "yes", "on":
			return true
		case "false", "0", "no", "off":
			return false
		}
	}
	return fallback
}
