package page

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const samplePage = `
metadata:
  title: Sentinel Staging
  layout: centered
embed:
  url: https://staging.sentinel.example.com/
  height: 640
  mode: strict
  sandbox: [allow-scripts]
sidebar:
  - image: https://cdn.example.com/logo.png
    alt: Staging
    full_width: false
  - divider: true
  - markdown: |
      Built by [the team](https://github.com/mrbrightsides/sentinel)
`

func TestDecodeMergesOverBase(t *testing.T) {
	t.Parallel()

	cfg, err := Decode(strings.NewReader(samplePage), DefaultConfig())
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	require.Equal(t, "Sentinel Staging", cfg.Metadata.Title)
	require.Equal(t, DefaultIcon, cfg.Metadata.Icon)
	require.Equal(t, LayoutCentered, cfg.Metadata.Layout)
	require.Equal(t, "https://staging.sentinel.example.com/", cfg.Embed.SourceURL)
	require.Equal(t, 640, cfg.Embed.HeightPx)
	require.Equal(t, EmbedStrict, cfg.Embed.Mode)
	require.Equal(t, []string{"allow-scripts"}, cfg.Embed.Sandbox)
	require.Equal(t, DefaultEmbedTitle, cfg.Embed.Title)

	require.Len(t, cfg.Sidebar.Blocks, 3)
	require.Equal(t, SidebarBlock{Kind: BlockImage, URL: "https://cdn.example.com/logo.png", Alt: "Staging"}, cfg.Sidebar.Blocks[0])
	require.Equal(t, BlockDivider, cfg.Sidebar.Blocks[1].Kind)
	require.Equal(t, BlockMarkdown, cfg.Sidebar.Blocks[2].Kind)
	require.Contains(t, cfg.Sidebar.Blocks[2].Source, "[the team]")
}

func TestDecodeEmptyKeepsBase(t *testing.T) {
	t.Parallel()

	cfg, err := Decode(strings.NewReader(""), DefaultConfig())
	require.NoError(t, err)
	require.Equal(t, DefaultConfig(), cfg)
}

func TestDecodeImageDefaultsToFullWidth(t *testing.T) {
	t.Parallel()

	cfg, err := Decode(strings.NewReader("sidebar:\n  - image: https://cdn.example.com/a.png\n"), DefaultConfig())
	require.NoError(t, err)
	require.True(t, cfg.Sidebar.Blocks[0].FullWidth)
}

func TestDecodeRejectsUnknownKeys(t *testing.T) {
	t.Parallel()

	_, err := Decode(strings.NewReader("metadata:\n  tittle: typo\n"), DefaultConfig())
	require.Error(t, err)
	require.Contains(t, err.Error(), "tittle")
}

func TestDecodeRejectsAmbiguousBlocks(t *testing.T) {
	t.Parallel()

	src := "sidebar:\n  - image: https://cdn.example.com/a.png\n    markdown: hi\n  - alt: nothing\n"
	_, err := Decode(strings.NewReader(src), DefaultConfig())
	var cfgErr *ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	require.Equal(t, []string{"Sidebar.Blocks[0]", "Sidebar.Blocks[1]"}, cfgErr.Fields())
}

func TestDecodeDoesNotMutateBase(t *testing.T) {
	t.Parallel()

	base := DefaultConfig()
	_, err := Decode(strings.NewReader("embed:\n  sandbox: []\n"), base)
	require.NoError(t, err)
	require.Equal(t, DefaultSandbox, base.Embed.Sandbox)
}

func TestLoadFileWrapsErrors(t *testing.T) {
	t.Parallel()

	_, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml"), DefaultConfig())
	require.ErrorIs(t, err, os.ErrNotExist)

	path := filepath.Join(t.TempDir(), "page.yaml")
	require.NoError(t, os.WriteFile(path, []byte("metadata: ["), 0o600))
	_, err = LoadFile(path, DefaultConfig())
	require.Error(t, err)
	require.Contains(t, err.Error(), "page: parse")
}

func TestStoreSwapIsolatesSnapshots(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	store := NewStore(cfg)
	cfg.Metadata.Title = "mutated"
	require.Equal(t, DefaultTitle, store.Load().Metadata.Title)

	next := DefaultConfig()
	next.Metadata.Title = "Next"
	store.Swap(next)
	require.Equal(t, "Next", store.Load().Metadata.Title)
}

func TestWatcherReloadsValidEdits(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "page.yaml")
	require.NoError(t, os.WriteFile(path, []byte("metadata:\n  title: First\n"), 0o600))

	base := DefaultConfig()
	initial, err := LoadFile(path, base)
	require.NoError(t, err)
	store := NewStore(initial)

	var mu sync.Mutex
	var reloadErrs []error
	w, err := Watch(path, base, store, func(_ Config, err error) {
		mu.Lock()
		defer mu.Unlock()
		reloadErrs = append(reloadErrs, err)
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Close() })

	require.NoError(t, os.WriteFile(path, []byte("metadata:\n  title: Second\n"), 0o600))
	require.Eventually(t, func() bool {
		return store.Load().Metadata.Title == "Second"
	}, 5*time.Second, 20*time.Millisecond)

	require.NoError(t, os.WriteFile(path, []byte("metadata:\n  layout: sideways\n"), 0o600))
	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(reloadErrs) > 0 && reloadErrs[len(reloadErrs)-1] != nil
	}, 5*time.Second, 20*time.Millisecond)
	require.Equal(t, "Second", store.Load().Metadata.Title)

	require.NoError(t, w.Close())
	require.NoError(t, w.Close())
}
