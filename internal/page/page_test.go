package page

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultConfigIsValid(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	require.Equal(t, "RANTAI Sentinel", cfg.Metadata.Title)
	require.Equal(t, "🛡️", cfg.Metadata.Icon)
	require.Equal(t, LayoutWide, cfg.Metadata.Layout)
	require.Equal(t, "https://sentinel.elpeef.com/", cfg.Embed.SourceURL)
	require.Equal(t, 900, cfg.Embed.HeightPx)
	require.Equal(t, EmbedPermissive, cfg.Embed.Mode)

	require.Len(t, cfg.Sidebar.Blocks, 3)
	require.Equal(t, BlockImage, cfg.Sidebar.Blocks[0].Kind)
	require.Equal(t, "https://i.imgur.com/Rd8GyFU.png", cfg.Sidebar.Blocks[0].URL)
	require.Equal(t, "📘 **About**", cfg.Sidebar.Blocks[1].Source)
	require.Contains(t, cfg.Sidebar.Blocks[2].Source, "https://github.com/mrbrightsides/sentinel")
	require.True(t, strings.HasSuffix(cfg.Sidebar.Blocks[2].Source, "\n\nVersi UI: v1.0 • Streamlit • Theme Dark\n"))
	require.Contains(t, cfg.Sidebar.Blocks[2].Source, "- Dukung pengembangan proyek ini melalui: \n  [💖 GitHub Sponsors](https://github.com/sponsors/mrbrightsides) • \n")
}

func TestDefaultConfigReturnsFreshSlices(t *testing.T) {
	t.Parallel()

	a := DefaultConfig()
	a.Sidebar.Blocks[0].URL = "https://changed.example.com/"
	a.Embed.Sandbox[0] = "allow-modals"

	b := DefaultConfig()
	require.Equal(t, DefaultLogoURL, b.Sidebar.Blocks[0].URL)
	require.Equal(t, "allow-scripts", b.Embed.Sandbox[0])
}

func TestParseLayout(t *testing.T) {
	t.Parallel()

	got, err := ParseLayout(" Centered ")
	require.NoError(t, err)
	require.Equal(t, LayoutCentered, got)

	_, err = ParseLayout("")
	require.Error(t, err)
	_, err = ParseLayout("sideways")
	require.Error(t, err)
}

func TestParseEmbedMode(t *testing.T) {
	t.Parallel()

	got, err := ParseEmbedMode("")
	require.NoError(t, err)
	require.Equal(t, EmbedPermissive, got)

	got, err = ParseEmbedMode("STRICT")
	require.NoError(t, err)
	require.Equal(t, EmbedStrict, got)

	_, err = ParseEmbedMode("paranoid")
	require.Error(t, err)
}

func TestValidateCollectsEveryProblem(t *testing.T) {
	t.Parallel()

	cfg := Config{
		Metadata: Metadata{Layout: "sideways", Lang: "not_a_tag!"},
		Sidebar: SidebarContent{Blocks: []SidebarBlock{
			{Kind: BlockImage},
			{Kind: BlockMarkdown, Source: "  "},
			{Kind: "video"},
		}},
		Embed: EmbedSpec{HeightPx: -10, Mode: "paranoid"},
	}

	err := cfg.Validate()
	var cfgErr *ConfigurationError
	require.True(t, errors.As(err, &cfgErr))
	require.Equal(t, []string{
		"Metadata.Title",
		"Metadata.Icon",
		"Metadata.Layout",
		"Metadata.Lang",
		"Sidebar.Blocks[0].URL",
		"Sidebar.Blocks[1].Source",
		"Sidebar.Blocks[2].Kind",
		"Embed.Mode",
		"Embed.HeightPx",
		"Embed.SourceURL",
	}, cfgErr.Fields())
	require.Contains(t, err.Error(), "page configuration invalid: Metadata.Title: must not be empty")
}

func TestValidatePermissiveAllowsAnyURL(t *testing.T) {
	t.Parallel()

	for _, raw := range []string{"http://plain.example.com/", "::not a url::", "ftp://files.example.com"} {
		cfg := DefaultConfig()
		cfg.Embed.SourceURL = raw
		require.NoError(t, cfg.Validate(), raw)
	}
}

func TestValidateStrictMode(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.Embed.Mode = EmbedStrict
	require.NoError(t, cfg.Validate())

	cfg.Embed.SourceURL = "http://plain.example.com/"
	cfg.Embed.Sandbox = []string{"allow-scripts", "allow-everything"}
	var cfgErr *ConfigurationError
	require.ErrorAs(t, cfg.Validate(), &cfgErr)
	require.Equal(t, []string{"Embed.SourceURL", "Embed.Sandbox"}, cfgErr.Fields())
}

func TestValidateFrameURL(t *testing.T) {
	t.Parallel()

	require.NoError(t, ValidateFrameURL("https://sentinel.elpeef.com/"))
	for _, raw := range []string{"http://sentinel.elpeef.com/", "sentinel.elpeef.com", "/embed", "https://"} {
		var cfgErr *ConfigurationError
		require.ErrorAs(t, ValidateFrameURL(raw), &cfgErr, raw)
	}
}

func TestEmbedOrigin(t *testing.T) {
	t.Parallel()

	require.Equal(t, "https://sentinel.elpeef.com", EmbedSpec{SourceURL: "https://sentinel.elpeef.com/path?q=1"}.Origin())
	require.Equal(t, "", EmbedSpec{SourceURL: "relative"}.Origin())
}

func TestMetadataIconIsURL(t *testing.T) {
	t.Parallel()

	require.False(t, Metadata{Icon: "🛡️"}.IconIsURL())
	require.True(t, Metadata{Icon: "https://example.com/favicon.png"}.IconIsURL())
}

func TestResourceLoadFailureUnwraps(t *testing.T) {
	t.Parallel()

	cause := errors.New("connection refused")
	err := error(&ResourceLoadFailure{Resource: ResourceEmbed, URL: "https://x.example.com/", Reason: "unreachable", Err: cause})
	require.ErrorIs(t, err, cause)
	require.Equal(t, "embed https://x.example.com/: unreachable: connection refused", err.Error())
}
