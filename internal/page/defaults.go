package page

// Literal constants of the published Sentinel page.
const (
	DefaultTitle       = "RANTAI Sentinel"
	DefaultIcon        = "🛡️"
	DefaultLayout      = LayoutWide
	DefaultLang        = "en"
	DefaultDescription = "RANTAI Sentinel: automated ESG monitoring, predictions and reporting."
	DefaultLogoURL     = "https://i.imgur.com/Rd8GyFU.png"
	DefaultEmbedURL    = "https://sentinel.elpeef.com/"
	DefaultEmbedHeight = 900
	DefaultEmbedTitle  = "RANTAI Sentinel dashboard"
	RepositoryURL      = "https://github.com/mrbrightsides/sentinel"
)

// DefaultSandbox is applied to the frame in strict mode unless the page file overrides it.
var DefaultSandbox = []string{"allow-scripts", "allow-same-origin", "allow-forms", "allow-popups"}

const aboutHeading = "📘 **About**"

const aboutBody = `**RANTAI Sentinel** is comprehensive platform powered by OpenAI GPT-4 for automated ESG monitoring, predictions, and reporting with blockchain transparency, AI security, and real-time compliance intelligence.
---
#### 🔮 Vision Statement

To be number one ESG Management Platform in the world.

> The original version can be accessed here https://greenlend.elpeef.com/

---
### 🧩 Apps Showcase
Our other apps and tools can be seen here:
[ELPEEF](https://showcase.elpeef.com/)

---
#### 🙌 Support & Contribute

- ⭐ **Star / Fork**: [GitHub repo](https://github.com/mrbrightsides/sentinel)
- Built with 💙 by [Khudri](https://s.id/khudri)
- Dukung pengembangan proyek ini melalui: 
  [💖 GitHub Sponsors](https://github.com/sponsors/mrbrightsides) • 
  [☕ Ko-fi](https://ko-fi.com/khudri) • 
  [💵 PayPal](https://www.paypal.com/paypalme/akhmadkhudri) • 
  [🍵 Trakteer](https://trakteer.id/akhmad_khudri)

Versi UI: v1.0 • Streamlit • Theme Dark
`

// DefaultConfig returns the built-in page. Each call returns fresh slices.
func DefaultConfig() Config {
	return Config{
		Metadata: Metadata{
			Title:       DefaultTitle,
			Icon:        DefaultIcon,
			Layout:      DefaultLayout,
			Lang:        DefaultLang,
			Description: DefaultDescription,
		},
		Sidebar: SidebarContent{
			Blocks: []SidebarBlock{
				{Kind: BlockImage, URL: DefaultLogoURL, Alt: DefaultTitle, FullWidth: true},
				{Kind: BlockMarkdown, Source: aboutHeading},
				{Kind: BlockMarkdown, Source: aboutBody},
			},
		},
		Embed: EmbedSpec{
			SourceURL: DefaultEmbedURL,
			HeightPx:  DefaultEmbedHeight,
			Mode:      EmbedPermissive,
			Title:     DefaultEmbedTitle,
			Sandbox:   append([]string(nil), DefaultSandbox...),
		},
	}
}
