package site

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Stylesheet returns the placeholder css/styles.css content.
func Stylesheet(styleCount int, generated time.Time) string {
	lines := []string{
		"/* Static Export Styles */",
		"/* Generated: " + generated.UTC().Format(time.RFC3339) + " */",
		"",
		"/* Base styles */",
		"* { box-sizing: border-box; margin: 0; padding: 0; }",
		"body { font-family: system-ui, -apple-system, sans-serif; }",
		"",
		fmt.Sprintf("/* Total styles in project: %d */", styleCount),
		"/* For complete styles, use the Webstudio CLI */",
	}
	return strings.Join(lines, "\n")
}

// ManifestEntry is one element of assets/manifest.json.
type ManifestEntry struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Type string `json:"type"`
}

// Manifest returns assets/manifest.json as an indented JSON array.
func Manifest(assets []Asset) ([]byte, error) {
	entries := make([]ManifestEntry, 0, len(assets))
	for _, a := range assets {
		entries = append(entries, ManifestEntry(a))
	}
	return jsonIndent(entries)
}

// BuildInfo is the content of build-info.json.
type BuildInfo struct {
	BuildID       string   `json:"buildId"`
	ProjectID     string   `json:"projectId"`
	Version       int      `json:"version"`
	CreatedAt     string   `json:"createdAt"`
	ExportedAt    string   `json:"exportedAt"`
	PagesCount    int      `json:"pagesCount"`
	PagesExported int      `json:"pagesExported"`
	SkippedRoutes []string `json:"skippedRoutes"`
	AssetsCount   int      `json:"assetsCount"`
	StylesCount   int      `json:"stylesCount"`
}

// NewBuildInfo summarises data and plan. PagesCount counts every page,
// wildcard routes included.
func NewBuildInfo(data *BuildData, plan *Plan, exportedAt time.Time) BuildInfo {
	skipped := plan.Skipped
	if skipped == nil {
		skipped = []string{}
	}
	return BuildInfo{
		BuildID:       data.Build.ID,
		ProjectID:     data.Build.ProjectID,
		Version:       data.Build.Version,
		CreatedAt:     data.Build.CreatedAt,
		ExportedAt:    exportedAt.UTC().Format(time.RFC3339Nano),
		PagesCount:    len(data.Pages),
		PagesExported: len(plan.Pages),
		SkippedRoutes: skipped,
		AssetsCount:   len(data.Assets),
		StylesCount:   len(data.Styles),
	}
}

// Readme returns README.md for the bundle root.
func Readme(generated time.Time) string {
	var b strings.Builder
	b.WriteString("# Static Export\n\n")
	b.WriteString("This is a static export of your Webstudio project.\n\n")
	b.WriteString("## Structure\n")
	b.WriteString("- `index.html` - Main page\n")
	b.WriteString("- `<route>/index.html` - One folder per page route\n")
	b.WriteString("- `css/styles.css` - Generated styles\n")
	b.WriteString("- `assets/` - Asset manifest and files\n")
	b.WriteString("- `build-info.json` - Build metadata\n\n")
	b.WriteString("## Deployment\n")
	b.WriteString("Upload the contents of this folder to any static hosting service:\n")
	for _, host := range []string{"Netlify", "Vercel", "GitHub Pages", "Cloudflare Pages", "Any web server"} {
		b.WriteString("- " + host + "\n")
	}
	b.WriteString("\n## Full Static Site Generation\n")
	b.WriteString("For a complete static site with all components and interactivity,\n")
	b.WriteString("use the Webstudio CLI:\n\n")
	b.WriteString("```bash\nnpx webstudio link\nnpx webstudio sync\n" + fullBuildCommand + "\n```\n\n")
	b.WriteString("## Generated\n")
	b.WriteString(generated.UTC().Format(time.RFC3339) + "\n")
	return b.String()
}

func jsonIndent(v any) ([]byte, error) {
	return json.MarshalIndent(v, "", "  ")
}
