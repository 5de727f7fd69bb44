package site

import (
	"encoding/json"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ramosdalrymple-afk/autobuilder-suite-v2/internal/config"
	"github.com/ramosdalrymple-afk/autobuilder-suite-v2/internal/foundation/errors"
)

var fixedNow = time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)

func sampleData() *BuildData {
	return &BuildData{
		Build: Build{ID: "build-1", ProjectID: "proj-1", Version: 7, CreatedAt: "2026-03-01T00:00:00Z"},
		Pages: Pages{
			{ID: "home", Name: "Home", Path: "/", Meta: PageMeta{Description: "Welcome"}},
			{ID: "contact", Name: "Contact", Path: "/contact"},
		},
		Assets: []Asset{{ID: "a1", Name: "logo.png", Type: "image"}, {ID: "a2", Name: "font.woff2", Type: "font"}, {ID: "a3", Name: "hero.jpg", Type: "image"}},
		Styles: []StyleRule{{Property: "color"}, {Property: "margin"}},
	}
}

func listFiles(t *testing.T, root string) []string {
	t.Helper()
	var files []string
	err := filepath.WalkDir(root, func(p string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		rel, _ := filepath.Rel(root, p)
		files = append(files, filepath.ToSlash(rel))
		return nil
	})
	require.NoError(t, err)
	sort.Strings(files)
	return files
}

func TestRender_TwoPagesThreeAssets(t *testing.T) {
	out := t.TempDir()
	r := NewRenderer(config.CollisionSuffix, WithClock(func() time.Time { return fixedNow }))

	report, err := r.Render(sampleData(), out)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"README.md",
		"assets/manifest.json",
		"build-info.json",
		"contact/index.html",
		"css/styles.css",
		"index.html",
	}, listFiles(t, out))
	assert.Len(t, report.Files, 6)

	var manifest []ManifestEntry
	raw, err := os.ReadFile(filepath.Join(out, "assets", "manifest.json"))
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, &manifest))
	assert.Len(t, manifest, 3)
	assert.Contains(t, string(raw), "\n  {\n    \"id\": \"a1\"")

	var info BuildInfo
	raw, err = os.ReadFile(filepath.Join(out, "build-info.json"))
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, &info))
	assert.Equal(t, 2, info.PagesCount)
	assert.Equal(t, 2, info.PagesExported)
	assert.Equal(t, 3, info.AssetsCount)
	assert.Equal(t, 2, info.StylesCount)
	assert.Equal(t, "build-1", info.BuildID)
	assert.Equal(t, "proj-1", info.ProjectID)
	assert.Equal(t, 7, info.Version)
	assert.Equal(t, "2026-03-04T05:06:07Z", info.ExportedAt)
	assert.Empty(t, info.SkippedRoutes)

	css, err := os.ReadFile(filepath.Join(out, "css", "styles.css"))
	require.NoError(t, err)
	assert.Contains(t, string(css), "Total styles in project: 2")
	assert.Contains(t, string(css), "Generated: 2026-03-04T05:06:07Z")

	home, err := os.ReadFile(filepath.Join(out, "index.html"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(home), "<!DOCTYPE html>"))
	assert.Contains(t, string(home), "<title>Home</title>")
	assert.Contains(t, string(home), "<p>Welcome</p>")
	assert.Contains(t, string(home), `href="/css/styles.css"`)

	readme, err := os.ReadFile(filepath.Join(out, "README.md"))
	require.NoError(t, err)
	assert.Contains(t, string(readme), "## Deployment")
}

func TestRender_WildcardsAreCountedButNotWritten(t *testing.T) {
	out := t.TempDir()
	data := sampleData()
	data.Pages = append(data.Pages, Page{ID: "blog", Name: "Blog", Path: "/blog/*"})

	report, err := NewRenderer("").Render(data, out)
	require.NoError(t, err)
	assert.Equal(t, []string{"/blog/*"}, report.Skipped)
	assert.Equal(t, 3, report.BuildInfo.PagesCount)
	assert.Equal(t, 2, report.BuildInfo.PagesExported)
	assert.NoDirExists(t, filepath.Join(out, "blog"))
}

func TestRender_ZeroPages(t *testing.T) {
	out := t.TempDir()
	data := sampleData()
	data.Pages = nil
	data.Assets = nil

	_, err := NewRenderer(config.CollisionSuffix).Render(data, out)
	require.NoError(t, err)
	assert.Equal(t, []string{"README.md", "assets/manifest.json", "build-info.json", "css/styles.css"}, listFiles(t, out))

	raw, err := os.ReadFile(filepath.Join(out, "assets", "manifest.json"))
	require.NoError(t, err)
	assert.Equal(t, "[]", string(raw))
}

func TestRender_EscapesPageText(t *testing.T) {
	out := t.TempDir()
	data := sampleData()
	data.Pages = Pages{{Path: "/", Meta: PageMeta{Title: `<script>alert("x")</script>`, Description: `a "quoted" & <b>bold</b>`}}}

	_, err := NewRenderer(config.CollisionSuffix).Render(data, out)
	require.NoError(t, err)

	home, err := os.ReadFile(filepath.Join(out, "index.html"))
	require.NoError(t, err)
	assert.NotContains(t, string(home), "<script>")
	assert.NotContains(t, string(home), "<b>bold</b>")
	assert.Contains(t, string(home), "&lt;script&gt;")
	assert.Contains(t, string(home), "&amp;")
}

func TestRender_CollisionFailIsValidationError(t *testing.T) {
	data := sampleData()
	data.Pages = Pages{{Path: "/x"}, {Path: "/x/"}}

	_, err := NewRenderer(config.CollisionFail).Render(data, t.TempDir())
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryValidation))
}

func TestRender_FilesystemFailureIsRenderError(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "not-a-dir")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o600))

	_, err := NewRenderer(config.CollisionSuffix).Render(sampleData(), blocker)
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryRender))
}

func TestPageTitleFallbacks(t *testing.T) {
	assert.Equal(t, "Meta", PageTitle(Page{Name: "Name", Meta: PageMeta{Title: "Meta"}}))
	assert.Equal(t, "Name", PageTitle(Page{Name: "Name"}))
	assert.Equal(t, "Untitled Page", PageTitle(Page{}))
}

func TestRender_RoutesShadowingBundleFiles(t *testing.T) {
	out := t.TempDir()
	data := sampleData()
	data.Pages = Pages{{Path: "/"}, {Path: "/build-info.json"}, {Path: "/css/styles.css"}, {Path: "/index.html"}}

	report, err := NewRenderer(config.CollisionSuffix).Render(data, out)
	require.NoError(t, err)
	require.Len(t, report.Pages, 4)

	for _, f := range []string{"index.html", BuildInfoFile, StylesheetFile, ManifestFile, ReadmeFile} {
		info, err := os.Stat(filepath.Join(out, filepath.FromSlash(f)))
		require.NoError(t, err, f)
		assert.True(t, info.Mode().IsRegular(), f)
	}

	pages := 0
	for _, f := range listFiles(t, out) {
		if path.Base(f) == "index.html" {
			pages++
		}
	}
	assert.Equal(t, 4, pages)
}
