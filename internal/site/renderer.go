package site

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/ramosdalrymple-afk/autobuilder-suite-v2/internal/config"
	"github.com/ramosdalrymple-afk/autobuilder-suite-v2/internal/foundation/errors"
	"github.com/ramosdalrymple-afk/autobuilder-suite-v2/internal/logfields"
)

// Well-known files of every bundle, relative to the output directory.
const (
	StylesheetFile = "css/styles.css"
	ManifestFile   = "assets/manifest.json"
	BuildInfoFile  = "build-info.json"
	ReadmeFile     = "README.md"
)

// Renderer writes a BuildData snapshot as a static site tree.
type Renderer struct {
	policy config.CollisionPolicy
	now    func() time.Time
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithClock overrides the timestamp source (tests).
func WithClock(now func() time.Time) Option {
	return func(r *Renderer) { r.now = now }
}

// NewRenderer creates a renderer; an empty policy means CollisionSuffix.
func NewRenderer(policy config.CollisionPolicy, opts ...Option) *Renderer {
	if policy == "" {
		policy = config.CollisionSuffix
	}
	r := &Renderer{policy: policy, now: time.Now}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Report describes what Render wrote.
type Report struct {
	Pages     []PlannedPage
	Skipped   []string
	Files     []string // slash-separated, relative to the output directory
	BuildInfo BuildInfo
}

// Render writes the site for data into outputDir, which must exist.
func (r *Renderer) Render(data *BuildData, outputDir string) (*Report, error) {
	if data == nil {
		return nil, errors.ValidationError("build data is nil").Build()
	}
	now := r.now()

	plan, err := PlanPages(data.Pages, r.policy)
	if err != nil {
		return nil, err
	}

	for _, dir := range []string{"assets", "css"} {
		if err := os.MkdirAll(filepath.Join(outputDir, dir), 0o750); err != nil {
			return nil, renderErr(err, dir)
		}
	}

	report := &Report{Pages: plan.Pages, Skipped: plan.Skipped}
	write := func(rel string, content []byte) error {
		if err := writeFile(outputDir, rel, content); err != nil {
			return renderErr(err, rel)
		}
		report.Files = append(report.Files, rel)
		return nil
	}

	if err := write(StylesheetFile, []byte(Stylesheet(len(data.Styles), now))); err != nil {
		return nil, err
	}

	for _, pp := range plan.Pages {
		if err := writePageFile(outputDir, pp); err != nil {
			return nil, renderErr(err, pp.File)
		}
		report.Files = append(report.Files, pp.File)
		slog.Debug("Rendered page", logfields.Route(pp.Route), logfields.Path(pp.File))
	}

	manifest, err := Manifest(data.Assets)
	if err != nil {
		return nil, renderErr(err, ManifestFile)
	}
	if err := write(ManifestFile, manifest); err != nil {
		return nil, err
	}

	report.BuildInfo = NewBuildInfo(data, plan, now)
	info, err := jsonIndent(report.BuildInfo)
	if err != nil {
		return nil, renderErr(err, BuildInfoFile)
	}
	if err := write(BuildInfoFile, info); err != nil {
		return nil, err
	}

	if err := write(ReadmeFile, []byte(Readme(now))); err != nil {
		return nil, err
	}

	slog.Info("Rendered static site",
		logfields.BuildID(data.Build.ID),
		logfields.Count(len(plan.Pages)),
		slog.Int("skipped", len(plan.Skipped)),
		logfields.Path(outputDir))
	return report, nil
}

func writePageFile(outputDir string, pp PlannedPage) error {
	path := filepath.Join(outputDir, filepath.FromSlash(pp.File))
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	bw := bufio.NewWriter(f)
	if err := WritePage(bw, pp.Page); err != nil {
		_ = f.Close()
		return err
	}
	if err := bw.Flush(); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func writeFile(outputDir, rel string, content []byte) error {
	// #nosec G306 -- bundle files are meant to be world-readable
	return os.WriteFile(filepath.Join(outputDir, filepath.FromSlash(rel)), content, 0o644)
}

func renderErr(err error, rel string) error {
	return errors.WrapError(err, errors.CategoryRender, fmt.Sprintf("failed to write %s", rel)).
		WithContext("file", rel).
		Build()
}
