package site

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"path"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/ramosdalrymple-afk/autobuilder-suite-v2/internal/config"
	"github.com/ramosdalrymple-afk/autobuilder-suite-v2/internal/foundation/errors"
	"github.com/ramosdalrymple-afk/autobuilder-suite-v2/internal/logfields"
)

const indexFile = "index.html"

// unsafeRouteChars are replaced with "_" so the path is valid on every filesystem.
var unsafeRouteChars = strings.NewReplacer(
	"<", "_", ">", "_", ":", "_", `"`, "_", "|", "_", "?", "_", `\`, "_",
)

// PlannedPage binds a page to the slash-separated file it is written to.
type PlannedPage struct {
	Page  Page
	Route string
	File  string
	// Renamed is set when the file was moved aside by the suffix policy.
	Renamed bool
}

// Plan is the outcome of mapping every page route to a file.
type Plan struct {
	Pages   []PlannedPage
	Skipped []string
}

// IsWildcard reports whether a route is a dynamic pattern that cannot be a static file.
func IsWildcard(route string) bool {
	return strings.Contains(route, "*")
}

// RouteFile maps a page route to its relative output file.
//
//	"/"           -> index.html
//	"/about/"     -> about/index.html
//	"/a/../b"     -> a/__/b/index.html
//
// The result never contains "." or ".." segments.
func RouteFile(route string) string {
	route = norm.NFC.String(route)
	route = unsafeRouteChars.Replace(route)

	segments := make([]string, 0, strings.Count(route, "/")+1)
	for seg := range strings.SplitSeq(route, "/") {
		switch {
		case seg == "":
			continue
		case strings.Trim(seg, ".") == "":
			seg = strings.Repeat("_", len(seg))
		}
		segments = append(segments, seg)
	}
	if len(segments) == 0 {
		return indexFile
	}
	return strings.Join(segments, "/") + "/" + indexFile
}

// bundleOwner names the fixed bundle files in collision reports.
const bundleOwner = "(bundle)"

// maxSuffixAttempts bounds the search for a free suffixed path.
const maxSuffixAttempts = 8

// layout tracks which route owns each planned file and directory. A path can
// be a file or a directory of the bundle, never both.
type layout struct {
	files map[string]string
	dirs  map[string]string
}

func newLayout() *layout {
	l := &layout{files: map[string]string{}, dirs: map[string]string{}}
	for _, f := range []string{StylesheetFile, ManifestFile, BuildInfoFile, ReadmeFile} {
		l.reserve(f, bundleOwner)
	}
	return l
}

func (l *layout) reserve(file, route string) {
	l.files[file] = route
	for dir := path.Dir(file); dir != "."; dir = path.Dir(dir) {
		if _, ok := l.dirs[dir]; !ok {
			l.dirs[dir] = route
		}
	}
}

// conflict reports the route that blocks file and the index of the path
// segment to rename around it. ok is false when file is free.
func (l *layout) conflict(file string) (owner string, segment int, ok bool) {
	segs := strings.Split(file, "/")
	for i := range len(segs) - 1 {
		if owner, taken := l.files[strings.Join(segs[:i+1], "/")]; taken {
			return owner, i, true
		}
	}
	last := len(segs) - 2
	if owner, taken := l.files[file]; taken {
		return owner, last, true
	}
	if owner, taken := l.dirs[file]; taken {
		return owner, last, true
	}
	return "", 0, false
}

// PlanPages assigns an output file to every non-wildcard page. Wildcard
// routes are listed in Plan.Skipped. A route whose file is already taken,
// sits where another file's directory is, or would nest under a file
// (including the fixed bundle files) collides with the earlier owner. Under
// CollisionSuffix the clashing path segment gets a "-<hash>" suffix; under
// CollisionFail the plan is aborted.
func PlanPages(pages []Page, policy config.CollisionPolicy) (*Plan, error) {
	plan := &Plan{Pages: make([]PlannedPage, 0, len(pages))}
	l := newLayout()

	for _, p := range pages {
		route := p.Path
		if route == "" {
			route = "/"
		}
		if IsWildcard(route) {
			slog.Info("Skipping wildcard route", logfields.Route(route))
			plan.Skipped = append(plan.Skipped, route)
			continue
		}

		file := RouteFile(route)
		renamed := false
		if first, segment, clash := l.conflict(file); clash {
			if policy == config.CollisionFail {
				return nil, errors.ValidationError("page routes collide").
					WithContext("route", route).
					WithContext("conflicts_with", first).
					WithContext("file", file).
					Build()
			}
			suffixed, err := l.suffixed(file, segment, route)
			if err != nil {
				return nil, err
			}
			slog.Warn("Page route collides, writing to suffixed path",
				logfields.Route(route),
				slog.String("conflicts_with", first),
				logfields.Path(suffixed))
			file = suffixed
			renamed = true
		}
		l.reserve(file, route)
		plan.Pages = append(plan.Pages, PlannedPage{Page: p, Route: route, File: file, Renamed: renamed})
	}
	return plan, nil
}

func (l *layout) suffixed(file string, segment int, route string) (string, error) {
	var last string
	for attempt := range maxSuffixAttempts {
		candidate := suffixSegment(file, segment, route, attempt)
		owner, _, clash := l.conflict(candidate)
		if !clash {
			return candidate, nil
		}
		last = owner
	}
	return "", errors.InternalError("page route hash collision").
		WithContext("route", route).
		WithContext("conflicts_with", last).
		Build()
}

// suffixSegment renames segment of file to "<segment>-<hash>". The root
// index.html has no directory segment and becomes "index-<hash>/index.html".
func suffixSegment(file string, segment int, route string, attempt int) string {
	h := sha256.New()
	h.Write([]byte(route))
	if attempt > 0 {
		fmt.Fprintf(h, "#%d", attempt)
	}
	suffix := "-" + hex.EncodeToString(h.Sum(nil)[:4])

	segs := strings.Split(file, "/")
	if segment < 0 {
		return "index" + suffix + "/" + indexFile
	}
	segs[segment] += suffix
	return strings.Join(segs, "/")
}
