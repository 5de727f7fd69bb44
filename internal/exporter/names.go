package exporter

import (
	"strings"
	"unicode"

	"github.com/google/uuid"

	"github.com/ramosdalrymple-afk/autobuilder-suite-v2/internal/archive"
	"github.com/ramosdalrymple-afk/autobuilder-suite-v2/internal/foundation/errors"
)

const maxNameLength = 200

// ValidateName checks that name is usable as a single file name inside the
// bundle directory and as the quoted filename of a download.
func ValidateName(name string) error {
	reason := ""
	switch {
	case name == "":
		reason = "name is required"
	case len(name) > maxNameLength:
		reason = "name is too long"
	case strings.ContainsAny(name, `/\`):
		reason = "name must not contain path separators"
	case strings.ContainsAny(name, `";`):
		// the name is quoted into Content-Disposition on download
		reason = `name must not contain '"' or ';'`
	case strings.HasPrefix(name, "."):
		reason = "name must not start with a dot"
	case strings.HasSuffix(name, archive.PartSuffix):
		reason = "name must not end with " + archive.PartSuffix
	case strings.IndexFunc(name, unicode.IsControl) >= 0:
		reason = "name must not contain control characters"
	}
	if reason == "" {
		return nil
	}
	return errors.ValidationError("invalid export name: " + reason).WithContext("name", name).Build()
}

// GenerateName returns "<buildID>-<8 random hex>.zip" with unsafe
// characters of buildID replaced.
func GenerateName(buildID string) string {
	safe := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, buildID)
	if safe == "" {
		safe = "export"
	}
	return safe + "-" + strings.ReplaceAll(uuid.NewString(), "-", "")[:8] + ".zip"
}
