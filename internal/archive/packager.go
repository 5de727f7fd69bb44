// Package archive packages a rendered site directory into a ZIP bundle.
package archive

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/flate"

	"github.com/ramosdalrymple-afk/autobuilder-suite-v2/internal/foundation/errors"
	"github.com/ramosdalrymple-afk/autobuilder-suite-v2/internal/logfields"
)

// PartSuffix marks an archive that is still being written.
const PartSuffix = ".part"

// Packager writes ZIP archives using Deflate at Level.
type Packager struct {
	Level int
}

// Stats summarises a written archive.
type Stats struct {
	Files int
	Bytes int64
}

// NewPackager returns a packager; levels outside 1..9 use flate.BestCompression.
func NewPackager(level int) *Packager {
	if level < flate.BestSpeed || level > flate.BestCompression {
		level = flate.BestCompression
	}
	return &Packager{Level: level}
}

// Pack archives every regular file below sourceDir into outputFile, with
// slash-separated paths relative to sourceDir and no wrapping folder. The
// archive is written next to outputFile and renamed into place once synced,
// so outputFile either does not change or holds a complete archive.
func (p *Packager) Pack(ctx context.Context, sourceDir, outputFile string) (*Stats, error) {
	info, err := os.Stat(sourceDir)
	if err != nil {
		return nil, packErr(err, "source directory not readable", sourceDir)
	}
	if !info.IsDir() {
		return nil, errors.PackError("source is not a directory").WithContext("path", sourceDir).Build()
	}
	if err := os.MkdirAll(filepath.Dir(outputFile), 0o750); err != nil {
		return nil, packErr(err, "failed to create bundle directory", outputFile)
	}

	part := outputFile + PartSuffix
	stats, err := p.write(ctx, sourceDir, part)
	if err != nil {
		_ = os.Remove(part)
		return nil, err
	}
	if err := os.Rename(part, outputFile); err != nil {
		_ = os.Remove(part)
		return nil, packErr(err, "failed to move archive into place", outputFile)
	}

	slog.Info("ZIP created",
		logfields.Path(outputFile),
		logfields.Count(stats.Files),
		logfields.Bytes(stats.Bytes))
	return stats, nil
}

func (p *Packager) write(ctx context.Context, sourceDir, part string) (*Stats, error) {
	// #nosec G304 -- part is derived from the configured bundle directory
	f, err := os.OpenFile(part, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o640)
	if err != nil {
		return nil, packErr(err, "failed to create archive", part)
	}
	defer func() { _ = f.Close() }()

	zw := zip.NewWriter(f)
	level := p.Level
	zw.RegisterCompressor(zip.Deflate, func(w io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(w, level)
	})

	stats := &Stats{}
	// WalkDir visits entries in lexical order.
	walkErr := filepath.WalkDir(sourceDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(sourceDir, path)
		if err != nil {
			return err
		}
		if err := addFile(zw, path, filepath.ToSlash(rel)); err != nil {
			return err
		}
		stats.Files++
		return nil
	})
	if walkErr != nil {
		_ = zw.Close()
		return nil, packErr(walkErr, "failed to add files to archive", sourceDir)
	}

	if err := zw.Close(); err != nil {
		return nil, packErr(err, "failed to finalize archive", part)
	}
	if err := f.Sync(); err != nil {
		return nil, packErr(err, "failed to sync archive", part)
	}
	fi, err := f.Stat()
	if err != nil {
		return nil, packErr(err, "failed to stat archive", part)
	}
	stats.Bytes = fi.Size()
	return stats, nil
}

func addFile(zw *zip.Writer, path, name string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	header, err := zip.FileInfoHeader(info)
	if err != nil {
		return err
	}
	header.Name = name
	header.Method = zip.Deflate

	w, err := zw.CreateHeader(header)
	if err != nil {
		return err
	}
	// #nosec G304 -- path comes from walking the scratch directory
	src, err := os.Open(path)
	if err != nil {
		return err
	}
	defer func() { _ = src.Close() }()
	if _, err := io.Copy(w, src); err != nil {
		return fmt.Errorf("copy %s: %w", name, err)
	}
	return nil
}

func packErr(err error, msg, path string) error {
	return errors.WrapError(err, errors.CategoryPack, msg).WithContext("path", path).Build()
}
