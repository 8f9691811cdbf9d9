// Package assets copies the files a style declares into the shared output
// tree, following script imports so module dependencies come along.
package assets

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"stylesite/internal/config"
)

// Copier copies style assets. It keeps no state between calls: a file that
// already exists at its destination is never copied again.
type Copier struct {
	logger *zap.Logger
}

// NewCopier returns a Copier logging through logger.
func NewCopier(logger *zap.Logger) *Copier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Copier{logger: logger}
}

// CopyList copies items from fromDir to toDir, preserving their relative
// paths. With followImports set, every copied file is scanned for ES module
// imports and the imported files are queued as well, so transitive
// dependencies are copied too. Per-file failures are logged and skipped.
// It returns the items actually copied.
func (c *Copier) CopyList(fromDir, toDir string, items []string, followImports bool) []string {
	queue := append([]string(nil), items...)
	var copied []string

	for i := 0; i < len(queue); i++ {
		item := queue[i]
		if item == "" {
			continue
		}
		src, ok := within(fromDir, item)
		if !ok {
			c.logger.Warn("Skipping asset outside source dir", zap.String("item", item), zap.String("dir", fromDir))
			continue
		}
		dest, ok := within(toDir, item)
		if !ok {
			continue
		}
		if !exists(src) || exists(dest) {
			continue
		}

		if err := CopyFile(src, dest); err != nil {
			c.logger.Error("Unable to copy asset", zap.String("item", item), zap.Error(err))
			continue
		}
		copied = append(copied, item)

		if !followImports {
			continue
		}
		deps, err := c.Dependencies(fromDir, src)
		if err != nil {
			c.logger.Error("Unable to parse deps for file", zap.String("item", item), zap.Error(err))
			continue
		}
		queue = append(queue, deps...)
	}
	return copied
}

// Dependencies returns the relative imports of file, re-expressed relative to
// baseDir as "./<path>". Bare package imports are not followed.
func (c *Copier) Dependencies(baseDir, file string) ([]string, error) {
	specs, err := ScanImports(file)
	if err != nil {
		return nil, err
	}

	var deps []string
	for _, spec := range specs {
		if !isRelative(spec) {
			c.logger.Debug("Ignoring package import", zap.String("file", file), zap.String("import", spec))
			continue
		}
		target := filepath.Join(filepath.Dir(file), filepath.FromSlash(spec))
		rel, err := filepath.Rel(baseDir, target)
		if err != nil {
			continue
		}
		dep := "./" + filepath.ToSlash(rel)
		c.logger.Debug("Found import in JS, adding to scripts", zap.String("file", file), zap.String("dep", dep))
		deps = append(deps, dep)
	}
	return deps, nil
}

// CopyFonts copies every configured font file into fontDir, flattened to its
// base name. Missing sources are skipped.
func (c *Copier) CopyFonts(npmDir, fontDir string, fonts []config.NPMFont) {
	for _, font := range fonts {
		pkgDir := filepath.Join(npmDir, filepath.FromSlash(font.Package))
		for _, file := range font.Files() {
			src := filepath.Join(pkgDir, filepath.FromSlash(file))
			dest := filepath.Join(fontDir, filepath.Base(file))
			if !exists(src) || exists(dest) {
				continue
			}
			if err := CopyFile(src, dest); err != nil {
				c.logger.Error("Unable to copy font", zap.String("file", file), zap.Error(err))
			}
		}
	}
}

// CopyFile copies src to dest, creating dest's parent directories. The data is
// written to a temporary file first and renamed into place, so concurrent
// copies of the same file never leave a partial result behind.
func CopyFile(src, dest string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return fmt.Errorf("failed to create %s: %w", filepath.Dir(dest), err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(dest), "."+filepath.Base(dest)+".*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, in); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), dest)
}

// within joins item onto dir and reports whether the result stays inside dir.
func within(dir, item string) (string, bool) {
	path := filepath.Join(dir, filepath.FromSlash(item))
	rel, err := filepath.Rel(dir, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	return path, true
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return !errors.Is(err, os.ErrNotExist)
}

func isRelative(spec string) bool {
	return strings.HasPrefix(spec, "./") || strings.HasPrefix(spec, "../")
}
