package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// ErrUnsafeOutput is returned when wiping the output directory would take
// source files with it.
var ErrUnsafeOutput = errors.New("unsafe output directory")

// Paths is the directory layout of a build root and its output tree.
type Paths struct {
	Root string

	ConfigFile   string
	TemplateFile string
	SharedCSS    string

	NPMDir     string
	StyleDir   string
	JSDir      string
	ImageDir   string
	HeartsDir  string
	ContentDir string

	BuildDir       string
	BuildImageDir  string
	BuildHeartsDir string
	BuildStyleDir  string
	BuildJSDir     string
	BuildFontDir   string
}

// NewPaths lays out the standard tree under root. configFile and outDir are
// taken relative to root unless they are absolute.
func NewPaths(root, configFile, outDir string) Paths {
	if configFile == "" {
		configFile = "builds.json"
	}
	if outDir == "" {
		outDir = "dist"
	}

	p := Paths{Root: root}
	p.ConfigFile = under(root, configFile)
	p.TemplateFile = filepath.Join(root, "template.html")
	p.NPMDir = filepath.Join(root, "node_modules")
	p.StyleDir = filepath.Join(root, "css")
	p.JSDir = filepath.Join(root, "js")
	p.ImageDir = filepath.Join(root, "images")
	p.HeartsDir = filepath.Join(p.ImageDir, "hearts")
	p.ContentDir = filepath.Join(root, "content")
	p.SharedCSS = filepath.Join(p.StyleDir, "love.css")

	p.BuildDir = under(root, outDir)
	p.BuildImageDir = filepath.Join(p.BuildDir, "images")
	p.BuildHeartsDir = filepath.Join(p.BuildImageDir, "hearts")
	p.BuildStyleDir = filepath.Join(p.BuildDir, "css")
	p.BuildJSDir = filepath.Join(p.BuildDir, "js")
	p.BuildFontDir = filepath.Join(p.BuildDir, "fonts")
	return p
}

// PageFile is where the style's index.html is written.
func (p Paths) PageFile(s ResolvedStyle) string {
	if s.Root {
		return filepath.Join(p.BuildDir, "index.html")
	}
	return filepath.Join(p.BuildDir, s.Slug, "index.html")
}

// Validate rejects an output directory that is, contains, or sits inside the
// build root's inputs.
func (p Paths) Validate() error {
	if contains(p.BuildDir, p.Root) {
		return fmt.Errorf("%w: %s contains the build root %s", ErrUnsafeOutput, p.BuildDir, p.Root)
	}
	inputs := []string{
		p.ConfigFile,
		p.TemplateFile,
		p.NPMDir,
		p.StyleDir,
		p.JSDir,
		p.ImageDir,
		p.ContentDir,
	}
	for _, in := range inputs {
		if contains(p.BuildDir, in) || contains(in, p.BuildDir) {
			return fmt.Errorf("%w: %s overlaps %s", ErrUnsafeOutput, p.BuildDir, in)
		}
	}
	return nil
}

// contains reports whether path is dir or lies below it.
func contains(dir, path string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func under(root, path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(root, path)
}
