// Package builder produces one static site per configured style.
package builder

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"stylesite/internal/assets"
	"stylesite/internal/config"
	"stylesite/internal/site"
)

// Internal variables for testing
var (
	removeAll = os.RemoveAll
	mkdirAll  = os.MkdirAll
	writeFile = os.WriteFile
)

// Options configures a Builder.
type Options struct {
	Paths          config.Paths
	Minify         bool
	HighlightStyle string
	Logger         *zap.Logger
	// Now stamps the sitemap; defaults to time.Now.
	Now func() time.Time
}

// Builder rebuilds the output tree from the build root.
type Builder struct {
	paths    config.Paths
	logger   *zap.Logger
	copier   *assets.Copier
	minifier *assets.Minifier
	content  *site.ContentRenderer
	now      func() time.Time
}

// Result summarizes a successful rebuild.
type Result struct {
	Styles   []config.ResolvedStyle
	Duration time.Duration
}

// inputs is everything read before the output tree is touched.
type inputs struct {
	template  string
	sharedCSS string
	file      *config.File
	styles    []config.ResolvedStyle
	content   site.Content
	bundle    []assets.Output
}

// New returns a Builder for opts.
func New(opts Options) (*Builder, error) {
	if err := opts.Paths.Validate(); err != nil {
		return nil, err
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	content, err := site.NewContentRenderer(opts.HighlightStyle)
	if err != nil {
		return nil, err
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	b := &Builder{
		paths:   opts.Paths,
		logger:  logger,
		copier:  assets.NewCopier(logger),
		content: content,
		now:     now,
	}
	if opts.Minify {
		b.minifier = assets.NewMinifier()
	}
	return b, nil
}

// Paths returns the layout the builder reads from and writes to.
func (b *Builder) Paths() config.Paths {
	return b.paths
}

// Rebuild wipes the output directory and regenerates every style. When the
// configuration, template, content or script bundle cannot be loaded, or ctx is
// already done, the output directory is left untouched.
func (b *Builder) Rebuild(ctx context.Context) (Result, error) {
	start := time.Now()

	in, err := b.load()
	if err != nil {
		b.logger.Error("Rebuild failed", zap.Error(err))
		return Result{}, err
	}

	// Nothing has been touched yet; a cancelled rebuild keeps the last output.
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	if err := b.ensureFolders(in.styles); err != nil {
		b.logger.Error("Rebuild failed", zap.Error(err))
		return Result{}, err
	}

	// Before the style copies, which skip files that already exist.
	if err := b.writeBundle(in); err != nil {
		b.logger.Error("Rebuild failed", zap.Error(err))
		return Result{}, err
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, style := range in.styles {
		style := style
		g.Go(func() error {
			return b.buildStyle(gctx, in, style)
		})
	}
	if err := g.Wait(); err != nil {
		b.logger.Error("Rebuild failed", zap.Error(err))
		return Result{}, err
	}

	if err := b.writeShared(in); err != nil {
		b.logger.Error("Rebuild failed", zap.Error(err))
		return Result{}, err
	}

	res := Result{Styles: in.styles, Duration: time.Since(start)}
	b.logger.Info("Rebuild complete",
		zap.Int("styles", len(in.styles)),
		zap.Duration("duration", res.Duration))
	return res, nil
}

func (b *Builder) load() (*inputs, error) {
	tmpl, err := os.ReadFile(b.paths.TemplateFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read template: %w", err)
	}

	file, styles, err := config.LoadStyles(b.paths.ConfigFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load styles: %w", err)
	}

	shared, err := os.ReadFile(b.paths.SharedCSS)
	if err != nil {
		return nil, fmt.Errorf("failed to read shared stylesheet: %w", err)
	}

	content, err := b.content.RenderDir(b.paths.ContentDir)
	if err != nil {
		return nil, fmt.Errorf("failed to render content: %w", err)
	}

	bundle, err := assets.Bundle(assets.BundleOptions{
		Entries:    file.Bundle,
		JSDir:      b.paths.JSDir,
		NPMDir:     b.paths.NPMDir,
		OutDir:     b.paths.BuildJSDir,
		PublicPath: "/js",
		Minify:     b.minifier != nil,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to bundle scripts: %w", err)
	}

	return &inputs{
		template:  string(tmpl),
		sharedCSS: string(shared),
		file:      file,
		styles:    styles,
		content:   content,
		bundle:    bundle,
	}, nil
}

func (b *Builder) ensureFolders(styles []config.ResolvedStyle) error {
	if err := removeAll(b.paths.BuildDir); err != nil {
		return fmt.Errorf("failed to remove %s: %w", b.paths.BuildDir, err)
	}

	dirs := []string{
		b.paths.BuildHeartsDir,
		b.paths.BuildStyleDir,
		b.paths.BuildJSDir,
		b.paths.BuildFontDir,
	}
	for _, s := range styles {
		if s.Root {
			continue
		}
		dirs = append(dirs, filepath.Join(b.paths.BuildDir, s.Slug))
	}
	for _, dir := range dirs {
		if err := mkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}
	return nil
}

func (b *Builder) writeBundle(in *inputs) error {
	for _, out := range in.bundle {
		if err := mkdirAll(filepath.Dir(out.Path), 0755); err != nil {
			return fmt.Errorf("failed to create %s: %w", filepath.Dir(out.Path), err)
		}
		if err := writeFile(out.Path, out.Contents, 0644); err != nil {
			return fmt.Errorf("failed to write bundle %s: %w", out.Path, err)
		}
	}
	if len(in.bundle) > 0 {
		b.logger.Debug("Wrote bundle", zap.Strings("entries", in.file.Bundle), zap.Int("files", len(in.bundle)))
	}
	b.copier.CopyVendor(b.paths.NPMDir, b.paths.BuildDir, in.file.VendorCopies)
	return nil
}

func (b *Builder) buildStyle(ctx context.Context, in *inputs, style config.ResolvedStyle) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	page := site.Page(in.template, in.styles, style, in.content.HTML)
	page, err := b.minifier.String(assets.MediaHTML, page)
	if err != nil {
		return fmt.Errorf("style %s: %w", style.Slug, err)
	}

	out := b.paths.PageFile(style)
	if err := writeFile(out, []byte(page), 0644); err != nil {
		return fmt.Errorf("style %s: failed to write %s: %w", style.Slug, out, err)
	}
	b.logger.Debug("Wrote page", zap.String("style", style.Slug), zap.String("path", out))

	return b.copyDependencies(style)
}

// copyDependencies copies everything the style's page refers to. The icon and
// stylesheet are required; scripts, images and fonts are best effort.
func (b *Builder) copyDependencies(style config.ResolvedStyle) error {
	p := b.paths
	if err := assets.CopyFile(filepath.Join(p.HeartsDir, style.Icon), filepath.Join(p.BuildHeartsDir, style.Icon)); err != nil {
		return fmt.Errorf("style %s: failed to copy icon: %w", style.Slug, err)
	}
	if err := assets.CopyFile(filepath.Join(p.StyleDir, style.Stylesheet), filepath.Join(p.BuildStyleDir, style.Stylesheet)); err != nil {
		return fmt.Errorf("style %s: failed to copy stylesheet: %w", style.Slug, err)
	}

	b.copier.CopyList(p.JSDir, p.BuildJSDir, style.JS, true)
	b.copier.CopyList(p.ImageDir, p.BuildImageDir, style.Images, false)
	b.copier.CopyList(p.ImageDir, p.BuildImageDir, style.SelfPortrait, false)
	b.copier.CopyFonts(p.NPMDir, p.BuildFontDir, style.NPMFonts)
	return nil
}

func (b *Builder) writeShared(in *inputs) error {
	css := site.SharedCSS(in.sharedCSS, in.styles, in.content.CSS)
	css, err := b.minifier.String(assets.MediaCSS, css)
	if err != nil {
		return err
	}
	out := filepath.Join(b.paths.BuildStyleDir, filepath.Base(b.paths.SharedCSS))
	if err := writeFile(out, []byte(css), 0644); err != nil {
		return fmt.Errorf("failed to write shared stylesheet: %w", err)
	}

	if base := config.SiteURL(in.file); base != "" {
		sitemap := site.Sitemap(base, in.styles, b.now())
		if err := writeFile(filepath.Join(b.paths.BuildDir, "sitemap.xml"), sitemap, 0644); err != nil {
			return fmt.Errorf("failed to write sitemap: %w", err)
		}
	}
	return nil
}
