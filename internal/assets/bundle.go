package assets

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/evanw/esbuild/pkg/api"
	"go.uber.org/zap"

	"stylesite/internal/config"
)

// Output is one file produced by Bundle, not yet written to disk.
type Output struct {
	Path     string
	Contents []byte
}

// BundleOptions configures Bundle.
type BundleOptions struct {
	// Entries are script paths relative to JSDir.
	Entries []string
	JSDir   string
	NPMDir  string
	// OutDir receives the bundles under the entries' paths relative to
	// JSDir. PublicPath is the URL OutDir is served from.
	OutDir     string
	PublicPath string
	Minify     bool
}

// assetLoaders emit imported media as separate files and import their URL.
var assetLoaders = map[string]api.Loader{
	".svg":   api.LoaderFile,
	".gif":   api.LoaderFile,
	".png":   api.LoaderFile,
	".jpg":   api.LoaderFile,
	".jpeg":  api.LoaderFile,
	".webp":  api.LoaderFile,
	".glb":   api.LoaderFile,
	".gltf":  api.LoaderFile,
	".hdr":   api.LoaderFile,
	".woff":  api.LoaderFile,
	".woff2": api.LoaderFile,
	".cube":  api.LoaderFile,
	".CUBE":  api.LoaderFile,
}

// Bundle builds every entry with its package imports resolved from NPMDir.
// Code shared between entries, such as a common npm dependency, is split into
// chunks/. Imported media land in assets/ and CSS imported by an entry is
// emitted next to it. Nothing is written: the caller decides when the output
// tree may change.
func Bundle(opts BundleOptions) ([]Output, error) {
	if len(opts.Entries) == 0 {
		return nil, nil
	}
	entries := make([]string, 0, len(opts.Entries))
	for _, e := range opts.Entries {
		path, ok := within(opts.JSDir, e)
		if !ok || e == "" {
			return nil, fmt.Errorf("bundle entry %q is outside %s", e, opts.JSDir)
		}
		entries = append(entries, path)
	}

	build := api.BuildOptions{
		EntryPoints:       entries,
		Bundle:            true,
		Splitting:         true,
		Write:             false,
		Format:            api.FormatESModule,
		Platform:          api.PlatformBrowser,
		Outdir:            opts.OutDir,
		Outbase:           opts.JSDir,
		ChunkNames:        "chunks/[name]-[hash]",
		AssetNames:        "assets/[name]-[hash]",
		PublicPath:        opts.PublicPath,
		NodePaths:         []string{opts.NPMDir},
		Loader:            assetLoaders,
		LogLevel:          api.LogLevelSilent,
		MinifyWhitespace:  opts.Minify,
		MinifyIdentifiers: opts.Minify,
		MinifySyntax:      opts.Minify,
	}
	if opts.Minify {
		build.Sourcemap = api.SourceMapLinked
	}

	result := api.Build(build)
	if err := buildError(result.Errors); err != nil {
		return nil, err
	}

	outs := make([]Output, 0, len(result.OutputFiles))
	for _, f := range result.OutputFiles {
		outs = append(outs, Output{Path: f.Path, Contents: f.Contents})
	}
	return outs, nil
}

// CopyVendor copies the files directly inside each npmDir/From into
// buildDir/To. Subdirectories are not descended into. Copies that would leave
// either tree are skipped.
func (c *Copier) CopyVendor(npmDir, buildDir string, copies []config.VendorCopy) []string {
	var copied []string
	for _, vc := range copies {
		from, ok := within(npmDir, vc.From)
		if !ok || vc.From == "" {
			c.logger.Warn("Skipping vendor copy outside node_modules", zap.String("from", vc.From))
			continue
		}
		to, ok := within(buildDir, vc.To)
		if !ok {
			c.logger.Warn("Skipping vendor copy outside output dir", zap.String("to", vc.To))
			continue
		}

		entries, err := os.ReadDir(from)
		if err != nil {
			c.logger.Warn("Unable to read vendor dir", zap.String("from", vc.From), zap.Error(err))
			continue
		}
		for _, e := range entries {
			if !e.Type().IsRegular() {
				continue
			}
			dest := filepath.Join(to, e.Name())
			if exists(dest) {
				continue
			}
			if err := CopyFile(filepath.Join(from, e.Name()), dest); err != nil {
				c.logger.Error("Unable to copy vendor file", zap.String("file", e.Name()), zap.Error(err))
				continue
			}
			copied = append(copied, filepath.ToSlash(filepath.Join(vc.To, e.Name())))
		}
	}
	return copied
}
