package assets

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/evanw/esbuild/pkg/api"
)

// ScanImports parses file as an ES module and returns the specifiers of its
// static import and re-export declarations, sorted and deduplicated. Dynamic
// imports and require calls are not reported.
//
// esbuild does the parsing: a resolver plugin marks every import external and
// records it, so nothing past file itself is read.
func ScanImports(file string) ([]string, error) {
	var (
		mu    sync.Mutex
		specs []string
	)

	collect := api.Plugin{
		Name: "collect-imports",
		Setup: func(build api.PluginBuild) {
			build.OnResolve(api.OnResolveOptions{Filter: ".*"},
				func(args api.OnResolveArgs) (api.OnResolveResult, error) {
					if args.Kind == api.ResolveEntryPoint {
						return api.OnResolveResult{}, nil
					}
					if args.Kind == api.ResolveJSImportStatement {
						mu.Lock()
						specs = append(specs, args.Path)
						mu.Unlock()
					}
					return api.OnResolveResult{Path: args.Path, External: true}, nil
				})
		},
	}

	result := api.Build(api.BuildOptions{
		EntryPoints: []string{file},
		Bundle:      true,
		Write:       false,
		Format:      api.FormatESModule,
		Platform:    api.PlatformBrowser,
		LogLevel:    api.LogLevelSilent,
		Plugins:     []api.Plugin{collect},
	})
	if err := buildError(result.Errors); err != nil {
		return nil, err
	}

	mu.Lock()
	defer mu.Unlock()
	slices.Sort(specs)
	return slices.Compact(specs), nil
}

func buildError(errs []api.Message) error {
	if len(errs) == 0 {
		return nil
	}
	msgs := make([]string, 0, len(errs))
	for _, m := range errs {
		if m.Location != nil {
			msgs = append(msgs, fmt.Sprintf("%s:%d: %s", m.Location.File, m.Location.Line, m.Text))
			continue
		}
		msgs = append(msgs, m.Text)
	}
	return fmt.Errorf("esbuild: %w", errors.New(strings.Join(msgs, "; ")))
}
