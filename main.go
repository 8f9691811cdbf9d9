package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"

	"stylesite/internal/builder"
	"stylesite/internal/config"
	"stylesite/internal/serve"
	"stylesite/internal/site"
	"stylesite/internal/watch"
)

var (
	// Global flags
	verbose        bool
	rootDir        string
	configFile     string
	outDir         string
	port           int
	serveMode      bool
	minifyOutput   bool
	highlightStyle string

	// Logger
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "stylesite",
	Short: "Build every style of the site from one template",
	Long: `stylesite builds one static page per style listed in builds.json.

Every page shares template.html and css/love.css, links every other style's
stylesheet as an alternate stylesheet, and pulls its scripts, images and fonts
into one shared dist/ tree.

With --serve the output is served on localhost and rebuilt whenever the
configuration, template, scripts, stylesheets or content change.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg := zap.NewProductionConfig()
		if verbose {
			cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = cfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: run,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.Flags().StringVarP(&rootDir, "root", "r", ".", "Build root containing builds.json and template.html")
	rootCmd.Flags().StringVarP(&configFile, "config", "c", "builds.json", "Style configuration file (JSON or YAML)")
	rootCmd.Flags().StringVarP(&outDir, "out", "o", "dist", "Output directory")
	rootCmd.Flags().IntVarP(&port, "port", "p", serve.DefaultPort, "Dev server port (or set STYLESITE_PORT env)")
	rootCmd.Flags().BoolVarP(&serveMode, "serve", "s", false, "Serve the output and rebuild on changes")
	rootCmd.Flags().BoolVar(&minifyOutput, "minify", false, "Minify generated pages and the shared stylesheet")
	rootCmd.Flags().StringVar(&highlightStyle, "highlight-style", site.DefaultHighlightStyle, "Chroma style for code in content/")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	root, err := filepath.Abs(rootDir)
	if err != nil {
		return err
	}
	if err := config.LoadEnv(root); err != nil {
		logger.Warn("Could not load .env", zap.Error(err))
	}
	if !cmd.Flags().Changed("port") {
		port = config.Port(port)
	}

	paths := config.NewPaths(root, configFile, outDir)
	b, err := builder.New(builder.Options{
		Paths:          paths,
		Minify:         minifyOutput,
		HighlightStyle: highlightStyle,
		Logger:         logger,
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	_, buildErr := b.Rebuild(ctx)
	if !serveMode {
		return buildErr
	}
	return develop(ctx, b)
}

// develop serves the output and rebuilds on changes until ctx is done.
func develop(ctx context.Context, b *builder.Builder) error {
	p := b.Paths()
	w, err := watch.New(func(ctx context.Context) error {
		_, err := b.Rebuild(ctx)
		return err
	}, logger, p.ConfigFile, p.TemplateFile, p.JSDir, p.StyleDir, p.ContentDir)
	if err != nil {
		return fmt.Errorf("failed to start watcher: %w", err)
	}

	addr := net.JoinHostPort("localhost", strconv.Itoa(port))
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return w.Run(gctx)
	})
	g.Go(func() error {
		return serve.Serve(gctx, addr, p.BuildDir, logger)
	})
	return g.Wait()
}
