package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/pders01/reel/internal/catalog"
	"github.com/pders01/reel/internal/config"
	"github.com/pders01/reel/internal/debuglog"
	"github.com/pders01/reel/internal/search"
	"github.com/pders01/reel/internal/storage"
	"github.com/pders01/reel/internal/tui"
)

// Version is the version of the application, set at build time
var Version = "dev"

func main() {
	loadDotEnv(".env")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

// loadDotEnv exports the variables in path. A missing file is not an error.
func loadDotEnv(path string) {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "Warning: reading %s: %v\n", path, err)
	}
}

type options struct {
	configPath string
	dbPath     string
	source     string
	logLevel   string
	quiet      bool
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:          "reel",
		Short:        "Browse, search and bookmark movies from the terminal",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTUI(cmd, opts, "")
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "Path to configuration file")
	flags.StringVar(&opts.dbPath, "db", "", "Path to database file (overrides config)")
	flags.StringVar(&opts.source, "source", "", `Catalog source, "fake" or "tmdb" (overrides config)`)
	flags.StringVar(&opts.logLevel, "log-level", "", "Log level: debug, info, warn, error, off")
	flags.BoolVar(&opts.quiet, "quiet", false, "Skip startup banner")

	root.AddCommand(
		newOpenCmd(opts),
		newResolveCmd(opts),
		newSearchCmd(opts),
		newWatchCmd(opts),
		newImportCmd(opts),
		newListCmd(opts),
		newConfigCmd(),
		newVersionCmd(),
	)
	return root
}

// expandPath expands a leading ~/ to the home directory.
func expandPath(path string) string {
	if len(path) >= 2 && path[:2] == "~/" {
		home, _ := os.UserHomeDir()
		path = filepath.Join(home, path[2:])
	}
	return path
}

func (o *options) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, err
	}
	if o.dbPath != "" {
		cfg.Database.Path = expandPath(o.dbPath)
	}
	if o.source != "" {
		cfg.Catalog.Source = o.source
	}
	if o.logLevel != "" {
		cfg.Log.Level = o.logLevel
	}
	return cfg, nil
}

// env holds everything a command needs to talk to the catalog.
type env struct {
	cfg      *config.Config
	store    *storage.Store
	searcher search.Searcher
	index    search.BleveSearcher
	repo     catalog.Repository
}

func (o *options) open() (*env, error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, err
	}

	if err := debuglog.Setup(debuglog.ParseLogLevel(cfg.Log.Level), cfg.Log.File); err != nil {
		return nil, fmt.Errorf("setting up logging: %w", err)
	}

	store, err := storage.NewStoreWithTimeout(cfg.Database.Path, cfg.Database.Timeout)
	if err != nil {
		_ = debuglog.Close()
		return nil, fmt.Errorf("opening database %s: %w", cfg.Database.Path, err)
	}

	e := &env{cfg: cfg, store: store}

	// fall back to the in-memory scorer when the index is unusable
	if idx, err := search.NewBleveEngine(store, cfg.Database.SearchIndex); err != nil {
		debuglog.Warnf("opening search index %s: %v", cfg.Database.SearchIndex, err)
		e.searcher = search.NewEngine(store)
	} else {
		e.index = idx
		e.searcher = idx
	}

	repo, err := catalog.Open(cfg, store, e.searcher)
	if err != nil {
		e.Close()
		return nil, err
	}
	e.repo = repo
	return e, nil
}

func (e *env) Close() {
	if e.index != nil {
		if err := e.index.Close(); err != nil {
			debuglog.Warnf("closing search index: %v", err)
		}
	}
	if err := e.store.Close(); err != nil {
		debuglog.Warnf("closing database: %v", err)
	}
	_ = debuglog.Close()
}

// runTUI starts the interactive browser, optionally on the movie named by link.
func runTUI(cmd *cobra.Command, opts *options, link string) error {
	e, err := opts.open()
	if err != nil {
		return err
	}
	defer e.Close()

	app := tui.NewApp(e.cfg, e.repo, e.store)
	defer app.Close()

	if link != "" && !app.OpenLink(link) {
		return fmt.Errorf("%w: %s", errUnrecognisedLink, link)
	}

	if !opts.quiet {
		tui.ShowBanner(cmd.OutOrStdout(), Version)
	}

	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithContext(cmd.Context()))
	watchConfig(opts.configPath, p)

	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return err
	}
	return nil
}

// watchConfig forwards edits of the active config file to the running program.
func watchConfig(path string, p *tea.Program) {
	if path == "" {
		path = config.DefaultPath()
	}
	if _, err := os.Stat(path); err != nil {
		return
	}
	if err := config.Watch(path, func(cfg *config.Config) {
		p.Send(tui.ConfigReloaded(cfg))
	}); err != nil {
		debuglog.Warnf("watching %s: %v", path, err)
	}
}
