package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/pders01/reel/internal/catalog"
	"github.com/pders01/reel/internal/config"
	"github.com/pders01/reel/internal/deeplink"
	"github.com/pders01/reel/internal/feed"
	"github.com/pders01/reel/internal/movie"
	"github.com/pders01/reel/internal/pipeline"
	"github.com/pders01/reel/internal/plugins"
	"github.com/pders01/reel/internal/plugins/user"
	"github.com/pders01/reel/internal/search"
	"github.com/pders01/reel/internal/storage"
)

var errUnrecognisedLink = errors.New("not a movie link")

func newOpenCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "open <uri>",
		Short: "Open the browser on the movie a link points to",
		Long: "Open the browser on the movie a link points to. Accepted forms:\n  " +
			strings.Join(deeplink.Patterns(), "\n  "),
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, ok := deeplink.Parse(args[0]); !ok {
				return fmt.Errorf("%w: %s", errUnrecognisedLink, args[0])
			}
			return runTUI(cmd, opts, args[0])
		},
	}
}

func newResolveCmd(opts *options) *cobra.Command {
	var noFetch bool

	cmd := &cobra.Command{
		Use:   "resolve <uri>",
		Short: "Resolve a movie link and print the movie it points to",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			link, ok := deeplink.Parse(args[0])
			if !ok {
				return fmt.Errorf("%w: %s", errUnrecognisedLink, args[0])
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "link:   %s\n", link.Family)
			fmt.Fprintf(out, "movie:  %d\n", link.MovieID)
			if noFetch {
				return nil
			}

			e, err := opts.open()
			if err != nil {
				return err
			}
			defer e.Close()

			var final pipeline.DetailState
			pipeline.NewDetailLoader(e.repo, e.store).Load(cmd.Context(), link.MovieID, func(s pipeline.DetailState) {
				final = s
			})
			if final.HasError() {
				return fmt.Errorf("loading movie %d: %s", link.MovieID, final.Err)
			}
			printDetail(out, final)
			return nil
		},
	}

	cmd.Flags().BoolVar(&noFetch, "no-fetch", false, "Only parse the link")
	return cmd
}

func printDetail(w io.Writer, s pipeline.DetailState) {
	d := s.Detail
	fmt.Fprintf(w, "\n%s (%s)\n", d.Title, d.ReleaseYear())
	if d.Tagline != "" {
		fmt.Fprintf(w, "%s\n", d.Tagline)
	}
	fmt.Fprintf(w, "★ %s • %s • %s\n", d.FormattedRating(), d.FormattedRuntime(), d.GenresString())

	var marks []string
	if s.Favorite {
		marks = append(marks, "favorite")
	}
	if s.Watchlisted {
		marks = append(marks, "watchlist")
	}
	if len(marks) > 0 {
		fmt.Fprintf(w, "marked: %s\n", strings.Join(marks, ", "))
	}

	if d.Overview != "" {
		fmt.Fprintf(w, "\n%s\n", d.Overview)
	}
	if len(s.Similar) > 0 {
		fmt.Fprintln(w, "\nSimilar:")
		printMovies(w, s.Similar)
	}
}

func printMovies(w io.Writer, movies []movie.Movie) {
	for _, m := range movies {
		fmt.Fprintf(w, "  %-8d %s (%s)  ★ %s\n", m.ID, m.Title, m.ReleaseYear(), m.FormattedRating())
	}
}

func newSearchCmd(opts *options) *cobra.Command {
	var offline bool

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search the catalog",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := opts.open()
			if err != nil {
				return err
			}
			defer e.Close()

			query := strings.Join(args, " ")
			var movies []movie.Movie
			if offline {
				results, err := e.searcher.Search(query, e.cfg.Search.Limit)
				if err != nil {
					return fmt.Errorf("searching cache: %w", err)
				}
				movies = search.Movies(results)
			} else {
				movies, err = catalog.SearchUseCase(e.repo)(cmd.Context(), query)
				if err != nil {
					return err
				}
			}

			out := cmd.OutOrStdout()
			if len(movies) == 0 {
				fmt.Fprintln(out, "No movies found")
				return nil
			}
			printMovies(out, movies)
			return nil
		},
	}

	cmd.Flags().BoolVar(&offline, "offline", false, "Search only movies already cached locally")
	return cmd
}

func newWatchCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Run queries read from stdin through the debounced search and print every state",
		Long: "Each line on stdin is a query change, taken verbatim. The lines :refresh\n" +
			"and :clear re-run the settled query and dismiss the current error.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := opts.open()
			if err != nil {
				return err
			}
			defer e.Close()

			debounce := e.cfg.Search.Debounce
			if debounce <= 0 {
				debounce = pipeline.DefaultDebounce
			}
			p := pipeline.New(catalog.SearchUseCase(e.repo), pipeline.WithDebounce(debounce))
			return runWatch(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout(), p, 2*debounce)
		},
	}
}

// runWatch feeds lines from in to p and prints each snapshot. Once in is
// exhausted it returns after the last query has settled and no snapshot has
// arrived for quiet.
func runWatch(ctx context.Context, in io.Reader, out io.Writer, p *pipeline.Pipeline, quiet time.Duration) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	runErr := make(chan error, 1)
	go func() { runErr <- p.Run(ctx) }()

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	var (
		last    string
		current pipeline.ListState
		seen    bool
		eof     bool
		idle    <-chan time.Time
	)
	settled := func() bool {
		return seen && current.Query == last && !current.Loading && !current.Refreshing
	}

	for {
		select {
		case line, ok := <-lines:
			if !ok {
				lines = nil
				eof = true
				if settled() {
					idle = time.After(quiet)
				}
				continue
			}
			// queries go through verbatim, like keystrokes in the search box
			switch strings.TrimSpace(line) {
			case ":refresh":
				p.Refresh()
			case ":clear":
				p.ClearError()
			default:
				last = line
				p.SetQuery(line)
			}

		case s, ok := <-p.States():
			if !ok {
				err := <-runErr
				if errors.Is(err, context.Canceled) {
					return nil
				}
				return err
			}
			printState(out, s)
			current, seen = s, true
			if eof {
				idle = nil
				if settled() {
					idle = time.After(quiet)
				}
			}

		case <-idle:
			return nil
		}
	}
}

func printState(w io.Writer, s pipeline.ListState) {
	switch {
	case s.Loading:
		fmt.Fprintf(w, "query=%q loading\n", s.Query)
	case s.HasError():
		fmt.Fprintf(w, "query=%q error=%q\n", s.Query, s.Err)
	default:
		fmt.Fprintf(w, "query=%q results=%d refreshing=%t\n", s.Query, len(s.Movies), s.Refreshing)
		printMovies(w, s.Movies)
	}
}

func newImportCmd(opts *options) *cobra.Command {
	var (
		force      bool
		permissive bool
		timeout    time.Duration
	)

	cmd := &cobra.Command{
		Use:   "import <feed-url>",
		Short: "Add every movie in an RSS or Atom feed to the watchlist",
		Long: "Add every movie in an RSS or Atom feed to the watchlist. A Letterboxd\n" +
			"member page or any page that advertises a feed may be given instead.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := opts.open()
			if err != nil {
				return err
			}
			defer e.Close()

			im := feed.NewImporter(e.store, e.repo, e.cfg)
			im.SetForceRefresh(force)
			im.SetPermissiveValidation(permissive)
			im.SetResolver(feedResolver(e.cfg))

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			report, err := im.Import(ctx, args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if report.NotModified {
				fmt.Fprintf(out, "%s has not changed since the last import\n", report.URL)
				return nil
			}
			fmt.Fprintf(out, "Imported %d movies from %s\n", len(report.Imported), report.Title)
			for _, entry := range report.Imported {
				fmt.Fprintf(out, "  + %-8d %s\n", entry.MovieID, entry.Title)
			}
			for _, f := range report.Failed {
				fmt.Fprintf(out, "  ! %-8d %s: %v\n", f.Entry.MovieID, f.Entry.Title, f.Err)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Ignore the cached ETag and Last-Modified")
	cmd.Flags().BoolVar(&permissive, "permissive", false, "Allow private and localhost feed URLs")
	cmd.Flags().DurationVar(&timeout, "timeout", 2*time.Minute, "Overall import timeout")
	return cmd
}

// feedResolver knows how to find the feed behind a pasted page URL.
func feedResolver(cfg *config.Config) *plugins.Registry {
	reg := plugins.NewRegistry(cfg.Feed.HTTPTimeout)
	reg.Register(user.NewLetterboxdPlugin())
	reg.Register(user.NewDiscoveryPlugin(cfg.Feed.UserAgent))
	return reg
}

func newListCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:       "list <favorites|watchlist>",
		Short:     "Print the movies on a list",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"favorites", "watchlist"},
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := opts.open()
			if err != nil {
				return err
			}
			defer e.Close()

			marks, err := e.store.Favorites()
			if args[0] == "watchlist" {
				marks, err = e.store.Watchlist()
			}
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(marks) == 0 {
				fmt.Fprintf(out, "No %s yet\n", args[0])
				return nil
			}
			for _, mk := range marks {
				m, err := e.store.GetMovie(mk.MovieID)
				switch {
				case errors.Is(err, storage.ErrNotFound):
					fmt.Fprintf(out, "  %-8d (not cached)\n", mk.MovieID)
				case err != nil:
					return err
				default:
					fmt.Fprintf(out, "  %-8d %s (%s)  added %s\n", m.ID, m.Title, m.ReleaseYear(), mk.AddedAt.Format("2006-01-02"))
				}
			}
			return nil
		},
	}
}

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration",
	}

	var path string
	gen := &cobra.Command{
		Use:   "generate",
		Short: "Write the default configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if path == "" {
				path = config.DefaultPath()
			}
			if err := config.GenerateDefaultConfig(path); err != nil {
				return fmt.Errorf("generating config: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Generated default configuration at: %s\n", path)
			return nil
		},
	}
	gen.Flags().StringVar(&path, "path", "", "Where to write the file (default ~/.config/reel/config.toml)")

	cmd.AddCommand(gen)
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "reel %s\n", Version)
			fmt.Fprintln(out, "Terminal movie browser")
			fmt.Fprintln(out, "github.com/pders01/reel")
		},
	}
}
