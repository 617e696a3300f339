package deeplink

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/pders01/reel/internal/debuglog"
)

const (
	CustomScheme = "movieapp"
	HostedHost   = "movieapp.com"
	TMDBHost     = "www.themoviedb.org"

	movieSegment = "movie"
)

// Family identifies which kind of link a URI belongs to.
type Family int

const (
	FamilyUnknown Family = iota
	FamilyScheme         // movieapp://movie/{id}
	FamilyHosted         // https://movieapp.com/movie/{id}
	FamilyTMDB           // https://www.themoviedb.org/movie/{id-slug}
)

func (f Family) String() string {
	switch f {
	case FamilyScheme:
		return "scheme"
	case FamilyHosted:
		return "hosted"
	case FamilyTMDB:
		return "tmdb"
	default:
		return "unknown"
	}
}

// Link is a classified deep link carrying the extracted movie id.
type Link struct {
	Family  Family
	MovieID int
}

// Patterns lists the link shapes the resolver understands.
func Patterns() []string {
	return []string{
		CustomScheme + "://movie/{id}",
		"https://" + HostedHost + "/movie/{id}",
		"https://" + TMDBHost + "/movie/{id}[-slug]",
	}
}

// Parse classifies raw and extracts the movie id. Any URI outside the three
// families, or with a segment that is not a valid id, yields false.
func Parse(raw string) (Link, bool) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Scheme == "" {
		return Link{}, false
	}

	switch {
	case u.Scheme == CustomScheme:
		// movieapp://movie/123 puts "movie" in the authority position
		segments := pathSegments(u.Path)
		if u.Opaque != "" {
			segments = pathSegments(u.Opaque)
		}
		if u.Host != "" {
			segments = append([]string{strings.ToLower(u.Host)}, segments...)
		}
		id, ok := strictID(segments)
		return Link{Family: FamilyScheme, MovieID: id}, ok

	case u.Scheme == "https" && strings.EqualFold(u.Hostname(), HostedHost):
		id, ok := strictID(pathSegments(u.Path))
		return Link{Family: FamilyHosted, MovieID: id}, ok

	case u.Scheme == "https" && strings.EqualFold(u.Hostname(), TMDBHost):
		segments := pathSegments(u.Path)
		if len(segments) < 2 || segments[0] != movieSegment {
			return Link{}, false
		}
		id, ok := ExtractMovieID(segments[1])
		return Link{Family: FamilyTMDB, MovieID: id}, ok
	}

	return Link{}, false
}

// ExtractMovieID reads the id out of a TMDB slug segment such as "648878" or
// "648878-eddington". Everything before the first hyphen must be digits.
func ExtractMovieID(segment string) (int, bool) {
	idPart := segment
	if i := strings.IndexByte(segment, '-'); i >= 0 {
		idPart = segment[:i]
	}
	return parseID(idPart)
}

func strictID(segments []string) (int, bool) {
	if len(segments) < 2 || segments[0] != movieSegment {
		return 0, false
	}
	return parseID(segments[1])
}

// parseID accepts unsigned decimal digits that fit a 32-bit id.
func parseID(s string) (int, bool) {
	if s == "" {
		return 0, false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return 0, false
		}
	}
	n, err := strconv.ParseInt(s, 10, 32)
	if err != nil {
		return 0, false
	}
	return int(n), true
}

func pathSegments(p string) []string {
	parts := strings.Split(p, "/")
	out := parts[:0]
	for _, part := range parts {
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Route names an in-app destination.
type Route string

const RouteMovieDetail Route = "movie/detail"

// Destination is a single navigation command.
type Destination struct {
	Route   Route
	MovieID int
}

// Navigator receives navigation commands. It is passed explicitly to
// whatever needs to route.
type Navigator interface {
	Navigate(Destination)
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(Destination)

func (f NavigatorFunc) Navigate(d Destination) { f(d) }

// Resolver turns incoming URIs into at most one navigation command each.
type Resolver struct {
	nav Navigator
	log *debuglog.FieldLogger
}

func NewResolver(nav Navigator) *Resolver {
	return &Resolver{
		nav: nav,
		log: debuglog.WithFields(map[string]interface{}{"component": "deeplink"}),
	}
}

// Dispatch resolves raw and navigates to the movie detail when an id was
// extracted. Unrecognised or malformed links are logged and dropped.
func (r *Resolver) Dispatch(raw string) bool {
	link, ok := Parse(raw)
	if !ok {
		r.log.Infof("unhandled deep link %q", raw)
		return false
	}
	r.log.Debugf("opening movie %d from %s link", link.MovieID, link.Family)
	r.nav.Navigate(Destination{Route: RouteMovieDetail, MovieID: link.MovieID})
	return true
}
