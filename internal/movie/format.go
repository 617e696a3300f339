package movie

import (
	"fmt"
	"strconv"
	"strings"
)

const imageBaseURL = "https://image.tmdb.org/t/p/"

const (
	DefaultPosterSize   = "w500"
	DefaultBackdropSize = "w1280"
	DefaultLogoSize     = "w154"
)

// ImageURL joins a TMDB image path fragment with a size bucket.
// An empty path yields an empty URL.
func ImageURL(size, path string) string {
	if path == "" {
		return ""
	}
	if size == "" {
		size = "original"
	}
	return imageBaseURL + size + path
}

func (m Movie) PosterURL(size string) string {
	if size == "" {
		size = DefaultPosterSize
	}
	return ImageURL(size, m.PosterPath)
}

func (m Movie) BackdropURL(size string) string {
	if size == "" {
		size = DefaultBackdropSize
	}
	return ImageURL(size, m.BackdropPath)
}

func (m Movie) ReleaseYear() string {
	return releaseYear(m.ReleaseDate)
}

func (m Movie) FormattedRating() string {
	return formatRating(m.VoteAverage)
}

func (d *Detail) PosterURL(size string) string {
	if size == "" {
		size = DefaultPosterSize
	}
	return ImageURL(size, d.PosterPath)
}

func (d *Detail) BackdropURL(size string) string {
	if size == "" {
		size = DefaultBackdropSize
	}
	return ImageURL(size, d.BackdropPath)
}

func (c Company) LogoURL(size string) string {
	if size == "" {
		size = DefaultLogoSize
	}
	return ImageURL(size, c.LogoPath)
}

func (d *Detail) ReleaseYear() string {
	return releaseYear(d.ReleaseDate)
}

func (d *Detail) FormattedRating() string {
	return formatRating(d.VoteAverage)
}

// FormattedRuntime renders minutes as "2h 29m", or "45m" under an hour.
func (d *Detail) FormattedRuntime() string {
	hours := d.Runtime / 60
	minutes := d.Runtime % 60
	if hours > 0 {
		return fmt.Sprintf("%dh %dm", hours, minutes)
	}
	return fmt.Sprintf("%dm", minutes)
}

func (d *Detail) FormattedBudget() string {
	return formatMoney(d.Budget)
}

func (d *Detail) FormattedRevenue() string {
	return formatMoney(d.Revenue)
}

func (d *Detail) GenresString() string {
	names := make([]string, 0, len(d.Genres))
	for _, g := range d.Genres {
		names = append(names, g.Name)
	}
	return strings.Join(names, ", ")
}

func (d *Detail) CompaniesString() string {
	names := make([]string, 0, len(d.ProductionCompanies))
	for _, c := range d.ProductionCompanies {
		names = append(names, c.Name)
	}
	return strings.Join(names, ", ")
}

func (d *Detail) CountriesString() string {
	names := make([]string, 0, len(d.ProductionCountries))
	for _, c := range d.ProductionCountries {
		names = append(names, c.Name)
	}
	return strings.Join(names, ", ")
}

func (d *Detail) LanguagesString() string {
	names := make([]string, 0, len(d.SpokenLanguages))
	for _, l := range d.SpokenLanguages {
		names = append(names, l.EnglishName)
	}
	return strings.Join(names, ", ")
}

func releaseYear(date string) string {
	if len(date) < 4 {
		return "Unknown"
	}
	return date[:4]
}

func formatRating(v float64) string {
	return strconv.FormatFloat(v, 'f', 1, 64)
}

// formatMoney renders a positive amount as "$25,000,000".
func formatMoney(amount int64) string {
	if amount <= 0 {
		return "Not disclosed"
	}
	digits := strconv.FormatInt(amount, 10)
	var b strings.Builder
	b.WriteByte('$')
	lead := len(digits) % 3
	if lead > 0 {
		b.WriteString(digits[:lead])
	}
	for i := lead; i < len(digits); i += 3 {
		if b.Len() > 1 {
			b.WriteByte(',')
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}
