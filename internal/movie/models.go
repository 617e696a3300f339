package movie

// Movie is the summary shape used by trending and search lists.
type Movie struct {
	ID               int     `json:"id" toml:"id"`
	Title            string  `json:"title" toml:"title"`
	OriginalTitle    string  `json:"original_title" toml:"original_title"`
	Overview         string  `json:"overview" toml:"overview"`
	PosterPath       string  `json:"poster_path" toml:"poster_path"`
	BackdropPath     string  `json:"backdrop_path" toml:"backdrop_path"`
	ReleaseDate      string  `json:"release_date" toml:"release_date"`
	VoteAverage      float64 `json:"vote_average" toml:"vote_average"`
	VoteCount        int     `json:"vote_count" toml:"vote_count"`
	Popularity       float64 `json:"popularity" toml:"popularity"`
	Adult            bool    `json:"adult" toml:"adult"`
	OriginalLanguage string  `json:"original_language" toml:"original_language"`
	GenreIDs         []int   `json:"genre_ids" toml:"genre_ids"`
	Video            bool    `json:"video" toml:"video"`
}

// Detail is the full record shown on a detail page.
type Detail struct {
	ID                  int         `json:"id" toml:"id"`
	Title               string      `json:"title" toml:"title"`
	OriginalTitle       string      `json:"original_title" toml:"original_title"`
	Overview            string      `json:"overview" toml:"overview"`
	PosterPath          string      `json:"poster_path" toml:"poster_path"`
	BackdropPath        string      `json:"backdrop_path" toml:"backdrop_path"`
	ReleaseDate         string      `json:"release_date" toml:"release_date"`
	VoteAverage         float64     `json:"vote_average" toml:"vote_average"`
	VoteCount           int         `json:"vote_count" toml:"vote_count"`
	Popularity          float64     `json:"popularity" toml:"popularity"`
	Adult               bool        `json:"adult" toml:"adult"`
	OriginalLanguage    string      `json:"original_language" toml:"original_language"`
	Video               bool        `json:"video" toml:"video"`
	Budget              int64       `json:"budget" toml:"budget"`
	Revenue             int64       `json:"revenue" toml:"revenue"`
	Runtime             int         `json:"runtime" toml:"runtime"`
	Homepage            string      `json:"homepage" toml:"homepage"`
	IMDBID              string      `json:"imdb_id" toml:"imdb_id"`
	Status              string      `json:"status" toml:"status"`
	Tagline             string      `json:"tagline" toml:"tagline"`
	Collection          *Collection `json:"belongs_to_collection,omitempty" toml:"collection,omitempty"`
	Genres              []Genre     `json:"genres" toml:"genres"`
	ProductionCompanies []Company   `json:"production_companies" toml:"production_companies"`
	ProductionCountries []Country   `json:"production_countries" toml:"production_countries"`
	SpokenLanguages     []Language  `json:"spoken_languages" toml:"spoken_languages"`
	OriginCountry       []string    `json:"origin_country" toml:"origin_country"`
}

type Genre struct {
	ID   int    `json:"id" toml:"id"`
	Name string `json:"name" toml:"name"`
}

type Company struct {
	ID            int    `json:"id" toml:"id"`
	Name          string `json:"name" toml:"name"`
	LogoPath      string `json:"logo_path" toml:"logo_path"`
	OriginCountry string `json:"origin_country" toml:"origin_country"`
}

type Country struct {
	ISO3166_1 string `json:"iso_3166_1" toml:"iso_3166_1"`
	Name      string `json:"name" toml:"name"`
}

type Language struct {
	ISO639_1    string `json:"iso_639_1" toml:"iso_639_1"`
	Name        string `json:"name" toml:"name"`
	EnglishName string `json:"english_name" toml:"english_name"`
}

type Collection struct {
	ID           int    `json:"id" toml:"id"`
	Name         string `json:"name" toml:"name"`
	PosterPath   string `json:"poster_path" toml:"poster_path"`
	BackdropPath string `json:"backdrop_path" toml:"backdrop_path"`
}

// Summary projects a detail onto the list shape.
func (d *Detail) Summary() Movie {
	ids := make([]int, 0, len(d.Genres))
	for _, g := range d.Genres {
		ids = append(ids, g.ID)
	}
	return Movie{
		ID:               d.ID,
		Title:            d.Title,
		OriginalTitle:    d.OriginalTitle,
		Overview:         d.Overview,
		PosterPath:       d.PosterPath,
		BackdropPath:     d.BackdropPath,
		ReleaseDate:      d.ReleaseDate,
		VoteAverage:      d.VoteAverage,
		VoteCount:        d.VoteCount,
		Popularity:       d.Popularity,
		Adult:            d.Adult,
		OriginalLanguage: d.OriginalLanguage,
		GenreIDs:         ids,
		Video:            d.Video,
	}
}

// HasGenre reports whether the movie is tagged with the genre id.
func (m Movie) HasGenre(id int) bool {
	for _, g := range m.GenreIDs {
		if g == id {
			return true
		}
	}
	return false
}
