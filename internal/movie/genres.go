package movie

// genreNames maps TMDB movie genre ids to their English names.
var genreNames = map[int]string{
	28:    "Action",
	12:    "Adventure",
	16:    "Animation",
	35:    "Comedy",
	80:    "Crime",
	99:    "Documentary",
	18:    "Drama",
	10751: "Family",
	14:    "Fantasy",
	36:    "History",
	27:    "Horror",
	10402: "Music",
	9648:  "Mystery",
	10749: "Romance",
	878:   "Science Fiction",
	10770: "TV Movie",
	53:    "Thriller",
	10752: "War",
	37:    "Western",
}

// GenreName returns the name for a TMDB genre id, or "" if unknown.
func GenreName(id int) string {
	return genreNames[id]
}

// Genres resolves ids to named genres, skipping unknown ids.
func Genres(ids []int) []Genre {
	out := make([]Genre, 0, len(ids))
	for _, id := range ids {
		if name, ok := genreNames[id]; ok {
			out = append(out, Genre{ID: id, Name: name})
		}
	}
	return out
}
