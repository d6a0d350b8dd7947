package star

import "moviedw/internal/pylit"

// buildBridge links each movie to its genres through surrogate keys. Parse
// failures were already reported during the genre pass, so they are silently
// skipped here; a movie whose genre list never parsed simply gets no bridge
// rows.
func (b *Builder) buildBridge(movies []Movie, movieReg, genreReg *Registry[int64]) []BridgeMovieGenre {
	var rows []BridgeMovieGenre
	for _, m := range movies {
		mid, ok := movieReg.Lookup(m.ID)
		if !ok {
			continue
		}
		recs, err := pylit.ParseList(m.Genres)
		if err != nil {
			continue
		}
		for _, rec := range recs {
			gid, ok := rec.Int("id")
			if !ok {
				continue
			}
			sid, ok := genreReg.Lookup(gid)
			if !ok {
				continue
			}
			rows = append(rows, BridgeMovieGenre{MovieID: mid, GenreID: sid})
		}
	}
	return rows
}
