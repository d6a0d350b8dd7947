package star

import (
	"time"

	"moviedw/internal/pylit"
)

// factInputs carries the registries and indexes the fact pass resolves
// against.
type factInputs struct {
	movieReg    *Registry[int64]
	directorReg *Registry[int64]
	companyReg  *Registry[int64]
	languageReg *Registry[string]
	countryReg  *Registry[string]
	dateIndex   map[time.Time]int64
}

// buildFacts emits one fact row per cleaned movie, resolving every foreign
// key against the already-built dimensions. Unresolvable optional keys stay
// nil; the date key falls back to the first spine day.
func (b *Builder) buildFacts(movies []Movie, credits []Credit, in factInputs) []FactMovieRelease {
	directors := b.directorByMovie(credits, in.directorReg)

	rows := make([]FactMovieRelease, 0, len(movies))
	for _, m := range movies {
		movieID, ok := in.movieReg.Lookup(m.ID)
		if !ok {
			continue
		}

		dateID := int64(1)
		if m.ReleaseDate != nil {
			if id, ok := in.dateIndex[*m.ReleaseDate]; ok {
				dateID = id
			}
		}

		var directorID *int64
		if id, ok := directors[m.ID]; ok {
			directorID = &id
		}

		rows = append(rows, FactMovieRelease{
			ID:            int64(len(rows)) + 1,
			MovieInfoID:   movieID,
			ReleaseDateID: dateID,
			DateID:        dateID,
			DirectorID:    directorID,
			LanguageID: firstResolved(b.quietParse(m.SpokenLanguages), in.languageReg,
				func(r pylit.Record) (string, bool) {
					code := r.String("iso_639_1")
					return code, code != ""
				}),
			CompanyID: firstResolved(b.quietParse(m.ProductionCompanies), in.companyReg,
				func(r pylit.Record) (int64, bool) { return r.Int("id") }),
			CountryID: firstResolved(b.quietParse(m.ProductionCountries), in.countryReg,
				func(r pylit.Record) (string, bool) {
					code := r.String("iso_3166_1")
					return code, code != ""
				}),
			Budget:      m.Budget,
			Revenue:     m.Revenue,
			Popularity:  m.Popularity,
			VoteAverage: m.VoteAverage,
			Runtime:     m.Runtime,
		})
	}
	return rows
}

// directorByMovie resolves each movie's director once: the first crew entry
// with job "Director" whose id is in the dimension wins.
func (b *Builder) directorByMovie(credits []Credit, reg *Registry[int64]) map[int64]int64 {
	out := make(map[int64]int64, len(credits))
	for _, c := range credits {
		recs, err := pylit.ParseList(c.Crew)
		if err != nil {
			continue
		}
		for _, rec := range recs {
			if rec.String("job") != "Director" {
				continue
			}
			did, ok := rec.Int("id")
			if !ok {
				continue
			}
			if id, ok := reg.Lookup(did); ok {
				out[c.MovieID] = id
				break
			}
		}
	}
	return out
}

// quietParse parses a nested list without reporting failures; the dimension
// passes already logged them.
func (b *Builder) quietParse(raw string) []pylit.Record {
	recs, err := pylit.ParseList(raw)
	if err != nil {
		return nil
	}
	return recs
}

// firstResolved walks the records in feed order and returns the surrogate id
// of the first one whose key resolves against the registry.
func firstResolved[K comparable](recs []pylit.Record, reg *Registry[K], keyOf func(pylit.Record) (K, bool)) *int64 {
	for _, rec := range recs {
		k, ok := keyOf(rec)
		if !ok {
			continue
		}
		if id, ok := reg.Lookup(k); ok {
			return &id
		}
	}
	return nil
}
