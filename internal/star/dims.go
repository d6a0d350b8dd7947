package star

import (
	"golang.org/x/text/language"
	"golang.org/x/text/language/display"

	"moviedw/internal/metrics"
	"moviedw/internal/pylit"
)

// buildMovies constructs the movie dimension. Every cleaned movie row yields
// exactly one dimension row; the registry maps natural id to surrogate id.
func (b *Builder) buildMovies(movies []Movie) ([]DimMovie, *Registry[int64]) {
	reg := NewRegistry[int64]()
	rows := make([]DimMovie, 0, len(movies))
	for _, m := range movies {
		id, added := reg.Ensure(m.ID)
		if !added {
			continue
		}
		rows = append(rows, DimMovie{
			ID:               id,
			OriginalID:       m.ID,
			Title:            m.Title,
			OriginalLanguage: m.OriginalLanguage,
			Overview:         m.Overview,
			Tagline:          m.Tagline,
			Status:           m.Status,
			Runtime:          m.Runtime,
		})
	}
	return rows, reg
}

func (b *Builder) buildGenres(movies []Movie) ([]DimGenre, *Registry[int64]) {
	reg := NewRegistry[int64]()
	var rows []DimGenre
	for _, m := range movies {
		recs := b.parseField(m.ID, "genres", m.Genres)
		for _, rec := range recs {
			gid, ok := rec.Int("id")
			if !ok {
				continue
			}
			id, added := reg.Ensure(gid)
			if !added {
				continue
			}
			rows = append(rows, DimGenre{ID: id, OriginalID: gid, Name: rec.String("name")})
		}
	}
	return rows, reg
}

// buildDirectors scans the crew lists for entries with job "Director". Other
// crew jobs never enter the dimension.
func (b *Builder) buildDirectors(credits []Credit) ([]DimDirector, *Registry[int64]) {
	reg := NewRegistry[int64]()
	var rows []DimDirector
	for _, c := range credits {
		recs := b.parseField(c.MovieID, "crew", c.Crew)
		for _, rec := range recs {
			if rec.String("job") != "Director" {
				continue
			}
			did, ok := rec.Int("id")
			if !ok {
				continue
			}
			id, added := reg.Ensure(did)
			if !added {
				continue
			}
			rows = append(rows, DimDirector{
				ID:          id,
				OriginalID:  did,
				Name:        rec.String("name"),
				ProfilePath: optString(rec.String("profile_path")),
			})
		}
	}
	return rows, reg
}

func (b *Builder) buildCompanies(movies []Movie) ([]DimProductionCompany, *Registry[int64]) {
	reg := NewRegistry[int64]()
	var rows []DimProductionCompany
	for _, m := range movies {
		recs := b.parseField(m.ID, "production_companies", m.ProductionCompanies)
		for _, rec := range recs {
			cid, ok := rec.Int("id")
			if !ok {
				continue
			}
			id, added := reg.Ensure(cid)
			if !added {
				continue
			}
			rows = append(rows, DimProductionCompany{
				ID:            id,
				OriginalID:    cid,
				Name:          rec.String("name"),
				OriginCountry: optString(rec.String("origin_country")),
			})
		}
	}
	return rows, reg
}

// buildLanguages keys the language dimension by ISO 639-1 code. When the feed
// omits the display name, the code is resolved to its English name; codes the
// matcher does not know keep the bare code as the name.
func (b *Builder) buildLanguages(movies []Movie) ([]DimLanguage, *Registry[string]) {
	reg := NewRegistry[string]()
	var rows []DimLanguage
	for _, m := range movies {
		recs := b.parseField(m.ID, "spoken_languages", m.SpokenLanguages)
		for _, rec := range recs {
			code := rec.String("iso_639_1")
			if code == "" {
				continue
			}
			id, added := reg.Ensure(code)
			if !added {
				continue
			}
			name := rec.String("name")
			if name == "" {
				name = englishLanguageName(code)
			}
			rows = append(rows, DimLanguage{ID: id, ISO6391: code, LanguageName: name})
		}
	}
	return rows, reg
}

func (b *Builder) buildCountries(movies []Movie) ([]DimCountry, *Registry[string]) {
	reg := NewRegistry[string]()
	var rows []DimCountry
	for _, m := range movies {
		recs := b.parseField(m.ID, "production_countries", m.ProductionCountries)
		for _, rec := range recs {
			code := rec.String("iso_3166_1")
			if code == "" {
				continue
			}
			id, added := reg.Ensure(code)
			if !added {
				continue
			}
			rows = append(rows, DimCountry{ID: id, ISO31661: code, CountryName: rec.String("name")})
		}
	}
	return rows, reg
}

// parseField parses one nested-list field, logging and counting failures.
// A failed parse contributes zero records and never aborts the build.
func (b *Builder) parseField(movieID int64, field, raw string) []pylit.Record {
	recs, err := pylit.ParseList(raw)
	if err != nil {
		b.logf("stage=build movie=%d field=%s parse_error=%v", movieID, field, err)
		metrics.IncCounter("etl.parse_errors", 1, "field:"+field)
		return nil
	}
	return recs
}

func englishLanguageName(code string) string {
	tag, err := language.Parse(code)
	if err != nil {
		return code
	}
	if name := display.English.Languages().Name(tag); name != "" {
		return name
	}
	return code
}

func optString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
