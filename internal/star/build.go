package star

import "moviedw/internal/metrics"

// Build runs every dimension pass, then the bridge and fact passes, over the
// cleaned silver rows. Passes are ordered so that every foreign key resolves
// against a finished registry.
func (b *Builder) Build(movies []Movie, credits []Credit) *Schema {
	s := &Schema{}

	dates, idx := b.buildDates(movies)
	s.Dates = dates

	movieRows, movieReg := b.buildMovies(movies)
	s.Movies = movieRows

	genres, genreReg := b.buildGenres(movies)
	s.Genres = genres

	directors, directorReg := b.buildDirectors(credits)
	s.Directors = directors

	companies, companyReg := b.buildCompanies(movies)
	s.Companies = companies

	languages, languageReg := b.buildLanguages(movies)
	s.Languages = languages

	countries, countryReg := b.buildCountries(movies)
	s.Countries = countries

	s.Bridge = b.buildBridge(movies, movieReg, genreReg)
	s.Facts = b.buildFacts(movies, credits, factInputs{
		movieReg:    movieReg,
		directorReg: directorReg,
		companyReg:  companyReg,
		languageReg: languageReg,
		countryReg:  countryReg,
		dateIndex:   idx,
	})

	for _, t := range []struct {
		name string
		n    int
	}{
		{"dim_date", len(s.Dates)},
		{"dim_movie", len(s.Movies)},
		{"dim_genre", len(s.Genres)},
		{"dim_director", len(s.Directors)},
		{"dim_production_company", len(s.Companies)},
		{"dim_language", len(s.Languages)},
		{"dim_country", len(s.Countries)},
		{"bridge_movie_genre", len(s.Bridge)},
		{"fact_movie_release", len(s.Facts)},
	} {
		b.logf("stage=build table=%s rows=%d", t.name, t.n)
		metrics.IncCounter("etl.rows.built", float64(t.n), "table:"+t.name)
	}
	return s
}
