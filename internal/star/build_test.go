package star

import (
	"reflect"
	"testing"
	"time"

	"moviedw/internal/source"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestCleanMovies(t *testing.T) {
	raw := []source.RawMovie{
		{ID: "10", Title: " First ", Popularity: "NaN", Budget: "1000000", OriginalLanguage: "", ReleaseDate: "2009-12-10", Runtime: "162.0"},
		{ID: "10", Title: "Duplicate"},
		{ID: "not-a-number", Title: "Dropped"},
		{ID: "11", Title: "Second", ReleaseDate: "garbage", VoteAverage: "7.2"},
	}

	b := &Builder{}
	movies := b.CleanMovies(raw)
	if len(movies) != 2 {
		t.Fatalf("got %d movies, want 2", len(movies))
	}

	m := movies[0]
	if m.ID != 10 || m.Title != "First" {
		t.Errorf("first row = %+v", m)
	}
	if m.Popularity != 0 {
		t.Errorf("NaN popularity should clean to 0, got %v", m.Popularity)
	}
	if m.Budget != 1000000 {
		t.Errorf("budget = %d", m.Budget)
	}
	if m.OriginalLanguage != "en" {
		t.Errorf("empty original_language should default to en, got %q", m.OriginalLanguage)
	}
	if m.Runtime == nil || *m.Runtime != 162 {
		t.Errorf("runtime = %v", m.Runtime)
	}
	if m.ReleaseDate == nil || !m.ReleaseDate.Equal(date(2009, time.December, 10)) {
		t.Errorf("release date = %v", m.ReleaseDate)
	}

	if movies[1].ReleaseDate != nil {
		t.Errorf("unparseable date should be nil, got %v", movies[1].ReleaseDate)
	}
	if movies[1].VoteAverage != 7.2 {
		t.Errorf("vote_average = %v", movies[1].VoteAverage)
	}
}

func TestCleanMoviesIdempotent(t *testing.T) {
	deduped := []source.RawMovie{
		{ID: "10", Title: "First", ReleaseDate: "2009-12-10"},
		{ID: "11", Title: "Second", VoteAverage: "7.2"},
	}

	b := &Builder{}
	first := b.CleanMovies(deduped)
	second := b.CleanMovies(deduped)

	if len(first) != len(deduped) {
		t.Fatalf("deduplicated input lost rows: got %d, want %d", len(first), len(deduped))
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("second pass diverged:\n%+v\n%+v", first, second)
	}
}

func TestCleanCredits(t *testing.T) {
	b := &Builder{}
	credits := b.CleanCredits([]source.RawCredit{
		{MovieID: "10", Crew: "first"},
		{MovieID: "10", Crew: "second"},
		{MovieID: "oops", Crew: "x"},
		{MovieID: "11", Crew: "kept"},
	})
	if len(credits) != 2 {
		t.Fatalf("got %d credits, want 2", len(credits))
	}
	if credits[0].Crew != "first" {
		t.Errorf("duplicate movie_id should keep the first row, got %q", credits[0].Crew)
	}
}

func TestBuildDatesSpansObservedRange(t *testing.T) {
	d1 := date(2009, time.December, 10)
	d2 := date(2009, time.December, 18)
	movies := []Movie{
		{ID: 1, ReleaseDate: &d2},
		{ID: 2, ReleaseDate: &d1},
		{ID: 3},
	}

	b := &Builder{}
	rows, idx := b.buildDates(movies)
	if len(rows) != 9 {
		t.Fatalf("got %d spine days, want 9", len(rows))
	}
	if !rows[0].Date.Equal(d1) || !rows[8].Date.Equal(d2) {
		t.Errorf("spine bounds = %v .. %v", rows[0].Date, rows[8].Date)
	}
	for i, r := range rows {
		if r.ID != int64(i)+1 {
			t.Fatalf("ids not dense at %d: %d", i, r.ID)
		}
	}

	// 2009-12-10 was a Thursday: Monday-based day 3, not a weekend.
	if rows[0].DayOfWeek != 3 || rows[0].DayOfWeekName != "Thursday" || rows[0].IsWeekend {
		t.Errorf("thursday row = %+v", rows[0])
	}
	// 2009-12-12 was a Saturday.
	sat := rows[2]
	if sat.DayOfWeek != 5 || !sat.IsWeekend {
		t.Errorf("saturday row = %+v", sat)
	}
	if rows[0].Quarter != 4 || rows[0].Year != 2009 || rows[0].MonthName != "December" {
		t.Errorf("calendar attrs = %+v", rows[0])
	}

	if id, ok := idx[d2]; !ok || id != 9 {
		t.Errorf("index[%v] = %d, %v", d2, id, ok)
	}
}

func TestBuildDatesFallbackSpine(t *testing.T) {
	b := &Builder{}
	rows, _ := b.buildDates([]Movie{{ID: 1}})
	if len(rows) == 0 {
		t.Fatal("fallback spine is empty")
	}
	if !rows[0].Date.Equal(date(1900, time.January, 1)) {
		t.Errorf("fallback start = %v", rows[0].Date)
	}
	if !rows[len(rows)-1].Date.Equal(date(2026, time.January, 25)) {
		t.Errorf("fallback end = %v", rows[len(rows)-1].Date)
	}
}

func TestBuildGenresFirstSeenOrder(t *testing.T) {
	movies := []Movie{
		{ID: 1, Genres: `[{'id': 28, 'name': 'Action'}, {'id': 12, 'name': 'Adventure'}]`},
		{ID: 2, Genres: `[{'id': 12, 'name': 'Adventure'}, {'id': 18, 'name': 'Drama'}]`},
	}

	b := &Builder{}
	rows, reg := b.buildGenres(movies)
	if len(rows) != 3 {
		t.Fatalf("got %d genres, want 3", len(rows))
	}
	want := []struct {
		id   int64
		orig int64
		name string
	}{{1, 28, "Action"}, {2, 12, "Adventure"}, {3, 18, "Drama"}}
	for i, w := range want {
		if rows[i].ID != w.id || rows[i].OriginalID != w.orig || rows[i].Name != w.name {
			t.Errorf("rows[%d] = %+v, want %+v", i, rows[i], w)
		}
	}
	if id, ok := reg.Lookup(12); !ok || id != 2 {
		t.Errorf("Lookup(12) = %d, %v", id, ok)
	}
}

func TestBuildDirectorsIgnoresOtherJobs(t *testing.T) {
	credits := []Credit{
		{MovieID: 1, Crew: `[{'id': 100, 'job': 'Producer', 'name': 'P'}, {'id': 200, 'job': 'Director', 'name': 'D One'}]`},
		{MovieID: 2, Crew: `[{'id': 200, 'job': 'Director', 'name': 'D One'}, {'id': 300, 'job': 'Director', 'name': 'D Two'}]`},
	}

	b := &Builder{}
	rows, _ := b.buildDirectors(credits)
	if len(rows) != 2 {
		t.Fatalf("got %d directors, want 2", len(rows))
	}
	if rows[0].OriginalID != 200 || rows[0].Name != "D One" || rows[0].ID != 1 {
		t.Errorf("rows[0] = %+v", rows[0])
	}
	if rows[1].OriginalID != 300 || rows[1].ID != 2 {
		t.Errorf("rows[1] = %+v", rows[1])
	}
}

func TestBuildLanguageNameFallback(t *testing.T) {
	movies := []Movie{
		{ID: 1, SpokenLanguages: `[{'iso_639_1': 'fr', 'name': ''}, {'iso_639_1': 'zz', 'name': ''}]`},
	}

	b := &Builder{}
	rows, _ := b.buildLanguages(movies)
	if len(rows) != 2 {
		t.Fatalf("got %d languages, want 2", len(rows))
	}
	if rows[0].LanguageName != "French" {
		t.Errorf("fr resolved to %q, want French", rows[0].LanguageName)
	}
	if rows[1].LanguageName == "" {
		t.Error("unknown code should keep a non-empty name")
	}
}

func TestBuildUnparseableGenresStillYieldFact(t *testing.T) {
	movies := []Movie{
		{ID: 7, Title: "Broken", Genres: `[{'id': 28, 'name': 'Action'`},
	}

	b := &Builder{}
	s := b.Build(movies, nil)
	if len(s.Bridge) != 0 {
		t.Errorf("bridge rows = %d, want 0", len(s.Bridge))
	}
	if len(s.Genres) != 0 {
		t.Errorf("genre rows = %d, want 0", len(s.Genres))
	}
	if len(s.Facts) != 1 {
		t.Fatalf("fact rows = %d, want 1", len(s.Facts))
	}
	if s.Facts[0].MovieInfoID != 1 {
		t.Errorf("movie_info_id = %d", s.Facts[0].MovieInfoID)
	}
}

func TestBuildFactDefaultsAndNilKeys(t *testing.T) {
	movies := []Movie{{ID: 5, Title: "Bare"}}

	b := &Builder{}
	s := b.Build(movies, nil)
	f := s.Facts[0]
	if f.ReleaseDateID != 1 || f.DateID != 1 {
		t.Errorf("date keys = %d, %d; want 1, 1", f.ReleaseDateID, f.DateID)
	}
	if f.DirectorID != nil || f.LanguageID != nil || f.CompanyID != nil || f.CountryID != nil {
		t.Errorf("optional keys should be nil: %+v", f)
	}
}

func TestBuildEndToEnd(t *testing.T) {
	rel := date(2009, time.December, 10)
	runtime := int32(162)
	movies := []Movie{{
		ID:                  19995,
		Title:               "Avatar",
		OriginalLanguage:    "en",
		Runtime:             &runtime,
		Budget:              237000000,
		Revenue:             2787965087,
		Popularity:          150.437577,
		VoteAverage:         7.2,
		VoteCount:           11800,
		ReleaseDate:         &rel,
		Genres:              `[{'id': 28, 'name': 'Action'}, {'id': 12, 'name': 'Adventure'}]`,
		ProductionCompanies: `[{'id': 289, 'name': 'Ingenious Film Partners'}]`,
		ProductionCountries: `[{'iso_3166_1': 'US', 'name': 'United States of America'}]`,
		SpokenLanguages:     `[{'iso_639_1': 'en', 'name': 'English'}]`,
	}}
	credits := []Credit{{
		MovieID: 19995,
		Crew:    `[{'id': 2710, 'job': 'Director', 'name': 'James Cameron'}, {'id': 7236, 'job': 'Editor', 'name': 'Stephen E. Rivkin'}]`,
	}}

	b := &Builder{}
	s := b.Build(movies, credits)

	if len(s.Movies) != 1 || s.Movies[0].Title != "Avatar" || s.Movies[0].ID != 1 {
		t.Fatalf("dim_movie = %+v", s.Movies)
	}
	if len(s.Genres) != 2 || len(s.Directors) != 1 || len(s.Companies) != 1 ||
		len(s.Languages) != 1 || len(s.Countries) != 1 {
		t.Fatalf("dim counts: genres=%d directors=%d companies=%d languages=%d countries=%d",
			len(s.Genres), len(s.Directors), len(s.Companies), len(s.Languages), len(s.Countries))
	}
	if s.Directors[0].Name != "James Cameron" {
		t.Errorf("director = %+v", s.Directors[0])
	}

	if len(s.Bridge) != 2 {
		t.Fatalf("bridge rows = %d, want 2", len(s.Bridge))
	}
	for i, want := range []int64{1, 2} {
		if s.Bridge[i].MovieID != 1 || s.Bridge[i].GenreID != want {
			t.Errorf("bridge[%d] = %+v", i, s.Bridge[i])
		}
	}

	if len(s.Facts) != 1 {
		t.Fatalf("fact rows = %d, want 1", len(s.Facts))
	}
	f := s.Facts[0]
	if f.MovieInfoID != 1 {
		t.Errorf("movie_info_id = %d", f.MovieInfoID)
	}
	if f.Popularity != 150.437577 || f.Budget != 237000000 || f.Revenue != 2787965087 {
		t.Errorf("measures = %+v", f)
	}
	if f.DirectorID == nil || *f.DirectorID != 1 {
		t.Errorf("director_id = %v", f.DirectorID)
	}
	if f.LanguageID == nil || *f.LanguageID != 1 {
		t.Errorf("language_id = %v", f.LanguageID)
	}
	if f.CountryID == nil || *f.CountryID != 1 {
		t.Errorf("country_id = %v", f.CountryID)
	}
	if f.CompanyID == nil || *f.CompanyID != 1 {
		t.Errorf("company_id = %v", f.CompanyID)
	}

	// One spine day, so both date keys point at it.
	if len(s.Dates) != 1 || f.ReleaseDateID != 1 || f.DateID != 1 {
		t.Errorf("dates=%d release_date_id=%d date_id=%d", len(s.Dates), f.ReleaseDateID, f.DateID)
	}
}
