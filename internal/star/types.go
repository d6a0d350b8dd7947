// Package star builds the dimensional model from the cleaned movie and
// credit tables: seven dimensions, the movie↔genre bridge, and the release
// fact table.
//
// All surrogate keys are dense, 1-based, and assigned in first-seen order.
// The structs double as the parquet row schema for the silver/gold snapshot
// files.
package star

import "time"

// Movie is a cleaned movie row (silver layer). Nested collections stay as the
// raw literal text; the builders re-parse them per dimension.
type Movie struct {
	ID               int64      `parquet:"id"`
	Title            string     `parquet:"title"`
	Overview         string     `parquet:"overview"`
	Tagline          string     `parquet:"tagline"`
	Status           string     `parquet:"status"`
	OriginalLanguage string     `parquet:"original_language"`
	Runtime          *int32     `parquet:"runtime,optional"`
	Budget           int64      `parquet:"budget"`
	Revenue          int64      `parquet:"revenue"`
	Popularity       float64    `parquet:"popularity"`
	VoteAverage      float64    `parquet:"vote_average"`
	VoteCount        int64      `parquet:"vote_count"`
	ReleaseDate      *time.Time `parquet:"release_date,optional"`

	Genres              string `parquet:"genres"`
	ProductionCompanies string `parquet:"production_companies"`
	ProductionCountries string `parquet:"production_countries"`
	SpokenLanguages     string `parquet:"spoken_languages"`
}

// Credit is a cleaned credit row (silver layer). Crew keeps the raw literal
// text of the crew list.
type Credit struct {
	MovieID int64  `parquet:"movie_id"`
	Crew    string `parquet:"crew"`
}

// DimDate is one day of the contiguous date spine.
//
// DayOfWeek follows the source convention: Monday=0 .. Sunday=6, and
// IsWeekend is true for 5 (Saturday) and 6 (Sunday).
type DimDate struct {
	ID            int64     `parquet:"id"`
	Date          time.Time `parquet:"date"`
	Year          int32     `parquet:"year"`
	Month         int32     `parquet:"month"`
	MonthName     string    `parquet:"month_name"`
	Day           int32     `parquet:"day"`
	DayOfWeek     int32     `parquet:"day_of_week"`
	DayOfWeekName string    `parquet:"day_of_week_name"`
	Quarter       int32     `parquet:"quarter"`
	Week          int32     `parquet:"week"`
	IsWeekend     bool      `parquet:"is_weekend"`
}

// DimMovie is the movie dimension. OriginalID is the source's natural id,
// kept for joinback.
type DimMovie struct {
	ID               int64  `parquet:"id"`
	OriginalID       int64  `parquet:"original_id"`
	Title            string `parquet:"title"`
	OriginalLanguage string `parquet:"original_language"`
	Overview         string `parquet:"overview"`
	Tagline          string `parquet:"tagline"`
	Status           string `parquet:"status"`
	Runtime          *int32 `parquet:"runtime,optional"`
}

// DimGenre is the genre dimension, keyed by the source's numeric genre id.
type DimGenre struct {
	ID         int64  `parquet:"id"`
	OriginalID int64  `parquet:"original_id"`
	Name       string `parquet:"name"`
}

// DimDirector is the director dimension, keyed by the source's numeric crew
// id, restricted to crew entries with job "Director".
type DimDirector struct {
	ID          int64   `parquet:"id"`
	OriginalID  int64   `parquet:"original_id"`
	Name        string  `parquet:"name"`
	ProfilePath *string `parquet:"profile_path,optional"`
}

// DimProductionCompany is the production-company dimension, keyed by the
// source's numeric company id.
type DimProductionCompany struct {
	ID            int64   `parquet:"id"`
	OriginalID    int64   `parquet:"original_id"`
	Name          string  `parquet:"name"`
	OriginCountry *string `parquet:"origin_country,optional"`
}

// DimLanguage is the spoken-language dimension, keyed by ISO 639-1 code.
type DimLanguage struct {
	ID           int64  `parquet:"id"`
	ISO6391      string `parquet:"iso_639_1"`
	LanguageName string `parquet:"language_name"`
}

// DimCountry is the production-country dimension, keyed by ISO 3166-1 code.
type DimCountry struct {
	ID          int64  `parquet:"id"`
	ISO31661    string `parquet:"iso_3166_1"`
	CountryName string `parquet:"country_name"`
}

// BridgeMovieGenre resolves the many-to-many movie↔genre relationship. Both
// ids are surrogate keys.
type BridgeMovieGenre struct {
	MovieID int64 `parquet:"movie_id"`
	GenreID int64 `parquet:"genre_id"`
}

// FactMovieRelease is one fact row per surviving movie row.
//
// ReleaseDateID and DateID carry the same resolved value; the original
// warehouse persisted both columns and downstream queries use ReleaseDateID.
// Nil foreign keys mean "unresolved", never a dangling reference.
type FactMovieRelease struct {
	ID            int64   `parquet:"id"`
	MovieInfoID   int64   `parquet:"movie_info_id"`
	ReleaseDateID int64   `parquet:"release_date_id"`
	DateID        int64   `parquet:"date_id"`
	DirectorID    *int64  `parquet:"director_id,optional"`
	LanguageID    *int64  `parquet:"language_id,optional"`
	CompanyID     *int64  `parquet:"company_id,optional"`
	CountryID     *int64  `parquet:"country_id,optional"`
	Budget        int64   `parquet:"budget"`
	Revenue       int64   `parquet:"revenue"`
	Popularity    float64 `parquet:"popularity"`
	VoteAverage   float64 `parquet:"vote_average"`
	Runtime       *int32  `parquet:"runtime,optional"`
}

// Schema is the fully built star schema for one pipeline run.
type Schema struct {
	Dates     []DimDate
	Movies    []DimMovie
	Genres    []DimGenre
	Directors []DimDirector
	Companies []DimProductionCompany
	Languages []DimLanguage
	Countries []DimCountry
	Bridge    []BridgeMovieGenre
	Facts     []FactMovieRelease
}
