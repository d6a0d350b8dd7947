package star

import (
	"log"
	"math"
	"strconv"
	"strings"
	"time"

	"moviedw/internal/metrics"
	"moviedw/internal/source"
)

// Logger is the subset of *log.Logger the builders use.
type Logger interface {
	Printf(format string, v ...any)
}

// Builder turns cleaned silver rows into the star schema. A zero Builder is
// usable; Logger defaults to the standard logger.
type Builder struct {
	Logger Logger
}

func (b *Builder) logf(format string, v ...any) {
	if b.Logger != nil {
		b.Logger.Printf(format, v...)
		return
	}
	log.Printf(format, v...)
}

var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	time.RFC3339,
}

// CleanMovies coerces the raw movie rows into typed silver rows.
//
// Rows without a parseable id are dropped; duplicate ids keep the first
// occurrence. Numeric fields default to zero (NaN and Inf included); a
// missing or invalid release date becomes nil; an empty original_language
// becomes "en".
func (b *Builder) CleanMovies(raw []source.RawMovie) []Movie {
	seen := make(map[int64]struct{}, len(raw))
	out := make([]Movie, 0, len(raw))

	var badID, dupes int
	for _, r := range raw {
		id, err := strconv.ParseInt(strings.TrimSpace(r.ID), 10, 64)
		if err != nil {
			badID++
			continue
		}
		if _, ok := seen[id]; ok {
			dupes++
			continue
		}
		seen[id] = struct{}{}

		lang := strings.TrimSpace(r.OriginalLanguage)
		if lang == "" {
			lang = "en"
		}

		out = append(out, Movie{
			ID:               id,
			Title:            strings.TrimSpace(r.Title),
			Overview:         strings.TrimSpace(r.Overview),
			Tagline:          strings.TrimSpace(r.Tagline),
			Status:           strings.TrimSpace(r.Status),
			OriginalLanguage: lang,
			Runtime:          cleanRuntime(r.Runtime),
			Budget:           cleanInt(r.Budget),
			Revenue:          cleanInt(r.Revenue),
			Popularity:       cleanFloat(r.Popularity),
			VoteAverage:      cleanFloat(r.VoteAverage),
			VoteCount:        cleanInt(r.VoteCount),
			ReleaseDate:      cleanDate(r.ReleaseDate),

			Genres:              r.Genres,
			ProductionCompanies: r.ProductionCompanies,
			ProductionCountries: r.ProductionCountries,
			SpokenLanguages:     r.SpokenLanguages,
		})
	}

	if badID > 0 {
		b.logf("stage=clean table=movies dropped=%d reason=bad_id", badID)
		metrics.IncCounter("etl.rows.dropped", float64(badID), "table:movies", "reason:bad_id")
	}
	if dupes > 0 {
		b.logf("stage=clean table=movies dropped=%d reason=duplicate_id", dupes)
		metrics.IncCounter("etl.rows.dropped", float64(dupes), "table:movies", "reason:duplicate_id")
	}
	return out
}

// CleanCredits coerces the raw credit rows. Duplicate movie ids keep the
// first occurrence; rows whose movie_id does not parse are dropped since they
// could never join back to a movie.
func (b *Builder) CleanCredits(raw []source.RawCredit) []Credit {
	seen := make(map[int64]struct{}, len(raw))
	out := make([]Credit, 0, len(raw))

	var badID, dupes int
	for _, r := range raw {
		id, err := strconv.ParseInt(strings.TrimSpace(r.MovieID), 10, 64)
		if err != nil {
			badID++
			continue
		}
		if _, ok := seen[id]; ok {
			dupes++
			continue
		}
		seen[id] = struct{}{}
		out = append(out, Credit{MovieID: id, Crew: r.Crew})
	}

	if badID > 0 {
		b.logf("stage=clean table=credits dropped=%d reason=bad_movie_id", badID)
		metrics.IncCounter("etl.rows.dropped", float64(badID), "table:credits", "reason:bad_movie_id")
	}
	if dupes > 0 {
		b.logf("stage=clean table=credits dropped=%d reason=duplicate_movie_id", dupes)
		metrics.IncCounter("etl.rows.dropped", float64(dupes), "table:credits", "reason:duplicate_movie_id")
	}
	return out
}

func cleanInt(s string) int64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n
	}
	// Some feeds write integers as "123.0".
	if f, err := strconv.ParseFloat(s, 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
		return int64(f)
	}
	return 0
}

func cleanFloat(s string) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

func cleanRuntime(s string) *int32 {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
		return nil
	}
	n := int32(f)
	return &n
}

func cleanDate(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
			return &d
		}
	}
	return nil
}
