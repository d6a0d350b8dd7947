// Package source reads the two raw (bronze) extracts into memory.
//
// Rows come back as raw string structs; all type coercion belongs to the
// cleaner. Header matching is tolerant: headers are trimmed, BOM-stripped and
// lower_snake-cased before lookup, and rows with missing trailing fields are
// padded with empty strings rather than rejected.
package source

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
)

// RawMovie is one row of the movie metadata extract, untyped.
type RawMovie struct {
	ID                  string
	Title               string
	Overview            string
	Tagline             string
	Status              string
	Runtime             string
	OriginalLanguage    string
	Budget              string
	Revenue             string
	Popularity          string
	VoteAverage         string
	VoteCount           string
	ReleaseDate         string
	Genres              string
	ProductionCompanies string
	ProductionCountries string
	SpokenLanguages     string
}

// RawCredit is one row of the cast/crew extract, untyped.
type RawCredit struct {
	MovieID string
	Crew    string
}

var movieColumns = []string{
	"id", "title", "overview", "tagline", "status", "runtime",
	"original_language", "budget", "revenue", "popularity", "vote_average",
	"vote_count", "release_date", "genres", "production_companies",
	"production_countries", "spoken_languages",
}

var creditColumns = []string{"movie_id", "crew"}

// ReadMovies loads the movie metadata extract.
//
// Errors are pipeline-level: an unreadable file or a header missing the id
// column aborts the run.
func ReadMovies(path string) ([]RawMovie, error) {
	rows, err := readTable(path, movieColumns)
	if err != nil {
		return nil, err
	}

	out := make([]RawMovie, 0, len(rows))
	for _, r := range rows {
		out = append(out, RawMovie{
			ID:                  r[0],
			Title:               r[1],
			Overview:            r[2],
			Tagline:             r[3],
			Status:              r[4],
			Runtime:             r[5],
			OriginalLanguage:    r[6],
			Budget:              r[7],
			Revenue:             r[8],
			Popularity:          r[9],
			VoteAverage:         r[10],
			VoteCount:           r[11],
			ReleaseDate:         r[12],
			Genres:              r[13],
			ProductionCompanies: r[14],
			ProductionCountries: r[15],
			SpokenLanguages:     r[16],
		})
	}
	return out, nil
}

// ReadCredits loads the cast/crew extract.
func ReadCredits(path string) ([]RawCredit, error) {
	rows, err := readTable(path, creditColumns)
	if err != nil {
		return nil, err
	}

	out := make([]RawCredit, 0, len(rows))
	for _, r := range rows {
		out = append(out, RawCredit{MovieID: r[0], Crew: r[1]})
	}
	return out, nil
}

// readTable streams a CSV file and returns rows aligned to the requested
// column order. Columns absent from the header come back empty; the first
// requested column (the natural key) must exist.
func readTable(path string, columns []string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open source: %w", err)
	}
	defer f.Close()

	cr := csv.NewReader(f)
	cr.ReuseRecord = true
	cr.FieldsPerRecord = -1

	hdr, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header %s: %w", path, err)
	}

	srcToIdx := make(map[string]int, len(hdr))
	for i, h := range hdr {
		if i == 0 {
			h = strings.TrimPrefix(h, "\uFEFF")
		}
		h = strings.TrimSpace(h)
		h = strings.ReplaceAll(strings.ToLower(h), " ", "_")
		srcToIdx[h] = i
	}

	colIx := make([]int, len(columns))
	for t, target := range columns {
		si, ok := srcToIdx[target]
		if !ok {
			si = -1
		}
		colIx[t] = si
	}
	if colIx[0] < 0 {
		return nil, fmt.Errorf("%s: required column %q not found in header", path, columns[0])
	}

	var out [][]string
	line := 1
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			return out, nil
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("csv read %s line %d: %w", path, line, err)
		}

		row := make([]string, len(columns))
		for t, si := range colIx {
			if si < 0 || si >= len(rec) {
				continue
			}
			row[t] = rec[si]
		}
		out = append(out, row)
	}
}
