// Package snapshot persists the silver and gold layers as snappy-compressed
// parquet files, one file per table. Snapshots let a rerun resume from the
// transform output without re-reading the raw extracts, and give analysts a
// columnar copy of the warehouse contents.
package snapshot

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/parquet-go/parquet-go"

	"moviedw/internal/star"
)

// Gold table file names, in load order.
const (
	TableDimDate          = "dim_date"
	TableDimMovie         = "dim_movie"
	TableDimGenre         = "dim_genre"
	TableDimDirector      = "dim_director"
	TableDimCompany       = "dim_production_company"
	TableDimLanguage      = "dim_language"
	TableDimCountry       = "dim_country"
	TableBridgeMovieGenre = "bridge_movie_genre"
	TableFactMovieRelease = "fact_movie_release"
	tableMoviesSilver     = "movies_silver"
	tableCreditsSilver    = "credits_silver"
)

func writeTable[T any](dir, name string, rows []T) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("snapshot: mkdir %s: %w", dir, err)
	}
	path := filepath.Join(dir, name+".parquet")
	if err := parquet.WriteFile(path, rows, parquet.Compression(&parquet.Snappy)); err != nil {
		return fmt.Errorf("snapshot: write %s: %w", path, err)
	}
	return nil
}

func readTable[T any](dir, name string) ([]T, error) {
	path := filepath.Join(dir, name+".parquet")
	rows, err := parquet.ReadFile[T](path)
	if err != nil {
		return nil, fmt.Errorf("snapshot: read %s: %w", path, err)
	}
	return rows, nil
}

// WriteSilver snapshots the cleaned movie and credit tables.
func WriteSilver(dir string, movies []star.Movie, credits []star.Credit) error {
	if err := writeTable(dir, tableMoviesSilver, movies); err != nil {
		return err
	}
	return writeTable(dir, tableCreditsSilver, credits)
}

// ReadSilver loads a previously written silver snapshot.
func ReadSilver(dir string) ([]star.Movie, []star.Credit, error) {
	movies, err := readTable[star.Movie](dir, tableMoviesSilver)
	if err != nil {
		return nil, nil, err
	}
	credits, err := readTable[star.Credit](dir, tableCreditsSilver)
	if err != nil {
		return nil, nil, err
	}
	return movies, credits, nil
}

// WriteGold snapshots every star-schema table.
func WriteGold(dir string, s *star.Schema) error {
	if err := writeTable(dir, TableDimDate, s.Dates); err != nil {
		return err
	}
	if err := writeTable(dir, TableDimMovie, s.Movies); err != nil {
		return err
	}
	if err := writeTable(dir, TableDimGenre, s.Genres); err != nil {
		return err
	}
	if err := writeTable(dir, TableDimDirector, s.Directors); err != nil {
		return err
	}
	if err := writeTable(dir, TableDimCompany, s.Companies); err != nil {
		return err
	}
	if err := writeTable(dir, TableDimLanguage, s.Languages); err != nil {
		return err
	}
	if err := writeTable(dir, TableDimCountry, s.Countries); err != nil {
		return err
	}
	if err := writeTable(dir, TableBridgeMovieGenre, s.Bridge); err != nil {
		return err
	}
	return writeTable(dir, TableFactMovieRelease, s.Facts)
}

// ReadGold loads a previously written gold snapshot.
func ReadGold(dir string) (*star.Schema, error) {
	s := &star.Schema{}
	var err error
	if s.Dates, err = readTable[star.DimDate](dir, TableDimDate); err != nil {
		return nil, err
	}
	if s.Movies, err = readTable[star.DimMovie](dir, TableDimMovie); err != nil {
		return nil, err
	}
	if s.Genres, err = readTable[star.DimGenre](dir, TableDimGenre); err != nil {
		return nil, err
	}
	if s.Directors, err = readTable[star.DimDirector](dir, TableDimDirector); err != nil {
		return nil, err
	}
	if s.Companies, err = readTable[star.DimProductionCompany](dir, TableDimCompany); err != nil {
		return nil, err
	}
	if s.Languages, err = readTable[star.DimLanguage](dir, TableDimLanguage); err != nil {
		return nil, err
	}
	if s.Countries, err = readTable[star.DimCountry](dir, TableDimCountry); err != nil {
		return nil, err
	}
	if s.Bridge, err = readTable[star.BridgeMovieGenre](dir, TableBridgeMovieGenre); err != nil {
		return nil, err
	}
	if s.Facts, err = readTable[star.FactMovieRelease](dir, TableFactMovieRelease); err != nil {
		return nil, err
	}
	return s, nil
}
