package warehouse

// ColumnSpec describes one column in portable terms. Type is one of the
// tokens "bigint", "int", "double", "text", "bool", "date"; each backend maps
// them to its own DDL types.
type ColumnSpec struct {
	Name       string
	Type       string
	NotNull    bool
	References string // "table(column)", empty when not a foreign key
}

// TableSpec describes one warehouse table. PrimaryKey lists the key columns;
// the bridge table has a composite key.
type TableSpec struct {
	Name       string
	Columns    []ColumnSpec
	PrimaryKey []string
}

// Tables returns every warehouse table in dependency order: dimensions first,
// then the bridge and the fact table that reference them.
func Tables() []TableSpec {
	return []TableSpec{
		{
			Name: "dim_date",
			Columns: []ColumnSpec{
				{Name: "id", Type: "bigint", NotNull: true},
				{Name: "date", Type: "date", NotNull: true},
				{Name: "year", Type: "int", NotNull: true},
				{Name: "month", Type: "int", NotNull: true},
				{Name: "month_name", Type: "text", NotNull: true},
				{Name: "day", Type: "int", NotNull: true},
				{Name: "day_of_week", Type: "int", NotNull: true},
				{Name: "day_of_week_name", Type: "text", NotNull: true},
				{Name: "quarter", Type: "int", NotNull: true},
				{Name: "week", Type: "int", NotNull: true},
				{Name: "is_weekend", Type: "bool", NotNull: true},
			},
			PrimaryKey: []string{"id"},
		},
		{
			Name: "dim_movie",
			Columns: []ColumnSpec{
				{Name: "id", Type: "bigint", NotNull: true},
				{Name: "original_id", Type: "bigint", NotNull: true},
				{Name: "title", Type: "text"},
				{Name: "original_language", Type: "text"},
				{Name: "overview", Type: "text"},
				{Name: "tagline", Type: "text"},
				{Name: "status", Type: "text"},
				{Name: "runtime", Type: "int"},
			},
			PrimaryKey: []string{"id"},
		},
		{
			Name: "dim_genre",
			Columns: []ColumnSpec{
				{Name: "id", Type: "bigint", NotNull: true},
				{Name: "original_id", Type: "bigint", NotNull: true},
				{Name: "name", Type: "text"},
			},
			PrimaryKey: []string{"id"},
		},
		{
			Name: "dim_director",
			Columns: []ColumnSpec{
				{Name: "id", Type: "bigint", NotNull: true},
				{Name: "original_id", Type: "bigint", NotNull: true},
				{Name: "name", Type: "text"},
				{Name: "profile_path", Type: "text"},
			},
			PrimaryKey: []string{"id"},
		},
		{
			Name: "dim_production_company",
			Columns: []ColumnSpec{
				{Name: "id", Type: "bigint", NotNull: true},
				{Name: "original_id", Type: "bigint", NotNull: true},
				{Name: "name", Type: "text"},
				{Name: "origin_country", Type: "text"},
			},
			PrimaryKey: []string{"id"},
		},
		{
			Name: "dim_language",
			Columns: []ColumnSpec{
				{Name: "id", Type: "bigint", NotNull: true},
				{Name: "iso_639_1", Type: "text", NotNull: true},
				{Name: "language_name", Type: "text"},
			},
			PrimaryKey: []string{"id"},
		},
		{
			Name: "dim_country",
			Columns: []ColumnSpec{
				{Name: "id", Type: "bigint", NotNull: true},
				{Name: "iso_3166_1", Type: "text", NotNull: true},
				{Name: "country_name", Type: "text"},
			},
			PrimaryKey: []string{"id"},
		},
		{
			Name: "bridge_movie_genre",
			Columns: []ColumnSpec{
				{Name: "movie_id", Type: "bigint", NotNull: true, References: "dim_movie(id)"},
				{Name: "genre_id", Type: "bigint", NotNull: true, References: "dim_genre(id)"},
			},
			PrimaryKey: []string{"movie_id", "genre_id"},
		},
		{
			Name: "fact_movie_release",
			Columns: []ColumnSpec{
				{Name: "id", Type: "bigint", NotNull: true},
				{Name: "movie_info_id", Type: "bigint", NotNull: true, References: "dim_movie(id)"},
				{Name: "release_date_id", Type: "bigint", NotNull: true, References: "dim_date(id)"},
				{Name: "date_id", Type: "bigint", NotNull: true, References: "dim_date(id)"},
				{Name: "director_id", Type: "bigint", References: "dim_director(id)"},
				{Name: "language_id", Type: "bigint", References: "dim_language(id)"},
				{Name: "company_id", Type: "bigint", References: "dim_production_company(id)"},
				{Name: "country_id", Type: "bigint", References: "dim_country(id)"},
				{Name: "budget", Type: "bigint", NotNull: true},
				{Name: "revenue", Type: "bigint", NotNull: true},
				{Name: "popularity", Type: "double", NotNull: true},
				{Name: "vote_average", Type: "double", NotNull: true},
				{Name: "runtime", Type: "int"},
			},
			PrimaryKey: []string{"id"},
		},
	}
}

// FactTable is the table whose row count drives the idempotency check.
const FactTable = "fact_movie_release"
