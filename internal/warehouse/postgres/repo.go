// Package postgres implements the warehouse repository on pgx connection
// pools.
package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"moviedw/internal/warehouse"
)

type Repo struct {
	pool *pgxpool.Pool
}

func init() {
	warehouse.Register("postgres", New)
}

func New(ctx context.Context, cfg warehouse.Config) (warehouse.Repository, error) {
	pool, err := pgxpool.New(ctx, cfg.DSN)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return &Repo{pool: pool}, nil
}

func (r *Repo) Close() { r.pool.Close() }

func (r *Repo) EnsureSchema(ctx context.Context, tables []warehouse.TableSpec) error {
	for _, t := range tables {
		ddl, err := buildCreateTableSQL(t)
		if err != nil {
			return err
		}
		if _, err := r.pool.Exec(ctx, ddl); err != nil {
			return fmt.Errorf("create table %s: %w", t.Name, err)
		}
	}
	return nil
}

func (r *Repo) CountRows(ctx context.Context, table string) (int64, error) {
	var n int64
	err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM "+sqlIdent(table)).Scan(&n)
	return n, err
}

// InsertRows appends ON CONFLICT DO NOTHING so partial reruns converge on the
// primary key instead of erroring.
func (r *Repo) InsertRows(ctx context.Context, table string, columns []string, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	colList := make([]string, 0, len(columns))
	for _, c := range columns {
		colList = append(colList, sqlIdent(c))
	}

	var b strings.Builder
	b.WriteString("INSERT INTO ")
	b.WriteString(sqlIdent(table))
	b.WriteString(" (")
	b.WriteString(strings.Join(colList, ", "))
	b.WriteString(") VALUES ")

	args := make([]any, 0, len(rows)*len(columns))
	for i, row := range rows {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString("(")
		for j := range columns {
			if j > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(&b, "$%d", len(args)+j+1)
		}
		b.WriteString(")")
		args = append(args, row...)
	}
	b.WriteString(" ON CONFLICT DO NOTHING")

	tag, err := r.pool.Exec(ctx, b.String(), args...)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func sqlIdent(id string) string {
	return `"` + strings.ReplaceAll(id, `"`, `""`) + `"`
}

func pgType(portable string) (string, error) {
	switch portable {
	case "bigint":
		return "BIGINT", nil
	case "int":
		return "INTEGER", nil
	case "double":
		return "DOUBLE PRECISION", nil
	case "bool":
		return "BOOLEAN", nil
	case "text":
		return "TEXT", nil
	case "date":
		return "DATE", nil
	default:
		return "", fmt.Errorf("postgres: unsupported column type %q", portable)
	}
}

func buildCreateTableSQL(t warehouse.TableSpec) (string, error) {
	if strings.TrimSpace(t.Name) == "" {
		return "", fmt.Errorf("postgres: table name is empty")
	}

	var parts []string
	for _, c := range t.Columns {
		typ, err := pgType(c.Type)
		if err != nil {
			return "", fmt.Errorf("%s.%s: %w", t.Name, c.Name, err)
		}
		col := sqlIdent(c.Name) + " " + typ
		if c.NotNull {
			col += " NOT NULL"
		}
		if c.References != "" {
			col += " REFERENCES " + c.References
		}
		parts = append(parts, col)
	}

	if len(t.PrimaryKey) > 0 {
		keys := make([]string, 0, len(t.PrimaryKey))
		for _, k := range t.PrimaryKey {
			keys = append(keys, sqlIdent(k))
		}
		parts = append(parts, "PRIMARY KEY ("+strings.Join(keys, ", ")+")")
	}

	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n  %s\n);",
		sqlIdent(t.Name), strings.Join(parts, ",\n  ")), nil
}
