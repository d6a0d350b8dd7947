// Package mssql implements the warehouse repository on SQL Server via
// go-mssqldb.
package mssql

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/microsoft/go-mssqldb"

	"moviedw/internal/warehouse"
)

type Repo struct {
	db *sql.DB
}

func init() {
	warehouse.Register("mssql", New)
}

func New(ctx context.Context, cfg warehouse.Config) (warehouse.Repository, error) {
	db, err := sql.Open("sqlserver", cfg.DSN)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Repo{db: db}, nil
}

func (r *Repo) Close() { _ = r.db.Close() }

// EnsureSchema guards each CREATE TABLE with OBJECT_ID; SQL Server has no
// CREATE TABLE IF NOT EXISTS.
func (r *Repo) EnsureSchema(ctx context.Context, tables []warehouse.TableSpec) error {
	for _, t := range tables {
		ddl, err := buildCreateTableSQL(t)
		if err != nil {
			return err
		}
		guarded := fmt.Sprintf("IF OBJECT_ID(N'%s', N'U') IS NULL\nBEGIN\n%s\nEND", t.Name, ddl)
		if _, err := r.db.ExecContext(ctx, guarded); err != nil {
			return fmt.Errorf("create table %s: %w", t.Name, err)
		}
	}
	return nil
}

func (r *Repo) CountRows(ctx context.Context, table string) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+sqlIdent(table)).Scan(&n)
	return n, err
}

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
			fmt.Fprintf(&b, "@p%d", len(args)+j+1)
		}
		b.WriteString(")")
		args = append(args, row...)
	}

	res, err := r.db.ExecContext(ctx, b.String(), args...)
	if err != nil {
		return 0, err
	}
	n, _ := res.RowsAffected()
	return n, nil
}

func sqlIdent(id string) string {
	return "[" + strings.ReplaceAll(id, "]", "]]") + "]"
}

func mssqlType(portable string) (string, error) {
	switch portable {
	case "bigint":
		return "BIGINT", nil
	case "int":
		return "INT", nil
	case "double":
		return "FLOAT", nil
	case "bool":
		return "BIT", nil
	case "text":
		return "NVARCHAR(MAX)", nil
	case "date":
		return "DATE", nil
	default:
		return "", fmt.Errorf("mssql: unsupported column type %q", portable)
	}
}

func buildCreateTableSQL(t warehouse.TableSpec) (string, error) {
	if strings.TrimSpace(t.Name) == "" {
		return "", fmt.Errorf("mssql: table name is empty")
	}

	var parts []string
	for _, c := range t.Columns {
		typ, err := mssqlType(c.Type)
		if err != nil {
			return "", fmt.Errorf("%s.%s: %w", t.Name, c.Name, err)
		}
		col := sqlIdent(c.Name) + " " + typ
		if c.NotNull {
			col += " NOT NULL"
		}
		if c.References != "" {
			col += " REFERENCES " + refIdent(c.References)
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

	return fmt.Sprintf("CREATE TABLE %s (\n  %s\n)", sqlIdent(t.Name), strings.Join(parts, ",\n  ")), nil
}

// refIdent rewrites "table(column)" into bracketed SQL Server form.
func refIdent(ref string) string {
	open := strings.IndexByte(ref, '(')
	if open < 0 || !strings.HasSuffix(ref, ")") {
		return ref
	}
	table := ref[:open]
	column := ref[open+1 : len(ref)-1]
	return sqlIdent(table) + " (" + sqlIdent(column) + ")"
}
