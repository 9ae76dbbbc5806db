package subjectstore

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/tursodatabase/libsql-client-go/libsql"
	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var Schema string

type dialect struct {
	driver string
	upsert string
	find   string
}

var (
	sqliteDialect = dialect{
		driver: "sqlite",
		upsert: `insert into subjects (id, name) values (?, ?)
			on conflict (id) do update set name = excluded.name`,
		find: `select name from subjects where id = ?`,
	}
	libsqlDialect = dialect{
		driver: "libsql",
		upsert: sqliteDialect.upsert,
		find:   sqliteDialect.find,
	}
	postgresDialect = dialect{
		driver: "pgx",
		upsert: `insert into subjects (id, name) values ($1, $2)
			on conflict (id) do update set name = excluded.name`,
		find: `select name from subjects where id = $1`,
	}
)

// dialectFor picks the driver from the locator: postgres urls go to pgx,
// libsql/turso urls to libsql and anything else is a sqlite path.
func dialectFor(locator string) dialect {
	switch {
	case strings.HasPrefix(locator, "postgres://"), strings.HasPrefix(locator, "postgresql://"):
		return postgresDialect
	case strings.HasPrefix(locator, "libsql://"),
		strings.HasPrefix(locator, "http://"),
		strings.HasPrefix(locator, "https://"),
		strings.HasPrefix(locator, "ws://"),
		strings.HasPrefix(locator, "wss://"):
		return libsqlDialect
	default:
		return sqliteDialect
	}
}

// SQL stores names in a `subjects` table of a sqlite file, a libsql
// server or a postgres database.
type SQL struct {
	db      *sql.DB
	dialect dialect
}

func (s *SQL) Init(ctx context.Context, locator string) error {
	if locator == "" {
		locator = ":memory:"
	}
	d := dialectFor(locator)

	db, err := sql.Open(d.driver, locator)
	if err != nil {
		return err
	}
	if d.driver == "sqlite" {
		// every connection to :memory: is a separate database, and a
		// single writer avoids SQLITE_BUSY on files
		db.SetMaxOpenConns(1)
		if locator != ":memory:" {
			if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
				db.Close()
				return fmt.Errorf("enable wal: %w", err)
			}
		}
	}
	if _, err := db.ExecContext(ctx, Schema); err != nil {
		db.Close()
		return fmt.Errorf("create subjects table: %w", err)
	}

	s.db = db
	s.dialect = d
	return nil
}

func (s *SQL) Insert(ctx context.Context, subjectId, name string) error {
	_, err := s.db.ExecContext(ctx, s.dialect.upsert, subjectId, name)
	return err
}

func (s *SQL) Find(ctx context.Context, subjectId string) (string, bool, error) {
	var name string
	err := s.db.QueryRowContext(ctx, s.dialect.find, subjectId).Scan(&name)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return name, true, nil
}

func (s *SQL) FindAll(ctx context.Context) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx, `select id, name from subjects`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	names := make(map[string]string)
	for rows.Next() {
		var id, name string
		if err := rows.Scan(&id, &name); err != nil {
			return nil, err
		}
		names[id] = name
	}
	return names, rows.Err()
}

func (s *SQL) Close() error {
	return s.db.Close()
}
