package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// PostgresConfig carries the connection settings for the Postgres-backed
// store.
type PostgresConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// DSN renders the lib/pq connection string.
func (c PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

// Postgres stores each record as a JSONB document keyed by a UUID id
// column. Filters are evaluated with JSONB containment, so a where clause
// of {"completed": false} matches documents whose completed field equals
// false. Saves replace the whole document.
type Postgres struct {
	db *sqlx.DB
}

// OpenPostgres connects, configures the pool and verifies the connection.
func OpenPostgres(cfg PostgresConfig) (*Postgres, error) {
	db, err := sqlx.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &Postgres{db: db}, nil
}

// NewPostgresFromDSN connects using a raw connection string. Used by the
// integration tests, which receive a DSN from the container runtime.
func NewPostgresFromDSN(dsn string) (*Postgres, error) {
	db, err := sqlx.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &Postgres{db: db}, nil
}

func (p *Postgres) Close() error { return p.db.Close() }

// Migrate creates the two collections. Idempotent.
func (p *Postgres) Migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS tasks (
			id  UUID PRIMARY KEY,
			doc JSONB NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS users (
			id  UUID PRIMARY KEY,
			doc JSONB NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS tasks_doc_idx ON tasks USING GIN (doc)`,
		`CREATE INDEX IF NOT EXISTS users_email_idx ON users ((doc->>'email'))`,
	}
	for _, stmt := range stmts {
		if _, err := p.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

func (p *Postgres) insert(ctx context.Context, table, id string, doc any) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}
	_, err = p.db.ExecContext(ctx,
		fmt.Sprintf(`INSERT INTO %s (id, doc) VALUES ($1, $2)`, table), id, raw)
	if err != nil {
		return fmt.Errorf("insert into %s: %w", table, err)
	}
	return nil
}

func (p *Postgres) get(ctx context.Context, table, id string, out any) error {
	var raw []byte
	err := p.db.GetContext(ctx, &raw,
		fmt.Sprintf(`SELECT doc FROM %s WHERE id::text = $1`, table), id)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("select from %s: %w", table, err)
	}
	return json.Unmarshal(raw, out)
}

func (p *Postgres) save(ctx context.Context, table, id string, doc any) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}
	res, err := p.db.ExecContext(ctx,
		fmt.Sprintf(`UPDATE %s SET doc = $2 WHERE id::text = $1`, table), id, raw)
	if err != nil {
		return fmt.Errorf("update %s: %w", table, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update %s: %w", table, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *Postgres) delete(ctx context.Context, table, id string) error {
	res, err := p.db.ExecContext(ctx,
		fmt.Sprintf(`DELETE FROM %s WHERE id::text = $1`, table), id)
	if err != nil {
		return fmt.Errorf("delete from %s: %w", table, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete from %s: %w", table, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// buildFilter renders the WHERE clause for a filter document. The "_id"
// key compares against the id column; everything else becomes a single
// JSONB containment check.
func buildFilter(where map[string]any, args *[]any) (string, error) {
	var conds []string
	rest := make(map[string]any, len(where))
	for k, v := range where {
		if k == "_id" {
			s, ok := v.(string)
			if !ok {
				return "", fmt.Errorf("_id filter must be a string")
			}
			*args = append(*args, s)
			conds = append(conds, fmt.Sprintf("id::text = $%d", len(*args)))
			continue
		}
		rest[k] = v
	}
	if len(rest) > 0 {
		raw, err := json.Marshal(rest)
		if err != nil {
			return "", fmt.Errorf("encode filter: %w", err)
		}
		*args = append(*args, raw)
		conds = append(conds, fmt.Sprintf("doc @> $%d", len(*args)))
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), nil
}

func buildOrder(sort []SortField, args *[]any) string {
	if len(sort) == 0 {
		return ""
	}
	parts := make([]string, 0, len(sort))
	for _, s := range sort {
		dir := "ASC"
		if s.Desc {
			dir = "DESC"
		}
		if s.Field == "_id" {
			parts = append(parts, "id "+dir)
			continue
		}
		*args = append(*args, s.Field)
		parts = append(parts, fmt.Sprintf("doc->>$%d %s", len(*args), dir))
	}
	return " ORDER BY " + strings.Join(parts, ", ")
}

func (p *Postgres) find(ctx context.Context, table string, q Query) ([][]byte, error) {
	var args []any
	filter, err := buildFilter(q.Where, &args)
	if err != nil {
		return nil, err
	}
	sqlStr := fmt.Sprintf(`SELECT doc FROM %s`, table) + filter + buildOrder(q.Sort, &args)
	if q.Limit > 0 {
		args = append(args, q.Limit)
		sqlStr += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if q.Skip > 0 {
		args = append(args, q.Skip)
		sqlStr += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	var raws [][]byte
	if err := p.db.SelectContext(ctx, &raws, sqlStr, args...); err != nil {
		return nil, fmt.Errorf("query %s: %w", table, err)
	}
	return raws, nil
}

func (p *Postgres) count(ctx context.Context, table string, where map[string]any) (int64, error) {
	var args []any
	filter, err := buildFilter(where, &args)
	if err != nil {
		return 0, err
	}
	var n int64
	sqlStr := fmt.Sprintf(`SELECT COUNT(*) FROM %s`, table) + filter
	if err := p.db.GetContext(ctx, &n, sqlStr, args...); err != nil {
		return 0, fmt.Errorf("count %s: %w", table, err)
	}
	return n, nil
}

func (p *Postgres) byIDs(ctx context.Context, table string, ids []string) ([][]byte, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var raws [][]byte
	err := p.db.SelectContext(ctx, &raws,
		fmt.Sprintf(`SELECT doc FROM %s WHERE id::text = ANY($1)`, table),
		pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("query %s by ids: %w", table, err)
	}
	return raws, nil
}
