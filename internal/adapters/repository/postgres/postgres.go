// Package postgres implements the repository interfaces on PostgreSQL.
package postgres

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/okian/apest/internal/adapters/repository"
	"github.com/okian/apest/internal/domain/apest"
	"github.com/okian/apest/internal/domain/model"
	"github.com/okian/apest/pkg/metrics"
)

const (
	defaultMaxConns    = 10
	healthCheckPeriod  = 30 * time.Second
	uniqueViolationSQL = "23505"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Option configures Connect.
type Option func(*options)

type options struct {
	maxConns int32
	migrate  bool
}

// WithMaxConns caps the connection pool.
func WithMaxConns(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxConns = int32(n) //nolint:gosec // bounded by config
		}
	}
}

// WithoutMigrations skips schema migration on connect.
func WithoutMigrations() Option {
	return func(o *options) {
		o.migrate = false
	}
}

// Store is a repository.Store backed by a pgx pool.
type Store struct {
	pool *pgxpool.Pool
}

var _ repository.Store = (*Store)(nil)

// Connect opens a pool, verifies it and applies pending migrations.
func Connect(ctx context.Context, url string, opts ...Option) (*Store, error) {
	o := options{maxConns: defaultMaxConns, migrate: true}
	for _, opt := range opts {
		opt(&o)
	}

	cfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	cfg.MaxConns = o.maxConns
	cfg.HealthCheckPeriod = healthCheckPeriod

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}

	if o.migrate {
		if err := Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, err
		}
	}
	return &Store{pool: pool}, nil
}

// Migrate applies the embedded migrations through goose.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	sub, err := fs.Sub(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("migrations fs: %w", err)
	}
	db := stdlib.OpenDBFromPool(pool)
	provider, err := goose.NewProvider(goose.DialectPostgres, db, sub)
	if err != nil {
		_ = db.Close()
		return fmt.Errorf("goose provider: %w", err)
	}
	defer provider.Close() //nolint:errcheck // closes only the sql.DB wrapper

	if _, err := provider.Up(ctx); err != nil {
		return fmt.Errorf("migrate up: %w", err)
	}
	return nil
}

func (s *Store) UpsertMember(ctx context.Context, m model.Member) error {
	start := time.Now()
	defer observe("upsert_member", start)

	_, err := s.pool.Exec(ctx, `
		INSERT INTO members (church_id, member_id, name, apostle, prophet, evangelist, shepherd, teacher, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (church_id, member_id) DO UPDATE SET
			name = EXCLUDED.name,
			apostle = EXCLUDED.apostle,
			prophet = EXCLUDED.prophet,
			evangelist = EXCLUDED.evangelist,
			shepherd = EXCLUDED.shepherd,
			teacher = EXCLUDED.teacher,
			updated_at = EXCLUDED.updated_at
	`, m.ChurchID, m.ID, m.Name,
		m.Roles.Score(apest.Apostle), m.Roles.Score(apest.Prophet), m.Roles.Score(apest.Evangelist),
		m.Roles.Score(apest.Shepherd), m.Roles.Score(apest.Teacher), m.UpdatedAt)
	if err != nil {
		metrics.RecordRepositoryError("upsert_member")
		return fmt.Errorf("upsert member %s/%s: %w", m.ChurchID, m.ID, err)
	}
	return nil
}

const memberColumns = `church_id, member_id, name, apostle, prophet, evangelist, shepherd, teacher, updated_at`

func scanMember(row pgx.Row) (model.Member, error) {
	var (
		m             model.Member
		a, p, e, s, t float64
	)
	if err := row.Scan(&m.ChurchID, &m.ID, &m.Name, &a, &p, &e, &s, &t, &m.UpdatedAt); err != nil {
		return model.Member{}, err
	}
	m.Roles = apest.NewVector(a, p, e, s, t)
	return m, nil
}

func (s *Store) Member(ctx context.Context, churchID, memberID string) (model.Member, error) {
	start := time.Now()
	defer observe("member", start)

	row := s.pool.QueryRow(ctx, `SELECT `+memberColumns+` FROM members WHERE church_id = $1 AND member_id = $2`,
		churchID, memberID)
	m, err := scanMember(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Member{}, fmt.Errorf("%w: member %s/%s", repository.ErrNotFound, churchID, memberID)
	}
	if err != nil {
		metrics.RecordRepositoryError("member")
		return model.Member{}, fmt.Errorf("member %s/%s: %w", churchID, memberID, err)
	}
	return m, nil
}

func (s *Store) Members(ctx context.Context, churchID string) ([]model.Member, error) {
	start := time.Now()
	defer observe("members", start)

	rows, err := s.pool.Query(ctx, `SELECT `+memberColumns+` FROM members WHERE church_id = $1 ORDER BY member_id COLLATE "C"`,
		churchID)
	if err != nil {
		metrics.RecordRepositoryError("members")
		return nil, fmt.Errorf("members of %s: %w", churchID, err)
	}
	defer rows.Close()

	out := []model.Member{}
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		metrics.RecordRepositoryError("members")
		return nil, fmt.Errorf("members of %s: %w", churchID, err)
	}
	return out, nil
}

func (s *Store) CountMembers(ctx context.Context) (int, error) {
	var n int
	if err := s.pool.QueryRow(ctx, `SELECT count(*) FROM members`).Scan(&n); err != nil {
		metrics.RecordRepositoryError("count_members")
		return 0, fmt.Errorf("count members: %w", err)
	}
	return n, nil
}

func (s *Store) PutCode(ctx context.Context, c model.InviteCode) error {
	start := time.Now()
	defer observe("put_code", start)

	_, err := s.pool.Exec(ctx, `
		INSERT INTO invite_codes (kind, code, entity_id, created_at)
		VALUES ($1, $2, $3, $4)
	`, string(c.Kind), c.Code, c.EntityID, c.CreatedAt)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationSQL {
		return fmt.Errorf("%w: %s %q", repository.ErrCodeExists, c.Kind, c.Code)
	}
	if err != nil {
		metrics.RecordRepositoryError("put_code")
		return fmt.Errorf("put code: %w", err)
	}
	return nil
}

func (s *Store) Codes(ctx context.Context, kind model.CodeKind) ([]model.InviteCode, error) {
	start := time.Now()
	defer observe("codes", start)

	rows, err := s.pool.Query(ctx, `
		SELECT kind, code, entity_id, created_at FROM invite_codes WHERE kind = $1 ORDER BY id
	`, string(kind))
	if err != nil {
		metrics.RecordRepositoryError("codes")
		return nil, fmt.Errorf("codes of %s: %w", kind, err)
	}
	defer rows.Close()

	out := []model.InviteCode{}
	for rows.Next() {
		var (
			c model.InviteCode
			k string
		)
		if err := rows.Scan(&k, &c.Code, &c.EntityID, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan code: %w", err)
		}
		c.Kind = model.CodeKind(k)
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		metrics.RecordRepositoryError("codes")
		return nil, fmt.Errorf("codes of %s: %w", kind, err)
	}
	return out, nil
}

// Close releases the pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

func observe(op string, start time.Time) {
	metrics.RecordRepositoryLatency(op, float64(time.Since(start).Microseconds())/1000)
}
