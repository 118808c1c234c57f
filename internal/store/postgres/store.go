package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gosuda/crewhub/internal/domain"
)

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type Store struct {
	pool *pgxpool.Pool
}

var _ domain.TxRunner = (*Store)(nil) //nolint:gochecknoglobals // compile-time check

func New(ctx context.Context, dsn string, maxConns int32) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres.New: parse config: %w", err)
	}

	cfg.MaxConns = maxConns

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("postgres.New: connect: %w", err)
	}

	err = pool.Ping(ctx)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres.New: ping: %w", err)
	}

	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	s.pool.Close()
}

func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// InTx runs fn in a read-committed transaction. Writers on the same worker or
// project are serialized with transaction-scoped advisory locks taken through
// Tx.LockWorker and Tx.LockProject.
func (s *Store) InTx(ctx context.Context, fn func(ctx context.Context, tx domain.Tx) error) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return fmt.Errorf("postgres.InTx: begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(ctx, &pgTx{tx: tx}); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("postgres.InTx: commit: %w", err)
	}
	return nil
}

type pgTx struct {
	tx pgx.Tx
}

func (t *pgTx) Workers() domain.WorkerRepository         { return &WorkerRepo{db: t.tx} }
func (t *pgTx) Projects() domain.ProjectRepository       { return &ProjectRepo{db: t.tx} }
func (t *pgTx) Assignments() domain.AssignmentRepository { return &AssignmentRepo{db: t.tx} }
func (t *pgTx) Commitments() domain.CommitmentRepository { return &CommitmentRepo{db: t.tx} }
func (t *pgTx) History() domain.HistoryRepository        { return &HistoryRepo{db: t.tx} }
func (t *pgTx) Codes() domain.CodeAllocator              { return &CodeAllocator{db: t.tx} }

func (t *pgTx) LockWorker(ctx context.Context, id uuid.UUID) error {
	return advisoryLock(ctx, t.tx, "worker:"+id.String())
}

func (t *pgTx) LockProject(ctx context.Context, id uuid.UUID) error {
	return advisoryLock(ctx, t.tx, "project:"+id.String())
}

func advisoryLock(ctx context.Context, db querier, key string) error {
	if _, err := db.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`, key); err != nil {
		return fmt.Errorf("postgres.advisoryLock %s: %w", key, err)
	}
	return nil
}

// Postgres error codes mapped onto domain sentinels.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

func mapPgError(caller string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return fmt.Errorf("%s: %w: %s", caller, domain.ErrAlreadyExists, pgErr.ConstraintName)
		case pgForeignKeyViolation:
			return fmt.Errorf("%s: %w: %s", caller, domain.ErrNotFound, pgErr.ConstraintName)
		}
	}
	return fmt.Errorf("%s: %w", caller, err)
}

func checkRecord(caller string, rec *domain.StageTransitionRecord, entityID uuid.UUID, to string) error {
	if rec == nil || rec.EntityID != entityID || rec.ToValue != to {
		return fmt.Errorf("%s: %w: record does not describe the change", caller, domain.ErrValidation)
	}
	return nil
}
