package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ivankudzin/automarket/backend/internal/repo"
)

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func WithTx(ctx context.Context, pool *pgxpool.Pool, fn func(context.Context, pgx.Tx) error) error {
	if pool == nil {
		return errors.New("postgres pool is nil")
	}

	tx, err := pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if err := fn(ctx, tx); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}

	return nil
}

// Store binds every repository to one querier.
type Store struct {
	q querier
}

func newStore(q querier) *Store {
	return &Store{q: q}
}

func (s *Store) Listings() repo.ListingStore            { return &ListingRepo{q: s.q} }
func (s *Store) Accounts() repo.AccountStore            { return &AccountRepo{q: s.q} }
func (s *Store) Cases() repo.CaseStore                  { return &CaseRepo{q: s.q} }
func (s *Store) ModerationLog() repo.ModerationLogStore { return &ModerationLogRepo{q: s.q} }
func (s *Store) Reports() repo.ReportStore              { return &ReportRepo{q: s.q} }
func (s *Store) Transactions() repo.TransactionStore    { return &TransactionRepo{q: s.q} }
func (s *Store) Appointments() repo.AppointmentStore    { return &AppointmentRepo{q: s.q} }
func (s *Store) Notifications() repo.NotificationStore  { return &NotificationRepo{q: s.q} }

// TxRunner is the postgres unit of work. Outside WithTx its repositories run
// on the pool directly.
type TxRunner struct {
	*Store
	pool *pgxpool.Pool
}

func NewTxRunner(pool *pgxpool.Pool) *TxRunner {
	return &TxRunner{Store: newStore(pool), pool: pool}
}

func (r *TxRunner) WithTx(ctx context.Context, fn func(context.Context, repo.Store) error) error {
	return WithTx(ctx, r.pool, func(txCtx context.Context, tx pgx.Tx) error {
		return fn(txCtx, newStore(tx))
	})
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

var _ repo.TxRunner = (*TxRunner)(nil)
