// Package memory is an in-process implementation of the repo contracts. A
// unit of work holds the database lock for its whole duration and restores a
// snapshot when it fails, which gives the same all-or-nothing behaviour as a
// postgres transaction with row locks.
package memory

import (
	"context"
	"maps"
	"sync"
	"time"

	"github.com/ivankudzin/automarket/backend/internal/domain/model"
	"github.com/ivankudzin/automarket/backend/internal/repo"
)

type state struct {
	seq           int64
	accounts      map[int64]model.Account
	listings      map[int64]model.Listing
	cases         map[int64]model.ModerationCase
	log           []model.ModerationLogEntry
	reports       map[int64]model.Report
	transactions  map[int64]model.Transaction
	appointments  map[int64]model.Appointment
	notifications map[int64]model.StoredNotification
}

func newState() state {
	return state{
		accounts:      make(map[int64]model.Account),
		listings:      make(map[int64]model.Listing),
		cases:         make(map[int64]model.ModerationCase),
		reports:       make(map[int64]model.Report),
		transactions:  make(map[int64]model.Transaction),
		appointments:  make(map[int64]model.Appointment),
		notifications: make(map[int64]model.StoredNotification),
	}
}

func (s state) clone() state {
	return state{
		seq:           s.seq,
		accounts:      maps.Clone(s.accounts),
		listings:      maps.Clone(s.listings),
		cases:         maps.Clone(s.cases),
		log:           append([]model.ModerationLogEntry(nil), s.log...),
		reports:       maps.Clone(s.reports),
		transactions:  maps.Clone(s.transactions),
		appointments:  maps.Clone(s.appointments),
		notifications: maps.Clone(s.notifications),
	}
}

type DB struct {
	mu  sync.Mutex
	st  state
	now func() time.Time
}

func New() *DB {
	return &DB{
		st:  newState(),
		now: func() time.Time { return time.Now().UTC() },
	}
}

func (db *DB) nextID() int64 {
	db.st.seq++
	return db.st.seq
}

// view is the Store handed out by DB. inTx views run under the lock already
// held by WithTx.
type view struct {
	db   *DB
	inTx bool
}

func (v view) run(fn func(st *state)) {
	if !v.inTx {
		v.db.mu.Lock()
		defer v.db.mu.Unlock()
	}
	fn(&v.db.st)
}

func (db *DB) Listings() repo.ListingStore            { return listingRepo{view{db: db}} }
func (db *DB) Accounts() repo.AccountStore            { return accountRepo{view{db: db}} }
func (db *DB) Cases() repo.CaseStore                  { return caseRepo{view{db: db}} }
func (db *DB) ModerationLog() repo.ModerationLogStore { return logRepo{view{db: db}} }
func (db *DB) Reports() repo.ReportStore              { return reportRepo{view{db: db}} }
func (db *DB) Transactions() repo.TransactionStore    { return transactionRepo{view{db: db}} }
func (db *DB) Appointments() repo.AppointmentStore    { return appointmentRepo{view{db: db}} }
func (db *DB) Notifications() repo.NotificationStore  { return notificationRepo{view{db: db}} }

type txStore struct {
	v view
}

func (s txStore) Listings() repo.ListingStore            { return listingRepo{s.v} }
func (s txStore) Accounts() repo.AccountStore            { return accountRepo{s.v} }
func (s txStore) Cases() repo.CaseStore                  { return caseRepo{s.v} }
func (s txStore) ModerationLog() repo.ModerationLogStore { return logRepo{s.v} }
func (s txStore) Reports() repo.ReportStore              { return reportRepo{s.v} }
func (s txStore) Transactions() repo.TransactionStore    { return transactionRepo{s.v} }
func (s txStore) Appointments() repo.AppointmentStore    { return appointmentRepo{s.v} }
func (s txStore) Notifications() repo.NotificationStore  { return notificationRepo{s.v} }

func (db *DB) WithTx(ctx context.Context, fn func(context.Context, repo.Store) error) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	snapshot := db.st.clone()
	committed := false
	defer func() {
		if !committed {
			db.st = snapshot
		}
	}()

	if err := fn(ctx, txStore{v: view{db: db, inTx: true}}); err != nil {
		return err
	}
	committed = true
	return nil
}

var _ repo.TxRunner = (*DB)(nil)
