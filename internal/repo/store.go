// Package repo declares the persistence contracts the engines run against.
// Implementations live in repo/postgres and repo/memory.
package repo

import (
	"context"
	"time"

	"github.com/ivankudzin/automarket/backend/internal/domain/enums"
	"github.com/ivankudzin/automarket/backend/internal/domain/model"
)

// Update methods compare the record's Version with the stored one, bump it and
// fail with errs.ErrVersionConflict when they differ.

type ListingStore interface {
	Create(ctx context.Context, l model.Listing) (model.Listing, error)
	Get(ctx context.Context, id int64) (model.Listing, error)
	GetForUpdate(ctx context.Context, id int64) (model.Listing, error)
	ListByOwnerForUpdate(ctx context.Context, ownerID int64) ([]model.Listing, error)
	Update(ctx context.Context, l model.Listing) (model.Listing, error)
	IncrementViews(ctx context.Context, id int64) (int64, error)
}

type AccountStore interface {
	Create(ctx context.Context, a model.Account) (model.Account, error)
	Get(ctx context.Context, id int64) (model.Account, error)
	GetForUpdate(ctx context.Context, id int64) (model.Account, error)
	Update(ctx context.Context, a model.Account) (model.Account, error)
}

type CaseStore interface {
	// Create fails with errs.ErrDuplicateCase when the target already has an
	// open case.
	Create(ctx context.Context, c model.ModerationCase) (model.ModerationCase, error)
	Get(ctx context.Context, id int64) (model.ModerationCase, error)
	GetForUpdate(ctx context.Context, id int64) (model.ModerationCase, error)
	FindOpenForUpdate(ctx context.Context, target model.TargetRef) (model.ModerationCase, bool, error)
	Update(ctx context.Context, c model.ModerationCase) (model.ModerationCase, error)
	// ListExpiredSuspensions returns decided suspend cases whose expiry passed
	// and was not handled yet.
	ListExpiredSuspensions(ctx context.Context, now time.Time, limit int) ([]model.ModerationCase, error)
	// SupersedeExpiries marks the pending expiries of earlier suspend cases on
	// target as handled, so a later decision is never undone by them.
	SupersedeExpiries(ctx context.Context, target model.TargetRef) (int, error)
}

type ModerationLogStore interface {
	Append(ctx context.Context, e model.ModerationLogEntry) (model.ModerationLogEntry, error)
	ListByTarget(ctx context.Context, target model.TargetRef) ([]model.ModerationLogEntry, error)
}

type ReportStore interface {
	// Create fails with errs.ErrDuplicateReport when the reporter already has
	// a pending report against the target.
	Create(ctx context.Context, r model.Report) (model.Report, error)
	Get(ctx context.Context, id int64) (model.Report, error)
	HasPending(ctx context.Context, reporterID int64, target model.TargetRef) (bool, error)
	// ResolvePending moves every pending report against any of targets to
	// status and returns the updated rows.
	ResolvePending(ctx context.Context, targets []model.TargetRef, status enums.ReportStatus, now time.Time) ([]model.Report, error)
	CountPending(ctx context.Context, target model.TargetRef) (int, error)
}

type TransactionStore interface {
	Create(ctx context.Context, t model.Transaction) (model.Transaction, error)
	Get(ctx context.Context, id int64) (model.Transaction, error)
	GetForUpdate(ctx context.Context, id int64) (model.Transaction, error)
	Update(ctx context.Context, t model.Transaction) (model.Transaction, error)
	SetCalendarEvent(ctx context.Context, id int64, eventID string) error
}

type AppointmentStore interface {
	Create(ctx context.Context, a model.Appointment) (model.Appointment, error)
	Get(ctx context.Context, id int64) (model.Appointment, error)
	GetForUpdate(ctx context.Context, id int64) (model.Appointment, error)
	Update(ctx context.Context, a model.Appointment) (model.Appointment, error)
}

type NotificationStore interface {
	// Insert stores n once per effect id. created is false for a repeat.
	Insert(ctx context.Context, n model.StoredNotification) (model.StoredNotification, bool, error)
	ListByRecipient(ctx context.Context, recipientID int64, limit int) ([]model.StoredNotification, error)
}

// Store groups the repositories visible inside one unit of work.
type Store interface {
	Listings() ListingStore
	Accounts() AccountStore
	Cases() CaseStore
	ModerationLog() ModerationLogStore
	Reports() ReportStore
	Transactions() TransactionStore
	Appointments() AppointmentStore
	Notifications() NotificationStore
}

// TxRunner runs fn in a unit of work. Every write made through the Store is
// committed when fn returns nil and rolled back otherwise. Outside WithTx,
// Store reads and writes autocommit.
type TxRunner interface {
	Store
	WithTx(ctx context.Context, fn func(ctx context.Context, s Store) error) error
}
