package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/ivankudzin/automarket/backend/internal/domain/enums"
	"github.com/ivankudzin/automarket/backend/internal/domain/errs"
	"github.com/ivankudzin/automarket/backend/internal/domain/model"
)

type TransactionRepo struct {
	q querier
}

const transactionColumns = `
	id,
	listing_id,
	requester_id,
	owner_id,
	kind,
	status,
	confirmed_by_requester,
	confirmed_by_owner,
	amount::text,
	rental_start_at,
	rental_expected_return_at,
	rental_actual_return_at,
	rental_daily_price::text,
	rental_deposit::text,
	calendar_event_id,
	completed_at,
	cancelled_at,
	version,
	created_at,
	updated_at`

func (r *TransactionRepo) Create(ctx context.Context, t model.Transaction) (model.Transaction, error) {
	rental := rentalArgs(t.Rental)
	out, err := scanTransaction(r.q.QueryRow(ctx, `
INSERT INTO transactions (
	listing_id,
	requester_id,
	owner_id,
	kind,
	status,
	confirmed_by_requester,
	confirmed_by_owner,
	amount,
	rental_start_at,
	rental_expected_return_at,
	rental_daily_price,
	rental_deposit,
	version,
	created_at,
	updated_at
) VALUES ($1, $2, $3, $4, $5, FALSE, FALSE, $6::numeric, $7, $8, $9::numeric, $10::numeric, 1, NOW(), NOW())
RETURNING`+transactionColumns,
		t.ListingID, t.RequesterID, t.OwnerID, string(t.Kind), string(t.Status), t.Amount.String(),
		rental.startAt, rental.expectedReturnAt, rental.dailyPrice, rental.deposit,
	))
	if err != nil {
		return model.Transaction{}, fmt.Errorf("create transaction: %w", err)
	}
	return out, nil
}

func (r *TransactionRepo) Get(ctx context.Context, id int64) (model.Transaction, error) {
	return r.getOne(ctx, `SELECT`+transactionColumns+` FROM transactions WHERE id = $1`, id)
}

func (r *TransactionRepo) GetForUpdate(ctx context.Context, id int64) (model.Transaction, error) {
	return r.getOne(ctx, `SELECT`+transactionColumns+` FROM transactions WHERE id = $1 FOR UPDATE`, id)
}

func (r *TransactionRepo) getOne(ctx context.Context, query string, id int64) (model.Transaction, error) {
	t, err := scanTransaction(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Transaction{}, errs.ErrTransactionNotFound
		}
		return model.Transaction{}, fmt.Errorf("get transaction %d: %w", id, err)
	}
	return t, nil
}

// Update writes both confirmation flags and the status in one statement,
// guarded by the version read under the row lock.
func (r *TransactionRepo) Update(ctx context.Context, t model.Transaction) (model.Transaction, error) {
	var actualReturnAt *time.Time
	if t.Rental != nil {
		actualReturnAt = t.Rental.ActualReturnAt
	}

	out, err := scanTransaction(r.q.QueryRow(ctx, `
UPDATE transactions
SET
	status = $3,
	confirmed_by_requester = $4,
	confirmed_by_owner = $5,
	rental_actual_return_at = $6,
	completed_at = $7,
	cancelled_at = $8,
	version = version + 1,
	updated_at = NOW()
WHERE id = $1 AND version = $2
RETURNING`+transactionColumns,
		t.ID, t.Version, string(t.Status), t.ConfirmedByRequester, t.ConfirmedByOwner, actualReturnAt, t.CompletedAt, t.CancelledAt,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Transaction{}, errs.ErrVersionConflict
		}
		return model.Transaction{}, fmt.Errorf("update transaction %d: %w", t.ID, err)
	}
	return out, nil
}

// SetCalendarEvent records the external event id without touching the
// version, since it is written after commit by the effect dispatcher.
func (r *TransactionRepo) SetCalendarEvent(ctx context.Context, id int64, eventID string) error {
	tag, err := r.q.Exec(ctx, `
UPDATE transactions
SET calendar_event_id = $2
WHERE id = $1
`, id, eventID)
	if err != nil {
		return fmt.Errorf("set calendar event: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrTransactionNotFound
	}
	return nil
}

type rentalColumns struct {
	startAt          *time.Time
	expectedReturnAt *time.Time
	dailyPrice       *string
	deposit          *string
}

func rentalArgs(terms *model.RentalTerms) rentalColumns {
	if terms == nil {
		return rentalColumns{}
	}
	startAt := terms.StartAt.UTC()
	expected := terms.ExpectedReturnAt.UTC()
	dailyPrice := terms.DailyPrice.String()
	deposit := terms.Deposit.String()
	return rentalColumns{
		startAt:          &startAt,
		expectedReturnAt: &expected,
		dailyPrice:       &dailyPrice,
		deposit:          &deposit,
	}
}

func scanTransaction(row pgx.Row) (model.Transaction, error) {
	var (
		t                       model.Transaction
		kind, status, amount    string
		startAt, expectedReturn *time.Time
		actualReturn            *time.Time
		dailyPrice, deposit     *string
	)
	if err := row.Scan(
		&t.ID,
		&t.ListingID,
		&t.RequesterID,
		&t.OwnerID,
		&kind,
		&status,
		&t.ConfirmedByRequester,
		&t.ConfirmedByOwner,
		&amount,
		&startAt,
		&expectedReturn,
		&actualReturn,
		&dailyPrice,
		&deposit,
		&t.CalendarEventID,
		&t.CompletedAt,
		&t.CancelledAt,
		&t.Version,
		&t.CreatedAt,
		&t.UpdatedAt,
	); err != nil {
		return model.Transaction{}, err
	}

	t.Kind = enums.OfferType(kind)
	t.Status = enums.TransactionStatus(status)

	parsed, err := decimal.NewFromString(amount)
	if err != nil {
		return model.Transaction{}, fmt.Errorf("parse transaction amount: %w", err)
	}
	t.Amount = parsed

	if startAt != nil && expectedReturn != nil {
		terms := &model.RentalTerms{
			StartAt:          *startAt,
			ExpectedReturnAt: *expectedReturn,
			ActualReturnAt:   actualReturn,
		}
		if dailyPrice != nil {
			if terms.DailyPrice, err = decimal.NewFromString(*dailyPrice); err != nil {
				return model.Transaction{}, fmt.Errorf("parse rental daily price: %w", err)
			}
		}
		if deposit != nil {
			if terms.Deposit, err = decimal.NewFromString(*deposit); err != nil {
				return model.Transaction{}, fmt.Errorf("parse rental deposit: %w", err)
			}
		}
		t.Rental = terms
	}
	return t, nil
}
