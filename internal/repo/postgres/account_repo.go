package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/ivankudzin/automarket/backend/internal/domain/enums"
	"github.com/ivankudzin/automarket/backend/internal/domain/errs"
	"github.com/ivankudzin/automarket/backend/internal/domain/model"
)

type AccountRepo struct {
	q querier
}

const accountColumns = `
	id,
	email,
	display_name,
	role,
	status,
	telegram_chat_id,
	version,
	created_at,
	updated_at`

func (r *AccountRepo) Create(ctx context.Context, a model.Account) (model.Account, error) {
	out, err := scanAccount(r.q.QueryRow(ctx, `
INSERT INTO accounts (
	email,
	display_name,
	role,
	status,
	telegram_chat_id,
	version,
	created_at,
	updated_at
) VALUES ($1, $2, $3, $4, $5, 1, NOW(), NOW())
RETURNING`+accountColumns,
		a.Email, a.DisplayName, string(a.Role), string(a.Status), a.TelegramChatID,
	))
	if err != nil {
		if isUniqueViolation(err) {
			return model.Account{}, errs.Invalid("email is already registered")
		}
		return model.Account{}, fmt.Errorf("create account: %w", err)
	}
	return out, nil
}

func (r *AccountRepo) Get(ctx context.Context, id int64) (model.Account, error) {
	return r.getOne(ctx, `SELECT`+accountColumns+` FROM accounts WHERE id = $1`, id)
}

func (r *AccountRepo) GetForUpdate(ctx context.Context, id int64) (model.Account, error) {
	return r.getOne(ctx, `SELECT`+accountColumns+` FROM accounts WHERE id = $1 FOR UPDATE`, id)
}

func (r *AccountRepo) getOne(ctx context.Context, query string, id int64) (model.Account, error) {
	a, err := scanAccount(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Account{}, errs.ErrAccountNotFound
		}
		return model.Account{}, fmt.Errorf("get account %d: %w", id, err)
	}
	return a, nil
}

func (r *AccountRepo) Update(ctx context.Context, a model.Account) (model.Account, error) {
	out, err := scanAccount(r.q.QueryRow(ctx, `
UPDATE accounts
SET
	display_name = $3,
	role = $4,
	status = $5,
	telegram_chat_id = $6,
	version = version + 1,
	updated_at = NOW()
WHERE id = $1 AND version = $2
RETURNING`+accountColumns,
		a.ID, a.Version, a.DisplayName, string(a.Role), string(a.Status), a.TelegramChatID,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Account{}, errs.ErrVersionConflict
		}
		return model.Account{}, fmt.Errorf("update account %d: %w", a.ID, err)
	}
	return out, nil
}

func scanAccount(row pgx.Row) (model.Account, error) {
	var (
		a            model.Account
		role, status string
	)
	if err := row.Scan(
		&a.ID,
		&a.Email,
		&a.DisplayName,
		&role,
		&status,
		&a.TelegramChatID,
		&a.Version,
		&a.CreatedAt,
		&a.UpdatedAt,
	); err != nil {
		return model.Account{}, err
	}
	a.Role = enums.Role(role)
	a.Status = enums.AccountStatus(status)
	return a, nil
}
