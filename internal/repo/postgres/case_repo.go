package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/ivankudzin/automarket/backend/internal/domain/enums"
	"github.com/ivankudzin/automarket/backend/internal/domain/errs"
	"github.com/ivankudzin/automarket/backend/internal/domain/model"
)

type CaseRepo struct {
	q querier
}

const caseColumns = `
	id,
	target_type,
	target_id,
	status,
	action,
	reason,
	opened_by,
	decided_by,
	decided_at,
	expires_at,
	expiry_handled,
	version,
	created_at,
	updated_at`

func (r *CaseRepo) Create(ctx context.Context, c model.ModerationCase) (model.ModerationCase, error) {
	out, err := scanCase(r.q.QueryRow(ctx, `
INSERT INTO moderation_cases (
	target_type,
	target_id,
	status,
	reason,
	opened_by,
	version,
	created_at,
	updated_at
) VALUES ($1, $2, 'open', $3, $4, 1, NOW(), NOW())
RETURNING`+caseColumns,
		string(c.Target.Kind), c.Target.ID, c.Reason, c.OpenedBy,
	))
	if err != nil {
		if isUniqueViolation(err) {
			return model.ModerationCase{}, errs.ErrDuplicateCase
		}
		return model.ModerationCase{}, fmt.Errorf("create moderation case: %w", err)
	}
	return out, nil
}

func (r *CaseRepo) Get(ctx context.Context, id int64) (model.ModerationCase, error) {
	return r.getOne(ctx, `SELECT`+caseColumns+` FROM moderation_cases WHERE id = $1`, id)
}

func (r *CaseRepo) GetForUpdate(ctx context.Context, id int64) (model.ModerationCase, error) {
	return r.getOne(ctx, `SELECT`+caseColumns+` FROM moderation_cases WHERE id = $1 FOR UPDATE`, id)
}

func (r *CaseRepo) getOne(ctx context.Context, query string, id int64) (model.ModerationCase, error) {
	c, err := scanCase(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.ModerationCase{}, errs.ErrCaseNotFound
		}
		return model.ModerationCase{}, fmt.Errorf("get moderation case %d: %w", id, err)
	}
	return c, nil
}

func (r *CaseRepo) FindOpenForUpdate(ctx context.Context, target model.TargetRef) (model.ModerationCase, bool, error) {
	c, err := scanCase(r.q.QueryRow(ctx, `SELECT`+caseColumns+`
FROM moderation_cases
WHERE target_type = $1 AND target_id = $2 AND status = 'open'
FOR UPDATE`, string(target.Kind), target.ID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.ModerationCase{}, false, nil
		}
		return model.ModerationCase{}, false, fmt.Errorf("find open case for %s: %w", target, err)
	}
	return c, true, nil
}

func (r *CaseRepo) Update(ctx context.Context, c model.ModerationCase) (model.ModerationCase, error) {
	var action *string
	if c.Action != nil {
		value := string(*c.Action)
		action = &value
	}

	out, err := scanCase(r.q.QueryRow(ctx, `
UPDATE moderation_cases
SET
	status = $3,
	action = $4,
	reason = $5,
	decided_by = $6,
	decided_at = $7,
	expires_at = $8,
	expiry_handled = $9,
	version = version + 1,
	updated_at = NOW()
WHERE id = $1 AND version = $2
RETURNING`+caseColumns,
		c.ID, c.Version, string(c.Status), action, c.Reason, c.DecidedBy, c.DecidedAt, c.ExpiresAt, c.ExpiryHandled,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.ModerationCase{}, errs.ErrVersionConflict
		}
		return model.ModerationCase{}, fmt.Errorf("update moderation case %d: %w", c.ID, err)
	}
	return out, nil
}

func (r *CaseRepo) SupersedeExpiries(ctx context.Context, target model.TargetRef) (int, error) {
	tag, err := r.q.Exec(ctx, `
UPDATE moderation_cases
SET
	expiry_handled = TRUE,
	version = version + 1,
	updated_at = NOW()
WHERE target_type = $1
  AND target_id = $2
  AND status = 'decided'
  AND action = 'suspend'
  AND expiry_handled = FALSE
  AND expires_at IS NOT NULL`, string(target.Kind), target.ID)
	if err != nil {
		return 0, fmt.Errorf("supersede expiries of %s: %w", target, err)
	}
	return int(tag.RowsAffected()), nil
}

func (r *CaseRepo) ListExpiredSuspensions(ctx context.Context, now time.Time, limit int) ([]model.ModerationCase, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := r.q.Query(ctx, `SELECT`+caseColumns+`
FROM moderation_cases
WHERE status = 'decided'
  AND action = 'suspend'
  AND expiry_handled = FALSE
  AND expires_at IS NOT NULL
  AND expires_at <= $1
ORDER BY expires_at ASC, id ASC
LIMIT $2`, now.UTC(), limit)
	if err != nil {
		return nil, fmt.Errorf("list expired suspensions: %w", err)
	}
	defer rows.Close()

	out := make([]model.ModerationCase, 0, limit)
	for rows.Next() {
		c, err := scanCase(rows)
		if err != nil {
			return nil, fmt.Errorf("scan expired suspension: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate expired suspensions: %w", err)
	}
	return out, nil
}

func scanCase(row pgx.Row) (model.ModerationCase, error) {
	var (
		c                  model.ModerationCase
		targetType, status string
		action             *string
	)
	if err := row.Scan(
		&c.ID,
		&targetType,
		&c.Target.ID,
		&status,
		&action,
		&c.Reason,
		&c.OpenedBy,
		&c.DecidedBy,
		&c.DecidedAt,
		&c.ExpiresAt,
		&c.ExpiryHandled,
		&c.Version,
		&c.CreatedAt,
		&c.UpdatedAt,
	); err != nil {
		return model.ModerationCase{}, err
	}
	c.Target.Kind = enums.TargetKind(targetType)
	c.Status = enums.CaseStatus(status)
	if action != nil {
		value := enums.CaseAction(*action)
		c.Action = &value
	}
	return c, nil
}
