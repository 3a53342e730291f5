package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/ivankudzin/automarket/backend/internal/domain/enums"
	"github.com/ivankudzin/automarket/backend/internal/domain/model"
)

// ModerationLogRepo only inserts and reads; rows are never updated or deleted.
type ModerationLogRepo struct {
	q querier
}

const moderationLogColumns = `
	id,
	case_id,
	target_type,
	target_id,
	action,
	from_status,
	to_status,
	moderator_id,
	reason,
	cascaded,
	created_at`

func (r *ModerationLogRepo) Append(ctx context.Context, e model.ModerationLogEntry) (model.ModerationLogEntry, error) {
	out, err := scanLogEntry(r.q.QueryRow(ctx, `
INSERT INTO moderation_log (
	case_id,
	target_type,
	target_id,
	action,
	from_status,
	to_status,
	moderator_id,
	reason,
	cascaded,
	created_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW())
RETURNING`+moderationLogColumns,
		e.CaseID, string(e.Target.Kind), e.Target.ID, string(e.Action), e.FromStatus, e.ToStatus, e.ModeratorID, e.Reason, e.Cascaded,
	))
	if err != nil {
		return model.ModerationLogEntry{}, fmt.Errorf("append moderation log: %w", err)
	}
	return out, nil
}

func (r *ModerationLogRepo) ListByTarget(ctx context.Context, target model.TargetRef) ([]model.ModerationLogEntry, error) {
	rows, err := r.q.Query(ctx, `SELECT`+moderationLogColumns+`
FROM moderation_log
WHERE target_type = $1 AND target_id = $2
ORDER BY id ASC`, string(target.Kind), target.ID)
	if err != nil {
		return nil, fmt.Errorf("list moderation log: %w", err)
	}
	defer rows.Close()

	out := make([]model.ModerationLogEntry, 0, 4)
	for rows.Next() {
		e, err := scanLogEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan moderation log: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate moderation log: %w", err)
	}
	return out, nil
}

func scanLogEntry(row pgx.Row) (model.ModerationLogEntry, error) {
	var (
		e                  model.ModerationLogEntry
		targetType, action string
	)
	if err := row.Scan(
		&e.ID,
		&e.CaseID,
		&targetType,
		&e.Target.ID,
		&action,
		&e.FromStatus,
		&e.ToStatus,
		&e.ModeratorID,
		&e.Reason,
		&e.Cascaded,
		&e.CreatedAt,
	); err != nil {
		return model.ModerationLogEntry{}, err
	}
	e.Target.Kind = enums.TargetKind(targetType)
	e.Action = enums.CaseAction(action)
	return e, nil
}
